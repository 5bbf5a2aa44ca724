package session

import (
	"context"

	"github.com/bookbuddy/storefront/internal/navigation"
	"github.com/bookbuddy/storefront/pkg/logger"
)

// Guard reacts to authentication failures from any outbound request by
// clearing the session and sending the user to the login page.
type Guard struct {
	store *Store
	nav   navigation.Navigator
	logg  *logger.Logger
}

func NewGuard(store *Store, nav navigation.Navigator, logg *logger.Logger) *Guard {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Guard{store: store, nav: nav, logg: logg}
}

// HandleUnauthorized logs the user out and redirects to login.
func (g *Guard) HandleUnauthorized(ctx context.Context) {
	if err := g.store.Logout(ctx); err != nil {
		g.logg.Error(ctx, "session.logout_failed", err)
	}
	if g.nav != nil {
		g.nav.Navigate(ctx, navigation.RouteLogin)
	}
}
