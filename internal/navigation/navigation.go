// Package navigation names the client's routes and the contract used to move
// between them.
package navigation

import (
	"context"
	"sync"

	"github.com/bookbuddy/storefront/pkg/enums"
	"github.com/bookbuddy/storefront/pkg/logger"
)

const (
	RouteHome           = "/"
	RouteLogin          = "/login"
	RouteCart           = "/cart"
	RouteSearch         = "/search"
	RouteCategories     = "/categories"
	RouteUserDashboard  = "/dashboard/user"
	RouteUserOrders     = "/dashboard/user/orders"
	RouteUserProfile    = "/dashboard/user/profile"
	RouteAdminDashboard = "/dashboard/admin"
	RouteAdminOrders    = "/dashboard/admin/orders"
	RouteAdminUsers     = "/dashboard/admin/users"
	RouteAdminProducts  = "/dashboard/admin/products"
	RouteCreateCategory = "/dashboard/admin/create-category"
	RouteCreateProduct  = "/dashboard/admin/create-product"
	routeProductPrefix  = "/product/"
	routeCategoryPrefix = "/category/"
)

// ProductRoute is the detail page for a product slug.
func ProductRoute(slug string) string { return routeProductPrefix + slug }

// CategoryRoute is the listing page for a category slug.
func CategoryRoute(slug string) string { return routeCategoryPrefix + slug }

// DashboardRoute picks the dashboard for a role.
func DashboardRoute(role enums.UserRole) string {
	if role.IsAdmin() {
		return RouteAdminDashboard
	}
	return RouteUserDashboard
}

// Navigator moves the client to a route.
type Navigator interface {
	Navigate(ctx context.Context, route string)
}

// Recorder is a Navigator that remembers where it has been. The terminal
// client and tests both use it.
type Recorder struct {
	mu      sync.Mutex
	history []string
	logg    *logger.Logger
}

func NewRecorder(logg *logger.Logger) *Recorder {
	return &Recorder{logg: logg}
}

func (r *Recorder) Navigate(ctx context.Context, route string) {
	r.mu.Lock()
	r.history = append(r.history, route)
	r.mu.Unlock()
	if r.logg != nil {
		r.logg.Debug(r.logg.WithField(ctx, "route", route), "navigate")
	}
}

// Current returns the last route, or home when nothing happened yet.
func (r *Recorder) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) == 0 {
		return RouteHome
	}
	return r.history[len(r.history)-1]
}

// History returns a copy of every route visited.
func (r *Recorder) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}
