// Package dashboard backs the customer and admin dashboards. Every view is
// gated on the current session; the server stays the authority on access.
package dashboard

import (
	"context"
	"sync"

	"github.com/bookbuddy/storefront/internal/notify"
	"github.com/bookbuddy/storefront/pkg/enums"
	pkgerrors "github.com/bookbuddy/storefront/pkg/errors"
	"github.com/bookbuddy/storefront/pkg/logger"
	"github.com/bookbuddy/storefront/pkg/types"
)

type API interface {
	UserOrders(ctx context.Context) ([]types.Order, error)
	AllOrders(ctx context.Context) ([]types.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status enums.OrderStatus) error
	AllUsers(ctx context.Context) ([]types.UserProfile, error)
	UpdateProfile(ctx context.Context, req types.ProfileUpdate) (types.UserProfile, error)
}

type Sessions interface {
	Current() types.Session
	UpdateUser(ctx context.Context, user types.UserProfile) error
}

type Service struct {
	api      API
	sessions Sessions
	notifier notify.Notifier
	logg     *logger.Logger

	mu     sync.Mutex
	orders []types.Order
}

func NewService(api API, sessions Sessions, notifier notify.Notifier, logg *logger.Logger) *Service {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{api: api, sessions: sessions, notifier: notifier, logg: logg}
}

func (s *Service) requireSignedIn() (types.Session, error) {
	sess := s.sessions.Current()
	if sess.Token == "" {
		return sess, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required")
	}
	return sess, nil
}

func (s *Service) requireAdmin() (types.Session, error) {
	sess, err := s.requireSignedIn()
	if err != nil {
		return sess, err
	}
	if !sess.Role().IsAdmin() {
		return sess, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	return sess, nil
}

func (s *Service) fail(ctx context.Context, msg string, err error) {
	if !pkgerrors.ShouldNotify(err) {
		s.logg.Warn(s.logg.WithField(ctx, "error_code", pkgerrors.As(err).Code()), msg)
		return
	}
	s.logg.Error(ctx, msg, err)
	if s.notifier != nil {
		s.notifier.Error(ctx, pkgerrors.PublicMessage(err))
	}
}
