package dashboard

import (
	"context"
	"strings"

	"github.com/bookbuddy/storefront/pkg/enums"
	pkgerrors "github.com/bookbuddy/storefront/pkg/errors"
	"github.com/bookbuddy/storefront/pkg/types"
)

// MyOrders lists the signed-in user's orders. Guests get an empty list and
// no request is made.
func (s *Service) MyOrders(ctx context.Context) ([]types.Order, error) {
	sess := s.sessions.Current()
	if sess.Token == "" {
		return []types.Order{}, nil
	}
	if sess.User != nil {
		ctx = s.logg.WithUserID(ctx, sess.User.ID)
	}
	orders, err := s.api.UserOrders(ctx)
	if err != nil {
		s.fail(ctx, "dashboard.user_orders_failed", err)
		return nil, err
	}
	if orders == nil {
		orders = []types.Order{}
	}
	return orders, nil
}

// AllOrders loads every order for the admin order board.
func (s *Service) AllOrders(ctx context.Context) ([]types.Order, error) {
	if _, err := s.requireAdmin(); err != nil {
		return nil, err
	}
	orders, err := s.api.AllOrders(ctx)
	if err != nil {
		s.fail(ctx, "dashboard.all_orders_failed", err)
		return nil, err
	}
	s.mu.Lock()
	s.orders = orders
	s.mu.Unlock()
	return append([]types.Order(nil), orders...), nil
}

// Orders returns the admin order board as last loaded.
func (s *Service) Orders() []types.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Order(nil), s.orders...)
}

// SetOrderStatus changes one order's status, then reloads the board.
func (s *Service) SetOrderStatus(ctx context.Context, orderID string, raw string) error {
	if _, err := s.requireAdmin(); err != nil {
		return err
	}
	orderID = strings.TrimSpace(orderID)
	status, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown order status").
			WithDetails(map[string]any{"allowed": enums.OrderStatuses()})
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"order_id": orderID, "status": status.String()})
	if err := s.api.UpdateOrderStatus(ctx, orderID, status); err != nil {
		s.fail(ctx, "dashboard.order_status_failed", err)
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			// the order is gone; reload so the board drops it
			_, _ = s.AllOrders(ctx)
		}
		return err
	}
	s.logg.Info(ctx, "dashboard.order_status_updated")
	if s.notifier != nil {
		s.notifier.Success(ctx, "Order status updated successfully")
	}
	_, err = s.AllOrders(ctx)
	return err
}
