package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/bookbuddy/storefront/pkg/enums"
	pkgerrors "github.com/bookbuddy/storefront/pkg/errors"
	"github.com/bookbuddy/storefront/pkg/types"
	"github.com/bookbuddy/storefront/pkg/validators"
)

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, req types.LoginRequest) (types.Session, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validators.Struct(req); err != nil {
		return types.Session{}, err
	}
	var out types.LoginResponse
	ep := endpoint{name: "auth.login", method: http.MethodPost, path: "auth/login"}
	if err := c.do(ctx, ep, req, &out); err != nil {
		return types.Session{}, err
	}
	if !out.Success || out.Token == "" {
		msg := out.Message
		if msg == "" {
			msg = "invalid email or password"
		}
		return types.Session{}, pkgerrors.New(pkgerrors.CodeValidation, msg)
	}
	return types.Session{User: out.User, Token: out.Token}, nil
}

// UpdateProfile saves the signed-in user's profile and returns the stored copy.
func (c *Client) UpdateProfile(ctx context.Context, req types.ProfileUpdate) (types.UserProfile, error) {
	if err := validators.Struct(req); err != nil {
		return types.UserProfile{}, err
	}
	var out types.ProfileResponse
	ep := endpoint{name: "auth.profile", method: http.MethodPut, path: "auth/profile"}
	if err := c.do(ctx, ep, req, &out); err != nil {
		return types.UserProfile{}, err
	}
	if out.Error != "" {
		return types.UserProfile{}, pkgerrors.New(pkgerrors.CodeValidation, out.Error)
	}
	if out.UpdatedUser == nil {
		return types.UserProfile{}, pkgerrors.New(pkgerrors.CodeDependency, "profile update returned no user")
	}
	return *out.UpdatedUser, nil
}

// AllUsers lists every registered user. Admin only on the server side.
func (c *Client) AllUsers(ctx context.Context) ([]types.UserProfile, error) {
	var out types.UserListResponse
	ep := endpoint{name: "auth.users", method: http.MethodGet, path: "auth/all-users"}
	if err := c.do(ctx, ep, nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// UserOrders lists the signed-in user's orders.
func (c *Client) UserOrders(ctx context.Context) ([]types.Order, error) {
	var out []types.Order
	ep := endpoint{name: "auth.orders", method: http.MethodGet, path: "auth/orders"}
	if err := c.do(ctx, ep, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AllOrders lists every order in the store.
func (c *Client) AllOrders(ctx context.Context) ([]types.Order, error) {
	var out []types.Order
	ep := endpoint{name: "auth.all_orders", method: http.MethodGet, path: "auth/all-orders"}
	if err := c.do(ctx, ep, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateOrderStatus moves an order to one of the server-declared statuses.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status enums.OrderStatus) error {
	if strings.TrimSpace(orderID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]string{"status": string(status)})
	}
	req := types.StatusUpdate{Status: status}
	if err := validators.Struct(req); err != nil {
		return err
	}
	ep := endpoint{name: "auth.order_status", method: http.MethodPut, path: "auth/order-status/" + segment(orderID)}
	return c.do(ctx, ep, req, nil)
}
