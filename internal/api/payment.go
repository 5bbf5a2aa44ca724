package api

import (
	"context"
	"net/http"

	pkgerrors "github.com/bookbuddy/storefront/pkg/errors"
	"github.com/bookbuddy/storefront/pkg/types"
	"github.com/bookbuddy/storefront/pkg/validators"
)

// ClientToken fetches a payment gateway client token for the drop-in widget.
func (c *Client) ClientToken(ctx context.Context) (string, error) {
	var out types.ClientTokenResponse
	ep := endpoint{name: "payment.token", method: http.MethodGet, path: "product/braintree/token"}
	if err := c.do(ctx, ep, nil, &out); err != nil {
		return "", err
	}
	if out.ClientToken == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "payment gateway returned no client token")
	}
	return out.ClientToken, nil
}

// SubmitPayment charges the nonce for cart. No idempotency key is attached.
func (c *Client) SubmitPayment(ctx context.Context, req types.PaymentRequest) error {
	if err := validators.Struct(req); err != nil {
		return err
	}
	var out types.PaymentResponse
	ep := endpoint{name: "payment.submit", method: http.MethodPost, path: "product/braintree/payment"}
	return c.do(ctx, ep, req, &out)
}
