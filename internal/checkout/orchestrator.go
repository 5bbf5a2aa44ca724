// Package checkout drives the cart page payment flow: client token, widget,
// submission and the post-payment redirect.
package checkout

import (
	"context"
	"sync"

	"github.com/bookbuddy/storefront/internal/navigation"
	"github.com/bookbuddy/storefront/internal/notify"
	pkgerrors "github.com/bookbuddy/storefront/pkg/errors"
	"github.com/bookbuddy/storefront/pkg/logger"
	"github.com/bookbuddy/storefront/pkg/types"
)

const msgPaymentCompleted = "Payment Completed Successfully"

// PaymentGateway is the server side of the payment flow.
type PaymentGateway interface {
	ClientToken(ctx context.Context) (string, error)
	SubmitPayment(ctx context.Context, req types.PaymentRequest) error
}

// PaymentInstance is the drop-in widget once it has initialised with a
// client token.
type PaymentInstance interface {
	RequestPaymentMethod(ctx context.Context) (nonce string, err error)
}

type Cart interface {
	Items() []types.CartItem
	Clear(ctx context.Context) error
}

type Sessions interface {
	Current() types.Session
}

// Orchestrator owns the widget state for one cart page.
type Orchestrator struct {
	gateway  PaymentGateway
	cart     Cart
	sessions Sessions
	nav      navigation.Navigator
	notifier notify.Notifier
	logg     *logger.Logger

	mu          sync.Mutex
	generation  uint64
	clientToken string
	tokenFor    string
	instance    PaymentInstance
	inFlight    bool
}

func NewOrchestrator(gateway PaymentGateway, cart Cart, sessions Sessions, nav navigation.Navigator, notifier notify.Notifier, logg *logger.Logger) *Orchestrator {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Orchestrator{
		gateway:  gateway,
		cart:     cart,
		sessions: sessions,
		nav:      nav,
		notifier: notifier,
		logg:     logg,
	}
}

// Prepare fetches a client token unless one was already fetched for the
// current session token.
func (o *Orchestrator) Prepare(ctx context.Context) error {
	sessionToken := o.sessions.Current().Token

	o.mu.Lock()
	if o.clientToken != "" && o.tokenFor == sessionToken {
		o.mu.Unlock()
		return nil
	}
	o.generation++
	gen := o.generation
	o.clientToken = ""
	o.instance = nil
	o.mu.Unlock()

	token, err := o.gateway.ClientToken(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generation != gen {
		return nil
	}
	if err != nil {
		o.fail(ctx, "checkout.client_token_failed", err)
		return err
	}
	o.clientToken = token
	o.tokenFor = sessionToken
	return nil
}

// ClientToken is what the widget initialises with. Empty until Prepare succeeds.
func (o *Orchestrator) ClientToken() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.clientToken
}

// AttachInstance records the widget once it is ready. A nil instance detaches it.
func (o *Orchestrator) AttachInstance(inst PaymentInstance) {
	o.mu.Lock()
	o.instance = inst
	o.mu.Unlock()
}

// OnSessionChange drops the widget and its client token. The next Prepare
// fetches a token for the new session.
func (o *Orchestrator) OnSessionChange(ctx context.Context, current types.Session) {
	o.mu.Lock()
	changed := o.tokenFor != current.Token || o.instance != nil
	o.generation++
	o.clientToken = ""
	o.tokenFor = ""
	o.instance = nil
	o.mu.Unlock()
	if changed {
		o.logg.Debug(ctx, "checkout.widget_reset")
	}
}

// Readiness lists everything that currently blocks submission.
func (o *Orchestrator) Readiness() Readiness {
	sess := o.sessions.Current()
	items := o.cart.Items()

	o.mu.Lock()
	defer o.mu.Unlock()
	return Readiness{
		CartEmpty:       len(items) == 0,
		NotSignedIn:     sess.Token == "" || sess.IsGuest(),
		MissingAddress:  !sess.User.HasAddress(),
		NoClientToken:   o.clientToken == "",
		NoPaymentMethod: o.instance == nil,
		InFlight:        o.inFlight,
	}
}

// CanSubmit reports whether the submit control is enabled.
func (o *Orchestrator) CanSubmit() bool {
	return o.Readiness().Ready()
}

// Submit pays for the cart. On success the cart is cleared and the user lands
// on order history; on failure cart and widget are left as they were.
func (o *Orchestrator) Submit(ctx context.Context) error {
	ready := o.Readiness()
	o.mu.Lock()
	if !ready.Ready() || o.inFlight {
		o.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodePrecondition, "checkout is not ready").
			WithDetails(map[string]any{"blocked_by": ready.Reasons()})
	}
	o.inFlight = true
	inst := o.instance
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.mu.Unlock()
	}()

	if user := o.sessions.Current().User; user != nil {
		ctx = o.logg.WithUserID(ctx, user.ID)
	}

	nonce, err := inst.RequestPaymentMethod(ctx)
	if err != nil {
		o.fail(ctx, "checkout.payment_method_failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment method was not accepted")
	}

	items := o.cart.Items()
	if err := o.gateway.SubmitPayment(ctx, types.PaymentRequest{Nonce: nonce, Cart: items}); err != nil {
		o.fail(ctx, "checkout.payment_failed", err)
		return err
	}

	o.logg.Info(o.logg.WithField(ctx, "lines", len(items)), "checkout.payment_completed")
	if err := o.cart.Clear(ctx); err != nil {
		o.logg.Error(ctx, "checkout.cart_clear_failed", err)
	}
	if o.nav != nil {
		o.nav.Navigate(ctx, navigation.RouteUserOrders)
	}
	if o.notifier != nil {
		o.notifier.Success(ctx, msgPaymentCompleted)
	}
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, msg string, err error) {
	if !pkgerrors.ShouldNotify(err) {
		o.logg.Warn(o.logg.WithField(ctx, "error_code", pkgerrors.As(err).Code()), msg)
		return
	}
	o.logg.Error(ctx, msg, err)
	if o.notifier != nil {
		o.notifier.Error(ctx, pkgerrors.PublicMessage(err))
	}
}
