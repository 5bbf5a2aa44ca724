package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bookbuddy/storefront/internal/cart"
	"github.com/bookbuddy/storefront/internal/navigation"
	"github.com/bookbuddy/storefront/internal/notify"
	"github.com/bookbuddy/storefront/internal/session"
	pkgerrors "github.com/bookbuddy/storefront/pkg/errors"
	"github.com/bookbuddy/storefront/pkg/storage"
	"github.com/bookbuddy/storefront/pkg/types"
)

type fakeGateway struct {
	mu         sync.Mutex
	tokenCalls int
	submitted  []types.PaymentRequest
	submitErr  error
	started    chan struct{}
	release    chan struct{}
}

func (g *fakeGateway) ClientToken(context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tokenCalls++
	return "client-token", nil
}

func (g *fakeGateway) SubmitPayment(_ context.Context, req types.PaymentRequest) error {
	g.mu.Lock()
	started, release := g.started, g.release
	g.mu.Unlock()
	if started != nil {
		close(started)
		<-release
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.submitErr != nil {
		return g.submitErr
	}
	g.submitted = append(g.submitted, req)
	return nil
}

type fakeInstance struct {
	nonce string
	err   error
}

func (f fakeInstance) RequestPaymentMethod(context.Context) (string, error) {
	return f.nonce, f.err
}

type fixture struct {
	orch     *Orchestrator
	gateway  *fakeGateway
	cart     *cart.Store
	sessions *session.Store
	nav      *navigation.Recorder
	notes    *notify.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := storage.NewMemoryStore()
	c, err := cart.NewStore(st, "cart", nil)
	if err != nil {
		t.Fatalf("cart: %v", err)
	}
	s, err := session.NewStore(st, "auth", nil)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	f := &fixture{
		gateway:  &fakeGateway{},
		cart:     c,
		sessions: s,
		nav:      navigation.NewRecorder(nil),
		notes:    &notify.Recorder{},
	}
	f.orch = NewOrchestrator(f.gateway, c, s, f.nav, f.notes, nil)
	s.Subscribe(f.orch.OnSessionChange)
	return f
}

func (f *fixture) login(t *testing.T, address string) {
	t.Helper()
	err := f.sessions.Login(context.Background(), types.Session{
		Token: "tok",
		User:  &types.UserProfile{ID: "u1", Name: "Ada", Address: address},
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestSubmitEnabledOnlyWhenAllConditionsHold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.orch.Prepare(ctx); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	f.orch.AttachInstance(fakeInstance{nonce: "n"})
	if f.orch.CanSubmit() {
		t.Fatal("guest with empty cart must not submit")
	}

	f.login(t, "")
	if err := f.orch.Prepare(ctx); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	_ = f.cart.Add(ctx, types.CartItem{ID: "A", Price: 10})
	f.orch.AttachInstance(fakeInstance{nonce: "n"})
	r := f.orch.Readiness()
	if r.Ready() || !r.MissingAddress || r.CartEmpty || r.NoPaymentMethod {
		t.Fatalf("expected only missing address, got %+v", r)
	}

	if err := f.sessions.UpdateUser(ctx, types.UserProfile{ID: "u1", Address: "1 Main St"}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	r = f.orch.Readiness()
	if !r.NoPaymentMethod {
		t.Fatal("session replacement resets the widget")
	}
	if err := f.orch.Prepare(ctx); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	f.orch.AttachInstance(fakeInstance{nonce: "n"})
	if !f.orch.CanSubmit() {
		t.Fatalf("expected ready, blocked by %v", f.orch.Readiness().Reasons())
	}

	_ = f.cart.Remove(ctx, "A")
	if f.orch.CanSubmit() {
		t.Fatal("empty cart must disable submit")
	}
	err := f.orch.Submit(ctx)
	if !pkgerrors.HasCode(err, pkgerrors.CodePrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestSubmitSuccessClearsCartAndRedirects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.login(t, "1 Main St")
	_ = f.cart.Add(ctx, types.CartItem{ID: "A", Price: 10})
	_ = f.cart.Add(ctx, types.CartItem{ID: "B", Price: 25})
	_ = f.orch.Prepare(ctx)
	f.orch.AttachInstance(fakeInstance{nonce: "nonce-1"})

	if err := f.orch.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(f.gateway.submitted) != 1 || f.gateway.submitted[0].Nonce != "nonce-1" || len(f.gateway.submitted[0].Cart) != 2 {
		t.Fatalf("unexpected submission %+v", f.gateway.submitted)
	}
	if f.cart.Len() != 0 {
		t.Fatal("expected cart cleared")
	}
	if f.nav.Current() != navigation.RouteUserOrders {
		t.Fatalf("expected orders route, got %s", f.nav.Current())
	}
	if f.notes.Count(notify.LevelSuccess) != 1 {
		t.Fatalf("expected success notification, got %v", f.notes.Messages())
	}
}

func TestSubmitFailureLeavesStateForRetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.login(t, "1 Main St")
	_ = f.cart.Add(ctx, types.CartItem{ID: "A", Price: 10})
	_ = f.orch.Prepare(ctx)
	f.orch.AttachInstance(fakeInstance{nonce: "n"})
	f.gateway.submitErr = pkgerrors.New(pkgerrors.CodeDependency, "gateway down")

	if err := f.orch.Submit(ctx); err == nil {
		t.Fatal("expected failure")
	}
	if f.cart.Len() != 1 || !f.orch.CanSubmit() {
		t.Fatalf("expected retry possible, blocked by %v", f.orch.Readiness().Reasons())
	}
	if f.nav.Current() != navigation.RouteHome {
		t.Fatalf("no navigation on failure, got %s", f.nav.Current())
	}
	if f.notes.Count(notify.LevelError) != 1 {
		t.Fatalf("expected error notification, got %v", f.notes.Messages())
	}
}

func TestSubmitQuietWhenFailureIsNotUserFacing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.login(t, "1 Main St")
	_ = f.cart.Add(ctx, types.CartItem{ID: "A", Price: 10})
	_ = f.orch.Prepare(ctx)
	f.orch.AttachInstance(fakeInstance{nonce: "n"})

	f.gateway.submitErr = pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
	if err := f.orch.Submit(ctx); !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	f.gateway.submitErr = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	if err := f.orch.Submit(ctx); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if n := f.notes.Count(notify.LevelError); n != 0 {
		t.Fatalf("expected no error notifications, got %v", f.notes.Messages())
	}
}

func TestPaymentMethodFailureIsNotSubmitted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.login(t, "1 Main St")
	_ = f.cart.Add(ctx, types.CartItem{ID: "A", Price: 10})
	_ = f.orch.Prepare(ctx)
	f.orch.AttachInstance(fakeInstance{err: errors.New("card declined")})

	if err := f.orch.Submit(ctx); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.gateway.submitted) != 0 || f.cart.Len() != 1 {
		t.Fatal("nothing may be charged without a nonce")
	}
}

func TestDoubleSubmitIsBlockedWhileInFlight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.login(t, "1 Main St")
	_ = f.cart.Add(ctx, types.CartItem{ID: "A", Price: 10})
	_ = f.orch.Prepare(ctx)
	f.orch.AttachInstance(fakeInstance{nonce: "n"})

	f.gateway.started = make(chan struct{})
	f.gateway.release = make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- f.orch.Submit(ctx) }()
	<-f.gateway.started

	if f.orch.CanSubmit() || !f.orch.Readiness().InFlight {
		t.Fatal("submit must be disabled while in flight")
	}
	if err := f.orch.Submit(ctx); !pkgerrors.HasCode(err, pkgerrors.CodePrecondition) {
		t.Fatalf("expected second submit rejected, got %v", err)
	}
	close(f.gateway.release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if len(f.gateway.submitted) != 1 {
		t.Fatalf("expected one charge, got %d", len(f.gateway.submitted))
	}
}

func TestClientTokenRefetchedOnSessionTokenChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_ = f.orch.Prepare(ctx)
	_ = f.orch.Prepare(ctx)
	if f.gateway.tokenCalls != 1 {
		t.Fatalf("expected one token fetch, got %d", f.gateway.tokenCalls)
	}

	f.login(t, "1 Main St")
	if f.orch.ClientToken() != "" {
		t.Fatal("login drops the previous client token")
	}
	_ = f.orch.Prepare(ctx)
	if f.gateway.tokenCalls != 2 || f.orch.ClientToken() != "client-token" {
		t.Fatalf("expected refetch after login, calls=%d", f.gateway.tokenCalls)
	}
}
