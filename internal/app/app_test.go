package app

import (
	"context"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookbuddy/storefront/internal/checkout"
	"github.com/bookbuddy/storefront/internal/navigation"
	"github.com/bookbuddy/storefront/internal/notify"
	"github.com/bookbuddy/storefront/internal/testutil"
	"github.com/bookbuddy/storefront/pkg/config"
	"github.com/bookbuddy/storefront/pkg/enums"
	"github.com/bookbuddy/storefront/pkg/storage"
	"github.com/bookbuddy/storefront/pkg/types"
)

type widget struct{ nonce string }

func (w widget) RequestPaymentMethod(context.Context) (string, error) { return w.nonce, nil }

var _ checkout.PaymentInstance = widget{}

type harness struct {
	app     *App
	backend *testutil.Backend
	mirror  *storage.MemoryStore
	nav     *navigation.Recorder
	notes   *notify.Recorder
}

func newHarness(t *testing.T, mirror *storage.MemoryStore) *harness {
	t.Helper()
	backend := testutil.NewBackend(t)
	backend.SetCategories(types.Category{ID: "c1", Name: "Fiction", Slug: "fiction"})
	backend.SetProducts(
		types.Product{ID: "p1", Name: "Dune", Slug: "dune", Price: 10, Category: types.CategoryRef{ID: "c1"}},
		types.Product{ID: "p2", Name: "Emma", Slug: "emma", Price: 25, Category: types.CategoryRef{ID: "c1"}},
	)
	backend.AddAccount(testutil.Account{
		Email: "ada@example.com", Password: "secret1", Token: "tok-ada",
		User: types.UserProfile{ID: "u1", Name: "Ada", Email: "ada@example.com", Address: "1 Main St"},
	})
	if mirror == nil {
		mirror = storage.NewMemoryStore()
	}

	cfg := &config.Config{
		API:     config.APIConfig{BaseURL: backend.URL(), PathPrefix: testutil.PathPrefix},
		Storage: config.StorageConfig{Driver: config.StorageDriverMemory, CartKey: "cart", SessionKey: "auth"},
	}
	nav := navigation.NewRecorder(nil)
	notes := &notify.Recorder{}
	a, err := New(Params{
		Config:     cfg,
		Storage:    mirror,
		Registerer: prometheus.NewRegistry(),
		Navigator:  nav,
		Notifier:   notes,
		HTTPClient: backend.Server.Client(),
	})
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	return &harness{app: a, backend: backend, mirror: mirror, nav: nav, notes: notes}
}

func TestNewRequiresConfigAndStorage(t *testing.T) {
	_, err := New(Params{})
	assert.Error(t, err)
	_, err = New(Params{Config: &config.Config{}})
	assert.Error(t, err)
}

func TestShoppingFlowEndToEnd(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	require.NoError(t, h.app.Catalog.Init(ctx))
	products := h.app.Catalog.Products()
	require.Len(t, products, 2)

	for _, p := range products {
		require.NoError(t, h.app.AddToCart(ctx, p))
	}
	assert.Equal(t, "$35.00", h.app.Cart.TotalDisplay())

	require.NoError(t, h.app.Login(ctx, "ada@example.com", "secret1"))
	assert.Equal(t, navigation.RouteUserDashboard, h.app.DashboardRoute())

	require.NoError(t, h.app.Checkout.Prepare(ctx))
	h.app.Checkout.AttachInstance(widget{nonce: "fake-valid-nonce"})
	require.True(t, h.app.Checkout.CanSubmit(), "blocked by %v", h.app.Checkout.Readiness().Reasons())
	require.NoError(t, h.app.Checkout.Submit(ctx))

	assert.Equal(t, 0, h.app.Cart.Len())
	assert.Equal(t, navigation.RouteUserOrders, h.nav.Current())
	payments := h.backend.Payments()
	require.Len(t, payments, 1)
	assert.Len(t, payments[0].Cart, 2)

	orders, err := h.app.Dashboard.MyOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, enums.OrderStatusNotProcess, orders[0].Status)
}

func TestStateSurvivesRestart(t *testing.T) {
	mirror := storage.NewMemoryStore()
	first := newHarness(t, mirror)
	ctx := context.Background()
	require.NoError(t, first.app.Login(ctx, "ada@example.com", "secret1"))
	require.NoError(t, first.app.AddToCart(ctx, types.Product{ID: "p1", Price: 10}))

	second := newHarness(t, mirror)
	assert.Equal(t, "tok-ada", second.app.Sessions.Token())
	assert.Equal(t, 1, second.app.Cart.Len())
}

func TestUnauthorizedAnywhereClearsSessionAndWidget(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	require.NoError(t, h.app.Login(ctx, "ada@example.com", "secret1"))
	require.NoError(t, h.app.AddToCart(ctx, types.Product{ID: "p1", Price: 10}))
	require.NoError(t, h.app.Checkout.Prepare(ctx))
	h.app.Checkout.AttachInstance(widget{nonce: "n"})
	require.True(t, h.app.Checkout.CanSubmit())

	h.backend.ForceStatus("product/product-count", http.StatusUnauthorized)
	err := h.app.Catalog.Reset(ctx)
	require.Error(t, err)

	assert.True(t, h.app.Sessions.Current().IsZero())
	_, mirrorErr := h.mirror.Get(ctx, "auth")
	assert.ErrorIs(t, mirrorErr, storage.ErrNotFound)
	assert.Equal(t, navigation.RouteLogin, h.nav.Current())

	r := h.app.Checkout.Readiness()
	assert.True(t, r.NoPaymentMethod)
	assert.True(t, r.NoClientToken)
	assert.True(t, r.NotSignedIn)
	assert.Equal(t, 1, h.app.Cart.Len(), "the cart itself is kept")
}

func TestLoginFailureNotifies(t *testing.T) {
	h := newHarness(t, nil)
	err := h.app.Login(context.Background(), "ada@example.com", "wrong-password")
	require.Error(t, err)
	assert.True(t, h.app.Sessions.Current().IsZero())
	assert.Equal(t, 1, h.notes.Count(notify.LevelError))
}

func TestLogoutNavigatesToLogin(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	require.NoError(t, h.app.Login(ctx, "ada@example.com", "secret1"))
	require.NoError(t, h.app.Logout(ctx))
	assert.Equal(t, navigation.RouteLogin, h.nav.Current())
	assert.NoError(t, h.app.Logout(ctx))
}
