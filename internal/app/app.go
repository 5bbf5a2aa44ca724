// Package app wires the storefront components together.
package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/bookbuddy/storefront/internal/api"
	"github.com/bookbuddy/storefront/internal/cart"
	"github.com/bookbuddy/storefront/internal/catalog"
	"github.com/bookbuddy/storefront/internal/checkout"
	"github.com/bookbuddy/storefront/internal/dashboard"
	"github.com/bookbuddy/storefront/internal/navigation"
	"github.com/bookbuddy/storefront/internal/notify"
	"github.com/bookbuddy/storefront/internal/session"
	"github.com/bookbuddy/storefront/pkg/config"
	pkgerrors "github.com/bookbuddy/storefront/pkg/errors"
	"github.com/bookbuddy/storefront/pkg/logger"
	"github.com/bookbuddy/storefront/pkg/metrics"
	"github.com/bookbuddy/storefront/pkg/storage"
	"github.com/bookbuddy/storefront/pkg/types"
)

var (
	errConfigRequired  = errors.New("app config is required")
	errStorageRequired = errors.New("app storage is required")
)

// Params are the process-level dependencies the storefront is built from.
type Params struct {
	Config     *config.Config
	Logger     *logger.Logger
	Storage    storage.Store
	Registerer prometheus.Registerer
	Navigator  navigation.Navigator
	Notifier   notify.Notifier
	HTTPClient *http.Client
}

// App owns one storefront session: stores, API client and views.
type App struct {
	logg    *logger.Logger
	storage storage.Store

	Nav       navigation.Navigator
	Notifier  notify.Notifier
	Metrics   *metrics.ClientMetrics
	API       *api.Client
	Sessions  *session.Store
	Cart      *cart.Store
	Catalog   *catalog.Controller
	Details   *catalog.Details
	Category  *catalog.CategoryPage
	Search    *catalog.Search
	Checkout  *checkout.Orchestrator
	Dashboard *dashboard.Service
}

func New(p Params) (*App, error) {
	if p.Config == nil {
		return nil, errConfigRequired
	}
	if p.Storage == nil {
		return nil, errStorageRequired
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	nav := p.Navigator
	if nav == nil {
		nav = navigation.NewRecorder(logg)
	}
	notifier := p.Notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier(logg)
	}
	m := metrics.NewClientMetrics(p.Registerer)

	sessions, err := session.NewStore(p.Storage, p.Config.Storage.SessionKey, logg)
	if err != nil {
		return nil, err
	}
	cartStore, err := cart.NewStore(p.Storage, p.Config.Storage.CartKey, logg)
	if err != nil {
		return nil, err
	}

	opts := []api.Option{
		api.WithTokenSource(sessions),
		api.WithUnauthorizedHandler(session.NewGuard(sessions, nav, logg)),
		api.WithMetrics(m),
	}
	if p.HTTPClient != nil {
		opts = append(opts, api.WithHTTPClient(p.HTTPClient))
	}
	client, err := api.NewClient(p.Config.API, logg, opts...)
	if err != nil {
		return nil, err
	}

	orchestrator := checkout.NewOrchestrator(client, cartStore, sessions, nav, notifier, logg)
	sessions.Subscribe(orchestrator.OnSessionChange)

	return &App{
		logg:      logg,
		storage:   p.Storage,
		Nav:       nav,
		Notifier:  notifier,
		Metrics:   m,
		API:       client,
		Sessions:  sessions,
		Cart:      cartStore,
		Catalog:   catalog.NewController(client, notifier, m, logg),
		Details:   catalog.NewDetails(client, notifier, m, logg),
		Category:  catalog.NewCategoryPage(client, notifier, m, logg),
		Search:    catalog.NewSearch(client, nav, notifier, m, logg),
		Checkout:  orchestrator,
		Dashboard: dashboard.NewService(client, sessions, notifier, logg),
	}, nil
}

// Start restores the durable cart and session.
func (a *App) Start(ctx context.Context) error {
	return multierr.Combine(
		a.Sessions.Load(ctx),
		a.Cart.Load(ctx),
	)
}

// Login signs in and lands on the home page.
func (a *App) Login(ctx context.Context, email, password string) error {
	sess, err := a.API.Login(ctx, types.LoginRequest{Email: email, Password: password})
	if err != nil {
		a.Notifier.Error(ctx, pkgerrors.PublicMessage(err))
		return err
	}
	if err := a.Sessions.Login(ctx, sess); err != nil {
		return err
	}
	a.Notifier.Success(ctx, "login successfully")
	a.Nav.Navigate(ctx, navigation.RouteHome)
	return nil
}

// Logout clears the session and returns to the login page.
func (a *App) Logout(ctx context.Context) error {
	if err := a.Sessions.Logout(ctx); err != nil {
		return err
	}
	a.Notifier.Success(ctx, "Logout Successfully")
	a.Nav.Navigate(ctx, navigation.RouteLogin)
	return nil
}

// AddToCart snapshots product into the cart.
func (a *App) AddToCart(ctx context.Context, product types.Product) error {
	if err := a.Cart.Add(ctx, types.CartItemFromProduct(product)); err != nil {
		a.logg.Error(ctx, "cart.add_failed", err)
		a.Notifier.Error(ctx, pkgerrors.PublicMessage(err))
		return err
	}
	a.Notifier.Success(ctx, "Item Added to cart")
	return nil
}

// DashboardRoute picks the dashboard for whoever is signed in.
func (a *App) DashboardRoute() string {
	return navigation.DashboardRoute(a.Sessions.Current().Role())
}

// Close releases the durable storage.
func (a *App) Close() error {
	return a.storage.Close()
}
