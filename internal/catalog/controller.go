// Package catalog holds the product listing view state: category and price
// filters, the page cursor, and the products on screen.
package catalog

import (
	"context"
	"sync"

	"go.uber.org/multierr"

	"github.com/bookbuddy/storefront/internal/notify"
	"github.com/bookbuddy/storefront/pkg/enums"
	pkgerrors "github.com/bookbuddy/storefront/pkg/errors"
	"github.com/bookbuddy/storefront/pkg/logger"
	"github.com/bookbuddy/storefront/pkg/metrics"
	"github.com/bookbuddy/storefront/pkg/types"
)

const viewListing = "listing"

// Querier is the subset of the API the listing needs.
type Querier interface {
	Categories(ctx context.Context) ([]types.Category, error)
	ListProducts(ctx context.Context, page int) ([]types.Product, error)
	CountProducts(ctx context.Context) (int, error)
	FilterProducts(ctx context.Context, req types.FilterRequest) ([]types.Product, error)
}

// Snapshot is a consistent copy of the listing state.
type Snapshot struct {
	Mode        enums.CatalogMode
	Products    []types.Product
	Total       int
	Page        int
	Filter      FilterState
	CanLoadMore bool
	Loading     bool
}

// Controller arbitrates between the Browse and Filtered listings. Every state
// change starts a new generation; a response is applied only if its
// generation is still current when it arrives.
type Controller struct {
	q        Querier
	notifier notify.Notifier
	metrics  *metrics.ClientMetrics
	logg     *logger.Logger

	mu         sync.Mutex
	categories []types.Category
	filter     FilterState
	mode       enums.CatalogMode
	page       int
	products   []types.Product
	total      int
	generation uint64
	loading    bool
}

func NewController(q Querier, notifier notify.Notifier, m *metrics.ClientMetrics, logg *logger.Logger) *Controller {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Controller{
		q:        q,
		notifier: notifier,
		metrics:  m,
		logg:     logg,
		mode:     enums.CatalogModeBrowse,
		page:     1,
	}
}

// Init loads categories, the catalog size and the first page. Each piece is
// applied independently; failures are combined.
func (c *Controller) Init(ctx context.Context) error {
	var errs error
	cats, err := c.q.Categories(ctx)
	if err != nil {
		c.report(ctx, err)
		errs = multierr.Append(errs, err)
	} else {
		c.mu.Lock()
		c.categories = cats
		c.mu.Unlock()
	}
	return multierr.Append(errs, c.Reset(ctx))
}

// Reset clears every filter and reloads the total and the first page.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	c.filter = FilterState{}
	c.mode = enums.CatalogModeBrowse
	gen := c.bump()
	c.mu.Unlock()

	var errs error
	total, err := c.q.CountProducts(ctx)
	if err != nil {
		c.report(ctx, err)
		errs = multierr.Append(errs, err)
	} else {
		c.mu.Lock()
		if c.generation == gen {
			c.total = total
		}
		c.mu.Unlock()
	}
	return multierr.Append(errs, c.fetchFirstPage(ctx, gen))
}

// ToggleCategory checks or unchecks a category. Checking a present id or
// unchecking an absent one changes nothing and issues no request.
func (c *Controller) ToggleCategory(ctx context.Context, categoryID string, checked bool) error {
	c.mu.Lock()
	next, changed := c.filter.withCategory(categoryID, checked)
	if !changed {
		c.mu.Unlock()
		return nil
	}
	return c.transition(ctx, next)
}

// SetPriceRange selects a price band.
func (c *Controller) SetPriceRange(ctx context.Context, r types.PriceRange) error {
	if r.Min > r.Max {
		return pkgerrors.New(pkgerrors.CodeValidation, "price range minimum exceeds maximum")
	}
	c.mu.Lock()
	next, changed := c.filter.withPrice(&r)
	if !changed {
		c.mu.Unlock()
		return nil
	}
	return c.transition(ctx, next)
}

// ClearPriceRange drops the price band.
func (c *Controller) ClearPriceRange(ctx context.Context) error {
	c.mu.Lock()
	next, changed := c.filter.withPrice(nil)
	if !changed {
		c.mu.Unlock()
		return nil
	}
	return c.transition(ctx, next)
}

// transition installs next and issues the single fetch for the resulting
// mode. Called with mu held; releases it.
func (c *Controller) transition(ctx context.Context, next FilterState) error {
	prevMode := c.mode
	c.filter = next
	c.mode = next.Mode()
	gen := c.bump()
	c.mu.Unlock()

	ctx = c.logg.WithMode(c.logg.WithView(ctx, viewListing, gen), next.Mode().String())
	if prevMode != next.Mode() {
		c.logg.Debug(ctx, "catalog.mode_changed")
	}
	if next.Mode() == enums.CatalogModeBrowse {
		return c.fetchFirstPage(ctx, gen)
	}
	return c.fetchFiltered(ctx, gen, next)
}

func (c *Controller) fetchFirstPage(ctx context.Context, gen uint64) error {
	products, err := c.q.ListProducts(ctx, 1)
	return c.apply(ctx, gen, err, func() {
		c.products = products
		c.page = 1
	})
}

func (c *Controller) fetchFiltered(ctx context.Context, gen uint64, f FilterState) error {
	products, err := c.q.FilterProducts(ctx, f.Request())
	return c.apply(ctx, gen, err, func() {
		c.products = products
	})
}

// LoadMore appends the next page. It is only available in Browse; a call
// while a page is already loading is a no-op.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.mode != enums.CatalogModeBrowse {
		c.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodePrecondition, "load more is not available while filtering")
	}
	if c.loading {
		c.mu.Unlock()
		return nil
	}
	c.loading = true
	gen := c.generation
	next := c.page + 1
	c.mu.Unlock()

	products, err := c.q.ListProducts(ctx, next)

	c.mu.Lock()
	c.loading = false
	c.mu.Unlock()
	return c.apply(c.logg.WithField(ctx, "page", next), gen, err, func() {
		c.products = append(append([]types.Product(nil), c.products...), products...)
		c.page = next
	})
}

// apply commits fn if gen is still current. Stale results are dropped without
// error. Failures leave the state as it was.
func (c *Controller) apply(ctx context.Context, gen uint64, err error, fn func()) error {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		c.metrics.IncDiscarded(viewListing)
		c.logg.Discarded(ctx, viewListing, gen)
		return nil
	}
	if err != nil {
		c.mu.Unlock()
		c.report(ctx, err)
		return err
	}
	fn()
	c.mu.Unlock()
	return nil
}

func (c *Controller) report(ctx context.Context, err error) {
	if !pkgerrors.ShouldNotify(err) {
		return
	}
	c.logg.Error(ctx, "catalog.fetch_failed", err)
	if c.notifier != nil {
		c.notifier.Error(ctx, pkgerrors.PublicMessage(err))
	}
}

// bump starts a new generation. Callers hold mu.
func (c *Controller) bump() uint64 {
	c.generation++
	return c.generation
}

func (c *Controller) Mode() enums.CatalogMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Controller) Products() []types.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.Product(nil), c.products...)
}

func (c *Controller) Categories() []types.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.Category(nil), c.categories...)
}

func (c *Controller) Filter() FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter.clone()
}

func (c *Controller) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

func (c *Controller) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// CanLoadMore reports whether the load more affordance is offered.
func (c *Controller) CanLoadMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canLoadMore()
}

func (c *Controller) canLoadMore() bool {
	return c.mode == enums.CatalogModeBrowse && len(c.products) < c.total
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Mode:        c.mode,
		Products:    append([]types.Product(nil), c.products...),
		Total:       c.total,
		Page:        c.page,
		Filter:      c.filter.clone(),
		CanLoadMore: c.canLoadMore(),
		Loading:     c.loading,
	}
}
