package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/bookbuddy/storefront/internal/notify"
	pkgerrors "github.com/bookbuddy/storefront/pkg/errors"
	"github.com/bookbuddy/storefront/pkg/logger"
	"github.com/bookbuddy/storefront/pkg/metrics"
	"github.com/bookbuddy/storefront/pkg/types"
)

const viewDetails = "details"

type ProductQuerier interface {
	GetProduct(ctx context.Context, slug string) (types.Product, error)
	RelatedProducts(ctx context.Context, productID, categoryID string) ([]types.Product, error)
}

// Details shows one product and its similar products. Opening a new slug
// supersedes any fetch still running for the previous one.
type Details struct {
	q        ProductQuerier
	notifier notify.Notifier
	metrics  *metrics.ClientMetrics
	logg     *logger.Logger

	mu         sync.Mutex
	generation uint64
	slug       string
	product    *types.Product
	related    []types.Product
}

func NewDetails(q ProductQuerier, notifier notify.Notifier, m *metrics.ClientMetrics, logg *logger.Logger) *Details {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Details{q: q, notifier: notifier, metrics: m, logg: logg}
}

// Open loads the product for slug, then its related products.
func (d *Details) Open(ctx context.Context, slug string) error {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product slug is required")
	}
	d.mu.Lock()
	d.generation++
	gen := d.generation
	d.slug = slug
	d.mu.Unlock()
	ctx = d.logg.WithField(d.logg.WithView(ctx, viewDetails, gen), "slug", slug)

	product, err := d.q.GetProduct(ctx, slug)
	if d.stale(ctx, gen) {
		return nil
	}
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			d.mu.Lock()
			if d.generation == gen {
				d.product = nil
				d.related = nil
			}
			d.mu.Unlock()
		}
		d.fail(ctx, err)
		return err
	}

	var related []types.Product
	if product.Category.ID != "" {
		related, err = d.q.RelatedProducts(ctx, product.ID, product.Category.ID)
		if d.stale(ctx, gen) {
			return nil
		}
		if err != nil {
			d.fail(ctx, err)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.generation != gen {
		return nil
	}
	d.product = &product
	d.related = related
	return err
}

func (d *Details) stale(ctx context.Context, gen uint64) bool {
	d.mu.Lock()
	current := d.generation == gen
	d.mu.Unlock()
	if !current {
		d.metrics.IncDiscarded(viewDetails)
		d.logg.Discarded(ctx, viewDetails, gen)
	}
	return !current
}

func (d *Details) fail(ctx context.Context, err error) {
	if !pkgerrors.ShouldNotify(err) {
		d.logg.Debug(ctx, "details.fetch_unavailable")
		return
	}
	d.logg.Error(ctx, "details.fetch_failed", err)
	if d.notifier != nil {
		d.notifier.Error(ctx, pkgerrors.PublicMessage(err))
	}
}

// Product returns the loaded product, or false before the first load and
// after a slug that does not exist.
func (d *Details) Product() (types.Product, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.product == nil {
		return types.Product{}, false
	}
	return *d.product, true
}

// Related returns the similar products for the loaded product.
func (d *Details) Related() []types.Product {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]types.Product(nil), d.related...)
}

func (d *Details) Slug() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.slug
}
