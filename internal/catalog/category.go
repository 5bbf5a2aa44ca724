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

const viewCategory = "category"

type CategoryQuerier interface {
	ProductsByCategory(ctx context.Context, slug string) (types.Category, []types.Product, error)
}

// CategoryPage lists the products of a single category.
type CategoryPage struct {
	q        CategoryQuerier
	notifier notify.Notifier
	metrics  *metrics.ClientMetrics
	logg     *logger.Logger

	mu         sync.Mutex
	generation uint64
	category   types.Category
	products   []types.Product
}

func NewCategoryPage(q CategoryQuerier, notifier notify.Notifier, m *metrics.ClientMetrics, logg *logger.Logger) *CategoryPage {
	if logg == nil {
		logg = logger.Nop()
	}
	return &CategoryPage{q: q, notifier: notifier, metrics: m, logg: logg}
}

func (p *CategoryPage) Open(ctx context.Context, slug string) error {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "category slug is required")
	}
	p.mu.Lock()
	p.generation++
	gen := p.generation
	p.mu.Unlock()

	cat, products, err := p.q.ProductsByCategory(ctx, slug)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generation != gen {
		p.metrics.IncDiscarded(viewCategory)
		p.logg.Discarded(ctx, viewCategory, gen)
		return nil
	}
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			p.category = types.Category{}
			p.products = nil
		}
		if pkgerrors.ShouldNotify(err) {
			p.logg.Error(p.logg.WithField(p.logg.WithView(ctx, viewCategory, gen), "slug", slug), "category.fetch_failed", err)
			if p.notifier != nil {
				p.notifier.Error(ctx, pkgerrors.PublicMessage(err))
			}
		}
		return err
	}
	p.category = cat
	p.products = products
	return nil
}

func (p *CategoryPage) Category() types.Category {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.category
}

func (p *CategoryPage) Products() []types.Product {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.Product(nil), p.products...)
}
