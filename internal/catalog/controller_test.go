package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bookbuddy/storefront/internal/notify"
	"github.com/bookbuddy/storefront/pkg/enums"
	pkgerrors "github.com/bookbuddy/storefront/pkg/errors"
	"github.com/bookbuddy/storefront/pkg/metrics"
	"github.com/bookbuddy/storefront/pkg/types"
)

func newController(t *testing.T, q Querier) (*Controller, *notify.Recorder) {
	t.Helper()
	rec := &notify.Recorder{}
	return NewController(q, rec, nil, nil), rec
}

func TestLoadMoreScenario(t *testing.T) {
	q := newFakeQuerier(25, 10)
	c, _ := newController(t, q)
	ctx := context.Background()

	if err := c.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if len(c.Products()) != 10 || c.Total() != 25 || !c.CanLoadMore() {
		t.Fatalf("unexpected first page: products=%d total=%d canLoadMore=%v", len(c.Products()), c.Total(), c.CanLoadMore())
	}
	if len(c.Categories()) != 2 {
		t.Fatalf("expected categories loaded, got %v", c.Categories())
	}

	if err := c.LoadMore(ctx); err != nil {
		t.Fatalf("LoadMore page 2: %v", err)
	}
	if len(c.Products()) != 20 || !c.CanLoadMore() || c.Page() != 2 {
		t.Fatalf("after page 2: products=%d page=%d canLoadMore=%v", len(c.Products()), c.Page(), c.CanLoadMore())
	}

	if err := c.LoadMore(ctx); err != nil {
		t.Fatalf("LoadMore page 3: %v", err)
	}
	if len(c.Products()) != 25 || c.CanLoadMore() || c.Page() != 3 {
		t.Fatalf("after page 3: products=%d page=%d canLoadMore=%v", len(c.Products()), c.Page(), c.CanLoadMore())
	}
	products := c.Products()
	if products[0].ID != "p01" || products[24].ID != "p25" {
		t.Fatalf("expected pages appended in order, got first=%s last=%s", products[0].ID, products[24].ID)
	}
}

func TestModeFollowsFilterState(t *testing.T) {
	q := newFakeQuerier(8, 10)
	c, _ := newController(t, q)
	ctx := context.Background()
	_ = c.Init(ctx)

	if c.Mode() != enums.CatalogModeBrowse {
		t.Fatalf("expected browse initially, got %s", c.Mode())
	}
	if err := c.ToggleCategory(ctx, "c1", true); err != nil {
		t.Fatalf("ToggleCategory: %v", err)
	}
	if c.Mode() != enums.CatalogModeFiltered || len(c.Products()) != 4 {
		t.Fatalf("expected filtered with 4 products, got %s/%d", c.Mode(), len(c.Products()))
	}
	if err := c.SetPriceRange(ctx, types.PriceRange{Min: 0, Max: 13}); err != nil {
		t.Fatalf("SetPriceRange: %v", err)
	}
	if len(c.Products()) != 2 {
		t.Fatalf("expected category and price combined, got %d", len(c.Products()))
	}
	if err := c.ToggleCategory(ctx, "c1", false); err != nil {
		t.Fatalf("uncheck: %v", err)
	}
	if c.Mode() != enums.CatalogModeFiltered {
		t.Fatal("price band alone keeps the listing filtered")
	}
	if err := c.ClearPriceRange(ctx); err != nil {
		t.Fatalf("ClearPriceRange: %v", err)
	}
	if c.Mode() != enums.CatalogModeBrowse || len(c.Products()) != 8 {
		t.Fatalf("expected browse with 8 products, got %s/%d", c.Mode(), len(c.Products()))
	}
}

func TestCheckingTwiceIsIdempotent(t *testing.T) {
	q := newFakeQuerier(4, 10)
	c, _ := newController(t, q)
	ctx := context.Background()
	_ = c.Init(ctx)

	_ = c.ToggleCategory(ctx, "c1", true)
	before := len(q.Calls())
	_ = c.ToggleCategory(ctx, "c1", true)
	_ = c.ToggleCategory(ctx, "missing", false)
	_ = c.SetPriceRange(ctx, types.PriceRange{Min: 20, Max: 39})
	_ = c.SetPriceRange(ctx, types.PriceRange{Min: 20, Max: 39})

	checked := c.Filter().Checked()
	if len(checked) != 1 || checked[0] != "c1" {
		t.Fatalf("expected single c1, got %v", checked)
	}
	if got := len(q.Calls()) - before; got != 1 {
		t.Fatalf("expected only the price change to fetch, got %d calls", got)
	}
}

func TestLoadMoreUnavailableWhileFiltered(t *testing.T) {
	q := newFakeQuerier(25, 10)
	c, _ := newController(t, q)
	ctx := context.Background()
	_ = c.Init(ctx)
	_ = c.LoadMore(ctx)

	_ = c.ToggleCategory(ctx, "c2", true)
	err := c.LoadMore(ctx)
	if !pkgerrors.HasCode(err, pkgerrors.CodePrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if c.CanLoadMore() {
		t.Fatal("load more must not be offered while filtered")
	}
	if c.Page() != 2 {
		t.Fatalf("page must not move while filtered, got %d", c.Page())
	}
	for _, call := range q.Calls() {
		if call == "list:3" {
			t.Fatal("no pagination request may be issued while filtered")
		}
	}

	_ = c.ToggleCategory(ctx, "c2", false)
	if c.Page() != 1 || len(c.Products()) != 10 {
		t.Fatalf("returning to browse reloads page 1, got page=%d products=%d", c.Page(), len(c.Products()))
	}
}

func TestStaleFilteredResponseIsDiscarded(t *testing.T) {
	q := newFakeQuerier(6, 10)
	reg := prometheus.NewRegistry()
	m := metrics.NewClientMetrics(reg)
	c := NewController(q, &notify.Recorder{}, m, nil)
	ctx := context.Background()
	_ = c.Init(ctx)

	gate := q.gate("filter")
	done := make(chan error, 1)
	go func() { done <- c.ToggleCategory(ctx, "c1", true) }()
	<-gate.started

	if c.Mode() != enums.CatalogModeFiltered {
		t.Fatal("mode switches as soon as the filter changes")
	}
	if err := c.ToggleCategory(ctx, "c1", false); err != nil {
		t.Fatalf("uncheck: %v", err)
	}
	close(gate.release)
	if err := <-done; err != nil {
		t.Fatalf("stale toggle should not error: %v", err)
	}

	if c.Mode() != enums.CatalogModeBrowse || len(c.Products()) != 6 {
		t.Fatalf("stale filtered response leaked: mode=%s products=%d", c.Mode(), len(c.Products()))
	}
	if got := discardedCount(t, reg, viewListing); got != 1 {
		t.Fatalf("expected one discarded response, got %f", got)
	}
}

func TestOlderFilterLosesToNewerFilter(t *testing.T) {
	q := newFakeQuerier(6, 10)
	c, _ := newController(t, q)
	ctx := context.Background()
	_ = c.Init(ctx)

	gate := q.gate("filter")
	done := make(chan error, 1)
	go func() { done <- c.ToggleCategory(ctx, "c1", true) }()
	<-gate.started

	if err := c.ToggleCategory(ctx, "c2", true); err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if err := c.ToggleCategory(ctx, "c1", false); err != nil {
		t.Fatalf("third toggle: %v", err)
	}
	close(gate.release)
	<-done

	for _, p := range c.Products() {
		if p.Category.ID != "c2" {
			t.Fatalf("expected only c2 products, got %+v", c.Products())
		}
	}
}

func TestStalePageIsDiscardedAfterFiltering(t *testing.T) {
	q := newFakeQuerier(25, 10)
	c, _ := newController(t, q)
	ctx := context.Background()
	_ = c.Init(ctx)

	gate := q.gate("list:2")
	done := make(chan error, 1)
	go func() { done <- c.LoadMore(ctx) }()
	<-gate.started

	_ = c.ToggleCategory(ctx, "c1", true)
	close(gate.release)
	<-done

	if c.Page() != 1 {
		t.Fatalf("stale page must not advance the cursor, got %d", c.Page())
	}
	for _, p := range c.Products() {
		if p.Category.ID != "c1" {
			t.Fatalf("page 2 leaked into filtered results: %+v", p)
		}
	}
}

func TestFailedFetchKeepsStateAndNotifies(t *testing.T) {
	q := newFakeQuerier(25, 10)
	c, rec := newController(t, q)
	ctx := context.Background()
	_ = c.Init(ctx)

	q.mu.Lock()
	q.listErr = pkgerrors.New(pkgerrors.CodeDependency, "service unavailable")
	q.mu.Unlock()

	if err := c.LoadMore(ctx); err == nil {
		t.Fatal("expected load more to fail")
	}
	if c.Page() != 1 || len(c.Products()) != 10 || !c.CanLoadMore() {
		t.Fatalf("failed page must not change state: page=%d products=%d", c.Page(), len(c.Products()))
	}
	if rec.Count(notify.LevelError) != 1 {
		t.Fatalf("expected one error notification, got %v", rec.Messages())
	}
}

func TestResetClearsFilters(t *testing.T) {
	q := newFakeQuerier(25, 10)
	c, _ := newController(t, q)
	ctx := context.Background()
	_ = c.Init(ctx)
	_ = c.ToggleCategory(ctx, "c1", true)
	_ = c.SetPriceRange(ctx, types.PriceRange{Min: 0, Max: 19})

	if err := c.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	snap := c.Snapshot()
	if snap.Mode != enums.CatalogModeBrowse || !snap.Filter.IsEmpty() || snap.Page != 1 || len(snap.Products) != 10 || !snap.CanLoadMore {
		t.Fatalf("unexpected snapshot after reset %+v", snap)
	}
}

func TestInitCombinesFailures(t *testing.T) {
	q := newFakeQuerier(5, 10)
	q.listErr = errors.New("boom")
	c, _ := newController(t, q)

	err := c.Init(context.Background())
	if err == nil {
		t.Fatal("expected init error")
	}
	if len(c.Categories()) != 2 || c.Total() != 5 {
		t.Fatal("successful parts of init should still apply")
	}
}

func TestSetPriceRangeRejectsInvertedBand(t *testing.T) {
	c, _ := newController(t, newFakeQuerier(1, 10))
	err := c.SetPriceRange(context.Background(), types.PriceRange{Min: 50, Max: 10})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func discardedCount(t *testing.T, reg *prometheus.Registry, view string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != "storefront_discarded_responses_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "view" && label.GetValue() == view {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
