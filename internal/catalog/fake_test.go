package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/bookbuddy/storefront/pkg/types"
)

type gatedCall struct {
	started chan struct{}
	release chan struct{}
}

func newGate() *gatedCall {
	return &gatedCall{started: make(chan struct{}), release: make(chan struct{})}
}

// fakeQuerier serves a fixed catalog. Gates queued per method block the next
// matching call until released, which lets tests reorder responses.
type fakeQuerier struct {
	mu         sync.Mutex
	categories []types.Category
	products   []types.Product
	pageSize   int
	listErr    error
	filterErr  error
	gates      map[string][]*gatedCall
	calls      []string
}

func newFakeQuerier(n, pageSize int) *fakeQuerier {
	q := &fakeQuerier{pageSize: pageSize, gates: map[string][]*gatedCall{}}
	for i := 0; i < n; i++ {
		cat := "c1"
		if i%2 == 1 {
			cat = "c2"
		}
		q.products = append(q.products, types.Product{
			ID:       fmt.Sprintf("p%02d", i+1),
			Price:    float64(10 + i),
			Category: types.CategoryRef{ID: cat},
		})
	}
	q.categories = []types.Category{{ID: "c1", Name: "Fiction"}, {ID: "c2", Name: "Science"}}
	return q
}

func (q *fakeQuerier) gate(method string) *gatedCall {
	g := newGate()
	q.mu.Lock()
	q.gates[method] = append(q.gates[method], g)
	q.mu.Unlock()
	return g
}

func (q *fakeQuerier) enter(method string) {
	q.mu.Lock()
	q.calls = append(q.calls, method)
	var g *gatedCall
	if queued := q.gates[method]; len(queued) > 0 {
		g = queued[0]
		q.gates[method] = queued[1:]
	}
	q.mu.Unlock()
	if g != nil {
		close(g.started)
		<-g.release
	}
}

func (q *fakeQuerier) Calls() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.calls...)
}

func (q *fakeQuerier) Categories(context.Context) ([]types.Category, error) {
	q.enter("categories")
	return q.categories, nil
}

func (q *fakeQuerier) ListProducts(_ context.Context, page int) ([]types.Product, error) {
	q.enter(fmt.Sprintf("list:%d", page))
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.listErr != nil {
		return nil, q.listErr
	}
	start := (page - 1) * q.pageSize
	if start >= len(q.products) {
		return []types.Product{}, nil
	}
	end := start + q.pageSize
	if end > len(q.products) {
		end = len(q.products)
	}
	return append([]types.Product(nil), q.products[start:end]...), nil
}

func (q *fakeQuerier) CountProducts(context.Context) (int, error) {
	q.enter("count")
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.products), nil
}

func (q *fakeQuerier) FilterProducts(_ context.Context, req types.FilterRequest) ([]types.Product, error) {
	q.enter("filter")
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.filterErr != nil {
		return nil, q.filterErr
	}
	out := []types.Product{}
	for _, p := range q.products {
		if len(req.Checked) > 0 && !containsID(req.Checked, p.Category.ID) {
			continue
		}
		if len(req.Radio) == 2 && (p.Price < req.Radio[0] || p.Price > req.Radio[1]) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
