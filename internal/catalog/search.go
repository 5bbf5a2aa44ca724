package catalog

import (
	"context"
	"sync"

	"github.com/bookbuddy/storefront/internal/navigation"
	"github.com/bookbuddy/storefront/internal/notify"
	pkgerrors "github.com/bookbuddy/storefront/pkg/errors"
	"github.com/bookbuddy/storefront/pkg/logger"
	"github.com/bookbuddy/storefront/pkg/metrics"
	"github.com/bookbuddy/storefront/pkg/types"
	"github.com/bookbuddy/storefront/pkg/validators"
)

const (
	viewSearch       = "search"
	maxKeywordLength = 100
)

type SearchQuerier interface {
	Search(ctx context.Context, keyword string) ([]types.Product, error)
}

// Search keeps the latest keyword and its results.
type Search struct {
	q        SearchQuerier
	nav      navigation.Navigator
	notifier notify.Notifier
	metrics  *metrics.ClientMetrics
	logg     *logger.Logger

	mu         sync.Mutex
	generation uint64
	keyword    string
	results    []types.Product
}

func NewSearch(q SearchQuerier, nav navigation.Navigator, notifier notify.Notifier, m *metrics.ClientMetrics, logg *logger.Logger) *Search {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Search{q: q, nav: nav, notifier: notifier, metrics: m, logg: logg}
}

// Run searches for keyword and moves to the results page. Only the latest
// keyword's results are kept; a keyword the server knows nothing about
// shows an empty result page.
func (s *Search) Run(ctx context.Context, keyword string) error {
	keyword = validators.SanitizeString(keyword, maxKeywordLength)
	if keyword == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "search keyword is required")
	}
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	results, err := s.q.Search(ctx, keyword)

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		s.metrics.IncDiscarded(viewSearch)
		s.logg.Discarded(ctx, viewSearch, gen)
		return nil
	}
	if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		results, err = nil, nil
	}
	if err != nil {
		s.mu.Unlock()
		if pkgerrors.ShouldNotify(err) {
			s.logg.Error(s.logg.WithField(s.logg.WithView(ctx, viewSearch, gen), "keyword", keyword), "search.failed", err)
			if s.notifier != nil {
				s.notifier.Error(ctx, pkgerrors.PublicMessage(err))
			}
		}
		return err
	}
	s.keyword = keyword
	s.results = results
	s.mu.Unlock()

	if s.nav != nil {
		s.nav.Navigate(ctx, navigation.RouteSearch)
	}
	return nil
}

func (s *Search) Keyword() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keyword
}

func (s *Search) Results() []types.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Product(nil), s.results...)
}
