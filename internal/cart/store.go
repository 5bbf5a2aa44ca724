// Package cart keeps the shopper's cart lines in memory and mirrors the full
// sequence to durable storage after every change.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bookbuddy/storefront/pkg/logger"
	"github.com/bookbuddy/storefront/pkg/money"
	"github.com/bookbuddy/storefront/pkg/storage"
	"github.com/bookbuddy/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

// Store owns the cart lines. Duplicate adds produce duplicate lines.
type Store struct {
	mu      sync.Mutex
	storage storage.Store
	key     string
	logg    *logger.Logger
	items   []types.CartItem
}

// NewStore builds a cart mirrored under key.
func NewStore(st storage.Store, key string, logg *logger.Logger) (*Store, error) {
	if st == nil {
		return nil, fmt.Errorf("cart storage required")
	}
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("cart storage key required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{storage: st, key: key, logg: logg}, nil
}

// Load restores the mirrored cart. A missing or unreadable mirror starts empty.
func (s *Store) Load(ctx context.Context) error {
	raw, err := s.storage.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading cart: %w", err)
	}

	var items []types.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.mirror_unreadable")
		return nil
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

// Add appends item.
func (s *Store) Add(ctx context.Context, item types.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]types.CartItem, 0, len(s.items)+1)
	next = append(next, s.items...)
	next = append(next, item)
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{"product_id": item.ID, "lines": len(next)}), "cart.add")
	return nil
}

// Remove drops the first line with id. An absent id is a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, item := range s.items {
		if item.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	next := make([]types.CartItem, 0, len(s.items)-1)
	next = append(next, s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{"product_id": id, "lines": len(next)}), "cart.remove")
	return nil
}

// Clear empties the cart and removes the mirror.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.items
	s.items = nil
	if err := s.storage.Delete(ctx, s.key); err != nil {
		s.items = prev
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}

// commit swaps memory to next, then writes the mirror. Callers hold mu.
func (s *Store) commit(ctx context.Context, next []types.CartItem) error {
	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encoding cart: %w", err)
	}
	prev := s.items
	s.items = next
	if err := s.storage.Set(ctx, s.key, string(payload)); err != nil {
		s.items = prev
		return fmt.Errorf("persisting cart: %w", err)
	}
	return nil
}

// Items returns a copy of the cart lines in insertion order.
func (s *Store) Items() []types.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.CartItem(nil), s.items...)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Total sums line prices.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	prices := make([]float64, len(s.items))
	for i, item := range s.items {
		prices[i] = item.Price
	}
	return money.Sum(prices...)
}

// TotalDisplay renders Total as en-US currency.
func (s *Store) TotalDisplay() string {
	return money.FormatUSD(s.Total())
}
