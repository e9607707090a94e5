// Package snapshot maintains the per-cycle view of the market: a last-known-
// good quote store fed by the streaming connectors and a fetcher that pulls
// order books and network data on demand.
package snapshot

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"arbscan/internal/model"
)

// Quotes is an immutable exchange -> native symbol -> quote view.
type Quotes = map[string]map[string]model.ExchangeQuote

// Store keeps the latest quote per exchange and native symbol. Writes go
// through a single mutex; readers get an atomically published copy that is
// rebuilt lazily, so a quiet market costs readers nothing.
type Store struct {
	mu     sync.Mutex
	live   Quotes
	dirty  bool
	shared atomic.Pointer[Quotes]
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{live: make(Quotes)}
}

// Apply records a quote, overwriting any previous quote for the same symbol.
// Quotes are kept until overwritten; staleness is judged at evaluation time.
func (s *Store) Apply(q model.ExchangeQuote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	perExchange, ok := s.live[q.Exchange]
	if !ok {
		perExchange = make(map[string]model.ExchangeQuote)
		s.live[q.Exchange] = perExchange
	}
	perExchange[q.NativeSymbol] = q
	s.dirty = true
}

// Run consumes quotes from in until the context is cancelled or the channel
// closes.
func (s *Store) Run(ctx context.Context, in <-chan model.ExchangeQuote) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case q, ok := <-in:
			if !ok {
				return nil
			}
			s.Apply(q)
		}
	}
}

// Snapshot returns the current view. The returned maps are never mutated
// after publication; callers may hold them across a whole evaluation cycle.
func (s *Store) Snapshot() Quotes {
	s.mu.Lock()
	if s.dirty {
		copied := make(Quotes, len(s.live))
		for exchange, perExchange := range s.live {
			inner := make(map[string]model.ExchangeQuote, len(perExchange))
			for native, q := range perExchange {
				inner[native] = q
			}
			copied[exchange] = inner
		}
		s.shared.Store(&copied)
		s.dirty = false
	}
	s.mu.Unlock()

	published := s.shared.Load()
	if published == nil {
		return Quotes{}
	}
	return *published
}

// Universe lists the native symbols currently known for one exchange, sorted
// for deterministic reconciliation.
func (s *Store) Universe(exchange string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	perExchange := s.live[exchange]
	natives := make([]string, 0, len(perExchange))
	for native := range perExchange {
		natives = append(natives, native)
	}
	sort.Strings(natives)
	return natives
}
