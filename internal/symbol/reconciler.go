package symbol

import (
	"log/slog"
	"sync"

	"arbscan/internal/model"
)

// PairSet maps each canonical pair to the native symbol it trades under on
// every exchange that lists it.
type PairSet map[model.CanonicalPair]map[string]string

// Reconciler intersects per-exchange instrument universes to find pairs
// tradable on at least minExchanges venues. The intersection is recomputed
// only when an exchange's universe changes, not on every price tick.
type Reconciler struct {
	logger       *slog.Logger
	normalizer   *Normalizer
	minExchanges int

	mu        sync.Mutex
	universes map[string][]string
	dirty     bool
	cached    PairSet
}

// NewReconciler creates a Reconciler over the given normalizer.
func NewReconciler(logger *slog.Logger, normalizer *Normalizer, minExchanges int) *Reconciler {
	return &Reconciler{
		logger:       logger,
		normalizer:   normalizer,
		minExchanges: minExchanges,
		universes:    make(map[string][]string),
		dirty:        true,
	}
}

// Update replaces the instrument universe for one exchange. The pair set is
// marked stale only if the universe actually changed.
func (r *Reconciler) Update(exchange string, natives []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sameUniverse(r.universes[exchange], natives) {
		return
	}
	r.universes[exchange] = append([]string(nil), natives...)
	r.dirty = true
}

// Pairs returns the current pair set, rebuilding the inverted index if any
// universe changed since the last call.
func (r *Reconciler) Pairs() PairSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.dirty {
		return r.cached
	}

	index := make(map[model.CanonicalPair]map[string]string)
	unparseable := 0
	for exchange, natives := range r.universes {
		for _, native := range natives {
			pair, err := r.normalizer.Normalize(exchange, native)
			if err != nil {
				unparseable++
				continue
			}
			listings, ok := index[pair]
			if !ok {
				listings = make(map[string]string, r.minExchanges)
				index[pair] = listings
			}
			listings[exchange] = native
		}
	}

	result := make(PairSet, len(index))
	for pair, listings := range index {
		if len(listings) >= r.minExchanges {
			result[pair] = listings
		}
	}

	r.cached = result
	r.dirty = false
	r.logger.Info("Reconciler: rebuilt pair set",
		"exchanges", len(r.universes),
		"pairs", len(result),
		"unparseable", unparseable,
	)
	return result
}

func sameUniverse(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, s := range a {
		seen[s]++
	}
	for _, s := range b {
		seen[s]--
		if seen[s] < 0 {
			return false
		}
	}
	return true
}
