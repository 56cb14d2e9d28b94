// Package registry holds the in-memory set of tracked assets. It is
// the single shared mutable state between the API surface, the price
// refresher, and the analysis scheduler.
package registry

import (
	"sync"
	"time"

	"entrywatch/internal/domain"
)

// Registry is a mutex-guarded, insertion-ordered asset set keyed by
// vendor id. Reads hand out copies so callers can never mutate shared
// state without going through a write method.
type Registry struct {
	mu     sync.Mutex
	assets []domain.TrackedAsset
	index  map[string]int

	now func() time.Time
}

func New(seed []domain.TrackedAsset) *Registry {
	r := &Registry{
		assets: append([]domain.TrackedAsset(nil), seed...),
		index:  make(map[string]int, len(seed)),
		now:    time.Now,
	}
	for i, a := range r.assets {
		r.index[a.VendorID] = i
	}
	return r
}

// List returns the assets in insertion order, copied.
func (r *Registry) List() []domain.TrackedAsset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.TrackedAsset(nil), r.assets...)
}

// VendorIDs returns the ordered vendor ids, for bulk price fetches.
func (r *Registry) VendorIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, len(r.assets))
	for i, a := range r.assets {
		ids[i] = a.VendorID
	}
	return ids
}

func (r *Registry) Get(vendorID string) (domain.TrackedAsset, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[vendorID]
	if !ok {
		return domain.TrackedAsset{}, false
	}
	return r.assets[i], true
}

// GetBySymbol looks an asset up by its display symbol, case-sensitive.
func (r *Registry) GetBySymbol(symbol string) (domain.TrackedAsset, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assets {
		if a.Symbol == symbol {
			return a, true
		}
	}
	return domain.TrackedAsset{}, false
}

// SetPrice records a fresh spot price. Unknown ids are ignored.
func (r *Registry) SetPrice(vendorID string, price float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[vendorID]
	if !ok {
		return
	}
	r.assets[i].CurrentPrice = price
	r.assets[i].PriceUpdatedAt = r.now()
}

func (r *Registry) SetStatus(vendorID string, status domain.AnalysisStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.index[vendorID]; ok {
		r.assets[i].Status = status
	}
}

// ApplyAnalysis writes an analyzed copy's outcome back onto the stored
// asset. Identity, targets, and holdings stay as they are; only the
// analysis core's fields move.
func (r *Registry) ApplyAnalysis(a domain.TrackedAsset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[a.VendorID]
	if !ok {
		return
	}
	stored := &r.assets[i]
	stored.Indicators = a.Indicators
	stored.Score = a.Score
	stored.Signal = a.Signal
	stored.Status = a.Status
	stored.AnalyzedAt = a.AnalyzedAt
	if a.CurrentPrice > 0 {
		stored.CurrentPrice = a.CurrentPrice
		stored.PriceUpdatedAt = a.PriceUpdatedAt
	}
}

// SetTargets updates the consumer-owned price targets.
func (r *Registry) SetTargets(vendorID string, entry, threeMonth, longTerm float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[vendorID]
	if !ok {
		return false
	}
	r.assets[i].EntryTarget = entry
	r.assets[i].Target3Month = threeMonth
	r.assets[i].TargetLongTerm = longTerm
	return true
}

// SetHoldings updates the consumer-owned position fields.
func (r *Registry) SetHoldings(vendorID string, holdings, avgCost float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[vendorID]
	if !ok {
		return false
	}
	r.assets[i].Holdings = holdings
	r.assets[i].AvgCost = avgCost
	return true
}

// Upsert inserts a new asset at the end or replaces an existing one in
// place, keeping its position in the run order.
func (r *Registry) Upsert(a domain.TrackedAsset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.index[a.VendorID]; ok {
		r.assets[i] = a
		return
	}
	r.index[a.VendorID] = len(r.assets)
	r.assets = append(r.assets, a)
}

// Replace swaps the whole set, used when restoring saved state at boot.
func (r *Registry) Replace(assets []domain.TrackedAsset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assets = append([]domain.TrackedAsset(nil), assets...)
	r.index = make(map[string]int, len(assets))
	for i, a := range r.assets {
		r.index[a.VendorID] = i
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.assets)
}
