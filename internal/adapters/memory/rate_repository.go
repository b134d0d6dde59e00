package memory

import (
	"context"
	"sync"

	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
)

// RateRepository is an in-memory rate store for tests and single-process
// runs. Snapshot replacement swaps the whole map under the lock, so readers
// get a consistent generation.
type RateRepository struct {
	mu       sync.RWMutex
	snapshot domain.RateSnapshot
	history  []domain.HistoricalRate
}

// NewRateRepository constructs an empty in-memory rate store.
func NewRateRepository() *RateRepository {
	return &RateRepository{snapshot: domain.NewRateSnapshot()}
}

func (r *RateRepository) LoadSnapshot(_ context.Context) (domain.RateSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copySnapshot(r.snapshot), nil
}

func (r *RateRepository) ReplaceSnapshot(_ context.Context, snapshot domain.RateSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot = copySnapshot(snapshot)
	return nil
}

func (r *RateRepository) AppendHistory(_ context.Context, records []domain.HistoricalRate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, records...)
	return nil
}

func (r *RateRepository) LoadHistory(_ context.Context, limit int) ([]domain.HistoricalRate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	start := 0
	if limit > 0 && len(r.history) > limit {
		start = len(r.history) - limit
	}
	out := make([]domain.HistoricalRate, len(r.history)-start)
	copy(out, r.history[start:])
	return out, nil
}

func copySnapshot(snapshot domain.RateSnapshot) domain.RateSnapshot {
	out := domain.NewRateSnapshot()
	for key, record := range snapshot.Pairs {
		out.Pairs[key] = record
	}
	if snapshot.LastRefresh != nil {
		refreshedAt := *snapshot.LastRefresh
		out.LastRefresh = &refreshedAt
	}
	return out
}
