package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/valutatrade/valutatrade_hub/internal/apperrors"
	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
	"github.com/valutatrade/valutatrade_hub/internal/core/ports"
)

// DefaultAnchorCurrency is the triangulation anchor.
const DefaultAnchorCurrency = "USD"

var one = decimal.NewFromInt(1)

// RateResolverService resolves a rate for a currency pair against the
// current snapshot: direct lookup first, then reverse inversion, then a
// single triangulation hop through the anchor currency. It only ever reads
// the rate store.
type RateResolverService struct {
	rateRepo ports.RateRepository
	anchor   string
	now      func() time.Time
}

// NewRateResolverService creates a resolver over the given rate store with
// the default USD anchor.
func NewRateResolverService(rateRepo ports.RateRepository) *RateResolverService {
	return &RateResolverService{
		rateRepo: rateRepo,
		anchor:   DefaultAnchorCurrency,
		now:      time.Now,
	}
}

// Resolve returns the rate from -> to, or apperrors.ErrRateUnavailable when
// no price can be derived. Same-currency pairs resolve to 1 without
// touching the store.
func (s *RateResolverService) Resolve(ctx context.Context, from, to string) (*domain.Quote, error) {
	from = domain.NormalizeCurrencyCode(from)
	to = domain.NormalizeCurrencyCode(to)

	if from == to {
		return &domain.Quote{
			FromCurrency: from,
			ToCurrency:   to,
			Rate:         one,
			UpdatedAt:    s.now(),
			Source:       domain.QuoteSourceIdentity,
		}, nil
	}

	snapshot, err := s.rateRepo.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rate snapshot: %w", err)
	}

	return s.resolveInSnapshot(snapshot, from, to, true)
}

// resolveInSnapshot works against one consistent snapshot so a concurrent
// refresh cannot mix two generations of rates into a single answer.
// Triangulation legs are resolved with triangulate=false, bounding the
// derivation to exactly one hop through the anchor.
func (s *RateResolverService) resolveInSnapshot(snapshot domain.RateSnapshot, from, to string, triangulate bool) (*domain.Quote, error) {
	if record, ok := snapshot.Pairs[domain.PairKey(from, to)]; ok {
		return &domain.Quote{
			FromCurrency: from,
			ToCurrency:   to,
			Rate:         record.Rate,
			UpdatedAt:    record.UpdatedAt,
			Source:       record.Source,
		}, nil
	}

	if record, ok := snapshot.Pairs[domain.PairKey(to, from)]; ok {
		if !record.Rate.IsZero() {
			return &domain.Quote{
				FromCurrency: from,
				ToCurrency:   to,
				Rate:         one.Div(record.Rate),
				UpdatedAt:    record.UpdatedAt,
				Source:       record.Source,
			}, nil
		}
	}

	if triangulate && from != s.anchor && to != s.anchor {
		fromLeg, errFrom := s.resolveInSnapshot(snapshot, from, s.anchor, false)
		toLeg, errTo := s.resolveInSnapshot(snapshot, to, s.anchor, false)
		if errFrom == nil && errTo == nil && !toLeg.Rate.IsZero() {
			updatedAt := fromLeg.UpdatedAt
			if toLeg.UpdatedAt.Before(updatedAt) {
				updatedAt = toLeg.UpdatedAt
			}
			return &domain.Quote{
				FromCurrency: from,
				ToCurrency:   to,
				Rate:         fromLeg.Rate.Div(toLeg.Rate),
				UpdatedAt:    updatedAt,
				Source:       domain.QuoteSourceDerived,
			}, nil
		}
	}

	return nil, fmt.Errorf("%w: no rate for %s", apperrors.ErrRateUnavailable, domain.PairKey(from, to))
}

// IsFresh reports whether the snapshot was refreshed within ttl. A store
// that has never been refreshed is never fresh.
func (s *RateResolverService) IsFresh(ctx context.Context, ttl time.Duration) (bool, error) {
	snapshot, err := s.rateRepo.LoadSnapshot(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load rate snapshot: %w", err)
	}
	if snapshot.LastRefresh == nil {
		return false, nil
	}
	return s.now().Sub(*snapshot.LastRefresh) < ttl, nil
}

// GetSnapshot exposes the current snapshot for listings.
func (s *RateResolverService) GetSnapshot(ctx context.Context) (domain.RateSnapshot, error) {
	snapshot, err := s.rateRepo.LoadSnapshot(ctx)
	if err != nil {
		return domain.RateSnapshot{}, fmt.Errorf("failed to load rate snapshot: %w", err)
	}
	return snapshot, nil
}

// GetHistory exposes the most recent historical observations.
func (s *RateResolverService) GetHistory(ctx context.Context, limit int) ([]domain.HistoricalRate, error) {
	records, err := s.rateRepo.LoadHistory(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load rate history: %w", err)
	}
	return records, nil
}
