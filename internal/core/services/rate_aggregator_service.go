package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
	"github.com/valutatrade/valutatrade_hub/internal/core/ports"
	"github.com/valutatrade/valutatrade_hub/internal/platform/metrics"
)

// RateAggregatorService queries the configured providers, merges their
// results last-write-wins in provider order, appends every observation to
// the historical log and atomically overwrites the current snapshot. It is
// the only writer of the rate store.
type RateAggregatorService struct {
	rateRepo        ports.RateRepository
	providers       []ports.RateProvider
	providerTimeout time.Duration
	logger          *slog.Logger
	now             func() time.Time
}

// NewRateAggregatorService creates an aggregator over the given providers.
// providerTimeout bounds each provider call so a hanging provider cannot
// stall the whole pass.
func NewRateAggregatorService(rateRepo ports.RateRepository, providers []ports.RateProvider, providerTimeout time.Duration, logger *slog.Logger) *RateAggregatorService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateAggregatorService{
		rateRepo:        rateRepo,
		providers:       providers,
		providerTimeout: providerTimeout,
		logger:          logger,
		now:             time.Now,
	}
}

// Refresh runs one aggregation pass. A failing provider is logged and
// skipped; the pass continues with the rest. The snapshot and its
// last_refresh timestamp are only overwritten when at least one observation
// was obtained. The merged mapping is returned to the caller; an empty
// mapping means nothing was updated.
func (s *RateAggregatorService) Refresh(ctx context.Context, sourceFilter string) (map[string]decimal.Decimal, error) {
	s.logger.Info("Starting rates update", slog.String("source_filter", sourceFilter))

	providers := s.providers
	if sourceFilter != "" {
		providers = s.filterProviders(sourceFilter)
		if len(providers) == 0 {
			s.logger.Warn("Unknown rate source", slog.String("source", sourceFilter))
			metrics.RefreshCycles.WithLabelValues("empty").Inc()
			return map[string]decimal.Decimal{}, nil
		}
	}

	merged := make(map[string]decimal.Decimal)
	mergedSource := make(map[string]string)
	var history []domain.HistoricalRate

	for _, provider := range providers {
		fetched, err := s.fetchFromProvider(ctx, provider)
		if err != nil {
			metrics.ProviderFetches.WithLabelValues(provider.Name(), "error").Inc()
			s.logger.Error("Failed to update from provider",
				slog.String("source", provider.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		metrics.ProviderFetches.WithLabelValues(provider.Name(), "ok").Inc()

		observedAt := s.now()
		source := strings.ToUpper(provider.Name())
		for pairKey, rate := range fetched {
			fromCurrency, toCurrency, err := domain.SplitPairKey(pairKey)
			if err != nil {
				s.logger.Warn("Skipping malformed pair from provider",
					slog.String("source", provider.Name()),
					slog.String("pair", pairKey),
				)
				continue
			}
			merged[pairKey] = rate
			mergedSource[pairKey] = source
			history = append(history, domain.HistoricalRate{
				ID:           uuid.NewString(),
				FromCurrency: fromCurrency,
				ToCurrency:   toCurrency,
				Rate:         rate,
				Timestamp:    observedAt,
				Source:       source,
				Meta:         map[string]string{},
			})
		}
		s.logger.Info("Successfully updated from provider",
			slog.String("source", provider.Name()),
			slog.Int("rates", len(fetched)),
		)
	}

	if len(merged) == 0 {
		s.logger.Warn("No rates were updated")
		metrics.RefreshCycles.WithLabelValues("empty").Inc()
		return merged, nil
	}

	if err := s.rateRepo.AppendHistory(ctx, history); err != nil {
		return nil, fmt.Errorf("failed to append rate history: %w", err)
	}

	refreshedAt := s.now()
	snapshot := domain.NewRateSnapshot()
	snapshot.LastRefresh = &refreshedAt
	for pairKey, rate := range merged {
		fromCurrency, toCurrency, _ := domain.SplitPairKey(pairKey)
		snapshot.Pairs[pairKey] = domain.RateRecord{
			FromCurrency: fromCurrency,
			ToCurrency:   toCurrency,
			Rate:         rate,
			UpdatedAt:    refreshedAt,
			Source:       mergedSource[pairKey],
		}
	}
	if err := s.rateRepo.ReplaceSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to replace rate snapshot: %w", err)
	}

	metrics.RefreshCycles.WithLabelValues("updated").Inc()
	metrics.RatesInSnapshot.Set(float64(len(merged)))
	s.logger.Info("Update completed", slog.Int("total_rates", len(merged)))
	return merged, nil
}

// Run refreshes on a fixed interval until ctx is cancelled. A failed cycle
// is not retried; the next tick is the retry mechanism.
func (s *RateAggregatorService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping scheduled rates refresh")
			return
		case <-ticker.C:
			if _, err := s.Refresh(ctx, ""); err != nil {
				s.logger.Error("Scheduled rates refresh failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (s *RateAggregatorService) fetchFromProvider(ctx context.Context, provider ports.RateProvider) (map[string]decimal.Decimal, error) {
	if s.providerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.providerTimeout)
		defer cancel()
	}
	return provider.FetchRates(ctx)
}

func (s *RateAggregatorService) filterProviders(sourceFilter string) []ports.RateProvider {
	var matched []ports.RateProvider
	for _, provider := range s.providers {
		if strings.EqualFold(provider.Name(), sourceFilter) {
			matched = append(matched, provider)
		}
	}
	return matched
}
