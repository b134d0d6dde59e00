package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
)

func TestLoadSnapshot_ReturnsIsolatedCopy(t *testing.T) {
	repo := NewRateRepository()
	ctx := context.Background()

	refreshedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	snapshot := domain.NewRateSnapshot()
	snapshot.LastRefresh = &refreshedAt
	snapshot.Pairs["BTC_USD"] = domain.RateRecord{FromCurrency: "BTC", ToCurrency: "USD", Rate: decimal.NewFromInt(59000)}
	require.NoError(t, repo.ReplaceSnapshot(ctx, snapshot))

	loaded, err := repo.LoadSnapshot(ctx)
	require.NoError(t, err)

	// Mutating the returned snapshot must not leak into the store.
	loaded.Pairs["EUR_USD"] = domain.RateRecord{FromCurrency: "EUR", ToCurrency: "USD"}
	delete(loaded.Pairs, "BTC_USD")

	reloaded, err := repo.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, reloaded.Pairs, 1)
	assert.Contains(t, reloaded.Pairs, "BTC_USD")
}

func TestReplaceSnapshot_SwapsGeneration(t *testing.T) {
	repo := NewRateRepository()
	ctx := context.Background()

	first := domain.NewRateSnapshot()
	first.Pairs["BTC_USD"] = domain.RateRecord{FromCurrency: "BTC", ToCurrency: "USD"}
	require.NoError(t, repo.ReplaceSnapshot(ctx, first))

	second := domain.NewRateSnapshot()
	second.Pairs["EUR_USD"] = domain.RateRecord{FromCurrency: "EUR", ToCurrency: "USD"}
	require.NoError(t, repo.ReplaceSnapshot(ctx, second))

	loaded, err := repo.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.NotContains(t, loaded.Pairs, "BTC_USD")
	assert.Contains(t, loaded.Pairs, "EUR_USD")
}

func TestLoadHistory_TailLimit(t *testing.T) {
	repo := NewRateRepository()
	ctx := context.Background()

	require.NoError(t, repo.AppendHistory(ctx, []domain.HistoricalRate{
		{ID: "h1"}, {ID: "h2"},
	}))
	require.NoError(t, repo.AppendHistory(ctx, []domain.HistoricalRate{
		{ID: "h3"},
	}))

	all, err := repo.LoadHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "h1", all[0].ID)

	tail, err := repo.LoadHistory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "h2", tail[0].ID)
	assert.Equal(t, "h3", tail[1].ID)
}
