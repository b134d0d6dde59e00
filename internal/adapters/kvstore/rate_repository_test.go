package kvstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
)

func setupRepo(t *testing.T) (*RateRepository, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cleanup := func() {
		client.Close()
		mr.Close()
	}
	return NewRateRepository(client), cleanup
}

func TestLoadSnapshot_EmptyStore(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()

	snapshot, err := repo.LoadSnapshot(context.Background())

	require.NoError(t, err)
	assert.Empty(t, snapshot.Pairs)
	assert.Nil(t, snapshot.LastRefresh)
}

func TestReplaceAndLoadSnapshot(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	refreshedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	snapshot := domain.NewRateSnapshot()
	snapshot.LastRefresh = &refreshedAt
	snapshot.Pairs["BTC_USD"] = domain.RateRecord{
		FromCurrency: "BTC",
		ToCurrency:   "USD",
		Rate:         decimal.NewFromFloat(59337.12),
		UpdatedAt:    refreshedAt,
		Source:       "COINGECKO",
	}

	require.NoError(t, repo.ReplaceSnapshot(ctx, snapshot))

	loaded, err := repo.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.Contains(t, loaded.Pairs, "BTC_USD")
	rec := loaded.Pairs["BTC_USD"]
	assert.Equal(t, "BTC", rec.FromCurrency)
	assert.Equal(t, "USD", rec.ToCurrency)
	assert.True(t, rec.Rate.Equal(decimal.NewFromFloat(59337.12)))
	assert.Equal(t, "COINGECKO", rec.Source)
	require.NotNil(t, loaded.LastRefresh)
	assert.True(t, loaded.LastRefresh.Equal(refreshedAt))
}

func TestReplaceSnapshot_OverwritesWholeDocument(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	first := domain.NewRateSnapshot()
	first.Pairs["BTC_USD"] = domain.RateRecord{FromCurrency: "BTC", ToCurrency: "USD", Rate: decimal.NewFromInt(1)}
	first.Pairs["ETH_USD"] = domain.RateRecord{FromCurrency: "ETH", ToCurrency: "USD", Rate: decimal.NewFromInt(2)}
	require.NoError(t, repo.ReplaceSnapshot(ctx, first))

	second := domain.NewRateSnapshot()
	second.Pairs["EUR_USD"] = domain.RateRecord{FromCurrency: "EUR", ToCurrency: "USD", Rate: decimal.NewFromInt(3)}
	require.NoError(t, repo.ReplaceSnapshot(ctx, second))

	loaded, err := repo.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded.Pairs, 1, "stale pairs from the previous generation must be gone")
	assert.Contains(t, loaded.Pairs, "EUR_USD")
}

func TestSnapshotWireFormat(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	refreshedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	snapshot := domain.NewRateSnapshot()
	snapshot.LastRefresh = &refreshedAt
	snapshot.Pairs["BTC_USD"] = domain.RateRecord{
		FromCurrency: "BTC", ToCurrency: "USD",
		Rate: decimal.NewFromInt(59000), UpdatedAt: refreshedAt, Source: "COINGECKO",
	}
	require.NoError(t, repo.ReplaceSnapshot(ctx, snapshot))

	raw, err := repo.client.Get(ctx, snapshotKey).Bytes()
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, "pairs")
	assert.Contains(t, doc, "last_refresh")

	var pairs map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc["pairs"], &pairs))
	require.Contains(t, pairs, "BTC_USD")
	for _, field := range []string{"rate", "updated_at", "source"} {
		assert.Contains(t, pairs["BTC_USD"], field)
	}
}

func TestAppendAndLoadHistory(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	observedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	batch := []domain.HistoricalRate{
		{ID: "h1", FromCurrency: "BTC", ToCurrency: "USD", Rate: decimal.NewFromInt(58000), Timestamp: observedAt, Source: "COINGECKO", Meta: map[string]string{}},
		{ID: "h2", FromCurrency: "BTC", ToCurrency: "USD", Rate: decimal.NewFromInt(59000), Timestamp: observedAt.Add(time.Minute), Source: "COINGECKO", Meta: map[string]string{}},
		{ID: "h3", FromCurrency: "EUR", ToCurrency: "USD", Rate: decimal.NewFromFloat(1.08), Timestamp: observedAt.Add(2 * time.Minute), Source: "EXCHANGERATE", Meta: map[string]string{}},
	}
	require.NoError(t, repo.AppendHistory(ctx, batch))

	all, err := repo.LoadHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "h1", all[0].ID, "history must come back oldest first")
	assert.Equal(t, "h3", all[2].ID)

	tail, err := repo.LoadHistory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "h2", tail[0].ID)
	assert.Equal(t, "h3", tail[1].ID)
}

func TestAppendHistory_EmptyBatch(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()

	require.NoError(t, repo.AppendHistory(context.Background(), nil))

	records, err := repo.LoadHistory(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}
