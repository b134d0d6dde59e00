package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
)

const (
	snapshotKey = "rates:current"
	historyKey  = "rates:history"
)

// RateRepository implements ports.RateRepository on a Redis key-value
// store. The whole snapshot is one JSON document under a single key, so
// replacing it is a single SET and readers never see a half-written state.
// The historical log is an RPUSH-only list.
type RateRepository struct {
	client *redis.Client
}

// NewRateRepository creates a Redis-backed rate store.
func NewRateRepository(client *redis.Client) *RateRepository {
	return &RateRepository{client: client}
}

// snapshotDocument mirrors the durable snapshot shape:
// {"pairs": {"<FROM>_<TO>": {...}}, "last_refresh": ...}.
type snapshotDocument struct {
	Pairs       map[string]pairDocument `json:"pairs"`
	LastRefresh *time.Time              `json:"last_refresh"`
}

type pairDocument struct {
	Rate      decimal.Decimal `json:"rate"`
	UpdatedAt time.Time       `json:"updated_at"`
	Source    string          `json:"source"`
}

type historyDocument struct {
	ID           string            `json:"id"`
	FromCurrency string            `json:"from_currency"`
	ToCurrency   string            `json:"to_currency"`
	Rate         decimal.Decimal   `json:"rate"`
	Timestamp    time.Time         `json:"timestamp"`
	Source       string            `json:"source"`
	Meta         map[string]string `json:"meta"`
}

func (r *RateRepository) LoadSnapshot(ctx context.Context) (domain.RateSnapshot, error) {
	payload, err := r.client.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.NewRateSnapshot(), nil
		}
		return domain.RateSnapshot{}, fmt.Errorf("error reading rate snapshot: %w", err)
	}

	var doc snapshotDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return domain.RateSnapshot{}, fmt.Errorf("error decoding rate snapshot: %w", err)
	}

	snapshot := domain.NewRateSnapshot()
	snapshot.LastRefresh = doc.LastRefresh
	for pairKey, pair := range doc.Pairs {
		fromCurrency, toCurrency, err := domain.SplitPairKey(pairKey)
		if err != nil {
			return domain.RateSnapshot{}, fmt.Errorf("error decoding rate snapshot: %w", err)
		}
		snapshot.Pairs[pairKey] = domain.RateRecord{
			FromCurrency: fromCurrency,
			ToCurrency:   toCurrency,
			Rate:         pair.Rate,
			UpdatedAt:    pair.UpdatedAt,
			Source:       pair.Source,
		}
	}
	return snapshot, nil
}

func (r *RateRepository) ReplaceSnapshot(ctx context.Context, snapshot domain.RateSnapshot) error {
	doc := snapshotDocument{
		Pairs:       make(map[string]pairDocument, len(snapshot.Pairs)),
		LastRefresh: snapshot.LastRefresh,
	}
	for pairKey, record := range snapshot.Pairs {
		doc.Pairs[pairKey] = pairDocument{
			Rate:      record.Rate,
			UpdatedAt: record.UpdatedAt,
			Source:    record.Source,
		}
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error encoding rate snapshot: %w", err)
	}
	if err := r.client.Set(ctx, snapshotKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("error writing rate snapshot: %w", err)
	}
	return nil
}

func (r *RateRepository) AppendHistory(ctx context.Context, records []domain.HistoricalRate) error {
	if len(records) == 0 {
		return nil
	}

	payloads := make([]any, 0, len(records))
	for _, record := range records {
		payload, err := json.Marshal(historyDocument(record))
		if err != nil {
			return fmt.Errorf("error encoding history record %s: %w", record.ID, err)
		}
		payloads = append(payloads, payload)
	}

	if err := r.client.RPush(ctx, historyKey, payloads...).Err(); err != nil {
		return fmt.Errorf("error appending rate history: %w", err)
	}
	return nil
}

func (r *RateRepository) LoadHistory(ctx context.Context, limit int) ([]domain.HistoricalRate, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}

	payloads, err := r.client.LRange(ctx, historyKey, start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("error reading rate history: %w", err)
	}

	records := make([]domain.HistoricalRate, 0, len(payloads))
	for _, payload := range payloads {
		var doc historyDocument
		if err := json.Unmarshal([]byte(payload), &doc); err != nil {
			return nil, fmt.Errorf("error decoding history record: %w", err)
		}
		records = append(records, domain.HistoricalRate(doc))
	}
	return records, nil
}
