package dto

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
)

// RateResponse is the answer to a single pair lookup. ReverseRate is the
// convenience inversion of Rate; Stale reflects the snapshot TTL at the
// time of the request.
type RateResponse struct {
	FromCurrency string           `json:"fromCurrency"`
	ToCurrency   string           `json:"toCurrency"`
	Rate         decimal.Decimal  `json:"rate"`
	ReverseRate  *decimal.Decimal `json:"reverseRate,omitempty"`
	UpdatedAt    time.Time        `json:"updatedAt"`
	Source       string           `json:"source"`
	Stale        bool             `json:"stale"`
}

// ToRateResponse converts a resolved quote to its response DTO.
func ToRateResponse(quote *domain.Quote, stale bool) RateResponse {
	resp := RateResponse{
		FromCurrency: quote.FromCurrency,
		ToCurrency:   quote.ToCurrency,
		Rate:         quote.Rate,
		UpdatedAt:    quote.UpdatedAt,
		Source:       quote.Source,
		Stale:        stale,
	}
	if !quote.Rate.IsZero() {
		reverse := decimal.NewFromInt(1).Div(quote.Rate)
		resp.ReverseRate = &reverse
	}
	return resp
}

// SnapshotPairResponse is one listed snapshot entry.
type SnapshotPairResponse struct {
	Pair      string          `json:"pair"`
	Rate      decimal.Decimal `json:"rate"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Source    string          `json:"source"`
}

// SnapshotResponse lists the current snapshot, sorted by rate descending.
type SnapshotResponse struct {
	Pairs       []SnapshotPairResponse `json:"pairs"`
	LastRefresh *time.Time             `json:"lastRefresh"`
	Stale       bool                   `json:"stale"`
}

// ToSnapshotResponse converts a snapshot, filtering by currency when
// non-empty and truncating to top entries when top > 0.
func ToSnapshotResponse(snapshot domain.RateSnapshot, currency string, top int, stale bool) SnapshotResponse {
	pairs := make([]SnapshotPairResponse, 0, len(snapshot.Pairs))
	for key, record := range snapshot.Pairs {
		if currency != "" && record.FromCurrency != currency && record.ToCurrency != currency {
			continue
		}
		pairs = append(pairs, SnapshotPairResponse{
			Pair:      key,
			Rate:      record.Rate,
			UpdatedAt: record.UpdatedAt,
			Source:    record.Source,
		})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Rate.GreaterThan(pairs[j].Rate) })
	if top > 0 && len(pairs) > top {
		pairs = pairs[:top]
	}
	return SnapshotResponse{Pairs: pairs, LastRefresh: snapshot.LastRefresh, Stale: stale}
}

// HistoryRecordResponse is one historical log entry.
type HistoryRecordResponse struct {
	ID           string          `json:"id"`
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
	Rate         decimal.Decimal `json:"rate"`
	Timestamp    time.Time       `json:"timestamp"`
	Source       string          `json:"source"`
}

// ToHistoryResponse converts historical records to response DTOs.
func ToHistoryResponse(records []domain.HistoricalRate) []HistoryRecordResponse {
	responses := make([]HistoryRecordResponse, len(records))
	for i, record := range records {
		responses[i] = HistoryRecordResponse{
			ID:           record.ID,
			FromCurrency: record.FromCurrency,
			ToCurrency:   record.ToCurrency,
			Rate:         record.Rate,
			Timestamp:    record.Timestamp,
			Source:       record.Source,
		}
	}
	return responses
}

// RefreshRequest optionally narrows a refresh to one source.
type RefreshRequest struct {
	Source string `json:"source"`
}

// RefreshResponse reports the outcome of an aggregation pass.
type RefreshResponse struct {
	Updated int                        `json:"updated"`
	Rates   map[string]decimal.Decimal `json:"rates"`
}
