package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PairKey builds the canonical "<FROM>_<TO>" key used by the snapshot and
// the historical log. The format must round-trip identically everywhere.
func PairKey(from, to string) string {
	return from + "_" + to
}

// SplitPairKey splits a "<FROM>_<TO>" key back into its currency codes.
func SplitPairKey(key string) (from, to string, err error) {
	parts := strings.SplitN(key, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed pair key %q", key)
	}
	return parts[0], parts[1], nil
}

// RateRecord is one observed exchange rate inside the current snapshot.
type RateRecord struct {
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
	Rate         decimal.Decimal `json:"rate"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Source       string          `json:"source"`
}

// PairKey returns the snapshot key for this record.
func (r RateRecord) PairKey() string {
	return PairKey(r.FromCurrency, r.ToCurrency)
}

// RateSnapshot is the current-state view of all known rates. Pairs is keyed
// by "<FROM>_<TO>". LastRefresh is nil until the first successful refresh.
type RateSnapshot struct {
	Pairs       map[string]RateRecord `json:"pairs"`
	LastRefresh *time.Time            `json:"last_refresh"`
}

// NewRateSnapshot returns an empty snapshot ready for population.
func NewRateSnapshot() RateSnapshot {
	return RateSnapshot{Pairs: make(map[string]RateRecord)}
}

// HistoricalRate is one immutable entry of the append-only rate log.
type HistoricalRate struct {
	ID           string            `json:"id"`
	FromCurrency string            `json:"from_currency"`
	ToCurrency   string            `json:"to_currency"`
	Rate         decimal.Decimal   `json:"rate"`
	Timestamp    time.Time         `json:"timestamp"`
	Source       string            `json:"source"`
	Meta         map[string]string `json:"meta"`
}

// Quote sources reported by the resolver for rates it did not read verbatim
// from the snapshot.
const (
	QuoteSourceIdentity = "identity"
	QuoteSourceDerived  = "derived"
)

// Quote is a resolved exchange rate together with its provenance. Inverted
// and triangulated quotes carry the timestamp of the oldest contributing
// observation.
type Quote struct {
	FromCurrency string
	ToCurrency   string
	Rate         decimal.Decimal
	UpdatedAt    time.Time
	Source       string
}
