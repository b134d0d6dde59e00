package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is a single user's balance holding for one currency. Balance is
// never negative at any observable point. Wallets are created lazily the
// first time a user acquires a currency and are never destroyed.
type Wallet struct {
	CurrencyCode  string          `json:"currency_code"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"createdAt"`
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
}

// Portfolio owns the full set of a user's wallets, keyed by currency code.
type Portfolio struct {
	UserID  string            `json:"user_id"`
	Wallets map[string]Wallet `json:"wallets"`
}

// NewPortfolio returns an empty portfolio for the given user.
func NewPortfolio(userID string) *Portfolio {
	return &Portfolio{UserID: userID, Wallets: make(map[string]Wallet)}
}
