package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeSide identifies the direction of a trade.
type TradeSide string

const (
	Buy  TradeSide = "BUY"
	Sell TradeSide = "SELL"
)

// TradeReceipt describes a completed buy/sell. Rate and EstimatedValue are
// nil when no quote was available at execution time; the trade still
// happened at the requested amount, just unpriced.
type TradeReceipt struct {
	UserID         string           `json:"userId"`
	Side           TradeSide        `json:"side"`
	CurrencyCode   string           `json:"currency_code"`
	Amount         decimal.Decimal  `json:"amount"`
	Rate           *decimal.Decimal `json:"rate,omitempty"`
	EstimatedValue *decimal.Decimal `json:"estimatedValue,omitempty"`
	BalanceBefore  decimal.Decimal  `json:"balanceBefore"`
	BalanceAfter   decimal.Decimal  `json:"balanceAfter"`
	ExecutedAt     time.Time        `json:"executedAt"`
}

// TradeOutcome is the structured record handed to trade observers after
// each execution attempt, successful or not.
type TradeOutcome struct {
	Action         string
	UserID         string
	CurrencyCode   string
	Amount         decimal.Decimal
	Rate           *decimal.Decimal
	EstimatedValue *decimal.Decimal
	BalanceBefore  *decimal.Decimal
	BalanceAfter   *decimal.Decimal
	Result         string // "OK" or "ERROR"
	ErrorType      string
	ErrorMessage   string
	At             time.Time
}
