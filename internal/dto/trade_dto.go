package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
)

// TradeRequest is the body of buy and sell calls.
type TradeRequest struct {
	CurrencyCode string          `json:"currencyCode" binding:"required,currencycode"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
}

// TradeReceiptResponse describes an executed trade. Rate and
// EstimatedValue are omitted for unpriced trades.
type TradeReceiptResponse struct {
	UserID         string           `json:"userId"`
	Side           string           `json:"side"`
	CurrencyCode   string           `json:"currency_code"`
	Amount         decimal.Decimal  `json:"amount"`
	Rate           *decimal.Decimal `json:"rate,omitempty"`
	EstimatedValue *decimal.Decimal `json:"estimatedValue,omitempty"`
	BalanceBefore  decimal.Decimal  `json:"balanceBefore"`
	BalanceAfter   decimal.Decimal  `json:"balanceAfter"`
	ExecutedAt     time.Time        `json:"executedAt"`
}

// ToTradeReceiptResponse converts a domain receipt to its response DTO.
func ToTradeReceiptResponse(receipt *domain.TradeReceipt) TradeReceiptResponse {
	return TradeReceiptResponse{
		UserID:         receipt.UserID,
		Side:           string(receipt.Side),
		CurrencyCode:   receipt.CurrencyCode,
		Amount:         receipt.Amount,
		Rate:           receipt.Rate,
		EstimatedValue: receipt.EstimatedValue,
		BalanceBefore:  receipt.BalanceBefore,
		BalanceAfter:   receipt.BalanceAfter,
		ExecutedAt:     receipt.ExecutedAt,
	}
}
