package ports

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
)

// RateRepository is the persistence port for the rate store: the current
// snapshot plus the append-only historical log.
type RateRepository interface {
	// LoadSnapshot returns a consistent point-in-time view of the current
	// rates. An empty store yields an empty snapshot with nil LastRefresh,
	// not an error.
	LoadSnapshot(ctx context.Context) (domain.RateSnapshot, error)

	// ReplaceSnapshot atomically swaps the whole current snapshot. Readers
	// must never observe a half-written state.
	ReplaceSnapshot(ctx context.Context, snapshot domain.RateSnapshot) error

	// AppendHistory appends observations to the immutable historical log.
	AppendHistory(ctx context.Context, records []domain.HistoricalRate) error

	// LoadHistory returns up to limit most recent historical records,
	// oldest first. limit <= 0 means no limit.
	LoadHistory(ctx context.Context, limit int) ([]domain.HistoricalRate, error)
}

// PortfolioRepository is the persistence port for user portfolios.
type PortfolioRepository interface {
	// FindPortfolioByUserID returns the user's portfolio. A user without
	// wallets gets an empty portfolio, not an error.
	FindPortfolioByUserID(ctx context.Context, userID string) (*domain.Portfolio, error)

	// AdjustWalletBalance applies delta to the (userID, currencyCode)
	// wallet, creating it with a zero balance first if absent. The
	// check-then-act against the current balance is serialized per wallet
	// key: a negative resulting balance fails with
	// apperrors.InsufficientFundsError and leaves the wallet untouched.
	// Returns the balances before and after the adjustment.
	AdjustWalletBalance(ctx context.Context, userID, currencyCode string, delta decimal.Decimal) (before, after decimal.Decimal, err error)
}
