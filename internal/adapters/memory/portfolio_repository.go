package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/valutatrade/valutatrade_hub/internal/apperrors"
	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
)

// PortfolioRepository is an in-memory portfolio store. A single mutex
// serializes all balance adjustments, which satisfies the per-wallet-key
// serialization guarantee for a single process.
type PortfolioRepository struct {
	mu         sync.RWMutex
	portfolios map[string]map[string]domain.Wallet
}

// NewPortfolioRepository constructs an empty in-memory portfolio store.
func NewPortfolioRepository() *PortfolioRepository {
	return &PortfolioRepository{portfolios: make(map[string]map[string]domain.Wallet)}
}

func (r *PortfolioRepository) FindPortfolioByUserID(_ context.Context, userID string) (*domain.Portfolio, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	portfolio := domain.NewPortfolio(userID)
	for code, wallet := range r.portfolios[userID] {
		portfolio.Wallets[code] = wallet
	}
	return portfolio, nil
}

func (r *PortfolioRepository) AdjustWalletBalance(_ context.Context, userID, currencyCode string, delta decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wallets, ok := r.portfolios[userID]
	if !ok {
		wallets = make(map[string]domain.Wallet)
		r.portfolios[userID] = wallets
	}

	now := time.Now().UTC()
	wallet, ok := wallets[currencyCode]
	if !ok {
		wallet = domain.Wallet{CurrencyCode: currencyCode, Balance: decimal.Zero, CreatedAt: now}
	}

	before := wallet.Balance
	after := before.Add(delta)
	if after.IsNegative() {
		return decimal.Zero, decimal.Zero, apperrors.NewInsufficientFunds(currencyCode, before, delta.Neg())
	}

	wallet.Balance = after
	wallet.LastUpdatedAt = now
	wallets[currencyCode] = wallet
	return before, after, nil
}
