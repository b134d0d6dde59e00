package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/valutatrade/valutatrade_hub/internal/apperrors"
	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
	"github.com/valutatrade/valutatrade_hub/internal/core/ports"
)

// WalletLedgerService enforces the balance rules on top of the portfolio
// repository: positive amounts only, lazy wallet creation on credit, and
// debits that fail atomically when they exceed the available balance. The
// repository serializes concurrent adjustments per wallet key, so two
// concurrent debits cannot both pass the sufficiency check.
type WalletLedgerService struct {
	portfolioRepo ports.PortfolioRepository
}

// NewWalletLedgerService creates a ledger over the given repository.
func NewWalletLedgerService(portfolioRepo ports.PortfolioRepository) *WalletLedgerService {
	return &WalletLedgerService{portfolioRepo: portfolioRepo}
}

// Credit adds amount to the user's wallet, creating it if absent.
func (s *WalletLedgerService) Credit(ctx context.Context, userID, currencyCode string, amount decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	currencyCode, err := s.validate(userID, currencyCode, amount)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	before, after, err := s.portfolioRepo.AdjustWalletBalance(ctx, userID, currencyCode, amount)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to credit wallet: %w", err)
	}
	return before, after, nil
}

// Debit subtracts amount from the user's wallet. A debit exceeding the
// current balance fails with apperrors.InsufficientFundsError and leaves
// the balance unchanged.
func (s *WalletLedgerService) Debit(ctx context.Context, userID, currencyCode string, amount decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	currencyCode, err := s.validate(userID, currencyCode, amount)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	before, after, err := s.portfolioRepo.AdjustWalletBalance(ctx, userID, currencyCode, amount.Neg())
	if err != nil {
		if errors.Is(err, apperrors.ErrInsufficientFunds) {
			return decimal.Zero, decimal.Zero, err
		}
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to debit wallet: %w", err)
	}
	return before, after, nil
}

// GetPortfolio returns the user's portfolio, empty if they have no wallets.
func (s *WalletLedgerService) GetPortfolio(ctx context.Context, userID string) (*domain.Portfolio, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id must not be empty", apperrors.ErrValidation)
	}
	portfolio, err := s.portfolioRepo.FindPortfolioByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}
	return portfolio, nil
}

func (s *WalletLedgerService) validate(userID, currencyCode string, amount decimal.Decimal) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user id must not be empty", apperrors.ErrValidation)
	}
	currencyCode = domain.NormalizeCurrencyCode(currencyCode)
	if err := domain.ValidateCurrencyCode(currencyCode); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if !amount.IsPositive() {
		return "", fmt.Errorf("%w: got %s", apperrors.ErrInvalidAmount, amount.String())
	}
	return currencyCode, nil
}
