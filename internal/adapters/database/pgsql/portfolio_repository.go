package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/valutatrade/valutatrade_hub/internal/apperrors"
	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
)

// PgxPortfolioRepository implements ports.PortfolioRepository on
// PostgreSQL. Balance adjustments lock the wallet row FOR UPDATE, so the
// sufficiency check and the write are one serialized unit per wallet key.
type PgxPortfolioRepository struct {
	db *pgxpool.Pool
}

// NewPortfolioRepository creates a PgxPortfolioRepository.
func NewPortfolioRepository(db *pgxpool.Pool) *PgxPortfolioRepository {
	return &PgxPortfolioRepository{db: db}
}

func (r *PgxPortfolioRepository) FindPortfolioByUserID(ctx context.Context, userID string) (*domain.Portfolio, error) {
	rows, err := r.db.Query(ctx, `
		SELECT currency_code, balance, created_at, last_updated_at
		FROM wallets
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("error reading portfolio: %w", err)
	}
	defer rows.Close()

	portfolio := domain.NewPortfolio(userID)
	for rows.Next() {
		var wallet domain.Wallet
		if err := rows.Scan(&wallet.CurrencyCode, &wallet.Balance, &wallet.CreatedAt, &wallet.LastUpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning wallet: %w", err)
		}
		portfolio.Wallets[wallet.CurrencyCode] = wallet
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallets: %w", err)
	}
	return portfolio, nil
}

func (r *PgxPortfolioRepository) AdjustWalletBalance(ctx context.Context, userID, currencyCode string, delta decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("error starting balance adjustment: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	// Lazy wallet creation keeps the first credit and the adjustment in the
	// same transaction.
	_, err = tx.Exec(ctx, `
		INSERT INTO wallets (user_id, currency_code, balance, created_at, last_updated_at)
		VALUES ($1, $2, 0, $3, $3)
		ON CONFLICT (user_id, currency_code) DO NOTHING
	`, userID, currencyCode, now)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("error ensuring wallet: %w", err)
	}

	var before decimal.Decimal
	err = tx.QueryRow(ctx, `
		SELECT balance FROM wallets
		WHERE user_id = $1 AND currency_code = $2
		FOR UPDATE
	`, userID, currencyCode).Scan(&before)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("error locking wallet: %w", err)
	}

	after := before.Add(delta)
	if after.IsNegative() {
		return decimal.Zero, decimal.Zero, apperrors.NewInsufficientFunds(currencyCode, before, delta.Neg())
	}

	_, err = tx.Exec(ctx, `
		UPDATE wallets SET balance = $3, last_updated_at = $4
		WHERE user_id = $1 AND currency_code = $2
	`, userID, currencyCode, after, now)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("error updating wallet balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("error committing balance adjustment: %w", err)
	}
	return before, after, nil
}
