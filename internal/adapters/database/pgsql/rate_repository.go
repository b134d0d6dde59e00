package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
)

const lastRefreshKey = "last_refresh"

// PgxRateRepository implements ports.RateRepository on PostgreSQL. The
// snapshot lives in rate_snapshot plus a meta row for last_refresh; the
// historical log is the append-only rate_history table.
type PgxRateRepository struct {
	db *pgxpool.Pool
}

// NewRateRepository creates a PgxRateRepository.
func NewRateRepository(db *pgxpool.Pool) *PgxRateRepository {
	return &PgxRateRepository{db: db}
}

// LoadSnapshot reads the current snapshot in one transaction so the pair
// rows and the refresh timestamp belong to the same generation.
func (r *PgxRateRepository) LoadSnapshot(ctx context.Context) (domain.RateSnapshot, error) {
	snapshot := domain.NewRateSnapshot()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return domain.RateSnapshot{}, fmt.Errorf("error starting snapshot read: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT from_currency, to_currency, rate, updated_at, source
		FROM rate_snapshot
	`)
	if err != nil {
		return domain.RateSnapshot{}, fmt.Errorf("error reading rate snapshot: %w", err)
	}
	for rows.Next() {
		var record domain.RateRecord
		if err := rows.Scan(&record.FromCurrency, &record.ToCurrency, &record.Rate, &record.UpdatedAt, &record.Source); err != nil {
			rows.Close()
			return domain.RateSnapshot{}, fmt.Errorf("error scanning rate record: %w", err)
		}
		snapshot.Pairs[record.PairKey()] = record
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.RateSnapshot{}, fmt.Errorf("error iterating rate snapshot: %w", err)
	}

	err = tx.QueryRow(ctx, `SELECT refreshed_at FROM rate_store_meta WHERE meta_key = $1`, lastRefreshKey).
		Scan(&snapshot.LastRefresh)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return domain.RateSnapshot{}, fmt.Errorf("error reading last refresh: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.RateSnapshot{}, fmt.Errorf("error committing snapshot read: %w", err)
	}
	return snapshot, nil
}

// ReplaceSnapshot swaps the whole snapshot in one transaction: delete all
// rows, insert the new generation, upsert last_refresh.
func (r *PgxRateRepository) ReplaceSnapshot(ctx context.Context, snapshot domain.RateSnapshot) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting snapshot replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM rate_snapshot`); err != nil {
		return fmt.Errorf("error clearing rate snapshot: %w", err)
	}

	for _, record := range snapshot.Pairs {
		_, err := tx.Exec(ctx, `
			INSERT INTO rate_snapshot (pair_key, from_currency, to_currency, rate, updated_at, source)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, record.PairKey(), record.FromCurrency, record.ToCurrency, record.Rate, record.UpdatedAt, record.Source)
		if err != nil {
			return fmt.Errorf("error inserting rate record %s: %w", record.PairKey(), err)
		}
	}

	if snapshot.LastRefresh != nil {
		_, err := tx.Exec(ctx, `
			INSERT INTO rate_store_meta (meta_key, refreshed_at)
			VALUES ($1, $2)
			ON CONFLICT (meta_key) DO UPDATE SET refreshed_at = EXCLUDED.refreshed_at
		`, lastRefreshKey, *snapshot.LastRefresh)
		if err != nil {
			return fmt.Errorf("error updating last refresh: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing snapshot replace: %w", err)
	}
	return nil
}

// AppendHistory inserts the observations into rate_history. Rows are never
// updated or deleted.
func (r *PgxRateRepository) AppendHistory(ctx context.Context, records []domain.HistoricalRate) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting history append: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, record := range records {
		_, err := tx.Exec(ctx, `
			INSERT INTO rate_history (history_id, from_currency, to_currency, rate, recorded_at, source, meta)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, record.ID, record.FromCurrency, record.ToCurrency, record.Rate, record.Timestamp, record.Source, record.Meta)
		if err != nil {
			return fmt.Errorf("error inserting history record %s: %w", record.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing history append: %w", err)
	}
	return nil
}

// LoadHistory returns up to limit most recent records, oldest first.
func (r *PgxRateRepository) LoadHistory(ctx context.Context, limit int) ([]domain.HistoricalRate, error) {
	query := `
		SELECT history_id, from_currency, to_currency, rate, recorded_at, source, meta
		FROM rate_history
		ORDER BY recorded_at DESC, history_id DESC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error reading rate history: %w", err)
	}
	defer rows.Close()

	var records []domain.HistoricalRate
	for rows.Next() {
		var record domain.HistoricalRate
		if err := rows.Scan(&record.ID, &record.FromCurrency, &record.ToCurrency, &record.Rate,
			&record.Timestamp, &record.Source, &record.Meta); err != nil {
			return nil, fmt.Errorf("error scanning history record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rate history: %w", err)
	}

	// Reverse to oldest-first.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}
