package services

import (
	"context"
	"log/slog"

	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
)

// LoggingTradeObserver writes one structured log line per trade execution
// attempt, echoing the acting user, currency and amount, plus rate,
// estimated value and balance delta when the trade was priced.
type LoggingTradeObserver struct {
	logger *slog.Logger
}

// NewLoggingTradeObserver creates an observer logging to the given logger.
func NewLoggingTradeObserver(logger *slog.Logger) *LoggingTradeObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingTradeObserver{logger: logger.With(slog.String("component", "trades"))}
}

// TradeExecuted logs the outcome record.
func (o *LoggingTradeObserver) TradeExecuted(ctx context.Context, outcome domain.TradeOutcome) {
	attrs := []any{
		slog.String("action", outcome.Action),
		slog.String("user_id", outcome.UserID),
		slog.String("currency", outcome.CurrencyCode),
		slog.String("amount", outcome.Amount.String()),
		slog.String("result", outcome.Result),
	}
	if outcome.Rate != nil {
		attrs = append(attrs, slog.String("rate", outcome.Rate.String()))
	}
	if outcome.EstimatedValue != nil {
		attrs = append(attrs, slog.String("estimated_value", outcome.EstimatedValue.String()))
	}
	if outcome.BalanceBefore != nil && outcome.BalanceAfter != nil {
		attrs = append(attrs, slog.String("balance_change",
			outcome.BalanceBefore.String()+" -> "+outcome.BalanceAfter.String()))
	}

	if outcome.Result == "OK" {
		o.logger.InfoContext(ctx, "Trade executed", attrs...)
		return
	}
	attrs = append(attrs,
		slog.String("error_type", outcome.ErrorType),
		slog.String("error", outcome.ErrorMessage),
	)
	o.logger.ErrorContext(ctx, "Trade failed", attrs...)
}
