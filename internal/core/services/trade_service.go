package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/valutatrade/valutatrade_hub/internal/apperrors"
	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
	"github.com/valutatrade/valutatrade_hub/internal/core/ports"
	"github.com/valutatrade/valutatrade_hub/internal/platform/metrics"
)

// TradeService executes buys and sells: validate the request, resolve a
// quote against the anchor currency, mutate the ledger, build a receipt.
// Each trade makes a single pass through those states; the only ledger
// mutation is the one credit/debit call, so an aborted trade needs no
// rollback.
type TradeService struct {
	currencySvc ports.CurrencySvcFacade
	resolver    ports.RateResolverSvcFacade
	ledger      ports.WalletLedgerSvcFacade
	observers   []ports.TradeObserver
	anchor      string
	logger      *slog.Logger
	now         func() time.Time
}

// NewTradeService creates a trade executor. Observers receive the outcome
// of every execution attempt; they are advisory and never change the
// result of a trade.
func NewTradeService(
	currencySvc ports.CurrencySvcFacade,
	resolver ports.RateResolverSvcFacade,
	ledger ports.WalletLedgerSvcFacade,
	logger *slog.Logger,
	observers ...ports.TradeObserver,
) *TradeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TradeService{
		currencySvc: currencySvc,
		resolver:    resolver,
		ledger:      ledger,
		observers:   observers,
		anchor:      DefaultAnchorCurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// Buy credits amount of currencyCode to the user's wallet, quoting the
// estimated cost in the anchor currency when a rate is available.
func (s *TradeService) Buy(ctx context.Context, userID, currencyCode string, amount decimal.Decimal) (*domain.TradeReceipt, error) {
	return s.execute(ctx, domain.Buy, userID, currencyCode, amount)
}

// Sell debits amount of currencyCode from the user's wallet, quoting the
// estimated revenue in the anchor currency when a rate is available.
func (s *TradeService) Sell(ctx context.Context, userID, currencyCode string, amount decimal.Decimal) (*domain.TradeReceipt, error) {
	return s.execute(ctx, domain.Sell, userID, currencyCode, amount)
}

func (s *TradeService) execute(ctx context.Context, side domain.TradeSide, userID, currencyCode string, amount decimal.Decimal) (receipt *domain.TradeReceipt, err error) {
	currencyCode = domain.NormalizeCurrencyCode(currencyCode)

	defer func() {
		s.notifyObservers(ctx, side, userID, currencyCode, amount, receipt, err)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.Trades.WithLabelValues(strings.ToLower(string(side)), outcome).Inc()
	}()

	// Validate
	if _, err = s.currencySvc.GetCurrencyByCode(ctx, currencyCode); err != nil {
		if errors.Is(err, apperrors.ErrCurrencyNotFound) || errors.Is(err, apperrors.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to validate currency %s: %w", currencyCode, err)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", apperrors.ErrInvalidAmount, amount.String())
	}

	// ResolveRate: both sides quote against the anchor. An unavailable rate
	// is not fatal; the trade proceeds unpriced.
	quote, resolveErr := s.resolver.Resolve(ctx, currencyCode, s.anchor)
	if resolveErr != nil {
		if !errors.Is(resolveErr, apperrors.ErrRateUnavailable) {
			s.logger.Warn("Rate resolution failed, trade proceeds unpriced",
				slog.String("currency", currencyCode),
				slog.String("error", resolveErr.Error()),
			)
		}
		quote = nil
	}

	// MutateLedger
	var before, after decimal.Decimal
	switch side {
	case domain.Buy:
		before, after, err = s.ledger.Credit(ctx, userID, currencyCode, amount)
	case domain.Sell:
		before, after, err = s.ledger.Debit(ctx, userID, currencyCode, amount)
	default:
		err = fmt.Errorf("%w: unknown trade side %q", apperrors.ErrValidation, side)
	}
	if err != nil {
		return nil, err
	}

	// BuildReceipt
	receipt = &domain.TradeReceipt{
		UserID:        userID,
		Side:          side,
		CurrencyCode:  currencyCode,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		ExecutedAt:    s.now(),
	}
	if quote != nil {
		rate := quote.Rate
		estimated := amount.Mul(rate)
		receipt.Rate = &rate
		receipt.EstimatedValue = &estimated
	}
	return receipt, nil
}

// notifyObservers hands the structured outcome to every observer. Observer
// panics are contained so advisory logging cannot alter a trade outcome.
func (s *TradeService) notifyObservers(ctx context.Context, side domain.TradeSide, userID, currencyCode string, amount decimal.Decimal, receipt *domain.TradeReceipt, execErr error) {
	if len(s.observers) == 0 {
		return
	}

	outcome := domain.TradeOutcome{
		Action:       string(side),
		UserID:       userID,
		CurrencyCode: currencyCode,
		Amount:       amount,
		Result:       "OK",
		At:           s.now(),
	}
	if receipt != nil {
		outcome.Rate = receipt.Rate
		outcome.EstimatedValue = receipt.EstimatedValue
		outcome.BalanceBefore = &receipt.BalanceBefore
		outcome.BalanceAfter = &receipt.BalanceAfter
	}
	if execErr != nil {
		outcome.Result = "ERROR"
		outcome.ErrorType = errorType(execErr)
		outcome.ErrorMessage = execErr.Error()
	}

	for _, observer := range s.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("Trade observer panicked", slog.Any("panic", r))
				}
			}()
			observer.TradeExecuted(ctx, outcome)
		}()
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		return "InsufficientFunds"
	case errors.Is(err, apperrors.ErrCurrencyNotFound):
		return "CurrencyNotFound"
	case errors.Is(err, apperrors.ErrInvalidAmount):
		return "InvalidAmount"
	case errors.Is(err, apperrors.ErrValidation):
		return "Validation"
	default:
		return "Internal"
	}
}
