package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
)

// CurrencySvcFacade exposes the static currency catalog.
type CurrencySvcFacade interface {
	GetCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error)
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)
}

// RateResolverSvcFacade answers "what is the rate from A to B right now".
type RateResolverSvcFacade interface {
	// Resolve returns a quote by direct lookup, reverse inversion or
	// one-hop triangulation through the anchor currency. A missing rate is
	// reported as apperrors.ErrRateUnavailable, never as a zero rate.
	Resolve(ctx context.Context, from, to string) (*domain.Quote, error)

	// IsFresh reports whether the snapshot was refreshed within ttl.
	// Staleness never blocks resolution, it only informs callers.
	IsFresh(ctx context.Context, ttl time.Duration) (bool, error)

	GetSnapshot(ctx context.Context) (domain.RateSnapshot, error)
	GetHistory(ctx context.Context, limit int) ([]domain.HistoricalRate, error)
}

// RateAggregatorSvcFacade refreshes the rate store from the configured
// providers.
type RateAggregatorSvcFacade interface {
	// Refresh queries the providers (all of them, or just sourceFilter if
	// non-empty), merges the fetched pairs last-write-wins and persists the
	// result. An empty returned mapping means nothing was updated; the
	// prior snapshot stays untouched in that case.
	Refresh(ctx context.Context, sourceFilter string) (map[string]decimal.Decimal, error)
}

// WalletLedgerSvcFacade mutates and reads per-user, per-currency balances.
type WalletLedgerSvcFacade interface {
	Credit(ctx context.Context, userID, currencyCode string, amount decimal.Decimal) (before, after decimal.Decimal, err error)
	Debit(ctx context.Context, userID, currencyCode string, amount decimal.Decimal) (before, after decimal.Decimal, err error)
	GetPortfolio(ctx context.Context, userID string) (*domain.Portfolio, error)
}

// TradeSvcFacade orchestrates resolver and ledger into buy/sell operations.
type TradeSvcFacade interface {
	Buy(ctx context.Context, userID, currencyCode string, amount decimal.Decimal) (*domain.TradeReceipt, error)
	Sell(ctx context.Context, userID, currencyCode string, amount decimal.Decimal) (*domain.TradeReceipt, error)
}

// RateProvider is an external source of exchange rates. Implementations
// return a mapping of "<FROM>_<TO>" keys to rates and surface fetch
// problems as apperrors.ProviderError. A misconfigured provider returns an
// empty mapping instead of failing.
type RateProvider interface {
	Name() string
	FetchRates(ctx context.Context) (map[string]decimal.Decimal, error)
}

// TradeObserver receives the structured outcome of every trade execution
// attempt. Observers are advisory: they must not influence the trade.
type TradeObserver interface {
	TradeExecuted(ctx context.Context, outcome domain.TradeOutcome)
}

// ServiceContainer bundles the service facades handed to the HTTP layer.
type ServiceContainer struct {
	Currency   CurrencySvcFacade
	Resolver   RateResolverSvcFacade
	Aggregator RateAggregatorSvcFacade
	Ledger     WalletLedgerSvcFacade
	Trade      TradeSvcFacade
}
