package services

import (
	"log/slog"
	"time"

	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
	"github.com/valutatrade/valutatrade_hub/internal/core/ports"
)

// ContainerDeps carries everything needed to assemble the service layer.
type ContainerDeps struct {
	RateRepo        ports.RateRepository
	PortfolioRepo   ports.PortfolioRepository
	Providers       []ports.RateProvider
	ProviderTimeout time.Duration
	Logger          *slog.Logger
}

// NewServiceContainer wires the concrete services behind their facades.
// The aggregator is also returned concretely so main can run its refresh
// loop.
func NewServiceContainer(deps ContainerDeps) (*ports.ServiceContainer, *RateAggregatorService) {
	currencySvc := NewCurrencyService(domain.DefaultCatalog())
	resolverSvc := NewRateResolverService(deps.RateRepo)
	aggregatorSvc := NewRateAggregatorService(deps.RateRepo, deps.Providers, deps.ProviderTimeout, deps.Logger)
	ledgerSvc := NewWalletLedgerService(deps.PortfolioRepo)
	tradeSvc := NewTradeService(currencySvc, resolverSvc, ledgerSvc, deps.Logger, NewLoggingTradeObserver(deps.Logger))

	return &ports.ServiceContainer{
		Currency:   currencySvc,
		Resolver:   resolverSvc,
		Aggregator: aggregatorSvc,
		Ledger:     ledgerSvc,
		Trade:      tradeSvc,
	}, aggregatorSvc
}
