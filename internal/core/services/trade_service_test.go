package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/valutatrade/valutatrade_hub/internal/adapters/memory"
	"github.com/valutatrade/valutatrade_hub/internal/apperrors"
	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
	"github.com/valutatrade/valutatrade_hub/internal/core/services"
)

// --- Mock RateResolver ---
type MockRateResolver struct {
	mock.Mock
}

func (m *MockRateResolver) Resolve(ctx context.Context, from, to string) (*domain.Quote, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quote), args.Error(1)
}

func (m *MockRateResolver) IsFresh(ctx context.Context, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockRateResolver) GetSnapshot(ctx context.Context) (domain.RateSnapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.RateSnapshot), args.Error(1)
}

func (m *MockRateResolver) GetHistory(ctx context.Context, limit int) ([]domain.HistoricalRate, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HistoricalRate), args.Error(1)
}

// recordingObserver captures trade outcomes for assertions.
type recordingObserver struct {
	outcomes []domain.TradeOutcome
}

func (o *recordingObserver) TradeExecuted(_ context.Context, outcome domain.TradeOutcome) {
	o.outcomes = append(o.outcomes, outcome)
}

// panickyObserver always panics; trades must survive it.
type panickyObserver struct{}

func (panickyObserver) TradeExecuted(context.Context, domain.TradeOutcome) {
	panic("observer exploded")
}

// --- Test Suite ---
// The currency catalog and the ledger are real; only the resolver is mocked
// so each test controls rate availability.
type TradeServiceTestSuite struct {
	suite.Suite
	mockResolver *MockRateResolver
	observer     *recordingObserver
	ledger       *services.WalletLedgerService
	service      *services.TradeService
}

func (suite *TradeServiceTestSuite) SetupTest() {
	suite.mockResolver = new(MockRateResolver)
	suite.observer = &recordingObserver{}
	suite.ledger = services.NewWalletLedgerService(memory.NewPortfolioRepository())
	suite.service = services.NewTradeService(
		services.NewCurrencyService(domain.DefaultCatalog()),
		suite.mockResolver,
		suite.ledger,
		nil,
		suite.observer,
	)
}

func (suite *TradeServiceTestSuite) quoteBTC(rate int64) *domain.Quote {
	return &domain.Quote{
		FromCurrency: "BTC",
		ToCurrency:   "USD",
		Rate:         decimal.NewFromInt(rate),
		UpdatedAt:    time.Now(),
		Source:       "COINGECKO",
	}
}

// --- Test Cases ---

func (suite *TradeServiceTestSuite) TestBuy_Success() {
	ctx := context.Background()
	suite.mockResolver.On("Resolve", ctx, "BTC", "USD").Return(suite.quoteBTC(50000), nil).Once()

	receipt, err := suite.service.Buy(ctx, "user-1", "btc", decimal.NewFromFloat(0.1))

	suite.Require().NoError(err)
	suite.Equal(domain.Buy, receipt.Side)
	suite.Equal("BTC", receipt.CurrencyCode)
	suite.True(receipt.BalanceBefore.IsZero())
	suite.True(receipt.BalanceAfter.Equal(decimal.NewFromFloat(0.1)))
	suite.Require().NotNil(receipt.Rate)
	suite.True(receipt.Rate.Equal(decimal.NewFromInt(50000)))
	suite.Require().NotNil(receipt.EstimatedValue)
	suite.True(receipt.EstimatedValue.Equal(decimal.NewFromInt(5000)), "0.1 BTC at 50000 should cost 5000")

	suite.Require().Len(suite.observer.outcomes, 1)
	outcome := suite.observer.outcomes[0]
	suite.Equal("BUY", outcome.Action)
	suite.Equal("OK", outcome.Result)
	suite.Empty(outcome.ErrorType)
}

func (suite *TradeServiceTestSuite) TestSell_Success() {
	ctx := context.Background()
	_, _, err := suite.ledger.Credit(ctx, "user-1", "BTC", decimal.NewFromInt(1))
	suite.Require().NoError(err)
	suite.mockResolver.On("Resolve", ctx, "BTC", "USD").Return(suite.quoteBTC(60000), nil).Once()

	receipt, err := suite.service.Sell(ctx, "user-1", "BTC", decimal.NewFromFloat(0.25))

	suite.Require().NoError(err)
	suite.Equal(domain.Sell, receipt.Side)
	suite.True(receipt.BalanceAfter.Equal(decimal.NewFromFloat(0.75)))
	suite.Require().NotNil(receipt.EstimatedValue)
	suite.True(receipt.EstimatedValue.Equal(decimal.NewFromInt(15000)))
}

func (suite *TradeServiceTestSuite) TestSell_InsufficientFunds() {
	ctx := context.Background()
	_, _, err := suite.ledger.Credit(ctx, "user-1", "BTC", decimal.NewFromFloat(0.05))
	suite.Require().NoError(err)
	suite.mockResolver.On("Resolve", ctx, "BTC", "USD").Return(suite.quoteBTC(50000), nil).Once()

	receipt, err := suite.service.Sell(ctx, "user-1", "BTC", decimal.NewFromFloat(0.1))

	suite.Require().Error(err)
	suite.Nil(receipt)

	var insufficientFunds *apperrors.InsufficientFundsError
	suite.Require().ErrorAs(err, &insufficientFunds)
	suite.True(insufficientFunds.Available.Equal(decimal.NewFromFloat(0.05)))
	suite.True(insufficientFunds.Required.Equal(decimal.NewFromFloat(0.1)))

	suite.Require().Len(suite.observer.outcomes, 1)
	outcome := suite.observer.outcomes[0]
	suite.Equal("ERROR", outcome.Result)
	suite.Equal("InsufficientFunds", outcome.ErrorType)
}

func (suite *TradeServiceTestSuite) TestBuy_UnpricedTradeProceeds() {
	ctx := context.Background()
	suite.mockResolver.On("Resolve", ctx, "ADA", "USD").
		Return(nil, apperrors.ErrRateUnavailable).Once()

	receipt, err := suite.service.Buy(ctx, "user-1", "ADA", decimal.NewFromInt(100))

	suite.Require().NoError(err, "missing rate must not block the trade")
	suite.Nil(receipt.Rate)
	suite.Nil(receipt.EstimatedValue)
	suite.True(receipt.BalanceAfter.Equal(decimal.NewFromInt(100)))
}

func (suite *TradeServiceTestSuite) TestBuy_UnknownCurrency() {
	ctx := context.Background()

	receipt, err := suite.service.Buy(ctx, "user-1", "DOGE", decimal.NewFromInt(1))

	suite.Require().Error(err)
	suite.Nil(receipt)
	suite.ErrorIs(err, apperrors.ErrCurrencyNotFound)
	suite.mockResolver.AssertNotCalled(suite.T(), "Resolve", mock.Anything, mock.Anything, mock.Anything)

	suite.Require().Len(suite.observer.outcomes, 1)
	suite.Equal("CurrencyNotFound", suite.observer.outcomes[0].ErrorType)
}

func (suite *TradeServiceTestSuite) TestBuy_InvalidAmount() {
	ctx := context.Background()

	receipt, err := suite.service.Buy(ctx, "user-1", "BTC", decimal.NewFromInt(-1))

	suite.Require().Error(err)
	suite.Nil(receipt)
	suite.ErrorIs(err, apperrors.ErrInvalidAmount)
}

func (suite *TradeServiceTestSuite) TestObserverPanic_DoesNotAffectTrade() {
	ctx := context.Background()
	service := services.NewTradeService(
		services.NewCurrencyService(domain.DefaultCatalog()),
		suite.mockResolver,
		suite.ledger,
		nil,
		panickyObserver{},
		suite.observer,
	)
	suite.mockResolver.On("Resolve", ctx, "BTC", "USD").Return(suite.quoteBTC(50000), nil).Once()

	receipt, err := service.Buy(ctx, "user-1", "BTC", decimal.NewFromInt(1))

	suite.Require().NoError(err)
	suite.NotNil(receipt)
	suite.Len(suite.observer.outcomes, 1, "observers after the panicking one must still run")
}

func TestTradeServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TradeServiceTestSuite))
}
