package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/valutatrade/valutatrade_hub/internal/adapters/memory"
	"github.com/valutatrade/valutatrade_hub/internal/core/ports"
	"github.com/valutatrade/valutatrade_hub/internal/core/services"
	"github.com/valutatrade/valutatrade_hub/internal/dto"
	"github.com/valutatrade/valutatrade_hub/internal/handlers"
	"github.com/valutatrade/valutatrade_hub/internal/platform/config"
)

// staticProvider serves a fixed rate set so the whole HTTP surface can be
// exercised without network access.
type staticProvider struct {
	rates map[string]decimal.Decimal
}

func (staticProvider) Name() string { return "static" }

func (p staticProvider) FetchRates(context.Context) (map[string]decimal.Decimal, error) {
	return p.rates, nil
}

// The HTTP surface is tested end to end: real services over in-memory
// repositories, with a canned rate provider.
type HandlerIntegrationTestSuite struct {
	suite.Suite
	router *gin.Engine
}

func (suite *HandlerIntegrationTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	dto.RegisterValidations()

	container, _ := services.NewServiceContainer(services.ContainerDeps{
		RateRepo:      memory.NewRateRepository(),
		PortfolioRepo: memory.NewPortfolioRepository(),
		Providers: []ports.RateProvider{staticProvider{rates: map[string]decimal.Decimal{
			"BTC_USD": decimal.NewFromInt(50000),
			"EUR_USD": decimal.NewFromFloat(1.25),
		}}},
		ProviderTimeout: time.Second,
	})

	cfg := &config.Config{Port: "8080", RatesTTL: 5 * time.Minute}
	suite.router = gin.New()
	handlers.RegisterRoutes(suite.router, cfg, container, nil)
}

func (suite *HandlerIntegrationTestSuite) request(method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlerIntegrationTestSuite) refresh() {
	w := suite.request(http.MethodPost, "/api/v1/rates/refresh", "")
	suite.Require().Equal(http.StatusOK, w.Code)
}

// --- Test Cases ---

func (suite *HandlerIntegrationTestSuite) TestHealth() {
	w := suite.request(http.MethodGet, "/health", "")
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("OK", w.Body.String())
}

func (suite *HandlerIntegrationTestSuite) TestListCurrencies() {
	w := suite.request(http.MethodGet, "/api/v1/currencies", "")

	suite.Require().Equal(http.StatusOK, w.Code)
	var body []map[string]any
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Len(body, 9)
}

func (suite *HandlerIntegrationTestSuite) TestRefreshThenGetRate() {
	suite.refresh()

	w := suite.request(http.MethodGet, "/api/v1/rates/BTC/USD", "")
	suite.Require().Equal(http.StatusOK, w.Code)

	var resp dto.RateResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.True(resp.Rate.Equal(decimal.NewFromInt(50000)))
	suite.False(resp.Stale)
	suite.Equal("STATIC", resp.Source)
}

func (suite *HandlerIntegrationTestSuite) TestGetRate_Triangulated() {
	suite.refresh()

	w := suite.request(http.MethodGet, "/api/v1/rates/BTC/EUR", "")
	suite.Require().Equal(http.StatusOK, w.Code)

	var resp dto.RateResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	// BTC->USD 50000 over EUR->USD 1.25 gives BTC->EUR 40000.
	suite.True(resp.Rate.Equal(decimal.NewFromInt(40000)), "got %s", resp.Rate)
	suite.Equal("derived", resp.Source)
}

func (suite *HandlerIntegrationTestSuite) TestGetRate_Unavailable() {
	w := suite.request(http.MethodGet, "/api/v1/rates/BTC/USD", "")
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerIntegrationTestSuite) TestBuySellFlow() {
	suite.refresh()

	w := suite.request(http.MethodPost, "/api/v1/portfolios/user-1/buy",
		`{"currencyCode": "BTC", "amount": "0.1"}`)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var receipt dto.TradeReceiptResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &receipt))
	suite.Require().NotNil(receipt.EstimatedValue)
	suite.True(receipt.EstimatedValue.Equal(decimal.NewFromInt(5000)))

	// Selling more than held must fail without touching the balance.
	w = suite.request(http.MethodPost, "/api/v1/portfolios/user-1/sell",
		`{"currencyCode": "BTC", "amount": "0.2"}`)
	suite.Require().Equal(http.StatusUnprocessableEntity, w.Code)

	var errBody map[string]any
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &errBody))
	suite.Equal("BTC", errBody["currency_code"])

	w = suite.request(http.MethodGet, "/api/v1/portfolios/user-1", "")
	suite.Require().Equal(http.StatusOK, w.Code)

	var portfolio dto.PortfolioResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &portfolio))
	suite.Require().Len(portfolio.Wallets, 1)
	suite.True(portfolio.Wallets[0].Balance.Equal(decimal.NewFromFloat(0.1)))
	suite.True(portfolio.TotalValue.Equal(decimal.NewFromInt(5000)))
}

func (suite *HandlerIntegrationTestSuite) TestBuy_UnknownCurrency() {
	w := suite.request(http.MethodPost, "/api/v1/portfolios/user-1/buy",
		`{"currencyCode": "DOGE", "amount": "1"}`)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerIntegrationTestSuite) TestBuy_MalformedCode() {
	w := suite.request(http.MethodPost, "/api/v1/portfolios/user-1/buy",
		`{"currencyCode": "X", "amount": "1"}`)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerIntegrationTestSuite) TestListRates_FilterAndTop() {
	suite.refresh()

	w := suite.request(http.MethodGet, "/api/v1/rates?currency=BTC&top=1", "")
	suite.Require().Equal(http.StatusOK, w.Code)

	var resp dto.SnapshotResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Require().Len(resp.Pairs, 1)
	suite.Equal("BTC_USD", resp.Pairs[0].Pair)
	suite.NotNil(resp.LastRefresh)
}

func (suite *HandlerIntegrationTestSuite) TestHistory() {
	suite.refresh()
	suite.refresh()

	w := suite.request(http.MethodGet, "/api/v1/rates/history?limit=3", "")
	suite.Require().Equal(http.StatusOK, w.Code)

	var records []dto.HistoryRecordResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &records))
	suite.Len(records, 3, "two refreshes of two pairs each, capped at 3")
}

func TestHandlerIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerIntegrationTestSuite))
}
