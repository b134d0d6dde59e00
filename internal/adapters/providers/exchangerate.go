package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/valutatrade/valutatrade_hub/internal/apperrors"
	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
)

// ExchangeRateAPIProvider fetches fiat/USD rates from ExchangeRate-API.
// Without an API key it reports an empty result instead of failing.
type ExchangeRateAPIProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewExchangeRateAPIProvider creates an ExchangeRate-API client. baseURL
// is the /v6 root.
func NewExchangeRateAPIProvider(baseURL, apiKey string, client *http.Client, logger *slog.Logger) *ExchangeRateAPIProvider {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExchangeRateAPIProvider{baseURL: baseURL, apiKey: apiKey, client: client, logger: logger}
}

// Name identifies this provider in source filters and provenance records.
func (p *ExchangeRateAPIProvider) Name() string {
	return "exchangerate"
}

type exchangeRateResponse struct {
	Result          string                     `json:"result"`
	ErrorType       string                     `json:"error-type"`
	ConversionRates map[string]decimal.Decimal `json:"conversion_rates"`
}

// FetchRates returns "<CODE>_USD" rates for the configured fiat set. The
// API quotes USD->X, so each conversion rate is inverted to X->USD.
func (p *ExchangeRateAPIProvider) FetchRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	p.logger.Info("Fetching fiat rates from ExchangeRate-API")

	if p.apiKey == "" {
		p.logger.Warn("ExchangeRate-API key not configured")
		return map[string]decimal.Decimal{}, nil
	}

	url := fmt.Sprintf("%s/%s/latest/%s", p.baseURL, p.apiKey, AnchorCurrency)

	var payload exchangeRateResponse
	if err := getJSON(ctx, p.client, p.Name(), url, &payload); err != nil {
		return nil, err
	}
	if payload.Result != "success" {
		reason := payload.ErrorType
		if reason == "" {
			reason = "unknown error"
		}
		return nil, apperrors.NewProviderError(p.Name(), fmt.Errorf("api error: %s", reason))
	}

	one := decimal.NewFromInt(1)
	rates := make(map[string]decimal.Decimal)
	for _, code := range FiatCurrencies {
		usdToCode, ok := payload.ConversionRates[code]
		if !ok || usdToCode.IsZero() {
			continue
		}
		rates[domain.PairKey(code, AnchorCurrency)] = one.Div(usdToCode)
	}

	p.logger.Info("Fetched fiat rates", slog.Int("count", len(rates)))
	return rates, nil
}
