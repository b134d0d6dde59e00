package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
)

// CoinGeckoProvider fetches crypto/USD rates from the CoinGecko simple
// price API. It needs no credential.
type CoinGeckoProvider struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewCoinGeckoProvider creates a CoinGecko client. baseURL points at the
// simple/price endpoint.
func NewCoinGeckoProvider(baseURL string, client *http.Client, logger *slog.Logger) *CoinGeckoProvider {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CoinGeckoProvider{baseURL: baseURL, client: client, logger: logger}
}

// Name identifies this provider in source filters and provenance records.
func (p *CoinGeckoProvider) Name() string {
	return "coingecko"
}

// FetchRates returns "<CODE>_USD" rates for the configured crypto set.
func (p *CoinGeckoProvider) FetchRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	p.logger.Info("Fetching crypto rates from CoinGecko")

	ids := make([]string, 0, len(CryptoCurrencies))
	for _, code := range CryptoCurrencies {
		ids = append(ids, CryptoIDMap[code])
	}
	url := fmt.Sprintf("%s?ids=%s&vs_currencies=usd", p.baseURL, strings.Join(ids, ","))

	var payload map[string]map[string]decimal.Decimal
	if err := getJSON(ctx, p.client, p.Name(), url, &payload); err != nil {
		return nil, err
	}

	rates := make(map[string]decimal.Decimal)
	for _, code := range CryptoCurrencies {
		entry, ok := payload[CryptoIDMap[code]]
		if !ok {
			continue
		}
		usd, ok := entry["usd"]
		if !ok {
			continue
		}
		rates[domain.PairKey(code, AnchorCurrency)] = usd
	}

	p.logger.Info("Fetched crypto rates", slog.Int("count", len(rates)))
	return rates, nil
}
