// Package providers contains the HTTP clients for the external rate
// sources. Every client returns a mapping of "<FROM>_<TO>" pair keys to
// rates; fetch problems surface as apperrors.ProviderError so the
// aggregator can skip the source and carry on.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/valutatrade/valutatrade_hub/internal/apperrors"
)

// AnchorCurrency is the quote side of every provider pair.
const AnchorCurrency = "USD"

// FiatCurrencies are the fiat codes requested from ExchangeRate-API.
var FiatCurrencies = []string{"EUR", "GBP", "RUB", "JPY"}

// CryptoCurrencies are the crypto codes requested from CoinGecko, mapped
// to the identifiers its API expects.
var CryptoCurrencies = []string{"BTC", "ETH", "LTC", "ADA"}

// CryptoIDMap translates catalog codes to CoinGecko asset ids.
var CryptoIDMap = map[string]string{
	"BTC": "bitcoin",
	"ETH": "ethereum",
	"LTC": "litecoin",
	"ADA": "cardano",
}

// getJSON performs a GET request and decodes the JSON body into out.
// Network and format failures are wrapped as provider errors for the
// caller to attribute to its source.
func getJSON(ctx context.Context, client *http.Client, source, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperrors.NewProviderError(source, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return apperrors.NewProviderError(source, fmt.Errorf("network error: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperrors.NewProviderError(source, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewProviderError(source, fmt.Errorf("read body: %w", err))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.NewProviderError(source, fmt.Errorf("invalid response format: %w", err))
	}
	return nil
}
