package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyKind distinguishes fiat currencies from cryptocurrencies.
type CurrencyKind string

const (
	Fiat   CurrencyKind = "FIAT"
	Crypto CurrencyKind = "CRYPTO"
)

// Currency represents a supported currency in the domain. Kind-specific
// metadata lives in the optional fields: IssuingCountry for fiat,
// Algorithm/MarketCap for crypto.
type Currency struct {
	Code           string          `json:"code"` // Primary Key (e.g., "USD")
	Name           string          `json:"name"` // e.g., "US Dollar"
	Kind           CurrencyKind    `json:"kind"`
	IssuingCountry string          `json:"issuingCountry,omitempty"`
	Algorithm      string          `json:"algorithm,omitempty"`
	MarketCap      decimal.Decimal `json:"marketCap,omitempty"`
}

// DisplayInfo renders the currency for interfaces and logs.
func (c Currency) DisplayInfo() string {
	switch c.Kind {
	case Fiat:
		return fmt.Sprintf("[FIAT] %s — %s (Issuing: %s)", c.Code, c.Name, c.IssuingCountry)
	case Crypto:
		mcap := "N/A"
		if c.MarketCap.IsPositive() {
			f, _ := c.MarketCap.Float64()
			mcap = fmt.Sprintf("%.2e", f)
		}
		return fmt.Sprintf("[CRYPTO] %s — %s (Algo: %s, MCAP: %s)", c.Code, c.Name, c.Algorithm, mcap)
	default:
		return fmt.Sprintf("%s — %s", c.Code, c.Name)
	}
}

// ValidateCurrencyCode checks the structural rules for a currency code:
// 2-5 characters, alphabetic, uppercase.
func ValidateCurrencyCode(code string) error {
	if len(code) < 2 || len(code) > 5 {
		return fmt.Errorf("currency code must contain 2-5 characters, got %q", code)
	}
	for _, r := range code {
		if r >= 'a' && r <= 'z' {
			return fmt.Errorf("currency code must be uppercase, got %q", code)
		}
		if r < 'A' || r > 'Z' {
			return fmt.Errorf("currency code must contain only letters, got %q", code)
		}
	}
	return nil
}

// NormalizeCurrencyCode uppercases a code before validation or lookup.
func NormalizeCurrencyCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// DefaultCatalog returns the static set of currencies the hub trades.
func DefaultCatalog() []Currency {
	return []Currency{
		{Code: "USD", Name: "US Dollar", Kind: Fiat, IssuingCountry: "United States"},
		{Code: "EUR", Name: "Euro", Kind: Fiat, IssuingCountry: "Eurozone"},
		{Code: "RUB", Name: "Russian Ruble", Kind: Fiat, IssuingCountry: "Russia"},
		{Code: "GBP", Name: "British Pound", Kind: Fiat, IssuingCountry: "United Kingdom"},
		{Code: "JPY", Name: "Japanese Yen", Kind: Fiat, IssuingCountry: "Japan"},
		{Code: "BTC", Name: "Bitcoin", Kind: Crypto, Algorithm: "SHA-256", MarketCap: decimal.NewFromFloat(1.12e12)},
		{Code: "ETH", Name: "Ethereum", Kind: Crypto, Algorithm: "Ethash", MarketCap: decimal.NewFromFloat(4.5e11)},
		{Code: "LTC", Name: "Litecoin", Kind: Crypto, Algorithm: "Scrypt", MarketCap: decimal.NewFromFloat(5.8e9)},
		{Code: "ADA", Name: "Cardano", Kind: Crypto, Algorithm: "Ouroboros", MarketCap: decimal.NewFromFloat(1.2e10)},
	}
}
