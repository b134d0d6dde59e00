package dto

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
)

// WalletValueResponse is one wallet with its valuation in the base
// currency. RateAvailable is false when the wallet could not be priced; in
// that case Value is zero and excluded from the total.
type WalletValueResponse struct {
	CurrencyCode  string           `json:"currency_code"`
	Balance       decimal.Decimal  `json:"balance"`
	Rate          *decimal.Decimal `json:"rate,omitempty"`
	Value         decimal.Decimal  `json:"value"`
	RateAvailable bool             `json:"rateAvailable"`
}

// PortfolioResponse is a user's wallets valued in a base currency.
type PortfolioResponse struct {
	UserID       string                `json:"user_id"`
	BaseCurrency string                `json:"baseCurrency"`
	Wallets      []WalletValueResponse `json:"wallets"`
	TotalValue   decimal.Decimal       `json:"totalValue"`
}

// NewPortfolioResponse assembles the response from the domain portfolio
// and the per-wallet valuations computed by the handler.
func NewPortfolioResponse(portfolio *domain.Portfolio, baseCurrency string, wallets []WalletValueResponse) PortfolioResponse {
	sort.Slice(wallets, func(i, j int) bool { return wallets[i].CurrencyCode < wallets[j].CurrencyCode })
	total := decimal.Zero
	for _, w := range wallets {
		total = total.Add(w.Value)
	}
	return PortfolioResponse{
		UserID:       portfolio.UserID,
		BaseCurrency: baseCurrency,
		Wallets:      wallets,
		TotalValue:   total,
	}
}
