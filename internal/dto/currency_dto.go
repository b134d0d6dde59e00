package dto

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
)

// RegisterValidations installs the custom "currencycode" binding rule used
// by the request DTOs.
func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("currencycode", func(fl validator.FieldLevel) bool {
			code := domain.NormalizeCurrencyCode(fl.Field().String())
			return domain.ValidateCurrencyCode(code) == nil
		})
	}
}

// CurrencyResponse describes one catalog entry.
type CurrencyResponse struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	IssuingCountry string `json:"issuingCountry,omitempty"`
	Algorithm      string `json:"algorithm,omitempty"`
	MarketCap      string `json:"marketCap,omitempty"`
	DisplayInfo    string `json:"displayInfo"`
}

// ToCurrencyResponse converts a domain.Currency to its response DTO.
func ToCurrencyResponse(currency *domain.Currency) CurrencyResponse {
	resp := CurrencyResponse{
		Code:        currency.Code,
		Name:        currency.Name,
		Kind:        string(currency.Kind),
		DisplayInfo: currency.DisplayInfo(),
	}
	switch currency.Kind {
	case domain.Fiat:
		resp.IssuingCountry = currency.IssuingCountry
	case domain.Crypto:
		resp.Algorithm = currency.Algorithm
		if currency.MarketCap.IsPositive() {
			resp.MarketCap = currency.MarketCap.String()
		}
	}
	return resp
}

// ToListCurrencyResponse converts a catalog slice to response DTOs.
func ToListCurrencyResponse(currencies []domain.Currency) []CurrencyResponse {
	responses := make([]CurrencyResponse, len(currencies))
	for i := range currencies {
		responses[i] = ToCurrencyResponse(&currencies[i])
	}
	return responses
}
