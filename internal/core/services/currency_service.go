package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/valutatrade/valutatrade_hub/internal/apperrors"
	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
)

// CurrencyService serves the static currency catalog. The catalog is built
// once at construction; there is no runtime mutation.
type CurrencyService struct {
	catalog map[string]domain.Currency
}

// NewCurrencyService creates a CurrencyService over the given catalog.
func NewCurrencyService(catalog []domain.Currency) *CurrencyService {
	byCode := make(map[string]domain.Currency, len(catalog))
	for _, c := range catalog {
		byCode[c.Code] = c
	}
	return &CurrencyService{catalog: byCode}
}

// GetCurrencyByCode looks a currency up by its code, case-insensitively.
func (s *CurrencyService) GetCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error) {
	code = domain.NormalizeCurrencyCode(code)
	if err := domain.ValidateCurrencyCode(code); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	currency, ok := s.catalog[code]
	if !ok {
		return nil, apperrors.NewCurrencyNotFound(code)
	}
	return &currency, nil
}

// ListCurrencies returns the catalog ordered by code.
func (s *CurrencyService) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	currencies := make([]domain.Currency, 0, len(s.catalog))
	for _, c := range s.catalog {
		currencies = append(currencies, c)
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i].Code < currencies[j].Code })
	return currencies, nil
}
