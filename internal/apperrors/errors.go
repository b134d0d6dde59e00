package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInvalidAmount indicates a non-positive or non-numeric amount.
var ErrInvalidAmount = errors.New("amount must be a positive number")

// ErrCurrencyNotFound indicates a currency code absent from the catalog.
var ErrCurrencyNotFound = errors.New("unknown currency")

// ErrInsufficientFunds indicates a debit exceeding the available balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrRateUnavailable is a valid resolver outcome meaning "no quote right
// now". It is an explicit absence, never a zero rate, and callers must not
// treat it as a failure of the trade itself.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// ErrProviderUnavailable indicates a single provider's fetch failed. It is
// caught and logged at the aggregator boundary, never propagated past it.
var ErrProviderUnavailable = errors.New("rate provider unavailable")

// CurrencyNotFoundError carries the offending code so callers can report
// the specific currency rather than a generic failure.
type CurrencyNotFoundError struct {
	Code string
}

func (e *CurrencyNotFoundError) Error() string {
	return fmt.Sprintf("unknown currency '%s'", e.Code)
}

func (e *CurrencyNotFoundError) Unwrap() error {
	return ErrCurrencyNotFound
}

// NewCurrencyNotFound builds a CurrencyNotFoundError for the given code.
func NewCurrencyNotFound(code string) error {
	return &CurrencyNotFoundError{Code: code}
}

// InsufficientFundsError carries the available and required amounts of the
// failed debit.
type InsufficientFundsError struct {
	CurrencyCode string
	Available    decimal.Decimal
	Required     decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %s %s, required %s %s",
		e.Available.String(), e.CurrencyCode, e.Required.String(), e.CurrencyCode)
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// NewInsufficientFunds builds an InsufficientFundsError.
func NewInsufficientFunds(currencyCode string, available, required decimal.Decimal) error {
	return &InsufficientFundsError{CurrencyCode: currencyCode, Available: available, Required: required}
}

// ProviderError identifies which provider failed and why.
type ProviderError struct {
	Source string
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Source, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return ErrProviderUnavailable
}

// NewProviderError wraps a provider failure with its source name.
func NewProviderError(source string, err error) error {
	return &ProviderError{Source: source, Err: err}
}
