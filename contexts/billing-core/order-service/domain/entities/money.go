package entities

import (
	"fmt"
	"strconv"
	"strings"

	domainerrors "memberhub/contexts/billing-core/order-service/domain/errors"
)

// Money is an amount in integer minor units. Monetary values cross the wire
// as two-fraction-digit decimal strings and are parsed fixed-point; binary
// floats never touch an amount.
type Money struct {
	Cents    int64
	Currency string
}

func NewMoney(cents int64, currency string) Money {
	return Money{Cents: cents, Currency: normalizeCurrency(currency)}
}

// ParseMoney parses a decimal string such as "50.00" or "-3.5" into minor
// units. At most two fraction digits are accepted.
func ParseMoney(value string, currency string) (Money, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return Money{}, domainerrors.ErrValidation
	}

	negative := false
	if strings.HasPrefix(raw, "-") {
		negative = true
		raw = raw[1:]
	}

	wholePart, fracPart, hasFrac := strings.Cut(raw, ".")
	if wholePart == "" {
		wholePart = "0"
	}
	if hasFrac && (fracPart == "" || len(fracPart) > 2) {
		return Money{}, domainerrors.ErrValidation
	}
	// Digits only past the optional leading minus; ParseInt alone would let
	// a stray sign inside the number through.
	if !allDigits(wholePart) || !allDigits(fracPart) {
		return Money{}, domainerrors.ErrValidation
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}

	whole, err := strconv.ParseInt(wholePart, 10, 64)
	if err != nil {
		return Money{}, domainerrors.ErrValidation
	}
	frac, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return Money{}, domainerrors.ErrValidation
	}

	cents := whole*100 + frac
	if negative {
		cents = -cents
	}
	return Money{Cents: cents, Currency: normalizeCurrency(currency)}, nil
}

// String renders the amount as a decimal with exactly two fraction digits.
func (m Money) String() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func (m Money) IsZero() bool     { return m.Cents == 0 }
func (m Money) IsNegative() bool { return m.Cents < 0 }

func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Cents: m.Cents + other.Cents, Currency: m.Currency}, nil
}

func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Cents: m.Cents - other.Cents, Currency: m.Currency}, nil
}

func (m Money) MulQuantity(quantity int) Money {
	return Money{Cents: m.Cents * int64(quantity), Currency: m.Currency}
}

func (m Money) sameCurrency(other Money) error {
	if m.Currency != other.Currency {
		return domainerrors.ErrMoneyMismatch
	}
	return nil
}

func allDigits(value string) bool {
	for _, ch := range value {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

func normalizeCurrency(currency string) string {
	value := strings.ToUpper(strings.TrimSpace(currency))
	if value == "" {
		value = "USD"
	}
	return value
}
