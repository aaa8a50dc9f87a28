package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount in a single currency as reported by the commerce platform.
type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

// NewMoney parses a decimal amount string.
func NewMoney(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return Money{Amount: d, CurrencyCode: currency}, nil
}

// Fixed renders the amount with two decimals.
func (m Money) Fixed() string {
	return m.Amount.StringFixed(2)
}

// Format renders the amount as "<CUR> <amount>".
func (m Money) Format() string {
	return fmt.Sprintf("%s %s", m.CurrencyCode, m.Fixed())
}

// Times multiplies the amount by a quantity, keeping the currency.
func (m Money) Times(qty int) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(int64(qty))), CurrencyCode: m.CurrencyCode}
}

func cloneMoney(m *Money) *Money {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}
