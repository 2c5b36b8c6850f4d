package domain

import (
	"github.com/shopspring/decimal"
)

// ExchangeRates holds HUF-per-unit rates for the foreign currencies
type ExchangeRates struct {
	EUR decimal.Decimal `yaml:"EUR" json:"EUR"`
	USD decimal.Decimal `yaml:"USD" json:"USD"`
}

// HUFPer returns the HUF-per-unit rate of c. HUF itself is always 1.
func (r ExchangeRates) HUFPer(c Currency) (decimal.Decimal, bool) {
	switch c {
	case CurrencyHUF:
		return decimal.NewFromInt(1), true
	case CurrencyEUR:
		return r.EUR, r.EUR.IsPositive()
	case CurrencyUSD:
		return r.USD, r.USD.IsPositive()
	}
	return decimal.Zero, false
}

// DisplayConfig controls how results are presented
type DisplayConfig struct {
	Currency Currency      `yaml:"currency" json:"currency"`
	Rates    ExchangeRates `yaml:"rates" json:"rates"`
}

// Configuration is the top-level input file: one contract, optional product
// candidates to rank it against, and display settings.
type Configuration struct {
	Name     string         `yaml:"name" json:"name"`
	Product  string         `yaml:"product,omitempty" json:"product,omitempty"`
	Contract ContractInputs `yaml:"contract" json:"contract"`
	Products []string       `yaml:"products,omitempty" json:"products,omitempty"`
	Display  DisplayConfig  `yaml:"display" json:"display"`
}
