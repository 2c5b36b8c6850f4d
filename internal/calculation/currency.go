package calculation

import (
	"fmt"

	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/shopspring/decimal"
)

// Convert converts value between HUF and a foreign currency. rate is the
// number of HUF per unit of the foreign currency, in both directions.
// EUR<->USD needs both legs and is rejected with ErrUnsupportedConversion;
// use ConvertWithRates for it.
func Convert(value decimal.Decimal, from, to domain.Currency, rate decimal.Decimal) (decimal.Decimal, error) {
	if !from.IsValid() {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrUnknownCurrency, from)
	}
	if !to.IsValid() {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrUnknownCurrency, to)
	}
	if from == to {
		return value, nil
	}
	if from != domain.CurrencyHUF && to != domain.CurrencyHUF {
		return decimal.Zero, fmt.Errorf("%w: %s to %s requires a cross rate", domain.ErrUnsupportedConversion, from, to)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrInvalidRate, rate.String())
	}
	if from == domain.CurrencyHUF {
		return value.Div(rate), nil
	}
	return value.Mul(rate), nil
}

// ConvertWithRates converts value between any two supported currencies,
// crossing through HUF when neither side is HUF.
func ConvertWithRates(value decimal.Decimal, from, to domain.Currency, rates domain.ExchangeRates) (decimal.Decimal, error) {
	if from == to && from.IsValid() {
		return value, nil
	}
	if from == domain.CurrencyHUF || to == domain.CurrencyHUF {
		foreign := from
		if foreign == domain.CurrencyHUF {
			foreign = to
		}
		rate, _ := rates.HUFPer(foreign)
		return Convert(value, from, to, rate)
	}

	fromRate, ok := rates.HUFPer(from)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: missing %s rate", domain.ErrInvalidRate, from)
	}
	huf, err := Convert(value, from, domain.CurrencyHUF, fromRate)
	if err != nil {
		return decimal.Zero, err
	}
	toRate, ok := rates.HUFPer(to)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: missing %s rate", domain.ErrInvalidRate, to)
	}
	return Convert(huf, domain.CurrencyHUF, to, toRate)
}

// ConvertResults returns a copy of results expressed in another currency.
// Percentages, year indices and the payment plan are left untouched.
func ConvertResults(results *domain.ResultsDaily, to domain.Currency, rates domain.ExchangeRates) (*domain.ResultsDaily, error) {
	if results == nil {
		return nil, fmt.Errorf("results cannot be nil")
	}
	if results.Currency == to {
		return results, nil
	}
	var convErr error
	conv := func(v decimal.Decimal) decimal.Decimal {
		if convErr != nil {
			return v
		}
		out, err := ConvertWithRates(v, results.Currency, to, rates)
		if err != nil {
			convErr = err
			return v
		}
		return out
	}
	convCosts := func(m domain.CostMap) domain.CostMap {
		out := make(domain.CostMap, len(m))
		for k, v := range m {
			out[k] = conv(v)
		}
		return out
	}

	out := *results
	out.Currency = to
	out.Rows = make([]domain.YearlyBreakdownRow, len(results.Rows))
	for i, r := range results.Rows {
		r.Contributions = conv(r.Contributions)
		r.CumulativeContributions = conv(r.CumulativeContributions)
		r.Costs = convCosts(r.Costs)
		r.CostTotal = conv(r.CostTotal)
		r.CumulativeCosts = convCosts(r.CumulativeCosts)
		r.Yield = conv(r.Yield)
		r.Bonus = conv(r.Bonus)
		r.TaxCredit = conv(r.TaxCredit)
		r.Withdrawals = conv(r.Withdrawals)
		r.CumulativeWithdrawals = conv(r.CumulativeWithdrawals)
		r.ClientBalance = conv(r.ClientBalance)
		r.InvestedBalance = conv(r.InvestedBalance)
		r.TaxBonusBalance = conv(r.TaxBonusBalance)
		r.EndBalance = conv(r.EndBalance)
		r.RedemptionFee = conv(r.RedemptionFee)
		r.TaxCreditClawback = conv(r.TaxCreditClawback)
		r.SurrenderValue = conv(r.SurrenderValue)
		r.NetReturn = conv(r.NetReturn)
		out.Rows[i] = r
	}

	t := results.Totals
	out.Totals = domain.Totals{
		Contributions: conv(t.Contributions),
		Return:        conv(t.Return),
		Yield:         conv(t.Yield),
		Costs:         convCosts(t.Costs),
		CostTotal:     conv(t.CostTotal),
		Bonus:         conv(t.Bonus),
		TaxCredit:     conv(t.TaxCredit),
		Withdrawals:   conv(t.Withdrawals),
		EndBalance:    conv(t.EndBalance),
		Surrender:     conv(t.Surrender),
	}
	if results.NetOfTax != nil {
		n := *results.NetOfTax
		n.TaxableGain = conv(n.TaxableGain)
		n.Tax = conv(n.Tax)
		n.NetPayout = conv(n.NetPayout)
		out.NetOfTax = &n
	}

	if convErr != nil {
		return nil, fmt.Errorf("failed to convert results to %s: %w", to, convErr)
	}
	return &out, nil
}
