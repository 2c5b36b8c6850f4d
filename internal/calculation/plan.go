package calculation

import (
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BuildYearlyPlan expands the base payment, the base indexation rate and the
// sparse per-year overrides into dense 1-based arrays of length years+1.
//
// Year 1 pays its override or basePayment. Every later year pays its override
// verbatim or the previous year's payment indexed by that year's effective
// index. An override therefore resets the baseline of all following
// non-overridden years.
//
// The builder does no validation; ValidateInputs guards the engine boundary.
func BuildYearlyPlan(
	years int,
	basePayment decimal.Decimal,
	baseIndexPercent decimal.Decimal,
	indexByYear map[int]decimal.Decimal,
	paymentByYear map[int]decimal.Decimal,
	withdrawalByYear map[int]decimal.Decimal,
) domain.YearlyPlan {
	if years < 0 {
		years = 0
	}
	plan := domain.YearlyPlan{
		Years:          years,
		IndexEffective: make([]decimal.Decimal, years+1),
		Payments:       make([]decimal.Decimal, years+1),
		Withdrawals:    make([]decimal.Decimal, years+1),
	}

	for y := 1; y <= years; y++ {
		if v, ok := indexByYear[y]; ok {
			plan.IndexEffective[y] = v
		} else {
			plan.IndexEffective[y] = baseIndexPercent
		}
		if v, ok := withdrawalByYear[y]; ok {
			plan.Withdrawals[y] = v
		}

		if v, ok := paymentByYear[y]; ok {
			plan.Payments[y] = v
			continue
		}
		if y == 1 {
			plan.Payments[y] = basePayment
			continue
		}
		factor := decimal.NewFromInt(1).Add(plan.IndexEffective[y].Div(hundred))
		plan.Payments[y] = plan.Payments[y-1].Mul(factor)
	}

	return plan
}

// PlanFor builds the yearly plan of a contract
func PlanFor(inputs domain.ContractInputs) domain.YearlyPlan {
	return BuildYearlyPlan(
		inputs.Duration.Years(),
		inputs.BasePayment,
		inputs.Index.Default,
		inputs.Index.ByYear,
		inputs.PaymentByYear,
		inputs.WithdrawalByYear,
	)
}
