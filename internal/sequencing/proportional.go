package sequencing

import "github.com/shopspring/decimal"

// ProportionalStrategy takes from every account pro rata to its balance.
// The last funded account absorbs the division remainder so the allocations
// sum to exactly the sourced amount.
type ProportionalStrategy struct{}

func NewProportionalStrategy() *ProportionalStrategy { return &ProportionalStrategy{} }

func (s *ProportionalStrategy) Name() string { return StrategyProportional }

func (s *ProportionalStrategy) Plan(sources []WithdrawalSource, need decimal.Decimal) WithdrawalPlan {
	plan := WithdrawalPlan{Requested: need, StrategyUsed: s.Name(), Allocations: []WithdrawalAllocation{}}

	funded := make([]WithdrawalSource, 0, len(sources))
	total := decimal.Zero
	for _, src := range sources {
		if src.Balance.IsPositive() {
			funded = append(funded, src)
			total = total.Add(src.Balance)
		}
	}
	if !need.IsPositive() || total.IsZero() {
		return finish(plan, decimal.Max(need, decimal.Zero))
	}

	target := decimal.Min(need, total)
	for i, src := range funded {
		var withdraw decimal.Decimal
		if i == len(funded)-1 {
			withdraw = decimal.Min(target.Sub(plan.TotalSourced), src.Balance)
		} else {
			withdraw = decimal.Min(target.Mul(src.Balance).Div(total), src.Balance)
		}
		if !withdraw.IsPositive() {
			continue
		}
		plan.Allocations = append(plan.Allocations, WithdrawalAllocation{Account: src.Account, Gross: withdraw})
		plan.TotalSourced = plan.TotalSourced.Add(withdraw)
	}

	return finish(plan, need.Sub(plan.TotalSourced))
}
