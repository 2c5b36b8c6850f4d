package sequencing

import (
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/shopspring/decimal"
)

// WithdrawalSource is one account a partial surrender may draw on
type WithdrawalSource struct {
	Account domain.AccountKind
	Balance decimal.Decimal
}

// WithdrawalAllocation is the amount taken from one account
type WithdrawalAllocation struct {
	Account domain.AccountKind
	Gross   decimal.Decimal
}

// WithdrawalPlan aggregates the full plan for meeting a requested amount.
// RemainingNeed is the unmet portion when the balances are insufficient.
type WithdrawalPlan struct {
	Requested     decimal.Decimal
	Allocations   []WithdrawalAllocation
	TotalSourced  decimal.Decimal
	RemainingNeed decimal.Decimal
	Notes         []string
	StrategyUsed  string
}

// SequencingStrategy decides which accounts a withdrawal is taken from
type SequencingStrategy interface {
	Name() string
	Plan(sources []WithdrawalSource, need decimal.Decimal) WithdrawalPlan
}

// drawInOrder empties accounts one after another until need is met
func drawInOrder(name string, order []domain.AccountKind, sources []WithdrawalSource, need decimal.Decimal) WithdrawalPlan {
	plan := WithdrawalPlan{Requested: need, StrategyUsed: name, Allocations: []WithdrawalAllocation{}}
	remaining := need

	lookup := map[domain.AccountKind]*WithdrawalSource{}
	for i := range sources {
		lookup[sources[i].Account] = &sources[i]
	}

	for _, account := range order {
		if !remaining.IsPositive() {
			break
		}
		src, ok := lookup[account]
		if !ok || !src.Balance.IsPositive() {
			continue
		}

		withdraw := decimal.Min(src.Balance, remaining)
		plan.Allocations = append(plan.Allocations, WithdrawalAllocation{Account: account, Gross: withdraw})
		plan.TotalSourced = plan.TotalSourced.Add(withdraw)
		remaining = remaining.Sub(withdraw)
	}

	return finish(plan, remaining)
}

func finish(plan WithdrawalPlan, remaining decimal.Decimal) WithdrawalPlan {
	plan.RemainingNeed = remaining
	if remaining.IsPositive() {
		plan.Notes = append(plan.Notes, "insufficient balances to meet request")
	}
	return plan
}
