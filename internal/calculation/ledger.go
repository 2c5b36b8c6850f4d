package calculation

import (
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/rgehrsitz/savingsim/internal/sequencing"
	"github.com/shopspring/decimal"
)

// AccountState holds the balances of one simulation run. It is created with
// zero balances and never shared between runs.
type AccountState struct {
	Client   decimal.Decimal
	Invested decimal.Decimal
	TaxBonus decimal.Decimal
}

// Balance returns the balance of one account
func (a *AccountState) Balance(kind domain.AccountKind) decimal.Decimal {
	switch kind {
	case domain.AccountInvested:
		return a.Invested
	case domain.AccountTaxBonus:
		return a.TaxBonus
	}
	return a.Client
}

func (a *AccountState) ref(kind domain.AccountKind) *decimal.Decimal {
	switch kind {
	case domain.AccountInvested:
		return &a.Invested
	case domain.AccountTaxBonus:
		return &a.TaxBonus
	}
	return &a.Client
}

// Total returns the sum of every account
func (a *AccountState) Total() decimal.Decimal {
	return a.Client.Add(a.Invested).Add(a.TaxBonus)
}

// Withdrawable returns the balance partial surrenders may draw on
func (a *AccountState) Withdrawable() decimal.Decimal {
	return a.Client.Add(a.Invested)
}

// yearFlows accumulates every balance movement of the current contract year.
// Each mutation of AccountState goes through a method that also records the
// flow, so the yearly balance law holds exactly.
type yearFlows struct {
	Contributions decimal.Decimal
	Costs         domain.CostMap
	Yield         decimal.Decimal
	Bonus         decimal.Decimal
	TaxCredit     decimal.Decimal
	Withdrawals   decimal.Decimal
}

func newYearFlows() *yearFlows {
	return &yearFlows{Costs: domain.CostMap{}}
}

// ledger couples the account balances with the yearly flow accumulator
type ledger struct {
	accounts AccountState
	flows    *yearFlows

	// tax credits posted per contract year, for clawback on surrender
	taxCredits map[int]decimal.Decimal
}

func newLedger() *ledger {
	return &ledger{
		flows:      newYearFlows(),
		taxCredits: make(map[int]decimal.Decimal),
	}
}

// credit adds a non-negative amount to an account without recording a flow;
// callers record the matching inflow themselves.
func (l *ledger) credit(kind domain.AccountKind, amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	b := l.accounts.ref(kind)
	*b = b.Add(amount)
}

// charge deducts a cost from one account, clamped to its balance, and returns
// the amount actually charged.
func (l *ledger) charge(kind domain.AccountKind, amount decimal.Decimal, category domain.CostCategory) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	b := l.accounts.ref(kind)
	taken := decimal.Min(amount, *b)
	if !taken.IsPositive() {
		return decimal.Zero
	}
	*b = b.Sub(taken)
	l.flows.Costs.Add(category, taken)
	return taken
}

// chargeSpread deducts a cost from the client account first, then the
// invested account. Returns the amount actually charged.
func (l *ledger) chargeSpread(amount decimal.Decimal, category domain.CostCategory) decimal.Decimal {
	taken := l.charge(domain.AccountClient, amount, category)
	rest := amount.Sub(taken)
	if rest.IsPositive() {
		taken = taken.Add(l.charge(domain.AccountInvested, rest, category))
	}
	return taken
}

// accrue applies a periodic rate to one account and records the yield
func (l *ledger) accrue(kind domain.AccountKind, rate decimal.Decimal) {
	if rate.IsZero() {
		return
	}
	b := l.accounts.ref(kind)
	if !b.IsPositive() {
		return
	}
	gain := b.Mul(rate)
	next := b.Add(gain)
	if next.IsNegative() {
		gain = b.Neg()
		next = decimal.Zero
	}
	*b = next
	l.flows.Yield = l.flows.Yield.Add(gain)
}

// withdraw takes up to amount from the client and invested accounts in the
// order the strategy plans, and returns what was taken.
func (l *ledger) withdraw(amount decimal.Decimal, strategy sequencing.SequencingStrategy) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	sources := sequencing.CreateWithdrawalSources(l.accounts.Client, l.accounts.Invested)
	plan := strategy.Plan(sources, amount)

	taken := decimal.Zero
	for _, alloc := range plan.Allocations {
		b := l.accounts.ref(alloc.Account)
		part := decimal.Min(alloc.Gross, *b)
		if part.IsPositive() {
			*b = b.Sub(part)
			taken = taken.Add(part)
		}
	}
	l.flows.Withdrawals = l.flows.Withdrawals.Add(taken)
	return taken
}

// unexpiredTaxCredits sums posted credits still repayable in year
func (l *ledger) unexpiredTaxCredits(year, lockYears int) decimal.Decimal {
	total := decimal.Zero
	for posted, amount := range l.taxCredits {
		if posted > year {
			continue
		}
		if lockYears > 0 && year-posted >= lockYears {
			continue
		}
		total = total.Add(amount)
	}
	return total
}
