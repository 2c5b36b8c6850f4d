package calculation

import (
	"fmt"

	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/rgehrsitz/savingsim/internal/sequencing"
	"github.com/shopspring/decimal"
)

// Period is the state a pipeline step sees for one monthly period
type Period struct {
	Year      int // contract year, 1-based
	Month     int // month within the contract year, 1..12
	YearEnd   bool
	Years     int
	Inputs    *domain.ContractInputs
	Plan      *domain.YearlyPlan
	Rules     ResolvedYear
	SplitOpen bool

	// Contribution posted this period and the part of it not yet allocated
	Contribution decimal.Decimal
	Net          decimal.Decimal

	ledger    *ledger
	rates     *rateCache
	diag      *diagnostics
	sequencer sequencing.SequencingStrategy
}

// Accounts exposes the current balances
func (p *Period) Accounts() AccountState {
	return p.ledger.accounts
}

// Step is one named stage of the per-period deduction order
type Step struct {
	Name  string
	Apply func(p *Period)
}

// DefaultPipeline returns the fixed order every period is processed in.
// Each deduction reduces the base available to the next one.
func DefaultPipeline() []Step {
	return []Step{
		{Name: "contribution", Apply: postContribution},
		{Name: "initial-cost", Apply: deductInitialCost},
		{Name: "admin-fee", Apply: deductAdminFee},
		{Name: "allocation", Apply: allocateContribution},
		{Name: "risk-fee", Apply: deductRiskFee},
		{Name: "plus-and-management", Apply: deductPlusAndManagement},
		{Name: "maintenance-and-asset", Apply: deductBalanceFees},
		{Name: "yield", Apply: accrueYield},
		{Name: "bonus-and-tax-credit", Apply: postBonusAndTaxCredit},
		{Name: "withdrawal", Apply: applyWithdrawal},
	}
}

func pct(v decimal.Decimal) decimal.Decimal {
	return v.Div(hundred)
}

// 1. Scheduled contribution, pro-rated by payment frequency
func postContribution(p *Period) {
	p.Contribution = decimal.Zero
	p.Net = decimal.Zero
	if !p.Inputs.Frequency.PostsInMonth(p.Month) {
		return
	}
	ppy := decimal.NewFromInt(int64(p.Inputs.Frequency.PeriodsPerYear()))
	amount := p.Plan.Payments[p.Year].Div(ppy)
	if !amount.IsPositive() {
		return
	}
	p.Contribution = amount
	p.Net = amount
	p.ledger.flows.Contributions = p.ledger.flows.Contributions.Add(amount)
}

// takeFromContribution books a cost against the unallocated contribution
func (p *Period) takeFromContribution(amount decimal.Decimal, category domain.CostCategory) {
	if !amount.IsPositive() {
		return
	}
	taken := decimal.Min(amount, p.Net)
	if taken.LessThan(amount) {
		p.diag.warnOnce(p.Year, "COST_TRUNCATED",
			fmt.Sprintf("%s cost exceeds the contribution and was truncated", category))
	}
	if !taken.IsPositive() {
		return
	}
	p.Net = p.Net.Sub(taken)
	p.ledger.flows.Costs.Add(category, taken)
}

// 2. Acquisition cost as a percentage of the contribution
func deductInitialCost(p *Period) {
	if !p.Contribution.IsPositive() {
		return
	}
	p.takeFromContribution(p.Contribution.Mul(pct(p.Rules.InitialCost)), domain.CostInitial)
}

// 3. Admin fee, fixed per payment or a percentage of it
func deductAdminFee(p *Period) {
	if !p.Contribution.IsPositive() {
		return
	}
	fee := p.Rules.AdminFee
	if p.Inputs.AdminFeeMode == domain.ValuePercent {
		fee = p.Contribution.Mul(pct(p.Rules.AdminFee))
	}
	p.takeFromContribution(fee, domain.CostAdmin)
}

// 4. Invested share and surplus split of the net contribution
func allocateContribution(p *Period) {
	if !p.Net.IsPositive() {
		return
	}
	p.takeFromContribution(p.Net.Mul(pct(p.Rules.ExtraFeePercent)), domain.CostExtraFee)

	credited := p.Net
	p.Net = decimal.Zero
	if p.SplitOpen {
		toInvested := credited.Mul(pct(p.Rules.SurplusSplit))
		p.ledger.credit(domain.AccountInvested, toInvested)
		credited = credited.Sub(toInvested)
	}
	p.ledger.credit(domain.AccountClient, credited)
}

// 5. Risk insurance fee inside its start/end window, optionally indexed
func deductRiskFee(p *Period) {
	if !p.Rules.RiskFee.IsPositive() {
		return
	}
	risk := p.Inputs.Risk
	start := risk.StartYear
	if start <= 0 {
		start = 1
	}
	end := risk.EndYear
	if end <= 0 {
		end = p.Years
	}
	if p.Year < start || p.Year > end {
		return
	}

	var annual decimal.Decimal
	if risk.Mode == domain.ValuePercent {
		annual = p.Plan.Payments[p.Year].Mul(pct(p.Rules.RiskFee))
	} else {
		annual = p.Rules.RiskFee
		if !risk.IndexPercent.IsZero() && p.Year > start {
			factor := decimal.NewFromInt(1).Add(pct(risk.IndexPercent))
			annual = annual.Mul(factor.Pow(decimal.NewFromInt(int64(p.Year - start))))
		}
	}
	p.chargeWithNotice(annual.Div(decimal.NewFromInt(12)), domain.CostRisk)
}

func (p *Period) chargeWithNotice(amount decimal.Decimal, category domain.CostCategory) {
	if !amount.IsPositive() {
		return
	}
	p.noticeShortfall(amount, p.ledger.chargeSpread(amount, category), category)
}

// chargeTarget deducts a cost from one account, mapped the same way bonus
// targets are
func (p *Period) chargeTarget(target domain.AccountKind, amount decimal.Decimal, category domain.CostCategory) {
	if !amount.IsPositive() {
		return
	}
	p.noticeShortfall(amount, p.ledger.charge(p.targetAccount(target), amount, category), category)
}

func (p *Period) noticeShortfall(amount, taken decimal.Decimal, category domain.CostCategory) {
	if taken.LessThan(amount) {
		p.diag.warnOnce(p.Year, "COST_TRUNCATED",
			fmt.Sprintf("%s cost exceeds the account balance and was truncated", category))
	}
}

// 6. Flat plus-cost, management fee and custom cost rules
func deductPlusAndManagement(p *Period) {
	if p.Month == 1 {
		p.chargeWithNotice(p.Rules.PlusCost, domain.CostPlus)
	}

	mgmt := p.Inputs.Management
	if p.Rules.ManagementFee.IsPositive() && mgmt.Frequency.PostsInMonth(p.Month) {
		fee := p.periodicValue(p.Rules.ManagementFee, mgmt.Mode, mgmt.Base, mgmt.Frequency,
			p.ledger.accounts.Withdrawable())
		p.chargeWithNotice(fee, domain.CostManagement)
	}

	for _, rule := range p.Inputs.CustomRules {
		if rule.Kind != domain.RuleCost || !rule.ActiveIn(p.Year) || !rule.Frequency.PostsInMonth(p.Month) {
			continue
		}
		category := domain.CostCategory(rule.Name)
		if rule.Target == "" {
			fee := p.periodicValue(rule.Value.Resolve(p.Year), rule.ValueType, rule.Base, rule.Frequency,
				p.ledger.accounts.Withdrawable())
			p.chargeWithNotice(fee, category)
			continue
		}
		fee := p.periodicValue(rule.Value.Resolve(p.Year), rule.ValueType, rule.Base, rule.Frequency,
			p.ledger.accounts.Balance(p.targetAccount(rule.Target)))
		p.chargeTarget(rule.Target, fee, category)
	}
}

// periodicValue turns an annual rule value into the amount due in one posting
// month. Amounts are per posting; percentages are annual and spread evenly
// over the postings of the year.
func (p *Period) periodicValue(value decimal.Decimal, vt domain.ValueType, base domain.FeeBase,
	freq domain.Frequency, assetBase decimal.Decimal) decimal.Decimal {
	postings := freq.MonthlyPostings()
	if vt == domain.ValueAmount {
		return value.Mul(postings)
	}
	ppy := decimal.NewFromInt(int64(freq.PeriodsPerYear()))
	basis := p.Plan.Payments[p.Year]
	if base == domain.FeeBaseAsset {
		basis = assetBase
	}
	return basis.Mul(pct(value)).Div(ppy).Mul(postings)
}

var balanceAccounts = []domain.AccountKind{domain.AccountClient, domain.AccountInvested, domain.AccountTaxBonus}

// 7. Account maintenance (percent per month) and asset-based fee (annual percent)
func deductBalanceFees(p *Period) {
	maint := pct(p.Rules.AccountMaintenance)
	asset := pct(p.Rules.AssetCost).Div(decimal.NewFromInt(12))
	if maint.IsZero() && asset.IsZero() {
		return
	}
	for _, kind := range balanceAccounts {
		balance := p.ledger.accounts.Balance(kind)
		if !balance.IsPositive() {
			continue
		}
		p.ledger.charge(kind, balance.Mul(maint), domain.CostMaintenance)
		p.ledger.charge(kind, balance.Mul(asset), domain.CostAsset)
	}
}

// 8. Yield on the post-deduction balances
func accrueYield(p *Period) {
	p.ledger.accrue(domain.AccountClient, p.rates.main)
	p.ledger.accrue(domain.AccountInvested, p.rates.main)
	p.ledger.accrue(domain.AccountTaxBonus, p.rates.taxBonus)
}

// targetAccount maps a configured target onto an account that exists
func (p *Period) targetAccount(target domain.AccountKind) domain.AccountKind {
	switch target {
	case domain.AccountInvested:
		if p.SplitOpen {
			return domain.AccountInvested
		}
	case domain.AccountTaxBonus:
		if p.Inputs.SeparatedExtraAccounts {
			return domain.AccountTaxBonus
		}
	}
	return domain.AccountClient
}

func (p *Period) postBonus(target domain.AccountKind, amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	p.ledger.credit(p.targetAccount(target), amount)
	p.ledger.flows.Bonus = p.ledger.flows.Bonus.Add(amount)
}

// 9. Bonus, custom bonus rules and tax credit
func postBonusAndTaxCredit(p *Period) {
	for _, rule := range p.Inputs.CustomRules {
		if rule.Kind != domain.RuleBonus || !rule.ActiveIn(p.Year) || !rule.Frequency.PostsInMonth(p.Month) {
			continue
		}
		basis := p.ledger.accounts.Withdrawable()
		if rule.Target != "" {
			basis = p.ledger.accounts.Balance(p.targetAccount(rule.Target))
		}
		p.postBonus(rule.Target, p.periodicValue(rule.Value.Resolve(p.Year), rule.ValueType, rule.Base, rule.Frequency, basis))
	}

	if !p.YearEnd {
		return
	}

	bonus := p.Rules.BonusAmount
	if p.Rules.BonusPercent.IsPositive() {
		basis := p.ledger.flows.Contributions
		if p.Inputs.BonusBase == domain.FeeBaseAsset {
			basis = p.ledger.accounts.Withdrawable()
		}
		bonus = bonus.Add(basis.Mul(pct(p.Rules.BonusPercent)))
	}
	p.postBonus(p.Inputs.BonusTarget, bonus)

	postTaxCredit(p)
}

func postTaxCredit(p *Period) {
	tc := p.Inputs.TaxCredit
	if !tc.Enabled() && p.Rules.TaxCreditOverride == nil {
		return
	}
	if !tc.InWindow(p.Year, p.Years) {
		return
	}

	var credit decimal.Decimal
	if p.Rules.TaxCreditOverride != nil {
		credit = *p.Rules.TaxCreditOverride
	} else {
		credit = p.ledger.flows.Contributions.Mul(pct(tc.RatePercent))
		if limit := p.Rules.TaxCreditLimit; limit.IsPositive() && credit.GreaterThan(limit) {
			credit = limit
		}
	}
	if !credit.IsPositive() {
		return
	}

	target := domain.AccountClient
	if p.Inputs.SeparatedExtraAccounts {
		target = domain.AccountTaxBonus
	}
	p.ledger.credit(target, credit)
	p.ledger.flows.TaxCredit = p.ledger.flows.TaxCredit.Add(credit)
	p.ledger.taxCredits[p.Year] = p.ledger.taxCredits[p.Year].Add(credit)
}

// 10. Scheduled withdrawal or partial surrender, clamped to the minimum balance
func applyWithdrawal(p *Period) {
	if !p.YearEnd {
		return
	}
	requested := p.Plan.Withdrawals[p.Year]
	if !requested.IsPositive() {
		return
	}
	if !p.Inputs.AllowWithdrawals {
		p.diag.add(domain.LevelWarning, p.Year, "WITHDRAWAL_DISABLED",
			fmt.Sprintf("withdrawal of %s ignored because withdrawals are not allowed", requested.StringFixed(2)))
		return
	}

	fee := p.Inputs.PartialSurrenderFee
	available := p.ledger.accounts.Withdrawable().Sub(p.Inputs.MinimumBalance).Sub(fee)
	amount := decimal.Min(requested, decimal.Max(available, decimal.Zero))
	if amount.LessThan(requested) {
		p.diag.add(domain.LevelWarning, p.Year, "WITHDRAWAL_CLAMPED",
			fmt.Sprintf("withdrawal of %s clamped to %s", requested.StringFixed(2), amount.StringFixed(2)))
	}
	if !amount.IsPositive() {
		return
	}
	p.ledger.withdraw(amount, p.sequencer)
	p.ledger.chargeSpread(fee, domain.CostPartialSurrender)
}
