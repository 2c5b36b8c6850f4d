package calculation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/rgehrsitz/savingsim/internal/sequencing"
	"github.com/shopspring/decimal"
)

// ErrDegenerateInput is returned in strict mode when a run produced warning
// or error diagnostics
var ErrDegenerateInput = errors.New("degenerate contract input")

// CalculationEngine runs contract cash-flow simulations. It holds no per-run
// state and is safe for concurrent use.
type CalculationEngine struct {
	Logger   Logger
	Pipeline []Step
	Strict   bool // fail runs that produce warning or error diagnostics
	Debug    bool
}

// NewCalculationEngine creates an engine with the default deduction order
func NewCalculationEngine() *CalculationEngine {
	return &CalculationEngine{
		Logger:   NopLogger{},
		Pipeline: DefaultPipeline(),
	}
}

// SetLogger replaces the logger; nil installs a no-op logger
func (ce *CalculationEngine) SetLogger(l Logger) {
	if l == nil {
		ce.Logger = NopLogger{}
		return
	}
	ce.Logger = l
}

type rateCache struct {
	main     decimal.Decimal
	taxBonus decimal.Decimal
}

// MonthlyRate converts an annual percentage into the monthly rate that
// compounds to it over twelve periods.
func MonthlyRate(annualPercent decimal.Decimal) decimal.Decimal {
	if annualPercent.IsZero() {
		return decimal.Zero
	}
	a, _ := annualPercent.Div(hundred).Float64()
	return decimal.NewFromFloat(math.Pow(1+a, 1.0/12) - 1)
}

type diagnostics struct {
	items []domain.Diagnostic
	seen  map[string]bool
}

func (d *diagnostics) add(level domain.DiagnosticLevel, year int, code, msg string) {
	d.items = append(d.items, domain.Diagnostic{Level: level, Code: code, Message: msg, Year: year})
}

func (d *diagnostics) warnOnce(year int, code, msg string) {
	key := fmt.Sprintf("%d/%s/%s", year, code, msg)
	if d.seen[key] {
		return
	}
	d.seen[key] = true
	d.add(domain.LevelWarning, year, code, msg)
}

// normalize fills derived defaults without touching the caller's inputs
func normalize(inputs domain.ContractInputs) domain.ContractInputs {
	out := inputs.DeepCopy()
	if out.TaxCreditLimit.Default.IsZero() {
		out.TaxCreditLimit.Default = out.TaxCredit.AnnualCap
	}
	if out.Redemption.Base == "" {
		out.Redemption.Base = domain.RedemptionTotalAccount
	}
	return out
}

// Simulate runs one contract through its whole lifetime and returns the
// yearly breakdown. Invalid inputs yield a *domain.ValidationError.
func (ce *CalculationEngine) Simulate(ctx context.Context, inputs domain.ContractInputs) (*domain.ResultsDaily, error) {
	if err := ValidateInputs(inputs); err != nil {
		return nil, err
	}
	in := normalize(inputs)

	years := in.Duration.Years()
	months := in.Duration.Months()
	plan := PlanFor(in)

	diag := &diagnostics{seen: make(map[string]bool)}
	diag.items = append(diag.items, outOfRangeYears(in, years)...)

	redemptionBase := EffectiveRedemptionBase(in)
	if in.Redemption.Base != redemptionBase {
		diag.add(domain.LevelWarning, 0, "REDEMPTION_BASE_FORCED",
			"surplus-only redemption requires an open account split; using total-account")
	}

	rates := &rateCache{main: MonthlyRate(in.AnnualYieldPercent)}
	if in.TaxCredit.YieldPercent != nil {
		rates.taxBonus = MonthlyRate(*in.TaxCredit.YieldPercent)
	}

	ce.Logger.Debugf("simulating %d years (%d periods) in %s", years, months, in.Currency)

	l := newLedger()
	results := &domain.ResultsDaily{
		Currency:       in.Currency,
		Years:          years,
		Plan:           plan,
		RedemptionBase: redemptionBase,
		Rows:           make([]domain.YearlyBreakdownRow, 0, years),
	}
	cum := cumulative{costs: domain.CostMap{}}

	p := &Period{
		Years:     years,
		Inputs:    &in,
		Plan:      &plan,
		SplitOpen: in.AccountSplitOpen,
		ledger:    l,
		rates:     rates,
		diag:      diag,
		sequencer: sequencing.CreateStrategy(in.WithdrawalSequencing),
	}

	for period := 1; period <= months; period++ {
		year := (period-1)/12 + 1
		month := (period-1)%12 + 1

		if month == 1 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			p.Rules = ResolveYear(in, year)
			l.flows = newYearFlows()
		}
		p.Year = year
		p.Month = month
		p.YearEnd = month == 12 || period == months

		for _, step := range ce.Pipeline {
			step.Apply(p)
		}

		if p.YearEnd {
			row := closeYear(p, &cum, redemptionBase)
			results.Rows = append(results.Rows, row)
			if ce.Debug {
				ce.Logger.Debugf("year %d: balance=%s surrender=%s costs=%s",
					year, row.EndBalance.StringFixed(2), row.SurrenderValue.StringFixed(2), row.CostTotal.StringFixed(2))
			}
		}
	}

	results.Totals = totalsFrom(results.Rows, cum)
	results.BreakEvenYear = breakEvenYear(results.Rows)
	if in.ReturnTaxPercent != nil {
		results.NetOfTax = netOfTax(results.Rows, *in.ReturnTaxPercent)
	}
	results.Diagnostics = diag.items

	for _, d := range results.Diagnostics {
		ce.Logger.Warnf("year %d: %s: %s", d.Year, d.Code, d.Message)
	}
	if ce.Strict {
		var codes []string
		for _, d := range results.Diagnostics {
			if d.Level != domain.LevelInfo {
				codes = append(codes, d.Code)
			}
		}
		if len(codes) > 0 {
			return results, fmt.Errorf("%w: %s", ErrDegenerateInput, strings.Join(codes, ", "))
		}
	}

	return results, nil
}

type cumulative struct {
	contributions decimal.Decimal
	withdrawals   decimal.Decimal
	yield         decimal.Decimal
	bonus         decimal.Decimal
	taxCredit     decimal.Decimal
	costs         domain.CostMap
}

// closeYear aggregates the year's flows into a breakdown row and prices the
// surrender value at the year's close.
func closeYear(p *Period, cum *cumulative, base domain.RedemptionBase) domain.YearlyBreakdownRow {
	f := p.ledger.flows
	acc := p.ledger.accounts

	cum.contributions = cum.contributions.Add(f.Contributions)
	cum.withdrawals = cum.withdrawals.Add(f.Withdrawals)
	cum.yield = cum.yield.Add(f.Yield)
	cum.bonus = cum.bonus.Add(f.Bonus)
	cum.taxCredit = cum.taxCredit.Add(f.TaxCredit)
	for k, v := range f.Costs {
		cum.costs.Add(k, v)
	}

	row := domain.YearlyBreakdownRow{
		Year:                    p.Year,
		Contributions:           f.Contributions,
		CumulativeContributions: cum.contributions,
		Costs:                   f.Costs.Clone(),
		CostTotal:               f.Costs.Total(),
		CumulativeCosts:         cum.costs.Clone(),
		Yield:                   f.Yield,
		Bonus:                   f.Bonus,
		TaxCredit:               f.TaxCredit,
		Withdrawals:             f.Withdrawals,
		CumulativeWithdrawals:   cum.withdrawals,
		ClientBalance:           acc.Client,
		InvestedBalance:         acc.Invested,
		TaxBonusBalance:         acc.TaxBonus,
		EndBalance:              acc.Total(),
	}

	if p.Inputs.Redemption.Enabled {
		row.RedemptionFeePercent = p.Rules.RedemptionFee
		feeBase := acc.Total()
		if base == domain.RedemptionSurplusOnly {
			feeBase = acc.Invested
		}
		row.RedemptionFee = feeBase.Mul(pct(row.RedemptionFeePercent))
	}

	tc := p.Inputs.TaxCredit
	if tc.ClawbackApplies(p.Year, p.Years) {
		row.TaxCreditClawback = p.ledger.unexpiredTaxCredits(p.Year, tc.LockYears).Mul(pct(tc.RepaymentPercent))
	}

	row.SurrenderValue = decimal.Max(row.EndBalance.Sub(row.RedemptionFee).Sub(row.TaxCreditClawback), decimal.Zero)
	row.NetReturn = row.EndBalance.Sub(row.CumulativeContributions).Add(row.CumulativeWithdrawals)
	return row
}

func totalsFrom(rows []domain.YearlyBreakdownRow, cum cumulative) domain.Totals {
	t := domain.Totals{
		Contributions: cum.contributions,
		Yield:         cum.yield,
		Costs:         cum.costs.Clone(),
		CostTotal:     cum.costs.Total(),
		Bonus:         cum.bonus,
		TaxCredit:     cum.taxCredit,
		Withdrawals:   cum.withdrawals,
	}
	if len(rows) > 0 {
		last := rows[len(rows)-1]
		t.EndBalance = last.EndBalance
		t.Surrender = last.SurrenderValue
		t.Return = last.NetReturn
	}
	return t
}

// breakEvenYear is the first year whose surrender value covers the net
// amount paid in
func breakEvenYear(rows []domain.YearlyBreakdownRow) int {
	for _, r := range rows {
		paidIn := r.CumulativeContributions.Sub(r.CumulativeWithdrawals)
		if paidIn.IsPositive() && r.SurrenderValue.GreaterThanOrEqual(paidIn) {
			return r.Year
		}
	}
	return 0
}

func netOfTax(rows []domain.YearlyBreakdownRow, taxPercent decimal.Decimal) *domain.NetOfTax {
	if len(rows) == 0 {
		return nil
	}
	last := rows[len(rows)-1]
	gain := last.SurrenderValue.Add(last.CumulativeWithdrawals).Sub(last.CumulativeContributions)
	taxable := decimal.Max(gain, decimal.Zero)
	tax := taxable.Mul(pct(taxPercent))
	return &domain.NetOfTax{
		TaxPercent:  taxPercent,
		TaxableGain: taxable,
		Tax:         tax,
		NetPayout:   last.SurrenderValue.Sub(tax),
	}
}
