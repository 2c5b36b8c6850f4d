package calculation

import (
	"context"
	"errors"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCalculationEngine(t *testing.T) {
	engine := NewCalculationEngine()

	assert.NotNil(t, engine, "Should create engine")
	assert.NotNil(t, engine.Logger, "Should initialize logger")
	assert.Len(t, engine.Pipeline, 10, "Should install the default pipeline")
}

func TestCalculationEngine_SetLogger(t *testing.T) {
	engine := NewCalculationEngine()

	customLogger := &TestLogger{}
	engine.SetLogger(customLogger)
	assert.Equal(t, customLogger, engine.Logger, "Should set custom logger")

	engine.SetLogger(nil)
	assert.NotNil(t, engine.Logger, "Should not be nil")
	assert.IsType(t, NopLogger{}, engine.Logger, "Should be no-op logger")
}

func TestDefaultPipeline_Order(t *testing.T) {
	names := make([]string, 0)
	for _, s := range DefaultPipeline() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"contribution",
		"initial-cost",
		"admin-fee",
		"allocation",
		"risk-fee",
		"plus-and-management",
		"maintenance-and-asset",
		"yield",
		"bonus-and-tax-credit",
		"withdrawal",
	}, names)
}

// annualContract is a fee-free annual-payment contract
func annualContract(years int, payment, yield float64) domain.ContractInputs {
	in := domain.NewContractInputs()
	in.Duration = domain.Duration{Value: years, Unit: domain.DurationYear}
	in.BasePayment = d(payment)
	in.AnnualYieldPercent = d(yield)
	return in
}

func simulate(t *testing.T, in domain.ContractInputs) *domain.ResultsDaily {
	t.Helper()
	res, err := NewCalculationEngine().Simulate(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestSimulate_TenYearNoFeeScenario(t *testing.T) {
	res := simulate(t, annualContract(10, 1200000, 5))

	require.Len(t, res.Rows, 10)
	last, ok := res.FinalRow()
	require.True(t, ok)
	assert.True(t, last.CumulativeContributions.Equal(d(12000000)), "got %s", last.CumulativeContributions)
	assert.True(t, res.Totals.Contributions.Equal(d(12000000)))
	assert.True(t, res.Totals.CostTotal.IsZero())

	first := res.Rows[0]
	assert.True(t, first.EndBalance.GreaterThan(first.CumulativeContributions))
	endYear1, _ := first.EndBalance.Float64()
	assert.InDelta(t, 1260000, endYear1, 0.5, "a full year at 5%% compounds to 5%%")

	for _, row := range res.Rows {
		assert.True(t, row.SurrenderValue.Equal(row.EndBalance), "no redemption fee, year %d", row.Year)
	}
}

func TestSimulate_PostaRedemptionSchedule(t *testing.T) {
	in := annualContract(15, 600000, 4)
	in.RedemptionFee = domain.YearTable{ByYear: map[int]decimal.Decimal{
		1: d(60), 2: d(50), 3: d(40), 4: d(30), 5: d(20),
		6: d(10), 7: d(5), 8: d(3), 9: d(2), 10: d(1),
	}}
	res := simulate(t, in)

	year1 := res.Rows[0]
	assert.True(t, year1.SurrenderValue.Equal(year1.EndBalance.Mul(d(0.4))),
		"surrender %s, balance %s", year1.SurrenderValue, year1.EndBalance)

	for _, row := range res.Rows {
		if row.Year <= 10 {
			assert.True(t, row.SurrenderValue.LessThan(row.EndBalance), "year %d", row.Year)
			continue
		}
		assert.True(t, row.SurrenderValue.Equal(row.EndBalance), "year %d", row.Year)
		assert.True(t, row.RedemptionFee.IsZero())
	}
}

func TestSimulate_RedemptionDisabled(t *testing.T) {
	in := annualContract(3, 100000, 0)
	in.RedemptionFee = domain.Flat(d(50))
	in.Redemption.Enabled = false
	res := simulate(t, in)

	for _, row := range res.Rows {
		assert.True(t, row.SurrenderValue.Equal(row.EndBalance))
	}
}

func TestSimulate_MonotonicWithoutWithdrawals(t *testing.T) {
	in := annualContract(25, 300000, 3)
	in.Frequency = domain.FrequencyMonthly
	in.Index = domain.Flat(d(2))
	res := simulate(t, in)

	prev := decimal.Zero
	for _, row := range res.Rows {
		assert.True(t, row.EndBalance.GreaterThanOrEqual(prev), "year %d", row.Year)
		prev = row.EndBalance
	}
}

// richContract exercises every pipeline step at once
func richContract() domain.ContractInputs {
	in := domain.NewContractInputs()
	in.Duration = domain.Duration{Value: 12, Unit: domain.DurationYear}
	in.Frequency = domain.FrequencyMonthly
	in.BasePayment = d(1200000)
	in.Index = domain.Flat(d(3))
	in.AnnualYieldPercent = d(6)
	in.InitialCost = domain.YearTable{ByYear: map[int]decimal.Decimal{1: d(40), 2: d(20)}}
	in.AdminFee = domain.Flat(d(300))
	in.AccountMaintenance = domain.Flat(d(0.05))
	in.AssetCost = domain.Flat(d(1.5))
	in.ManagementFee = domain.Flat(d(2000))
	in.Management = domain.ManagementFeeConfig{Mode: domain.ValueAmount, Base: domain.FeeBaseAsset, Frequency: domain.FrequencyQuarterly}
	in.RiskFee = domain.Flat(d(12000))
	in.Risk = domain.RiskFeeConfig{Mode: domain.ValueAmount, IndexPercent: d(5), StartYear: 2, EndYear: 8}
	in.PlusCost = domain.YearTable{ByYear: map[int]decimal.Decimal{4: d(15000)}}
	in.InvestedShare = domain.YearTable{Default: d(100), ByYear: map[int]decimal.Decimal{1: d(90)}}
	in.AccountSplitOpen = true
	in.SurplusSplit = domain.Flat(d(25))
	in.BonusPercent = domain.YearTable{ByYear: map[int]decimal.Decimal{10: d(5)}}
	in.BonusAmount = domain.YearTable{ByYear: map[int]decimal.Decimal{12: d(50000)}}
	in.SeparatedExtraAccounts = true
	in.TaxCredit = domain.TaxCreditConfig{RatePercent: d(20), AnnualCap: d(130000), RepaymentPercent: d(120), LockYears: 5}
	y := d(2)
	in.TaxCredit.YieldPercent = &y
	in.AllowWithdrawals = true
	in.WithdrawalByYear = map[int]decimal.Decimal{6: d(500000)}
	in.MinimumBalance = d(100000)
	in.PartialSurrenderFee = d(2500)
	in.RedemptionFee = domain.YearTable{Default: d(0), ByYear: map[int]decimal.Decimal{1: d(30), 2: d(20), 3: d(10)}}
	in.CustomRules = []domain.CustomRule{
		{Name: "platform", Kind: domain.RuleCost, ValueType: domain.ValuePercent, Base: domain.FeeBaseAsset,
			Frequency: domain.FrequencyMonthly, StartYear: 1, Value: domain.Flat(d(0.3))},
		{Name: "loyalty", Kind: domain.RuleBonus, ValueType: domain.ValueAmount, Target: domain.AccountInvested,
			Frequency: domain.FrequencyAnnual, StartYear: 5, StopYear: 7, Value: domain.Flat(d(10000))},
	}
	return in
}

func TestSimulate_BalanceLawHoldsEveryYear(t *testing.T) {
	res := simulate(t, richContract())

	prev := decimal.Zero
	for _, row := range res.Rows {
		expected := prev.
			Add(row.Contributions).
			Sub(row.CostTotal).
			Add(row.Yield).
			Add(row.Bonus).
			Add(row.TaxCredit).
			Sub(row.Withdrawals)
		assert.True(t, expected.Equal(row.EndBalance),
			"year %d: expected %s, got %s", row.Year, expected, row.EndBalance)
		assert.True(t, row.CostTotal.Equal(row.Costs.Total()))
		assert.False(t, row.ClientBalance.IsNegative())
		assert.False(t, row.InvestedBalance.IsNegative())
		assert.False(t, row.TaxBonusBalance.IsNegative())
		prev = row.EndBalance
	}
}

func TestSimulate_SurrenderNeverExceedsBalance(t *testing.T) {
	in := richContract()
	in.TaxCredit.RepaymentPercent = decimal.Zero
	res := simulate(t, in)

	for _, row := range res.Rows {
		if row.RedemptionFeePercent.IsPositive() {
			assert.True(t, row.SurrenderValue.LessThanOrEqual(row.EndBalance), "year %d", row.Year)
		} else {
			assert.True(t, row.SurrenderValue.Equal(row.EndBalance), "year %d", row.Year)
		}
	}
}

func TestSimulate_Idempotent(t *testing.T) {
	engine := NewCalculationEngine()
	first, err := engine.Simulate(context.Background(), richContract())
	require.NoError(t, err)
	second, err := engine.Simulate(context.Background(), richContract())
	require.NoError(t, err)

	a, err := json.Marshal(first.Rows)
	require.NoError(t, err)
	b, err := json.Marshal(second.Rows)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestSimulate_DoesNotMutateInputs(t *testing.T) {
	in := richContract()
	before, err := json.Marshal(in)
	require.NoError(t, err)

	simulate(t, in)

	after, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestSimulate_ContributionCosts(t *testing.T) {
	in := annualContract(2, 1200000, 0)
	in.Frequency = domain.FrequencyMonthly
	in.InitialCost = domain.YearTable{ByYear: map[int]decimal.Decimal{1: d(50)}}
	in.AdminFee = domain.Flat(d(1000))
	res := simulate(t, in)

	y1 := res.Rows[0]
	assert.True(t, y1.Costs[domain.CostInitial].Equal(d(600000)), "got %s", y1.Costs[domain.CostInitial])
	assert.True(t, y1.Costs[domain.CostAdmin].Equal(d(12000)))
	assert.True(t, y1.EndBalance.Equal(d(588000)), "got %s", y1.EndBalance)

	y2 := res.Rows[1]
	assert.True(t, y2.Costs[domain.CostInitial].IsZero(), "year 2 falls back to the zero default")
	assert.True(t, y2.EndBalance.Equal(d(588000+1200000-12000)))
}

func TestSimulate_AdminFeeAsPercent(t *testing.T) {
	in := annualContract(1, 1000000, 0)
	in.AdminFeeMode = domain.ValuePercent
	in.AdminFee = domain.Flat(d(2))
	res := simulate(t, in)

	assert.True(t, res.Rows[0].Costs[domain.CostAdmin].Equal(d(20000)))
}

func TestSimulate_AccountSplitAllocation(t *testing.T) {
	in := annualContract(2, 1000000, 0)
	in.AccountSplitOpen = true
	in.InvestedShare = domain.Flat(d(90))
	in.SurplusSplit = domain.Flat(d(30))
	in.RedemptionFee = domain.Flat(d(10))
	in.Redemption.Base = domain.RedemptionSurplusOnly
	res := simulate(t, in)

	y1 := res.Rows[0]
	assert.True(t, y1.Costs[domain.CostExtraFee].Equal(d(100000)))
	assert.True(t, y1.InvestedBalance.Equal(d(270000)), "got %s", y1.InvestedBalance)
	assert.True(t, y1.ClientBalance.Equal(d(630000)), "got %s", y1.ClientBalance)
	assert.True(t, y1.RedemptionFee.Equal(d(27000)), "fee is charged on the invested account only")
	assert.True(t, y1.SurrenderValue.Equal(d(873000)))
	assert.Equal(t, domain.RedemptionSurplusOnly, res.RedemptionBase)
}

func TestSimulate_SurplusOnlyForcedWhenSplitClosed(t *testing.T) {
	in := annualContract(2, 1000000, 0)
	in.SurplusSplit = domain.Flat(d(30))
	in.RedemptionFee = domain.Flat(d(10))
	in.Redemption.Base = domain.RedemptionSurplusOnly
	res := simulate(t, in)

	assert.Equal(t, domain.RedemptionTotalAccount, res.RedemptionBase)
	y1 := res.Rows[0]
	assert.True(t, y1.InvestedBalance.IsZero(), "no invested account without a split")
	assert.True(t, y1.RedemptionFee.Equal(d(100000)))
	assert.True(t, hasDiagnostic(res, "REDEMPTION_BASE_FORCED"))
}

func TestSimulate_AssetCostCompoundsMonthly(t *testing.T) {
	in := annualContract(1, 1200000, 0)
	in.AssetCost = domain.Flat(d(1.2))
	res := simulate(t, in)

	expected := d(1200000).Mul(d(0.999).Pow(decimal.NewFromInt(12)))
	assert.True(t, expected.Round(6).Equal(res.Rows[0].EndBalance.Round(6)),
		"expected %s, got %s", expected, res.Rows[0].EndBalance)
}

func TestSimulate_RiskFeeWindowAndIndex(t *testing.T) {
	in := annualContract(4, 1200000, 0)
	in.RiskFee = domain.Flat(d(12000))
	in.Risk = domain.RiskFeeConfig{Mode: domain.ValueAmount, IndexPercent: d(10), StartYear: 2, EndYear: 3}
	res := simulate(t, in)

	assert.True(t, res.Rows[0].Costs[domain.CostRisk].IsZero())
	assert.True(t, res.Rows[1].Costs[domain.CostRisk].Equal(d(12000)), "got %s", res.Rows[1].Costs[domain.CostRisk])
	assert.True(t, res.Rows[2].Costs[domain.CostRisk].Equal(d(13200)), "got %s", res.Rows[2].Costs[domain.CostRisk])
	assert.True(t, res.Rows[3].Costs[domain.CostRisk].IsZero())
}

func TestSimulate_ManagementAndPlusCost(t *testing.T) {
	in := annualContract(2, 1200000, 0)
	in.ManagementFee = domain.Flat(d(500))
	in.Management = domain.ManagementFeeConfig{Mode: domain.ValueAmount, Base: domain.FeeBaseAsset, Frequency: domain.FrequencyQuarterly}
	in.PlusCost = domain.YearTable{ByYear: map[int]decimal.Decimal{2: d(7000)}}
	res := simulate(t, in)

	assert.True(t, res.Rows[0].Costs[domain.CostManagement].Equal(d(2000)))
	assert.True(t, res.Rows[0].Costs[domain.CostPlus].IsZero())
	assert.True(t, res.Rows[1].Costs[domain.CostPlus].Equal(d(7000)))
}

func TestSimulate_BonusPercentOfPayments(t *testing.T) {
	in := annualContract(6, 1200000, 0)
	in.BonusPercent = domain.YearTable{ByYear: map[int]decimal.Decimal{5: d(10)}}
	res := simulate(t, in)

	assert.True(t, res.Rows[4].Bonus.Equal(d(120000)))
	assert.True(t, res.Rows[5].Bonus.IsZero())
	assert.True(t, res.Totals.Bonus.Equal(d(120000)))
}

func TestSimulate_TaxCreditCapAndClawback(t *testing.T) {
	in := annualContract(10, 1200000, 0)
	in.SeparatedExtraAccounts = true
	in.TaxCredit = domain.TaxCreditConfig{RatePercent: d(20), AnnualCap: d(130000), RepaymentPercent: d(120)}
	res := simulate(t, in)

	y1 := res.Rows[0]
	assert.True(t, y1.TaxCredit.Equal(d(130000)), "capped credit, got %s", y1.TaxCredit)
	assert.True(t, y1.TaxBonusBalance.Equal(d(130000)))
	assert.True(t, y1.TaxCreditClawback.Equal(d(156000)), "got %s", y1.TaxCreditClawback)
	assert.True(t, y1.SurrenderValue.Equal(y1.EndBalance.Sub(d(156000))))

	last, _ := res.FinalRow()
	assert.True(t, last.TaxCreditClawback.IsZero(), "no clawback at maturity")
	assert.True(t, last.SurrenderValue.Equal(last.EndBalance))
	assert.True(t, res.Totals.TaxCredit.Equal(d(1300000)))
}

func TestSimulate_TaxCreditLimitTableAndWindow(t *testing.T) {
	in := annualContract(5, 1000000, 0)
	in.TaxCredit = domain.TaxCreditConfig{RatePercent: d(20), AnnualCap: d(130000), StartYear: 2, EndYear: 4}
	in.TaxCreditLimit = domain.YearTable{ByYear: map[int]decimal.Decimal{3: d(50000)}}
	in.TaxCreditAmount = domain.YearTable{ByYear: map[int]decimal.Decimal{4: d(1000)}}
	res := simulate(t, in)

	assert.True(t, res.Rows[0].TaxCredit.IsZero(), "before the window")
	assert.True(t, res.Rows[1].TaxCredit.Equal(d(130000)), "annual cap seeds the limit default")
	assert.True(t, res.Rows[2].TaxCredit.Equal(d(50000)))
	assert.True(t, res.Rows[3].TaxCredit.Equal(d(1000)), "explicit amount wins")
	assert.True(t, res.Rows[4].TaxCredit.IsZero(), "after the window")
	assert.True(t, res.Rows[1].ClientBalance.Equal(res.Rows[1].EndBalance), "credited to the client account")
}

func TestSimulate_TaxCreditAmountDefault(t *testing.T) {
	in := annualContract(3, 1000000, 0)
	in.TaxCreditAmount = domain.Flat(d(50000))
	res := simulate(t, in)

	for _, row := range res.Rows {
		assert.True(t, row.TaxCredit.Equal(d(50000)), "year %d got %s", row.Year, row.TaxCredit)
	}
	assert.True(t, res.Totals.TaxCredit.Equal(d(150000)))

	in.TaxCredit = domain.TaxCreditConfig{RatePercent: d(20)}
	in.TaxCreditAmount = domain.YearTable{Default: d(50000), ByYear: map[int]decimal.Decimal{3: d(0)}}
	res = simulate(t, in)
	assert.True(t, res.Rows[1].TaxCredit.Equal(d(50000)), "the amount default wins over the rate, got %s", res.Rows[1].TaxCredit)
	assert.True(t, res.Rows[2].TaxCredit.IsZero(), "explicit zero year")
}

func TestSimulate_TaxCreditLockExpiry(t *testing.T) {
	in := annualContract(10, 1000000, 0)
	in.TaxCredit = domain.TaxCreditConfig{RatePercent: d(10), RepaymentPercent: d(100), LockYears: 2}
	res := simulate(t, in)

	// credits of the current and the previous year are still repayable
	assert.True(t, res.Rows[0].TaxCreditClawback.Equal(d(100000)))
	assert.True(t, res.Rows[4].TaxCreditClawback.Equal(d(200000)))
}

func TestSimulate_WithdrawalClampedToMinimumBalance(t *testing.T) {
	in := annualContract(3, 1000000, 0)
	in.AllowWithdrawals = true
	in.MinimumBalance = d(100000)
	in.WithdrawalByYear = map[int]decimal.Decimal{2: d(5000000)}
	res := simulate(t, in)

	y2 := res.Rows[1]
	assert.True(t, y2.Withdrawals.Equal(d(1900000)), "got %s", y2.Withdrawals)
	assert.True(t, y2.EndBalance.Equal(d(100000)))
	assert.True(t, hasDiagnostic(res, "WITHDRAWAL_CLAMPED"))
}

func TestSimulate_PartialSurrenderFee(t *testing.T) {
	in := annualContract(2, 1000000, 0)
	in.AllowWithdrawals = true
	in.PartialSurrenderFee = d(5000)
	in.WithdrawalByYear = map[int]decimal.Decimal{1: d(200000)}
	res := simulate(t, in)

	y1 := res.Rows[0]
	assert.True(t, y1.Withdrawals.Equal(d(200000)))
	assert.True(t, y1.Costs[domain.CostPartialSurrender].Equal(d(5000)))
	assert.True(t, y1.EndBalance.Equal(d(795000)))
}

func TestSimulate_WithdrawalIgnoredWhenDisabled(t *testing.T) {
	in := annualContract(3, 1000000, 0)
	in.WithdrawalByYear = map[int]decimal.Decimal{2: d(500000)}
	res := simulate(t, in)

	assert.True(t, res.Rows[1].Withdrawals.IsZero())
	assert.True(t, res.Rows[1].EndBalance.Equal(d(2000000)))
	assert.True(t, hasDiagnostic(res, "WITHDRAWAL_DISABLED"))
}

func TestSimulate_WithdrawalSequencing(t *testing.T) {
	base := func() domain.ContractInputs {
		in := annualContract(2, 1000000, 0)
		in.AccountSplitOpen = true
		in.InvestedShare = domain.Flat(d(90))
		in.SurplusSplit = domain.Flat(d(30))
		in.AllowWithdrawals = true
		in.WithdrawalByYear = map[int]decimal.Decimal{1: d(300000)}
		return in
	}

	standard := simulate(t, base()).Rows[0]
	assert.True(t, standard.InvestedBalance.IsZero(), "got %s", standard.InvestedBalance)
	assert.True(t, standard.ClientBalance.Equal(d(600000)), "got %s", standard.ClientBalance)

	in := base()
	in.WithdrawalSequencing = &domain.WithdrawalSequencingConfig{Strategy: "client_first"}
	clientFirst := simulate(t, in).Rows[0]
	assert.True(t, clientFirst.ClientBalance.Equal(d(330000)), "got %s", clientFirst.ClientBalance)
	assert.True(t, clientFirst.InvestedBalance.Equal(d(270000)))
	assert.True(t, clientFirst.Withdrawals.Equal(standard.Withdrawals))
	assert.True(t, clientFirst.EndBalance.Equal(standard.EndBalance))
}

func TestSimulate_UnknownWithdrawalStrategyRejected(t *testing.T) {
	in := annualContract(2, 1000000, 0)
	in.WithdrawalSequencing = &domain.WithdrawalSequencingConfig{Strategy: "tax_efficient"}

	_, err := NewCalculationEngine().Simulate(context.Background(), in)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.Has("withdrawalSequencing"))
}

func TestSimulate_CustomRulesBehaveLikeBuiltIns(t *testing.T) {
	in := annualContract(4, 1200000, 0)
	in.AccountSplitOpen = true
	in.CustomRules = []domain.CustomRule{
		{Name: "platform", Kind: domain.RuleCost, ValueType: domain.ValuePercent, Base: domain.FeeBasePayment,
			Frequency: domain.FrequencyAnnual, StartYear: 1, StopYear: 1, Value: domain.Flat(d(2))},
		{Name: "loyalty", Kind: domain.RuleBonus, ValueType: domain.ValueAmount, Target: domain.AccountInvested,
			Frequency: domain.FrequencyAnnual, StartYear: 3,
			Value: domain.YearTable{Default: d(5000), ByYear: map[int]decimal.Decimal{4: d(8000)}}},
	}
	res := simulate(t, in)

	assert.True(t, res.Rows[0].Costs["platform"].Equal(d(24000)))
	assert.True(t, res.Rows[1].Costs["platform"].IsZero())
	assert.True(t, res.Rows[1].Bonus.IsZero())
	assert.True(t, res.Rows[2].Bonus.Equal(d(5000)))
	assert.True(t, res.Rows[2].InvestedBalance.Equal(d(5000)), "bonus lands on the invested account")
	assert.True(t, res.Rows[3].Bonus.Equal(d(8000)))
	assert.True(t, res.Rows[3].InvestedBalance.Equal(d(13000)))
}

func TestSimulate_TargetedCustomCostsFollowBonusMapping(t *testing.T) {
	in := annualContract(2, 1000000, 0)
	in.CustomRules = []domain.CustomRule{
		{Name: "fund", Kind: domain.RuleCost, ValueType: domain.ValueAmount, Target: domain.AccountInvested,
			Frequency: domain.FrequencyAnnual, Value: domain.Flat(d(10000))},
		{Name: "loyalty", Kind: domain.RuleBonus, ValueType: domain.ValueAmount, Target: domain.AccountInvested,
			Frequency: domain.FrequencyAnnual, Value: domain.Flat(d(10000))},
	}
	res := simulate(t, in)

	y1 := res.Rows[0]
	assert.True(t, y1.Costs["fund"].Equal(d(10000)), "closed split charges the client account, got %s", y1.Costs["fund"])
	assert.True(t, y1.Bonus.Equal(d(10000)))
	assert.True(t, y1.ClientBalance.Equal(d(1000000)), "got %s", y1.ClientBalance)
	assert.False(t, hasDiagnostic(res, "COST_TRUNCATED"))

	in.SeparatedExtraAccounts = true
	in.CustomRules = []domain.CustomRule{
		{Name: "custody", Kind: domain.RuleCost, ValueType: domain.ValueAmount, Target: domain.AccountTaxBonus,
			Frequency: domain.FrequencyAnnual, Value: domain.Flat(d(10000))},
	}
	res = simulate(t, in)
	assert.True(t, res.Rows[0].Costs["custody"].IsZero(), "the empty tax-bonus account cannot pay")
	assert.True(t, hasDiagnostic(res, "COST_TRUNCATED"), "a short charge is reported")
}

func TestSimulate_PartialFinalYear(t *testing.T) {
	in := annualContract(0, 1200000, 0)
	in.Duration = domain.Duration{Value: 18, Unit: domain.DurationMonth}
	res := simulate(t, in)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, 2, res.Years)
	assert.True(t, res.Totals.Contributions.Equal(d(2400000)))
}

func TestSimulate_BreakEvenAndNetOfTax(t *testing.T) {
	in := annualContract(10, 1000000, 5)
	in.RedemptionFee = domain.YearTable{ByYear: map[int]decimal.Decimal{1: d(50), 2: d(30)}}
	tax := d(15)
	in.ReturnTaxPercent = &tax
	res := simulate(t, in)

	assert.Equal(t, 3, res.BreakEvenYear)
	require.NotNil(t, res.NetOfTax)
	last, _ := res.FinalRow()
	gain := last.SurrenderValue.Sub(last.CumulativeContributions)
	assert.True(t, res.NetOfTax.TaxableGain.Equal(gain))
	assert.True(t, res.NetOfTax.NetPayout.Equal(last.SurrenderValue.Sub(gain.Mul(d(0.15)))))
}

func TestSimulate_InvalidInputsReturnTypedError(t *testing.T) {
	in := annualContract(0, -5, 0)
	in.Frequency = domain.FrequencyDaily
	in.InvestedShare = domain.Flat(d(120))

	res, err := NewCalculationEngine().Simulate(context.Background(), in)
	require.Error(t, err)
	assert.Nil(t, res)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.Has("duration.value"))
	assert.True(t, verr.Has("frequency"))
	assert.True(t, verr.Has("basePayment"))
	assert.True(t, verr.Has("investedShare.default"))
}

func TestSimulate_OutOfRangeTableYearsAreReported(t *testing.T) {
	in := annualContract(5, 1000000, 0)
	in.RedemptionFee = domain.YearTable{ByYear: map[int]decimal.Decimal{1: d(10), 12: d(5)}}

	res := simulate(t, in)
	assert.True(t, hasDiagnostic(res, "TABLE_YEAR_OUT_OF_RANGE"))

	engine := NewCalculationEngine()
	engine.Strict = true
	_, err := engine.Simulate(context.Background(), in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDegenerateInput))
}

func TestSimulate_StrictIgnoresInfoDiagnostics(t *testing.T) {
	engine := NewCalculationEngine()
	engine.Strict = true
	engine.Pipeline = append(engine.Pipeline, Step{Name: "note", Apply: func(p *Period) {
		if p.YearEnd {
			p.diag.add(domain.LevelInfo, p.Year, "NOTE", "informational only")
		}
	}})

	res, err := engine.Simulate(context.Background(), annualContract(2, 1000000, 0))
	require.NoError(t, err)
	assert.True(t, hasDiagnostic(res, "NOTE"))

	engine.Pipeline = append(engine.Pipeline, Step{Name: "problem", Apply: func(p *Period) {
		if p.YearEnd {
			p.diag.add(domain.LevelError, p.Year, "PROBLEM", "fails strict runs")
		}
	}})
	_, err = engine.Simulate(context.Background(), annualContract(2, 1000000, 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDegenerateInput)
	assert.NotContains(t, err.Error(), "NOTE")
}

func TestSimulate_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCalculationEngine().Simulate(ctx, annualContract(5, 1000, 1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulate_LogsDiagnostics(t *testing.T) {
	engine := NewCalculationEngine()
	logger := &TestLogger{}
	engine.SetLogger(logger)

	in := annualContract(3, 1000000, 0)
	in.WithdrawalByYear = map[int]decimal.Decimal{2: d(1)}
	_, err := engine.Simulate(context.Background(), in)
	require.NoError(t, err)

	assert.Contains(t, logger.messages, "WARN: year %d: %s: %s")
}

func TestMonthlyRate(t *testing.T) {
	assert.True(t, MonthlyRate(decimal.Zero).IsZero())

	r, _ := MonthlyRate(d(12)).Float64()
	assert.InDelta(t, 0.009488793, r, 1e-9)
}

func hasDiagnostic(res *domain.ResultsDaily, code string) bool {
	for _, diag := range res.Diagnostics {
		if diag.Code == code {
			return true
		}
	}
	return false
}

// TestLogger is a simple logger for testing
type TestLogger struct {
	messages []string
}

func (tl *TestLogger) Debugf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "DEBUG: "+format)
}

func (tl *TestLogger) Infof(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "INFO: "+format)
}

func (tl *TestLogger) Warnf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "WARN: "+format)
}

func (tl *TestLogger) Errorf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "ERROR: "+format)
}
