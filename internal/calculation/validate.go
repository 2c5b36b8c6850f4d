package calculation

import (
	"fmt"
	"sort"

	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/rgehrsitz/savingsim/internal/sequencing"
	"github.com/shopspring/decimal"
)

var minusHundred = decimal.NewFromInt(-100)

// ValidateInputs checks the structural validity of contract inputs and
// returns a *domain.ValidationError listing every problem found.
func ValidateInputs(inputs domain.ContractInputs) error {
	verr := &domain.ValidationError{}

	if !inputs.Currency.IsValid() {
		verr.Add("currency", "unsupported currency %q", inputs.Currency)
	}
	switch inputs.Duration.Unit {
	case domain.DurationYear, domain.DurationMonth, domain.DurationDay:
	default:
		verr.Add("duration.unit", "unknown unit %q", inputs.Duration.Unit)
	}
	if inputs.Duration.Value <= 0 {
		verr.Add("duration.value", "must be positive, got %d", inputs.Duration.Value)
	}
	if !inputs.Frequency.IsPaymentFrequency() {
		verr.Add("frequency", "%q is not a payment frequency", inputs.Frequency)
	}
	if inputs.AnnualYieldPercent.LessThanOrEqual(minusHundred) {
		verr.Add("annualYieldPercent", "must be greater than -100")
	}
	if inputs.BasePayment.IsNegative() {
		verr.Add("basePayment", "cannot be negative")
	}

	if err := sequencing.ValidateConfig(inputs.WithdrawalSequencing); err != nil {
		verr.Add("withdrawalSequencing", "%v", err)
	}

	checkYearMap(verr, "paymentByYear", inputs.PaymentByYear)
	checkYearMap(verr, "withdrawalByYear", inputs.WithdrawalByYear)
	for y, v := range inputs.Index.ByYear {
		if v.LessThanOrEqual(minusHundred) {
			verr.Add(fmt.Sprintf("index.byYear[%d]", y), "must be greater than -100")
		}
	}
	if inputs.Index.Default.LessThanOrEqual(minusHundred) {
		verr.Add("index.default", "must be greater than -100")
	}

	for _, c := range []RuleCategory{RuleInitialCost, RuleInvestedShare, RuleSurplusSplit, RuleRedemptionFee} {
		table, _ := RuleTable(inputs, c)
		checkPercentTable(verr, string(c), table)
	}
	for _, c := range []RuleCategory{RuleAdminFee, RuleAccountMaintenance, RuleAssetCost, RuleManagementFee,
		RuleRiskFee, RulePlusCost, RuleBonusAmount, RuleBonusPercent, RuleTaxCreditAmount, RuleTaxCreditLimit} {
		table, _ := RuleTable(inputs, c)
		checkNonNegativeTable(verr, string(c), table)
	}

	if inputs.AdminFeeMode != domain.ValueAmount && inputs.AdminFeeMode != domain.ValuePercent {
		verr.Add("adminFeeMode", "unknown mode %q", inputs.AdminFeeMode)
	}
	checkValueType(verr, "management.mode", inputs.Management.Mode)
	checkFeeBase(verr, "management.base", inputs.Management.Base)
	if !inputs.Management.Frequency.IsValid() {
		verr.Add("management.frequency", "unknown frequency %q", inputs.Management.Frequency)
	}
	checkValueType(verr, "risk.mode", inputs.Risk.Mode)
	if inputs.Risk.EndYear > 0 && inputs.Risk.EndYear < inputs.Risk.StartYear {
		verr.Add("risk.endYear", "ends before it starts")
	}
	checkFeeBase(verr, "bonusBase", inputs.BonusBase)

	tc := inputs.TaxCredit
	if tc.RatePercent.IsNegative() {
		verr.Add("taxCredit.ratePercent", "cannot be negative")
	}
	if tc.AnnualCap.IsNegative() {
		verr.Add("taxCredit.annualCap", "cannot be negative")
	}
	if tc.RepaymentPercent.IsNegative() {
		verr.Add("taxCredit.repaymentPercent", "cannot be negative")
	}
	if tc.LockYears < 0 {
		verr.Add("taxCredit.lockYears", "cannot be negative")
	}
	if tc.ClawbackUntilYear < 0 {
		verr.Add("taxCredit.clawbackUntilYear", "cannot be negative")
	}
	if tc.EndYear > 0 && tc.EndYear < tc.StartYear {
		verr.Add("taxCredit.endYear", "ends before it starts")
	}
	if tc.YieldPercent != nil && tc.YieldPercent.LessThanOrEqual(minusHundred) {
		verr.Add("taxCredit.yieldPercent", "must be greater than -100")
	}

	switch inputs.Redemption.Base {
	case domain.RedemptionSurplusOnly, domain.RedemptionTotalAccount, "":
	default:
		verr.Add("redemption.base", "unknown base %q", inputs.Redemption.Base)
	}
	if inputs.MinimumBalance.IsNegative() {
		verr.Add("minimumBalance", "cannot be negative")
	}
	if inputs.PartialSurrenderFee.IsNegative() {
		verr.Add("partialSurrenderFee", "cannot be negative")
	}
	if inputs.ReturnTaxPercent != nil && (inputs.ReturnTaxPercent.IsNegative() || inputs.ReturnTaxPercent.GreaterThan(hundred)) {
		verr.Add("returnTaxPercent", "must be between 0 and 100")
	}

	seen := make(map[string]bool)
	for i, rule := range inputs.CustomRules {
		field := fmt.Sprintf("customRules[%d]", i)
		if rule.Name == "" {
			verr.Add(field+".name", "is required")
		} else if seen[rule.Name] {
			verr.Add(field+".name", "duplicate rule %q", rule.Name)
		}
		seen[rule.Name] = true
		if rule.Kind != domain.RuleCost && rule.Kind != domain.RuleBonus {
			verr.Add(field+".kind", "unknown kind %q", rule.Kind)
		}
		checkValueType(verr, field+".valueType", rule.ValueType)
		if !rule.Frequency.IsValid() {
			verr.Add(field+".frequency", "unknown frequency %q", rule.Frequency)
		}
		if rule.ValueType == domain.ValuePercent {
			checkFeeBase(verr, field+".base", rule.Base)
		}
		switch rule.Target {
		case "", domain.AccountClient, domain.AccountInvested, domain.AccountTaxBonus:
		default:
			verr.Add(field+".target", "unknown account %q", rule.Target)
		}
		if rule.StopYear > 0 && rule.StopYear < rule.StartYear {
			verr.Add(field+".stopYear", "stops before it starts")
		}
		checkNonNegativeTable(verr, field+".value", rule.Value)
	}

	return verr.OrNil()
}

func checkYearMap(verr *domain.ValidationError, field string, m map[int]decimal.Decimal) {
	for y, v := range m {
		if v.IsNegative() {
			verr.Add(fmt.Sprintf("%s[%d]", field, y), "cannot be negative")
		}
	}
}

func checkPercentTable(verr *domain.ValidationError, field string, t domain.YearTable) {
	inRange := func(v decimal.Decimal) bool {
		return !v.IsNegative() && v.LessThanOrEqual(hundred)
	}
	if !inRange(t.Default) {
		verr.Add(field+".default", "must be between 0 and 100")
	}
	for y, v := range t.ByYear {
		if !inRange(v) {
			verr.Add(fmt.Sprintf("%s.byYear[%d]", field, y), "must be between 0 and 100")
		}
	}
}

func checkNonNegativeTable(verr *domain.ValidationError, field string, t domain.YearTable) {
	if t.Default.IsNegative() {
		verr.Add(field+".default", "cannot be negative")
	}
	for y, v := range t.ByYear {
		if v.IsNegative() {
			verr.Add(fmt.Sprintf("%s.byYear[%d]", field, y), "cannot be negative")
		}
	}
}

func checkValueType(verr *domain.ValidationError, field string, vt domain.ValueType) {
	if vt != domain.ValueAmount && vt != domain.ValuePercent {
		verr.Add(field, "unknown value type %q", vt)
	}
}

func checkFeeBase(verr *domain.ValidationError, field string, base domain.FeeBase) {
	if base != domain.FeeBasePayment && base != domain.FeeBaseAsset {
		verr.Add(field, "unknown base %q", base)
	}
}

// outOfRangeYears reports override years that fall outside 1..years. They
// never affect the run; the caller surfaces them as diagnostics.
func outOfRangeYears(inputs domain.ContractInputs, years int) []domain.Diagnostic {
	var out []domain.Diagnostic
	report := func(name string, keys []int) {
		sort.Ints(keys)
		for _, y := range keys {
			if y < 1 || y > years {
				out = append(out, domain.Diagnostic{
					Level:   domain.LevelWarning,
					Code:    "TABLE_YEAR_OUT_OF_RANGE",
					Message: fmt.Sprintf("%s has an entry for year %d outside the contract's %d years", name, y, years),
					Year:    y,
				})
			}
		}
	}
	for _, c := range AllRuleCategories {
		table, _ := RuleTable(inputs, c)
		report(string(c), table.Years())
	}
	report("paymentByYear", mapYears(inputs.PaymentByYear))
	report("withdrawalByYear", mapYears(inputs.WithdrawalByYear))
	for _, rule := range inputs.CustomRules {
		report("customRules."+rule.Name, rule.Value.Years())
	}
	return out
}

func mapYears(m map[int]decimal.Decimal) []int {
	years := make([]int, 0, len(m))
	for y := range m {
		years = append(years, y)
	}
	return years
}
