package calculation

import (
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/shopspring/decimal"
)

// RuleCategory identifies one year-indexed rule table of a contract
type RuleCategory string

const (
	RuleIndex              RuleCategory = "index"
	RuleInitialCost        RuleCategory = "initialCost"
	RuleAdminFee           RuleCategory = "adminFee"
	RuleAccountMaintenance RuleCategory = "accountMaintenance"
	RuleAssetCost          RuleCategory = "assetCost"
	RuleManagementFee      RuleCategory = "managementFee"
	RuleRiskFee            RuleCategory = "riskFee"
	RulePlusCost           RuleCategory = "plusCost"
	RuleRedemptionFee      RuleCategory = "redemptionFee"
	RuleInvestedShare      RuleCategory = "investedShare"
	RuleSurplusSplit       RuleCategory = "surplusSplit"
	RuleBonusAmount        RuleCategory = "bonusAmount"
	RuleBonusPercent       RuleCategory = "bonusPercent"
	RuleTaxCreditAmount    RuleCategory = "taxCreditAmount"
	RuleTaxCreditLimit     RuleCategory = "taxCreditLimit"
)

// AllRuleCategories lists the built-in categories in a stable order
var AllRuleCategories = []RuleCategory{
	RuleIndex,
	RuleInitialCost,
	RuleAdminFee,
	RuleAccountMaintenance,
	RuleAssetCost,
	RuleManagementFee,
	RuleRiskFee,
	RulePlusCost,
	RuleRedemptionFee,
	RuleInvestedShare,
	RuleSurplusSplit,
	RuleBonusAmount,
	RuleBonusPercent,
	RuleTaxCreditAmount,
	RuleTaxCreditLimit,
}

// RuleTable returns the table of a built-in category
func RuleTable(inputs domain.ContractInputs, category RuleCategory) (domain.YearTable, bool) {
	switch category {
	case RuleIndex:
		return inputs.Index, true
	case RuleInitialCost:
		return inputs.InitialCost, true
	case RuleAdminFee:
		return inputs.AdminFee, true
	case RuleAccountMaintenance:
		return inputs.AccountMaintenance, true
	case RuleAssetCost:
		return inputs.AssetCost, true
	case RuleManagementFee:
		return inputs.ManagementFee, true
	case RuleRiskFee:
		return inputs.RiskFee, true
	case RulePlusCost:
		return inputs.PlusCost, true
	case RuleRedemptionFee:
		return inputs.RedemptionFee, true
	case RuleInvestedShare:
		return inputs.InvestedShare, true
	case RuleSurplusSplit:
		return inputs.SurplusSplit, true
	case RuleBonusAmount:
		return inputs.BonusAmount, true
	case RuleBonusPercent:
		return inputs.BonusPercent, true
	case RuleTaxCreditAmount:
		return inputs.TaxCreditAmount, true
	case RuleTaxCreditLimit:
		return inputs.TaxCreditLimit, true
	}
	return domain.YearTable{}, false
}

// Resolve applies the fallback law to a built-in category
func Resolve(inputs domain.ContractInputs, category RuleCategory, year int) decimal.Decimal {
	table, _ := RuleTable(inputs, category)
	return table.Resolve(year)
}

// ResolvedYear is every rule category resolved for one contract year
type ResolvedYear struct {
	Year int

	Index              decimal.Decimal
	InitialCost        decimal.Decimal
	AdminFee           decimal.Decimal
	AccountMaintenance decimal.Decimal
	AssetCost          decimal.Decimal
	ManagementFee      decimal.Decimal
	RiskFee            decimal.Decimal
	PlusCost           decimal.Decimal
	RedemptionFee      decimal.Decimal
	InvestedShare      decimal.Decimal
	SurplusSplit       decimal.Decimal
	BonusAmount        decimal.Decimal
	BonusPercent       decimal.Decimal
	TaxCreditLimit     decimal.Decimal

	// TaxCreditOverride is set when the amount table resolves to a value:
	// an explicit year entry or a non-zero default
	TaxCreditOverride *decimal.Decimal

	// Derived complements
	ExtraFeePercent    decimal.Decimal
	ClientValuePercent decimal.Decimal
}

// ResolveYear resolves every category for year. Complements are always
// derived from their partner so each pair totals exactly 100.
func ResolveYear(inputs domain.ContractInputs, year int) ResolvedYear {
	ry := ResolvedYear{
		Year:               year,
		Index:              inputs.Index.Resolve(year),
		InitialCost:        inputs.InitialCost.Resolve(year),
		AdminFee:           inputs.AdminFee.Resolve(year),
		AccountMaintenance: inputs.AccountMaintenance.Resolve(year),
		AssetCost:          inputs.AssetCost.Resolve(year),
		ManagementFee:      inputs.ManagementFee.Resolve(year),
		RiskFee:            inputs.RiskFee.Resolve(year),
		PlusCost:           inputs.PlusCost.Resolve(year),
		RedemptionFee:      inputs.RedemptionFee.Resolve(year),
		InvestedShare:      inputs.InvestedShare.Resolve(year),
		SurplusSplit:       inputs.SurplusSplit.Resolve(year),
		BonusAmount:        inputs.BonusAmount.Resolve(year),
		BonusPercent:       inputs.BonusPercent.Resolve(year),
		TaxCreditLimit:     inputs.TaxCreditLimit.Resolve(year),
	}
	if _, ok := inputs.TaxCreditAmount.Lookup(year); ok || !inputs.TaxCreditAmount.Default.IsZero() {
		v := inputs.TaxCreditAmount.Resolve(year)
		ry.TaxCreditOverride = &v
	}
	ry.ExtraFeePercent = hundred.Sub(ry.InvestedShare)
	ry.ClientValuePercent = hundred.Sub(ry.SurplusSplit)
	return ry
}

// EffectiveRedemptionBase returns the redemption base the engine uses.
// Surplus-only is only meaningful with an open account split; otherwise the
// whole account is the base regardless of the stored preference.
func EffectiveRedemptionBase(inputs domain.ContractInputs) domain.RedemptionBase {
	if inputs.Redemption.Base == domain.RedemptionSurplusOnly && inputs.AccountSplitOpen {
		return domain.RedemptionSurplusOnly
	}
	return domain.RedemptionTotalAccount
}
