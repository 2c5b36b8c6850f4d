package domain

import (
	"github.com/shopspring/decimal"
)

// Currency is the calculation or display currency of a contract
type Currency string

const (
	CurrencyHUF Currency = "HUF"
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
)

// IsValid reports whether c is one of the supported currencies
func (c Currency) IsValid() bool {
	switch c {
	case CurrencyHUF, CurrencyEUR, CurrencyUSD:
		return true
	}
	return false
}

// Frequency is a payment or fee posting frequency. The string values are the
// wire format shared with the UI layer and must not be translated.
type Frequency string

const (
	FrequencyDaily      Frequency = "napi"
	FrequencyMonthly    Frequency = "havi"
	FrequencyQuarterly  Frequency = "negyedéves"
	FrequencySemiAnnual Frequency = "féléves"
	FrequencyAnnual     Frequency = "éves"
)

// PeriodsPerYear returns how many postings the frequency makes in a year
func (f Frequency) PeriodsPerYear() int {
	switch f {
	case FrequencyDaily:
		return 365
	case FrequencyMonthly:
		return 12
	case FrequencyQuarterly:
		return 4
	case FrequencySemiAnnual:
		return 2
	case FrequencyAnnual:
		return 1
	}
	return 0
}

// IsValid reports whether f is a known frequency
func (f Frequency) IsValid() bool {
	return f.PeriodsPerYear() > 0
}

// IsPaymentFrequency reports whether f may be used as a contribution frequency
func (f Frequency) IsPaymentFrequency() bool {
	return f.IsValid() && f != FrequencyDaily
}

// PostsInMonth reports whether a posting falls into the given month of the
// contract year (1..12). Daily postings are aggregated into every month.
func (f Frequency) PostsInMonth(month int) bool {
	ppy := f.PeriodsPerYear()
	if ppy == 0 {
		return false
	}
	if ppy >= 12 {
		return true
	}
	step := 12 / ppy
	return (month-1)%step == 0
}

// MonthlyPostings returns the number of postings aggregated into one posting
// month, e.g. 365/12 for daily and 1 for every coarser frequency.
func (f Frequency) MonthlyPostings() decimal.Decimal {
	if f.PeriodsPerYear() > 12 {
		return decimal.NewFromInt(int64(f.PeriodsPerYear())).Div(decimal.NewFromInt(12))
	}
	return decimal.NewFromInt(1)
}

// DurationUnit is the unit a contract duration is expressed in
type DurationUnit string

const (
	DurationYear  DurationUnit = "year"
	DurationMonth DurationUnit = "month"
	DurationDay   DurationUnit = "day"
)

// Duration is the contract lifetime as entered by the caller
type Duration struct {
	Value int          `yaml:"value" json:"value"`
	Unit  DurationUnit `yaml:"unit" json:"unit"`
}

// Months returns the number of monthly periods the contract runs for.
// Day durations are rounded up to the next whole month.
func (d Duration) Months() int {
	switch d.Unit {
	case DurationYear, "":
		return d.Value * 12
	case DurationMonth:
		return d.Value
	case DurationDay:
		return (d.Value*12 + 364) / 365
	}
	return 0
}

// Years returns the duration normalized to whole contract years, which is the
// key space of every per-year rule table.
func (d Duration) Years() int {
	m := d.Months()
	if m <= 0 {
		return 0
	}
	return (m + 11) / 12
}

// RedemptionBase selects which balance the redemption fee is charged on
type RedemptionBase string

const (
	RedemptionSurplusOnly  RedemptionBase = "surplus-only"
	RedemptionTotalAccount RedemptionBase = "total-account"
)

// FeeBase selects what a percentage fee or bonus is computed from
type FeeBase string

const (
	FeeBasePayment FeeBase = "payment"
	FeeBaseAsset   FeeBase = "asset"
)

// ValueType tells whether a rule value is a percentage or a flat amount
type ValueType string

const (
	ValuePercent ValueType = "percent"
	ValueAmount  ValueType = "amount"
)

// RuleKind distinguishes cost rules from bonus rules
type RuleKind string

const (
	RuleCost  RuleKind = "cost"
	RuleBonus RuleKind = "bonus"
)

// AccountKind names one of the logical accounts of a contract
type AccountKind string

const (
	AccountClient   AccountKind = "client"
	AccountInvested AccountKind = "invested"
	AccountTaxBonus AccountKind = "taxBonus"
)

// YearTable is a sparse year -> value mapping with a single scalar default.
// Every rule category of a contract is expressed as a YearTable.
type YearTable struct {
	Default decimal.Decimal         `yaml:"default" json:"default"`
	ByYear  map[int]decimal.Decimal `yaml:"byYear,omitempty" json:"byYear,omitempty"`
}

// Flat returns a table without per-year overrides
func Flat(v decimal.Decimal) YearTable {
	return YearTable{Default: v}
}

// Lookup returns the explicit entry for year, if any
func (t YearTable) Lookup(year int) (decimal.Decimal, bool) {
	v, ok := t.ByYear[year]
	return v, ok
}

// Resolve returns the explicit entry for year, else the default
func (t YearTable) Resolve(year int) decimal.Decimal {
	if v, ok := t.ByYear[year]; ok {
		return v
	}
	return t.Default
}

// Years returns the override years in the table
func (t YearTable) Years() []int {
	years := make([]int, 0, len(t.ByYear))
	for y := range t.ByYear {
		years = append(years, y)
	}
	return years
}

// Clone returns a deep copy of the table
func (t YearTable) Clone() YearTable {
	out := YearTable{Default: t.Default}
	if t.ByYear != nil {
		out.ByYear = make(map[int]decimal.Decimal, len(t.ByYear))
		for y, v := range t.ByYear {
			out.ByYear[y] = v
		}
	}
	return out
}

// CustomRule is a user defined cost or bonus preset. It is simulated exactly
// like the built-in rule categories.
type CustomRule struct {
	Name      string      `yaml:"name" json:"name"`
	Kind      RuleKind    `yaml:"kind" json:"kind"`
	ValueType ValueType   `yaml:"valueType" json:"valueType"`
	Target    AccountKind `yaml:"target" json:"target"`
	Frequency Frequency   `yaml:"frequency" json:"frequency"`
	StartYear int         `yaml:"startYear" json:"startYear"`
	StopYear  int         `yaml:"stopYear" json:"stopYear"` // 0 = until the end of the contract
	Base      FeeBase     `yaml:"base" json:"base"`
	Value     YearTable   `yaml:"value" json:"value"`
}

// ActiveIn reports whether the rule applies in the given contract year
func (r CustomRule) ActiveIn(year int) bool {
	start := r.StartYear
	if start <= 0 {
		start = 1
	}
	if year < start {
		return false
	}
	return r.StopYear <= 0 || year <= r.StopYear
}

// TaxCreditConfig describes the state tax credit posted on contributions
type TaxCreditConfig struct {
	RatePercent      decimal.Decimal  `yaml:"ratePercent" json:"ratePercent"`
	AnnualCap        decimal.Decimal  `yaml:"annualCap" json:"annualCap"` // zero = uncapped
	StartYear        int              `yaml:"startYear" json:"startYear"`
	EndYear          int              `yaml:"endYear" json:"endYear"`
	YieldPercent     *decimal.Decimal `yaml:"yieldPercent,omitempty" json:"yieldPercent,omitempty"`
	RepaymentPercent decimal.Decimal  `yaml:"repaymentPercent" json:"repaymentPercent"`
	LockYears        int              `yaml:"lockYears" json:"lockYears"` // 0 = every posted credit stays repayable
	// ClawbackUntilYear is the last contract year a surrender repays credits; 0 = until maturity
	ClawbackUntilYear int `yaml:"clawbackUntilYear" json:"clawbackUntilYear"`
}

// ClawbackApplies reports whether a surrender in year repays tax credits
func (t TaxCreditConfig) ClawbackApplies(year, contractYears int) bool {
	if year >= contractYears || !t.RepaymentPercent.IsPositive() {
		return false
	}
	return t.ClawbackUntilYear <= 0 || year <= t.ClawbackUntilYear
}

// Enabled reports whether any tax credit can be posted
func (t TaxCreditConfig) Enabled() bool {
	return t.RatePercent.IsPositive()
}

// InWindow reports whether the year is inside the eligibility window
func (t TaxCreditConfig) InWindow(year, contractYears int) bool {
	start := t.StartYear
	if start <= 0 {
		start = 1
	}
	end := t.EndYear
	if end <= 0 {
		end = contractYears
	}
	return year >= start && year <= end
}

// RedemptionConfig configures the surrender penalty
type RedemptionConfig struct {
	Enabled bool           `yaml:"enabled" json:"enabled"`
	Base    RedemptionBase `yaml:"base" json:"base"`
}

// RiskFeeConfig configures the risk insurance fee window and indexation
type RiskFeeConfig struct {
	Mode         ValueType       `yaml:"mode" json:"mode"`
	IndexPercent decimal.Decimal `yaml:"indexPercent" json:"indexPercent"`
	StartYear    int             `yaml:"startYear" json:"startYear"`
	EndYear      int             `yaml:"endYear" json:"endYear"`
}

// ManagementFeeConfig configures how the management fee is computed and posted
type ManagementFeeConfig struct {
	Mode      ValueType `yaml:"mode" json:"mode"`
	Base      FeeBase   `yaml:"base" json:"base"`
	Frequency Frequency `yaml:"frequency" json:"frequency"`
}

// WithdrawalSequencingConfig selects the account order partial surrenders
// draw from. Strategies: standard, client_first, proportional, custom.
type WithdrawalSequencingConfig struct {
	Strategy       string        `yaml:"strategy" json:"strategy"`
	CustomSequence []AccountKind `yaml:"customSequence,omitempty" json:"customSequence,omitempty"`
}

// ContractInputs carries everything a single simulation run needs. It is
// treated as immutable by the engine.
type ContractInputs struct {
	Currency           Currency        `yaml:"currency" json:"currency"`
	Duration           Duration        `yaml:"duration" json:"duration"`
	Frequency          Frequency       `yaml:"frequency" json:"frequency"`
	AnnualYieldPercent decimal.Decimal `yaml:"annualYieldPercent" json:"annualYieldPercent"`

	// Annual contribution of year 1 and the indexation table
	BasePayment decimal.Decimal `yaml:"basePayment" json:"basePayment"`
	Index       YearTable       `yaml:"index" json:"index"`

	PaymentByYear    map[int]decimal.Decimal `yaml:"paymentByYear,omitempty" json:"paymentByYear,omitempty"`
	WithdrawalByYear map[int]decimal.Decimal `yaml:"withdrawalByYear,omitempty" json:"withdrawalByYear,omitempty"`

	// Cost tables
	InitialCost        YearTable           `yaml:"initialCost" json:"initialCost"`
	AdminFee           YearTable           `yaml:"adminFee" json:"adminFee"`
	AdminFeeMode       ValueType           `yaml:"adminFeeMode" json:"adminFeeMode"`
	AccountMaintenance YearTable           `yaml:"accountMaintenance" json:"accountMaintenance"` // percent per month
	AssetCost          YearTable           `yaml:"assetCost" json:"assetCost"`                   // annual percent
	ManagementFee      YearTable           `yaml:"managementFee" json:"managementFee"`
	Management         ManagementFeeConfig `yaml:"management" json:"management"`
	RiskFee            YearTable           `yaml:"riskFee" json:"riskFee"`
	Risk               RiskFeeConfig       `yaml:"risk" json:"risk"`
	PlusCost           YearTable           `yaml:"plusCost" json:"plusCost"`
	RedemptionFee      YearTable           `yaml:"redemptionFee" json:"redemptionFee"`

	// Allocation tables
	InvestedShare YearTable `yaml:"investedShare" json:"investedShare"`
	SurplusSplit  YearTable `yaml:"surplusSplit" json:"surplusSplit"`

	// Bonus and tax credit tables
	BonusAmount     YearTable       `yaml:"bonusAmount" json:"bonusAmount"`
	BonusPercent    YearTable       `yaml:"bonusPercent" json:"bonusPercent"`
	BonusBase       FeeBase         `yaml:"bonusBase" json:"bonusBase"`
	BonusTarget     AccountKind     `yaml:"bonusTarget" json:"bonusTarget"`
	TaxCreditAmount YearTable       `yaml:"taxCreditAmount" json:"taxCreditAmount"`
	TaxCreditLimit  YearTable       `yaml:"taxCreditLimit" json:"taxCreditLimit"`
	TaxCredit       TaxCreditConfig `yaml:"taxCredit" json:"taxCredit"`

	Redemption RedemptionConfig `yaml:"redemption" json:"redemption"`

	// Withdrawal and partial surrender limits
	MinimumBalance       decimal.Decimal             `yaml:"minimumBalance" json:"minimumBalance"`
	PartialSurrenderFee  decimal.Decimal             `yaml:"partialSurrenderFee" json:"partialSurrenderFee"`
	WithdrawalSequencing *WithdrawalSequencingConfig `yaml:"withdrawalSequencing,omitempty" json:"withdrawalSequencing,omitempty"`

	// Structural flags
	AccountSplitOpen       bool `yaml:"accountSplitOpen" json:"accountSplitOpen"`
	SeparatedExtraAccounts bool `yaml:"separatedExtraAccounts" json:"separatedExtraAccounts"`
	AllowWithdrawals       bool `yaml:"allowWithdrawals" json:"allowWithdrawals"`
	DisableProductDefaults bool `yaml:"disableProductDefaults" json:"disableProductDefaults"`

	CustomRules []CustomRule `yaml:"customRules,omitempty" json:"customRules,omitempty"`

	// Optional tax on positive gain at maturity, used for net-of-tax figures
	ReturnTaxPercent *decimal.Decimal `yaml:"returnTaxPercent,omitempty" json:"returnTaxPercent,omitempty"`
}

// NewContractInputs returns inputs with the neutral defaults every product
// starts from: everything invested, nothing split off, total-account redemption.
func NewContractInputs() ContractInputs {
	return ContractInputs{
		Currency:      CurrencyHUF,
		Duration:      Duration{Value: 10, Unit: DurationYear},
		Frequency:     FrequencyAnnual,
		AdminFeeMode:  ValueAmount,
		InvestedShare: Flat(decimal.NewFromInt(100)),
		Management: ManagementFeeConfig{
			Mode:      ValuePercent,
			Base:      FeeBaseAsset,
			Frequency: FrequencyMonthly,
		},
		Risk:        RiskFeeConfig{Mode: ValueAmount},
		BonusBase:   FeeBasePayment,
		BonusTarget: AccountClient,
		Redemption:  RedemptionConfig{Enabled: true, Base: RedemptionTotalAccount},
	}
}

// DeepCopy returns a copy that shares no maps or slices with the receiver
func (c ContractInputs) DeepCopy() ContractInputs {
	out := c
	out.Index = c.Index.Clone()
	out.PaymentByYear = cloneYearMap(c.PaymentByYear)
	out.WithdrawalByYear = cloneYearMap(c.WithdrawalByYear)
	out.InitialCost = c.InitialCost.Clone()
	out.AdminFee = c.AdminFee.Clone()
	out.AccountMaintenance = c.AccountMaintenance.Clone()
	out.AssetCost = c.AssetCost.Clone()
	out.ManagementFee = c.ManagementFee.Clone()
	out.RiskFee = c.RiskFee.Clone()
	out.PlusCost = c.PlusCost.Clone()
	out.RedemptionFee = c.RedemptionFee.Clone()
	out.InvestedShare = c.InvestedShare.Clone()
	out.SurplusSplit = c.SurplusSplit.Clone()
	out.BonusAmount = c.BonusAmount.Clone()
	out.BonusPercent = c.BonusPercent.Clone()
	out.TaxCreditAmount = c.TaxCreditAmount.Clone()
	out.TaxCreditLimit = c.TaxCreditLimit.Clone()
	if c.TaxCredit.YieldPercent != nil {
		v := *c.TaxCredit.YieldPercent
		out.TaxCredit.YieldPercent = &v
	}
	if c.ReturnTaxPercent != nil {
		v := *c.ReturnTaxPercent
		out.ReturnTaxPercent = &v
	}
	if c.WithdrawalSequencing != nil {
		ws := *c.WithdrawalSequencing
		ws.CustomSequence = append([]AccountKind(nil), c.WithdrawalSequencing.CustomSequence...)
		out.WithdrawalSequencing = &ws
	}
	if c.CustomRules != nil {
		out.CustomRules = make([]CustomRule, len(c.CustomRules))
		for i, r := range c.CustomRules {
			r.Value = r.Value.Clone()
			out.CustomRules[i] = r
		}
	}
	return out
}

func cloneYearMap(m map[int]decimal.Decimal) map[int]decimal.Decimal {
	if m == nil {
		return nil
	}
	out := make(map[int]decimal.Decimal, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
