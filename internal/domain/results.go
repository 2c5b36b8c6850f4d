package domain

import (
	"github.com/shopspring/decimal"
)

// YearlyPlan holds the dense, 1-based payment schedule of a contract.
// Index 0 of every slice is unused.
type YearlyPlan struct {
	Years          int               `json:"years"`
	IndexEffective []decimal.Decimal `json:"indexEffective"`
	Payments       []decimal.Decimal `json:"yearlyPaymentsPlan"`
	Withdrawals    []decimal.Decimal `json:"yearlyWithdrawalsPlan"`
}

// CostCategory names a cost bucket in the yearly breakdown. Custom rules
// report under their own name.
type CostCategory string

const (
	CostInitial          CostCategory = "initial"
	CostAdmin            CostCategory = "admin"
	CostExtraFee         CostCategory = "extraFee"
	CostRisk             CostCategory = "risk"
	CostPlus             CostCategory = "plus"
	CostManagement       CostCategory = "management"
	CostMaintenance      CostCategory = "maintenance"
	CostAsset            CostCategory = "asset"
	CostPartialSurrender CostCategory = "partialSurrender"
)

// CostMap accumulates amounts per cost category
type CostMap map[CostCategory]decimal.Decimal

// Add accumulates amount into category
func (m CostMap) Add(category CostCategory, amount decimal.Decimal) {
	if amount.IsZero() {
		return
	}
	m[category] = m[category].Add(amount)
}

// Total sums all categories
func (m CostMap) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range m {
		total = total.Add(v)
	}
	return total
}

// Clone returns a copy of the map
func (m CostMap) Clone() CostMap {
	out := make(CostMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// YearlyBreakdownRow is the aggregate of all period movements in one contract year
type YearlyBreakdownRow struct {
	Year int `json:"year"`

	Contributions           decimal.Decimal `json:"contributions"`
	CumulativeContributions decimal.Decimal `json:"cumulativeContributions"`
	Costs                   CostMap         `json:"costs"`
	CostTotal               decimal.Decimal `json:"costTotal"`
	CumulativeCosts         CostMap         `json:"cumulativeCosts"`
	Yield                   decimal.Decimal `json:"yield"`
	Bonus                   decimal.Decimal `json:"bonus"`
	TaxCredit               decimal.Decimal `json:"taxCredit"`
	Withdrawals             decimal.Decimal `json:"withdrawals"`
	CumulativeWithdrawals   decimal.Decimal `json:"cumulativeWithdrawals"`

	ClientBalance   decimal.Decimal `json:"clientBalance"`
	InvestedBalance decimal.Decimal `json:"investedBalance"`
	TaxBonusBalance decimal.Decimal `json:"taxBonusBalance"`
	EndBalance      decimal.Decimal `json:"endBalance"`

	RedemptionFeePercent decimal.Decimal `json:"redemptionFeePercent"`
	RedemptionFee        decimal.Decimal `json:"redemptionFee"`
	TaxCreditClawback    decimal.Decimal `json:"taxCreditClawback"`
	SurrenderValue       decimal.Decimal `json:"surrenderValue"`

	// EndBalance - CumulativeContributions + CumulativeWithdrawals
	NetReturn decimal.Decimal `json:"netReturn"`
}

// Totals aggregates a whole simulation run
type Totals struct {
	Contributions decimal.Decimal `json:"contributions"`
	Return        decimal.Decimal `json:"return"`
	Yield         decimal.Decimal `json:"yield"`
	Costs         CostMap         `json:"costs"`
	CostTotal     decimal.Decimal `json:"costTotal"`
	Bonus         decimal.Decimal `json:"bonus"`
	TaxCredit     decimal.Decimal `json:"taxCredit"`
	Withdrawals   decimal.Decimal `json:"withdrawals"`
	EndBalance    decimal.Decimal `json:"endBalance"`
	Surrender     decimal.Decimal `json:"surrender"`
}

// NetOfTax holds the maturity figures after the return tax
type NetOfTax struct {
	TaxPercent  decimal.Decimal `json:"taxPercent"`
	TaxableGain decimal.Decimal `json:"taxableGain"`
	Tax         decimal.Decimal `json:"tax"`
	NetPayout   decimal.Decimal `json:"netPayout"`
}

// DiagnosticLevel grades a diagnostic
type DiagnosticLevel string

const (
	LevelInfo    DiagnosticLevel = "info"
	LevelWarning DiagnosticLevel = "warning"
	LevelError   DiagnosticLevel = "error"
)

// Diagnostic reports a degenerate or ignored input detected during a run
type Diagnostic struct {
	Level   DiagnosticLevel `json:"level"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Year    int             `json:"year,omitempty"`
}

// ResultsDaily is the final output of one simulation run
type ResultsDaily struct {
	Currency       Currency             `json:"currency"`
	Years          int                  `json:"years"`
	Totals         Totals               `json:"totals"`
	Rows           []YearlyBreakdownRow `json:"rows"`
	Plan           YearlyPlan           `json:"plan"`
	RedemptionBase RedemptionBase       `json:"redemptionBase"`
	BreakEvenYear  int                  `json:"breakEvenYear"` // 0 = never
	NetOfTax       *NetOfTax            `json:"netOfTax,omitempty"`
	Diagnostics    []Diagnostic         `json:"diagnostics,omitempty"`
}

// FinalRow returns the last yearly row, or false when the run produced none
func (r *ResultsDaily) FinalRow() (YearlyBreakdownRow, bool) {
	if r == nil || len(r.Rows) == 0 {
		return YearlyBreakdownRow{}, false
	}
	return r.Rows[len(r.Rows)-1], true
}

// Row returns the row of the given contract year
func (r *ResultsDaily) Row(year int) (YearlyBreakdownRow, bool) {
	if r == nil || year < 1 || year > len(r.Rows) {
		return YearlyBreakdownRow{}, false
	}
	return r.Rows[year-1], true
}

// HasErrors reports whether any diagnostic is of error level
func (r *ResultsDaily) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Level == LevelError {
			return true
		}
	}
	return false
}
