package compare

import (
	"fmt"

	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/shopspring/decimal"
)

// RankEntry represents one successfully simulated candidate with its metrics
type RankEntry struct {
	Rank        int                  `json:"rank"`
	Code        string               `json:"code"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Currency    domain.Currency      `json:"currency"`
	Results     *domain.ResultsDaily `json:"-"`

	// Key Metrics
	FinalSurrender     decimal.Decimal `json:"finalSurrender"`
	FinalBalance       decimal.Decimal `json:"finalBalance"`
	TotalContributions decimal.Decimal `json:"totalContributions"`
	TotalCost          decimal.Decimal `json:"totalCost"`
	TotalExtras        decimal.Decimal `json:"totalExtras"` // bonus + tax credit
	BreakEvenYear      int             `json:"breakEvenYear"`
	Warnings           int             `json:"warnings"`

	// Comparison to the best candidate
	DiffFromBest    decimal.Decimal `json:"diffFromBest"`
	DiffPctFromBest decimal.Decimal `json:"diffPctFromBest"`
}

// CandidateFailure records a candidate whose run failed. Failures never abort
// the other candidates.
type CandidateFailure struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// RankingSet is the outcome of one ranking run
type RankingSet struct {
	RunID           string             `json:"runId"`
	ContractName    string             `json:"contractName"`
	ConfigPath      string             `json:"configPath,omitempty"`
	Currency        domain.Currency    `json:"currency"`
	Entries         []RankEntry        `json:"entries"`
	Failures        []CandidateFailure `json:"failures,omitempty"`
	Recommendations []string           `json:"recommendations"`
}

// Best returns the top ranked entry
func (rs *RankingSet) Best() (RankEntry, bool) {
	if rs == nil || len(rs.Entries) == 0 {
		return RankEntry{}, false
	}
	return rs.Entries[0], true
}

// MetricsCalculator extracts key metrics from simulation results
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateMetrics computes the ranking metrics for one run
func (mc *MetricsCalculator) CalculateMetrics(results *domain.ResultsDaily) RankEntry {
	entry := RankEntry{
		Currency:           results.Currency,
		Results:            results,
		FinalSurrender:     results.Totals.Surrender,
		FinalBalance:       results.Totals.EndBalance,
		TotalContributions: results.Totals.Contributions,
		TotalCost:          results.Totals.CostTotal,
		TotalExtras:        results.Totals.Bonus.Add(results.Totals.TaxCredit),
		BreakEvenYear:      results.BreakEvenYear,
	}
	for _, d := range results.Diagnostics {
		if d.Level != domain.LevelInfo {
			entry.Warnings++
		}
	}
	return entry
}

// CalculateComparison computes the distance of an entry from the best one
func (mc *MetricsCalculator) CalculateComparison(entry, best RankEntry) RankEntry {
	entry.DiffFromBest = entry.FinalSurrender.Sub(best.FinalSurrender)
	if !best.FinalSurrender.IsZero() {
		entry.DiffPctFromBest = entry.DiffFromBest.
			Div(best.FinalSurrender).
			Mul(decimal.NewFromInt(100))
	}
	return entry
}

// GenerateRecommendations creates recommendations based on ranked entries
func GenerateRecommendations(rs *RankingSet) []string {
	recommendations := []string{}

	best, ok := rs.Best()
	if !ok {
		return recommendations
	}

	if len(rs.Entries) > 1 {
		runnerUp := rs.Entries[1]
		recommendations = append(recommendations,
			"Best Surrender Value: "+best.Name+" pays "+best.FinalSurrender.StringFixed(0)+" "+string(rs.Currency)+
				", "+runnerUp.DiffFromBest.Abs().StringFixed(0)+" more than "+runnerUp.Name)
	} else {
		recommendations = append(recommendations,
			"Only Candidate: "+best.Name+" pays "+best.FinalSurrender.StringFixed(0)+" "+string(rs.Currency))
	}

	// Lowest total cost
	cheapest := best
	for _, e := range rs.Entries[1:] {
		if e.TotalCost.LessThan(cheapest.TotalCost) {
			cheapest = e
		}
	}
	if cheapest.Code != best.Code {
		savings := best.TotalCost.Sub(cheapest.TotalCost)
		recommendations = append(recommendations,
			"Lowest Costs: "+cheapest.Name+" charges "+savings.StringFixed(0)+" "+string(rs.Currency)+
				" less than "+best.Name)
	}

	// Earliest break-even
	earliest := RankEntry{}
	for _, e := range rs.Entries {
		if e.BreakEvenYear > 0 && (earliest.BreakEvenYear == 0 || e.BreakEvenYear < earliest.BreakEvenYear) {
			earliest = e
		}
	}
	if earliest.BreakEvenYear > 0 {
		recommendations = append(recommendations,
			"Earliest Break-Even: "+earliest.Name+" returns the amount paid in by "+
				fmt.Sprintf("year %d", earliest.BreakEvenYear))
	}

	if len(rs.Failures) > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("Skipped: %d candidate(s) could not be simulated", len(rs.Failures)))
	}

	return recommendations
}
