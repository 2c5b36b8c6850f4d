package output

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/shopspring/decimal"
)

// ConsoleVerboseFormatter renders the full yearly breakdown
type ConsoleVerboseFormatter struct{}

func (c ConsoleVerboseFormatter) Name() string { return "console" }

func (c ConsoleVerboseFormatter) Format(report *Report) ([]byte, error) {
	if report == nil || report.Results == nil {
		return nil, fmt.Errorf("report has no results")
	}
	var buf bytes.Buffer
	r := report.Results

	fmt.Fprintln(&buf, strings.Repeat("=", 120))
	fmt.Fprintln(&buf, "DETAILED CONTRACT CASH-FLOW ANALYSIS")
	fmt.Fprintln(&buf, strings.Repeat("=", 120))
	fmt.Fprintf(&buf, "Contract: %s", report.Name)
	if report.Product != "" {
		fmt.Fprintf(&buf, " (%s)", report.Product)
	}
	fmt.Fprintf(&buf, "\nCurrency: %s   Redemption base: %s\n\n", r.Currency, r.RedemptionBase)

	fmt.Fprintf(&buf, "%4s %14s %12s %12s %12s %14s %14s %8s %14s\n",
		"Year", "Paid In", "Costs", "Yield", "Bonus+TC", "Withdrawn", "Balance", "Fee %", "Surrender")
	fmt.Fprintln(&buf, strings.Repeat("-", 120))
	for _, row := range r.Rows {
		fmt.Fprintf(&buf, "%4d %14s %12s %12s %12s %14s %14s %8s %14s\n",
			row.Year,
			amount(row.Contributions),
			amount(row.CostTotal),
			amount(row.Yield),
			amount(row.Bonus.Add(row.TaxCredit)),
			amount(row.Withdrawals),
			amount(row.EndBalance),
			row.RedemptionFeePercent.StringFixed(1),
			amount(row.SurrenderValue))
	}
	fmt.Fprintln(&buf, strings.Repeat("-", 120))
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "COSTS BY CATEGORY:")
	for _, category := range sortedCategories(r.Totals.Costs) {
		fmt.Fprintf(&buf, "  %-20s %s\n", category, FormatCurrency(r.Totals.Costs[category], r.Currency))
	}
	fmt.Fprintf(&buf, "  %-20s %s\n", "TOTAL", FormatCurrency(r.Totals.CostTotal, r.Currency))
	fmt.Fprintln(&buf)

	if last, ok := r.FinalRow(); ok {
		fmt.Fprintln(&buf, "ACCOUNTS AT MATURITY:")
		fmt.Fprintf(&buf, "  Client:    %s\n", FormatCurrency(last.ClientBalance, r.Currency))
		fmt.Fprintf(&buf, "  Invested:  %s\n", FormatCurrency(last.InvestedBalance, r.Currency))
		fmt.Fprintf(&buf, "  Tax bonus: %s\n", FormatCurrency(last.TaxBonusBalance, r.Currency))
		fmt.Fprintln(&buf)
	}

	fmt.Fprintf(&buf, "Net Return: %s\n", FormatCurrency(r.Totals.Return, r.Currency))
	if r.BreakEvenYear > 0 {
		fmt.Fprintf(&buf, "Break-even: year %d\n", r.BreakEvenYear)
	}
	if r.NetOfTax != nil {
		fmt.Fprintf(&buf, "Taxable gain: %s, tax %s, net payout %s\n",
			FormatCurrency(r.NetOfTax.TaxableGain, r.Currency),
			FormatCurrency(r.NetOfTax.Tax, r.Currency),
			FormatCurrency(r.NetOfTax.NetPayout, r.Currency))
	}
	writeDiagnostics(&buf, report)
	return buf.Bytes(), nil
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(0)
}

func sortedCategories(m domain.CostMap) []domain.CostCategory {
	out := make([]domain.CostCategory, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
