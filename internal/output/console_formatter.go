package output

import (
	"bytes"
	"fmt"
	"strings"
)

// ConsoleFormatter renders a short summary of the run
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console-lite" }

func (c ConsoleFormatter) Format(report *Report) ([]byte, error) {
	if report == nil || report.Results == nil {
		return nil, fmt.Errorf("report has no results")
	}
	var buf bytes.Buffer
	r := report.Results
	cur := r.Currency

	fmt.Fprintln(&buf, "CONTRACT SIMULATION SUMMARY")
	fmt.Fprintln(&buf, strings.Repeat("=", 40))
	fmt.Fprintf(&buf, "Contract: %s\n", report.Name)
	if report.Product != "" {
		fmt.Fprintf(&buf, "Product: %s\n", report.Product)
	}
	fmt.Fprintf(&buf, "Duration: %d years\n", r.Years)
	fmt.Fprintf(&buf, "Paid In: %s\n", FormatCurrency(r.Totals.Contributions, cur))
	fmt.Fprintf(&buf, "Costs: %s\n", FormatCurrency(r.Totals.CostTotal, cur))
	fmt.Fprintf(&buf, "Bonus + Tax Credit: %s\n", FormatCurrency(r.Totals.Bonus.Add(r.Totals.TaxCredit), cur))
	fmt.Fprintf(&buf, "Final Balance: %s\n", FormatCurrency(r.Totals.EndBalance, cur))
	fmt.Fprintf(&buf, "Surrender Value: %s\n", FormatCurrency(r.Totals.Surrender, cur))
	if r.BreakEvenYear > 0 {
		fmt.Fprintf(&buf, "Break-even: year %d\n", r.BreakEvenYear)
	} else {
		fmt.Fprintln(&buf, "Break-even: not reached")
	}
	if r.NetOfTax != nil {
		fmt.Fprintf(&buf, "Net of %s tax: %s\n", FormatPercentage(r.NetOfTax.TaxPercent), FormatCurrency(r.NetOfTax.NetPayout, cur))
	}
	writeDiagnostics(&buf, report)
	return buf.Bytes(), nil
}

func writeDiagnostics(buf *bytes.Buffer, report *Report) {
	if len(report.Results.Diagnostics) == 0 {
		return
	}
	fmt.Fprintln(buf)
	fmt.Fprintln(buf, "WARNINGS:")
	for _, d := range report.Results.Diagnostics {
		if d.Year > 0 {
			fmt.Fprintf(buf, "• [%s] year %d: %s\n", d.Code, d.Year, d.Message)
		} else {
			fmt.Fprintf(buf, "• [%s] %s\n", d.Code, d.Message)
		}
	}
}
