package compare

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TableFormatter formats ranking results as a console table
type TableFormatter struct{}

// Format generates a formatted table ranking the candidates
func (tf *TableFormatter) Format(rs *RankingSet) string {
	var sb strings.Builder

	// Header
	sb.WriteString("PRODUCT RANKING\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Contract: %s\n", rs.ContractName))
	if rs.ConfigPath != "" {
		sb.WriteString(fmt.Sprintf("Configuration: %s\n", rs.ConfigPath))
	}
	sb.WriteString(fmt.Sprintf("Run: %s (%s)\n", rs.RunID, rs.Currency))
	sb.WriteString("\n")

	// Column widths
	nameWidth := 25
	numWidth := 12

	sb.WriteString(fmt.Sprintf("%-4s %-*s %*s %*s %*s %*s\n",
		"#",
		nameWidth, "Product",
		numWidth, "Surrender",
		numWidth, "Balance",
		numWidth, "Costs",
		numWidth, "Break-even"))
	sb.WriteString(strings.Repeat("-", 80) + "\n")

	for _, e := range rs.Entries {
		sb.WriteString(tf.formatRow(&e, nameWidth, numWidth))
	}

	sb.WriteString(strings.Repeat("=", 80) + "\n")

	// Distance from the winner
	if len(rs.Entries) > 1 {
		sb.WriteString("\nCOMPARISON TO BEST\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, e := range rs.Entries[1:] {
			sb.WriteString(fmt.Sprintf("  %-*s %s%s (%s%%)\n",
				nameWidth, tf.truncate(e.Name, nameWidth),
				tf.deltaSymbol(e.DiffFromBest),
				tf.formatDecimal(e.DiffFromBest),
				e.DiffPctFromBest.StringFixed(1)))
		}
		sb.WriteString("\n")
	}

	if len(rs.Failures) > 0 {
		sb.WriteString("\nSKIPPED CANDIDATES\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, f := range rs.Failures {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", f.Code, f.Error))
		}
		sb.WriteString("\n")
	}

	// Recommendations
	if len(rs.Recommendations) > 0 {
		sb.WriteString("\nRECOMMENDATIONS\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, rec := range rs.Recommendations {
			sb.WriteString(fmt.Sprintf("• %s\n", rec))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatRow formats a single ranked row
func (tf *TableFormatter) formatRow(e *RankEntry, nameWidth, numWidth int) string {
	breakEven := fmt.Sprintf("year %d", e.BreakEvenYear)
	if e.BreakEvenYear == 0 {
		breakEven = "never"
	}

	return fmt.Sprintf("%-4d %-*s %*s %*s %*s %*s\n",
		e.Rank,
		nameWidth, tf.truncate(e.Name, nameWidth),
		numWidth, tf.formatDecimal(e.FinalSurrender),
		numWidth, tf.formatDecimal(e.FinalBalance),
		numWidth, tf.formatDecimal(e.TotalCost),
		numWidth, breakEven)
}

// formatDecimal formats a decimal for display (in thousands or millions)
func (tf *TableFormatter) formatDecimal(d decimal.Decimal) string {
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000000)) {
		millions := d.Div(decimal.NewFromInt(1000000))
		return millions.StringFixed(2) + "M"
	} else if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000)) {
		thousands := d.Div(decimal.NewFromInt(1000))
		return thousands.StringFixed(1) + "K"
	}
	return d.StringFixed(0)
}

// deltaSymbol returns a + sign for positive deltas; negatives carry their own
func (tf *TableFormatter) deltaSymbol(delta decimal.Decimal) string {
	if delta.IsPositive() {
		return "+"
	}
	return ""
}

// truncate truncates a string to maxLen
func (tf *TableFormatter) truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// FormatCompact creates a compact single-line summary of the ranking
func (tf *TableFormatter) FormatCompact(rs *RankingSet) string {
	var sb strings.Builder

	for i, e := range rs.Entries {
		if i > 0 {
			sb.WriteString(" | ")
		}
		sb.WriteString(fmt.Sprintf("%d. %s: %s", e.Rank, e.Name, tf.formatDecimal(e.FinalSurrender)))
	}

	return sb.String()
}
