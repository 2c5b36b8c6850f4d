package breakeven

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/shopspring/decimal"
)

// TableFormatter formats solver results as a console table
type TableFormatter struct{}

// Format generates a formatted table for one solver result
func (tf *TableFormatter) Format(result *SolveResult) string {
	var sb strings.Builder

	sb.WriteString("BREAK-EVEN SOLVER RESULTS\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")

	sb.WriteString(fmt.Sprintf("Target:              %s\n", result.Target))
	if result.Product != "" {
		sb.WriteString(fmt.Sprintf("Product:             %s\n", result.Product))
	}
	sb.WriteString(fmt.Sprintf("Status:              %s\n", tf.formatStatus(result.Success)))
	sb.WriteString(fmt.Sprintf("Iterations:          %d\n", result.Iterations))
	if result.ConvergenceInfo != "" {
		sb.WriteString(fmt.Sprintf("Convergence:         %s\n", result.ConvergenceInfo))
	}
	sb.WriteString("\n")

	sb.WriteString("SOLUTION\n")
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	sb.WriteString(fmt.Sprintf("%-20s %s\n", tf.valueLabel(result.Target)+":", tf.formatValue(result, result.Value)))
	sb.WriteString(fmt.Sprintf("%-20s %s\n", "Current:", tf.formatValue(result, result.BaseValue)))
	diff := result.Value.Sub(result.BaseValue)
	sb.WriteString(fmt.Sprintf("%-20s %s%s\n", "Change:", tf.deltaSymbol(diff), tf.formatValue(result, diff.Abs())))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("RESULTS IN YEAR %d\n", result.Year))
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Surrender Value:     %s\n", tf.formatCurrency(result.SurrenderValue, result)))
	sb.WriteString(fmt.Sprintf("Paid In:             %s\n", tf.formatCurrency(result.PaidIn, result)))
	if result.TargetSurrender != nil {
		sb.WriteString(fmt.Sprintf("Target Surrender:    %s\n", tf.formatCurrency(*result.TargetSurrender, result)))
	}
	sb.WriteString("\n")

	return sb.String()
}

// FormatMulti formats a per-product comparison
func (tf *TableFormatter) FormatMulti(result *MultiProductResult) string {
	var sb strings.Builder

	sb.WriteString("BREAK-EVEN BY PRODUCT\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n\n")

	sb.WriteString(fmt.Sprintf("%-30s %18s %15s %12s\n", "Product", tf.valueLabel(result.Target), "Surrender", "Status"))
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	for i := range result.Results {
		r := &result.Results[i]
		sb.WriteString(fmt.Sprintf("%-30s %18s %15s %12s\n",
			tf.truncate(r.Product, 30),
			tf.formatValue(r, r.Value),
			tf.formatShort(r.SurrenderValue),
			tf.formatStatus(r.Success)))
	}
	for _, f := range result.Failures {
		sb.WriteString(fmt.Sprintf("%-30s %18s %15s %12s\n", tf.truncate(f.Code, 30), "-", "-", "skipped"))
	}
	sb.WriteString("\n")

	if len(result.Recommendations) > 0 {
		sb.WriteString("RECOMMENDATIONS\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, rec := range result.Recommendations {
			sb.WriteString(fmt.Sprintf("• %s\n", rec))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// JSONFormatter formats results as JSON
type JSONFormatter struct {
	Pretty bool
}

// Format generates JSON output
func (jf *JSONFormatter) Format(result *SolveResult) (string, error) {
	return jf.marshal(result)
}

// FormatMulti formats a per-product comparison as JSON
func (jf *JSONFormatter) FormatMulti(result *MultiProductResult) (string, error) {
	return jf.marshal(result)
}

func (jf *JSONFormatter) marshal(v interface{}) (string, error) {
	var data []byte
	var err error

	if jf.Pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return "", err
	}

	return string(data), nil
}

// Helper methods

func (tf *TableFormatter) valueLabel(target SolveTarget) string {
	if target == TargetRequiredPayment {
		return "Annual Payment"
	}
	return "Break-even Yield"
}

func (tf *TableFormatter) formatValue(result *SolveResult, v decimal.Decimal) string {
	if result.Target == TargetRequiredPayment {
		return tf.formatCurrency(v, result)
	}
	return v.StringFixed(2) + "%"
}

func (tf *TableFormatter) formatStatus(success bool) string {
	if success {
		return "✓ Converged"
	}
	return "⚠ Not met"
}

func (tf *TableFormatter) formatCurrency(d decimal.Decimal, result *SolveResult) string {
	places := int32(2)
	if result.Currency == domain.CurrencyHUF {
		places = 0
	}
	return d.StringFixed(places) + " " + string(result.Currency)
}

func (tf *TableFormatter) formatShort(d decimal.Decimal) string {
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000000)) {
		millions := d.Div(decimal.NewFromInt(1000000))
		return millions.StringFixed(2) + "M"
	} else if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000)) {
		thousands := d.Div(decimal.NewFromInt(1000))
		return thousands.StringFixed(1) + "K"
	}
	return d.StringFixed(0)
}

func (tf *TableFormatter) deltaSymbol(delta decimal.Decimal) string {
	if delta.IsPositive() {
		return "+"
	} else if delta.IsNegative() {
		return "-"
	}
	return " "
}

func (tf *TableFormatter) truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
