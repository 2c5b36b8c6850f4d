package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/shopspring/decimal"
)

// SensitivityFormatter renders a parameter sweep or a sensitivity matrix
type SensitivityFormatter interface {
	FormatSensitivityAnalysis(analysis any) (string, error)
	Name() string
}

// SensitivityConsoleFormatter formats sensitivity analysis output for console
type SensitivityConsoleFormatter struct{}

func (scf SensitivityConsoleFormatter) Name() string { return "console" }

func (scf SensitivityConsoleFormatter) FormatSensitivityAnalysis(analysis any) (string, error) {
	var buf bytes.Buffer

	switch a := analysis.(type) {
	case *domain.ParameterSensitivityAnalysis:
		return scf.formatAnalysis(&buf, a)
	case *domain.SensitivityMatrix:
		return scf.formatMatrix(&buf, a)
	default:
		return "", fmt.Errorf("unsupported analysis type: %T", analysis)
	}
}

// paramValue prints percent parameters with a % sign and amounts in currency
func paramValue(p domain.SensitivityParameter, v decimal.Decimal, cur domain.Currency) string {
	if p.IsPercent() {
		return FormatPercentage(v)
	}
	return FormatCurrency(v, cur)
}

func (scf SensitivityConsoleFormatter) formatAnalysis(buf *bytes.Buffer, analysis *domain.ParameterSensitivityAnalysis) (string, error) {
	if len(analysis.Parameters) == 0 || len(analysis.Results) == 0 {
		return "", fmt.Errorf("no parameters or results in analysis")
	}
	cur := analysis.Currency

	fmt.Fprintln(buf, "SENSITIVITY ANALYSIS")
	fmt.Fprintln(buf, "=================================================================")
	fmt.Fprintf(buf, "Base Surrender Value: %s\n", FormatCurrency(analysis.Base.FinalSurrender, cur))
	fmt.Fprintf(buf, "Base Paid In: %s\n", FormatCurrency(analysis.Base.PaidIn, cur))
	fmt.Fprintln(buf)

	for _, param := range analysis.Parameters {
		fmt.Fprintf(buf, "%s: %s\n", strings.ToUpper(strings.ReplaceAll(param.Name, "_", " ")), param.Description)
		fmt.Fprintf(buf, "Base: %s  Range: %s to %s (%d steps)\n",
			paramValue(param, param.BaseValue, cur),
			paramValue(param, param.MinValue, cur),
			paramValue(param, param.MaxValue, cur),
			param.Steps)
		fmt.Fprintf(buf, "%-20s %-20s %-20s %-10s %-10s\n", "Value", "Surrender", "Change", "Change %", "Break-even")
		fmt.Fprintln(buf, strings.Repeat("-", 84))

		for _, result := range analysis.Results {
			if result.Parameter != param.Name {
				continue
			}
			value := result.ParameterValues[param.Name]
			label := paramValue(param, value, cur)
			if value.Equal(param.BaseValue) {
				label += " <- BASE"
			}
			breakEven := "never"
			if result.KeyMetrics.BreakEvenYear > 0 {
				breakEven = fmt.Sprintf("year %d", result.KeyMetrics.BreakEvenYear)
			}
			fmt.Fprintf(buf, "%-20s %-20s %-20s %-10s %-10s\n",
				label,
				FormatCurrency(result.KeyMetrics.FinalSurrender, cur),
				FormatCurrency(result.KeyMetrics.SurrenderChange, cur),
				FormatPercentage(result.KeyMetrics.SurrenderChangePct),
				breakEven)
		}
		fmt.Fprintf(buf, "Sensitivity score: %s\n\n", analysis.Summary.SensitivityScores[param.Name].StringFixed(2))
	}

	if analysis.Summary.MostSensitiveParameter != "" {
		fmt.Fprintf(buf, "MOST SENSITIVE: %s\n", analysis.Summary.MostSensitiveParameter)
	}
	fmt.Fprintf(buf, "RISK LEVEL: %s\n", analysis.Summary.RiskLevel)
	fmt.Fprintln(buf)

	fmt.Fprintln(buf, "RECOMMENDATIONS:")
	for _, rec := range analysis.Summary.Recommendations {
		fmt.Fprintf(buf, "  • %s\n", rec)
	}

	return buf.String(), nil
}

func (scf SensitivityConsoleFormatter) formatMatrix(buf *bytes.Buffer, matrix *domain.SensitivityMatrix) (string, error) {
	if len(matrix.MatrixResults) == 0 || len(matrix.MatrixResults[0]) == 0 {
		return "", fmt.Errorf("empty sensitivity matrix")
	}
	cur := matrix.Currency
	p1, p2 := matrix.Parameter1, matrix.Parameter2

	fmt.Fprintln(buf, "SENSITIVITY MATRIX ANALYSIS")
	fmt.Fprintln(buf, "=================================================================")
	fmt.Fprintf(buf, "Rows: %s (%s to %s)\n", p1.Name, paramValue(p1, p1.MinValue, cur), paramValue(p1, p1.MaxValue, cur))
	fmt.Fprintf(buf, "Columns: %s (%s to %s)\n", p2.Name, paramValue(p2, p2.MinValue, cur), paramValue(p2, p2.MaxValue, cur))
	fmt.Fprintf(buf, "Base Surrender Value: %s\n", FormatCurrency(matrix.Base.FinalSurrender, cur))
	fmt.Fprintln(buf)

	fmt.Fprintf(buf, "%-16s", "")
	for _, cell := range matrix.MatrixResults[0] {
		fmt.Fprintf(buf, " %-18s", paramValue(p2, cell.ParameterValues[p2.Name], cur))
	}
	fmt.Fprintln(buf)
	fmt.Fprintln(buf, strings.Repeat("-", 16+19*len(matrix.MatrixResults[0])))

	for _, row := range matrix.MatrixResults {
		fmt.Fprintf(buf, "%-16s", paramValue(p1, row[0].ParameterValues[p1.Name], cur))
		for _, cell := range row {
			fmt.Fprintf(buf, " %-18s", FormatCurrency(cell.KeyMetrics.FinalSurrender, cur))
		}
		fmt.Fprintln(buf)
	}
	fmt.Fprintln(buf)

	fmt.Fprintf(buf, "BEST CASE: %s\n", matrix.Summary.BestCase)
	fmt.Fprintf(buf, "WORST CASE: %s\n", matrix.Summary.WorstCase)
	fmt.Fprintf(buf, "SPREAD: %s\n", FormatCurrency(matrix.Summary.Spread, cur))

	return buf.String(), nil
}

// SensitivityCSVFormatter formats sensitivity analysis output as CSV
type SensitivityCSVFormatter struct{}

func (scf SensitivityCSVFormatter) Name() string { return "csv" }

func (scf SensitivityCSVFormatter) FormatSensitivityAnalysis(analysis any) (string, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	metrics := func(m domain.SensitivityMetrics) []string {
		return []string{
			m.FinalSurrender.StringFixed(2),
			m.FinalBalance.StringFixed(2),
			m.PaidIn.StringFixed(2),
			m.TotalCosts.StringFixed(2),
			strconv.Itoa(m.BreakEvenYear),
			m.SurrenderChange.StringFixed(2),
			m.SurrenderChangePct.StringFixed(4),
		}
	}
	metricHeader := []string{"final_surrender", "final_balance", "paid_in", "total_costs", "break_even_year", "surrender_change", "surrender_change_pct"}

	switch a := analysis.(type) {
	case *domain.ParameterSensitivityAnalysis:
		if err := w.Write(append([]string{"parameter", "value"}, metricHeader...)); err != nil {
			return "", err
		}
		for _, r := range a.Results {
			record := append([]string{r.Parameter, r.ParameterValues[r.Parameter].String()}, metrics(r.KeyMetrics)...)
			if err := w.Write(record); err != nil {
				return "", err
			}
		}
	case *domain.SensitivityMatrix:
		header := append([]string{"parameter_1", "value_1", "parameter_2", "value_2"}, metricHeader...)
		if err := w.Write(header); err != nil {
			return "", err
		}
		for _, row := range a.MatrixResults {
			for _, cell := range row {
				record := append([]string{
					a.Parameter1.Name, cell.ParameterValues[a.Parameter1.Name].String(),
					a.Parameter2.Name, cell.ParameterValues[a.Parameter2.Name].String(),
				}, metrics(cell.KeyMetrics)...)
				if err := w.Write(record); err != nil {
					return "", err
				}
			}
		}
	default:
		return "", fmt.Errorf("unsupported analysis type: %T", analysis)
	}

	w.Flush()
	return buf.String(), w.Error()
}

// SensitivityJSONFormatter formats sensitivity analysis output as JSON
type SensitivityJSONFormatter struct{}

func (sjf SensitivityJSONFormatter) Name() string { return "json" }

func (sjf SensitivityJSONFormatter) FormatSensitivityAnalysis(analysis any) (string, error) {
	switch analysis.(type) {
	case *domain.ParameterSensitivityAnalysis, *domain.SensitivityMatrix:
	default:
		return "", fmt.Errorf("unsupported analysis type: %T", analysis)
	}
	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

// NewSensitivityFormatter returns the formatter for format, or nil
func NewSensitivityFormatter(format string) SensitivityFormatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "console", "table", "":
		return SensitivityConsoleFormatter{}
	case "csv":
		return SensitivityCSVFormatter{}
	case "json":
		return SensitivityJSONFormatter{}
	}
	return nil
}
