package output

import (
	"fmt"
	"os"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func buildTestReport() *Report {
	row := func(year int, paid, cost, balance, feePct, surrender float64) domain.YearlyBreakdownRow {
		return domain.YearlyBreakdownRow{
			Year:                    year,
			Contributions:           dec(paid),
			CumulativeContributions: dec(paid * float64(year)),
			Costs:                   domain.CostMap{domain.CostAdmin: dec(cost)},
			CostTotal:               dec(cost),
			CumulativeCosts:         domain.CostMap{domain.CostAdmin: dec(cost * float64(year))},
			Yield:                   dec(50000),
			ClientBalance:           dec(balance),
			EndBalance:              dec(balance),
			RedemptionFeePercent:    dec(feePct),
			SurrenderValue:          dec(surrender),
		}
	}
	results := &domain.ResultsDaily{
		Currency: domain.CurrencyHUF,
		Years:    2,
		Rows: []domain.YearlyBreakdownRow{
			row(1, 1000000, 6000, 1044000, 20, 835200),
			row(2, 1000000, 6000, 2140000, 0, 2140000),
		},
		Totals: domain.Totals{
			Contributions: dec(2000000),
			Costs:         domain.CostMap{domain.CostAdmin: dec(12000)},
			CostTotal:     dec(12000),
			EndBalance:    dec(2140000),
			Surrender:     dec(2140000),
			Return:        dec(140000),
		},
		RedemptionBase: domain.RedemptionTotalAccount,
		BreakEvenYear:  2,
		NetOfTax: &domain.NetOfTax{
			TaxPercent:  dec(15),
			TaxableGain: dec(140000),
			Tax:         dec(21000),
			NetPayout:   dec(2119000),
		},
		Diagnostics: []domain.Diagnostic{
			{Level: domain.LevelWarning, Code: "WITHDRAWAL_DISABLED", Message: "withdrawals are not allowed", Year: 2},
		},
	}
	return NewReport("Test <Contract>", "test-product", results)
}

func TestFormatterFunc(t *testing.T) {
	var received *Report
	formatter := FormatterFunc{
		ID: "test-formatter",
		F: func(report *Report) ([]byte, error) {
			received = report
			return []byte("test output"), nil
		},
	}

	report := buildTestReport()
	out, err := formatter.Format(report)

	require.NoError(t, err)
	assert.Equal(t, "test-formatter", formatter.Name())
	assert.Same(t, report, received)
	assert.Equal(t, []byte("test output"), out)
}

func TestWriteFormatted(t *testing.T) {
	t.Chdir(t.TempDir())

	formatter := FormatterFunc{
		ID: "test-formatter",
		F:  func(*Report) ([]byte, error) { return []byte("test output content"), nil },
	}

	filename, err := WriteFormatted(formatter, buildTestReport(), "txt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "savings_report_"))
	assert.True(t, strings.HasSuffix(filename, ".txt"))

	content, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, "test output content", string(content))
}

func TestWriteFormatted_FormatterError(t *testing.T) {
	formatter := FormatterFunc{
		ID: "error-formatter",
		F:  func(*Report) ([]byte, error) { return nil, fmt.Errorf("formatter error") },
	}

	filename, err := WriteFormatted(formatter, buildTestReport(), "txt")
	assert.EqualError(t, err, "formatter error")
	assert.Empty(t, filename)
}

func TestGetFormatterByName(t *testing.T) {
	for _, name := range AvailableFormatterNames() {
		f := GetFormatterByName(name)
		require.NotNil(t, f, name)
		assert.Equal(t, name, f.Name())
	}

	assert.Equal(t, "console", GetFormatterByName("verbose").Name())
	assert.Equal(t, "console", GetFormatterByName(" Console-Verbose ").Name())
	assert.Equal(t, "console-lite", GetFormatterByName("summary").Name())
	assert.Nil(t, GetFormatterByName("xlsx"))
	assert.Contains(t, AvailableFormatAliases(), "verbose")
}

func TestFormattersRejectMissingResults(t *testing.T) {
	for _, f := range formatters {
		if f.Name() == "json" {
			continue
		}
		_, err := f.Format(&Report{Name: "empty"})
		assert.Error(t, err, f.Name())
	}
}

func TestConsoleFormatter(t *testing.T) {
	out, err := ConsoleFormatter{}.Format(buildTestReport())
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "Contract: Test <Contract>")
	assert.Contains(t, text, "Product: test-product")
	assert.Contains(t, text, "Paid In: 2000000 HUF")
	assert.Contains(t, text, "Surrender Value: 2140000 HUF")
	assert.Contains(t, text, "Break-even: year 2")
	assert.Contains(t, text, "Net of 15.00% tax: 2119000 HUF")
	assert.Contains(t, text, "[WITHDRAWAL_DISABLED] year 2: withdrawals are not allowed")
}

func TestConsoleVerboseFormatter(t *testing.T) {
	out, err := ConsoleVerboseFormatter{}.Format(buildTestReport())
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "DETAILED CONTRACT CASH-FLOW ANALYSIS")
	assert.Contains(t, text, "Redemption base: total-account")
	assert.Contains(t, text, "835200")
	assert.Contains(t, text, "COSTS BY CATEGORY:")
	assert.Contains(t, text, "admin")
	assert.Contains(t, text, "Client:    2140000 HUF")
	assert.Contains(t, text, "Taxable gain: 140000 HUF, tax 21000 HUF, net payout 2119000 HUF")
}

func TestCSVSummarizer(t *testing.T) {
	out, err := CSVSummarizer{}.Format(buildTestReport())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Year,Contributions,Costs"))
	assert.Equal(t, "1,1000000.00,6000.00,50000.00,0.00,0.00,0.00,1044000.00,20.00,835200.00", lines[1])
}

func TestDetailedCSVFormatter(t *testing.T) {
	out, err := DetailedCSVFormatter{}.Format(buildTestReport())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Cost:admin")
	assert.Contains(t, lines[0], "SurrenderValue")
	assert.True(t, strings.HasPrefix(lines[2], "2,1000000.00,2000000.00,6000.00,6000.00,12000.00"))
}

func TestJSONFormatter(t *testing.T) {
	out, err := JSONFormatter{}.Format(buildTestReport())
	require.NoError(t, err)

	var decoded struct {
		Name    string `json:"name"`
		Product string `json:"product"`
		Results struct {
			Currency      string `json:"currency"`
			BreakEvenYear int    `json:"breakEvenYear"`
			Rows          []struct {
				Year int `json:"year"`
			} `json:"rows"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "Test <Contract>", decoded.Name)
	assert.Equal(t, "HUF", decoded.Results.Currency)
	assert.Equal(t, 2, decoded.Results.BreakEvenYear)
	assert.Len(t, decoded.Results.Rows, 2)
}

func TestHTMLFormatter(t *testing.T) {
	out, err := HTMLFormatter{}.Format(buildTestReport())
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "Test &lt;Contract&gt;", "names are escaped")
	assert.Contains(t, html, "2140000 HUF")
	assert.Contains(t, html, "WITHDRAWAL_DISABLED")
	assert.Contains(t, html, DefaultAssumptions[0])
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "1234568 HUF", FormatCurrency(dec(1234567.8), domain.CurrencyHUF))
	assert.Equal(t, "1234.57 EUR", FormatCurrency(dec(1234.567), domain.CurrencyEUR))
	assert.Equal(t, "-5.00 USD", FormatCurrency(dec(-5), domain.CurrencyUSD))
	assert.Equal(t, "12.50%", FormatPercentage(dec(12.5)))
}

func TestPDFFormatter(t *testing.T) {
	out, err := PDFFormatter{}.Format(buildTestReport())
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.True(t, strings.HasPrefix(string(out), "%PDF-"), "output is a pdf document")
	assert.Equal(t, "pdf", GetFormatterByName("pdf").Name())

	_, err = PDFFormatter{}.Format(&Report{})
	assert.Error(t, err)
}
