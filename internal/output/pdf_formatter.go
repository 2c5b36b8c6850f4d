package output

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/go-pdf/fpdf"
	"github.com/rgehrsitz/savingsim/internal/domain"
)

// PDFFormatter renders the summary and yearly breakdown as an A4 document
type PDFFormatter struct{}

func (p PDFFormatter) Name() string { return "pdf" }

const (
	pdfMargin  = 12.0
	pdfRowH    = 6.0
	pdfHeaderH = 7.0
)

func (p PDFFormatter) Format(report *Report) ([]byte, error) {
	if report == nil || report.Results == nil {
		return nil, fmt.Errorf("report has no results")
	}
	r := report.Results

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle("Contract cash-flow analysis", true)
	// core fonts are cp1252
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	width, _ := pdf.GetPageSize()
	contentWidth := width - 2*pdfMargin

	pdf.SetFont("Arial", "B", 18)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(contentWidth, 10, tr("Contract cash-flow analysis: "+report.Name), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.SetTextColor(60, 60, 60)
	if report.Product != "" {
		pdf.CellFormat(contentWidth, 6, tr("Product: "+report.Product), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(contentWidth, 6, fmt.Sprintf("Currency: %s   Years: %d   Redemption base: %s", r.Currency, r.Years, r.RedemptionBase), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	summary := [][2]string{
		{"Paid in", FormatCurrency(r.Totals.Contributions, r.Currency)},
		{"Costs", FormatCurrency(r.Totals.CostTotal, r.Currency)},
		{"Bonus + tax credit", FormatCurrency(r.Totals.Bonus.Add(r.Totals.TaxCredit), r.Currency)},
		{"Withdrawn", FormatCurrency(r.Totals.Withdrawals, r.Currency)},
		{"Final balance", FormatCurrency(r.Totals.EndBalance, r.Currency)},
		{"Surrender value", FormatCurrency(r.Totals.Surrender, r.Currency)},
	}
	if r.BreakEvenYear > 0 {
		summary = append(summary, [2]string{"Break-even", "year " + strconv.Itoa(r.BreakEvenYear)})
	}
	if r.NetOfTax != nil {
		summary = append(summary, [2]string{"Net of " + FormatPercentage(r.NetOfTax.TaxPercent) + " tax", FormatCurrency(r.NetOfTax.NetPayout, r.Currency)})
	}
	pdf.SetFillColor(245, 247, 250)
	for _, line := range summary {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(50, pdfRowH, line[0], "1", 0, "L", true, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(60, pdfRowH, line[1], "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	headers := []string{"Year", "Paid In", "Costs", "Yield", "Bonus+TC", "Withdrawn", "Balance", "Fee %", "Surrender"}
	colW := contentWidth / float64(len(headers))
	writeHeader := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(0, 51, 102)
		pdf.SetTextColor(255, 255, 255)
		for _, h := range headers {
			pdf.CellFormat(colW, pdfHeaderH, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
		pdf.SetTextColor(40, 40, 40)
	}
	writeHeader()

	_, pageH := pdf.GetPageSize()
	for i, row := range r.Rows {
		if pdf.GetY()+pdfRowH > pageH-pdfMargin-10 {
			pdf.AddPage()
			writeHeader()
		}
		fill := i%2 == 1
		pdf.SetFillColor(240, 244, 248)
		cells := []string{
			strconv.Itoa(row.Year),
			amount(row.Contributions),
			amount(row.CostTotal),
			amount(row.Yield),
			amount(row.Bonus.Add(row.TaxCredit)),
			amount(row.Withdrawals),
			amount(row.EndBalance),
			row.RedemptionFeePercent.StringFixed(1),
			amount(row.SurrenderValue),
		}
		for j, c := range cells {
			align := "R"
			if j == 0 {
				align = "C"
			}
			pdf.CellFormat(colW, pdfRowH, c, "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(r.Diagnostics) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(contentWidth, pdfRowH, "Diagnostics", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, d := range r.Diagnostics {
			pdf.MultiCell(contentWidth, 5, tr(diagnosticLine(d)), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func diagnosticLine(d domain.Diagnostic) string {
	if d.Year > 0 {
		return fmt.Sprintf("[%s] year %d %s: %s", d.Level, d.Year, d.Code, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Level, d.Code, d.Message)
}
