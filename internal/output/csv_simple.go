package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// CSVSummarizer implements the simple CSV output (one row per contract year).
type CSVSummarizer struct{}

func (c CSVSummarizer) Name() string { return "csv" }

func (c CSVSummarizer) Format(report *Report) ([]byte, error) {
	if report == nil || report.Results == nil {
		return nil, fmt.Errorf("report has no results")
	}
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Year", "Contributions", "Costs", "Yield", "Bonus", "TaxCredit", "Withdrawals", "EndBalance", "RedemptionFeePercent", "SurrenderValue"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range report.Results.Rows {
		record := []string{
			strconv.Itoa(row.Year),
			row.Contributions.StringFixed(2),
			row.CostTotal.StringFixed(2),
			row.Yield.StringFixed(2),
			row.Bonus.StringFixed(2),
			row.TaxCredit.StringFixed(2),
			row.Withdrawals.StringFixed(2),
			row.EndBalance.StringFixed(2),
			row.RedemptionFeePercent.StringFixed(2),
			row.SurrenderValue.StringFixed(2),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// DetailedCSVFormatter writes every cost category and account balance per year
type DetailedCSVFormatter struct{}

func (d DetailedCSVFormatter) Name() string { return "detailed-csv" }

func (d DetailedCSVFormatter) Format(report *Report) ([]byte, error) {
	if report == nil || report.Results == nil {
		return nil, fmt.Errorf("report has no results")
	}
	categories := sortedCategories(report.Results.Totals.Costs)

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Year", "Contributions", "CumulativeContributions"}
	for _, c := range categories {
		header = append(header, "Cost:"+string(c))
	}
	header = append(header, "CostTotal", "CumulativeCosts", "Yield", "Bonus", "TaxCredit", "Withdrawals",
		"ClientBalance", "InvestedBalance", "TaxBonusBalance", "EndBalance",
		"RedemptionFee", "TaxCreditClawback", "SurrenderValue", "NetReturn")
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, row := range report.Results.Rows {
		record := []string{
			strconv.Itoa(row.Year),
			row.Contributions.StringFixed(2),
			row.CumulativeContributions.StringFixed(2),
		}
		for _, c := range categories {
			record = append(record, row.Costs[c].StringFixed(2))
		}
		record = append(record,
			row.CostTotal.StringFixed(2),
			row.CumulativeCosts.Total().StringFixed(2),
			row.Yield.StringFixed(2),
			row.Bonus.StringFixed(2),
			row.TaxCredit.StringFixed(2),
			row.Withdrawals.StringFixed(2),
			row.ClientBalance.StringFixed(2),
			row.InvestedBalance.StringFixed(2),
			row.TaxBonusBalance.StringFixed(2),
			row.EndBalance.StringFixed(2),
			row.RedemptionFee.StringFixed(2),
			row.TaxCreditClawback.StringFixed(2),
			row.SurrenderValue.StringFixed(2),
			row.NetReturn.StringFixed(2),
		)
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
