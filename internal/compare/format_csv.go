package compare

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// CSVFormatter formats ranking results as CSV
type CSVFormatter struct{}

// Format generates CSV output for ranking results
func (cf *CSVFormatter) Format(rs *RankingSet) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	// Write header
	header := []string{
		"Rank",
		"Code",
		"Product",
		"Currency",
		"Final Surrender",
		"Final Balance",
		"Total Contributions",
		"Total Cost",
		"Bonus + Tax Credit",
		"Break-Even Year",
		"Diff from Best",
		"Diff % from Best",
		"Status",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	for _, e := range rs.Entries {
		if err := writer.Write(cf.formatRow(&e)); err != nil {
			return "", err
		}
	}

	// Failed candidates keep their row so the file lists every candidate
	for _, f := range rs.Failures {
		row := make([]string, len(header))
		row[1] = f.Code
		row[2] = f.Name
		row[len(row)-1] = "failed: " + f.Error
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// formatRow formats a ranked entry as a CSV row
func (cf *CSVFormatter) formatRow(e *RankEntry) []string {
	return []string{
		formatInt(e.Rank),
		e.Code,
		e.Name,
		string(e.Currency),
		e.FinalSurrender.StringFixed(2),
		e.FinalBalance.StringFixed(2),
		e.TotalContributions.StringFixed(2),
		e.TotalCost.StringFixed(2),
		e.TotalExtras.StringFixed(2),
		formatInt(e.BreakEvenYear),
		e.DiffFromBest.StringFixed(2),
		e.DiffPctFromBest.StringFixed(2),
		"ok",
	}
}

func formatInt(i int) string {
	return fmt.Sprintf("%d", i)
}
