package compare

import (
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

func sampleRankingSet() *RankingSet {
	return &RankingSet{
		RunID:        "3f0c1f8e-7a4c-4f3e-9a38-6f1f0d3c2b11",
		ContractName: "Family Savings",
		ConfigPath:   "/path/to/config.yaml",
		Currency:     "HUF",
		Entries: []RankEntry{
			{
				Rank:               1,
				Code:               "alpha",
				Name:               "Alpha Savings",
				Currency:           "HUF",
				FinalSurrender:     decimal.NewFromInt(9800000),
				FinalBalance:       decimal.NewFromInt(9800000),
				TotalContributions: decimal.NewFromInt(8000000),
				TotalCost:          decimal.NewFromInt(400000),
				TotalExtras:        decimal.NewFromInt(260000),
				BreakEvenYear:      4,
			},
			{
				Rank:               2,
				Code:               "beta",
				Name:               "Beta Pension",
				Currency:           "HUF",
				FinalSurrender:     decimal.NewFromInt(9300000),
				FinalBalance:       decimal.NewFromInt(9400000),
				TotalContributions: decimal.NewFromInt(8000000),
				TotalCost:          decimal.NewFromInt(650000),
				DiffFromBest:       decimal.NewFromInt(-500000),
				DiffPctFromBest:    decimal.NewFromFloat(-5.1),
			},
		},
		Failures: []CandidateFailure{
			{Code: "gamma", Name: "Gamma EUR", Error: "product gamma (apply): offered in EUR, contract is in HUF"},
		},
		Recommendations: []string{
			"Best Surrender Value: Alpha Savings pays 9800000 HUF, 500000 more than Beta Pension",
		},
	}
}

func TestTableFormatter_Format(t *testing.T) {
	formatter := &TableFormatter{}
	result := formatter.Format(sampleRankingSet())

	if result == "" {
		t.Fatal("Expected formatted output, got empty string")
	}

	expected := []string{
		"PRODUCT RANKING",
		"Contract: Family Savings",
		"Configuration: /path/to/config.yaml",
		"Alpha Savings",
		"Beta Pension",
		"9.80M",
		"year 4",
		"never",
		"COMPARISON TO BEST",
		"-500.0K (-5.1%)",
		"SKIPPED CANDIDATES",
		"gamma: product gamma",
		"RECOMMENDATIONS",
	}
	for _, want := range expected {
		if !strings.Contains(result, want) {
			t.Errorf("Expected %q in output:\n%s", want, result)
		}
	}
}

func TestTableFormatter_Format_SingleEntry(t *testing.T) {
	formatter := &TableFormatter{}
	rs := sampleRankingSet()
	rs.Entries = rs.Entries[:1]
	rs.Failures = nil
	rs.Recommendations = nil

	result := formatter.Format(rs)

	if strings.Contains(result, "COMPARISON TO BEST") {
		t.Error("Should not compare a single entry")
	}
	if strings.Contains(result, "SKIPPED") {
		t.Error("Should not list skipped candidates when none failed")
	}
	if strings.Contains(result, "RECOMMENDATIONS") {
		t.Error("Should not print an empty recommendations section")
	}
}

func TestTableFormatter_formatDecimal(t *testing.T) {
	formatter := &TableFormatter{}

	tests := []struct {
		in   int64
		want string
	}{
		{950, "950"},
		{12500, "12.5K"},
		{-2500000, "-2.50M"},
	}
	for _, tt := range tests {
		if got := formatter.formatDecimal(decimal.NewFromInt(tt.in)); got != tt.want {
			t.Errorf("formatDecimal(%d) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestTableFormatter_truncate(t *testing.T) {
	formatter := &TableFormatter{}

	if got := formatter.truncate("Posta Trend Nyugdíj Biztosítás", 12); got != "Posta Tre..." {
		t.Errorf("Unexpected truncation: %q", got)
	}
	if got := formatter.truncate("short", 12); got != "short" {
		t.Errorf("Short names should be kept, got %q", got)
	}
}

func TestTableFormatter_FormatCompact(t *testing.T) {
	formatter := &TableFormatter{}
	result := formatter.FormatCompact(sampleRankingSet())

	if result != "1. Alpha Savings: 9.80M | 2. Beta Pension: 9.30M" {
		t.Errorf("Unexpected compact output: %s", result)
	}
}

func TestCSVFormatter_Format(t *testing.T) {
	formatter := &CSVFormatter{}

	result, err := formatter.Format(sampleRankingSet())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(result), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected header, 2 entries and 1 failure, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Rank,Code,Product") {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "1,alpha,Alpha Savings,HUF,9800000.00") {
		t.Errorf("Unexpected first row: %s", lines[1])
	}
	if !strings.Contains(lines[2], "-500000.00") {
		t.Errorf("Expected diff from best in second row: %s", lines[2])
	}
	if !strings.Contains(lines[3], "failed: product gamma") {
		t.Errorf("Expected failure row: %s", lines[3])
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	for _, pretty := range []bool{false, true} {
		formatter := &JSONFormatter{Pretty: pretty}

		result, err := formatter.Format(sampleRankingSet())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		var decoded map[string]interface{}
		if err := json.Unmarshal([]byte(result), &decoded); err != nil {
			t.Fatalf("Output is not valid JSON: %v", err)
		}
		for _, key := range []string{"runId", "entries", "failures", "recommendations"} {
			if _, ok := decoded[key]; !ok {
				t.Errorf("Expected key %q in JSON output", key)
			}
		}
		if pretty && !strings.Contains(result, "\n  ") {
			t.Error("Expected indented output")
		}
	}
}
