package domain

import (
	"github.com/shopspring/decimal"
)

// Sensitivity parameter names
const (
	ParamYield     = "yield"
	ParamIndex     = "index"
	ParamPayment   = "payment"
	ParamAssetCost = "asset_cost"
)

// SensitivityParameter represents a contract input to sweep
type SensitivityParameter struct {
	Name        string          `yaml:"name" json:"name"`
	MinValue    decimal.Decimal `yaml:"min_value" json:"minValue"`
	MaxValue    decimal.Decimal `yaml:"max_value" json:"maxValue"`
	Steps       int             `yaml:"steps" json:"steps"`
	BaseValue   decimal.Decimal `yaml:"base_value" json:"baseValue"`
	Unit        string          `yaml:"unit" json:"unit"` // "percent" or "amount"
	Description string          `yaml:"description" json:"description"`
}

// IsPercent reports whether the parameter is measured in percentage points
func (p SensitivityParameter) IsPercent() bool {
	return p.Unit == "percent"
}

// ParameterSensitivityAnalysis represents a complete parameter sensitivity analysis
type ParameterSensitivityAnalysis struct {
	Currency     Currency               `json:"currency"`
	Parameters   []SensitivityParameter `json:"parameters"`
	Base         SensitivityMetrics     `json:"base"`
	Results      []SensitivityResult    `json:"results"`
	Summary      SensitivitySummary     `json:"summary"`
	AnalysisType string                 `json:"analysisType"` // "single", "multi"
}

// SensitivityResult is one point of a parameter sweep
type SensitivityResult struct {
	Parameter       string                     `json:"parameter"`
	ParameterValues map[string]decimal.Decimal `json:"parameterValues"`
	ScenarioName    string                     `json:"scenarioName"`
	KeyMetrics      SensitivityMetrics         `json:"keyMetrics"`
	Score           decimal.Decimal            `json:"score"`
}

// SensitivityMetrics holds the figures compared across sweep points
type SensitivityMetrics struct {
	FinalSurrender     decimal.Decimal `json:"finalSurrender"`
	FinalBalance       decimal.Decimal `json:"finalBalance"`
	PaidIn             decimal.Decimal `json:"paidIn"`
	TotalCosts         decimal.Decimal `json:"totalCosts"`
	BreakEvenYear      int             `json:"breakEvenYear"`
	SurrenderChange    decimal.Decimal `json:"surrenderChange"`
	SurrenderChangePct decimal.Decimal `json:"surrenderChangePct"`
}

// SensitivitySummary provides overall analysis summary
type SensitivitySummary struct {
	MostSensitiveParameter string                     `json:"mostSensitiveParameter"`
	SensitivityScores      map[string]decimal.Decimal `json:"sensitivityScores"`
	Recommendations        []string                   `json:"recommendations"`
	RiskLevel              string                     `json:"riskLevel"` // "LOW", "MEDIUM", "HIGH", "CRITICAL"
}

// SensitivityMatrix represents a 2D parameter sweep
type SensitivityMatrix struct {
	Currency      Currency                 `json:"currency"`
	Parameter1    SensitivityParameter     `json:"parameter1"`
	Parameter2    SensitivityParameter     `json:"parameter2"`
	Base          SensitivityMetrics       `json:"base"`
	MatrixResults [][]SensitivityResult    `json:"matrixResults"`
	Summary       SensitivityMatrixSummary `json:"summary"`
}

// SensitivityMatrixSummary provides matrix analysis summary
type SensitivityMatrixSummary struct {
	WorstCase string          `json:"worstCase"`
	BestCase  string          `json:"bestCase"`
	Spread    decimal.Decimal `json:"spread"` // best minus worst surrender value
}

// CommonParameters builds the default sweeps around a contract's own values:
// yield and asset cost move two points either way, indexation three points,
// the base payment a quarter either way.
func CommonParameters(in ContractInputs) []SensitivityParameter {
	pct := func(name, description string, base, delta decimal.Decimal, floor *decimal.Decimal) SensitivityParameter {
		lo := base.Sub(delta)
		if floor != nil && lo.LessThan(*floor) {
			lo = *floor
		}
		return SensitivityParameter{
			Name:        name,
			MinValue:    lo,
			MaxValue:    base.Add(delta),
			Steps:       5,
			BaseValue:   base,
			Unit:        "percent",
			Description: description,
		}
	}
	zero := decimal.Zero
	quarter := in.BasePayment.Div(decimal.NewFromInt(4))

	return []SensitivityParameter{
		pct(ParamYield, "Annual yield of the invested accounts", in.AnnualYieldPercent, decimal.NewFromInt(2), nil),
		pct(ParamIndex, "Default yearly payment indexation", in.Index.Default, decimal.NewFromInt(3), nil),
		{
			Name:        ParamPayment,
			MinValue:    in.BasePayment.Sub(quarter),
			MaxValue:    in.BasePayment.Add(quarter),
			Steps:       5,
			BaseValue:   in.BasePayment,
			Unit:        "amount",
			Description: "Annual contribution of year 1",
		},
		pct(ParamAssetCost, "Default annual asset cost", in.AssetCost.Default, decimal.NewFromInt(2), &zero),
	}
}

// DetermineRiskLevel grades the highest sensitivity score
func (ss *SensitivitySummary) DetermineRiskLevel() string {
	maxScore := decimal.Zero
	for _, score := range ss.SensitivityScores {
		if score.GreaterThan(maxScore) {
			maxScore = score
		}
	}

	switch {
	case maxScore.LessThan(decimal.NewFromInt(5)):
		return "LOW"
	case maxScore.LessThan(decimal.NewFromInt(15)):
		return "MEDIUM"
	case maxScore.LessThan(decimal.NewFromInt(30)):
		return "HIGH"
	default:
		return "CRITICAL"
	}
}

// GenerateRecommendations derives advice from the risk level and the most
// sensitive parameter
func (ss *SensitivitySummary) GenerateRecommendations() []string {
	recommendations := []string{}

	switch ss.DetermineRiskLevel() {
	case "LOW":
		recommendations = append(recommendations, "Surrender value is robust to the swept inputs")
	case "MEDIUM":
		recommendations = append(recommendations, "Review the assumed inputs before signing")
	case "HIGH":
		recommendations = append(recommendations, "Surrender value is sensitive to input changes")
		recommendations = append(recommendations, "Stress test with pessimistic assumptions")
	case "CRITICAL":
		recommendations = append(recommendations, "Surrender value is highly sensitive to input changes")
		recommendations = append(recommendations, "Use conservative assumptions when comparing products")
	}

	switch ss.MostSensitiveParameter {
	case ParamYield:
		recommendations = append(recommendations, "Compare results at a lower yield before relying on them")
	case ParamIndex:
		recommendations = append(recommendations, "Check whether indexation can be declined in later years")
	case ParamPayment:
		recommendations = append(recommendations, "Payment level drives the outcome; confirm it is sustainable")
	case ParamAssetCost:
		recommendations = append(recommendations, "Asset cost weighs heavily; compare products on it")
	}

	return recommendations
}
