package calculation

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrUnknownParameter is returned for a sweep over an input the analyzer
// cannot set
var ErrUnknownParameter = errors.New("unknown sensitivity parameter")

// SensitivityAnalyzer performs parameter sweep analysis over contract inputs
type SensitivityAnalyzer struct {
	calculationEngine *CalculationEngine
}

// NewSensitivityAnalyzer creates an analyzer; a nil engine gets a default one
func NewSensitivityAnalyzer(engine *CalculationEngine) *SensitivityAnalyzer {
	if engine == nil {
		engine = NewCalculationEngine()
	}
	return &SensitivityAnalyzer{calculationEngine: engine}
}

// AnalyzeSingleParameter sweeps one parameter and compares every point to
// the unmodified contract
func (sa *SensitivityAnalyzer) AnalyzeSingleParameter(ctx context.Context, inputs domain.ContractInputs, parameter domain.SensitivityParameter) (*domain.ParameterSensitivityAnalysis, error) {
	base, err := sa.baseMetrics(ctx, inputs)
	if err != nil {
		return nil, err
	}
	results, err := sa.sweep(ctx, inputs, parameter, base)
	if err != nil {
		return nil, err
	}

	return &domain.ParameterSensitivityAnalysis{
		Currency:     inputs.Currency,
		Parameters:   []domain.SensitivityParameter{parameter},
		Base:         base,
		Results:      results,
		Summary:      summarize(results),
		AnalysisType: "single",
	}, nil
}

// AnalyzeMultipleParameters sweeps each parameter independently around the
// same base contract
func (sa *SensitivityAnalyzer) AnalyzeMultipleParameters(ctx context.Context, inputs domain.ContractInputs, parameters []domain.SensitivityParameter) (*domain.ParameterSensitivityAnalysis, error) {
	if len(parameters) == 0 {
		return nil, fmt.Errorf("no parameters to analyze")
	}
	base, err := sa.baseMetrics(ctx, inputs)
	if err != nil {
		return nil, err
	}

	allResults := make([]domain.SensitivityResult, 0)
	for _, param := range parameters {
		results, err := sa.sweep(ctx, inputs, param, base)
		if err != nil {
			return nil, fmt.Errorf("failed to analyze parameter %s: %w", param.Name, err)
		}
		allResults = append(allResults, results...)
	}

	return &domain.ParameterSensitivityAnalysis{
		Currency:     inputs.Currency,
		Parameters:   parameters,
		Base:         base,
		Results:      allResults,
		Summary:      summarize(allResults),
		AnalysisType: "multi",
	}, nil
}

// AnalyzeParameterMatrix sweeps two parameters against each other
func (sa *SensitivityAnalyzer) AnalyzeParameterMatrix(ctx context.Context, inputs domain.ContractInputs, param1, param2 domain.SensitivityParameter) (*domain.SensitivityMatrix, error) {
	if param1.Name == param2.Name {
		return nil, fmt.Errorf("matrix needs two different parameters, got %s twice", param1.Name)
	}
	base, err := sa.baseMetrics(ctx, inputs)
	if err != nil {
		return nil, err
	}
	values1, err := generateParameterValues(param1)
	if err != nil {
		return nil, err
	}
	values2, err := generateParameterValues(param2)
	if err != nil {
		return nil, err
	}

	matrixResults := make([][]domain.SensitivityResult, len(values1))
	for i, value1 := range values1 {
		matrixResults[i] = make([]domain.SensitivityResult, len(values2))
		for j, value2 := range values2 {
			modified, err := ApplyParameter(inputs, param1.Name, value1)
			if err != nil {
				return nil, err
			}
			if modified, err = ApplyParameter(modified, param2.Name, value2); err != nil {
				return nil, err
			}
			metrics, err := sa.run(ctx, modified, base)
			if err != nil {
				return nil, fmt.Errorf("failed to run %s=%s, %s=%s: %w",
					param1.Name, value1.String(), param2.Name, value2.String(), err)
			}
			matrixResults[i][j] = domain.SensitivityResult{
				ParameterValues: map[string]decimal.Decimal{param1.Name: value1, param2.Name: value2},
				ScenarioName:    fmt.Sprintf("%s=%s, %s=%s", param1.Name, value1.String(), param2.Name, value2.String()),
				KeyMetrics:      metrics,
			}
		}
	}

	return &domain.SensitivityMatrix{
		Currency:      inputs.Currency,
		Parameter1:    param1,
		Parameter2:    param2,
		Base:          base,
		MatrixResults: matrixResults,
		Summary:       matrixSummary(matrixResults),
	}, nil
}

// ApplyParameter returns a copy of inputs with the named parameter set
func ApplyParameter(inputs domain.ContractInputs, name string, value decimal.Decimal) (domain.ContractInputs, error) {
	out := inputs.DeepCopy()
	switch name {
	case domain.ParamYield:
		out.AnnualYieldPercent = value
	case domain.ParamIndex:
		out.Index.Default = value
	case domain.ParamPayment:
		out.BasePayment = value
	case domain.ParamAssetCost:
		out.AssetCost.Default = value
	default:
		return domain.ContractInputs{}, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	return out, nil
}

// generateParameterValues spreads Steps values evenly from MinValue to MaxValue
func generateParameterValues(param domain.SensitivityParameter) ([]decimal.Decimal, error) {
	if param.Steps < 1 {
		return nil, fmt.Errorf("parameter %s: steps must be at least 1", param.Name)
	}
	if param.MaxValue.LessThan(param.MinValue) {
		return nil, fmt.Errorf("parameter %s: max %s is below min %s", param.Name, param.MaxValue.String(), param.MinValue.String())
	}
	if param.Steps == 1 {
		return []decimal.Decimal{param.BaseValue}, nil
	}

	stepSize := param.MaxValue.Sub(param.MinValue).Div(decimal.NewFromInt(int64(param.Steps - 1)))
	values := make([]decimal.Decimal, 0, param.Steps)
	for i := 0; i < param.Steps-1; i++ {
		values = append(values, param.MinValue.Add(stepSize.Mul(decimal.NewFromInt(int64(i)))))
	}
	return append(values, param.MaxValue), nil
}

func (sa *SensitivityAnalyzer) sweep(ctx context.Context, inputs domain.ContractInputs, param domain.SensitivityParameter, base domain.SensitivityMetrics) ([]domain.SensitivityResult, error) {
	values, err := generateParameterValues(param)
	if err != nil {
		return nil, err
	}

	results := make([]domain.SensitivityResult, 0, len(values))
	for _, value := range values {
		modified, err := ApplyParameter(inputs, param.Name, value)
		if err != nil {
			return nil, err
		}
		metrics, err := sa.run(ctx, modified, base)
		if err != nil {
			return nil, fmt.Errorf("failed to run %s=%s: %w", param.Name, value.String(), err)
		}
		results = append(results, domain.SensitivityResult{
			Parameter:       param.Name,
			ParameterValues: map[string]decimal.Decimal{param.Name: value},
			ScenarioName:    fmt.Sprintf("%s=%s", param.Name, value.String()),
			KeyMetrics:      metrics,
			Score:           sensitivityScore(param, value, metrics),
		})
	}
	return results, nil
}

func (sa *SensitivityAnalyzer) baseMetrics(ctx context.Context, inputs domain.ContractInputs) (domain.SensitivityMetrics, error) {
	metrics, err := sa.run(ctx, inputs, domain.SensitivityMetrics{})
	if err != nil {
		return domain.SensitivityMetrics{}, fmt.Errorf("failed to run base contract: %w", err)
	}
	metrics.SurrenderChange = decimal.Zero
	metrics.SurrenderChangePct = decimal.Zero
	return metrics, nil
}

// run simulates inputs and measures the outcome against base
func (sa *SensitivityAnalyzer) run(ctx context.Context, inputs domain.ContractInputs, base domain.SensitivityMetrics) (domain.SensitivityMetrics, error) {
	results, err := sa.calculationEngine.Simulate(ctx, inputs)
	if err != nil {
		return domain.SensitivityMetrics{}, err
	}

	metrics := domain.SensitivityMetrics{
		FinalSurrender: results.Totals.Surrender,
		FinalBalance:   results.Totals.EndBalance,
		PaidIn:         results.Totals.Contributions,
		TotalCosts:     results.Totals.CostTotal,
		BreakEvenYear:  results.BreakEvenYear,
	}
	metrics.SurrenderChange = metrics.FinalSurrender.Sub(base.FinalSurrender)
	if !base.FinalSurrender.IsZero() {
		metrics.SurrenderChangePct = metrics.SurrenderChange.Div(base.FinalSurrender.Abs()).Mul(hundred)
	}
	return metrics, nil
}

// sensitivityScore is the surrender change in percent per unit of input
// change. Percent inputs move in percentage points, amounts in percent of
// the base value.
func sensitivityScore(param domain.SensitivityParameter, value decimal.Decimal, metrics domain.SensitivityMetrics) decimal.Decimal {
	change := value.Sub(param.BaseValue)
	if !param.IsPercent() {
		if param.BaseValue.IsZero() {
			return decimal.Zero
		}
		change = change.Div(param.BaseValue).Mul(hundred)
	}
	if change.IsZero() {
		return decimal.Zero
	}
	return metrics.SurrenderChangePct.Abs().Div(change.Abs()).Round(4)
}

func summarize(results []domain.SensitivityResult) domain.SensitivitySummary {
	scores := make(map[string]decimal.Decimal)
	for _, r := range results {
		if cur, ok := scores[r.Parameter]; !ok || r.Score.GreaterThan(cur) {
			scores[r.Parameter] = r.Score
		}
	}

	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)

	summary := domain.SensitivitySummary{SensitivityScores: scores}
	best := decimal.NewFromInt(-1)
	for _, name := range names {
		if scores[name].GreaterThan(best) {
			best = scores[name]
			summary.MostSensitiveParameter = name
		}
	}
	summary.RiskLevel = summary.DetermineRiskLevel()
	summary.Recommendations = summary.GenerateRecommendations()
	return summary
}

func matrixSummary(matrix [][]domain.SensitivityResult) domain.SensitivityMatrixSummary {
	var summary domain.SensitivityMatrixSummary
	var best, worst *domain.SensitivityResult
	for i := range matrix {
		for j := range matrix[i] {
			r := &matrix[i][j]
			if best == nil || r.KeyMetrics.FinalSurrender.GreaterThan(best.KeyMetrics.FinalSurrender) {
				best = r
			}
			if worst == nil || r.KeyMetrics.FinalSurrender.LessThan(worst.KeyMetrics.FinalSurrender) {
				worst = r
			}
		}
	}
	if best == nil {
		return summary
	}
	summary.BestCase = best.ScenarioName
	summary.WorstCase = worst.ScenarioName
	summary.Spread = best.KeyMetrics.FinalSurrender.Sub(worst.KeyMetrics.FinalSurrender)
	return summary
}
