package breakeven

import (
	"context"
	"sort"

	"github.com/rgehrsitz/savingsim/internal/products"
)

// ProductFailure records a product the solver could not run
type ProductFailure struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// MultiProductResult compares one solve across several products
type MultiProductResult struct {
	Target          SolveTarget      `json:"target"`
	Results         []SolveResult    `json:"results"`
	Failures        []ProductFailure `json:"failures,omitempty"`
	Best            *SolveResult     `json:"best,omitempty"`
	Recommendations []string         `json:"recommendations"`
}

// SolveProducts runs the same request under every candidate. Lower solved
// values are better for both targets. Failing products are skipped.
func (s *Solver) SolveProducts(
	ctx context.Context,
	req SolveRequest,
	candidates []products.Product,
) (*MultiProductResult, error) {
	if err := req.Constraints.Validate(req.Target, req.Inputs.Duration.Years()); err != nil {
		return nil, err
	}

	out := &MultiProductResult{Target: req.Target}
	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		candidateReq := req
		candidateReq.Product = &candidates[i]

		result, err := s.Solve(ctx, candidateReq)
		if err != nil {
			s.Logger.Warnf("product %s skipped: %v", candidates[i].Code, err)
			out.Failures = append(out.Failures, ProductFailure{Code: candidates[i].Code, Error: err.Error()})
			continue
		}
		out.Results = append(out.Results, *result)
	}

	if len(out.Results) == 0 {
		return nil, &BreakEvenError{
			Operation: "solve_products",
			Message:   "no product could be solved",
		}
	}

	sort.SliceStable(out.Results, func(i, j int) bool {
		a, b := out.Results[i], out.Results[j]
		if a.Success != b.Success {
			return a.Success
		}
		return a.Value.LessThan(b.Value)
	})
	if out.Results[0].Success {
		out.Best = &out.Results[0]
	}
	out.Recommendations = multiRecommendations(out)

	return out, nil
}

func multiRecommendations(m *MultiProductResult) []string {
	recs := []string{}
	if m.Best != nil {
		switch m.Target {
		case TargetBreakEvenYield:
			recs = append(recs, m.Best.Product+" breaks even at the lowest yield: "+m.Best.Value.StringFixed(2)+"%")
		case TargetRequiredPayment:
			recs = append(recs, m.Best.Product+" needs the smallest payment: "+
				m.Best.Value.StringFixed(0)+" "+string(m.Best.Currency)+" a year")
		}
	}
	for _, r := range m.Results {
		if !r.Success {
			recs = append(recs, r.Product+" cannot meet the goal within the search bounds")
		}
	}
	return recs
}
