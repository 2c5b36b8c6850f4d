package compare

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/rgehrsitz/savingsim/internal/products"
)

// Variant is one what-if version of a contract
type Variant struct {
	Code        string
	Name        string
	Description string
	Inputs      domain.ContractInputs
}

// CompareVariants simulates every variant under the same product and ranks
// them like candidates. A nil product runs the bare inputs.
func (re *RankEngine) CompareVariants(
	ctx context.Context,
	product *products.Product,
	variants []Variant,
	options RankOptions,
) (*RankingSet, error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("no variants to compare")
	}

	codes := map[string]bool{}
	jobs := make([]job, len(variants))
	for i, v := range variants {
		if codes[v.Code] {
			return nil, fmt.Errorf("duplicate variant %q", v.Code)
		}
		codes[v.Code] = true

		inputs := v.Inputs
		jobs[i] = job{
			Code:        v.Code,
			Name:        v.Name,
			Description: v.Description,
			run: func(ctx context.Context) (*domain.ResultsDaily, error) {
				if product == nil {
					return re.CalcEngine.Simulate(ctx, inputs)
				}
				return product.Simulate(ctx, re.CalcEngine, inputs)
			},
		}
	}
	return re.runJobs(ctx, jobs, variants[0].Inputs.Currency, options)
}
