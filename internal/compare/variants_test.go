package compare

import (
	"context"
	"testing"

	"github.com/rgehrsitz/savingsim/internal/calculation"
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/rgehrsitz/savingsim/internal/products"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareVariants_RanksByYield(t *testing.T) {
	re := NewRankEngine(calculation.NewCalculationEngine())
	base := contract()

	low := base.DeepCopy()
	low.AnnualYieldPercent = decimal.NewFromInt(1)
	high := base.DeepCopy()
	high.AnnualYieldPercent = decimal.NewFromInt(8)

	rs, err := re.CompareVariants(context.Background(), nil, []Variant{
		{Code: "base", Name: "Base", Inputs: base},
		{Code: "low", Name: "Low yield", Inputs: low},
		{Code: "high", Name: "High yield", Inputs: high},
	}, RankOptions{ContractName: "test"})
	require.NoError(t, err)

	require.Len(t, rs.Entries, 3)
	assert.Equal(t, "high", rs.Entries[0].Code)
	assert.Equal(t, "base", rs.Entries[1].Code)
	assert.Equal(t, "low", rs.Entries[2].Code)
	assert.True(t, rs.Entries[0].TotalContributions.Equal(rs.Entries[2].TotalContributions))
}

func TestCompareVariants_UnderProduct(t *testing.T) {
	re := NewRankEngine(calculation.NewCalculationEngine())
	cost := domain.Flat(decimal.NewFromInt(2))
	product := &products.Product{Code: "p", Name: "P", Overlay: products.Overlay{AssetCost: &cost}}

	bare, err := re.CompareVariants(context.Background(), nil, []Variant{{Code: "base", Inputs: contract()}}, RankOptions{})
	require.NoError(t, err)
	withProduct, err := re.CompareVariants(context.Background(), product, []Variant{{Code: "base", Inputs: contract()}}, RankOptions{})
	require.NoError(t, err)

	assert.True(t, withProduct.Entries[0].FinalSurrender.LessThan(bare.Entries[0].FinalSurrender))
}

func TestCompareVariants_FailingVariantIsIsolated(t *testing.T) {
	re := NewRankEngine(calculation.NewCalculationEngine())
	broken := contract()
	broken.Duration.Value = 0

	rs, err := re.CompareVariants(context.Background(), nil, []Variant{
		{Code: "base", Name: "Base", Inputs: contract()},
		{Code: "broken", Name: "Broken", Inputs: broken},
	}, RankOptions{})
	require.NoError(t, err)
	require.Len(t, rs.Entries, 1)
	require.Len(t, rs.Failures, 1)
	assert.Equal(t, "broken", rs.Failures[0].Code)
}

func TestCompareVariants_Errors(t *testing.T) {
	re := NewRankEngine(calculation.NewCalculationEngine())

	_, err := re.CompareVariants(context.Background(), nil, nil, RankOptions{})
	assert.Error(t, err)

	_, err = re.CompareVariants(context.Background(), nil, []Variant{
		{Code: "a", Inputs: contract()},
		{Code: "a", Inputs: contract()},
	}, RankOptions{})
	assert.Error(t, err)
}
