package products

import (
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/shopspring/decimal"
)

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func decPtr(v float64) *decimal.Decimal {
	d := dec(v)
	return &d
}

func boolPtr(v bool) *bool {
	return &v
}

func table(def float64, byYear map[int]float64) *domain.YearTable {
	t := domain.YearTable{Default: dec(def)}
	if len(byYear) > 0 {
		t.ByYear = make(map[int]decimal.Decimal, len(byYear))
		for y, v := range byYear {
			t.ByYear[y] = dec(v)
		}
	}
	return &t
}

// PostaTrendRedemption is the surrender penalty schedule of the Posta Trend
// pension product: 60% in year one falling to 1% in year ten, nothing after.
var PostaTrendRedemption = map[int]float64{
	1: 60, 2: 50, 3: 40, 4: 30, 5: 20, 6: 10, 7: 5, 8: 3, 9: 2, 10: 1,
}

// BuiltInProducts creates a registry with the bundled product definitions
func BuiltInProducts() *Registry {
	registry := NewRegistry()

	registry.Register(Product{
		Code:        "posta-trend-nyugdij",
		Name:        "Posta Trend Nyugdíj",
		Description: "HUF pension insurance with 20% state tax credit on a separate sub-account",
		Overlay: Overlay{
			Currency:      domain.CurrencyHUF,
			AdminFee:      decPtr(500),
			AdminFeeMode:  domain.ValueAmount,
			InitialCost:   table(0, map[int]float64{1: 70, 2: 40, 3: 10}),
			AssetCost:     table(1.95, nil),
			RedemptionFee: table(0, PostaTrendRedemption),
			TaxCredit: &domain.TaxCreditConfig{
				RatePercent:      dec(20),
				AnnualCap:        dec(130000),
				RepaymentPercent: dec(120),
				// credits are repayable while the redemption schedule runs
				ClawbackUntilYear: len(PostaTrendRedemption),
			},
			Redemption:             &domain.RedemptionConfig{Enabled: true, Base: domain.RedemptionTotalAccount},
			SeparatedExtraAccounts: boolPtr(true),
			MinimumAnnualPayment:   dec(120000),
		},
	})

	registry.Register(Product{
		Code:        "eur-index-savings",
		Name:        "EUR Index Savings",
		Description: "EUR unit-linked savings with split client and invested accounts",
		Overlay: Overlay{
			Currency:      domain.CurrencyEUR,
			AdminFee:      decPtr(2),
			AdminFeeMode:  domain.ValueAmount,
			InitialCost:   table(0, map[int]float64{1: 60, 2: 30}),
			AssetCost:     table(1.8, nil),
			InvestedShare: table(100, map[int]float64{1: 85, 2: 90, 3: 95}),
			RedemptionFee: table(0, map[int]float64{1: 30, 2: 20, 3: 10, 4: 5}),
			Redemption:    &domain.RedemptionConfig{Enabled: true, Base: domain.RedemptionSurplusOnly},

			AccountSplitOpen:     boolPtr(true),
			MinimumAnnualPayment: dec(1200),
		},
	})

	registry.Register(Product{
		Code:        "usd-flex-savings",
		Name:        "USD Flex Savings",
		Description: "USD savings with a fixed risk fee charged monthly and a front-loaded asset cost",
		Overlay: Overlay{
			Currency:  domain.CurrencyUSD,
			Frequency: domain.FrequencyMonthly,
			RiskFee:   decPtr(720),
			Risk: &domain.RiskFeeConfig{
				Mode: domain.ValueAmount,
			},
			AssetCost:     table(1.5, map[int]float64{1: 2.5, 2: 2.5, 3: 2, 4: 2, 5: 2}),
			RedemptionFee: table(0, map[int]float64{1: 15, 2: 10, 3: 5}),
			Redemption:    &domain.RedemptionConfig{Enabled: true, Base: domain.RedemptionTotalAccount},

			MinimumAnnualPayment: dec(1000),
		},
	})

	return registry
}
