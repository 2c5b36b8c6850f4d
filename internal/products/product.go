package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/rgehrsitz/savingsim/internal/calculation"
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrBelowMinimumPayment is returned when a planned yearly payment is lower
// than the product's minimum annual payment
var ErrBelowMinimumPayment = errors.New("payment below product minimum")

// ErrCurrencyMismatch is returned when a product is not offered in the
// contract's currency
var ErrCurrencyMismatch = errors.New("product not offered in contract currency")

// ProductError represents an error raised while applying a product overlay.
type ProductError struct {
	Product   string
	Operation string
	Reason    string
	Err       error
}

func (e *ProductError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("product %s (%s): %s: %v", e.Product, e.Operation, e.Reason, e.Err)
	}
	return fmt.Sprintf("product %s (%s): %s", e.Product, e.Operation, e.Reason)
}

func (e *ProductError) Unwrap() error {
	return e.Err
}

// Simulator runs one contract. *calculation.CalculationEngine satisfies it.
type Simulator interface {
	Simulate(ctx context.Context, inputs domain.ContractInputs) (*domain.ResultsDaily, error)
}

// Overlay lists the product-mandated defaults. Nil or empty fields leave the
// caller's value in place. Currency is a constraint, not a default: fixed
// amounts in the overlay are denominated in it.
type Overlay struct {
	Currency      domain.Currency          `yaml:"currency,omitempty" json:"currency,omitempty"`
	Frequency     domain.Frequency         `yaml:"frequency,omitempty" json:"frequency,omitempty"`
	AdminFee      *decimal.Decimal         `yaml:"adminFee,omitempty" json:"adminFee,omitempty"`
	AdminFeeMode  domain.ValueType         `yaml:"adminFeeMode,omitempty" json:"adminFeeMode,omitempty"`
	RiskFee       *decimal.Decimal         `yaml:"riskFee,omitempty" json:"riskFee,omitempty"`
	Risk          *domain.RiskFeeConfig    `yaml:"risk,omitempty" json:"risk,omitempty"`
	InitialCost   *domain.YearTable        `yaml:"initialCost,omitempty" json:"initialCost,omitempty"`
	AssetCost     *domain.YearTable        `yaml:"assetCost,omitempty" json:"assetCost,omitempty"`
	RedemptionFee *domain.YearTable        `yaml:"redemptionFee,omitempty" json:"redemptionFee,omitempty"`
	InvestedShare *domain.YearTable        `yaml:"investedShare,omitempty" json:"investedShare,omitempty"`
	TaxCredit     *domain.TaxCreditConfig  `yaml:"taxCredit,omitempty" json:"taxCredit,omitempty"`
	Redemption    *domain.RedemptionConfig `yaml:"redemption,omitempty" json:"redemption,omitempty"`

	AccountSplitOpen       *bool `yaml:"accountSplitOpen,omitempty" json:"accountSplitOpen,omitempty"`
	SeparatedExtraAccounts *bool `yaml:"separatedExtraAccounts,omitempty" json:"separatedExtraAccounts,omitempty"`

	// zero means no minimum
	MinimumAnnualPayment decimal.Decimal `yaml:"minimumAnnualPayment" json:"minimumAnnualPayment"`
}

// merge writes the overlay onto a private copy of inputs
func (o Overlay) merge(inputs domain.ContractInputs) domain.ContractInputs {
	out := inputs.DeepCopy()
	if o.Frequency != "" {
		out.Frequency = o.Frequency
	}
	if o.AdminFee != nil {
		out.AdminFee = domain.Flat(*o.AdminFee)
	}
	if o.AdminFeeMode != "" {
		out.AdminFeeMode = o.AdminFeeMode
	}
	if o.RiskFee != nil {
		out.RiskFee = domain.Flat(*o.RiskFee)
	}
	if o.Risk != nil {
		out.Risk = *o.Risk
	}
	if o.InitialCost != nil {
		out.InitialCost = o.InitialCost.Clone()
	}
	if o.AssetCost != nil {
		out.AssetCost = o.AssetCost.Clone()
	}
	if o.RedemptionFee != nil {
		out.RedemptionFee = o.RedemptionFee.Clone()
	}
	if o.InvestedShare != nil {
		out.InvestedShare = o.InvestedShare.Clone()
	}
	if o.TaxCredit != nil {
		tc := *o.TaxCredit
		if o.TaxCredit.YieldPercent != nil {
			y := *o.TaxCredit.YieldPercent
			tc.YieldPercent = &y
		}
		out.TaxCredit = tc
	}
	if o.Redemption != nil {
		out.Redemption = *o.Redemption
	}
	if o.AccountSplitOpen != nil {
		out.AccountSplitOpen = *o.AccountSplitOpen
	}
	if o.SeparatedExtraAccounts != nil {
		out.SeparatedExtraAccounts = *o.SeparatedExtraAccounts
	}
	return out
}

// Product is a named insurance product: a set of default overrides applied
// to generic contract inputs before the engine runs.
type Product struct {
	Code        string  `yaml:"code" json:"code"`
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	Overlay     Overlay `yaml:"overlay" json:"overlay"`
}

// Apply returns a copy of inputs with the product defaults merged in. When
// the caller disabled product defaults the copy is returned unchanged.
func (p Product) Apply(inputs domain.ContractInputs) (domain.ContractInputs, error) {
	if inputs.DisableProductDefaults {
		return inputs.DeepCopy(), nil
	}
	if c := p.Overlay.Currency; c != "" && c != inputs.Currency {
		return domain.ContractInputs{}, &ProductError{
			Product:   p.Code,
			Operation: "apply",
			Reason:    fmt.Sprintf("offered in %s, contract is in %s", c, inputs.Currency),
			Err:       ErrCurrencyMismatch,
		}
	}
	merged := p.Overlay.merge(inputs)
	if err := p.checkMinimumPayment(merged); err != nil {
		return domain.ContractInputs{}, err
	}
	return merged, nil
}

// checkMinimumPayment rejects plans whose paying years fall below the
// product minimum. Zero-payment years are premium holidays and pass.
func (p Product) checkMinimumPayment(inputs domain.ContractInputs) error {
	minimum := p.Overlay.MinimumAnnualPayment
	if !minimum.IsPositive() {
		return nil
	}
	plan := calculation.PlanFor(inputs)
	for year := 1; year <= plan.Years; year++ {
		payment := plan.Payments[year]
		if payment.IsZero() || payment.GreaterThanOrEqual(minimum) {
			continue
		}
		return &ProductError{
			Product:   p.Code,
			Operation: "apply",
			Reason: fmt.Sprintf("year %d payment %s is below the minimum of %s %s",
				year, payment.StringFixed(2), minimum.StringFixed(0), inputs.Currency),
			Err: ErrBelowMinimumPayment,
		}
	}
	return nil
}

// Simulate applies the product defaults and delegates to the engine
func (p Product) Simulate(ctx context.Context, engine Simulator, inputs domain.ContractInputs) (*domain.ResultsDaily, error) {
	merged, err := p.Apply(inputs)
	if err != nil {
		return nil, err
	}
	results, err := engine.Simulate(ctx, merged)
	if err != nil {
		return nil, &ProductError{Product: p.Code, Operation: "simulate", Reason: "engine run failed", Err: err}
	}
	return results, nil
}
