package transform

import (
	"fmt"

	"github.com/rgehrsitz/savingsim/internal/calculation"
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/rgehrsitz/savingsim/internal/sequencing"
	"github.com/shopspring/decimal"
)

var minusHundred = decimal.NewFromInt(-100)

// AdjustYield replaces the expected annual yield
type AdjustYield struct {
	Percent decimal.Decimal
}

func (t *AdjustYield) Name() string { return "adjust_yield" }

func (t *AdjustYield) Description() string {
	return fmt.Sprintf("Set annual yield to %s%%", t.Percent.String())
}

func (t *AdjustYield) Validate(base domain.ContractInputs) error {
	if t.Percent.LessThanOrEqual(minusHundred) {
		return NewTransformError(t.Name(), "validate", "yield must be greater than -100", nil)
	}
	return nil
}

func (t *AdjustYield) Apply(base domain.ContractInputs) (domain.ContractInputs, error) {
	out := base.DeepCopy()
	out.AnnualYieldPercent = t.Percent
	return out, nil
}

// SetPayment replaces the year 1 annual payment. Yearly overrides stay.
type SetPayment struct {
	Amount decimal.Decimal
}

func (t *SetPayment) Name() string { return "set_payment" }

func (t *SetPayment) Description() string {
	return fmt.Sprintf("Set base annual payment to %s", t.Amount.StringFixed(0))
}

func (t *SetPayment) Validate(base domain.ContractInputs) error {
	if t.Amount.IsNegative() {
		return NewTransformError(t.Name(), "validate", "payment cannot be negative", nil)
	}
	return nil
}

func (t *SetPayment) Apply(base domain.ContractInputs) (domain.ContractInputs, error) {
	out := base.DeepCopy()
	out.BasePayment = t.Amount
	return out, nil
}

// ScalePayment multiplies the base payment and every yearly payment override
type ScalePayment struct {
	Factor decimal.Decimal
}

func (t *ScalePayment) Name() string { return "scale_payment" }

func (t *ScalePayment) Description() string {
	return fmt.Sprintf("Scale payments by %s", t.Factor.String())
}

func (t *ScalePayment) Validate(base domain.ContractInputs) error {
	if t.Factor.IsNegative() {
		return NewTransformError(t.Name(), "validate", "factor cannot be negative", nil)
	}
	return nil
}

func (t *ScalePayment) Apply(base domain.ContractInputs) (domain.ContractInputs, error) {
	out := base.DeepCopy()
	out.BasePayment = out.BasePayment.Mul(t.Factor)
	for y, v := range out.PaymentByYear {
		out.PaymentByYear[y] = v.Mul(t.Factor)
	}
	return out, nil
}

// PremiumHoliday suspends payments from year From to year To inclusive.
// The year after the holiday resumes at the amount the original plan had
// for it, so indexation continues as if nothing was skipped.
type PremiumHoliday struct {
	From int
	To   int
}

func (t *PremiumHoliday) Name() string { return "premium_holiday" }

func (t *PremiumHoliday) Description() string {
	if t.From == t.To {
		return fmt.Sprintf("Skip payments in year %d", t.From)
	}
	return fmt.Sprintf("Skip payments in years %d-%d", t.From, t.To)
}

func (t *PremiumHoliday) Validate(base domain.ContractInputs) error {
	if t.From < 1 || t.To < t.From {
		return NewTransformError(t.Name(), "validate",
			fmt.Sprintf("invalid year range %d-%d", t.From, t.To), nil)
	}
	if years := base.Duration.Years(); t.From > years {
		return NewTransformError(t.Name(), "validate",
			fmt.Sprintf("year %d is beyond the %d year duration", t.From, years), nil)
	}
	return nil
}

func (t *PremiumHoliday) Apply(base domain.ContractInputs) (domain.ContractInputs, error) {
	plan := calculation.PlanFor(base)
	out := base.DeepCopy()
	if out.PaymentByYear == nil {
		out.PaymentByYear = map[int]decimal.Decimal{}
	}

	years := base.Duration.Years()
	for y := t.From; y <= t.To && y <= years; y++ {
		out.PaymentByYear[y] = decimal.Zero
	}
	resume := t.To + 1
	if resume <= years {
		if _, ok := base.PaymentByYear[resume]; !ok {
			out.PaymentByYear[resume] = plan.Payments[resume]
		}
	}
	return out, nil
}

// ExtendDuration lengthens the contract by whole years
type ExtendDuration struct {
	Years int
}

func (t *ExtendDuration) Name() string { return "extend_duration" }

func (t *ExtendDuration) Description() string {
	return fmt.Sprintf("Extend the contract by %d years", t.Years)
}

func (t *ExtendDuration) Validate(base domain.ContractInputs) error {
	if t.Years == 0 {
		return NewTransformError(t.Name(), "validate", "years cannot be zero", nil)
	}
	if base.Duration.Years()+t.Years < 1 {
		return NewTransformError(t.Name(), "validate", "contract would end before year 1", nil)
	}
	return nil
}

func (t *ExtendDuration) Apply(base domain.ContractInputs) (domain.ContractInputs, error) {
	out := base.DeepCopy()
	switch out.Duration.Unit {
	case domain.DurationMonth:
		out.Duration.Value += t.Years * 12
	case domain.DurationDay:
		out.Duration.Value += t.Years * 365
	default:
		out.Duration.Value += t.Years
	}
	return out, nil
}

// SetIndex replaces the default indexation percent. Per-year entries stay.
type SetIndex struct {
	Percent decimal.Decimal
}

func (t *SetIndex) Name() string { return "set_index" }

func (t *SetIndex) Description() string {
	return fmt.Sprintf("Index payments by %s%% a year", t.Percent.String())
}

func (t *SetIndex) Validate(base domain.ContractInputs) error {
	if t.Percent.LessThanOrEqual(minusHundred) {
		return NewTransformError(t.Name(), "validate", "index must be greater than -100", nil)
	}
	return nil
}

func (t *SetIndex) Apply(base domain.ContractInputs) (domain.ContractInputs, error) {
	out := base.DeepCopy()
	out.Index.Default = t.Percent
	return out, nil
}

// ScheduleWithdrawal plans a partial surrender and enables withdrawals
type ScheduleWithdrawal struct {
	Year   int
	Amount decimal.Decimal
}

func (t *ScheduleWithdrawal) Name() string { return "schedule_withdrawal" }

func (t *ScheduleWithdrawal) Description() string {
	return fmt.Sprintf("Withdraw %s in year %d", t.Amount.StringFixed(0), t.Year)
}

func (t *ScheduleWithdrawal) Validate(base domain.ContractInputs) error {
	if t.Year < 1 || t.Year > base.Duration.Years() {
		return NewTransformError(t.Name(), "validate",
			fmt.Sprintf("year %d is outside the contract", t.Year), nil)
	}
	if !t.Amount.IsPositive() {
		return NewTransformError(t.Name(), "validate", "amount must be positive", nil)
	}
	return nil
}

func (t *ScheduleWithdrawal) Apply(base domain.ContractInputs) (domain.ContractInputs, error) {
	out := base.DeepCopy()
	if out.WithdrawalByYear == nil {
		out.WithdrawalByYear = map[int]decimal.Decimal{}
	}
	out.WithdrawalByYear[t.Year] = t.Amount
	out.AllowWithdrawals = true
	return out, nil
}

// SetWithdrawalStrategy changes the account order withdrawals draw from
type SetWithdrawalStrategy struct {
	Strategy string
	Sequence []domain.AccountKind
}

func (t *SetWithdrawalStrategy) Name() string { return "set_withdrawal_strategy" }

func (t *SetWithdrawalStrategy) Description() string {
	return fmt.Sprintf("Draw withdrawals using the %s strategy", t.Strategy)
}

func (t *SetWithdrawalStrategy) Validate(base domain.ContractInputs) error {
	cfg := &domain.WithdrawalSequencingConfig{Strategy: t.Strategy, CustomSequence: t.Sequence}
	if err := sequencing.ValidateConfig(cfg); err != nil {
		return NewTransformError(t.Name(), "validate", "invalid strategy", err)
	}
	return nil
}

func (t *SetWithdrawalStrategy) Apply(base domain.ContractInputs) (domain.ContractInputs, error) {
	out := base.DeepCopy()
	out.WithdrawalSequencing = &domain.WithdrawalSequencingConfig{
		Strategy:       t.Strategy,
		CustomSequence: append([]domain.AccountKind(nil), t.Sequence...),
	}
	return out, nil
}
