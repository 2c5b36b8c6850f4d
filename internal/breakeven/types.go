package breakeven

import (
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/rgehrsitz/savingsim/internal/products"
	"github.com/shopspring/decimal"
)

// SolveTarget defines what parameter the solver searches for
type SolveTarget string

const (
	// TargetBreakEvenYield is the lowest annual yield at which the surrender
	// value reaches the amount paid in
	TargetBreakEvenYield SolveTarget = "break_even_yield"
	// TargetRequiredPayment is the lowest base annual payment that reaches a
	// target surrender value
	TargetRequiredPayment SolveTarget = "required_payment"
)

// Constraints define the search bounds and the year the goal is checked in
type Constraints struct {
	MinYield *decimal.Decimal `json:"min_yield,omitempty"`
	MaxYield *decimal.Decimal `json:"max_yield,omitempty"`

	MinPayment *decimal.Decimal `json:"min_payment,omitempty"`
	MaxPayment *decimal.Decimal `json:"max_payment,omitempty"`

	// Surrender value to reach, required for TargetRequiredPayment
	TargetSurrender *decimal.Decimal `json:"target_surrender,omitempty"`

	// Contract year the goal is evaluated in; zero means maturity
	ByYear int `json:"by_year,omitempty"`
}

// DefaultConstraints returns sensible default search bounds
func DefaultConstraints() Constraints {
	minYield := decimal.NewFromInt(-20)
	maxYield := decimal.NewFromInt(30)
	minPayment := decimal.Zero

	return Constraints{
		MinYield:   &minYield,
		MaxYield:   &maxYield,
		MinPayment: &minPayment,
	}
}

// SolveRequest defines the parameters for one solver run
type SolveRequest struct {
	Inputs        domain.ContractInputs
	Product       *products.Product // nil runs the bare inputs
	Target        SolveTarget
	Constraints   Constraints
	MaxIterations int
	Tolerance     decimal.Decimal // bracket width at which bisection stops
}

// SolveResult contains the outcome of a solver run
type SolveResult struct {
	Target          SolveTarget     `json:"target"`
	Product         string          `json:"product,omitempty"`
	Currency        domain.Currency `json:"currency"`
	Success         bool            `json:"success"`
	Iterations      int             `json:"iterations"`
	ConvergenceInfo string          `json:"convergence_info"`

	// Solved yield percent or base annual payment, and the caller's value
	Value     decimal.Decimal `json:"value"`
	BaseValue decimal.Decimal `json:"base_value"`

	// Figures at the solved value in the goal year
	Year            int              `json:"year"`
	SurrenderValue  decimal.Decimal  `json:"surrender_value"`
	PaidIn          decimal.Decimal  `json:"paid_in"`
	TargetSurrender *decimal.Decimal `json:"target_surrender,omitempty"`

	Results *domain.ResultsDaily `json:"-"`
}

// SolverOptions configures the solver algorithm
type SolverOptions struct {
	YieldTolerance   decimal.Decimal // percentage points
	PaymentTolerance decimal.Decimal // currency units
	MaxIterations    int
}

// DefaultSolverOptions returns default solver configuration
func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		YieldTolerance:   decimal.RequireFromString("0.0001"),
		PaymentTolerance: decimal.NewFromInt(1),
		MaxIterations:    100,
	}
}

// Validate checks if constraints are internally consistent for target
func (c *Constraints) Validate(target SolveTarget, years int) error {
	if c.ByYear < 0 || c.ByYear > years {
		return &BreakEvenError{
			Operation: "validate_constraints",
			Message:   "by_year must be within the contract duration",
		}
	}

	switch target {
	case TargetBreakEvenYield:
		if c.MinYield != nil && c.MaxYield != nil && c.MinYield.GreaterThanOrEqual(*c.MaxYield) {
			return &BreakEvenError{
				Operation: "validate_constraints",
				Message:   "min_yield must be below max_yield",
			}
		}
		if c.MinYield != nil && c.MinYield.LessThanOrEqual(decimal.NewFromInt(-100)) {
			return &BreakEvenError{
				Operation: "validate_constraints",
				Message:   "min_yield must be greater than -100",
			}
		}
	case TargetRequiredPayment:
		if c.TargetSurrender == nil || !c.TargetSurrender.IsPositive() {
			return &BreakEvenError{
				Operation: "validate_constraints",
				Message:   "a positive target surrender value is required",
			}
		}
		if c.MinPayment != nil && c.MinPayment.IsNegative() {
			return &BreakEvenError{
				Operation: "validate_constraints",
				Message:   "min_payment cannot be negative",
			}
		}
		if c.MinPayment != nil && c.MaxPayment != nil && c.MinPayment.GreaterThanOrEqual(*c.MaxPayment) {
			return &BreakEvenError{
				Operation: "validate_constraints",
				Message:   "min_payment must be below max_payment",
			}
		}
	default:
		return &BreakEvenError{
			Operation: "validate_constraints",
			Message:   "unsupported target: " + string(target),
		}
	}

	return nil
}

// BreakEvenError represents errors from break-even solver
type BreakEvenError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *BreakEvenError) Error() string {
	if e.Cause != nil {
		return e.Operation + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Operation + ": " + e.Message
}

func (e *BreakEvenError) Unwrap() error {
	return e.Cause
}
