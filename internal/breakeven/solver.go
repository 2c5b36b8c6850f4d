package breakeven

import (
	"context"
	"errors"
	"fmt"

	"github.com/rgehrsitz/savingsim/internal/calculation"
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/rgehrsitz/savingsim/internal/products"
	"github.com/rgehrsitz/savingsim/internal/transform"
	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// Solver finds break-even parameters by bisection. Surrender values grow
// monotonically with both yield and payment, so the smallest value meeting
// the goal lies on the boundary of a single bracket.
type Solver struct {
	CalcEngine products.Simulator
	Options    SolverOptions
	Logger     calculation.Logger
}

// NewSolver creates a new break-even solver
func NewSolver(calcEngine *calculation.CalculationEngine, options SolverOptions) *Solver {
	s := &Solver{
		CalcEngine: calcEngine,
		Options:    options,
		Logger:     calculation.NopLogger{},
	}
	if calcEngine != nil && calcEngine.Logger != nil {
		s.Logger = calcEngine.Logger
	}
	return s
}

// NewDefaultSolver creates a solver with default options
func NewDefaultSolver(calcEngine *calculation.CalculationEngine) *Solver {
	return NewSolver(calcEngine, DefaultSolverOptions())
}

// evaluation is one simulated point of the search
type evaluation struct {
	value     decimal.Decimal
	met       bool
	surrender decimal.Decimal
	paidIn    decimal.Decimal
	results   *domain.ResultsDaily
}

// Solve runs the solver for the request's target
func (s *Solver) Solve(ctx context.Context, req SolveRequest) (*SolveResult, error) {
	years := req.Inputs.Duration.Years()
	if err := req.Constraints.Validate(req.Target, years); err != nil {
		return nil, err
	}
	if req.MaxIterations == 0 {
		req.MaxIterations = s.Options.MaxIterations
	}

	year := req.Constraints.ByYear
	if year == 0 {
		year = years
	}

	switch req.Target {
	case TargetBreakEvenYield:
		return s.solveYield(ctx, req, year)
	case TargetRequiredPayment:
		return s.solvePayment(ctx, req, year)
	}
	return nil, &BreakEvenError{
		Operation: "solve",
		Message:   fmt.Sprintf("unsupported target: %s", req.Target),
	}
}

func (s *Solver) solveYield(ctx context.Context, req SolveRequest, year int) (*SolveResult, error) {
	defaults := DefaultConstraints()
	lo, hi := *defaults.MinYield, *defaults.MaxYield
	if req.Constraints.MinYield != nil {
		lo = *req.Constraints.MinYield
	}
	if req.Constraints.MaxYield != nil {
		hi = *req.Constraints.MaxYield
	}
	tolerance := req.Tolerance
	if tolerance.IsZero() {
		tolerance = s.Options.YieldTolerance
	}

	eval := func(ctx context.Context, v decimal.Decimal) (evaluation, error) {
		return s.evaluate(ctx, req, year, &transform.AdjustYield{Percent: v}, func(surrender, paidIn decimal.Decimal) bool {
			return paidIn.IsPositive() && surrender.GreaterThanOrEqual(paidIn)
		})
	}

	result, err := s.bisect(ctx, req, lo, hi, tolerance, 4, eval)
	if err != nil {
		return nil, err
	}
	result.BaseValue = req.Inputs.AnnualYieldPercent
	return result, nil
}

func (s *Solver) solvePayment(ctx context.Context, req SolveRequest, year int) (*SolveResult, error) {
	target := *req.Constraints.TargetSurrender
	lo, hi := decimal.Zero, target
	if req.Constraints.MinPayment != nil {
		lo = *req.Constraints.MinPayment
	}
	if req.Constraints.MaxPayment != nil {
		hi = *req.Constraints.MaxPayment
	}
	tolerance := req.Tolerance
	if tolerance.IsZero() {
		tolerance = s.Options.PaymentTolerance
	}

	eval := func(ctx context.Context, v decimal.Decimal) (evaluation, error) {
		return s.evaluate(ctx, req, year, &transform.SetPayment{Amount: v}, func(surrender, _ decimal.Decimal) bool {
			return surrender.GreaterThanOrEqual(target)
		})
	}

	result, err := s.bisect(ctx, req, lo, hi, tolerance, 0, eval)
	if err != nil {
		return nil, err
	}
	result.BaseValue = req.Inputs.BasePayment
	result.TargetSurrender = &target
	return result, nil
}

// bisect narrows [lo, hi] to the smallest value meeting the goal. The
// reported value is rounded up to places and re-simulated.
func (s *Solver) bisect(
	ctx context.Context,
	req SolveRequest,
	lo, hi, tolerance decimal.Decimal,
	places int32,
	eval func(context.Context, decimal.Decimal) (evaluation, error),
) (*SolveResult, error) {
	op := "solve_" + string(req.Target)
	iterations := 0
	run := func(v decimal.Decimal) (evaluation, error) {
		if err := ctx.Err(); err != nil {
			return evaluation{}, err
		}
		iterations++
		e, err := eval(ctx, v)
		if err != nil {
			return evaluation{}, &BreakEvenError{Operation: op, Message: "failed to calculate contract", Cause: err}
		}
		return e, nil
	}

	upper, err := run(hi)
	if err != nil {
		return nil, err
	}
	if !upper.met {
		result := s.resultFrom(req, upper, iterations)
		result.ConvergenceInfo = fmt.Sprintf("Goal not reachable at the upper bound %s", hi.String())
		return result, nil
	}

	lower, err := run(lo)
	if err != nil {
		return nil, err
	}
	if lower.met {
		result := s.resultFrom(req, lower, iterations)
		result.Success = true
		result.ConvergenceInfo = "Lower bound already meets the goal"
		return result, nil
	}

	for hi.Sub(lo).GreaterThan(tolerance) && iterations < req.MaxIterations {
		mid := lo.Add(hi).Div(two)
		e, err := run(mid)
		if err != nil {
			return nil, err
		}
		if e.met {
			hi, upper = mid, e
		} else {
			lo = mid
		}
	}

	converged := hi.Sub(lo).LessThanOrEqual(tolerance)
	if rounded := hi.RoundCeil(places); !rounded.Equal(hi) {
		e, err := run(rounded)
		if err != nil {
			return nil, err
		}
		if e.met {
			upper = e
		}
	}

	result := s.resultFrom(req, upper, iterations)
	result.Success = converged
	if converged {
		result.ConvergenceInfo = fmt.Sprintf("Bisection converged within %s", tolerance.String())
	} else {
		result.ConvergenceInfo = fmt.Sprintf("Max iterations (%d) reached", req.MaxIterations)
	}
	s.Logger.Debugf("%s solved to %s after %d runs", req.Target, result.Value.String(), iterations)
	return result, nil
}

// evaluate simulates the inputs with change applied and checks the goal
func (s *Solver) evaluate(
	ctx context.Context,
	req SolveRequest,
	year int,
	change transform.ContractTransform,
	met func(surrender, paidIn decimal.Decimal) bool,
) (evaluation, error) {
	inputs, err := transform.ApplyTransforms(req.Inputs, []transform.ContractTransform{change})
	if err != nil {
		return evaluation{}, err
	}

	var value decimal.Decimal
	switch c := change.(type) {
	case *transform.AdjustYield:
		value = c.Percent
	case *transform.SetPayment:
		value = c.Amount
	}

	var results *domain.ResultsDaily
	if req.Product != nil {
		results, err = req.Product.Simulate(ctx, s.CalcEngine, inputs)
	} else {
		results, err = s.CalcEngine.Simulate(ctx, inputs)
	}
	if errors.Is(err, products.ErrBelowMinimumPayment) {
		// too small to be offered counts as not meeting the goal
		return evaluation{value: value}, nil
	}
	if err != nil {
		return evaluation{}, err
	}

	row, ok := results.Row(year)
	if !ok {
		return evaluation{}, fmt.Errorf("results have no year %d", year)
	}
	paidIn := row.CumulativeContributions.Sub(row.CumulativeWithdrawals)
	return evaluation{
		value:     value,
		met:       met(row.SurrenderValue, paidIn),
		surrender: row.SurrenderValue,
		paidIn:    paidIn,
		results:   results,
	}, nil
}

func (s *Solver) resultFrom(req SolveRequest, e evaluation, iterations int) *SolveResult {
	result := &SolveResult{
		Target:         req.Target,
		Currency:       req.Inputs.Currency,
		Iterations:     iterations,
		Value:          e.value,
		Year:           req.Constraints.ByYear,
		SurrenderValue: e.surrender,
		PaidIn:         e.paidIn,
		Results:        e.results,
	}
	if result.Year == 0 {
		result.Year = req.Inputs.Duration.Years()
	}
	if req.Product != nil {
		result.Product = req.Product.Name
	}
	return result
}
