package compare

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rgehrsitz/savingsim/internal/calculation"
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/rgehrsitz/savingsim/internal/products"
)

// RankEngine runs one contract against a set of candidate products and ranks
// them by final surrender value
type RankEngine struct {
	CalcEngine        products.Simulator
	MetricsCalculator *MetricsCalculator
	Logger            calculation.Logger
}

// NewRankEngine creates a new ranking engine
func NewRankEngine(calcEngine *calculation.CalculationEngine) *RankEngine {
	re := &RankEngine{
		CalcEngine:        calcEngine,
		MetricsCalculator: NewMetricsCalculator(),
		Logger:            calculation.NopLogger{},
	}
	if calcEngine != nil && calcEngine.Logger != nil {
		re.Logger = calcEngine.Logger
	}
	return re
}

// RankOptions configures ranking behavior
type RankOptions struct {
	ContractName string
	ConfigPath   string
	Workers      int // 0 uses GOMAXPROCS

	// Results are converted to this currency before ranking; empty keeps
	// the contract currency
	DisplayCurrency domain.Currency
	Rates           domain.ExchangeRates
}

type candidateOutcome struct {
	entry RankEntry
	err   error
}

// job is one simulation the pool runs; run returns contract-currency results
type job struct {
	Code        string
	Name        string
	Description string
	run         func(ctx context.Context) (*domain.ResultsDaily, error)
}

// Rank simulates every candidate on a bounded worker pool. A failing
// candidate is recorded in Failures and the others continue.
func (re *RankEngine) Rank(
	ctx context.Context,
	inputs domain.ContractInputs,
	candidates []products.Product,
	options RankOptions,
) (*RankingSet, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidates to rank")
	}

	jobs := make([]job, len(candidates))
	for i, candidate := range candidates {
		candidate := candidate
		jobs[i] = job{
			Code:        candidate.Code,
			Name:        candidate.Name,
			Description: candidate.Description,
			run: func(ctx context.Context) (*domain.ResultsDaily, error) {
				return candidate.Simulate(ctx, re.CalcEngine, inputs)
			},
		}
	}
	return re.runJobs(ctx, jobs, inputs.Currency, options)
}

// runJobs owns the worker pool shared by Rank and CompareVariants
func (re *RankEngine) runJobs(
	ctx context.Context,
	jobs []job,
	contractCurrency domain.Currency,
	options RankOptions,
) (*RankingSet, error) {
	currency := options.DisplayCurrency
	if currency == "" {
		currency = contractCurrency
	}

	workers := options.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	outcomes := make([]candidateOutcome, len(jobs))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, workers)

	for i := range jobs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			outcomes[idx] = re.runJob(ctx, jobs[idx], currency, options.Rates)
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rs := &RankingSet{
		RunID:        uuid.NewString(),
		ContractName: options.ContractName,
		ConfigPath:   options.ConfigPath,
		Currency:     currency,
		Entries:      make([]RankEntry, 0, len(jobs)),
	}
	for i, o := range outcomes {
		if o.err != nil {
			re.Logger.Warnf("candidate %s skipped: %v", jobs[i].Code, o.err)
			rs.Failures = append(rs.Failures, CandidateFailure{
				Code:  jobs[i].Code,
				Name:  jobs[i].Name,
				Error: o.err.Error(),
			})
			continue
		}
		rs.Entries = append(rs.Entries, o.entry)
	}

	sort.SliceStable(rs.Entries, func(i, j int) bool {
		a, b := rs.Entries[i], rs.Entries[j]
		if !a.FinalSurrender.Equal(b.FinalSurrender) {
			return a.FinalSurrender.GreaterThan(b.FinalSurrender)
		}
		return a.Name < b.Name
	})

	if best, ok := rs.Best(); ok {
		for i := range rs.Entries {
			rs.Entries[i].Rank = i + 1
			rs.Entries[i] = re.MetricsCalculator.CalculateComparison(rs.Entries[i], best)
		}
	}
	rs.Recommendations = GenerateRecommendations(rs)

	re.Logger.Infof("ranking %s: %d ranked, %d failed", rs.RunID, len(rs.Entries), len(rs.Failures))
	return rs, nil
}

// runJob owns one engine run; panics are contained to the job
func (re *RankEngine) runJob(
	ctx context.Context,
	j job,
	currency domain.Currency,
	rates domain.ExchangeRates,
) (out candidateOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = candidateOutcome{err: fmt.Errorf("candidate %s panicked: %v", j.Code, r)}
		}
	}()

	results, err := j.run(ctx)
	if err != nil {
		return candidateOutcome{err: err}
	}
	results, err = calculation.ConvertResults(results, currency, rates)
	if err != nil {
		return candidateOutcome{err: err}
	}

	entry := re.MetricsCalculator.CalculateMetrics(results)
	entry.Code = j.Code
	entry.Name = j.Name
	entry.Description = j.Description
	return candidateOutcome{entry: entry}
}
