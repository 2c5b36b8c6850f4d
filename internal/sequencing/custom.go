package sequencing

import (
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/shopspring/decimal"
)

// CustomStrategy executes withdrawals in a user-specified ordered list of accounts.
// Valid accounts: client, invested. If the sequence is invalid, falls back to standard.
type CustomStrategy struct {
	Sequence []domain.AccountKind
}

func NewCustomStrategy(sequence []domain.AccountKind) *CustomStrategy {
	return &CustomStrategy{Sequence: sequence}
}

func (s *CustomStrategy) Name() string { return StrategyCustom }

func (s *CustomStrategy) Plan(sources []WithdrawalSource, need decimal.Decimal) WithdrawalPlan {
	if err := ValidateSequence(s.Sequence); err != nil {
		std := NewStandardStrategy().Plan(sources, need)
		std.StrategyUsed = "custom->standard_fallback"
		std.Notes = append(std.Notes, "invalid or empty custom sequence - falling back to standard")
		return std
	}
	return drawInOrder(s.Name(), s.Sequence, sources, need)
}
