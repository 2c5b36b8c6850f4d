package sequencing

import (
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/shopspring/decimal"
)

// StandardStrategy: invested -> client
// Spends the extra-payment account first and preserves the regular account.
type StandardStrategy struct{}

func NewStandardStrategy() *StandardStrategy { return &StandardStrategy{} }

func (s *StandardStrategy) Name() string { return StrategyStandard }

func (s *StandardStrategy) Plan(sources []WithdrawalSource, need decimal.Decimal) WithdrawalPlan {
	return drawInOrder(s.Name(), []domain.AccountKind{domain.AccountInvested, domain.AccountClient}, sources, need)
}

// ClientFirstStrategy: client -> invested
type ClientFirstStrategy struct{}

func NewClientFirstStrategy() *ClientFirstStrategy { return &ClientFirstStrategy{} }

func (s *ClientFirstStrategy) Name() string { return StrategyClientFirst }

func (s *ClientFirstStrategy) Plan(sources []WithdrawalSource, need decimal.Decimal) WithdrawalPlan {
	return drawInOrder(s.Name(), []domain.AccountKind{domain.AccountClient, domain.AccountInvested}, sources, need)
}
