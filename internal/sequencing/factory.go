package sequencing

import (
	"fmt"

	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/shopspring/decimal"
)

// Strategy names accepted in contract configuration
const (
	StrategyStandard     = "standard"
	StrategyClientFirst  = "client_first"
	StrategyProportional = "proportional"
	StrategyCustom       = "custom"
)

// StrategyNames lists every known strategy
func StrategyNames() []string {
	return []string{StrategyStandard, StrategyClientFirst, StrategyProportional, StrategyCustom}
}

// CreateStrategy creates a sequencing strategy based on the configuration
func CreateStrategy(config *domain.WithdrawalSequencingConfig) SequencingStrategy {
	if config == nil {
		return NewStandardStrategy()
	}

	switch config.Strategy {
	case StrategyClientFirst:
		return NewClientFirstStrategy()
	case StrategyProportional:
		return NewProportionalStrategy()
	case StrategyCustom:
		return NewCustomStrategy(config.CustomSequence)
	default:
		return NewStandardStrategy()
	}
}

// ValidateConfig rejects unknown strategies and malformed custom sequences
func ValidateConfig(config *domain.WithdrawalSequencingConfig) error {
	if config == nil {
		return nil
	}
	switch config.Strategy {
	case "", StrategyStandard, StrategyClientFirst, StrategyProportional:
		return nil
	case StrategyCustom:
		return ValidateSequence(config.CustomSequence)
	}
	return fmt.Errorf("unknown withdrawal strategy %q", config.Strategy)
}

// ValidateSequence checks a custom order names each withdrawable account at most once
func ValidateSequence(sequence []domain.AccountKind) error {
	if len(sequence) == 0 {
		return fmt.Errorf("custom sequence is empty")
	}
	seen := map[domain.AccountKind]bool{}
	for _, account := range sequence {
		if account != domain.AccountClient && account != domain.AccountInvested {
			return fmt.Errorf("account %q cannot be withdrawn from", account)
		}
		if seen[account] {
			return fmt.Errorf("account %q listed twice", account)
		}
		seen[account] = true
	}
	return nil
}

// CreateWithdrawalSources lists the withdrawable accounts with their balances
func CreateWithdrawalSources(client, invested decimal.Decimal) []WithdrawalSource {
	return []WithdrawalSource{
		{Account: domain.AccountClient, Balance: client},
		{Account: domain.AccountInvested, Balance: invested},
	}
}
