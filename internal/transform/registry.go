package transform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/shopspring/decimal"
)

// TransformRegistry provides a central registry for all available transforms.
// It enables creation of transforms from string parameters, useful for CLI commands.
type TransformRegistry struct {
	factories map[string]TransformFactory
}

// TransformFactory is a function that creates a transform from parameters.
type TransformFactory func(params map[string]string) (ContractTransform, error)

// NewTransformRegistry creates a new registry with all built-in transforms registered.
func NewTransformRegistry() *TransformRegistry {
	registry := &TransformRegistry{
		factories: make(map[string]TransformFactory),
	}

	registry.Register("adjust_yield", createAdjustYield)
	registry.Register("set_payment", createSetPayment)
	registry.Register("scale_payment", createScalePayment)
	registry.Register("premium_holiday", createPremiumHoliday)
	registry.Register("extend_duration", createExtendDuration)
	registry.Register("set_index", createSetIndex)
	registry.Register("schedule_withdrawal", createScheduleWithdrawal)
	registry.Register("set_withdrawal_strategy", createSetWithdrawalStrategy)

	return registry
}

// Register adds a transform factory to the registry.
func (r *TransformRegistry) Register(name string, factory TransformFactory) {
	r.factories[name] = factory
}

// Create creates a transform by name with the given parameters.
func (r *TransformRegistry) Create(name string, params map[string]string) (ContractTransform, error) {
	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("unknown transform: %s", name)
	}

	return factory(params)
}

// List returns the sorted names of all registered transforms.
func (r *TransformRegistry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseTransformSpec parses a transform specification string.
// Format: "transform_name:param1=value1,param2=value2"
// Example: "premium_holiday:from=3,to=4"
func (r *TransformRegistry) ParseTransformSpec(spec string) (ContractTransform, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid transform spec format, expected 'name:params', got: %s", spec)
	}

	name := strings.TrimSpace(parts[0])
	paramsStr := strings.TrimSpace(parts[1])

	params := make(map[string]string)
	if paramsStr != "" {
		for _, paramPair := range strings.Split(paramsStr, ",") {
			kv := strings.SplitN(paramPair, "=", 2)
			if len(kv) != 2 {
				return nil, fmt.Errorf("invalid parameter format, expected 'key=value', got: %s", paramPair)
			}
			params[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		}
	}

	return r.Create(name, params)
}

func requireDecimal(params map[string]string, transform, key string) (decimal.Decimal, error) {
	raw, ok := params[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("%s requires '%s' parameter", transform, key)
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}

func requireInt(params map[string]string, transform, key string) (int, error) {
	raw, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("%s requires '%s' parameter", transform, key)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}

func createAdjustYield(params map[string]string) (ContractTransform, error) {
	v, err := requireDecimal(params, "adjust_yield", "percent")
	if err != nil {
		return nil, err
	}
	return &AdjustYield{Percent: v}, nil
}

func createSetPayment(params map[string]string) (ContractTransform, error) {
	v, err := requireDecimal(params, "set_payment", "amount")
	if err != nil {
		return nil, err
	}
	return &SetPayment{Amount: v}, nil
}

func createScalePayment(params map[string]string) (ContractTransform, error) {
	v, err := requireDecimal(params, "scale_payment", "factor")
	if err != nil {
		return nil, err
	}
	return &ScalePayment{Factor: v}, nil
}

func createPremiumHoliday(params map[string]string) (ContractTransform, error) {
	from, err := requireInt(params, "premium_holiday", "from")
	if err != nil {
		return nil, err
	}
	to := from
	if _, ok := params["to"]; ok {
		if to, err = requireInt(params, "premium_holiday", "to"); err != nil {
			return nil, err
		}
	}
	return &PremiumHoliday{From: from, To: to}, nil
}

func createExtendDuration(params map[string]string) (ContractTransform, error) {
	v, err := requireInt(params, "extend_duration", "years")
	if err != nil {
		return nil, err
	}
	return &ExtendDuration{Years: v}, nil
}

func createSetIndex(params map[string]string) (ContractTransform, error) {
	v, err := requireDecimal(params, "set_index", "percent")
	if err != nil {
		return nil, err
	}
	return &SetIndex{Percent: v}, nil
}

func createScheduleWithdrawal(params map[string]string) (ContractTransform, error) {
	year, err := requireInt(params, "schedule_withdrawal", "year")
	if err != nil {
		return nil, err
	}
	amount, err := requireDecimal(params, "schedule_withdrawal", "amount")
	if err != nil {
		return nil, err
	}
	return &ScheduleWithdrawal{Year: year, Amount: amount}, nil
}

func createSetWithdrawalStrategy(params map[string]string) (ContractTransform, error) {
	strategy, ok := params["strategy"]
	if !ok {
		return nil, fmt.Errorf("set_withdrawal_strategy requires 'strategy' parameter")
	}

	// Sequence uses '>' since ',' separates parameters: order=client>invested
	var sequence []domain.AccountKind
	if order, ok := params["order"]; ok && order != "" {
		for _, account := range strings.Split(order, ">") {
			sequence = append(sequence, domain.AccountKind(strings.TrimSpace(account)))
		}
	}

	return &SetWithdrawalStrategy{Strategy: strategy, Sequence: sequence}, nil
}
