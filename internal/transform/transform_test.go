package transform

import (
	"errors"
	"testing"

	"github.com/rgehrsitz/savingsim/internal/calculation"
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// createTestContract returns a five year annual contract indexed by 10%
func createTestContract() domain.ContractInputs {
	in := domain.NewContractInputs()
	in.Duration = domain.Duration{Value: 5, Unit: domain.DurationYear}
	in.BasePayment = dec("1000")
	in.Index = domain.Flat(dec("10"))
	in.AnnualYieldPercent = dec("4")
	return in
}

func TestApplyTransforms_EmptyTransforms(t *testing.T) {
	base := createTestContract()
	base.PaymentByYear = map[int]decimal.Decimal{2: dec("5")}

	result, err := ApplyTransforms(base, nil)
	if err != nil {
		t.Fatalf("Expected no error for empty transforms, got: %v", err)
	}
	if !result.BasePayment.Equal(base.BasePayment) {
		t.Errorf("Expected base payment %s, got %s", base.BasePayment, result.BasePayment)
	}

	result.PaymentByYear[2] = dec("99")
	if !base.PaymentByYear[2].Equal(dec("5")) {
		t.Error("Expected result maps to be independent of the base")
	}
}

func TestApplyTransforms_NilTransform(t *testing.T) {
	_, err := ApplyTransforms(createTestContract(), []ContractTransform{
		&AdjustYield{Percent: dec("2")},
		nil,
	})
	if err == nil {
		t.Error("Expected error for nil transform, got nil")
	}
}

func TestApplyTransforms_Chain(t *testing.T) {
	base := createTestContract()
	result, err := ApplyTransforms(base, []ContractTransform{
		&AdjustYield{Percent: dec("6")},
		&SetPayment{Amount: dec("2000")},
		&ExtendDuration{Years: 2},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !result.AnnualYieldPercent.Equal(dec("6")) {
		t.Errorf("Expected yield 6, got %s", result.AnnualYieldPercent)
	}
	if !result.BasePayment.Equal(dec("2000")) {
		t.Errorf("Expected payment 2000, got %s", result.BasePayment)
	}
	if result.Duration.Years() != 7 {
		t.Errorf("Expected 7 years, got %d", result.Duration.Years())
	}
	if !base.AnnualYieldPercent.Equal(dec("4")) || base.Duration.Value != 5 {
		t.Error("Base contract was modified")
	}
}

func TestApplyTransforms_ValidationFailureIsTyped(t *testing.T) {
	_, err := ApplyTransforms(createTestContract(), []ContractTransform{
		&AdjustYield{Percent: dec("-100")},
	})
	if err == nil {
		t.Fatal("Expected validation error")
	}
	var terr *TransformError
	if !errors.As(err, &terr) {
		t.Fatalf("Expected TransformError, got %T", err)
	}
	if terr.TransformName != "adjust_yield" || terr.Operation != "validate" {
		t.Errorf("Unexpected error fields: %+v", terr)
	}
}

func TestScalePayment_ScalesOverrides(t *testing.T) {
	base := createTestContract()
	base.PaymentByYear = map[int]decimal.Decimal{3: dec("400")}

	result, err := (&ScalePayment{Factor: dec("1.5")}).Apply(base)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.BasePayment.Equal(dec("1500")) {
		t.Errorf("Expected 1500, got %s", result.BasePayment)
	}
	if !result.PaymentByYear[3].Equal(dec("600")) {
		t.Errorf("Expected override 600, got %s", result.PaymentByYear[3])
	}
	if !base.PaymentByYear[3].Equal(dec("400")) {
		t.Error("Base override was modified")
	}
}

func TestPremiumHoliday_ResumesIndexedChain(t *testing.T) {
	base := createTestContract()
	result, err := ApplyTransforms(base, []ContractTransform{&PremiumHoliday{From: 2, To: 3}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	plan := calculation.PlanFor(result)
	want := map[int]string{1: "1000", 2: "0", 3: "0", 4: "1331", 5: "1464.1"}
	for year, amount := range want {
		if !plan.Payments[year].Equal(dec(amount)) {
			t.Errorf("Year %d: expected %s, got %s", year, amount, plan.Payments[year])
		}
	}
}

func TestPremiumHoliday_KeepsExistingOverride(t *testing.T) {
	base := createTestContract()
	base.PaymentByYear = map[int]decimal.Decimal{3: dec("700")}

	result, err := (&PremiumHoliday{From: 2, To: 2}).Apply(base)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.PaymentByYear[3].Equal(dec("700")) {
		t.Errorf("Expected the caller's override to stay, got %s", result.PaymentByYear[3])
	}
}

func TestPremiumHoliday_Validate(t *testing.T) {
	base := createTestContract()
	tests := []struct {
		name     string
		from, to int
		wantErr  bool
	}{
		{"valid", 2, 3, false},
		{"single year", 5, 5, false},
		{"year zero", 0, 1, true},
		{"reversed", 3, 2, true},
		{"beyond duration", 6, 7, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&PremiumHoliday{From: tt.from, To: tt.to}).Validate(base)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExtendDuration_RespectsUnit(t *testing.T) {
	base := createTestContract()
	base.Duration = domain.Duration{Value: 30, Unit: domain.DurationMonth}

	result, err := (&ExtendDuration{Years: 1}).Apply(base)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Duration.Value != 42 || result.Duration.Unit != domain.DurationMonth {
		t.Errorf("Expected 42 months, got %+v", result.Duration)
	}

	if err := (&ExtendDuration{Years: -5}).Validate(createTestContract()); err == nil {
		t.Error("Expected error when shrinking below one year")
	}
}

func TestScheduleWithdrawal(t *testing.T) {
	base := createTestContract()
	result, err := ApplyTransforms(base, []ContractTransform{
		&ScheduleWithdrawal{Year: 4, Amount: dec("300")},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.AllowWithdrawals {
		t.Error("Expected withdrawals to be enabled")
	}
	if !result.WithdrawalByYear[4].Equal(dec("300")) {
		t.Errorf("Expected 300 in year 4, got %s", result.WithdrawalByYear[4])
	}
	if base.AllowWithdrawals {
		t.Error("Base contract was modified")
	}

	if err := (&ScheduleWithdrawal{Year: 9, Amount: dec("1")}).Validate(base); err == nil {
		t.Error("Expected error for a year beyond the contract")
	}
}

func TestSetWithdrawalStrategy(t *testing.T) {
	base := createTestContract()
	result, err := (&SetWithdrawalStrategy{
		Strategy: "custom",
		Sequence: []domain.AccountKind{domain.AccountClient, domain.AccountInvested},
	}).Apply(base)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.WithdrawalSequencing == nil || result.WithdrawalSequencing.Strategy != "custom" {
		t.Fatalf("Expected custom strategy, got %+v", result.WithdrawalSequencing)
	}

	if err := (&SetWithdrawalStrategy{Strategy: "lifo"}).Validate(base); err == nil {
		t.Error("Expected error for unknown strategy")
	}
}

func TestSetIndex(t *testing.T) {
	base := createTestContract()
	base.Index.ByYear = map[int]decimal.Decimal{3: dec("0")}

	result, err := (&SetIndex{Percent: dec("3")}).Apply(base)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.Index.Default.Equal(dec("3")) {
		t.Errorf("Expected default index 3, got %s", result.Index.Default)
	}
	if _, ok := result.Index.ByYear[3]; !ok {
		t.Error("Expected per-year index entries to stay")
	}
}

func TestDescribe(t *testing.T) {
	got := Describe([]ContractTransform{
		&PremiumHoliday{From: 3, To: 3},
		&ExtendDuration{Years: 2},
	})
	want := "Skip payments in year 3; Extend the contract by 2 years"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestTransformRegistry_ParseTransformSpec(t *testing.T) {
	registry := NewTransformRegistry()

	tests := []struct {
		spec     string
		wantName string
		wantErr  bool
	}{
		{"adjust_yield:percent=5.5", "adjust_yield", false},
		{"set_payment:amount=1200000", "set_payment", false},
		{"scale_payment:factor=0.5", "scale_payment", false},
		{"premium_holiday:from=3", "premium_holiday", false},
		{"premium_holiday:from=3,to=5", "premium_holiday", false},
		{"extend_duration:years=5", "extend_duration", false},
		{"set_index:percent=0", "set_index", false},
		{"schedule_withdrawal:year=10,amount=500000", "schedule_withdrawal", false},
		{"set_withdrawal_strategy:strategy=custom,order=client>invested", "set_withdrawal_strategy", false},
		{"adjust_yield", "", true},
		{"adjust_yield:", "", true},
		{"adjust_yield:percent=abc", "", true},
		{"adjust_yield:percent", "", true},
		{"unknown:x=1", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			transform, err := registry.ParseTransformSpec(tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", tt.spec)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if transform.Name() != tt.wantName {
				t.Errorf("Expected %s, got %s", tt.wantName, transform.Name())
			}
		})
	}
}

func TestTransformRegistry_ParsedValues(t *testing.T) {
	registry := NewTransformRegistry()

	tr, err := registry.ParseTransformSpec("premium_holiday:from=3")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	ph := tr.(*PremiumHoliday)
	if ph.From != 3 || ph.To != 3 {
		t.Errorf("Expected a single year holiday, got %+v", ph)
	}

	tr, err = registry.ParseTransformSpec("set_withdrawal_strategy:strategy=custom,order=invested > client")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	ws := tr.(*SetWithdrawalStrategy)
	if len(ws.Sequence) != 2 || ws.Sequence[0] != domain.AccountInvested || ws.Sequence[1] != domain.AccountClient {
		t.Errorf("Unexpected sequence %v", ws.Sequence)
	}
}

func TestTransformRegistry_List(t *testing.T) {
	names := NewTransformRegistry().List()
	if len(names) != 8 {
		t.Errorf("Expected 8 transforms, got %d", len(names))
	}
	if names[0] != "adjust_yield" {
		t.Errorf("Expected sorted list, got %v", names)
	}
}
