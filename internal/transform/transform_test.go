package transform

import (
	"errors"
	"testing"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/rgehrsitz/taxgo/internal/rules"
	"github.com/shopspring/decimal"
)

// Helper function to create a basic test return
func createTestReturn() *domain.ReturnFile {
	return &domain.ReturnFile{
		User:     "asha",
		Year:     2024,
		Election: domain.ElectAuto,
		Taxpayer: domain.Taxpayer{Name: "Asha", Age: 35},
		Income: domain.IncomeProfile{
			Salary:       decimal.NewFromInt(1200000),
			OtherSources: decimal.NewFromInt(20000),
		},
		Deductions: domain.DeductionSet{
			domain.Section80C: decimal.NewFromInt(50000),
		},
	}
}

func TestApplyTransforms_NilReturn(t *testing.T) {
	transforms := []ReturnTransform{
		&SetDeduction{Section: domain.Section80C, Amount: decimal.NewFromInt(1)},
	}

	_, err := ApplyTransforms(nil, transforms)
	if err == nil {
		t.Error("Expected error for nil return, got nil")
	}
}

func TestApplyTransforms_EmptyTransforms(t *testing.T) {
	base := createTestReturn()

	result, err := ApplyTransforms(base, nil)
	if err != nil {
		t.Fatalf("Expected no error for empty transforms, got: %v", err)
	}

	if result == base {
		t.Error("Expected a copy, got same instance")
	}

	if !result.Deductions[domain.Section80C].Equal(base.Deductions[domain.Section80C]) {
		t.Error("Expected copied deductions to match")
	}
}

func TestApplyTransforms_NilTransform(t *testing.T) {
	base := createTestReturn()
	transforms := []ReturnTransform{
		&SetDeduction{Section: domain.Section80C, Amount: decimal.NewFromInt(1)},
		nil,
	}

	if _, err := ApplyTransforms(base, transforms); err == nil {
		t.Error("Expected error for nil transform, got nil")
	}
}

func TestApplyTransforms_Chain(t *testing.T) {
	base := createTestReturn()
	transforms := []ReturnTransform{
		&SetDeduction{Section: domain.Section80D, Amount: decimal.NewFromInt(25000)},
		&AdjustIncome{Head: domain.HeadSalary, Delta: decimal.NewFromInt(-200000)},
		&SetRegime{Election: domain.ElectOld},
	}

	result, err := ApplyTransforms(base, transforms)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !result.Deductions[domain.Section80D].Equal(decimal.NewFromInt(25000)) {
		t.Errorf("Expected 80D 25000, got %s", result.Deductions[domain.Section80D])
	}
	if !result.Income.Salary.Equal(decimal.NewFromInt(1000000)) {
		t.Errorf("Expected salary 1000000, got %s", result.Income.Salary)
	}
	if result.Election != domain.ElectOld {
		t.Errorf("Expected old regime, got %s", result.Election)
	}

	// Base must be untouched
	if _, ok := base.Deductions[domain.Section80D]; ok {
		t.Error("Base return deductions were modified")
	}
	if !base.Income.Salary.Equal(decimal.NewFromInt(1200000)) {
		t.Error("Base return income was modified")
	}
	if base.Election != domain.ElectAuto {
		t.Error("Base return election was modified")
	}
}

func TestSetDeduction_Validate(t *testing.T) {
	base := createTestReturn()
	tests := []struct {
		name    string
		tr      *SetDeduction
		wantErr bool
	}{
		{"valid", &SetDeduction{Section: domain.Section80C, Amount: decimal.NewFromInt(100)}, false},
		{"negative amount", &SetDeduction{Section: domain.Section80C, Amount: decimal.NewFromInt(-1)}, true},
		{"standard deduction", &SetDeduction{Section: domain.SectionStandard, Amount: decimal.NewFromInt(1)}, true},
		{"unknown section", &SetDeduction{Section: "80Z", Amount: decimal.NewFromInt(1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tr.Validate(base)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			var te *TransformError
			if err != nil && !errors.As(err, &te) {
				t.Errorf("Expected TransformError, got %T", err)
			}
		})
	}
}

func TestMaxOutSection(t *testing.T) {
	book := rules.Default()
	base := createTestReturn()

	t.Run("raises claim to limit", func(t *testing.T) {
		ms := &MaxOutSection{Section: domain.Section80C, Rules: book}
		if err := ms.Validate(base); err != nil {
			t.Fatalf("Unexpected validation error: %v", err)
		}
		result, err := ms.Apply(base)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !result.Deductions[domain.Section80C].Equal(decimal.NewFromInt(150000)) {
			t.Errorf("Expected 150000, got %s", result.Deductions[domain.Section80C])
		}
	})

	t.Run("senior limit for 80D", func(t *testing.T) {
		senior := createTestReturn()
		senior.Taxpayer.Age = 62
		result, err := (&MaxOutSection{Section: domain.Section80D, Rules: book}).Apply(senior)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !result.Deductions[domain.Section80D].Equal(decimal.NewFromInt(50000)) {
			t.Errorf("Expected 50000, got %s", result.Deductions[domain.Section80D])
		}
	})

	t.Run("claim above limit left alone", func(t *testing.T) {
		over := createTestReturn()
		over.Deductions[domain.Section80C] = decimal.NewFromInt(200000)
		result, err := (&MaxOutSection{Section: domain.Section80C, Rules: book}).Apply(over)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !result.Deductions[domain.Section80C].Equal(decimal.NewFromInt(200000)) {
			t.Errorf("Expected claim to stay at 200000, got %s", result.Deductions[domain.Section80C])
		}
	})

	t.Run("uncapped section rejected", func(t *testing.T) {
		if err := (&MaxOutSection{Section: domain.Section80E, Rules: book}).Validate(base); err == nil {
			t.Error("Expected error for uncapped section")
		}
	})

	t.Run("unsupported year rejected", func(t *testing.T) {
		future := createTestReturn()
		future.Year = 2035
		err := (&MaxOutSection{Section: domain.Section80C, Rules: book}).Validate(future)
		if !errors.Is(err, domain.ErrUnsupportedYear) {
			t.Errorf("Expected ErrUnsupportedYear, got %v", err)
		}
	})
}

func TestAdjustIncome_Validate(t *testing.T) {
	base := createTestReturn()
	tests := []struct {
		name    string
		tr      *AdjustIncome
		target  error
		wantErr bool
	}{
		{"raise salary", &AdjustIncome{Head: domain.HeadSalary, Delta: decimal.NewFromInt(100000)}, nil, false},
		{"salary below zero", &AdjustIncome{Head: domain.HeadSalary, Delta: decimal.NewFromInt(-2000000)}, domain.ErrNegativeInput, true},
		{"business loss allowed", &AdjustIncome{Head: domain.HeadBusiness, Delta: decimal.NewFromInt(-50000)}, nil, false},
		{"capital head rejected", &AdjustIncome{Head: domain.HeadLongTermCapital, Delta: decimal.NewFromInt(1)}, domain.ErrInvalidInput, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tr.Validate(base)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("Expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestTransformError(t *testing.T) {
	inner := errors.New("boom")
	err := NewTransformError("set_deduction", "apply", "failed", inner)

	if !errors.Is(err, inner) {
		t.Error("Expected TransformError to unwrap")
	}
	expected := "transform set_deduction (apply): failed: boom"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
}
