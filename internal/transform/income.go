package transform

import (
	"fmt"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/shopspring/decimal"
)

// AdjustIncome adds Delta (which may be negative) to one declared head.
// Capital gain heads are derived from disposals and cannot be adjusted.
type AdjustIncome struct {
	Head  domain.Head
	Delta decimal.Decimal
}

func (ai *AdjustIncome) Name() string {
	return "adjust_income"
}

func (ai *AdjustIncome) Description() string {
	sign := "+"
	if ai.Delta.IsNegative() {
		sign = ""
	}
	return fmt.Sprintf("Change %s income by %s%s", ai.Head, sign, ai.Delta.StringFixed(0))
}

func (ai *AdjustIncome) Validate(base *domain.ReturnFile) error {
	if base == nil {
		return NewTransformError(ai.Name(), "validate", "base return cannot be nil", nil)
	}
	if _, err := domain.ParseHead(string(ai.Head)); err != nil {
		return NewTransformError(ai.Name(), "validate", "unknown head", err)
	}
	if ai.Head.IsCapital() {
		return NewTransformError(ai.Name(), "validate",
			"capital gains come from disposals and cannot be adjusted directly", domain.ErrInvalidInput)
	}
	next := base.Income.Amount(ai.Head).Add(ai.Delta)
	if next.IsNegative() && !ai.Head.CarriesLosses() {
		return NewTransformError(ai.Name(), "validate",
			fmt.Sprintf("%s income would become %s", ai.Head, next.StringFixed(0)), domain.ErrNegativeInput)
	}
	return nil
}

func (ai *AdjustIncome) Apply(base *domain.ReturnFile) (*domain.ReturnFile, error) {
	modified := base.DeepCopy()
	modified.Income = modified.Income.With(ai.Head, modified.Income.Amount(ai.Head).Add(ai.Delta))
	return modified, nil
}

// SetRegime fixes the regime election on the return.
type SetRegime struct {
	Election domain.Election
}

func (sr *SetRegime) Name() string {
	return "set_regime"
}

func (sr *SetRegime) Description() string {
	return fmt.Sprintf("File under the %s regime", sr.Election)
}

func (sr *SetRegime) Validate(base *domain.ReturnFile) error {
	if base == nil {
		return NewTransformError(sr.Name(), "validate", "base return cannot be nil", nil)
	}
	if _, err := domain.ParseElection(string(sr.Election)); err != nil {
		return NewTransformError(sr.Name(), "validate", "unknown regime", err)
	}
	return nil
}

func (sr *SetRegime) Apply(base *domain.ReturnFile) (*domain.ReturnFile, error) {
	modified := base.DeepCopy()
	modified.Election = sr.Election
	return modified, nil
}
