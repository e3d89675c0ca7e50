package transform

import (
	"fmt"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/rgehrsitz/taxgo/internal/rules"
	"github.com/shopspring/decimal"
)

// SetDeduction replaces the claimed amount for one section.
type SetDeduction struct {
	Section domain.Section
	Amount  decimal.Decimal
}

func (sd *SetDeduction) Name() string {
	return "set_deduction"
}

func (sd *SetDeduction) Description() string {
	return fmt.Sprintf("Claim %s under %s", sd.Amount.StringFixed(0), sd.Section)
}

func (sd *SetDeduction) Validate(base *domain.ReturnFile) error {
	if base == nil {
		return NewTransformError(sd.Name(), "validate", "base return cannot be nil", nil)
	}
	if _, err := domain.ParseSection(string(sd.Section)); err != nil || sd.Section == domain.SectionStandard {
		return NewTransformError(sd.Name(), "validate", fmt.Sprintf("section %q cannot be claimed", sd.Section), err)
	}
	if sd.Amount.IsNegative() {
		return NewTransformError(sd.Name(), "validate", "amount must not be negative", domain.ErrNegativeInput)
	}
	return nil
}

func (sd *SetDeduction) Apply(base *domain.ReturnFile) (*domain.ReturnFile, error) {
	modified := base.DeepCopy()
	if modified.Deductions == nil {
		modified.Deductions = make(domain.DeductionSet)
	}
	modified.Deductions[sd.Section] = sd.Amount
	return modified, nil
}

// MaxOutSection raises a section's claim to its old-regime limit for the
// taxpayer. Claims already at or above the limit are left alone.
type MaxOutSection struct {
	Section domain.Section
	Rules   rules.Provider
}

func (ms *MaxOutSection) Name() string {
	return "max_section"
}

func (ms *MaxOutSection) Description() string {
	return fmt.Sprintf("Claim the full %s limit", ms.Section)
}

func (ms *MaxOutSection) limit(base *domain.ReturnFile) (decimal.Decimal, error) {
	tables, err := ms.Rules.Tables(base.Year, domain.RegimeOld)
	if err != nil {
		return decimal.Zero, err
	}
	dc, ok := tables.DeductionCaps[ms.Section]
	if !ok {
		return decimal.Zero, fmt.Errorf("section %s is not available in %s", ms.Section, base.Year)
	}
	cat := base.Taxpayer.Category()
	if !dc.Eligible(cat) {
		return decimal.Zero, fmt.Errorf("section %s is not available to %s taxpayers", ms.Section, cat)
	}
	limit, capped := dc.LimitFor(cat, base.Income.Salary)
	if !capped {
		return decimal.Zero, fmt.Errorf("section %s has no limit to claim up to", ms.Section)
	}
	return limit, nil
}

func (ms *MaxOutSection) Validate(base *domain.ReturnFile) error {
	if base == nil {
		return NewTransformError(ms.Name(), "validate", "base return cannot be nil", nil)
	}
	if ms.Rules == nil {
		return NewTransformError(ms.Name(), "validate", "no rule provider", nil)
	}
	if _, err := ms.limit(base); err != nil {
		return NewTransformError(ms.Name(), "validate", "cannot resolve limit", err)
	}
	return nil
}

func (ms *MaxOutSection) Apply(base *domain.ReturnFile) (*domain.ReturnFile, error) {
	limit, err := ms.limit(base)
	if err != nil {
		return nil, NewTransformError(ms.Name(), "apply", "cannot resolve limit", err)
	}
	modified := base.DeepCopy()
	if modified.Deductions == nil {
		modified.Deductions = make(domain.DeductionSet)
	}
	if modified.Deductions[ms.Section].LessThan(limit) {
		modified.Deductions[ms.Section] = limit
	}
	return modified, nil
}
