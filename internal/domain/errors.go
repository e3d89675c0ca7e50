package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every engine component. Callers match with errors.Is.
var (
	// ErrInvalidDisposal marks a disposal whose dates, quantity or prices are malformed.
	ErrInvalidDisposal = errors.New("invalid disposal")

	// ErrNegativeInput marks a negative income, deduction or payment amount.
	ErrNegativeInput = errors.New("negative input rejected")

	// ErrUnsupportedYear is returned when no rule table exists for a year or regime.
	ErrUnsupportedYear = errors.New("unsupported year")

	// ErrInvalidFinancialYear is returned by the composer when the slab table for
	// the requested year is absent. YearError matches both this and ErrUnsupportedYear.
	ErrInvalidFinancialYear = errors.New("invalid financial year")

	// ErrLedgerInconsistency is an internal logic failure: a set-off would
	// drive a ledger entry negative or a ledger entry is already corrupt.
	ErrLedgerInconsistency = errors.New("ledger inconsistency")

	// ErrInvalidInput marks structurally inconsistent input, such as flat-taxed
	// gains larger than the capital gains they belong to.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTransition is returned for an illegal TDS status change.
	ErrInvalidTransition = errors.New("invalid TDS status transition")

	// ErrRecordImmutable is returned for any change to a CLAIMED TDS record.
	ErrRecordImmutable = errors.New("TDS record is immutable")
)

// InputError describes a rejected user input field.
type InputError struct {
	Field  string
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Field, e.Reason, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// NegativeInput builds an InputError wrapping ErrNegativeInput.
func NegativeInput(field string) error {
	return &InputError{Field: field, Reason: "must not be negative", Err: ErrNegativeInput}
}

// InvalidDisposal builds an InputError wrapping ErrInvalidDisposal.
func InvalidDisposal(id, reason string) error {
	field := "disposal"
	if id != "" {
		field = "disposal " + id
	}
	return &InputError{Field: field, Reason: reason, Err: ErrInvalidDisposal}
}

// YearError reports a missing rule table.
type YearError struct {
	Year   FinancialYear
	Regime Regime
}

func (e *YearError) Error() string {
	if e.Regime == "" {
		return fmt.Sprintf("no rule table for financial year %s", e.Year)
	}
	return fmt.Sprintf("no %s regime rule table for financial year %s", e.Regime, e.Year)
}

// Is lets a YearError satisfy both year sentinels.
func (e *YearError) Is(target error) bool {
	return target == ErrUnsupportedYear || target == ErrInvalidFinancialYear
}
