package breakeven

import (
	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/shopspring/decimal"
)

// Status describes how a break-even search ended
type Status string

const (
	StatusConverged     Status = "converged"      // Bisection found the break-even deduction
	StatusOldCheaper    Status = "old_cheaper"    // Old regime already costs no more than new
	StatusUnreachable   Status = "unreachable"    // No deduction within bounds closes the gap
	StatusMaxIterations Status = "max_iterations" // Iteration cap hit before the tolerance
)

// PlanningSections are the capped old-regime sections a taxpayer can most
// readily top up. Their unclaimed room is reported as headroom.
var PlanningSections = []domain.Section{
	domain.Section80C,
	domain.Section80CCD1B,
	domain.Section80D,
}

// Constraints bound the search
type Constraints struct {
	// MaxExtraDeduction caps the extra old-regime deduction searched. The
	// search is always capped by the non-flat taxable income.
	MaxExtraDeduction *decimal.Decimal `json:"max_extra_deduction,omitempty"`
}

// Request defines the parameters for one break-even search
type Request struct {
	Return        *domain.ReturnFile
	Constraints   Constraints
	MaxIterations int             // Maximum bisection steps
	Tolerance     decimal.Decimal // Width of the final bracket in rupees, at least 1
}

// SectionHeadroom is the unclaimed room under one capped section
type SectionHeadroom struct {
	Section   domain.Section  `json:"section"`
	Claimed   decimal.Decimal `json:"claimed"`
	Limit     decimal.Decimal `json:"limit"`
	Remaining decimal.Decimal `json:"remaining"`
}

// Result contains the outcome of a break-even search
type Result struct {
	// Search metadata
	Request         Request              `json:"-"`
	User            string               `json:"user"`
	Year            domain.FinancialYear `json:"year"`
	Status          Status               `json:"status"`
	Success         bool                 `json:"success"`
	Iterations      int                  `json:"iterations"`
	ConvergenceInfo string               `json:"convergence_info"`

	// Liabilities on the return as filed
	OldLiability  decimal.Decimal `json:"old_liability"`
	NewLiability  decimal.Decimal `json:"new_liability"`
	OldTaxable    decimal.Decimal `json:"old_taxable"`
	SearchCeiling decimal.Decimal `json:"search_ceiling"`

	// Break-even point
	ExtraDeduction          decimal.Decimal `json:"extra_deduction"`
	OldLiabilityAtBreakEven decimal.Decimal `json:"old_liability_at_break_even"`

	// Whether the capped planning sections have room for the extra deduction
	Headroom   decimal.Decimal   `json:"headroom"`
	Sections   []SectionHeadroom `json:"sections"`
	Achievable bool              `json:"achievable"`
}

// SweepPoint is one break-even search at a shifted salary
type SweepPoint struct {
	SalaryDelta decimal.Decimal `json:"salary_delta"`
	Salary      decimal.Decimal `json:"salary"`
	Result      *Result         `json:"result"`
}

// SweepResult contains break-even searches across several salary levels
type SweepResult struct {
	Points          []SweepPoint `json:"points"`
	Recommendations []string     `json:"recommendations"`
}

// SolverOptions configures the solver algorithm
type SolverOptions struct {
	Tolerance     decimal.Decimal // Convergence tolerance in rupees
	MaxIterations int             // Maximum iterations
}

// DefaultSolverOptions returns default solver configuration
func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		Tolerance:     decimal.NewFromInt(1), // one rupee
		MaxIterations: 64,
	}
}

// Validate checks if constraints are internally consistent
func (c *Constraints) Validate() error {
	if c.MaxExtraDeduction != nil && c.MaxExtraDeduction.IsNegative() {
		return &BreakEvenError{
			Operation: "validate_constraints",
			Message:   "max_extra_deduction cannot be negative",
			Cause:     domain.ErrNegativeInput,
		}
	}
	return nil
}

// BreakEvenError represents errors from break-even solver
type BreakEvenError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *BreakEvenError) Error() string {
	if e.Cause != nil {
		return e.Operation + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Operation + ": " + e.Message
}

func (e *BreakEvenError) Unwrap() error {
	return e.Cause
}
