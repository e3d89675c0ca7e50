package breakeven

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/taxgo/internal/calculation"
	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// Solver finds the extra old-regime deduction at which the old regime stops
// costing more than the new one.
type Solver struct {
	Engine  *calculation.Engine
	Options SolverOptions
	Logger  calculation.Logger
}

// NewSolver creates a new break-even solver
func NewSolver(engine *calculation.Engine, options SolverOptions) *Solver {
	return &Solver{
		Engine:  engine,
		Options: options,
		Logger:  calculation.NopLogger{},
	}
}

// NewDefaultSolver creates a solver with default options
func NewDefaultSolver(engine *calculation.Engine) *Solver {
	return NewSolver(engine, DefaultSolverOptions())
}

// SetLogger sets the logger; nil restores the no-op logger.
func (s *Solver) SetLogger(l calculation.Logger) {
	if l == nil {
		l = calculation.NopLogger{}
	}
	s.Logger = l
}

// Solve bisects over whole-rupee extra deductions. Old-regime liability is
// non-increasing in the deduction, so the smallest deduction whose liability
// does not exceed the new-regime liability is the break-even point.
func (s *Solver) Solve(ctx context.Context, req Request) (*Result, error) {
	if req.Return == nil {
		return nil, &BreakEvenError{Operation: "solve", Message: "return cannot be nil"}
	}
	if err := req.Constraints.Validate(); err != nil {
		return nil, err
	}

	// Apply defaults
	if req.MaxIterations == 0 {
		req.MaxIterations = s.Options.MaxIterations
	}
	if req.Tolerance.IsZero() {
		req.Tolerance = s.Options.Tolerance
	}
	if req.Tolerance.LessThan(decimal.NewFromInt(1)) {
		return nil, &BreakEvenError{
			Operation: "solve",
			Message:   fmt.Sprintf("tolerance %s is below one rupee", req.Tolerance),
		}
	}

	rf := req.Return
	res, err := s.Engine.Compute(rf)
	if err != nil {
		return nil, &BreakEvenError{Operation: "solve", Message: "failed to compute return", Cause: err}
	}

	cmp := res.Comparison
	old := cmp.Old
	result := &Result{
		Request:      req,
		User:         rf.User,
		Year:         rf.Year,
		OldLiability: old.TotalLiability,
		NewLiability: cmp.New.TotalLiability,
		OldTaxable:   old.TaxableIncome,
	}

	// Deductions cannot reduce flat-taxed gains.
	ceiling := decimal.Max(old.TaxableIncome.Sub(old.FlatGainsIncome), decimal.Zero)
	if c := req.Constraints.MaxExtraDeduction; c != nil && c.LessThan(ceiling) {
		ceiling = *c
	}
	result.SearchCeiling = ceiling

	if err := s.headroom(rf, result); err != nil {
		return nil, err
	}

	liabilityAt := func(extra decimal.Decimal) (decimal.Decimal, error) {
		return s.Engine.Comparator.Composer.LiabilityAt(rf.Year, domain.RegimeOld, rf.Taxpayer,
			old.TaxableIncome.Sub(extra), res.Input.FlatGains)
	}
	target := result.NewLiability

	if !result.OldLiability.GreaterThan(target) {
		result.Status = StatusOldCheaper
		result.Success = true
		result.ExtraDeduction = decimal.Zero
		result.OldLiabilityAtBreakEven = result.OldLiability
		result.Achievable = true
		result.ConvergenceInfo = "Old regime already costs no more than the new regime"
		return result, nil
	}

	atCeiling, err := liabilityAt(ceiling)
	if err != nil {
		return nil, &BreakEvenError{Operation: "solve", Message: "failed to evaluate ceiling", Cause: err}
	}
	if atCeiling.GreaterThan(target) {
		result.Status = StatusUnreachable
		result.ExtraDeduction = ceiling
		result.OldLiabilityAtBreakEven = atCeiling
		result.ConvergenceInfo = fmt.Sprintf("Old regime still costs %s more with %s of extra deductions",
			atCeiling.Sub(target).StringFixed(2), ceiling.StringFixed(0))
		return result, nil
	}

	// Invariant: liabilityAt(lo) > target >= liabilityAt(hi).
	lo, hi := decimal.Zero, ceiling
	hiLiability := atCeiling
	for hi.Sub(lo).GreaterThan(req.Tolerance) {
		if result.Iterations >= req.MaxIterations {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Iterations++

		mid := lo.Add(hi.Sub(lo).Div(two).Ceil())
		l, err := liabilityAt(mid)
		if err != nil {
			return nil, &BreakEvenError{Operation: "solve", Message: "failed to evaluate liability", Cause: err}
		}
		s.Logger.Debugf("break-even step %d: extra %s -> old liability %s (target %s)", result.Iterations, mid, l, target)
		if l.GreaterThan(target) {
			lo = mid
		} else {
			hi, hiLiability = mid, l
		}
	}

	result.ExtraDeduction = hi
	result.OldLiabilityAtBreakEven = hiLiability
	result.Achievable = !hi.GreaterThan(result.Headroom)
	if hi.Sub(lo).GreaterThan(req.Tolerance) {
		result.Status = StatusMaxIterations
		result.ConvergenceInfo = fmt.Sprintf("Max iterations (%d) reached; bracket %s to %s",
			req.MaxIterations, lo.StringFixed(0), hi.StringFixed(0))
		return result, nil
	}

	result.Status = StatusConverged
	result.Success = true
	result.ConvergenceInfo = fmt.Sprintf("Converged within ₹%s after %d iterations", req.Tolerance.StringFixed(0), result.Iterations)
	s.Logger.Infof("%s break-even: %s extra old-regime deduction (headroom %s)", rf.Year, hi, result.Headroom)
	return result, nil
}

// headroom fills the unclaimed room under each planning section.
func (s *Solver) headroom(rf *domain.ReturnFile, result *Result) error {
	tables, err := s.Engine.Rules.Tables(rf.Year, domain.RegimeOld)
	if err != nil {
		return &BreakEvenError{Operation: "headroom", Message: "no old regime tables", Cause: err}
	}
	cat := rf.Taxpayer.Category()
	total := decimal.Zero
	for _, sec := range PlanningSections {
		dc, ok := tables.DeductionCaps[sec]
		if !ok || !dc.Eligible(cat) {
			continue
		}
		limit, capped := dc.LimitFor(cat, rf.Income.Salary)
		if !capped {
			continue
		}
		claimed := rf.Deductions[sec]
		remaining := decimal.Max(limit.Sub(claimed), decimal.Zero)
		result.Sections = append(result.Sections, SectionHeadroom{
			Section:   sec,
			Claimed:   claimed,
			Limit:     limit,
			Remaining: remaining,
		})
		total = total.Add(remaining)
	}
	result.Headroom = total
	return nil
}
