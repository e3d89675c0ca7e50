package breakeven

import (
	"context"
	"fmt"
	"strings"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/rgehrsitz/taxgo/internal/transform"
	"github.com/shopspring/decimal"
)

// SolveAcrossSalaries repeats the break-even search with the salary shifted
// by each delta, showing how the required deduction moves with income.
func (s *Solver) SolveAcrossSalaries(
	ctx context.Context,
	base *domain.ReturnFile,
	constraints Constraints,
	deltas []decimal.Decimal,
) (*SweepResult, error) {
	if base == nil {
		return nil, &BreakEvenError{Operation: "solve_across_salaries", Message: "return cannot be nil"}
	}
	if len(deltas) == 0 {
		deltas = []decimal.Decimal{decimal.Zero}
	}

	sweep := &SweepResult{}
	for _, delta := range deltas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		shifted, err := transform.ApplyTransforms(base, []transform.ReturnTransform{
			&transform.AdjustIncome{Head: domain.HeadSalary, Delta: delta},
		})
		if err != nil {
			return nil, &BreakEvenError{
				Operation: "solve_across_salaries",
				Message:   fmt.Sprintf("cannot shift salary by %s", delta.StringFixed(0)),
				Cause:     err,
			}
		}

		result, err := s.Solve(ctx, Request{Return: shifted, Constraints: constraints})
		if err != nil {
			return nil, err
		}

		sweep.Points = append(sweep.Points, SweepPoint{
			SalaryDelta: delta,
			Salary:      shifted.Income.Salary,
			Result:      result,
		})
	}

	sweep.Recommendations = generateSweepRecommendations(sweep)
	return sweep, nil
}

// generateSweepRecommendations summarizes where the old regime is worth keeping
func generateSweepRecommendations(sweep *SweepResult) []string {
	var recommendations []string

	var oldCheaper, achievable, out []string
	for _, p := range sweep.Points {
		label := "₹" + p.Salary.StringFixed(0)
		switch {
		case p.Result.Status == StatusOldCheaper:
			oldCheaper = append(oldCheaper, label)
		case p.Result.Success && p.Result.Achievable:
			achievable = append(achievable, fmt.Sprintf("%s (needs ₹%s)", label, p.Result.ExtraDeduction.StringFixed(0)))
		default:
			out = append(out, label)
		}
	}

	if len(oldCheaper) > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("Old regime already cheaper at salary %s", strings.Join(oldCheaper, ", ")))
	}
	if len(achievable) > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("Old regime reachable with unclaimed 80C/80CCD(1B)/80D room at salary %s", strings.Join(achievable, ", ")))
	}
	if len(out) > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("New regime stays cheaper at salary %s", strings.Join(out, ", ")))
	}

	return recommendations
}
