package main

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/taxgo/internal/breakeven"
	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// parseDeltas reads a comma-separated list of rupee amounts.
func parseDeltas(s string) ([]decimal.Decimal, error) {
	var out []decimal.Decimal
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := decimal.NewFromString(part)
		if err != nil {
			return nil, &domain.InputError{Field: "sweep", Reason: fmt.Sprintf("%q is not an amount", part), Err: domain.ErrInvalidInput}
		}
		out = append(out, d)
	}
	return out, nil
}

func breakEvenCmd(opts *globalOptions) *cobra.Command {
	var (
		maxExtra  string
		sweep     string
		iteration int
	)
	cmd := &cobra.Command{
		Use:     "breakeven [return-file]",
		Aliases: []string{"break-even"},
		Short:   "Find the extra old-regime deduction that matches the new regime",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rf, err := loadReturn(args[0])
			if err != nil {
				return err
			}
			engine, err := opts.engine()
			if err != nil {
				return err
			}
			options := breakeven.DefaultSolverOptions()
			if iteration > 0 {
				options.MaxIterations = iteration
			}
			solver := breakeven.NewSolver(engine, options)
			solver.SetLogger(opts.logger("breakeven"))

			var constraints breakeven.Constraints
			if maxExtra != "" {
				v, err := decimal.NewFromString(maxExtra)
				if err != nil {
					return &domain.InputError{Field: "max-extra", Reason: err.Error(), Err: domain.ErrInvalidInput}
				}
				constraints.MaxExtraDeduction = &v
			}

			jsonOut := isJSON(opts.Format)
			w := cmd.OutOrStdout()

			if sweep != "" {
				deltas, err := parseDeltas(sweep)
				if err != nil {
					return err
				}
				res, err := solver.SolveAcrossSalaries(cmd.Context(), rf, constraints, deltas)
				if err != nil {
					return err
				}
				if jsonOut {
					out, err := (&breakeven.JSONFormatter{Pretty: true}).FormatSweep(res)
					if err != nil {
						return err
					}
					fmt.Fprintln(w, out)
					return nil
				}
				fmt.Fprint(w, (&breakeven.TableFormatter{}).FormatSweep(res))
				return nil
			}

			res, err := solver.Solve(cmd.Context(), breakeven.Request{Return: rf, Constraints: constraints})
			if err != nil {
				return err
			}
			if jsonOut {
				out, err := (&breakeven.JSONFormatter{Pretty: true}).Format(res)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, out)
				return nil
			}
			fmt.Fprint(w, (&breakeven.TableFormatter{}).Format(res))
			return nil
		},
	}
	cmd.Flags().StringVar(&maxExtra, "max-extra", "", "Cap on the extra deduction searched")
	cmd.Flags().StringVar(&sweep, "sweep", "", "Comma-separated salary deltas, e.g. -200000,0,200000")
	cmd.Flags().IntVar(&iteration, "max-iterations", 0, "Bisection step limit (default 64)")
	return cmd
}
