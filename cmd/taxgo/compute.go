package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rgehrsitz/taxgo/internal/calculation"
	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/rgehrsitz/taxgo/internal/output"
	"github.com/spf13/cobra"
)

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func isJSON(format string) bool {
	return output.NormalizeFormatName(format) == "json"
}

func reportExtension(f output.Formatter) string {
	switch f.Name() {
	case "csv", "gains-csv":
		return "csv"
	case "json":
		return "json"
	}
	return "txt"
}

func computeCmd(opts *globalOptions) *cobra.Command {
	var (
		stateDir  string
		commitRun bool
		outputDir string
	)
	cmd := &cobra.Command{
		Use:   "compute [return-file]",
		Short: "Compute a return under both regimes and report the filed liability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if commitRun && stateDir == "" {
				return fmt.Errorf("--commit requires --state")
			}
			rf, fs, err := opts.prepareReturn(args[0], stateDir)
			if err != nil {
				return err
			}
			engine, err := opts.engine()
			if err != nil {
				return err
			}
			res, err := engine.Compute(rf)
			if err != nil {
				return err
			}
			if commitRun {
				res.TDS = engine.TDS.ClaimVerified(res.TDS)
				res.TDSSummary = engine.TDS.Summarize(res.TDS)
			}

			suggestions, err := calculation.NewAdvisor(engine.Rules).Advise(res.Input)
			if err != nil {
				return err
			}
			report := output.NewReport(args[0], rf, res, suggestions)

			if outputDir != "" {
				f := output.GetFormatterByName(opts.Format)
				if f == nil {
					return fmt.Errorf("%w: %q", output.ErrUnsupportedFormat, opts.Format)
				}
				filename, err := output.WriteFormatted(f, report, outputDir, reportExtension(f))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", filename)
			} else if err := output.GenerateReport(cmd.OutOrStdout(), report, opts.Format); err != nil {
				return err
			}

			if commitRun {
				st, err := fs.Commit(cmd.Context(), res)
				if err != nil {
					return err
				}
				opts.logger("store").Infof("committed %s/%s at revision %d", st.User, st.Year, st.Revision)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&stateDir, "state", "", "Directory holding carry-forward state between years")
	cmd.Flags().BoolVar(&commitRun, "commit", false, "Claim verified TDS and save the closing ledger to --state")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Write the report to a timestamped file in this directory")
	return cmd
}

func validateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [return-file]",
		Short: "Validate a return file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rf, err := loadReturn(args[0])
			if err != nil {
				return err
			}
			book, err := opts.ruleBook()
			if err != nil {
				return err
			}
			if _, err := book.Year(rf.Year); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Return file %s is valid (%s, FY %s)\n", args[0], rf.User, rf.Year)
			return nil
		},
	}
}

func gainsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "gains [return-file]",
		Short: "Classify and tax each disposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rf, err := loadReturn(args[0])
			if err != nil {
				return err
			}
			engine, err := opts.engine()
			if err != nil {
				return err
			}
			res, err := engine.Compute(rf)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch output.NormalizeFormatName(opts.Format) {
			case "json":
				return writeJSON(w, struct {
					Gains   []domain.TaxedGain       `json:"gains"`
					Buckets []calculation.GainBucket `json:"buckets"`
					Opening domain.ExemptionPool     `json:"opening_pool"`
					Closing domain.ExemptionPool     `json:"closing_pool"`
				}{res.Gains, res.GainBuckets, res.OpeningPool, res.ClosingPool})
			case "csv", "gains-csv":
				return output.GenerateReport(w, output.NewReport(args[0], rf, res, nil), "gains-csv")
			}

			fmt.Fprintf(w, "CAPITAL GAINS %s FY %s\n", res.User, res.Year)
			if len(res.Gains) == 0 {
				fmt.Fprintln(w, "No disposals.")
				return nil
			}
			fmt.Fprintf(w, "%-14s %-14s %6s %-5s %16s %16s %7s %14s\n",
				"Disposal", "Class", "Days", "Type", "Gain", "Taxable", "Rate", "Tax")
			for _, g := range res.Gains {
				rate := "slab"
				if g.Treatment == domain.FlatTaxed {
					rate = output.FormatRate(g.Rate)
				}
				fmt.Fprintf(w, "%-14s %-14s %6d %-5s %16s %16s %7s %14s\n",
					g.Disposal.ID, g.Disposal.AssetClass, g.HoldingDays, g.GainType,
					output.FormatCurrency(g.RawGain), output.FormatCurrency(g.TaxableAmount),
					rate, output.FormatCurrency(g.Tax))
			}
			fmt.Fprintf(w, "Equity LTCG allowance used: %s of %s\n",
				output.FormatCurrency(res.ClosingPool.Consumed), output.FormatCurrency(res.ClosingPool.Allowance))
			return nil
		},
	}
}

func setOffCmd(opts *globalOptions) *cobra.Command {
	var stateDir string
	cmd := &cobra.Command{
		Use:   "setoff [return-file]",
		Short: "Show loss set-off, carry-forward and forfeited losses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rf, _, err := opts.prepareReturn(args[0], stateDir)
			if err != nil {
				return err
			}
			engine, err := opts.engine()
			if err != nil {
				return err
			}
			res, err := engine.Compute(rf)
			if err != nil {
				return err
			}
			so := res.SetOff

			w := cmd.OutOrStdout()
			if isJSON(opts.Format) {
				return writeJSON(w, so)
			}

			fmt.Fprintf(w, "LOSS SET-OFF %s FY %s\n", res.User, res.Year)
			fmt.Fprintln(w, "Absorptions:")
			if len(so.Absorptions) == 0 {
				fmt.Fprintln(w, "  none")
			}
			for _, a := range so.Absorptions {
				fmt.Fprintf(w, "  %-16s %-24s -> %-24s %16s\n", a.Source, a.FromHead, a.ToHead, output.FormatCurrency(a.Amount))
			}
			fmt.Fprintln(w, "Forfeited:")
			if len(so.Forfeited) == 0 {
				fmt.Fprintln(w, "  none")
			}
			for _, f := range so.Forfeited {
				fmt.Fprintf(w, "  %-32s expired %s %16s\n", f.EntryID, f.ExpiryYear, output.FormatCurrency(f.Amount))
			}
			fmt.Fprintln(w, "Carried forward:")
			active := 0
			for _, e := range so.Ledger {
				if e.Remaining.IsZero() {
					continue
				}
				active++
				fmt.Fprintf(w, "  %-32s %-24s until %s %16s\n", e.ID, e.Head, e.ExpiryYear, output.FormatCurrency(e.Remaining))
			}
			if active == 0 {
				fmt.Fprintln(w, "  none")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&stateDir, "state", "", "Directory holding carry-forward state between years")
	return cmd
}

func adviseCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "advise [return-file]",
		Short: "Estimate old-regime savings from unused deduction headroom",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rf, err := loadReturn(args[0])
			if err != nil {
				return err
			}
			engine, err := opts.engine()
			if err != nil {
				return err
			}
			res, err := engine.Compute(rf)
			if err != nil {
				return err
			}
			suggestions, err := calculation.NewAdvisor(engine.Rules).Advise(res.Input)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if isJSON(opts.Format) {
				return writeJSON(w, suggestions)
			}
			if len(suggestions) == 0 {
				fmt.Fprintln(w, "No unused deduction headroom.")
				return nil
			}
			for _, s := range suggestions {
				fmt.Fprintf(w, "%-8s headroom %14s  saving ~%14s  %s\n",
					s.Section, output.FormatCurrency(s.Headroom), output.FormatCurrency(s.EstimatedSaving), s.Message)
			}
			fmt.Fprintln(w, res.Comparison.Recommendation)
			return nil
		},
	}
}
