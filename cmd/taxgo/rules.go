package main

import (
	"fmt"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func rulesCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the financial years with rule tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := opts.ruleBook()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, y := range book.Years() {
				idx, err := book.CostInflationIndex(y)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "FY %s  cost inflation index %s\n", y, idx)
			}
			return nil
		},
	}

	var regime string
	show := &cobra.Command{
		Use:   "show [financial-year]",
		Short: "Print the rule tables for one year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := domain.ParseFinancialYear(args[0])
			if err != nil {
				return err
			}
			book, err := opts.ruleBook()
			if err != nil {
				return err
			}

			var v any
			if regime != "" {
				r, err := domain.ParseRegime(regime)
				if err != nil {
					return err
				}
				if v, err = book.Tables(year, r); err != nil {
					return err
				}
			} else if v, err = book.Year(year); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if isJSON(opts.Format) {
				return writeJSON(w, v)
			}
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(v); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	show.Flags().StringVar(&regime, "regime", "", "Only this regime's tables (old or new)")
	cmd.AddCommand(show)
	return cmd
}
