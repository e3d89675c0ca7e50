package main

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/taxgo/internal/compare"
	"github.com/spf13/cobra"
)

func compareCmd(opts *globalOptions) *cobra.Command {
	var (
		with          string
		whatIf        []string
		listTemplates bool
		computations  bool
	)
	cmd := &cobra.Command{
		Use:   "compare [return-file]",
		Short: "Compare a return with what-if alternatives",
		Long: `Computes the return as filed and once per alternative. Alternatives come
from built-in templates (--with max_80c,max_nps) and from transform specs
(--what-if "set_deduction:section=80C,amount=150000"), templates first.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if listTemplates {
				return nil
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine()
			if err != nil {
				return err
			}
			ce := compare.NewCompareEngine(engine)
			w := cmd.OutOrStdout()

			if listTemplates {
				fmt.Fprintln(w, "Templates:")
				for _, name := range ce.TemplateRegistry.List() {
					t, _ := ce.TemplateRegistry.Get(name)
					fmt.Fprintf(w, "  %-20s %s\n", name, t.Description)
				}
				fmt.Fprintln(w, "Transforms:")
				for _, name := range ce.TransformRegistry.List() {
					fmt.Fprintf(w, "  %s\n", name)
				}
				return nil
			}

			var templates []string
			for _, name := range strings.Split(with, ",") {
				if name = strings.TrimSpace(name); name != "" {
					templates = append(templates, name)
				}
			}
			if len(templates) == 0 && len(whatIf) == 0 {
				return fmt.Errorf("nothing to compare: pass --with or --what-if")
			}

			rf, err := loadReturn(args[0])
			if err != nil {
				return err
			}
			set, err := ce.Compare(cmd.Context(), rf, compare.CompareOptions{
				Templates: templates,
				WhatIf:    whatIf,
			})
			if err != nil {
				return err
			}
			set.ConfigPath = args[0]

			switch strings.ToLower(strings.TrimSpace(opts.Format)) {
			case "json", "json-pretty":
				f := &compare.JSONFormatter{Pretty: true, IncludeComputations: computations}
				out, err := f.Format(set)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, out)
			case "csv":
				out, err := (&compare.CSVFormatter{}).Format(set)
				if err != nil {
					return err
				}
				fmt.Fprint(w, out)
			case "compact", "lite", "summary":
				fmt.Fprint(w, (&compare.TableFormatter{}).FormatCompact(set))
			case "console", "table", "text", "verbose":
				fmt.Fprint(w, (&compare.TableFormatter{}).Format(set))
			default:
				return fmt.Errorf("unsupported compare format %q (use console, compact, csv or json)", opts.Format)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&with, "with", "", "Comma-separated templates to compare")
	cmd.Flags().StringArrayVar(&whatIf, "what-if", nil, "Transform spec name:key=value,... (repeatable)")
	cmd.Flags().BoolVar(&listTemplates, "list-templates", false, "List templates and transforms")
	cmd.Flags().BoolVar(&computations, "computations", false, "Include full computations in JSON output")
	return cmd
}
