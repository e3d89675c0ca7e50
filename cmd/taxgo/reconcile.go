package main

import (
	"fmt"
	"io"

	"github.com/rgehrsitz/taxgo/internal/calculation"
	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/rgehrsitz/taxgo/internal/output"
	"github.com/rgehrsitz/taxgo/internal/store"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type reconcileOptions struct {
	stateDir string
	correct  string
	amount   string
	remarks  string
	claim    string
}

func reconcileCmd(opts *globalOptions) *cobra.Command {
	ro := &reconcileOptions{}
	cmd := &cobra.Command{
		Use:   "reconcile [return-file]",
		Short: "Match TDS records against the withholding statement",
		Long: `Matches each TDS record with the statement by deductor TAN and section and
reports its status. With --state, --correct and --claim change one stored
record: a MISMATCH record is corrected to VERIFIED, a VERIFIED record is
marked CLAIMED. CLAIMED records never change.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rf, fs, err := opts.prepareReturn(args[0], ro.stateDir)
			if err != nil {
				return err
			}
			reconciler := calculation.NewTDSReconciler()
			reconciler.SetLogger(opts.logger("tds"))

			if ro.correct != "" || ro.claim != "" {
				if fs == nil {
					return fmt.Errorf("--correct and --claim require --state")
				}
				return ro.apply(cmd, fs, reconciler, rf)
			}

			records := rf.TDS
			if len(rf.Statement) > 0 {
				records = reconciler.MatchStatement(records, rf.Statement)
			}
			records = reconciler.Reconcile(records)
			summary := reconciler.Summarize(records)

			w := cmd.OutOrStdout()
			if isJSON(opts.Format) {
				return writeJSON(w, struct {
					Records []domain.TDSRecord     `json:"records"`
					Summary calculation.TDSSummary `json:"summary"`
				}{records, summary})
			}
			writeTDSTable(w, rf, records, summary)

			if fs != nil {
				key := store.Key{User: rf.User, Year: rf.Year}
				st, err := fs.Update(cmd.Context(), key, func(st *store.YearState) error {
					return mergeReconciled(st, records)
				})
				if err != nil {
					return err
				}
				opts.logger("store").Infof("stored %d TDS records at revision %d", len(st.TDS), st.Revision)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ro.stateDir, "state", "", "Directory holding stored TDS records")
	cmd.Flags().StringVar(&ro.correct, "correct", "", "ID of a MISMATCH record to correct")
	cmd.Flags().StringVar(&ro.amount, "amount", "", "Corrected claim amount for --correct")
	cmd.Flags().StringVar(&ro.remarks, "remarks", "", "Remarks recorded with --correct")
	cmd.Flags().StringVar(&ro.claim, "claim", "", "ID of a VERIFIED record to mark CLAIMED")
	return cmd
}

// mergeReconciled replaces stored records with freshly reconciled ones while
// keeping CLAIMED records as they are.
func mergeReconciled(st *store.YearState, records []domain.TDSRecord) error {
	claimed := make(map[string]domain.TDSRecord)
	for _, r := range st.TDS {
		if r.Status == domain.TDSClaimed {
			claimed[r.ID] = r
		}
	}
	out := make([]domain.TDSRecord, 0, len(records))
	for _, r := range records {
		if prev, ok := claimed[r.ID]; ok {
			r = prev
		}
		out = append(out, r)
	}
	st.TDS = out
	return nil
}

func (ro *reconcileOptions) apply(cmd *cobra.Command, fs *store.FileStore, reconciler *calculation.TDSReconciler, rf *domain.ReturnFile) error {
	key := store.Key{User: rf.User, Year: rf.Year}
	ctx := cmd.Context()

	// The record must be stored before it can change state.
	st, err := fs.Load(key)
	if err != nil {
		return err
	}
	if !st.Exists() {
		if _, err := fs.Update(ctx, key, func(st *store.YearState) error {
			records := rf.TDS
			if len(rf.Statement) > 0 {
				records = reconciler.MatchStatement(records, rf.Statement)
			}
			st.TDS = reconciler.Reconcile(records)
			return nil
		}); err != nil {
			return err
		}
	}

	var id string
	var fn func(domain.TDSRecord) (domain.TDSRecord, error)
	switch {
	case ro.correct != "":
		if ro.amount == "" {
			return fmt.Errorf("--correct requires --amount")
		}
		amount, err := decimal.NewFromString(ro.amount)
		if err != nil {
			return &domain.InputError{Field: "amount", Reason: err.Error(), Err: domain.ErrInvalidInput}
		}
		id = ro.correct
		fn = func(rec domain.TDSRecord) (domain.TDSRecord, error) {
			return reconciler.Correct(rec, amount, ro.remarks)
		}
	default:
		id = ro.claim
		fn = reconciler.Claim
	}

	st, err = fs.UpdateTDS(ctx, key, id, fn)
	if err != nil {
		return err
	}
	for _, r := range st.TDS {
		if r.ID == id {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s (revision %d)\n", id, r.Status, st.Revision)
		}
	}
	return nil
}

func writeTDSTable(w io.Writer, rf *domain.ReturnFile, records []domain.TDSRecord, s calculation.TDSSummary) {
	fmt.Fprintf(w, "TDS RECONCILIATION %s FY %s\n", rf.User, rf.Year)
	fmt.Fprintf(w, "%-20s %-12s %-6s %16s %16s %16s %-9s\n",
		"Record", "TAN", "Sec", "Claimed", "Statement", "Difference", "Status")
	for _, r := range records {
		statement := "-"
		if r.StatementAmount != nil {
			statement = output.FormatCurrency(*r.StatementAmount)
		}
		fmt.Fprintf(w, "%-20s %-12s %-6s %16s %16s %16s %-9s\n",
			r.ID, r.DeductorTAN, r.Section, output.FormatCurrency(r.ClaimedAmount),
			statement, output.FormatCurrency(r.Difference), r.Status)
	}
	fmt.Fprintf(w, "Verified total: %s  Mismatch total: %s  Unclaimed: %s\n",
		output.FormatCurrency(s.VerifiedTotal), output.FormatCurrency(s.MismatchTotal), output.FormatCurrency(s.UnclaimedBalance))
	for _, rec := range s.Recommendations {
		fmt.Fprintf(w, "  • %s\n", rec)
	}
}
