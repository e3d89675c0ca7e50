package calculation

import (
	"fmt"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultTDSTolerance is the rounding slack allowed between a claim and the
// external statement.
var DefaultTDSTolerance = decimal.NewFromInt(1)

// TDSReconciler runs the withholding-record state machine.
type TDSReconciler struct {
	Tolerance decimal.Decimal
	Logger    Logger
}

// NewTDSReconciler creates a reconciler with the default tolerance.
func NewTDSReconciler() *TDSReconciler {
	return &TDSReconciler{Tolerance: DefaultTDSTolerance, Logger: NopLogger{}}
}

// SetLogger sets the logger; nil restores the no-op logger.
func (r *TDSReconciler) SetLogger(l Logger) {
	r.Logger = orNop(l)
}

func (r *TDSReconciler) withinTolerance(claimed, statement decimal.Decimal) bool {
	return claimed.Sub(statement).Abs().LessThanOrEqual(r.Tolerance)
}

func normalizeStatus(rec *domain.TDSRecord) {
	if rec.Status == "" {
		rec.Status = domain.TDSPending
	}
}

// Reconcile re-evaluates PENDING and MISMATCH records against their statement
// amounts. VERIFIED and CLAIMED records pass through unchanged, and MISMATCH
// records are never verified here (see Correct). Running it twice yields the
// same batch. The input slice is not modified.
func (r *TDSReconciler) Reconcile(records []domain.TDSRecord) []domain.TDSRecord {
	out := make([]domain.TDSRecord, len(records))
	for i, rec := range records {
		normalizeStatus(&rec)
		switch rec.Status {
		case domain.TDSPending:
			if rec.StatementAmount == nil {
				break
			}
			rec.Difference = rec.ClaimedAmount.Sub(*rec.StatementAmount)
			if r.withinTolerance(rec.ClaimedAmount, *rec.StatementAmount) {
				rec.Status = domain.TDSVerified
			} else {
				rec.Status = domain.TDSMismatch
				r.Logger.Warnf("TDS %s (%s): claimed %s, statement %s", rec.ID, rec.MatchKey(), rec.ClaimedAmount, *rec.StatementAmount)
			}
		case domain.TDSMismatch:
			if rec.StatementAmount != nil {
				rec.Difference = rec.ClaimedAmount.Sub(*rec.StatementAmount)
			}
		}
		out[i] = rec
	}
	return out
}

// MatchStatement fills statement amounts for PENDING and MISMATCH records by
// deductor TAN and section. Within a key, a statement line with the same
// amount as the claim is preferred; otherwise lines are taken in order.
// Records with no line left are unchanged.
func (r *TDSReconciler) MatchStatement(records []domain.TDSRecord, statement []domain.StatementEntry) []domain.TDSRecord {
	pool := make(map[string][]domain.StatementEntry)
	for _, s := range statement {
		pool[s.MatchKey()] = append(pool[s.MatchKey()], s)
	}

	out := make([]domain.TDSRecord, len(records))
	for i, rec := range records {
		normalizeStatus(&rec)
		if rec.Status != domain.TDSPending && rec.Status != domain.TDSMismatch {
			out[i] = rec
			continue
		}
		lines := pool[rec.MatchKey()]
		if len(lines) == 0 {
			out[i] = rec
			continue
		}
		pick := 0
		for j, line := range lines {
			if r.withinTolerance(rec.ClaimedAmount, line.Amount) {
				pick = j
				break
			}
		}
		amount := lines[pick].Amount
		rec.StatementAmount = &amount
		pool[rec.MatchKey()] = append(lines[:pick:pick], lines[pick+1:]...)
		out[i] = rec
	}
	return out
}

// Correct is the manual MISMATCH → VERIFIED action. The corrected claim must
// agree with the statement amount.
func (r *TDSReconciler) Correct(rec domain.TDSRecord, correctedClaim decimal.Decimal, remarks string) (domain.TDSRecord, error) {
	normalizeStatus(&rec)
	if rec.Status == domain.TDSClaimed {
		return rec, fmt.Errorf("correct %s: %w", rec.ID, domain.ErrRecordImmutable)
	}
	if rec.Status != domain.TDSMismatch {
		return rec, fmt.Errorf("correct %s from %s: %w", rec.ID, rec.Status, domain.ErrInvalidTransition)
	}
	if correctedClaim.IsNegative() {
		return rec, domain.NegativeInput("claimed_amount")
	}
	if rec.StatementAmount == nil {
		return rec, fmt.Errorf("correct %s: no statement amount to verify against: %w", rec.ID, domain.ErrInvalidTransition)
	}
	if !r.withinTolerance(correctedClaim, *rec.StatementAmount) {
		return rec, fmt.Errorf("correct %s: corrected claim %s still differs from statement %s: %w",
			rec.ID, correctedClaim, *rec.StatementAmount, domain.ErrInvalidTransition)
	}
	rec.ClaimedAmount = correctedClaim
	rec.Difference = correctedClaim.Sub(*rec.StatementAmount)
	rec.Status = domain.TDSVerified
	rec.Remarks = remarks
	r.Logger.Infof("TDS %s corrected to %s", rec.ID, correctedClaim)
	return rec, nil
}

// Claim marks a VERIFIED record as included in a filed computation.
func (r *TDSReconciler) Claim(rec domain.TDSRecord) (domain.TDSRecord, error) {
	normalizeStatus(&rec)
	if rec.Status == domain.TDSClaimed {
		return rec, fmt.Errorf("claim %s: %w", rec.ID, domain.ErrRecordImmutable)
	}
	if !domain.CanTransition(rec.Status, domain.TDSClaimed) {
		return rec, fmt.Errorf("claim %s from %s: %w", rec.ID, rec.Status, domain.ErrInvalidTransition)
	}
	rec.Status = domain.TDSClaimed
	return rec, nil
}

// ClaimVerified claims every VERIFIED record and leaves the rest untouched.
func (r *TDSReconciler) ClaimVerified(records []domain.TDSRecord) []domain.TDSRecord {
	out := make([]domain.TDSRecord, len(records))
	for i, rec := range records {
		if rec.Status == domain.TDSVerified {
			rec.Status = domain.TDSClaimed
		}
		out[i] = rec
	}
	return out
}

// TDSSummary aggregates a batch of records.
type TDSSummary struct {
	Records          int             `json:"records"`
	TotalWithheld    decimal.Decimal `json:"total_withheld"`
	TotalClaimed     decimal.Decimal `json:"total_claimed"`
	VerifiedTotal    decimal.Decimal `json:"verified_total"`
	MismatchTotal    decimal.Decimal `json:"mismatch_total"`
	UnclaimedBalance decimal.Decimal `json:"unclaimed_balance"`
	PendingCount     int             `json:"pending_count"`
	MismatchCount    int             `json:"mismatch_count"`
	VerifiedCount    int             `json:"verified_count"`
	ClaimedCount     int             `json:"claimed_count"`
	Recommendations  []string        `json:"recommendations"`
}

// Summarize totals a batch. VerifiedTotal counts the claimed amounts of
// VERIFIED and CLAIMED records and is what the composer treats as TDS paid.
func (r *TDSReconciler) Summarize(records []domain.TDSRecord) TDSSummary {
	s := TDSSummary{
		Records:          len(records),
		TotalWithheld:    decimal.Zero,
		TotalClaimed:     decimal.Zero,
		VerifiedTotal:    decimal.Zero,
		MismatchTotal:    decimal.Zero,
		UnclaimedBalance: decimal.Zero,
	}
	for _, rec := range records {
		normalizeStatus(&rec)
		s.TotalWithheld = s.TotalWithheld.Add(rec.TaxWithheld)
		s.TotalClaimed = s.TotalClaimed.Add(rec.ClaimedAmount)
		switch rec.Status {
		case domain.TDSPending:
			s.PendingCount++
		case domain.TDSMismatch:
			s.MismatchCount++
			s.MismatchTotal = s.MismatchTotal.Add(rec.Difference.Abs())
		case domain.TDSVerified:
			s.VerifiedCount++
			s.VerifiedTotal = s.VerifiedTotal.Add(rec.ClaimedAmount)
		case domain.TDSClaimed:
			s.ClaimedCount++
			s.VerifiedTotal = s.VerifiedTotal.Add(rec.ClaimedAmount)
		}
	}
	s.UnclaimedBalance = s.TotalWithheld.Sub(s.TotalClaimed)

	if s.PendingCount > 0 {
		s.Recommendations = append(s.Recommendations,
			fmt.Sprintf("%d TDS record(s) are pending; match them against the annual statement before filing.", s.PendingCount))
	}
	if s.MismatchCount > 0 {
		s.Recommendations = append(s.Recommendations,
			fmt.Sprintf("%d TDS record(s) differ from the statement by %s in total; correct the claims or contact the deductors.", s.MismatchCount, s.MismatchTotal.StringFixed(2)))
	}
	if s.UnclaimedBalance.IsPositive() {
		s.Recommendations = append(s.Recommendations,
			fmt.Sprintf("%s of tax withheld has not been claimed.", s.UnclaimedBalance.StringFixed(2)))
	}
	if len(s.Recommendations) == 0 && s.Records > 0 {
		s.Recommendations = append(s.Recommendations, "All TDS records are reconciled.")
	}
	return s
}
