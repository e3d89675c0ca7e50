package domain

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ledgerNamespace scopes name-based ledger entry IDs.
var ledgerNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/rgehrsitz/taxgo/loss-ledger"))

// LedgerEntryID derives a stable ID for the carry-forward created by a head
// in a year. The same loss always gets the same ID.
func LedgerEntryID(user string, head Head, origin FinancialYear) string {
	return uuid.NewSHA1(ledgerNamespace, []byte(fmt.Sprintf("%s/%s/%d", user, head, origin))).String()
}

// LossLedgerEntry is an unabsorbed loss carried forward from OriginYear. It is
// usable up to and including ExpiryYear; afterwards it is forfeited.
type LossLedgerEntry struct {
	ID              string          `yaml:"id" json:"id"`
	Head            Head            `yaml:"head" json:"head"`
	OriginYear      FinancialYear   `yaml:"origin_year" json:"origin_year"`
	ExpiryYear      FinancialYear   `yaml:"expiry_year" json:"expiry_year"`
	OriginalAmount  decimal.Decimal `yaml:"original_amount" json:"original_amount"`
	Remaining       decimal.Decimal `yaml:"remaining" json:"remaining"`
	ForfeitedAmount decimal.Decimal `yaml:"forfeited_amount,omitempty" json:"forfeited_amount,omitempty"`
}

// Absorbed is how much of the entry has been set off so far.
func (e LossLedgerEntry) Absorbed() decimal.Decimal {
	return e.OriginalAmount.Sub(e.Remaining).Sub(e.ForfeitedAmount)
}

// Expired reports whether the entry can no longer be used in year.
func (e LossLedgerEntry) Expired(year FinancialYear) bool {
	return year > e.ExpiryYear
}

// Active reports whether the entry can still absorb income in year.
func (e LossLedgerEntry) Active(year FinancialYear) bool {
	return e.Remaining.IsPositive() && !e.Expired(year) && e.ForfeitedAmount.IsZero()
}

// Validate checks the entry's amounts are internally consistent.
func (e LossLedgerEntry) Validate() error {
	if !e.Head.CarriesLosses() {
		return fmt.Errorf("%w: entry %s has head %q which cannot carry losses", ErrLedgerInconsistency, e.ID, e.Head)
	}
	if e.Remaining.IsNegative() || e.ForfeitedAmount.IsNegative() {
		return fmt.Errorf("%w: entry %s has a negative amount", ErrLedgerInconsistency, e.ID)
	}
	if e.Remaining.Add(e.ForfeitedAmount).GreaterThan(e.OriginalAmount) {
		return fmt.Errorf("%w: entry %s remaining %s exceeds original %s", ErrLedgerInconsistency, e.ID, e.Remaining, e.OriginalAmount)
	}
	if e.ExpiryYear < e.OriginYear {
		return fmt.Errorf("%w: entry %s expires before it originates", ErrLedgerInconsistency, e.ID)
	}
	return nil
}

// LossLedger is a user's carry-forward ledger across years.
type LossLedger []LossLedgerEntry

// Clone returns an independent copy.
func (l LossLedger) Clone() LossLedger {
	if l == nil {
		return nil
	}
	out := make(LossLedger, len(l))
	copy(out, l)
	return out
}

// TotalRemaining sums the usable balance of a head in year.
func (l LossLedger) TotalRemaining(head Head, year FinancialYear) decimal.Decimal {
	total := decimal.Zero
	for _, e := range l {
		if e.Head == head && e.Active(year) {
			total = total.Add(e.Remaining)
		}
	}
	return total
}

// SortForAbsorption orders entries oldest expiry first, then origin, then ID.
func (l LossLedger) SortForAbsorption() {
	sort.SliceStable(l, func(i, j int) bool {
		if l[i].ExpiryYear != l[j].ExpiryYear {
			return l[i].ExpiryYear < l[j].ExpiryYear
		}
		if l[i].OriginYear != l[j].OriginYear {
			return l[i].OriginYear < l[j].OriginYear
		}
		return l[i].ID < l[j].ID
	})
}
