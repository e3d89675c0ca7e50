package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TDSStatus is the reconciliation state of a withholding record.
type TDSStatus string

const (
	TDSPending  TDSStatus = "PENDING"
	TDSVerified TDSStatus = "VERIFIED"
	TDSMismatch TDSStatus = "MISMATCH"
	TDSClaimed  TDSStatus = "CLAIMED"
)

// CanTransition reports whether from → to is a legal status change.
func CanTransition(from, to TDSStatus) bool {
	switch from {
	case TDSPending:
		return to == TDSVerified || to == TDSMismatch
	case TDSMismatch:
		return to == TDSVerified
	case TDSVerified:
		return to == TDSClaimed
	}
	return false
}

// TDSRecord is one tax-withheld-at-source entry claimed by the taxpayer.
type TDSRecord struct {
	ID                string           `yaml:"id" json:"id"`
	DeductorName      string           `yaml:"deductor_name" json:"deductor_name"`
	DeductorTAN       string           `yaml:"deductor_tan" json:"deductor_tan"`
	Section           string           `yaml:"section" json:"section"`
	DeductionDate     time.Time        `yaml:"deduction_date,omitempty" json:"deduction_date,omitempty"`
	CertificateNumber string           `yaml:"certificate_number,omitempty" json:"certificate_number,omitempty"`
	IncomeAmount      decimal.Decimal  `yaml:"income_amount" json:"income_amount"`
	TaxWithheld       decimal.Decimal  `yaml:"tax_withheld" json:"tax_withheld"`
	ClaimedAmount     decimal.Decimal  `yaml:"claimed_amount" json:"claimed_amount"`
	StatementAmount   *decimal.Decimal `yaml:"statement_amount,omitempty" json:"statement_amount,omitempty"`
	Difference        decimal.Decimal  `yaml:"difference,omitempty" json:"difference,omitempty"`
	Status            TDSStatus        `yaml:"status" json:"status"`
	Remarks           string           `yaml:"remarks,omitempty" json:"remarks,omitempty"`
}

// MatchKey is the deductor TAN plus section, used to pair with a statement.
func (r TDSRecord) MatchKey() string {
	return strings.ToUpper(strings.TrimSpace(r.DeductorTAN)) + "/" + strings.ToUpper(strings.TrimSpace(r.Section))
}

// StatementEntry is one line of the external withholding statement.
type StatementEntry struct {
	DeductorTAN string          `yaml:"deductor_tan" json:"deductor_tan"`
	Section     string          `yaml:"section" json:"section"`
	Amount      decimal.Decimal `yaml:"amount" json:"amount"`
}

// MatchKey mirrors TDSRecord.MatchKey.
func (s StatementEntry) MatchKey() string {
	return strings.ToUpper(strings.TrimSpace(s.DeductorTAN)) + "/" + strings.ToUpper(strings.TrimSpace(s.Section))
}
