package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Election is the regime choice on a return: a fixed regime or "auto",
// which files under whichever regime is cheaper.
type Election string

const (
	ElectOld  Election = "old"
	ElectNew  Election = "new"
	ElectAuto Election = "auto"
)

// ParseElection accepts old, new or auto; empty means auto.
func ParseElection(s string) (Election, error) {
	if strings.TrimSpace(s) == "" || strings.EqualFold(strings.TrimSpace(s), "auto") {
		return ElectAuto, nil
	}
	r, err := ParseRegime(s)
	if err != nil {
		return "", fmt.Errorf("unknown regime election %q (expected old, new or auto)", s)
	}
	return Election(r), nil
}

// PropertyUse distinguishes self-occupied from let-out property.
type PropertyUse string

const (
	SelfOccupied PropertyUse = "self_occupied"
	LetOut       PropertyUse = "let_out"
)

// HouseProperty is one property whose net result feeds the house-property head.
type HouseProperty struct {
	Label          string          `yaml:"label" json:"label"`
	Use            PropertyUse     `yaml:"use" json:"use"`
	AnnualRent     decimal.Decimal `yaml:"annual_rent" json:"annual_rent"`
	MunicipalTaxes decimal.Decimal `yaml:"municipal_taxes" json:"municipal_taxes"`
	LoanInterest   decimal.Decimal `yaml:"loan_interest" json:"loan_interest"`
}

// PresumptiveScheme selects the deemed-profit rule.
type PresumptiveScheme string

const (
	// SchemeNormal computes profit as receipts less expenses and may go negative.
	SchemeNormal PresumptiveScheme = "normal"
	Scheme44AD   PresumptiveScheme = "44AD"
	Scheme44ADA  PresumptiveScheme = "44ADA"
	// Scheme44AE deems a fixed profit per goods vehicle per month.
	Scheme44AE PresumptiveScheme = "44AE"
)

// BusinessExpenses are the deductible expenses of a business taxed under
// the normal scheme.
type BusinessExpenses struct {
	Salaries     decimal.Decimal `yaml:"salaries" json:"salaries"`
	Rent         decimal.Decimal `yaml:"rent" json:"rent"`
	Depreciation decimal.Decimal `yaml:"depreciation" json:"depreciation"`
	Interest     decimal.Decimal `yaml:"interest" json:"interest"`
	Other        decimal.Decimal `yaml:"other" json:"other"`
}

// Total sums the expense lines.
func (e BusinessExpenses) Total() decimal.Decimal {
	return e.Salaries.Add(e.Rent).Add(e.Depreciation).Add(e.Interest).Add(e.Other)
}

// Validate rejects negative expense lines.
func (e BusinessExpenses) Validate() error {
	for field, v := range map[string]decimal.Decimal{
		"salaries": e.Salaries, "rent": e.Rent, "depreciation": e.Depreciation,
		"interest": e.Interest, "other": e.Other,
	} {
		if v.IsNegative() {
			return NegativeInput("expenses." + field)
		}
	}
	return nil
}

// PresumptiveBusiness is one business or profession. Turnover is the gross
// receipts for every scheme; 44AE uses VehicleMonths instead.
type PresumptiveBusiness struct {
	Label           string            `yaml:"label" json:"label"`
	Scheme          PresumptiveScheme `yaml:"scheme" json:"scheme"`
	Turnover        decimal.Decimal   `yaml:"turnover" json:"turnover"`
	DigitalReceipts decimal.Decimal   `yaml:"digital_receipts" json:"digital_receipts"`
	Expenses        BusinessExpenses  `yaml:"expenses" json:"expenses"`
	VehicleMonths   int               `yaml:"vehicle_months" json:"vehicle_months"`
}

// ReturnFile is everything a caller resolves for one (user, financial year)
// before invoking the engine.
type ReturnFile struct {
	User              string                `yaml:"user" json:"user"`
	Year              FinancialYear         `yaml:"financial_year" json:"financial_year"`
	Election          Election              `yaml:"regime" json:"regime"`
	Taxpayer          Taxpayer              `yaml:"taxpayer" json:"taxpayer"`
	Income            IncomeProfile         `yaml:"income" json:"income"`
	HouseProperties   []HouseProperty       `yaml:"house_properties" json:"house_properties"`
	Presumptive       []PresumptiveBusiness `yaml:"presumptive_business" json:"presumptive_business"`
	Deductions        DeductionSet          `yaml:"deductions" json:"deductions"`
	Payments          Payments              `yaml:"payments" json:"payments"`
	Disposals         []Disposal            `yaml:"disposals" json:"disposals"`
	TDS               []TDSRecord           `yaml:"tds" json:"tds"`
	Statement         []StatementEntry      `yaml:"statement" json:"statement"`
	Ledger            LossLedger            `yaml:"loss_ledger" json:"loss_ledger"`
	ExemptionConsumed decimal.Decimal       `yaml:"exemption_consumed" json:"exemption_consumed"`
}

// DeepCopy returns a copy that shares no slices, maps or pointers with rf.
func (rf *ReturnFile) DeepCopy() *ReturnFile {
	if rf == nil {
		return nil
	}
	out := *rf
	out.HouseProperties = append([]HouseProperty(nil), rf.HouseProperties...)
	out.Presumptive = append([]PresumptiveBusiness(nil), rf.Presumptive...)
	if rf.Deductions != nil {
		out.Deductions = rf.Deductions.Clone()
	}
	out.Disposals = nil
	if rf.Disposals != nil {
		out.Disposals = make([]Disposal, len(rf.Disposals))
	}
	for i, d := range rf.Disposals {
		if d.IndexedCost != nil {
			v := *d.IndexedCost
			d.IndexedCost = &v
		}
		out.Disposals[i] = d
	}
	out.TDS = nil
	if rf.TDS != nil {
		out.TDS = make([]TDSRecord, len(rf.TDS))
	}
	for i, r := range rf.TDS {
		if r.StatementAmount != nil {
			v := *r.StatementAmount
			r.StatementAmount = &v
		}
		out.TDS[i] = r
	}
	out.Statement = append([]StatementEntry(nil), rf.Statement...)
	out.Ledger = rf.Ledger.Clone()
	return &out
}
