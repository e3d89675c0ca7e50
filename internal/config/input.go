package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// InputParser handles parsing of return files
type InputParser struct {
	// Strict rejects unknown keys so that typos in a return file surface
	// instead of silently dropping an amount.
	Strict bool
}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{Strict: true}
}

// LoadFromFile loads a return from a YAML or JSON file
func (ip *InputParser) LoadFromFile(filename string) (*domain.ReturnFile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data)
}

// Parse decodes, normalizes and validates a return document.
func (ip *InputParser) Parse(data []byte) (*domain.ReturnFile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(ip.Strict)

	var rf domain.ReturnFile
	if err := dec.Decode(&rf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse YAML: empty document")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	ip.Normalize(&rf)

	if err := ip.ValidateConfiguration(&rf); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &rf, nil
}

// Normalize fills defaults that a hand-written return file may leave out:
// the auto election, record IDs and the PENDING status on new TDS records.
func (ip *InputParser) Normalize(rf *domain.ReturnFile) {
	if rf.Election == "" {
		rf.Election = domain.ElectAuto
	}
	if len(rf.Deductions) > 0 {
		canonical := make(domain.DeductionSet, len(rf.Deductions))
		for sec, amt := range rf.Deductions {
			if parsed, err := domain.ParseSection(string(sec)); err == nil {
				sec = parsed
			}
			canonical[sec] = canonical[sec].Add(amt)
		}
		rf.Deductions = canonical
	}
	for i := range rf.Disposals {
		if rf.Disposals[i].ID == "" {
			rf.Disposals[i].ID = uuid.NewString()
		}
	}
	for i := range rf.TDS {
		if rf.TDS[i].ID == "" {
			rf.TDS[i].ID = uuid.NewString()
		}
		if rf.TDS[i].Status == "" {
			rf.TDS[i].Status = domain.TDSPending
		}
	}
}

// ValidateConfiguration validates the loaded return
func (ip *InputParser) ValidateConfiguration(rf *domain.ReturnFile) error {
	if rf == nil {
		return fmt.Errorf("return is required")
	}
	if rf.User == "" {
		return &domain.InputError{Field: "user", Reason: "is required", Err: domain.ErrInvalidInput}
	}
	if rf.Year == 0 {
		return &domain.InputError{Field: "financial_year", Reason: "is required", Err: domain.ErrInvalidInput}
	}
	election, err := domain.ParseElection(string(rf.Election))
	if err != nil {
		return &domain.InputError{Field: "regime", Reason: err.Error(), Err: domain.ErrInvalidInput}
	}
	rf.Election = election

	if err := ip.validateTaxpayer(rf.Taxpayer); err != nil {
		return fmt.Errorf("taxpayer validation failed: %w", err)
	}
	if err := ip.validateIncome(rf.Income); err != nil {
		return fmt.Errorf("income validation failed: %w", err)
	}
	for i, hp := range rf.HouseProperties {
		if err := ip.validateHouseProperty(hp); err != nil {
			return fmt.Errorf("house property %d validation failed: %w", i, err)
		}
	}
	for i, b := range rf.Presumptive {
		if err := ip.validatePresumptive(b); err != nil {
			return fmt.Errorf("presumptive business %d validation failed: %w", i, err)
		}
	}
	if err := rf.Deductions.Validate(); err != nil {
		return fmt.Errorf("deductions validation failed: %w", err)
	}
	if err := rf.Payments.Validate(); err != nil {
		return fmt.Errorf("payments validation failed: %w", err)
	}
	if err := ip.validateDisposals(rf.Disposals); err != nil {
		return fmt.Errorf("disposals validation failed: %w", err)
	}
	if err := ip.validateTDS(rf.TDS, rf.Statement); err != nil {
		return fmt.Errorf("TDS validation failed: %w", err)
	}
	for i, e := range rf.Ledger {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("loss ledger entry %d validation failed: %w", i, err)
		}
	}
	if rf.ExemptionConsumed.IsNegative() {
		return domain.NegativeInput("exemption_consumed")
	}

	return nil
}

func (ip *InputParser) validateTaxpayer(t domain.Taxpayer) error {
	if t.Age < 0 || t.Age > 130 {
		return &domain.InputError{
			Field:  "taxpayer.age",
			Reason: fmt.Sprintf("age %d is out of range", t.Age),
			Err:    domain.ErrInvalidInput,
		}
	}
	return nil
}

// validateIncome allows the loss-bearing heads to go negative. Capital
// gains are derived from disposals and may not be declared directly.
func (ip *InputParser) validateIncome(p domain.IncomeProfile) error {
	if p.Salary.IsNegative() {
		return domain.NegativeInput("income.salary")
	}
	if p.OtherSources.IsNegative() {
		return domain.NegativeInput("income.other_sources")
	}
	if !p.ShortTermCapitalGain.IsZero() || !p.LongTermCapitalGain.IsZero() {
		return &domain.InputError{
			Field:  "income",
			Reason: "capital gains are computed from disposals and cannot be declared",
			Err:    domain.ErrInvalidInput,
		}
	}
	return nil
}

func (ip *InputParser) validateHouseProperty(hp domain.HouseProperty) error {
	for field, v := range map[string]decimal.Decimal{
		"annual_rent":     hp.AnnualRent,
		"municipal_taxes": hp.MunicipalTaxes,
		"loan_interest":   hp.LoanInterest,
	} {
		if v.IsNegative() {
			return domain.NegativeInput(field)
		}
	}
	switch hp.Use {
	case domain.SelfOccupied, domain.LetOut, "":
		return nil
	}
	return &domain.InputError{Field: "use", Reason: fmt.Sprintf("unknown property use %q", hp.Use), Err: domain.ErrInvalidInput}
}

func (ip *InputParser) validatePresumptive(b domain.PresumptiveBusiness) error {
	if b.Turnover.IsNegative() {
		return domain.NegativeInput("turnover")
	}
	if b.DigitalReceipts.IsNegative() {
		return domain.NegativeInput("digital_receipts")
	}
	if err := b.Expenses.Validate(); err != nil {
		return err
	}
	if b.VehicleMonths < 0 {
		return domain.NegativeInput("vehicle_months")
	}
	switch b.Scheme {
	case domain.SchemeNormal, domain.Scheme44AD, domain.Scheme44ADA, domain.Scheme44AE:
	default:
		return &domain.InputError{Field: "scheme", Reason: fmt.Sprintf("unknown scheme %q", b.Scheme), Err: domain.ErrInvalidInput}
	}
	if b.DigitalReceipts.GreaterThan(b.Turnover) {
		return &domain.InputError{Field: "digital_receipts", Reason: "digital receipts exceed turnover", Err: domain.ErrInvalidInput}
	}
	return nil
}

func (ip *InputParser) validateDisposals(disposals []domain.Disposal) error {
	seen := make(map[string]bool, len(disposals))
	for _, d := range disposals {
		if seen[d.ID] {
			return domain.InvalidDisposal(d.ID, "duplicate id")
		}
		seen[d.ID] = true
		if err := d.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (ip *InputParser) validateTDS(records []domain.TDSRecord, statement []domain.StatementEntry) error {
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		field := "tds " + r.ID
		if seen[r.ID] {
			return &domain.InputError{Field: field, Reason: "duplicate id", Err: domain.ErrInvalidInput}
		}
		seen[r.ID] = true

		if r.DeductorTAN == "" {
			return &domain.InputError{Field: field + ".deductor_tan", Reason: "is required", Err: domain.ErrInvalidInput}
		}
		if r.TaxWithheld.IsNegative() {
			return domain.NegativeInput(field + ".tax_withheld")
		}
		if r.ClaimedAmount.IsNegative() {
			return domain.NegativeInput(field + ".claimed_amount")
		}
		if r.IncomeAmount.IsNegative() {
			return domain.NegativeInput(field + ".income_amount")
		}
		switch r.Status {
		case domain.TDSPending, domain.TDSVerified, domain.TDSMismatch, domain.TDSClaimed:
		default:
			return &domain.InputError{Field: field + ".status", Reason: fmt.Sprintf("unknown status %q", r.Status), Err: domain.ErrInvalidInput}
		}
	}
	for i, s := range statement {
		if s.Amount.IsNegative() {
			return domain.NegativeInput(fmt.Sprintf("statement[%d].amount", i))
		}
	}
	return nil
}

// WriteFile saves a return as YAML.
func WriteFile(filename string, rf *domain.ReturnFile) error {
	data, err := Marshal(rf)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", filename, err)
	}
	return nil
}

// Marshal renders a return as YAML.
func Marshal(rf *domain.ReturnFile) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(rf); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}
