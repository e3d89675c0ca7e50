package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validReturnYAML = `
user: asha
financial_year: "2024-25"
regime: auto
taxpayer:
  name: Asha
  age: 35
income:
  salary: 1200000
  other_sources: 20000
deductions:
  80C: 150000
  80ccd1b: 50000
payments:
  tds: 90000
house_properties:
  - label: flat
    use: let_out
    annual_rent: 240000
    municipal_taxes: 10000
    loan_interest: 300000
disposals:
  - description: index fund units
    asset_class: equity_fund
    quantity: 100
    acquisition_date: 2022-05-02
    acquisition_price: 400
    disposal_date: 2024-06-10
    disposal_price: 1600
tds:
  - deductor_name: Employer Ltd
    deductor_tan: BLRE01234F
    section: "192"
    tax_withheld: 90000
    claimed_amount: 90000
statement:
  - deductor_tan: BLRE01234F
    section: "192"
    amount: 90000
loss_ledger:
  - id: hp-2022
    head: house_property
    origin_year: 2022
    expiry_year: 2030
    original_amount: 80000
    remaining: 30000
`

func writeReturn(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "return.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewInputParser(t *testing.T) {
	parser := NewInputParser()
	assert.NotNil(t, parser, "Should create input parser")
	assert.True(t, parser.Strict, "Should reject unknown keys by default")
}

func TestInputParser_LoadFromFile_FileNotFound(t *testing.T) {
	parser := NewInputParser()

	rf, err := parser.LoadFromFile("nonexistent.yaml")

	assert.Error(t, err, "Should error for nonexistent file")
	assert.Nil(t, rf, "Should return nil return")
	assert.Contains(t, err.Error(), "failed to read file", "Should have specific error message")
}

func TestInputParser_LoadFromFile_InvalidYAML(t *testing.T) {
	path := writeReturn(t, "invalid: yaml: content: [unclosed")

	rf, err := NewInputParser().LoadFromFile(path)

	assert.Error(t, err, "Should error for invalid YAML")
	assert.Nil(t, rf)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestInputParser_LoadFromFile_Empty(t *testing.T) {
	path := writeReturn(t, "")

	_, err := NewInputParser().LoadFromFile(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty document")
}

func TestInputParser_LoadFromFile_ValidYAML(t *testing.T) {
	path := writeReturn(t, validReturnYAML)

	rf, err := NewInputParser().LoadFromFile(path)
	require.NoError(t, err, "Should not error for valid YAML")

	assert.Equal(t, "asha", rf.User)
	assert.Equal(t, domain.FinancialYear(2024), rf.Year)
	assert.Equal(t, domain.ElectAuto, rf.Election)
	assert.Equal(t, 35, rf.Taxpayer.Age)
	assert.True(t, rf.Income.Salary.Equal(decimal.NewFromInt(1200000)))
	assert.True(t, rf.Payments.TDS.Equal(decimal.NewFromInt(90000)))

	// Deduction keys are canonicalized.
	assert.True(t, rf.Deductions[domain.Section80C].Equal(decimal.NewFromInt(150000)))
	assert.True(t, rf.Deductions[domain.Section80CCD1B].Equal(decimal.NewFromInt(50000)))
	assert.Len(t, rf.Deductions, 2)

	require.Len(t, rf.HouseProperties, 1)
	assert.Equal(t, domain.LetOut, rf.HouseProperties[0].Use)

	require.Len(t, rf.Disposals, 1)
	d := rf.Disposals[0]
	assert.NotEmpty(t, d.ID, "Should assign an ID to a disposal without one")
	assert.Equal(t, domain.AssetEquityFund, d.AssetClass)
	assert.Equal(t, time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC), d.DisposalDate)
	assert.True(t, d.DisposalPrice.Equal(decimal.NewFromInt(1600)))

	require.Len(t, rf.TDS, 1)
	assert.NotEmpty(t, rf.TDS[0].ID)
	assert.Equal(t, domain.TDSPending, rf.TDS[0].Status)
	require.Len(t, rf.Statement, 1)

	require.Len(t, rf.Ledger, 1)
	assert.Equal(t, domain.HeadHouseProperty, rf.Ledger[0].Head)
	assert.Equal(t, domain.FinancialYear(2030), rf.Ledger[0].ExpiryYear)
}

func TestInputParser_LoadFromFile_NumericYear(t *testing.T) {
	path := writeReturn(t, "user: asha\nfinancial_year: 2023\ntaxpayer:\n  age: 40\nincome:\n  salary: 500000\n")

	rf, err := NewInputParser().LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, domain.FinancialYear(2023), rf.Year)
	assert.Equal(t, domain.ElectAuto, rf.Election)
}

func TestInputParser_LoadFromFile_UnknownField(t *testing.T) {
	path := writeReturn(t, "user: asha\nfinancial_year: 2024\nincome:\n  salery: 500000\n")

	_, err := NewInputParser().LoadFromFile(path)
	require.Error(t, err, "Strict parser should reject a misspelled key")
	assert.Contains(t, err.Error(), "salery")

	lenient := &InputParser{}
	rf, err := lenient.LoadFromFile(path)
	require.NoError(t, err)
	assert.True(t, rf.Income.Salary.IsZero())
}

func TestInputParser_LoadFromFile_ValidationFailure(t *testing.T) {
	path := writeReturn(t, "user: asha\nfinancial_year: 2024\nincome:\n  salary: -1\n")

	_, err := NewInputParser().LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
	assert.ErrorIs(t, err, domain.ErrNegativeInput)
}

func TestInputParser_KeepsExistingIDs(t *testing.T) {
	path := writeReturn(t, `
user: asha
financial_year: 2024
tds:
  - id: tds-1
    deductor_tan: BLRE01234F
    section: "194A"
    tax_withheld: 4000
    claimed_amount: 4000
    status: VERIFIED
`)

	rf, err := NewInputParser().LoadFromFile(path)
	require.NoError(t, err)
	require.Len(t, rf.TDS, 1)
	assert.Equal(t, "tds-1", rf.TDS[0].ID)
	assert.Equal(t, domain.TDSVerified, rf.TDS[0].Status)
}

func TestWriteFile_RoundTrip(t *testing.T) {
	rf, err := NewInputParser().LoadFromFile(writeReturn(t, validReturnYAML))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, WriteFile(out, rf))

	reloaded, err := NewInputParser().LoadFromFile(out)
	require.NoError(t, err)

	assert.Equal(t, rf.User, reloaded.User)
	assert.Equal(t, rf.Year, reloaded.Year)
	assert.True(t, rf.Income.Salary.Equal(reloaded.Income.Salary))
	assert.Equal(t, rf.Disposals[0].ID, reloaded.Disposals[0].ID, "Assigned IDs must survive a save")
	assert.Equal(t, rf.TDS[0].ID, reloaded.TDS[0].ID)
	assert.True(t, rf.Ledger[0].Remaining.Equal(reloaded.Ledger[0].Remaining))
}

func TestWriteFile_BadPath(t *testing.T) {
	rf := &domain.ReturnFile{User: "asha", Year: 2024}
	err := WriteFile(filepath.Join(t.TempDir(), "missing", "out.yaml"), rf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write file")
}
