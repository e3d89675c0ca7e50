package output

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rgehrsitz/taxgo/internal/calculation"
	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/rgehrsitz/taxgo/internal/rules"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func testReturn() *domain.ReturnFile {
	statement := dec(60000)
	return &domain.ReturnFile{
		User:       "asha",
		Year:       2024,
		Election:   domain.ElectAuto,
		Taxpayer:   domain.Taxpayer{Name: "Asha", Age: 35},
		Income:     domain.IncomeProfile{Salary: dec(1200000)},
		Deductions: domain.DeductionSet{domain.Section80C: dec(50000)},
		TDS: []domain.TDSRecord{{
			ID:              "salary-tds",
			DeductorTAN:     "BLRA12345B",
			Section:         "192",
			TaxWithheld:     dec(60000),
			ClaimedAmount:   dec(60000),
			StatementAmount: &statement,
			Status:          domain.TDSPending,
		}},
	}
}

func buildReport(t *testing.T, rf *domain.ReturnFile) *Report {
	t.Helper()
	provider := rules.Default()
	res, err := calculation.NewEngine(provider).Compute(rf)
	require.NoError(t, err)
	suggestions, err := calculation.NewAdvisor(provider).Advise(res.Input)
	require.NoError(t, err)

	report := NewReport("return.yaml", rf, res, suggestions)
	report.GeneratedAt = time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC)
	return report
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   decimal.Decimal
		want string
	}{
		{decimal.Zero, "₹0.00"},
		{dec(999), "₹999.00"},
		{dec(1000), "₹1,000.00"},
		{dec(100000), "₹1,00,000.00"},
		{decimal.RequireFromString("1234567.5"), "₹12,34,567.50"},
		{dec(10000000), "₹1,00,00,000.00"},
		{dec(-148200), "-₹1,48,200.00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(tt.in))
		})
	}
}

func TestFormatRateAndPercentage(t *testing.T) {
	assert.Equal(t, "30%", FormatRate(decimal.RequireFromString("0.3")))
	assert.Equal(t, "12.5%", FormatRate(decimal.RequireFromString("0.125")))
	assert.Equal(t, "5.96%", FormatPercentage(decimal.RequireFromString("5.9583")))
}

func TestFormatterFunc(t *testing.T) {
	called := false
	formatter := FormatterFunc{
		ID: "test-formatter",
		F: func(r *Report) ([]byte, error) {
			called = true
			return []byte("test output"), nil
		},
	}

	out, err := formatter.Format(&Report{})
	assert.NoError(t, err)
	assert.True(t, called, "Should call the function")
	assert.Equal(t, []byte("test output"), out)
	assert.Equal(t, "test-formatter", formatter.Name())
}

func TestWriteFormatted(t *testing.T) {
	dir := t.TempDir()
	report := buildReport(t, testReturn())

	filename, err := WriteFormatted(ConsoleLiteFormatter{}, report, dir, "txt")
	require.NoError(t, err)
	assert.Contains(t, filename, "tax_report_asha_2024-25_20250701_093000.txt")

	content, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(content), "TAX SUMMARY asha FY 2024-25")
}

func TestWriteFormatted_FormatterError(t *testing.T) {
	formatter := FormatterFunc{
		ID: "error-formatter",
		F: func(r *Report) ([]byte, error) {
			return nil, fmt.Errorf("formatter error")
		},
	}

	filename, err := WriteFormatted(formatter, &Report{}, t.TempDir(), "txt")
	assert.Error(t, err)
	assert.Empty(t, filename, "Should return empty filename on error")
	assert.Contains(t, err.Error(), "formatter error")
}

func TestConsoleFormatter_Format(t *testing.T) {
	out, err := ConsoleFormatter{}.Format(buildReport(t, testReturn()))
	require.NoError(t, err)
	content := string(out)

	for _, want := range []string{
		"INCOME TAX COMPUTATION: FY 2024-25",
		"return.yaml",
		"₹71,500.00",
		"₹1,48,200.00",
		"Balance Payable",
		"₹11,500.00",
		"INCOME AFTER SET-OFF",
		"REGIME COMPARISON",
		"The new regime saves 76700.00",
		"TDS RECONCILIATION",
		"VERIFIED",
		"Investing 100000 more under 80C could save about 31200",
		"PAYMENT",
		"Pay the remaining 11500 as advance tax before 31 March 2025",
		"KEY ASSUMPTIONS",
		DefaultAssumptions[0],
	} {
		assert.Contains(t, content, want)
	}
	assert.NotContains(t, content, "CAPITAL GAINS", "no disposals, no gains section")
	assert.NotContains(t, content, "LOSS SET-OFF")
}

func TestConsoleFormatter_GainsAndSetOff(t *testing.T) {
	rf := testReturn()
	rf.HouseProperties = []domain.HouseProperty{{Label: "home", Use: domain.SelfOccupied, LoanInterest: dec(250000)}}
	rf.Disposals = []domain.Disposal{{
		ID:               "eq-lt",
		AssetClass:       domain.AssetEquityShare,
		Quantity:         dec(100),
		AcquisitionDate:  time.Date(2022, 4, 1, 0, 0, 0, 0, time.UTC),
		AcquisitionPrice: dec(1000),
		DisposalDate:     time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		DisposalPrice:    dec(2500),
	}}

	out, err := ConsoleFormatter{}.Format(buildReport(t, rf))
	require.NoError(t, err)
	content := string(out)

	assert.Contains(t, content, "CAPITAL GAINS")
	assert.Contains(t, content, "eq-lt")
	assert.Contains(t, content, "LONG")
	assert.Contains(t, content, "Equity LTCG allowance")
	assert.Contains(t, content, "House property:")
	assert.Contains(t, content, "LOSS SET-OFF")
	assert.Contains(t, content, "house_property")
}

func TestConsoleLiteFormatter_Format(t *testing.T) {
	out, err := ConsoleLiteFormatter{}.Format(buildReport(t, testReturn()))
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		"TAX SUMMARY asha FY 2024-25",
		"================================",
		"Old regime: ₹1,48,200.00",
		"New regime: ₹71,500.00",
		"Filed: new (Δ ₹76,700.00)",
		"Payable: ₹11,500.00",
		"",
	}, "\n"), string(out))
}

func TestCSVSummarizer_Format(t *testing.T) {
	out, err := CSVSummarizer{}.Format(buildReport(t, testReturn()))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	assert.Equal(t, "Component,Old Regime,New Regime", lines[0])
	assert.Contains(t, lines, "Taxable Income,1100000.00,1125000.00")
	assert.Contains(t, lines, "Total Liability,148200.00,71500.00")
	assert.Contains(t, lines, "Balance,88200.00,11500.00")
	assert.Contains(t, lines, "Recommended,new,new")
	assert.Len(t, lines, 15)
}

func TestCSVGainsExporter_Format(t *testing.T) {
	rf := testReturn()
	rf.Disposals = []domain.Disposal{{
		ID:               "eq-lt",
		AssetClass:       domain.AssetEquityShare,
		Quantity:         dec(100),
		AcquisitionDate:  time.Date(2022, 4, 1, 0, 0, 0, 0, time.UTC),
		AcquisitionPrice: dec(1000),
		DisposalDate:     time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		DisposalPrice:    dec(2500),
	}}

	out, err := CSVGainsExporter{}.Format(buildReport(t, rf))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Disposal ID,Asset Class,Acquired,Disposed"))
	assert.True(t, strings.HasPrefix(lines[1], "eq-lt,equity_share,2022-04-01,2024-07-01,"))
	assert.Contains(t, lines[1], ",LONG,150000.00,false,")
}

func TestJSONFormatter_Format(t *testing.T) {
	out, err := JSONFormatter{}.Format(buildReport(t, testReturn()))
	require.NoError(t, err)
	content := string(out)

	assert.Contains(t, content, `"source": "return.yaml"`)
	assert.Contains(t, content, `"generated_at": "2025-07-01T09:30:00Z"`)
	assert.Contains(t, content, `"year": "2024-25"`)
	assert.Contains(t, content, `"regime": "new"`)
	assert.Contains(t, content, `"suggestions"`)
	assert.Contains(t, content, `"assumptions"`)
}

func TestFormatters_RejectEmptyReport(t *testing.T) {
	for _, f := range builtInFormatters {
		t.Run(f.Name(), func(t *testing.T) {
			_, err := f.Format(&Report{})
			assert.Error(t, err)
			_, err = f.Format(nil)
			assert.Error(t, err)
		})
	}
}

func TestAvailableFormatterNames(t *testing.T) {
	assert.Equal(t, []string{"console", "console-lite", "csv", "gains-csv", "json"}, AvailableFormatterNames())
}

func TestAvailableFormatAliases(t *testing.T) {
	aliases := AvailableFormatAliases()
	assert.Contains(t, aliases, "table")
	assert.Contains(t, aliases, "verbose")
	assert.Contains(t, aliases, "json-pretty")
}

func TestGetFormatterByName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"console", "console"},
		{"  TABLE ", "console"},
		{"verbose", "console"},
		{"lite", "console-lite"},
		{"csv", "csv"},
		{"gains", "gains-csv"},
		{"json-pretty", "json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := GetFormatterByName(tt.name)
			require.NotNil(t, f)
			assert.Equal(t, tt.want, f.Name())
		})
	}

	assert.Nil(t, GetFormatterByName("non-existent"))
}

func TestGenerateReport(t *testing.T) {
	report := buildReport(t, testReturn())

	var buf bytes.Buffer
	require.NoError(t, GenerateReport(&buf, report, "csv"))
	assert.True(t, strings.HasPrefix(buf.String(), "Component,"))

	err := GenerateReport(&buf, report, "pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "console-lite")

	err = GenerateReport(&buf, &Report{}, "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json formatter")
}
