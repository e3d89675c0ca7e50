package calculation

import (
	"testing"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/rgehrsitz/taxgo/internal/rules"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oldTables(t *testing.T) *rules.Tables {
	t.Helper()
	tables, err := builtin().Tables(2024, domain.RegimeOld)
	require.NoError(t, err)
	return tables
}

func TestSlabTax(t *testing.T) {
	brackets := oldTables(t).SlabsFor(domain.AgeGeneral)
	tests := []struct {
		name     string
		income   string
		expected string
		lines    int
	}{
		{"zero income", "0", "0", 0},
		{"inside exemption", "250000", "0", 1},
		{"second bracket", "400000", "7500", 2},
		{"top bracket", "4800000", "1252500", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tax, lines := SlabTax(dec(tt.income), brackets)
			assertDecimal(t, tt.expected, tax)
			assert.Len(t, lines, tt.lines)
		})
	}
}

func TestMarginalSlabRate(t *testing.T) {
	brackets := oldTables(t).SlabsFor(domain.AgeGeneral)
	assertDecimal(t, "0", MarginalSlabRate(dec("200000"), brackets))
	assertDecimal(t, "0.2", MarginalSlabRate(dec("600000"), brackets))
	assertDecimal(t, "0.3", MarginalSlabRate(dec("2000000"), brackets))
}

func TestSurchargeWithoutRelief(t *testing.T) {
	bands := oldTables(t).Surcharge
	res := Surcharge(dec("6000000"), dec("1612500"), bands, nil)
	assertDecimal(t, "0.1", res.Rate)
	assertDecimal(t, "161250", res.Amount)
	assertDecimal(t, "0", res.MarginalRelief)

	none := Surcharge(dec("5000000"), dec("1312500"), bands, nil)
	assertDecimal(t, "0", none.Amount, "surcharge applies only above the threshold")
}

func TestComposer_NoSurchargeBelowThreshold(t *testing.T) {
	c := NewComposer(builtin())
	res, err := c.Compose(ComposeInput{
		Year:     2024,
		Regime:   domain.RegimeOld,
		Taxpayer: domain.Taxpayer{Age: 40},
		Income:   domain.IncomeProfile{OtherSources: dec("4800000")},
	})
	require.NoError(t, err)

	assertDecimal(t, "4800000", res.TaxableIncome)
	assertDecimal(t, "1252500", res.SlabTax)
	assertDecimal(t, "0", res.Surcharge)
	assertDecimal(t, "50100", res.Cess)
	assertDecimal(t, "1302600", res.TotalLiability)
	assertDecimal(t, "0.3", res.MarginalSlabRate)
}

func TestComposer_MarginalRelief(t *testing.T) {
	c := NewComposer(builtin())
	res, err := c.Compose(ComposeInput{
		Year:     2024,
		Regime:   domain.RegimeOld,
		Taxpayer: domain.Taxpayer{Age: 40},
		Income:   domain.IncomeProfile{Salary: dec("5050001")},
	})
	require.NoError(t, err)

	assertDecimal(t, "5000001", res.TaxableIncome)
	assertDecimal(t, "0.1", res.SurchargeRate)
	assertDecimal(t, "0.7", res.Surcharge)
	assert.True(t, res.MarginalRelief.IsPositive())
	// Tax plus surcharge may exceed tax at the threshold by at most the
	// one rupee earned above it.
	preCess := res.TaxAfterRebate.Add(res.Surcharge)
	assert.True(t, preCess.LessThanOrEqual(dec("1312501")), "tax plus surcharge %s", preCess)
	assertDecimal(t, "1312501", preCess)
}

func TestComposer_Rebate(t *testing.T) {
	c := NewComposer(builtin())
	tests := []struct {
		name     string
		regime   domain.Regime
		income   domain.IncomeProfile
		rebate   string
		expected string
	}{
		{"old regime at ceiling", domain.RegimeOld, domain.IncomeProfile{OtherSources: dec("500000")}, "12500", "0"},
		{"new regime at ceiling", domain.RegimeNew, domain.IncomeProfile{Salary: dec("775000")}, "20000", "0"},
		{"new regime one rupee over", domain.RegimeNew, domain.IncomeProfile{Salary: dec("775001")}, "0", "20800.05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.Compose(ComposeInput{Year: 2024, Regime: tt.regime, Income: tt.income})
			require.NoError(t, err)
			assertDecimal(t, tt.rebate, res.Rebate)
			assertDecimal(t, tt.expected, res.TotalLiability)
		})
	}
}

func TestComposer_FlatGainsAreNotReducedByDeductions(t *testing.T) {
	c := NewComposer(builtin())
	res, err := c.Compose(ComposeInput{
		Year:   2024,
		Regime: domain.RegimeOld,
		Income: domain.IncomeProfile{
			OtherSources:        dec("200000"),
			LongTermCapitalGain: dec("300000"),
		},
		Deductions: domain.DeductionSet{
			domain.Section80C: dec("150000"),
			domain.Section80D: dec("25000"),
			domain.Section80E: dec("100000"),
		},
		FlatGains: []domain.FlatGain{{Label: "LTCG @ 20%", Rate: dec("0.2"), Amount: dec("300000"), Exemption: decimal.Zero}},
	})
	require.NoError(t, err)

	assertDecimal(t, "200000", res.TotalDeductions)
	assertDecimal(t, "300000", res.TaxableIncome)
	assertDecimal(t, "0", res.SlabIncome)
	assertDecimal(t, "60000", res.FlatGainsTax)
}

func TestComposer_Payments(t *testing.T) {
	c := NewComposer(builtin())
	res, err := c.Compose(ComposeInput{
		Year:     2024,
		Regime:   domain.RegimeOld,
		Income:   domain.IncomeProfile{OtherSources: dec("4800000")},
		Payments: domain.Payments{TDS: dec("1000000"), AdvanceTax: dec("400000")},
	})
	require.NoError(t, err)
	assertDecimal(t, "1400000", res.TotalPaid)
	assertDecimal(t, "-97400", res.Balance)
	assert.True(t, res.IsRefund())
}

func TestComposer_Errors(t *testing.T) {
	c := NewComposer(builtin())
	tests := []struct {
		name   string
		input  ComposeInput
		target error
	}{
		{
			name:   "negative head",
			input:  ComposeInput{Year: 2024, Regime: domain.RegimeOld, Income: domain.IncomeProfile{Salary: dec("-1")}},
			target: domain.ErrNegativeInput,
		},
		{
			name: "negative deduction",
			input: ComposeInput{Year: 2024, Regime: domain.RegimeOld, Income: domain.IncomeProfile{Salary: dec("100")},
				Deductions: domain.DeductionSet{domain.Section80C: dec("-5")}},
			target: domain.ErrNegativeInput,
		},
		{
			name:   "negative payment",
			input:  ComposeInput{Year: 2024, Regime: domain.RegimeOld, Payments: domain.Payments{AdvanceTax: dec("-1")}},
			target: domain.ErrNegativeInput,
		},
		{
			name: "flat gains larger than capital gains",
			input: ComposeInput{Year: 2024, Regime: domain.RegimeOld, Income: domain.IncomeProfile{LongTermCapitalGain: dec("100")},
				FlatGains: []domain.FlatGain{{Rate: dec("0.1"), Amount: dec("200")}}},
			target: domain.ErrInvalidInput,
		},
		{
			name:   "unknown year",
			input:  ComposeInput{Year: 2030, Regime: domain.RegimeOld},
			target: domain.ErrInvalidFinancialYear,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.Compose(tt.input)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestApplyDeductions(t *testing.T) {
	book := builtin()
	newTables, err := book.Tables(2024, domain.RegimeNew)
	require.NoError(t, err)

	t.Run("new regime whitelist", func(t *testing.T) {
		applied, total := ApplyDeductions(newTables, domain.AgeGeneral, dec("1000000"), domain.DeductionSet{
			domain.Section80C:    dec("150000"),
			domain.Section80CCD2: dec("200000"),
		})
		// standard 75000 + 80CCD(2) capped at 14% of salary
		assertDecimal(t, "215000", total)
		require.Len(t, applied, 3)
		assert.Equal(t, domain.SectionStandard, applied[0].Section)
		assert.Contains(t, applied[1].Reason, "not allowed under the new regime")
		assertDecimal(t, "140000", applied[2].Allowed)
		assert.Contains(t, applied[2].Reason, "capped at 140000")
	})

	t.Run("senior limits", func(t *testing.T) {
		applied, total := ApplyDeductions(oldTables(t), domain.AgeSenior, decimal.Zero, domain.DeductionSet{
			domain.Section80D:   dec("60000"),
			domain.Section80TTA: dec("10000"),
			domain.Section80TTB: dec("40000"),
		})
		assertDecimal(t, "90000", total)
		byName := make(map[domain.Section]domain.AppliedDeduction)
		for _, a := range applied {
			byName[a.Section] = a
		}
		assertDecimal(t, "50000", byName[domain.Section80D].Allowed)
		assertDecimal(t, "0", byName[domain.Section80TTA].Allowed)
		assert.Contains(t, byName[domain.Section80TTA].Reason, "not available to senior")
		assertDecimal(t, "40000", byName[domain.Section80TTB].Allowed)
	})

	t.Run("standard deduction limited to salary", func(t *testing.T) {
		_, total := ApplyDeductions(oldTables(t), domain.AgeGeneral, dec("30000"), nil)
		assertDecimal(t, "30000", total)
	})
}

func TestComposer_LiabilityAtMatchesCompose(t *testing.T) {
	c := NewComposer(builtin())
	liability, err := c.LiabilityAt(2024, domain.RegimeOld, domain.Taxpayer{Age: 40}, dec("4800000"), nil)
	require.NoError(t, err)
	assertDecimal(t, "1302600", liability)

	_, err = c.LiabilityAt(2024, domain.RegimeOld, domain.Taxpayer{}, dec("-1"), nil)
	assert.ErrorIs(t, err, domain.ErrNegativeInput)
}

func TestRegimeComparator(t *testing.T) {
	rc := NewRegimeComparator(builtin())

	t.Run("new regime cheaper", func(t *testing.T) {
		cmp, err := rc.Compare(ComposeInput{Year: 2024, Income: domain.IncomeProfile{Salary: dec("1500000")}})
		require.NoError(t, err)
		assertDecimal(t, "257400", cmp.Old.TotalLiability)
		assertDecimal(t, "130000", cmp.New.TotalLiability)
		assert.Equal(t, domain.RegimeNew, cmp.Recommended)
		assertDecimal(t, "127400", cmp.Savings)
		assertDecimal(t, "127400", cmp.Difference)
		assert.Contains(t, cmp.Recommendation, "new regime saves")
	})

	t.Run("tie favors old", func(t *testing.T) {
		cmp, err := rc.Compare(ComposeInput{Year: 2024, Income: domain.IncomeProfile{OtherSources: dec("300000")}})
		require.NoError(t, err)
		assertDecimal(t, "0", cmp.Old.TotalLiability)
		assertDecimal(t, "0", cmp.New.TotalLiability)
		assert.Equal(t, domain.RegimeOld, cmp.Recommended)
		assertDecimal(t, "0", cmp.Savings)
	})

	t.Run("deductions make old cheaper", func(t *testing.T) {
		cmp, err := rc.Compare(ComposeInput{
			Year:   2024,
			Income: domain.IncomeProfile{Salary: dec("1000000")},
			Deductions: domain.DeductionSet{
				domain.Section80C:     dec("150000"),
				domain.Section80CCD1B: dec("50000"),
				domain.Section80D:     dec("25000"),
				domain.Section24B:     dec("200000"),
			},
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RegimeOld, cmp.Recommended)
		assert.Same(t, cmp.Old, cmp.Result(domain.RegimeOld))
	})
}
