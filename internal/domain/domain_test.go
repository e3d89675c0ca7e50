package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func amount(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestFinancialYearOf(t *testing.T) {
	tests := []struct {
		date time.Time
		want FinancialYear
	}{
		{time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), 2024},
		{time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), 2024},
		{time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), 2023},
		{time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC), 2024},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FinancialYearOf(tt.date), tt.date.Format("2006-01-02"))
	}
	assert.Equal(t, "2024-25", FinancialYear(2024).String())
	assert.Equal(t, "1999-00", FinancialYear(1999).String())
}

func TestParseFinancialYear(t *testing.T) {
	valid := map[string]FinancialYear{
		"2024-25":    2024,
		"2024-2025":  2024,
		"2024":       2024,
		" FY2023-24": 2023,
		"fy 1999-00": 1999,
	}
	for in, want := range valid {
		got, err := ParseFinancialYear(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "24-25", "2024-27", "twenty", "2024-xx"} {
		_, err := ParseFinancialYear(in)
		assert.Error(t, err, in)
	}
}

func TestFinancialYear_YAML(t *testing.T) {
	var doc struct {
		Quoted FinancialYear `yaml:"quoted"`
		Plain  FinancialYear `yaml:"plain"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("quoted: \"2023-24\"\nplain: 2024\n"), &doc))
	assert.Equal(t, FinancialYear(2023), doc.Quoted)
	assert.Equal(t, FinancialYear(2024), doc.Plain)

	out, err := yaml.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), "2024-25")
}

func TestParseElectionAndRegime(t *testing.T) {
	for in, want := range map[string]Election{"": ElectAuto, "AUTO": ElectAuto, "old": ElectOld, "B": ElectNew, "115bac": ElectNew} {
		got, err := ParseElection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseElection("both")
	assert.Error(t, err)

	_, err = ParseRegime("auto")
	assert.Error(t, err, "auto is an election, not a regime")
}

func TestTaxpayerCategory(t *testing.T) {
	assert.Equal(t, AgeGeneral, Taxpayer{Age: 59}.Category())
	assert.Equal(t, AgeSenior, Taxpayer{Age: 60}.Category())
	assert.Equal(t, AgeSenior, Taxpayer{Age: 79}.Category())
	assert.Equal(t, AgeSuperSenior, Taxpayer{Age: 80}.Category())
}

func TestParseSection(t *testing.T) {
	for in, want := range map[string]Section{
		"80c":       Section80C,
		"80CCD1B":   Section80CCD1B,
		"80ccd(1b)": Section80CCD1B,
		"80 D":      Section80D,
		"standard":  SectionStandard,
	} {
		got, err := ParseSection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSection("80ZZ")
	assert.Error(t, err)
}

func TestParseAssetClass(t *testing.T) {
	got, err := ParseAssetClass("Equity MF")
	require.NoError(t, err)
	assert.Equal(t, AssetEquityFund, got)

	got, err = ParseAssetClass("stock")
	require.NoError(t, err)
	assert.Equal(t, AssetEquityShare, got)
	assert.True(t, got.IsListedEquity())
	assert.False(t, AssetGold.IsListedEquity())

	_, err = ParseAssetClass("crypto")
	assert.Error(t, err)
}

func TestDisposalValidate(t *testing.T) {
	base := Disposal{
		ID:               "d1",
		AssetClass:       AssetGold,
		Quantity:         amount(10),
		AcquisitionDate:  time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		AcquisitionPrice: amount(4000),
		DisposalDate:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		DisposalPrice:    amount(6500),
	}
	require.NoError(t, base.Validate())
	assert.Equal(t, FinancialYear(2024), base.Year())
	assert.True(t, base.SaleValue().Equal(amount(65000)))
	assert.True(t, base.Cost().Equal(amount(40000)))

	zero := decimal.Zero
	cases := map[string]func(d *Disposal){
		"unknown class":     func(d *Disposal) { d.AssetClass = "art" },
		"missing date":      func(d *Disposal) { d.AcquisitionDate = time.Time{} },
		"sold before":       func(d *Disposal) { d.DisposalDate = d.AcquisitionDate.AddDate(0, 0, -1) },
		"zero quantity":     func(d *Disposal) { d.Quantity = decimal.Zero },
		"zero buy price":    func(d *Disposal) { d.AcquisitionPrice = decimal.Zero },
		"zero sell price":   func(d *Disposal) { d.DisposalPrice = decimal.Zero },
		"negative expenses": func(d *Disposal) { d.Expenses = amount(-1) },
		"zero indexed cost": func(d *Disposal) { d.IndexedCost = &zero },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			d := base
			mutate(&d)
			err := d.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDisposal)
			assert.Contains(t, err.Error(), "disposal d1")
		})
	}
}

func TestExemptionPoolRemaining(t *testing.T) {
	p := ExemptionPool{Year: 2024, Allowance: amount(100000), Consumed: amount(40000)}
	assert.True(t, p.Remaining().Equal(amount(60000)))

	p.Consumed = amount(150000)
	assert.True(t, p.Remaining().IsZero(), "never negative")
}

func TestIncomeProfile(t *testing.T) {
	p := IncomeProfile{Salary: amount(500000)}.
		With(HeadBusiness, amount(-20000)).
		With(HeadLongTermCapital, amount(30000))

	assert.True(t, p.Amount(HeadBusiness).Equal(amount(-20000)))
	assert.True(t, p.Total().Equal(amount(510000)))
	assert.True(t, p.CapitalGains().Equal(amount(30000)))

	err := p.ValidateNonNegative()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNegativeInput)
	assert.Contains(t, err.Error(), "income.business")

	h, err := ParseHead("House Property")
	require.NoError(t, err)
	assert.Equal(t, HeadHouseProperty, h)
	assert.True(t, h.CarriesLosses())
	assert.False(t, HeadSalary.CarriesLosses())
}

func TestLossLedgerEntry(t *testing.T) {
	e := LossLedgerEntry{
		ID: "e1", Head: HeadBusiness, OriginYear: 2020, ExpiryYear: 2028,
		OriginalAmount: amount(100000), Remaining: amount(60000),
	}
	require.NoError(t, e.Validate())
	assert.True(t, e.Absorbed().Equal(amount(40000)))
	assert.True(t, e.Active(2028), "usable through the expiry year")
	assert.False(t, e.Expired(2028))
	assert.True(t, e.Expired(2029))
	assert.False(t, e.Active(2029))

	bad := []LossLedgerEntry{
		{ID: "salary", Head: HeadSalary, OriginYear: 2020, ExpiryYear: 2028, OriginalAmount: amount(1)},
		{ID: "neg", Head: HeadBusiness, OriginYear: 2020, ExpiryYear: 2028, OriginalAmount: amount(1), Remaining: amount(-1)},
		{ID: "over", Head: HeadBusiness, OriginYear: 2020, ExpiryYear: 2028, OriginalAmount: amount(1), Remaining: amount(2)},
		{ID: "back", Head: HeadBusiness, OriginYear: 2020, ExpiryYear: 2019, OriginalAmount: amount(1)},
	}
	for _, b := range bad {
		assert.ErrorIs(t, b.Validate(), ErrLedgerInconsistency, b.ID)
	}
}

func TestLossLedger(t *testing.T) {
	ledger := LossLedger{
		{ID: "b", Head: HeadBusiness, OriginYear: 2021, ExpiryYear: 2029, OriginalAmount: amount(30), Remaining: amount(30)},
		{ID: "a", Head: HeadBusiness, OriginYear: 2020, ExpiryYear: 2028, OriginalAmount: amount(50), Remaining: amount(20)},
		{ID: "c", Head: HeadBusiness, OriginYear: 2021, ExpiryYear: 2029, OriginalAmount: amount(10), Remaining: amount(10)},
		{ID: "hp", Head: HeadHouseProperty, OriginYear: 2021, ExpiryYear: 2029, OriginalAmount: amount(5), Remaining: amount(5)},
	}
	assert.True(t, ledger.TotalRemaining(HeadBusiness, 2024).Equal(amount(60)))
	assert.True(t, ledger.TotalRemaining(HeadBusiness, 2029).Equal(amount(40)), "entry a has expired")

	clone := ledger.Clone()
	clone.SortForAbsorption()
	ids := []string{}
	for _, e := range clone {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"a", "b", "c", "hp"}, ids)
	assert.Equal(t, "b", ledger[0].ID, "sorting the clone leaves the original alone")

	assert.Nil(t, LossLedger(nil).Clone())
}

func TestLedgerEntryID(t *testing.T) {
	a := LedgerEntryID("asha", HeadBusiness, 2024)
	assert.Equal(t, a, LedgerEntryID("asha", HeadBusiness, 2024), "stable")
	assert.NotEqual(t, a, LedgerEntryID("asha", HeadBusiness, 2023))
	assert.NotEqual(t, a, LedgerEntryID("ravi", HeadBusiness, 2024))
	assert.Len(t, a, 36)
}

func TestCanTransition(t *testing.T) {
	allowed := map[[2]TDSStatus]bool{
		{TDSPending, TDSVerified}:  true,
		{TDSPending, TDSMismatch}:  true,
		{TDSMismatch, TDSVerified}: true,
		{TDSVerified, TDSClaimed}:  true,
	}
	all := []TDSStatus{TDSPending, TDSVerified, TDSMismatch, TDSClaimed}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]TDSStatus{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestMatchKey(t *testing.T) {
	rec := TDSRecord{DeductorTAN: " blra12345b ", Section: "192"}
	line := StatementEntry{DeductorTAN: "BLRA12345B", Section: "192 "}
	assert.Equal(t, rec.MatchKey(), line.MatchKey())
}

func TestDeepCopy(t *testing.T) {
	indexed := amount(5000)
	statement := amount(900)
	rf := &ReturnFile{
		User:       "asha",
		Year:       2024,
		Deductions: DeductionSet{Section80C: amount(1000)},
		Disposals:  []Disposal{{ID: "d", IndexedCost: &indexed}},
		TDS:        []TDSRecord{{ID: "t", StatementAmount: &statement}},
		Ledger:     LossLedger{{ID: "l", Remaining: amount(10)}},
	}
	cp := rf.DeepCopy()
	require.Equal(t, rf, cp)

	cp.Deductions[Section80C] = amount(2)
	*cp.Disposals[0].IndexedCost = amount(1)
	*cp.TDS[0].StatementAmount = amount(1)
	cp.Ledger[0].Remaining = amount(1)

	assert.True(t, rf.Deductions[Section80C].Equal(amount(1000)))
	assert.True(t, rf.Disposals[0].IndexedCost.Equal(amount(5000)))
	assert.True(t, rf.TDS[0].StatementAmount.Equal(amount(900)))
	assert.True(t, rf.Ledger[0].Remaining.Equal(amount(10)))

	var nilReturn *ReturnFile
	assert.Nil(t, nilReturn.DeepCopy())
}

func TestErrors(t *testing.T) {
	err := NegativeInput("payments.tds")
	assert.True(t, errors.Is(err, ErrNegativeInput))
	assert.Equal(t, "payments.tds: must not be negative: negative input rejected", err.Error())

	err = InvalidDisposal("", "bad")
	assert.Equal(t, "disposal: bad: invalid disposal", err.Error())

	var ye error = &YearError{Year: 2019}
	assert.ErrorIs(t, ye, ErrUnsupportedYear)
	assert.ErrorIs(t, ye, ErrInvalidFinancialYear)
	assert.Equal(t, "no rule table for financial year 2019-20", ye.Error())
	assert.Equal(t, "no new regime rule table for financial year 2019-20",
		(&YearError{Year: 2019, Regime: RegimeNew}).Error())
}
