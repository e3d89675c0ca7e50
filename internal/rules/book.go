package rules

import (
	"sort"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/shopspring/decimal"
)

// Provider resolves rule tables for a financial year. Missing years or
// regimes fail with an error matching domain.ErrUnsupportedYear.
type Provider interface {
	Year(year domain.FinancialYear) (*YearRules, error)
	Tables(year domain.FinancialYear, regime domain.Regime) (*Tables, error)
	CostInflationIndex(year domain.FinancialYear) (decimal.Decimal, error)
}

// CIIBaseYear is the first year of the cost inflation index series.
// Acquisitions before it use the base-year index.
const CIIBaseYear domain.FinancialYear = 2001

// Book is an in-memory Provider keyed by financial year.
type Book struct {
	years map[domain.FinancialYear]*YearRules
	cii   map[domain.FinancialYear]decimal.Decimal
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{
		years: make(map[domain.FinancialYear]*YearRules),
		cii:   make(map[domain.FinancialYear]decimal.Decimal),
	}
}

// Put adds or replaces a year's rules.
func (b *Book) Put(yr *YearRules) {
	for regime, t := range yr.Regimes {
		t.Year = yr.Year
		t.Regime = regime
	}
	b.years[yr.Year] = yr
}

// SetInflationIndex records the index for a year.
func (b *Book) SetInflationIndex(year domain.FinancialYear, index decimal.Decimal) {
	b.cii[year] = index
}

// Year implements Provider.
func (b *Book) Year(year domain.FinancialYear) (*YearRules, error) {
	yr, ok := b.years[year]
	if !ok {
		return nil, &domain.YearError{Year: year}
	}
	return yr, nil
}

// Tables implements Provider.
func (b *Book) Tables(year domain.FinancialYear, regime domain.Regime) (*Tables, error) {
	yr, err := b.Year(year)
	if err != nil {
		return nil, err
	}
	t, ok := yr.Regimes[regime]
	if !ok {
		return nil, &domain.YearError{Year: year, Regime: regime}
	}
	return t, nil
}

// CostInflationIndex implements Provider.
func (b *Book) CostInflationIndex(year domain.FinancialYear) (decimal.Decimal, error) {
	if year < CIIBaseYear {
		year = CIIBaseYear
	}
	idx, ok := b.cii[year]
	if !ok {
		return decimal.Zero, &domain.YearError{Year: year}
	}
	return idx, nil
}

// Years lists the financial years in the book, ascending.
func (b *Book) Years() []domain.FinancialYear {
	out := make([]domain.FinancialYear, 0, len(b.years))
	for y := range b.years {
		out = append(out, y)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Latest returns the most recent year in the book.
func (b *Book) Latest() (domain.FinancialYear, bool) {
	years := b.Years()
	if len(years) == 0 {
		return 0, false
	}
	return years[len(years)-1], true
}

// Clone returns a deep copy so overlays never touch the source book.
func (b *Book) Clone() *Book {
	out := NewBook()
	for y, yr := range b.years {
		out.years[y] = cloneYear(yr)
	}
	for y, idx := range b.cii {
		out.cii[y] = idx
	}
	return out
}

func cloneYear(yr *YearRules) *YearRules {
	c := &YearRules{
		Year:         yr.Year,
		CapitalGains: cloneCapitalGains(yr.CapitalGains),
		SetOff:       cloneSetOff(yr.SetOff),
		Regimes:      make(map[domain.Regime]*Tables, len(yr.Regimes)),
	}
	for r, t := range yr.Regimes {
		c.Regimes[r] = cloneTables(t)
	}
	return c
}

func cloneTables(t *Tables) *Tables {
	c := *t
	c.Slabs = make(map[domain.AgeCategory][]TaxBracket, len(t.Slabs))
	for cat, s := range t.Slabs {
		c.Slabs[cat] = append([]TaxBracket(nil), s...)
	}
	c.Surcharge = append([]SurchargeBand(nil), t.Surcharge...)
	c.DeductionCaps = make(map[domain.Section]DeductionCap, len(t.DeductionCaps))
	for s, dc := range t.DeductionCaps {
		dc.Categories = append([]domain.AgeCategory(nil), dc.Categories...)
		c.DeductionCaps[s] = dc
	}
	if t.AllowedSections != nil {
		c.AllowedSections = append([]domain.Section{}, t.AllowedSections...)
	}
	return &c
}

func cloneCapitalGains(cg CapitalGainsRules) CapitalGainsRules {
	c := cg
	c.HoldingThresholds = make(map[domain.AssetClass]int, len(cg.HoldingThresholds))
	for k, v := range cg.HoldingThresholds {
		c.HoldingThresholds[k] = v
	}
	c.Rates = make(map[domain.AssetClass]map[domain.GainType]RateRule, len(cg.Rates))
	for class, byType := range cg.Rates {
		m := make(map[domain.GainType]RateRule, len(byType))
		for gt, r := range byType {
			m[gt] = r
		}
		c.Rates[class] = m
	}
	return c
}

func cloneSetOff(s SetOffRules) SetOffRules {
	c := s
	c.CarryForwardYears = make(map[domain.Head]int, len(s.CarryForwardYears))
	for k, v := range s.CarryForwardYears {
		c.CarryForwardYears[k] = v
	}
	return c
}
