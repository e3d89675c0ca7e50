package rules

import (
	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/shopspring/decimal"
)

// RULE TABLE NOTES:
//
// 1. Old regime slabs are unchanged across the built-in years. Seniors
//    (60-79) are exempt up to 3L, super seniors (80+) up to 5L.
//
// 2. New regime slabs widened in FY2024-25 and its standard deduction rose
//    from 50,000 to 75,000. Only 80CCD(2) survives under the new regime.
//
// 3. Capital gain rates use the pre-July-2024 constants (15% equity STCG,
//    10% equity LTCG over a 1L allowance, 20% indexed LTCG) for both years.

var zero = decimal.Zero

func amt(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func rate(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// Default returns the built-in book: FY2023-24 and FY2024-25 plus the cost
// inflation index series from 2001.
func Default() *Book {
	b := NewBook()
	for y, idx := range costInflationIndex {
		b.SetInflationIndex(y, decimal.NewFromInt(idx))
	}
	b.Put(&YearRules{
		Year:         2023,
		CapitalGains: defaultCapitalGains(),
		SetOff:       defaultSetOff(),
		Regimes: map[domain.Regime]*Tables{
			domain.RegimeOld: oldRegime(),
			domain.RegimeNew: newRegime2023(),
		},
	})
	b.Put(&YearRules{
		Year:         2024,
		CapitalGains: defaultCapitalGains(),
		SetOff:       defaultSetOff(),
		Regimes: map[domain.Regime]*Tables{
			domain.RegimeOld: oldRegime(),
			domain.RegimeNew: newRegime2024(),
		},
	})
	return b
}

// costInflationIndex is keyed by the financial year's starting calendar year.
var costInflationIndex = map[domain.FinancialYear]int64{
	2001: 100, 2002: 105, 2003: 109, 2004: 113, 2005: 117,
	2006: 122, 2007: 129, 2008: 137, 2009: 148, 2010: 167,
	2011: 184, 2012: 200, 2013: 220, 2014: 240, 2015: 254,
	2016: 264, 2017: 272, 2018: 280, 2019: 289, 2020: 301,
	2021: 317, 2022: 331, 2023: 348, 2024: 363,
}

func oldRegime() *Tables {
	return &Tables{
		Slabs: map[domain.AgeCategory][]TaxBracket{
			domain.AgeGeneral: {
				{zero, amt(250000), zero},
				{amt(250000), amt(500000), rate(0.05)},
				{amt(500000), amt(1000000), rate(0.20)},
				{amt(1000000), zero, rate(0.30)},
			},
			domain.AgeSenior: {
				{zero, amt(300000), zero},
				{amt(300000), amt(500000), rate(0.05)},
				{amt(500000), amt(1000000), rate(0.20)},
				{amt(1000000), zero, rate(0.30)},
			},
			domain.AgeSuperSenior: {
				{zero, amt(500000), zero},
				{amt(500000), amt(1000000), rate(0.20)},
				{amt(1000000), zero, rate(0.30)},
			},
		},
		Surcharge: []SurchargeBand{
			{amt(5000000), rate(0.10)},
			{amt(10000000), rate(0.15)},
			{amt(20000000), rate(0.25)},
			{amt(50000000), rate(0.37)},
		},
		Rebate:            RebateRule{IncomeCeiling: amt(500000), MaxAmount: amt(12500)},
		CessRate:          rate(0.04),
		StandardDeduction: amt(50000),
		DeductionCaps: map[domain.Section]DeductionCap{
			domain.Section80C:     {Limit: amt(150000)},
			domain.Section80CCD1B: {Limit: amt(50000)},
			domain.Section80CCD2:  {SalaryPercent: rate(0.10)},
			domain.Section80D:     {Limit: amt(25000), SeniorLimit: amt(50000)},
			domain.Section80E:     {Unlimited: true},
			domain.Section80G:     {Unlimited: true},
			domain.Section80TTA:   {Limit: amt(10000), Categories: []domain.AgeCategory{domain.AgeGeneral}},
			domain.Section80TTB:   {Limit: amt(50000), Categories: []domain.AgeCategory{domain.AgeSenior, domain.AgeSuperSenior}},
			domain.Section24B:     {Limit: amt(200000)},
			domain.Section80EEA:   {Limit: amt(150000)},
			domain.Section80EEB:   {Limit: amt(150000)},
		},
	}
}

func newRegimeBase(stdDeduction int64, employerNPS float64, slabs []TaxBracket) *Tables {
	return &Tables{
		Slabs: map[domain.AgeCategory][]TaxBracket{
			domain.AgeGeneral: slabs,
		},
		Surcharge: []SurchargeBand{
			{amt(5000000), rate(0.10)},
			{amt(10000000), rate(0.15)},
			{amt(20000000), rate(0.25)},
		},
		Rebate:            RebateRule{IncomeCeiling: amt(700000), MaxAmount: amt(25000)},
		CessRate:          rate(0.04),
		StandardDeduction: amt(stdDeduction),
		DeductionCaps: map[domain.Section]DeductionCap{
			domain.Section80CCD2: {SalaryPercent: rate(employerNPS)},
		},
		AllowedSections: []domain.Section{domain.Section80CCD2},
	}
}

func newRegime2023() *Tables {
	return newRegimeBase(50000, 0.10, []TaxBracket{
		{zero, amt(300000), zero},
		{amt(300000), amt(600000), rate(0.05)},
		{amt(600000), amt(900000), rate(0.10)},
		{amt(900000), amt(1200000), rate(0.15)},
		{amt(1200000), amt(1500000), rate(0.20)},
		{amt(1500000), zero, rate(0.30)},
	})
}

func newRegime2024() *Tables {
	return newRegimeBase(75000, 0.14, []TaxBracket{
		{zero, amt(300000), zero},
		{amt(300000), amt(700000), rate(0.05)},
		{amt(700000), amt(1000000), rate(0.10)},
		{amt(1000000), amt(1200000), rate(0.15)},
		{amt(1200000), amt(1500000), rate(0.20)},
		{amt(1500000), zero, rate(0.30)},
	})
}

func defaultCapitalGains() CapitalGainsRules {
	equity := map[domain.GainType]RateRule{
		domain.ShortTerm: {Treatment: domain.FlatTaxed, Rate: rate(0.15)},
		domain.LongTerm:  {Treatment: domain.FlatTaxed, Rate: rate(0.10), Exempt: true},
	}
	indexed := func() map[domain.GainType]RateRule {
		return map[domain.GainType]RateRule{
			domain.ShortTerm: {Treatment: domain.SlabDeferred},
			domain.LongTerm:  {Treatment: domain.FlatTaxed, Rate: rate(0.20), Indexed: true},
		}
	}
	rates := map[domain.AssetClass]map[domain.GainType]RateRule{
		domain.AssetEquityShare: equity,
		domain.AssetEquityFund:  equity,
	}
	for _, class := range domain.AssetClasses {
		if !class.IsListedEquity() {
			rates[class] = indexed()
		}
	}
	return CapitalGainsRules{
		HoldingThresholds: map[domain.AssetClass]int{
			domain.AssetEquityShare:    365,
			domain.AssetEquityFund:     365,
			domain.AssetDebtFund:       1095,
			domain.AssetBond:           1095,
			domain.AssetGold:           1095,
			domain.AssetOther:          1095,
			domain.AssetRealEstate:     730,
			domain.AssetUnlistedEquity: 730,
		},
		Rates:               rates,
		EquityLTCGAllowance: amt(100000),
	}
}

func defaultSetOff() SetOffRules {
	return SetOffRules{
		HousePropertyCap: amt(200000),
		CarryForwardYears: map[domain.Head]int{
			domain.HeadHouseProperty:    8,
			domain.HeadBusiness:         8,
			domain.HeadShortTermCapital: 8,
			domain.HeadLongTermCapital:  8,
			domain.HeadSpeculative:      4,
		},
	}
}
