package calculation

import (
	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/rgehrsitz/taxgo/internal/rules"
	"github.com/shopspring/decimal"
)

// TAX PRIMITIVES:
//
// These functions are the only place slab, rebate, surcharge and cess math
// lives. The composer, the regime comparator and the break-even solver all
// call them; nothing else computes tax on income.

var hundred = decimal.NewFromInt(100)

// SlabTax computes tax on income over ascending brackets and returns the
// per-bracket breakdown. Brackets with no income in them are omitted.
func SlabTax(income decimal.Decimal, brackets []rules.TaxBracket) (decimal.Decimal, []domain.SlabLine) {
	total := decimal.Zero
	var lines []domain.SlabLine
	if !income.IsPositive() {
		return total, lines
	}
	for _, bracket := range brackets {
		if income.LessThanOrEqual(bracket.Min) {
			break
		}
		upper := income
		if !bracket.Unbounded() {
			upper = decimal.Min(income, bracket.Max)
		}
		inBracket := upper.Sub(bracket.Min)
		if !inBracket.IsPositive() {
			continue
		}
		tax := inBracket.Mul(bracket.Rate)
		total = total.Add(tax)
		lines = append(lines, domain.SlabLine{
			From:   bracket.Min,
			To:     bracket.Max,
			Rate:   bracket.Rate,
			Income: inBracket,
			Tax:    tax,
		})
	}
	return total, lines
}

// MarginalSlabRate is the rate of the bracket the last rupee of income falls in.
func MarginalSlabRate(income decimal.Decimal, brackets []rules.TaxBracket) decimal.Decimal {
	r := decimal.Zero
	for _, bracket := range brackets {
		if income.LessThanOrEqual(bracket.Min) {
			break
		}
		r = bracket.Rate
	}
	return r
}

// Rebate grants the regime's fixed rebate when taxable income is within the
// ceiling. It never exceeds the tax it is applied to.
func Rebate(taxableIncome, taxBeforeRebate decimal.Decimal, rule rules.RebateRule) decimal.Decimal {
	if taxableIncome.GreaterThan(rule.IncomeCeiling) || !taxBeforeRebate.IsPositive() {
		return decimal.Zero
	}
	return decimal.Min(rule.MaxAmount, taxBeforeRebate)
}

// SurchargeResult is the outcome of a surcharge computation.
type SurchargeResult struct {
	Rate           decimal.Decimal
	Threshold      decimal.Decimal
	Amount         decimal.Decimal
	MarginalRelief decimal.Decimal
}

// Surcharge applies the highest band whose threshold taxable income exceeds.
// taxAt must return tax after rebate (before surcharge) for a given taxable
// income; it is evaluated at the band threshold to cap the increase: tax plus
// surcharge may exceed the tax plus surcharge payable at the threshold by at
// most the income above the threshold.
func Surcharge(taxableIncome, taxAfterRebate decimal.Decimal, bands []rules.SurchargeBand, taxAt func(decimal.Decimal) decimal.Decimal) SurchargeResult {
	idx := -1
	for i, band := range bands {
		if taxableIncome.GreaterThan(band.Threshold) {
			idx = i
		}
	}
	if idx < 0 || !taxAfterRebate.IsPositive() {
		return SurchargeResult{Rate: decimal.Zero, Threshold: decimal.Zero, Amount: decimal.Zero, MarginalRelief: decimal.Zero}
	}

	band := bands[idx]
	prevRate := decimal.Zero
	if idx > 0 {
		prevRate = bands[idx-1].Rate
	}

	full := taxAfterRebate.Mul(band.Rate)
	result := SurchargeResult{Rate: band.Rate, Threshold: band.Threshold, Amount: full, MarginalRelief: decimal.Zero}
	if taxAt == nil {
		return result
	}

	atThreshold := taxAt(band.Threshold).Mul(decimal.NewFromInt(1).Add(prevRate))
	ceiling := atThreshold.Add(taxableIncome.Sub(band.Threshold)).Sub(taxAfterRebate)
	if full.GreaterThan(ceiling) {
		capped := decimal.Max(ceiling, decimal.Zero)
		result.MarginalRelief = full.Sub(capped)
		result.Amount = capped
	}
	return result
}

// Cess is the health and education cess on tax plus surcharge.
func Cess(taxPlusSurcharge, rate decimal.Decimal) decimal.Decimal {
	if !taxPlusSurcharge.IsPositive() {
		return decimal.Zero
	}
	return taxPlusSurcharge.Mul(rate)
}

// round2 rounds a money amount to paise.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// percentOf renders part/whole as a percentage with two decimals; zero when
// whole is not positive.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}
