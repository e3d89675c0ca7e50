package calculation

import (
	"fmt"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/rgehrsitz/taxgo/internal/rules"
	"github.com/shopspring/decimal"
)

// ComposeInput is a post set-off income profile plus everything needed to
// compute liability under one regime.
type ComposeInput struct {
	Year       domain.FinancialYear
	Regime     domain.Regime
	Taxpayer   domain.Taxpayer
	Income     domain.IncomeProfile
	Deductions domain.DeductionSet
	FlatGains  []domain.FlatGain
	Payments   domain.Payments
}

// Composer aggregates income heads and deductions into a final liability.
type Composer struct {
	Rules  rules.Provider
	Logger Logger
}

// NewComposer creates a composer backed by a rule provider.
func NewComposer(provider rules.Provider) *Composer {
	return &Composer{Rules: provider, Logger: NopLogger{}}
}

// SetLogger sets the logger; nil restores the no-op logger.
func (c *Composer) SetLogger(l Logger) {
	c.Logger = orNop(l)
}

// Validate rejects negative or inconsistent inputs. Nothing is clamped.
func (in ComposeInput) Validate() error {
	if err := in.Income.ValidateNonNegative(); err != nil {
		return err
	}
	if err := in.Deductions.Validate(); err != nil {
		return err
	}
	if err := in.Payments.Validate(); err != nil {
		return err
	}
	flat := decimal.Zero
	for i, g := range in.FlatGains {
		field := fmt.Sprintf("flat_gains[%d]", i)
		if g.Amount.IsNegative() || g.Exemption.IsNegative() || g.Rate.IsNegative() {
			return domain.NegativeInput(field)
		}
		if g.Exemption.GreaterThan(g.Amount) {
			return &domain.InputError{Field: field, Reason: "exemption exceeds amount", Err: domain.ErrInvalidInput}
		}
		flat = flat.Add(g.Amount)
	}
	if flat.GreaterThan(in.Income.CapitalGains()) {
		return &domain.InputError{
			Field:  "flat_gains",
			Reason: fmt.Sprintf("flat-taxed gains %s exceed capital gains income %s", flat, in.Income.CapitalGains()),
			Err:    domain.ErrInvalidInput,
		}
	}
	return nil
}

// flatTotals sums flat-taxed income and its tax.
func flatTotals(gains []domain.FlatGain) (amount, tax decimal.Decimal) {
	amount, tax = decimal.Zero, decimal.Zero
	for _, g := range gains {
		amount = amount.Add(g.Amount)
		tax = tax.Add(g.Tax())
	}
	return amount, tax
}

// Compose computes the liability for one regime.
func (c *Composer) Compose(in ComposeInput) (*domain.TaxComputationResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	tables, err := c.Rules.Tables(in.Year, in.Regime)
	if err != nil {
		return nil, err
	}
	category := in.Taxpayer.Category()

	gti := in.Income.Total()
	flatIncome, flatTax := flatTotals(in.FlatGains)

	applied, deductionTotal := ApplyDeductions(tables, category, in.Income.Salary, in.Deductions)
	// Chapter deductions cannot reduce flat-taxed gains.
	ceiling := decimal.Max(gti.Sub(flatIncome), decimal.Zero)
	if deductionTotal.GreaterThan(ceiling) {
		c.Logger.Debugf("deductions %s limited to non-flat income %s", deductionTotal, ceiling)
		deductionTotal = ceiling
	}

	taxable := decimal.Max(gti.Sub(deductionTotal), decimal.Zero)
	liability := computeLiability(tables, category, taxable, flatIncome, flatTax)

	res := &domain.TaxComputationResult{
		Year:             in.Year,
		Regime:           in.Regime,
		Category:         category,
		GrossTotalIncome: round2(gti),
		Deductions:       applied,
		TotalDeductions:  round2(deductionTotal),
		TaxableIncome:    round2(taxable),
		SlabIncome:       round2(liability.slabIncome),
		FlatGainsIncome:  round2(flatIncome),
		SlabBreakdown:    liability.lines,
		SlabTax:          round2(liability.slabTax),
		FlatGainsTax:     round2(liability.flatTax),
		Rebate:           round2(liability.rebate),
		SurchargeRate:    liability.surcharge.Rate,
		Surcharge:        round2(liability.surcharge.Amount),
		MarginalRelief:   round2(liability.surcharge.MarginalRelief),
		Cess:             round2(liability.cess),
		Payments:         in.Payments,
		MarginalSlabRate: MarginalSlabRate(liability.slabIncome, tables.SlabsFor(category)),
	}
	res.TaxOnIncome = res.SlabTax.Add(res.FlatGainsTax)
	res.TaxAfterRebate = decimal.Max(res.TaxOnIncome.Sub(res.Rebate), decimal.Zero)
	res.TotalLiability = res.TaxAfterRebate.Add(res.Surcharge).Add(res.Cess)
	res.TotalPaid = in.Payments.Total()
	res.Balance = res.TotalLiability.Sub(res.TotalPaid)
	res.EffectiveRate = percentOf(res.TotalLiability, res.GrossTotalIncome)

	c.Logger.Debugf("%s %s regime: GTI %s, deductions %s, taxable %s, liability %s",
		in.Year, in.Regime, res.GrossTotalIncome, res.TotalDeductions, res.TaxableIncome, res.TotalLiability)
	return res, nil
}

// LiabilityAt is the total liability (tax after rebate, surcharge and cess)
// on a given taxable income, sharing the composer's primitives. Flat-taxed
// gains are included in taxable.
func (c *Composer) LiabilityAt(year domain.FinancialYear, regime domain.Regime, taxpayer domain.Taxpayer, taxable decimal.Decimal, flatGains []domain.FlatGain) (decimal.Decimal, error) {
	if taxable.IsNegative() {
		return decimal.Zero, domain.NegativeInput("taxable_income")
	}
	tables, err := c.Rules.Tables(year, regime)
	if err != nil {
		return decimal.Zero, err
	}
	flatIncome, flatTax := flatTotals(flatGains)
	l := computeLiability(tables, taxpayer.Category(), taxable, flatIncome, flatTax)
	return round2(l.total()), nil
}

type liabilityParts struct {
	slabIncome decimal.Decimal
	slabTax    decimal.Decimal
	flatTax    decimal.Decimal
	lines      []domain.SlabLine
	rebate     decimal.Decimal
	surcharge  SurchargeResult
	cess       decimal.Decimal
}

func (l liabilityParts) afterRebate() decimal.Decimal {
	return decimal.Max(l.slabTax.Add(l.flatTax).Sub(l.rebate), decimal.Zero)
}

func (l liabilityParts) total() decimal.Decimal {
	return l.afterRebate().Add(l.surcharge.Amount).Add(l.cess)
}

// taxBeforeSurcharge computes slab and flat tax plus rebate at a taxable
// income. When income is below the flat-taxed total (as it can be at a
// surcharge threshold), only that share of the flat tax is charged.
func taxBeforeSurcharge(tables *rules.Tables, cat domain.AgeCategory, taxable, flatIncome, flatTax decimal.Decimal) liabilityParts {
	flatPortion := decimal.Min(taxable, flatIncome)
	scaledFlatTax := flatTax
	if flatPortion.LessThan(flatIncome) {
		scaledFlatTax = flatTax.Mul(flatPortion).Div(flatIncome)
	}
	slabIncome := taxable.Sub(flatPortion)
	slabTax, lines := SlabTax(slabIncome, tables.SlabsFor(cat))
	before := slabTax.Add(scaledFlatTax)
	return liabilityParts{
		slabIncome: slabIncome,
		slabTax:    slabTax,
		flatTax:    scaledFlatTax,
		lines:      lines,
		rebate:     Rebate(taxable, before, tables.Rebate),
	}
}

func computeLiability(tables *rules.Tables, cat domain.AgeCategory, taxable, flatIncome, flatTax decimal.Decimal) liabilityParts {
	parts := taxBeforeSurcharge(tables, cat, taxable, flatIncome, flatTax)
	taxAt := func(income decimal.Decimal) decimal.Decimal {
		return taxBeforeSurcharge(tables, cat, income, flatIncome, flatTax).afterRebate()
	}
	parts.surcharge = Surcharge(taxable, parts.afterRebate(), tables.Surcharge, taxAt)
	parts.cess = Cess(parts.afterRebate().Add(parts.surcharge.Amount), tables.CessRate)
	return parts
}

// ApplyDeductions caps each claimed section and returns the applied list and
// total, including the automatic standard deduction against salary.
func ApplyDeductions(tables *rules.Tables, cat domain.AgeCategory, salary decimal.Decimal, claimed domain.DeductionSet) ([]domain.AppliedDeduction, decimal.Decimal) {
	var applied []domain.AppliedDeduction
	total := decimal.Zero

	if salary.IsPositive() && tables.StandardDeduction.IsPositive() {
		std := decimal.Min(salary, tables.StandardDeduction)
		applied = append(applied, domain.AppliedDeduction{Section: domain.SectionStandard, Claimed: std, Allowed: std})
		total = total.Add(std)
	}

	for _, sec := range domain.Sections {
		amount, ok := claimed[sec]
		if !ok {
			continue
		}
		ad := domain.AppliedDeduction{Section: sec, Claimed: amount, Allowed: decimal.Zero}
		dc, defined := tables.DeductionCaps[sec]
		switch {
		case !tables.Allows(sec):
			ad.Reason = fmt.Sprintf("not allowed under the %s regime", tables.Regime)
		case !defined:
			ad.Reason = fmt.Sprintf("not available in %s", tables.Year)
		case !dc.Eligible(cat):
			ad.Reason = fmt.Sprintf("not available to %s taxpayers", cat)
		default:
			limit, capped := dc.LimitFor(cat, salary)
			ad.Allowed = amount
			if capped && amount.GreaterThan(limit) {
				ad.Allowed = limit
				ad.Reason = fmt.Sprintf("capped at %s", limit.StringFixed(0))
			}
		}
		total = total.Add(ad.Allowed)
		applied = append(applied, ad)
	}
	if amount, ok := claimed[domain.SectionStandard]; ok {
		applied = append(applied, domain.AppliedDeduction{
			Section: domain.SectionStandard, Claimed: amount, Allowed: decimal.Zero,
			Reason: "applied automatically against salary",
		})
	}
	return applied, total
}
