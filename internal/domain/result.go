package domain

import "github.com/shopspring/decimal"

// FlatGain is a bucket of capital gains taxed at its own rate outside the
// slabs. Exemption is the part of Amount covered by an allowance.
type FlatGain struct {
	Label     string          `yaml:"label" json:"label"`
	Rate      decimal.Decimal `yaml:"rate" json:"rate"`
	Amount    decimal.Decimal `yaml:"amount" json:"amount"`
	Exemption decimal.Decimal `yaml:"exemption" json:"exemption"`
}

// Taxable is Amount less Exemption, floored at zero.
func (g FlatGain) Taxable() decimal.Decimal {
	t := g.Amount.Sub(g.Exemption)
	if t.IsNegative() {
		return decimal.Zero
	}
	return t
}

// Tax is the flat tax on the bucket.
func (g FlatGain) Tax() decimal.Decimal {
	return g.Taxable().Mul(g.Rate)
}

// AppliedDeduction records one section's claim and allowed amount.
type AppliedDeduction struct {
	Section Section         `json:"section"`
	Claimed decimal.Decimal `json:"claimed"`
	Allowed decimal.Decimal `json:"allowed"`
	Reason  string          `json:"reason,omitempty"`
}

// SlabLine is one row of a slab breakdown.
type SlabLine struct {
	From   decimal.Decimal `json:"from"`
	To     decimal.Decimal `json:"to"` // zero for the open-ended top slab
	Rate   decimal.Decimal `json:"rate"`
	Income decimal.Decimal `json:"income"`
	Tax    decimal.Decimal `json:"tax"`
}

// TaxComputationResult is the composed liability for one regime.
type TaxComputationResult struct {
	Year     FinancialYear `json:"year"`
	Regime   Regime        `json:"regime"`
	Category AgeCategory   `json:"category"`

	GrossTotalIncome   decimal.Decimal    `json:"gross_total_income"`
	Deductions         []AppliedDeduction `json:"deductions"`
	TotalDeductions    decimal.Decimal    `json:"total_deductions"`
	TaxableIncome      decimal.Decimal    `json:"taxable_income"`
	SlabIncome         decimal.Decimal    `json:"slab_income"`
	FlatGainsIncome    decimal.Decimal    `json:"flat_gains_income"`
	SlabBreakdown      []SlabLine         `json:"slab_breakdown"`
	SlabTax            decimal.Decimal    `json:"slab_tax"`
	FlatGainsTax       decimal.Decimal    `json:"flat_gains_tax"`
	TaxOnIncome        decimal.Decimal    `json:"tax_on_income"`
	Rebate             decimal.Decimal    `json:"rebate"`
	TaxAfterRebate     decimal.Decimal    `json:"tax_after_rebate"`
	SurchargeRate      decimal.Decimal    `json:"surcharge_rate"`
	Surcharge          decimal.Decimal    `json:"surcharge"`
	MarginalRelief     decimal.Decimal    `json:"marginal_relief"`
	Cess               decimal.Decimal    `json:"cess"`
	TotalLiability     decimal.Decimal    `json:"total_liability"`
	Payments           Payments           `json:"payments"`
	TotalPaid          decimal.Decimal    `json:"total_paid"`
	Balance            decimal.Decimal    `json:"balance"`
	EffectiveRate      decimal.Decimal    `json:"effective_rate"`
	MarginalSlabRate   decimal.Decimal    `json:"marginal_slab_rate"`
}

// IsRefund reports whether the balance is owed back to the taxpayer.
func (r *TaxComputationResult) IsRefund() bool {
	return r.Balance.IsNegative()
}

// RegimeComparison is the liability under both regimes for one profile.
type RegimeComparison struct {
	Year           FinancialYear         `json:"year"`
	Old            *TaxComputationResult `json:"old"`
	New            *TaxComputationResult `json:"new"`
	Difference     decimal.Decimal       `json:"difference"` // old minus new
	Recommended    Regime                `json:"recommended"`
	Savings        decimal.Decimal       `json:"savings"`
	Recommendation string                `json:"recommendation"`
}

// Result returns the computation for a regime.
func (c *RegimeComparison) Result(r Regime) *TaxComputationResult {
	if r == RegimeNew {
		return c.New
	}
	return c.Old
}
