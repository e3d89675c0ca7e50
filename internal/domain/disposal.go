package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AssetClass drives holding-period thresholds and rate selection.
type AssetClass string

const (
	AssetEquityShare    AssetClass = "equity_share"
	AssetEquityFund     AssetClass = "equity_fund"
	AssetDebtFund       AssetClass = "debt_fund"
	AssetBond           AssetClass = "bond"
	AssetGold           AssetClass = "gold"
	AssetRealEstate     AssetClass = "real_estate"
	AssetUnlistedEquity AssetClass = "unlisted_equity"
	AssetOther          AssetClass = "other"
)

// AssetClasses lists every supported class.
var AssetClasses = []AssetClass{
	AssetEquityShare, AssetEquityFund, AssetDebtFund, AssetBond,
	AssetGold, AssetRealEstate, AssetUnlistedEquity, AssetOther,
}

// Valid reports whether c is a known asset class.
func (c AssetClass) Valid() bool {
	for _, known := range AssetClasses {
		if c == known {
			return true
		}
	}
	return false
}

// IsListedEquity reports whether the class belongs to the listed-equity family
// that shares the annual LTCG allowance and is never indexed.
func (c AssetClass) IsListedEquity() bool {
	return c == AssetEquityShare || c == AssetEquityFund
}

// ParseAssetClass accepts the canonical names plus a few common spellings.
func ParseAssetClass(s string) (AssetClass, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	switch normalized {
	case "equity", "stock", "share":
		return AssetEquityShare, nil
	case "mutual_fund", "equity_mf":
		return AssetEquityFund, nil
	case "debt", "debt_mf":
		return AssetDebtFund, nil
	case "property":
		return AssetRealEstate, nil
	}
	c := AssetClass(normalized)
	if !c.Valid() {
		return "", fmt.Errorf("unknown asset class %q", s)
	}
	return c, nil
}

// Disposal is one recorded sale. It is never mutated after recording; a
// correction is a new Disposal with a new ID.
type Disposal struct {
	ID               string           `yaml:"id" json:"id"`
	Description      string           `yaml:"description,omitempty" json:"description,omitempty"`
	AssetClass       AssetClass       `yaml:"asset_class" json:"asset_class"`
	Quantity         decimal.Decimal  `yaml:"quantity" json:"quantity"`
	AcquisitionDate  time.Time        `yaml:"acquisition_date" json:"acquisition_date"`
	AcquisitionPrice decimal.Decimal  `yaml:"acquisition_price" json:"acquisition_price"`
	DisposalDate     time.Time        `yaml:"disposal_date" json:"disposal_date"`
	DisposalPrice    decimal.Decimal  `yaml:"disposal_price" json:"disposal_price"`
	Expenses         decimal.Decimal  `yaml:"expenses" json:"expenses"`
	IndexedCost      *decimal.Decimal `yaml:"indexed_cost,omitempty" json:"indexed_cost,omitempty"` // total, overrides the index ratio
}

// Year is the financial year in which the disposal happened.
func (d Disposal) Year() FinancialYear {
	return FinancialYearOf(d.DisposalDate)
}

// SaleValue is quantity × disposal price.
func (d Disposal) SaleValue() decimal.Decimal {
	return d.Quantity.Mul(d.DisposalPrice)
}

// Cost is quantity × acquisition price.
func (d Disposal) Cost() decimal.Decimal {
	return d.Quantity.Mul(d.AcquisitionPrice)
}

// Validate checks the disposal invariants.
func (d Disposal) Validate() error {
	if !d.AssetClass.Valid() {
		return InvalidDisposal(d.ID, fmt.Sprintf("unknown asset class %q", d.AssetClass))
	}
	if d.AcquisitionDate.IsZero() || d.DisposalDate.IsZero() {
		return InvalidDisposal(d.ID, "acquisition and disposal dates are required")
	}
	if d.DisposalDate.Before(d.AcquisitionDate) {
		return InvalidDisposal(d.ID, "disposal date precedes acquisition date")
	}
	if d.Quantity.LessThanOrEqual(decimal.Zero) {
		return InvalidDisposal(d.ID, "quantity must be positive")
	}
	if d.AcquisitionPrice.LessThanOrEqual(decimal.Zero) {
		return InvalidDisposal(d.ID, "acquisition price must be positive")
	}
	if d.DisposalPrice.LessThanOrEqual(decimal.Zero) {
		return InvalidDisposal(d.ID, "disposal price must be positive")
	}
	if d.Expenses.IsNegative() {
		return InvalidDisposal(d.ID, "expenses must not be negative")
	}
	if d.IndexedCost != nil && d.IndexedCost.LessThanOrEqual(decimal.Zero) {
		return InvalidDisposal(d.ID, "indexed cost must be positive")
	}
	return nil
}

// GainType is the holding-period classification.
type GainType string

const (
	ShortTerm GainType = "SHORT"
	LongTerm  GainType = "LONG"
)

// ClassifiedGain is derived from exactly one Disposal.
type ClassifiedGain struct {
	Disposal    Disposal         `json:"disposal"`
	HoldingDays int              `json:"holding_days"`
	GainType    GainType         `json:"gain_type"`
	RawGain     decimal.Decimal  `json:"raw_gain"`
	Indexed     bool             `json:"indexed"`
	IndexedCost *decimal.Decimal `json:"indexed_cost,omitempty"`
	IndexedGain *decimal.Decimal `json:"indexed_gain,omitempty"`
}

// TaxableGain is the amount carried into taxation: the indexed gain when
// indexation applies, never more than the raw gain.
func (g ClassifiedGain) TaxableGain() decimal.Decimal {
	if g.Indexed && g.IndexedGain != nil {
		return decimal.Min(*g.IndexedGain, g.RawGain)
	}
	return g.RawGain
}

// IsLoss reports whether the taxable amount is negative.
func (g ClassifiedGain) IsLoss() bool {
	return g.TaxableGain().IsNegative()
}

// Treatment tags how a gain is taxed. Flat-taxed gains carry their own rate;
// slab-deferred gains join ordinary income in the composer.
type Treatment string

const (
	FlatTaxed    Treatment = "flat"
	SlabDeferred Treatment = "slab"
)

// TaxedGain is a ClassifiedGain with its rate, exemption and tax applied.
type TaxedGain struct {
	ClassifiedGain
	Treatment        Treatment       `json:"treatment"`
	Rate             decimal.Decimal `json:"rate"`
	ExemptionApplied decimal.Decimal `json:"exemption_applied"`
	TaxableAmount    decimal.Decimal `json:"taxable_amount"`
	Tax              decimal.Decimal `json:"tax"`
}

// ExemptionPool is the annual listed-equity LTCG allowance for one
// (user, financial year). It is passed into and returned from calculations;
// callers persist the returned value.
type ExemptionPool struct {
	Year      FinancialYear   `yaml:"year" json:"year"`
	Allowance decimal.Decimal `yaml:"allowance" json:"allowance"`
	Consumed  decimal.Decimal `yaml:"consumed" json:"consumed"`
}

// Remaining is the unused allowance, never negative.
func (p ExemptionPool) Remaining() decimal.Decimal {
	r := p.Allowance.Sub(p.Consumed)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}
