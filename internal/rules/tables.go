// Package rules holds the versioned, regime-scoped constant tables the tax
// engine reads: slabs, surcharge bands, rebate, cess, deduction caps,
// holding-period thresholds, capital gain rates and the cost inflation index.
package rules

import (
	"fmt"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/shopspring/decimal"
)

// TaxBracket is one slab. A zero Max marks the open-ended top slab.
type TaxBracket struct {
	Min  decimal.Decimal `yaml:"min" json:"min"`
	Max  decimal.Decimal `yaml:"max" json:"max"`
	Rate decimal.Decimal `yaml:"rate" json:"rate"`
}

// Unbounded reports whether the bracket has no upper limit.
func (b TaxBracket) Unbounded() bool {
	return b.Max.IsZero()
}

// SurchargeBand applies Rate when taxable income exceeds Threshold.
type SurchargeBand struct {
	Threshold decimal.Decimal `yaml:"threshold" json:"threshold"`
	Rate      decimal.Decimal `yaml:"rate" json:"rate"`
}

// RebateRule grants up to MaxAmount when taxable income is at most IncomeCeiling.
type RebateRule struct {
	IncomeCeiling decimal.Decimal `yaml:"income_ceiling" json:"income_ceiling"`
	MaxAmount     decimal.Decimal `yaml:"max_amount" json:"max_amount"`
}

// DeductionCap limits one section.
type DeductionCap struct {
	Limit         decimal.Decimal      `yaml:"limit" json:"limit"`
	SeniorLimit   decimal.Decimal      `yaml:"senior_limit,omitempty" json:"senior_limit,omitempty"`
	SalaryPercent decimal.Decimal      `yaml:"salary_percent,omitempty" json:"salary_percent,omitempty"`
	Unlimited     bool                 `yaml:"unlimited,omitempty" json:"unlimited,omitempty"`
	Categories    []domain.AgeCategory `yaml:"categories,omitempty" json:"categories,omitempty"` // empty means every category
}

// Eligible reports whether taxpayers in cat may claim the section.
func (c DeductionCap) Eligible(cat domain.AgeCategory) bool {
	if len(c.Categories) == 0 {
		return true
	}
	for _, allowed := range c.Categories {
		if allowed == cat {
			return true
		}
	}
	return false
}

// LimitFor resolves the cap for a taxpayer category and salary. The boolean
// is false when the section has no cap.
func (c DeductionCap) LimitFor(cat domain.AgeCategory, salary decimal.Decimal) (decimal.Decimal, bool) {
	if c.Unlimited {
		return decimal.Zero, false
	}
	limit := c.Limit
	if cat != domain.AgeGeneral && c.SeniorLimit.IsPositive() {
		limit = c.SeniorLimit
	}
	if c.SalaryPercent.IsPositive() {
		byPct := salary.Mul(c.SalaryPercent)
		if limit.IsZero() || byPct.LessThan(limit) {
			limit = byPct
		}
	}
	return limit, true
}

// Tables is everything the composer needs for one (year, regime).
type Tables struct {
	Year              domain.FinancialYear                 `yaml:"-" json:"year"`
	Regime            domain.Regime                        `yaml:"-" json:"regime"`
	Slabs             map[domain.AgeCategory][]TaxBracket  `yaml:"slabs" json:"slabs"`
	Surcharge         []SurchargeBand                      `yaml:"surcharge" json:"surcharge"`
	Rebate            RebateRule                           `yaml:"rebate" json:"rebate"`
	CessRate          decimal.Decimal                      `yaml:"cess_rate" json:"cess_rate"`
	StandardDeduction decimal.Decimal                      `yaml:"standard_deduction" json:"standard_deduction"`
	DeductionCaps     map[domain.Section]DeductionCap      `yaml:"deduction_caps" json:"deduction_caps"`
	AllowedSections   []domain.Section                     `yaml:"allowed_sections,omitempty" json:"allowed_sections,omitempty"` // nil allows every section
}

// SlabsFor returns the category's slabs, falling back to the general table.
func (t *Tables) SlabsFor(cat domain.AgeCategory) []TaxBracket {
	if s, ok := t.Slabs[cat]; ok && len(s) > 0 {
		return s
	}
	return t.Slabs[domain.AgeGeneral]
}

// Allows reports whether the regime permits a section.
func (t *Tables) Allows(sec domain.Section) bool {
	if t.AllowedSections == nil {
		return true
	}
	for _, s := range t.AllowedSections {
		if s == sec {
			return true
		}
	}
	return false
}

// Validate checks slab contiguity and rate bounds.
func (t *Tables) Validate() error {
	general, ok := t.Slabs[domain.AgeGeneral]
	if !ok || len(general) == 0 {
		return fmt.Errorf("%s %s regime: general slab table is required", t.Year, t.Regime)
	}
	for cat, slabs := range t.Slabs {
		if err := validateBrackets(slabs); err != nil {
			return fmt.Errorf("%s %s regime %s slabs: %w", t.Year, t.Regime, cat, err)
		}
	}
	prev := decimal.Zero
	for i, band := range t.Surcharge {
		if i > 0 && !band.Threshold.GreaterThan(prev) {
			return fmt.Errorf("%s %s regime: surcharge thresholds must ascend", t.Year, t.Regime)
		}
		if !validRate(band.Rate) {
			return fmt.Errorf("%s %s regime: surcharge rate %s out of range", t.Year, t.Regime, band.Rate)
		}
		prev = band.Threshold
	}
	if !validRate(t.CessRate) {
		return fmt.Errorf("%s %s regime: cess rate %s out of range", t.Year, t.Regime, t.CessRate)
	}
	if t.Rebate.MaxAmount.IsNegative() || t.Rebate.IncomeCeiling.IsNegative() {
		return fmt.Errorf("%s %s regime: rebate values must not be negative", t.Year, t.Regime)
	}
	return nil
}

func validateBrackets(slabs []TaxBracket) error {
	if len(slabs) == 0 {
		return fmt.Errorf("no brackets")
	}
	if !slabs[0].Min.IsZero() {
		return fmt.Errorf("first bracket must start at zero")
	}
	for i, b := range slabs {
		if !validRate(b.Rate) {
			return fmt.Errorf("bracket %d rate %s out of range", i, b.Rate)
		}
		last := i == len(slabs)-1
		if b.Unbounded() != last {
			return fmt.Errorf("only the last bracket may be open-ended")
		}
		if !last {
			if !b.Max.GreaterThan(b.Min) {
				return fmt.Errorf("bracket %d max must exceed min", i)
			}
			if !slabs[i+1].Min.Equal(b.Max) {
				return fmt.Errorf("bracket %d does not start where bracket %d ends", i+1, i)
			}
		}
	}
	return nil
}

func validRate(r decimal.Decimal) bool {
	return !r.IsNegative() && r.LessThanOrEqual(decimal.NewFromInt(1))
}

// RateRule is the taxation of one (asset class, gain type) pair.
type RateRule struct {
	Treatment domain.Treatment `yaml:"treatment" json:"treatment"`
	Rate      decimal.Decimal  `yaml:"rate,omitempty" json:"rate,omitempty"`
	Exempt    bool             `yaml:"exempt,omitempty" json:"exempt,omitempty"`   // consumes the annual allowance
	Indexed   bool             `yaml:"indexed,omitempty" json:"indexed,omitempty"` // cost adjusted by the inflation index
}

// CapitalGainsRules classifies and rates disposals for a year.
type CapitalGainsRules struct {
	HoldingThresholds   map[domain.AssetClass]int                              `yaml:"holding_thresholds" json:"holding_thresholds"`
	Rates               map[domain.AssetClass]map[domain.GainType]RateRule     `yaml:"rates" json:"rates"`
	EquityLTCGAllowance decimal.Decimal                                        `yaml:"equity_ltcg_allowance" json:"equity_ltcg_allowance"`
}

// Threshold is the long-term boundary in days for a class.
func (c *CapitalGainsRules) Threshold(class domain.AssetClass) (int, error) {
	days, ok := c.HoldingThresholds[class]
	if !ok {
		return 0, fmt.Errorf("no holding threshold for asset class %q", class)
	}
	return days, nil
}

// RateFor looks up the rule for (class, gain type).
func (c *CapitalGainsRules) RateFor(class domain.AssetClass, gt domain.GainType) (RateRule, error) {
	byType, ok := c.Rates[class]
	if !ok {
		return RateRule{}, fmt.Errorf("no capital gain rates for asset class %q", class)
	}
	rule, ok := byType[gt]
	if !ok {
		return RateRule{}, fmt.Errorf("no %s rate for asset class %q", gt, class)
	}
	return rule, nil
}

// SetOffRules governs loss set-off and carry-forward.
type SetOffRules struct {
	HousePropertyCap  decimal.Decimal     `yaml:"house_property_cap" json:"house_property_cap"`
	CarryForwardYears map[domain.Head]int `yaml:"carry_forward_years" json:"carry_forward_years"`
}

// WindowFor is the carry-forward window for a loss head.
func (s *SetOffRules) WindowFor(h domain.Head) (int, error) {
	years, ok := s.CarryForwardYears[h]
	if !ok {
		return 0, fmt.Errorf("no carry-forward window for head %q", h)
	}
	return years, nil
}

// YearRules is the full rule set for one financial year.
type YearRules struct {
	Year         domain.FinancialYear             `yaml:"-" json:"year"`
	CapitalGains CapitalGainsRules                `yaml:"capital_gains" json:"capital_gains"`
	SetOff       SetOffRules                      `yaml:"set_off" json:"set_off"`
	Regimes      map[domain.Regime]*Tables        `yaml:"regimes" json:"regimes"`
}

// Validate checks every regime table.
func (y *YearRules) Validate() error {
	if len(y.Regimes) == 0 {
		return fmt.Errorf("%s: no regime tables", y.Year)
	}
	for _, t := range y.Regimes {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	for _, class := range domain.AssetClasses {
		if _, err := y.CapitalGains.Threshold(class); err != nil {
			return fmt.Errorf("%s: %w", y.Year, err)
		}
	}
	return nil
}
