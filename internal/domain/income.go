package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Head is an income head. Five of them can carry losses forward.
type Head string

const (
	HeadSalary           Head = "salary"
	HeadHouseProperty    Head = "house_property"
	HeadBusiness         Head = "business"
	HeadSpeculative      Head = "speculative"
	HeadShortTermCapital Head = "short_term_capital"
	HeadLongTermCapital  Head = "long_term_capital"
	HeadOtherSources     Head = "other_sources"
)

// Heads lists every income head in reporting order.
var Heads = []Head{
	HeadSalary, HeadHouseProperty, HeadBusiness, HeadSpeculative,
	HeadShortTermCapital, HeadLongTermCapital, HeadOtherSources,
}

// LossHeads are the heads whose losses may be carried forward.
var LossHeads = []Head{
	HeadHouseProperty, HeadBusiness, HeadSpeculative,
	HeadShortTermCapital, HeadLongTermCapital,
}

// CarriesLosses reports whether a loss in h can enter the ledger.
func (h Head) CarriesLosses() bool {
	for _, lh := range LossHeads {
		if h == lh {
			return true
		}
	}
	return false
}

// IsCapital reports whether h is one of the capital gain heads.
func (h Head) IsCapital() bool {
	return h == HeadShortTermCapital || h == HeadLongTermCapital
}

// ParseHead normalizes a head name.
func ParseHead(s string) (Head, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	switch normalized {
	case "hp":
		return HeadHouseProperty, nil
	case "stcg", "short_term":
		return HeadShortTermCapital, nil
	case "ltcg", "long_term":
		return HeadLongTermCapital, nil
	case "other":
		return HeadOtherSources, nil
	}
	for _, h := range Heads {
		if Head(normalized) == h {
			return h, nil
		}
	}
	return "", fmt.Errorf("unknown income head %q", s)
}

// IncomeProfile holds one year's amount per head. Before set-off the loss
// heads may be negative; after set-off every head is non-negative.
type IncomeProfile struct {
	Salary               decimal.Decimal `yaml:"salary" json:"salary"`
	HouseProperty        decimal.Decimal `yaml:"house_property" json:"house_property"`
	Business             decimal.Decimal `yaml:"business" json:"business"`
	Speculative          decimal.Decimal `yaml:"speculative" json:"speculative"`
	ShortTermCapitalGain decimal.Decimal `yaml:"short_term_capital_gain" json:"short_term_capital_gain"`
	LongTermCapitalGain  decimal.Decimal `yaml:"long_term_capital_gain" json:"long_term_capital_gain"`
	OtherSources         decimal.Decimal `yaml:"other_sources" json:"other_sources"`
}

// Amount returns the amount for a head.
func (p IncomeProfile) Amount(h Head) decimal.Decimal {
	switch h {
	case HeadSalary:
		return p.Salary
	case HeadHouseProperty:
		return p.HouseProperty
	case HeadBusiness:
		return p.Business
	case HeadSpeculative:
		return p.Speculative
	case HeadShortTermCapital:
		return p.ShortTermCapitalGain
	case HeadLongTermCapital:
		return p.LongTermCapitalGain
	case HeadOtherSources:
		return p.OtherSources
	}
	return decimal.Zero
}

// With returns a copy of p with the head set to v.
func (p IncomeProfile) With(h Head, v decimal.Decimal) IncomeProfile {
	switch h {
	case HeadSalary:
		p.Salary = v
	case HeadHouseProperty:
		p.HouseProperty = v
	case HeadBusiness:
		p.Business = v
	case HeadSpeculative:
		p.Speculative = v
	case HeadShortTermCapital:
		p.ShortTermCapitalGain = v
	case HeadLongTermCapital:
		p.LongTermCapitalGain = v
	case HeadOtherSources:
		p.OtherSources = v
	}
	return p
}

// Total sums every head.
func (p IncomeProfile) Total() decimal.Decimal {
	total := decimal.Zero
	for _, h := range Heads {
		total = total.Add(p.Amount(h))
	}
	return total
}

// CapitalGains is STCG + LTCG.
func (p IncomeProfile) CapitalGains() decimal.Decimal {
	return p.ShortTermCapitalGain.Add(p.LongTermCapitalGain)
}

// ValidateNonNegative rejects any negative head.
func (p IncomeProfile) ValidateNonNegative() error {
	for _, h := range Heads {
		if p.Amount(h).IsNegative() {
			return NegativeInput("income." + string(h))
		}
	}
	return nil
}

// Section identifies a deduction section.
type Section string

const (
	Section80C      Section = "80C"
	Section80CCD1B  Section = "80CCD(1B)"
	Section80CCD2   Section = "80CCD(2)"
	Section80D      Section = "80D"
	Section80E      Section = "80E"
	Section80G      Section = "80G"
	Section80TTA    Section = "80TTA"
	Section80TTB    Section = "80TTB"
	Section24B      Section = "24B"
	Section80EEA    Section = "80EEA"
	Section80EEB    Section = "80EEB"
	SectionStandard Section = "STANDARD"
)

// Sections lists claimable sections in reporting order. The standard
// deduction is applied automatically and is not claimable.
var Sections = []Section{
	Section80C, Section80CCD1B, Section80CCD2, Section80D, Section80E, Section80G,
	Section80TTA, Section80TTB, Section24B, Section80EEA, Section80EEB,
}

// ParseSection accepts "80c", "80CCD1B", "80ccd(1b)" and similar spellings.
func ParseSection(s string) (Section, error) {
	key := strings.ToUpper(strings.NewReplacer("(", "", ")", "", " ", "", "_", "").Replace(s))
	for _, sec := range append(Sections, SectionStandard) {
		if strings.NewReplacer("(", "", ")", "").Replace(string(sec)) == key {
			return sec, nil
		}
	}
	return "", fmt.Errorf("unknown deduction section %q", s)
}

// DeductionSet holds claimed amounts per section.
type DeductionSet map[Section]decimal.Decimal

// Clone copies the set.
func (d DeductionSet) Clone() DeductionSet {
	out := make(DeductionSet, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Validate rejects negative claims and unknown sections.
func (d DeductionSet) Validate() error {
	for sec, amt := range d {
		if _, err := ParseSection(string(sec)); err != nil {
			return fmt.Errorf("deductions: %w", err)
		}
		if amt.IsNegative() {
			return NegativeInput("deductions." + string(sec))
		}
	}
	return nil
}

// Payments are taxes already paid for the year.
type Payments struct {
	TDS               decimal.Decimal `yaml:"tds" json:"tds"`
	AdvanceTax        decimal.Decimal `yaml:"advance_tax" json:"advance_tax"`
	SelfAssessmentTax decimal.Decimal `yaml:"self_assessment_tax" json:"self_assessment_tax"`
}

// Total sums all payments.
func (p Payments) Total() decimal.Decimal {
	return p.TDS.Add(p.AdvanceTax).Add(p.SelfAssessmentTax)
}

// Validate rejects negative payments.
func (p Payments) Validate() error {
	if p.TDS.IsNegative() {
		return NegativeInput("payments.tds")
	}
	if p.AdvanceTax.IsNegative() {
		return NegativeInput("payments.advance_tax")
	}
	if p.SelfAssessmentTax.IsNegative() {
		return NegativeInput("payments.self_assessment_tax")
	}
	return nil
}
