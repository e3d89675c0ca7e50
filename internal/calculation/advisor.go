package calculation

import (
	"fmt"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/rgehrsitz/taxgo/internal/rules"
	"github.com/shopspring/decimal"
)

// advisedSections are the sections the advisor looks for headroom in.
var advisedSections = []domain.Section{domain.Section80C, domain.Section80CCD1B, domain.Section80D}

// Suggestion is unused headroom in one deduction section.
type Suggestion struct {
	Section         domain.Section  `json:"section"`
	Claimed         decimal.Decimal `json:"claimed"`
	Limit           decimal.Decimal `json:"limit"`
	Headroom        decimal.Decimal `json:"headroom"`
	EstimatedSaving decimal.Decimal `json:"estimated_saving"`
	Message         string          `json:"message"`
}

// Advisor estimates old-regime savings from unused deduction headroom.
type Advisor struct {
	Composer *Composer
}

// NewAdvisor creates an advisor backed by a rule provider.
func NewAdvisor(provider rules.Provider) *Advisor {
	return &Advisor{Composer: NewComposer(provider)}
}

// Advise composes in under the old regime and prices each section's headroom
// at the marginal slab rate plus cess.
func (a *Advisor) Advise(in ComposeInput) ([]Suggestion, error) {
	in.Regime = domain.RegimeOld
	res, err := a.Composer.Compose(in)
	if err != nil {
		return nil, err
	}
	tables, err := a.Composer.Rules.Tables(in.Year, domain.RegimeOld)
	if err != nil {
		return nil, err
	}
	cat := in.Taxpayer.Category()
	factor := res.MarginalSlabRate.Mul(decimal.NewFromInt(1).Add(tables.CessRate))

	var out []Suggestion
	for _, sec := range advisedSections {
		dc, ok := tables.DeductionCaps[sec]
		if !ok || !dc.Eligible(cat) {
			continue
		}
		limit, capped := dc.LimitFor(cat, in.Income.Salary)
		if !capped {
			continue
		}
		claimed := in.Deductions[sec]
		headroom := limit.Sub(claimed)
		if !headroom.IsPositive() {
			continue
		}
		saving := round2(decimal.Min(headroom, res.SlabIncome).Mul(factor))
		out = append(out, Suggestion{
			Section:         sec,
			Claimed:         claimed,
			Limit:           limit,
			Headroom:        headroom,
			EstimatedSaving: saving,
			Message: fmt.Sprintf("Investing %s more under %s could save about %s under the old regime.",
				headroom.StringFixed(0), sec, saving.StringFixed(0)),
		})
	}
	return out, nil
}
