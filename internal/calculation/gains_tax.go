package calculation

import (
	"fmt"
	"sort"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/rgehrsitz/taxgo/internal/rules"
	"github.com/shopspring/decimal"
)

// GainsTaxCalculator applies rates and the equity exemption allowance to
// classified gains.
type GainsTaxCalculator struct {
	Rules  rules.Provider
	Logger Logger
}

// NewGainsTaxCalculator creates a calculator backed by a rule provider.
func NewGainsTaxCalculator(provider rules.Provider) *GainsTaxCalculator {
	return &GainsTaxCalculator{Rules: provider, Logger: NopLogger{}}
}

// SetLogger sets the logger; nil restores the no-op logger.
func (g *GainsTaxCalculator) SetLogger(l Logger) {
	g.Logger = orNop(l)
}

// NewPool opens a year's exemption pool with consumed already used.
func (g *GainsTaxCalculator) NewPool(year domain.FinancialYear, consumed decimal.Decimal) (domain.ExemptionPool, error) {
	if consumed.IsNegative() {
		return domain.ExemptionPool{}, domain.NegativeInput("exemption_consumed")
	}
	yr, err := g.Rules.Year(year)
	if err != nil {
		return domain.ExemptionPool{}, err
	}
	return domain.ExemptionPool{
		Year:      year,
		Allowance: yr.CapitalGains.EquityLTCGAllowance,
		Consumed:  consumed,
	}, nil
}

// Tax taxes one gain against the pool and returns the updated pool. The pool
// argument is never modified.
func (g *GainsTaxCalculator) Tax(gain domain.ClassifiedGain, pool domain.ExemptionPool) (domain.TaxedGain, domain.ExemptionPool, error) {
	year := gain.Disposal.Year()
	if pool.Year != year {
		return domain.TaxedGain{}, pool, fmt.Errorf("exemption pool for %s cannot tax disposal %s in %s: %w",
			pool.Year, gain.Disposal.ID, year, domain.ErrUnsupportedYear)
	}
	yr, err := g.Rules.Year(year)
	if err != nil {
		return domain.TaxedGain{}, pool, err
	}
	rule, err := yr.CapitalGains.RateFor(gain.Disposal.AssetClass, gain.GainType)
	if err != nil {
		return domain.TaxedGain{}, pool, domain.InvalidDisposal(gain.Disposal.ID, err.Error())
	}

	taxed := domain.TaxedGain{
		ClassifiedGain:   gain,
		Treatment:        rule.Treatment,
		Rate:             decimal.Zero,
		ExemptionApplied: decimal.Zero,
		TaxableAmount:    decimal.Zero,
		Tax:              decimal.Zero,
	}

	base := gain.TaxableGain()
	if rule.Treatment == domain.SlabDeferred {
		// taxed with ordinary income by the composer
		if base.IsPositive() {
			taxed.TaxableAmount = base
		}
		return taxed, pool, nil
	}

	taxed.Rate = rule.Rate
	if !base.IsPositive() {
		return taxed, pool, nil
	}

	taxable := base
	if rule.Exempt {
		use := decimal.Min(pool.Remaining(), base)
		if use.IsPositive() {
			pool.Consumed = pool.Consumed.Add(use)
			taxed.ExemptionApplied = use
			taxable = base.Sub(use)
		}
	}
	taxed.TaxableAmount = taxable
	taxed.Tax = round2(taxable.Mul(rule.Rate))

	g.Logger.Debugf("disposal %s: %s at %s, exemption %s, tax %s",
		gain.Disposal.ID, taxable, rule.Rate, taxed.ExemptionApplied, taxed.Tax)
	return taxed, pool, nil
}

// TaxAll taxes a year's gains in chronological order so allowance
// consumption is reproducible regardless of input order.
func (g *GainsTaxCalculator) TaxAll(gains []domain.ClassifiedGain, pool domain.ExemptionPool) ([]domain.TaxedGain, domain.ExemptionPool, error) {
	ordered := append([]domain.ClassifiedGain(nil), gains...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].Disposal, ordered[j].Disposal
		if !a.DisposalDate.Equal(b.DisposalDate) {
			return a.DisposalDate.Before(b.DisposalDate)
		}
		return a.ID < b.ID
	})

	out := make([]domain.TaxedGain, 0, len(ordered))
	for _, gain := range ordered {
		taxed, next, err := g.Tax(gain, pool)
		if err != nil {
			return nil, pool, err
		}
		pool = next
		out = append(out, taxed)
	}
	return out, pool, nil
}

// TotalFlatTax sums tax over flat-taxed gains.
func TotalFlatTax(gains []domain.TaxedGain) decimal.Decimal {
	total := decimal.Zero
	for _, g := range gains {
		if g.Treatment == domain.FlatTaxed {
			total = total.Add(g.Tax)
		}
	}
	return total
}
