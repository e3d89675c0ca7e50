package calculation

import (
	"sort"
	"time"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/rgehrsitz/taxgo/internal/rules"
	"github.com/shopspring/decimal"
)

// Classifier turns disposals into classified gains.
type Classifier struct {
	Rules  rules.Provider
	Logger Logger
}

// NewClassifier creates a classifier backed by a rule provider.
func NewClassifier(provider rules.Provider) *Classifier {
	return &Classifier{Rules: provider, Logger: NopLogger{}}
}

// SetLogger sets the logger; nil restores the no-op logger.
func (c *Classifier) SetLogger(l Logger) {
	c.Logger = orNop(l)
}

// HoldingDays counts whole calendar days between two dates, ignoring time of day.
func HoldingDays(acquired, disposed time.Time) int {
	from := time.Date(acquired.Year(), acquired.Month(), acquired.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(disposed.Year(), disposed.Month(), disposed.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// SortDisposals returns a copy ordered by disposal date, then ID. This is the
// order in which a year's exemption allowance is consumed.
func SortDisposals(disposals []domain.Disposal) []domain.Disposal {
	out := append([]domain.Disposal(nil), disposals...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DisposalDate.Equal(out[j].DisposalDate) {
			return out[i].DisposalDate.Before(out[j].DisposalDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Classify determines the gain type and computes raw and indexed gains.
func (c *Classifier) Classify(d domain.Disposal) (domain.ClassifiedGain, error) {
	if err := d.Validate(); err != nil {
		return domain.ClassifiedGain{}, err
	}

	yr, err := c.Rules.Year(d.Year())
	if err != nil {
		return domain.ClassifiedGain{}, err
	}
	threshold, err := yr.CapitalGains.Threshold(d.AssetClass)
	if err != nil {
		return domain.ClassifiedGain{}, domain.InvalidDisposal(d.ID, err.Error())
	}

	days := HoldingDays(d.AcquisitionDate, d.DisposalDate)
	gainType := domain.ShortTerm
	if days > threshold {
		gainType = domain.LongTerm
	}

	gain := domain.ClassifiedGain{
		Disposal:    d,
		HoldingDays: days,
		GainType:    gainType,
		RawGain:     d.SaleValue().Sub(d.Cost()).Sub(d.Expenses),
	}

	rule, err := yr.CapitalGains.RateFor(d.AssetClass, gainType)
	if err != nil {
		return domain.ClassifiedGain{}, domain.InvalidDisposal(d.ID, err.Error())
	}
	if !rule.Indexed {
		c.Logger.Debugf("disposal %s: %s %s, %d days, raw gain %s", d.ID, d.AssetClass, gainType, days, gain.RawGain)
		return gain, nil
	}

	indexedCost, err := c.indexedCost(d)
	if err != nil {
		return domain.ClassifiedGain{}, err
	}
	indexedGain := d.SaleValue().Sub(indexedCost).Sub(d.Expenses)
	gain.Indexed = true
	gain.IndexedCost = &indexedCost
	gain.IndexedGain = &indexedGain

	c.Logger.Debugf("disposal %s: %s %s, %d days, raw gain %s, indexed gain %s",
		d.ID, d.AssetClass, gainType, days, gain.RawGain, indexedGain)
	return gain, nil
}

func (c *Classifier) indexedCost(d domain.Disposal) (decimal.Decimal, error) {
	if d.IndexedCost != nil {
		return *d.IndexedCost, nil
	}
	sellIndex, err := c.Rules.CostInflationIndex(d.Year())
	if err != nil {
		return decimal.Zero, err
	}
	buyIndex, err := c.Rules.CostInflationIndex(domain.FinancialYearOf(d.AcquisitionDate))
	if err != nil {
		return decimal.Zero, err
	}
	return round2(d.Cost().Mul(sellIndex).Div(buyIndex)), nil
}

// ClassifyAll classifies disposals in chronological order. The first invalid
// disposal aborts the batch.
func (c *Classifier) ClassifyAll(disposals []domain.Disposal) ([]domain.ClassifiedGain, error) {
	sorted := SortDisposals(disposals)
	gains := make([]domain.ClassifiedGain, 0, len(sorted))
	for _, d := range sorted {
		g, err := c.Classify(d)
		if err != nil {
			return nil, err
		}
		gains = append(gains, g)
	}
	return gains, nil
}
