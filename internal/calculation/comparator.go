package calculation

import (
	"fmt"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/rgehrsitz/taxgo/internal/rules"
)

// RegimeComparator computes liability under both regimes for the same
// profile. All tax math is delegated to the Composer.
type RegimeComparator struct {
	Composer *Composer
	Logger   Logger
}

// NewRegimeComparator creates a comparator backed by a rule provider.
func NewRegimeComparator(provider rules.Provider) *RegimeComparator {
	return &RegimeComparator{Composer: NewComposer(provider), Logger: NopLogger{}}
}

// SetLogger sets the logger; nil restores the no-op logger.
func (rc *RegimeComparator) SetLogger(l Logger) {
	rc.Logger = orNop(l)
	rc.Composer.SetLogger(l)
}

// Compare composes in under each regime. in.Regime is ignored. Ties favor
// the old regime, which keeps deductions available.
func (rc *RegimeComparator) Compare(in ComposeInput) (*domain.RegimeComparison, error) {
	oldIn := in
	oldIn.Regime = domain.RegimeOld
	oldRes, err := rc.Composer.Compose(oldIn)
	if err != nil {
		return nil, fmt.Errorf("old regime: %w", err)
	}

	newIn := in
	newIn.Regime = domain.RegimeNew
	newRes, err := rc.Composer.Compose(newIn)
	if err != nil {
		return nil, fmt.Errorf("new regime: %w", err)
	}

	cmp := &domain.RegimeComparison{
		Year:       in.Year,
		Old:        oldRes,
		New:        newRes,
		Difference: oldRes.TotalLiability.Sub(newRes.TotalLiability),
	}
	if cmp.Difference.IsPositive() {
		cmp.Recommended = domain.RegimeNew
		cmp.Savings = cmp.Difference
	} else {
		cmp.Recommended = domain.RegimeOld
		cmp.Savings = cmp.Difference.Neg()
	}
	cmp.Recommendation = recommendationText(cmp)

	rc.Logger.Infof("%s: old %s, new %s, recommend %s", in.Year, oldRes.TotalLiability, newRes.TotalLiability, cmp.Recommended)
	return cmp, nil
}

func recommendationText(cmp *domain.RegimeComparison) string {
	if cmp.Savings.IsZero() {
		return "Both regimes give the same liability; the old regime keeps deductions available."
	}
	return fmt.Sprintf("The %s regime saves %s (effective rate %s%% vs %s%%).",
		cmp.Recommended,
		cmp.Savings.StringFixed(2),
		cmp.Result(cmp.Recommended).EffectiveRate.StringFixed(2),
		cmp.Result(other(cmp.Recommended)).EffectiveRate.StringFixed(2))
}

func other(r domain.Regime) domain.Regime {
	if r == domain.RegimeOld {
		return domain.RegimeNew
	}
	return domain.RegimeOld
}
