package compare

import (
	"fmt"

	"github.com/rgehrsitz/taxgo/internal/calculation"
	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/shopspring/decimal"
)

// ComparisonResult represents a single what-if return with calculated metrics
type ComparisonResult struct {
	ScenarioName string                    `json:"scenarioName"`
	Description  string                    `json:"description"`
	Result       *calculation.ReturnResult `json:"-"`

	// Key Metrics
	Regime          domain.Regime   `json:"regime"`
	OldLiability    decimal.Decimal `json:"oldLiability"`
	NewLiability    decimal.Decimal `json:"newLiability"`
	Liability       decimal.Decimal `json:"liability"`
	Recommended     domain.Regime   `json:"recommended"`
	TaxableIncome   decimal.Decimal `json:"taxableIncome"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	Balance         decimal.Decimal `json:"balance"`
	EffectiveRate   decimal.Decimal `json:"effectiveRate"`

	// Comparison to Base
	LiabilityDiffFromBase decimal.Decimal `json:"liabilityDiffFromBase"`
	PctFromBase           decimal.Decimal `json:"pctFromBase"`
	RegimeChanged         bool            `json:"regimeChanged"`
}

// ComparisonSet represents a base return and its what-if alternatives
type ComparisonSet struct {
	BaseScenarioName   string             `json:"baseScenarioName"`
	BaseResult         *ComparisonResult  `json:"baseResult"`
	AlternativeResults []ComparisonResult `json:"alternativeResults"`
	Recommendations    []string           `json:"recommendations"`
	ConfigPath         string             `json:"configPath"`
}

// MetricsCalculator extracts key metrics from computed returns
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateMetrics computes the comparison metrics for one computed return
func (mc *MetricsCalculator) CalculateMetrics(name string, res *calculation.ReturnResult) ComparisonResult {
	result := ComparisonResult{
		ScenarioName: name,
		Result:       res,
	}
	if res == nil || res.Computation == nil || res.Comparison == nil {
		return result
	}

	comp := res.Computation
	result.Regime = res.Regime
	result.OldLiability = res.Comparison.Old.TotalLiability
	result.NewLiability = res.Comparison.New.TotalLiability
	result.Liability = comp.TotalLiability
	result.Recommended = res.Comparison.Recommended
	result.TaxableIncome = comp.TaxableIncome
	result.TotalDeductions = comp.TotalDeductions
	result.Balance = comp.Balance
	result.EffectiveRate = comp.EffectiveRate
	return result
}

// CalculateComparison computes comparison metrics between a scenario and a base
func (mc *MetricsCalculator) CalculateComparison(scenario, base ComparisonResult) ComparisonResult {
	scenario.LiabilityDiffFromBase = scenario.Liability.Sub(base.Liability)

	if !base.Liability.IsZero() {
		scenario.PctFromBase = scenario.LiabilityDiffFromBase.
			Div(base.Liability).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	scenario.RegimeChanged = scenario.Regime != base.Regime
	return scenario
}

// GenerateRecommendations creates recommendations based on comparison results
func GenerateRecommendations(compSet *ComparisonSet) []string {
	recommendations := []string{}

	if compSet.BaseResult == nil {
		return recommendations
	}

	base := compSet.BaseResult
	if base.Recommended != "" && base.Recommended != base.Regime {
		diff := base.OldLiability.Sub(base.NewLiability).Abs()
		recommendations = append(recommendations,
			fmt.Sprintf("Regime: filing under the %s regime would save ₹%s on the base return",
				base.Recommended, diff.StringFixed(0)))
	}

	if len(compSet.AlternativeResults) == 0 {
		return recommendations
	}

	// Find lowest liability
	lowest := base
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if alt.Liability.LessThan(lowest.Liability) {
			lowest = alt
		}
	}

	if lowest != base {
		savings := base.Liability.Sub(lowest.Liability)
		rec := "Lowest Tax: " + lowest.ScenarioName + " saves ₹" + savings.StringFixed(0) +
			" against the base return"
		if lowest.RegimeChanged {
			rec += fmt.Sprintf(" and moves the return to the %s regime", lowest.Regime)
		}
		recommendations = append(recommendations, rec)
	} else {
		recommendations = append(recommendations,
			"No alternative lowers the liability of "+base.ScenarioName)
	}

	// Flag alternatives that cost more than the base
	for _, alt := range compSet.AlternativeResults {
		if alt.LiabilityDiffFromBase.IsPositive() {
			recommendations = append(recommendations,
				fmt.Sprintf("Avoid: %s raises the liability by ₹%s", alt.ScenarioName,
					alt.LiabilityDiffFromBase.StringFixed(0)))
		}
	}

	return recommendations
}
