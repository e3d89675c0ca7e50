package compare

import (
	"encoding/csv"
	"strconv"
	"strings"
)

// CSVFormatter formats comparison results as CSV
type CSVFormatter struct{}

// Format generates CSV output for comparison results
func (cf *CSVFormatter) Format(compSet *ComparisonSet) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := []string{
		"Scenario",
		"Type",
		"Regime",
		"Old Regime Liability",
		"New Regime Liability",
		"Liability",
		"Taxable Income",
		"Total Deductions",
		"Balance",
		"Liability Diff from Base",
		"Liability % Change",
		"Regime Changed",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	if err := writer.Write(cf.formatRow(compSet.BaseResult, "base")); err != nil {
		return "", err
	}

	for _, alt := range compSet.AlternativeResults {
		if err := writer.Write(cf.formatRow(&alt, "alternative")); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// formatRow formats a comparison result as a CSV row
func (cf *CSVFormatter) formatRow(result *ComparisonResult, scenarioType string) []string {
	return []string{
		result.ScenarioName,
		scenarioType,
		string(result.Regime),
		result.OldLiability.StringFixed(2),
		result.NewLiability.StringFixed(2),
		result.Liability.StringFixed(2),
		result.TaxableIncome.StringFixed(2),
		result.TotalDeductions.StringFixed(2),
		result.Balance.StringFixed(2),
		result.LiabilityDiffFromBase.StringFixed(2),
		result.PctFromBase.StringFixed(2),
		strconv.FormatBool(result.RegimeChanged),
	}
}
