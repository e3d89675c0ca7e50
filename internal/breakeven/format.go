package breakeven

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TableFormatter formats break-even results as a console table
type TableFormatter struct{}

// Format generates a formatted report for one break-even search
func (tf *TableFormatter) Format(result *Result) string {
	var sb strings.Builder

	sb.WriteString("REGIME BREAK-EVEN ANALYSIS\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")

	sb.WriteString(fmt.Sprintf("Taxpayer:            %s\n", result.User))
	sb.WriteString(fmt.Sprintf("Financial Year:      %s\n", result.Year))
	sb.WriteString(fmt.Sprintf("Status:              %s\n", tf.formatStatus(result)))
	sb.WriteString(fmt.Sprintf("Iterations:          %d\n", result.Iterations))
	if result.ConvergenceInfo != "" {
		sb.WriteString(fmt.Sprintf("Convergence:         %s\n", result.ConvergenceInfo))
	}
	sb.WriteString("\n")

	sb.WriteString("LIABILITY AS FILED\n")
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Old Regime:          ₹%s\n", tf.formatCurrency(result.OldLiability)))
	sb.WriteString(fmt.Sprintf("New Regime:          ₹%s\n", tf.formatCurrency(result.NewLiability)))
	sb.WriteString(fmt.Sprintf("Old Taxable Income:  ₹%s\n", tf.formatCurrency(result.OldTaxable)))
	sb.WriteString("\n")

	sb.WriteString("BREAK-EVEN POINT\n")
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Extra Deduction:     ₹%s\n", tf.formatCurrency(result.ExtraDeduction)))
	sb.WriteString(fmt.Sprintf("Old Liability Then:  ₹%s\n", tf.formatCurrency(result.OldLiabilityAtBreakEven)))
	sb.WriteString("\n")

	if len(result.Sections) > 0 {
		sb.WriteString("UNCLAIMED DEDUCTION ROOM\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		sb.WriteString(fmt.Sprintf("%-12s %12s %12s %12s\n", "Section", "Claimed", "Limit", "Remaining"))
		for _, h := range result.Sections {
			sb.WriteString(fmt.Sprintf("%-12s %12s %12s %12s\n",
				h.Section, h.Claimed.StringFixed(0), h.Limit.StringFixed(0), h.Remaining.StringFixed(0)))
		}
		sb.WriteString(fmt.Sprintf("%-12s %38s\n", "Total", result.Headroom.StringFixed(0)))
		if result.Achievable {
			sb.WriteString("The break-even deduction fits within the unclaimed room.\n")
		} else {
			sb.WriteString("The break-even deduction exceeds the unclaimed room.\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatSweep formats a salary sweep
func (tf *TableFormatter) FormatSweep(sweep *SweepResult) string {
	var sb strings.Builder

	sb.WriteString("BREAK-EVEN ACROSS SALARIES\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("%-14s %12s %12s %14s %10s %12s\n",
		"Salary", "Old", "New", "Extra Needed", "Headroom", "Status"))
	sb.WriteString(strings.Repeat("-", 80) + "\n")

	for _, p := range sweep.Points {
		r := p.Result
		sb.WriteString(fmt.Sprintf("%-14s %12s %12s %14s %10s %12s\n",
			"₹"+tf.formatShort(p.Salary),
			tf.formatShort(r.OldLiability),
			tf.formatShort(r.NewLiability),
			tf.formatShort(r.ExtraDeduction),
			tf.formatShort(r.Headroom),
			tf.truncate(string(r.Status), 12)))
	}
	sb.WriteString("\n")

	if len(sweep.Recommendations) > 0 {
		sb.WriteString("RECOMMENDATIONS\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, rec := range sweep.Recommendations {
			sb.WriteString(fmt.Sprintf("• %s\n", rec))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// JSONFormatter formats results as JSON
type JSONFormatter struct {
	Pretty bool
}

// Format generates JSON output
func (jf *JSONFormatter) Format(result *Result) (string, error) {
	return jf.marshal(result)
}

// FormatSweep formats a salary sweep as JSON
func (jf *JSONFormatter) FormatSweep(sweep *SweepResult) (string, error) {
	return jf.marshal(sweep)
}

func (jf *JSONFormatter) marshal(v any) (string, error) {
	var data []byte
	var err error

	if jf.Pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return "", err
	}

	return string(data), nil
}

// Helper methods

func (tf *TableFormatter) formatStatus(result *Result) string {
	switch result.Status {
	case StatusConverged:
		return "✓ Converged"
	case StatusOldCheaper:
		return "✓ Old regime already cheaper"
	case StatusUnreachable:
		return "⚠ Unreachable"
	default:
		return "⚠ Did not converge"
	}
}

func (tf *TableFormatter) formatCurrency(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func (tf *TableFormatter) formatShort(d decimal.Decimal) string {
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(10000000)) {
		return d.Div(decimal.NewFromInt(10000000)).StringFixed(2) + "Cr"
	} else if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(100000)) {
		return d.Div(decimal.NewFromInt(100000)).StringFixed(2) + "L"
	}
	return d.StringFixed(0)
}

func (tf *TableFormatter) truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
