package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rgehrsitz/taxgo/internal/calculation"
	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/shopspring/decimal"
)

// ConsoleFormatter renders the full computation with lipgloss styling.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(report *Report) ([]byte, error) {
	if err := report.validate(); err != nil {
		return nil, err
	}
	res := report.Result
	var buf bytes.Buffer

	fmt.Fprintln(&buf, TitleStyle.Render(fmt.Sprintf("INCOME TAX COMPUTATION: FY %s", res.Year)))
	fmt.Fprintln(&buf, strings.Repeat("=", 80))
	writeField(&buf, "Taxpayer", res.User)
	writeField(&buf, "Election", string(res.Election))
	if report.Source != "" {
		writeField(&buf, "Input", report.Source)
	}
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, summaryBox(res))
	fmt.Fprintln(&buf)

	writeIncome(&buf, res)
	writeCapitalGains(&buf, res)
	writeSetOff(&buf, res)
	writeComparison(&buf, res.Comparison)
	writeTDS(&buf, res)
	writeRecommendations(&buf, res.Recommendations)
	writeSuggestions(&buf, report.Suggestions)

	fmt.Fprintln(&buf, SectionStyle.Render("KEY ASSUMPTIONS"))
	for _, a := range report.assumptions() {
		fmt.Fprintf(&buf, "• %s\n", a)
	}
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, label, value string) {
	fmt.Fprintf(buf, "%s %s\n", LabelStyle.Render(fmt.Sprintf("%-22s", label+":")), value)
}

func summaryBox(res *calculation.ReturnResult) string {
	comp := res.Computation
	balanceLabel := "Balance Payable"
	if comp.IsRefund() {
		balanceLabel = "Refund Due"
	}
	lines := []string{
		fmt.Sprintf("Filed Regime:     %s", ValueStyle.Render(string(res.Regime))),
		fmt.Sprintf("Taxable Income:   %s", FormatCurrency(comp.TaxableIncome)),
		fmt.Sprintf("Total Liability:  %s", ValueStyle.Render(FormatCurrency(comp.TotalLiability))),
		fmt.Sprintf("Taxes Paid:       %s", FormatCurrency(comp.TotalPaid)),
		fmt.Sprintf("%-17s %s", balanceLabel+":", balanceStyle(comp.IsRefund()).Render(FormatCurrency(comp.Balance.Abs()))),
	}
	return SummaryBoxStyle.Render(strings.Join(lines, "\n"))
}

func writeIncome(buf *bytes.Buffer, res *calculation.ReturnResult) {
	fmt.Fprintln(buf, SectionStyle.Render("INCOME AFTER SET-OFF"))
	income := res.Input.Income
	if res.SetOff != nil {
		income = res.SetOff.Income
	}
	for _, h := range domain.Heads {
		v := income.Amount(h)
		if v.IsZero() {
			continue
		}
		writeField(buf, headLabel(h), FormatCurrency(v))
	}
	writeField(buf, "Total", FormatCurrency(income.Total()))

	if len(res.HouseProperty) > 0 {
		fmt.Fprintln(buf)
		fmt.Fprintln(buf, "House property:")
		for _, hp := range res.HouseProperty {
			fmt.Fprintf(buf, "  %-16s NAV %s - 30%% %s - interest %s = %s\n", hp.Label,
				FormatCurrency(hp.NetAnnualValue), FormatCurrency(hp.StandardDeduction),
				FormatCurrency(hp.InterestAllowed), FormatCurrency(hp.Income))
		}
	}
	fmt.Fprintln(buf)
}

func headLabel(h domain.Head) string {
	switch h {
	case domain.HeadSalary:
		return "Salary"
	case domain.HeadHouseProperty:
		return "House Property"
	case domain.HeadBusiness:
		return "Business"
	case domain.HeadSpeculative:
		return "Speculative Business"
	case domain.HeadShortTermCapital:
		return "Short-term Gains"
	case domain.HeadLongTermCapital:
		return "Long-term Gains"
	case domain.HeadOtherSources:
		return "Other Sources"
	}
	return string(h)
}

func writeCapitalGains(buf *bytes.Buffer, res *calculation.ReturnResult) {
	if len(res.Gains) == 0 {
		return
	}
	fmt.Fprintln(buf, SectionStyle.Render("CAPITAL GAINS"))
	fmt.Fprintf(buf, "%-14s %-16s %-6s %6s %14s %-5s %7s %12s\n",
		"Disposal", "Asset", "Term", "Days", "Gain", "Basis", "Rate", "Exempt")
	for _, g := range res.Gains {
		rate := FormatRate(g.Rate)
		if g.Treatment == domain.SlabDeferred {
			rate = "slab"
		}
		fmt.Fprintf(buf, "%-14s %-16s %-6s %6d %14s %-5s %7s %12s\n",
			truncate(g.Disposal.ID, 14), g.Disposal.AssetClass, g.GainType, g.HoldingDays,
			g.TaxableGain().StringFixed(2), indexedMark(g.Indexed), rate, g.ExemptionApplied.StringFixed(2))
	}
	if len(res.GainBuckets) > 0 {
		fmt.Fprintln(buf)
		fmt.Fprintln(buf, "Taxable buckets after set-off:")
		for _, b := range res.GainBuckets {
			fmt.Fprintf(buf, "  %-18s %14s (exempt %s)\n", b.Label, FormatCurrency(b.Amount), FormatCurrency(b.Exemption))
		}
	}
	fmt.Fprintf(buf, "Equity LTCG allowance: %s, consumed %s, remaining %s\n",
		FormatCurrency(res.ClosingPool.Allowance), FormatCurrency(res.ClosingPool.Consumed),
		FormatCurrency(res.ClosingPool.Remaining()))
	fmt.Fprintln(buf)
}

func indexedMark(indexed bool) string {
	if indexed {
		return "CII"
	}
	return "cost"
}

func writeSetOff(buf *bytes.Buffer, res *calculation.ReturnResult) {
	so := res.SetOff
	if so == nil || (len(so.Absorptions) == 0 && len(so.NewCarryForward) == 0 && len(so.Forfeited) == 0) {
		return
	}
	fmt.Fprintln(buf, SectionStyle.Render("LOSS SET-OFF"))
	for _, a := range so.Absorptions {
		source := "current year"
		if a.Source == calculation.FromBroughtForward {
			source = "brought forward"
		}
		fmt.Fprintf(buf, "  %-15s %-20s -> %-20s %14s\n", source, a.FromHead, a.ToHead, FormatCurrency(a.Amount))
	}
	for _, e := range so.NewCarryForward {
		fmt.Fprintf(buf, "  Carry forward %s loss of %s, usable through FY %s\n", e.Head, FormatCurrency(e.OriginalAmount), e.ExpiryYear)
	}
	for _, f := range so.Forfeited {
		fmt.Fprintf(buf, "  %s\n", NegativeStyle.Render(fmt.Sprintf("Forfeited %s %s loss from FY %s (expired FY %s)",
			FormatCurrency(f.Amount), f.Head, f.OriginYear, f.ExpiryYear)))
	}
	fmt.Fprintln(buf)
}

func writeComparison(buf *bytes.Buffer, cmp *domain.RegimeComparison) {
	fmt.Fprintln(buf, SectionStyle.Render("REGIME COMPARISON"))
	fmt.Fprintf(buf, "%-24s %18s %18s\n", "", "Old Regime", "New Regime")
	fmt.Fprintln(buf, strings.Repeat("-", 62))
	for _, row := range comparisonRows(cmp) {
		fmt.Fprintf(buf, "%-24s %18s %18s\n", row.label, FormatCurrency(row.old), FormatCurrency(row.new))
	}
	fmt.Fprintf(buf, "%-24s %18s %18s\n", "Effective Rate",
		FormatPercentage(cmp.Old.EffectiveRate), FormatPercentage(cmp.New.EffectiveRate))
	fmt.Fprintln(buf)
	fmt.Fprintf(buf, "%s %s\n", ValueStyle.Render("Recommendation:"), cmp.Recommendation)
	fmt.Fprintln(buf)

	for _, r := range []*domain.TaxComputationResult{cmp.Old, cmp.New} {
		fmt.Fprintf(buf, "%s regime slabs:\n", r.Regime)
		for _, line := range r.SlabBreakdown {
			upper := "and above"
			if !line.To.IsZero() {
				upper = "to " + line.To.StringFixed(0)
			}
			fmt.Fprintf(buf, "  %12s %-14s @ %-6s %14s %12s\n",
				line.From.StringFixed(0), upper, FormatRate(line.Rate), line.Income.StringFixed(2), line.Tax.StringFixed(2))
		}
	}
	fmt.Fprintln(buf)
}

type comparisonRow struct {
	label    string
	old, new decimal.Decimal
}

func comparisonRows(cmp *domain.RegimeComparison) []comparisonRow {
	o, n := cmp.Old, cmp.New
	rows := []comparisonRow{
		{"Gross Total Income", o.GrossTotalIncome, n.GrossTotalIncome},
		{"Deductions", o.TotalDeductions, n.TotalDeductions},
		{"Taxable Income", o.TaxableIncome, n.TaxableIncome},
		{"Slab Tax", o.SlabTax, n.SlabTax},
		{"Capital Gains Tax", o.FlatGainsTax, n.FlatGainsTax},
		{"Rebate", o.Rebate, n.Rebate},
		{"Surcharge", o.Surcharge, n.Surcharge},
	}
	if !o.MarginalRelief.IsZero() || !n.MarginalRelief.IsZero() {
		rows = append(rows, comparisonRow{"Marginal Relief", o.MarginalRelief, n.MarginalRelief})
	}
	return append(rows,
		comparisonRow{"Cess", o.Cess, n.Cess},
		comparisonRow{"Total Liability", o.TotalLiability, n.TotalLiability},
		comparisonRow{"Taxes Paid", o.TotalPaid, n.TotalPaid},
		comparisonRow{"Balance", o.Balance, n.Balance},
	)
}

func writeTDS(buf *bytes.Buffer, res *calculation.ReturnResult) {
	if len(res.TDS) == 0 {
		return
	}
	s := res.TDSSummary
	fmt.Fprintln(buf, SectionStyle.Render("TDS RECONCILIATION"))
	for _, r := range res.TDS {
		statement := "-"
		if r.StatementAmount != nil {
			statement = r.StatementAmount.StringFixed(2)
		}
		fmt.Fprintf(buf, "  %-12s %-10s %-6s claimed %12s statement %12s  %s\n",
			truncate(r.ID, 12), r.DeductorTAN, r.Section, r.ClaimedAmount.StringFixed(2), statement, r.Status)
	}
	writeField(buf, "Verified Total", FormatCurrency(s.VerifiedTotal))
	writeField(buf, "Unclaimed Balance", FormatCurrency(s.UnclaimedBalance))
	writeField(buf, "Pending / Mismatch", fmt.Sprintf("%d / %d", s.PendingCount, s.MismatchCount))
	for _, rec := range s.Recommendations {
		fmt.Fprintf(buf, "• %s\n", rec)
	}
	fmt.Fprintln(buf)
}

func writeRecommendations(buf *bytes.Buffer, recs []string) {
	if len(recs) == 0 {
		return
	}
	fmt.Fprintln(buf, SectionStyle.Render("PAYMENT"))
	for _, r := range recs {
		fmt.Fprintf(buf, "• %s\n", r)
	}
	fmt.Fprintln(buf)
}

func writeSuggestions(buf *bytes.Buffer, suggestions []calculation.Suggestion) {
	if len(suggestions) == 0 {
		return
	}
	fmt.Fprintln(buf, SectionStyle.Render("TAX-SAVING HEADROOM (OLD REGIME)"))
	for _, s := range suggestions {
		fmt.Fprintf(buf, "• %s\n", s.Message)
	}
	fmt.Fprintln(buf)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// ConsoleLiteFormatter provides a concise plain-text summary.
type ConsoleLiteFormatter struct{}

func (c ConsoleLiteFormatter) Name() string { return "console-lite" }

func (c ConsoleLiteFormatter) Format(report *Report) ([]byte, error) {
	if err := report.validate(); err != nil {
		return nil, err
	}
	res := report.Result
	cmp := res.Comparison
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "TAX SUMMARY %s FY %s\n", res.User, res.Year)
	fmt.Fprintln(&buf, "================================")
	fmt.Fprintf(&buf, "Old regime: %s\n", FormatCurrency(cmp.Old.TotalLiability))
	fmt.Fprintf(&buf, "New regime: %s\n", FormatCurrency(cmp.New.TotalLiability))
	fmt.Fprintf(&buf, "Filed: %s (Δ %s)\n", res.Regime, FormatCurrency(cmp.Difference))
	if res.Computation.IsRefund() {
		fmt.Fprintf(&buf, "Refund: %s\n", FormatCurrency(res.Computation.Balance.Abs()))
	} else {
		fmt.Fprintf(&buf, "Payable: %s\n", FormatCurrency(res.Computation.Balance))
	}
	return buf.Bytes(), nil
}
