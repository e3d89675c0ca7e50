package output

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

// CSVSummarizer writes the regime comparison, one row per component.
type CSVSummarizer struct{}

func (c CSVSummarizer) Name() string { return "csv" }

func (c CSVSummarizer) Format(report *Report) ([]byte, error) {
	if err := report.validate(); err != nil {
		return nil, err
	}
	cmp := report.Result.Comparison

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write([]string{"Component", "Old Regime", "New Regime"}); err != nil {
		return nil, err
	}
	for _, row := range comparisonRows(cmp) {
		if err := w.Write([]string{row.label, row.old.StringFixed(2), row.new.StringFixed(2)}); err != nil {
			return nil, err
		}
	}
	rows := [][]string{
		{"Effective Rate %", cmp.Old.EffectiveRate.StringFixed(2), cmp.New.EffectiveRate.StringFixed(2)},
		{"Recommended", string(cmp.Recommended), string(cmp.Recommended)},
		{"Filed", string(report.Result.Regime), string(report.Result.Regime)},
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// CSVGainsExporter writes one row per taxed disposal.
type CSVGainsExporter struct{}

func (c CSVGainsExporter) Name() string { return "gains-csv" }

func (c CSVGainsExporter) Format(report *Report) ([]byte, error) {
	if err := report.validate(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{
		"Disposal ID", "Asset Class", "Acquired", "Disposed", "Holding Days", "Gain Type",
		"Raw Gain", "Indexed", "Taxable Gain", "Treatment", "Rate", "Exemption", "Tax",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, g := range report.Result.Gains {
		row := []string{
			g.Disposal.ID,
			string(g.Disposal.AssetClass),
			g.Disposal.AcquisitionDate.Format("2006-01-02"),
			g.Disposal.DisposalDate.Format("2006-01-02"),
			strconv.Itoa(g.HoldingDays),
			string(g.GainType),
			g.RawGain.StringFixed(2),
			strconv.FormatBool(g.Indexed),
			g.TaxableGain().StringFixed(2),
			string(g.Treatment),
			g.Rate.String(),
			g.ExemptionApplied.StringFixed(2),
			g.Tax.StringFixed(2),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
