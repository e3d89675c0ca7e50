package compare

import (
	"strings"
	"testing"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/shopspring/decimal"
)

func sampleComparisonSet() *ComparisonSet {
	return &ComparisonSet{
		BaseScenarioName: "base",
		ConfigPath:       "/path/to/return.yaml",
		BaseResult: &ComparisonResult{
			ScenarioName:  "base",
			Regime:        domain.RegimeNew,
			OldLiability:  decimal.NewFromInt(148200),
			NewLiability:  decimal.NewFromInt(71500),
			Liability:     decimal.NewFromInt(71500),
			Recommended:   domain.RegimeNew,
			TaxableIncome: decimal.NewFromInt(1125000),
		},
		AlternativeResults: []ComparisonResult{
			{
				ScenarioName:          "set_regime:regime=old",
				Description:           "File under the old regime",
				Regime:                domain.RegimeOld,
				OldLiability:          decimal.NewFromInt(148200),
				NewLiability:          decimal.NewFromInt(71500),
				Liability:             decimal.NewFromInt(148200),
				LiabilityDiffFromBase: decimal.NewFromInt(76700),
				PctFromBase:           decimal.RequireFromString("107.27"),
				RegimeChanged:         true,
			},
		},
		Recommendations: []string{
			"No alternative lowers the liability of base",
			"Avoid: set_regime:regime=old raises the liability by ₹76700",
		},
	}
}

func TestTableFormatter_Format(t *testing.T) {
	formatter := &TableFormatter{}

	result := formatter.Format(sampleComparisonSet())

	if result == "" {
		t.Fatal("Expected formatted output, got empty string")
	}

	for _, want := range []string{
		"TAX WHAT-IF COMPARISON",
		"Base Return: base",
		"Input: /path/to/return.yaml",
		"base (base)",
		"₹1.48L",
		"₹71500",
		"COMPARISON TO BASE",
		"File under the old regime",
		"+₹76700 (107.3%)",
		"Regime:     new -> old",
		"RECOMMENDATIONS",
	} {
		if !contains(result, want) {
			t.Errorf("Expected %q in output", want)
		}
	}
}

func TestTableFormatter_Format_EmptyAlternatives(t *testing.T) {
	formatter := &TableFormatter{}

	compSet := sampleComparisonSet()
	compSet.AlternativeResults = []ComparisonResult{}
	compSet.Recommendations = []string{}
	compSet.ConfigPath = ""

	result := formatter.Format(compSet)

	if !contains(result, "TAX WHAT-IF COMPARISON") {
		t.Error("Expected header in output")
	}
	if contains(result, "Input:") {
		t.Error("Input line should be omitted without a path")
	}
	if contains(result, "COMPARISON TO BASE") {
		t.Error("Should not have comparison section without alternatives")
	}
	if contains(result, "RECOMMENDATIONS") {
		t.Error("Should not have recommendations section")
	}
}

func TestTableFormatter_formatDecimal(t *testing.T) {
	formatter := &TableFormatter{}
	tests := []struct {
		in   int64
		want string
	}{
		{99999, "99999"},
		{100000, "1.00L"},
		{1250000, "12.50L"},
		{25000000, "2.50Cr"},
		{-150000, "-1.50L"},
	}
	for _, tt := range tests {
		if got := formatter.formatDecimal(decimal.NewFromInt(tt.in)); got != tt.want {
			t.Errorf("formatDecimal(%d) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestTableFormatter_FormatCompact(t *testing.T) {
	formatter := &TableFormatter{}
	compSet := sampleComparisonSet()
	compSet.AlternativeResults = append(compSet.AlternativeResults, ComparisonResult{
		ScenarioName:          "max_80c",
		LiabilityDiffFromBase: decimal.Zero,
	})

	result := formatter.FormatCompact(compSet)

	expected := "Base: base | set_regime:regime=old: +₹76700 | max_80c: ="
	if result != expected {
		t.Errorf("Expected %q, got %q", expected, result)
	}
}

func TestCSVFormatter_Format(t *testing.T) {
	formatter := &CSVFormatter{}

	result, err := formatter.Format(sampleComparisonSet())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(result), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d lines", len(lines))
	}

	if !strings.HasPrefix(lines[0], "Scenario,Type,Regime,") {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	if !contains(lines[1], "base,base,new,148200.00,71500.00,71500.00") {
		t.Errorf("Unexpected base row: %s", lines[1])
	}
	if !contains(lines[2], "76700.00,107.27,true") {
		t.Errorf("Unexpected alternative row: %s", lines[2])
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	formatter := &JSONFormatter{}

	result, err := formatter.Format(sampleComparisonSet())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, want := range []string{
		`"baseScenarioName":"base"`,
		`"alternativeResults"`,
		`"recommendations"`,
		`"liability":"71500"`,
		`"regimeChanged":true`,
	} {
		if !contains(result, want) {
			t.Errorf("Expected %s in JSON", want)
		}
	}
	if contains(result, `"computation"`) {
		t.Error("Computation should be omitted by default")
	}
}

func TestJSONFormatter_IncludeComputations(t *testing.T) {
	compSet := runSampleComparison(t, CompareOptions{WhatIf: []string{"set_regime:regime=old"}})
	formatter := &JSONFormatter{Pretty: true, IncludeComputations: true}

	result, err := formatter.Format(compSet)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if strings.Count(result, `"computation": {`) != 2 {
		t.Errorf("Expected a computation per scenario, got:\n%s", result)
	}
	if !contains(result, `"slab_breakdown"`) {
		t.Error("Expected slab breakdown in expanded JSON")
	}
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
