package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FinancialYear is identified by the calendar year in which it starts.
// FinancialYear(2024) runs from 1 April 2024 to 31 March 2025.
type FinancialYear int

// FinancialYearOf returns the financial year containing t.
func FinancialYearOf(t time.Time) FinancialYear {
	if t.Month() >= time.April {
		return FinancialYear(t.Year())
	}
	return FinancialYear(t.Year() - 1)
}

// String renders the year as "2024-25".
func (fy FinancialYear) String() string {
	return fmt.Sprintf("%d-%02d", int(fy), (int(fy)+1)%100)
}

// Start returns 1 April of the year.
func (fy FinancialYear) Start() time.Time {
	return time.Date(int(fy), time.April, 1, 0, 0, 0, 0, time.UTC)
}

// ParseFinancialYear accepts "2024-25", "2024-2025" or "2024".
func ParseFinancialYear(s string) (FinancialYear, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.ToUpper(s), "FY")
	s = strings.TrimSpace(s)
	start, rest, hasEnd := strings.Cut(s, "-")
	y, err := strconv.Atoi(start)
	if err != nil || y < 1900 || y > 9999 {
		return 0, fmt.Errorf("invalid financial year %q", s)
	}
	if hasEnd {
		end, err := strconv.Atoi(rest)
		if err != nil {
			return 0, fmt.Errorf("invalid financial year %q", s)
		}
		if end != (y+1)%100 && end != y+1 {
			return 0, fmt.Errorf("invalid financial year %q: end year must follow start year", s)
		}
	}
	return FinancialYear(y), nil
}

// UnmarshalText lets return files write the year as "2024-25" or 2024.
func (fy *FinancialYear) UnmarshalText(text []byte) error {
	parsed, err := ParseFinancialYear(string(text))
	if err != nil {
		return err
	}
	*fy = parsed
	return nil
}

// MarshalText renders the "2024-25" form.
func (fy FinancialYear) MarshalText() ([]byte, error) {
	return []byte(fy.String()), nil
}

// Regime is the elected tax regime for a year.
type Regime string

const (
	RegimeOld Regime = "old"
	RegimeNew Regime = "new"
)

// Regimes lists the regimes in comparison order.
var Regimes = []Regime{RegimeOld, RegimeNew}

// ParseRegime normalizes user input into a Regime.
func ParseRegime(s string) (Regime, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "old", "a", "old_regime":
		return RegimeOld, nil
	case "new", "b", "new_regime", "115bac":
		return RegimeNew, nil
	default:
		return "", fmt.Errorf("unknown regime %q (expected old or new)", s)
	}
}

// AgeCategory selects age-dependent slab tables and deduction limits.
type AgeCategory string

const (
	AgeGeneral     AgeCategory = "general"
	AgeSenior      AgeCategory = "senior"
	AgeSuperSenior AgeCategory = "super_senior"
)

// Taxpayer carries the personal attributes rules depend on.
type Taxpayer struct {
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	Age  int    `yaml:"age" json:"age"`
}

// Category maps age to the slab category.
func (t Taxpayer) Category() AgeCategory {
	switch {
	case t.Age >= 80:
		return AgeSuperSenior
	case t.Age >= 60:
		return AgeSenior
	default:
		return AgeGeneral
	}
}
