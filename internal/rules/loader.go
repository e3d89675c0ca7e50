package rules

import (
	"fmt"
	"os"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// overlayDocument is the YAML shape of a rule overlay. Each year is decoded
// on top of a copy of the existing year (or the latest earlier year), so an
// overlay only needs the values that change. Struct fields merge; a map
// entry named in the overlay replaces the inherited entry whole.
type overlayDocument struct {
	CostInflationIndex map[domain.FinancialYear]decimal.Decimal `yaml:"cost_inflation_index"`
	Years              map[domain.FinancialYear]yearOverlay     `yaml:"years"`
}

type yearOverlay struct {
	CapitalGains yaml.Node                   `yaml:"capital_gains"`
	SetOff       yaml.Node                   `yaml:"set_off"`
	Regimes      map[domain.Regime]yaml.Node `yaml:"regimes"`
}

// LoadFile reads a YAML overlay and merges it into a copy of base.
func LoadFile(path string, base *Book) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule overlay %s: %w", path, err)
	}
	book, err := Merge(data, base)
	if err != nil {
		return nil, fmt.Errorf("rule overlay %s: %w", path, err)
	}
	return book, nil
}

// Merge applies a YAML overlay to a copy of base. base is never modified.
func Merge(data []byte, base *Book) (*Book, error) {
	var doc overlayDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	book := base.Clone()
	for y, idx := range doc.CostInflationIndex {
		if !idx.IsPositive() {
			return nil, fmt.Errorf("cost inflation index for %s must be positive", y)
		}
		book.SetInflationIndex(y, idx)
	}

	for y, overlay := range doc.Years {
		yr, err := templateFor(book, y)
		if err != nil {
			return nil, err
		}
		if err := decodeNode(&overlay.CapitalGains, &yr.CapitalGains); err != nil {
			return nil, fmt.Errorf("%s capital_gains: %w", y, err)
		}
		if err := decodeNode(&overlay.SetOff, &yr.SetOff); err != nil {
			return nil, fmt.Errorf("%s set_off: %w", y, err)
		}
		for regime, node := range overlay.Regimes {
			node := node
			t, ok := yr.Regimes[regime]
			if !ok {
				t = &Tables{}
				yr.Regimes[regime] = t
			}
			if err := decodeNode(&node, t); err != nil {
				return nil, fmt.Errorf("%s %s regime: %w", y, regime, err)
			}
		}
		book.Put(yr)
		if err := yr.Validate(); err != nil {
			return nil, err
		}
	}
	return book, nil
}

// templateFor returns a copy of the year's rules, or of the latest earlier
// year when the overlay introduces a new year.
func templateFor(book *Book, y domain.FinancialYear) (*YearRules, error) {
	if existing, err := book.Year(y); err == nil {
		return cloneYear(existing), nil
	}
	var prior *YearRules
	for _, candidate := range book.Years() {
		if candidate < y {
			prior, _ = book.Year(candidate)
		}
	}
	if prior == nil {
		return nil, fmt.Errorf("overlay year %s has no earlier year to extend", y)
	}
	yr := cloneYear(prior)
	yr.Year = y
	return yr, nil
}

func decodeNode(node *yaml.Node, out any) error {
	if node.Kind == 0 {
		return nil
	}
	return node.Decode(out)
}
