package output

import (
	"encoding/json"
	"time"

	"github.com/rgehrsitz/taxgo/internal/calculation"
)

// JSONFormatter serializes the computed return as pretty-printed JSON.
type JSONFormatter struct{}

func (j JSONFormatter) Name() string { return "json" }

type jsonReport struct {
	Source      string                    `json:"source,omitempty"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Result      *calculation.ReturnResult `json:"result"`
	Suggestions []calculation.Suggestion  `json:"suggestions,omitempty"`
	Assumptions []string                  `json:"assumptions"`
}

func (j JSONFormatter) Format(report *Report) ([]byte, error) {
	if err := report.validate(); err != nil {
		return nil, err
	}
	return json.MarshalIndent(jsonReport{
		Source:      report.Source,
		GeneratedAt: report.GeneratedAt,
		Result:      report.Result,
		Suggestions: report.Suggestions,
		Assumptions: report.assumptions(),
	}, "", "  ")
}
