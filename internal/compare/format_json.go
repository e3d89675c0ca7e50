package compare

import (
	"encoding/json"

	"github.com/rgehrsitz/taxgo/internal/domain"
)

// JSONFormatter formats comparison results as JSON
type JSONFormatter struct {
	Pretty bool // If true, format with indentation

	// IncludeComputations attaches the filed regime's full computation to
	// every scenario.
	IncludeComputations bool
}

type jsonScenario struct {
	ComparisonResult
	Computation *domain.TaxComputationResult `json:"computation,omitempty"`
}

type jsonComparisonSet struct {
	BaseScenarioName   string         `json:"baseScenarioName"`
	BaseResult         *jsonScenario  `json:"baseResult"`
	AlternativeResults []jsonScenario `json:"alternativeResults"`
	Recommendations    []string       `json:"recommendations"`
	ConfigPath         string         `json:"configPath"`
}

// Format generates JSON output for comparison results
func (jf *JSONFormatter) Format(compSet *ComparisonSet) (string, error) {
	var payload any = compSet
	if jf.IncludeComputations {
		payload = jf.expand(compSet)
	}

	var data []byte
	var err error

	if jf.Pretty {
		data, err = json.MarshalIndent(payload, "", "  ")
	} else {
		data, err = json.Marshal(payload)
	}

	if err != nil {
		return "", err
	}

	return string(data), nil
}

func (jf *JSONFormatter) expand(compSet *ComparisonSet) jsonComparisonSet {
	wrap := func(r ComparisonResult) jsonScenario {
		s := jsonScenario{ComparisonResult: r}
		if r.Result != nil {
			s.Computation = r.Result.Computation
		}
		return s
	}

	out := jsonComparisonSet{
		BaseScenarioName:   compSet.BaseScenarioName,
		AlternativeResults: make([]jsonScenario, 0, len(compSet.AlternativeResults)),
		Recommendations:    compSet.Recommendations,
		ConfigPath:         compSet.ConfigPath,
	}
	if compSet.BaseResult != nil {
		base := wrap(*compSet.BaseResult)
		out.BaseResult = &base
	}
	for _, alt := range compSet.AlternativeResults {
		out.AlternativeResults = append(out.AlternativeResults, wrap(alt))
	}
	return out
}
