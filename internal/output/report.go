package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rgehrsitz/taxgo/internal/calculation"
	"github.com/rgehrsitz/taxgo/internal/domain"
)

// Report is everything a formatter renders for one computed return.
type Report struct {
	Source      string
	GeneratedAt time.Time
	Return      *domain.ReturnFile
	Result      *calculation.ReturnResult
	Suggestions []calculation.Suggestion
	Assumptions []string
}

// NewReport bundles a computed return with the default assumptions.
func NewReport(source string, rf *domain.ReturnFile, res *calculation.ReturnResult, suggestions []calculation.Suggestion) *Report {
	return &Report{
		Source:      source,
		GeneratedAt: time.Now().UTC(),
		Return:      rf,
		Result:      res,
		Suggestions: suggestions,
		Assumptions: DefaultAssumptions,
	}
}

func (r *Report) assumptions() []string {
	if len(r.Assumptions) == 0 {
		return DefaultAssumptions
	}
	return r.Assumptions
}

func (r *Report) validate() error {
	if r == nil || r.Result == nil || r.Result.Comparison == nil || r.Result.Computation == nil {
		return fmt.Errorf("report has no computed result")
	}
	return nil
}

// GenerateReport renders the report in the named format to w.
func GenerateReport(w io.Writer, report *Report, format string) error {
	f := GetFormatterByName(format)
	if f == nil {
		return fmt.Errorf("%w: %q. Try one of: %s (aliases: %s)", ErrUnsupportedFormat, format,
			strings.Join(AvailableFormatterNames(), ", "), strings.Join(AvailableFormatAliases(), ", "))
	}
	data, err := f.Format(report)
	if err != nil {
		return fmt.Errorf("%s formatter: %w", f.Name(), err)
	}
	_, err = w.Write(data)
	return err
}
