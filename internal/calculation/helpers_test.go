package calculation

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/rgehrsitz/taxgo/internal/rules"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// assertDecimal compares by value so 13000 and 13000.00 are equal.
func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) bool {
	t.Helper()
	return assert.True(t, dec(want).Equal(got), append([]any{fmt.Sprintf("want %s, got %s", want, got)}, msgAndArgs...)...)
}

func builtin() *rules.Book {
	return rules.Default()
}

// equityDisposal builds a listed-equity sale of qty units.
func equityDisposal(id string, bought, sold time.Time, qty, buy, sell string) domain.Disposal {
	return domain.Disposal{
		ID:               id,
		AssetClass:       domain.AssetEquityShare,
		Quantity:         dec(qty),
		AcquisitionDate:  bought,
		AcquisitionPrice: dec(buy),
		DisposalDate:     sold,
		DisposalPrice:    dec(sell),
	}
}

// TestLogger records log lines for assertions.
type TestLogger struct {
	mu    sync.Mutex
	Lines []string
}

func (l *TestLogger) add(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Lines = append(l.Lines, level+": "+fmt.Sprintf(format, args...))
}

func (l *TestLogger) Debugf(format string, args ...any) { l.add("DEBUG", format, args...) }
func (l *TestLogger) Infof(format string, args ...any)  { l.add("INFO", format, args...) }
func (l *TestLogger) Warnf(format string, args ...any)  { l.add("WARN", format, args...) }
func (l *TestLogger) Errorf(format string, args ...any) { l.add("ERROR", format, args...) }

func (l *TestLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, line := range l.Lines {
		if len(line) > len(level) && line[:len(level)] == level {
			n++
		}
	}
	return n
}
