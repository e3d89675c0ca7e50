package calculation

import (
	"fmt"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	presumptiveRate44AD        = decimal.NewFromFloat(0.08)
	presumptiveRate44ADDigital = decimal.NewFromFloat(0.06)
	presumptiveRate44ADA       = decimal.NewFromFloat(0.50)
	presumptive44AEPerMonth    = decimal.NewFromInt(7500)
)

// PresumptiveIncome computes business profit for one business. For 44AD,
// digital receipts are part of turnover and are deemed at the lower rate.
// Only the normal scheme can produce a loss.
func PresumptiveIncome(b domain.PresumptiveBusiness) (decimal.Decimal, error) {
	if b.Turnover.IsNegative() || b.DigitalReceipts.IsNegative() {
		return decimal.Zero, domain.NegativeInput(fmt.Sprintf("presumptive_business[%s]", b.Label))
	}
	switch b.Scheme {
	case domain.SchemeNormal:
		if err := b.Expenses.Validate(); err != nil {
			return decimal.Zero, fmt.Errorf("presumptive_business[%s]: %w", b.Label, err)
		}
		return round2(b.Turnover.Sub(b.Expenses.Total())), nil
	case domain.Scheme44AD:
		if b.DigitalReceipts.GreaterThan(b.Turnover) {
			return decimal.Zero, &domain.InputError{
				Field:  fmt.Sprintf("presumptive_business[%s].digital_receipts", b.Label),
				Reason: "digital receipts exceed turnover",
				Err:    domain.ErrInvalidInput,
			}
		}
		cash := b.Turnover.Sub(b.DigitalReceipts)
		return round2(cash.Mul(presumptiveRate44AD).Add(b.DigitalReceipts.Mul(presumptiveRate44ADDigital))), nil
	case domain.Scheme44ADA:
		return round2(b.Turnover.Mul(presumptiveRate44ADA)), nil
	case domain.Scheme44AE:
		if b.VehicleMonths < 0 {
			return decimal.Zero, domain.NegativeInput(fmt.Sprintf("presumptive_business[%s].vehicle_months", b.Label))
		}
		return presumptive44AEPerMonth.Mul(decimal.NewFromInt(int64(b.VehicleMonths))), nil
	default:
		return decimal.Zero, &domain.InputError{
			Field:  fmt.Sprintf("presumptive_business[%s].scheme", b.Label),
			Reason: fmt.Sprintf("unknown scheme %q", b.Scheme),
			Err:    domain.ErrInvalidInput,
		}
	}
}
