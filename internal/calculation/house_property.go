package calculation

import (
	"fmt"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	// housePropertyStandardRate is the flat allowance on net annual value.
	housePropertyStandardRate = decimal.NewFromFloat(0.30)
	// selfOccupiedInterestCap limits interest claimable on a self-occupied home.
	selfOccupiedInterestCap = decimal.NewFromInt(200000)
)

// HousePropertyIncome is the computed result for one property.
type HousePropertyIncome struct {
	Label             string          `json:"label"`
	NetAnnualValue    decimal.Decimal `json:"net_annual_value"`
	StandardDeduction decimal.Decimal `json:"standard_deduction"`
	InterestAllowed   decimal.Decimal `json:"interest_allowed"`
	Income            decimal.Decimal `json:"income"` // negative is a loss
}

// ComputeHouseProperty nets rent, municipal taxes, the 30% allowance and loan
// interest. A self-occupied property has no annual value, so its result is
// the (capped) interest as a loss.
func ComputeHouseProperty(p domain.HouseProperty) (HousePropertyIncome, error) {
	if p.AnnualRent.IsNegative() || p.MunicipalTaxes.IsNegative() || p.LoanInterest.IsNegative() {
		return HousePropertyIncome{}, domain.NegativeInput(fmt.Sprintf("house_properties[%s]", p.Label))
	}
	res := HousePropertyIncome{Label: p.Label}

	switch p.Use {
	case domain.SelfOccupied:
		res.NetAnnualValue = decimal.Zero
		res.StandardDeduction = decimal.Zero
		res.InterestAllowed = decimal.Min(p.LoanInterest, selfOccupiedInterestCap)
	case domain.LetOut, "":
		nav := decimal.Max(p.AnnualRent.Sub(p.MunicipalTaxes), decimal.Zero)
		res.NetAnnualValue = nav
		res.StandardDeduction = round2(nav.Mul(housePropertyStandardRate))
		res.InterestAllowed = p.LoanInterest
	default:
		return HousePropertyIncome{}, &domain.InputError{
			Field:  fmt.Sprintf("house_properties[%s].use", p.Label),
			Reason: fmt.Sprintf("unknown property use %q", p.Use),
			Err:    domain.ErrInvalidInput,
		}
	}
	res.Income = res.NetAnnualValue.Sub(res.StandardDeduction).Sub(res.InterestAllowed)
	return res, nil
}

// TotalHouseProperty sums every property into the head amount.
func TotalHouseProperty(props []domain.HouseProperty) (decimal.Decimal, []HousePropertyIncome, error) {
	total := decimal.Zero
	out := make([]HousePropertyIncome, 0, len(props))
	for _, p := range props {
		r, err := ComputeHouseProperty(p)
		if err != nil {
			return decimal.Zero, nil, err
		}
		total = total.Add(r.Income)
		out = append(out, r)
	}
	return total, out, nil
}
