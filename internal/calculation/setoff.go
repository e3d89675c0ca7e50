package calculation

import (
	"fmt"
	"sort"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/rgehrsitz/taxgo/internal/rules"
	"github.com/shopspring/decimal"
)

// AbsorptionSource says where an absorbed loss came from.
type AbsorptionSource string

const (
	FromCurrentYear    AbsorptionSource = "current_year"
	FromBroughtForward AbsorptionSource = "brought_forward"
)

// Absorption records one loss amount set off against income.
type Absorption struct {
	Source   AbsorptionSource `json:"source"`
	EntryID  string           `json:"entry_id,omitempty"`
	FromHead domain.Head      `json:"from_head"`
	ToHead   domain.Head      `json:"to_head"`
	Amount   decimal.Decimal  `json:"amount"`
}

// ForfeitedLoss is a carry-forward that expired before it was absorbed.
type ForfeitedLoss struct {
	EntryID    string               `json:"entry_id"`
	Head       domain.Head          `json:"head"`
	OriginYear domain.FinancialYear `json:"origin_year"`
	ExpiryYear domain.FinancialYear `json:"expiry_year"`
	Amount     decimal.Decimal      `json:"amount"`
}

// SetOffInput is one year's net result per head plus the user's ledger.
type SetOffInput struct {
	User   string
	Year   domain.FinancialYear
	Income domain.IncomeProfile
	Ledger domain.LossLedger
}

// SetOffResult is the post set-off income and the next ledger state.
type SetOffResult struct {
	Year            domain.FinancialYear     `json:"year"`
	Income          domain.IncomeProfile     `json:"income"`
	Ledger          domain.LossLedger        `json:"ledger"`
	NewCarryForward []domain.LossLedgerEntry `json:"new_carry_forward"`
	Forfeited       []ForfeitedLoss          `json:"forfeited"`
	Absorptions     []Absorption             `json:"absorptions"`
}

// TotalForfeited sums the forfeited amounts.
func (r *SetOffResult) TotalForfeited() decimal.Decimal {
	total := decimal.Zero
	for _, f := range r.Forfeited {
		total = total.Add(f.Amount)
	}
	return total
}

// TotalCarriedForward sums the new carry-forward entries.
func (r *SetOffResult) TotalCarriedForward() decimal.Decimal {
	total := decimal.Zero
	for _, e := range r.NewCarryForward {
		total = total.Add(e.OriginalAmount)
	}
	return total
}

// AbsorbedFrom sums brought-forward absorptions of one ledger entry.
func (r *SetOffResult) AbsorbedFrom(entryID string) decimal.Decimal {
	total := decimal.Zero
	for _, a := range r.Absorptions {
		if a.Source == FromBroughtForward && a.EntryID == entryID {
			total = total.Add(a.Amount)
		}
	}
	return total
}

// Heads a brought-forward loss may be absorbed against, in order.
var broughtForwardTargets = map[domain.Head][]domain.Head{
	domain.HeadHouseProperty:    {domain.HeadHouseProperty},
	domain.HeadBusiness:         {domain.HeadBusiness, domain.HeadSpeculative},
	domain.HeadSpeculative:      {domain.HeadSpeculative},
	domain.HeadShortTermCapital: {domain.HeadShortTermCapital, domain.HeadLongTermCapital},
	domain.HeadLongTermCapital:  {domain.HeadLongTermCapital},
}

// Heads a current-year loss may cross into, in order. Capital and
// speculative losses never leave their own head.
var (
	housePropertyTargets = []domain.Head{
		domain.HeadSalary, domain.HeadBusiness, domain.HeadSpeculative,
		domain.HeadOtherSources, domain.HeadShortTermCapital, domain.HeadLongTermCapital,
	}
	businessTargets = []domain.Head{
		domain.HeadHouseProperty, domain.HeadOtherSources,
		domain.HeadShortTermCapital, domain.HeadLongTermCapital,
	}
)

// SetOffEngine applies set-off ordering and maintains the carry-forward ledger.
type SetOffEngine struct {
	Rules  rules.Provider
	Logger Logger
}

// NewSetOffEngine creates a set-off engine backed by a rule provider.
func NewSetOffEngine(provider rules.Provider) *SetOffEngine {
	return &SetOffEngine{Rules: provider, Logger: NopLogger{}}
}

// SetLogger sets the logger; nil restores the no-op logger.
func (e *SetOffEngine) SetLogger(l Logger) {
	e.Logger = orNop(l)
}

// setOffRun carries the working state of one Apply call.
type setOffRun struct {
	income      map[domain.Head]decimal.Decimal
	absorptions []Absorption
}

func (r *setOffRun) positive(h domain.Head) decimal.Decimal {
	return decimal.Max(r.income[h], decimal.Zero)
}

// offset moves up to avail of a current-year loss in from against targets and
// returns the amount used.
func (r *setOffRun) offset(avail decimal.Decimal, from domain.Head, targets []domain.Head) decimal.Decimal {
	used := decimal.Zero
	for _, to := range targets {
		if !avail.IsPositive() {
			break
		}
		x := decimal.Min(avail, r.positive(to))
		if !x.IsPositive() {
			continue
		}
		r.income[to] = r.income[to].Sub(x)
		avail = avail.Sub(x)
		used = used.Add(x)
		r.absorptions = append(r.absorptions, Absorption{Source: FromCurrentYear, FromHead: from, ToHead: to, Amount: x})
	}
	return used
}

// Apply runs, in order: intra-head set-off, expiry of stale carry-forwards,
// brought-forward absorption, inter-head set-off, and creation of new
// carry-forward entries. The input ledger is not modified.
func (e *SetOffEngine) Apply(in SetOffInput) (*SetOffResult, error) {
	if in.Income.Salary.IsNegative() {
		return nil, domain.NegativeInput("income.salary")
	}
	if in.Income.OtherSources.IsNegative() {
		return nil, domain.NegativeInput("income.other_sources")
	}
	yr, err := e.Rules.Year(in.Year)
	if err != nil {
		return nil, err
	}

	// Entries originating in this year come from an earlier run of this
	// same computation and are rebuilt below.
	var ledger domain.LossLedger
	for _, entry := range in.Ledger {
		if err := entry.Validate(); err != nil {
			return nil, err
		}
		if entry.OriginYear == in.Year {
			e.Logger.Debugf("dropping %s carry-forward %s from a previous run of %s", entry.Head, entry.ID, in.Year)
			continue
		}
		ledger = append(ledger, entry)
	}

	run := &setOffRun{income: make(map[domain.Head]decimal.Decimal, len(domain.Heads))}
	for _, h := range domain.Heads {
		run.income[h] = in.Income.Amount(h)
	}

	// Intra-head: short-term capital loss against long-term gains, and
	// non-speculative business loss against speculative profit.
	if st := run.income[domain.HeadShortTermCapital]; st.IsNegative() {
		used := run.offset(st.Neg(), domain.HeadShortTermCapital, []domain.Head{domain.HeadLongTermCapital})
		run.income[domain.HeadShortTermCapital] = st.Add(used)
	}
	if biz := run.income[domain.HeadBusiness]; biz.IsNegative() {
		used := run.offset(biz.Neg(), domain.HeadBusiness, []domain.Head{domain.HeadSpeculative})
		run.income[domain.HeadBusiness] = biz.Add(used)
	}

	result := &SetOffResult{Year: in.Year}

	// Expiry.
	for i := range ledger {
		entry := &ledger[i]
		if entry.Remaining.IsPositive() && entry.Expired(in.Year) {
			result.Forfeited = append(result.Forfeited, ForfeitedLoss{
				EntryID:    entry.ID,
				Head:       entry.Head,
				OriginYear: entry.OriginYear,
				ExpiryYear: entry.ExpiryYear,
				Amount:     entry.Remaining,
			})
			e.Logger.Warnf("carry-forward %s (%s, %s) expired in %s: %s forfeited",
				entry.ID, entry.Head, entry.OriginYear, entry.ExpiryYear, entry.Remaining)
			entry.ForfeitedAmount = entry.ForfeitedAmount.Add(entry.Remaining)
			entry.Remaining = decimal.Zero
		}
	}

	// Brought-forward absorption, oldest expiry first.
	order := make([]int, 0, len(ledger))
	for i, entry := range ledger {
		if entry.Active(in.Year) && entry.OriginYear < in.Year {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		x, y := ledger[order[a]], ledger[order[b]]
		if x.ExpiryYear != y.ExpiryYear {
			return x.ExpiryYear < y.ExpiryYear
		}
		if x.OriginYear != y.OriginYear {
			return x.OriginYear < y.OriginYear
		}
		return x.ID < y.ID
	})
	for _, i := range order {
		entry := &ledger[i]
		for _, to := range broughtForwardTargets[entry.Head] {
			x := decimal.Min(entry.Remaining, run.positive(to))
			if !x.IsPositive() {
				continue
			}
			if x.GreaterThan(entry.Remaining) {
				return nil, fmt.Errorf("%w: absorbing %s from entry %s with %s remaining",
					domain.ErrLedgerInconsistency, x, entry.ID, entry.Remaining)
			}
			entry.Remaining = entry.Remaining.Sub(x)
			run.income[to] = run.income[to].Sub(x)
			run.absorptions = append(run.absorptions, Absorption{
				Source: FromBroughtForward, EntryID: entry.ID, FromHead: entry.Head, ToHead: to, Amount: x,
			})
		}
	}

	// Inter-head, current year.
	if hp := run.income[domain.HeadHouseProperty]; hp.IsNegative() {
		avail := decimal.Min(hp.Neg(), yr.SetOff.HousePropertyCap)
		used := run.offset(avail, domain.HeadHouseProperty, housePropertyTargets)
		run.income[domain.HeadHouseProperty] = hp.Add(used)
	}
	if biz := run.income[domain.HeadBusiness]; biz.IsNegative() {
		used := run.offset(biz.Neg(), domain.HeadBusiness, businessTargets)
		run.income[domain.HeadBusiness] = biz.Add(used)
	}

	// New carry-forward.
	for _, h := range domain.LossHeads {
		amount := run.income[h]
		if !amount.IsNegative() {
			continue
		}
		window, err := yr.SetOff.WindowFor(h)
		if err != nil {
			return nil, err
		}
		entry := domain.LossLedgerEntry{
			ID:             domain.LedgerEntryID(in.User, h, in.Year),
			Head:           h,
			OriginYear:     in.Year,
			ExpiryYear:     in.Year + domain.FinancialYear(window),
			OriginalAmount: amount.Neg(),
			Remaining:      amount.Neg(),
		}
		ledger = upsertEntry(ledger, entry)
		result.NewCarryForward = append(result.NewCarryForward, entry)
		run.income[h] = decimal.Zero
		e.Logger.Infof("carrying forward %s %s loss from %s until %s", entry.OriginalAmount, h, in.Year, entry.ExpiryYear)
	}

	for _, entry := range ledger {
		if entry.Remaining.IsNegative() {
			return nil, fmt.Errorf("%w: entry %s ended negative", domain.ErrLedgerInconsistency, entry.ID)
		}
	}

	post := domain.IncomeProfile{}
	for _, h := range domain.Heads {
		post = post.With(h, run.income[h])
	}
	result.Income = post
	result.Ledger = ledger
	result.Absorptions = run.absorptions
	return result, nil
}

// upsertEntry replaces an entry with the same ID or appends it.
func upsertEntry(ledger domain.LossLedger, entry domain.LossLedgerEntry) domain.LossLedger {
	for i := range ledger {
		if ledger[i].ID == entry.ID {
			ledger[i] = entry
			return ledger
		}
	}
	return append(ledger, entry)
}
