package calculation

import (
	"fmt"
	"sort"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/rgehrsitz/taxgo/internal/rules"
	"github.com/shopspring/decimal"
)

// GainBucket groups a head's positive gains that share a treatment and rate.
type GainBucket struct {
	Head      domain.Head      `json:"head"`
	Label     string           `json:"label"`
	Treatment domain.Treatment `json:"treatment"`
	Rate      decimal.Decimal  `json:"rate"`
	Amount    decimal.Decimal  `json:"amount"`
	Exemption decimal.Decimal  `json:"exemption"`
}

// ReturnResult holds every intermediate of a return computation plus the
// next ledger and exemption pool state for the caller to persist.
type ReturnResult struct {
	User          string                       `json:"user"`
	Year          domain.FinancialYear         `json:"year"`
	Election      domain.Election              `json:"election"`
	HouseProperty []HousePropertyIncome        `json:"house_property,omitempty"`
	Gains         []domain.TaxedGain           `json:"gains,omitempty"`
	GainBuckets   []GainBucket                 `json:"gain_buckets,omitempty"`
	OpeningPool   domain.ExemptionPool         `json:"opening_pool"`
	ClosingPool   domain.ExemptionPool         `json:"closing_pool"`
	SetOff        *SetOffResult                `json:"set_off"`
	TDS           []domain.TDSRecord           `json:"tds,omitempty"`
	TDSSummary    TDSSummary                   `json:"tds_summary"`
	Input         ComposeInput                 `json:"-"`
	Comparison    *domain.RegimeComparison     `json:"comparison"`
	Regime        domain.Regime                `json:"regime"`
	Computation   *domain.TaxComputationResult `json:"computation"`
	// Recommendations are payment actions that follow from the balance.
	Recommendations []string `json:"recommendations,omitempty"`
}

// Engine runs the full return pipeline: classify disposals, tax gains, set
// off losses, reconcile TDS and compose liability under both regimes.
type Engine struct {
	Rules      rules.Provider
	Classifier *Classifier
	GainsTax   *GainsTaxCalculator
	SetOff     *SetOffEngine
	Comparator *RegimeComparator
	TDS        *TDSReconciler
	Logger     Logger
}

// NewEngine wires every component to one rule provider.
func NewEngine(provider rules.Provider) *Engine {
	return &Engine{
		Rules:      provider,
		Classifier: NewClassifier(provider),
		GainsTax:   NewGainsTaxCalculator(provider),
		SetOff:     NewSetOffEngine(provider),
		Comparator: NewRegimeComparator(provider),
		TDS:        NewTDSReconciler(),
		Logger:     NopLogger{},
	}
}

// SetLogger sets the logger on the engine and every component; nil restores
// the no-op logger.
func (e *Engine) SetLogger(l Logger) {
	e.Logger = orNop(l)
	e.Classifier.SetLogger(l)
	e.GainsTax.SetLogger(l)
	e.SetOff.SetLogger(l)
	e.Comparator.SetLogger(l)
	e.TDS.SetLogger(l)
}

// Compute runs the pipeline for one return. The return file is not modified.
func (e *Engine) Compute(rf *domain.ReturnFile) (*ReturnResult, error) {
	if rf == nil {
		return nil, fmt.Errorf("return file cannot be nil")
	}
	if !rf.Income.ShortTermCapitalGain.IsZero() || !rf.Income.LongTermCapitalGain.IsZero() {
		return nil, &domain.InputError{
			Field:  "income",
			Reason: "capital gains are derived from disposals and must not be entered directly",
			Err:    domain.ErrInvalidInput,
		}
	}
	if _, err := e.Rules.Year(rf.Year); err != nil {
		return nil, err
	}

	election := rf.Election
	if election == "" {
		election = domain.ElectAuto
	}
	res := &ReturnResult{User: rf.User, Year: rf.Year, Election: election}

	income := rf.Income
	hpTotal, hp, err := TotalHouseProperty(rf.HouseProperties)
	if err != nil {
		return nil, err
	}
	res.HouseProperty = hp
	income.HouseProperty = income.HouseProperty.Add(hpTotal)
	for _, b := range rf.Presumptive {
		profit, err := PresumptiveIncome(b)
		if err != nil {
			return nil, err
		}
		income.Business = income.Business.Add(profit)
	}

	// Capital gains.
	for _, d := range rf.Disposals {
		if !d.DisposalDate.IsZero() && d.Year() != rf.Year {
			return nil, domain.InvalidDisposal(d.ID, fmt.Sprintf("disposed in %s, outside %s", d.Year(), rf.Year))
		}
	}
	classified, err := e.Classifier.ClassifyAll(rf.Disposals)
	if err != nil {
		return nil, err
	}
	pool, err := e.GainsTax.NewPool(rf.Year, rf.ExemptionConsumed)
	if err != nil {
		return nil, err
	}
	res.OpeningPool = pool
	taxed, _, err := e.GainsTax.TaxAll(classified, pool)
	if err != nil {
		return nil, err
	}
	res.Gains = taxed

	buckets, net := buildBuckets(taxed)
	income.ShortTermCapitalGain = net[domain.HeadShortTermCapital]
	income.LongTermCapitalGain = net[domain.HeadLongTermCapital]

	// Set-off.
	so, err := e.SetOff.Apply(SetOffInput{User: rf.User, Year: rf.Year, Income: income, Ledger: rf.Ledger})
	if err != nil {
		return nil, err
	}
	res.SetOff = so

	buckets, err = reduceBuckets(buckets, so.Income)
	if err != nil {
		return nil, err
	}
	res.GainBuckets = buckets
	res.ClosingPool = pool
	for _, b := range buckets {
		res.ClosingPool.Consumed = res.ClosingPool.Consumed.Add(b.Exemption)
	}

	// TDS.
	payments := rf.Payments
	if len(rf.TDS) > 0 {
		records := rf.TDS
		if len(rf.Statement) > 0 {
			records = e.TDS.MatchStatement(records, rf.Statement)
		}
		records = e.TDS.Reconcile(records)
		res.TDS = records
		res.TDSSummary = e.TDS.Summarize(records)
		if !payments.TDS.IsZero() && !payments.TDS.Equal(res.TDSSummary.VerifiedTotal) {
			e.Logger.Warnf("payments.tds %s replaced by verified TDS total %s", payments.TDS, res.TDSSummary.VerifiedTotal)
		}
		payments.TDS = res.TDSSummary.VerifiedTotal
	}

	res.Input = ComposeInput{
		Year:       rf.Year,
		Taxpayer:   rf.Taxpayer,
		Income:     so.Income,
		Deductions: rf.Deductions,
		FlatGains:  FlatGains(buckets),
		Payments:   payments,
	}

	cmp, err := e.Comparator.Compare(res.Input)
	if err != nil {
		return nil, err
	}
	res.Comparison = cmp
	switch election {
	case domain.ElectOld:
		res.Regime = domain.RegimeOld
	case domain.ElectNew:
		res.Regime = domain.RegimeNew
	default:
		res.Regime = cmp.Recommended
	}
	res.Computation = cmp.Result(res.Regime)
	res.Input.Regime = res.Regime
	res.Recommendations = paymentAdvice(rf.Year, res.Computation)

	e.Logger.Infof("%s %s: %s regime, liability %s, balance %s",
		rf.User, rf.Year, res.Regime, res.Computation.TotalLiability, res.Computation.Balance)
	return res, nil
}

// paymentAdvice turns the balance into an action: pay the rest before the
// year closes, or expect a refund.
func paymentAdvice(year domain.FinancialYear, c *domain.TaxComputationResult) []string {
	switch {
	case c.Balance.IsPositive():
		return []string{fmt.Sprintf("Pay the remaining %s as advance tax before 31 March %d to avoid interest under sections 234B and 234C",
			c.Balance.StringFixed(0), int(year)+1)}
	case c.Balance.IsNegative():
		return []string{fmt.Sprintf("Refund of %s due after filing", c.Balance.Neg().StringFixed(0))}
	}
	return nil
}

func gainHead(gt domain.GainType) domain.Head {
	if gt == domain.LongTerm {
		return domain.HeadLongTermCapital
	}
	return domain.HeadShortTermCapital
}

func bucketLabel(head domain.Head, treatment domain.Treatment, rate decimal.Decimal) string {
	name := "STCG"
	if head == domain.HeadLongTermCapital {
		name = "LTCG"
	}
	if treatment == domain.SlabDeferred {
		return name + " (slab)"
	}
	return fmt.Sprintf("%s @ %s%%", name, rate.Mul(hundred).String())
}

// buildBuckets groups positive gains by (head, treatment, rate) and nets each
// head's gains and losses.
func buildBuckets(gains []domain.TaxedGain) ([]GainBucket, map[domain.Head]decimal.Decimal) {
	net := map[domain.Head]decimal.Decimal{
		domain.HeadShortTermCapital: decimal.Zero,
		domain.HeadLongTermCapital:  decimal.Zero,
	}
	index := make(map[string]int)
	var buckets []GainBucket
	for _, g := range gains {
		head := gainHead(g.GainType)
		amount := g.TaxableGain()
		net[head] = net[head].Add(amount)
		if !amount.IsPositive() {
			continue
		}
		label := bucketLabel(head, g.Treatment, g.Rate)
		i, ok := index[label]
		if !ok {
			buckets = append(buckets, GainBucket{
				Head: head, Label: label, Treatment: g.Treatment, Rate: g.Rate,
				Amount: decimal.Zero, Exemption: decimal.Zero,
			})
			i = len(buckets) - 1
			index[label] = i
		}
		buckets[i].Amount = buckets[i].Amount.Add(amount)
		buckets[i].Exemption = buckets[i].Exemption.Add(g.ExemptionApplied)
	}
	return buckets, net
}

// reduceBuckets shrinks each head's buckets to its post set-off income.
// Reductions hit slab-deferred gains first, then flat buckets from the
// highest rate down. A bucket's exemption never exceeds its amount.
func reduceBuckets(buckets []GainBucket, post domain.IncomeProfile) ([]GainBucket, error) {
	out := append([]GainBucket(nil), buckets...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Head != out[j].Head {
			return out[i].Head == domain.HeadShortTermCapital
		}
		if out[i].Treatment != out[j].Treatment {
			return out[i].Treatment == domain.SlabDeferred
		}
		return out[i].Rate.GreaterThan(out[j].Rate)
	})

	for _, head := range []domain.Head{domain.HeadShortTermCapital, domain.HeadLongTermCapital} {
		gross := decimal.Zero
		for _, b := range out {
			if b.Head == head {
				gross = gross.Add(b.Amount)
			}
		}
		reduction := gross.Sub(post.Amount(head))
		if reduction.IsNegative() {
			return nil, fmt.Errorf("%w: %s income %s exceeds gross gains %s", domain.ErrLedgerInconsistency, head, post.Amount(head), gross)
		}
		for i := range out {
			if out[i].Head != head || !reduction.IsPositive() {
				continue
			}
			x := decimal.Min(reduction, out[i].Amount)
			out[i].Amount = out[i].Amount.Sub(x)
			out[i].Exemption = decimal.Min(out[i].Exemption, out[i].Amount)
			reduction = reduction.Sub(x)
		}
	}
	return out, nil
}

// FlatGains converts the flat-taxed buckets into composer input.
func FlatGains(buckets []GainBucket) []domain.FlatGain {
	var out []domain.FlatGain
	for _, b := range buckets {
		if b.Treatment != domain.FlatTaxed || !b.Amount.IsPositive() {
			continue
		}
		out = append(out, domain.FlatGain{Label: b.Label, Rate: b.Rate, Amount: b.Amount, Exemption: b.Exemption})
	}
	return out
}
