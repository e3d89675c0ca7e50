package calculation

import (
	"testing"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classify(t *testing.T, disposals ...domain.Disposal) []domain.ClassifiedGain {
	t.Helper()
	gains, err := NewClassifier(builtin()).ClassifyAll(disposals)
	require.NoError(t, err)
	return gains
}

func TestGainsTax_ExemptionPartiallyConsumed(t *testing.T) {
	g := NewGainsTaxCalculator(builtin())
	pool, err := g.NewPool(2024, dec("80000"))
	require.NoError(t, err)

	gains := classify(t, equityDisposal("lt", date(2022, 4, 1), date(2024, 7, 1), "100", "1000", "2500"))
	taxed, next, err := g.Tax(gains[0], pool)
	require.NoError(t, err)

	assert.Equal(t, domain.FlatTaxed, taxed.Treatment)
	assertDecimal(t, "20000", taxed.ExemptionApplied)
	assertDecimal(t, "130000", taxed.TaxableAmount)
	assertDecimal(t, "13000", taxed.Tax)
	assertDecimal(t, "100000", next.Consumed)
	assertDecimal(t, "0", next.Remaining())
	assertDecimal(t, "80000", pool.Consumed, "input pool must not change")
}

func TestGainsTax_Treatments(t *testing.T) {
	g := NewGainsTaxCalculator(builtin())
	tests := []struct {
		name      string
		disposal  domain.Disposal
		treatment domain.Treatment
		taxable   string
		tax       string
	}{
		{
			name:      "equity short term at 15%",
			disposal:  equityDisposal("st", date(2024, 1, 1), date(2024, 6, 1), "10", "100", "200"),
			treatment: domain.FlatTaxed,
			taxable:   "1000",
			tax:       "150",
		},
		{
			name: "debt short term deferred to slabs",
			disposal: domain.Disposal{
				ID: "debt", AssetClass: domain.AssetDebtFund, Quantity: dec("1"),
				AcquisitionDate: date(2023, 1, 1), AcquisitionPrice: dec("1000"),
				DisposalDate: date(2024, 6, 1), DisposalPrice: dec("1500"),
			},
			treatment: domain.SlabDeferred,
			taxable:   "500",
			tax:       "0",
		},
		{
			name: "indexed long term at 20%",
			disposal: domain.Disposal{
				ID: "gold", AssetClass: domain.AssetGold, Quantity: dec("1"),
				AcquisitionDate: date(2019, 6, 1), AcquisitionPrice: dec("100000"),
				DisposalDate: date(2024, 8, 1), DisposalPrice: dec("200000"),
			},
			treatment: domain.FlatTaxed,
			taxable:   "74394.46",
			tax:       "14878.89",
		},
		{
			name:      "loss carries no tax",
			disposal:  equityDisposal("loss", date(2022, 1, 1), date(2024, 6, 1), "10", "200", "100"),
			treatment: domain.FlatTaxed,
			taxable:   "0",
			tax:       "0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := g.NewPool(2024, decimal.Zero)
			require.NoError(t, err)
			taxed, _, err := g.Tax(classify(t, tt.disposal)[0], pool)
			require.NoError(t, err)
			assert.Equal(t, tt.treatment, taxed.Treatment)
			assertDecimal(t, tt.taxable, taxed.TaxableAmount)
			assertDecimal(t, tt.tax, taxed.Tax)
		})
	}
}

func TestGainsTax_OrderIndependent(t *testing.T) {
	g := NewGainsTaxCalculator(builtin())
	first := equityDisposal("may", date(2022, 1, 1), date(2024, 5, 1), "100", "1000", "1600")
	second := equityDisposal("sep", date(2022, 1, 1), date(2024, 9, 1), "100", "1000", "1700")

	run := func(order ...domain.Disposal) map[string]domain.TaxedGain {
		gains := make([]domain.ClassifiedGain, 0, len(order))
		c := NewClassifier(builtin())
		for _, d := range order {
			cg, err := c.Classify(d)
			require.NoError(t, err)
			gains = append(gains, cg)
		}
		pool, err := g.NewPool(2024, decimal.Zero)
		require.NoError(t, err)
		taxed, final, err := g.TaxAll(gains, pool)
		require.NoError(t, err)
		assertDecimal(t, "100000", final.Consumed)
		out := make(map[string]domain.TaxedGain)
		for _, tg := range taxed {
			out[tg.Disposal.ID] = tg
		}
		return out
	}

	forward := run(first, second)
	backward := run(second, first)
	for _, id := range []string{"may", "sep"} {
		assert.True(t, forward[id].Tax.Equal(backward[id].Tax), "tax for %s depends on input order", id)
	}
	assertDecimal(t, "60000", forward["may"].ExemptionApplied)
	assertDecimal(t, "40000", forward["sep"].ExemptionApplied)
	assertDecimal(t, "3000", forward["sep"].Tax)
}

func TestGainsTax_PoolYearMismatch(t *testing.T) {
	g := NewGainsTaxCalculator(builtin())
	pool, err := g.NewPool(2023, decimal.Zero)
	require.NoError(t, err)
	_, _, err = g.Tax(classify(t, equityDisposal("x", date(2022, 1, 1), date(2024, 6, 1), "1", "1", "2"))[0], pool)
	assert.ErrorIs(t, err, domain.ErrUnsupportedYear)
}

func TestGainsTax_NegativeConsumed(t *testing.T) {
	_, err := NewGainsTaxCalculator(builtin()).NewPool(2024, dec("-1"))
	assert.ErrorIs(t, err, domain.ErrNegativeInput)
}

func TestTotalFlatTax(t *testing.T) {
	gains := []domain.TaxedGain{
		{Treatment: domain.FlatTaxed, Tax: dec("100")},
		{Treatment: domain.SlabDeferred, Tax: dec("0")},
		{Treatment: domain.FlatTaxed, Tax: dec("50.5")},
	}
	assertDecimal(t, "150.5", TotalFlatTax(gains))
}
