package output

// DefaultAssumptions lists the computation conventions rendered in detailed outputs.
var DefaultAssumptions = []string{
	"A tie between regimes is filed under the old regime",
	"Health and education cess: 4% of tax after rebate plus surcharge",
	"Rebate is available against slab tax and flat-rate capital gains tax alike",
	"Marginal relief on surcharge is measured before cess",
	"Carried-forward losses are usable through their expiry year",
	"Listed-equity LTCG allowance is shared across the financial year",
	"Only VERIFIED and CLAIMED TDS records count as tax paid",
}
