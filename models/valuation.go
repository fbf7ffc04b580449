package models

// ValuationModel identifies one of the fair-value methodologies.
type ValuationModel string

const (
	ValuationModelDCF    ValuationModel = "dcf"
	ValuationModelPE     ValuationModel = "pe"
	ValuationModelDDM    ValuationModel = "ddm"
	ValuationModelPB     ValuationModel = "pb"
	ValuationModelGraham ValuationModel = "graham"
)

// AllValuationModels lists the models in presentation order.
var AllValuationModels = []ValuationModel{
	ValuationModelDCF,
	ValuationModelPE,
	ValuationModelDDM,
	ValuationModelPB,
	ValuationModelGraham,
}

// Assumptions records the rates a model was computed with, so a result
// can be reproduced from its own output.
type Assumptions struct {
	DiscountRate       float64 `json:"discount_rate,omitempty"`
	GrowthRate         float64 `json:"growth_rate,omitempty"`
	TerminalGrowthRate float64 `json:"terminal_growth_rate,omitempty"`
	ReferenceMultiple  float64 `json:"reference_multiple,omitempty"`
	ProjectionYears    int     `json:"projection_years,omitempty"`
}

// ValuationEstimate is the output of a single valuation model.
// FairValue is meaningful only when Applicable is true; otherwise
// Reason explains why the model's preconditions did not hold.
type ValuationEstimate struct {
	Model       ValuationModel `json:"model"`
	FairValue   float64        `json:"fair_value"`
	Applicable  bool           `json:"applicable"`
	Reason      string         `json:"reason,omitempty"`
	Assumptions Assumptions    `json:"assumptions"`
}

// BlendedValuation aggregates the applicable estimates.
type BlendedValuation struct {
	FairValue  float64 `json:"fair_value"` // arithmetic mean of applicable estimates
	Spread     float64 `json:"spread"`     // max - min among applicable estimates
	SpreadPct  float64 `json:"spread_pct"` // spread relative to the mean
	ModelCount int     `json:"model_count"`
}

// Upside returns the fractional distance from price to blended fair
// value, e.g. 0.25 for 25% upside. Zero when no models applied or the
// price is not positive.
func (b BlendedValuation) Upside(price float64) float64 {
	if b.ModelCount == 0 || price <= 0 {
		return 0
	}
	return (b.FairValue - price) / price
}
