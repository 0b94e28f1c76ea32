package cost

import (
	"go.uber.org/zap"

	"github.com/sells-group/bottle-claims/internal/model"
)

// DefaultConversion converts USD rates to THB.
const DefaultConversion = 35.0

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Rates holds the per-model pricing table, the rate for unlisted models and
// the conversion from the rate currency to the reporting currency.
type Rates struct {
	Models     map[string]ModelRate `yaml:"models" mapstructure:"models"`
	Default    ModelRate            `yaml:"default" mapstructure:"default"`
	Conversion float64              `yaml:"conversion" mapstructure:"conversion"`
}

// Breakdown is the cost of one model call.
type Breakdown struct {
	Model      string
	Rate       ModelRate
	InputCost  float64 // converted currency
	OutputCost float64 // converted currency
}

// Total returns the converted input plus output cost.
func (b Breakdown) Total() float64 {
	return b.InputCost + b.OutputCost
}

// Calculator computes costs for vision model usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates. A zero default
// rate becomes 1.00/1.00 and a zero conversion becomes DefaultConversion.
func NewCalculator(rates Rates) *Calculator {
	if rates.Default == (ModelRate{}) {
		rates.Default = ModelRate{Input: 1.00, Output: 1.00}
	}
	if rates.Conversion <= 0 {
		rates.Conversion = DefaultConversion
	}
	return &Calculator{rates: rates}
}

// Conversion returns the currency conversion constant.
func (c *Calculator) Conversion() float64 {
	return c.rates.Conversion
}

// Rate returns the pricing for modelID, or the default rate.
func (c *Calculator) Rate(modelID string) ModelRate {
	if rate, ok := c.rates.Models[modelID]; ok {
		return rate
	}
	return c.rates.Default
}

// Cost prices input and output tokens at modelID's rate in the converted
// currency.
func (c *Calculator) Cost(modelID string, input, output int64) Breakdown {
	rate := c.Rate(modelID)
	return Breakdown{
		Model:      modelID,
		Rate:       rate,
		InputCost:  float64(input) * rate.Input * c.rates.Conversion / 1e6,
		OutputCost: float64(output) * rate.Output * c.rates.Conversion / 1e6,
	}
}

// Totals sums token counts across usages, pricing each at its own model's
// rate.
func (c *Calculator) Totals(usages ...model.TokenUsage) *model.CostTotals {
	t := &model.CostTotals{}
	for _, u := range usages {
		t.TotalInputTokens += u.InputTokens
		t.TotalOutputTokens += u.OutputTokens
		t.TotalCostTHB += c.Cost(u.Model, u.InputTokens, u.OutputTokens).Total()
	}
	t.TotalCostUSD = t.TotalCostTHB / c.rates.Conversion
	return t
}

// Log writes a cost attribution line for one model call.
func (c *Calculator) Log(phase string, u model.TokenUsage) {
	b := c.Cost(u.Model, u.InputTokens, u.OutputTokens)
	zap.L().Info("cost attribution",
		zap.String("model", u.Model),
		zap.String("phase", phase),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Float64("input_cost_thb", b.InputCost),
		zap.Float64("output_cost_thb", b.OutputCost),
		zap.Float64("estimated_cost_usd", b.Total()/c.rates.Conversion),
	)
}

// DefaultRates returns the default pricing rates in USD per million tokens.
func DefaultRates() Rates {
	return Rates{
		Models: map[string]ModelRate{
			"claude-haiku-4-5-20251001":  {Input: 1.00, Output: 5.00},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
			"claude-opus-4-6":            {Input: 15.00, Output: 75.00},
		},
		Default:    ModelRate{Input: 1.00, Output: 1.00},
		Conversion: DefaultConversion,
	}
}
