package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bottle-claims/internal/model"
)

func testRates() Rates {
	return Rates{
		Models: map[string]ModelRate{
			"vision": {Input: 2.00, Output: 8.00},
			"label":  {Input: 0.50, Output: 1.50},
		},
		Conversion: 35.0,
	}
}

func TestCost(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		name       string
		model      string
		input      int64
		output     int64
		wantInput  float64
		wantOutput float64
	}{
		{"listed model", "vision", 1000, 500, 0.07, 0.14},
		{"unlisted model uses default", "mystery", 1_000_000, 2_000_000, 35.0, 70.0},
		{"zero tokens", "vision", 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := calc.Cost(tt.model, tt.input, tt.output)
			assert.InDelta(t, tt.wantInput, b.InputCost, 1e-9)
			assert.InDelta(t, tt.wantOutput, b.OutputCost, 1e-9)
			assert.InDelta(t, tt.wantInput+tt.wantOutput, b.Total(), 1e-9)
		})
	}
}

func TestRate_Default(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(Rates{})

	assert.Equal(t, ModelRate{Input: 1.00, Output: 1.00}, calc.Rate("anything"))
	assert.InDelta(t, DefaultConversion, calc.Conversion(), 1e-9)
}

func TestTotals_PricesEachFlowAtItsModel(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	totals := calc.Totals(
		model.NewTokenUsage("vision", 1000, 500),
		model.NewTokenUsage("label", 2000, 100),
	)
	require.NotNil(t, totals)
	assert.Equal(t, int64(3000), totals.TotalInputTokens)
	assert.Equal(t, int64(600), totals.TotalOutputTokens)

	// vision: 0.07 + 0.14; label: 2000*0.5*35/1e6 + 100*1.5*35/1e6
	want := 0.07 + 0.14 + 0.035 + 0.00525
	assert.InDelta(t, want, totals.TotalCostTHB, 1e-9)
	assert.InDelta(t, want/35.0, totals.TotalCostUSD, 1e-12)
}

func TestTotals_Empty(t *testing.T) {
	t.Parallel()
	totals := NewCalculator(testRates()).Totals()
	assert.Zero(t, totals.TotalInputTokens)
	assert.Zero(t, totals.TotalCostUSD)
}

func TestDefaultRates(t *testing.T) {
	t.Parallel()
	rates := DefaultRates()
	assert.Contains(t, rates.Models, "claude-sonnet-4-5-20250929")
	assert.Contains(t, rates.Models, "claude-haiku-4-5-20251001")
	assert.InDelta(t, 35.0, rates.Conversion, 1e-9)
}
