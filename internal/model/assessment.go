package model

// Fixed bilingual messages returned without calling the vision model.
const (
	IneligibleClaimEnglish = "This bottle is not eligible for claim assessment as it exceeds the 120-day production limit."
	IneligibleClaimThai    = "ขวดนี้ไม่มีสิทธิ์ได้รับการประเมินการเคลมเนื่องจากเกินกำหนด 120 วันหลังจากวันผลิต"

	UnavailableEnglish = "Analysis service is currently unavailable due to configuration issues."
	UnavailableThai    = "บริการวิเคราะห์ไม่พร้อมใช้งานในขณะนี้เนื่องจากปัญหาการกำหนดค่า"
)

// Bilingual is the english/thai pair produced by the damage classifier.
type Bilingual struct {
	English string `json:"english"`
	Thai    string `json:"thai"`
}

// CostTotals aggregates token counts and cost across both flows.
type CostTotals struct {
	TotalInputTokens  int64   `json:"total_input_tokens"`
	TotalOutputTokens int64   `json:"total_output_tokens"`
	TotalCostTHB      float64 `json:"total_cost_thb"`
	TotalCostUSD      float64 `json:"total_cost_usd"`
}

// ClaimAssessment is the response of the damage assessment flow.
type ClaimAssessment struct {
	English      string `json:"english"`
	Thai         string `json:"thai"`
	LabelDate    string `json:"label_date,omitempty"`
	Model        string `json:"model,omitempty"`
	InputTokens  int64  `json:"input_tokens,omitempty"`
	OutputTokens int64  `json:"output_tokens,omitempty"`

	Video            *VideoDescriptor   `json:"video,omitempty"`
	DateVerification *PriorVerification `json:"date_verification,omitempty"`

	*CostTotals

	// Parsed is false when the model output could not be parsed and the raw
	// text was passed through as both languages.
	Parsed bool `json:"-"`
	// Inferred is false when no model call was made.
	Inferred bool `json:"-"`
}

// Usage returns the token usage of the damage assessment call.
func (a *ClaimAssessment) Usage() TokenUsage {
	return NewTokenUsage(a.Model, a.InputTokens, a.OutputTokens)
}
