package model

// Evidence is one base64 encoded image submitted to the vision model.
type Evidence struct {
	MediaType string
	Data      string
}

// EvidenceSet is the ordered collection of images for one assessment.
// Order is chronological for sampled video frames and input order for uploads.
type EvidenceSet []Evidence

// TokenUsage is the token accounting for one or more model calls.
type TokenUsage struct {
	Model        string `json:"model,omitempty"`
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
	TotalTokens  int64  `json:"total_tokens"`
}

// NewTokenUsage fills in the total from input and output counts.
func NewTokenUsage(model string, input, output int64) TokenUsage {
	return TokenUsage{
		Model:        model,
		InputTokens:  input,
		OutputTokens: output,
		TotalTokens:  input + output,
	}
}
