package model

import (
	"encoding/json"
	"strings"
)

// ExtractionStatus is the outcome of reading a production date off a label.
type ExtractionStatus string

const (
	ExtractionSuccess ExtractionStatus = "SUCCESS"
	ExtractionError   ExtractionStatus = "ERROR"
)

// DateExtraction is the result of one date-extraction model call.
type DateExtraction struct {
	Status         ExtractionStatus `json:"status"`
	ProductionDate *string          `json:"production_date"`
	Error          string           `json:"error,omitempty"`
	Usage          TokenUsage       `json:"token_usage"`
}

// EligibilityStatus is the outcome of the production-date window check.
type EligibilityStatus string

const (
	Eligible         EligibilityStatus = "ELIGIBLE"
	Ineligible       EligibilityStatus = "INELIGIBLE"
	EligibilityError EligibilityStatus = "ERROR"
)

// Thai returns the Thai label for a status.
func (s EligibilityStatus) Thai() string {
	switch s {
	case Eligible:
		return "มีสิทธิ์"
	case Ineligible:
		return "ไม่มีสิทธิ์"
	default:
		return "ข้อผิดพลาด"
	}
}

// EligibilityResult is derived from a production date and the current time.
type EligibilityResult struct {
	Status         EligibilityStatus
	ProductionDate string
	DaysElapsed    *int
	MaxAllowedDays int
	Message        string
	MessageThai    string
}

// VerificationSection is one language block of a date verification response.
type VerificationSection struct {
	Status         string  `json:"status"`
	ProductionDate *string `json:"production_date"`
	DaysElapsed    *int    `json:"days_elapsed"`
	MaxAllowedDays int     `json:"max_allowed_days,omitempty"`
	Message        string  `json:"message"`
}

// DateVerification is the bilingual response of the date verification flow.
type DateVerification struct {
	English       VerificationSection `json:"english"`
	Thai          VerificationSection `json:"thai"`
	TokenUsage    TokenUsage          `json:"token_usage"`
	InputCostTHB  float64             `json:"input_cost_thb"`
	OutputCostTHB float64             `json:"output_cost_thb"`
}

// Sections renders an eligibility result as its English and Thai blocks.
func (r EligibilityResult) Sections() (VerificationSection, VerificationSection) {
	var date *string
	if r.ProductionDate != "" {
		d := r.ProductionDate
		date = &d
	}
	en := VerificationSection{
		Status:         string(r.Status),
		ProductionDate: date,
		DaysElapsed:    r.DaysElapsed,
		MaxAllowedDays: r.MaxAllowedDays,
		Message:        r.Message,
	}
	th := en
	th.Status = r.Status.Thai()
	th.Message = r.MessageThai
	return en, th
}

// PriorVerification is a date verification result posted back by the caller
// alongside a claim. The raw document is echoed unchanged in the response.
type PriorVerification struct {
	Raw    json.RawMessage
	Status EligibilityStatus
	Usage  TokenUsage
}

// MarshalJSON echoes the document as received.
func (p PriorVerification) MarshalJSON() ([]byte, error) {
	if len(p.Raw) == 0 {
		return []byte("null"), nil
	}
	return p.Raw, nil
}

// IsIneligible reports whether the prior verification disqualified the item.
func (p *PriorVerification) IsIneligible() bool {
	return p != nil && p.Status == Ineligible
}

// ParsePriorVerification decodes the optional date_verification form value.
// An empty value yields nil.
func ParsePriorVerification(raw string) (*PriorVerification, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil
	}

	var doc struct {
		English struct {
			Status string `json:"status"`
		} `json:"english"`
		TokenUsage TokenUsage `json:"token_usage"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, NewError(KindInvalidRequest, "Invalid JSON format for date_verification")
	}
	if u := doc.TokenUsage; u.InputTokens < 0 || u.OutputTokens < 0 || u.TotalTokens < 0 {
		return nil, NewError(KindInvalidRequest, "Token counts in date_verification must not be negative")
	}

	return &PriorVerification{
		Raw:    json.RawMessage(raw),
		Status: EligibilityStatus(doc.English.Status),
		Usage:  doc.TokenUsage,
	}, nil
}
