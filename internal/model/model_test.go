package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesUpload_ReadAll(t *testing.T) {
	t.Parallel()

	item := BytesUpload("a.jpg", "image/jpeg", []byte("hello"))
	assert.Equal(t, int64(5), item.Size)

	data, err := item.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	// Each read opens a fresh reader.
	data, err = item.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestUploadItem_NoContent(t *testing.T) {
	t.Parallel()

	_, err := UploadItem{Filename: "x.png"}.ReadAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no content")
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{5.9, "0:05"},
		{61, "1:01"},
		{600.2, "10:00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatDuration(tt.seconds))
		})
	}
}

func TestVideoDescriptor_SetDuration(t *testing.T) {
	t.Parallel()

	v := NewVideoDescriptor(UploadItem{MediaType: "video/mp4", Size: 10}, "/tmp/x.mp4")
	assert.Equal(t, "unknown_video", v.Filename)
	assert.Equal(t, "Unknown", v.Duration)

	v.SetDuration(-1)
	assert.Equal(t, "Unknown", v.Duration)

	v.SetDuration(75.5)
	assert.Equal(t, "1:15", v.Duration)
	assert.InDelta(t, 75.5, v.DurationSeconds, 0.0001)
}

func TestEligibilityResult_Sections(t *testing.T) {
	t.Parallel()

	days := 10
	r := EligibilityResult{
		Status:         Ineligible,
		ProductionDate: "01/01/2025",
		DaysElapsed:    &days,
		MaxAllowedDays: 120,
		Message:        "en",
		MessageThai:    "th",
	}
	en, th := r.Sections()
	assert.Equal(t, "INELIGIBLE", en.Status)
	assert.Equal(t, "ไม่มีสิทธิ์", th.Status)
	assert.Equal(t, "en", en.Message)
	assert.Equal(t, "th", th.Message)
	require.NotNil(t, th.ProductionDate)
	assert.Equal(t, "01/01/2025", *th.ProductionDate)
	assert.Equal(t, 10, *en.DaysElapsed)
}

func TestParsePriorVerification(t *testing.T) {
	t.Parallel()

	p, err := ParsePriorVerification("")
	require.NoError(t, err)
	assert.Nil(t, p)

	raw := `{"english":{"status":"INELIGIBLE"},"token_usage":{"input_tokens":100,"output_tokens":20,"model":"m"}}`
	p, err = ParsePriorVerification(raw)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.IsIneligible())
	assert.Equal(t, int64(100), p.Usage.InputTokens)
	assert.Equal(t, int64(20), p.Usage.OutputTokens)
	assert.Equal(t, "m", p.Usage.Model)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))

	_, err = ParsePriorVerification("{not json")
	require.Error(t, err)
	assert.Equal(t, KindInvalidRequest, KindOf(err))
}

func TestParsePriorVerification_NegativeTokens(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		`{"token_usage":{"input_tokens":-5000000,"output_tokens":20}}`,
		`{"token_usage":{"input_tokens":10,"output_tokens":-1}}`,
		`{"token_usage":{"input_tokens":10,"output_tokens":1,"total_tokens":-11}}`,
	} {
		p, err := ParsePriorVerification(raw)
		require.Error(t, err, raw)
		assert.Nil(t, p)
		assert.Equal(t, KindInvalidRequest, KindOf(err))
		assert.Equal(t, 400, AsError(err).Status)
	}
}

func TestClaimAssessment_OmitsTotalsWhenNil(t *testing.T) {
	t.Parallel()

	out, err := json.Marshal(ClaimAssessment{English: "e", Thai: "t"})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "total_cost_thb")

	out, err = json.Marshal(ClaimAssessment{English: "e", Thai: "t", CostTotals: &CostTotals{TotalInputTokens: 3}})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"total_input_tokens":3`)
}

func TestError_Classification(t *testing.T) {
	t.Parallel()

	e := NewError(KindPayloadTooLarge, "too big")
	assert.Equal(t, http.StatusRequestEntityTooLarge, e.Status)
	assert.NotEmpty(t, e.Thai)

	wrapped := WrapError(KindAdapterAuthFailure, 403, "denied", errors.New("upstream"))
	assert.Equal(t, 403, wrapped.Status)
	assert.Contains(t, wrapped.Error(), "upstream")
	assert.Equal(t, KindAdapterAuthFailure, KindOf(fmt.Errorf("ctx: %w", wrapped)))

	assert.Equal(t, KindUnexpected, KindOf(errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, AsError(errors.New("boom")).Status)
}
