package eligibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bottle-claims/internal/model"
)

var now = time.Date(2025, 6, 30, 15, 30, 0, 0, time.UTC)

func daysBefore(n int) string {
	return now.AddDate(0, 0, -n).Format(DisplayLayout)
}

func TestVerify_Boundary(t *testing.T) {
	t.Parallel()
	p := DefaultPolicy()

	tests := []struct {
		name   string
		days   int
		status model.EligibilityStatus
	}{
		{"same day", 0, model.Eligible},
		{"one day", 1, model.Eligible},
		{"119 days", 119, model.Eligible},
		{"exactly 120 days", 120, model.Eligible},
		{"121 days", 121, model.Ineligible},
		{"a year", 365, model.Ineligible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := p.Verify(daysBefore(tt.days), now)
			assert.Equal(t, tt.status, res.Status)
			require.NotNil(t, res.DaysElapsed)
			assert.Equal(t, tt.days, *res.DaysElapsed)
			assert.Equal(t, 120, res.MaxAllowedDays)
		})
	}
}

func TestVerify_Messages(t *testing.T) {
	t.Parallel()
	p := DefaultPolicy()

	res := p.Verify("01/04/2025", now)
	assert.Equal(t, model.Eligible, res.Status)
	assert.Contains(t, res.Message, "01/04/2025")
	assert.Contains(t, res.Message, "90 days ago")
	assert.Contains(t, res.MessageThai, "01/04/2025")
	assert.Contains(t, res.MessageThai, "มีสิทธิ์")

	res = p.Verify("01/01/2025", now)
	assert.Equal(t, model.Ineligible, res.Status)
	assert.Contains(t, res.Message, "180 days ago")
	assert.Contains(t, res.Message, "exceeds the 120-day limit")
	assert.Contains(t, res.MessageThai, "เกินกำหนด 120 วัน")
}

func TestVerify_FutureDateIsEligible(t *testing.T) {
	t.Parallel()

	res := DefaultPolicy().Verify("15/07/2025", now)
	assert.Equal(t, model.Eligible, res.Status)
	require.NotNil(t, res.DaysElapsed)
	assert.Equal(t, -15, *res.DaysElapsed)
}

func TestVerify_UnpaddedDayAndMonth(t *testing.T) {
	t.Parallel()
	asOf := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	for _, in := range []string{"5/3/2025", "05/3/2025", "5/03/2025", "05/03/2025"} {
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			res := DefaultPolicy().Verify(in, asOf)
			assert.Equal(t, model.Eligible, res.Status)
			require.NotNil(t, res.DaysElapsed)
			assert.Equal(t, 27, *res.DaysElapsed)
			assert.Equal(t, in, res.ProductionDate)
			assert.Contains(t, res.Message, "05/03/2025")
		})
	}
}

func TestVerify_ParseFailure(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"2025-03-01", "31/02/2025", "12/04/25", "", "No production date visible", "5-3-2025", "005/03/2025"} {
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			res := DefaultPolicy().Verify(in, now)
			assert.Equal(t, model.EligibilityError, res.Status)
			assert.Nil(t, res.DaysElapsed)
			assert.Contains(t, res.Message, "Expected format: DD/MM/YYYY")
			assert.Equal(t, in, res.ProductionDate)
		})
	}
}

func TestDaysElapsed_Floors(t *testing.T) {
	t.Parallel()

	produced := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysElapsed(produced, produced.Add(23*time.Hour)))
	assert.Equal(t, 1, DaysElapsed(produced, produced.Add(24*time.Hour)))
	assert.Equal(t, -1, DaysElapsed(produced, produced.Add(-time.Hour)))
	assert.Equal(t, 120, DaysElapsed(produced, produced.AddDate(0, 0, 120).Add(12*time.Hour)))
}

func TestParseDate_YearPolicy(t *testing.T) {
	t.Parallel()

	p := Policy{YearOffset: -1}
	d, err := p.ParseDate("12/04/2026")
	require.NoError(t, err)
	assert.Equal(t, 2025, d.Year())

	p = Policy{MinYear: 2020, MaxYear: 2030}
	_, err = p.ParseDate("12/04/2040")
	require.Error(t, err)
	assert.Equal(t, model.KindDateParseFailure, model.KindOf(err))

	p.ClampYear = 2025
	d, err = p.ParseDate("12/04/2040")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 12, 0, 0, 0, 0, time.UTC), d)
}

func TestExtractManufactureDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want string
	}{
		{`{"manufactured_date": "12/04/2025"}`, "12/04/2025"},
		{"```json\n{\"manufactured_date\": \" 01/02/2025 \"}\n```", "01/02/2025"},
		{`{"production_date": "03/03/2025"}`, "03/03/2025"},
		{"12/04/2025", "12/04/2025"},
		{" `12/04/2025` ", "12/04/2025"},
		{"I think the date is unclear", "I think the date is unclear"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExtractManufactureDate(tt.text))
		})
	}
}
