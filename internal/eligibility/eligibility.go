// Package eligibility decides whether a bottle is still inside the claim
// window, counted in whole days from its production date.
package eligibility

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/bottle-claims/internal/llmjson"
	"github.com/sells-group/bottle-claims/internal/model"
)

const (
	// DefaultMaxDays is the length of the claim window.
	DefaultMaxDays = 120
	// DefaultLayout is the day/month/year layout printed on labels. Day and
	// month may be written with or without a leading zero.
	DefaultLayout = "2/1/2006"
	// DisplayLayout is the zero-padded form dates are reported in.
	DisplayLayout = "02/01/2006"

	secondsPerDay = 24 * 60 * 60
)

// Policy holds the window length, the date layout, and the year
// normalization rules applied to dates read off labels.
type Policy struct {
	MaxDays int
	Layout  string

	// YearOffset is added to the parsed year.
	YearOffset int
	// MinYear and MaxYear bound the normalized year; zero disables a bound.
	MinYear int
	MaxYear int
	// ClampYear replaces an out-of-bounds year when set. When zero an
	// out-of-bounds year is a parse failure.
	ClampYear int
}

// DefaultPolicy is the strict 120 day policy with no year normalization.
func DefaultPolicy() Policy {
	return Policy{MaxDays: DefaultMaxDays, Layout: DefaultLayout}
}

func (p Policy) withDefaults() Policy {
	if p.MaxDays <= 0 {
		p.MaxDays = DefaultMaxDays
	}
	if p.Layout == "" {
		p.Layout = DefaultLayout
	}
	return p
}

// ParseDate parses s with the exact layout and applies year normalization.
func (p Policy) ParseDate(s string) (time.Time, error) {
	p = p.withDefaults()

	d, err := time.Parse(p.Layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, model.WrapError(model.KindDateParseFailure, 0,
			fmt.Sprintf("Invalid production date format: %s. Expected format: %s.", s, displayLayout(p.Layout)), err)
	}

	year := d.Year() + p.YearOffset
	if (p.MinYear > 0 && year < p.MinYear) || (p.MaxYear > 0 && year > p.MaxYear) {
		if p.ClampYear == 0 {
			return time.Time{}, model.NewError(model.KindDateParseFailure,
				fmt.Sprintf("Production date %s is outside the accepted year range.", s))
		}
		year = p.ClampYear
	}

	return time.Date(year, d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
}

// DaysElapsed counts whole days from produced to now, rounding toward
// negative infinity.
func DaysElapsed(produced, now time.Time) int {
	diff := now.UTC().Unix() - produced.UTC().Unix()
	days := diff / secondsPerDay
	if diff%secondsPerDay != 0 && diff < 0 {
		days--
	}
	return int(days)
}

// Verify checks the production date string against the window as of now.
func (p Policy) Verify(date string, now time.Time) model.EligibilityResult {
	p = p.withDefaults()

	produced, err := p.ParseDate(date)
	if err != nil {
		msg := model.AsError(err).Message
		return model.EligibilityResult{
			Status:         model.EligibilityError,
			ProductionDate: date,
			MaxAllowedDays: p.MaxDays,
			Message:        msg,
			MessageThai:    fmt.Sprintf("รูปแบบวันที่ผลิตไม่ถูกต้อง: %s รูปแบบที่คาดหวัง: %s", date, displayLayout(p.Layout)),
		}
	}

	days := DaysElapsed(produced, now)
	formatted := produced.Format(DisplayLayout)

	res := model.EligibilityResult{
		ProductionDate: date,
		DaysElapsed:    &days,
		MaxAllowedDays: p.MaxDays,
	}

	if days <= p.MaxDays {
		res.Status = model.Eligible
		res.Message = fmt.Sprintf("This bottle was produced on %s, which is %d days ago. It is eligible for claim assessment.",
			formatted, days)
		res.MessageThai = fmt.Sprintf("ขวดนี้ผลิตเมื่อวันที่ %s ซึ่งเป็นเวลา %d วันที่ผ่านมา ขวดนี้มีสิทธิ์ได้รับการประเมินการเคลม",
			formatted, days)
		return res
	}

	res.Status = model.Ineligible
	res.Message = fmt.Sprintf("This bottle was produced on %s, which is %d days ago. It is not eligible for claim assessment as it exceeds the %d-day limit.",
		formatted, days, p.MaxDays)
	res.MessageThai = fmt.Sprintf("ขวดนี้ผลิตเมื่อวันที่ %s ซึ่งเป็นเวลา %d วันที่ผ่านมา ขวดนี้ไม่มีสิทธิ์ได้รับการประเมินการเคลมเนื่องจากเกินกำหนด %d วัน",
		formatted, days, p.MaxDays)
	return res
}

var dateKeys = []string{"manufactured_date", "production_date", "date"}

// ExtractManufactureDate pulls the production date out of the label-reading
// model's answer. A JSON payload wins; otherwise the trimmed text is returned
// as is and left for ParseDate to accept or reject.
func ExtractManufactureDate(text string) string {
	for _, key := range dateKeys {
		if obj, ok := llmjson.FindObject(text, key); ok {
			if v, ok := obj.String(key); ok {
				return strings.TrimSpace(v)
			}
		}
	}
	return strings.Trim(strings.TrimSpace(text), "`\"'")
}

func displayLayout(layout string) string {
	return strings.NewReplacer("2006", "YYYY", "01", "MM", "02", "DD", "1", "MM", "2", "DD").Replace(layout)
}
