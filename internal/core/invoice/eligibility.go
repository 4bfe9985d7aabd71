package invoice

import (
	"time"
)

// Backdating limits in days per activity kind.
const (
	MaxBackdateDaysGoods    = 5
	MaxBackdateDaysServices = 10
)

// DateLayout is the calendar date format used across the API.
const DateLayout = "2006-01-02"

// BusinessLocation returns the time zone calendar dates are evaluated in.
func BusinessLocation() *time.Location {
	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	if err != nil {
		// Fallback when the tz database is not available in the image.
		return time.FixedZone("America/Argentina/Buenos_Aires", -3*60*60)
	}
	return loc
}

// MaxBackdateDays returns how many days an invoice may be backdated for the activity.
func MaxBackdateDays(activity ActivityKind) int {
	if activity == ActivityServices {
		return MaxBackdateDaysServices
	}
	return MaxBackdateDaysGoods
}

// CalendarDate truncates t to midnight of its calendar day in loc.
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DaysBetween returns floor((now - date) / 24h) over calendar dates. The
// year, month and day of date are taken as-is; now is first moved into loc.
func DaysBetween(date, now time.Time, loc *time.Location) int {
	n := CalendarDate(now, loc)
	// Dates are compared at noon UTC so DST shifts cannot move the floor.
	du := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, time.UTC)
	nu := time.Date(n.Year(), n.Month(), n.Day(), 12, 0, 0, 0, time.UTC)
	return int(nu.Sub(du).Hours() / 24)
}

// ValidateDate checks that date is not in the future and lies within the
// backdating window of the activity. Both boundaries are inclusive.
func ValidateDate(date time.Time, activity ActivityKind, now time.Time) error {
	return ValidateDateIn(date, activity, now, BusinessLocation())
}

// ValidateDateIn is ValidateDate evaluated in an explicit location.
func ValidateDateIn(date time.Time, activity ActivityKind, now time.Time, loc *time.Location) error {
	daysDiff := DaysBetween(date, now, loc)
	if daysDiff < 0 {
		return &FutureDateError{}
	}

	maxDays := MaxBackdateDays(activity)
	if daysDiff > maxDays {
		return &WindowExceededError{MaxDays: maxDays, DaysDiff: daysDiff}
	}

	return nil
}

// DateOnly returns the calendar date of t in loc as midnight UTC, the form
// dates are stored and compared in.
func DateOnly(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthPeriod returns the calendar month containing now in loc.
func MonthPeriod(now time.Time, loc *time.Location) Period {
	today := DateOnly(now, loc)
	from := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{From: from, To: from.AddDate(0, 1, -1)}
}
