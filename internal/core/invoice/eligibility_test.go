package invoice

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDate_Window(t *testing.T) {
	loc := BusinessLocation()
	now := time.Date(2026, 10, 15, 14, 30, 0, 0, loc)
	day := func(offset int) time.Time {
		return time.Date(2026, 10, 15+offset, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name     string
		activity ActivityKind
		offset   int
		maxDays  int // 0 means the date must be accepted
		future   bool
	}{
		{name: "goods same day", activity: ActivityGoods, offset: 0},
		{name: "goods 3 days ago", activity: ActivityGoods, offset: -3},
		{name: "goods boundary 5 days", activity: ActivityGoods, offset: -5},
		{name: "goods 6 days exceeds", activity: ActivityGoods, offset: -6, maxDays: 5},
		{name: "services same day", activity: ActivityServices, offset: 0},
		{name: "services boundary 10 days", activity: ActivityServices, offset: -10},
		{name: "services 11 days exceeds", activity: ActivityServices, offset: -11, maxDays: 10},
		{name: "goods tomorrow", activity: ActivityGoods, offset: 1, future: true},
		{name: "services tomorrow", activity: ActivityServices, offset: 1, future: true},
		{name: "services far future", activity: ActivityServices, offset: 30, future: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDateIn(day(tt.offset), tt.activity, now, loc)

			switch {
			case tt.future:
				var futureErr *FutureDateError
				require.True(t, errors.As(err, &futureErr), "expected FutureDateError, got %v", err)
			case tt.maxDays > 0:
				var windowErr *WindowExceededError
				require.True(t, errors.As(err, &windowErr), "expected WindowExceededError, got %v", err)
				assert.Equal(t, tt.maxDays, windowErr.MaxDays)
				assert.Equal(t, -tt.offset, windowErr.DaysDiff)
				assert.Contains(t, err.Error(), strconv.Itoa(tt.maxDays))
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDate_EveryDayInsideWindow(t *testing.T) {
	loc := BusinessLocation()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, loc)

	for _, activity := range []ActivityKind{ActivityGoods, ActivityServices} {
		maxDays := MaxBackdateDays(activity)
		for d := 0; d <= maxDays; d++ {
			date := CalendarDate(now, loc).AddDate(0, 0, -d)
			date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
			assert.NoError(t, ValidateDateIn(date, activity, now, loc), "activity=%s days=%d", activity, d)
		}
	}
}

func TestValidateDate_LateNightUsesBusinessCalendar(t *testing.T) {
	loc := BusinessLocation()
	// 23:30 in Buenos Aires is already the next day in UTC.
	now := time.Date(2026, 10, 15, 23, 30, 0, 0, loc)
	today := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateDateIn(today, ActivityGoods, now.UTC(), loc))
}

func TestMaxBackdateDays(t *testing.T) {
	assert.Equal(t, 5, MaxBackdateDays(ActivityGoods))
	assert.Equal(t, 10, MaxBackdateDays(ActivityServices))
}

func TestMonthPeriod(t *testing.T) {
	loc := BusinessLocation()

	p := MonthPeriod(time.Date(2026, 2, 14, 12, 0, 0, 0, loc), loc)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), p.From)
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), p.To)

	// 01:00 UTC on March 1st is still February in Buenos Aires.
	p = MonthPeriod(time.Date(2026, 3, 1, 1, 0, 0, 0, time.UTC), loc)
	assert.Equal(t, time.February, p.From.Month())
}
