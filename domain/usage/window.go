package usage

import (
	"fmt"
	"time"
)

// MonthWindow returns the inclusive date range covered by a report for
// (year, month). The window always starts on day 1. A month still in
// progress ends on the current day; a finished month ends on its true last
// day (leap years included, via time.Date day-0 normalization).
func MonthWindow(year, month int, now time.Time) (time.Time, time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: month %d outside 1..12", ErrInvalidPeriod, month)
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	if year == now.Year() && time.Month(month) == now.Month() {
		end := time.Date(year, time.Month(month), now.Day(), 0, 0, 0, 0, time.UTC)
		return start, end, nil
	}
	end := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
	return start, end, nil
}

// PreviousPeriod returns the (year, month) immediately before the given one.
func PreviousPeriod(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}
