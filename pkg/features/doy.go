package features

import (
	"time"
)

// DaysInYear returns 366 for Gregorian leap years and 365 otherwise.
func DaysInYear(year int) int {
	if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
		return 366
	}
	return 365
}

// DayOfYearFraction returns the midpoint of the start and end day-of-year divided by
// the length of the start year.
func DayOfYearFraction(start, end time.Time) (float64, error) {
	if start.IsZero() || end.IsZero() {
		return 0, ErrMissingAcquisitionTime
	}
	mid := float64(start.YearDay()+end.YearDay()) / 2
	return mid / float64(DaysInYear(start.Year())), nil
}
