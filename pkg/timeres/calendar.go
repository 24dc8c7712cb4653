package timeres

import "time"

// SubtractMonths walks back n calendar months one at a time. When the day does not exist
// in the target month it is clamped to that month's last day, so March 31 minus one month
// is the last day of February.
func SubtractMonths(t time.Time, n int) time.Time {
	for i := 0; i < n; i++ {
		t = previousMonth(t)
	}
	return t
}

// SubtractYears moves back n calendar years, February 29 becomes February 28 when the
// target year is not a leap year.
func SubtractYears(t time.Time, n int) time.Time {
	if n <= 0 {
		return t
	}
	y, m, d := t.Date()
	y -= n
	if m == time.February && d == 29 && !isLeap(y) {
		d = 28
	}
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func previousMonth(t time.Time) time.Time {
	y, m, d := t.Date()
	m--
	if m < time.January {
		m = time.December
		y--
	}
	if last := daysIn(y, m); d > last {
		d = last
	}
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysIn returns the number of days in the month, day 0 of the next month is the last day
func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}
