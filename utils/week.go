package utils

import (
	"fmt"
	"time"
)

// WeekIdentifier returns the ISO year, ISO week and its "YYYY-WW" form.
func WeekIdentifier(t time.Time) (int, int, string) {
	year, week := t.ISOWeek()
	return year, week, fmt.Sprintf("%d-%02d", year, week)
}
