package controllers

import "time"

// SetClock replaces the handler clock and returns a func restoring it.
func SetClock(now func() time.Time) (restore func()) {
	prev := timeNow
	timeNow = now
	return func() { timeNow = prev }
}
