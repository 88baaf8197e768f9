package scheduler

import "time"

// NextExpected returns the first publication boundary strictly after ref.
// The remote publishes on a fixed grid (5 minutes by default), so the next
// boundary is ref rounded down to the grid plus one interval; a ref sitting
// exactly on a boundary maps to the following one. Seconds are dropped with
// the rounding and hour rollover falls out of plain time arithmetic.
func NextExpected(ref time.Time, interval time.Duration) time.Time {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return ref.Truncate(interval).Add(interval)
}
