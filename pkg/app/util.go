package app

import "time"

// nextDelay returns the time until the next multiple of interval since midnight.
func nextDelay(now time.Time, interval time.Duration) time.Duration {
	if interval <= 0 {
		interval = time.Minute
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	elapsed := now.Sub(midnight)
	next := midnight.Add((elapsed/interval + 1) * interval)
	return next.Sub(now)
}
