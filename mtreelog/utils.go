package mtreelog

import "time"

// RoundDuration truncates d to a multiple of to, for less noisy
// periodic log output. Ported from github.com/tormol/AIS/logger.
func RoundDuration(d, to time.Duration) string {
	d -= d % to
	return d.String()
}
