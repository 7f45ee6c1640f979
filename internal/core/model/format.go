package model

import "fmt"

// FormatClock renders milliseconds as HH:MM:SS. Hours widen past 99.
func FormatClock(ms int64) string {
	seconds := wholeSeconds(ms)
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// FormatMinutesSeconds renders milliseconds as MM:SS. Minutes are unbounded.
func FormatMinutesSeconds(ms int64) string {
	seconds := wholeSeconds(ms)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func wholeSeconds(ms int64) int64 {
	if ms < 0 {
		return 0
	}
	return ms / 1000
}
