package model

import "time"

// StopwatchConfig contains runtime settings for the stopwatch and its host.
type StopwatchConfig struct {
	RefreshInterval time.Duration

	IdlePauseEnabled  bool
	IdlePauseAfter    time.Duration
	IdleCheckInterval time.Duration
}
