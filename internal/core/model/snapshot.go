package model

import "math"

// State represents the stopwatch mode.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateStopped State = "stopped"
)

// Active reports whether the state is running or paused.
func (state State) Active() bool {
	return state == StateRunning || state == StatePaused
}

// Snapshot is the serializable stopwatch state. All timestamps are epoch
// milliseconds; nil means unset.
type Snapshot struct {
	State            State  `json:"state" yaml:"state"`
	StartTime        *int64 `json:"startTime" yaml:"startTime"`
	BreakStartTime   *int64 `json:"breakStartTime" yaml:"breakStartTime"`
	SessionStartTime *int64 `json:"sessionStartTime" yaml:"sessionStartTime"`
	TotalBreakMs     int64  `json:"totalBreakMs" yaml:"totalBreakMs"`
}

// ElapsedMs returns the wall-clock time since StartTime, breaks included.
func (snapshot Snapshot) ElapsedMs(now int64) int64 {
	if snapshot.StartTime == nil {
		return 0
	}
	return now - *snapshot.StartTime
}

// BreakMs returns the accumulated break time plus any break in progress.
func (snapshot Snapshot) BreakMs(now int64) int64 {
	total := snapshot.TotalBreakMs
	if snapshot.State == StatePaused && snapshot.BreakStartTime != nil {
		total += now - *snapshot.BreakStartTime
	}
	return total
}

// Clone returns a copy that shares no pointers with the receiver.
func (snapshot Snapshot) Clone() Snapshot {
	snapshot.StartTime = CopyMillis(snapshot.StartTime)
	snapshot.BreakStartTime = CopyMillis(snapshot.BreakStartTime)
	snapshot.SessionStartTime = CopyMillis(snapshot.SessionStartTime)
	return snapshot
}

// Millis returns a pointer to value.
func Millis(value int64) *int64 {
	return &value
}

// CopyMillis duplicates an optional timestamp.
func CopyMillis(value *int64) *int64 {
	if value == nil {
		return nil
	}
	return Millis(*value)
}

// BreakMinutes converts milliseconds to minutes rounded to two decimals.
// Halves round up, matching the rounding the host forms display.
func BreakMinutes(ms int64) float64 {
	return math.Floor(float64(ms)/60000*100+0.5) / 100
}
