package stopwatch

import (
	"time"

	"timetracker/internal/core/model"
)

// EventType defines the type of stopwatch event.
type EventType string

const (
	EventStateChange EventType = "state_change"
	EventTick        EventType = "tick"
)

// Event represents a stopwatch update for observers.
type Event struct {
	Type         EventType
	State        model.State
	ElapsedMs    int64
	BreakMs      int64
	BreakMinutes float64
	At           time.Time
}

// Callbacks are invoked synchronously on state-changing transitions. They run
// after the stopwatch lock is released, so they may call back into it.
type Callbacks struct {
	OnStart       func(startTime int64)
	OnStop        func(endTime int64)
	OnBreakUpdate func(breakMinutes float64)
	// OnRefresh is called by every display refresh while the stopwatch is
	// running or paused.
	OnRefresh func(snapshot model.Snapshot, now int64)
}
