package stopwatch

import (
	"sync"
	"time"

	"timetracker/internal/core/model"

	"github.com/jonboulle/clockwork"
)

// Config contains runtime options for Stopwatch.
type Config struct {
	RefreshInterval time.Duration
	Clock           clockwork.Clock
}

// Stopwatch is a state machine that measures elapsed time and interleaved
// break time for one tracked activity.
//
// Invalid transitions are silent no-ops. Each transition reports whether it
// was accepted so callers do not need to compare State before and after.
type Stopwatch struct {
	mu        sync.Mutex
	options   Config
	callbacks Callbacks

	state            model.State
	startTime        *int64
	breakStartTime   *int64
	sessionStartTime *int64
	totalBreakMs     int64

	ticker     clockwork.Ticker
	stopCh     chan struct{}
	generation uint64
	events     []chan Event
	closed     bool
}

// New creates an idle Stopwatch.
func New(callbacks Callbacks, options Config) *Stopwatch {
	if options.RefreshInterval <= 0 {
		options.RefreshInterval = time.Second
	}
	if options.Clock == nil {
		options.Clock = clockwork.NewRealClock()
	}
	return &Stopwatch{
		options:   options,
		callbacks: callbacks,
		state:     model.StateIdle,
	}
}

// Restore creates a Stopwatch and imports snapshot into it.
func Restore(snapshot model.Snapshot, callbacks Callbacks, options Config) *Stopwatch {
	watch := New(callbacks, options)
	watch.ImportState(snapshot)
	return watch
}

// Subscribe registers a new observer channel. Sends never block; a full
// channel misses events.
func (watch *Stopwatch) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	watch.mu.Lock()
	defer watch.mu.Unlock()
	if watch.closed {
		close(ch)
		return ch
	}
	watch.events = append(watch.events, ch)
	return ch
}

// Start begins a fresh tracked session, discarding any previous break
// accounting. It is a no-op while running.
func (watch *Stopwatch) Start() bool {
	watch.mu.Lock()
	if watch.state == model.StateRunning {
		watch.mu.Unlock()
		return false
	}
	now := watch.nowMillis()
	watch.state = model.StateRunning
	watch.startTime = model.Millis(now)
	watch.sessionStartTime = model.Millis(now)
	watch.breakStartTime = nil
	watch.totalBreakMs = 0
	watch.armLocked()
	watch.emitStateLocked(now)
	onStart := watch.callbacks.OnStart
	watch.mu.Unlock()

	if onStart != nil {
		onStart(now)
	}
	return true
}

// TogglePause starts a break while running and ends it while paused.
func (watch *Stopwatch) TogglePause() bool {
	watch.mu.Lock()
	now := watch.nowMillis()
	switch watch.state {
	case model.StateRunning:
		watch.state = model.StatePaused
		watch.breakStartTime = model.Millis(now)
		watch.emitStateLocked(now)
		watch.mu.Unlock()
		return true
	case model.StatePaused:
		watch.foldBreakLocked(now)
		watch.state = model.StateRunning
		watch.sessionStartTime = model.Millis(now)
		minutes := model.BreakMinutes(watch.totalBreakMs)
		watch.emitStateLocked(now)
		onBreakUpdate := watch.callbacks.OnBreakUpdate
		watch.mu.Unlock()

		if onBreakUpdate != nil {
			onBreakUpdate(minutes)
		}
		return true
	default:
		watch.mu.Unlock()
		return false
	}
}

// Stop ends the tracked session. A break in progress is folded into the
// total before the end time is reported.
func (watch *Stopwatch) Stop() bool {
	watch.mu.Lock()
	if watch.state == model.StateIdle || watch.state == model.StateStopped {
		watch.mu.Unlock()
		return false
	}
	now := watch.nowMillis()
	if watch.state == model.StatePaused {
		watch.foldBreakLocked(now)
	}
	watch.state = model.StateStopped
	watch.disarmLocked()
	minutes := model.BreakMinutes(watch.totalBreakMs)
	watch.emitStateLocked(now)
	callbacks := watch.callbacks
	watch.mu.Unlock()

	if callbacks.OnStop != nil {
		callbacks.OnStop(now)
	}
	if callbacks.OnBreakUpdate != nil {
		callbacks.OnBreakUpdate(minutes)
	}
	return true
}

// Resume continues a stopped session without resetting its start time or
// break total. OnStart is not fired.
func (watch *Stopwatch) Resume() bool {
	watch.mu.Lock()
	defer watch.mu.Unlock()
	if watch.state != model.StateStopped {
		return false
	}
	now := watch.nowMillis()
	watch.state = model.StateRunning
	watch.sessionStartTime = model.Millis(now)
	watch.armLocked()
	watch.emitStateLocked(now)
	return true
}

// Reset returns the stopwatch to idle from any state.
func (watch *Stopwatch) Reset() {
	watch.mu.Lock()
	defer watch.mu.Unlock()
	watch.state = model.StateIdle
	watch.startTime = nil
	watch.breakStartTime = nil
	watch.sessionStartTime = nil
	watch.totalBreakMs = 0
	watch.disarmLocked()
	watch.emitStateLocked(watch.nowMillis())
}

// Close disposes the stopwatch: the refresh timer is torn down for good and
// observers are closed. Transitions keep working on the data afterwards but
// never re-arm the timer.
func (watch *Stopwatch) Close() {
	watch.mu.Lock()
	if watch.closed {
		watch.mu.Unlock()
		return
	}
	watch.closed = true
	watch.disarmLocked()
	events := watch.events
	watch.events = nil
	watch.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

// Advance runs one display refresh at now. Hosts that drive the display from
// their own clock call it instead of relying on the internal timer.
func (watch *Stopwatch) Advance(now time.Time) bool {
	watch.mu.Lock()
	if watch.closed || !watch.state.Active() {
		watch.mu.Unlock()
		return false
	}
	snapshot, nowMillis, onRefresh := watch.refreshLocked(now)
	watch.mu.Unlock()

	if onRefresh != nil {
		onRefresh(snapshot, nowMillis)
	}
	return true
}

// State returns the current state.
func (watch *Stopwatch) State() model.State {
	watch.mu.Lock()
	defer watch.mu.Unlock()
	return watch.state
}

// IsActive reports whether the stopwatch is running or paused.
func (watch *Stopwatch) IsActive() bool {
	return watch.State().Active()
}

// Armed reports whether a refresh timer is currently scheduled.
func (watch *Stopwatch) Armed() bool {
	watch.mu.Lock()
	defer watch.mu.Unlock()
	return watch.ticker != nil
}

// ElapsedMs returns wall-clock time since the start, breaks included.
func (watch *Stopwatch) ElapsedMs() int64 {
	watch.mu.Lock()
	defer watch.mu.Unlock()
	return watch.elapsedLocked(watch.nowMillis())
}

// BreakMs returns the break total including a break in progress.
func (watch *Stopwatch) BreakMs() int64 {
	watch.mu.Lock()
	defer watch.mu.Unlock()
	return watch.snapshotLocked().BreakMs(watch.nowMillis())
}

// BreakMinutes returns BreakMs in minutes, rounded to two decimals.
func (watch *Stopwatch) BreakMinutes() float64 {
	return model.BreakMinutes(watch.BreakMs())
}

// WorkMs returns elapsed time with breaks removed.
func (watch *Stopwatch) WorkMs() int64 {
	watch.mu.Lock()
	defer watch.mu.Unlock()
	now := watch.nowMillis()
	work := watch.elapsedLocked(now) - watch.snapshotLocked().BreakMs(now)
	if work < 0 {
		return 0
	}
	return work
}

// FormatElapsed renders ElapsedMs as HH:MM:SS.
func (watch *Stopwatch) FormatElapsed() string {
	return model.FormatClock(watch.ElapsedMs())
}

// FormatBreak renders BreakMs as MM:SS.
func (watch *Stopwatch) FormatBreak() string {
	return model.FormatMinutesSeconds(watch.BreakMs())
}

// ExportState returns a serializable copy of the stopwatch state.
func (watch *Stopwatch) ExportState() model.Snapshot {
	watch.mu.Lock()
	defer watch.mu.Unlock()
	return watch.snapshotLocked()
}

// ImportState replaces the stopwatch state with snapshot verbatim. A running
// snapshot without a session start gets one from its start time. Live states
// re-arm the refresh timer; no callbacks fire.
func (watch *Stopwatch) ImportState(snapshot model.Snapshot) {
	snapshot = snapshot.Clone()

	watch.mu.Lock()
	defer watch.mu.Unlock()
	watch.state = snapshot.State
	watch.startTime = snapshot.StartTime
	watch.breakStartTime = snapshot.BreakStartTime
	watch.sessionStartTime = snapshot.SessionStartTime
	watch.totalBreakMs = snapshot.TotalBreakMs
	if watch.state == model.StateRunning && watch.sessionStartTime == nil && watch.startTime != nil {
		watch.sessionStartTime = model.CopyMillis(watch.startTime)
	}

	if watch.state.Active() {
		watch.armLocked()
	} else {
		watch.disarmLocked()
	}
	watch.emitStateLocked(watch.nowMillis())
}

func (watch *Stopwatch) run(ticker clockwork.Ticker, stopCh <-chan struct{}, generation uint64) {
	for {
		select {
		case <-stopCh:
			return
		case tickTime := <-ticker.Chan():
			watch.tick(generation, tickTime)
		}
	}
}

func (watch *Stopwatch) tick(generation uint64, tickTime time.Time) {
	watch.mu.Lock()
	if generation != watch.generation || watch.closed || !watch.state.Active() {
		watch.mu.Unlock()
		return
	}
	snapshot, now, onRefresh := watch.refreshLocked(tickTime)
	watch.mu.Unlock()

	if onRefresh != nil {
		onRefresh(snapshot, now)
	}
}

func (watch *Stopwatch) refreshLocked(at time.Time) (model.Snapshot, int64, func(model.Snapshot, int64)) {
	now := at.UnixMilli()
	snapshot := watch.snapshotLocked()
	breakMs := snapshot.BreakMs(now)
	watch.emitLocked(Event{
		Type:         EventTick,
		State:        watch.state,
		ElapsedMs:    watch.elapsedLocked(now),
		BreakMs:      breakMs,
		BreakMinutes: model.BreakMinutes(breakMs),
		At:           at,
	})
	return snapshot, now, watch.callbacks.OnRefresh
}

// armLocked always clears the previous timer first so two timers never drive
// the display at once.
func (watch *Stopwatch) armLocked() {
	watch.disarmLocked()
	if watch.closed {
		return
	}
	ticker := watch.options.Clock.NewTicker(watch.options.RefreshInterval)
	stopCh := make(chan struct{})
	watch.ticker = ticker
	watch.stopCh = stopCh
	go watch.run(ticker, stopCh, watch.generation)
}

// disarmLocked bumps the generation so a tick already in flight from the old
// timer is discarded.
func (watch *Stopwatch) disarmLocked() {
	watch.generation++
	if watch.ticker == nil {
		return
	}
	watch.ticker.Stop()
	close(watch.stopCh)
	watch.ticker = nil
	watch.stopCh = nil
}

func (watch *Stopwatch) foldBreakLocked(now int64) {
	if watch.breakStartTime != nil {
		watch.totalBreakMs += now - *watch.breakStartTime
	}
	watch.breakStartTime = nil
}

func (watch *Stopwatch) elapsedLocked(now int64) int64 {
	if watch.state == model.StateIdle {
		return 0
	}
	return watch.snapshotLocked().ElapsedMs(now)
}

func (watch *Stopwatch) snapshotLocked() model.Snapshot {
	return model.Snapshot{
		State:            watch.state,
		StartTime:        model.CopyMillis(watch.startTime),
		BreakStartTime:   model.CopyMillis(watch.breakStartTime),
		SessionStartTime: model.CopyMillis(watch.sessionStartTime),
		TotalBreakMs:     watch.totalBreakMs,
	}
}

func (watch *Stopwatch) nowMillis() int64 {
	return watch.options.Clock.Now().UnixMilli()
}

func (watch *Stopwatch) emitStateLocked(now int64) {
	snapshot := watch.snapshotLocked()
	breakMs := snapshot.BreakMs(now)
	watch.emitLocked(Event{
		Type:         EventStateChange,
		State:        watch.state,
		ElapsedMs:    watch.elapsedLocked(now),
		BreakMs:      breakMs,
		BreakMinutes: model.BreakMinutes(breakMs),
		At:           time.UnixMilli(now),
	})
}

func (watch *Stopwatch) emitLocked(event Event) {
	events := append([]chan Event(nil), watch.events...)
	for _, ch := range events {
		select {
		case ch <- event:
		default:
		}
	}
}
