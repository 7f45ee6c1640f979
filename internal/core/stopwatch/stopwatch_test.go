package stopwatch

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"timetracker/internal/core/model"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnStart:       func(startTime int64) { r.add(fmt.Sprintf("start:%d", startTime)) },
		OnStop:        func(endTime int64) { r.add(fmt.Sprintf("stop:%d", endTime)) },
		OnBreakUpdate: func(minutes float64) { r.add(fmt.Sprintf("break:%g", minutes)) },
	}
}

// newTestStopwatch uses a refresh interval long enough that advancing the
// clock in a test never fires the display timer.
func newTestStopwatch(t *testing.T) (*Stopwatch, *countingClock, *recorder) {
	t.Helper()
	clock := newCountingClock(time.UnixMilli(0))
	rec := &recorder{}
	watch := New(rec.callbacks(), Config{Clock: clock, RefreshInterval: time.Hour})
	t.Cleanup(watch.Close)
	return watch, clock, rec
}

func assertCalls(t *testing.T, rec *recorder, want ...string) {
	t.Helper()
	got := rec.snapshot()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
}

func TestNewStopwatchIsIdle(t *testing.T) {
	watch, _, rec := newTestStopwatch(t)

	if watch.State() != model.StateIdle {
		t.Fatalf("state = %q, want idle", watch.State())
	}
	if watch.IsActive() {
		t.Fatal("expected idle stopwatch to be inactive")
	}
	if watch.ElapsedMs() != 0 || watch.BreakMs() != 0 {
		t.Fatalf("expected zero durations, got elapsed=%d break=%d", watch.ElapsedMs(), watch.BreakMs())
	}
	if watch.Armed() {
		t.Fatal("expected no refresh timer while idle")
	}
	assertCalls(t, rec)
}

func TestStartIsIdempotent(t *testing.T) {
	watch, clock, rec := newTestStopwatch(t)

	if !watch.Start() {
		t.Fatal("expected first start to be accepted")
	}
	clock.Advance(5 * time.Second)
	if watch.Start() {
		t.Fatal("expected second start to be ignored")
	}

	assertCalls(t, rec, "start:0")
	snapshot := watch.ExportState()
	if snapshot.StartTime == nil || *snapshot.StartTime != 0 {
		t.Fatalf("start time = %v, want 0", snapshot.StartTime)
	}
}

func TestStartFromPausedIsFresh(t *testing.T) {
	watch, clock, rec := newTestStopwatch(t)

	watch.Start()
	clock.Advance(10 * time.Second)
	watch.TogglePause()
	clock.Advance(30 * time.Second)
	if !watch.Start() {
		t.Fatal("expected start from paused to be accepted")
	}

	snapshot := watch.ExportState()
	if snapshot.State != model.StateRunning {
		t.Fatalf("state = %q, want running", snapshot.State)
	}
	if *snapshot.StartTime != 40000 || *snapshot.SessionStartTime != 40000 {
		t.Fatalf("start/session = %d/%d, want 40000/40000", *snapshot.StartTime, *snapshot.SessionStartTime)
	}
	if snapshot.BreakStartTime != nil {
		t.Fatalf("break start = %d, want nil", *snapshot.BreakStartTime)
	}
	if snapshot.TotalBreakMs != 0 {
		t.Fatalf("total break = %d, want 0", snapshot.TotalBreakMs)
	}
	assertCalls(t, rec, "start:0", "start:40000")
}

func TestStopIsNoopWhenIdleOrStopped(t *testing.T) {
	watch, clock, rec := newTestStopwatch(t)

	if watch.Stop() {
		t.Fatal("expected stop while idle to be ignored")
	}
	assertCalls(t, rec)

	watch.Start()
	clock.Advance(time.Minute)
	if !watch.Stop() {
		t.Fatal("expected stop while running to be accepted")
	}
	clock.Advance(time.Minute)
	if watch.Stop() {
		t.Fatal("expected second stop to be ignored")
	}
	assertCalls(t, rec, "start:0", "stop:60000", "break:0")
}

func TestTogglePauseIgnoredWhenIdleOrStopped(t *testing.T) {
	watch, _, rec := newTestStopwatch(t)

	if watch.TogglePause() {
		t.Fatal("expected toggle while idle to be ignored")
	}
	watch.Start()
	watch.Stop()
	if watch.TogglePause() {
		t.Fatal("expected toggle while stopped to be ignored")
	}
	if watch.State() != model.StateStopped {
		t.Fatalf("state = %q, want stopped", watch.State())
	}
	assertCalls(t, rec, "start:0", "stop:0", "break:0")
}

func TestBreakAccumulation(t *testing.T) {
	tests := []struct {
		name   string
		first  time.Duration
		second time.Duration
	}{
		{name: "whole minutes", first: time.Minute, second: 2 * time.Minute},
		{name: "fractional", first: 45 * time.Second, second: 80500 * time.Millisecond},
		{name: "sub second", first: 300 * time.Millisecond, second: 400 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			watch, clock, _ := newTestStopwatch(t)

			watch.Start()
			clock.Advance(time.Minute)
			watch.TogglePause()
			clock.Advance(tt.first)
			watch.TogglePause()
			clock.Advance(time.Minute)
			watch.TogglePause()
			clock.Advance(tt.second)
			watch.Stop()

			totalMs := (tt.first + tt.second).Milliseconds()
			want := model.BreakMinutes(totalMs)
			if got := watch.BreakMinutes(); got != want {
				t.Fatalf("break minutes = %v, want %v", got, want)
			}
			if got := watch.ExportState().TotalBreakMs; got != totalMs {
				t.Fatalf("total break = %d, want %d", got, totalMs)
			}
		})
	}
}

func TestPauseCycleScenario(t *testing.T) {
	watch, clock, rec := newTestStopwatch(t)

	watch.Start()
	watch.TogglePause()
	if watch.ExportState().State != model.StatePaused {
		t.Fatalf("state = %q, want paused", watch.State())
	}
	clock.advanceTo(60000)
	watch.TogglePause()
	if got := watch.BreakMinutes(); got != 1.0 {
		t.Fatalf("break minutes = %v, want 1.0", got)
	}

	clock.advanceTo(90000)
	watch.Stop()

	assertCalls(t, rec, "start:0", "break:1", "stop:90000", "break:1")
	snapshot := watch.ExportState()
	if snapshot.State != model.StateStopped {
		t.Fatalf("state = %q, want stopped", snapshot.State)
	}
	if snapshot.TotalBreakMs != 60000 {
		t.Fatalf("total break = %d, want 60000", snapshot.TotalBreakMs)
	}
	if got := watch.WorkMs(); got != 30000 {
		t.Fatalf("work = %d, want 30000", got)
	}
}

func TestPauseResumeRefreshesSessionStart(t *testing.T) {
	watch, clock, _ := newTestStopwatch(t)

	watch.Start()
	clock.Advance(10 * time.Second)
	watch.TogglePause()
	snapshot := watch.ExportState()
	if snapshot.BreakStartTime == nil || *snapshot.BreakStartTime != 10000 {
		t.Fatalf("break start = %v, want 10000", snapshot.BreakStartTime)
	}
	if *snapshot.SessionStartTime != 0 {
		t.Fatalf("session start = %d, want 0 while paused", *snapshot.SessionStartTime)
	}

	clock.Advance(5 * time.Second)
	if got := watch.BreakMs(); got != 5000 {
		t.Fatalf("break in progress = %d, want 5000", got)
	}
	watch.TogglePause()
	snapshot = watch.ExportState()
	if *snapshot.SessionStartTime != 15000 {
		t.Fatalf("session start = %d, want 15000", *snapshot.SessionStartTime)
	}
	if snapshot.BreakStartTime != nil {
		t.Fatal("expected break start to clear when running")
	}
}

func TestStopWhilePausedFoldsBreak(t *testing.T) {
	watch, clock, rec := newTestStopwatch(t)

	watch.Start()
	clock.Advance(time.Minute)
	watch.TogglePause()
	clock.Advance(90 * time.Second)
	watch.Stop()

	snapshot := watch.ExportState()
	if snapshot.BreakStartTime != nil {
		t.Fatal("expected break start cleared after stop")
	}
	if snapshot.TotalBreakMs != 90000 {
		t.Fatalf("total break = %d, want 90000", snapshot.TotalBreakMs)
	}
	assertCalls(t, rec, "start:0", "stop:150000", "break:1.5")
}

func TestResumePreservesIdentity(t *testing.T) {
	watch, clock, rec := newTestStopwatch(t)

	clock.advanceTo(1000)
	watch.Start()
	started := *watch.ExportState().StartTime
	clock.Advance(time.Minute)
	watch.TogglePause()
	clock.Advance(time.Minute)
	watch.Stop()
	clock.Advance(time.Minute)

	if !watch.Resume() {
		t.Fatal("expected resume from stopped to be accepted")
	}
	snapshot := watch.ExportState()
	if *snapshot.StartTime != started {
		t.Fatalf("start time = %d, want %d", *snapshot.StartTime, started)
	}
	if snapshot.TotalBreakMs != 60000 {
		t.Fatalf("total break = %d, want 60000", snapshot.TotalBreakMs)
	}
	if *snapshot.SessionStartTime != 181000 {
		t.Fatalf("session start = %d, want 181000", *snapshot.SessionStartTime)
	}
	assertCalls(t, rec, "start:1000", "stop:121000", "break:1")
}

func TestResumeIgnoredUnlessStopped(t *testing.T) {
	watch, _, _ := newTestStopwatch(t)

	if watch.Resume() {
		t.Fatal("expected resume while idle to be ignored")
	}
	watch.Start()
	if watch.Resume() {
		t.Fatal("expected resume while running to be ignored")
	}
	watch.TogglePause()
	if watch.Resume() {
		t.Fatal("expected resume while paused to be ignored")
	}
	if watch.State() != model.StatePaused {
		t.Fatalf("state = %q, want paused", watch.State())
	}
}

func TestResetClearsEverything(t *testing.T) {
	watch, clock, _ := newTestStopwatch(t)

	watch.Start()
	clock.Advance(time.Minute)
	watch.TogglePause()
	clock.Advance(time.Minute)
	watch.Reset()

	want := model.Snapshot{State: model.StateIdle}
	if got := watch.ExportState(); !reflect.DeepEqual(got, want) {
		t.Fatalf("snapshot = %+v, want %+v", got, want)
	}
	if watch.ElapsedMs() != 0 {
		t.Fatalf("elapsed = %d, want 0", watch.ElapsedMs())
	}
}

func TestElapsedIncludesBreaks(t *testing.T) {
	watch, clock, _ := newTestStopwatch(t)

	watch.Start()
	clock.Advance(time.Minute)
	watch.TogglePause()
	clock.Advance(2 * time.Minute)

	if got := watch.ElapsedMs(); got != 180000 {
		t.Fatalf("elapsed = %d, want 180000", got)
	}
	if got := watch.FormatElapsed(); got != "00:03:00" {
		t.Fatalf("formatted elapsed = %q, want 00:03:00", got)
	}
	if got := watch.FormatBreak(); got != "02:00" {
		t.Fatalf("formatted break = %q, want 02:00", got)
	}
	if got := watch.WorkMs(); got != 60000 {
		t.Fatalf("work = %d, want 60000", got)
	}
}

func TestExportStateIsDetached(t *testing.T) {
	watch, _, _ := newTestStopwatch(t)

	watch.Start()
	snapshot := watch.ExportState()
	*snapshot.StartTime = 999

	if got := *watch.ExportState().StartTime; got != 0 {
		t.Fatalf("start time = %d, want 0", got)
	}
}

func TestImportStateRoundTrip(t *testing.T) {
	source, clock, _ := newTestStopwatch(t)
	source.Start()
	clock.Advance(time.Minute)
	source.TogglePause()
	clock.Advance(30 * time.Second)
	snapshot := source.ExportState()

	rec := &recorder{}
	restored := Restore(snapshot, rec.callbacks(), Config{Clock: clock, RefreshInterval: time.Hour})
	t.Cleanup(restored.Close)

	if got := restored.ExportState(); !reflect.DeepEqual(got, snapshot) {
		t.Fatalf("restored = %+v, want %+v", got, snapshot)
	}
	if restored.BreakMs() != source.BreakMs() || restored.ElapsedMs() != source.ElapsedMs() {
		t.Fatal("expected restored durations to match the source")
	}
	assertCalls(t, rec)

	restored.TogglePause()
	assertCalls(t, rec, "break:0.5")
}

func TestImportStateBackfillsRunningSessionStart(t *testing.T) {
	watch, _, _ := newTestStopwatch(t)

	watch.ImportState(model.Snapshot{State: model.StateRunning, StartTime: model.Millis(500)})

	snapshot := watch.ExportState()
	if snapshot.SessionStartTime == nil || *snapshot.SessionStartTime != 500 {
		t.Fatalf("session start = %v, want 500", snapshot.SessionStartTime)
	}
}

func TestImportStateLeavesPausedSessionStartGap(t *testing.T) {
	watch, _, _ := newTestStopwatch(t)

	watch.ImportState(model.Snapshot{
		State:          model.StatePaused,
		StartTime:      model.Millis(500),
		BreakStartTime: model.Millis(700),
	})

	if got := watch.ExportState().SessionStartTime; got != nil {
		t.Fatalf("session start = %d, want nil", *got)
	}
}

func TestImportStateAcceptsMalformedSnapshot(t *testing.T) {
	watch, clock, _ := newTestStopwatch(t)
	clock.advanceTo(10000)

	malformed := model.Snapshot{
		State:          model.StateRunning,
		StartTime:      model.Millis(0),
		BreakStartTime: model.Millis(5000),
		TotalBreakMs:   -3000,
	}
	watch.ImportState(malformed)

	snapshot := watch.ExportState()
	if snapshot.TotalBreakMs != -3000 {
		t.Fatalf("total break = %d, want -3000", snapshot.TotalBreakMs)
	}
	if snapshot.BreakStartTime == nil {
		t.Fatal("expected break start kept verbatim")
	}
	// The stray break start is ignored outside paused.
	if got := watch.BreakMs(); got != -3000 {
		t.Fatalf("break = %d, want -3000", got)
	}
	if got := watch.BreakMinutes(); got != -0.05 {
		t.Fatalf("break minutes = %v, want -0.05", got)
	}
}

func TestRefreshTimerLifecycle(t *testing.T) {
	watch, clock, _ := newTestStopwatch(t)

	steps := []struct {
		name   string
		action func()
		armed  bool
	}{
		{name: "start", action: func() { watch.Start() }, armed: true},
		{name: "pause", action: func() { watch.TogglePause() }, armed: true},
		{name: "unpause", action: func() { watch.TogglePause() }, armed: true},
		{name: "start again", action: func() { watch.Start() }, armed: true},
		{name: "stop", action: func() { watch.Stop() }, armed: false},
		{name: "resume", action: func() { watch.Resume() }, armed: true},
		{name: "reset", action: watch.Reset, armed: false},
		{name: "import running", action: func() {
			watch.ImportState(model.Snapshot{State: model.StateRunning, StartTime: model.Millis(0)})
		}, armed: true},
		{name: "import paused over running", action: func() {
			watch.ImportState(model.Snapshot{State: model.StatePaused, StartTime: model.Millis(0), BreakStartTime: model.Millis(0)})
		}, armed: true},
		{name: "import stopped", action: func() {
			watch.ImportState(model.Snapshot{State: model.StateStopped, StartTime: model.Millis(0)})
		}, armed: false},
		{name: "start before close", action: func() { watch.Start() }, armed: true},
		{name: "close", action: watch.Close, armed: false},
		{name: "resume after close", action: func() {
			watch.Stop()
			watch.Resume()
		}, armed: false},
	}

	for _, step := range steps {
		step.action()
		want := 0
		if step.armed {
			want = 1
		}
		if got := clock.activeTickers(); got != want {
			t.Fatalf("%s: active tickers = %d, want %d", step.name, got, want)
		}
		if watch.Armed() != step.armed {
			t.Fatalf("%s: armed = %v, want %v", step.name, watch.Armed(), step.armed)
		}
	}
}

func TestTickRefreshesDisplay(t *testing.T) {
	clock := newCountingClock(time.UnixMilli(0))
	refreshed := make(chan int64, 4)
	watch := New(Callbacks{
		OnRefresh: func(snapshot model.Snapshot, now int64) {
			refreshed <- snapshot.ElapsedMs(now)
		},
	}, Config{Clock: clock, RefreshInterval: 3 * time.Second})
	t.Cleanup(watch.Close)

	watch.Start()
	clock.Advance(3 * time.Second)

	select {
	case elapsed := <-refreshed:
		if elapsed != 3000 {
			t.Fatalf("refreshed elapsed = %d, want 3000", elapsed)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for refresh")
	}
}

func TestStaleTickIsIgnored(t *testing.T) {
	clock := newCountingClock(time.UnixMilli(0))
	var refreshes int
	watch := New(Callbacks{
		OnRefresh: func(model.Snapshot, int64) { refreshes++ },
	}, Config{Clock: clock, RefreshInterval: time.Hour})
	t.Cleanup(watch.Close)

	watch.Start()
	watch.mu.Lock()
	stale := watch.generation
	watch.mu.Unlock()

	watch.Stop()
	watch.Resume()
	watch.mu.Lock()
	current := watch.generation
	watch.mu.Unlock()
	if current == stale {
		t.Fatal("expected re-arm to move to a new generation")
	}

	watch.tick(stale, clock.Now())
	if refreshes != 0 {
		t.Fatalf("refreshes = %d, want a stale tick dropped", refreshes)
	}
	watch.tick(current, clock.Now())
	if refreshes != 1 {
		t.Fatalf("refreshes = %d, want the live tick delivered", refreshes)
	}

	if got := clock.createdTickers(); got != 2 {
		t.Fatalf("tickers created = %d, want 2", got)
	}
	if got := clock.activeTickers(); got != 1 {
		t.Fatalf("active tickers = %d, want 1", got)
	}
}

func TestNoRefreshAfterClose(t *testing.T) {
	clock := newCountingClock(time.UnixMilli(0))
	refreshed := make(chan struct{}, 4)
	watch := New(Callbacks{
		OnRefresh: func(model.Snapshot, int64) { refreshed <- struct{}{} },
	}, Config{Clock: clock, RefreshInterval: time.Second})

	watch.Start()
	watch.mu.Lock()
	generation := watch.generation
	watch.mu.Unlock()
	watch.Close()

	watch.tick(generation, clock.Now())
	clock.Advance(5 * time.Second)
	if watch.Advance(clock.Now()) {
		t.Fatal("expected advance after close to be ignored")
	}
	select {
	case <-refreshed:
		t.Fatal("expected no refresh after close")
	case <-time.After(50 * time.Millisecond):
	}
	if got := clock.activeTickers(); got != 0 {
		t.Fatalf("active tickers = %d, want 0", got)
	}
}

func TestAdvanceRefreshesSynchronously(t *testing.T) {
	clock := newCountingClock(time.UnixMilli(0))
	var got []int64
	watch := New(Callbacks{
		OnRefresh: func(snapshot model.Snapshot, now int64) {
			got = append(got, snapshot.BreakMs(now))
		},
	}, Config{Clock: clock, RefreshInterval: time.Hour})
	t.Cleanup(watch.Close)

	if watch.Advance(clock.Now()) {
		t.Fatal("expected advance while idle to be ignored")
	}
	watch.Start()
	watch.TogglePause()
	if !watch.Advance(time.UnixMilli(2500)) {
		t.Fatal("expected advance while paused to be accepted")
	}
	if !reflect.DeepEqual(got, []int64{2500}) {
		t.Fatalf("refreshed breaks = %v, want [2500]", got)
	}
}

func TestSubscribeReceivesStateChanges(t *testing.T) {
	watch, clock, _ := newTestStopwatch(t)
	events := watch.Subscribe(8)

	watch.Start()
	clock.Advance(time.Second)
	watch.TogglePause()
	watch.Advance(clock.Now().Add(time.Second))

	wantTypes := []EventType{EventStateChange, EventStateChange, EventTick}
	wantStates := []model.State{model.StateRunning, model.StatePaused, model.StatePaused}
	for index := range wantTypes {
		event := <-events
		if event.Type != wantTypes[index] || event.State != wantStates[index] {
			t.Fatalf("event %d = %s/%s, want %s/%s", index, event.Type, event.State, wantTypes[index], wantStates[index])
		}
	}

	watch.Close()
	if _, ok := <-events; ok {
		t.Fatal("expected subscription closed after Close")
	}
}

func TestCallbackMayReenterStopwatch(t *testing.T) {
	clock := newCountingClock(time.UnixMilli(0))
	var state model.State
	var watch *Stopwatch
	watch = New(Callbacks{
		OnStop: func(int64) { state = watch.State() },
	}, Config{Clock: clock})
	t.Cleanup(watch.Close)

	watch.Start()
	watch.Stop()
	if state != model.StateStopped {
		t.Fatalf("state seen from callback = %q, want stopped", state)
	}
}
