// Package tracker hosts one tracked activity: it wires a stopwatch to the
// activity's form fields and moves the session in and out of the minimized
// session store.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"timetracker/internal/core/model"
	"timetracker/internal/core/session"
	"timetracker/internal/core/stopwatch"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ErrNotStopped indicates a commit was attempted before the stopwatch stopped.
var ErrNotStopped = errors.New("stopwatch is not stopped")

// Journal records completed activities.
type Journal interface {
	AppendEntry(ctx context.Context, entry model.TimeEntry) error
}

// Options configures a Tracker.
type Options struct {
	Clock           clockwork.Clock
	RefreshInterval time.Duration
	CalendarID      string
	// OnRefresh is forwarded to the stopwatch display refresh.
	OnRefresh func(snapshot model.Snapshot, now int64)
}

// Form holds the activity fields the stopwatch writes into, plus any other
// pending values the host carries through a minimize.
type Form struct {
	Title        string
	StartTime    *time.Time
	EndTime      *time.Time
	BreakMinutes float64
	Fields       map[string]any
}

// Tracker owns the stopwatch of one create or edit workflow.
type Tracker struct {
	mu         sync.Mutex
	store      *session.Store
	clock      clockwork.Clock
	watch      *stopwatch.Stopwatch
	modalType  model.ModalType
	filePath   *string
	original   map[string]any
	calendarID string
	form       Form
	disposed   bool
}

// New starts a create workflow for a new activity.
func New(store *session.Store, options Options) *Tracker {
	tracker := newTracker(store, model.ModalCreate, options)
	tracker.watch = stopwatch.New(tracker.callbacks(options), tracker.stopwatchConfig(options))
	return tracker
}

// Edit starts an edit workflow for an existing activity file. The frontmatter
// prefills the form and is kept as the original state to diff against.
func Edit(store *session.Store, filePath string, frontmatter map[string]any, options Options) *Tracker {
	tracker := newTracker(store, model.ModalEdit, options)
	tracker.filePath = &filePath
	tracker.original = model.CloneMap(frontmatter)
	tracker.form = formFromData(frontmatter)
	if calendar, ok := frontmatter[fieldCalendar].(string); ok && calendar != "" && options.CalendarID == "" {
		tracker.calendarID = calendar
	}
	tracker.watch = stopwatch.New(tracker.callbacks(options), tracker.stopwatchConfig(options))
	return tracker
}

// Restore rebuilds a tracker from the minimized session, resuming its
// stopwatch where it left off. The record stays in the store; callers decide
// when to Clear it.
func Restore(store *session.Store, options Options) (*Tracker, bool) {
	record, ok := store.GetState()
	if !ok {
		return nil, false
	}

	tracker := newTracker(store, record.ModalType, options)
	tracker.filePath = record.FilePath
	tracker.original = record.OriginalFrontmatter
	tracker.calendarID = record.CalendarID
	tracker.form = formFromData(record.FormData)
	tracker.watch = stopwatch.Restore(record.Stopwatch, tracker.callbacks(options), tracker.stopwatchConfig(options))
	return tracker, true
}

func newTracker(store *session.Store, modalType model.ModalType, options Options) *Tracker {
	clock := options.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Tracker{
		store:      store,
		clock:      clock,
		modalType:  modalType,
		calendarID: options.CalendarID,
	}
}

func (tracker *Tracker) stopwatchConfig(options Options) stopwatch.Config {
	return stopwatch.Config{
		RefreshInterval: options.RefreshInterval,
		Clock:           tracker.clock,
	}
}

func (tracker *Tracker) callbacks(options Options) stopwatch.Callbacks {
	return stopwatch.Callbacks{
		OnStart: func(startTime int64) {
			started := time.UnixMilli(startTime)
			tracker.mu.Lock()
			tracker.form.StartTime = &started
			tracker.form.EndTime = nil
			tracker.mu.Unlock()
		},
		OnStop: func(endTime int64) {
			ended := time.UnixMilli(endTime)
			tracker.mu.Lock()
			tracker.form.EndTime = &ended
			tracker.mu.Unlock()
		},
		OnBreakUpdate: func(breakMinutes float64) {
			tracker.mu.Lock()
			tracker.form.BreakMinutes = breakMinutes
			tracker.mu.Unlock()
		},
		OnRefresh: options.OnRefresh,
	}
}

// Stopwatch returns the tracker's stopwatch.
func (tracker *Tracker) Stopwatch() *stopwatch.Stopwatch {
	return tracker.watch
}

// ModalType reports which workflow created the tracker.
func (tracker *Tracker) ModalType() model.ModalType {
	return tracker.modalType
}

// CalendarID returns the owning calendar.
func (tracker *Tracker) CalendarID() string {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	return tracker.calendarID
}

// SetCalendarID moves the activity to another calendar.
func (tracker *Tracker) SetCalendarID(calendarID string) {
	tracker.mu.Lock()
	tracker.calendarID = calendarID
	tracker.mu.Unlock()
}

// Form returns a copy of the current form.
func (tracker *Tracker) Form() Form {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	form := tracker.form
	form.Fields = model.CloneMap(tracker.form.Fields)
	return form
}

// SetTitle updates the activity title.
func (tracker *Tracker) SetTitle(title string) {
	tracker.mu.Lock()
	tracker.form.Title = title
	tracker.mu.Unlock()
}

// SetField stores an extra pending form value.
func (tracker *Tracker) SetField(key string, value any) {
	tracker.mu.Lock()
	if tracker.form.Fields == nil {
		tracker.form.Fields = map[string]any{}
	}
	tracker.form.Fields[key] = value
	tracker.mu.Unlock()
}

// Start begins tracking.
func (tracker *Tracker) Start() bool {
	return tracker.watch.Start()
}

// TogglePause starts or ends a break.
func (tracker *Tracker) TogglePause() bool {
	return tracker.watch.TogglePause()
}

// Stop ends tracking.
func (tracker *Tracker) Stop() bool {
	return tracker.watch.Stop()
}

// Resume continues a stopped activity.
func (tracker *Tracker) Resume() bool {
	return tracker.watch.Resume()
}

// Reset discards the tracked time.
func (tracker *Tracker) Reset() {
	tracker.watch.Reset()
}

// Minimize hands the session to the store and disposes the stopwatch. The
// tracker must not be used afterwards.
func (tracker *Tracker) Minimize() bool {
	if !tracker.markDisposed() {
		return false
	}
	tracker.store.SaveState(tracker.record())
	tracker.watch.Close()
	return true
}

// Close disposes the tracker. An active stopwatch is saved to the store first
// so closing the window never loses a running session.
func (tracker *Tracker) Close() (saved bool) {
	if !tracker.markDisposed() {
		return false
	}
	if tracker.watch.IsActive() {
		tracker.store.SaveState(tracker.record())
		saved = true
		log.Printf("tracker closed while active; session minimized")
	}
	tracker.watch.Close()
	return saved
}

// CheckIdle pauses a running stopwatch once idle reaches threshold. A zero
// threshold disables the check.
func (tracker *Tracker) CheckIdle(idle, threshold time.Duration) bool {
	if threshold <= 0 || idle < threshold {
		return false
	}
	if tracker.watch.State() != model.StateRunning {
		return false
	}
	if !tracker.watch.TogglePause() {
		return false
	}
	log.Printf("idle for %s; break started", idle.Truncate(time.Second))
	return true
}

// PauseIfIdle applies the idle-pause preferences in config to an idle reading.
func (tracker *Tracker) PauseIfIdle(idle time.Duration, config model.StopwatchConfig) bool {
	if !config.IdlePauseEnabled {
		return false
	}
	return tracker.CheckIdle(idle, config.IdlePauseAfter)
}

// Commit writes the stopped activity to journal and resets the stopwatch for
// reuse.
func (tracker *Tracker) Commit(ctx context.Context, journal Journal) (model.TimeEntry, error) {
	if tracker.watch.State() != model.StateStopped {
		return model.TimeEntry{}, ErrNotStopped
	}

	snapshot := tracker.watch.ExportState()
	form := tracker.Form()
	if form.StartTime == nil || form.EndTime == nil {
		return model.TimeEntry{}, fmt.Errorf("commit entry: form is missing start or end time")
	}
	entry := model.TimeEntry{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(form.Title),
		CalendarID:   tracker.CalendarID(),
		Start:        *form.StartTime,
		End:          *form.EndTime,
		BreakMinutes: form.BreakMinutes,
		CreatedAt:    tracker.clock.Now(),
	}
	if tracker.filePath != nil {
		entry.FilePath = *tracker.filePath
	}
	entry.WorkMs = entry.End.Sub(entry.Start).Milliseconds() - snapshot.TotalBreakMs
	if entry.WorkMs < 0 {
		entry.WorkMs = 0
	}

	if err := journal.AppendEntry(ctx, entry); err != nil {
		return model.TimeEntry{}, fmt.Errorf("commit entry: %w", err)
	}

	tracker.watch.Reset()
	tracker.mu.Lock()
	tracker.form.StartTime = nil
	tracker.form.EndTime = nil
	tracker.form.BreakMinutes = 0
	tracker.mu.Unlock()
	return entry, nil
}

func (tracker *Tracker) markDisposed() bool {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	if tracker.disposed {
		return false
	}
	tracker.disposed = true
	return true
}

func (tracker *Tracker) record() model.SessionRecord {
	tracker.mu.Lock()
	formData := formToData(tracker.form)
	record := model.SessionRecord{
		ModalType:           tracker.modalType,
		FilePath:            tracker.filePath,
		FormData:            formData,
		OriginalFrontmatter: tracker.original,
		CalendarID:          tracker.calendarID,
	}
	tracker.mu.Unlock()

	record.Stopwatch = tracker.watch.ExportState()
	record.MinimizedAt = tracker.clock.Now().UnixMilli()
	return record
}
