package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"timetracker/internal/core/model"
	"timetracker/internal/core/session"
	"timetracker/internal/storage"
	"timetracker/internal/tracker"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	fynestorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/jonboulle/clockwork"
)

// ErrSessionInProgress indicates the open activity has tracked time that
// would be lost by replacing it.
var ErrSessionInProgress = errors.New("session in progress")

// Config defines the tracker window's collaborators.
type Config struct {
	Store           *session.Store
	Journal         tracker.Journal
	Stopwatch       model.StopwatchConfig
	Clock           clockwork.Clock
	DefaultCalendar string
	SaveOnClose     bool
	// OnStateChange is called on the UI goroutine whenever the tracked state
	// may have changed.
	OnStateChange func(state model.State)
}

// Window is the tracker UI for one activity at a time. Closing or minimizing
// it hands a live session to the session store.
type Window struct {
	app     fyne.App
	window  fyne.Window
	config  Config
	current *tracker.Tracker

	title     *widget.Entry
	calendar  *widget.Entry
	elapsed   *widget.Label
	breakTime *widget.Label
	startBtn  *widget.Button
	pauseBtn  *widget.Button
	stopBtn   *widget.Button
	resumeBtn *widget.Button
	resetBtn  *widget.Button
	minimize  *widget.Button
	saveBtn   *widget.Button
}

// New creates the tracker window. It stays hidden until Show or Restore.
func New(app fyne.App, config Config) *Window {
	window := app.NewWindow("TimeTracker")

	title := widget.NewEntry()
	title.SetPlaceHolder("What are you working on?")
	calendar := widget.NewEntry()
	calendar.SetPlaceHolder("Calendar")

	elapsed := widget.NewLabelWithStyle("00:00:00", fyne.TextAlignCenter, fyne.TextStyle{Bold: true, Monospace: true})
	breakTime := widget.NewLabelWithStyle("break 00:00", fyne.TextAlignCenter, fyne.TextStyle{Monospace: true})

	activity := &Window{
		app:       app,
		window:    window,
		config:    config,
		title:     title,
		calendar:  calendar,
		elapsed:   elapsed,
		breakTime: breakTime,
	}

	activity.startBtn = widget.NewButton("Start", activity.handle((*tracker.Tracker).Start))
	activity.pauseBtn = widget.NewButton("Break", activity.handle((*tracker.Tracker).TogglePause))
	activity.stopBtn = widget.NewButton("Stop", activity.handle((*tracker.Tracker).Stop))
	activity.resumeBtn = widget.NewButton("Resume", activity.handle((*tracker.Tracker).Resume))
	activity.resetBtn = widget.NewButton("Reset", activity.handle(func(current *tracker.Tracker) bool {
		current.Reset()
		return true
	}))
	activity.minimize = widget.NewButton("Minimize", activity.Minimize)
	activity.saveBtn = widget.NewButton("Save entry", activity.handleSave)

	title.OnChanged = func(text string) {
		if activity.current != nil {
			activity.current.SetTitle(text)
		}
	}
	calendar.OnChanged = func(text string) {
		if activity.current != nil {
			activity.current.SetCalendarID(strings.TrimSpace(text))
		}
	}

	form := container.NewVBox(
		widget.NewLabelWithStyle("Activity", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		title,
		calendar,
		elapsed,
		breakTime,
		container.NewGridWithColumns(3, activity.startBtn, activity.pauseBtn, activity.stopBtn),
		container.NewGridWithColumns(2, activity.resumeBtn, activity.resetBtn),
	)
	buttons := container.NewHBox(activity.minimize, layout.NewSpacer(), activity.saveBtn)
	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(360, 320))
	window.SetCloseIntercept(activity.handleClose)

	activity.syncControls()
	return activity
}

// Show displays the window, starting a fresh activity if none is open.
func (activity *Window) Show() {
	if activity.current == nil {
		activity.attach(tracker.New(activity.config.Store, activity.trackerOptions(activity.config.DefaultCalendar)))
	}
	activity.window.Show()
	activity.window.RequestFocus()
}

// Restore reopens the minimized session. The store is cleared once the window
// owns the session again. An open activity with tracked time, stopped but not
// yet saved included, blocks the restore.
func (activity *Window) Restore() bool {
	if activity.busy() {
		activity.showBusy()
		return false
	}
	restored, ok := tracker.Restore(activity.config.Store, activity.trackerOptions(""))
	if !ok {
		return false
	}
	if activity.current != nil {
		activity.current.Close()
	}
	activity.config.Store.Clear()
	activity.attach(restored)
	activity.window.Show()
	activity.window.RequestFocus()
	return true
}

// Edit opens the activity file at path for tracking, prefilled from its
// frontmatter.
func (activity *Window) Edit(path string) error {
	if activity.busy() {
		activity.showBusy()
		return ErrSessionInProgress
	}
	frontmatter, err := storage.ReadFrontmatter(path)
	if err != nil {
		return err
	}
	edited := tracker.Edit(activity.config.Store, path, frontmatter, activity.trackerOptions(""))
	if edited.CalendarID() == "" {
		edited.SetCalendarID(activity.config.DefaultCalendar)
	}
	if activity.current != nil {
		activity.current.Close()
	}
	activity.attach(edited)
	activity.window.Show()
	activity.window.RequestFocus()
	return nil
}

// ShowOpenFile asks for an activity file and opens it with Edit.
func (activity *Window) ShowOpenFile() {
	activity.window.Show()
	open := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, activity.window)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		_ = reader.Close()
		if err := activity.Edit(path); err != nil && !errors.Is(err, ErrSessionInProgress) {
			dialog.ShowError(err, activity.window)
		}
	}, activity.window)
	open.SetFilter(fynestorage.NewExtensionFileFilter([]string{".md"}))
	open.Show()
}

// TogglePause starts or ends a break on the open activity.
func (activity *Window) TogglePause() bool {
	return activity.apply((*tracker.Tracker).TogglePause)
}

// Stop ends the open activity.
func (activity *Window) Stop() bool {
	return activity.apply((*tracker.Tracker).Stop)
}

// CheckIdle starts a break when idle passes the configured idle-pause
// threshold.
func (activity *Window) CheckIdle(idle time.Duration) bool {
	return activity.apply(func(current *tracker.Tracker) bool {
		return current.PauseIfIdle(idle, activity.config.Stopwatch)
	})
}

// Minimize hands the running session to the store and hides the window.
func (activity *Window) Minimize() {
	if activity.current == nil {
		activity.window.Hide()
		return
	}
	activity.current.Minimize()
	activity.detach()
	activity.window.Hide()
}

// Tracker returns the open activity, if any.
func (activity *Window) Tracker() *tracker.Tracker {
	return activity.current
}

// UpdateConfig applies new preferences to later activities.
func (activity *Window) UpdateConfig(config Config) {
	activity.config = config
}

// Status returns the live status of the open activity.
func (activity *Window) Status() (model.State, string, string) {
	if activity.current == nil {
		return model.StateIdle, model.FormatClock(0), model.FormatMinutesSeconds(0)
	}
	watch := activity.current.Stopwatch()
	return watch.State(), watch.FormatElapsed(), watch.FormatBreak()
}

// Shutdown disposes the open activity, saving it when still active.
func (activity *Window) Shutdown() {
	if activity.current == nil {
		return
	}
	activity.current.Close()
	activity.detach()
}

func (activity *Window) trackerOptions(calendarID string) tracker.Options {
	return tracker.Options{
		Clock:           activity.config.Clock,
		RefreshInterval: activity.config.Stopwatch.RefreshInterval,
		CalendarID:      calendarID,
		OnRefresh: func(model.Snapshot, int64) {
			fyne.Do(activity.refreshLabels)
		},
	}
}

func (activity *Window) attach(current *tracker.Tracker) {
	activity.current = current
	form := current.Form()
	activity.title.SetText(form.Title)
	activity.calendar.SetText(current.CalendarID())
	activity.syncControls()
}

func (activity *Window) detach() {
	activity.current = nil
	activity.title.SetText("")
	activity.calendar.SetText("")
	activity.syncControls()
}

func (activity *Window) handle(transition func(*tracker.Tracker) bool) func() {
	return func() {
		activity.apply(transition)
	}
}

// apply runs transition on the open activity and brings the controls and
// the tray in line with the resulting state.
func (activity *Window) apply(transition func(*tracker.Tracker) bool) bool {
	if activity.current == nil {
		return false
	}
	accepted := transition(activity.current)
	activity.syncControls()
	return accepted
}

func (activity *Window) busy() bool {
	return activity.current != nil && activity.current.Stopwatch().State() != model.StateIdle
}

func (activity *Window) showBusy() {
	dialog.ShowInformation("Session in progress", "Save, reset, or minimize the current activity first.", activity.window)
	activity.window.Show()
}

func (activity *Window) handleSave() {
	if activity.current == nil {
		return
	}
	if activity.config.Journal == nil {
		dialog.ShowInformation("Journal unavailable", "Time entries cannot be saved right now.", activity.window)
		return
	}
	entry, err := activity.current.Commit(context.Background(), activity.config.Journal)
	if err != nil {
		dialog.ShowError(err, activity.window)
		return
	}
	activity.syncControls()
	dialog.ShowInformation("Entry saved", fmt.Sprintf("%s: %s worked, %.2f min break",
		entry.Title, model.FormatClock(entry.WorkMs), entry.BreakMinutes), activity.window)
}

func (activity *Window) handleClose() {
	if activity.current != nil {
		if activity.config.SaveOnClose {
			activity.current.Close()
		} else {
			activity.current.Stopwatch().Close()
		}
		activity.detach()
	}
	activity.window.Hide()
}

func (activity *Window) refreshLabels() {
	state, elapsed, breakTime := activity.Status()
	activity.elapsed.SetText(elapsed)
	activity.breakTime.SetText("break " + breakTime)
	if activity.config.OnStateChange != nil {
		activity.config.OnStateChange(state)
	}
}

func (activity *Window) syncControls() {
	state, _, _ := activity.Status()
	setEnabled(activity.startBtn, activity.current != nil && state != model.StateRunning)
	setEnabled(activity.pauseBtn, state.Active())
	setEnabled(activity.stopBtn, state.Active())
	setEnabled(activity.resumeBtn, state == model.StateStopped)
	setEnabled(activity.resetBtn, state != model.StateIdle)
	setEnabled(activity.saveBtn, state == model.StateStopped)
	if state == model.StatePaused {
		activity.pauseBtn.SetText("End break")
	} else {
		activity.pauseBtn.SetText("Break")
	}
	activity.refreshLabels()
}

func setEnabled(button *widget.Button, enabled bool) {
	if enabled {
		button.Enable()
	} else {
		button.Disable()
	}
}
