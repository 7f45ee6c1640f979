package tray

import (
	"fmt"

	"timetracker/internal/core/model"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnOpen        func()
	OnEditFile    func()
	OnTogglePause func()
	OnStop        func()
	OnRestore     func()
	OnDiscard     func()
	OnPreferences func()
	OnQuit        func()
}

// Manager handles system tray state.
type Manager struct {
	app         desktop.App
	statusItem  *fyne.MenuItem
	openItem    *fyne.MenuItem
	editItem    *fyne.MenuItem
	pauseItem   *fyne.MenuItem
	stopItem    *fyne.MenuItem
	restoreItem *fyne.MenuItem
	discardItem *fyne.MenuItem
	prefsItem   *fyne.MenuItem
	quitItem    *fyne.MenuItem
	showStatus  bool
	statusLabel string
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:         app,
		showStatus:  true,
		statusLabel: "idle",
	}

	manager.statusItem = fyne.NewMenuItem("", nil)
	manager.statusItem.Disabled = true
	manager.openItem = fyne.NewMenuItem("Open tracker", invoke(callbacks.OnOpen))
	manager.editItem = fyne.NewMenuItem("Edit activity file...", invoke(callbacks.OnEditFile))
	manager.pauseItem = fyne.NewMenuItem("Pause", invoke(callbacks.OnTogglePause))
	manager.stopItem = fyne.NewMenuItem("Stop", invoke(callbacks.OnStop))
	manager.restoreItem = fyne.NewMenuItem("Restore minimized session", invoke(callbacks.OnRestore))
	manager.discardItem = fyne.NewMenuItem("Discard minimized session", invoke(callbacks.OnDiscard))
	manager.prefsItem = fyne.NewMenuItem("Preferences", invoke(callbacks.OnPreferences))
	manager.quitItem = fyne.NewMenuItem("Quit", invoke(callbacks.OnQuit))

	manager.SetTracking(model.StateIdle)
	manager.SetMinimized(false)
	return manager
}

// SetStatus updates the status label.
func (manager *Manager) SetStatus(status string) {
	if status == manager.statusLabel {
		return
	}
	manager.statusLabel = status
	manager.refreshMenu()
}

// SetShowStatus toggles the live status line.
func (manager *Manager) SetShowStatus(show bool) {
	manager.showStatus = show
	manager.refreshMenu()
}

// SetTracking enables the actions that make sense for state.
func (manager *Manager) SetTracking(state model.State) {
	manager.pauseItem.Label = PauseLabel(state)
	manager.pauseItem.Disabled = !state.Active()
	manager.stopItem.Disabled = !state.Active()
	manager.refreshMenu()
}

// SetMinimized enables the restore and discard actions.
func (manager *Manager) SetMinimized(minimized bool) {
	manager.restoreItem.Disabled = !minimized
	manager.discardItem.Disabled = !minimized
	manager.refreshMenu()
}

// PauseLabel returns the pause item label for state.
func PauseLabel(state model.State) string {
	if state == model.StatePaused {
		return "End break"
	}
	return "Take a break"
}

// StatusText formats the live tracking status.
func StatusText(state model.State, elapsed, breakTime string) string {
	switch state {
	case model.StateRunning:
		return fmt.Sprintf("tracking %s (break %s)", elapsed, breakTime)
	case model.StatePaused:
		return fmt.Sprintf("on break %s (total %s)", breakTime, elapsed)
	case model.StateStopped:
		return fmt.Sprintf("stopped at %s", elapsed)
	default:
		return "idle"
	}
}

// MinimizedStatusText formats the status of a minimized session.
func MinimizedStatusText(record model.SessionRecord, elapsed, breakTime string) string {
	title, _ := record.FormData["title"].(string)
	if title == "" {
		title = "untitled"
	}
	return fmt.Sprintf("%s minimized: %s", title, StatusText(record.Stopwatch.State, elapsed, breakTime))
}

func (manager *Manager) refreshMenu() {
	if manager.app == nil {
		return
	}
	items := []*fyne.MenuItem{}
	if manager.showStatus {
		manager.statusItem.Label = fmt.Sprintf("Status: %s", manager.statusLabel)
		items = append(items, manager.statusItem, fyne.NewMenuItemSeparator())
	}
	items = append(items,
		manager.openItem,
		manager.editItem,
		manager.pauseItem,
		manager.stopItem,
		fyne.NewMenuItemSeparator(),
		manager.restoreItem,
		manager.discardItem,
		fyne.NewMenuItemSeparator(),
		manager.prefsItem,
		manager.quitItem,
	)
	manager.app.SetSystemTrayMenu(fyne.NewMenu("TimeTracker", items...))
}

func invoke(callback func()) func() {
	return func() {
		if callback != nil {
			callback()
		}
	}
}
