package preferences

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// Window handles the preferences UI.
type Window struct {
	window      fyne.Window
	settings    Settings
	onSave      func(Settings)
	onCancel    func()
	refresh     *widget.Entry
	idleAfter   *widget.Entry
	calendar    *widget.Entry
	trayStatus  *widget.Check
	idlePause   *widget.Check
	saveOnClose *widget.Check
}

// formValues is the raw text and toggles read back from the window.
type formValues struct {
	refreshMs   string
	idleMinutes string
	calendar    string
	trayStatus  bool
	idlePause   bool
	saveOnClose bool
}

// New creates a preferences window.
func New(app fyne.App, settings Settings, onSave func(Settings)) *Window {
	window := app.NewWindow("TimeTracker Settings")

	refresh := widget.NewEntry()
	idleAfter := widget.NewEntry()
	calendar := widget.NewEntry()
	calendar.SetPlaceHolder("default")

	trayStatus := widget.NewCheck("Show elapsed time in the tray", nil)
	idlePause := widget.NewCheck("Start a break when the computer is idle", nil)
	saveOnClose := widget.NewCheck("Minimize running sessions when the window closes", nil)

	form := container.NewVBox(
		widget.NewLabelWithStyle("Stopwatch", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Refresh every"), refresh, widget.NewLabel("ms")),
		trayStatus,
		saveOnClose,
		widget.NewLabelWithStyle("Idle", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		idlePause,
		container.NewHBox(widget.NewLabel("Idle after"), idleAfter, widget.NewLabel("min")),
		widget.NewLabelWithStyle("Journal", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Default calendar"), calendar),
	)

	saveButton := widget.NewButton("Save", nil)
	cancelButton := widget.NewButton("Cancel", nil)
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(420, 380))

	prefs := &Window{
		window:      window,
		onSave:      onSave,
		refresh:     refresh,
		idleAfter:   idleAfter,
		calendar:    calendar,
		trayStatus:  trayStatus,
		idlePause:   idlePause,
		saveOnClose: saveOnClose,
	}
	prefs.UpdateSettings(settings)

	saveButton.OnTapped = prefs.handleSave
	cancelButton.OnTapped = func() {
		window.Hide()
		prefs.UpdateSettings(prefs.settings)
		if prefs.onCancel != nil {
			prefs.onCancel()
		}
	}

	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings Settings) {
	prefs.settings = settings
	prefs.refresh.SetText(fmt.Sprintf("%d", settings.RefreshInterval.Milliseconds()))
	prefs.idleAfter.SetText(fmt.Sprintf("%d", int(settings.IdlePauseAfter.Minutes())))
	prefs.calendar.SetText(settings.DefaultCalendar)
	prefs.trayStatus.SetChecked(settings.ShowTrayStatus)
	prefs.idlePause.SetChecked(settings.IdlePauseEnabled)
	prefs.saveOnClose.SetChecked(settings.SaveOnClose)
}

func (prefs *Window) handleSave() {
	settings := applyValues(prefs.settings, formValues{
		refreshMs:   prefs.refresh.Text,
		idleMinutes: prefs.idleAfter.Text,
		calendar:    prefs.calendar.Text,
		trayStatus:  prefs.trayStatus.Checked,
		idlePause:   prefs.idlePause.Checked,
		saveOnClose: prefs.saveOnClose.Checked,
	})

	prefs.settings = settings
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.window.Hide()
}

// applyValues merges form input into settings. Invalid numbers keep the
// previous value.
func applyValues(settings Settings, values formValues) Settings {
	if ms, ok := parsePositiveInt(values.refreshMs); ok && ms >= minRefreshMs {
		settings.RefreshInterval = time.Duration(ms) * time.Millisecond
	}
	if minutes, ok := parsePositiveInt(values.idleMinutes); ok {
		settings.IdlePauseAfter = time.Duration(minutes) * time.Minute
	}
	if calendar := strings.TrimSpace(values.calendar); calendar != "" {
		settings.DefaultCalendar = calendar
	}
	settings.ShowTrayStatus = values.trayStatus
	settings.IdlePauseEnabled = values.idlePause
	settings.SaveOnClose = values.saveOnClose
	return settings
}

func parsePositiveInt(value string) (int, bool) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
