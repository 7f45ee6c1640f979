package preferences

import (
	"time"

	"timetracker/internal/core/model"
)

// MinRefreshInterval is the shortest accepted display refresh.
const MinRefreshInterval = 100 * time.Millisecond

const minRefreshMs = int(MinRefreshInterval / time.Millisecond)

// Settings defines editable user preferences.
type Settings struct {
	RefreshInterval  time.Duration
	ShowTrayStatus   bool
	IdlePauseEnabled bool
	IdlePauseAfter   time.Duration
	SaveOnClose      bool
	DefaultCalendar  string
}

// DefaultSettings returns default settings for TimeTracker.
func DefaultSettings() Settings {
	return Settings{
		RefreshInterval:  time.Second,
		ShowTrayStatus:   true,
		IdlePauseEnabled: false,
		IdlePauseAfter:   5 * time.Minute,
		SaveOnClose:      true,
		DefaultCalendar:  "default",
	}
}

// StopwatchConfig converts settings to StopwatchConfig.
func (settings Settings) StopwatchConfig() model.StopwatchConfig {
	return model.StopwatchConfig{
		RefreshInterval:   settings.RefreshInterval,
		IdlePauseEnabled:  settings.IdlePauseEnabled,
		IdlePauseAfter:    settings.IdlePauseAfter,
		IdleCheckInterval: 5 * time.Second,
	}
}
