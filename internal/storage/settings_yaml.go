package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"timetracker/internal/ui/preferences"

	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	RefreshIntervalMs int    `yaml:"refresh_interval_ms"`
	ShowTrayStatus    bool   `yaml:"show_tray_status"`
	IdlePauseEnabled  bool   `yaml:"idle_pause_enabled"`
	IdlePauseMinutes  int    `yaml:"idle_pause_minutes"`
	SaveOnClose       bool   `yaml:"save_on_close"`
	DefaultCalendar   string `yaml:"default_calendar"`
}

// LoadSettings reads user preferences from YAML in dir.
// If the settings file does not exist, default settings are returned.
func LoadSettings(dir string) (preferences.Settings, error) {
	settings := preferences.DefaultSettings()

	rawData, err := os.ReadFile(filepath.Join(dir, settingsFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// SaveSettings writes user preferences to YAML in dir.
func SaveSettings(dir string, settings preferences.Settings) error {
	fileData := yamlSettings{
		RefreshIntervalMs: int(settings.RefreshInterval / time.Millisecond),
		ShowTrayStatus:    settings.ShowTrayStatus,
		IdlePauseEnabled:  settings.IdlePauseEnabled,
		IdlePauseMinutes:  int(settings.IdlePauseAfter / time.Minute),
		SaveOnClose:       settings.SaveOnClose,
		DefaultCalendar:   settings.DefaultCalendar,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}
	return writeFile(dir, settingsFileName, serialized)
}

func applyYamlSettings(settings *preferences.Settings, fileData yamlSettings) {
	if interval := time.Duration(fileData.RefreshIntervalMs) * time.Millisecond; interval >= preferences.MinRefreshInterval {
		settings.RefreshInterval = interval
	}
	if fileData.IdlePauseMinutes > 0 {
		settings.IdlePauseAfter = time.Duration(fileData.IdlePauseMinutes) * time.Minute
	}
	if calendar := strings.TrimSpace(fileData.DefaultCalendar); calendar != "" {
		settings.DefaultCalendar = calendar
	}

	settings.ShowTrayStatus = fileData.ShowTrayStatus
	settings.IdlePauseEnabled = fileData.IdlePauseEnabled
	settings.SaveOnClose = fileData.SaveOnClose
}

// writeFile replaces dir/name through a temporary file so readers never see
// a partial write.
func writeFile(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := temp.Name()
	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tempPath, filepath.Join(dir, name)); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
