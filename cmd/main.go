package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"timetracker/internal/config"
	"timetracker/internal/core/model"
	"timetracker/internal/core/session"
	"timetracker/internal/platform"
	"timetracker/internal/storage"
	"timetracker/internal/storage/sqlite"
	"timetracker/internal/tracker"
	"timetracker/internal/ui/activity"
	"timetracker/internal/ui/preferences"
	"timetracker/internal/ui/tray"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	appName      = "TimeTracker"
	entriesFile  = "entries.db"
	recentLimit  = 5
	statusPeriod = time.Second
)

func main() {
	envConfig, err := config.LoadEnv()
	if err != nil {
		log.Printf("environment: %v", err)
		return
	}

	configDir, err := platform.ConfigDir(appName, envConfig.ConfigDir)
	if err != nil {
		log.Printf("config directory: %v", err)
		return
	}

	settings, err := storage.LoadSettings(configDir)
	if err != nil {
		log.Printf("load settings: %v", err)
	}
	if envConfig.RefreshInterval >= preferences.MinRefreshInterval {
		settings.RefreshInterval = envConfig.RefreshInterval
	}

	store := session.NewStore(nil)
	if err := storage.BindSession(store, configDir); err != nil {
		log.Printf("restore minimized session: %v", err)
	}

	dbPath := envConfig.DBPath
	if dbPath == "" {
		dbPath = filepath.Join(configDir, entriesFile)
	}
	var journal tracker.Journal
	entries, err := sqlite.Open(dbPath)
	if err != nil {
		log.Printf("open journal: %v", err)
	} else {
		journal = entries
		defer func() {
			_ = entries.Close()
		}()
	}

	if envConfig.Headless {
		printStatus(store, entries)
		return
	}

	activate := make(chan struct{}, 1)
	guard, err := platform.AcquireSingleInstance(appName, func() {
		select {
		case activate <- struct{}{}:
		default:
		}
	})
	if err != nil {
		if errors.Is(err, platform.ErrAlreadyRunning) {
			log.Printf("%s is already running", appName)
		} else {
			log.Printf("single instance: %v", err)
		}
		return
	}
	defer func() {
		_ = guard.Release()
	}()

	fyneApp := app.NewWithID("com.timetracker.app")
	fyneApp.SetIcon(theme.HistoryIcon())
	desktopApp, ok := fyneApp.(desktop.App)
	if !ok {
		log.Printf("system tray unsupported on this platform")
		return
	}

	trayWindow := fyneApp.NewWindow(appName)
	trayWindow.SetContent(widget.NewLabel("TimeTracker is running in the system tray."))
	trayWindow.SetCloseIntercept(func() {
		trayWindow.Hide()
	})
	trayWindow.Hide()
	desktopApp.SetSystemTrayWindow(trayWindow)
	desktopApp.SetSystemTrayIcon(trayIcon(model.StateIdle))

	var trayManager *tray.Manager
	activityConfig := func(settings preferences.Settings) activity.Config {
		return activity.Config{
			Store:           store,
			Journal:         journal,
			Stopwatch:       settings.StopwatchConfig(),
			DefaultCalendar: settings.DefaultCalendar,
			SaveOnClose:     settings.SaveOnClose,
			OnStateChange: func(state model.State) {
				if trayManager == nil {
					return
				}
				trayManager.SetTracking(state)
				desktopApp.SetSystemTrayIcon(trayIcon(state))
			},
		}
	}
	activityWindow := activity.New(fyneApp, activityConfig(settings))

	prefsWindow := preferences.New(fyneApp, settings, func(updated preferences.Settings) {
		settings = updated
		activityWindow.UpdateConfig(activityConfig(settings))
		trayManager.SetShowStatus(settings.ShowTrayStatus)
		if err := storage.SaveSettings(configDir, settings); err != nil {
			log.Printf("save settings: %v", err)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trayManager = tray.New(desktopApp, tray.Callbacks{
		OnOpen:     activityWindow.Show,
		OnEditFile: activityWindow.ShowOpenFile,
		OnTogglePause: func() {
			activityWindow.TogglePause()
		},
		OnStop: func() {
			activityWindow.Stop()
		},
		OnRestore: func() {
			activityWindow.Restore()
		},
		OnDiscard: store.Clear,
		OnPreferences: func() {
			prefsWindow.Show()
		},
		OnQuit: func() {
			cancel()
			activityWindow.Shutdown()
			fyneApp.Quit()
		},
	})
	trayManager.SetShowStatus(settings.ShowTrayStatus)
	trayManager.SetMinimized(store.HasMinimizedModal())

	store.OnChange(func(_ model.SessionRecord, ok bool) {
		fyne.Do(func() {
			trayManager.SetMinimized(ok)
		})
	})

	go func() {
		ticker := time.NewTicker(statusPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-activate:
				fyne.Do(func() {
					if !activityWindow.Restore() {
						activityWindow.Show()
					}
				})
			case <-ticker.C:
				fyne.Do(func() {
					trayManager.SetStatus(statusLine(activityWindow, store))
				})
			}
		}
	}()

	idleInterval := settings.StopwatchConfig().IdleCheckInterval
	go func() {
		err := platform.WatchIdle(ctx, platform.NewIdleProvider(), idleInterval,
			func(idle time.Duration) {
				fyne.Do(func() {
					activityWindow.CheckIdle(idle)
				})
			},
			func(err error) {
				log.Printf("idle check: %v", err)
			})
		if errors.Is(err, platform.ErrIdleUnsupported) {
			log.Printf("idle pause disabled: %v", err)
		}
	}()

	if store.HasMinimizedModal() {
		activityWindow.Restore()
	} else {
		activityWindow.Show()
	}
	fyneApp.Run()
	activityWindow.Shutdown()
}

// statusLine describes the open activity, falling back to the minimized one.
func statusLine(activityWindow *activity.Window, store *session.Store) string {
	state, elapsed, breakTime := activityWindow.Status()
	if state != model.StateIdle {
		return tray.StatusText(state, elapsed, breakTime)
	}
	if record, ok := store.GetState(); ok {
		return tray.MinimizedStatusText(record, store.FormatElapsed(), store.FormatBreak())
	}
	return tray.StatusText(model.StateIdle, elapsed, breakTime)
}

func trayIcon(state model.State) fyne.Resource {
	switch state {
	case model.StateRunning:
		return theme.MediaPlayIcon()
	case model.StatePaused:
		return theme.MediaPauseIcon()
	default:
		return theme.HistoryIcon()
	}
}

func printStatus(store *session.Store, entries *sqlite.Store) {
	if record, ok := store.GetState(); ok {
		fmt.Fprintln(os.Stdout, tray.MinimizedStatusText(record, store.FormatElapsed(), store.FormatBreak()))
	} else {
		fmt.Fprintln(os.Stdout, "no minimized session")
	}

	if entries == nil {
		return
	}
	recent, err := entries.ListEntries(context.Background(), "", recentLimit)
	if err != nil {
		log.Printf("list entries: %v", err)
		return
	}
	for _, entry := range recent {
		fmt.Fprintf(os.Stdout, "%s  %-24s %s worked, %.2f min break\n",
			entry.Start.Local().Format("2006-01-02 15:04"), entry.Title,
			model.FormatClock(entry.WorkMs), entry.BreakMinutes)
	}
}
