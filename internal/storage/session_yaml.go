package storage

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"timetracker/internal/core/model"
	"timetracker/internal/core/session"

	"gopkg.in/yaml.v3"
)

const sessionFileName = "session.yaml"

// ErrNoSession indicates no minimized session has been persisted.
var ErrNoSession = errors.New("no minimized session")

// LoadSession reads the persisted minimized session from dir.
func LoadSession(dir string) (model.SessionRecord, error) {
	rawData, err := os.ReadFile(filepath.Join(dir, sessionFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.SessionRecord{}, ErrNoSession
		}
		return model.SessionRecord{}, fmt.Errorf("read session file: %w", err)
	}

	var record model.SessionRecord
	if err := yaml.Unmarshal(rawData, &record); err != nil {
		return model.SessionRecord{}, fmt.Errorf("parse session yaml: %w", err)
	}
	return record, nil
}

// SaveSession writes record to dir, replacing any previous session.
func SaveSession(dir string, record model.SessionRecord) error {
	serialized, err := yaml.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal session yaml: %w", err)
	}
	return writeFile(dir, sessionFileName, serialized)
}

// ClearSession removes the persisted session. A missing file is not an error.
func ClearSession(dir string) error {
	err := os.Remove(filepath.Join(dir, sessionFileName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// BindSession loads any persisted session into store and keeps dir in sync
// with later saves and clears. Write failures are logged; the in-memory store
// stays authoritative.
func BindSession(store *session.Store, dir string) error {
	record, err := LoadSession(dir)
	switch {
	case err == nil:
		store.SaveState(record)
	case !errors.Is(err, ErrNoSession):
		return err
	}

	store.OnChange(func(record model.SessionRecord, ok bool) {
		if ok {
			if err := SaveSession(dir, record); err != nil {
				log.Printf("persist minimized session: %v", err)
			}
			return
		}
		if err := ClearSession(dir); err != nil {
			log.Printf("clear minimized session: %v", err)
		}
	})
	return nil
}
