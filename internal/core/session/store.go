// Package session holds the minimized tracking session: at most one stopwatch
// snapshot plus host metadata, kept alive after the UI that produced it is
// gone.
package session

import (
	"sync"
	"time"

	"timetracker/internal/core/model"

	"github.com/jonboulle/clockwork"
)

// Clock supplies the current time for derived queries.
type Clock interface {
	Now() time.Time
}

// Listener is notified after every save or clear. ok is false after a clear.
type Listener func(record model.SessionRecord, ok bool)

// Store holds zero or one SessionRecord. Only one tracked activity can be
// minimized at a time, so SaveState always replaces.
type Store struct {
	mu        sync.RWMutex
	clock     Clock
	record    *model.SessionRecord
	listeners []Listener
}

// NewStore creates an empty store. A nil clock uses the system time.
func NewStore(clock Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{clock: clock}
}

// OnChange registers a listener for saves and clears.
func (store *Store) OnChange(listener Listener) {
	if listener == nil {
		return
	}
	store.mu.Lock()
	store.listeners = append(store.listeners, listener)
	store.mu.Unlock()
}

// SaveState replaces any existing record. Nothing from the previous record is
// merged in.
func (store *Store) SaveState(record model.SessionRecord) {
	stored := record.Clone()
	store.mu.Lock()
	store.record = &stored
	listeners := append([]Listener(nil), store.listeners...)
	store.mu.Unlock()

	for _, listener := range listeners {
		listener(stored.Clone(), true)
	}
}

// GetState returns a copy of the current record. Reading never clears it.
func (store *Store) GetState() (model.SessionRecord, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	if store.record == nil {
		return model.SessionRecord{}, false
	}
	return store.record.Clone(), true
}

// HasMinimizedModal reports whether a record is stored.
func (store *Store) HasMinimizedModal() bool {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.record != nil
}

// Clear removes the record. Clearing an empty store is a no-op and does not
// notify listeners.
func (store *Store) Clear() {
	store.mu.Lock()
	if store.record == nil {
		store.mu.Unlock()
		return
	}
	store.record = nil
	listeners := append([]Listener(nil), store.listeners...)
	store.mu.Unlock()

	for _, listener := range listeners {
		listener(model.SessionRecord{}, false)
	}
}

// ElapsedMs returns the wall-clock time since the stored start time.
func (store *Store) ElapsedMs() int64 {
	snapshot, ok := store.snapshot()
	if !ok {
		return 0
	}
	return snapshot.ElapsedMs(store.now())
}

// BreakMs returns the stored break total plus a break in progress.
func (store *Store) BreakMs() int64 {
	snapshot, ok := store.snapshot()
	if !ok {
		return 0
	}
	return snapshot.BreakMs(store.now())
}

// BreakMinutes returns BreakMs in minutes, rounded to two decimals.
func (store *Store) BreakMinutes() float64 {
	return model.BreakMinutes(store.BreakMs())
}

// FormatElapsed renders ElapsedMs as HH:MM:SS.
func (store *Store) FormatElapsed() string {
	return model.FormatClock(store.ElapsedMs())
}

// FormatBreak renders BreakMs as MM:SS.
func (store *Store) FormatBreak() string {
	return model.FormatMinutesSeconds(store.BreakMs())
}

func (store *Store) snapshot() (model.Snapshot, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	if store.record == nil {
		return model.Snapshot{}, false
	}
	return store.record.Stopwatch, true
}

func (store *Store) now() int64 {
	return store.clock.Now().UnixMilli()
}
