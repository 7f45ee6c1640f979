package model

import "time"

// ModalType identifies the workflow that produced a session record.
type ModalType string

const (
	ModalCreate ModalType = "create"
	ModalEdit   ModalType = "edit"
)

// SessionRecord is a minimized tracking session: the stopwatch snapshot plus
// whatever the host needs to rebuild its form. Everything except Stopwatch is
// opaque to the core.
type SessionRecord struct {
	ModalType           ModalType      `json:"modalType" yaml:"modalType"`
	FilePath            *string        `json:"filePath" yaml:"filePath"`
	FormData            map[string]any `json:"formData" yaml:"formData,omitempty"`
	OriginalFrontmatter map[string]any `json:"originalFrontmatter" yaml:"originalFrontmatter,omitempty"`
	CalendarID          string         `json:"calendarId" yaml:"calendarId"`
	Stopwatch           Snapshot       `json:"stopwatch" yaml:"stopwatch"`
	MinimizedAt         int64          `json:"minimizedAt,omitempty" yaml:"minimizedAt,omitempty"`
}

// Clone deep-copies the record, including nested maps and slices.
func (record SessionRecord) Clone() SessionRecord {
	if record.FilePath != nil {
		path := *record.FilePath
		record.FilePath = &path
	}
	record.FormData = CloneMap(record.FormData)
	record.OriginalFrontmatter = CloneMap(record.OriginalFrontmatter)
	record.Stopwatch = record.Stopwatch.Clone()
	return record
}

// TimeEntry is a completed activity written to the journal.
type TimeEntry struct {
	ID           string
	Title        string
	CalendarID   string
	FilePath     string
	Start        time.Time
	End          time.Time
	BreakMinutes float64
	WorkMs       int64
	CreatedAt    time.Time
}

// CloneMap deep-copies a form or frontmatter map. Nested maps, []any and
// []string values are copied; other values are shared.
func CloneMap(values map[string]any) map[string]any {
	if values == nil {
		return nil
	}
	cloned := make(map[string]any, len(values))
	for key, value := range values {
		cloned[key] = cloneValue(value)
	}
	return cloned
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return CloneMap(typed)
	case []any:
		cloned := make([]any, len(typed))
		for index, item := range typed {
			cloned[index] = cloneValue(item)
		}
		return cloned
	case []string:
		return append([]string(nil), typed...)
	default:
		return value
	}
}
