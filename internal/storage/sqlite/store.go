// Package sqlite provides a SQLite-backed journal of completed time entries.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"timetracker/internal/core/model"
	"timetracker/internal/storage/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// Store persists time entries in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite journal and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// AppendEntry inserts one completed entry.
func (s *Store) AppendEntry(ctx context.Context, entry model.TimeEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		return fmt.Errorf("entry id is required")
	}
	if entry.Start.IsZero() || entry.End.IsZero() {
		return fmt.Errorf("entry start and end are required")
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO time_entries (
		   id,
		   title,
		   calendar_id,
		   file_path,
		   start_at,
		   end_at,
		   break_minutes,
		   work_ms,
		   created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		strings.TrimSpace(entry.Title),
		entry.CalendarID,
		entry.FilePath,
		toMillis(entry.Start),
		toMillis(entry.End),
		entry.BreakMinutes,
		entry.WorkMs,
		toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("append time entry: %w", err)
	}
	return nil
}

// ListEntries returns the newest entries for a calendar. An empty calendar
// lists all calendars; limit <= 0 means no limit.
func (s *Store) ListEntries(ctx context.Context, calendarID string, limit int) ([]model.TimeEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	query := `SELECT id, title, calendar_id, file_path, start_at, end_at, break_minutes, work_ms, created_at
		FROM time_entries`
	var args []any
	if calendarID != "" {
		query += ` WHERE calendar_id = ?`
		args = append(args, calendarID)
	}
	query += ` ORDER BY start_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}
	defer rows.Close()

	var entries []model.TimeEntry
	for rows.Next() {
		var (
			entry                     model.TimeEntry
			startAt, endAt, createdAt int64
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.Title,
			&entry.CalendarID,
			&entry.FilePath,
			&startAt,
			&endAt,
			&entry.BreakMinutes,
			&entry.WorkMs,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		entry.Start = fromMillis(startAt)
		entry.End = fromMillis(endAt)
		entry.CreatedAt = fromMillis(createdAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate time entries: %w", err)
	}
	return entries, nil
}
