package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLite implements Repository on a local SQLite database.
type SQLite struct {
	db *sql.DB
}

var _ Repository = (*SQLite)(nil)

// OpenSQLite opens (creating if missing) the database at path and applies
// pending schema migrations.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func migrateSchema(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("prepare migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("prepare migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Upsert(ctx context.Context, path string, itemType ItemType, pageIndex *int64) error {
	displayName := filepath.Base(path)
	if displayName == "." || displayName == string(filepath.Separator) {
		displayName = path
	}

	var err error
	if pageIndex != nil {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO history (path, type, display_name, page_index, last_opened_at)
			VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(path) DO UPDATE SET page_index = excluded.page_index, last_opened_at = CURRENT_TIMESTAMP`,
			path, string(itemType), displayName, *pageIndex)
	} else {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO history (path, type, display_name, page_index, last_opened_at)
			VALUES (?, ?, ?, 0, CURRENT_TIMESTAMP)
			ON CONFLICT(path) DO UPDATE SET last_opened_at = CURRENT_TIMESTAMP`,
			path, string(itemType), displayName)
	}
	if err != nil {
		return fmt.Errorf("upsert history for %s: %w", path, err)
	}
	return nil
}

func (s *SQLite) All(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, type, display_name, page_index, last_opened_at
		FROM history ORDER BY last_opened_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

func (s *SQLite) Latest(ctx context.Context) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, path, type, display_name, page_index, last_opened_at
		FROM history ORDER BY last_opened_at DESC, id DESC LIMIT 1`)
	return scanOptionalEntry(row)
}

func (s *SQLite) Get(ctx context.Context, path string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, path, type, display_name, page_index, last_opened_at
		FROM history WHERE path = ?`, path)
	return scanOptionalEntry(row)
}

func (s *SQLite) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete history entry %d: %w", id, err)
	}
	return nil
}

func (s *SQLite) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var e Entry
	var itemType, openedAt string
	if err := row.Scan(&e.ID, &e.Path, &itemType, &e.DisplayName, &e.PageIndex, &openedAt); err != nil {
		return nil, fmt.Errorf("scan history entry: %w", err)
	}
	e.Type = ItemType(itemType)
	e.LastOpenedAt = parseTimestamp(openedAt)
	return &e, nil
}

// parseTimestamp reads the SQLite CURRENT_TIMESTAMP text representation.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func scanOptionalEntry(row *sql.Row) (*Entry, error) {
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}
