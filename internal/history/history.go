// Package history persists the reading history: which containers were
// opened, when, and the last page viewed.
package history

import (
	"context"
	"time"
)

// ItemType classifies a history entry's backing source.
type ItemType string

const (
	ItemFile      ItemType = "FILE"
	ItemDirectory ItemType = "DIRECTORY"
)

// Entry is one reading-history record.
type Entry struct {
	ID           int64     `json:"id"`
	Path         string    `json:"path"`
	Type         ItemType  `json:"type"`
	DisplayName  string    `json:"displayName"`
	PageIndex    int64     `json:"pageIndex"`
	LastOpenedAt time.Time `json:"lastOpenedAt"`
}

// Repository stores and retrieves reading-history entries.
type Repository interface {
	// Upsert records that path was opened now. When pageIndex is non-nil the
	// stored page index is updated as well; otherwise an existing entry keeps
	// its page index.
	Upsert(ctx context.Context, path string, itemType ItemType, pageIndex *int64) error

	// All returns every entry, most recently opened first.
	All(ctx context.Context) ([]Entry, error)

	// Latest returns the most recently opened entry, or nil when the history
	// is empty.
	Latest(ctx context.Context) (*Entry, error)

	// Get returns the entry for path, or nil when none exists.
	Get(ctx context.Context, path string) (*Entry, error)

	// Delete removes one entry by ID.
	Delete(ctx context.Context, id int64) error

	// DeleteAll clears the history.
	DeleteAll(ctx context.Context) error
}
