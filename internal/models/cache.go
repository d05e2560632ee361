package models

import "time"

// CachedText is a stored extraction result keyed by content hash.
type CachedText struct {
	ContentID string    `json:"content_id" db:"content_id"`
	Format    string    `json:"format" db:"format"`
	Text      string    `json:"text" db:"text"`
	Warnings  []Warning `json:"warnings,omitempty" db:"warnings"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
