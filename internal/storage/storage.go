// Package storage persists extraction results so unchanged files are not
// extracted (and recognized) twice.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/doccompare/internal/models"
)

// ErrNotFound is returned by Get when no entry exists for a content ID.
var ErrNotFound = errors.New("cache entry not found")

// Cache stores extracted text keyed by content ID.
type Cache interface {
	Get(ctx context.Context, contentID string) (*models.CachedText, error)
	Put(ctx context.Context, entry *models.CachedText) error
	Count(ctx context.Context) (int64, error)
	Purge(ctx context.Context) (int64, error)
	Close() error
}
