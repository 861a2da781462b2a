// Package store owns persistence for batches, single-file records and
// process settings. The per-owner invariants (one active batch, no duplicate
// archive locations) are enforced here atomically so callers stay correct
// under concurrent updates.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/tgshare/sharebot/pkg/models"
)

var (
	// ErrNotFound means the key resolved to nothing. It is never returned
	// for a reachable store outage.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a unique constraint rejected the write.
	ErrConflict = errors.New("key conflict")
	// ErrUnavailable wraps store round trips that failed for reasons other
	// than the data, so callers can degrade instead of treating an outage
	// as an empty result.
	ErrUnavailable = errors.New("store unavailable")
)

// tokenRetries bounds id regeneration on collision. With 36^6 file ids a
// single retry is already overwhelmingly unlikely to be needed.
const tokenRetries = 5

type Store interface {
	// GetOrCreateActiveBatch returns the owner's active batch, creating an
	// empty one atomically when none exists. Two racing calls observe the
	// same batch.
	GetOrCreateActiveBatch(ctx context.Context, ownerId int64) (*models.Batch, error)
	// ActiveBatch returns the owner's active batch or ErrNotFound.
	ActiveBatch(ctx context.Context, ownerId int64) (*models.Batch, error)
	// AppendEntry appends to the owner's active batch. A duplicate archive
	// location leaves the batch unchanged and reports duplicate=true.
	// ErrNotFound when the owner has no active batch.
	AppendEntry(ctx context.Context, ownerId int64, entry models.FileEntry) (batch *models.Batch, duplicate bool, err error)
	// SealActiveBatch moves the owner's active batch to completed.
	// ErrNotFound when the owner has no active batch.
	SealActiveBatch(ctx context.Context, ownerId int64) (*models.Batch, error)
	// CancelActiveBatch moves the owner's active batch to cancelled.
	// ErrNotFound when the owner has no active batch.
	CancelActiveBatch(ctx context.Context, ownerId int64) (*models.Batch, error)
	// BatchById looks a batch up by id regardless of status.
	BatchById(ctx context.Context, batchId string) (*models.Batch, error)
	// CancelStaleActiveBatches cancels active batches untouched since the
	// cutoff and returns how many were swept.
	CancelStaleActiveBatches(ctx context.Context, cutoff time.Time) (int64, error)

	// CreateFileRecord inserts a single-file record, regenerating the id on
	// collision.
	CreateFileRecord(ctx context.Context, rec *models.FileRecord) error
	// FileById resolves a single-file token.
	FileById(ctx context.Context, fileId string) (*models.FileRecord, error)

	Setting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}
