package services

import (
	"context"
	"errors"
	"time"

	"github.com/tgshare/sharebot/internal/kmutex"
	"github.com/tgshare/sharebot/pkg/models"
	"github.com/tgshare/sharebot/pkg/store"
	"go.uber.org/zap"
)

// BatchService drives the batch lifecycle: one active batch per owner,
// entries appended in upload order, then sealed into an immutable link or
// cancelled. Operations for the same owner are serialized through a keyed
// mutex on top of the store's own atomicity, so the acknowledged file count
// always reflects what was persisted.
type BatchService struct {
	store  store.Store
	locks  *kmutex.KMutex
	logger *zap.Logger
}

func NewBatchService(st store.Store, logger *zap.Logger) *BatchService {
	return &BatchService{
		store:  st,
		locks:  kmutex.New(),
		logger: logger.Named("batch"),
	}
}

// Locks exposes the per-owner mutex set for the background sweep.
func (b *BatchService) Locks() *kmutex.KMutex {
	return b.locks
}

// GetOrCreateActive returns the owner's active batch, creating an empty one
// when none exists.
func (b *BatchService) GetOrCreateActive(ctx context.Context, ownerId int64) (*models.Batch, error) {
	b.locks.Lock(ownerId)
	defer b.locks.Unlock(ownerId)

	return b.store.GetOrCreateActiveBatch(ctx, ownerId)
}

// Append adds an entry to the owner's active batch. A re-upload of an
// already archived location is an idempotent no-op reported via duplicate.
// The returned count is the persisted entry count after the call.
func (b *BatchService) Append(ctx context.Context, ownerId int64, entry models.FileEntry) (count int, duplicate bool, err error) {
	b.locks.Lock(ownerId)
	defer b.locks.Unlock(ownerId)

	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now().UTC()
	}

	batch, duplicate, err := b.store.AppendEntry(ctx, ownerId, entry)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, false, ErrNoActiveBatch
		}
		return 0, false, err
	}
	if duplicate {
		b.logger.Debug("duplicate upload suppressed",
			zap.Int64("owner", ownerId),
			zap.Int("message", entry.Location.MessageId))
	}
	return len(batch.Entries), duplicate, nil
}

// Seal freezes the owner's active batch and returns its id. Sealing an
// empty batch is refused so no dead link is ever produced.
func (b *BatchService) Seal(ctx context.Context, ownerId int64) (string, error) {
	b.locks.Lock(ownerId)
	defer b.locks.Unlock(ownerId)

	active, err := b.store.ActiveBatch(ctx, ownerId)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrEmptyBatch
		}
		return "", err
	}
	if len(active.Entries) == 0 {
		return "", ErrEmptyBatch
	}

	sealed, err := b.store.SealActiveBatch(ctx, ownerId)
	if err != nil {
		return "", err
	}
	b.logger.Info("batch sealed",
		zap.Int64("owner", ownerId),
		zap.String("batch", sealed.BatchId),
		zap.Int("files", len(sealed.Entries)))
	return sealed.BatchId, nil
}

// RecordFile persists a single-file record so the file stays addressable on
// its own, independent of any batch.
func (b *BatchService) RecordFile(ctx context.Context, rec *models.FileRecord) error {
	return b.store.CreateFileRecord(ctx, rec)
}

// Cancel drops the owner's active batch. Doing so without one is not an
// error.
func (b *BatchService) Cancel(ctx context.Context, ownerId int64) error {
	b.locks.Lock(ownerId)
	defer b.locks.Unlock(ownerId)

	_, err := b.store.CancelActiveBatch(ctx, ownerId)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// ResetOnSessionStart cancels any leftover active batch when the user
// explicitly restarts, clearing the way for a fresh one.
func (b *BatchService) ResetOnSessionStart(ctx context.Context, ownerId int64) error {
	return b.Cancel(ctx, ownerId)
}

// ActiveCount reports the persisted entry count of the owner's active
// batch, zero when there is none.
func (b *BatchService) ActiveCount(ctx context.Context, ownerId int64) (int, error) {
	batch, err := b.store.ActiveBatch(ctx, ownerId)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return len(batch.Entries), nil
}

// SweepStale cancels active batches untouched for longer than age.
func (b *BatchService) SweepStale(ctx context.Context, age time.Duration) (int64, error) {
	swept, err := b.store.CancelStaleActiveBatches(ctx, time.Now().UTC().Add(-age))
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		b.logger.Info("cancelled stale batches", zap.Int64("count", swept))
	}
	return swept, nil
}
