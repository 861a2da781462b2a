package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tgshare/sharebot/internal/database"
	"github.com/tgshare/sharebot/internal/tokens"
	"github.com/tgshare/sharebot/pkg/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

// wrapErr maps driver errors onto the store taxonomy. Anything that is not
// not-found or a key conflict counts as the store being unavailable.
func wrapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case database.IsRecordNotFoundErr(err):
		return ErrNotFound
	case database.IsKeyConflictErr(err):
		return ErrConflict
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

func (s *SQLStore) ActiveBatch(ctx context.Context, ownerId int64) (*models.Batch, error) {
	var batch models.Batch
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", ownerId, models.BatchStatusActive).
		First(&batch).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &batch, nil
}

func (s *SQLStore) GetOrCreateActiveBatch(ctx context.Context, ownerId int64) (*models.Batch, error) {
	batch, err := s.ActiveBatch(ctx, ownerId)
	if err == nil {
		return batch, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	for i := 0; i < tokenRetries; i++ {
		candidate := &models.Batch{
			BatchId: tokens.NewBatchID(),
			OwnerId: ownerId,
			Status:  models.BatchStatusActive,
			Entries: models.Entries{},
		}
		err := s.db.WithContext(ctx).Create(candidate).Error
		if err == nil {
			return candidate, nil
		}
		if database.IsKeyConflictErr(err) {
			// Either a concurrent create won the one-active-per-owner
			// index, or the generated id collided. Re-read first, then
			// regenerate.
			if existing, aerr := s.ActiveBatch(ctx, ownerId); aerr == nil {
				return existing, nil
			}
			continue
		}
		return nil, wrapErr(err)
	}
	return nil, ErrConflict
}

func (s *SQLStore) AppendEntry(ctx context.Context, ownerId int64, entry models.FileEntry) (*models.Batch, bool, error) {
	var (
		batch     models.Batch
		duplicate bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("owner_id = ? AND status = ?", ownerId, models.BatchStatusActive).
			First(&batch).Error; err != nil {
			return err
		}
		if batch.Entries.Contains(entry.Location) {
			duplicate = true
			return nil
		}
		batch.Entries = append(batch.Entries, entry)
		return tx.Model(&models.Batch{}).
			Where("batch_id = ? AND status = ?", batch.BatchId, models.BatchStatusActive).
			Update("entries", batch.Entries).Error
	})
	if err != nil {
		return nil, false, wrapErr(err)
	}
	return &batch, duplicate, nil
}

func (s *SQLStore) setActiveStatus(ctx context.Context, ownerId int64, status string) (*models.Batch, error) {
	var batch models.Batch
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("owner_id = ? AND status = ?", ownerId, models.BatchStatusActive).
			First(&batch).Error; err != nil {
			return err
		}
		batch.Status = status
		return tx.Model(&models.Batch{}).
			Where("batch_id = ?", batch.BatchId).
			Update("status", status).Error
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	return &batch, nil
}

func (s *SQLStore) SealActiveBatch(ctx context.Context, ownerId int64) (*models.Batch, error) {
	return s.setActiveStatus(ctx, ownerId, models.BatchStatusCompleted)
}

func (s *SQLStore) CancelActiveBatch(ctx context.Context, ownerId int64) (*models.Batch, error) {
	return s.setActiveStatus(ctx, ownerId, models.BatchStatusCancelled)
}

func (s *SQLStore) BatchById(ctx context.Context, batchId string) (*models.Batch, error) {
	var batch models.Batch
	err := s.db.WithContext(ctx).Where("batch_id = ?", batchId).First(&batch).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &batch, nil
}

func (s *SQLStore) CancelStaleActiveBatches(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Batch{}).
		Where("status = ? AND updated_at < ?", models.BatchStatusActive, cutoff).
		Update("status", models.BatchStatusCancelled)
	if res.Error != nil {
		return 0, wrapErr(res.Error)
	}
	return res.RowsAffected, nil
}

func (s *SQLStore) CreateFileRecord(ctx context.Context, rec *models.FileRecord) error {
	for i := 0; i < tokenRetries; i++ {
		if rec.FileId == "" {
			rec.FileId = tokens.NewFileID()
		}
		err := s.db.WithContext(ctx).Create(rec).Error
		if err == nil {
			return nil
		}
		if database.IsKeyConflictErr(err) {
			rec.FileId = ""
			continue
		}
		return wrapErr(err)
	}
	return ErrConflict
}

func (s *SQLStore) FileById(ctx context.Context, fileId string) (*models.FileRecord, error) {
	var rec models.FileRecord
	err := s.db.WithContext(ctx).Where("file_id = ?", fileId).First(&rec).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &rec, nil
}

func (s *SQLStore) Setting(ctx context.Context, key string) (string, error) {
	var setting models.Setting
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if err != nil {
		return "", wrapErr(err)
	}
	return setting.Value, nil
}

func (s *SQLStore) SetSetting(ctx context.Context, key, value string) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}).Error
	return wrapErr(err)
}
