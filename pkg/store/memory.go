package store

import (
	"context"
	"sync"
	"time"

	"github.com/tgshare/sharebot/internal/tokens"
	"github.com/tgshare/sharebot/pkg/models"
)

// MemoryStore keeps everything in process memory. It backs runs without a
// configured database and the service tests. Semantics mirror SQLStore,
// including the one-active-batch-per-owner guarantee.
type MemoryStore struct {
	mu       sync.Mutex
	batches  map[string]*models.Batch
	active   map[int64]string
	files    map[string]*models.FileRecord
	settings map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		batches:  make(map[string]*models.Batch),
		active:   make(map[int64]string),
		files:    make(map[string]*models.FileRecord),
		settings: make(map[string]string),
	}
}

func cloneBatch(b *models.Batch) *models.Batch {
	out := *b
	out.Entries = append(models.Entries{}, b.Entries...)
	return &out
}

func (s *MemoryStore) GetOrCreateActiveBatch(_ context.Context, ownerId int64) (*models.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.active[ownerId]; ok {
		return cloneBatch(s.batches[id]), nil
	}

	id := tokens.NewBatchID()
	for s.batches[id] != nil {
		id = tokens.NewBatchID()
	}
	now := time.Now().UTC()
	batch := &models.Batch{
		BatchId:   id,
		OwnerId:   ownerId,
		Status:    models.BatchStatusActive,
		Entries:   models.Entries{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.batches[id] = batch
	s.active[ownerId] = id
	return cloneBatch(batch), nil
}

func (s *MemoryStore) ActiveBatch(_ context.Context, ownerId int64) (*models.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.active[ownerId]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBatch(s.batches[id]), nil
}

func (s *MemoryStore) AppendEntry(_ context.Context, ownerId int64, entry models.FileEntry) (*models.Batch, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.active[ownerId]
	if !ok {
		return nil, false, ErrNotFound
	}
	batch := s.batches[id]
	if batch.Entries.Contains(entry.Location) {
		return cloneBatch(batch), true, nil
	}
	batch.Entries = append(batch.Entries, entry)
	batch.UpdatedAt = time.Now().UTC()
	return cloneBatch(batch), false, nil
}

func (s *MemoryStore) setActiveStatus(ownerId int64, status string) (*models.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.active[ownerId]
	if !ok {
		return nil, ErrNotFound
	}
	batch := s.batches[id]
	batch.Status = status
	batch.UpdatedAt = time.Now().UTC()
	delete(s.active, ownerId)
	return cloneBatch(batch), nil
}

func (s *MemoryStore) SealActiveBatch(_ context.Context, ownerId int64) (*models.Batch, error) {
	return s.setActiveStatus(ownerId, models.BatchStatusCompleted)
}

func (s *MemoryStore) CancelActiveBatch(_ context.Context, ownerId int64) (*models.Batch, error) {
	return s.setActiveStatus(ownerId, models.BatchStatusCancelled)
}

func (s *MemoryStore) BatchById(_ context.Context, batchId string) (*models.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, ok := s.batches[batchId]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBatch(batch), nil
}

func (s *MemoryStore) CancelStaleActiveBatches(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var swept int64
	for ownerId, id := range s.active {
		batch := s.batches[id]
		if batch.UpdatedAt.Before(cutoff) {
			batch.Status = models.BatchStatusCancelled
			delete(s.active, ownerId)
			swept++
		}
	}
	return swept, nil
}

func (s *MemoryStore) CreateFileRecord(_ context.Context, rec *models.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.FileId == "" {
		rec.FileId = tokens.NewFileID()
	}
	for i := 0; i < tokenRetries; i++ {
		if _, exists := s.files[rec.FileId]; !exists {
			if rec.CreatedAt.IsZero() {
				rec.CreatedAt = time.Now().UTC()
			}
			copied := *rec
			s.files[rec.FileId] = &copied
			return nil
		}
		rec.FileId = tokens.NewFileID()
	}
	return ErrConflict
}

func (s *MemoryStore) FileById(_ context.Context, fileId string) (*models.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.files[fileId]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (s *MemoryStore) Setting(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.settings[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *MemoryStore) SetSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[key] = value
	return nil
}
