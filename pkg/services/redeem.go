package services

import (
	"context"
	"errors"
	"time"

	"github.com/tgshare/sharebot/internal/cache"
	"github.com/tgshare/sharebot/internal/tokens"
	"github.com/tgshare/sharebot/pkg/models"
	"github.com/tgshare/sharebot/pkg/store"
	"go.uber.org/zap"
)

// Gate decides whether a requester may redeem links. Enabled deployments
// check channel membership on every attempt; membership can change between
// attempts, so results are never cached.
type Gate interface {
	Enabled() bool
	IsMember(ctx context.Context, userId int64) (bool, error)
}

// Relay delivers one archived item to the requester. A failed relay of one
// item must not stop the rest of the batch.
type Relay func(ctx context.Context, loc models.ArchiveLocation) error

// RedeemService resolves link tokens back into archive locations and replays
// them in upload order.
type RedeemService struct {
	store  store.Store
	cache  cache.Cacher
	gate   Gate
	logger *zap.Logger
}

func NewRedeemService(st store.Store, cacher cache.Cacher, gate Gate, logger *zap.Logger) *RedeemService {
	return &RedeemService{
		store:  st,
		cache:  cacher,
		gate:   gate,
		logger: logger.Named("redeem"),
	}
}

// Resolve maps a token to its ordered entries without gating. Sealed
// batches are immutable and therefore cacheable; active ones are read
// through to the store.
func (r *RedeemService) Resolve(ctx context.Context, token string) ([]models.FileEntry, error) {
	if batchId, ok := tokens.ParseBatchToken(token); ok {
		return r.resolveBatch(ctx, batchId)
	}
	return r.resolveFile(ctx, token)
}

func (r *RedeemService) resolveBatch(ctx context.Context, batchId string) ([]models.FileEntry, error) {
	var cached models.Entries
	if err := r.cache.Get(cache.KeyBatch(batchId), &cached); err == nil && len(cached) > 0 {
		return cached, nil
	}

	batch, err := r.store.BatchById(ctx, batchId)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(batch.Entries) == 0 {
		return nil, ErrNotFound
	}
	if batch.Status == models.BatchStatusCompleted {
		r.cache.Set(cache.KeyBatch(batchId), batch.Entries, time.Hour)
	}
	return batch.Entries, nil
}

func (r *RedeemService) resolveFile(ctx context.Context, fileId string) ([]models.FileEntry, error) {
	rec, err := r.store.FileById(ctx, fileId)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return []models.FileEntry{{
		FileId:      rec.FileId,
		Location:    rec.Location(),
		DisplayName: rec.DisplayName,
		Size:        rec.Size,
		AddedAt:     rec.CreatedAt,
	}}, nil
}

// Redeem resolves the token, applies the gate and replays every item to the
// requester through relay. Individual relay failures are counted and do not
// abort the remaining items.
func (r *RedeemService) Redeem(ctx context.Context, token string, requesterId int64, relay Relay) (success int, total int, err error) {
	entries, err := r.Resolve(ctx, token)
	if err != nil {
		return 0, 0, err
	}

	if r.gate != nil && r.gate.Enabled() {
		member, err := r.gate.IsMember(ctx, requesterId)
		if err != nil {
			return 0, 0, err
		}
		if !member {
			return 0, 0, ErrAccessDenied
		}
	}

	total = len(entries)
	for _, entry := range entries {
		if err := relay(ctx, entry.Location); err != nil {
			r.logger.Warn("relay failed",
				zap.String("token", token),
				zap.Int64("requester", requesterId),
				zap.Int("message", entry.Location.MessageId),
				zap.Error(err))
			continue
		}
		success++
	}

	r.logger.Info("link redeemed",
		zap.String("token", token),
		zap.Int64("requester", requesterId),
		zap.Int("delivered", success),
		zap.Int("total", total))
	return success, total, nil
}
