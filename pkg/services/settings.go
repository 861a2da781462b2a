package services

import (
	"context"
	"errors"
	"time"

	"github.com/tgshare/sharebot/internal/cache"
	"github.com/tgshare/sharebot/pkg/models"
	"github.com/tgshare/sharebot/pkg/store"
	"go.uber.org/zap"
)

// SettingService holds the process-wide upload mode and the admin set.
// Anyone may read the mode; only admins may change it or upload while the
// mode is private.
type SettingService struct {
	store  store.Store
	cache  cache.Cacher
	admins map[int64]struct{}
	logger *zap.Logger
}

func NewSettingService(st store.Store, cacher cache.Cacher, admins []int64, logger *zap.Logger) *SettingService {
	set := make(map[int64]struct{}, len(admins))
	for _, id := range admins {
		set[id] = struct{}{}
	}
	return &SettingService{
		store:  st,
		cache:  cacher,
		admins: set,
		logger: logger.Named("settings"),
	}
}

func (s *SettingService) IsAdmin(userId int64) bool {
	_, ok := s.admins[userId]
	return ok
}

// UploadMode reads the current mode, defaulting to public when it was never
// set. Store outages still surface as errors; an unreachable store must not
// silently degrade to public.
func (s *SettingService) UploadMode(ctx context.Context) (string, error) {
	mode, err := cache.Fetch(s.cache, cache.KeySetting(models.SettingUploadMode), 5*time.Minute, func() (string, error) {
		value, err := s.store.Setting(ctx, models.SettingUploadMode)
		if errors.Is(err, store.ErrNotFound) {
			return models.UploadModePublic, nil
		}
		return value, err
	})
	if err != nil {
		return "", err
	}
	return mode, nil
}

// SetUploadMode switches the mode. Admin only.
func (s *SettingService) SetUploadMode(ctx context.Context, requesterId int64, mode string) error {
	if !s.IsAdmin(requesterId) {
		return ErrAccessDenied
	}
	if mode != models.UploadModePublic && mode != models.UploadModePrivate {
		return errors.New("unknown upload mode: " + mode)
	}
	if err := s.store.SetSetting(ctx, models.SettingUploadMode, mode); err != nil {
		return err
	}
	s.cache.Delete(cache.KeySetting(models.SettingUploadMode))
	s.logger.Info("upload mode changed",
		zap.Int64("admin", requesterId),
		zap.String("mode", mode))
	return nil
}

// CanUpload applies the caller-side gate of the upload path: everyone in
// public mode, admins only in private mode. Redemption is never affected.
func (s *SettingService) CanUpload(ctx context.Context, userId int64) (bool, error) {
	mode, err := s.UploadMode(ctx)
	if err != nil {
		return false, err
	}
	if mode == models.UploadModePrivate {
		return s.IsAdmin(userId), nil
	}
	return true, nil
}
