package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgshare/sharebot/internal/cache"
	"github.com/tgshare/sharebot/pkg/models"
	"github.com/tgshare/sharebot/pkg/store"
	"go.uber.org/zap"
)

const admin = int64(999)

func newSettingService() *SettingService {
	return NewSettingService(store.NewMemoryStore(), cache.NewMemoryCache(1024*1024), []int64{admin}, zap.NewNop())
}

func TestUploadMode_DefaultsPublic(t *testing.T) {
	s := newSettingService()

	mode, err := s.UploadMode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.UploadModePublic, mode)

	ok, err := s.CanUpload(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSetUploadMode_AdminOnly(t *testing.T) {
	s := newSettingService()
	ctx := context.Background()

	err := s.SetUploadMode(ctx, 42, models.UploadModePrivate)
	assert.ErrorIs(t, err, ErrAccessDenied)

	require.NoError(t, s.SetUploadMode(ctx, admin, models.UploadModePrivate))

	mode, err := s.UploadMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.UploadModePrivate, mode)
}

func TestCanUpload_PrivateMode(t *testing.T) {
	s := newSettingService()
	ctx := context.Background()

	require.NoError(t, s.SetUploadMode(ctx, admin, models.UploadModePrivate))

	ok, err := s.CanUpload(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.CanUpload(ctx, admin)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSetUploadMode_RejectsUnknown(t *testing.T) {
	s := newSettingService()

	err := s.SetUploadMode(context.Background(), admin, "hidden")
	assert.Error(t, err)
}
