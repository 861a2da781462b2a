package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/tgshare/sharebot/pkg/models"
	"github.com/tgshare/sharebot/pkg/store"
	"go.uber.org/zap"
)

const owner = int64(123456)

func testEntry(msgId int) models.FileEntry {
	return models.FileEntry{
		FileId:      fmt.Sprintf("f%05d", msgId),
		Location:    models.ArchiveLocation{ChannelId: -100999, MessageId: msgId},
		DisplayName: "file.bin",
	}
}

type BatchServiceSuite struct {
	suite.Suite
	srv *BatchService
}

func (s *BatchServiceSuite) SetupTest() {
	s.srv = NewBatchService(store.NewMemoryStore(), zap.NewNop())
}

func TestBatchServiceSuite(t *testing.T) {
	suite.Run(t, new(BatchServiceSuite))
}

func (s *BatchServiceSuite) TestAppend_InUploadOrder() {
	ctx := context.Background()
	_, err := s.srv.GetOrCreateActive(ctx, owner)
	s.NoError(err)

	for i := 1; i <= 5; i++ {
		count, dup, err := s.srv.Append(ctx, owner, testEntry(i))
		s.NoError(err)
		s.False(dup)
		s.Equal(i, count)
	}

	count, err := s.srv.ActiveCount(ctx, owner)
	s.NoError(err)
	s.Equal(5, count)
}

func (s *BatchServiceSuite) TestAppend_DuplicateIsNoop() {
	ctx := context.Background()
	_, err := s.srv.GetOrCreateActive(ctx, owner)
	s.NoError(err)

	count, dup, err := s.srv.Append(ctx, owner, testEntry(1))
	s.NoError(err)
	s.False(dup)
	s.Equal(1, count)

	count, dup, err = s.srv.Append(ctx, owner, testEntry(1))
	s.NoError(err)
	s.True(dup)
	s.Equal(1, count)
}

func (s *BatchServiceSuite) TestAppend_NoActiveBatch() {
	_, _, err := s.srv.Append(context.Background(), owner, testEntry(1))
	s.ErrorIs(err, ErrNoActiveBatch)
}

func (s *BatchServiceSuite) TestSeal_EmptyFails() {
	ctx := context.Background()
	_, err := s.srv.GetOrCreateActive(ctx, owner)
	s.NoError(err)

	_, err = s.srv.Seal(ctx, owner)
	s.ErrorIs(err, ErrEmptyBatch)

	// the batch must not have transitioned
	count, err := s.srv.ActiveCount(ctx, owner)
	s.NoError(err)
	s.Equal(0, count)
}

func (s *BatchServiceSuite) TestSeal_WithoutBatchFails() {
	_, err := s.srv.Seal(context.Background(), owner)
	s.ErrorIs(err, ErrEmptyBatch)
}

func (s *BatchServiceSuite) TestSeal_StartsFreshBatchAfter() {
	ctx := context.Background()
	first, err := s.srv.GetOrCreateActive(ctx, owner)
	s.NoError(err)

	_, _, err = s.srv.Append(ctx, owner, testEntry(1))
	s.NoError(err)

	batchId, err := s.srv.Seal(ctx, owner)
	s.NoError(err)
	s.Equal(first.BatchId, batchId)

	// appends after seal land in a new batch, never the sealed one
	second, err := s.srv.GetOrCreateActive(ctx, owner)
	s.NoError(err)
	s.NotEqual(batchId, second.BatchId)

	count, dup, err := s.srv.Append(ctx, owner, testEntry(2))
	s.NoError(err)
	s.False(dup)
	s.Equal(1, count)
}

func (s *BatchServiceSuite) TestCancel_NoopWithoutBatch() {
	s.NoError(s.srv.Cancel(context.Background(), owner))
}

func (s *BatchServiceSuite) TestCancel_MakesBatchUnreachable() {
	ctx := context.Background()
	first, err := s.srv.GetOrCreateActive(ctx, owner)
	s.NoError(err)
	_, _, err = s.srv.Append(ctx, owner, testEntry(1))
	s.NoError(err)

	s.NoError(s.srv.Cancel(ctx, owner))

	_, err = s.srv.Seal(ctx, owner)
	s.ErrorIs(err, ErrEmptyBatch)

	fresh, err := s.srv.GetOrCreateActive(ctx, owner)
	s.NoError(err)
	s.NotEqual(first.BatchId, fresh.BatchId)
	s.Empty(fresh.Entries)
}

func (s *BatchServiceSuite) TestResetOnSessionStart() {
	ctx := context.Background()
	_, err := s.srv.GetOrCreateActive(ctx, owner)
	s.NoError(err)
	_, _, err = s.srv.Append(ctx, owner, testEntry(1))
	s.NoError(err)

	s.NoError(s.srv.ResetOnSessionStart(ctx, owner))

	count, err := s.srv.ActiveCount(ctx, owner)
	s.NoError(err)
	s.Equal(0, count)
}

func (s *BatchServiceSuite) TestAppend_ConcurrentSameOwner() {
	ctx := context.Background()
	_, err := s.srv.GetOrCreateActive(ctx, owner)
	s.NoError(err)

	const n = 30
	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := s.srv.Append(ctx, owner, testEntry(i))
			s.NoError(err)
		}(i)
	}
	wg.Wait()

	count, err := s.srv.ActiveCount(ctx, owner)
	s.NoError(err)
	s.Equal(n, count)
}

func (s *BatchServiceSuite) TestSweepStale() {
	ctx := context.Background()
	_, err := s.srv.GetOrCreateActive(ctx, owner)
	s.NoError(err)

	swept, err := s.srv.SweepStale(ctx, -time.Minute)
	s.NoError(err)
	s.Equal(int64(1), swept)

	count, err := s.srv.ActiveCount(ctx, owner)
	s.NoError(err)
	s.Equal(0, count)
}
