package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/tgshare/sharebot/internal/cache"
	"github.com/tgshare/sharebot/internal/tokens"
	"github.com/tgshare/sharebot/pkg/models"
	"github.com/tgshare/sharebot/pkg/store"
	"go.uber.org/zap"
)

type fakeGate struct {
	enabled bool
	members map[int64]bool
	err     error
}

func (g *fakeGate) Enabled() bool { return g.enabled }

func (g *fakeGate) IsMember(_ context.Context, userId int64) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	return g.members[userId], nil
}

// unavailableStore simulates a store outage for every read.
type unavailableStore struct {
	store.Store
}

func (unavailableStore) BatchById(context.Context, string) (*models.Batch, error) {
	return nil, store.ErrUnavailable
}

func (unavailableStore) FileById(context.Context, string) (*models.FileRecord, error) {
	return nil, store.ErrUnavailable
}

type RedeemServiceSuite struct {
	suite.Suite
	store  *store.MemoryStore
	gate   *fakeGate
	srv    *RedeemService
	batch  *BatchService
	sealed string
}

func (s *RedeemServiceSuite) SetupTest() {
	s.store = store.NewMemoryStore()
	s.gate = &fakeGate{members: map[int64]bool{}}
	s.srv = NewRedeemService(s.store, cache.NewMemoryCache(1024*1024), s.gate, zap.NewNop())
	s.batch = NewBatchService(s.store, zap.NewNop())

	ctx := context.Background()
	_, err := s.batch.GetOrCreateActive(ctx, owner)
	s.Require().NoError(err)
	for i := 1; i <= 3; i++ {
		_, _, err = s.batch.Append(ctx, owner, testEntry(i))
		s.Require().NoError(err)
	}
	s.sealed, err = s.batch.Seal(ctx, owner)
	s.Require().NoError(err)
}

func TestRedeemServiceSuite(t *testing.T) {
	suite.Run(t, new(RedeemServiceSuite))
}

func (s *RedeemServiceSuite) collector(failOn map[int]bool) (Relay, *[]int) {
	var delivered []int
	relay := func(_ context.Context, loc models.ArchiveLocation) error {
		if failOn[loc.MessageId] {
			return errors.New("message deleted")
		}
		delivered = append(delivered, loc.MessageId)
		return nil
	}
	return relay, &delivered
}

func (s *RedeemServiceSuite) TestRedeem_BatchInOrder() {
	relay, delivered := s.collector(nil)

	success, total, err := s.srv.Redeem(context.Background(), tokens.BatchToken(s.sealed), 42, relay)
	s.NoError(err)
	s.Equal(3, success)
	s.Equal(3, total)
	s.Equal([]int{1, 2, 3}, *delivered)
}

func (s *RedeemServiceSuite) TestRedeem_UnknownBatch() {
	relay, _ := s.collector(nil)

	_, _, err := s.srv.Redeem(context.Background(), tokens.BatchToken("zzzzzzzz"), 42, relay)
	s.ErrorIs(err, ErrNotFound)
}

func (s *RedeemServiceSuite) TestRedeem_SingleFile() {
	ctx := context.Background()
	rec := &models.FileRecord{ChannelId: -100999, MessageId: 77, OwnerId: owner, DisplayName: "doc.pdf"}
	s.Require().NoError(s.store.CreateFileRecord(ctx, rec))

	relay, delivered := s.collector(nil)
	success, total, err := s.srv.Redeem(ctx, rec.FileId, 42, relay)
	s.NoError(err)
	s.Equal(1, success)
	s.Equal(1, total)
	s.Equal([]int{77}, *delivered)
}

func (s *RedeemServiceSuite) TestRedeem_UnknownFile() {
	relay, _ := s.collector(nil)

	_, _, err := s.srv.Redeem(context.Background(), "nope42", 42, relay)
	s.ErrorIs(err, ErrNotFound)
}

func (s *RedeemServiceSuite) TestRedeem_GateDeniesThenAdmits() {
	s.gate.enabled = true
	relay, delivered := s.collector(nil)
	ctx := context.Background()

	_, _, err := s.srv.Redeem(ctx, tokens.BatchToken(s.sealed), 42, relay)
	s.ErrorIs(err, ErrAccessDenied)
	s.Empty(*delivered)

	// requester joins; same call now succeeds
	s.gate.members[42] = true
	success, total, err := s.srv.Redeem(ctx, tokens.BatchToken(s.sealed), 42, relay)
	s.NoError(err)
	s.Equal(3, success)
	s.Equal(3, total)
}

func (s *RedeemServiceSuite) TestRedeem_PartialRelayFailure() {
	relay, delivered := s.collector(map[int]bool{2: true})

	success, total, err := s.srv.Redeem(context.Background(), tokens.BatchToken(s.sealed), 42, relay)
	s.NoError(err)
	s.Equal(2, success)
	s.Equal(3, total)
	s.Equal([]int{1, 3}, *delivered)
}

func (s *RedeemServiceSuite) TestRedeem_ActiveBatchStillReplays() {
	ctx := context.Background()
	_, err := s.batch.GetOrCreateActive(ctx, owner)
	s.Require().NoError(err)
	_, _, err = s.batch.Append(ctx, owner, testEntry(9))
	s.Require().NoError(err)
	active, err := s.store.ActiveBatch(ctx, owner)
	s.Require().NoError(err)

	relay, delivered := s.collector(nil)
	success, _, err := s.srv.Redeem(ctx, tokens.BatchToken(active.BatchId), 42, relay)
	s.NoError(err)
	s.Equal(1, success)
	s.Equal([]int{9}, *delivered)
}

func (s *RedeemServiceSuite) TestResolve_CachesSealedBatch() {
	ctx := context.Background()

	entries, err := s.srv.Resolve(ctx, tokens.BatchToken(s.sealed))
	s.NoError(err)
	s.Len(entries, 3)

	// served from cache even if the store goes away
	s.srv.store = unavailableStore{}
	entries, err = s.srv.Resolve(ctx, tokens.BatchToken(s.sealed))
	s.NoError(err)
	s.Len(entries, 3)
}

func (s *RedeemServiceSuite) TestRedeem_StoreOutageIsNotNotFound() {
	s.srv.store = unavailableStore{}
	relay, _ := s.collector(nil)

	_, _, err := s.srv.Redeem(context.Background(), tokens.BatchToken("whatever"), 42, relay)
	s.ErrorIs(err, store.ErrUnavailable)
	s.NotErrorIs(err, ErrNotFound)

	_, _, err = s.srv.Redeem(context.Background(), "file01", 42, relay)
	s.ErrorIs(err, store.ErrUnavailable)
}
