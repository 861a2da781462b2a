package bot

import (
	"context"
	"sync"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
)

// membershipGate answers whether a user currently belongs to the configured
// join channel. Every redemption attempt asks again; membership is never
// cached because users join and leave between attempts.
type membershipGate struct {
	channelId int64

	mu      sync.RWMutex
	api     *tg.Client
	channel *tg.InputChannel
}

func (g *membershipGate) bind(api *tg.Client, channel *tg.InputChannel) {
	g.mu.Lock()
	g.api = api
	g.channel = channel
	g.mu.Unlock()
}

func (g *membershipGate) Enabled() bool {
	return g.channelId != 0
}

func (g *membershipGate) IsMember(ctx context.Context, userId int64) (bool, error) {
	g.mu.RLock()
	api, channel := g.api, g.channel
	g.mu.RUnlock()

	if api == nil || channel == nil {
		// gate configured but channel not resolved yet; fail closed
		return false, nil
	}

	_, err := api.ChannelsGetParticipant(ctx, &tg.ChannelsGetParticipantRequest{
		Channel:     channel,
		Participant: &tg.InputPeerUser{UserID: userId},
	})
	if err != nil {
		if tgerr.Is(err, "USER_NOT_PARTICIPANT") || tgerr.Is(err, "PARTICIPANT_ID_INVALID") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
