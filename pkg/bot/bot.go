// Package bot wires the Telegram transport to the batch, redeem and setting
// services: private-chat uploads are relayed into the archive channel and
// accumulated into a batch, sealed batches become deep links, and opened
// deep links replay their files to the requester.
package bot

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"
	"github.com/tgshare/sharebot/internal/config"
	"github.com/tgshare/sharebot/internal/tgc"
	"github.com/tgshare/sharebot/pkg/services"
	"go.uber.org/zap"
)

type Bot struct {
	cfg      *config.BotConfig
	batches  *services.BatchService
	settings *services.SettingService
	redeems  *services.RedeemService
	logger   *zap.Logger

	gate *membershipGate

	// set during Run, once the session is authorized
	api     *tg.Client
	sender  *message.Sender
	self    *tg.User
	archive *tg.InputChannel

	// user access hashes observed in updates, needed to address users in
	// later rpc calls
	peersMu sync.RWMutex
	peers   map[int64]int64
}

func New(cfg *config.BotConfig, batches *services.BatchService, settings *services.SettingService, logger *zap.Logger) *Bot {
	return &Bot{
		cfg:      cfg,
		batches:  batches,
		settings: settings,
		logger:   logger.Named("bot"),
		gate:     &membershipGate{channelId: cfg.JoinChannelId},
		peers:    make(map[int64]int64),
	}
}

// Gate returns the membership gate backing the redeem flow. It only starts
// answering once the client is connected.
func (b *Bot) Gate() services.Gate {
	return b.gate
}

// SetRedeemService breaks the construction cycle: the redeem service needs
// the bot's gate, the bot needs the redeem service for /start tokens.
func (b *Bot) SetRedeemService(r *services.RedeemService) {
	b.redeems = r
}

// Dispatcher builds the update handler to hand to the telegram client.
func (b *Bot) Dispatcher() telegram.UpdateHandler {
	dispatcher := tg.NewUpdateDispatcher()
	dispatcher.OnNewMessage(b.onNewMessage)
	dispatcher.OnBotCallbackQuery(b.onCallbackQuery)
	return dispatcher
}

// Run drives the bot until ctx is cancelled.
func (b *Bot) Run(ctx context.Context, client *telegram.Client, token string) error {
	return tgc.RunWithBotAuth(ctx, client, token, func(ctx context.Context, self *tg.User) error {
		b.api = client.API()
		b.sender = message.NewSender(b.api)
		b.self = self

		archive, err := tgc.GetChannelById(ctx, b.api, b.cfg.ArchiveChannelId)
		if err != nil {
			return errors.Wrap(err, "resolve archive channel")
		}
		b.archive = archive

		if b.cfg.JoinChannelId != 0 {
			join, err := tgc.GetChannelById(ctx, b.api, b.cfg.JoinChannelId)
			if err != nil {
				return errors.Wrap(err, "resolve join channel")
			}
			b.gate.bind(b.api, join)
		}

		b.logger.Info("bot is up",
			zap.String("username", self.Username),
			zap.Int64("archive_channel", b.cfg.ArchiveChannelId))

		<-ctx.Done()
		return ctx.Err()
	})
}

// Username reports the bot's username once connected, for links and the
// status endpoint.
func (b *Bot) Username() string {
	if b.self == nil {
		return ""
	}
	return b.self.Username
}

func (b *Bot) rememberPeers(e tg.Entities) {
	if len(e.Users) == 0 {
		return
	}
	b.peersMu.Lock()
	for id, user := range e.Users {
		b.peers[id] = user.AccessHash
	}
	b.peersMu.Unlock()
}

func (b *Bot) inputUser(userId int64) *tg.InputPeerUser {
	b.peersMu.RLock()
	hash := b.peers[userId]
	b.peersMu.RUnlock()
	return &tg.InputPeerUser{UserID: userId, AccessHash: hash}
}

func (b *Bot) archivePeer() *tg.InputPeerChannel {
	return &tg.InputPeerChannel{ChannelID: b.archive.ChannelID, AccessHash: b.archive.AccessHash}
}
