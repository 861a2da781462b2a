package bot

import (
	"context"
	"errors"
	"strings"

	"github.com/gotd/td/tg"
	"github.com/tgshare/sharebot/internal/logging"
	"github.com/tgshare/sharebot/pkg/services"
	"github.com/tgshare/sharebot/pkg/store"
	"go.uber.org/zap"
)

func (b *Bot) onNewMessage(ctx context.Context, e tg.Entities, update *tg.UpdateNewMessage) error {
	m, ok := update.Message.(*tg.Message)
	if !ok || m.Out {
		return nil
	}

	// private conversations only
	peer, ok := m.PeerID.(*tg.PeerUser)
	if !ok {
		return nil
	}
	b.rememberPeers(e)

	userId := peer.UserID
	ctx = logging.WithLogger(ctx, b.logger.With(zap.Int64("user", userId)))

	var err error
	switch {
	case strings.HasPrefix(m.Message, "/"):
		err = b.handleCommand(ctx, userId, m.Message)
	case m.Media != nil:
		err = b.handleUpload(ctx, userId, m)
	default:
		err = b.reply(ctx, userId, textHelp, nil)
	}

	// errors stop at the handler boundary: one bad update never takes the
	// bot down or leaks into other users' flows
	if err != nil {
		logging.FromContext(ctx).Error("update failed", zap.Error(err))
		b.replyError(ctx, userId, err)
	}
	return nil
}

func (b *Bot) handleCommand(ctx context.Context, userId int64, text string) error {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(text), " ")
	cmd, _, _ = strings.Cut(cmd, "@")

	switch cmd {
	case "/start":
		if arg != "" {
			return b.redeemToken(ctx, userId, strings.TrimSpace(arg))
		}
		if err := b.batches.ResetOnSessionStart(ctx, userId); err != nil {
			return err
		}
		return b.reply(ctx, userId, textWelcome, nil)
	case "/help":
		return b.reply(ctx, userId, textHelp, nil)
	case "/settings":
		return b.handleSettings(ctx, userId)
	default:
		return b.reply(ctx, userId, textHelp, nil)
	}
}

func (b *Bot) handleSettings(ctx context.Context, userId int64) error {
	if !b.settings.IsAdmin(userId) {
		return b.reply(ctx, userId, textHelp, nil)
	}
	mode, err := b.settings.UploadMode(ctx)
	if err != nil {
		return err
	}
	return b.reply(ctx, userId, textSettings(modeLabel(mode)), settingsKeyboard())
}

func (b *Bot) redeemToken(ctx context.Context, userId int64, token string) error {
	success, total, err := b.redeems.Redeem(ctx, token, userId, b.relayTo(userId))
	if err != nil {
		if errors.Is(err, services.ErrAccessDenied) {
			return b.reply(ctx, userId, textJoinPrompt, joinKeyboard(b.cfg.JoinChannelLink, token))
		}
		return err
	}
	return b.reply(ctx, userId, textRedeemed(success, total), nil)
}

// replyError converts the service error taxonomy into user-facing text.
// Store outages are shown as transient, never as a missing link.
func (b *Bot) replyError(ctx context.Context, userId int64, err error) {
	var text string
	switch {
	case errors.Is(err, services.ErrNotFound):
		text = textLinkInvalid
	case errors.Is(err, services.ErrEmptyBatch):
		text = textEmptyBatch
	case errors.Is(err, store.ErrUnavailable):
		text = textStoreDown
	default:
		text = "Something went wrong, please try again."
	}
	if rerr := b.reply(ctx, userId, text, nil); rerr != nil {
		logging.FromContext(ctx).Warn("failed to send error reply", zap.Error(rerr))
	}
}

func (b *Bot) reply(ctx context.Context, userId int64, text string, mk tg.ReplyMarkupClass) error {
	target := b.sender.To(b.inputUser(userId))
	if mk != nil {
		_, err := target.Markup(mk).Text(ctx, text)
		return err
	}
	_, err := target.Text(ctx, text)
	return err
}
