package bot

import (
	"context"
	"errors"
	"strings"

	"github.com/gotd/td/tg"
	"github.com/tgshare/sharebot/internal/logging"
	"github.com/tgshare/sharebot/internal/tokens"
	"github.com/tgshare/sharebot/pkg/models"
	"github.com/tgshare/sharebot/pkg/services"
	"go.uber.org/zap"
)

func (b *Bot) onCallbackQuery(ctx context.Context, e tg.Entities, update *tg.UpdateBotCallbackQuery) error {
	b.rememberPeers(e)

	userId := update.UserID
	data := string(update.Data)
	ctx = logging.WithLogger(ctx, b.logger.With(
		zap.Int64("user", userId),
		zap.String("callback", data)))

	var err error
	switch {
	case data == cbGetBatchLink:
		err = b.onGetBatchLink(ctx, userId, update)
	case data == cbAddMoreFiles:
		err = b.answerAndEdit(ctx, userId, update, textAddMore, nil)
	case data == cbCancelBatch:
		if err = b.batches.Cancel(ctx, userId); err == nil {
			err = b.answerAndEdit(ctx, userId, update, textBatchCancelled, nil)
		}
	case data == cbSetModePublic:
		err = b.onSetMode(ctx, userId, update, models.UploadModePublic)
	case data == cbSetModePrivate:
		err = b.onSetMode(ctx, userId, update, models.UploadModePrivate)
	case strings.HasPrefix(data, cbCheckJoin):
		err = b.onCheckJoin(ctx, userId, update, strings.TrimPrefix(data, cbCheckJoin))
	default:
		err = b.answer(ctx, update, "", false)
	}

	if err != nil {
		logging.FromContext(ctx).Error("callback failed", zap.Error(err))
		b.answer(ctx, update, textStoreDown, true)
	}
	return nil
}

func (b *Bot) onGetBatchLink(ctx context.Context, userId int64, update *tg.UpdateBotCallbackQuery) error {
	count, err := b.batches.ActiveCount(ctx, userId)
	if err != nil {
		return err
	}

	batchId, err := b.batches.Seal(ctx, userId)
	if err != nil {
		if errors.Is(err, services.ErrEmptyBatch) {
			return b.answer(ctx, update, textEmptyBatch, true)
		}
		return err
	}

	link := b.deepLink(tokens.BatchToken(batchId))
	return b.answerAndEdit(ctx, userId, update, textBatchLink(link, count), nil)
}

func (b *Bot) onSetMode(ctx context.Context, userId int64, update *tg.UpdateBotCallbackQuery, mode string) error {
	if err := b.settings.SetUploadMode(ctx, userId, mode); err != nil {
		if errors.Is(err, services.ErrAccessDenied) {
			return b.answer(ctx, update, "Admins only.", true)
		}
		return err
	}
	return b.answerAndEdit(ctx, userId, update, textSettings(modeLabel(mode)), settingsKeyboard())
}

func (b *Bot) onCheckJoin(ctx context.Context, userId int64, update *tg.UpdateBotCallbackQuery, token string) error {
	success, total, err := b.redeems.Redeem(ctx, token, userId, b.relayTo(userId))
	if err != nil {
		if errors.Is(err, services.ErrAccessDenied) {
			return b.answer(ctx, update, textNotJoinedYet, true)
		}
		if errors.Is(err, services.ErrNotFound) {
			return b.answer(ctx, update, textLinkInvalid, true)
		}
		return err
	}
	if err := b.answer(ctx, update, "", false); err != nil {
		return err
	}
	return b.reply(ctx, userId, textRedeemed(success, total), nil)
}

// answer acknowledges the callback so the client stops its spinner. With a
// message it shows a toast, with alert a popup.
func (b *Bot) answer(ctx context.Context, update *tg.UpdateBotCallbackQuery, msg string, alert bool) error {
	req := &tg.MessagesSetBotCallbackAnswerRequest{
		QueryID: update.QueryID,
		Alert:   alert,
	}
	if msg != "" {
		req.Message = msg
	}
	_, err := b.api.MessagesSetBotCallbackAnswer(ctx, req)
	return err
}

func (b *Bot) answerAndEdit(ctx context.Context, userId int64, update *tg.UpdateBotCallbackQuery, text string, mk tg.ReplyMarkupClass) error {
	if err := b.answer(ctx, update, "", false); err != nil {
		return err
	}
	return b.editMessage(ctx, userId, update.MsgID, text, mk)
}
