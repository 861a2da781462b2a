package bot

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/gotd/td/tg"
	"github.com/tgshare/sharebot/internal/logging"
	"github.com/tgshare/sharebot/internal/tgc"
	"github.com/tgshare/sharebot/pkg/models"
	"github.com/tgshare/sharebot/pkg/services"
	"go.uber.org/zap"
)

// handleUpload archives a media message and appends it to the sender's
// active batch. The user sees a placeholder immediately; the placeholder is
// edited into the acknowledgement once the forward and the append are done.
func (b *Bot) handleUpload(ctx context.Context, userId int64, m *tg.Message) error {
	allowed, err := b.settings.CanUpload(ctx, userId)
	if err != nil {
		return err
	}
	if !allowed {
		return b.reply(ctx, userId, textUploadsDisabled, nil)
	}

	name, size := describeMedia(m.Media)
	if name == "" {
		return b.reply(ctx, userId, textHelp, nil)
	}

	placeholderId, err := b.sendPlaceholder(ctx, userId)
	if err != nil {
		return errors.Wrap(err, "send placeholder")
	}

	if _, err := b.batches.GetOrCreateActive(ctx, userId); err != nil {
		return err
	}

	archivedId, err := tgc.ForwardMessage(ctx, b.api, b.inputUser(userId), b.archivePeer(), m.ID)
	if err != nil {
		return errors.Wrap(err, "archive upload")
	}

	rec := &models.FileRecord{
		ChannelId:   b.cfg.ArchiveChannelId,
		MessageId:   archivedId,
		DisplayName: name,
		Size:        size,
		OwnerId:     userId,
	}
	if err := b.batches.RecordFile(ctx, rec); err != nil {
		return errors.Wrap(err, "record file")
	}

	count, duplicate, err := b.batches.Append(ctx, userId, models.FileEntry{
		FileId:      rec.FileId,
		Location:    rec.Location(),
		DisplayName: name,
		Size:        size,
	})
	if err != nil {
		return err
	}
	if duplicate {
		logging.FromContext(ctx).Debug("duplicate upload", zap.Int("message", m.ID))
	}

	logging.FromContext(ctx).Info("file archived",
		zap.String("file", rec.FileId),
		zap.Int("archived_message", archivedId),
		zap.Int("batch_count", count))

	return b.editMessage(ctx, userId, placeholderId, textFileReceived(name, size, count), batchKeyboard())
}

func (b *Bot) sendPlaceholder(ctx context.Context, userId int64) (int, error) {
	updates, err := b.sender.To(b.inputUser(userId)).Text(ctx, textProcessing)
	if err != nil {
		return 0, err
	}
	return sentMessageId(updates)
}

func (b *Bot) editMessage(ctx context.Context, userId int64, msgId int, text string, mk tg.ReplyMarkupClass) error {
	req := &tg.MessagesEditMessageRequest{
		Peer:    b.inputUser(userId),
		ID:      msgId,
		Message: text,
	}
	if mk != nil {
		req.ReplyMarkup = mk
	}
	_, err := b.api.MessagesEditMessage(ctx, req)
	return err
}

// relayTo adapts the requester into the redeem service's relay callback:
// each archived item is forwarded from the archive channel back to them.
func (b *Bot) relayTo(userId int64) services.Relay {
	return func(ctx context.Context, loc models.ArchiveLocation) error {
		from, err := b.locationPeer(ctx, loc)
		if err != nil {
			return err
		}
		_, err = tgc.ForwardMessage(ctx, b.api, from, b.inputUser(userId), loc.MessageId)
		return err
	}
}

// locationPeer resolves the source channel of an archive location. Almost
// always the configured archive channel; older records may point elsewhere
// after a channel migration.
func (b *Bot) locationPeer(ctx context.Context, loc models.ArchiveLocation) (tg.InputPeerClass, error) {
	if loc.ChannelId == b.cfg.ArchiveChannelId {
		return b.archivePeer(), nil
	}
	channel, err := tgc.GetChannelById(ctx, b.api, loc.ChannelId)
	if err != nil {
		return nil, err
	}
	return &tg.InputPeerChannel{ChannelID: channel.ChannelID, AccessHash: channel.AccessHash}, nil
}

func sentMessageId(updates tg.UpdatesClass) (int, error) {
	switch u := updates.(type) {
	case *tg.Updates:
		for _, update := range u.Updates {
			switch inner := update.(type) {
			case *tg.UpdateNewMessage:
				if msg, ok := inner.Message.(*tg.Message); ok {
					return msg.ID, nil
				}
			case *tg.UpdateMessageID:
				return inner.ID, nil
			}
		}
	case *tg.UpdateShortSentMessage:
		return u.ID, nil
	}
	return 0, errors.New("sent message id not found in updates")
}

// describeMedia extracts a display name and byte size from an uploaded
// media. An empty name means the media kind is not supported.
func describeMedia(media tg.MessageMediaClass) (string, int64) {
	switch m := media.(type) {
	case *tg.MessageMediaDocument:
		doc, ok := m.Document.AsNotEmpty()
		if !ok {
			return "", 0
		}
		name := ""
		kind := "file"
		for _, attr := range doc.Attributes {
			switch a := attr.(type) {
			case *tg.DocumentAttributeFilename:
				name = a.FileName
			case *tg.DocumentAttributeVideo:
				kind = "video"
			case *tg.DocumentAttributeAudio:
				kind = "audio"
				if a.Title != "" {
					name = a.Title
				}
			}
		}
		if name == "" {
			name = kind
		}
		return name, doc.Size
	case *tg.MessageMediaPhoto:
		if _, ok := m.Photo.AsNotEmpty(); !ok {
			return "", 0
		}
		return "photo", 0
	default:
		return "", 0
	}
}
