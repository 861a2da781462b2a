package tgc

import (
	"context"
	"crypto/rand"
	"encoding/binary"

	"github.com/go-faster/errors"
	"github.com/gotd/td/tg"
)

var (
	ErrInValidChannelId = errors.New("invalid channel id")
	ErrNoForwardResult  = errors.New("forward produced no message")
)

func GetChannelById(ctx context.Context, client *tg.Client, channelId int64) (*tg.InputChannel, error) {
	inputChannel := &tg.InputChannel{
		ChannelID: channelId,
	}
	channels, err := client.ChannelsGetChannels(ctx, []tg.InputChannelClass{inputChannel})

	if err != nil {
		return nil, err
	}

	if len(channels.GetChats()) == 0 {
		return nil, ErrInValidChannelId
	}
	return channels.GetChats()[0].(*tg.Channel).AsInput(), nil
}

// ForwardMessage relays one message between peers and returns the id the
// copy got in the destination. The returned id is what makes an archive
// location addressable later.
func ForwardMessage(ctx context.Context, client *tg.Client, from, to tg.InputPeerClass, msgId int) (int, error) {
	randomId, err := randInt64()
	if err != nil {
		return 0, err
	}

	res, err := client.MessagesForwardMessages(ctx, &tg.MessagesForwardMessagesRequest{
		Silent:   true,
		FromPeer: from,
		ToPeer:   to,
		ID:       []int{msgId},
		RandomID: []int64{randomId},
	})
	if err != nil {
		return 0, errors.Wrap(err, "forward message")
	}

	updates, ok := res.(*tg.Updates)
	if !ok {
		return 0, ErrNoForwardResult
	}

	for _, update := range updates.Updates {
		switch u := update.(type) {
		case *tg.UpdateNewChannelMessage:
			if msg, ok := u.Message.(*tg.Message); ok {
				return msg.ID, nil
			}
		case *tg.UpdateNewMessage:
			if msg, ok := u.Message.(*tg.Message); ok {
				return msg.ID, nil
			}
		case *tg.UpdateMessageID:
			return u.ID, nil
		}
	}

	return 0, ErrNoForwardResult
}

func randInt64() (int64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(buf[:])), nil
}
