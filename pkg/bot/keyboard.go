package bot

import (
	"github.com/gotd/td/telegram/message/markup"
	"github.com/gotd/td/tg"
)

const (
	cbGetBatchLink   = "get_batch_link"
	cbAddMoreFiles   = "add_more_files"
	cbCancelBatch    = "cancel_batch"
	cbSetModePublic  = "set_mode_public"
	cbSetModePrivate = "set_mode_private"
	cbCheckJoin      = "check_join_"
)

func batchKeyboard() tg.ReplyMarkupClass {
	return markup.InlineKeyboard(
		markup.Row(markup.Callback("Get Link", []byte(cbGetBatchLink))),
		markup.Row(
			markup.Callback("Add More Files", []byte(cbAddMoreFiles)),
			markup.Callback("Cancel", []byte(cbCancelBatch)),
		),
	)
}

func settingsKeyboard() tg.ReplyMarkupClass {
	return markup.InlineKeyboard(
		markup.Row(
			markup.Callback("Public", []byte(cbSetModePublic)),
			markup.Callback("Private", []byte(cbSetModePrivate)),
		),
	)
}

func joinKeyboard(inviteLink, token string) tg.ReplyMarkupClass {
	rows := []tg.KeyboardButtonRow{}
	if inviteLink != "" {
		rows = append(rows, markup.Row(markup.URL("Join Channel", inviteLink)))
	}
	rows = append(rows, markup.Row(markup.Callback("I've Joined", []byte(cbCheckJoin+token))))
	return markup.InlineKeyboard(rows...)
}
