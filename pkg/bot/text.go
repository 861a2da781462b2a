package bot

import (
	"fmt"

	"github.com/tgshare/sharebot/pkg/models"
)

const (
	textWelcome = "Send me any file and I will turn it into a shareable link.\n" +
		"Keep sending files to group them into one batch, then press Get Link."

	textHelp = "How it works:\n" +
		"1. Send one or more files (documents, video, photos, audio).\n" +
		"2. Press Get Link to freeze the batch and receive a share link.\n" +
		"3. Anyone opening the link gets the files back in the same order.\n\n" +
		"Commands:\n" +
		"/start - restart, drops the unfinished batch\n" +
		"/help - this message"

	textUploadsDisabled = "Uploads are currently limited to admins."
	textLinkInvalid     = "This link is invalid or has expired."
	textStoreDown       = "Storage is temporarily unavailable, please try again in a moment."
	textProcessing      = "Processing your file..."
	textAddMore         = "Ready for more files! Send the next one to add it to your batch."
	textBatchCancelled  = "Batch cancelled. Send a file to start a new one."
	textJoinPrompt      = "You need to join our channel before the files are unlocked."
	textNotJoinedYet    = "You have not joined the channel yet."
	textEmptyBatch      = "Your batch has no files yet. Send a file first."
)

func (b *Bot) deepLink(token string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", b.Username(), token)
}

func textFileReceived(name string, size int64, count int) string {
	sizePart := ""
	if size > 0 {
		sizePart = fmt.Sprintf("\nSize: %s", formatSize(size))
	}
	return fmt.Sprintf("File received!\n\nName: %s%s\nFiles in batch: %d\n\nChoose an option:", name, sizePart, count)
}

func textBatchLink(link string, count int) string {
	return fmt.Sprintf("Your link is ready!\n\nFiles: %d\nLink: %s\n\nShare it with anyone.", count, link)
}

func textRedeemed(success, total int) string {
	if success == total {
		return fmt.Sprintf("Sent %d file(s).", success)
	}
	return fmt.Sprintf("Sent %d of %d file(s). The rest are no longer available.", success, total)
}

func textSettings(mode string) string {
	return fmt.Sprintf("Upload mode: %s\n\npublic - anyone can upload\nprivate - admins only", mode)
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func modeLabel(mode string) string {
	if mode == models.UploadModePrivate {
		return "private"
	}
	return "public"
}
