package bot

import (
	"testing"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
)

func TestDescribeMedia(t *testing.T) {
	doc := &tg.Document{
		ID:   1,
		Size: 2048,
		Attributes: []tg.DocumentAttributeClass{
			&tg.DocumentAttributeFilename{FileName: "report.pdf"},
		},
	}
	name, size := describeMedia(&tg.MessageMediaDocument{Document: doc})
	assert.Equal(t, "report.pdf", name)
	assert.Equal(t, int64(2048), size)

	video := &tg.Document{
		ID:         2,
		Size:       4096,
		Attributes: []tg.DocumentAttributeClass{&tg.DocumentAttributeVideo{}},
	}
	name, size = describeMedia(&tg.MessageMediaDocument{Document: video})
	assert.Equal(t, "video", name)
	assert.Equal(t, int64(4096), size)

	audio := &tg.Document{
		ID:   3,
		Size: 512,
		Attributes: []tg.DocumentAttributeClass{
			&tg.DocumentAttributeAudio{Title: "intro"},
		},
	}
	name, _ = describeMedia(&tg.MessageMediaDocument{Document: audio})
	assert.Equal(t, "intro", name)

	name, size = describeMedia(&tg.MessageMediaPhoto{Photo: &tg.Photo{ID: 4}})
	assert.Equal(t, "photo", name)
	assert.Zero(t, size)

	name, _ = describeMedia(&tg.MessageMediaGeo{})
	assert.Empty(t, name)

	name, _ = describeMedia(&tg.MessageMediaDocument{Document: &tg.DocumentEmpty{}})
	assert.Empty(t, name)
}

func TestSentMessageId(t *testing.T) {
	id, err := sentMessageId(&tg.UpdateShortSentMessage{ID: 42})
	assert.NoError(t, err)
	assert.Equal(t, 42, id)

	id, err = sentMessageId(&tg.Updates{Updates: []tg.UpdateClass{
		&tg.UpdateMessageID{ID: 7},
	}})
	assert.NoError(t, err)
	assert.Equal(t, 7, id)

	_, err = sentMessageId(&tg.Updates{})
	assert.Error(t, err)
}
