package models

import "time"

// FileRecord is the single-file mapping behind legacy ?start=<file_id>
// links, created alongside the corresponding batch entry.
type FileRecord struct {
	FileId      string    `gorm:"type:text;primaryKey;column:file_id"`
	ChannelId   int64     `gorm:"type:bigint;not null;column:channel_id"`
	MessageId   int       `gorm:"type:integer;not null;column:message_id"`
	DisplayName string    `gorm:"type:text;not null;default:''"`
	Size        int64     `gorm:"type:bigint;not null;default:0"`
	OwnerId     int64     `gorm:"type:bigint;not null;column:owner_id"`
	CreatedAt   time.Time `gorm:"default:timezone('utc'::text, now())"`
}

func (FileRecord) TableName() string {
	return "sharebot.file_records"
}

func (f *FileRecord) Location() ArchiveLocation {
	return ArchiveLocation{ChannelId: f.ChannelId, MessageId: f.MessageId}
}
