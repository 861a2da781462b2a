package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

const (
	BatchStatusActive    = "active"
	BatchStatusCompleted = "completed"
	BatchStatusCancelled = "cancelled"
)

// ArchiveLocation addresses a relayed copy of an upload inside the archive
// channel.
type ArchiveLocation struct {
	ChannelId int64 `json:"channel_id"`
	MessageId int   `json:"message_id"`
}

// FileEntry is one uploaded item of a batch. Location is set only after the
// relay to the archive channel succeeded.
type FileEntry struct {
	FileId      string          `json:"file_id"`
	Location    ArchiveLocation `json:"location"`
	DisplayName string          `json:"display_name"`
	Size        int64           `json:"size,omitempty"`
	AddedAt     time.Time       `json:"added_at"`
}

type Entries []FileEntry

func (a Entries) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *Entries) Scan(value interface{}) error {
	return json.Unmarshal(value.([]byte), a)
}

// Contains reports whether an entry with the given archive location already
// exists.
func (a Entries) Contains(loc ArchiveLocation) bool {
	for _, e := range a {
		if e.Location == loc {
			return true
		}
	}
	return false
}

type Batch struct {
	BatchId   string    `gorm:"type:text;primaryKey;column:batch_id"`
	OwnerId   int64     `gorm:"type:bigint;not null;column:owner_id"`
	Status    string    `gorm:"type:text;not null;default:active"`
	Entries   Entries   `gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt time.Time `gorm:"default:timezone('utc'::text, now())"`
	UpdatedAt time.Time `gorm:"default:timezone('utc'::text, now())"`
}

func (Batch) TableName() string {
	return "sharebot.batches"
}
