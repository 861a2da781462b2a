package models

import "time"

const (
	SettingUploadMode = "upload_mode"

	UploadModePublic  = "public"
	UploadModePrivate = "private"
)

type Setting struct {
	Key       string    `gorm:"type:text;primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"default:timezone('utc'::text, now())"`
}

func (Setting) TableName() string {
	return "sharebot.settings"
}
