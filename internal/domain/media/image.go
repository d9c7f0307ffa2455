package media

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Asset is a file attachment uploaded to object storage, typically the
// source of an image block.
type Asset struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	Key         string `gorm:"not null;uniqueIndex" json:"key"`
	URL         string `gorm:"not null" json:"url"`
	ContentType string `gorm:"not null" json:"content_type"`
	Size        int64  `gorm:"not null" json:"size"`
	Filename    string `json:"filename"`
	UploadedBy  uint   `gorm:"index" json:"uploaded_by"`

	CreatedAt time.Time `json:"created_at"`
}

func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
