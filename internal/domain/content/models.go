package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Payload is the open key-value content of a block. Its shape depends on the
// block type; see Decode for the typed view.
type Payload map[string]any

type Page struct {
	ID              string `gorm:"type:uuid;primaryKey" json:"id"`
	Slug            string `gorm:"not null;uniqueIndex" json:"slug"`
	Title           string `gorm:"not null" json:"title"`
	MetaDescription string `json:"meta_description"`
	Status          string `gorm:"not null;default:'draft';index" json:"status"`

	Sections []Section `gorm:"foreignKey:PageID;references:ID;constraint:OnDelete:CASCADE;" json:"sections,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Section struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	PageID    string `gorm:"type:uuid;not null;index" json:"page_id"`
	Type      string `gorm:"not null" json:"type"`
	SortIndex int    `gorm:"not null;default:0;index" json:"order"`
	Status    string `gorm:"not null;default:'draft'" json:"status"`

	Blocks []Block `gorm:"foreignKey:SectionID;references:ID;constraint:OnDelete:CASCADE;" json:"blocks,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Block struct {
	ID        string  `gorm:"type:uuid;primaryKey" json:"id"`
	SectionID string  `gorm:"type:uuid;not null;index" json:"section_id"`
	Type      string  `gorm:"not null" json:"type"`
	Content   Payload `gorm:"type:jsonb;serializer:json;not null" json:"content"`
	SortIndex int     `gorm:"not null;default:0;index" json:"order"`
	Version   int     `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Page) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	if p.Status == "" {
		p.Status = StatusDraft
	}
	return nil
}

func (s *Section) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	if s.Status == "" {
		s.Status = StatusDraft
	}
	return nil
}

func (b *Block) BeforeCreate(tx *gorm.DB) error {
	ensureID(&b.ID)
	if b.Content == nil {
		b.Content = Payload{}
	}
	if b.Version == 0 {
		b.Version = 1
	}
	return nil
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func ValidStatus(s string) bool {
	return s == StatusDraft || s == StatusPublished
}

// Clone returns a shallow copy of the payload; nested values are shared.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
