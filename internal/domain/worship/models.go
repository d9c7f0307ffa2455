package worship

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Schedule member status.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusDeclined  = "declined"
)

// Notification kinds.
const (
	KindConvocation      = "convocation"
	KindConvocationReply = "convocation_reply"
)

type Event struct {
	ID       string    `gorm:"type:uuid;primaryKey" json:"id"`
	Title    string    `gorm:"not null" json:"title"`
	StartsAt time.Time `gorm:"not null;index" json:"starts_at"`
	Location string    `json:"location"`
	// LeaderID is the user told about member replies. Zero means nobody.
	LeaderID uint `gorm:"index" json:"leader_id"`

	Members []ScheduleMember `gorm:"foreignKey:EventID;references:ID;constraint:OnDelete:CASCADE;" json:"members,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScheduleMember is one person scheduled for one event in one function
// (vocals, drums, sound desk...).
type ScheduleMember struct {
	ID          string     `gorm:"type:uuid;primaryKey" json:"id"`
	EventID     string     `gorm:"type:uuid;not null;index;uniqueIndex:idx_schedule_event_user_role" json:"event_id"`
	UserID      uint       `gorm:"not null;index;uniqueIndex:idx_schedule_event_user_role" json:"user_id"`
	Function    string     `gorm:"not null;uniqueIndex:idx_schedule_event_user_role" json:"function"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Notes       string     `json:"notes"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`

	Event *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Notification is a row in a user's mailbox. At most one notification of a
// kind exists per user and schedule member, which makes convening and
// replying safe to repeat.
type Notification struct {
	ID               string     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;index;uniqueIndex:idx_notification_once" json:"user_id"`
	Kind             string     `gorm:"type:varchar(40);not null;uniqueIndex:idx_notification_once" json:"kind"`
	ScheduleMemberID *string    `gorm:"type:uuid;uniqueIndex:idx_notification_once" json:"schedule_member_id,omitempty"`
	EventID          *string    `gorm:"type:uuid;index" json:"event_id,omitempty"`
	Title            string     `gorm:"not null" json:"title"`
	Body             string     `json:"body"`
	Priority         int        `gorm:"not null;default:1" json:"priority"`
	ActionRequired   bool       `gorm:"not null;default:false" json:"action_required"`
	ReadAt           *time.Time `json:"read_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func (m *ScheduleMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = StatusPending
	}
	return nil
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// ValidAnswer reports whether s is an answer a member may give.
func ValidAnswer(s string) bool {
	return s == StatusConfirmed || s == StatusDeclined
}
