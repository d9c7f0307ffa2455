package worship

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ministry-site/internal/domain/users"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, log: log}
}

type EventInput struct {
	Title    string    `json:"title" binding:"required"`
	StartsAt time.Time `json:"starts_at" binding:"required"`
	Location string    `json:"location"`
	LeaderID uint      `json:"leader_id"`
}

type MemberInput struct {
	UserID   uint   `json:"user_id" binding:"required"`
	Function string `json:"function" binding:"required"`
	Notes    string `json:"notes"`
}

// ListEvents returns events starting at or after from, soonest first.
func (s *Service) ListEvents(ctx context.Context, from time.Time) ([]Event, error) {
	var events []Event
	err := s.db.WithContext(ctx).
		Where("starts_at >= ?", from).
		Order("starts_at ASC").
		Find(&events).Error
	return events, err
}

func (s *Service) GetEvent(ctx context.Context, id string) (*Event, error) {
	var e Event
	err := s.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("function ASC") }).
		First(&e, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &e, nil
}

func (s *Service) CreateEvent(ctx context.Context, in EventInput) (*Event, error) {
	if strings.TrimSpace(in.Title) == "" || in.StartsAt.IsZero() {
		return nil, fmt.Errorf("%w: title and starts_at required", ErrInvalidInput)
	}
	e := Event{Title: in.Title, StartsAt: in.StartsAt, Location: in.Location, LeaderID: in.LeaderID}
	if err := s.db.WithContext(ctx).Create(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// AddMember schedules a user for an event. New members start pending.
func (s *Service) AddMember(ctx context.Context, eventID string, in MemberInput) (*ScheduleMember, error) {
	if in.UserID == 0 || strings.TrimSpace(in.Function) == "" {
		return nil, fmt.Errorf("%w: user_id and function required", ErrInvalidInput)
	}
	var m ScheduleMember
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Event{}).Where("id = ?", eventID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("event %s: %w", eventID, ErrNotFound)
		}
		m = ScheduleMember{EventID: eventID, UserID: in.UserID, Function: in.Function, Notes: in.Notes}
		return tx.Create(&m).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Service) RemoveMember(ctx context.Context, eventID, memberID string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND event_id = ?", memberID, eventID).
		Delete(&ScheduleMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("schedule member %s: %w", memberID, ErrNotFound)
	}
	return nil
}

// MySchedules lists the schedule entries of one user with their events.
func (s *Service) MySchedules(ctx context.Context, userID uint) ([]ScheduleMember, error) {
	var out []ScheduleMember
	err := s.db.WithContext(ctx).
		Preload("Event").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// Convene notifies every pending member of an event and returns how many
// notifications were created. Members already notified are skipped, so a
// repeated call notifies nobody twice.
func (s *Service) Convene(ctx context.Context, eventID string) (int, error) {
	var created int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e Event
		if err := tx.First(&e, "id = ?", eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("event %s: %w", eventID, ErrNotFound)
			}
			return err
		}

		var pending []ScheduleMember
		if err := tx.Where("event_id = ? AND status = ?", eventID, StatusPending).Find(&pending).Error; err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}

		notes := make([]Notification, 0, len(pending))
		for _, m := range pending {
			memberID, evID := m.ID, e.ID
			notes = append(notes, Notification{
				UserID:           m.UserID,
				Kind:             KindConvocation,
				ScheduleMemberID: &memberID,
				EventID:          &evID,
				Title:            "Você foi convocado para uma escala!",
				Body:             fmt.Sprintf("Você foi escalado para o evento %q (%s). Por favor, confirme sua participação.", e.Title, m.Function),
				Priority:         2,
				ActionRequired:   true,
			})
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&notes)
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("team convened", zap.String("event_id", eventID), zap.Int64("notified", created))
	return int(created), nil
}

type RespondInput struct {
	ScheduleMemberID string `json:"schedule_member_id" binding:"required"`
	Answer           string `json:"answer" binding:"required"`
	NotificationID   string `json:"notification_id"`
}

type RespondResult struct {
	ScheduleMemberID string `json:"schedule_member_id"`
	Status           string `json:"status"`
	Event            string `json:"event"`
	Function         string `json:"function"`
}

// Respond records a member's answer to a convocation. Only the scheduled
// member may answer. Telling the leader and marking the original
// notification read are best effort and never fail the answer.
func (s *Service) Respond(ctx context.Context, userID uint, in RespondInput) (*RespondResult, error) {
	if !ValidAnswer(in.Answer) {
		return nil, ErrInvalidAnswer
	}

	var m ScheduleMember
	if err := s.db.WithContext(ctx).Preload("Event").First(&m, "id = ?", in.ScheduleMemberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("schedule member %s: %w", in.ScheduleMemberID, ErrNotFound)
		}
		return nil, err
	}
	if m.UserID != userID {
		s.log.Warn("convocation answer by another user",
			zap.Uint("user_id", userID), zap.Uint("member_user_id", m.UserID))
		return nil, ErrNotMember
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&m).Updates(map[string]interface{}{
		"status":       in.Answer,
		"responded_at": now,
	}).Error; err != nil {
		return nil, err
	}

	if m.Event != nil && m.Event.LeaderID != 0 {
		if err := s.notifyLeader(ctx, m, in.Answer); err != nil {
			s.log.Warn("leader notification failed", zap.String("schedule_member_id", m.ID), zap.Error(err))
		}
	}

	if in.NotificationID != "" {
		if err := s.MarkRead(ctx, userID, in.NotificationID); err != nil {
			s.log.Warn("mark convocation read failed", zap.String("notification_id", in.NotificationID), zap.Error(err))
		}
	}

	res := &RespondResult{ScheduleMemberID: m.ID, Status: in.Answer, Function: m.Function}
	if m.Event != nil {
		res.Event = m.Event.Title
	}
	return res, nil
}

func (s *Service) notifyLeader(ctx context.Context, m ScheduleMember, answer string) error {
	name := "Usuário"
	var u users.User
	if err := s.db.WithContext(ctx).Select("name", "lastname").First(&u, m.UserID).Error; err == nil && u.FullName() != "" {
		name = u.FullName()
	}

	verb := "confirmou"
	if answer == StatusDeclined {
		verb = "recusou"
	}
	memberID, evID := m.ID, m.EventID
	n := Notification{
		UserID:           m.Event.LeaderID,
		Kind:             KindConvocationReply,
		ScheduleMemberID: &memberID,
		EventID:          &evID,
		Title:            "Resposta de convocação",
		Body:             fmt.Sprintf("%s %s a convocação para %s no evento %q", name, verb, m.Function, m.Event.Title),
		Priority:         1,
	}
	// A member changing their answer replaces the leader's notice.
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "kind"}, {Name: "schedule_member_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "read_at", "created_at"}),
	}).Create(&n).Error
}

// Notifications lists a user's mailbox, newest first.
func (s *Service) Notifications(ctx context.Context, userID uint, unreadOnly bool) ([]Notification, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var out []Notification
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

// MarkRead marks a notification read. Only its owner can do so; marking an
// already-read notification is a no-op.
func (s *Service) MarkRead(ctx context.Context, userID uint, id string) error {
	var n Notification
	if err := s.db.WithContext(ctx).First(&n, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("notification %s: %w", id, ErrNotFound)
		}
		return err
	}
	if n.ReadAt != nil {
		return nil
	}
	return s.db.WithContext(ctx).Model(&n).Update("read_at", time.Now()).Error
}
