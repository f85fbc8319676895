package notification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/coursekit/core/internal/models"
	"github.com/coursekit/core/internal/pkg/events"
	"gorm.io/gorm"
)

// InboxLimit caps how many entries List returns; older activity simply
// ages out of the inbox view.
const InboxLimit = 20

type Service struct {
	db  *gorm.DB
	bus events.Bus
}

func NewService(db *gorm.DB, bus events.Bus) *Service {
	return &Service{db: db, bus: bus}
}

// Notify inserts an inbox entry for userID unless they triggered the
// activity themselves. Self-directed entries are silently skipped.
func (s *Service) Notify(ctx context.Context, userID string, kind models.NotificationKind, commentID, lessonID, triggeredBy string) error {
	if userID == "" || userID == triggeredBy {
		return nil
	}
	n := models.NotificationModel{
		UserID:      userID,
		CommentID:   commentID,
		LessonID:    lessonID,
		Kind:        kind,
		TriggeredBy: triggeredBy,
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		return err
	}
	s.publish(ctx, events.EventInsert, &n)
	return nil
}

func (s *Service) List(ctx context.Context, userID string) ([]models.NotificationModel, error) {
	var rows []models.NotificationModel
	err := s.db.WithContext(ctx).
		Preload("Actor").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(InboxLimit).
		Find(&rows).Error
	return rows, err
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.NotificationModel{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead flips one entry; the entry must belong to userID.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).
		Model(&models.NotificationModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	s.publish(ctx, events.EventUpdate, &models.NotificationModel{UserID: userID})
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).
		Model(&models.NotificationModel{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
	if err != nil {
		return err
	}
	s.publish(ctx, events.EventUpdate, &models.NotificationModel{UserID: userID})
	return nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.NotificationModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	s.publish(ctx, events.EventDelete, &models.NotificationModel{UserID: userID})
	return nil
}

// PruneRead hard-deletes read entries created before the cutoff. Run
// from the scheduler; unread entries are never pruned.
func PruneRead(db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.Unscoped().
		Where("read = ? AND created_at < ?", true, cutoff).
		Delete(&models.NotificationModel{})
	return res.RowsAffected, res.Error
}

func (s *Service) publish(ctx context.Context, event string, n *models.NotificationModel) {
	if s.bus == nil {
		return
	}
	row, _ := json.Marshal(n)
	_ = s.bus.Publish(ctx, events.ChangeEvent{
		Event: event,
		Table: models.NotificationModel{}.TableName(),
		Scope: events.NotifyScope(n.UserID),
		Row:   row,
	})
}

// IsNotFound reports whether err means the entry does not exist or is
// not owned by the caller.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
