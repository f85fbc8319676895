package mention

import (
	"context"

	"github.com/coursekit/core/internal/models"
	"github.com/coursekit/core/internal/modules/community/notification"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db     *gorm.DB
	notify *notification.Service
}

func NewService(db *gorm.DB, notify *notification.Service) *Service {
	return &Service{db: db, notify: notify}
}

// CreateForComment scans the comment body against the roster, persists
// one mention row per resolved user and queues one mention
// notification each. The author mentioning themselves produces neither.
// Re-running for the same comment is harmless: the unique index on
// (comment_id, mentioned_user_id) absorbs duplicates.
func (s *Service) CreateForComment(ctx context.Context, comment *models.CommentModel, roster []models.UserModel) error {
	users := Resolve(Extract(comment.Content), roster)
	for _, u := range users {
		if u.ID == comment.UserID {
			continue
		}
		m := models.MentionModel{
			CommentID:   comment.ID,
			MentionedID: u.ID,
			MentionerID: comment.UserID,
		}
		err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&m).Error
		if err != nil {
			return err
		}
		if err := s.notify.Notify(ctx, u.ID, models.NotifyMention, comment.ID, comment.LessonID, comment.UserID); err != nil {
			return err
		}
	}
	return nil
}

// ListForComment returns the mention rows of a comment.
func (s *Service) ListForComment(ctx context.Context, commentID string) ([]models.MentionModel, error) {
	var rows []models.MentionModel
	err := s.db.WithContext(ctx).
		Where("comment_id = ?", commentID).
		Find(&rows).Error
	return rows, err
}
