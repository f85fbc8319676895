package reaction

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/coursekit/core/internal/models"
	"github.com/coursekit/core/internal/modules/community/notification"
	"github.com/coursekit/core/internal/pkg/events"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrUnknownKind = errors.New("unknown reaction kind")

// Counts holds the derived totals for one comment.
type Counts struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
}

type Service struct {
	db     *gorm.DB
	bus    events.Bus
	notify *notification.Service
}

func NewService(db *gorm.DB, bus events.Bus, notify *notification.Service) *Service {
	return &Service{db: db, bus: bus, notify: notify}
}

// React toggles userID's reaction on a comment and returns the
// resulting state: the new kind, or nil when the toggle removed the
// reaction. Same kind again deletes, the opposite kind updates in
// place, no prior row inserts. Two devices racing the first insert
// both land on the unique (comment_id, user_id) index; the loser's
// insert is converted to an update by ON CONFLICT instead of failing.
func (s *Service) React(ctx context.Context, commentID, userID string, kind models.ReactionKind) (*models.ReactionKind, error) {
	if kind != models.ReactionLike && kind != models.ReactionDislike {
		return nil, ErrUnknownKind
	}

	var comment models.CommentModel
	if err := s.db.WithContext(ctx).First(&comment, "id = ? AND deleted = ?", commentID, false).Error; err != nil {
		return nil, err
	}

	var existing models.ReactionModel
	err := s.db.WithContext(ctx).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		First(&existing).Error

	switch {
	case err == nil && existing.Kind == kind:
		// hard delete: a soft-deleted row would keep occupying the
		// (comment_id, user_id) unique index and block re-reacting
		if err := s.db.WithContext(ctx).Unscoped().Delete(&existing).Error; err != nil {
			return nil, err
		}
		s.publish(ctx, events.EventDelete, &comment)
		return nil, nil

	case err == nil:
		if err := s.db.WithContext(ctx).Model(&existing).Update("kind", kind).Error; err != nil {
			return nil, err
		}
		s.publish(ctx, events.EventUpdate, &comment)
		return &kind, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		row := models.ReactionModel{CommentID: commentID, UserID: userID, Kind: kind}
		err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "comment_id"}, {Name: "user_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{"kind": kind}),
			}).
			Create(&row).Error
		if err != nil {
			return nil, err
		}
		s.publish(ctx, events.EventInsert, &comment)
		if s.notify != nil {
			_ = s.notify.Notify(ctx, comment.UserID, models.NotifyReaction, comment.ID, comment.LessonID, userID)
		}
		return &kind, nil

	default:
		return nil, err
	}
}

// CountsFor derives like/dislike totals for a set of comments in one
// grouped query. Comments without reactions are absent from the map.
func (s *Service) CountsFor(ctx context.Context, commentIDs []string) (map[string]Counts, error) {
	out := make(map[string]Counts, len(commentIDs))
	if len(commentIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		CommentID string
		Kind      models.ReactionKind
		Total     int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.ReactionModel{}).
		Select("comment_id, kind, COUNT(*) AS total").
		Where("comment_id IN ?", commentIDs).
		Group("comment_id, kind").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		c := out[r.CommentID]
		switch r.Kind {
		case models.ReactionLike:
			c.Likes = r.Total
		case models.ReactionDislike:
			c.Dislikes = r.Total
		}
		out[r.CommentID] = c
	}
	return out, nil
}

// ViewerReactions returns the viewer's own reaction per comment id.
func (s *Service) ViewerReactions(ctx context.Context, commentIDs []string, viewerID string) (map[string]models.ReactionKind, error) {
	out := make(map[string]models.ReactionKind)
	if len(commentIDs) == 0 || viewerID == "" {
		return out, nil
	}
	var rows []models.ReactionModel
	err := s.db.WithContext(ctx).
		Where("comment_id IN ? AND user_id = ?", commentIDs, viewerID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.CommentID] = r.Kind
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, event string, comment *models.CommentModel) {
	if s.bus == nil {
		return
	}
	row, _ := json.Marshal(map[string]string{"comment_id": comment.ID})
	_ = s.bus.Publish(ctx, events.ChangeEvent{
		Event: event,
		Table: models.ReactionModel{}.TableName(),
		Scope: events.LessonScope(comment.LessonID),
		Row:   row,
	})
}
