package comment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/coursekit/core/internal/models"
	"github.com/coursekit/core/internal/modules/community/mention"
	"github.com/coursekit/core/internal/modules/community/notification"
	"github.com/coursekit/core/internal/modules/community/reaction"
	"github.com/coursekit/core/internal/pkg/events"
	"github.com/coursekit/core/internal/pkg/markdown"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("comment not found")
	ErrForbidden = errors.New("not allowed")
	ErrTooDeep   = errors.New("reply depth limit reached")
)

// RosterFunc resolves the users a lesson's mentions are matched
// against: the enrolled students plus the course creator.
type RosterFunc func(ctx context.Context, lessonID string) ([]models.UserModel, error)

type Service struct {
	db        *gorm.DB
	bus       events.Bus
	reactions *reaction.Service
	mentions  *mention.Service
	notify    *notification.Service
	roster    RosterFunc
	log       *zap.Logger
}

func NewService(db *gorm.DB, bus events.Bus, reactions *reaction.Service, mentions *mention.Service, notify *notification.Service, roster RosterFunc, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, bus: bus, reactions: reactions, mentions: mentions, notify: notify, roster: roster, log: log}
}

// Thread fetches every live comment of a lesson and builds the tree
// the viewer sees, with derived reaction totals and the viewer's own
// reactions attached.
func (s *Service) Thread(ctx context.Context, lessonID, viewerID string) ([]*Node, int, error) {
	var flat []models.CommentModel
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("lesson_id = ? AND deleted = ?", lessonID, false).
		Order("created_at ASC").
		Find(&flat).Error
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, len(flat))
	for i := range flat {
		ids[i] = flat[i].ID
	}
	counts, err := s.reactions.CountsFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	mine, err := s.reactions.ViewerReactions(ctx, ids, viewerID)
	if err != nil {
		return nil, 0, err
	}

	tree := BuildTree(flat, counts, mine, viewerID)
	s.renderBodies(ctx, lessonID, tree)
	return tree, Count(tree), nil
}

// renderBodies fills ContentHTML on every node: mention tokens become
// profile anchors, then the body is rendered and sanitized.
func (s *Service) renderBodies(ctx context.Context, lessonID string, nodes []*Node) {
	var targets []markdown.MentionTarget
	if s.roster != nil {
		roster, err := s.roster(ctx, lessonID)
		if err != nil {
			s.log.Warn("mention roster fetch failed", zap.String("lesson_id", lessonID), zap.Error(err))
		}
		for i := range roster {
			targets = append(targets, markdown.MentionTarget{ID: roster[i].ID, Name: roster[i].Name})
		}
	}

	var walk func([]*Node)
	walk = func(ns []*Node) {
		for _, n := range ns {
			n.ContentHTML = markdown.Render(markdown.FormatMentions(n.Content, targets))
			walk(n.Replies)
		}
	}
	walk(nodes)
}

// Create posts a root comment on a lesson, then runs mention fanout.
func (s *Service) Create(ctx context.Context, lessonID, userID, content string) (*models.CommentModel, error) {
	return s.create(ctx, lessonID, userID, content, nil)
}

// Reply posts a reply under parentID. The parent must be live, belong
// to the same thread, and sit above the depth bound.
func (s *Service) Reply(ctx context.Context, parentID, userID, content string) (*models.CommentModel, error) {
	parent, err := s.getLive(ctx, parentID)
	if err != nil {
		return nil, err
	}
	depth, err := s.depthOf(ctx, parent)
	if err != nil {
		return nil, err
	}
	if depth >= MaxDepth {
		return nil, ErrTooDeep
	}
	cm, err := s.create(ctx, parent.LessonID, userID, content, &parent.ID)
	if err != nil {
		return nil, err
	}
	if err := s.notify.Notify(ctx, parent.UserID, models.NotifyReply, cm.ID, cm.LessonID, userID); err != nil {
		return nil, err
	}
	return cm, nil
}

func (s *Service) create(ctx context.Context, lessonID, userID, content string, parentID *string) (*models.CommentModel, error) {
	cm := models.CommentModel{
		LessonID: lessonID,
		UserID:   userID,
		Content:  content,
		ParentID: parentID,
	}
	if err := s.db.WithContext(ctx).Create(&cm).Error; err != nil {
		return nil, err
	}

	if s.roster != nil {
		roster, err := s.roster(ctx, lessonID)
		if err != nil {
			s.log.Warn("mention roster fetch failed", zap.String("lesson_id", lessonID), zap.Error(err))
		} else if err := s.mentions.CreateForComment(ctx, &cm, roster); err != nil {
			s.log.Warn("mention fanout failed", zap.String("comment_id", cm.ID), zap.Error(err))
		}
	}

	s.publish(ctx, events.EventInsert, &cm)
	return &cm, nil
}

// Edit replaces the body of the viewer's own comment.
func (s *Service) Edit(ctx context.Context, id, viewerID, content string) (*models.CommentModel, error) {
	cm, err := s.getLive(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanEdit(viewerID, cm) {
		return nil, ErrForbidden
	}
	now := time.Now()
	err = s.db.WithContext(ctx).Model(cm).Updates(map[string]interface{}{
		"content":   content,
		"edited":    true,
		"edited_at": &now,
	}).Error
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventUpdate, cm)
	return cm, nil
}

// Delete soft-deletes the viewer's own comment. Replies survive; the
// next tree build promotes them to roots.
func (s *Service) Delete(ctx context.Context, id, viewerID string) error {
	cm, err := s.getLive(ctx, id)
	if err != nil {
		return err
	}
	if !CanDelete(viewerID, cm) {
		return ErrForbidden
	}
	if err := s.db.WithContext(ctx).Model(cm).Update("deleted", true).Error; err != nil {
		return err
	}
	s.publish(ctx, events.EventDelete, cm)
	return nil
}

// TogglePin flips the pinned flag. Course creator only.
func (s *Service) TogglePin(ctx context.Context, id, viewerID string) (*models.CommentModel, error) {
	return s.toggleCreatorFlag(ctx, id, viewerID, "pinned", func(cm *models.CommentModel) *bool { return &cm.Pinned })
}

// ToggleHelpful flips the helpful flag. Course creator only.
func (s *Service) ToggleHelpful(ctx context.Context, id, viewerID string) (*models.CommentModel, error) {
	return s.toggleCreatorFlag(ctx, id, viewerID, "helpful", func(cm *models.CommentModel) *bool { return &cm.Helpful })
}

func (s *Service) toggleCreatorFlag(ctx context.Context, id, viewerID, column string, field func(*models.CommentModel) *bool) (*models.CommentModel, error) {
	cm, err := s.getLive(ctx, id)
	if err != nil {
		return nil, err
	}
	creatorID, err := s.courseCreatorFor(ctx, cm.LessonID)
	if err != nil {
		return nil, err
	}
	if !CanPin(viewerID, creatorID) {
		return nil, ErrForbidden
	}
	f := field(cm)
	*f = !*f
	if err := s.db.WithContext(ctx).Model(cm).Update(column, *f).Error; err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventUpdate, cm)
	return cm, nil
}

// Flag marks someone else's comment for moderator attention.
func (s *Service) Flag(ctx context.Context, id, viewerID, reason string) (*models.CommentModel, error) {
	cm, err := s.getLive(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanFlag(viewerID, cm) {
		return nil, ErrForbidden
	}
	err = s.db.WithContext(ctx).Model(cm).Updates(map[string]interface{}{
		"flagged":     true,
		"flag_reason": reason,
	}).Error
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventUpdate, cm)
	return cm, nil
}

func (s *Service) getLive(ctx context.Context, id string) (*models.CommentModel, error) {
	var cm models.CommentModel
	err := s.db.WithContext(ctx).First(&cm, "id = ? AND deleted = ?", id, false).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cm, nil
}

// depthOf walks the parent chain in the store. The chain is at most
// MaxDepth hops; a broken link counts as root.
func (s *Service) depthOf(ctx context.Context, cm *models.CommentModel) (int, error) {
	depth := 0
	cur := cm
	for cur.ParentID != nil && depth <= MaxDepth {
		var parent models.CommentModel
		err := s.db.WithContext(ctx).First(&parent, "id = ? AND deleted = ?", *cur.ParentID, false).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			break
		}
		if err != nil {
			return 0, err
		}
		depth++
		cur = &parent
	}
	return depth, nil
}

func (s *Service) courseCreatorFor(ctx context.Context, lessonID string) (string, error) {
	var row struct{ CreatorID string }
	err := s.db.WithContext(ctx).
		Table("courses").
		Select("courses.creator_id").
		Joins("JOIN lessons ON lessons.course_id = courses.id").
		Where("lessons.id = ?", lessonID).
		Scan(&row).Error
	return row.CreatorID, err
}

func (s *Service) publish(ctx context.Context, event string, cm *models.CommentModel) {
	if s.bus == nil {
		return
	}
	row, _ := json.Marshal(cm)
	_ = s.bus.Publish(ctx, events.ChangeEvent{
		Event: event,
		Table: models.CommentModel{}.TableName(),
		Scope: events.LessonScope(cm.LessonID),
		Row:   row,
	})
}
