package discussion

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/coursekit/core/internal/models"
	"github.com/coursekit/core/internal/pkg/events"
	"github.com/coursekit/core/internal/pkg/pagination"
	"github.com/coursekit/core/internal/pkg/response"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("discussion not found")
	ErrForbidden = errors.New("not allowed")
)

type Service struct {
	db  *gorm.DB
	bus events.Bus
}

func NewService(db *gorm.DB, bus events.Bus) *Service {
	return &Service{db: db, bus: bus}
}

// ListByCourse returns a course's discussions newest first, each with
// its reply count.
func (s *Service) ListByCourse(ctx context.Context, courseID string, q pagination.Query) ([]DiscussionView, response.Pagination, error) {
	tx := s.db.WithContext(ctx).
		Model(&models.DiscussionModel{}).
		Preload("Author").
		Where("course_id = ?", courseID).
		Order("created_at DESC")

	var rows []models.DiscussionModel
	pag, err := pagination.Paginate(tx, q, &rows)
	if err != nil {
		return nil, pag, err
	}

	views := make([]DiscussionView, len(rows))
	for i := range rows {
		views[i] = toView(&rows[i])
	}
	if err := s.fillReplyCounts(ctx, views); err != nil {
		return nil, pag, err
	}
	return views, pag, nil
}

// Get returns one discussion with its replies oldest first.
func (s *Service) Get(ctx context.Context, id string) (*DiscussionView, []ReplyView, error) {
	var d models.DiscussionModel
	err := s.db.WithContext(ctx).Preload("Author").First(&d, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	var replies []models.DiscussionReplyModel
	err = s.db.WithContext(ctx).
		Preload("Author").
		Where("discussion_id = ?", id).
		Order("created_at ASC").
		Find(&replies).Error
	if err != nil {
		return nil, nil, err
	}

	views := make([]ReplyView, len(replies))
	for i := range replies {
		views[i] = toReplyView(&replies[i])
	}

	view := toView(&d)
	view.ReplyCount = int64(len(replies))
	return &view, views, nil
}

func (s *Service) Create(ctx context.Context, courseID, userID, title, content string) (*models.DiscussionModel, error) {
	d := models.DiscussionModel{
		CourseID: courseID,
		UserID:   userID,
		Title:    title,
		Content:  content,
	}
	if err := s.db.WithContext(ctx).Create(&d).Error; err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventInsert, d.CourseID, &d)
	return &d, nil
}

func (s *Service) Reply(ctx context.Context, discussionID, userID, content string) (*models.DiscussionReplyModel, error) {
	var d models.DiscussionModel
	err := s.db.WithContext(ctx).First(&d, "id = ?", discussionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	r := models.DiscussionReplyModel{
		DiscussionID: discussionID,
		UserID:       userID,
		Content:      content,
	}
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventInsert, d.CourseID, &r)
	return &r, nil
}

// Delete removes the author's own discussion and its replies.
func (s *Service) Delete(ctx context.Context, id, viewerID string) error {
	var d models.DiscussionModel
	err := s.db.WithContext(ctx).First(&d, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if d.UserID != viewerID {
		return ErrForbidden
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("discussion_id = ?", id).Delete(&models.DiscussionReplyModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&d).Error
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.EventDelete, d.CourseID, &d)
	return nil
}

func (s *Service) fillReplyCounts(ctx context.Context, views []DiscussionView) error {
	if len(views) == 0 {
		return nil
	}
	ids := make([]string, len(views))
	for i := range views {
		ids[i] = views[i].ID
	}

	var rows []struct {
		DiscussionID string
		Total        int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.DiscussionReplyModel{}).
		Select("discussion_id, COUNT(*) AS total").
		Where("discussion_id IN ?", ids).
		Group("discussion_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.DiscussionID] = r.Total
	}
	for i := range views {
		views[i].ReplyCount = counts[views[i].ID]
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event, courseID string, row interface{}) {
	if s.bus == nil {
		return
	}
	data, _ := json.Marshal(row)
	_ = s.bus.Publish(ctx, events.ChangeEvent{
		Event: event,
		Table: models.DiscussionModel{}.TableName(),
		Scope: events.DiscussionScope(courseID),
		Row:   data,
	})
}
