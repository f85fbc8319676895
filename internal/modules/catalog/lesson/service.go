package lesson

import (
	"context"
	"errors"

	"github.com/coursekit/core/internal/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("lesson not found")
	ErrForbidden = errors.New("not allowed")
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) Get(ctx context.Context, id string) (*models.LessonModel, error) {
	var lesson models.LessonModel
	err := s.db.WithContext(ctx).First(&lesson, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

// ListByModule returns a module's lessons in order.
func (s *Service) ListByModule(ctx context.Context, moduleID string) ([]models.LessonModel, error) {
	var lessons []models.LessonModel
	err := s.db.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("order_index ASC, created_at ASC").
		Find(&lessons).Error
	return lessons, err
}

func (s *Service) Create(ctx context.Context, moduleID, viewerID string, dto *CreateLessonDTO) (*models.LessonModel, error) {
	var m models.ModuleModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", moduleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.requireCreator(ctx, m.CourseID, viewerID); err != nil {
		return nil, err
	}

	contentType := models.LessonContentType(dto.ContentType)
	if contentType == "" {
		contentType = models.LessonVideo
	}
	lesson := models.LessonModel{
		ModuleID:        moduleID,
		CourseID:        m.CourseID,
		Title:           dto.Title,
		ContentType:     contentType,
		ContentURL:      dto.ContentURL,
		DurationMinutes: dto.DurationMinutes,
		OrderIndex:      dto.OrderIndex,
		IsFreePreview:   dto.IsFreePreview,
	}
	return &lesson, s.db.WithContext(ctx).Create(&lesson).Error
}

func (s *Service) Update(ctx context.Context, id, viewerID string, dto *UpdateLessonDTO) (*models.LessonModel, error) {
	lesson, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireCreator(ctx, lesson.CourseID, viewerID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if dto.Title != nil {
		updates["title"] = *dto.Title
	}
	if dto.ContentType != nil {
		updates["content_type"] = models.LessonContentType(*dto.ContentType)
	}
	if dto.ContentURL != nil {
		updates["content_url"] = *dto.ContentURL
	}
	if dto.DurationMinutes != nil {
		updates["duration_minutes"] = *dto.DurationMinutes
	}
	if dto.OrderIndex != nil {
		updates["order_index"] = *dto.OrderIndex
	}
	if dto.IsFreePreview != nil {
		updates["is_free_preview"] = *dto.IsFreePreview
	}
	if len(updates) == 0 {
		return lesson, nil
	}
	return lesson, s.db.WithContext(ctx).Model(lesson).Updates(updates).Error
}

func (s *Service) Delete(ctx context.Context, id, viewerID string) error {
	lesson, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireCreator(ctx, lesson.CourseID, viewerID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(lesson).Error
}

func (s *Service) requireCreator(ctx context.Context, courseID, viewerID string) error {
	var course models.CourseModel
	err := s.db.WithContext(ctx).Select("creator_id").First(&course, "id = ?", courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if course.CreatorID != viewerID {
		return ErrForbidden
	}
	return nil
}
