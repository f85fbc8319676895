package course

import (
	"context"
	"errors"

	"github.com/coursekit/core/internal/models"
	"github.com/coursekit/core/internal/pkg/pagination"
	"github.com/coursekit/core/internal/pkg/response"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("course not found")
	ErrForbidden = errors.New("not allowed")
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// ListPublished returns published courses, newest first.
func (s *Service) ListPublished(ctx context.Context, q pagination.Query, category string) ([]models.CourseModel, response.Pagination, error) {
	tx := s.db.WithContext(ctx).
		Model(&models.CourseModel{}).
		Where("status = ?", models.CoursePublished).
		Order("created_at DESC")
	if category != "" {
		tx = tx.Where("category = ?", category)
	}
	var courses []models.CourseModel
	pag, err := pagination.Paginate(tx, q, &courses)
	return courses, pag, err
}

// ListByCreator returns every course of a creator, drafts included.
func (s *Service) ListByCreator(ctx context.Context, creatorID string, q pagination.Query) ([]models.CourseModel, response.Pagination, error) {
	tx := s.db.WithContext(ctx).
		Model(&models.CourseModel{}).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC")
	var courses []models.CourseModel
	pag, err := pagination.Paginate(tx, q, &courses)
	return courses, pag, err
}

// Get returns the nested course view: modules in order, lessons in
// order within each module.
func (s *Service) Get(ctx context.Context, id string) (*models.CourseModel, error) {
	var course models.CourseModel
	err := s.db.WithContext(ctx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC, created_at ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC, created_at ASC")
		}).
		First(&course, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (s *Service) Create(ctx context.Context, creatorID string, dto *CreateCourseDTO) (*models.CourseModel, error) {
	course := models.CourseModel{
		CreatorID:    creatorID,
		Title:        dto.Title,
		Description:  dto.Description,
		ThumbnailURL: dto.ThumbnailURL,
		Price:        dto.Price,
		Category:     dto.Category,
		Status:       models.CourseDraft,
		IsFree:       dto.IsFree || dto.Price == 0,
	}
	return &course, s.db.WithContext(ctx).Create(&course).Error
}

func (s *Service) Update(ctx context.Context, id, viewerID string, dto *UpdateCourseDTO) (*models.CourseModel, error) {
	course, err := s.owned(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if dto.Title != nil {
		updates["title"] = *dto.Title
	}
	if dto.Description != nil {
		updates["description"] = *dto.Description
	}
	if dto.ThumbnailURL != nil {
		updates["thumbnail_url"] = *dto.ThumbnailURL
	}
	if dto.Price != nil {
		updates["price"] = *dto.Price
		updates["is_free"] = *dto.Price == 0
	}
	if dto.Category != nil {
		updates["category"] = *dto.Category
	}
	if len(updates) == 0 {
		return course, nil
	}
	return course, s.db.WithContext(ctx).Model(course).Updates(updates).Error
}

// SetStatus moves a course between draft and published.
func (s *Service) SetStatus(ctx context.Context, id, viewerID string, status models.CourseStatus) (*models.CourseModel, error) {
	course, err := s.owned(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	return course, s.db.WithContext(ctx).Model(course).Update("status", status).Error
}

func (s *Service) Delete(ctx context.Context, id, viewerID string) error {
	course, err := s.owned(ctx, id, viewerID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", id).Delete(&models.LessonModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&models.ModuleModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(course).Error
	})
}

// CreateModule appends a module to the creator's course.
func (s *Service) CreateModule(ctx context.Context, courseID, viewerID string, dto *CreateModuleDTO) (*models.ModuleModel, error) {
	if _, err := s.owned(ctx, courseID, viewerID); err != nil {
		return nil, err
	}
	m := models.ModuleModel{
		CourseID:    courseID,
		Title:       dto.Title,
		Description: dto.Description,
		OrderIndex:  dto.OrderIndex,
	}
	return &m, s.db.WithContext(ctx).Create(&m).Error
}

func (s *Service) DeleteModule(ctx context.Context, moduleID, viewerID string) error {
	var m models.ModuleModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", moduleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if _, err := s.owned(ctx, m.CourseID, viewerID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("module_id = ?", moduleID).Delete(&models.LessonModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&m).Error
	})
}

// owned loads a course and checks the viewer created it.
func (s *Service) owned(ctx context.Context, id, viewerID string) (*models.CourseModel, error) {
	var course models.CourseModel
	err := s.db.WithContext(ctx).First(&course, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if course.CreatorID != viewerID {
		return nil, ErrForbidden
	}
	return &course, nil
}

// CreatorOf returns the creator id of a course.
func (s *Service) CreatorOf(ctx context.Context, courseID string) (string, error) {
	var course models.CourseModel
	err := s.db.WithContext(ctx).Select("creator_id").First(&course, "id = ?", courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	return course.CreatorID, err
}
