package progress

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/coursekit/core/internal/models"
	"github.com/coursekit/core/internal/pkg/events"
	"gorm.io/gorm"
)

var ErrLessonNotFound = errors.New("lesson not found")

// Stats aggregates a learner's standing in one course. The percentage
// is measured against every lesson of the course, not only the tracked
// ones.
type Stats struct {
	TotalLessons     int64 `json:"total_lessons"`
	CompletedLessons int64 `json:"completed_lessons"`
	TimeSpentSeconds int64 `json:"total_time_spent_seconds"`
	CompletionPct    int   `json:"completion_percentage"`
}

type Service struct {
	db  *gorm.DB
	bus events.Bus
}

func NewService(db *gorm.DB, bus events.Bus) *Service {
	return &Service{db: db, bus: bus}
}

// Record upserts the (user, lesson) progress row: time spent
// accumulates, last access moves forward, and completion sticks once
// set even when a later visit reports completed=false.
func (s *Service) Record(ctx context.Context, lessonID, userID string, completed bool, timeSpent int64) (*models.LessonProgressModel, error) {
	var lessonRow models.LessonModel
	err := s.db.WithContext(ctx).First(&lessonRow, "id = ?", lessonID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLessonNotFound
	}
	if err != nil {
		return nil, err
	}
	if timeSpent < 0 {
		timeSpent = 0
	}

	now := time.Now()
	var row models.LessonProgressModel
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&row).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = models.LessonProgressModel{
			UserID:       userID,
			LessonID:     lessonID,
			ModuleID:     lessonRow.ModuleID,
			CourseID:     lessonRow.CourseID,
			Completed:    completed,
			TimeSpentSec: timeSpent,
			LastAccessed: now,
		}
		if completed {
			row.CompletedAt = &now
		}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, err
		}
		s.publish(ctx, events.EventInsert, &row)
		return &row, nil

	case err != nil:
		return nil, err
	}

	updates := map[string]interface{}{
		"time_spent_sec": gorm.Expr("time_spent_sec + ?", timeSpent),
		"last_accessed":  now,
	}
	if completed && !row.Completed {
		updates["completed"] = true
		updates["completed_at"] = now
	}
	if err := s.db.WithContext(ctx).Model(&row).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).First(&row, "id = ?", row.ID).Error; err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventUpdate, &row)
	return &row, nil
}

// ListForCourse returns the user's tracked lessons in a course, most
// recently accessed first.
func (s *Service) ListForCourse(ctx context.Context, courseID, userID string) ([]models.LessonProgressModel, error) {
	var rows []models.LessonProgressModel
	err := s.db.WithContext(ctx).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Order("last_accessed DESC").
		Find(&rows).Error
	return rows, err
}

// ListForUser returns every tracked lesson of the user across courses.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]models.LessonProgressModel, error) {
	var rows []models.LessonProgressModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_accessed DESC").
		Find(&rows).Error
	return rows, err
}

// CourseStats derives the user's completion standing for one course.
func (s *Service) CourseStats(ctx context.Context, courseID, userID string) (Stats, error) {
	var stats Stats
	err := s.db.WithContext(ctx).
		Model(&models.LessonModel{}).
		Where("course_id = ?", courseID).
		Count(&stats.TotalLessons).Error
	if err != nil {
		return stats, err
	}

	err = s.db.WithContext(ctx).
		Model(&models.LessonProgressModel{}).
		Where("course_id = ? AND user_id = ? AND completed = ?", courseID, userID, true).
		Count(&stats.CompletedLessons).Error
	if err != nil {
		return stats, err
	}

	type sum struct{ Total int64 }
	var t sum
	err = s.db.WithContext(ctx).
		Model(&models.LessonProgressModel{}).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Select("COALESCE(SUM(time_spent_sec), 0) AS total").
		Scan(&t).Error
	if err != nil {
		return stats, err
	}
	stats.TimeSpentSeconds = t.Total

	if stats.TotalLessons > 0 {
		stats.CompletionPct = int(float64(stats.CompletedLessons)/float64(stats.TotalLessons)*100 + 0.5)
	}
	return stats, nil
}

func (s *Service) publish(ctx context.Context, event string, row *models.LessonProgressModel) {
	if s.bus == nil {
		return
	}
	payload, _ := json.Marshal(row)
	_ = s.bus.Publish(ctx, events.ChangeEvent{
		Event: event,
		Table: models.LessonProgressModel{}.TableName(),
		Scope: events.ProgressScope(row.UserID),
		Row:   payload,
	})
}
