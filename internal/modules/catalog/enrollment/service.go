package enrollment

import (
	"context"
	"errors"
	"fmt"

	"github.com/coursekit/core/internal/models"
	"github.com/coursekit/core/internal/pkg/mail"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrCourseNotFound = errors.New("course not found")

type Service struct {
	db      *gorm.DB
	mailer  *mail.Sender
	siteURL string
	log     *zap.Logger
}

func NewService(db *gorm.DB, mailer *mail.Sender, siteURL string, log *zap.Logger) *Service {
	return &Service{db: db, mailer: mailer, siteURL: siteURL, log: log}
}

// Enroll records the user in a course. Enrolling twice is a no-op: the
// unique (course_id, user_id) index absorbs the duplicate. A fresh
// enrollment sends the confirmation email in the background.
func (s *Service) Enroll(ctx context.Context, courseID, userID string) (*models.EnrollmentModel, error) {
	var course models.CourseModel
	err := s.db.WithContext(ctx).First(&course, "id = ?", courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}

	row := models.EnrollmentModel{CourseID: courseID, UserID: userID}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected > 0 && s.mailer != nil {
		go s.sendConfirmation(userID, &course)
	}
	return &row, nil
}

// IsEnrolled reports whether the user holds an enrollment row.
func (s *Service) IsEnrolled(ctx context.Context, courseID, userID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.EnrollmentModel{}).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Count(&count).Error
	return count > 0, err
}

// HasAccess decides whether the user may consume a course's content:
// the creator always, anyone on a free course, otherwise enrollment.
func (s *Service) HasAccess(ctx context.Context, courseID, userID string) (bool, error) {
	var course models.CourseModel
	err := s.db.WithContext(ctx).Select("creator_id, is_free").First(&course, "id = ?", courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, ErrCourseNotFound
	}
	if err != nil {
		return false, err
	}
	if course.IsFree || course.CreatorID == userID {
		return true, nil
	}
	return s.IsEnrolled(ctx, courseID, userID)
}

// ListMine returns the courses the user is enrolled in.
func (s *Service) ListMine(ctx context.Context, userID string) ([]models.CourseModel, error) {
	var courses []models.CourseModel
	err := s.db.WithContext(ctx).
		Joins("JOIN enrollments ON enrollments.course_id = courses.id").
		Where("enrollments.user_id = ?", userID).
		Order("enrollments.created_at DESC").
		Find(&courses).Error
	return courses, err
}

// Roster returns the profiles that can be @-mentioned in a course: the
// enrolled learners plus the creator.
func (s *Service) Roster(ctx context.Context, courseID string) ([]models.UserModel, error) {
	var users []models.UserModel
	err := s.db.WithContext(ctx).
		Joins("JOIN enrollments ON enrollments.user_id = profiles.id").
		Where("enrollments.course_id = ?", courseID).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	var course models.CourseModel
	if err := s.db.WithContext(ctx).Select("creator_id").First(&course, "id = ?", courseID).Error; err != nil {
		return users, nil
	}
	for _, u := range users {
		if u.ID == course.CreatorID {
			return users, nil
		}
	}
	var creator models.UserModel
	if err := s.db.WithContext(ctx).First(&creator, "id = ?", course.CreatorID).Error; err == nil {
		users = append(users, creator)
	}
	return users, nil
}

// RosterForLesson resolves the lesson's course first, then delegates.
func (s *Service) RosterForLesson(ctx context.Context, lessonID string) ([]models.UserModel, error) {
	var lesson models.LessonModel
	err := s.db.WithContext(ctx).Select("course_id").First(&lesson, "id = ?", lessonID).Error
	if err != nil {
		return nil, err
	}
	return s.Roster(ctx, lesson.CourseID)
}

func (s *Service) sendConfirmation(userID string, course *models.CourseModel) {
	var user models.UserModel
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return
	}
	err := s.mailer.SendEnrollmentConfirm(user.Email, mail.EnrollmentData{
		UserName:   user.Name,
		CourseName: course.Title,
		CourseURL:  fmt.Sprintf("%s/courses/%s", s.siteURL, course.ID),
	})
	if err != nil && s.log != nil {
		s.log.Warn("enrollment mail failed", zap.String("user", userID), zap.Error(err))
	}
}
