package models

// EnrollmentModel links a learner to a course. One row per (course, user).
type EnrollmentModel struct {
	Base
	CourseID string `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollments_course_user"`
	UserID   string `json:"user_id"   gorm:"not null;uniqueIndex:idx_enrollments_course_user;index"`
}

func (EnrollmentModel) TableName() string { return "enrollments" }
