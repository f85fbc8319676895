package models

import "time"

// LessonProgressModel tracks a learner's position in one lesson. One
// row per (user, lesson); time spent accumulates across visits, and
// completion is sticky once reached.
type LessonProgressModel struct {
	Base
	UserID       string     `json:"user_id"            gorm:"not null;uniqueIndex:idx_progress_user_lesson"`
	LessonID     string     `json:"lesson_id"          gorm:"not null;uniqueIndex:idx_progress_user_lesson"`
	ModuleID     string     `json:"module_id"          gorm:"index"`
	CourseID     string     `json:"course_id"          gorm:"not null;index"`
	Completed    bool       `json:"completed"          gorm:"default:false;index"`
	TimeSpentSec int64      `json:"time_spent_seconds"`
	LastAccessed time.Time  `json:"last_accessed_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}

func (LessonProgressModel) TableName() string { return "course_progress" }
