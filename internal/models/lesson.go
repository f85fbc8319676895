package models

// LessonContentType enumerates supported lesson media kinds.
type LessonContentType string

const (
	LessonVideo LessonContentType = "video"
	LessonPDF   LessonContentType = "pdf"
	LessonImage LessonContentType = "image"
	LessonAudio LessonContentType = "audio"
	LessonText  LessonContentType = "text"
)

// LessonModel is a single unit of course content.
type LessonModel struct {
	Base
	ModuleID        string            `json:"module_id"        gorm:"index;not null"`
	CourseID        string            `json:"course_id"        gorm:"index;not null"`
	Title           string            `json:"title"            gorm:"not null"`
	ContentType     LessonContentType `json:"content_type"     gorm:"default:video"`
	ContentURL      string            `json:"content_url"`
	DurationMinutes int               `json:"duration_minutes"`
	OrderIndex      int               `json:"order_index"      gorm:"default:0;index"`
	IsFreePreview   bool              `json:"is_free_preview"  gorm:"default:false"`
}

func (LessonModel) TableName() string { return "lessons" }
