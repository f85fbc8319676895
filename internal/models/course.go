package models

// CourseStatus is the publication state of a course.
type CourseStatus string

const (
	CourseDraft     CourseStatus = "draft"
	CoursePublished CourseStatus = "published"
)

// CourseModel is a creator-owned course.
type CourseModel struct {
	Base
	CreatorID    string        `json:"creator_id"    gorm:"index;not null"`
	Title        string        `json:"title"         gorm:"not null"`
	Description  string        `json:"description"   gorm:"type:text"`
	ThumbnailURL string        `json:"thumbnail_url"`
	Price        int64         `json:"price"` // smallest currency unit
	Category     string        `json:"category"`
	Status       CourseStatus  `json:"status"        gorm:"default:draft;index"`
	IsFree       bool          `json:"is_free"       gorm:"default:false"`
	Modules      []ModuleModel `json:"modules,omitempty" gorm:"foreignKey:CourseID"`
}

func (CourseModel) TableName() string { return "courses" }

// ModuleModel groups lessons inside a course.
type ModuleModel struct {
	Base
	CourseID    string        `json:"course_id"   gorm:"index;not null"`
	Title       string        `json:"title"       gorm:"not null"`
	Description string        `json:"description" gorm:"type:text"`
	OrderIndex  int           `json:"order_index" gorm:"default:0;index"`
	Lessons     []LessonModel `json:"lessons,omitempty" gorm:"foreignKey:ModuleID"`
}

func (ModuleModel) TableName() string { return "modules" }
