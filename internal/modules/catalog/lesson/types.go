package lesson

type CreateLessonDTO struct {
	Title           string `json:"title" binding:"required"`
	ContentType     string `json:"content_type" binding:"omitempty,oneof=video pdf image audio text"`
	ContentURL      string `json:"content_url"`
	DurationMinutes int    `json:"duration_minutes"`
	OrderIndex      int    `json:"order_index"`
	IsFreePreview   bool   `json:"is_free_preview"`
}

type UpdateLessonDTO struct {
	Title           *string `json:"title"`
	ContentType     *string `json:"content_type" binding:"omitempty,oneof=video pdf image audio text"`
	ContentURL      *string `json:"content_url"`
	DurationMinutes *int    `json:"duration_minutes"`
	OrderIndex      *int    `json:"order_index"`
	IsFreePreview   *bool   `json:"is_free_preview"`
}
