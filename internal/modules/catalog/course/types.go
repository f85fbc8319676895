package course

type CreateCourseDTO struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`
	Price        int64  `json:"price"`
	Category     string `json:"category"`
	IsFree       bool   `json:"is_free"`
}

type UpdateCourseDTO struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	ThumbnailURL *string `json:"thumbnail_url"`
	Price        *int64  `json:"price"`
	Category     *string `json:"category"`
}

type SetStatusDTO struct {
	Status string `json:"status" binding:"required,oneof=draft published"`
}

type CreateModuleDTO struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index"`
}
