package progress

import (
	"errors"

	"github.com/coursekit/core/internal/middleware"
	"github.com/coursekit/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/progress", authMW)

	g.POST("/lesson/:lessonId", h.record)
	g.GET("/course/:courseId", h.course)
}

func (h *Handler) record(c *gin.Context) {
	var dto RecordProgressDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	row, err := h.svc.Record(c.Request.Context(), c.Param("lessonId"), middleware.CurrentUserID(c), dto.Completed, dto.TimeSpentSeconds)
	if err != nil {
		if errors.Is(err, ErrLessonNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, row)
}

func (h *Handler) course(c *gin.Context) {
	ctx := c.Request.Context()
	courseID := c.Param("courseId")
	userID := middleware.CurrentUserID(c)

	rows, err := h.svc.ListForCourse(ctx, courseID, userID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	stats, err := h.svc.CourseStats(ctx, courseID, userID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"lessons": rows, "stats": stats})
}
