package enrollment

import (
	"errors"

	"github.com/coursekit/core/internal/middleware"
	"github.com/coursekit/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/enrollments", authMW)

	g.GET("", h.listMine)
	g.POST("/course/:courseId", h.enroll)
	g.GET("/course/:courseId/roster", h.roster)
	g.GET("/course/:courseId/access", h.access)
}

func (h *Handler) listMine(c *gin.Context) {
	courses, err := h.svc.ListMine(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, courses)
}

func (h *Handler) enroll(c *gin.Context) {
	row, err := h.svc.Enroll(c.Request.Context(), c.Param("courseId"), middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, row)
}

func (h *Handler) roster(c *gin.Context) {
	users, err := h.svc.Roster(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, users)
}

func (h *Handler) access(c *gin.Context) {
	ok, err := h.svc.HasAccess(c.Request.Context(), c.Param("courseId"), middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"has_access": ok})
}
