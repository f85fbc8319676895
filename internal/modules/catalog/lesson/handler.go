package lesson

import (
	"errors"

	"github.com/coursekit/core/internal/middleware"
	"github.com/coursekit/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/lessons")

	g.GET("/:id", h.get)
	g.GET("/module/:moduleId", h.listByModule)

	a := g.Group("", authMW)
	a.POST("/module/:moduleId", h.create)
	a.PATCH("/:id", h.update)
	a.DELETE("/:id", h.delete)
}

func (h *Handler) get(c *gin.Context) {
	lesson, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, lesson)
}

func (h *Handler) listByModule(c *gin.Context) {
	lessons, err := h.svc.ListByModule(c.Request.Context(), c.Param("moduleId"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, lessons)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateLessonDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	lesson, err := h.svc.Create(c.Request.Context(), c.Param("moduleId"), middleware.CurrentUserID(c), &dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, lesson)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateLessonDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	lesson, err := h.svc.Update(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c), &dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, lesson)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c)); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c)
	case errors.Is(err, ErrForbidden):
		response.Forbidden(c)
	default:
		response.InternalError(c, err)
	}
}
