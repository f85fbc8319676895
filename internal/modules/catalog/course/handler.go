package course

import (
	"errors"

	"github.com/coursekit/core/internal/middleware"
	"github.com/coursekit/core/internal/models"
	"github.com/coursekit/core/internal/pkg/pagination"
	"github.com/coursekit/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/courses")

	g.GET("", h.list)
	g.GET("/:id", h.get)

	a := g.Group("", authMW)
	a.GET("/mine", h.listMine)
	a.POST("", h.create)
	a.PATCH("/:id", h.update)
	a.PATCH("/:id/status", h.setStatus)
	a.DELETE("/:id", h.delete)
	a.POST("/:id/modules", h.createModule)
	a.DELETE("/modules/:moduleId", h.deleteModule)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	courses, pag, err := h.svc.ListPublished(c.Request.Context(), q, c.Query("category"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, courses, pag)
}

func (h *Handler) listMine(c *gin.Context) {
	q := pagination.FromContext(c)
	courses, pag, err := h.svc.ListByCreator(c.Request.Context(), middleware.CurrentUserID(c), q)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, courses, pag)
}

func (h *Handler) get(c *gin.Context) {
	course, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, course)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateCourseDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	course, err := h.svc.Create(c.Request.Context(), middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, course)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateCourseDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	course, err := h.svc.Update(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c), &dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, course)
}

func (h *Handler) setStatus(c *gin.Context) {
	var dto SetStatusDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	course, err := h.svc.SetStatus(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c), models.CourseStatus(dto.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, course)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c)); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) createModule(c *gin.Context) {
	var dto CreateModuleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	m, err := h.svc.CreateModule(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c), &dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, m)
}

func (h *Handler) deleteModule(c *gin.Context) {
	if err := h.svc.DeleteModule(c.Request.Context(), c.Param("moduleId"), middleware.CurrentUserID(c)); err != nil {
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
