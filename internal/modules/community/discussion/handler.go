package discussion

import (
	"errors"

	"github.com/coursekit/core/internal/middleware"
	"github.com/coursekit/core/internal/pkg/markdown"
	"github.com/coursekit/core/internal/pkg/pagination"
	"github.com/coursekit/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/discussions")

	g.GET("/course/:courseId", h.listByCourse)
	g.GET("/:id", h.get)

	a := g.Group("", authMW)
	a.POST("/course/:courseId", h.create)
	a.POST("/:id/replies", h.reply)
	a.DELETE("/:id", h.delete)
}

func (h *Handler) listByCourse(c *gin.Context) {
	q := pagination.FromContext(c)
	views, pag, err := h.svc.ListByCourse(c.Request.Context(), c.Param("courseId"), q)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, views, pag)
}

func (h *Handler) get(c *gin.Context) {
	view, replies, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, gin.H{
		"data":    view,
		"replies": replies,
	})
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateDiscussionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := markdown.Validate(dto.Content); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	d, err := h.svc.Create(c.Request.Context(), c.Param("courseId"), middleware.CurrentUserID(c), dto.Title, dto.Content)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, d)
}

func (h *Handler) reply(c *gin.Context) {
	var dto ReplyDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := markdown.Validate(dto.Content); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	r, err := h.svc.Reply(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c), dto.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, r)
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
