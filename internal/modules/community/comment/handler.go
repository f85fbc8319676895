package comment

import (
	"errors"

	"github.com/coursekit/core/internal/middleware"
	"github.com/coursekit/core/internal/pkg/markdown"
	"github.com/coursekit/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, optionalAuthMW gin.HandlerFunc) {
	g := rg.Group("/comments")

	g.GET("/lesson/:lessonId", optionalAuthMW, h.thread)

	a := g.Group("", authMW)
	a.POST("/lesson/:lessonId", h.create)
	a.POST("/reply/:id", h.reply)
	a.PATCH("/edit/:id", h.edit)
	a.PATCH("/:id/pin", h.togglePin)
	a.PATCH("/:id/helpful", h.toggleHelpful)
	a.POST("/:id/flag", h.flag)
	a.DELETE("/:id", h.delete)
}

// GET /comments/lesson/:lessonId
func (h *Handler) thread(c *gin.Context) {
	tree, count, err := h.svc.Thread(c.Request.Context(), c.Param("lessonId"), middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	c.JSON(200, gin.H{
		"data":  tree,
		"count": count,
	})
}

func (h *Handler) create(c *gin.Context) {
	body, ok := h.bindBody(c)
	if !ok {
		return
	}
	cm, err := h.svc.Create(c.Request.Context(), c.Param("lessonId"), middleware.CurrentUserID(c), body)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, cm)
}

func (h *Handler) reply(c *gin.Context) {
	body, ok := h.bindBody(c)
	if !ok {
		return
	}
	cm, err := h.svc.Reply(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c), body)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, cm)
}

func (h *Handler) edit(c *gin.Context) {
	body, ok := h.bindBody(c)
	if !ok {
		return
	}
	cm, err := h.svc.Edit(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c), body)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, cm)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c)); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) togglePin(c *gin.Context) {
	cm, err := h.svc.TogglePin(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, cm)
}

func (h *Handler) toggleHelpful(c *gin.Context) {
	cm, err := h.svc.ToggleHelpful(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, cm)
}

func (h *Handler) flag(c *gin.Context) {
	var dto FlagCommentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cm, err := h.svc.Flag(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c), dto.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, cm)
}

// bindBody binds and validates a comment body, writing the error
// response itself on failure.
func (h *Handler) bindBody(c *gin.Context) (string, bool) {
	var dto CreateCommentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return "", false
	}
	if err := markdown.Validate(dto.Content); err != nil {
		response.BadRequest(c, err.Error())
		return "", false
	}
	return dto.Content, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c)
	case errors.Is(err, ErrForbidden):
		response.Forbidden(c)
	case errors.Is(err, ErrTooDeep):
		response.BadRequest(c, "reply depth limit reached")
	default:
		response.InternalError(c, err)
	}
}
