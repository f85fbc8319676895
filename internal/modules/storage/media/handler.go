package media

import (
	"errors"

	"github.com/coursekit/core/internal/middleware"
	"github.com/coursekit/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.GET("/media/sign", authMW, h.sign)
}

// GET /media/sign?bucket=...&path=...
func (h *Handler) sign(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		response.BadRequest(c, "path is required")
		return
	}
	signed, err := h.svc.Sign(c.Request.Context(), c.Query("bucket"), path, middleware.CurrentUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, ErrNoAccess):
			response.Forbidden(c)
		case errors.Is(err, ErrNotConfigured):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, signed)
}
