package reaction

import (
	"errors"

	"github.com/coursekit/core/internal/middleware"
	"github.com/coursekit/core/internal/models"
	"github.com/coursekit/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ReactDTO struct {
	Kind models.ReactionKind `json:"reaction_type" binding:"required"`
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.POST("/comments/:id/reactions", authMW, h.react)
}

// POST /comments/:id/reactions — toggle the viewer's reaction and
// return the resulting state with fresh derived counts.
func (h *Handler) react(c *gin.Context) {
	var dto ReactDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	commentID := c.Param("id")
	kind, err := h.svc.React(ctx, commentID, middleware.CurrentUserID(c), dto.Kind)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownKind):
			response.BadRequest(c, err.Error())
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c)
		default:
			response.InternalError(c, err)
		}
		return
	}

	counts, err := h.svc.CountsFor(ctx, []string{commentID})
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{
		"my_reaction": kind,
		"likes":       counts[commentID].Likes,
		"dislikes":    counts[commentID].Dislikes,
	})
}
