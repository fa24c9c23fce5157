package chat

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/logoforge/server/internal/middleware"
	"github.com/logoforge/server/internal/modules/generation"
	"github.com/logoforge/server/internal/pkg/response"
)

type refiner interface {
	Suggestions() []string
	Refine(ctx context.Context, ownerID, logoID, message string) (*RefineResult, error)
}

type refineDTO struct {
	LogoID  string `json:"logoId"  binding:"required"`
	Message string `json:"message" binding:"required"`
}

type Handler struct{ svc refiner }

func NewHandler(svc refiner) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts the chat endpoints. cacheMW and limitMW may be nil.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, limitMW, cacheMW gin.HandlerFunc) {
	g := rg.Group("/chat")

	suggestions := []gin.HandlerFunc{}
	if cacheMW != nil {
		suggestions = append(suggestions, cacheMW)
	}
	g.GET("/suggestions", append(suggestions, h.suggestions)...)

	refine := []gin.HandlerFunc{authMW}
	if limitMW != nil {
		refine = append(refine, limitMW)
	}
	g.POST("/refine", append(refine, h.refine)...)
}

func (h *Handler) suggestions(c *gin.Context) {
	response.OK(c, h.svc.Suggestions())
}

func (h *Handler) refine(c *gin.Context) {
	var dto refineDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.svc.Refine(c.Request.Context(), middleware.CurrentUserID(c), dto.LogoID, dto.Message)
	if err != nil {
		switch {
		case errors.Is(err, errMessageRequired):
			response.BadRequest(c, err.Error())
		case errors.Is(err, ErrNotConfigured):
			response.ServiceUnavailable(c, err.Error())
		default:
			generation.WriteError(c, err, "Failed to refine logo")
		}
		return
	}
	response.Created(c, res)
}
