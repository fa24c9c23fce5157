package draft

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/logoforge/server/internal/middleware"
	"github.com/logoforge/server/internal/models"
	"github.com/logoforge/server/internal/pkg/composition"
	"github.com/logoforge/server/internal/pkg/pagination"
	"github.com/logoforge/server/internal/pkg/response"
)

type draftStore interface {
	Create(ownerID string, dto *CreateDraftDTO) (*models.DraftModel, error)
	List(ownerID string, q pagination.Query) ([]models.DraftModel, response.Pagination, error)
	Get(ownerID, id string) (*models.DraftModel, error)
	Apply(ownerID, id string, ops []composition.Operation, baseVersion *int) (*models.DraftModel, error)
	Rename(ownerID, id, name string) (*models.DraftModel, error)
	Delete(ownerID, id string) (bool, error)
}

type Handler struct{ svc draftStore }

func NewHandler(svc draftStore) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts the draft editor API. cacheMW wraps the public catalog.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, cacheMW gin.HandlerFunc) {
	if cacheMW != nil {
		rg.GET("/composition/catalog", cacheMW, h.catalog)
	} else {
		rg.GET("/composition/catalog", h.catalog)
	}

	g := rg.Group("/drafts", authMW)
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PATCH("/:id", h.rename)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/ops", h.applyOps)
}

func (h *Handler) catalog(c *gin.Context) {
	response.OK(c, composition.NewCatalog())
}

func (h *Handler) list(c *gin.Context) {
	items, pag, err := h.svc.List(middleware.CurrentUserID(c), pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if items == nil {
		items = []models.DraftModel{}
	}
	response.Paged(c, items, pag)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateDraftDTO
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&dto); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}
	d, err := h.svc.Create(middleware.CurrentUserID(c), &dto)
	if err != nil {
		if writeCompositionError(c, err) {
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, d)
}

func (h *Handler) get(c *gin.Context) {
	d, err := h.svc.Get(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if d == nil {
		response.NotFoundMsg(c, "draft not found")
		return
	}
	response.OK(c, d)
}

func (h *Handler) rename(c *gin.Context) {
	var dto UpdateDraftDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if dto.Name == nil || strings.TrimSpace(*dto.Name) == "" {
		response.BadRequest(c, "name is required")
		return
	}
	d, err := h.svc.Rename(middleware.CurrentUserID(c), c.Param("id"), *dto.Name)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if d == nil {
		response.NotFoundMsg(c, "draft not found")
		return
	}
	response.OK(c, d)
}

func (h *Handler) delete(c *gin.Context) {
	ok, err := h.svc.Delete(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if !ok {
		response.NotFoundMsg(c, "draft not found")
		return
	}
	response.NoContent(c)
}

func (h *Handler) applyOps(c *gin.Context) {
	var dto ApplyOpsDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if len(dto.Ops) == 0 {
		response.BadRequest(c, "at least one operation is required")
		return
	}

	d, err := h.svc.Apply(middleware.CurrentUserID(c), c.Param("id"), dto.Ops, dto.BaseVersion)
	if err != nil {
		if errors.Is(err, errVersionConflict) {
			response.Conflict(c, err.Error())
			return
		}
		if writeCompositionError(c, err) {
			return
		}
		response.InternalError(c, err)
		return
	}
	if d == nil {
		response.NotFoundMsg(c, "draft not found")
		return
	}
	response.OK(c, d)
}

// writeCompositionError maps composition sentinels to 400/404 and reports whether it wrote a response.
func writeCompositionError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, composition.ErrNotFound):
		response.NotFoundMsg(c, err.Error())
	case errors.Is(err, composition.ErrValidation), errors.Is(err, composition.ErrInvariantViolation):
		response.BadRequest(c, err.Error())
	default:
		return false
	}
	return true
}
