package generation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/logoforge/server/internal/middleware"
	"github.com/logoforge/server/internal/pkg/composition"
	"github.com/logoforge/server/internal/pkg/pagination"
	"github.com/logoforge/server/internal/pkg/response"
	"github.com/logoforge/server/internal/pkg/taskqueue"
)

type generateDTO struct {
	Prompt  string                     `json:"prompt"  binding:"required"`
	Config  *composition.Configuration `json:"config"`
	DraftID string                     `json:"draftId"`
	Name    string                     `json:"name"`
}

type editDTO struct {
	Prompt string `json:"prompt" binding:"required"`
	// Mask is base64 or a data URL.
	Mask     string                `json:"mask"`
	Settings *composition.Override `json:"settings"`
	Name     string                `json:"name"`
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts generation endpoints. limitMW throttles job submission and may be nil.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, limitMW gin.HandlerFunc) {
	submit := []gin.HandlerFunc{authMW}
	if limitMW != nil {
		submit = append(submit, limitMW)
	}

	rg.POST("/logos/generate", append(submit, h.generate)...)
	rg.POST("/logos/:id/edit", append(submit, h.edit)...)
	rg.GET("/logos/:id/state", authMW, h.state)

	jobs := rg.Group("/jobs", authMW)
	jobs.GET("", h.listJobs)
	jobs.GET("/:id", h.getJob)
}

func (h *Handler) generate(c *gin.Context) {
	var dto generateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.svc.Generate(c.Request.Context(), middleware.CurrentUserID(c), GenerateInput{
		Prompt:  dto.Prompt,
		Config:  dto.Config,
		DraftID: dto.DraftID,
		Name:    dto.Name,
	})
	if err != nil {
		WriteError(c, err, "Failed to generate logo")
		return
	}
	response.Created(c, res)
}

func (h *Handler) edit(c *gin.Context) {
	var dto editDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	in := EditInput{Prompt: dto.Prompt, Name: dto.Name}
	if dto.Settings != nil {
		in.Settings = *dto.Settings
	}
	if dto.Mask != "" {
		mask, err := decodeBase64Image(dto.Mask)
		if err != nil {
			response.BadRequest(c, "mask: "+err.Error())
			return
		}
		in.Mask = mask
	}

	res, err := h.svc.Edit(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), in)
	if err != nil {
		WriteError(c, err, "Failed to edit logo")
		return
	}
	response.Created(c, res)
}

func (h *Handler) state(c *gin.Context) {
	state, err := h.svc.State(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		WriteError(c, err, "")
		return
	}
	response.OK(c, gin.H{"state": state})
}

func (h *Handler) listJobs(c *gin.Context) {
	q := pagination.FromContext(c)
	jobs, total, err := h.svc.Jobs(c.Request.Context(), middleware.CurrentUserID(c), q.Page, q.Size)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if jobs == nil {
		jobs = []*taskqueue.Job{}
	}
	response.Paged(c, jobs, pagination.Meta(q, total))
}

func (h *Handler) getJob(c *gin.Context) {
	job, err := h.svc.Job(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if job == nil {
		response.NotFoundMsg(c, "job not found")
		return
	}
	response.OK(c, job)
}

// WriteError maps generation failures to HTTP. failMsg replaces upstream and job failure detail.
func WriteError(c *gin.Context, err error, failMsg string) {
	var jobErr *JobError
	var upstream *UpstreamError
	switch {
	case errors.Is(err, ErrLogoNotFound), errors.Is(err, ErrDraftNotFound):
		response.NotFoundMsg(c, err.Error())
	case errors.Is(err, composition.ErrValidation), errors.Is(err, composition.ErrInvariantViolation):
		response.BadRequest(c, err.Error())
	case errors.Is(err, taskqueue.ErrInFlight):
		response.Conflict(c, err.Error())
	case errors.As(err, &upstream):
		_ = c.Error(err)
		response.Error(c, upstream.HTTPStatus(), failMsg)
	case errors.As(err, &jobErr):
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, failMsg)
	default:
		response.InternalError(c, err)
	}
}
