package file

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/logoforge/server/internal/middleware"
	"github.com/logoforge/server/internal/modules/storage/blob"
	"github.com/logoforge/server/internal/pkg/metrics"
	"github.com/logoforge/server/internal/pkg/response"
	"go.uber.org/zap"
)

// Handler accepts image uploads for the edit flow.
type Handler struct {
	store   blob.Store
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewHandler(store blob.Store, m *metrics.Metrics, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{store: store, metrics: m, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.POST("/uploads", authMW, h.upload)
}

func (h *Handler) upload(c *gin.Context) {
	img, err := ReadImage(c, "image")
	if err != nil {
		if errors.Is(err, ErrImageMissing) || errors.Is(err, ErrImageTooLarge) || errors.Is(err, ErrImageType) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}

	obj, err := h.store.Put(c.Request.Context(), middleware.CurrentUserID(c), img.Filename, img.Data, img.ContentType)
	h.metrics.RecordUpload(h.store.Driver(), err)
	if err != nil {
		h.log.Error("upload failed", zap.String("user_id", middleware.CurrentUserID(c)), zap.Error(err))
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "Failed to upload image")
		return
	}

	response.OK(c, uploadResponse{
		URL:         obj.URL,
		Name:        img.Filename,
		ContentType: obj.ContentType,
		Size:        obj.Size,
		Storage:     h.store.Driver(),
	})
}
