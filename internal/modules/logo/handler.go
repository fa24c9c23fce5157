package logo

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/logoforge/server/internal/middleware"
	"github.com/logoforge/server/internal/models"
	"github.com/logoforge/server/internal/modules/storage/blob"
	"github.com/logoforge/server/internal/modules/storage/file"
	"github.com/logoforge/server/internal/pkg/composition"
	"github.com/logoforge/server/internal/pkg/metrics"
	"github.com/logoforge/server/internal/pkg/pagination"
	"github.com/logoforge/server/internal/pkg/response"
	"go.uber.org/zap"
)

type logoStore interface {
	List(ownerID string, f ListQuery, q pagination.Query) ([]models.LogoModel, response.Pagination, error)
	Get(ownerID, id string) (*models.LogoModel, error)
	Create(logo *models.LogoModel) error
	Replace(logo *models.LogoModel) error
	Rename(ownerID, id, name string) (*models.LogoModel, error)
	Delete(ownerID, id string) error
}

type Handler struct {
	svc     logoStore
	blobs   blob.Store
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewHandler(svc logoStore, blobs blob.Store, m *metrics.Metrics, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, blobs: blobs, metrics: m, log: log}
}

// RegisterRoutes mounts the library. idemMW guards the create endpoints and may be nil.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, idemMW gin.HandlerFunc) {
	g := rg.Group("/logos", authMW)
	create := []gin.HandlerFunc{}
	if idemMW != nil {
		create = append(create, idemMW)
	}

	g.GET("", h.list)
	g.POST("", append(create, h.create)...)
	g.POST("/save-edited", append(create, h.saveEdited)...)
	g.GET("/:id", h.get)
	g.PATCH("/:id", h.rename)
	g.DELETE("/:id", h.delete)
	g.GET("/:id/download", h.download)
}

func (h *Handler) list(c *gin.Context) {
	f := ListQuery{Search: c.Query("search"), Industry: c.Query("industry")}
	items, pag, err := h.svc.List(middleware.CurrentUserID(c), f, pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if items == nil {
		items = []models.LogoModel{}
	}
	response.Paged(c, items, pag)
}

func (h *Handler) get(c *gin.Context) {
	l, ok := h.load(c)
	if !ok {
		return
	}
	response.OK(c, l)
}

// create records a logo produced elsewhere, e.g. by a client-side render.
func (h *Handler) create(c *gin.Context) {
	var dto CreateLogoDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	name, url := strings.TrimSpace(dto.Name), strings.TrimSpace(dto.URL)
	if name == "" {
		response.BadRequest(c, errNameRequired.Error())
		return
	}
	if url == "" {
		response.BadRequest(c, errURLRequired.Error())
		return
	}
	settings, err := resolveSettings(dto.Settings, nil)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	l := &models.LogoModel{OwnerID: middleware.CurrentUserID(c), Name: name, URL: url, Settings: settings}
	l.StorageKey = h.keyOf(l)
	if err := h.svc.Create(l); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, l)
}

// saveEdited stores a manually edited image. With logoId the logo is updated in place,
// otherwise a new "Edited Logo" is created.
func (h *Handler) saveEdited(c *gin.Context) {
	ownerID := middleware.CurrentUserID(c)

	var existing *models.LogoModel
	if id := strings.TrimSpace(c.PostForm("logoId")); id != "" {
		l, err := h.svc.Get(ownerID, id)
		if err != nil {
			response.InternalError(c, err)
			return
		}
		if l == nil {
			response.NotFoundMsg(c, errNotFound.Error())
			return
		}
		existing = l
	}

	var override *composition.Configuration
	if raw := strings.TrimSpace(c.PostForm("settings")); raw != "" {
		override = &composition.Configuration{}
		if err := json.Unmarshal([]byte(raw), override); err != nil {
			response.BadRequest(c, errSettingsFormat.Error())
			return
		}
	}
	var base *composition.Configuration
	if existing != nil {
		base = &existing.Settings
	}
	settings, err := resolveSettings(override, base)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	img, err := file.ReadImage(c, "image")
	if err != nil {
		if errors.Is(err, file.ErrImageMissing) || errors.Is(err, file.ErrImageTooLarge) || errors.Is(err, file.ErrImageType) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	name := file.BuildFileName("edited-logo", filepath.Ext(img.Filename))
	obj, err := h.blobs.Put(c.Request.Context(), ownerID, name, img.Data, img.ContentType)
	h.metrics.RecordUpload(h.blobs.Driver(), err)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "Failed to save logo")
		return
	}

	if existing != nil {
		oldKey := h.keyOf(existing)
		existing.URL, existing.StorageKey, existing.Settings = obj.URL, obj.Key, settings
		if err := h.svc.Replace(existing); err != nil {
			h.discard(c, obj.Key)
			response.InternalError(c, err)
			return
		}
		if oldKey != "" && oldKey != obj.Key {
			h.discard(c, oldKey)
		}
		response.OK(c, existing)
		return
	}

	title := strings.TrimSpace(c.PostForm("name"))
	if title == "" {
		title = "Edited Logo"
	}
	l := &models.LogoModel{OwnerID: ownerID, Name: title, URL: obj.URL, StorageKey: obj.Key, Settings: settings}
	if err := h.svc.Create(l); err != nil {
		h.discard(c, obj.Key)
		response.InternalError(c, err)
		return
	}
	response.Created(c, l)
}

func (h *Handler) rename(c *gin.Context) {
	var dto RenameLogoDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if strings.TrimSpace(dto.Name) == "" {
		response.BadRequest(c, errNameRequired.Error())
		return
	}
	l, err := h.svc.Rename(middleware.CurrentUserID(c), c.Param("id"), dto.Name)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if l == nil {
		response.NotFoundMsg(c, errNotFound.Error())
		return
	}
	response.OK(c, l)
}

// delete removes the blob first so a failed storage call leaves the record visible for a retry.
func (h *Handler) delete(c *gin.Context) {
	l, ok := h.load(c)
	if !ok {
		return
	}
	if key := h.keyOf(l); key != "" {
		if err := h.blobs.Delete(c.Request.Context(), key); err != nil {
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "Failed to delete logo image")
			return
		}
	}
	if err := h.svc.Delete(l.OwnerID, l.ID); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) download(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "png"))
	if format == "jpeg" {
		format = "jpg"
	}
	if _, ok := downloadFormats[format]; !ok {
		response.BadRequest(c, errFormat.Error())
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "1024"))
	if err != nil || !downloadSizes[size] {
		response.BadRequest(c, errSize.Error())
		return
	}

	l, ok := h.load(c)
	if !ok {
		return
	}
	key := h.keyOf(l)
	if key == "" {
		c.Redirect(http.StatusFound, l.URL)
		return
	}
	data, err := h.blobs.Get(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, blob.ErrObjectNotFound) {
			response.NotFoundMsg(c, "logo image is missing")
			return
		}
		response.InternalError(c, err)
		return
	}

	isVector := blob.DetectContentType(key, data) == "image/svg+xml" || strings.HasSuffix(strings.ToLower(key), ".svg")
	var out []byte
	switch {
	case format == "svg" && !isVector:
		response.UnprocessableEntity(c, errVectorOnly.Error())
		return
	case format == "svg":
		out = data
	case isVector:
		response.UnprocessableEntity(c, "vector logos can only be downloaded as svg")
		return
	default:
		if out, err = renderRaster(data, format, size); err != nil {
			_ = c.Error(err)
			response.UnprocessableEntity(c, "logo image cannot be converted")
			return
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%d.%s"`, slug(l.Name), size, format))
	c.Data(http.StatusOK, downloadFormats[format], out)
}

func (h *Handler) load(c *gin.Context) (*models.LogoModel, bool) {
	l, err := h.svc.Get(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return nil, false
	}
	if l == nil {
		response.NotFoundMsg(c, errNotFound.Error())
		return nil, false
	}
	return l, true
}

// keyOf returns the blob behind l, or "" when the image is external or belongs to another owner.
func (h *Handler) keyOf(l *models.LogoModel) string {
	key := l.StorageKey
	if key == "" {
		key, _ = h.blobs.KeyFromURL(l.URL)
	}
	if !h.blobs.Owns(l.OwnerID, key) {
		return ""
	}
	return key
}

func (h *Handler) discard(c *gin.Context, key string) {
	if err := h.blobs.Delete(c.Request.Context(), key); err != nil {
		h.log.Warn("discard blob", zap.String("key", key), zap.Error(err))
	}
}

// resolveSettings validates in, falling back to base and then to the default configuration.
func resolveSettings(in, base *composition.Configuration) (composition.Configuration, error) {
	switch {
	case in != nil:
		cfg := in.Clone()
		cfg.Normalize()
		return cfg, cfg.Validate()
	case base != nil:
		return base.Clone(), nil
	}
	return composition.NewConfiguration(), nil
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slug(name string) string {
	s := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if s == "" {
		return "logo"
	}
	return s
}
