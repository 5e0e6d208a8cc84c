package api

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/team-avesta/Eventure-sub001/internal/blob"
	"github.com/team-avesta/Eventure-sub001/internal/eventtype"
	"github.com/team-avesta/Eventure-sub001/internal/models"
	"github.com/team-avesta/Eventure-sub001/internal/render"
	"github.com/team-avesta/Eventure-sub001/internal/service"
	"github.com/team-avesta/Eventure-sub001/internal/store"
)

var (
	docStore  *store.Store
	uploadSvc *service.UploadService
	logger    = zerolog.Nop()
)

// SetServices wires the handlers to their dependencies.
func SetServices(st *store.Store, up *service.UploadService, l zerolog.Logger) {
	docStore = st
	uploadSvc = up
	logger = l
}

// respondError maps domain errors to HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var tooBig *http.MaxBytesError
	switch {
	case errors.Is(err, store.ErrScreenshotNotFound),
		errors.Is(err, store.ErrModuleNotFound),
		errors.Is(err, blob.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrModuleExists),
		errors.Is(err, store.ErrScreenshotExists),
		errors.Is(err, store.ErrRegionIDConflict):
		status = http.StatusConflict
	case errors.Is(err, store.ErrOrderMismatch),
		errors.Is(err, store.ErrInvalidModule),
		errors.Is(err, store.ErrInvalidStatus),
		errors.Is(err, store.ErrInvalidAsset),
		errors.Is(err, models.ErrInvalidRegion),
		errors.Is(err, models.ErrDegenerateRegion),
		errors.Is(err, models.ErrOutOfBounds),
		errors.Is(err, models.ErrMissingEventType),
		errors.Is(err, models.ErrUnknownEventType),
		errors.Is(err, service.ErrEmptyUpload):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUploadTooLarge), errors.As(err, &tooBig):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrUnsupportedType):
		status = http.StatusUnsupportedMediaType
	}
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// ─────────────────────────────────────
// Event types
// ─────────────────────────────────────

func GetEventTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": eventtype.All()})
}

// ─────────────────────────────────────
// Modules
// ─────────────────────────────────────

func GetModules(c *gin.Context) {
	doc, err := docStore.GetDocument(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": doc.Modules})
}

func CreateModule(c *gin.Context) {
	var req struct {
		Key  string `json:"key" binding:"required"`
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mod, err := docStore.CreateModule(c.Request.Context(), req.Key, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": mod})
}

func GetModule(c *gin.Context) {
	mod, err := docStore.GetModule(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": mod})
}

func ReorderScreenshots(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mod, err := docStore.ReorderScreenshots(c.Request.Context(), c.Param("key"), req.IDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": mod})
}

// ─────────────────────────────────────
// Screenshots
// ─────────────────────────────────────

// formImage opens the multipart "file" field. It writes the error response
// itself and reports false when there is nothing to read.
func formImage(c *gin.Context) (multipart.File, string, bool) {
	limit := int64(service.DefaultMaxUploadBytes)
	if uploadSvc != nil {
		limit = uploadSvc.MaxBytes()
	}
	// Leave room for the multipart framing around the image.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(c, err)
			return nil, "", false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
		return nil, "", false
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return nil, "", false
	}
	return f, fh.Filename, true
}

func UploadScreenshot(c *gin.Context) {
	f, name, ok := formImage(c)
	if !ok {
		return
	}
	defer f.Close()

	sc, err := uploadSvc.Upload(c.Request.Context(), service.UploadRequest{
		ModuleKey: c.Param("key"),
		Name:      c.PostForm("name"),
		FileName:  name,
		Body:      f,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": sc})
}

func GetScreenshot(c *gin.Context) {
	sc, err := docStore.GetScreenshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sc})
}

func UpdateScreenshot(c *gin.Context) {
	var patch store.ScreenshotPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sc, err := docStore.UpdateScreenshot(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sc})
}

func DeleteScreenshot(c *gin.Context) {
	if err := docStore.DeleteScreenshot(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func ReplaceScreenshotAsset(c *gin.Context) {
	f, _, ok := formImage(c)
	if !ok {
		return
	}
	defer f.Close()

	sc, err := uploadSvc.ReplaceAsset(c.Request.Context(), c.Param("id"), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sc})
}

func GetScreenshotImage(c *gin.Context) {
	sc, data, err := uploadSvc.Asset(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=60")
	c.Data(http.StatusOK, sc.ContentType, data)
}

// GetAnnotatedScreenshot renders the regions onto the image. Query params:
// maxWidth, highlight (region id), labels=false.
func GetAnnotatedScreenshot(c *gin.Context) {
	opts := render.Options{Highlight: c.Query("highlight")}
	if v := c.Query("maxWidth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "maxWidth must be a non-negative integer"})
			return
		}
		opts.MaxWidth = n
	}
	if v := c.Query("labels"); v != "" {
		show, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "labels must be a boolean"})
			return
		}
		opts.NoLabels = !show
	}

	var buf bytes.Buffer
	if err := uploadSvc.Export(c.Request.Context(), c.Param("id"), &buf, opts); err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
