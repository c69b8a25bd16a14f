package documents

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fleetdocs-backend/internal/classify"
	"fleetdocs-backend/internal/docmime"
	"fleetdocs-backend/internal/shared/server/middleware"
	"fleetdocs-backend/internal/shared/server/respond"
	"fleetdocs-backend/internal/shared/util"
)

const maxUploadSize = 15 << 20 // 15MB of JSON, covers a 10MB file base64-encoded

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc          *Service
	DigitizeRate *middleware.RateLimiter
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, digitizeRate *middleware.RateLimiter) *Handler {
	return &Handler{Svc: svc, DigitizeRate: digitizeRate}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
	rg.GET("/documents", h.list)
	rg.DELETE("/documents/:id", h.delete)
	rg.GET("/documents/:id/file", h.file)

	digitize := rg.Group("")
	if h.DigitizeRate != nil {
		digitize.Use(middleware.RateLimit(h.DigitizeRate))
	}
	digitize.POST("/documents/digitize", h.digitize)
}

type uploadRequest struct {
	Name           string `json:"name"`
	Category       string `json:"category"`
	FileData       string `json:"fileData"`
	ExpirationDate string `json:"expirationDate"`
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.Name == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "name is required", nil)
		return
	}
	mimeHint, data, err := util.DecodeDataURL(req.FileData)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "fileData must be a base64 data url", nil)
		return
	}

	doc, err := h.Svc.Upload(c.Request.Context(), UploadRequest{
		Name:       req.Name,
		Category:   req.Category,
		Data:       data,
		MimeHint:   mimeHint,
		ExpiryDate: req.ExpirationDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload document", nil)
		}
		return
	}

	c.Set("documentId", strconv.FormatInt(doc.ID, 10))
	respond.JSON(c, http.StatusCreated, ToResponse(doc))
}

type digitizeRequest struct {
	FileData string `json:"fileData"`
	Filename string `json:"filename"`
	AutoSave bool   `json:"autoSave"`
}

func (h *Handler) digitize(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	var req digitizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.Filename == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "filename is required", nil)
		return
	}
	_, data, err := util.DecodeDataURL(req.FileData)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "fileData must be a base64 data url", nil)
		return
	}

	result, err := h.Svc.Digitize(c.Request.Context(), data, req.Filename, req.AutoSave)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, classify.ErrUnavailable):
			respond.Error(c, http.StatusServiceUnavailable, "classifier_unavailable", "classification service unavailable", nil)
		case errors.Is(err, classify.ErrClassification):
			respond.Error(c, http.StatusBadGateway, "classification_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to digitize document", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, result)
}

func (h *Handler) list(c *gin.Context) {
	docs, err := h.Svc.List(c.Request.Context(), c.Query("search"), c.Query("category"))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}

	resp := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, ToResponse(doc))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "document id must be numeric", nil)
		return
	}

	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete document", nil)
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// file streams the raw document bytes. The Content-Type prefers the stored
// MIME record and falls back to inference from the name; download=true adds
// an attachment disposition with an extension-safe filename.
func (h *Handler) file(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "document id must be numeric", nil)
		return
	}

	reader, doc, err := h.Svc.OpenFile(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load document", nil)
		}
		return
	}
	defer reader.Close()

	mimeType := docmime.Infer(doc.MimeType, doc.Name)
	c.Header("Content-Type", mimeType)
	if c.Query("download") == "true" {
		filename := docmime.EnsureExtension(doc.Name, mimeType)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}
