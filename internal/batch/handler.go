package batch

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fleetdocs-backend/internal/classify"
	"fleetdocs-backend/internal/documents"
	"fleetdocs-backend/internal/queue"
	"fleetdocs-backend/internal/shared/metrics"
	"fleetdocs-backend/internal/shared/server/respond"
	"fleetdocs-backend/internal/shared/telemetry"
)

const maxBatchFileSize = 10 << 20 // 10MB per file

// Handler exposes upload sessions over HTTP.
type Handler struct {
	Sessions  *Store
	Uploader  Uploader
	Digitizer Digitizer
	Queue     queue.Client
	Metrics   *metrics.Metrics
}

// NewHandler constructs a Handler. Queue and Metrics may be nil.
func NewHandler(store *Store, up Uploader, dig Digitizer, q queue.Client, m *metrics.Metrics) *Handler {
	return &Handler{Sessions: store, Uploader: up, Digitizer: dig, Queue: q, Metrics: m}
}

// RegisterRoutes attaches upload-session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload-sessions", h.create)
	rg.POST("/upload-sessions/:id/files", h.addFiles)
	rg.PATCH("/upload-sessions/:id/files/:index", h.updateFile)
	rg.DELETE("/upload-sessions/:id/files/:index", h.removeFile)
	rg.POST("/upload-sessions/:id/submit", h.submit)
	rg.DELETE("/upload-sessions/:id", h.delete)
}

type fileView struct {
	Index      int    `json:"index"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	ExpiryDate string `json:"expiryDate,omitempty"`
	MimeType   string `json:"mimeType"`
	SizeBytes  int64  `json:"sizeBytes"`
}

type sessionView struct {
	ID        string             `json:"id"`
	CreatedAt string             `json:"createdAt"`
	Files     []fileView         `json:"files"`
	Results   []*classify.Result `json:"results,omitempty"`
}

func viewOf(s *Session, withResults bool) sessionView {
	files := s.Files()
	v := sessionView{
		ID:        s.ID,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
		Files:     make([]fileView, len(files)),
	}
	for i, f := range files {
		v.Files[i] = fileView{
			Index:      i,
			Name:       f.Name,
			Category:   f.Category,
			ExpiryDate: f.ExpiryDate,
			MimeType:   f.MimeType,
			SizeBytes:  f.SizeBytes,
		}
	}
	if withResults {
		v.Results = s.Results()
	}
	return v
}

func (h *Handler) create(c *gin.Context) {
	s := h.Sessions.Create()
	c.Set("sessionId", s.ID)
	respond.JSON(c, http.StatusCreated, viewOf(s, false))
}

func (h *Handler) session(c *gin.Context) (*Session, bool) {
	id := c.Param("id")
	c.Set("sessionId", id)
	s, ok := h.Sessions.Get(id)
	if !ok {
		respond.Error(c, http.StatusNotFound, "not_found", "upload session not found", nil)
		return nil, false
	}
	return s, true
}

func (h *Handler) addFiles(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "multipart form required", nil)
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "at least one file is required", nil)
		return
	}

	pending := make([]*PendingUpload, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxBatchFileSize {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", fh.Filename+" exceeds the size limit", nil)
			return
		}
		f, err := fh.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "cannot read "+fh.Filename, nil)
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, maxBatchFileSize+1))
		f.Close()
		if err != nil || int64(len(data)) > maxBatchFileSize {
			respond.Error(c, http.StatusBadRequest, "validation_error", "cannot read "+fh.Filename, nil)
			return
		}
		pending = append(pending, &PendingUpload{
			Data:     data,
			Name:     fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
		})
	}

	s.AddFiles(pending...)
	respond.OK(c, viewOf(s, false))
}

func (h *Handler) fileIndex(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "index must be a non-negative integer", nil)
		return 0, false
	}
	return idx, true
}

func (h *Handler) updateFile(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	idx, ok := h.fileIndex(c)
	if !ok {
		return
	}

	var patch FilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if err := s.UpdateFile(idx, patch); err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
		return
	}
	respond.OK(c, viewOf(s, false))
}

func (h *Handler) removeFile(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	idx, ok := h.fileIndex(c)
	if !ok {
		return
	}
	if err := s.RemoveFile(idx); err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
		return
	}
	respond.OK(c, viewOf(s, false))
}

type submitRequest struct {
	Mode string `json:"mode"` // plain or digitize
}

type submitResponse struct {
	Session   sessionView                  `json:"session"`
	Documents []documents.DocumentResponse `json:"documents,omitempty"`
	Results   []*classify.Result           `json:"results,omitempty"`
}

func (h *Handler) submit(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.Mode != "plain" && req.Mode != "digitize" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "mode must be plain or digitize", nil)
		return
	}
	fileCount := len(s.Files())
	if fileCount == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "session has no files", nil)
		return
	}

	start := time.Now()
	var (
		saved   []documents.Document
		results []*classify.Result
		ids     []int64
		err     error
	)
	switch req.Mode {
	case "plain":
		saved, err = s.SubmitPlain(c.Request.Context(), h.Uploader)
		for _, d := range saved {
			ids = append(ids, d.ID)
		}
	case "digitize":
		results, err = s.SubmitDigitize(c.Request.Context(), h.Digitizer)
		for _, r := range results {
			if r != nil && r.SavedDocumentID != 0 {
				ids = append(ids, r.SavedDocumentID)
			}
		}
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	if h.Metrics != nil {
		h.Metrics.ObserveBatchSubmit(req.Mode, status, fileCount)
	}
	telemetry.Info("batch.submit", map[string]any{
		"session_id":  s.ID,
		"mode":        req.Mode,
		"status":      status,
		"files":       fileCount,
		"committed":   len(ids),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if err != nil {
		var be *BatchError
		if errors.As(err, &be) {
			details := gin.H{"index": be.Index, "fileName": be.FileName}
			if errors.Is(err, classify.ErrUnavailable) {
				respond.Error(c, http.StatusServiceUnavailable, "classifier_unavailable", be.Err.Error(), details)
				return
			}
			respond.Error(c, http.StatusBadGateway, "batch_failed", be.Err.Error(), details)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "batch submission failed", nil)
		return
	}

	h.publishRefresh(c, s, ids)

	// Full success clears the batch, so the results travel in the response
	// rather than the (now empty) session view.
	resp := submitResponse{Session: viewOf(s, false), Results: results}
	for _, d := range saved {
		resp.Documents = append(resp.Documents, documents.ToResponse(d))
	}
	respond.OK(c, resp)
}

// publishRefresh notifies queue listeners that documents changed. Delivery
// is best effort; a publish failure never fails the submission.
func (h *Handler) publishRefresh(c *gin.Context, s *Session, ids []int64) {
	if h.Queue == nil || len(ids) == 0 {
		return
	}
	ev := queue.RefreshEvent{
		SessionID:   s.ID,
		DocumentIDs: ids,
		EnqueuedAt:  time.Now().UTC().Format(time.RFC3339),
		Version:     1,
	}
	if err := h.Queue.Send(c.Request.Context(), ev); err != nil {
		telemetry.Warn("batch.refresh_publish_failed", map[string]any{
			"session_id": s.ID,
			"err":        err.Error(),
		})
	}
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	c.Set("sessionId", id)
	h.Sessions.Delete(id)
	c.Status(http.StatusNoContent)
}
