// Package overview serves the merged dashboard view of uploaded documents
// and agreements.
package overview

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleetdocs-backend/internal/aggregate"
	"fleetdocs-backend/internal/agreements"
	"fleetdocs-backend/internal/documents"
	"fleetdocs-backend/internal/shared/server/respond"
)

const agreementFetchLimit = 200

// Handler wires the aggregated read endpoints.
type Handler struct {
	Documents  *documents.Service
	Agreements agreements.Repo
	Now        func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(docs *documents.Service, agrs agreements.Repo) *Handler {
	return &Handler{Documents: docs, Agreements: agrs, Now: time.Now}
}

// RegisterRoutes attaches overview routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents/overview", h.overview)
	rg.GET("/documents/stats", h.stats)
}

func (h *Handler) load(c *gin.Context) ([]aggregate.Document, bool) {
	uploads, err := h.Documents.List(c.Request.Context(), "", "")
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return nil, false
	}
	agrs, err := h.Agreements.List(c.Request.Context(), agreementFetchLimit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list agreements", nil)
		return nil, false
	}
	return aggregate.Aggregate(uploads, agrs, h.Now()), true
}

func (h *Handler) overview(c *gin.Context) {
	docs, ok := h.load(c)
	if !ok {
		return
	}

	docs = aggregate.Apply(docs, aggregate.Query{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
	})
	respond.OK(c, gin.H{"documents": docs, "total": len(docs)})
}

func (h *Handler) stats(c *gin.Context) {
	docs, ok := h.load(c)
	if !ok {
		return
	}
	respond.OK(c, aggregate.Summarize(docs))
}
