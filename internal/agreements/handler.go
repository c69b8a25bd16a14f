package agreements

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fleetdocs-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the repo.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches agreement routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/agreements", h.list)
}

// AgreementResponse is the JSON projection of an agreement record.
type AgreementResponse struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Counterparty string `json:"counterparty,omitempty"`
	Status       string `json:"status"`
	SizeBytes    int64  `json:"sizeBytes"`
	ExpiresAt    string `json:"expiresAt,omitempty"`
	CreatedAt    string `json:"createdAt"`
}

func (h *Handler) list(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > 200 {
		limit = 200
	}

	items, err := h.Repo.List(c.Request.Context(), limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list agreements", nil)
		return
	}

	resp := make([]AgreementResponse, 0, len(items))
	for _, a := range items {
		resp = append(resp, AgreementResponse{
			ID:           a.ID,
			Title:        a.Title,
			Counterparty: a.Counterparty,
			Status:       a.Status,
			SizeBytes:    a.SizeBytes,
			ExpiresAt:    a.ExpiresAt,
			CreatedAt:    a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	respond.JSON(c, http.StatusOK, resp)
}
