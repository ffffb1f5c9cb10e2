package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/hdb-resale-go/internal/models"
)

// HistoryReader is the read side of the prediction history repository.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]models.PredictionRecord, error)
	Count(ctx context.Context) (int64, error)
}

type HistoryHandler struct {
	repo HistoryReader
}

func NewHistoryHandler(repo HistoryReader) *HistoryHandler {
	return &HistoryHandler{repo: repo}
}

// Recent handles GET /api/v1/predictions/recent?limit=N.
func (h *HistoryHandler) Recent(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "limit must be a positive integer",
			})
			return
		}
		limit = n
	}

	records, err := h.repo.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to load prediction history",
		})
		return
	}

	total, err := h.repo.Count(c.Request.Context())
	if err != nil {
		total = int64(len(records))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
		"count":   len(records),
		"total":   total,
	})
}
