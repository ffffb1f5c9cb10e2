package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/hdb-resale-go/internal/cache"
)

// PredictionCacheAdmin exposes cache statistics and invalidation.
type PredictionCacheAdmin interface {
	GetStats() cache.PredictionCacheStats
	Clear(ctx context.Context) (int, error)
}

// CacheHandler handles cache monitoring endpoints
type CacheHandler struct {
	cache PredictionCacheAdmin
}

func NewCacheHandler(c PredictionCacheAdmin) *CacheHandler {
	return &CacheHandler{cache: c}
}

// GetCacheStats returns hit/miss counters for the prediction cache.
func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	stats := h.cache.GetStats()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"hits":     stats.Hits,
			"misses":   stats.Misses,
			"sets":     stats.Sets,
			"errors":   stats.Errors,
			"hit_rate": stats.HitRate(),
		},
	})
}

// ClearCache drops every cached prediction, e.g. after a model rollout.
func (h *CacheHandler) ClearCache(c *gin.Context) {
	n, err := h.cache.Clear(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to clear prediction cache",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"cleared": n,
	})
}
