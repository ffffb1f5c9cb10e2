package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// HealthChecker is implemented by the Postgres and Redis clients.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ArtifactStatus reports what the pipeline loaded at startup.
type ArtifactStatus struct {
	Loaded       bool      `json:"loaded"`
	Strategy     string    `json:"strategy,omitempty"`
	ModelVersion string    `json:"model_version,omitempty"`
	SchemaWidth  int       `json:"schema_width,omitempty"`
	LoadedAt     time.Time `json:"loaded_at,omitempty"`
}

type HealthHandler struct {
	db        HealthChecker
	redis     HealthChecker
	artifacts ArtifactStatus
	version   string
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Artifacts ArtifactStatus    `json:"artifacts"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
}

// NewHealthHandler builds the probes. Pass a nil interface for db or redis
// when that optional backend is disabled.
func NewHealthHandler(db, redis HealthChecker, artifacts ArtifactStatus, version string) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, artifacts: artifacts, version: version}
}

// HealthCheck reports every dependency. Optional backends that are down
// degrade the status without failing it.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	services := map[string]string{"artifacts": "healthy"}
	status := "healthy"
	if !h.artifacts.Loaded {
		services["artifacts"] = "unhealthy: not loaded"
		status = "unhealthy"
	}

	for name, checker := range map[string]HealthChecker{"database": h.db, "redis": h.redis} {
		if checker == nil {
			services[name] = "disabled"
			continue
		}
		if err := checker.HealthCheck(c.Request.Context()); err != nil {
			services[name] = "unhealthy: " + err.Error()
			if status == "healthy" {
				status = "degraded"
			}
			continue
		}
		services[name] = "healthy"
	}

	code := http.StatusOK
	if status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
		Artifacts: h.artifacts,
		Version:   h.version,
		Uptime:    time.Since(startTime).String(),
	})
}

// ReadinessCheck is ready once the artifacts are loaded.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if !h.artifacts.Loaded {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false, "artifacts": h.artifacts})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true, "artifacts": h.artifacts})
}

// LivenessCheck only shows the process is responsive.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
