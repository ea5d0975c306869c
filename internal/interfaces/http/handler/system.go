package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/cache"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// DatabasePinger checks the database connection
type DatabasePinger interface {
	PingContext(ctx context.Context) error
}

// SystemHandler serves health and runtime information
type SystemHandler struct {
	BaseHandler
	db        DatabasePinger
	cache     *cache.Cache
	version   string
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler. db and c may be nil.
func NewSystemHandler(db DatabasePinger, c *cache.Cache, version string) *SystemHandler {
	return &SystemHandler{
		db:        db,
		cache:     c,
		version:   version,
		startTime: time.Now(),
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Cache     string `json:"cache"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// Health godoc
// @Summary      Health check
// @Description  Reports database reachability and cache state. An unavailable cache only degrades the service.
// @Tags         system
// @Produce      json
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "ok",
		Database:  "ok",
		Cache:     h.cache.State().String(),
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	status := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			resp.Status = "unavailable"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}
	if status == http.StatusOK && !h.cache.IsAvailable() {
		resp.Status = "degraded"
	}

	c.JSON(status, dto.Response{Success: status == http.StatusOK, Data: resp})
}
