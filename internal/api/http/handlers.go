package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/virtuoslabs/virtuos/backend/internal/domain/snapshot"
	"github.com/virtuoslabs/virtuos/backend/internal/domain/vfs"
	"github.com/virtuoslabs/virtuos/backend/internal/infrastructure/monitoring"
	"github.com/virtuoslabs/virtuos/backend/internal/providers/shell"
	"github.com/virtuoslabs/virtuos/backend/internal/service"
	"github.com/virtuoslabs/virtuos/backend/internal/shared/types"
	"github.com/virtuoslabs/virtuos/backend/internal/shared/utils"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	engine     *vfs.Filesystem
	registry   *service.Registry
	snapshots  *snapshot.Manager
	replicator *snapshot.Replicator
	shell      *shell.Manager
	metrics    *monitoring.Metrics
	tracker    *HandlerMetrics
	logger     *zap.Logger
}

// NewHandlers creates a new handler set. The replicator may be nil
// when no peer is configured.
func NewHandlers(
	engine *vfs.Filesystem,
	registry *service.Registry,
	snapshots *snapshot.Manager,
	replicator *snapshot.Replicator,
	shellManager *shell.Manager,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		engine:     engine,
		registry:   registry,
		snapshots:  snapshots,
		replicator: replicator,
		shell:      shellManager,
		metrics:    metrics,
		tracker:    NewHandlerMetrics(metrics),
		logger:     logger,
	}
}

// Root handles the banner endpoint
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "VirtuOS Backend (Go)",
		"version": "0.3.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	stats := h.engine.Stats()

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"engine": gin.H{
			"files":       stats.TotalFiles,
			"directories": stats.TotalDirectories,
			"bytes":       stats.TotalSizeBytes,
			"operations":  stats.Operations.TotalOperations,
		},
		"service_registry": h.registry.Stats(),
		"snapshots":        h.snapshots.Stats(),
		"shell_sessions":   h.shell.Count(),
		"replication":      gin.H{"configured": h.replicator != nil},
	})
}

// ListServices lists all available services
func (h *Handlers) ListServices(c *gin.Context) {
	categoryStr := c.Query("category")

	var category *types.Category
	if categoryStr != "" {
		cat := types.Category(categoryStr)
		category = &cat
	}

	services := h.registry.List(category)
	stats := h.registry.Stats()

	c.JSON(http.StatusOK, gin.H{
		"services": services,
		"stats":    stats,
	})
}

// DiscoverServices ranks services against a free-text query
func (h *Handlers) DiscoverServices(c *gin.Context) {
	var req types.DiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := utils.ValidateString(req.Query, "query", 1, 1000, true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := req.Limit
	if limit <= 0 || limit > 20 {
		limit = 5
	}

	services := h.registry.Discover(req.Query, limit)

	c.JSON(http.StatusOK, gin.H{
		"query":    req.Query,
		"services": services,
	})
}

// ExecuteService executes a service tool
func (h *Handlers) ExecuteService(c *gin.Context) {
	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := utils.ValidateToolID(req.ToolID, "tool_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var appCtx *types.Context
	if req.SessionID != nil || req.Namespace != nil {
		appCtx = &types.Context{
			SessionID: req.SessionID,
			Namespace: req.Namespace,
		}
	}

	done := h.tracker.TrackServiceOperation("execute")
	result, err := h.registry.Execute(c.Request.Context(), req.ToolID, req.Params, appCtx)
	done()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateShellSession opens a new shell session
func (h *Handlers) CreateShellSession(c *gin.Context) {
	info, err := h.shell.Create()
	if err != nil {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		return
	}
	h.metrics.SetShellSessions(h.shell.Count())

	c.JSON(http.StatusCreated, gin.H{"session": info})
}

// ListShellSessions lists open shell sessions
func (h *Handlers) ListShellSessions(c *gin.Context) {
	sessions := h.shell.List()
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// CloseShellSession closes a shell session
func (h *Handlers) CloseShellSession(c *gin.Context) {
	sessionID := c.Param("id")

	if err := h.shell.Close(sessionID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	h.metrics.SetShellSessions(h.shell.Count())

	c.JSON(http.StatusOK, gin.H{"closed": true, "session_id": sessionID})
}

// ExecShellCommand runs one command line in a shell session
func (h *Handlers) ExecShellCommand(c *gin.Context) {
	sessionID := c.Param("id")

	var req types.ShellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	done := h.tracker.TrackShellOperation("exec")
	result, err := h.shell.Execute(sessionID, req.Command)
	done()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if result.Exited {
		h.metrics.SetShellSessions(h.shell.Count())
	}

	c.JSON(http.StatusOK, result)
}
