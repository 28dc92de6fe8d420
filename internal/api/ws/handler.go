package ws

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/virtuoslabs/virtuos/backend/internal/infrastructure/monitoring"
	"github.com/virtuoslabs/virtuos/backend/internal/providers/shell"
	"github.com/virtuoslabs/virtuos/backend/internal/shared/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// Handler manages interactive shell WebSocket connections
type Handler struct {
	shell   *shell.Manager
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(shellManager *shell.Manager, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		shell:   shellManager,
		metrics: metrics,
		logger:  logger,
	}
}

// HandleConnection upgrades the request and runs the shell loop. With
// a session_id query parameter the socket attaches to that session;
// without one a fresh session is created and closed when the socket
// goes away. Attached sessions outlive their sockets.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	sessionID := c.Query("session_id")
	owned := false
	if sessionID == "" {
		info, err := h.shell.Create()
		if err != nil {
			h.send(conn, types.WSMessage{Type: "error", Error: err.Error()})
			return
		}
		sessionID = info.ID
		owned = true
		h.metrics.SetShellSessions(h.shell.Count())
	} else if _, err := h.shell.Get(sessionID); err != nil {
		h.send(conn, types.WSMessage{Type: "error", Error: err.Error()})
		return
	}

	defer func() {
		if owned {
			h.shell.Close(sessionID)
			h.metrics.SetShellSessions(h.shell.Count())
		}
	}()

	info, err := h.shell.Get(sessionID)
	if err != nil {
		h.send(conn, types.WSMessage{Type: "error", Error: err.Error()})
		return
	}
	h.send(conn, types.WSMessage{
		Type:      "system",
		SessionID: sessionID,
		Output:    "Connected to VirtuOS shell",
		CWD:       info.CWD,
	})

	for {
		msg, err := h.read(conn)
		if err != nil {
			return
		}
		h.metrics.RecordWSMessage("in", msg.Type)

		switch msg.Type {
		case "exec":
			if h.handleExec(conn, sessionID, msg) {
				return
			}
		case "ping":
			h.send(conn, types.WSMessage{Type: "pong"})
		default:
			h.send(conn, types.WSMessage{Type: "error", Error: "unknown message type"})
		}
	}
}

// handleExec runs one command line and reports whether the session
// exited.
func (h *Handler) handleExec(conn *websocket.Conn, sessionID string, msg types.WSMessage) bool {
	start := time.Now()
	result, err := h.shell.Execute(sessionID, msg.Command)
	if err != nil {
		h.send(conn, types.WSMessage{Type: "error", Error: err.Error()})
		return true
	}
	h.metrics.RecordServiceCall("shell_manager", "ws_exec", "success", time.Since(start))

	h.send(conn, types.WSMessage{
		Type:    "output",
		Output:  result.Output,
		CWD:     result.CWD,
		Exited:  result.Exited,
		Cleared: result.Cleared,
	})

	if result.Exited {
		h.metrics.SetShellSessions(h.shell.Count())
		return true
	}
	return false
}

// read decodes one client frame.
func (h *Handler) read(conn *websocket.Conn) (types.WSMessage, error) {
	var msg types.WSMessage
	_, data, err := conn.ReadMessage()
	if err != nil {
		return msg, err
	}
	if err := sonic.Unmarshal(data, &msg); err != nil {
		msg.Type = "invalid"
		return msg, nil
	}
	return msg, nil
}

// send encodes and writes one frame, dropping it on encode failure.
func (h *Handler) send(conn *websocket.Conn, msg types.WSMessage) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		h.logger.Warn("failed to encode frame", zap.Error(err))
		return
	}
	h.metrics.RecordWSMessage("out", msg.Type)
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Debug("failed to write frame", zap.Error(err))
	}
}
