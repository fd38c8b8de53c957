package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pixeljam/devwatch/internal/host"
	"github.com/pixeljam/devwatch/internal/infrastructure/logging"
	"github.com/pixeljam/devwatch/internal/infrastructure/monitoring"
	"github.com/pixeljam/devwatch/internal/transport"
)

// TypeWelcome is the open-type greeting sent to a guest right after its
// transport is bound.
const TypeWelcome = "host-hello"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Guests are separate processes; the embedding check happens in the
		// protocol layer, not at the socket.
		return true
	},
}

// Handler upgrades guest connections and hands them to frame adapters.
type Handler struct {
	registry *host.Registry
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewHandler creates a websocket handler over the frame registry.
func NewHandler(registry *host.Registry, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{registry: registry, metrics: metrics, logger: logger}
}

// HandleGuest serves GET /ws/guests/:id.
func (h *Handler) HandleGuest(c *gin.Context) {
	id := c.Param("id")
	adapter, ok := h.registry.AdapterByID(id)
	if !ok {
		h.logger.Warn("connection for unknown frame", logging.FrameID(id))
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown frame id"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", logging.FrameID(id), zap.Error(err))
		return
	}

	tr := transport.FromConn(conn)
	adapter.Bind(tr)
	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
	}

	// Open-type welcome so the vocabulary of reserved types stays closed.
	if err := adapter.Send(TypeWelcome, map[string]any{"frame": id}); err != nil {
		h.logger.Warn("welcome not delivered", logging.FrameID(id), zap.Error(err))
	}

	go func() {
		<-tr.Done()
		// Only this connection's transport is detached. A reconnect may
		// have already bound a fresh one, which must stay routed.
		adapter.UnbindTransport(tr)
		if h.metrics != nil {
			h.metrics.WSConnections.Dec()
		}
		h.logger.Info("guest disconnected", logging.FrameID(id))
	}()
}
