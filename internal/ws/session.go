package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vaderpos/inventory-service/internal/ledger"
	"github.com/vaderpos/inventory-service/internal/metrics"
)

var upgrader = websocket.Upgrader{
	HandshakeTimeout: 10 * time.Second,
	CheckOrigin:      func(r *http.Request) bool { return true },
}

// SessionHandler runs the per-connection request/response loop. Each
// inbound frame produces exactly one reply, except malformed frames which
// are dropped silently. Broadcasts flow through the Hub independently.
type SessionHandler struct {
	ledger       *ledger.Ledger
	registry     *Registry
	hub          *Hub
	logger       *zap.Logger
	writeTimeout time.Duration
}

// NewSessionHandler creates the socket endpoint handler.
func NewSessionHandler(l *ledger.Ledger, reg *Registry, hub *Hub, writeTimeout time.Duration, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{
		ledger:       l,
		registry:     reg,
		hub:          hub,
		logger:       logger,
		writeTimeout: writeTimeout,
	}
}

// ServeHTTP upgrades the request and services the session until either
// side disconnects.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsc, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws.session.upgrade_failed", zap.Error(err))
		return
	}

	conn := newConn(wsc, h.writeTimeout)
	h.logger.Info("ws.session.connected", zap.String("session_id", conn.ID()))

	h.registry.Register(conn)
	defer func() {
		h.registry.Unregister(conn)
		conn.Close()
		h.logger.Info("ws.session.disconnected", zap.String("session_id", conn.ID()))
	}()

	// Initial full sync for this connection only.
	if err := h.hub.SendSnapshot(r.Context(), conn); err != nil {
		h.logger.Warn("ws.session.snapshot_failed",
			zap.String("session_id", conn.ID()),
			zap.Error(err))
		return
	}

	for {
		_, frame, err := wsc.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("ws.session.read_error",
					zap.String("session_id", conn.ID()),
					zap.Error(err))
			}
			return
		}

		reply := h.handleFrame(r.Context(), frame)
		if reply == nil {
			continue // malformed frame, no reply
		}
		if err := conn.SendJSON(reply); err != nil {
			h.logger.Warn("ws.session.reply_failed",
				zap.String("session_id", conn.ID()),
				zap.Error(err))
			return
		}
	}
}

// handleFrame decodes one inbound frame and produces its reply. A nil
// return means the frame was malformed and must be ignored.
func (h *SessionHandler) handleFrame(ctx context.Context, frame []byte) any {
	var cmd command
	if err := json.Unmarshal(frame, &cmd); err != nil {
		return nil
	}

	switch cmd.Action {
	case "ping":
		metrics.IncSocketCommand(cmd.Action, "ok")
		return pongReply{Status: statusSuccess, Message: "pong"}

	case "getProduct":
		p, err := h.ledger.GetProduct(ctx, cmd.ProductID)
		if err != nil {
			metrics.IncSocketCommand(cmd.Action, "error")
			return errorReply{Status: statusError, Message: "Product not found"}
		}
		metrics.IncSocketCommand(cmd.Action, "ok")
		dto := p.ToDTO()
		return productReply{
			Status:      statusSuccess,
			ProductID:   dto.ProductID,
			ProductName: dto.ProductName,
			Quantity:    dto.Quantity,
			Price:       dto.Price,
			CategoryID:  dto.CategoryID,
		}

	case "takeProduct":
		if cmd.Quantity == nil {
			metrics.IncSocketCommand(cmd.Action, "error")
			return errorReply{Status: statusError, Message: "Quantity is required for this action"}
		}
		p, err := h.ledger.ReduceStock(ctx, cmd.ProductID, *cmd.Quantity)
		if err != nil {
			metrics.IncSocketCommand(cmd.Action, "error")
			return errorReply{Status: statusError, Message: ledgerErrorMessage(err)}
		}
		metrics.IncSocketCommand(cmd.Action, "ok")
		return stockReply{
			Status:         statusSuccess,
			Message:        "Stock has been successfully reduced",
			ProductID:      p.ProductID,
			RemainingStock: p.Quantity,
		}

	case "returnProduct":
		if cmd.Quantity == nil {
			metrics.IncSocketCommand(cmd.Action, "error")
			return errorReply{Status: statusError, Message: "Quantity is required for this action"}
		}
		p, err := h.ledger.ReturnStock(ctx, cmd.ProductID, *cmd.Quantity)
		if err != nil {
			metrics.IncSocketCommand(cmd.Action, "error")
			return errorReply{Status: statusError, Message: ledgerErrorMessage(err)}
		}
		metrics.IncSocketCommand(cmd.Action, "ok")
		return stockReply{
			Status:         statusSuccess,
			Message:        "Stock has been successfully added",
			ProductID:      p.ProductID,
			RemainingStock: p.Quantity,
		}

	default:
		metrics.IncSocketCommand("unknown", "error")
		return errorReply{Status: statusError, Message: "Unknown action: " + cmd.Action}
	}
}

// ledgerErrorMessage maps ledger errors to protocol messages. Typed ledger
// errors pass their message through; anything else is reported generically
// so internal detail never leaks onto the wire.
func ledgerErrorMessage(err error) string {
	var productNotFound *ledger.ProductNotFoundError
	var categoryNotFound *ledger.CategoryNotFoundError
	var insufficient *ledger.InsufficientStockError
	var invalid *ledger.InvalidArgumentError
	switch {
	case errors.As(err, &productNotFound),
		errors.As(err, &categoryNotFound),
		errors.As(err, &insufficient),
		errors.As(err, &invalid):
		return err.Error()
	default:
		return "Internal error"
	}
}
