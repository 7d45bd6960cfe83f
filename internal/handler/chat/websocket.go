package chat

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	chatservice "github.com/campuscare/support-chat/backend/internal/service/chat"
)

const (
	readWait   = 60 * time.Second
	writeWait  = 10 * time.Second
	pingPeriod = 54 * time.Second
)

type outgoingMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type errorData struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

// handleWebSocket runs each inbound frame through the pipeline in order.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readWait))
		return nil
	})

	go h.pingLoop(ctx, conn)

	for {
		var req chatservice.Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Info("websocket read failed", zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readWait))

		resp, err := h.process(ctx, req)
		if err != nil {
			status, message := h.statusFor(err)
			h.send(conn, outgoingMessage{Type: "error", Data: errorData{Status: status, Error: message}})
			continue
		}
		h.send(conn, outgoingMessage{Type: "reply", Data: resp})
	}
}

func (h *Handler) send(conn *websocket.Conn, msg outgoingMessage) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Warn("websocket write failed", zap.String("type", msg.Type), zap.Error(err))
	}
}

func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
