package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"respira-monitor/internal/service"
)

// LiveHandler 监测页面的 WebSocket 实时推送
//
// 每秒推送一次完整快照（与 GET /api/monitor/snapshot 同构）。
// 客户端不上行数据，读循环只用于感知断开。
type LiveHandler struct {
	monitor *service.Monitor
	logger  *zap.Logger

	upgrader websocket.Upgrader
}

func NewLiveHandler(monitor *service.Monitor, logger *zap.Logger) *LiveHandler {
	return &LiveHandler{
		monitor: monitor,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// 前端与服务同源部署在局域网内
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Live GET /api/monitor/live
func (h *LiveHandler) Live(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(h.monitor.Snapshot()); err != nil {
				h.logger.Debug("WebSocket client gone", zap.Error(err))
				return
			}
		}
	}
}
