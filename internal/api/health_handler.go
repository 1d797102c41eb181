package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// HealthHandler 健康检查（数据库 + Redis）
type HealthHandler struct {
	db     *sql.DB
	redis  *redis.Client
	logger *zap.Logger
}

func NewHealthHandler(db *sql.DB, redisClient *redis.Client, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient, logger: logger}
}

type healthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

// Health GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := healthStatus{Status: "ok", Database: "ok", Redis: "ok"}
	httpStatus := http.StatusOK

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn("Database health check failed", zap.Error(err))
		status.Status = "degraded"
		status.Database = "unreachable"
		httpStatus = http.StatusServiceUnavailable
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		h.logger.Warn("Redis health check failed", zap.Error(err))
		status.Status = "degraded"
		status.Redis = "unreachable"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, Result[healthStatus]{Code: CodeOK, Msg: "health", Data: status})
}
