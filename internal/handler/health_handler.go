package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Pinger はDB疎通確認のインターフェース。sql.DBの部分集合。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler は死活監視エンドポイントのハンドラー。
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health はプロセスの生存とDB疎通を確認する。
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]string{"status": "ok"}

	if err := h.db.PingContext(ctx); err != nil {
		slog.Error("health check db ping failed", slog.String("error", err.Error()))
		status = http.StatusServiceUnavailable
		body["status"] = "unavailable"
		body["database"] = "unreachable"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
