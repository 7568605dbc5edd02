package handlers

import (
	"net/http"

	"github.com/dropDatabas3/littlejohn/internal/app"
	httpx "github.com/dropDatabas3/littlejohn/internal/http"
	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"go.uber.org/zap"
)

// NewReadyzHandler responde 200 si el storage contesta el ping.
func NewReadyzHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := c.Store.Ping(r.Context()); err != nil {
			logger.L().Warn("readyz: store ping failed", zap.Error(err))
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
