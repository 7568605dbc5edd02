package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"go.uber.org/zap"
)

// WithRecover evita que un panic tire el proceso: 500 y log con stack.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.L().Error("panic recovered",
						zap.Any("panic", rec),
						logger.Method(r.Method),
						logger.Path(r.URL.Path),
						zap.Stack("stack"),
					)
					w.Header().Set("Content-Type", "application/json; charset=utf-8")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":"server_error"}`))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
