package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/littlejohn/internal/http/middlewares"
	"github.com/dropDatabas3/littlejohn/internal/rate"
)

// NewRouter arma el router completo. Los handlers llegan ya construidos
// (el wiring vive en cmd/), acá solo se deciden rutas y middlewares.
//
// Orden de la cadena: recover afuera de todo, request id antes del logging
// para que cada línea lo tenga, rate limit solo sobre los endpoints OAuth.
func NewRouter(
	authorize stdhttp.Handler, // GET  /authorize
	approve stdhttp.Handler, // POST /approve
	token stdhttp.Handler, // POST /token
	introspect stdhttp.Handler, // POST /oauth/introspect
	readyz stdhttp.Handler, // GET  /readyz
	metrics stdhttp.Handler, // GET  /metrics (puede ser nil)
	limiter rate.Limiter,
) stdhttp.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore())
		if limiter != nil {
			r.Use(mw.WithRateLimit(limiter))
		}
		r.Method(stdhttp.MethodGet, "/authorize", authorize)
		r.Method(stdhttp.MethodPost, "/approve", approve)
		r.Method(stdhttp.MethodPost, "/token", token)
		r.Method(stdhttp.MethodPost, "/oauth/introspect", introspect)
	})

	r.Method(stdhttp.MethodGet, "/readyz", readyz)
	if metrics != nil {
		r.Method(stdhttp.MethodGet, "/metrics", metrics)
	}

	return mw.Chain(r,
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithSecurityHeaders(),
		WithMetrics,
		mw.WithLogging(),
	)
}
