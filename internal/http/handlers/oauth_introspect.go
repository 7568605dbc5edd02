package handlers

import (
	"net/http"

	"github.com/dropDatabas3/littlejohn/internal/app"
	httpx "github.com/dropDatabas3/littlejohn/internal/http"
)

// NewIntrospectHandler arma POST /oauth/introspect (RFC 7662). Requiere
// client autenticado; para tokens desconocidos responde {"active": false}
// sin filtrar nada más.
func NewIntrospectHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, tokenBodyLimit)
		if err := r.ParseForm(); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
			return
		}
		if _, aerr := c.Auth.Authenticate(r.Context(),
			r.Header.Get("Authorization"),
			r.PostFormValue("client_id"),
			r.PostFormValue("client_secret"),
		); aerr != nil {
			httpx.WriteError(w, aerr.Status, aerr.Code, "")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, c.OAuth.Introspect(r.Context(), r.PostFormValue("token")))
	}
}
