package handlers

import (
	"net/http"

	"github.com/dropDatabas3/littlejohn/internal/app"
	"github.com/dropDatabas3/littlejohn/internal/oauth"
)

// NewAuthorizeHandler arma GET /authorize: la entrada del front channel.
// Parsea la query, delega en el service y realiza el outcome (render,
// redirect o pantalla de consentimiento).
func NewAuthorizeHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		in := oauth.AuthorizeInput{
			ClientID:     q.Get("client_id"),
			RedirectURI:  q.Get("redirect_uri"),
			Scope:        q.Get("scope"),
			State:        q.Get("state"),
			ResponseType: q.Get("response_type"),
		}
		writeOutcome(w, r, c.OAuth.Authorize(r.Context(), in))
	}
}
