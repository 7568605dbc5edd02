package handlers

import (
	"net/http"

	"github.com/dropDatabas3/littlejohn/internal/app"
	httpx "github.com/dropDatabas3/littlejohn/internal/http"
	"github.com/dropDatabas3/littlejohn/internal/oauth"
)

const tokenBodyLimit = 1 << 16

// NewTokenHandler arma POST /token. Autentica al client (Basic o body,
// nunca ambos) antes de mirar el grant; toda falla sale como JSON plano.
func NewTokenHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, tokenBodyLimit)
		if err := r.ParseForm(); err != nil {
			httpx.RecordProtocolError(oauth.CodeInvalidRequest)
			httpx.WriteError(w, http.StatusBadRequest, oauth.CodeInvalidRequest, "")
			return
		}

		cl, aerr := c.Auth.Authenticate(r.Context(),
			r.Header.Get("Authorization"),
			r.PostFormValue("client_id"),
			r.PostFormValue("client_secret"),
		)
		if aerr != nil {
			httpx.RecordProtocolError(aerr.Code)
			httpx.WriteError(w, aerr.Status, aerr.Code, "")
			return
		}

		in := oauth.TokenInput{
			GrantType:    r.PostFormValue("grant_type"),
			Code:         r.PostFormValue("code"),
			RefreshToken: r.PostFormValue("refresh_token"),
			Username:     r.PostFormValue("username"),
			Password:     r.PostFormValue("password"),
			Scope:        r.PostFormValue("scope"),
		}
		resp, terr := c.OAuth.Token(r.Context(), cl, in)
		if terr != nil {
			httpx.RecordProtocolError(terr.Code)
			httpx.WriteError(w, terr.Status, terr.Code, "")
			return
		}
		httpx.RecordTokenIssued(in.GrantType)
		httpx.WriteJSON(w, http.StatusOK, resp)
	}
}
