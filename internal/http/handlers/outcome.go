package handlers

import (
	"net/http"

	httpx "github.com/dropDatabas3/littlejohn/internal/http"
	"github.com/dropDatabas3/littlejohn/internal/oauth"
)

// consentInfo es el payload que consume la UI (externa) de consentimiento.
type consentInfo struct {
	ReqID      string   `json:"reqid"`
	ClientID   string   `json:"client_id"`
	ClientName string   `json:"client_name,omitempty"`
	Scope      []string `json:"scope"`
	State      string   `json:"state,omitempty"`
}

// writeOutcome realiza el outcome del protocolo en la respuesta HTTP.
// El transport no decide render-vs-redirect: eso ya viene decidido.
func writeOutcome(w http.ResponseWriter, r *http.Request, out oauth.Outcome) {
	switch o := out.(type) {
	case oauth.RenderError:
		httpx.RecordProtocolError(o.Code)
		httpx.WriteError(w, o.Status, o.Code, o.Desc)
	case oauth.Redirect:
		http.Redirect(w, r, o.Location, http.StatusFound)
	case oauth.ShowConsent:
		scope := o.Request.Scope
		if scope == nil {
			scope = []string{}
		}
		httpx.WriteJSON(w, http.StatusOK, consentInfo{
			ReqID:      o.Request.ReqID,
			ClientID:   o.Client.ClientID,
			ClientName: o.Client.Name,
			Scope:      scope,
			State:      o.Request.State,
		})
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "unhandled outcome")
	}
}
