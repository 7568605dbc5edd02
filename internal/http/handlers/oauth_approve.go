package handlers

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/littlejohn/internal/app"
	httpx "github.com/dropDatabas3/littlejohn/internal/http"
	"github.com/dropDatabas3/littlejohn/internal/oauth"
)

const approveBodyLimit = 1 << 16 // 64 KiB de form alcanza y sobra

// NewApproveHandler arma POST /approve: la UI de consentimiento postea acá
// la decisión del usuario. Checkboxes de scope vienen como scope_<name>=1.
func NewApproveHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, approveBodyLimit)
		if err := r.ParseForm(); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, oauth.CodeInvalidRequest, "malformed form body")
			return
		}

		in := oauth.ApproveInput{
			ReqID:        r.PostFormValue("reqid"),
			Approve:      r.PostForm.Has("approve") && !r.PostForm.Has("deny"),
			Scope:        checkedScopes(r.PostForm),
			UserSub:      r.PostFormValue("user"),
			ResponseType: r.PostFormValue("response_type"),
		}
		writeOutcome(w, r, c.OAuth.Approve(r.Context(), in))
	}
}

// checkedScopes junta los scopes tildados del form. El orden de las keys
// de un map no está garantizado; el service no depende del orden.
func checkedScopes(form map[string][]string) []string {
	var out []string
	for key, vals := range form {
		name, ok := strings.CutPrefix(key, "scope_")
		if !ok || name == "" {
			continue
		}
		if len(vals) > 0 && truthy(vals[0]) {
			out = append(out, name)
		}
	}
	return out
}

func truthy(v string) bool {
	switch v {
	case "1", "on", "true":
		return true
	}
	return false
}
