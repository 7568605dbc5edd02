package oauth

import (
	"net/url"
	"strings"
)

// mergeQuery agrega params al query string de rawURI preservando los
// parámetros preexistentes del redirect URI registrado. Merge, nunca
// replace: https://x/cb?foo=bar + error=access_denied =>
// https://x/cb?foo=bar&error=access_denied
func mergeQuery(rawURI string, params map[string]string) string {
	u, err := url.Parse(rawURI)
	if err != nil {
		// redirect_uri ya fue validado contra el registro del client;
		// si no parsea, degradar a concatenación simple.
		return appendQuery(rawURI, params)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func appendQuery(rawURI string, params map[string]string) string {
	var b strings.Builder
	b.WriteString(rawURI)
	sep := "?"
	if strings.Contains(rawURI, "?") {
		sep = "&"
	}
	for k, v := range params {
		b.WriteString(sep)
		b.WriteString(url.QueryEscape(k))
		b.WriteString("=")
		b.WriteString(url.QueryEscape(v))
		sep = "&"
	}
	return b.String()
}

// redirectErr construye el Redirect de error estándar (error + state si la
// request original traía uno).
func redirectErr(redirectURI, state, code string) Redirect {
	params := map[string]string{"error": code}
	if state != "" {
		params["state"] = state
	}
	return Redirect{Location: mergeQuery(redirectURI, params)}
}
