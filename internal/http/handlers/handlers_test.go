package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/littlejohn/internal/app"
	httpx "github.com/dropDatabas3/littlejohn/internal/http"
	"github.com/dropDatabas3/littlejohn/internal/http/handlers"
	"github.com/dropDatabas3/littlejohn/internal/oauth"
	"github.com/dropDatabas3/littlejohn/internal/store/core"
	"github.com/dropDatabas3/littlejohn/internal/store/memory"
)

const (
	clientID     = "oauth-client-1"
	clientSecret = "oauth-client-secret-1"
	redirectURI  = "http://localhost:9000/callback"
	userSub      = "9XE3-JI34-00132A"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	st := memory.New()
	require.NoError(t, st.CreateClient(context.Background(), &core.Client{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Name:         "Demo Client",
		Scope:        []string{"read", "write"},
		RedirectURIs: []string{redirectURI},
	}))
	require.NoError(t, st.CreateUser(context.Background(), &core.User{
		Sub:      userSub,
		Name:     "Alice",
		Username: "alice",
	}))

	c := &app.Container{
		Store: st,
		OAuth: oauth.NewService(st, oauth.Config{CodeTTL: 30 * time.Second, AccessTokenTTL: 2 * time.Minute}),
		Auth:  oauth.NewAuthenticator(st),
	}
	return httpx.NewRouter(
		handlers.NewAuthorizeHandler(c),
		handlers.NewApproveHandler(c),
		handlers.NewTokenHandler(c),
		handlers.NewIntrospectHandler(c),
		handlers.NewReadyzHandler(c),
		nil,
		nil,
	)
}

func doForm(t *testing.T, h http.Handler, path string, form url.Values, basic bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if basic {
		req.SetBasicAuth(clientID, clientSecret)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// beginAuthorize corre GET /authorize y devuelve el consent payload.
func beginAuthorize(t *testing.T, h http.Handler) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet,
		"/authorize?response_type=code&client_id="+clientID+
			"&redirect_uri="+url.QueryEscape(redirectURI)+
			"&scope=read+write&state=xyz123", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var consent map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &consent))
	require.NotEmpty(t, consent["reqid"])
	return consent
}

// approveCode postea el consentimiento y devuelve el code del redirect.
func approveCode(t *testing.T, h http.Handler, reqid string) string {
	t.Helper()
	rec := doForm(t, h, "/approve", url.Values{
		"reqid":       {reqid},
		"approve":     {"Approve"},
		"user":        {userSub},
		"scope_read":  {"1"},
		"scope_write": {"1"},
	}, false)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "xyz123", loc.Query().Get("state"))
	code := loc.Query().Get("code")
	require.NotEmpty(t, code)
	return code
}

func TestAuthorizeEndpoint_ConsentPayload(t *testing.T) {
	h := newTestServer(t)
	consent := beginAuthorize(t, h)

	require.Equal(t, clientID, consent["client_id"])
	require.Equal(t, "Demo Client", consent["client_name"])
	require.Equal(t, "xyz123", consent["state"])
	require.ElementsMatch(t, []any{"read", "write"}, consent["scope"])
}

func TestAuthorizeEndpoint_UnknownClientRenders400(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/authorize?client_id=ghost&redirect_uri=http%3A%2F%2Fx%2Fcb", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, rec.Header().Get("Location"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "invalid_client", body["error"])
}

func TestApproveEndpoint_DenyRedirects(t *testing.T) {
	h := newTestServer(t)
	consent := beginAuthorize(t, h)

	rec := doForm(t, h, "/approve", url.Values{
		"reqid": {consent["reqid"].(string)},
		"deny":  {"Deny"},
	}, false)
	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "access_denied", loc.Query().Get("error"))
}

func TestTokenEndpoint_FullCodeFlow(t *testing.T) {
	h := newTestServer(t)
	consent := beginAuthorize(t, h)
	code := approveCode(t, h, consent["reqid"].(string))

	rec := doForm(t, h, "/token", url.Values{
		"grant_type": {"authorization_code"},
		"code":       {code},
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["access_token"])
	require.Equal(t, "Bearer", resp["token_type"])
	require.Equal(t, userSub, resp["user"])
	require.NotEmpty(t, resp["refresh_token"])

	// Replay del mismo code: el primer canje lo destruyó.
	rec = doForm(t, h, "/token", url.Values{
		"grant_type": {"authorization_code"},
		"code":       {code},
	}, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"invalid_grant"}`, rec.Body.String())
}

func TestTokenEndpoint_BadCredentialsExactBody(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/token",
		strings.NewReader("grant_type=client_credentials"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(clientID, "wrong-secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"error":"invalid_client"}`, rec.Body.String())
}

func TestTokenEndpoint_AmbiguousAuthRejected(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
	}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(clientID, clientSecret)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"error":"invalid_client"}`, rec.Body.String())
}

func TestIntrospectEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec := doForm(t, h, "/token", url.Values{
		"grant_type": {"client_credentials"},
		"scope":      {"read"},
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tok map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))

	rec = doForm(t, h, "/oauth/introspect", url.Values{
		"token": {tok["access_token"].(string)},
	}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var intro map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &intro))
	require.Equal(t, true, intro["active"])
	require.Equal(t, clientID, intro["client_id"])

	rec = doForm(t, h, "/oauth/introspect", url.Values{"token": {"junk"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"active":false}`, rec.Body.String())

	// Sin client autenticado no hay introspección.
	rec = doForm(t, h, "/oauth/introspect", url.Values{"token": {"junk"}}, false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReadyzEndpoint(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
