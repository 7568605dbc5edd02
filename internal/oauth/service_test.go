package oauth

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dropDatabas3/littlejohn/internal/security/password"
	"github.com/dropDatabas3/littlejohn/internal/store/core"
	"github.com/dropDatabas3/littlejohn/internal/store/memory"
)

const (
	testClientID     = "oauth-client-1"
	testClientSecret = "oauth-client-secret-1"
	testRedirectURI  = "http://localhost:9000/callback?keep=original"
	testUserSub      = "9XE3-JI34-00132A"
	testUsername     = "alice"
	testPassword     = "password"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	svc := NewService(st, Config{CodeTTL: 30 * time.Second, AccessTokenTTL: 2 * time.Minute})

	if err := st.CreateClient(context.Background(), &core.Client{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		Name:         "Demo Client",
		Scope:        []string{"read", "write"},
		RedirectURIs: []string{testRedirectURI},
	}); err != nil {
		t.Fatalf("seed client: %v", err)
	}

	hash, err := password.Hash(password.Default, testPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := st.CreateUser(context.Background(), &core.User{
		Sub:          testUserSub,
		Name:         "Alice",
		Email:        "alice@example.com",
		Username:     testUsername,
		PasswordHash: &hash,
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return svc, st
}

func testClientWithSecret(id, secret string) *core.Client {
	return &core.Client{ClientID: id, ClientSecret: secret, Scope: []string{"read"}}
}

// mustQuery parsea el query string de un Redirect.Location.
func mustQuery(t *testing.T, location string) url.Values {
	t.Helper()
	u, err := url.Parse(location)
	if err != nil {
		t.Fatalf("parse redirect location %q: %v", location, err)
	}
	return u.Query()
}

// beginFlow corre Authorize y devuelve la Request pendiente.
func beginFlow(t *testing.T, svc *Service, scope, responseType string) *core.AuthRequest {
	t.Helper()
	out := svc.Authorize(context.Background(), AuthorizeInput{
		ClientID:     testClientID,
		RedirectURI:  testRedirectURI,
		Scope:        scope,
		State:        "xyz123",
		ResponseType: responseType,
	})
	sc, ok := out.(ShowConsent)
	if !ok {
		t.Fatalf("expected ShowConsent, got %#v", out)
	}
	return sc.Request
}

// mintCode corre el flow completo de front channel y devuelve el code.
func mintCode(t *testing.T, svc *Service, scope []string) string {
	t.Helper()
	req := beginFlow(t, svc, strings.Join(scope, " "), "code")
	out := svc.Approve(context.Background(), ApproveInput{
		ReqID:   req.ReqID,
		Approve: true,
		Scope:   scope,
		UserSub: testUserSub,
	})
	rd, ok := out.(Redirect)
	if !ok {
		t.Fatalf("expected Redirect, got %#v", out)
	}
	code := mustQuery(t, rd.Location).Get("code")
	if code == "" {
		t.Fatalf("no code in redirect %q", rd.Location)
	}
	return code
}
