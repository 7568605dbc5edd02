package oauth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dropDatabas3/littlejohn/internal/store/core"
)

func testClient() *core.Client {
	return &core.Client{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		Scope:        []string{"read", "write"},
		RedirectURIs: []string{testRedirectURI},
	}
}

func exchange(t *testing.T, svc *Service, cl *core.Client, code string) *TokenResponse {
	t.Helper()
	resp, terr := svc.Token(context.Background(), cl, TokenInput{
		GrantType: "authorization_code",
		Code:      code,
	})
	if terr != nil {
		t.Fatalf("exchange failed: %v", terr)
	}
	return resp
}

func TestToken_AuthorizationCodeGrant(t *testing.T) {
	svc, _ := newTestService(t)
	code := mintCode(t, svc, []string{"read", "write"})

	resp := exchange(t, svc, testClient(), code)
	if resp.AccessToken == "" || resp.TokenType != "Bearer" {
		t.Fatalf("resp %#v", resp)
	}
	if resp.Scope != "read write" {
		t.Fatalf("scope %q", resp.Scope)
	}
	if resp.User != testUserSub || resp.ClientID != testClientID {
		t.Fatalf("resp %#v", resp)
	}
	if resp.RefreshToken == "" {
		t.Fatal("code grant should come with a refresh token")
	}
}

func TestToken_CodeIsSingleUse(t *testing.T) {
	svc, _ := newTestService(t)
	code := mintCode(t, svc, []string{"read"})

	exchange(t, svc, testClient(), code)

	_, terr := svc.Token(context.Background(), testClient(), TokenInput{
		GrantType: "authorization_code",
		Code:      code,
	})
	if terr == nil || terr.Code != CodeInvalidGrant || terr.Status != http.StatusBadRequest {
		t.Fatalf("replayed code should be invalid_grant 400, got %#v", terr)
	}
}

func TestToken_CodeFromAnotherClientIsDestroyed(t *testing.T) {
	svc, st := newTestService(t)
	other := &core.Client{ClientID: "other-client", ClientSecret: "s", Scope: []string{"read"}}
	if err := st.CreateClient(context.Background(), other); err != nil {
		t.Fatalf("seed other client: %v", err)
	}
	code := mintCode(t, svc, []string{"read"})

	_, terr := svc.Token(context.Background(), other, TokenInput{
		GrantType: "authorization_code",
		Code:      code,
	})
	if terr == nil || terr.Code != CodeInvalidGrant {
		t.Fatalf("got %#v", terr)
	}

	// El consume ya destruyó el code: tampoco le sirve al dueño legítimo.
	_, terr = svc.Token(context.Background(), testClient(), TokenInput{
		GrantType: "authorization_code",
		Code:      code,
	})
	if terr == nil || terr.Code != CodeInvalidGrant {
		t.Fatalf("code should be gone for the real owner too, got %#v", terr)
	}
}

func TestToken_ExpiredCode(t *testing.T) {
	svc, _ := newTestService(t)
	code := mintCode(t, svc, []string{"read"})

	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, terr := svc.Token(context.Background(), testClient(), TokenInput{
		GrantType: "authorization_code",
		Code:      code,
	})
	if terr == nil || terr.Code != CodeInvalidGrant || terr.Status != http.StatusBadRequest {
		t.Fatalf("expired code should be invalid_grant 400, got %#v", terr)
	}
}

func TestToken_ClientCredentials(t *testing.T) {
	svc, _ := newTestService(t)

	resp, terr := svc.Token(context.Background(), testClient(), TokenInput{
		GrantType: "client_credentials",
		Scope:     "read",
	})
	if terr != nil {
		t.Fatalf("grant failed: %v", terr)
	}
	if resp.AccessToken == "" || resp.Scope != "read" {
		t.Fatalf("resp %#v", resp)
	}
	// Sin resource owner: ni user ni refresh token, nunca.
	if resp.User != "" || resp.RefreshToken != "" {
		t.Fatalf("client_credentials leaked user/refresh: %#v", resp)
	}
}

func TestToken_ClientCredentialsScopeDenied(t *testing.T) {
	svc, _ := newTestService(t)

	_, terr := svc.Token(context.Background(), testClient(), TokenInput{
		GrantType: "client_credentials",
		Scope:     "read delete",
	})
	if terr == nil || terr.Code != CodeInvalidScope || terr.Status != http.StatusBadRequest {
		t.Fatalf("got %#v", terr)
	}
}

func TestToken_RefreshGrantReusesToken(t *testing.T) {
	svc, _ := newTestService(t)
	code := mintCode(t, svc, []string{"read", "write"})
	first := exchange(t, svc, testClient(), code)

	resp, terr := svc.Token(context.Background(), testClient(), TokenInput{
		GrantType:    "refresh_token",
		RefreshToken: first.RefreshToken,
	})
	if terr != nil {
		t.Fatalf("refresh failed: %v", terr)
	}
	if resp.AccessToken == "" || resp.AccessToken == first.AccessToken {
		t.Fatal("refresh should mint a fresh access token")
	}
	// Mismo scope => el refresh token presentado sigue siendo el vigente.
	if resp.RefreshToken != first.RefreshToken {
		t.Fatalf("refresh token changed without scope change: %q vs %q", resp.RefreshToken, first.RefreshToken)
	}
}

func TestToken_RefreshUnknownToken(t *testing.T) {
	svc, _ := newTestService(t)

	_, terr := svc.Token(context.Background(), testClient(), TokenInput{
		GrantType:    "refresh_token",
		RefreshToken: "made-up",
	})
	if terr == nil || terr.Code != CodeInvalidGrant || terr.Status != http.StatusUnauthorized {
		t.Fatalf("got %#v", terr)
	}
}

func TestToken_RefreshWrongClientRevokes(t *testing.T) {
	svc, st := newTestService(t)
	other := &core.Client{ClientID: "other-client", ClientSecret: "s", Scope: []string{"read"}}
	if err := st.CreateClient(context.Background(), other); err != nil {
		t.Fatalf("seed other client: %v", err)
	}
	code := mintCode(t, svc, []string{"read"})
	first := exchange(t, svc, testClient(), code)

	_, terr := svc.Token(context.Background(), other, TokenInput{
		GrantType:    "refresh_token",
		RefreshToken: first.RefreshToken,
	})
	if terr == nil || terr.Code != CodeInvalidGrant {
		t.Fatalf("got %#v", terr)
	}

	// Presentado por el client equivocado el token se revoca: el dueño
	// legítimo tiene que rehacer el flow.
	_, terr = svc.Token(context.Background(), testClient(), TokenInput{
		GrantType:    "refresh_token",
		RefreshToken: first.RefreshToken,
	})
	if terr == nil || terr.Status != http.StatusUnauthorized {
		t.Fatalf("revoked token should be unknown now, got %#v", terr)
	}
}

func TestToken_RefreshRotatesOnScopeChange(t *testing.T) {
	svc, _ := newTestService(t)

	wide := exchange(t, svc, testClient(), mintCode(t, svc, []string{"read", "write"}))
	narrow := exchange(t, svc, testClient(), mintCode(t, svc, []string{"read"}))

	if narrow.RefreshToken == "" || narrow.RefreshToken == wide.RefreshToken {
		t.Fatal("scope change should rotate the refresh token")
	}
	// El refresh viejo murió en la rotación.
	_, terr := svc.Token(context.Background(), testClient(), TokenInput{
		GrantType:    "refresh_token",
		RefreshToken: wide.RefreshToken,
	})
	if terr == nil || terr.Status != http.StatusUnauthorized {
		t.Fatalf("stale refresh token should be gone, got %#v", terr)
	}
}

func TestToken_PasswordGrant(t *testing.T) {
	svc, _ := newTestService(t)

	resp, terr := svc.Token(context.Background(), testClient(), TokenInput{
		GrantType: "password",
		Username:  testUsername,
		Password:  testPassword,
		Scope:     "read",
	})
	if terr != nil {
		t.Fatalf("grant failed: %v", terr)
	}
	if resp.AccessToken == "" || resp.User != testUserSub || resp.RefreshToken == "" {
		t.Fatalf("resp %#v", resp)
	}
}

func TestToken_PasswordGrantFailures(t *testing.T) {
	svc, st := newTestService(t)

	// Usuario federado: existe pero nunca registró contraseña local.
	nopass := &core.User{Sub: "7FD1-KK02-99001B", Username: "carol"}
	if err := st.CreateUser(context.Background(), nopass); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	cases := []struct {
		name       string
		in         TokenInput
		wantCode   string
		wantStatus int
	}{
		{"unknown user", TokenInput{GrantType: "password", Username: "bob", Password: "x"}, CodeInvalidGrant, http.StatusUnauthorized},
		{"wrong password", TokenInput{GrantType: "password", Username: testUsername, Password: "nope"}, CodeInvalidGrant, http.StatusUnauthorized},
		{"no password set", TokenInput{GrantType: "password", Username: "carol", Password: "anything"}, CodeInvalidGrant, http.StatusUnauthorized},
		{"scope denied", TokenInput{GrantType: "password", Username: testUsername, Password: testPassword, Scope: "delete"}, CodeInvalidScope, http.StatusBadRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, terr := svc.Token(context.Background(), testClient(), c.in)
			if terr == nil || terr.Code != c.wantCode || terr.Status != c.wantStatus {
				t.Fatalf("got %#v", terr)
			}
		})
	}
}

func TestToken_UnsupportedGrantType(t *testing.T) {
	svc, _ := newTestService(t)

	_, terr := svc.Token(context.Background(), testClient(), TokenInput{GrantType: "device_code"})
	if terr == nil || terr.Code != CodeUnsupportedGrantType || terr.Status != http.StatusBadRequest {
		t.Fatalf("got %#v", terr)
	}
}
