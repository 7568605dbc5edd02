package oauth

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	tokens "github.com/dropDatabas3/littlejohn/internal/security/token"
	"github.com/dropDatabas3/littlejohn/internal/store/core"
	"github.com/dropDatabas3/littlejohn/internal/validation"
)

// TokenResponse es el wire format del issuer. Las keys ausentes se omiten
// (sin "user" en client_credentials, sin "refresh_token" cuando no aplica):
// contrato de formato, no detalle de implementación.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ClientID     string `json:"client_id"`
	User         string `json:"user,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// queryParams proyecta la respuesta para el implicit grant (mergeada al
// query string del redirect URI).
func (t *TokenResponse) queryParams() map[string]string {
	params := map[string]string{
		"access_token": t.AccessToken,
		"token_type":   t.TokenType,
		"scope":        t.Scope,
		"client_id":    t.ClientID,
	}
	if t.User != "" {
		params["user"] = t.User
	}
	if t.RefreshToken != "" {
		params["refresh_token"] = t.RefreshToken
	}
	return params
}

// issue acuña un access token nuevo y aplica la política de refresh:
//   - ya hay refresh para (client, user) con el MISMO scope: se reusa (la
//     unicidad por par se preserva, nunca hay duplicados).
//   - hay uno con scope distinto: se destruye; se acuña otro solo si
//     withRefresh.
//   - no hay: se acuña solo si withRefresh.
//
// userSub vacío = grant sin resource owner (client_credentials): jamás
// toca refresh tokens.
func (s *Service) issue(ctx context.Context, cl *core.Client, userSub string, scope []string, withRefresh bool) (*TokenResponse, error) {
	if cl == nil {
		return nil, fmt.Errorf("issue: nil client")
	}
	for _, sc := range scope {
		if !validation.ValidScopeName(sc) {
			return nil, fmt.Errorf("issue: malformed scope %q", sc)
		}
	}
	if scope == nil {
		scope = []string{}
	}

	access, err := tokens.GenerateHexToken(32)
	if err != nil {
		return nil, err
	}
	at := &core.AccessToken{
		Token:     access,
		ClientID:  cl.ClientID,
		UserSub:   userSub,
		TokenType: "Bearer",
		Scope:     scope,
		ExpiresAt: s.now().Add(s.cfg.AccessTokenTTL),
	}
	if err := s.store.CreateAccessToken(ctx, at); err != nil {
		return nil, err
	}

	resp := &TokenResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		Scope:       validation.JoinScope(scope),
		ClientID:    cl.ClientID,
		User:        userSub,
	}

	if userSub == "" {
		return resp, nil
	}

	existing, err := s.store.GetRefreshTokenForPair(ctx, cl.ClientID, userSub)
	switch {
	case err == nil && scopeEqual(existing.Scope, scope):
		resp.RefreshToken = existing.Token
		return resp, nil

	case err == nil:
		// Scope renegociado: el refresh viejo muere siempre.
		if derr := s.store.DeleteRefreshToken(ctx, existing.Token); derr != nil && !errors.Is(derr, core.ErrNotFound) {
			return nil, derr
		}
		s.log.Info("issuer: refresh token rotated on scope change",
			logger.ClientID(cl.ClientID), logger.UserSub(userSub), logger.Scope(scope))

	case !errors.Is(err, core.ErrNotFound):
		return nil, err
	}

	if !withRefresh {
		return resp, nil
	}

	refresh, err := s.mintRefreshToken(ctx, cl.ClientID, userSub, scope)
	if err != nil {
		return nil, err
	}
	resp.RefreshToken = refresh
	return resp, nil
}

func (s *Service) mintRefreshToken(ctx context.Context, clientID, userSub string, scope []string) (string, error) {
	raw, err := tokens.GenerateHexToken(32)
	if err != nil {
		return "", err
	}
	rt := &core.RefreshToken{
		Token:    raw,
		ClientID: clientID,
		UserSub:  userSub,
		Scope:    scope,
		IssuedAt: s.now(),
	}
	err = s.store.CreateRefreshToken(ctx, rt)
	if errors.Is(err, core.ErrConflict) {
		// Carrera con otra emisión para el mismo par: el índice único del
		// storage ganó. Reusar el que quedó si el scope coincide.
		won, gerr := s.store.GetRefreshTokenForPair(ctx, clientID, userSub)
		if gerr == nil && scopeEqual(won.Scope, scope) {
			return won.Token, nil
		}
		return "", err
	}
	if err != nil {
		return "", err
	}
	return raw, nil
}

// scopeEqual compara scopes como conjuntos (el orden del wire no importa).
func scopeEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
