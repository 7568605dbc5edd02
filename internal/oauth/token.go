package oauth

import (
	"context"
	"errors"
	"net/http"

	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/security/password"
	tokens "github.com/dropDatabas3/littlejohn/internal/security/token"
	"github.com/dropDatabas3/littlejohn/internal/store/core"
	"github.com/dropDatabas3/littlejohn/internal/validation"
	"go.uber.org/zap"
)

// TokenInput son los body params de POST /token, ya tipados. El client
// llega autenticado por el Authenticator, siempre, sea cual sea el grant.
type TokenInput struct {
	GrantType    string
	Code         string
	RefreshToken string
	Username     string
	Password     string
	Scope        string
}

// Token es el dispatcher de grant types del token endpoint. Acá nunca hay
// redirects: es una llamada API directa y toda falla es JSON {"error": ...}.
func (s *Service) Token(ctx context.Context, cl *core.Client, in TokenInput) (*TokenResponse, *Error) {
	switch in.GrantType {
	case "authorization_code":
		return s.grantAuthorizationCode(ctx, cl, in)
	case "client_credentials":
		return s.grantClientCredentials(ctx, cl, in)
	case "refresh_token":
		return s.grantRefreshToken(ctx, cl, in)
	case "password":
		return s.grantPassword(ctx, cl, in)
	default:
		return nil, &Error{Status: http.StatusBadRequest, Code: CodeUnsupportedGrantType, Desc: "unknown grant type " + in.GrantType}
	}
}

func (s *Service) grantAuthorizationCode(ctx context.Context, cl *core.Client, in TokenInput) (*TokenResponse, *Error) {
	// Consume atómico: el code queda destruido pase lo que pase después,
	// un segundo canje del mismo code siempre es invalid_grant.
	ac, err := s.store.ConsumeAuthorizationCode(ctx, tokens.SHA256Base64URL(in.Code))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.log.Info("token: unknown or already used code", logger.ClientID(cl.ClientID))
			return nil, errInvalidGrant(http.StatusBadRequest, "invalid authorization code")
		}
		return nil, errServer("code lookup failed")
	}

	if ac.ClientID != cl.ClientID {
		// Code de otro client: ya está destruido por el consume, no hay
		// retry posible desde ninguno de los dos lados.
		s.log.Warn("token: code presented by wrong client",
			logger.ClientID(cl.ClientID), zap.String("code_client_id", ac.ClientID))
		return nil, errInvalidGrant(http.StatusBadRequest, "code was not issued to this client")
	}
	if s.now().After(ac.ExpiresAt) {
		s.log.Info("token: expired code", logger.ClientID(cl.ClientID))
		return nil, errInvalidGrant(http.StatusBadRequest, "expired authorization code")
	}

	resp, err := s.issue(ctx, cl, ac.UserSub, ac.Scope, true)
	if err != nil {
		return nil, errServer("token issuance failed")
	}
	s.log.Info("token: code exchanged", logger.ClientID(cl.ClientID), logger.UserSub(ac.UserSub), logger.Scope(ac.Scope))
	return resp, nil
}

func (s *Service) grantClientCredentials(ctx context.Context, cl *core.Client, in TokenInput) (*TokenResponse, *Error) {
	requested := validation.ParseScope(in.Scope)
	if bad := validation.Disallowed(requested, cl.Scope); len(bad) > 0 {
		s.log.Info("token: scope not permitted for client",
			logger.ClientID(cl.ClientID), logger.Scope(bad))
		return nil, errInvalidScope("scope not permitted: " + validation.JoinScope(bad))
	}
	// Sin resource owner y sin refresh token, nunca, para este grant.
	resp, err := s.issue(ctx, cl, "", requested, false)
	if err != nil {
		return nil, errServer("token issuance failed")
	}
	s.log.Info("token: client credentials grant", logger.ClientID(cl.ClientID), logger.Scope(requested))
	return resp, nil
}

func (s *Service) grantRefreshToken(ctx context.Context, cl *core.Client, in TokenInput) (*TokenResponse, *Error) {
	rt, err := s.store.GetRefreshToken(ctx, in.RefreshToken)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.log.Info("token: unknown refresh token", logger.ClientID(cl.ClientID))
			return nil, errInvalidGrant(http.StatusUnauthorized, "unknown refresh token")
		}
		return nil, errServer("refresh token lookup failed")
	}

	if rt.ClientID != cl.ClientID {
		// Huele a token robado: se invalida y el dueño legítimo tendrá
		// que rehacer el flow.
		s.log.Warn("token: refresh token presented by wrong client",
			logger.ClientID(cl.ClientID), zap.String("token_client_id", rt.ClientID))
		if derr := s.store.DeleteRefreshToken(ctx, rt.Token); derr != nil && !errors.Is(derr, core.ErrNotFound) {
			s.log.Error("token: could not revoke mismatched refresh token", zap.Error(derr))
		}
		return nil, errInvalidGrant(http.StatusBadRequest, "refresh token does not belong to this client")
	}

	// Sin rotación forzada: el refresh presentado se devuelve tal cual
	// (el issue lo reusa porque el scope almacenado coincide consigo mismo).
	resp, err := s.issue(ctx, cl, rt.UserSub, rt.Scope, false)
	if err != nil {
		return nil, errServer("token issuance failed")
	}
	s.log.Info("token: refresh grant", logger.ClientID(cl.ClientID), logger.UserSub(rt.UserSub))
	return resp, nil
}

func (s *Service) grantPassword(ctx context.Context, cl *core.Client, in TokenInput) (*TokenResponse, *Error) {
	user, err := s.store.GetUserByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.log.Info("token: unknown username", zap.String("username", in.Username))
			return nil, errInvalidGrant(http.StatusUnauthorized, "resource owner authentication failed")
		}
		return nil, errServer("user lookup failed")
	}
	if user.PasswordHash == nil {
		// Mensaje de log distinto a propósito: usuario sin password es un
		// problema de aprovisionamiento, no un typo del resource owner.
		s.log.Warn("token: user has no password set", logger.UserSub(user.Sub))
		return nil, errInvalidGrant(http.StatusUnauthorized, "resource owner authentication failed")
	}
	if !password.Verify(in.Password, *user.PasswordHash) {
		s.log.Info("token: password mismatch", logger.UserSub(user.Sub))
		return nil, errInvalidGrant(http.StatusUnauthorized, "resource owner authentication failed")
	}

	requested := validation.ParseScope(in.Scope)
	if bad := validation.Disallowed(requested, cl.Scope); len(bad) > 0 {
		s.log.Info("token: scope not permitted for client",
			logger.ClientID(cl.ClientID), logger.Scope(bad))
		return nil, errInvalidScope("scope not permitted: " + validation.JoinScope(bad))
	}

	resp, err := s.issue(ctx, cl, user.Sub, requested, true)
	if err != nil {
		return nil, errServer("token issuance failed")
	}
	s.log.Info("token: password grant", logger.ClientID(cl.ClientID), logger.UserSub(user.Sub), logger.Scope(requested))
	return resp, nil
}
