package oauth

import (
	"context"
	"errors"
	"net/http"

	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/store/core"
	"github.com/dropDatabas3/littlejohn/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthorizeInput son los query params de GET /authorize, ya tipados.
type AuthorizeInput struct {
	ClientID     string
	RedirectURI  string
	Scope        string // space-delimited en el wire
	State        string
	ResponseType string
}

// Authorize valida client + redirect URI, chequea scopes y persiste la
// Request pendiente de consentimiento.
//
// Unknown client y redirect_uri no registrado se RENDERIZAN, nunca se
// redirige: hasta validar ambos no hay target confiable y un client
// inválido podría apuntar el redirect a cualquier lado.
func (s *Service) Authorize(ctx context.Context, in AuthorizeInput) Outcome {
	cl, err := s.store.GetClientByClientID(ctx, in.ClientID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.log.Info("authorize: unknown client", logger.ClientID(in.ClientID))
			return RenderError{Status: http.StatusBadRequest, Code: CodeInvalidClient, Desc: "unknown client"}
		}
		return RenderError{Status: http.StatusInternalServerError, Code: CodeServerError, Desc: "client lookup failed"}
	}

	if !cl.HasRedirectURI(in.RedirectURI) {
		s.log.Info("authorize: redirect_uri mismatch",
			logger.ClientID(in.ClientID),
			zap.String("redirect_uri", in.RedirectURI),
			zap.Strings("registered", cl.RedirectURIs))
		return RenderError{Status: http.StatusBadRequest, Code: CodeInvalidRequest, Desc: "invalid redirect URI"}
	}

	requested := validation.ParseScope(in.Scope)
	if bad := validation.Disallowed(requested, cl.Scope); len(bad) > 0 {
		s.log.Info("authorize: scope not permitted for client",
			logger.ClientID(in.ClientID), logger.Scope(bad))
		return redirectErr(in.RedirectURI, in.State, CodeInvalidScope)
	}

	req := &core.AuthRequest{
		ReqID:        uuid.NewString(),
		ClientID:     cl.ClientID,
		State:        in.State,
		ResponseType: in.ResponseType,
		Scope:        requested,
		RedirectURI:  in.RedirectURI,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateAuthRequest(ctx, req); err != nil {
		return RenderError{Status: http.StatusInternalServerError, Code: CodeServerError, Desc: "could not persist authorization request"}
	}

	s.log.Debug("authorize: pending request created",
		logger.ReqID(req.ReqID), logger.ClientID(cl.ClientID), logger.Scope(requested))
	return ShowConsent{Request: req, Client: cl}
}
