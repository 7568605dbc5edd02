package oauth

import (
	"context"
	"errors"
	"net/http"

	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	tokens "github.com/dropDatabas3/littlejohn/internal/security/token"
	"github.com/dropDatabas3/littlejohn/internal/store/core"
	"github.com/dropDatabas3/littlejohn/internal/validation"
)

// ApproveInput es la decisión de consentimiento del resource owner.
type ApproveInput struct {
	ReqID   string
	Approve bool
	// Scope es el subconjunto que el usuario marcó en la pantalla de
	// consentimiento (puede achicar lo pedido originalmente).
	Scope []string
	// UserSub identifica al resource owner ya autenticado por la UI.
	UserSub string
	// ResponseType pisa el response_type de la Request si viene no vacío.
	ResponseType string
}

// Approve consume la Request pendiente (single-use: se destruye siempre,
// gane o pierda) y, según la decisión, emite un code, un token directo
// (implicit) o redirige con error.
func (s *Service) Approve(ctx context.Context, in ApproveInput) Outcome {
	req, err := s.store.ConsumeAuthRequest(ctx, in.ReqID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Sin Request no hay redirect target confiable: render.
			s.log.Info("approve: no matching authorization request", logger.ReqID(in.ReqID))
			return RenderError{Status: http.StatusBadRequest, Code: CodeInvalidRequest, Desc: "no matching authorization request"}
		}
		return RenderError{Status: http.StatusInternalServerError, Code: CodeServerError, Desc: "request lookup failed"}
	}

	if !in.Approve {
		s.log.Info("approve: user denied", logger.ReqID(req.ReqID), logger.ClientID(req.ClientID))
		return redirectErr(req.RedirectURI, req.State, CodeAccessDenied)
	}

	cl, err := s.store.GetClientByClientID(ctx, req.ClientID)
	if err != nil {
		// La Request referencia un client que ya no existe: bug, no error de protocolo.
		return RenderError{Status: http.StatusInternalServerError, Code: CodeServerError, Desc: "client for pending request not found"}
	}

	// Revalidar contra client.Scope, no contra lo pedido: la UI puede
	// ofrecer achicar el scope pero nunca ampliarlo más allá del registro.
	if bad := validation.Disallowed(in.Scope, cl.Scope); len(bad) > 0 {
		s.log.Info("approve: scope not permitted for client",
			logger.ClientID(cl.ClientID), logger.Scope(bad))
		return redirectErr(req.RedirectURI, req.State, CodeInvalidScope)
	}

	user, err := s.store.GetUserBySub(ctx, in.UserSub)
	if err != nil {
		// Una sesión autenticada debería garantizar usuario conocido:
		// should-not-happen, distinto de los errores de protocolo.
		s.log.Error("approve: approving user not found", logger.UserSub(in.UserSub))
		return RenderError{Status: http.StatusInternalServerError, Code: CodeServerError, Desc: "unknown approving user"}
	}

	responseType := req.ResponseType
	if in.ResponseType != "" {
		responseType = in.ResponseType
	}

	switch responseType {
	case "code":
		code, err := tokens.GenerateOpaqueToken(32)
		if err != nil {
			return RenderError{Status: http.StatusInternalServerError, Code: CodeServerError, Desc: "could not generate code"}
		}
		ac := &core.AuthorizationCode{
			CodeHash:    tokens.SHA256Base64URL(code),
			ClientID:    cl.ClientID,
			UserSub:     user.Sub,
			Scope:       in.Scope,
			State:       req.State,
			RedirectURI: req.RedirectURI,
			ExpiresAt:   s.now().Add(s.cfg.CodeTTL),
		}
		if err := s.store.CreateAuthorizationCode(ctx, ac); err != nil {
			return RenderError{Status: http.StatusInternalServerError, Code: CodeServerError, Desc: "could not persist code"}
		}
		params := map[string]string{"code": code}
		if req.State != "" {
			params["state"] = req.State
		}
		s.log.Info("approve: code issued", logger.ClientID(cl.ClientID), logger.UserSub(user.Sub), logger.Scope(in.Scope))
		return Redirect{Location: mergeQuery(req.RedirectURI, params)}

	case "token":
		// Implicit: token directo en el fragmento de query, sin segundo
		// round-trip al token endpoint y sin refresh token nuevo.
		resp, err := s.issue(ctx, cl, user.Sub, in.Scope, false)
		if err != nil {
			return RenderError{Status: http.StatusInternalServerError, Code: CodeServerError, Desc: "could not issue token"}
		}
		params := resp.queryParams()
		if req.State != "" {
			params["state"] = req.State
		}
		s.log.Info("approve: implicit token issued", logger.ClientID(cl.ClientID), logger.UserSub(user.Sub))
		return Redirect{Location: mergeQuery(req.RedirectURI, params)}

	default:
		return redirectErr(req.RedirectURI, req.State, CodeUnsupportedResponseType)
	}
}
