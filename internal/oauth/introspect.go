package oauth

import (
	"context"
	"errors"

	"github.com/dropDatabas3/littlejohn/internal/store/core"
	"github.com/dropDatabas3/littlejohn/internal/validation"
)

// Introspection es la vista read-only de un access token para el resource
// server (RFC 7662 reducido). El resource server juzga expiración y
// suficiencia de scope por su cuenta; acá solo se reporta el registro.
type Introspection struct {
	Active   bool   `json:"active"`
	ClientID string `json:"client_id,omitempty"`
	Sub      string `json:"sub,omitempty"`
	Scope    string `json:"scope,omitempty"`
	Exp      int64  `json:"exp,omitempty"`
}

// Introspect nunca falla hacia afuera: token desconocido o error de store
// es simplemente {"active": false}.
func (s *Service) Introspect(ctx context.Context, token string) Introspection {
	at, err := s.store.GetAccessToken(ctx, token)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			s.log.Error("introspect: token lookup failed")
		}
		return Introspection{Active: false}
	}
	return Introspection{
		Active:   s.now().Before(at.ExpiresAt),
		ClientID: at.ClientID,
		Sub:      at.UserSub,
		Scope:    validation.JoinScope(at.Scope),
		Exp:      at.ExpiresAt.Unix(),
	}
}
