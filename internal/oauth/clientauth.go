package oauth

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/url"
	"strings"

	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/store/core"
	"go.uber.org/zap"
)

// Authenticator resuelve y verifica la identidad de un client a partir del
// header Authorization (Basic) o de credenciales en el body. Nunca mezcla
// los dos: credenciales por ambas vías es autenticación ambigua y se
// rechaza de plano.
type Authenticator struct {
	store core.Repository
	log   *zap.Logger
}

func NewAuthenticator(store core.Repository) *Authenticator {
	return &Authenticator{store: store, log: logger.Named("clientauth")}
}

// Authenticate no muta estado: es un lookup más una comparación de secret
// en tiempo constante.
func (a *Authenticator) Authenticate(ctx context.Context, authHeader, bodyID, bodySecret string) (*core.Client, *Error) {
	clientID, clientSecret, hasHeader, err := decodeBasicAuth(authHeader)
	if err != nil {
		a.log.Debug("malformed basic auth header", zap.Error(err))
		return nil, errInvalidClient("malformed client authentication")
	}

	if hasHeader && (bodyID != "" || bodySecret != "") {
		a.log.Warn("client attempted to authenticate with multiple methods",
			logger.ClientID(clientID))
		return nil, errInvalidClient("multiple authentication methods")
	}
	if !hasHeader {
		clientID, clientSecret = bodyID, bodySecret
	}
	if clientID == "" {
		return nil, errInvalidClient("no client authentication")
	}

	cl, err := a.store.GetClientByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			a.log.Info("unknown client", logger.ClientID(clientID))
			return nil, errInvalidClient("unknown client")
		}
		return nil, errServer("client lookup failed")
	}
	if subtle.ConstantTimeCompare([]byte(clientSecret), []byte(cl.ClientSecret)) != 1 {
		a.log.Info("client secret mismatch", logger.ClientID(clientID))
		return nil, errInvalidClient("client secret mismatch")
	}
	return cl, nil
}

// decodeBasicAuth: base64-decode, split único en ':' y percent-decode de
// cada mitad por separado (los secrets con ':' o '%' viajan escapados).
func decodeBasicAuth(header string) (id, secret string, ok bool, err error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", "", false, nil
	}
	const prefix = "basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false, errors.New("not basic auth")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return "", "", true, err
	}
	idPart, secretPart, found := strings.Cut(string(raw), ":")
	if !found {
		return "", "", true, errors.New("missing secret separator")
	}
	id, err = url.QueryUnescape(idPart)
	if err != nil {
		return "", "", true, err
	}
	secret, err = url.QueryUnescape(secretPart)
	if err != nil {
		return "", "", true, err
	}
	return id, secret, true, nil
}
