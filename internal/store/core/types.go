package core

import "time"

// Client es un cliente OAuth registrado out-of-band (seed/admin).
// Inmutable durante la ejecución del protocolo.
type Client struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Name         string   `json:"name,omitempty"`
	Scope        []string `json:"scope"`
	RedirectURIs []string `json:"redirect_uris"`
}

// HasRedirectURI compara por string exacto (binding de redirect URI).
func (c *Client) HasRedirectURI(uri string) bool {
	for _, ru := range c.RedirectURIs {
		if ru == uri {
			return true
		}
	}
	return false
}

// User es un resource owner. Username/PasswordHash solo existen si el
// tenant soporta el password grant.
type User struct {
	Sub          string  `json:"sub"`
	Name         string  `json:"name,omitempty"`
	Email        string  `json:"email,omitempty"`
	Username     string  `json:"username,omitempty"`
	PasswordHash *string `json:"-"`
}

// AuthRequest es una autorización pendiente de consentimiento.
// Single-use: se consume (y destruye) exactamente una vez en /approve.
type AuthRequest struct {
	ReqID        string    `json:"reqid"`
	ClientID     string    `json:"client_id"`
	State        string    `json:"state"`
	ResponseType string    `json:"response_type"`
	Scope        []string  `json:"scope"`
	RedirectURI  string    `json:"redirect_uri"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthorizationCode es un code de autorización pendiente de canje.
// Se guarda el hash del code, nunca el valor (igual que los codes OIDC).
// Single-use: el token endpoint lo consume exactamente una vez.
type AuthorizationCode struct {
	CodeHash    string    `json:"code_hash"`
	ClientID    string    `json:"client_id"`
	UserSub     string    `json:"user_sub"`
	Scope       []string  `json:"scope"`
	State       string    `json:"state,omitempty"`
	RedirectURI string    `json:"redirect_uri,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AccessToken es un bearer token opaco. El resource server lo valida
// leyendo este registro (lookup directo o vía /oauth/introspect) y juzga
// expiración y suficiencia de scope por su cuenta.
type AccessToken struct {
	Token     string    `json:"token"`
	ClientID  string    `json:"client_id"`
	UserSub   string    `json:"user_sub,omitempty"` // vacío en client_credentials
	TokenType string    `json:"token_type"`
	Scope     []string  `json:"scope"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RefreshToken es único por par (client, user). Sin expiración propia:
// vive hasta rotación por cambio de scope o revocación por anomalía.
type RefreshToken struct {
	Token    string    `json:"token"`
	ClientID string    `json:"client_id"`
	UserSub  string    `json:"user_sub"`
	Scope    []string  `json:"scope"`
	IssuedAt time.Time `json:"issued_at"`
}
