package core

import "context"

// Repository es el entity store del protocolo. Todo el estado entre
// requests HTTP vive acá; los handlers solo toman referencias durante un
// ciclo de request y nunca las cachean.
//
// Los Consume* son atómicos (find-and-delete en una sola operación): dos
// canjes concurrentes del mismo registro single-use no pueden tener éxito
// los dos.
type Repository interface {
	Ping(ctx context.Context) error
	Close()

	// Registro de clients y users (seed out-of-band, lectura durante el protocolo).
	CreateClient(ctx context.Context, c *Client) error
	GetClientByClientID(ctx context.Context, clientID string) (*Client, error)
	CreateUser(ctx context.Context, u *User) error
	GetUserBySub(ctx context.Context, sub string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// Autorizaciones pendientes (single-use).
	CreateAuthRequest(ctx context.Context, r *AuthRequest) error
	ConsumeAuthRequest(ctx context.Context, reqID string) (*AuthRequest, error)

	// Authorization codes (single-use, TTL corto). Claves por hash del code.
	CreateAuthorizationCode(ctx context.Context, c *AuthorizationCode) error
	ConsumeAuthorizationCode(ctx context.Context, codeHash string) (*AuthorizationCode, error)

	// Access tokens: solo se crean y se leen, nunca se actualizan.
	CreateAccessToken(ctx context.Context, t *AccessToken) error
	GetAccessToken(ctx context.Context, token string) (*AccessToken, error)

	// Refresh tokens: unicidad por (client, user) garantizada por el storage
	// (ErrConflict si ya existe uno para el par).
	CreateRefreshToken(ctx context.Context, t *RefreshToken) error
	GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	GetRefreshTokenForPair(ctx context.Context, clientID, userSub string) (*RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
}
