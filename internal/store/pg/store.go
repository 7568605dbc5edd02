package pg

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/store/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Store struct{ pool *pgxpool.Pool }

type Config struct {
	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
}

func New(ctx context.Context, dsn string, cfg Config) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = int32(cfg.MinConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.ConnMaxLifetime
		pcfg.MaxConnIdleTime = cfg.ConnMaxLifetime
	}
	if pcfg.MaxConns == 0 {
		pcfg.MaxConns = 8
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	// Arranque no bloqueante: si la DB está caída igual levantamos.
	if err := pool.Ping(ctx); err != nil {
		logger.Named("pg").Warn("startup ping failed", zap.Error(err))
	} else {
		logger.Named("pg").Info("pool ready", zap.Int32("max_conns", pcfg.MaxConns))
	}

	return &Store{pool: pool}, nil
}

// Pool expone el pool interno (metrics/migraciones).
func (s *Store) Pool() *pgxpool.Pool {
	if s == nil {
		return nil
	}
	return s.pool
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Store) CreateClient(ctx context.Context, c *core.Client) error {
	const q = `
INSERT INTO client (client_id, client_secret, name, scope, redirect_uris)
VALUES ($1, $2, $3, $4, $5)`
	_, err := s.pool.Exec(ctx, q, c.ClientID, c.ClientSecret, c.Name, c.Scope, c.RedirectURIs)
	if isUniqueViolation(err) {
		return core.ErrConflict
	}
	return err
}

func (s *Store) GetClientByClientID(ctx context.Context, clientID string) (*core.Client, error) {
	const q = `
SELECT client_id, client_secret, name, scope, redirect_uris
FROM client
WHERE client_id = $1
LIMIT 1`
	var c core.Client
	err := s.pool.QueryRow(ctx, q, clientID).
		Scan(&c.ClientID, &c.ClientSecret, &c.Name, &c.Scope, &c.RedirectURIs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	const q = `
INSERT INTO app_user (sub, name, email, username, password_hash)
VALUES ($1, $2, $3, NULLIF($4, ''), $5)`
	_, err := s.pool.Exec(ctx, q, u.Sub, u.Name, u.Email, u.Username, u.PasswordHash)
	if isUniqueViolation(err) {
		return core.ErrConflict
	}
	return err
}

func (s *Store) GetUserBySub(ctx context.Context, sub string) (*core.User, error) {
	const q = `
SELECT sub, name, email, COALESCE(username, ''), password_hash
FROM app_user
WHERE sub = $1
LIMIT 1`
	return s.scanUser(s.pool.QueryRow(ctx, q, sub))
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	const q = `
SELECT sub, name, email, COALESCE(username, ''), password_hash
FROM app_user
WHERE username = $1
LIMIT 1`
	return s.scanUser(s.pool.QueryRow(ctx, q, username))
}

func (s *Store) scanUser(row pgx.Row) (*core.User, error) {
	var u core.User
	err := row.Scan(&u.Sub, &u.Name, &u.Email, &u.Username, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateAuthRequest(ctx context.Context, r *core.AuthRequest) error {
	const q = `
INSERT INTO auth_request (reqid, client_id, state, response_type, scope, redirect_uri, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.pool.Exec(ctx, q, r.ReqID, r.ClientID, r.State, r.ResponseType, r.Scope, r.RedirectURI, r.CreatedAt)
	if isUniqueViolation(err) {
		return core.ErrConflict
	}
	return err
}

// ConsumeAuthRequest: DELETE ... RETURNING es el find-and-delete atómico;
// de dos /approve concurrentes con el mismo reqid solo uno recibe la fila.
func (s *Store) ConsumeAuthRequest(ctx context.Context, reqID string) (*core.AuthRequest, error) {
	const q = `
DELETE FROM auth_request
WHERE reqid = $1
RETURNING reqid, client_id, state, response_type, scope, redirect_uri, created_at`
	var r core.AuthRequest
	err := s.pool.QueryRow(ctx, q, reqID).
		Scan(&r.ReqID, &r.ClientID, &r.State, &r.ResponseType, &r.Scope, &r.RedirectURI, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) CreateAuthorizationCode(ctx context.Context, c *core.AuthorizationCode) error {
	const q = `
INSERT INTO authorization_code (code_hash, client_id, user_sub, scope, state, redirect_uri, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.pool.Exec(ctx, q, c.CodeHash, c.ClientID, c.UserSub, c.Scope, c.State, c.RedirectURI, c.ExpiresAt)
	if isUniqueViolation(err) {
		return core.ErrConflict
	}
	return err
}

func (s *Store) ConsumeAuthorizationCode(ctx context.Context, codeHash string) (*core.AuthorizationCode, error) {
	const q = `
DELETE FROM authorization_code
WHERE code_hash = $1
RETURNING code_hash, client_id, user_sub, scope, state, redirect_uri, expires_at`
	var c core.AuthorizationCode
	err := s.pool.QueryRow(ctx, q, codeHash).
		Scan(&c.CodeHash, &c.ClientID, &c.UserSub, &c.Scope, &c.State, &c.RedirectURI, &c.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateAccessToken(ctx context.Context, t *core.AccessToken) error {
	const q = `
INSERT INTO access_token (token, client_id, user_sub, token_type, scope, expires_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	// user_sub NULL en client_credentials
	_, err := s.pool.Exec(ctx, q, t.Token, t.ClientID, nullIfEmpty(t.UserSub), t.TokenType, t.Scope, t.ExpiresAt)
	if isUniqueViolation(err) {
		return core.ErrConflict
	}
	return err
}

func (s *Store) GetAccessToken(ctx context.Context, token string) (*core.AccessToken, error) {
	const q = `
SELECT token, client_id, COALESCE(user_sub, ''), token_type, scope, expires_at
FROM access_token
WHERE token = $1
LIMIT 1`
	var t core.AccessToken
	err := s.pool.QueryRow(ctx, q, token).
		Scan(&t.Token, &t.ClientID, &t.UserSub, &t.TokenType, &t.Scope, &t.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) CreateRefreshToken(ctx context.Context, t *core.RefreshToken) error {
	const q = `
INSERT INTO refresh_token (token, client_id, user_sub, scope, issued_at)
VALUES ($1, $2, $3, $4, $5)`
	// El índice único (client_id, user_sub) hace cumplir la unicidad por par
	// a nivel storage, no solo en la lógica del issuer.
	_, err := s.pool.Exec(ctx, q, t.Token, t.ClientID, t.UserSub, t.Scope, t.IssuedAt)
	if isUniqueViolation(err) {
		return core.ErrConflict
	}
	return err
}

func (s *Store) GetRefreshToken(ctx context.Context, token string) (*core.RefreshToken, error) {
	const q = `
SELECT token, client_id, user_sub, scope, issued_at
FROM refresh_token
WHERE token = $1
LIMIT 1`
	return s.scanRefresh(s.pool.QueryRow(ctx, q, token))
}

func (s *Store) GetRefreshTokenForPair(ctx context.Context, clientID, userSub string) (*core.RefreshToken, error) {
	const q = `
SELECT token, client_id, user_sub, scope, issued_at
FROM refresh_token
WHERE client_id = $1 AND user_sub = $2
LIMIT 1`
	return s.scanRefresh(s.pool.QueryRow(ctx, q, clientID, userSub))
}

func (s *Store) scanRefresh(row pgx.Row) (*core.RefreshToken, error) {
	var t core.RefreshToken
	err := row.Scan(&t.Token, &t.ClientID, &t.UserSub, &t.Scope, &t.IssuedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) DeleteRefreshToken(ctx context.Context, token string) error {
	const q = `DELETE FROM refresh_token WHERE token = $1`
	ct, err := s.pool.Exec(ctx, q, token)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
