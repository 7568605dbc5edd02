package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/littlejohn/internal/store/core"
	gocache "github.com/patrickmn/go-cache"
)

// Store implementa core.Repository en memoria. Útil para desarrollo,
// testing y despliegues single-node sin postgres.
//
// Los registros con TTL (authorization codes, access tokens) viven en
// go-cache con expiración por ítem; el resto en maps. El mutex externo
// serializa los consume (find-and-delete atómico) y la unicidad de
// refresh tokens por par (client, user).
type Store struct {
	mu       sync.Mutex
	clients  map[string]*core.Client
	users    map[string]*core.User // por sub
	byUser   map[string]string     // username -> sub
	requests map[string]*core.AuthRequest
	refresh  map[string]*core.RefreshToken // por token
	byPair   map[string]string             // clientID+"\x00"+sub -> token

	codes  *gocache.Cache // codeHash -> *core.AuthorizationCode
	access *gocache.Cache // token -> *core.AccessToken
}

func New() *Store {
	return &Store{
		clients:  make(map[string]*core.Client),
		users:    make(map[string]*core.User),
		byUser:   make(map[string]string),
		requests: make(map[string]*core.AuthRequest),
		refresh:  make(map[string]*core.RefreshToken),
		byPair:   make(map[string]string),
		codes:    gocache.New(gocache.NoExpiration, time.Minute),
		access:   gocache.New(gocache.NoExpiration, 5*time.Minute),
	}
}

func pairKey(clientID, sub string) string { return clientID + "\x00" + sub }

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close()                         {}

func (s *Store) CreateClient(ctx context.Context, c *core.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.ClientID]; ok {
		return core.ErrConflict
	}
	cp := *c
	s.clients[c.ClientID] = &cp
	return nil
}

func (s *Store) GetClientByClientID(ctx context.Context, clientID string) (*core.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Sub]; ok {
		return core.ErrConflict
	}
	cp := *u
	s.users[u.Sub] = &cp
	if u.Username != "" {
		s.byUser[u.Username] = u.Sub
	}
	return nil
}

func (s *Store) GetUserBySub(ctx context.Context, sub string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[sub]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.byUser[username]
	if !ok {
		return nil, core.ErrNotFound
	}
	u, ok := s.users[sub]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) CreateAuthRequest(ctx context.Context, r *core.AuthRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[r.ReqID]; ok {
		return core.ErrConflict
	}
	cp := *r
	s.requests[r.ReqID] = &cp
	return nil
}

// ConsumeAuthRequest borra y devuelve en una sola sección crítica:
// dos /approve concurrentes con el mismo reqid no pueden ganar ambos.
func (s *Store) ConsumeAuthRequest(ctx context.Context, reqID string) (*core.AuthRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[reqID]
	if !ok {
		return nil, core.ErrNotFound
	}
	delete(s.requests, reqID)
	return r, nil
}

func (s *Store) CreateAuthorizationCode(ctx context.Context, c *core.AuthorizationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ttl := time.Until(c.ExpiresAt)
	if ttl <= 0 {
		return core.ErrInvalid
	}
	cp := *c
	s.codes.Set(c.CodeHash, &cp, ttl)
	return nil
}

func (s *Store) ConsumeAuthorizationCode(ctx context.Context, codeHash string) (*core.AuthorizationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.codes.Get(codeHash)
	if !ok {
		return nil, core.ErrNotFound
	}
	s.codes.Delete(codeHash)
	cp := *(v.(*core.AuthorizationCode))
	return &cp, nil
}

func (s *Store) CreateAccessToken(ctx context.Context, t *core.AccessToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	// La expiración la juzga el consumidor (lazy); go-cache solo evita
	// acumular tokens muertos indefinidamente.
	s.access.Set(t.Token, &cp, time.Until(t.ExpiresAt)+time.Minute)
	return nil
}

func (s *Store) GetAccessToken(ctx context.Context, token string) (*core.AccessToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.access.Get(token)
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *(v.(*core.AccessToken))
	return &cp, nil
}

func (s *Store) CreateRefreshToken(ctx context.Context, t *core.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pk := pairKey(t.ClientID, t.UserSub)
	if _, ok := s.byPair[pk]; ok {
		return core.ErrConflict
	}
	cp := *t
	s.refresh[t.Token] = &cp
	s.byPair[pk] = t.Token
	return nil
}

func (s *Store) GetRefreshToken(ctx context.Context, token string) (*core.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.refresh[token]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *rt
	return &cp, nil
}

func (s *Store) GetRefreshTokenForPair(ctx context.Context, clientID, userSub string) (*core.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.byPair[pairKey(clientID, userSub)]
	if !ok {
		return nil, core.ErrNotFound
	}
	rt, ok := s.refresh[token]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *rt
	return &cp, nil
}

func (s *Store) DeleteRefreshToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.refresh[token]
	if !ok {
		return core.ErrNotFound
	}
	delete(s.refresh, token)
	delete(s.byPair, pairKey(rt.ClientID, rt.UserSub))
	return nil
}
