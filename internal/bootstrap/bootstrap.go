package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/littlejohn/internal/config"
	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/security/password"
	"github.com/dropDatabas3/littlejohn/internal/store/core"
	"github.com/dropDatabas3/littlejohn/internal/store/memory"
	"github.com/dropDatabas3/littlejohn/internal/store/pg"
	"go.uber.org/zap"
)

// BuildStore instancia el repositorio según storage.driver.
func BuildStore(ctx context.Context, cfg *config.Config) (core.Repository, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return memory.New(), nil
	case "postgres":
		var lifetime time.Duration
		if s := cfg.Storage.Postgres.ConnMaxLifetime; s != "" {
			d, err := time.ParseDuration(s)
			if err != nil {
				return nil, fmt.Errorf("storage: conn_max_lifetime inválido: %w", err)
			}
			lifetime = d
		}
		return pg.New(ctx, cfg.Storage.DSN, pg.Config{
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			MinConns:        cfg.Storage.Postgres.MinConns,
			ConnMaxLifetime: lifetime,
		})
	default:
		return nil, fmt.Errorf("storage: driver desconocido %q", cfg.Storage.Driver)
	}
}

// Seed carga en el store los clients y usuarios declarados en la config.
// Idempotente: los que ya existen se saltean (ErrConflict no es error acá).
func Seed(ctx context.Context, store core.Repository, cfg *config.Config) error {
	log := logger.Named("seed")

	for _, sc := range cfg.Clients {
		if sc.ClientID == "" {
			return errors.New("seed: client sin client_id")
		}
		cl := &core.Client{
			ClientID:     sc.ClientID,
			ClientSecret: sc.ClientSecret,
			Name:         sc.Name,
			Scope:        sc.Scope,
			RedirectURIs: sc.RedirectURIs,
		}
		err := store.CreateClient(ctx, cl)
		switch {
		case err == nil:
			log.Info("client registered", logger.ClientID(sc.ClientID), logger.Scope(sc.Scope))
		case errors.Is(err, core.ErrConflict):
			log.Debug("client already present", logger.ClientID(sc.ClientID))
		default:
			return fmt.Errorf("seed client %s: %w", sc.ClientID, err)
		}
	}

	for _, su := range cfg.Users {
		if su.Sub == "" {
			return errors.New("seed: user sin sub")
		}
		u := &core.User{
			Sub:      su.Sub,
			Name:     su.Name,
			Email:    su.Email,
			Username: su.Username,
		}
		if su.Password != "" {
			h, err := password.Hash(password.Default, su.Password)
			if err != nil {
				return fmt.Errorf("seed user %s: hash: %w", su.Sub, err)
			}
			u.PasswordHash = &h
		}
		err := store.CreateUser(ctx, u)
		switch {
		case err == nil:
			log.Info("user registered", logger.UserSub(su.Sub), zap.String("username", su.Username))
		case errors.Is(err, core.ErrConflict):
			log.Debug("user already present", logger.UserSub(su.Sub))
		default:
			return fmt.Errorf("seed user %s: %w", su.Sub, err)
		}
	}
	return nil
}
