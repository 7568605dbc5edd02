package oauth

import (
	"time"

	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/store/core"
	"go.uber.org/zap"
)

// Config son los TTLs del protocolo. Sin singletons: el registro de
// clients vive en el store y la config llega explícita al construir.
type Config struct {
	// CodeTTL es la vida de un authorization code. Corto a propósito.
	CodeTTL time.Duration
	// AccessTokenTTL es la vida de un access token. Corto a propósito
	// para ejercitar el refresh flow.
	AccessTokenTTL time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.CodeTTL <= 0 {
		out.CodeTTL = 30 * time.Second
	}
	if out.AccessTokenTTL <= 0 {
		out.AccessTokenTTL = 2 * time.Minute
	}
	return out
}

// Service es la máquina de estados del protocolo: authorize, approve,
// token y el issuer compartido. Stateless entre requests HTTP; todo el
// estado cross-request vive en el Repository.
type Service struct {
	store core.Repository
	cfg   Config
	log   *zap.Logger
	now   func() time.Time
}

func NewService(store core.Repository, cfg Config) *Service {
	return &Service{
		store: store,
		cfg:   cfg.withDefaults(),
		log:   logger.Named("oauth"),
		now:   time.Now,
	}
}
