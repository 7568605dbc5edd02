package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			MinConns        int    `yaml:"min_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Tokens struct {
		CodeTTL   string `yaml:"code_ttl"`
		AccessTTL string `yaml:"access_ttl"`
	} `yaml:"tokens"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`
		// memory | redis
		Backend string `yaml:"backend"`
		Redis   struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"rate"`

	// Registro estático de clients y usuarios: con driver memory se cargan
	// al arrancar; con postgres los usa el subcomando seed.
	Clients []SeedClient `yaml:"clients"`
	Users   []SeedUser   `yaml:"users"`
}

// SeedClient es un client registrado vía config.
type SeedClient struct {
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Name         string   `yaml:"name"`
	Scope        []string `yaml:"scope"`
	RedirectURIs []string `yaml:"redirect_uris"`
}

// SeedUser es un resource owner registrado vía config. Password en texto
// plano solo acá: se hashea (argon2id) antes de persistir.
type SeedUser struct {
	Sub      string `yaml:"sub"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Tokens.CodeTTL == "" {
		c.Tokens.CodeTTL = "30s"
	}
	if c.Tokens.AccessTTL == "" {
		c.Tokens.AccessTTL = "2m"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}
	if c.Rate.Backend == "" {
		c.Rate.Backend = "memory"
	}
	if c.Rate.Redis.Prefix == "" {
		c.Rate.Redis.Prefix = "littlejohn:rl"
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("TOKENS_CODE_TTL"); ok {
		c.Tokens.CodeTTL = v
	}
	if v, ok := getEnvStr("TOKENS_ACCESS_TTL"); ok {
		c.Tokens.AccessTTL = v
	}
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvStr("RATE_BACKEND"); ok {
		c.Rate.Backend = v
	}
	if v, ok := getEnvStr("RATE_REDIS_ADDR"); ok {
		c.Rate.Redis.Addr = v
	}
	if v, ok := getEnvInt("RATE_REDIS_DB"); ok {
		c.Rate.Redis.DB = v
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage: driver postgres requiere dsn")
		}
	default:
		return fmt.Errorf("storage: driver desconocido %q", c.Storage.Driver)
	}
	switch c.Rate.Backend {
	case "memory":
	case "redis":
		if c.Rate.Enabled && c.Rate.Redis.Addr == "" {
			return fmt.Errorf("rate: backend redis requiere addr")
		}
	default:
		return fmt.Errorf("rate: backend desconocido %q", c.Rate.Backend)
	}
	if _, err := time.ParseDuration(c.Tokens.CodeTTL); err != nil {
		return fmt.Errorf("tokens: code_ttl inválido: %w", err)
	}
	if _, err := time.ParseDuration(c.Tokens.AccessTTL); err != nil {
		return fmt.Errorf("tokens: access_ttl inválido: %w", err)
	}
	if _, err := time.ParseDuration(c.Rate.Window); err != nil {
		return fmt.Errorf("rate: window inválido: %w", err)
	}
	return nil
}

// CodeTTL parsea Tokens.CodeTTL (ya validado en Load).
func (c *Config) CodeTTL() time.Duration {
	d, _ := time.ParseDuration(c.Tokens.CodeTTL)
	return d
}

// AccessTTL parsea Tokens.AccessTTL (ya validado en Load).
func (c *Config) AccessTTL() time.Duration {
	d, _ := time.ParseDuration(c.Tokens.AccessTTL)
	return d
}

// RateWindow parsea Rate.Window (ya validado en Load).
func (c *Config) RateWindow() time.Duration {
	d, _ := time.ParseDuration(c.Rate.Window)
	return d
}
