package app

import (
	"github.com/dropDatabas3/littlejohn/internal/oauth"
	"github.com/dropDatabas3/littlejohn/internal/store/core"
)

// Container agrupa las dependencias que reciben los handlers. Todo
// explícito, nada process-wide.
type Container struct {
	Store core.Repository
	OAuth *oauth.Service
	Auth  *oauth.Authenticator
}
