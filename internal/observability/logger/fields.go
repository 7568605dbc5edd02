package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos estándar HTTP.

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }

func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }
func DurationMs(v int64) zap.Field       { return zap.Int64("duration_ms", v) }

// Campos estándar del protocolo.

func ClientID(v string) zap.Field  { return zap.String("client_id", v) }
func UserSub(v string) zap.Field   { return zap.String("sub", v) }
func GrantType(v string) zap.Field { return zap.String("grant_type", v) }
func ReqID(v string) zap.Field     { return zap.String("reqid", v) }

func Scope(v []string) zap.Field { return zap.Strings("scope", v) }
