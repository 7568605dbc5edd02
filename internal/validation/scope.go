package validation

import (
	"regexp"
	"strings"
)

// Scope name rules:
// - Lowercase only.
// - Start and end with [a-z0-9].
// - Middle chars may include [a-z0-9:_.-].
// - Length 1..64.
// - Excludes semicolon and whitespace explicitly.
var scopeNameRe = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9:_\.-]{0,62}[a-z0-9])?$`)

// ValidScopeName returns true if the provided scope name matches the allowed pattern.
func ValidScopeName(name string) bool {
	return scopeNameRe.MatchString(name)
}

// ParseScope convierte el formato wire (space-delimited) en lista.
// Scope vacío es la lista vacía, nunca nil-vs-null en el JSON de salida.
func ParseScope(s string) []string {
	return strings.Fields(s)
}

// JoinScope es la inversa de ParseScope.
func JoinScope(scope []string) string {
	return strings.Join(scope, " ")
}

// Disallowed devuelve requested − allowed preservando el orden de requested.
// Lista vacía significa "permitido"; un requested vacío siempre es válido.
// Un scope sintácticamente inválido cuenta como no permitido.
func Disallowed(requested, allowed []string) []string {
	var out []string
	for _, s := range requested {
		if !ValidScopeName(s) {
			out = append(out, s)
			continue
		}
		found := false
		for _, a := range allowed {
			if s == a {
				found = true
				break
			}
		}
		if !found {
			out = append(out, s)
		}
	}
	return out
}
