package oauth

import "net/http"

// Códigos de error RFC 6749.
const (
	CodeInvalidClient           = "invalid_client"
	CodeInvalidGrant            = "invalid_grant"
	CodeInvalidScope            = "invalid_scope"
	CodeInvalidRequest          = "invalid_request"
	CodeAccessDenied            = "access_denied"
	CodeUnsupportedGrantType    = "unsupported_grant_type"
	CodeUnsupportedResponseType = "unsupported_response_type"
	CodeServerError             = "server_error"
)

// Error es un error de protocolo del token endpoint: se serializa como
// {"error": "<code>"} con el status indicado. Ninguna excepción cruza el
// límite del protocolo sin mapearse a uno de estos.
type Error struct {
	Status int
	Code   string
	Desc   string
}

func (e *Error) Error() string { return e.Code }

func errInvalidClient(desc string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeInvalidClient, Desc: desc}
}

func errInvalidGrant(status int, desc string) *Error {
	return &Error{Status: status, Code: CodeInvalidGrant, Desc: desc}
}

func errInvalidScope(desc string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeInvalidScope, Desc: desc}
}

func errServer(desc string) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeServerError, Desc: desc}
}
