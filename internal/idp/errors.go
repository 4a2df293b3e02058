package idp

import "errors"

// Errores de verificación. El gate los colapsa todos en "token inválido"
// hacia el cliente; acá se distinguen para logs y tests.
var (
	ErrKeyNotFound      = errors.New("idp: jwks key not found")
	ErrUnknownKey       = errors.New("idp: unknown signing key")
	ErrMalformedToken   = errors.New("idp: malformed token")
	ErrBadSignature     = errors.New("idp: bad signature")
	ErrIssuerMismatch   = errors.New("idp: issuer mismatch")
	ErrAudienceMismatch = errors.New("idp: audience mismatch")
	ErrTokenExpired     = errors.New("idp: token expired")
)
