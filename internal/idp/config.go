package idp

import "fmt"

// Config agrupa los parámetros del identity provider (estilo Cognito).
type Config struct {
	Region       string
	UserPoolID   string
	ClientID     string
	ClientSecret string // opcional: solo para app clients confidenciales
	Domain       string // dominio hosted del IdP, ej. https://auth.musclepoints.com
	RedirectURI  string

	// GroupsClaim es el nombre del claim con los grupos del usuario.
	// Default: "cognito:groups".
	GroupsClaim string
}

// Issuer deriva el issuer esperado de los tokens.
func (c Config) Issuer() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", c.Region, c.UserPoolID)
}

// JWKSURL es el endpoint público de claves de firma.
func (c Config) JWKSURL() string {
	return c.Issuer() + "/.well-known/jwks.json"
}

func (c Config) groupsClaim() string {
	if c.GroupsClaim != "" {
		return c.GroupsClaim
	}
	return "cognito:groups"
}
