package helpers

import "net/http"

// CookieOptions son los atributos compartidos entre emisión y borrado de la
// cookie de sesión. Emisión y borrado DEBEN usar exactamente los mismos
// atributos: si difieren, el browser las trata como cookies distintas y el
// borrado no surte efecto.
type CookieOptions struct {
	Name     string
	Domain   string
	Path     string
	Secure   bool
	SameSite http.SameSite
}

// ParseSameSite traduce el valor de configuración al modo del stdlib.
func ParseSameSite(s string) http.SameSite {
	switch s {
	case "Strict", "strict":
		return http.SameSiteStrictMode
	case "None", "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// BuildCookie arma la cookie de sesión con el token y su vida útil.
func BuildCookie(opts CookieOptions, value string, maxAge int) *http.Cookie {
	path := opts.Path
	if path == "" {
		path = "/"
	}
	return &http.Cookie{
		Name:     opts.Name,
		Value:    value,
		Path:     path,
		Domain:   opts.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	}
}

// BuildDeletionCookie arma la cookie que elimina la sesión. Mismos atributos
// que BuildCookie, valor vacío y MaxAge -1.
func BuildDeletionCookie(opts CookieOptions) *http.Cookie {
	c := BuildCookie(opts, "", -1)
	return c
}
