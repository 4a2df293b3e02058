package core

import "fmt"

// Role es el rol asignado a un usuario invitado.
type Role string

const (
	RoleAgent      Role = "Agent"
	RoleSupervisor Role = "Supervisor"
)

// roleRank define el orden parcial entre roles: un rol satisface a todos los
// de rango menor o igual. Supervisor ⊇ Agent. Agregar un rol nuevo es solo
// agregar una entrada acá, sin tocar los call sites.
var roleRank = map[Role]int{
	RoleAgent:      1,
	RoleSupervisor: 2,
}

// ParseRole valida y normaliza un rol recibido por la API.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: role %q", ErrInvalid, s)
	}
	return r, nil
}

// Valid indica si el rol es uno de los conocidos.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Satisfies indica si el rol r cumple el requisito `required`.
// Un Supervisor puede acceder a rutas que piden Agent; no al revés.
func (r Role) Satisfies(required Role) bool {
	rr, ok := roleRank[r]
	if !ok {
		return false
	}
	qr, ok := roleRank[required]
	if !ok {
		return false
	}
	return rr >= qr
}

func (r Role) String() string { return string(r) }
