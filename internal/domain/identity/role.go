package identity

import (
	"strings"

	"github.com/ecomt/storefront/internal/domain/shared"
)

// Role is the coarse permission level of a storefront account
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// AuthorityPrefix prefixes roles when they are carried as token authorities
const AuthorityPrefix = "ROLE_"

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// String returns the role name
func (r Role) String() string {
	return string(r)
}

// ParseRole accepts "admin", "ADMIN" or "ROLE_ADMIN" style input
func ParseRole(s string) (Role, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, AuthorityPrefix)
	r := Role(s)
	if !r.IsValid() {
		return "", shared.NewDomainError("INVALID_ROLE", "Role must be USER or ADMIN")
	}
	return r, nil
}

// Authority converts a role name into a token authority.
// An empty role maps to ROLE_USER and an already prefixed value is kept.
func Authority(role string) string {
	role = strings.TrimSpace(role)
	if role == "" {
		return AuthorityPrefix + string(RoleUser)
	}
	if strings.HasPrefix(role, AuthorityPrefix) {
		return role
	}
	return AuthorityPrefix + role
}

// RoleFromAuthority strips the authority prefix, defaulting to USER
func RoleFromAuthority(authority string) Role {
	r, err := ParseRole(authority)
	if err != nil {
		return RoleUser
	}
	return r
}
