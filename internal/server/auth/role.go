package auth

import (
	"fmt"
	"strings"
)

// Role is the authorization level embedded in an access token.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole maps a stored or presented role string onto a known Role,
// case-insensitively. Unknown values are an error rather than a silent
// downgrade.
func ParseRole(value string) (Role, error) {
	switch strings.ToUpper(value) {
	case string(RoleUser):
		return RoleUser, nil
	case string(RoleAdmin):
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

func (r Role) String() string {
	return string(r)
}
