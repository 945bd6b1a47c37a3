package config

import "fmt"

// Role is the deployment position of a node.
type Role string

const (
	RolePrimary Role = "primary"
	RoleReplica Role = "replica"
	RoleSingle  Role = "single"
)

// AllRoles lists every role in generation order.
var AllRoles = []Role{RolePrimary, RoleReplica, RoleSingle}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RolePrimary, RoleReplica, RoleSingle:
		return true
	}
	return false
}

// ParseRole converts a flag value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q (expected primary, replica, or single)", s)
	}
	return r, nil
}
