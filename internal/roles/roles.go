package roles

import (
	"fmt"
	"strings"
)

// Role is the privilege level of an authenticated user
type Role string

const (
	// Operator is the baseline role
	Operator Role = "operator"
	// Admin is the elevated role; it passes every requirement
	Admin Role = "admin"
)

// All returns the known roles, lowest privilege first
func All() []Role {
	return []Role{Operator, Admin}
}

// Parse converts a stored or user-typed role name to a Role
func Parse(name string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(name))) {
	case Operator:
		return Operator, nil
	case Admin:
		return Admin, nil
	}
	return "", fmt.Errorf("unknown role %q (expected %q or %q)", name, Operator, Admin)
}

// Allows reports whether role satisfies required.
// The elevated role always passes; the baseline role only passes a baseline requirement.
func Allows(role, required Role) bool {
	if role == Admin {
		return true
	}
	return role == Operator && required == Operator
}

func (r Role) String() string {
	return string(r)
}
