package profile

import "fmt"

// Role is the single authorization axis of the application. It is a closed
// set: every switch over Role handles all three values explicitly.
type Role uint8

// The zero Role is deliberately invalid: a forgotten role must never grant
// anything, least of all admin.
const (
	RoleAdmin Role = iota + 1
	RoleEmployer
	RoleEmployee
)

const (
	roleAdmin    = "admin"
	roleEmployer = "employer"
	roleEmployee = "employee"
)

// String returns the wire representation of the role.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return roleAdmin
	case RoleEmployer:
		return roleEmployer
	case RoleEmployee:
		return roleEmployee
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployer, RoleEmployee:
		return true
	}
	return false
}

// ParseRole converts a stored or user-supplied role string into a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case roleAdmin:
		return RoleAdmin, nil
	case roleEmployer:
		return RoleEmployer, nil
	case roleEmployee:
		return RoleEmployee, nil
	}
	return 0, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
}

// MarshalText implements encoding.TextMarshaler so roles serialize as their
// wire names in JSON payloads.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: role %d", ErrInvalidInput, uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
