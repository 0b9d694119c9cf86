package model

import "strings"

type Role string

const (
	RoleUnknown    Role = ""
	RoleStudent    Role = "student"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

// ParseRole maps a backend role string onto the closed set of portal roles.
// Anything unrecognised becomes RoleUnknown.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleStudent:
		return RoleStudent
	case RoleSupervisor:
		return RoleSupervisor
	case RoleAdmin:
		return RoleAdmin
	}
	return RoleUnknown
}

func (r Role) Valid() bool {
	return r.DashboardPath() != "/"
}

// DashboardPath is where a user with this role lands after login.
func (r Role) DashboardPath() string {
	switch r {
	case RoleStudent:
		return "/student"
	case RoleSupervisor:
		return "/supervisor"
	case RoleAdmin:
		return "/admin"
	case RoleUnknown:
		return "/"
	}
	return "/"
}

func (r Role) String() string {
	if r == RoleUnknown {
		return "unknown"
	}
	return string(r)
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r), nil
}

// UnmarshalText lets the role decode straight from the profile payload.
func (r *Role) UnmarshalText(b []byte) error {
	*r = ParseRole(string(b))
	return nil
}
