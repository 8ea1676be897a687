package model

import "fmt"

// Role is the closed set of privileges a user can hold.
//
// The zero value is deliberately not a valid role, so a User whose privilege was
// never loaded cannot be mistaken for a mentee.
type Role int

const (
	RoleMentee Role = iota + 1
	RoleMentor
	RoleAdmin
)

// Roles lists every role in seeding order.
var Roles = []Role{RoleMentee, RoleMentor, RoleAdmin}

// ParseRole maps a privilege name as stored in the database (and as submitted by
// the registration form) to a Role. Matching is exact: "mentee" is rejected.
func ParseRole(name string) (Role, error) {
	switch name {
	case "Mentee":
		return RoleMentee, nil
	case "Mentor":
		return RoleMentor, nil
	case "Admin":
		return RoleAdmin, nil
	}
	return 0, fmt.Errorf("model: unknown privilege %q", name)
}

// String returns the privilege name stored in the privileges table.
func (r Role) String() string {
	switch r {
	case RoleMentee:
		return "Mentee"
	case RoleMentor:
		return "Mentor"
	case RoleAdmin:
		return "Admin"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// HomePath is where a successful login lands.
func (r Role) HomePath() string {
	switch r {
	case RoleMentee:
		return "/mentee"
	case RoleMentor:
		return "/mentor"
	case RoleAdmin:
		return "/admin"
	}
	return "/login"
}

// RegisterPath is the follow-up page after sign-up. Admin accounts cannot
// self-register, so RoleAdmin reports false.
func (r Role) RegisterPath() (string, bool) {
	switch r {
	case RoleMentee:
		return "/mentee-register", true
	case RoleMentor:
		return "/mentor-register", true
	}
	return "", false
}
