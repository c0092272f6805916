package models

import "strings"

// Role is assigned once at identity creation and never mutated by medauth.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleClinic  Role = "clinic"
)

// ParseRole accepts only known roles; anything else, including an empty
// string, resolves to the least privileged role.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleDoctor:
		return RoleDoctor
	case RoleClinic:
		return RoleClinic
	default:
		return RolePatient
	}
}
