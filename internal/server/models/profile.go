package models

import "time"

// Profile is the application-level row created asynchronously from a new
// identity. ID equals the identity ID.
type Profile struct {
	ID         string
	Email      string
	FirstName  string
	LastName   string
	Phone      string
	Country    string
	Role       Role
	AuthMethod AuthMethod
	CreatedAt  time.Time
}

// ProfileUpdate lists the user-editable fields. Nil pointers are left as is.
// Role is deliberately absent.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Country   *string
}

// Empty reports whether the update would change nothing.
func (u ProfileUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Phone == nil && u.Country == nil
}
