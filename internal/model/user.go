// Package model defines the data structures used throughout the application.
package model

import (
	"strings"
	"time"
)

// Role is the closed set of roles a user presents as.
type Role string

const (
	RoleMan   Role = "man"
	RoleWoman Role = "woman"
)

// Gender is the closed set of genders a user can declare or be interested in.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// User is a registered account and its profile.
//
// PasswordHash carries `json:"-"` so that even an accidental
// json.Marshal(user) never leaks it. Handlers still respond with one of the
// explicit views below rather than the raw struct.
type User struct {
	ID                  string    `json:"id"                    db:"id"`
	Name                string    `json:"name"                  db:"name"`
	Nickname            string    `json:"nickname"              db:"nickname"`
	Email               string    `json:"email"                 db:"email"`
	PasswordHash        string    `json:"-"                     db:"password_hash"`
	Role                Role      `json:"role"                  db:"role"`
	AvatarURL           string    `json:"avatar_url"            db:"avatar_url"`
	Bio                 string    `json:"bio"                   db:"bio"`
	Location            string    `json:"location"              db:"location"`
	Birthday            time.Time `json:"birthday"              db:"birthday"`
	Gender              Gender    `json:"gender"                db:"gender"`
	IsVerified          bool      `json:"is_verified"           db:"is_verified"`
	InterestedInGenders []Gender  `json:"interested_in_genders" db:"interested_in_genders"`
	InterestedInRoles   []Role    `json:"interested_in_roles"   db:"interested_in_roles"`
	CreatedAt           time.Time `json:"created_at"            db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"            db:"updated_at"`
	LastActiveAt        time.Time `json:"last_active_at"        db:"last_active_at"`
	IsDeleted           bool      `json:"-"                     db:"is_deleted"`
}

// NormalizeEmail trims and lower-cases an address so lookups and the unique
// index agree on one spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ProfilePatch is the whitelist of fields a user may change on their own
// profile. A nil field means "leave unchanged".
//
// Role, email, password, birthday, gender and is_verified are deliberately
// absent: there is no way to express a change to them through this type.
type ProfilePatch struct {
	Name                *string
	Nickname            *string
	Bio                 *string
	Location            *string
	AvatarURL           *string
	InterestedInGenders []Gender // nil = unchanged, empty = clear
	InterestedInRoles   []Role   // nil = unchanged, empty = clear
}
