package model

import (
	"errors"
	"strings"
	"time"
)

// REQUEST TYPES:
// These mirror the JSON bodies the API accepts. Constraints live in the
// `validate` tags and are checked by internal/validate before a handler
// touches the service layer. Each type also declares the client-facing
// message for every (field, rule) pair it uses.

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Name                string   `json:"name"                  validate:"notblank"`
	Nickname            string   `json:"nickname"              validate:"notblank"`
	Email               string   `json:"email"                 validate:"required,email"`
	Password            string   `json:"password"              validate:"min=6,maxbytes=72"`
	Role                Role     `json:"role"                  validate:"oneof=man woman"`
	Gender              Gender   `json:"gender"                validate:"oneof=male female other"`
	Birthday            string   `json:"birthday"              validate:"iso8601"`
	AvatarURL           string   `json:"avatar_url"`
	Bio                 string   `json:"bio"`
	Location            string   `json:"location"`
	InterestedInGenders []Gender `json:"interested_in_genders" validate:"required,dive,oneof=male female other"`
	InterestedInRoles   []Role   `json:"interested_in_roles"   validate:"required,dive,oneof=man woman"`
}

// Normalize trims every free-text field and lower-cases the email.
func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Nickname = strings.TrimSpace(r.Nickname)
	r.Email = NormalizeEmail(r.Email)
	r.Birthday = strings.TrimSpace(r.Birthday)
	r.AvatarURL = strings.TrimSpace(r.AvatarURL)
	r.Bio = strings.TrimSpace(r.Bio)
	r.Location = strings.TrimSpace(r.Location)
}

func (r *RegisterRequest) ValidationMessages() map[string]string {
	return map[string]string{
		"name.notblank":                  "Name is required",
		"nickname.notblank":              "Nickname is required",
		"email.required":                 "Please enter a valid email",
		"email.email":                    "Please enter a valid email",
		"password.min":                   "Password must be at least 6 characters long",
		"password.maxbytes":              "Password must be at most 72 bytes long",
		"role.oneof":                     "Invalid role",
		"gender.oneof":                   "Invalid gender",
		"birthday.iso8601":               "Invalid birthday format",
		"name.type":                      "Name is required",
		"nickname.type":                  "Nickname is required",
		"email.type":                     "Please enter a valid email",
		"password.type":                  "Password must be at least 6 characters long",
		"role.type":                      "Invalid role",
		"gender.type":                    "Invalid gender",
		"birthday.type":                  "Invalid birthday format",
		"avatar_url.type":                "Avatar URL must be a string",
		"bio.type":                       "Bio must be a string",
		"location.type":                  "Location must be a string",
		"interested_in_genders.required": "Interested in genders must be an array",
		"interested_in_genders.type":     "Interested in genders must be an array",
		"interested_in_genders.oneof":    "Invalid gender",
		"interested_in_roles.required":   "Interested in roles must be an array",
		"interested_in_roles.type":       "Interested in roles must be an array",
		"interested_in_roles.oneof":      "Invalid role",
	}
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

func (r *LoginRequest) ValidationMessages() map[string]string {
	return map[string]string{
		"email.required":    "Please enter a valid email",
		"email.email":       "Please enter a valid email",
		"email.type":        "Please enter a valid email",
		"password.required": "Password is required",
		"password.type":     "Password is required",
	}
}

// UpdateProfileRequest is the body of PATCH /api/users/me.
//
// Only whitelisted fields exist here. Anything else in the body (role,
// email, is_verified, ...) has nowhere to decode into and is dropped.
type UpdateProfileRequest struct {
	Name                *string  `json:"name"                  validate:"omitnil,notblank"`
	Nickname            *string  `json:"nickname"              validate:"omitnil,notblank"`
	Bio                 *string  `json:"bio"`
	Location            *string  `json:"location"`
	AvatarURL           *string  `json:"avatar_url"`
	InterestedInGenders []Gender `json:"interested_in_genders" validate:"omitnil,dive,oneof=male female other"`
	InterestedInRoles   []Role   `json:"interested_in_roles"   validate:"omitnil,dive,oneof=man woman"`
}

func (r *UpdateProfileRequest) Normalize() {
	for _, s := range []*string{r.Name, r.Nickname, r.Bio, r.Location, r.AvatarURL} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
}

func (r *UpdateProfileRequest) ValidationMessages() map[string]string {
	return map[string]string{
		"name.notblank":               "Name cannot be empty",
		"nickname.notblank":           "Nickname cannot be empty",
		"name.type":                   "Name cannot be empty",
		"nickname.type":               "Nickname cannot be empty",
		"bio.type":                    "Bio must be a string",
		"location.type":               "Location must be a string",
		"avatar_url.type":             "Avatar URL must be a string",
		"interested_in_genders.type":  "Must be an array",
		"interested_in_genders.oneof": "Invalid gender",
		"interested_in_roles.type":    "Must be an array",
		"interested_in_roles.oneof":   "Invalid role",
	}
}

// Patch converts the request into the store-level whitelist patch.
func (r *UpdateProfileRequest) Patch() ProfilePatch {
	return ProfilePatch{
		Name:                r.Name,
		Nickname:            r.Nickname,
		Bio:                 r.Bio,
		Location:            r.Location,
		AvatarURL:           r.AvatarURL,
		InterestedInGenders: r.InterestedInGenders,
		InterestedInRoles:   r.InterestedInRoles,
	}
}

var ErrInvalidDate = errors.New("invalid date")

// dateLayouts are the accepted birthday spellings, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
}

// ParseDate parses an ISO-8601 calendar date or timestamp into UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}
