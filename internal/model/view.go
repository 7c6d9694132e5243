package model

import "time"

// RESPONSE VIEWS:
// The API never serializes User directly. Each endpoint picks one of these
// shapes, which makes "password is never in a response body" a property of
// the types rather than of every handler remembering to strip it.

// PublicProfile is returned by register and login.
type PublicProfile struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Nickname            string    `json:"nickname"`
	Email               string    `json:"email"`
	Role                Role      `json:"role"`
	AvatarURL           string    `json:"avatar_url"`
	Bio                 string    `json:"bio"`
	Location            string    `json:"location"`
	Birthday            time.Time `json:"birthday"`
	Gender              Gender    `json:"gender"`
	IsVerified          bool      `json:"is_verified"`
	InterestedInGenders []Gender  `json:"interested_in_genders"`
	InterestedInRoles   []Role    `json:"interested_in_roles"`
}

// FullProfile adds the account timestamps. Used by /auth/me, /users/{id}
// and the profile update response.
type FullProfile struct {
	PublicProfile
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// Public builds the public view of u. Nil interest lists become empty
// arrays so clients always see `[]` rather than `null`.
func (u *User) Public() PublicProfile {
	genders := u.InterestedInGenders
	if genders == nil {
		genders = []Gender{}
	}
	roles := u.InterestedInRoles
	if roles == nil {
		roles = []Role{}
	}

	return PublicProfile{
		ID:                  u.ID,
		Name:                u.Name,
		Nickname:            u.Nickname,
		Email:               u.Email,
		Role:                u.Role,
		AvatarURL:           u.AvatarURL,
		Bio:                 u.Bio,
		Location:            u.Location,
		Birthday:            u.Birthday,
		Gender:              u.Gender,
		IsVerified:          u.IsVerified,
		InterestedInGenders: genders,
		InterestedInRoles:   roles,
	}
}

// Full builds the full view of u.
func (u *User) Full() FullProfile {
	return FullProfile{
		PublicProfile: u.Public(),
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
		LastActiveAt:  u.LastActiveAt,
	}
}
