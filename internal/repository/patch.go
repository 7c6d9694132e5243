package repository

import "github.com/sakif/dating-profiles/internal/model"

// Assignment is one column = value pair of a profile update.
type Assignment struct {
	Column string
	Value  any
}

// Assignments lists the columns a patch sets, in a stable order.
// Interest lists are returned as []string so each backend can encode them
// its own way (JSON text, TEXT[], BSON array).
func Assignments(p model.ProfilePatch) []Assignment {
	var out []Assignment

	if p.Name != nil {
		out = append(out, Assignment{"name", *p.Name})
	}
	if p.Nickname != nil {
		out = append(out, Assignment{"nickname", *p.Nickname})
	}
	if p.Bio != nil {
		out = append(out, Assignment{"bio", *p.Bio})
	}
	if p.Location != nil {
		out = append(out, Assignment{"location", *p.Location})
	}
	if p.AvatarURL != nil {
		out = append(out, Assignment{"avatar_url", *p.AvatarURL})
	}
	if p.InterestedInGenders != nil {
		out = append(out, Assignment{"interested_in_genders", Strings(p.InterestedInGenders)})
	}
	if p.InterestedInRoles != nil {
		out = append(out, Assignment{"interested_in_roles", Strings(p.InterestedInRoles)})
	}

	return out
}

// Strings converts a list of string enums to []string. Nil becomes an
// empty, non-nil slice.
func Strings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

// Enums is the inverse of Strings.
func Enums[T ~string](in []string) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = T(v)
	}
	return out
}
