package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/dating-profiles/internal/auth"
	"github.com/sakif/dating-profiles/internal/model"
	"github.com/sakif/dating-profiles/internal/respond"
	"github.com/sakif/dating-profiles/internal/validate"
)

// UserHandler serves the /api/users routes. All of them sit behind
// auth.RequireAuth.
type UserHandler struct {
	profiles  Profiles
	validator *validate.Validator
	logger    *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(p Profiles, v *validate.Validator, logger *slog.Logger) *UserHandler {
	return &UserHandler{profiles: p, validator: v, logger: logger}
}

// HandleGetByID returns another user's profile.
//
// HTTP: GET /api/users/{id}
// RESPONSE: 200 {"user":{full profile}}; 404 when the id is unknown.
// Soft-deleted users are still returned.
func (h *UserHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.profiles.GetByID(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err, "Error fetching user profile")
		return
	}

	respond.JSON(w, http.StatusOK, UserResponse{User: user.Full()})
}

// HandleUpdateMe applies a partial update to the caller's own profile.
//
// HTTP: PATCH /api/users/me
// REQUEST BODY: any subset of name, nickname, bio, location, avatar_url,
// interested_in_genders, interested_in_roles. Other keys are ignored.
// RESPONSE: 200 {"message":"Profile updated successfully","user":{full profile}}
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, r, missingIdentity(), "Error updating profile")
		return
	}

	limitBody(w, r)

	var req model.UpdateProfileRequest
	if err := h.validator.DecodeJSON(r.Body, &req); err != nil {
		respond.Error(w, r, err, "Error updating profile")
		return
	}

	user, err := h.profiles.UpdateProfile(r.Context(), userID, req.Patch())
	if err != nil {
		respond.Error(w, r, err, "Error updating profile")
		return
	}

	respond.JSON(w, http.StatusOK, UserResponse{
		Message: "Profile updated successfully",
		User:    user.Full(),
	})
}

// HandleDeleteMe soft-deletes the caller's account.
//
// HTTP: DELETE /api/users/me
// RESPONSE: 200 {"message":"Account deleted successfully"}
func (h *UserHandler) HandleDeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, r, missingIdentity(), "Error deleting account")
		return
	}

	if err := h.profiles.Delete(r.Context(), userID); err != nil {
		respond.Error(w, r, err, "Error deleting account")
		return
	}

	respond.JSON(w, http.StatusOK, MessageResponse{Message: "Account deleted successfully"})
}
