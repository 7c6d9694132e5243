package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/dating-profiles/internal/apperror"
	"github.com/sakif/dating-profiles/internal/auth"
	"github.com/sakif/dating-profiles/internal/model"
	"github.com/sakif/dating-profiles/internal/respond"
	"github.com/sakif/dating-profiles/internal/validate"
)

// AuthHandler serves the /api/auth routes.
type AuthHandler struct {
	auth      Authenticator
	validator *validate.Validator
	logger    *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(a Authenticator, v *validate.Validator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: a, validator: v, logger: logger}
}

// HandleRegister creates an account and returns a token.
//
// HTTP: POST /api/auth/register
// RESPONSE: 201 {"message":"User registered successfully","token":"...","user":{public profile}}
//
// Validation failures return 400 before the service is called; a taken
// email or nickname returns 400 with "field" set.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r)

	var req model.RegisterRequest
	if err := h.validator.DecodeJSON(r.Body, &req); err != nil {
		respond.Error(w, r, err, "Error registering user")
		return
	}

	result, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		respond.Error(w, r, err, "Error registering user")
		return
	}

	respond.JSON(w, http.StatusCreated, AuthResponse{
		Message: "User registered successfully",
		Token:   result.Token,
		User:    result.User.Public(),
	})
}

// HandleLogin checks credentials and returns a token.
//
// HTTP: POST /api/auth/login
// RESPONSE: 200 {"message":"Login successful","token":"...","user":{public profile}}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r)

	var req model.LoginRequest
	if err := h.validator.DecodeJSON(r.Body, &req); err != nil {
		respond.Error(w, r, err, "Error logging in")
		return
	}

	result, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		respond.Error(w, r, err, "Error logging in")
		return
	}

	respond.JSON(w, http.StatusOK, AuthResponse{
		Message: "Login successful",
		Token:   result.Token,
		User:    result.User.Public(),
	})
}

// HandleMe returns the authenticated user's full profile.
//
// HTTP: GET /api/auth/me (behind auth.RequireAuth)
// RESPONSE: 200 {"user":{full profile}}
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, r, missingIdentity(), "Error fetching user profile")
		return
	}

	user, err := h.auth.Me(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, err, "Error fetching user profile")
		return
	}

	respond.JSON(w, http.StatusOK, UserResponse{User: user.Full()})
}

// missingIdentity is returned when a protected handler is reached without
// the guard having set a user; only a routing mistake gets here.
func missingIdentity() error {
	return apperror.Unauthorized(apperror.ErrMissingToken, "No token, authorization denied")
}
