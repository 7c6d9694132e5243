// Package handler contains the HTTP handlers of the profile API.
//
// A handler's job is narrow: decode and validate the body, call one service
// method, and shape the JSON response. Status codes and the error envelope
// come from internal/respond; business rules live in internal/service.
//
// Handlers depend on small interfaces rather than the concrete services, so
// handler tests can use stubs without a database.
package handler

import (
	"context"
	"net/http"

	"github.com/sakif/dating-profiles/internal/model"
	"github.com/sakif/dating-profiles/internal/service"
)

// maxBodyBytes caps request bodies; profiles are small.
const maxBodyBytes = 1 << 20

// Authenticator is the part of service.AuthService the handlers use.
type Authenticator interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*service.AuthResult, error)
	Login(ctx context.Context, req *model.LoginRequest) (*service.AuthResult, error)
	Me(ctx context.Context, userID string) (*model.User, error)
}

// Profiles is the part of service.UserService the handlers use.
type Profiles interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, patch model.ProfilePatch) (*model.User, error)
	Delete(ctx context.Context, id string) error
}

var (
	_ Authenticator = (*service.AuthService)(nil)
	_ Profiles      = (*service.UserService)(nil)
)

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message string              `json:"message"`
	Token   string              `json:"token"`
	User    model.PublicProfile `json:"user"`
}

// UserResponse carries a full profile, with a message on writes.
type UserResponse struct {
	Message string            `json:"message,omitempty"`
	User    model.FullProfile `json:"user"`
}

// MessageResponse is a bare confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

func limitBody(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
}
