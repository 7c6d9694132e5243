package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/dating-profiles/internal/apperror"
	"github.com/sakif/dating-profiles/internal/model"
	"github.com/sakif/dating-profiles/internal/respond"
)

// contextKey is an unexported type used for context keys in this package.
// Only this package can create a key of this type, so nothing else can read
// or shadow the identity stored in a request context.
type contextKey string

const userKey contextKey = "user"

// Failure reasons reported to the log and the metrics recorder.
const (
	ReasonMissingToken = "missing_token"
	ReasonInvalidToken = "invalid_token"
	ReasonTokenExpired = "token_expired"
	ReasonUnknownUser  = "unknown_user"
)

// UserLoader is the slice of the user store the guard needs.
// Deleted users must still be returned.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// FailureRecorder counts rejected requests by reason.
// internal/middleware.Metrics implements it.
type FailureRecorder interface {
	AuthFailure(reason string)
}

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads "Authorization: Bearer <token>", validates the token, loads the
// user it names and stores that user in the request context. Every failure
// is a 401 with the standard error envelope and stops the chain; a store
// error while loading the user is a 500.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware takes an http.Handler and returns a new one that wraps it:
//
//	req → RequireAuth → Handler → RequireAuth → resp
//
// Handlers behind it call UserFromContext and can assume it succeeds.
func RequireAuth(tokens *TokenService, users UserLoader, logger *slog.Logger, failures FailureRecorder) func(http.Handler) http.Handler {
	reject := func(w http.ResponseWriter, r *http.Request, reason string, err error) {
		logger.WarnContext(r.Context(), "authentication failed",
			slog.String("reason", reason),
			slog.String("request_id", chimiddleware.GetReqID(r.Context())),
			slog.String("path", r.URL.Path),
		)
		if failures != nil {
			failures.AuthFailure(reason)
		}
		respond.Error(w, r, err, "Authentication failed")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				reject(w, r, ReasonMissingToken,
					apperror.Unauthorized(apperror.ErrMissingToken, "No token, authorization denied"))
				return
			}

			userID, err := tokens.Validate(raw)
			if err != nil {
				reason := ReasonInvalidToken
				if errors.Is(err, apperror.ErrTokenExpired) {
					reason = ReasonTokenExpired
				}
				reject(w, r, reason, err)
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, apperror.ErrNotFound) {
					// Signed by us, but for an account that no longer exists.
					reject(w, r, ReasonUnknownUser,
						apperror.Unauthorized(apperror.ErrInvalidToken, "Invalid token"))
					return
				}
				respond.Internal(w, r, err, "Authentication failed")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// ContextWithUser returns a copy of ctx carrying u as the authenticated user.
func ContextWithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the user stored by RequireAuth.
// Returns (nil, false) on an unauthenticated request.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// UserIDFromContext returns the authenticated user's id.
//
// Usage in handlers:
//
//	userID, ok := auth.UserIDFromContext(r.Context())
//	if !ok {
//	    // anonymous request; RequireAuth was not applied
//	}
func UserIDFromContext(ctx context.Context) (string, bool) {
	u, ok := UserFromContext(ctx)
	if !ok || u.ID == "" {
		return "", false
	}
	return u.ID, true
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
