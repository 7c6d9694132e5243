// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → decodes and validates requests, writes responses
//	Service (business layer) → hashes passwords, issues tokens, enforces rules
//	Repository (data layer)  → reads/writes users in the configured backend
//
// Services take repository.UserRepository (an interface), never a concrete
// backend, so tests pass an in-memory fake and the composition root picks
// sqlite, postgres or mongo in one place.
//
// Services return apperror values for anything the client should see (bad
// credentials, duplicates, missing users) and wrapped errors for everything
// else; the handler maps both through internal/respond.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/dating-profiles/internal/apperror"
	"github.com/sakif/dating-profiles/internal/auth"
	"github.com/sakif/dating-profiles/internal/model"
	"github.com/sakif/dating-profiles/internal/repository"
)

// InvalidCredentialsMessage is the only thing a failed login reveals.
const InvalidCredentialsMessage = "Invalid email or password"

// AuthService handles registration, login and the "who am I" lookup.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository → read/write user records
//   - tokens     *auth.TokenService        → issue JWTs
//   - passwords  *auth.PasswordService     → bcrypt hashing
//   - logger     *slog.Logger              → business events
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
	now       func() time.Time
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
		now:       time.Now,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates an account from an already validated request and issues
// a token for it.
//
// Uniqueness of email and nickname is left to the store's unique indexes;
// a collision comes back as an apperror duplicate naming the field.
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*AuthResult, error) {
	birthday, err := model.ParseDate(req.Birthday)
	if err != nil {
		return nil, apperror.ValidationFailed("birthday", "Invalid birthday format")
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	now := s.now().UTC()
	user := &model.User{
		Name:                req.Name,
		Nickname:            req.Nickname,
		Email:               model.NormalizeEmail(req.Email),
		PasswordHash:        hash,
		Role:                req.Role,
		AvatarURL:           req.AvatarURL,
		Bio:                 req.Bio,
		Location:            req.Location,
		Birthday:            birthday,
		Gender:              req.Gender,
		InterestedInGenders: nonNil(req.InterestedInGenders),
		InterestedInRoles:   nonNil(req.InterestedInRoles),
		CreatedAt:           now,
		UpdatedAt:           now,
		LastActiveAt:        now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("userID", user.ID),
		slog.String("nickname", user.Nickname),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login checks email and password and issues a token.
//
// Unknown email, deleted account and wrong password all fail the same way,
// and the unknown-email path still pays for one bcrypt comparison so the
// response time does not tell them apart.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, model.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.VerifyDummy(req.Password)
			return nil, invalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: fetching user by email: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, invalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	now := s.now().UTC()
	if err := s.users.TouchLastActive(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("service/auth: updating last active for user %s: %w", user.ID, err)
	}
	user.LastActiveAt = now

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("userID", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// Me returns the current record of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}

	return user, nil
}

func invalidCredentials() error {
	return apperror.Unauthorized(apperror.ErrInvalidCredentials, InvalidCredentialsMessage)
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
