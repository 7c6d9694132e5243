package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/dating-profiles/internal/model"
	"github.com/sakif/dating-profiles/internal/repository"
)

// UserService serves profile reads and the self-service writes.
//
// Every write targets the authenticated user's own id; there is no way to
// edit or delete someone else's profile through this type.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// GetByID returns any user by id. Soft-deleted users are returned too.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/user: fetching user %s: %w", id, err)
	}
	return user, nil
}

// UpdateProfile applies the whitelisted patch to the user's own profile.
// An empty patch still bumps updated_at.
func (s *UserService) UpdateProfile(ctx context.Context, id string, patch model.ProfilePatch) (*model.User, error) {
	user, err := s.users.UpdateProfile(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("service/user: updating profile %s: %w", id, err)
	}

	s.logger.InfoContext(ctx, "profile updated", slog.String("userID", id))

	return user, nil
}

// Delete soft-deletes the user's own account. The record stays readable by
// id; login by email stops working.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("service/user: deleting user %s: %w", id, err)
	}

	s.logger.InfoContext(ctx, "account deleted", slog.String("userID", id))

	return nil
}
