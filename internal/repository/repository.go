// Package repository declares the storage contract for user accounts.
//
// Concrete backends live in subpackages (sqlite, postgres, mongo). Services
// depend on these interfaces only, so the backend is chosen once in the
// composition root and tests can swap in a fake.
//
// ERROR CONTRACT (all backends):
//   - unknown id or email  → apperror.ErrNotFound
//   - email/nickname taken → apperror.ErrConflict, AppError.Field names which
//   - anything else        → wrapped driver error (500 at the HTTP boundary)
package repository

import (
	"context"
	"time"

	"github.com/sakif/dating-profiles/internal/model"
)

// UserRepository persists users.
//
// Uniqueness of email and nickname is enforced by the backend's unique
// indexes, never by a read-then-write check.
type UserRepository interface {
	// Create inserts u. It assigns u.ID when empty and fills zero
	// timestamps with the current time.
	Create(ctx context.Context, u *model.User) error

	// GetByEmail returns the active (not soft-deleted) user with this email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// GetByID returns the user with this id, soft-deleted or not.
	GetByID(ctx context.Context, id string) (*model.User, error)

	// TouchLastActive sets last_active_at.
	TouchLastActive(ctx context.Context, id string, at time.Time) error

	// UpdateProfile applies the whitelisted fields of p in one statement and
	// returns the updated record.
	UpdateProfile(ctx context.Context, id string, p model.ProfilePatch) (*model.User, error)

	// SoftDelete sets is_deleted. Deleting an already deleted user succeeds.
	SoftDelete(ctx context.Context, id string) error
}

// Store is a UserRepository that owns a connection and must be closed.
type Store interface {
	UserRepository
	Close() error
}
