package service

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/sakif/dating-profiles/internal/apperror"
	"github.com/sakif/dating-profiles/internal/auth"
	"github.com/sakif/dating-profiles/internal/model"
	"github.com/sakif/dating-profiles/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory repository.UserRepository. A hand-written
// fake keeps the tests readable: you can see exactly what the "database"
// does, including the unique-index behaviour on email and nickname.
type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*model.User
	nextID int

	// set to a non-nil error to simulate a database failure
	createErr error
	getErr    error
	touchErr  error
	updateErr error
	deleteErr error

	touched map[string]time.Time
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:   make(map[string]*model.User),
		touched: make(map[string]time.Time),
		nextID:  1,
	}
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return apperror.Duplicate("email")
		}
		if existing.Nickname == u.Nickname {
			return apperror.Duplicate("nickname")
		}
	}

	u.ID = "user-" + strconv.Itoa(f.nextID)
	f.nextID++
	copied := *u
	f.users[u.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if u.Email == email && !u.IsDeleted {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) TouchLastActive(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.touchErr != nil {
		return f.touchErr
	}
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.LastActiveAt = at
	f.touched[id] = at
	return nil
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, id string, p model.ProfilePatch) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return nil, f.updateErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	if p.Nickname != nil {
		for otherID, other := range f.users {
			if otherID != id && other.Nickname == *p.Nickname {
				return nil, apperror.Duplicate("nickname")
			}
		}
	}
	applyPatch(u, p)
	u.UpdatedAt = time.Now().UTC()
	copied := *u
	return &copied, nil
}

// applyPatch copies the set fields of p onto u, the way the SQL stores do
// in their UPDATE.
func applyPatch(u *model.User, p model.ProfilePatch) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Nickname != nil {
		u.Nickname = *p.Nickname
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Location != nil {
		u.Location = *p.Location
	}
	if p.AvatarURL != nil {
		u.AvatarURL = *p.AvatarURL
	}
	if p.InterestedInGenders != nil {
		u.InterestedInGenders = p.InterestedInGenders
	}
	if p.InterestedInRoles != nil {
		u.InterestedInRoles = p.InterestedInRoles
	}
}

func (f *fakeUserRepo) SoftDelete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.IsDeleted = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestAuthService returns an AuthService wired with fake dependencies.
// Passwords are hashed at bcrypt.MinCost to keep tests fast.
func newTestAuthService(t *testing.T, repo *fakeUserRepo) (*AuthService, *auth.TokenService) {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour, "")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	return NewAuthService(repo, ts, auth.NewPasswordServiceForTest(), discardLogger()), ts
}

func validRegisterRequest() *model.RegisterRequest {
	return &model.RegisterRequest{
		Name:                "Alice",
		Nickname:            "ali",
		Email:               "alice@example.com",
		Password:            "secret1",
		Role:                model.RoleWoman,
		Gender:              model.GenderFemale,
		Birthday:            "1995-04-12",
		InterestedInGenders: []model.Gender{model.GenderMale},
		InterestedInRoles:   []model.Role{model.RoleMan},
	}
}
