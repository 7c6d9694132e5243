package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/xid"

	"github.com/sakif/dating-profiles/internal/apperror"
	"github.com/sakif/dating-profiles/internal/model"
	"github.com/sakif/dating-profiles/internal/repository"
)

// compile-time check that *Storage implements repository.Store
var _ repository.Store = (*Storage)(nil)

const userColumns = `id, name, nickname, email, password_hash, role, avatar_url, bio, location,
	birthday, gender, is_verified, interested_in_genders, interested_in_roles,
	created_at, updated_at, last_active_at, is_deleted`

// constraintFields maps unique constraint names from the migration to the
// request field they guard.
var constraintFields = map[string]string{
	"users_email_key":    "email",
	"users_nickname_key": "nickname",
}

// Create inserts a new user.
func (s *Storage) Create(ctx context.Context, u *model.User) error {
	const op = "postgres.Create"

	if u.ID == "" {
		u.ID = xid.New().String()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}
	if u.LastActiveAt.IsZero() {
		u.LastActiveAt = now
	}

	query := `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err := s.db.Exec(ctx, query,
		u.ID,
		u.Name,
		u.Nickname,
		u.Email,
		u.PasswordHash,
		string(u.Role),
		u.AvatarURL,
		u.Bio,
		u.Location,
		u.Birthday,
		string(u.Gender),
		u.IsVerified,
		repository.Strings(u.InterestedInGenders),
		repository.Strings(u.InterestedInRoles),
		u.CreatedAt,
		u.UpdatedAt,
		u.LastActiveAt,
		u.IsDeleted,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translate(err))
	}

	return nil
}

// GetByEmail returns the active user with this email.
func (s *Storage) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const op = "postgres.GetByEmail"

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND NOT is_deleted`

	u, err := scanUser(s.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// GetByID returns the user with this id, including soft-deleted users.
func (s *Storage) GetByID(ctx context.Context, id string) (*model.User, error) {
	const op = "postgres.GetByID"

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// TouchLastActive records a successful login.
func (s *Storage) TouchLastActive(ctx context.Context, id string, at time.Time) error {
	const op = "postgres.TouchLastActive"

	tag, err := s.db.Exec(ctx, `UPDATE users SET last_active_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("user", id)
	}

	return nil
}

// UpdateProfile applies the patch with a single UPDATE ... RETURNING.
func (s *Storage) UpdateProfile(ctx context.Context, id string, p model.ProfilePatch) (*model.User, error) {
	const op = "postgres.UpdateProfile"

	assignments := repository.Assignments(p)
	sets := make([]string, 0, len(assignments)+1)
	args := make([]any, 0, len(assignments)+2)

	for _, a := range assignments {
		args = append(args, a.Value)
		sets = append(sets, fmt.Sprintf("%s = $%d", a.Column, len(args)))
	}
	args = append(args, time.Now().UTC())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)

	u, err := scanUser(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}

	return u, nil
}

// SoftDelete flags the user as deleted.
func (s *Storage) SoftDelete(ctx context.Context, id string) error {
	const op = "postgres.SoftDelete"

	tag, err := s.db.Exec(ctx,
		`UPDATE users SET is_deleted = TRUE, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("user", id)
	}

	return nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u       model.User
		role    string
		gender  string
		genders []string
		roles   []string
	)

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Nickname,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.AvatarURL,
		&u.Bio,
		&u.Location,
		&u.Birthday,
		&gender,
		&u.IsVerified,
		&genders,
		&roles,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastActiveAt,
		&u.IsDeleted,
	)
	if err != nil {
		return nil, err
	}

	u.Role = model.Role(role)
	u.Gender = model.Gender(gender)
	u.InterestedInGenders = repository.Enums[model.Gender](genders)
	u.InterestedInRoles = repository.Enums[model.Role](roles)

	return &u, nil
}

// translate maps a unique violation on a known constraint to a duplicate
// error naming the field.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		if field, ok := constraintFields[pgErr.ConstraintName]; ok {
			return apperror.Duplicate(field)
		}
	}
	return err
}
