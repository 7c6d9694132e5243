package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/dating-profiles/internal/apperror"
	"github.com/sakif/dating-profiles/internal/model"
	"github.com/sakif/dating-profiles/internal/repository"
)

// compile-time check that *DB implements repository.Store
var _ repository.Store = (*DB)(nil)

const userColumns = `id, name, nickname, email, password_hash, role, avatar_url, bio, location,
	birthday, gender, is_verified, interested_in_genders, interested_in_roles,
	created_at, updated_at, last_active_at, is_deleted`

// Create inserts a new user.
//
// ID GENERATION:
// xid produces short, sortable, URL-safe ids without a round trip to the
// database. The same scheme is used by every backend.
func (db *DB) Create(ctx context.Context, u *model.User) error {
	const op = "sqlite.Create"

	if u.ID == "" {
		u.ID = xid.New().String()
	}
	fillTimestamps(u, time.Now().UTC())

	genders, err := encodeList(u.InterestedInGenders)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	roles, err := encodeList(u.InterestedInRoles)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Name,
		u.Nickname,
		u.Email,
		u.PasswordHash,
		string(u.Role),
		u.AvatarURL,
		u.Bio,
		u.Location,
		u.Birthday.UTC(),
		string(u.Gender),
		u.IsVerified,
		genders,
		roles,
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
// Soft-deleted accounts are invisible here, which is what blocks their login.
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const op = "sqlite.GetByEmail"

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? AND is_deleted = 0`,
		email,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// GetByID returns the user with this id, including soft-deleted users.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	const op = "sqlite.GetByID"

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`,
		id,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// TouchLastActive records a successful login.
func (db *DB) TouchLastActive(ctx context.Context, id string, at time.Time) error {
	const op = "sqlite.TouchLastActive"

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET last_active_at = ? WHERE id = ?`,
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return requireRow(res, id, op)
}

// UpdateProfile applies the patch with a single UPDATE and reads the row
// back. Concurrent updates are last-write-wins.
func (db *DB) UpdateProfile(ctx context.Context, id string, p model.ProfilePatch) (*model.User, error) {
	const op = "sqlite.UpdateProfile"

	sets := make([]string, 0, 8)
	args := make([]any, 0, 9)

	for _, a := range repository.Assignments(p) {
		value := a.Value
		if list, ok := value.([]string); ok {
			encoded, err := json.Marshal(list)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			value = string(encoded)
		}
		sets = append(sets, a.Column+" = ?")
		args = append(args, value)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}
	if err := requireRow(res, id, op); err != nil {
		return nil, err
	}

	return db.GetByID(ctx, id)
}

// SoftDelete flags the user as deleted. The row and its unique email and
// nickname stay in place.
func (db *DB) SoftDelete(ctx context.Context, id string) error {
	const op = "sqlite.SoftDelete"

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET is_deleted = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return requireRow(res, id, op)
}

// =========================================================================
// HELPERS
// =========================================================================

// scanUser reads one row in userColumns order. Interest lists are stored as
// JSON text.
func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u       model.User
		role    string
		gender  string
		genders string
		roles   string
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

	if u.InterestedInGenders, err = decodeList[model.Gender](genders); err != nil {
		return nil, err
	}
	if u.InterestedInRoles, err = decodeList[model.Role](roles); err != nil {
		return nil, err
	}

	return &u, nil
}

func encodeList[T ~string](in []T) (string, error) {
	b, err := json.Marshal(repository.Strings(in))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList[T ~string](raw string) ([]T, error) {
	var out []string
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, fmt.Errorf("decoding list %q: %w", raw, err)
		}
	}
	return repository.Enums[T](out), nil
}

func fillTimestamps(u *model.User, now time.Time) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}
	if u.LastActiveAt.IsZero() {
		u.LastActiveAt = now
	}
}

// requireRow turns "no row matched" into NotFound.
func requireRow(res sql.Result, id, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// translate maps a UNIQUE violation to a duplicate error naming the field.
// SQLite reports it as "UNIQUE constraint failed: users.<column>".
func translate(err error) error {
	var sqlErr *sqlitedriver.Error
	if !errors.As(err, &sqlErr) {
		return err
	}
	// Extended codes carry the primary code in the low byte.
	if code := sqlErr.Code(); code != sqlite3.SQLITE_CONSTRAINT_UNIQUE && code&0xff != sqlite3.SQLITE_CONSTRAINT {
		return err
	}

	msg := sqlErr.Error()
	switch {
	case strings.Contains(msg, "users.email"):
		return apperror.Duplicate("email")
	case strings.Contains(msg, "users.nickname"):
		return apperror.Duplicate("nickname")
	default:
		return err
	}
}
