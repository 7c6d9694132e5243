package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/dating-profiles/internal/apperror"
	"github.com/sakif/dating-profiles/internal/model"
	"github.com/sakif/dating-profiles/internal/repository"
)

var _ repository.Store = (*Storage)(nil)

// userDocument is the BSON shape of a user.
type userDocument struct {
	ID                  string    `bson:"_id"`
	Name                string    `bson:"name"`
	Nickname            string    `bson:"nickname"`
	Email               string    `bson:"email"`
	PasswordHash        string    `bson:"password_hash"`
	Role                string    `bson:"role"`
	AvatarURL           string    `bson:"avatar_url"`
	Bio                 string    `bson:"bio"`
	Location            string    `bson:"location"`
	Birthday            time.Time `bson:"birthday"`
	Gender              string    `bson:"gender"`
	IsVerified          bool      `bson:"is_verified"`
	InterestedInGenders []string  `bson:"interested_in_genders"`
	InterestedInRoles   []string  `bson:"interested_in_roles"`
	CreatedAt           time.Time `bson:"created_at"`
	UpdatedAt           time.Time `bson:"updated_at"`
	LastActiveAt        time.Time `bson:"last_active_at"`
	IsDeleted           bool      `bson:"is_deleted"`
}

// BSON dates carry milliseconds.
func toMS(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

func toDocument(u *model.User) userDocument {
	return userDocument{
		ID:                  u.ID,
		Name:                u.Name,
		Nickname:            u.Nickname,
		Email:               u.Email,
		PasswordHash:        u.PasswordHash,
		Role:                string(u.Role),
		AvatarURL:           u.AvatarURL,
		Bio:                 u.Bio,
		Location:            u.Location,
		Birthday:            toMS(u.Birthday),
		Gender:              string(u.Gender),
		IsVerified:          u.IsVerified,
		InterestedInGenders: repository.Strings(u.InterestedInGenders),
		InterestedInRoles:   repository.Strings(u.InterestedInRoles),
		CreatedAt:           toMS(u.CreatedAt),
		UpdatedAt:           toMS(u.UpdatedAt),
		LastActiveAt:        toMS(u.LastActiveAt),
		IsDeleted:           u.IsDeleted,
	}
}

func (d *userDocument) toModel() *model.User {
	return &model.User{
		ID:                  d.ID,
		Name:                d.Name,
		Nickname:            d.Nickname,
		Email:               d.Email,
		PasswordHash:        d.PasswordHash,
		Role:                model.Role(d.Role),
		AvatarURL:           d.AvatarURL,
		Bio:                 d.Bio,
		Location:            d.Location,
		Birthday:            d.Birthday.UTC(),
		Gender:              model.Gender(d.Gender),
		IsVerified:          d.IsVerified,
		InterestedInGenders: repository.Enums[model.Gender](d.InterestedInGenders),
		InterestedInRoles:   repository.Enums[model.Role](d.InterestedInRoles),
		CreatedAt:           d.CreatedAt.UTC(),
		UpdatedAt:           d.UpdatedAt.UTC(),
		LastActiveAt:        d.LastActiveAt.UTC(),
		IsDeleted:           d.IsDeleted,
	}
}

// Create inserts a new user document.
func (s *Storage) Create(ctx context.Context, u *model.User) error {
	const op = "mongo.Create"

	if u.ID == "" {
		u.ID = xid.New().String()
	}
	now := toMS(time.Now())
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}
	if u.LastActiveAt.IsZero() {
		u.LastActiveAt = now
	}

	if _, err := s.users.InsertOne(ctx, toDocument(u)); err != nil {
		return fmt.Errorf("%s: %w", op, translate(err))
	}

	return nil
}

// GetByEmail returns the active user with this email.
func (s *Storage) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findOne(ctx, "mongo.GetByEmail",
		bson.D{{Key: "email", Value: email}, {Key: "is_deleted", Value: false}}, email)
}

// GetByID returns the user with this id, including soft-deleted users.
func (s *Storage) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.findOne(ctx, "mongo.GetByID", bson.D{{Key: "_id", Value: id}}, id)
}

func (s *Storage) findOne(ctx context.Context, op string, filter bson.D, key string) (*model.User, error) {
	var doc userDocument
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, apperror.NotFound("user", key)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return doc.toModel(), nil
}

// TouchLastActive records a successful login.
func (s *Storage) TouchLastActive(ctx context.Context, id string, at time.Time) error {
	return s.set(ctx, "mongo.TouchLastActive", id, bson.D{{Key: "last_active_at", Value: toMS(at)}})
}

// SoftDelete flags the user as deleted.
func (s *Storage) SoftDelete(ctx context.Context, id string) error {
	return s.set(ctx, "mongo.SoftDelete", id, bson.D{
		{Key: "is_deleted", Value: true},
		{Key: "updated_at", Value: toMS(time.Now())},
	})
}

func (s *Storage) set(ctx context.Context, op, id string, fields bson.D) error {
	res, err := s.users.UpdateByID(ctx, id, bson.D{{Key: "$set", Value: fields}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// UpdateProfile applies the patch atomically and returns the new document.
func (s *Storage) UpdateProfile(ctx context.Context, id string, p model.ProfilePatch) (*model.User, error) {
	const op = "mongo.UpdateProfile"

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	err := s.users.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, updateDocument(p, time.Now()), opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}

	return doc.toModel(), nil
}

// updateDocument builds the $set stage for a patch. updated_at is always set.
func updateDocument(p model.ProfilePatch, now time.Time) bson.D {
	set := bson.D{}
	for _, a := range repository.Assignments(p) {
		set = append(set, bson.E{Key: a.Column, Value: a.Value})
	}
	set = append(set, bson.E{Key: "updated_at", Value: toMS(now)})

	return bson.D{{Key: "$set", Value: set}}
}

// translate maps a duplicate key error on a known index to a duplicate
// error naming the field.
func translate(err error) error {
	if !mongodriver.IsDuplicateKeyError(err) {
		return err
	}
	if field := duplicateField(err.Error()); field != "" {
		return apperror.Duplicate(field)
	}
	return err
}

// duplicateField extracts the field from a server message such as
// "E11000 duplicate key error collection: dating.users index: email_unique dup key: ...".
// The offending value follows "dup key:" and is never matched against.
func duplicateField(msg string) string {
	msg, _, _ = strings.Cut(msg, " dup key:")
	switch {
	case strings.Contains(msg, "index: "+emailIndex):
		return "email"
	case strings.Contains(msg, "index: "+nicknameIndex):
		return "nickname"
	default:
		return ""
	}
}
