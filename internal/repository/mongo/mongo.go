// Package mongo implements the repository interfaces on MongoDB.
//
// Uniqueness of email and nickname comes from two unique indexes created at
// startup; a violation surfaces as a duplicate key error that names the
// index, which is mapped back to the request field.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection = "users"

	emailIndex    = "email_unique"
	nicknameIndex = "nickname_unique"
)

// Storage is a thin adapter over a Mongo client and the users collection.
type Storage struct {
	client *mongodriver.Client
	users  *mongodriver.Collection
}

// New connects to MongoDB, pings the primary and ensures the indexes exist.
func New(ctx context.Context, uri, dbName string) (*Storage, error) {
	const op = "mongo.New"

	if uri == "" {
		return nil, fmt.Errorf("%s: empty uri", op)
	}
	if dbName == "" {
		return nil, fmt.Errorf("%s: empty database name", op)
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%s: connect: %w", op, err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	s := &Storage{
		client: cli,
		users:  cli.Database(dbName).Collection(usersCollection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s, nil
}

// Close disconnects the client.
func (s *Storage) Close() error {
	return s.client.Disconnect(context.Background())
}

// ensureIndexes creates the unique indexes on email and nickname.
// CreateMany is idempotent for identical definitions.
func (s *Storage) ensureIndexes(ctx context.Context) error {
	models := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(emailIndex).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "nickname", Value: 1}},
			Options: options.Index().SetName(nicknameIndex).SetUnique(true),
		},
	}

	if _, err := s.users.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	return nil
}
