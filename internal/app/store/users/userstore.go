// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"time"

	"github.com/inkwellhq/inkwell/internal/app/system/inputval"
	"github.com/inkwellhq/inkwell/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store wraps the users collection. Users are keyed by the stable subject
// identifier from the identity provider; email is display and invite data.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// EnsureIndexes creates the subject and email lookup indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "subject", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_users_subject"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_users_email"),
		},
	})
	return err
}

// UpsertBySubject records the user's latest profile data on each session
// exchange. Missing profile fields never blank out previously stored values.
func (s *Store) UpsertBySubject(ctx context.Context, subject, email, fullName, avatarURL string) (*models.User, error) {
	now := time.Now().UTC()
	set := bson.M{
		"status":     "active",
		"updated_at": now,
	}
	if email != "" {
		set["email"] = inputval.NormalizeEmail(email)
	}
	if fullName != "" {
		set["full_name"] = fullName
	}
	if avatarURL != "" {
		set["avatar_url"] = avatarURL
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"subject": subject},
		bson.M{
			"$set":         set,
			"$setOnInsert": bson.M{"created_at": now},
		},
		opts).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetBySubject loads a user by stable identifier.
// Returns mongo.ErrNoDocuments when absent.
func (s *Store) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"subject": subject}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail loads a user by normalized email. Emails are not unique in
// principle (a provider merge can leave duplicates), so this returns the
// earliest created match.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx,
		bson.M{"email": inputval.NormalizeEmail(email)},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
