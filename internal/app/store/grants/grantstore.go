// internal/app/store/grants/grantstore.go
package grantstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// Grant records an issued room capability. The real-time layer can confirm
// a grant out of band with the confirmation secret; only a bcrypt hash of
// the secret is stored, so the collection is useless to an attacker.
type Grant struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Subject    string             `bson:"subject"`
	RoomID     string             `bson:"room_id"`
	SecretHash []byte             `bson:"secret_hash"`
	IssuedAt   time.Time          `bson:"issued_at"`
	ExpiresAt  time.Time          `bson:"expires_at"`
}

// Store manages the room grant log.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("grants")}
}

// EnsureIndexes creates lookup and TTL indexes. Expired grants disappear on
// their own; the log only needs to cover live capabilities.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "subject", Value: 1},
				{Key: "room_id", Value: 1},
				{Key: "issued_at", Value: -1},
			},
			Options: options.Index().SetName("idx_grants_subject_room"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_grants_ttl"),
		},
	})
	return err
}

// Record logs a granted room capability and returns the grant id plus the
// one-time confirmation secret. The secret is not stored in clear.
func (s *Store) Record(ctx context.Context, subject, roomID string, expiresAt time.Time) (primitive.ObjectID, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return primitive.NilObjectID, "", err
	}
	secret := hex.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return primitive.NilObjectID, "", err
	}

	g := Grant{
		ID:         primitive.NewObjectID(),
		Subject:    subject,
		RoomID:     roomID,
		SecretHash: hash,
		IssuedAt:   time.Now().UTC(),
		ExpiresAt:  expiresAt,
	}
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		return primitive.NilObjectID, "", err
	}
	return g.ID, secret, nil
}

// Confirm checks a (grant id, secret) pair against the log and returns the
// matching grant. Unknown and expired grants and secret mismatches all come
// back nil without an error.
func (s *Store) Confirm(ctx context.Context, id primitive.ObjectID, secret string) (*Grant, error) {
	var g Grant
	err := s.c.FindOne(ctx, bson.M{
		"_id":        id,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&g)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword(g.SecretHash, []byte(secret)) != nil {
		return nil, nil
	}
	return &g, nil
}

// ForSubject returns a subject's live grants, newest first.
func (s *Store) ForSubject(ctx context.Context, subject string) ([]Grant, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"subject": subject, "expires_at": bson.M{"$gt": time.Now().UTC()}},
		options.Find().SetSort(bson.D{{Key: "issued_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Grant
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
