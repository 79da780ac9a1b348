// internal/app/store/aichats/chatstore.go
package chatstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Message roles in a document assistant conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a per-document assistant conversation.
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	RoomID    string             `bson:"room_id"`
	Subject   string             `bson:"subject"`
	Role      string             `bson:"role"`
	Content   string             `bson:"content"`
	Model     string             `bson:"model,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}

// Store persists assistant conversations per document and user.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("ai_chats")}
}

// EnsureIndexes creates the history lookup index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "room_id", Value: 1},
			{Key: "subject", Value: 1},
			{Key: "created_at", Value: 1},
		},
		Options: options.Index().SetName("idx_aichats_room_subject"),
	})
	return err
}

// Append stores one conversation turn.
func (s *Store) Append(ctx context.Context, m Message) error {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, m)
	return err
}

// History returns the most recent turns for (roomID, subject) in
// chronological order, capped at limit.
func (s *Store) History(ctx context.Context, roomID, subject string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 20
	}
	cur, err := s.c.Find(ctx,
		bson.M{"room_id": roomID, "subject": subject},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var newestFirst []Message
	if err := cur.All(ctx, &newestFirst); err != nil {
		return nil, err
	}
	for i, j := 0, len(newestFirst)-1; i < j; i, j = i+1, j-1 {
		newestFirst[i], newestFirst[j] = newestFirst[j], newestFirst[i]
	}
	return newestFirst, nil
}

// DeleteByRoom removes every conversation turn for a room. Called when the
// document is deleted.
func (s *Store) DeleteByRoom(ctx context.Context, roomID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"room_id": roomID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
