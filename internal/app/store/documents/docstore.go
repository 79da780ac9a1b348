// internal/app/store/documents/docstore.go
package docstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/inkwellhq/inkwell/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateRoomID is returned when a document with the same room id
// already exists.
var ErrDuplicateRoomID = errors.New("duplicate room id")

// Store wraps the documents collection. A document's _id is its room
// identifier; the document and its real-time room are the same thing.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("documents")}
}

// EnsureIndexes creates the published-listing index. The primary key is the
// room id itself, so no extra lookup index is needed for Get.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "published", Value: 1}, {Key: "updated_at", Value: -1}},
		Options: options.Index().SetName("idx_documents_published"),
	})
	return err
}

// Get loads a document by room id. Returns mongo.ErrNoDocuments when absent.
func (s *Store) Get(ctx context.Context, roomID string) (*models.Document, error) {
	var d models.Document
	if err := s.c.FindOne(ctx, bson.M{"_id": roomID}).Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Exists reports whether a document with the given room id exists.
func (s *Store) Exists(ctx context.Context, roomID string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": roomID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Insert writes a new document. The caller supplies the room id.
func (s *Store) Insert(ctx context.Context, d models.Document) error {
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = now
	}
	_, err := s.c.InsertOne(ctx, d)
	if wafflemongo.IsDup(err) {
		return ErrDuplicateRoomID
	}
	return err
}

// Delete removes a document by room id.
// Returns mongo.ErrNoDocuments when nothing was deleted.
func (s *Store) Delete(ctx context.Context, roomID string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": roomID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// UpdateMeta sets the document's display fields. Empty strings clear a field
// on purpose (removing an icon or cover is a real operation).
func (s *Store) UpdateMeta(ctx context.Context, roomID, title, icon, cover string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": roomID},
		bson.M{"$set": bson.M{
			"title":      title,
			"icon":       icon,
			"cover":      cover,
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetPublished flips the public visibility flag.
func (s *Store) SetPublished(ctx context.Context, roomID string, published bool) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": roomID},
		bson.M{"$set": bson.M{"published": published, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListByRoomIDs returns the documents for the given room ids, most recently
// updated first. Room lists come from the user's memberships and are small,
// so this is a single unpaged query.
func (s *Store) ListByRoomIDs(ctx context.Context, roomIDs []string) ([]models.Document, error) {
	if len(roomIDs) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx,
		bson.M{"_id": bson.M{"$in": roomIDs}},
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Document
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
