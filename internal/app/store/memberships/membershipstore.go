// internal/app/store/memberships/membershipstore.go
package membershipstore

// Terminology: User Identifiers
//   - UserID / user_id: the stable subject identifier assigned by the
//     identity provider. This is the only trusted authorization key.
//   - UserEmail / user_email: denormalized display/invite data. Legacy
//     records were keyed by email; see the legacy collection below.

import (
	"context"
	"errors"
	"time"

	"github.com/inkwellhq/inkwell/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var errBadRole = errors.New(`role must be "owner" or "editor"`)

// Store manages room memberships and the legacy email-keyed records.
type Store struct {
	c      *mongo.Collection
	legacy *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:      db.Collection("memberships"),
		legacy: db.Collection("legacy_memberships"),
	}
}

// EnsureIndexes creates the uniqueness and lookup indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		// One membership per (user, room).
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "room_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_memberships_user_room"),
		},
		// Room-wide queries (owner existence, member list, delete-by-room).
		{
			Keys:    bson.D{{Key: "room_id", Value: 1}, {Key: "role", Value: 1}},
			Options: options.Index().SetName("idx_memberships_room_role"),
		},
	})
	if err != nil {
		return err
	}
	_, err = s.legacy.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_email", Value: 1}, {Key: "room_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_legacy_email_room"),
		},
	})
	return err
}

// Get loads the membership for (userID, roomID).
// Returns mongo.ErrNoDocuments when none exists.
func (s *Store) Get(ctx context.Context, userID, roomID string) (*models.RoomMembership, error) {
	var m models.RoomMembership
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID, "room_id": roomID}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// HasMembership reports whether userID has any membership on roomID,
// regardless of role. Both owner and editor suffice for a room join.
func (s *Store) HasMembership(ctx context.Context, userID, roomID string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"user_id": userID, "room_id": roomID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ForUser returns all memberships for a user, newest room first.
func (s *Store) ForUser(ctx context.Context, userID string) ([]models.RoomMembership, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.RoomMembership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ForRoom returns all memberships on a room.
func (s *Store) ForRoom(ctx context.Context, roomID string) ([]models.RoomMembership, error) {
	cur, err := s.c.Find(ctx, bson.M{"room_id": roomID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.RoomMembership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OwnerExists reports whether roomID has at least one owner membership.
// This is the hot path of the owner self-heal and must stay a single
// limited count.
func (s *Store) OwnerExists(ctx context.Context, roomID string) (bool, error) {
	n, err := s.c.CountDocuments(ctx,
		bson.M{"room_id": roomID, "role": models.RoleOwner},
		options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountOwners returns the number of owner memberships on a room.
func (s *Store) CountOwners(ctx context.Context, roomID string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"room_id": roomID, "role": models.RoleOwner})
}

// Upsert merge-writes a membership keyed by (user_id, room_id). Existing
// fields not present in m are left alone; created_at is only set on insert.
func (s *Store) Upsert(ctx context.Context, m models.RoomMembership) error {
	if !models.IsValidRole(m.Role) {
		return errBadRole
	}
	now := time.Now().UTC()
	set := bson.M{
		"role":       m.Role,
		"updated_at": now,
	}
	if m.UserEmail != "" {
		set["user_email"] = m.UserEmail
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"user_id": m.UserID, "room_id": m.RoomID},
		bson.M{
			"$set":         set,
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true))
	return err
}

// SetRole updates the role on an existing membership in place. Other fields
// are untouched. Returns mongo.ErrNoDocuments if the membership is absent.
func (s *Store) SetRole(ctx context.Context, userID, roomID, role string) error {
	if !models.IsValidRole(role) {
		return errBadRole
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"user_id": userID, "room_id": roomID},
		bson.M{"$set": bson.M{"role": role, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes the membership for (userID, roomID).
func (s *Store) Delete(ctx context.Context, userID, roomID string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"user_id": userID, "room_id": roomID})
	return err
}

// DeleteByRoom removes every membership on a room. Used by document
// deletion so no orphaned memberships remain.
func (s *Store) DeleteByRoom(ctx context.Context, roomID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"room_id": roomID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Legacy email-keyed records                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// CountLegacy returns how many legacy records remain for an email.
func (s *Store) CountLegacy(ctx context.Context, email string) (int64, error) {
	return s.legacy.CountDocuments(ctx, bson.M{"user_email": email})
}

// LegacyPage reads up to limit legacy records for email, in _id order,
// starting after the given cursor (use primitive.NilObjectID to start from
// the beginning). The _id ordering makes the migration resumable.
func (s *Store) LegacyPage(ctx context.Context, email string, after primitive.ObjectID, limit int) ([]models.LegacyMembership, error) {
	filter := bson.M{"user_email": email}
	if !after.IsZero() {
		filter["_id"] = bson.M{"$gt": after}
	}
	cur, err := s.legacy.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.LegacyMembership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// InsertLegacy writes a legacy email-keyed record. Only the fixtures and
// earlier system versions produce these.
func (s *Store) InsertLegacy(ctx context.Context, rec models.LegacyMembership) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.legacy.InsertOne(ctx, rec)
	return err
}

// MigrateBatch applies one migration batch: merge-upsert the stable-id
// records, then delete the legacy records. The merge never downgrades an
// existing stable membership's role. The two bulk writes commit
// sequentially, not atomically — a crash in between leaves legacy records
// behind, which the next run re-migrates (the upsert is idempotent).
func (s *Store) MigrateBatch(ctx context.Context, userID, email string, recs []models.LegacyMembership) error {
	if len(recs) == 0 {
		return nil
	}
	now := time.Now().UTC()

	upserts := make([]mongo.WriteModel, 0, len(recs))
	for _, rec := range recs {
		role := rec.Role
		if !models.IsValidRole(role) {
			role = models.RoleEditor
		}
		upserts = append(upserts, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"user_id": userID, "room_id": rec.RoomID}).
			SetUpdate(bson.A{
				bson.M{"$set": bson.M{
					"user_email": email,
					"role":       bson.M{"$ifNull": bson.A{"$role", role}},
					"created_at": bson.M{"$ifNull": bson.A{"$created_at", rec.CreatedAt}},
					"updated_at": now,
				}},
			}).
			SetUpsert(true))
	}
	if _, err := s.c.BulkWrite(ctx, upserts, options.BulkWrite().SetOrdered(true)); err != nil {
		return err
	}

	deletes := make([]mongo.WriteModel, 0, len(recs))
	for _, rec := range recs {
		deletes = append(deletes, mongo.NewDeleteOneModel().SetFilter(bson.M{"_id": rec.ID}))
	}
	_, err := s.legacy.BulkWrite(ctx, deletes, options.BulkWrite().SetOrdered(true))
	return err
}
