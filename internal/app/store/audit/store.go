// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth = "auth"
	CategoryRoom = "room"
)

// Auth event types
const (
	EventSessionExchangeSuccess = "session_exchange_success"
	EventSessionExchangeFailed  = "session_exchange_failed"
	EventOAuthLogin             = "oauth_login"
	EventLogout                 = "logout"
	EventLegacyMigrated         = "legacy_migrated"
)

// Room event types
const (
	EventRoomCreated     = "room_created"
	EventRoomDeleted     = "room_deleted"
	EventUserInvited     = "user_invited"
	EventUserRemoved     = "user_removed"
	EventRoleChanged     = "role_changed"
	EventRoomPublished   = "room_published"
	EventRoomUnpublished = "room_unpublished"
	EventOwnerHealed     = "owner_healed"
	EventRoomJoinDenied  = "room_join_denied"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`

	// Event classification
	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// Who: stable subject identifiers from the identity provider.
	Subject      string `bson:"subject,omitempty"`       // affected user
	ActorSubject string `bson:"actor_subject,omitempty"` // who performed the action

	// Where
	RoomID string `bson:"room_id,omitempty"`

	// Context
	IP        string `bson:"ip"`
	UserAgent string `bson:"user_agent,omitempty"`

	// Outcome
	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	// Additional details (varies by event type)
	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	Subject   string
	RoomID    string
	Category  string
	EventType string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// EnsureIndexes creates necessary indexes for efficient querying.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// Query by time range (most recent first)
		{
			Keys: bson.D{{Key: "timestamp", Value: -1}},
		},
		// Query by subject
		{
			Keys: bson.D{
				{Key: "subject", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		// Query by room
		{
			Keys: bson.D{
				{Key: "room_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		// Query by event type
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query returns events matching the filter, most recent first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	q := bson.M{}
	if filter.Subject != "" {
		q["subject"] = filter.Subject
	}
	if filter.RoomID != "" {
		q["room_id"] = filter.RoomID
	}
	if filter.Category != "" {
		q["category"] = filter.Category
	}
	if filter.EventType != "" {
		q["event_type"] = filter.EventType
	}
	if filter.StartTime != nil || filter.EndTime != nil {
		rng := bson.M{}
		if filter.StartTime != nil {
			rng["$gte"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			rng["$lte"] = *filter.EndTime
		}
		q["timestamp"] = rng
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	cur, err := s.c.Find(ctx, q, options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(filter.Offset).
		SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
