// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/inkwellhq/inkwell/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user keyed by the given subject.
func (f *Fixtures) CreateUser(ctx context.Context, subject, fullName, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Subject:   subject,
		Email:     email,
		FullName:  fullName,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateDocument creates a test document (room) owned by creatorSubject,
// including the owner membership. Returns the document.
func (f *Fixtures) CreateDocument(ctx context.Context, creatorSubject, title string) models.Document {
	f.t.Helper()

	now := time.Now().UTC()
	doc := models.Document{
		RoomID:    uuid.NewString(),
		Title:     title,
		CreatedBy: creatorSubject,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("documents").InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to create test document: %v", err)
	}
	f.CreateMembership(ctx, creatorSubject, doc.RoomID, models.RoleOwner)

	return doc
}

// CreateOwnerlessDocument creates a document with no memberships at all.
// Used by the owner self-heal tests.
func (f *Fixtures) CreateOwnerlessDocument(ctx context.Context, title string) models.Document {
	f.t.Helper()

	now := time.Now().UTC()
	doc := models.Document{
		RoomID:    uuid.NewString(),
		Title:     title,
		CreatedBy: "user_departed",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("documents").InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to create test document: %v", err)
	}

	return doc
}

// CreateMembership creates a membership row for (subject, roomID).
func (f *Fixtures) CreateMembership(ctx context.Context, subject, roomID, role string) models.RoomMembership {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.RoomMembership{
		ID:        primitive.NewObjectID(),
		RoomID:    roomID,
		UserID:    subject,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}

	return m
}

// CreateLegacyMembership creates an email-keyed legacy membership record.
func (f *Fixtures) CreateLegacyMembership(ctx context.Context, email, roomID, role string) models.LegacyMembership {
	f.t.Helper()

	rec := models.LegacyMembership{
		ID:        primitive.NewObjectID(),
		RoomID:    roomID,
		UserEmail: email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("legacy_memberships").InsertOne(ctx, rec); err != nil {
		f.t.Fatalf("failed to create legacy membership: %v", err)
	}

	return rec
}
