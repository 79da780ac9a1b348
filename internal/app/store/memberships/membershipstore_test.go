package membershipstore_test

import (
	"errors"
	"testing"

	membershipstore "github.com/inkwellhq/inkwell/internal/app/store/memberships"
	"github.com/inkwellhq/inkwell/internal/domain/models"
	"github.com/inkwellhq/inkwell/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestUpsertAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.Upsert(ctx, models.RoomMembership{
		UserID:    "user_a",
		RoomID:    "room-1",
		UserEmail: "a@test.com",
		Role:      models.RoleEditor,
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	m, err := store.Get(ctx, "user_a", "room-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if m.Role != models.RoleEditor || m.UserEmail != "a@test.com" {
		t.Errorf("unexpected membership: %+v", m)
	}
	created := m.CreatedAt

	// Second upsert merges rather than duplicating, and keeps created_at.
	err = store.Upsert(ctx, models.RoomMembership{
		UserID: "user_a",
		RoomID: "room-1",
		Role:   models.RoleOwner,
	})
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	m, err = store.Get(ctx, "user_a", "room-1")
	if err != nil {
		t.Fatalf("Get after merge failed: %v", err)
	}
	if m.Role != models.RoleOwner {
		t.Errorf("role = %q, want owner", m.Role)
	}
	if m.UserEmail != "a@test.com" {
		t.Errorf("email was lost in merge: %q", m.UserEmail)
	}
	if !m.CreatedAt.Equal(created) {
		t.Errorf("created_at changed on merge")
	}

	all, err := store.ForRoom(ctx, "room-1")
	if err != nil {
		t.Fatalf("ForRoom failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 membership, got %d", len(all))
	}
}

func TestUpsert_RejectsUnknownRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.Upsert(ctx, models.RoomMembership{UserID: "u", RoomID: "r", Role: "superadmin"})
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestGet_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Get(ctx, "user_a", "room-absent")
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
}

func TestOwnerExists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f.CreateMembership(ctx, "user_a", "room-1", models.RoleEditor)

	ok, err := store.OwnerExists(ctx, "room-1")
	if err != nil {
		t.Fatalf("OwnerExists failed: %v", err)
	}
	if ok {
		t.Error("room with only an editor must not report an owner")
	}

	f.CreateMembership(ctx, "user_b", "room-1", models.RoleOwner)
	ok, err = store.OwnerExists(ctx, "room-1")
	if err != nil {
		t.Fatalf("OwnerExists failed: %v", err)
	}
	if !ok {
		t.Error("expected owner to be reported")
	}
}

func TestSetRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f.CreateMembership(ctx, "user_a", "room-1", models.RoleEditor)

	if err := store.SetRole(ctx, "user_a", "room-1", models.RoleOwner); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}
	m, _ := store.Get(ctx, "user_a", "room-1")
	if m.Role != models.RoleOwner {
		t.Errorf("role = %q, want owner", m.Role)
	}

	if err := store.SetRole(ctx, "user_missing", "room-1", models.RoleOwner); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments for absent membership, got %v", err)
	}
}

func TestDeleteByRoom(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f.CreateMembership(ctx, "user_a", "room-1", models.RoleOwner)
	f.CreateMembership(ctx, "user_b", "room-1", models.RoleEditor)
	f.CreateMembership(ctx, "user_a", "room-2", models.RoleOwner)

	n, err := store.DeleteByRoom(ctx, "room-1")
	if err != nil {
		t.Fatalf("DeleteByRoom failed: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}

	left, _ := store.ForUser(ctx, "user_a")
	if len(left) != 1 || left[0].RoomID != "room-2" {
		t.Errorf("unexpected remaining memberships: %+v", left)
	}
}

func TestLegacyPage_CursorOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 5; i++ {
		f.CreateLegacyMembership(ctx, "a@test.com", roomID(i), models.RoleEditor)
	}
	f.CreateLegacyMembership(ctx, "other@test.com", "room-x", models.RoleEditor)

	page1, err := store.LegacyPage(ctx, "a@test.com", primitive.NilObjectID, 3)
	if err != nil {
		t.Fatalf("LegacyPage failed: %v", err)
	}
	if len(page1) != 3 {
		t.Fatalf("page1 len = %d, want 3", len(page1))
	}

	page2, err := store.LegacyPage(ctx, "a@test.com", page1[2].ID, 3)
	if err != nil {
		t.Fatalf("LegacyPage (resume) failed: %v", err)
	}
	if len(page2) != 2 {
		t.Fatalf("page2 len = %d, want 2", len(page2))
	}

	seen := map[string]bool{}
	for _, rec := range append(page1, page2...) {
		if seen[rec.RoomID] {
			t.Errorf("room %s appeared twice across pages", rec.RoomID)
		}
		seen[rec.RoomID] = true
	}
}

func TestMigrateBatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	recs := []models.LegacyMembership{
		f.CreateLegacyMembership(ctx, "a@test.com", "room-1", models.RoleOwner),
		f.CreateLegacyMembership(ctx, "a@test.com", "room-2", models.RoleEditor),
	}

	if err := store.MigrateBatch(ctx, "user_a", "a@test.com", recs); err != nil {
		t.Fatalf("MigrateBatch failed: %v", err)
	}

	m, err := store.Get(ctx, "user_a", "room-1")
	if err != nil {
		t.Fatalf("migrated membership missing: %v", err)
	}
	if m.Role != models.RoleOwner {
		t.Errorf("role = %q, want owner", m.Role)
	}

	n, _ := store.CountLegacy(ctx, "a@test.com")
	if n != 0 {
		t.Errorf("legacy records remaining = %d, want 0", n)
	}

	// Re-running the same batch is a no-op merge, not an error.
	if err := store.MigrateBatch(ctx, "user_a", "a@test.com", recs); err != nil {
		t.Fatalf("re-run MigrateBatch failed: %v", err)
	}
}

func TestMigrateBatch_DoesNotDowngradeExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f.CreateMembership(ctx, "user_a", "room-1", models.RoleOwner)
	rec := f.CreateLegacyMembership(ctx, "a@test.com", "room-1", models.RoleEditor)

	if err := store.MigrateBatch(ctx, "user_a", "a@test.com", []models.LegacyMembership{rec}); err != nil {
		t.Fatalf("MigrateBatch failed: %v", err)
	}

	all, _ := store.ForUser(ctx, "user_a")
	if len(all) != 1 {
		t.Fatalf("expected a single merged membership, got %d", len(all))
	}
}

func roomID(i int) string {
	return string(rune('a'+i)) + "-room"
}
