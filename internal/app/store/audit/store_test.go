package audit_test

import (
	"testing"

	"github.com/inkwellhq/inkwell/internal/app/store/audit"
	"github.com/inkwellhq/inkwell/internal/testutil"
)

func TestLogAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	events := []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventSessionExchangeSuccess, Subject: "user_a", Success: true},
		{Category: audit.CategoryRoom, EventType: audit.EventRoomCreated, ActorSubject: "user_a", RoomID: "room-1", Success: true},
		{Category: audit.CategoryRoom, EventType: audit.EventRoomJoinDenied, Subject: "user_b", RoomID: "room-1", Success: false},
	}
	for _, ev := range events {
		if err := store.Log(ctx, ev); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	got, err := store.Query(ctx, audit.QueryFilter{RoomID: "room-1"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("room-1 events = %d, want 2", len(got))
	}

	got, err = store.Query(ctx, audit.QueryFilter{Category: audit.CategoryAuth})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 || got[0].Subject != "user_a" {
		t.Errorf("unexpected auth events: %+v", got)
	}
}
