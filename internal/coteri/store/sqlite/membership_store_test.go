package sqlite_test

import (
	"context"
	"testing"
	"time"

	sqlitestore "github.com/coteri/server/internal/coteri/store/sqlite"
)

func TestMembershipStore_GetByIDAndVenue(t *testing.T) {
	conn := openTestDB(t)
	seedVenue(t, conn, "v1", "Venue One")
	expires := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	seedMembership(t, conn, "m1", "u1", "v1", "active", "gold", &expires)

	ms := sqlitestore.NewMembershipStore(conn)

	rec, err := ms.GetByIDAndVenue(context.Background(), "m1", "v1")
	if err != nil {
		t.Fatalf("GetByIDAndVenue: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a membership record")
	}
	if rec.ID != "m1" || rec.UserID != "u1" || rec.VenueID != "v1" {
		t.Errorf("unexpected identity fields: %+v", rec)
	}
	if rec.Status != "active" || rec.Tier != "gold" {
		t.Errorf("unexpected attributes: %+v", rec)
	}
	if rec.ExpiresAt == nil || !rec.ExpiresAt.Equal(expires) {
		t.Errorf("expected expiry %v, got %v", expires, rec.ExpiresAt)
	}
}

func TestMembershipStore_NullExpiry(t *testing.T) {
	conn := openTestDB(t)
	seedVenue(t, conn, "v1", "Venue One")
	seedMembership(t, conn, "m1", "u1", "v1", "active", "", nil)

	ms := sqlitestore.NewMembershipStore(conn)

	rec, err := ms.GetByIDAndVenue(context.Background(), "m1", "v1")
	if err != nil {
		t.Fatalf("GetByIDAndVenue: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a membership record")
	}
	if rec.ExpiresAt != nil {
		t.Errorf("expected nil expiry, got %v", rec.ExpiresAt)
	}
}

func TestMembershipStore_VenueScoping(t *testing.T) {
	conn := openTestDB(t)
	seedVenue(t, conn, "v1", "Venue One")
	seedVenue(t, conn, "v2", "Venue Two")
	seedMembership(t, conn, "m1", "u1", "v1", "active", "gold", nil)

	ms := sqlitestore.NewMembershipStore(conn)
	ctx := context.Background()

	// The membership exists, but not at v2 — the scoped query must miss.
	rec, err := ms.GetByIDAndVenue(ctx, "m1", "v2")
	if err != nil {
		t.Fatalf("GetByIDAndVenue: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil for cross-venue lookup, got %+v", rec)
	}

	rec, err = ms.GetByUserAndVenue(ctx, "u1", "v2")
	if err != nil {
		t.Fatalf("GetByUserAndVenue: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil for cross-venue user lookup, got %+v", rec)
	}
}

func TestMembershipStore_GetByUserAndVenue(t *testing.T) {
	conn := openTestDB(t)
	seedVenue(t, conn, "v1", "Venue One")
	seedMembership(t, conn, "m1", "u1", "v1", "active", "silver", nil)

	ms := sqlitestore.NewMembershipStore(conn)

	rec, err := ms.GetByUserAndVenue(context.Background(), "u1", "v1")
	if err != nil {
		t.Fatalf("GetByUserAndVenue: %v", err)
	}
	if rec == nil || rec.ID != "m1" {
		t.Fatalf("expected m1, got %+v", rec)
	}
}

func TestMembershipStore_NotFound(t *testing.T) {
	conn := openTestDB(t)
	seedVenue(t, conn, "v1", "Venue One")

	ms := sqlitestore.NewMembershipStore(conn)
	ctx := context.Background()

	rec, err := ms.GetByIDAndVenue(ctx, "missing", "v1")
	if err != nil {
		t.Fatalf("GetByIDAndVenue: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil for unknown id, got %+v", rec)
	}

	// Blank keys are normal hostile input, not errors.
	rec, err = ms.GetByIDAndVenue(ctx, "", "v1")
	if err != nil || rec != nil {
		t.Errorf("expected nil, nil for blank id, got %+v, %v", rec, err)
	}
}

func TestVenueStore_GetName(t *testing.T) {
	conn := openTestDB(t)
	seedVenue(t, conn, "v1", "The Starry Plough")

	vs := sqlitestore.NewVenueStore(conn)
	ctx := context.Background()

	name, err := vs.GetName(ctx, "v1")
	if err != nil {
		t.Fatalf("GetName: %v", err)
	}
	if name != "The Starry Plough" {
		t.Errorf("expected venue name, got %q", name)
	}

	name, err = vs.GetName(ctx, "missing")
	if err != nil {
		t.Fatalf("GetName missing: %v", err)
	}
	if name != "" {
		t.Errorf("expected empty name for unknown venue, got %q", name)
	}
}
