package session

import (
	"context"
	"testing"
	"time"

	"clonedirect/internal/domain"
)

func TestGetOrCreateReturnsFreshSession(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	s, err := store.GetOrCreate(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.UserID != "u1" {
		t.Fatalf("expected user id u1, got %q", s.UserID)
	}
	if s.AgeConfirmed || s.Stage != domain.StageUnconfirmedAge {
		t.Fatalf("expected unconfirmed fresh session, got stage %q confirmed=%v", s.Stage, s.AgeConfirmed)
	}
}

func TestSaveRoundTripsAndIsolatesCaller(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	s, _ := store.GetOrCreate(ctx, "u1")
	s.AgeConfirmed = true
	s.Stage = domain.StageBrowsing
	s.AddLine("apple-fritter", 2)
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating the caller's copy after save must not leak into the store.
	s.Cart[0].Quantity = 99

	got, err := store.GetOrCreate(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.AgeConfirmed || got.Stage != domain.StageBrowsing {
		t.Fatalf("expected saved state back, got %+v", got)
	}
	if len(got.Cart) != 1 || got.Cart[0].Quantity != 2 {
		t.Fatalf("expected cart line quantity 2, got %+v", got.Cart)
	}
}

func TestDeleteRemovesSession(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	s, _ := store.GetOrCreate(ctx, "u1")
	s.AgeConfirmed = true
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, _ := store.GetOrCreate(ctx, "u1")
	if got.AgeConfirmed {
		t.Fatalf("expected fresh session after delete, got %+v", got)
	}
}

func TestDeleteIdleHonorsThresholdBoundary(t *testing.T) {
	store := NewMemory().(*memoryStore)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store.now = func() time.Time { return base.Add(-61 * time.Minute) }
	stale, _ := store.GetOrCreate(ctx, "stale")
	if err := store.Save(ctx, stale); err != nil {
		t.Fatalf("save stale: %v", err)
	}

	store.now = func() time.Time { return base.Add(-59 * time.Minute) }
	active, _ := store.GetOrCreate(ctx, "active")
	if err := store.Save(ctx, active); err != nil {
		t.Fatalf("save active: %v", err)
	}

	removed, err := store.DeleteIdle(ctx, base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("delete idle: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 session reaped, got %d", removed)
	}
	if _, ok := store.sessions["stale"]; ok {
		t.Fatalf("expected stale session gone")
	}
	if _, ok := store.sessions["active"]; !ok {
		t.Fatalf("expected active session kept")
	}
}
