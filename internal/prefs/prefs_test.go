package prefs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"moneta/internal/events"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "moneta.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConsumeOnboardingAtMostOnce(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	pending, err := s.ConsumeOnboarding(ctx, "alice")
	if err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if !pending {
		t.Fatal("first consume = false, want onboarding pending for a new owner")
	}

	pending, err = s.ConsumeOnboarding(ctx, "alice")
	if err != nil {
		t.Fatalf("second consume: %v", err)
	}
	if pending {
		t.Fatal("second consume = true, want the flag cleared by the first call")
	}

	// Other owners are unaffected.
	pending, err = s.ConsumeOnboarding(ctx, "bob")
	if err != nil {
		t.Fatalf("other owner consume: %v", err)
	}
	if !pending {
		t.Fatal("other owner's flag consumed by alice")
	}
}

func TestResetOnboardingReArmsFlag(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if _, err := s.ConsumeOnboarding(ctx, "alice"); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if err := s.ResetOnboarding(ctx, "alice"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	pending, err := s.ConsumeOnboarding(ctx, "alice")
	if err != nil {
		t.Fatalf("consume after reset: %v", err)
	}
	if !pending {
		t.Fatal("flag not re-armed by reset")
	}
}

func TestActivityLogRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	for i, op := range []events.Op{events.OpCreated, events.OpUpdated, events.OpDeleted} {
		ev := events.EntityEvent{
			Entity:     "transaction",
			ID:         "tx-1",
			Op:         op,
			OwnerID:    "alice",
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.RecordActivity(ctx, ev); err != nil {
			t.Fatalf("record %s: %v", op, err)
		}
	}
	if err := s.RecordActivity(ctx, events.EntityEvent{
		Entity: "account", ID: "acc-1", Op: events.OpCreated,
		OwnerID: "bob", OccurredAt: base,
	}); err != nil {
		t.Fatalf("record other owner: %v", err)
	}

	entries, err := s.RecentActivity(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("RecentActivity: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3 scoped to alice", len(entries))
	}
	if entries[0].Op != string(events.OpDeleted) {
		t.Fatalf("first entry op = %q, want newest first", entries[0].Op)
	}
	if !entries[0].OccurredAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("OccurredAt = %v", entries[0].OccurredAt)
	}

	limited, err := s.RecentActivity(ctx, "alice", 2)
	if err != nil {
		t.Fatalf("RecentActivity limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("got %d entries, want limit respected", len(limited))
	}
}
