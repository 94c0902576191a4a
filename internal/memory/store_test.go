package memory

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func entryAt(session string, i int, ts time.Time) Entry {
	return Entry{
		SessionID: session,
		Role:      RoleUser,
		Content:   fmt.Sprintf("wpis %d", i),
		Timestamp: ts,
	}
}

func TestInProcessStoreCapsPerSession(t *testing.T) {
	t.Parallel()

	store := NewInProcessStore(3)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := store.Append(ctx, entryAt("s1", i, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	entries, err := store.Recent(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("cap not applied, got %d entries", len(entries))
	}
	if entries[0].Content != "wpis 2" || entries[2].Content != "wpis 4" {
		t.Fatalf("oldest entries should be dropped first: %+v", entries)
	}
}

func TestInProcessStoreRecentLimit(t *testing.T) {
	t.Parallel()

	store := NewInProcessStore(0)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		_ = store.Append(ctx, entryAt("s1", i, base.Add(time.Duration(i)*time.Second)))
	}

	entries, err := store.Recent(ctx, "s1", 4)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("limit not applied, got %d", len(entries))
	}
	if entries[0].Content != "wpis 6" || entries[3].Content != "wpis 9" {
		t.Fatalf("window should be the newest entries oldest-first: %+v", entries)
	}
}

func TestInProcessStoreSessionsAreIsolated(t *testing.T) {
	t.Parallel()

	store := NewInProcessStore(0)
	ctx := context.Background()
	now := time.Now()
	_ = store.Append(ctx, entryAt("s1", 1, now))
	_ = store.Append(ctx, entryAt("s2", 2, now))

	entries, _ := store.Recent(ctx, "s1", 0)
	if len(entries) != 1 || entries[0].Content != "wpis 1" {
		t.Fatalf("sessions leaked into each other: %+v", entries)
	}
}

func TestInProcessStorePruneBefore(t *testing.T) {
	t.Parallel()

	store := NewInProcessStore(0)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		_ = store.Append(ctx, entryAt("s1", i, base.Add(time.Duration(i)*time.Minute)))
	}
	_ = store.Append(ctx, entryAt("stale", 0, base.Add(-time.Hour)))

	removed, err := store.PruneBefore(ctx, base.Add(3*time.Minute))
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if removed != 4 {
		t.Fatalf("removed = %d, want 4", removed)
	}

	entries, _ := store.Recent(ctx, "s1", 0)
	if len(entries) != 3 || entries[0].Content != "wpis 3" {
		t.Fatalf("prune kept the wrong window: %+v", entries)
	}
	stale, _ := store.Recent(ctx, "stale", 0)
	if len(stale) != 0 {
		t.Fatalf("fully pruned session should be empty, got %+v", stale)
	}
}

func TestRecentReturnsACopy(t *testing.T) {
	t.Parallel()

	store := NewInProcessStore(0)
	ctx := context.Background()
	_ = store.Append(ctx, entryAt("s1", 1, time.Now()))

	entries, _ := store.Recent(ctx, "s1", 0)
	entries[0].Content = "zmienione"

	again, _ := store.Recent(ctx, "s1", 0)
	if again[0].Content != "wpis 1" {
		t.Fatalf("Recent must not expose internal storage")
	}
}
