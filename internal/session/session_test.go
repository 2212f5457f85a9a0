package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/health-dashboard/backend/internal/metrics"
	"github.com/health-dashboard/backend/internal/storage/models"
)

func testAccount() *models.Account {
	return &models.Account{Username: "alice", Age: 29, Weight: 61, Height: 168}
}

func TestManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := NewManager(store, time.Hour)

	s, err := m.Create(ctx, testAccount())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if s.ID == "" {
		t.Fatal("Create() returned empty session id")
	}
	if s.Username != "alice" || s.Age != 29 || s.Weight != 61 || s.Height != 168 {
		t.Errorf("Create() session = %+v", s)
	}

	got, err := m.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("Get() username = %q", got.Username)
	}

	removed, err := m.Destroy(ctx, s.ID)
	if err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if !removed {
		t.Error("Destroy() of a live session reported nothing removed")
	}
	if _, err := m.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Destroy error = %v, want ErrNotFound", err)
	}

	// Destroying twice stays quiet and removes nothing.
	for _, id := range []string{s.ID, "", "unknown"} {
		removed, err := m.Destroy(ctx, id)
		if err != nil {
			t.Errorf("Destroy(%q) error = %v", id, err)
		}
		if removed {
			t.Errorf("Destroy(%q) reported a removal", id)
		}
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(), time.Hour)

	a, _ := m.Create(ctx, testAccount())
	b, _ := m.Create(ctx, &models.Account{Username: "bob", Age: 40, Weight: 80, Height: 180})
	if a.ID == b.ID {
		t.Fatal("two sessions share an id")
	}

	if _, err := m.Destroy(ctx, a.ID); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	got, err := m.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("Get(b) error = %v", err)
	}
	if got.Username != "bob" {
		t.Errorf("Get(b) username = %q", got.Username)
	}
}

func TestGetEmptyID(t *testing.T) {
	m := NewManager(NewMemoryStore(), time.Hour)
	if _, err := m.Get(context.Background(), ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(\"\") error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	clock := time.Unix(1700000000, 0)
	store := NewMemoryStore()
	defer store.Stop()
	store.now = func() time.Time { return clock }

	s := &Session{ID: "s1", Username: "alice"}
	if err := store.Save(ctx, s, time.Minute); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	clock = clock.Add(30 * time.Second)
	if err := store.Touch(ctx, "s1", time.Minute); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}

	clock = clock.Add(45 * time.Second)
	if _, err := store.Load(ctx, "s1"); err != nil {
		t.Fatalf("Load() after touch error = %v", err)
	}

	clock = clock.Add(2 * time.Minute)
	if _, err := store.Load(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() after expiry error = %v, want ErrNotFound", err)
	}
	if store.Len() != 0 {
		t.Errorf("expired entry not evicted, Len() = %d", store.Len())
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()
	clock := time.Unix(1700000000, 0)
	store := NewMemoryStore()
	defer store.Stop()
	store.now = func() time.Time { return clock }

	_ = store.Save(ctx, &Session{ID: "short"}, time.Minute)
	_ = store.Save(ctx, &Session{ID: "long"}, time.Hour)
	_ = store.Save(ctx, &Session{ID: "gone"}, time.Minute)

	expired := testutil.ToFloat64(metrics.SessionsEnded.WithLabelValues("expired"))

	clock = clock.Add(2 * time.Minute)
	if n := store.sweep(); n != 2 {
		t.Errorf("sweep() removed %d, want 2", n)
	}
	if store.Len() != 1 {
		t.Errorf("Len() after sweep = %d, want 1", store.Len())
	}
	if _, err := store.Load(ctx, "long"); err != nil {
		t.Errorf("Load(long) error = %v", err)
	}
	if got := testutil.ToFloat64(metrics.SessionsEnded.WithLabelValues("expired")) - expired; got != 2 {
		t.Errorf("expired sessions counted = %v, want 2", got)
	}

	// An expired session that was never swept is not a live delete.
	_ = store.Save(ctx, &Session{ID: "stale"}, time.Minute)
	clock = clock.Add(2 * time.Minute)
	if removed, err := store.Delete(ctx, "stale"); err != nil || removed {
		t.Errorf("Delete(stale) = %v, %v, want false, nil", removed, err)
	}

	store.Stop()
	store.Stop()
}

func TestLoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Save(ctx, &Session{ID: "s1", Username: "alice"}, time.Minute)

	s, _ := store.Load(ctx, "s1")
	s.Username = "mallory"

	again, _ := store.Load(ctx, "s1")
	if again.Username != "alice" {
		t.Errorf("stored session mutated through Load result: %q", again.Username)
	}
}
