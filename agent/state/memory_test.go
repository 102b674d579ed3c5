package state

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	sess := NewSession("CUST-1", 10, testTime())
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(ctx, sess.SessionID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.CustomerID != "CUST-1" {
		t.Errorf("customer id = %q, want CUST-1", loaded.CustomerID)
	}

	// Stored copy must be isolated from both the caller's and the loaded one.
	loaded.Context.AddMessage("user", "mutation", testTime())
	reloaded, err := store.Load(ctx, sess.SessionID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.Context.History) != 0 {
		t.Error("mutation of a loaded session leaked into the store")
	}
}

func TestMemoryStoreMissing(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	if _, err := store.Load(context.Background(), "SES-NOPE"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	sess := NewSession("CUST-1", 10, testTime())
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	removed, err := store.Delete(ctx, sess.SessionID)
	if err != nil || !removed {
		t.Fatalf("first delete = (%v, %v), want (true, nil)", removed, err)
	}
	removed, err = store.Delete(ctx, sess.SessionID)
	if err != nil || removed {
		t.Fatalf("second delete = (%v, %v), want (false, nil)", removed, err)
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	stale := NewSession("CUST-1", 10, testTime())
	fresh := NewSession("CUST-2", 10, testTime())
	fresh.Touch(testTime().Add(2 * time.Hour))

	for _, sess := range []*Session{stale, fresh} {
		if err := store.Save(ctx, sess); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	removed, err := store.Sweep(ctx, testTime().Add(time.Hour))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if store.Len() != 1 {
		t.Errorf("remaining = %d, want 1", store.Len())
	}
	if _, err := store.Load(ctx, fresh.SessionID); err != nil {
		t.Errorf("fresh session swept: %v", err)
	}
}

func TestMemoryStoreValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Save(ctx, nil); !errors.Is(err, ErrNilSession) {
		t.Errorf("nil session err = %v, want ErrNilSession", err)
	}
	if err := store.Save(ctx, &Session{}); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("empty id err = %v, want ErrInvalidSession", err)
	}
	if _, err := store.Load(ctx, ""); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("empty lookup err = %v, want ErrInvalidSession", err)
	}
}
