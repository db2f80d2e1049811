package service

import (
	"context"
	"testing"
	"time"

	"github.com/lingodex/backend/internal/model"
)

func TestSweepDeletesOnlyExpiredUnrevokedRows(t *testing.T) {
	store := newMemStore()
	now := time.Now().UTC()

	rows := []*model.Token{
		{ID: "live", AuthMethodID: "m", Token: "t-live", ExpiresAt: now.Add(time.Hour)},
		{ID: "expired", AuthMethodID: "m", Token: "t-expired", ExpiresAt: now.Add(-time.Hour)},
		{ID: "revoked", AuthMethodID: "m", Token: "t-revoked", ExpiresAt: now.Add(-time.Hour), Revoked: true},
	}
	for _, row := range rows {
		if err := store.Store(context.Background(), row); err != nil {
			t.Fatalf("Store %s: %v", row.ID, err)
		}
	}

	reaper := NewTokenReaper(store, time.Hour)
	reaper.Sweep(context.Background())

	if _, ok := store.tokens["t-expired"]; ok {
		t.Fatal("expired row survived the sweep")
	}
	if _, ok := store.tokens["t-live"]; !ok {
		t.Fatal("live row was deleted")
	}
	// Revoked rows stay until natural cleanup so replay attempts keep
	// failing against an existing consumed row.
	if _, ok := store.tokens["t-revoked"]; !ok {
		t.Fatal("revoked row was deleted")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	reaper := NewTokenReaper(newMemStore(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reaper.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop after cancel")
	}
}
