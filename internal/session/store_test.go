package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/persona"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore(time.Hour)
	m := NewMachine(persona.Default())

	if _, ok, err := st.Load(ctx, "missing"); ok || err != nil {
		t.Fatalf("Load(missing) = %v, %v", ok, err)
	}

	s := m.New("c1")
	if err := st.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	s.History = append(s.History, model.HumanTurn("after save"))

	got, ok, err := st.Load(ctx, "c1")
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	if len(got.History) != 1 {
		t.Errorf("stored history length = %d, want 1", len(got.History))
	}

	got.Mode = model.ModeHoneypot
	again, _, _ := st.Load(ctx, "c1")
	if again.Mode != model.ModeNormal {
		t.Error("Load must return a copy")
	}

	if err := st.Delete(ctx, "c1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := st.Load(ctx, "c1"); ok {
		t.Error("session still present after Delete")
	}
	if err := st.Delete(ctx, "c1"); err != nil {
		t.Errorf("deleting unknown client: %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	st := NewMemoryStore(time.Minute)
	st.now = func() time.Time { return now }

	st.Save(ctx, &model.Session{ClientID: "c1", Mode: model.ModeNormal})

	now = now.Add(59 * time.Second)
	if _, ok, _ := st.Load(ctx, "c1"); !ok {
		t.Fatal("session expired too early")
	}

	now = now.Add(time.Second)
	if _, ok, _ := st.Load(ctx, "c1"); ok {
		t.Fatal("session should have expired")
	}
	if st.Len() != 0 {
		t.Errorf("expired entry not dropped, Len = %d", st.Len())
	}
}

func TestMemoryStorePrune(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	st := NewMemoryStore(time.Minute)
	st.now = func() time.Time { return now }

	st.Save(ctx, &model.Session{ClientID: "old"})
	now = now.Add(2 * time.Minute)
	for i := 1; i < pruneEvery; i++ {
		st.Save(ctx, &model.Session{ClientID: "fresh"})
	}
	if st.Len() != 1 {
		t.Errorf("Len = %d, want 1 after prune", st.Len())
	}
}

func TestMemoryStoreNoTTL(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore(0)
	st.Save(ctx, &model.Session{ClientID: "c1"})
	st.now = func() time.Time { return time.Now().Add(1000 * time.Hour) }
	if _, ok, _ := st.Load(ctx, "c1"); !ok {
		t.Error("zero ttl should disable expiry")
	}
}

func TestMemoryStoreConcurrent(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore(time.Hour)
	m := NewMachine(persona.Default())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := m.New("shared")
			for j := 0; j < 50; j++ {
				st.Save(ctx, s)
				if got, ok, _ := st.Load(ctx, "shared"); ok {
					got.History = append(got.History, model.HumanTurn("x"))
				}
			}
		}()
	}
	wg.Wait()

	got, ok, _ := st.Load(ctx, "shared")
	if !ok || len(got.History) != 1 {
		t.Errorf("stored session corrupted: %+v", got)
	}
}

func TestMemoryStoreMaxEntriesEvictsOldest(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	st := NewMemoryStore(time.Hour, WithMaxEntries(3))
	st.now = func() time.Time { return now }

	for _, id := range []string{"a", "b", "c"} {
		st.Save(ctx, &model.Session{ClientID: id})
		now = now.Add(time.Second)
	}

	// Re-saving "a" makes "b" the least recently saved.
	st.Save(ctx, &model.Session{ClientID: "a"})
	now = now.Add(time.Second)
	if st.Len() != 3 || st.Evictions() != 0 {
		t.Fatalf("updating an existing client must not evict: Len=%d evictions=%d", st.Len(), st.Evictions())
	}

	st.Save(ctx, &model.Session{ClientID: "d"})
	if st.Len() != 3 {
		t.Errorf("Len = %d, want 3", st.Len())
	}
	if _, ok, _ := st.Load(ctx, "b"); ok {
		t.Error("least recently saved session b should have been evicted")
	}
	for _, id := range []string{"a", "c", "d"} {
		if _, ok, _ := st.Load(ctx, id); !ok {
			t.Errorf("session %s missing", id)
		}
	}
	if st.Evictions() != 1 {
		t.Errorf("Evictions = %d, want 1", st.Evictions())
	}
}

func TestMemoryStoreMaxEntriesPrefersExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	st := NewMemoryStore(time.Minute, WithMaxEntries(2))
	st.now = func() time.Time { return now }

	st.Save(ctx, &model.Session{ClientID: "stale"})
	now = now.Add(2 * time.Minute)
	st.Save(ctx, &model.Session{ClientID: "live"})
	st.Save(ctx, &model.Session{ClientID: "new"})

	if _, ok, _ := st.Load(ctx, "live"); !ok {
		t.Error("live session evicted while an expired one could be dropped")
	}
	if st.Evictions() != 0 {
		t.Errorf("Evictions = %d, want 0", st.Evictions())
	}
}

func TestMemoryStoreMaxEntriesBoundsGrowth(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore(time.Hour, WithMaxEntries(100))
	m := NewMachine(persona.Default())

	for i := 0; i < 5000; i++ {
		st.Save(ctx, m.New(NewClientID()))
	}
	if st.Len() != 100 {
		t.Errorf("Len = %d, want 100", st.Len())
	}
}
