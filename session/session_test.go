package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"hermannm.dev/portfolio/ocr"
)

var testState = State{
	Image:         &ocr.Image{Name: "receipt.png", ContentType: "image/png", Data: []byte{1, 2, 3}},
	ExtractedText: "TOTAL 42.00",
}

func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	first, second := NewID(), NewID()

	if _, ok, err := store.Get(ctx, first); err != nil || ok {
		t.Fatalf("expected no session before save, got ok=%v err=%v", ok, err)
	}

	if err := store.Save(ctx, first, testState); err != nil {
		t.Fatal(err)
	}

	state, ok, err := store.Get(ctx, first)
	if err != nil || !ok {
		t.Fatalf("expected saved session, got ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(testState, state); diff != "" {
		t.Errorf("unexpected session state (-want +got):\n%s", diff)
	}

	if _, ok, _ := store.Get(ctx, second); ok {
		t.Error("expected sessions to be isolated")
	}

	if err := store.Delete(ctx, first); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.Get(ctx, first); ok {
		t.Error("expected session to be gone after delete")
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore(time.Hour))
}

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return now }

	id := NewID()
	if err := store.Save(context.Background(), id, testState); err != nil {
		t.Fatal(err)
	}

	now = now.Add(59 * time.Second)
	if _, ok, _ := store.Get(context.Background(), id); !ok {
		t.Fatal("expected session before expiry")
	}

	now = now.Add(time.Second)
	if _, ok, _ := store.Get(context.Background(), id); ok {
		t.Fatal("expected session to expire")
	}
}

func TestRedisStore(t *testing.T) {
	address := os.Getenv("REDIS_ADDRESS")
	if address == "" {
		t.Skip("REDIS_ADDRESS not set")
	}

	store, err := NewRedisStore(context.Background(), &redis.Options{Addr: address}, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	testStore(t, store)
}
