package credential

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisKeyring(t *testing.T) *RedisKeyring {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisKeyring(client, "gosess-test", time.Hour)
}

func TestRedisKeyringRoundTrip(t *testing.T) {
	ctx := context.Background()
	keyring := newTestRedisKeyring(t)

	if err := keyring.Store(ctx, DefaultSessionSlot, []byte(`{"schema":1}`)); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	data, err := keyring.Load(ctx, DefaultSessionSlot)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(data) != `{"schema":1}` {
		t.Fatalf("unexpected payload: %s", data)
	}
}

func TestRedisKeyringEmptySlot(t *testing.T) {
	keyring := newTestRedisKeyring(t)

	if _, err := keyring.Load(context.Background(), DefaultGuestSlot); !errors.Is(err, ErrSlotEmpty) {
		t.Fatalf("expected ErrSlotEmpty, got %v", err)
	}
}

func TestRedisKeyringDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	keyring := newTestRedisKeyring(t)

	if err := keyring.Store(ctx, DefaultGuestSlot, []byte("x")); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := keyring.Delete(ctx, DefaultGuestSlot); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := keyring.Delete(ctx, DefaultGuestSlot); err != nil {
		t.Fatalf("second delete must be a no-op: %v", err)
	}
	if _, err := keyring.Load(ctx, DefaultGuestSlot); !errors.Is(err, ErrSlotEmpty) {
		t.Fatalf("expected ErrSlotEmpty after delete, got %v", err)
	}
}

func TestStoreBackedByRedis(t *testing.T) {
	ctx := context.Background()
	keyring := newTestRedisKeyring(t)

	store := NewStore(keyring, "", "")
	if err := store.SetSession(ctx, testSession()); err != nil {
		t.Fatalf("set session failed: %v", err)
	}

	reloaded := NewStore(keyring, "", "")
	if err := reloaded.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate failed: %v", err)
	}
	sess := reloaded.Session()
	if sess == nil || sess.Role != RoleAttendee {
		t.Fatalf("session did not survive redis round trip: %+v", sess)
	}
}
