package credential

import (
	"context"
	"errors"
	"sync"
)

const (
	// DefaultSessionSlot is an exported constant or variable used by the session engine.
	DefaultSessionSlot = "tickets:session"
	// DefaultGuestSlot is an exported constant or variable used by the session engine.
	DefaultGuestSlot = "tickets:guest"
)

// ErrSlotEmpty is an exported constant or variable used by the session engine.
var ErrSlotEmpty = errors.New("keyring slot empty")

// Keyring defines a public type used by goSession APIs.
//
// A Keyring persists opaque credential records under well-known slot names
// so a session survives process restarts. Load returns ErrSlotEmpty when
// the slot holds nothing.
type Keyring interface {
	Load(ctx context.Context, slot string) ([]byte, error)
	Store(ctx context.Context, slot string, data []byte) error
	Delete(ctx context.Context, slot string) error
}

// MemoryKeyring defines a public type used by goSession APIs.
//
// MemoryKeyring keeps records in process memory. It is the default keyring
// and the right choice for tests and single-run tools.
type MemoryKeyring struct {
	mu    sync.Mutex
	slots map[string][]byte
}

// NewMemoryKeyring describes the newmemorykeyring operation and its observable behavior.
func NewMemoryKeyring() *MemoryKeyring {
	return &MemoryKeyring{
		slots: make(map[string][]byte),
	}
}

// Load describes the load operation and its observable behavior.
func (k *MemoryKeyring) Load(_ context.Context, slot string) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	data, ok := k.slots[slot]
	if !ok {
		return nil, ErrSlotEmpty
	}
	return append([]byte(nil), data...), nil
}

// Store describes the store operation and its observable behavior.
func (k *MemoryKeyring) Store(_ context.Context, slot string, data []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.slots[slot] = append([]byte(nil), data...)
	return nil
}

// Delete describes the delete operation and its observable behavior.
func (k *MemoryKeyring) Delete(_ context.Context, slot string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	delete(k.slots, slot)
	return nil
}
