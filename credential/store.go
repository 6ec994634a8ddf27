package credential

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoSession is an exported constant or variable used by the session engine.
var ErrNoSession = errors.New("no active session")

// Change describes a store mutation delivered to subscribers. Generation
// increments whenever the session identity changes (set or cleared), not on
// token rotation within the same session.
type Change struct {
	Generation     uint64
	SessionPresent bool
}

// Store defines a public type used by goSession APIs.
//
// Store is the single source of truth for the authenticated Session and the
// anonymous GuestIdentity. Reads and writes are synchronous; persistence to
// the keyring is write-through. At most one Session exists at a time, and a
// Session always displaces the guest identity.
type Store struct {
	mu sync.Mutex

	keyring     Keyring
	sessionSlot string
	guestSlot   string

	sess  *Session
	guest *GuestIdentity

	generation uint64

	subs    map[int]func(Change)
	nextSub int
}

// NewStore describes the newstore operation and its observable behavior.
//
// A nil keyring falls back to an in-memory keyring. Empty slot names fall
// back to the platform defaults.
func NewStore(keyring Keyring, sessionSlot, guestSlot string) *Store {
	if keyring == nil {
		keyring = NewMemoryKeyring()
	}
	if sessionSlot == "" {
		sessionSlot = DefaultSessionSlot
	}
	if guestSlot == "" {
		guestSlot = DefaultGuestSlot
	}

	return &Store{
		keyring:     keyring,
		sessionSlot: sessionSlot,
		guestSlot:   guestSlot,
		subs:        make(map[int]func(Change)),
	}
}

// Hydrate loads persisted credentials into memory. Corrupt records are
// discarded and their slots deleted; an empty slot is not an error.
func (s *Store) Hydrate(ctx context.Context) error {
	data, err := s.keyring.Load(ctx, s.sessionSlot)
	switch {
	case err == nil:
		sess, decErr := DecodeSession(data)
		if decErr != nil {
			_ = s.keyring.Delete(ctx, s.sessionSlot)
		} else {
			s.mu.Lock()
			s.sess = sess
			s.generation++
			s.mu.Unlock()
		}
	case errors.Is(err, ErrSlotEmpty):
	default:
		return err
	}

	data, err = s.keyring.Load(ctx, s.guestSlot)
	switch {
	case err == nil:
		guest, decErr := DecodeGuest(data)
		if decErr != nil {
			_ = s.keyring.Delete(ctx, s.guestSlot)
		} else {
			s.mu.Lock()
			// a hydrated session always wins over a stale guest record
			if s.sess == nil {
				s.guest = guest
			}
			s.mu.Unlock()
		}
	case errors.Is(err, ErrSlotEmpty):
	default:
		return err
	}

	s.notify()
	return nil
}

// Session returns a copy of the current session, or nil.
func (s *Store) Session() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.Clone()
}

// Guest returns a copy of the current guest identity, or nil.
func (s *Store) Guest() *GuestIdentity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.guest.Clone()
}

// Generation returns the current session generation. Async continuations
// capture it before awaiting and compare before applying their results.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// SetSession replaces the session wholesale and discards any guest
// identity. The in-memory state is authoritative immediately; a keyring
// write failure is returned but does not roll the memory state back.
func (s *Store) SetSession(ctx context.Context, sess Session) error {
	if !sess.Role.Valid() {
		return errors.New("invalid session role")
	}
	if sess.AccessToken == "" {
		return errors.New("session access token required")
	}

	s.mu.Lock()
	s.sess = sess.Clone()
	s.guest = nil
	s.generation++
	s.mu.Unlock()

	s.notify()

	data, err := EncodeSession(&sess)
	if err != nil {
		return err
	}
	if err := s.keyring.Store(ctx, s.sessionSlot, data); err != nil {
		return err
	}
	return s.keyring.Delete(ctx, s.guestSlot)
}

// PatchTokens swaps the token pair of the active session in place. Role,
// staff kind, profile and the local expiry are never touched; the session
// generation does not advance.
func (s *Store) PatchTokens(ctx context.Context, access, refresh string, accessExpiry time.Time) error {
	if access == "" {
		return errors.New("access token required")
	}

	s.mu.Lock()
	if s.sess == nil {
		s.mu.Unlock()
		return ErrNoSession
	}
	s.sess.AccessToken = access
	s.sess.RefreshToken = refresh
	s.sess.AccessExpiry = accessExpiry
	persisted := s.sess.Clone()
	s.mu.Unlock()

	s.notify()

	data, err := EncodeSession(persisted)
	if err != nil {
		return err
	}
	return s.keyring.Store(ctx, s.sessionSlot, data)
}

// PatchProfile mutates the active session's profile through fn while the
// store lock is held.
func (s *Store) PatchProfile(ctx context.Context, fn func(*Profile)) error {
	if fn == nil {
		return errors.New("profile patch required")
	}

	s.mu.Lock()
	if s.sess == nil {
		s.mu.Unlock()
		return ErrNoSession
	}
	fn(&s.sess.Profile)
	persisted := s.sess.Clone()
	s.mu.Unlock()

	s.notify()

	data, err := EncodeSession(persisted)
	if err != nil {
		return err
	}
	return s.keyring.Store(ctx, s.sessionSlot, data)
}

// Clear drops the session and the guest identity and deletes both slots.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.sess = nil
	s.guest = nil
	s.generation++
	s.mu.Unlock()

	s.notify()

	if err := s.keyring.Delete(ctx, s.sessionSlot); err != nil {
		return err
	}
	return s.keyring.Delete(ctx, s.guestSlot)
}

// SetGuest stores an anonymous guest identity. Ignored when a session is
// active; the guest never shadows an authenticated session.
func (s *Store) SetGuest(ctx context.Context, guest GuestIdentity) error {
	if guest.AccessToken == "" {
		return errors.New("guest access token required")
	}

	s.mu.Lock()
	if s.sess != nil {
		s.mu.Unlock()
		return nil
	}
	s.guest = guest.Clone()
	s.mu.Unlock()

	s.notify()

	data, err := EncodeGuest(&guest)
	if err != nil {
		return err
	}
	return s.keyring.Store(ctx, s.guestSlot, data)
}

// Subscribe registers fn for change notifications and returns a cancel
// function. Callbacks run synchronously on the mutating goroutine, after
// the store lock is released.
func (s *Store) Subscribe(fn func(Change)) func() {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	change := Change{
		Generation:     s.generation,
		SessionPresent: s.sess != nil,
	}
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}
