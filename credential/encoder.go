package credential

import (
	"encoding/json"
	"errors"
	"time"
)

const (
	recordFormatVersionCurrent = 1
)

// ErrCorruptRecord is an exported constant or variable used by the session engine.
var ErrCorruptRecord = errors.New("corrupt credential record")

// Records are plain JSON so other clients of the platform can read the same
// slots. Unknown fields are tolerated for forward compatibility; the schema
// field rejects records written by an incompatible future layout.
type sessionRecord struct {
	Schema       int       `json:"schema"`
	Role         Role      `json:"role"`
	StaffKind    StaffKind `json:"staff_kind,omitempty"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	AccessExpiry time.Time `json:"access_expiry,omitzero"`
	LocalExpiry  time.Time `json:"local_expiry,omitzero"`
	Profile      Profile   `json:"profile"`
}

type guestRecord struct {
	Schema      int       `json:"schema"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at,omitzero"`
}

// EncodeSession serializes a session for keyring persistence.
func EncodeSession(s *Session) ([]byte, error) {
	if s == nil {
		return nil, ErrCorruptRecord
	}
	if !s.Role.Valid() {
		return nil, errors.New("invalid session role")
	}

	return json.Marshal(sessionRecord{
		Schema:       recordFormatVersionCurrent,
		Role:         s.Role,
		StaffKind:    s.StaffKind,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		AccessExpiry: s.AccessExpiry,
		LocalExpiry:  s.LocalExpiry,
		Profile:      s.Profile,
	})
}

// DecodeSession deserializes a persisted session record.
func DecodeSession(data []byte) (*Session, error) {
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, ErrCorruptRecord
	}
	if rec.Schema < 1 || rec.Schema > recordFormatVersionCurrent {
		return nil, ErrCorruptRecord
	}
	if !rec.Role.Valid() || rec.AccessToken == "" {
		return nil, ErrCorruptRecord
	}

	return &Session{
		Role:         rec.Role,
		StaffKind:    rec.StaffKind,
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		AccessExpiry: rec.AccessExpiry,
		LocalExpiry:  rec.LocalExpiry,
		Profile:      rec.Profile,
	}, nil
}

// EncodeGuest serializes a guest identity for keyring persistence.
func EncodeGuest(g *GuestIdentity) ([]byte, error) {
	if g == nil || g.AccessToken == "" {
		return nil, ErrCorruptRecord
	}

	return json.Marshal(guestRecord{
		Schema:      recordFormatVersionCurrent,
		AccessToken: g.AccessToken,
		ExpiresAt:   g.ExpiresAt,
	})
}

// DecodeGuest deserializes a persisted guest record.
func DecodeGuest(data []byte) (*GuestIdentity, error) {
	var rec guestRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, ErrCorruptRecord
	}
	if rec.Schema < 1 || rec.Schema > recordFormatVersionCurrent {
		return nil, ErrCorruptRecord
	}
	if rec.AccessToken == "" {
		return nil, ErrCorruptRecord
	}

	return &GuestIdentity{
		AccessToken: rec.AccessToken,
		ExpiresAt:   rec.ExpiresAt,
	}, nil
}
