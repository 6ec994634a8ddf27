package credential

import (
	"encoding/json"
	"time"
)

// Role defines a public type used by goSession APIs.
//
// Role instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Role string

const (
	// RoleAttendee is an exported constant or variable used by the session engine.
	RoleAttendee Role = "attendee"
	// RoleOrganizer is an exported constant or variable used by the session engine.
	RoleOrganizer Role = "organizer"
	// RoleOperator is an exported constant or variable used by the session engine.
	RoleOperator Role = "operator"
	// RoleAdmin is an exported constant or variable used by the session engine.
	RoleAdmin Role = "admin"
	// RolePromoter is an exported constant or variable used by the session engine.
	RolePromoter Role = "promoter"
)

// Valid reports whether r is one of the platform roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAttendee, RoleOrganizer, RoleOperator, RoleAdmin, RolePromoter:
		return true
	default:
		return false
	}
}

// Family defines a public type used by goSession APIs.
//
// Family instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Family string

const (
	// FamilyAttendee is an exported constant or variable used by the session engine.
	FamilyAttendee Family = "attendee"
	// FamilyOrganization is an exported constant or variable used by the session engine.
	FamilyOrganization Family = "organization"
)

// Family maps a role onto the account family its auth endpoints live under.
// Attendees refresh against the attendee family; every other role refreshes
// against the organization family.
func (r Role) Family() Family {
	if r == RoleAttendee {
		return FamilyAttendee
	}
	return FamilyOrganization
}

// StaffKind defines a public type used by goSession APIs.
//
// StaffKind instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StaffKind string

const (
	// StaffOperator is an exported constant or variable used by the session engine.
	StaffOperator StaffKind = "operator"
	// StaffOwner is an exported constant or variable used by the session engine.
	StaffOwner StaffKind = "owner"
)

// Profile defines a public type used by goSession APIs.
//
// Profile instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Profile struct {
	FirstName         string          `json:"first_name,omitempty"`
	LastName          string          `json:"last_name,omitempty"`
	Email             string          `json:"email,omitempty"`
	EmailConfirmedAt  time.Time       `json:"email_confirmed_at,omitzero"`
	MobileConfirmedAt time.Time       `json:"mobile_confirmed_at,omitzero"`
	OrganizationID    string          `json:"organization_id,omitempty"`
	Extra             json.RawMessage `json:"extra,omitempty"`
}

// OnboardingComplete reports whether an attendee profile has passed signup
// step 2: email confirmed and a first name on file.
func (p Profile) OnboardingComplete() bool {
	return !p.EmailConfirmedAt.IsZero() && p.FirstName != ""
}

// Session defines a public type used by goSession APIs.
//
// Session instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Session struct {
	Role      Role
	StaffKind StaffKind

	AccessToken  string
	RefreshToken string

	// AccessExpiry is the server-declared access token expiry. Zero when
	// the server did not declare one and the token carried no exp claim.
	AccessExpiry time.Time

	// LocalExpiry is the client-side absolute session lifetime. A session
	// past LocalExpiry is treated as logged out regardless of token state.
	LocalExpiry time.Time

	Profile Profile
}

// HasToken reports whether the session carries a usable access token.
func (s *Session) HasToken() bool {
	return s != nil && s.AccessToken != ""
}

// AccessStale reports whether the server-declared access expiry has passed.
// The boundary instant counts as stale.
func (s *Session) AccessStale(now time.Time) bool {
	if s == nil || s.AccessExpiry.IsZero() {
		return false
	}
	return !now.Before(s.AccessExpiry)
}

// LocallyExpired reports whether the client-side absolute lifetime has
// passed. The boundary instant counts as expired.
func (s *Session) LocallyExpired(now time.Time) bool {
	if s == nil || s.LocalExpiry.IsZero() {
		return false
	}
	return !now.Before(s.LocalExpiry)
}

// Clone returns an independent copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if len(s.Profile.Extra) > 0 {
		out.Profile.Extra = append(json.RawMessage(nil), s.Profile.Extra...)
	}
	return &out
}

// GuestIdentity defines a public type used by goSession APIs.
//
// GuestIdentity instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type GuestIdentity struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Expired reports whether the guest token is past its expiry. A guest with
// no declared expiry is treated as expired.
func (g *GuestIdentity) Expired(now time.Time) bool {
	if g == nil || g.AccessToken == "" {
		return true
	}
	if g.ExpiresAt.IsZero() {
		return true
	}
	return !now.Before(g.ExpiresAt)
}

// ValidFor reports whether the guest token remains valid for at least the
// given margin past now.
func (g *GuestIdentity) ValidFor(now time.Time, margin time.Duration) bool {
	if g == nil || g.AccessToken == "" || g.ExpiresAt.IsZero() {
		return false
	}
	return now.Add(margin).Before(g.ExpiresAt)
}

// Clone returns an independent copy of the guest identity.
func (g *GuestIdentity) Clone() *GuestIdentity {
	if g == nil {
		return nil
	}
	out := *g
	return &out
}
