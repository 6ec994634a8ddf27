package goSession

import (
	"github.com/tickora/goSession/credential"
)

// Aliases re-export the credential model so most callers only import the
// root package.

// Session is the authenticated identity held by the credential store.
type Session = credential.Session

// GuestIdentity is the anonymous identity used when no Session exists.
type GuestIdentity = credential.GuestIdentity

// Profile carries the role-specific attributes of a Session.
type Profile = credential.Profile

// Role is the platform role carried by a Session.
type Role = credential.Role

// StaffKind distinguishes operator staff within an organizer account.
type StaffKind = credential.StaffKind

const (
	// RoleAttendee is an exported constant or variable used by the session engine.
	RoleAttendee = credential.RoleAttendee
	// RoleOrganizer is an exported constant or variable used by the session engine.
	RoleOrganizer = credential.RoleOrganizer
	// RoleOperator is an exported constant or variable used by the session engine.
	RoleOperator = credential.RoleOperator
	// RoleAdmin is an exported constant or variable used by the session engine.
	RoleAdmin = credential.RoleAdmin
	// RolePromoter is an exported constant or variable used by the session engine.
	RolePromoter = credential.RolePromoter

	// StaffOperator is an exported constant or variable used by the session engine.
	StaffOperator = credential.StaffOperator
	// StaffOwner is an exported constant or variable used by the session engine.
	StaffOwner = credential.StaffOwner
)
