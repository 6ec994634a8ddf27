// Package guard decides, per navigation, whether the current identity may
// see the requested route, and where to send it otherwise.
package guard

import (
	"context"
	"net/url"
	"time"

	"github.com/tickora/goSession/credential"
)

// Outcome defines a public type used by goSession APIs.
//
// Outcome instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Outcome uint8

const (
	// Pending is an exported constant or variable used by the session engine.
	Pending Outcome = iota
	// Allow is an exported constant or variable used by the session engine.
	Allow
	// Redirect is an exported constant or variable used by the session engine.
	Redirect
)

// Reason defines a public type used by goSession APIs.
//
// Reason instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Reason uint8

const (
	// ReasonNone is an exported constant or variable used by the session engine.
	ReasonNone Reason = iota
	// ReasonResolving is an exported constant or variable used by the session engine.
	ReasonResolving
	// ReasonOnboarding is an exported constant or variable used by the session engine.
	ReasonOnboarding
	// ReasonUnauthenticated is an exported constant or variable used by the session engine.
	ReasonUnauthenticated
	// ReasonRoleFenced is an exported constant or variable used by the session engine.
	ReasonRoleFenced
	// ReasonExpired is an exported constant or variable used by the session engine.
	ReasonExpired
	// ReasonRefreshFailed is an exported constant or variable used by the session engine.
	ReasonRefreshFailed
)

// Navigation describes one routing attempt.
type Navigation struct {
	// Path is the requested destination.
	Path string
	// Query carries the original request parameters; the mytickets
	// continuation flag is preserved across the login redirect.
	Query url.Values
	// Public marks destinations renderable without an authenticated
	// session (event pages, search, landing).
	Public bool
	// CheckoutFlow switches onboarding redirects to the checkout variant.
	CheckoutFlow bool
	// Ready is false while routing metadata is still resolving; no
	// decision is made until it flips.
	Ready bool
}

// Decision is the ephemeral per-navigation outcome. It is computed fresh on
// every evaluation and never persisted.
type Decision struct {
	Outcome Outcome
	Target  string
	Reason  Reason
}

func allowed() Decision {
	return Decision{Outcome: Allow, Reason: ReasonNone}
}

func redirect(target string, reason Reason) Decision {
	return Decision{Outcome: Redirect, Target: target, Reason: reason}
}

// Evaluate is the pure authorization function. Rules run in a fixed order,
// each short-circuiting on match: resolving, attendee onboarding, presence,
// role fencing, absolute expiry, allow.
func Evaluate(sess *credential.Session, nav Navigation, now time.Time) Decision {
	if !nav.Ready {
		return Decision{Outcome: Pending, Reason: ReasonResolving}
	}

	// Onboarding outranks everything: an attendee who never finished
	// signup step 2 is pinned there until the profile is complete.
	if sess.HasToken() && sess.Role == credential.RoleAttendee && !sess.Profile.OnboardingComplete() {
		if nav.CheckoutFlow {
			return redirect(CheckoutSignupStep2Route, ReasonOnboarding)
		}
		return redirect(SignupStep2Route, ReasonOnboarding)
	}

	if !sess.HasToken() {
		if prefix, ok := ProtectedPrefix(nav.Path); ok {
			return redirect(LoginRouteFor(prefix), ReasonUnauthenticated)
		}
		if nav.Public {
			return allowed()
		}
		target := LoginRoute
		if flag := nav.Query.Get("mytickets"); flag != "" {
			target = LoginRoute + "?mytickets=" + url.QueryEscape(flag)
		}
		return redirect(target, ReasonUnauthenticated)
	}

	if target, ok := fenceDecision(sess, nav.Path); ok {
		return redirect(target, ReasonRoleFenced)
	}

	if sess.LocallyExpired(now) {
		return redirect(LoginRoute, ReasonExpired)
	}

	return allowed()
}

// Refresher settles a stale access token before a navigation is allowed to
// render.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Guard defines a public type used by goSession APIs.
//
// Guard wraps Evaluate with the state transitions that have side effects:
// clearing the store on absolute expiry and withholding an Allow until a
// stale access token has been refreshed.
type Guard struct {
	store     *credential.Store
	refresher Refresher
	now       func() time.Time
}

// Option configures a Guard.
type Option func(*Guard)

// WithNowTime overrides the guard clock, for tests.
func WithNowTime(now func() time.Time) Option {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGuard describes the newguard operation and its observable behavior.
func NewGuard(store *credential.Store, refresher Refresher, opts ...Option) *Guard {
	g := &Guard{
		store:     store,
		refresher: refresher,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authorize evaluates the navigation against the live store. Expired
// sessions are cleared before the redirect is returned. When the decision
// is Allow but the access token is past its server-declared expiry, the
// refresh protocol runs first and the Allow is withheld until it settles;
// a failed refresh turns the decision into a login redirect.
func (g *Guard) Authorize(ctx context.Context, nav Navigation) (Decision, error) {
	now := g.now()
	sess := g.store.Session()
	decision := Evaluate(sess, nav, now)

	if decision.Reason == ReasonExpired {
		if err := g.store.Clear(ctx); err != nil {
			return decision, err
		}
		return decision, nil
	}

	if decision.Outcome != Allow || g.refresher == nil {
		return decision, nil
	}

	if sess.HasToken() && sess.AccessStale(now) {
		if err := g.refresher.Refresh(ctx); err != nil {
			return redirect(LoginRouteFor(nav.Path), ReasonRefreshFailed), nil
		}
		// the store may have been mutated while the refresh was in
		// flight; re-evaluate rather than trusting the stale read
		return Evaluate(g.store.Session(), nav, g.now()), nil
	}

	return decision, nil
}
