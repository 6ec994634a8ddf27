// Package transport provides the authenticating http.RoundTripper: it
// attaches the best available bearer credential to every outbound request
// and drives the refresh protocol on authorization failure.
package transport

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tickora/goSession/credential"
)

// CredentialSource exposes the reads the transport needs. Credentials are
// re-read on every attempt; they are never cached across an await.
type CredentialSource interface {
	Session() *credential.Session
	Guest() *credential.GuestIdentity
}

// Refresher runs the single-flight refresh protocol.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// GuestIssuer lazily issues an anonymous credential when none is usable.
type GuestIssuer interface {
	EnsureGuestIdentity(ctx context.Context) error
}

// Hooks receives transport observations. All methods may be nil-receiver
// safe no-ops.
type Hooks struct {
	Authenticated func()
	Anonymous     func()
	Retried       func()
}

// Authenticator defines a public type used by goSession APIs.
//
// Authenticator is an http.RoundTripper. It prefers the Session token over
// the GuestIdentity token, tags every request with an X-Request-Id, and on
// a 401 with a refreshable session runs the refresh protocol and retries
// the original request exactly once.
type Authenticator struct {
	base      http.RoundTripper
	creds     CredentialSource
	refresher Refresher
	guests    GuestIssuer
	hooks     Hooks
	logger    zerolog.Logger
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithGuestIssuer enables lazy guest issuance before anonymous requests.
func WithGuestIssuer(issuer GuestIssuer) Option {
	return func(a *Authenticator) {
		a.guests = issuer
	}
}

// WithLogger sets the transport logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

// WithHooks sets the observation hooks.
func WithHooks(hooks Hooks) Option {
	return func(a *Authenticator) {
		a.hooks = hooks
	}
}

// NewAuthenticator describes the newauthenticator operation and its observable behavior.
func NewAuthenticator(base http.RoundTripper, creds CredentialSource, refresher Refresher, opts ...Option) *Authenticator {
	if base == nil {
		base = http.DefaultTransport
	}

	a := &Authenticator{
		base:      base,
		creds:     creds,
		refresher: refresher,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RoundTrip implements http.RoundTripper.
func (a *Authenticator) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	a.ensureGuest(ctx)

	resp, err := a.base.RoundTrip(a.outbound(req))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	sess := a.creds.Session()
	if sess == nil || sess.RefreshToken == "" {
		// unrecoverable: no refresh credential to exchange
		return resp, nil
	}
	if req.Body != nil && req.GetBody == nil {
		a.logger.Debug().Str("method", req.Method).Msg("401 on non-replayable request body, skipping retry")
		return resp, nil
	}

	if refreshErr := a.refresher.Refresh(ctx); refreshErr != nil {
		a.logger.Debug().Err(refreshErr).Msg("refresh failed, returning original 401")
		return resp, nil
	}

	// consume the original 401 before replaying
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()

	retry := a.outbound(req)
	if req.GetBody != nil {
		body, bodyErr := req.GetBody()
		if bodyErr != nil {
			return nil, bodyErr
		}
		retry.Body = body
	}

	if a.hooks.Retried != nil {
		a.hooks.Retried()
	}
	return a.base.RoundTrip(retry)
}

// outbound clones the request and attaches the freshest credential. The
// token is re-read per attempt: a refresh may have rotated it since the
// caller built the request.
func (a *Authenticator) outbound(req *http.Request) *http.Request {
	out := req.Clone(req.Context())
	out.Header.Set("X-Request-Id", uuid.NewString())

	if sess := a.creds.Session(); sess.HasToken() {
		out.Header.Set("Authorization", "Bearer "+sess.AccessToken)
		if a.hooks.Authenticated != nil {
			a.hooks.Authenticated()
		}
		return out
	}

	if guest := a.creds.Guest(); guest != nil && guest.AccessToken != "" {
		out.Header.Set("Authorization", "Bearer "+guest.AccessToken)
	}
	if a.hooks.Anonymous != nil {
		a.hooks.Anonymous()
	}
	return out
}

func (a *Authenticator) ensureGuest(ctx context.Context) {
	if a.guests == nil {
		return
	}
	if a.creds.Session() != nil {
		return
	}
	if err := a.guests.EnsureGuestIdentity(ctx); err != nil {
		// anonymous requests are still legal without a guest token
		a.logger.Debug().Err(err).Msg("guest issuance failed")
	}
}
