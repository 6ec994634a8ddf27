package goSession

import (
	"context"
	"fmt"
	"time"

	"github.com/tickora/goSession/credential"
)

// EnsureGuestIdentity lazily provisions an anonymous credential. It is a
// no-op when a session exists or the current guest token is still valid
// beyond the configured margin. Issuance errors propagate; there is no
// internal retry.
func (e *Engine) EnsureGuestIdentity(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if e.credentials.Session() != nil {
		return nil
	}
	if guest := e.credentials.Guest(); guest.ValidFor(e.now(), e.config.Guest.MinValidity) {
		e.metricInc(MetricGuestReused)
		return nil
	}

	tok, err := e.api.GuestLogin(ctx)
	if err != nil {
		e.metricInc(MetricGuestFailure)
		return fmt.Errorf("%w: %v", ErrGuestUnavailable, err)
	}

	// a login may have landed while the issuance was in flight; the
	// guest must never shadow an authenticated session
	if e.credentials.Session() != nil {
		return nil
	}

	if err := e.credentials.SetGuest(ctx, credential.GuestIdentity{
		AccessToken: tok.Token,
		ExpiresAt:   tok.ExpiresAt,
	}); err != nil {
		return err
	}

	e.metricInc(MetricGuestIssued)
	e.logger.Debug().Time("expires_at", tok.ExpiresAt).Msg("guest identity issued")
	e.emitNotice(ctx, Notice{
		Type: NoticeGuestIssued,
		Metadata: map[string]string{
			"expires_at": tok.ExpiresAt.Format(time.RFC3339),
		},
	})
	return nil
}
