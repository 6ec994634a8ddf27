package goSession

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tickora/goSession/guard"
	"github.com/tickora/goSession/token"
)

// Refresh runs the refresh protocol: exchange the current token pair for a
// fresh one against the session's role-family endpoint. It is single-flight
// per session generation; concurrent callers attach to the one in-flight
// exchange and observe its result. On any failure the credential store is
// cleared, a login-required notice is emitted, and ErrRefreshFailed is
// returned; callers redirect to the role-appropriate login destination.
func (e *Engine) Refresh(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}

	sess := e.credentials.Session()
	if sess == nil || sess.RefreshToken == "" {
		e.metricInc(MetricRefreshUnavailable)
		return ErrRefreshUnavailable
	}

	// the generation in the key scopes the flight to this session: a
	// logout or re-login starts a fresh cycle instead of attaching to a
	// stale one
	gen := e.credentials.Generation()
	key := "refresh:" + strconv.FormatUint(gen, 10)

	_, err, shared := e.refreshGroup.Do(key, func() (interface{}, error) {
		return nil, e.refreshExchange(ctx, gen)
	})
	if shared {
		e.metricInc(MetricRefreshShared)
	}
	return err
}

func (e *Engine) refreshExchange(ctx context.Context, gen uint64) error {
	start := e.now()
	defer func() {
		if e.metrics != nil {
			e.metrics.Observe(MetricRefreshLatency, e.now().Sub(start))
		}
	}()

	// re-read after winning the flight: the store may have changed
	// between the caller's read and ours
	sess := e.credentials.Session()
	if sess == nil || sess.RefreshToken == "" {
		e.metricInc(MetricRefreshUnavailable)
		return ErrRefreshUnavailable
	}

	pair, err := e.api.RefreshToken(ctx, sess.Role.Family(), sess.AccessToken, sess.RefreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.logger.Warn().Err(err).Str("family", string(sess.Role.Family())).Msg("refresh exchange failed")

		if e.credentials.Generation() == gen {
			if clearErr := e.credentials.Clear(ctx); clearErr != nil {
				e.logger.Error().Err(clearErr).Msg("failed to clear credentials after refresh failure")
			}
			e.metricInc(MetricSessionCleared)
			e.emitNotice(ctx, Notice{
				Type:    NoticeLoginRequired,
				Role:    sess.Role,
				Message: "please log in again",
				Metadata: map[string]string{
					"login_route": guard.LoginRouteFor(routePathFromContext(ctx)),
				},
			})
		}
		return fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	if e.credentials.Generation() != gen {
		// logged out or re-logged-in while the exchange was in flight;
		// the result must not patch the newer session
		return ErrRefreshSuperseded
	}

	expiry := pair.AccessExpiry
	if expiry.IsZero() {
		if exp, ok := token.Expiry(pair.AccessToken); ok {
			expiry = exp
		}
	}

	if err := e.credentials.PatchTokens(ctx, pair.AccessToken, pair.RefreshToken, expiry); err != nil {
		return err
	}

	e.metricInc(MetricRefreshSuccess)
	e.logger.Debug().Str("family", string(sess.Role.Family())).Msg("tokens rotated")
	return nil
}

// RefreshIfStale refreshes only when the server-declared access expiry has
// passed. A session without a declared expiry is treated as fresh.
func (e *Engine) RefreshIfStale(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}

	sess := e.credentials.Session()
	if sess == nil || !sess.AccessStale(e.now()) {
		return nil
	}
	return e.Refresh(ctx)
}
