package goSession

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tickora/goSession/api"
	"github.com/tickora/goSession/credential"
	"github.com/tickora/goSession/guard"
	"github.com/tickora/goSession/realtime"
	"github.com/tickora/goSession/token"
)

// Engine defines a public type used by goSession APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config       Config
	credentials  *credential.Store
	api          *api.Client
	guard        *guard.Guard
	subscriber   *realtime.Subscriber
	ledger       *realtime.Ledger
	httpClient   *http.Client
	refreshGroup singleflight.Group
	notify       *noticeDispatcher
	metrics      *Metrics
	logger       zerolog.Logger
	now          func() time.Time
}

// Close describes the close operation and its observable behavior.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.notify != nil {
		e.notify.Close()
	}
}

// Hydrate loads persisted credentials from the keyring. Call it once after
// Build, before serving navigations.
func (e *Engine) Hydrate(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}
	return e.credentials.Hydrate(ctx)
}

// Credentials exposes the credential store, the single source of truth
// every component reads.
func (e *Engine) Credentials() *credential.Store {
	return e.credentials
}

// Guard returns the route authorization guard bound to this engine.
func (e *Engine) Guard() *guard.Guard {
	return e.guard
}

// Ledger returns the dedup ledger shared between push and poll paths.
func (e *Engine) Ledger() *realtime.Ledger {
	return e.ledger
}

// HTTPClient returns a client whose transport attaches credentials and
// drives the refresh protocol. Use it for all API calls.
func (e *Engine) HTTPClient() *http.Client {
	return e.httpClient
}

// Session returns a copy of the current session, or nil.
func (e *Engine) Session() *Session {
	return e.credentials.Session()
}

// SetSession installs a freshly authenticated session (login, signup,
// SSO). A missing server-declared access expiry is recovered from the
// token's exp claim; a missing local expiry defaults to the configured
// lifetime.
func (e *Engine) SetSession(ctx context.Context, sess Session) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if sess.AccessExpiry.IsZero() {
		if exp, ok := token.Expiry(sess.AccessToken); ok {
			sess.AccessExpiry = exp
		}
	}
	if sess.LocalExpiry.IsZero() {
		sess.LocalExpiry = e.now().Add(e.config.Credentials.LocalSessionLifetime)
	}

	if err := e.credentials.SetSession(ctx, sess); err != nil {
		return err
	}

	e.metricInc(MetricSessionSet)
	e.logger.Debug().Str("role", string(sess.Role)).Msg("session installed")
	return nil
}

// Logout clears all credentials. Explicit logout is silent: no notice is
// emitted.
func (e *Engine) Logout(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if err := e.credentials.Clear(ctx); err != nil {
		return err
	}
	e.metricInc(MetricSessionCleared)
	return nil
}

// AuthorizeRoute evaluates a navigation against the live credential state.
// The checkout flag may also arrive through ctx (WithCheckoutFlow).
func (e *Engine) AuthorizeRoute(ctx context.Context, nav guard.Navigation) (guard.Decision, error) {
	if e == nil {
		return guard.Decision{}, ErrEngineNotReady
	}
	if checkoutFlowFromContext(ctx) {
		nav.CheckoutFlow = true
	}

	decision, err := e.guard.Authorize(WithRoutePath(ctx, nav.Path), nav)
	if err != nil {
		return decision, err
	}

	switch decision.Outcome {
	case guard.Allow:
		e.metricInc(MetricGuardAllow)
	case guard.Redirect:
		e.metricInc(MetricGuardRedirect)
		if decision.Reason == guard.ReasonExpired {
			e.metricInc(MetricSessionExpiredLocal)
			e.emitNotice(ctx, Notice{
				Type:    NoticeSessionExpired,
				Message: "your session has expired, please log in again",
				Metadata: map[string]string{
					"route": nav.Path,
				},
			})
		}
	default:
		e.metricInc(MetricGuardPending)
	}

	return decision, nil
}

// NoticesDropped describes the noticesdropped operation and its observable behavior.
func (e *Engine) NoticesDropped() uint64 {
	if e == nil || e.notify == nil {
		return 0
	}
	return e.notify.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emitNotice(ctx context.Context, notice Notice) {
	if e == nil || e.notify == nil {
		return
	}
	if notice.Timestamp.IsZero() {
		notice.Timestamp = e.now()
	}
	if notice.Role == "" {
		if sess := e.credentials.Session(); sess != nil {
			notice.Role = sess.Role
		}
	}
	e.metricInc(MetricNoticeEmitted)
	e.notify.Emit(ctx, notice)
}
