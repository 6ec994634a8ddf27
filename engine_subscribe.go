package goSession

import (
	"context"
	"encoding/json"

	"github.com/tickora/goSession/realtime"
	"github.com/tickora/goSession/token"
)

const (
	// TopicPurchaseConfirmation is an exported constant or variable used by the session engine.
	TopicPurchaseConfirmation = "purchase_confirmation"
	// TopicEmailVerification is an exported constant or variable used by the session engine.
	TopicEmailVerification = "email_verification"
)

// SubscribePurchaseConfirmations opens the push channel for purchase
// confirmations correlated to the current credential. Each distinct
// purchase identifier produces exactly one payment-success notice, shared
// with the poll path through the dedup ledger.
func (e *Engine) SubscribePurchaseConfirmations(ctx context.Context) (*realtime.Subscription, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if !e.config.Realtime.Enabled || e.subscriber == nil {
		return nil, ErrRealtimeDisabled
	}

	correlation, err := e.subscriptionCorrelation()
	if err != nil {
		return nil, err
	}

	sub, err := e.subscriber.Subscribe(ctx, realtime.SubscribeRequest{
		Topic:       TopicPurchaseConfirmation,
		Correlation: correlation,
		EventID:     purchaseEventID,
		OnEvent: func(ev realtime.Event) {
			e.applyPurchaseConfirmed(context.Background(), ev.ID)
		},
	})
	if err != nil {
		return nil, err
	}
	e.watchChannel(sub)
	return sub, nil
}

// SubscribeEmailVerifications opens the push channel for email
// verification events correlated to the current session.
func (e *Engine) SubscribeEmailVerifications(ctx context.Context) (*realtime.Subscription, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if !e.config.Realtime.Enabled || e.subscriber == nil {
		return nil, ErrRealtimeDisabled
	}

	correlation, err := e.subscriptionCorrelation()
	if err != nil {
		return nil, err
	}

	sub, err := e.subscriber.Subscribe(ctx, realtime.SubscribeRequest{
		Topic:       TopicEmailVerification,
		Correlation: correlation,
		EventID:     verificationEventID,
		OnEvent: func(ev realtime.Event) {
			e.applyEmailVerified(context.Background(), ev.ID)
		},
	})
	if err != nil {
		return nil, err
	}
	e.watchChannel(sub)
	return sub, nil
}

// watchChannel counts read loop failures once the subscription ends.
func (e *Engine) watchChannel(sub *realtime.Subscription) {
	go func() {
		<-sub.Done()
		if sub.Err() != nil {
			e.metricInc(MetricChannelError)
		}
	}()
}

// ApplyPurchaseConfirmed is the poll-side entry point: a pull-based
// reconciliation that found purchase id completed calls it. The effect
// runs at most once per id across both paths. It reports whether this call
// applied the event.
func (e *Engine) ApplyPurchaseConfirmed(ctx context.Context, id string) bool {
	if e == nil || id == "" {
		return false
	}
	if !e.ledger.Mark(id) {
		e.metricInc(MetricEventDuplicate)
		return false
	}
	e.applyPurchaseConfirmed(ctx, id)
	return true
}

// ApplyEmailVerified is the poll-side twin of the email verification push
// path.
func (e *Engine) ApplyEmailVerified(ctx context.Context, id string) bool {
	if e == nil || id == "" {
		return false
	}
	if !e.ledger.Mark(id) {
		e.metricInc(MetricEventDuplicate)
		return false
	}
	e.applyEmailVerified(ctx, id)
	return true
}

// applyPurchaseConfirmed runs the user-visible effect. Callers hold the
// ledger mark for id.
func (e *Engine) applyPurchaseConfirmed(ctx context.Context, id string) {
	e.metricInc(MetricEventApplied)
	e.emitNotice(ctx, Notice{
		Type:    NoticePaymentSuccess,
		EventID: id,
		Message: "payment successful",
	})
}

func (e *Engine) applyEmailVerified(ctx context.Context, id string) {
	e.metricInc(MetricEventApplied)

	// the guard's onboarding check reads this timestamp; patch it so the
	// attendee is released from the signup step without a reload
	confirmedAt := e.now()
	err := e.credentials.PatchProfile(ctx, func(p *Profile) {
		if p.EmailConfirmedAt.IsZero() {
			p.EmailConfirmedAt = confirmedAt
		}
	})
	if err != nil {
		e.logger.Debug().Err(err).Msg("email verification arrived without an active session")
	}

	e.emitNotice(ctx, Notice{
		Type:    NoticeEmailVerified,
		EventID: id,
		Message: "email verified",
	})
}

// subscriptionCorrelation derives the correlation key from the freshest
// credential: the session identifier from the JWT sub claim, with the raw
// token as a fallback scope for guest checkouts.
func (e *Engine) subscriptionCorrelation() (map[string]string, error) {
	access := ""
	if sess := e.credentials.Session(); sess.HasToken() {
		access = sess.AccessToken
	} else if guest := e.credentials.Guest(); guest != nil && guest.AccessToken != "" {
		access = guest.AccessToken
	}
	if access == "" {
		return nil, ErrNoCorrelation
	}

	if sub, ok := token.Subject(access); ok {
		return map[string]string{"session_id": sub}, nil
	}
	return map[string]string{"access_token": access}, nil
}

func purchaseEventID(payload json.RawMessage) string {
	var body struct {
		Purchase string `json:"purchase"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.Purchase
}

func verificationEventID(payload json.RawMessage) string {
	var body struct {
		Verification string `json:"verification"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.Verification
}
