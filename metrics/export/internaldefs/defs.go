package internaldefs

import (
	goSession "github.com/tickora/goSession"
)

// CounterDef defines a public type used by goSession APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goSession APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the session engine.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricGuestIssued, Name: "gosession_guest_issued_total", Help: "Issued guest identities."},
	{ID: goSession.MetricGuestReused, Name: "gosession_guest_reused_total", Help: "Guest identities reused within their validity margin."},
	{ID: goSession.MetricGuestFailure, Name: "gosession_guest_failure_total", Help: "Failed guest issuance attempts."},
	{ID: goSession.MetricRefreshSuccess, Name: "gosession_refresh_success_total", Help: "Successful refresh exchanges."},
	{ID: goSession.MetricRefreshFailure, Name: "gosession_refresh_failure_total", Help: "Failed refresh exchanges."},
	{ID: goSession.MetricRefreshShared, Name: "gosession_refresh_shared_total", Help: "Refresh callers that attached to an in-flight exchange."},
	{ID: goSession.MetricRefreshUnavailable, Name: "gosession_refresh_unavailable_total", Help: "Refresh attempts without a refresh credential."},
	{ID: goSession.MetricRequestAuthenticated, Name: "gosession_request_authenticated_total", Help: "Outbound requests carrying a session bearer."},
	{ID: goSession.MetricRequestAnonymous, Name: "gosession_request_anonymous_total", Help: "Outbound requests sent anonymously or with a guest bearer."},
	{ID: goSession.MetricRequestRetried, Name: "gosession_request_retried_total", Help: "Requests replayed after a refresh settled a 401."},
	{ID: goSession.MetricGuardAllow, Name: "gosession_guard_allow_total", Help: "Navigations allowed by the route guard."},
	{ID: goSession.MetricGuardRedirect, Name: "gosession_guard_redirect_total", Help: "Navigations redirected by the route guard."},
	{ID: goSession.MetricGuardPending, Name: "gosession_guard_pending_total", Help: "Navigations held while routing metadata resolved."},
	{ID: goSession.MetricSessionSet, Name: "gosession_session_set_total", Help: "Installed sessions."},
	{ID: goSession.MetricSessionCleared, Name: "gosession_session_cleared_total", Help: "Cleared credential stores."},
	{ID: goSession.MetricSessionExpiredLocal, Name: "gosession_session_expired_local_total", Help: "Sessions voided by the absolute local expiry."},
	{ID: goSession.MetricEventApplied, Name: "gosession_event_applied_total", Help: "Realtime events applied exactly once."},
	{ID: goSession.MetricEventDuplicate, Name: "gosession_event_duplicate_total", Help: "Realtime events suppressed by the dedup ledger."},
	{ID: goSession.MetricChannelError, Name: "gosession_channel_error_total", Help: "Push channel read loops ended by an error."},
	{ID: goSession.MetricNoticeEmitted, Name: "gosession_notice_emitted_total", Help: "User-visible notices emitted."},
}

// HistogramDefs is an exported constant or variable used by the session engine.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricRefreshLatency, Name: "gosession_refresh_latency_seconds", Help: "Refresh exchange latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the session engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the session engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
