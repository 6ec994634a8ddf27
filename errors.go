package goSession

import "errors"

var (
	// ErrEngineNotReady is an exported constant or variable used by the session engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrRefreshUnavailable is an exported constant or variable used by the session engine.
	ErrRefreshUnavailable = errors.New("no refresh credential available")
	// ErrRefreshFailed is an exported constant or variable used by the session engine.
	ErrRefreshFailed = errors.New("refresh exchange failed")
	// ErrRefreshSuperseded is an exported constant or variable used by the session engine.
	ErrRefreshSuperseded = errors.New("session replaced while refresh was in flight")
	// ErrGuestUnavailable is an exported constant or variable used by the session engine.
	ErrGuestUnavailable = errors.New("guest identity unavailable")
	// ErrRealtimeDisabled is an exported constant or variable used by the session engine.
	ErrRealtimeDisabled = errors.New("realtime channel disabled")
	// ErrNoCorrelation is an exported constant or variable used by the session engine.
	ErrNoCorrelation = errors.New("no credential to correlate the subscription with")
)
