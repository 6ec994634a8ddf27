// Package goSession is the client-side session and authorization engine of
// a consumer ticketing platform: credential storage that survives reloads,
// a lazy anonymous guest identity, an authenticating HTTP transport with a
// single-flight refresh protocol, a route authorization guard, and a
// realtime reconciler that applies pushed events at most once.
//
// The package is designed for concurrent client workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Engine], [Builder],
// [Config], and value types (MetricsSnapshot, Notice, etc.). The credential
// store, route guard, transports, and realtime subscriber live in
// subpackages and are wired together here.
//
// # What this package must NOT do
//
//   - Cache Session fields across an await: every continuation re-reads
//     the credential store, which is the single source of truth.
//   - Retry failed network operations internally (beyond the single
//     documented retry-after-refresh); callers own retry policy.
//   - Import any sub-package that re-imports goSession (no import cycles).
package goSession
