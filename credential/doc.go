// Package credential holds the client's single source of truth for the
// authenticated Session and the anonymous GuestIdentity, with write-through
// persistence to a pluggable Keyring (in-memory or Redis backed).
package credential
