package goSession

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config defines a public type used by goSession APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	API         APIConfig
	Credentials CredentialsConfig
	Guest       GuestConfig
	Realtime    RealtimeConfig
	Notify      NotifyConfig
	Metrics     MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig defines a public type used by goSession APIs.
//
// APIConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type APIConfig struct {
	// BaseURL is the single origin all API calls are made against.
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

/*
====================================
CREDENTIALS CONFIG
====================================
*/

// CredentialsConfig defines a public type used by goSession APIs.
//
// CredentialsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CredentialsConfig struct {
	SessionSlot string
	GuestSlot   string

	// RedisPrefix namespaces keyring slots when a Redis client is wired.
	RedisPrefix string
	// PersistTTL bounds how long persisted records outlive their last
	// write. Zero keeps them until explicitly cleared.
	PersistTTL time.Duration

	// LocalSessionLifetime sets localExpiry on sessions that arrive
	// without one. Past that instant the session is void regardless of
	// server state.
	LocalSessionLifetime time.Duration
}

// GuestConfig defines a public type used by goSession APIs.
//
// GuestConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type GuestConfig struct {
	// AutoIssue lets the transport lazily issue a guest identity before
	// anonymous requests.
	AutoIssue bool
	// MinValidity is the remaining lifetime below which an existing
	// guest token is renewed instead of reused.
	MinValidity time.Duration
}

/*
====================================
REALTIME CONFIG
====================================
*/

// RealtimeConfig defines a public type used by goSession APIs.
//
// RealtimeConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RealtimeConfig struct {
	Enabled bool
	// URL of the push channel endpoint. Empty derives ws(s)://<api-host>/cable
	// from the API base URL.
	URL         string
	DialTimeout time.Duration
}

// NotifyConfig defines a public type used by goSession APIs.
//
// NotifyConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type NotifyConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goSession APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			Timeout:   15 * time.Second,
			UserAgent: "goSession/1.0",
		},
		Credentials: CredentialsConfig{
			SessionSlot:          "tickets:session",
			GuestSlot:            "tickets:guest",
			RedisPrefix:          "gosess",
			PersistTTL:           30 * 24 * time.Hour,
			LocalSessionLifetime: 7 * 24 * time.Hour,
		},
		Guest: GuestConfig{
			AutoIssue:   true,
			MinValidity: 30 * time.Second,
		},
		Realtime: RealtimeConfig{
			Enabled:     true,
			DialTimeout: 10 * time.Second,
		},
		Notify: NotifyConfig{
			Enabled:    true,
			BufferSize: 64,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// no reference fields today; a value copy is a deep copy
	return cfg
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("API BaseURL is required")
	}
	base, err := url.Parse(c.API.BaseURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return errors.New("API BaseURL must be a valid http(s) origin")
	}
	if c.API.Timeout <= 0 {
		return errors.New("API Timeout must be positive")
	}

	if c.Credentials.SessionSlot == "" || c.Credentials.GuestSlot == "" {
		return errors.New("credential slot names are required")
	}
	if c.Credentials.SessionSlot == c.Credentials.GuestSlot {
		return errors.New("session and guest slots must differ")
	}
	if c.Credentials.LocalSessionLifetime <= 0 {
		return errors.New("LocalSessionLifetime must be positive")
	}
	if c.Credentials.PersistTTL < 0 {
		return errors.New("PersistTTL must not be negative")
	}

	if c.Guest.MinValidity < 0 {
		return errors.New("guest MinValidity must not be negative")
	}

	if c.Realtime.Enabled {
		if c.Realtime.URL != "" && !strings.HasPrefix(c.Realtime.URL, "ws://") && !strings.HasPrefix(c.Realtime.URL, "wss://") {
			return errors.New("realtime URL must use ws or wss")
		}
		if c.Realtime.DialTimeout <= 0 {
			return errors.New("realtime DialTimeout must be positive")
		}
	}

	if c.Notify.Enabled && c.Notify.BufferSize <= 0 {
		return errors.New("notify BufferSize must be positive")
	}

	return nil
}
