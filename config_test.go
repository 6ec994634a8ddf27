package goSession

import (
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := defaultConfig()
	cfg.API.BaseURL = "https://api.tickora.test"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := defaultConfig()

	if cfg.API.Timeout != 15*time.Second {
		t.Fatalf("unexpected API timeout: %v", cfg.API.Timeout)
	}
	if cfg.Credentials.SessionSlot != "tickets:session" || cfg.Credentials.GuestSlot != "tickets:guest" {
		t.Fatal("unexpected default slot names")
	}
	if cfg.Credentials.LocalSessionLifetime != 7*24*time.Hour {
		t.Fatalf("unexpected local session lifetime: %v", cfg.Credentials.LocalSessionLifetime)
	}
	if !cfg.Guest.AutoIssue {
		t.Fatal("guest auto-issue must default on")
	}
	if !cfg.Realtime.Enabled || cfg.Realtime.DialTimeout != 10*time.Second {
		t.Fatal("unexpected realtime defaults")
	}
	if !cfg.Notify.Enabled || cfg.Notify.BufferSize != 64 || !cfg.Notify.DropIfFull {
		t.Fatal("unexpected notify defaults")
	}
	if !cfg.Metrics.Enabled {
		t.Fatal("metrics must default on")
	}
}

func TestConfigValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base url", func(c *Config) { c.API.BaseURL = "" }},
		{"non http base url", func(c *Config) { c.API.BaseURL = "ftp://api.tickora.test" }},
		{"hostless base url", func(c *Config) { c.API.BaseURL = "http://" }},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }},
		{"empty session slot", func(c *Config) { c.Credentials.SessionSlot = "" }},
		{"colliding slots", func(c *Config) { c.Credentials.GuestSlot = c.Credentials.SessionSlot }},
		{"zero local lifetime", func(c *Config) { c.Credentials.LocalSessionLifetime = 0 }},
		{"negative persist ttl", func(c *Config) { c.Credentials.PersistTTL = -time.Hour }},
		{"negative guest margin", func(c *Config) { c.Guest.MinValidity = -time.Second }},
		{"http realtime url", func(c *Config) { c.Realtime.URL = "http://api.tickora.test/cable" }},
		{"zero dial timeout", func(c *Config) { c.Realtime.DialTimeout = 0 }},
		{"zero notify buffer", func(c *Config) { c.Notify.BufferSize = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.API.BaseURL = "https://api.tickora.test"
			tc.mutate(&cfg)

			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation to fail")
			}
		})
	}
}

func TestConfigValidateDisabledSectionsSkipped(t *testing.T) {
	cfg := defaultConfig()
	cfg.API.BaseURL = "https://api.tickora.test"
	cfg.Realtime.Enabled = false
	cfg.Realtime.DialTimeout = 0
	cfg.Notify.Enabled = false
	cfg.Notify.BufferSize = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled sections must not be validated: %v", err)
	}
}
