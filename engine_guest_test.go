package goSession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tickora/goSession/credential"
)

func newGuestServer(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/attendee/auth/guest-login" {
			http.NotFound(w, r)
			return
		}
		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"current_access_token": map[string]any{
				"token":      fmt.Sprintf("guest-%d", n),
				"expires_at": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
			},
		})
	}))
	t.Cleanup(server.Close)

	return server
}

func TestGuestIdentityIssued(t *testing.T) {
	var calls atomic.Int64
	server := newGuestServer(t, &calls)

	engine, sink := newTestEngine(t, server.URL)
	ctx := context.Background()

	if err := engine.EnsureGuestIdentity(ctx); err != nil {
		t.Fatalf("EnsureGuestIdentity failed: %v", err)
	}

	guest := engine.Credentials().Guest()
	if guest == nil || guest.AccessToken != "guest-1" {
		t.Fatalf("expected issued guest token, got %+v", guest)
	}

	notice := waitNotice(t, sink, NoticeGuestIssued)
	if notice.Metadata["expires_at"] == "" {
		t.Fatal("expected expires_at metadata on guest notice")
	}
	if engine.MetricsSnapshot().Counters[MetricGuestIssued] != 1 {
		t.Fatal("expected guest issued metric")
	}
}

func TestGuestIdentityReusedWithinMargin(t *testing.T) {
	var calls atomic.Int64
	server := newGuestServer(t, &calls)

	engine, _ := newTestEngine(t, server.URL)
	ctx := context.Background()

	if err := engine.EnsureGuestIdentity(ctx); err != nil {
		t.Fatalf("first issuance failed: %v", err)
	}
	if err := engine.EnsureGuestIdentity(ctx); err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if calls.Load() != 1 {
		t.Fatalf("expected one issuance, server saw %d", calls.Load())
	}
	if engine.MetricsSnapshot().Counters[MetricGuestReused] != 1 {
		t.Fatal("expected guest reused metric")
	}
}

func TestGuestIdentityRenewedWhenExpired(t *testing.T) {
	var calls atomic.Int64
	server := newGuestServer(t, &calls)

	engine, _ := newTestEngine(t, server.URL)
	ctx := context.Background()

	err := engine.Credentials().SetGuest(ctx, credential.GuestIdentity{
		AccessToken: "guest-stale",
		ExpiresAt:   time.Now().Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("SetGuest failed: %v", err)
	}

	if err := engine.EnsureGuestIdentity(ctx); err != nil {
		t.Fatalf("EnsureGuestIdentity failed: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatal("expected expired guest to be renewed")
	}
	if got := engine.Credentials().Guest().AccessToken; got != "guest-1" {
		t.Fatalf("expected renewed token, got %q", got)
	}
}

func TestGuestIdentityNoopWithSession(t *testing.T) {
	var calls atomic.Int64
	server := newGuestServer(t, &calls)

	engine, _ := newTestEngine(t, server.URL)
	ctx := context.Background()

	if err := engine.SetSession(ctx, activeTestSession(RoleAttendee)); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}
	if err := engine.EnsureGuestIdentity(ctx); err != nil {
		t.Fatalf("EnsureGuestIdentity failed: %v", err)
	}

	if calls.Load() != 0 {
		t.Fatal("guest issuance must not run while a session is active")
	}
	if engine.Credentials().Guest() != nil {
		t.Fatal("guest must never shadow an authenticated session")
	}
}

func TestGuestIdentityIssuanceFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	engine, _ := newTestEngine(t, server.URL)

	err := engine.EnsureGuestIdentity(context.Background())
	if !errors.Is(err, ErrGuestUnavailable) {
		t.Fatalf("expected ErrGuestUnavailable, got %v", err)
	}
	if engine.MetricsSnapshot().Counters[MetricGuestFailure] != 1 {
		t.Fatal("expected guest failure metric")
	}
}
