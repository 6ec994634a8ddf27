package goSession

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tickora/goSession/guard"
)

func newRefreshServer(t *testing.T, family string, delay time.Duration, calls *atomic.Int64) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/"+family+"/auth/refresh-token" {
			http.NotFound(w, r)
			return
		}
		calls.Add(1)
		if delay > 0 {
			time.Sleep(delay)
		}

		var body struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RefreshToken == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-2",
			"refresh_token": "refresh-2",
			"expires_at":    time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		})
	}))
	t.Cleanup(server.Close)

	return server
}

func TestRefreshSingleFlight(t *testing.T) {
	var calls atomic.Int64
	server := newRefreshServer(t, "attendee", 300*time.Millisecond, &calls)

	engine, _ := newTestEngine(t, server.URL)
	ctx := context.Background()

	if err := engine.SetSession(ctx, activeTestSession(RoleAttendee)); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}

	const goroutines = 16

	start := make(chan struct{})
	errs := make([]error, goroutines)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(idx int) {
			defer wg.Done()
			<-start
			errs[idx] = engine.Refresh(ctx)
		}(i)
	}
	close(start)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("goroutine %d: refresh failed: %v", i, err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 refresh exchange, server saw %d", got)
	}

	sess := engine.Session()
	if sess == nil {
		t.Fatal("expected session to survive refresh")
	}
	if sess.AccessToken != "access-2" || sess.RefreshToken != "refresh-2" {
		t.Fatalf("expected rotated tokens, got %q/%q", sess.AccessToken, sess.RefreshToken)
	}
	if sess.Role != RoleAttendee || sess.Profile.FirstName != "Avery" {
		t.Fatal("refresh must not touch role or profile")
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricRefreshSuccess] != 1 {
		t.Fatalf("expected 1 refresh success, got %d", snap.Counters[MetricRefreshSuccess])
	}
	if snap.Counters[MetricRefreshShared] == 0 {
		t.Fatal("expected concurrent callers to attach to the shared flight")
	}
}

func TestRefreshRoutesByRoleFamily(t *testing.T) {
	var calls atomic.Int64
	server := newRefreshServer(t, "organization", 0, &calls)

	engine, _ := newTestEngine(t, server.URL)
	ctx := context.Background()

	if err := engine.SetSession(ctx, activeTestSession(RoleOrganizer)); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}
	if err := engine.Refresh(ctx); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatal("expected the organization family endpoint to be used")
	}
}

func TestRefreshFailureClearsStoreAndNotifies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	engine, sink := newTestEngine(t, server.URL)
	ctx := context.Background()

	if err := engine.SetSession(ctx, activeTestSession(RoleOrganizer)); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}

	err := engine.Refresh(WithRoutePath(ctx, "/organization/dashboard"))
	if !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("expected ErrRefreshFailed, got %v", err)
	}
	if engine.Session() != nil {
		t.Fatal("expected store cleared after terminal refresh failure")
	}

	notice := waitNotice(t, sink, NoticeLoginRequired)
	if notice.Role != RoleOrganizer {
		t.Fatalf("expected organizer role on notice, got %q", notice.Role)
	}
	if notice.Metadata["login_route"] != guard.OrganizationLoginRoute {
		t.Fatalf("expected organization login route, got %+v", notice.Metadata)
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricRefreshFailure] != 1 {
		t.Fatal("expected refresh failure metric")
	}
	if snap.Counters[MetricSessionCleared] != 1 {
		t.Fatal("expected session cleared metric")
	}
}

func TestRefreshWithoutSession(t *testing.T) {
	engine, _ := newTestEngine(t, "http://app.test")

	if err := engine.Refresh(context.Background()); !errors.Is(err, ErrRefreshUnavailable) {
		t.Fatalf("expected ErrRefreshUnavailable, got %v", err)
	}
	if engine.MetricsSnapshot().Counters[MetricRefreshUnavailable] != 1 {
		t.Fatal("expected refresh unavailable metric")
	}
}

func TestRefreshSupersededByLogout(t *testing.T) {
	var calls atomic.Int64
	server := newRefreshServer(t, "attendee", 300*time.Millisecond, &calls)

	engine, _ := newTestEngine(t, server.URL)
	ctx := context.Background()

	if err := engine.SetSession(ctx, activeTestSession(RoleAttendee)); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}

	result := make(chan error, 1)
	go func() {
		result <- engine.Refresh(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	if err := engine.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	select {
	case err := <-result:
		if !errors.Is(err, ErrRefreshSuperseded) {
			t.Fatalf("expected ErrRefreshSuperseded, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("refresh did not settle")
	}

	if engine.Session() != nil {
		t.Fatal("superseded refresh must not resurrect the session")
	}
}

func TestRefreshIfStaleFreshSessionNoop(t *testing.T) {
	var calls atomic.Int64
	server := newRefreshServer(t, "attendee", 0, &calls)

	engine, _ := newTestEngine(t, server.URL)
	ctx := context.Background()

	if err := engine.SetSession(ctx, activeTestSession(RoleAttendee)); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}
	if err := engine.RefreshIfStale(ctx); err != nil {
		t.Fatalf("RefreshIfStale failed: %v", err)
	}
	if calls.Load() != 0 {
		t.Fatal("fresh access token must not trigger a refresh")
	}
}

func TestRefreshIfStaleRunsWhenExpired(t *testing.T) {
	var calls atomic.Int64
	server := newRefreshServer(t, "attendee", 0, &calls)

	engine, _ := newTestEngine(t, server.URL)
	ctx := context.Background()

	sess := activeTestSession(RoleAttendee)
	sess.AccessExpiry = time.Now().Add(-time.Minute)
	if err := engine.SetSession(ctx, sess); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}
	if err := engine.RefreshIfStale(ctx); err != nil {
		t.Fatalf("RefreshIfStale failed: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatal("stale access token must trigger exactly one refresh")
	}
	if got := engine.Session().AccessToken; got != "access-2" {
		t.Fatalf("expected rotated access token, got %q", got)
	}
}
