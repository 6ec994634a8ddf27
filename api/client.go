// Package api is the thin HTTP client for the platform's identity
// endpoints: anonymous guest issuance and the role-family refresh exchange.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tickora/goSession/credential"
)

var (
	// ErrRejected is an exported constant or variable used by the session engine.
	ErrRejected = errors.New("identity exchange rejected")
	// ErrUpstream is an exported constant or variable used by the session engine.
	ErrUpstream = errors.New("identity service unavailable")
)

// Config defines a public type used by goSession APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	// HTTPClient overrides the default client. The identity client must
	// never run behind the authenticating transport: refresh and guest
	// issuance carry their credentials explicitly.
	HTTPClient *http.Client

	Logger zerolog.Logger
}

// Client defines a public type used by goSession APIs.
//
// Client instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
	logger    zerolog.Logger
}

// NewClient describes the newclient operation and its observable behavior.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %v", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.New("base url must be http or https")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "goSession/1.0"
	}

	return &Client{
		base:      base,
		http:      httpClient,
		userAgent: userAgent,
		logger:    cfg.Logger,
	}, nil
}

// GuestToken is the anonymous credential issued to unauthenticated clients.
type GuestToken struct {
	Token     string
	ExpiresAt time.Time
}

type guestLoginResponse struct {
	CurrentAccessToken struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	} `json:"current_access_token"`
}

// GuestLogin issues a fresh anonymous access token.
func (c *Client) GuestLogin(ctx context.Context) (GuestToken, error) {
	var out guestLoginResponse
	if err := c.do(ctx, http.MethodGet, "/attendee/auth/guest-login", nil, "", &out); err != nil {
		return GuestToken{}, err
	}
	if out.CurrentAccessToken.Token == "" {
		return GuestToken{}, fmt.Errorf("%w: empty guest token", ErrUpstream)
	}

	return GuestToken{
		Token:     out.CurrentAccessToken.Token,
		ExpiresAt: out.CurrentAccessToken.ExpiresAt,
	}, nil
}

// TokenPair is the result of a successful refresh exchange.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExpiry time.Time
}

type refreshRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// RefreshToken exchanges the current token pair against the refresh
// endpoint of the session's role family.
func (c *Client) RefreshToken(ctx context.Context, family credential.Family, access, refresh string) (TokenPair, error) {
	body, err := json.Marshal(refreshRequest{
		AccessToken:  access,
		RefreshToken: refresh,
	})
	if err != nil {
		return TokenPair{}, err
	}

	path := "/" + string(family) + "/auth/refresh-token"

	var out refreshResponse
	if err := c.do(ctx, http.MethodPost, path, body, access, &out); err != nil {
		return TokenPair{}, err
	}
	if out.AccessToken == "" || out.RefreshToken == "" {
		return TokenPair{}, fmt.Errorf("%w: incomplete token pair", ErrUpstream)
	}

	return TokenPair{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		AccessExpiry: out.ExpiresAt,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, bearer string, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		c.logger.Debug().Str("path", path).Int("status", resp.StatusCode).Msg("identity exchange rejected")
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	default:
		c.logger.Debug().Str("path", path).Int("status", resp.StatusCode).Msg("identity service error")
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return nil
}
