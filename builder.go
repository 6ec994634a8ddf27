package goSession

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tickora/goSession/api"
	"github.com/tickora/goSession/credential"
	"github.com/tickora/goSession/guard"
	"github.com/tickora/goSession/realtime"
	"github.com/tickora/goSession/transport"
)

// Builder defines a public type used by goSession APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	keyring    credential.Keyring
	httpClient *http.Client
	noticeSink NoticeSink

	logger    zerolog.Logger
	loggerSet bool

	now func() time.Time

	built bool
}

// New describes the new operation and its observable behavior.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL sets the API origin without replacing the whole config.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.API.BaseURL = baseURL
	return b
}

// WithRedis persists credentials in Redis instead of process memory.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithKeyring overrides credential persistence entirely. Takes precedence
// over WithRedis.
func (b *Builder) WithKeyring(keyring credential.Keyring) *Builder {
	b.keyring = keyring
	return b
}

// WithHTTPClient sets the base client the authenticating transport wraps.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithNoticeSink describes the withnoticesink operation and its observable behavior.
func (b *Builder) WithNoticeSink(sink NoticeSink) *Builder {
	b.noticeSink = sink
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	b.loggerSet = true
	return b
}

// WithNowTime overrides the engine clock, for tests.
func (b *Builder) WithNowTime(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if !b.loggerSet {
		logger = zerolog.Nop()
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	// -------- CREDENTIAL STORE --------
	keyring := b.keyring
	if keyring == nil && b.redis != nil {
		keyring = credential.NewRedisKeyring(b.redis, cfg.Credentials.RedisPrefix, cfg.Credentials.PersistTTL)
	}
	store := credential.NewStore(keyring, cfg.Credentials.SessionSlot, cfg.Credentials.GuestSlot)

	// -------- IDENTITY CLIENT --------
	apiClient, err := api.NewClient(api.Config{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		UserAgent:  cfg.API.UserAgent,
		HTTPClient: b.httpClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:      cfg,
		credentials: store,
		api:         apiClient,
		ledger:      realtime.NewLedger(),
		logger:      logger,
		now:         now,
	}

	engine.notify = newNoticeDispatcher(cfg.Notify, b.noticeSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	// -------- ROUTE GUARD --------
	engine.guard = guard.NewGuard(store, engine, guard.WithNowTime(now))

	// -------- AUTHENTICATING TRANSPORT --------
	var baseTransport http.RoundTripper
	if b.httpClient != nil {
		baseTransport = b.httpClient.Transport
	}
	authOpts := []transport.Option{
		transport.WithLogger(logger),
		transport.WithHooks(transport.Hooks{
			Authenticated: func() { engine.metricInc(MetricRequestAuthenticated) },
			Anonymous:     func() { engine.metricInc(MetricRequestAnonymous) },
			Retried:       func() { engine.metricInc(MetricRequestRetried) },
		}),
	}
	if cfg.Guest.AutoIssue {
		authOpts = append(authOpts, transport.WithGuestIssuer(engine))
	}
	engine.httpClient = &http.Client{
		Transport: transport.NewAuthenticator(baseTransport, store, engine, authOpts...),
		Timeout:   cfg.API.Timeout,
	}

	// -------- REALTIME SUBSCRIBER --------
	if cfg.Realtime.Enabled {
		channelURL := cfg.Realtime.URL
		if channelURL == "" {
			channelURL, err = deriveChannelURL(cfg.API.BaseURL)
			if err != nil {
				return nil, err
			}
		}
		// the handshake is bounded by DialTimeout; http.Client.Timeout
		// is not honored for websocket dials
		engine.subscriber = realtime.NewSubscriber(realtime.Config{
			URL:         channelURL,
			DialTimeout: cfg.Realtime.DialTimeout,
			Logger:      logger,
		}, engine.ledger)
	}

	b.built = true

	return engine, nil
}

// deriveChannelURL maps the API origin onto the default cable endpoint.
func deriveChannelURL(baseURL string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}

	switch base.Scheme {
	case "http":
		base.Scheme = "ws"
	case "https":
		base.Scheme = "wss"
	default:
		return "", errors.New("cannot derive channel url from base url")
	}
	base.Path = "/cable"
	base.RawQuery = ""

	return base.String(), nil
}
