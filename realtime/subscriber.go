package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
)

// ErrNoEventHandler is an exported constant or variable used by the session engine.
var ErrNoEventHandler = errors.New("subscription requires an event handler")

// Config defines a public type used by goSession APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// URL is the ws(s) endpoint of the push channel.
	URL string
	// DialTimeout bounds the websocket handshake.
	DialTimeout time.Duration
	// HTTPClient is used for the handshake when set.
	HTTPClient *http.Client

	Logger zerolog.Logger
}

// subscribeCommand is the channel-open handshake. The identifier is a
// JSON document serialized into a string, per the platform's cable
// protocol.
type subscribeCommand struct {
	Command    string `json:"command"`
	Identifier string `json:"identifier"`
}

// envelope is one inbound frame: control frames carry a type, payload
// frames carry a message.
type envelope struct {
	Type    string          `json:"type,omitempty"`
	Message json.RawMessage `json:"message,omitempty"`
}

// Event is a deduplicated payload delivered to the subscription handler.
type Event struct {
	ID      string
	Payload json.RawMessage
}

// SubscribeRequest defines a public type used by goSession APIs.
//
// SubscribeRequest instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SubscribeRequest struct {
	// Topic names the channel to subscribe to.
	Topic string
	// Correlation scopes the subscription, e.g. to a session identifier.
	Correlation map[string]string
	// EventID extracts the natural identifier from a payload. Payloads
	// without an identifier are dropped; dedup requires a stable key.
	EventID func(json.RawMessage) string
	// OnEvent receives each distinct payload exactly once.
	OnEvent func(Event)
}

// Subscriber defines a public type used by goSession APIs.
//
// Subscriber opens one websocket connection per subscription and shares
// one Ledger across all of them, and with the poll path.
type Subscriber struct {
	cfg    Config
	ledger *Ledger
	logger zerolog.Logger
}

// NewSubscriber describes the newsubscriber operation and its observable behavior.
func NewSubscriber(cfg Config, ledger *Ledger) *Subscriber {
	if ledger == nil {
		ledger = NewLedger()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	return &Subscriber{
		cfg:    cfg,
		ledger: ledger,
		logger: cfg.Logger,
	}
}

// Ledger returns the dedup ledger shared with the poll path.
func (s *Subscriber) Ledger() *Ledger {
	return s.ledger
}

// Subscription is one open push channel.
type Subscription struct {
	conn      *websocket.Conn
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

// Subscribe dials the push channel, sends the subscribe command for the
// requested topic/correlation and starts the read loop. The read loop runs
// until the channel errors or Close is called; channel errors are logged
// and recorded, never panicked, and there is no automatic reconnect.
func (s *Subscriber) Subscribe(ctx context.Context, req SubscribeRequest) (*Subscription, error) {
	if req.OnEvent == nil {
		return nil, ErrNoEventHandler
	}
	if s.cfg.URL == "" {
		return nil, errors.New("push channel url not configured")
	}

	identifier, err := encodeIdentifier(req.Topic, req.Correlation)
	if err != nil {
		return nil, err
	}

	dialCtx, cancelDial := context.WithTimeout(ctx, s.cfg.DialTimeout)
	defer cancelDial()

	conn, _, err := websocket.Dial(dialCtx, s.cfg.URL, &websocket.DialOptions{
		HTTPClient: s.cfg.HTTPClient,
	})
	if err != nil {
		return nil, err
	}

	if err := wsjson.Write(dialCtx, conn, subscribeCommand{
		Command:    "subscribe",
		Identifier: identifier,
	}); err != nil {
		_ = conn.Close(websocket.StatusInternalError, "subscribe command failed")
		return nil, err
	}

	readCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sub := &Subscription{
		conn:   conn,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go s.readLoop(readCtx, sub, req)

	return sub, nil
}

func (s *Subscriber) readLoop(ctx context.Context, sub *Subscription, req SubscribeRequest) {
	defer close(sub.done)

	for {
		var env envelope
		if err := wsjson.Read(ctx, sub.conn, &env); err != nil {
			if ctx.Err() == nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				s.logger.Warn().Err(err).Str("topic", req.Topic).Msg("push channel error")
				sub.setErr(err)
			}
			return
		}

		// keepalives and subscription acknowledgements carry a type
		if env.Type != "" || len(env.Message) == 0 {
			continue
		}

		id := req.EventID(env.Message)
		if id == "" {
			s.logger.Debug().Str("topic", req.Topic).Msg("payload without identifier dropped")
			continue
		}
		if !s.ledger.Mark(id) {
			continue
		}

		req.OnEvent(Event{ID: id, Payload: env.Message})
	}
}

// Done is closed when the read loop exits.
func (sub *Subscription) Done() <-chan struct{} {
	return sub.done
}

// Err returns the channel error that ended the read loop, if any.
func (sub *Subscription) Err() error {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.err
}

func (sub *Subscription) setErr(err error) {
	sub.mu.Lock()
	sub.err = err
	sub.mu.Unlock()
}

// Close ends the subscription and waits for the read loop to exit.
func (sub *Subscription) Close() {
	sub.closeOnce.Do(func() {
		_ = sub.conn.Close(websocket.StatusNormalClosure, "")
		sub.cancel()
		<-sub.done
	})
}

func encodeIdentifier(topic string, correlation map[string]string) (string, error) {
	if topic == "" {
		return "", errors.New("subscription topic required")
	}

	fields := make(map[string]string, len(correlation)+1)
	fields["channel"] = topic
	for k, v := range correlation {
		fields[k] = v
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
