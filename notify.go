package goSession

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// NoticeType defines a public type used by goSession APIs.
//
// NoticeType instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type NoticeType string

const (
	// NoticeLoginRequired is an exported constant or variable used by the session engine.
	NoticeLoginRequired NoticeType = "login_required"
	// NoticeSessionExpired is an exported constant or variable used by the session engine.
	NoticeSessionExpired NoticeType = "session_expired"
	// NoticePaymentSuccess is an exported constant or variable used by the session engine.
	NoticePaymentSuccess NoticeType = "payment_success"
	// NoticeEmailVerified is an exported constant or variable used by the session engine.
	NoticeEmailVerified NoticeType = "email_verified"
	// NoticeGuestIssued is an exported constant or variable used by the session engine.
	NoticeGuestIssued NoticeType = "guest_issued"
)

// Notice is a user-visible notification. Silent redirects never produce
// one; terminal refresh failure and reconciler-confirmed business events
// do.
type Notice struct {
	Timestamp time.Time         `json:"timestamp"`
	Type      NoticeType        `json:"type"`
	EventID   string            `json:"event_id,omitempty"`
	Role      Role              `json:"role,omitempty"`
	Message   string            `json:"message,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NoticeSink receives notices from the dispatcher.
type NoticeSink interface {
	Emit(ctx context.Context, notice Notice)
}

// NoOpSink discards every notice.
type NoOpSink struct{}

// Emit implements NoticeSink.
func (NoOpSink) Emit(context.Context, Notice) {}

// ChannelSink buffers notices on a channel for UI consumption.
type ChannelSink struct {
	notices chan Notice
}

// NewChannelSink describes the newchannelsink operation and its observable behavior.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		notices: make(chan Notice, buffer),
	}
}

// Emit implements NoticeSink.
func (s *ChannelSink) Emit(ctx context.Context, notice Notice) {
	select {
	case s.notices <- notice:
	case <-ctx.Done():
	}
}

// Notices returns the receive side of the sink.
func (s *ChannelSink) Notices() <-chan Notice {
	return s.notices
}

// JSONWriterSink writes one JSON document per notice to w.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink describes the newjsonwritersink operation and its observable behavior.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

// Emit implements NoticeSink.
func (s *JSONWriterSink) Emit(_ context.Context, notice Notice) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(notice)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
