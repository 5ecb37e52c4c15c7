package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/samels-litmus/i3X-Explorer/internal/metrics"
	"github.com/samels-litmus/i3X-Explorer/internal/models"
)

// dataPrefix is the fixed textual framing prefix preceding each JSON payload
// on the push stream.
const dataPrefix = "data: "

// maxStreamLine bounds one framed message; catalogs with deep payloads can
// produce large single-line batches.
const maxStreamLine = 1 << 20

// StreamOpener dials the push-stream endpoint for a subscription. The
// returned body must honor the request context: canceling it aborts reads.
type StreamOpener interface {
	OpenStream(ctx context.Context, subscriptionID string) (io.ReadCloser, error)
}

// State is the stream transport's connection state, exposed so the UI can
// distinguish "reconnecting" from a healthy idle feed.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateReconnecting
	StateFailed
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StreamTransport consumes the subscription push stream and reconnects with
// exponential backoff on unexpected loss. After MaxReconnects consecutive
// failed attempts it reports one terminal failure and goes quiet; a
// successful re-open resets the attempt counter.
type StreamTransport struct {
	opener    StreamOpener
	subID     string
	onBatch   Handler
	onFailure FailureHandler
	opts      Options
	log       logrus.FieldLogger
	metrics   *metrics.Metrics

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// NewStreamTransport creates a stream transport bound to one subscription.
func NewStreamTransport(opener StreamOpener, subID string, opts Options,
	onBatch Handler, onFailure FailureHandler, log logrus.FieldLogger, m *metrics.Metrics) *StreamTransport {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &StreamTransport{
		opener:    opener,
		subID:     subID,
		onBatch:   onBatch,
		onFailure: onFailure,
		opts:      opts.withDefaults(),
		log:       log.WithField("subscription", subID),
		metrics:   m,
		state:     StateIdle,
	}
}

// Start opens the stream and begins delivering batches. It returns
// immediately; connection progress is observable through State.
func (t *StreamTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return ErrAlreadyActive
	}
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	t.state = StateConnecting
	go t.run(ctx)
	return nil
}

// Stop cancels any in-flight connection attempt and pending reconnect timer,
// releases the stream and suppresses all further callbacks. Safe to call
// repeatedly and at any state.
func (t *StreamTransport) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	done := t.done
	t.cancel = nil
	t.state = StateStopped
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// IsActive reports whether the transport is running (including while it is
// between reconnect attempts).
func (t *StreamTransport) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == StateConnecting || t.state == StateOpen || t.state == StateReconnecting
}

// State returns the current connection state.
func (t *StreamTransport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *StreamTransport) setState(s State) {
	t.mu.Lock()
	if t.state != StateStopped {
		t.state = s
	}
	t.mu.Unlock()
}

func (t *StreamTransport) run(ctx context.Context) {
	defer close(t.done)

	attempts := 0
	var lastErr error
	for {
		t.setState(StateConnecting)
		body, err := t.opener.OpenStream(ctx, t.subID)
		if err == nil {
			attempts = 0
			t.setState(StateOpen)
			t.log.Info("stream open")
			err = t.consume(ctx, body)
		}
		if ctx.Err() != nil {
			// Explicit stop: silence, not failure.
			return
		}
		lastErr = err

		attempts++
		if attempts > t.opts.MaxReconnects {
			t.setState(StateFailed)
			t.log.WithError(lastErr).Error("stream reconnects exhausted")
			if t.onFailure != nil {
				t.onFailure(fmt.Errorf("%w: %v", ErrReconnectExhausted, lastErr))
			}
			return
		}

		delay := t.opts.ReconnectBase << (attempts - 1)
		t.setState(StateReconnecting)
		t.metrics.IncReconnects()
		t.log.WithFields(logrus.Fields{
			"attempt": attempts,
			"delay":   delay.String(),
		}).WithError(err).Warn("stream lost, reconnecting")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// consume reads framed messages until the stream ends or ctx is canceled.
// A message that fails to decode is logged and skipped; the connection stays.
func (t *StreamTransport) consume(ctx context.Context, body io.ReadCloser) error {
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLine)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if !strings.HasPrefix(line, dataPrefix) {
			// Blank separators and non-data fields carry no payload.
			continue
		}

		var msgs []map[string]models.ValueEnvelope
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, dataPrefix)), &msgs); err != nil {
			t.log.WithError(err).Warn("skipping malformed stream message")
			continue
		}
		batch := models.BatchFromUpdates(msgs)
		if len(batch) == 0 {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if t.onBatch != nil {
			t.onBatch(batch)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.ErrUnexpectedEOF
}
