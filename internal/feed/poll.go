package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/samels-litmus/i3X-Explorer/internal/metrics"
	"github.com/samels-litmus/i3X-Explorer/internal/models"
)

// Syncer fetches the pending updates for a subscription.
type Syncer interface {
	Sync(ctx context.Context, subscriptionID string) (models.Batch, error)
}

// PollTransport fetches pending updates on a fixed interval. It is the
// declared-reliable fallback to the push stream: a failed poll is reported
// through OnFailure but never terminates the loop.
type PollTransport struct {
	syncer    Syncer
	subID     string
	onBatch   Handler
	onFailure FailureHandler
	interval  time.Duration
	log       logrus.FieldLogger
	metrics   *metrics.Metrics

	mu     sync.Mutex
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPollTransport creates a poll transport bound to one subscription.
func NewPollTransport(syncer Syncer, subID string, opts Options,
	onBatch Handler, onFailure FailureHandler, log logrus.FieldLogger, m *metrics.Metrics) *PollTransport {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PollTransport{
		syncer:    syncer,
		subID:     subID,
		onBatch:   onBatch,
		onFailure: onFailure,
		interval:  opts.withDefaults().PollInterval,
		log:       log.WithField("subscription", subID),
		metrics:   m,
	}
}

// Start performs one immediate sync call, then repeats on the configured
// interval until Stop.
func (t *PollTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.cron != nil {
		t.mu.Unlock()
		return ErrAlreadyActive
	}
	ctx, cancel := context.WithCancel(ctx)
	t.ctx = ctx
	t.cancel = cancel
	c := cron.New()
	t.cron = c
	t.mu.Unlock()

	t.pollOnce()

	// Schedule and start under the lock so a concurrent Stop either runs
	// first (the re-check below sees it) or finds a started cron to halt.
	t.mu.Lock()
	if t.cron != c {
		// Stop landed during the initial sync; do not start the timer.
		t.mu.Unlock()
		return nil
	}
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", t.interval), t.pollOnce); err != nil {
		t.mu.Unlock()
		t.Stop()
		return fmt.Errorf("failed to schedule poll: %w", err)
	}
	c.Start()
	t.mu.Unlock()
	return nil
}

// Stop cancels the interval timer. No further calls occur; a sync in flight
// when Stop lands has its result discarded.
func (t *PollTransport) Stop() {
	t.mu.Lock()
	c := t.cron
	cancel := t.cancel
	t.cron = nil
	t.cancel = nil
	t.mu.Unlock()

	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
}

// IsActive reports whether the poll loop is running.
func (t *PollTransport) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cron != nil
}

func (t *PollTransport) pollOnce() {
	t.mu.Lock()
	ctx := t.ctx
	t.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	batch, err := t.syncer.Sync(ctx, t.subID)
	if ctx.Err() != nil {
		// Stopped while the call was in flight; discard the result.
		return
	}
	if err != nil {
		t.metrics.IncPollFailures()
		t.log.WithError(err).Warn("poll sync failed")
		if t.onFailure != nil {
			t.onFailure(err)
		}
		return
	}
	if len(batch) > 0 && t.onBatch != nil {
		t.onBatch(batch)
	}
}
