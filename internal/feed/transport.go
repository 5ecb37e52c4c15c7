// Package feed implements the live update transports: a push stream with
// bounded reconnection and a poll loop with equivalent delivery semantics.
// The two are observationally equivalent to the consumer; which one runs is
// a configuration choice, never an environment probe.
package feed

import (
	"context"
	"errors"
	"time"

	"github.com/samels-litmus/i3X-Explorer/internal/models"
)

// Mode selects the delivery mechanism for a subscription's live feed.
type Mode string

const (
	ModeStream Mode = "stream"
	ModePoll   Mode = "poll"
)

// Handler receives one ordered batch of normalized updates.
type Handler func(batch models.Batch)

// FailureHandler receives transport-level failures. Feed failures never
// propagate as panics or returned errors past this callback.
type FailureHandler func(err error)

// ErrReconnectExhausted is the terminal error delivered once when the push
// stream gives up after the maximum reconnect attempts.
var ErrReconnectExhausted = errors.New("stream reconnect attempts exhausted")

// ErrAlreadyActive is returned by Start on a transport that is running.
var ErrAlreadyActive = errors.New("transport already active")

// Transport delivers batches of updates for one subscription. Exactly one
// transport is active per subscription at a time; Stop is idempotent and a
// stop requested by the caller is never reported as a failure.
type Transport interface {
	Start(ctx context.Context) error
	Stop()
	IsActive() bool
}

// Options carries the tunables shared by both transports.
type Options struct {
	PollInterval  time.Duration // poll mode: delay between sync calls
	ReconnectBase time.Duration // stream mode: first backoff delay
	MaxReconnects int           // stream mode: attempts before giving up
}

// DefaultOptions returns the production tunables.
func DefaultOptions() Options {
	return Options{
		PollInterval:  2 * time.Second,
		ReconnectBase: time.Second,
		MaxReconnects: 5,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.PollInterval <= 0 {
		o.PollInterval = d.PollInterval
	}
	if o.ReconnectBase <= 0 {
		o.ReconnectBase = d.ReconnectBase
	}
	if o.MaxReconnects <= 0 {
		o.MaxReconnects = d.MaxReconnects
	}
	return o
}
