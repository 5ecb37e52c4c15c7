// Package session owns the lifecycle of server-side subscription resources:
// create, register monitored elements, activate a live feed transport,
// unregister and delete. It is the only writer of subscription state; the
// rendering layer reads snapshots and invokes operations on user action.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/samels-litmus/i3X-Explorer/internal/api"
	"github.com/samels-litmus/i3X-Explorer/internal/feed"
	"github.com/samels-litmus/i3X-Explorer/internal/metrics"
	"github.com/samels-litmus/i3X-Explorer/internal/models"
	"github.com/samels-litmus/i3X-Explorer/internal/store"
)

// ErrUnknownSubscription is returned for operations on an id the session
// does not hold.
var ErrUnknownSubscription = errors.New("unknown subscription")

// Subscription is the local view of one server-side subscription resource.
// Items preserves registration order and never holds duplicates.
type Subscription struct {
	ID          string
	CreatedAt   time.Time
	Items       []string
	IsStreaming bool
}

// Archiver persists absorbed updates. Best-effort: errors are logged by the
// session, never surfaced to the feed.
type Archiver interface {
	Record(ctx context.Context, batch models.Batch) error
}

// TransportFactory builds the live feed transport for one subscription.
// Injected so tests can substitute scripted transports.
type TransportFactory func(mode feed.Mode, subscriptionID string,
	onBatch feed.Handler, onFailure feed.FailureHandler) (feed.Transport, error)

// NewTransportFactory builds the production factory backed by the catalog
// client's stream and sync endpoints.
func NewTransportFactory(client api.SubscriptionAPI, opts feed.Options,
	log logrus.FieldLogger, m *metrics.Metrics) TransportFactory {
	return func(mode feed.Mode, subID string, onBatch feed.Handler, onFailure feed.FailureHandler) (feed.Transport, error) {
		switch mode {
		case feed.ModeStream:
			return feed.NewStreamTransport(client, subID, opts, onBatch, onFailure, log, m), nil
		case feed.ModePoll:
			return feed.NewPollTransport(client, subID, opts, onBatch, onFailure, log, m), nil
		default:
			return nil, fmt.Errorf("unknown feed mode %q", mode)
		}
	}
}

// Config wires a Session.
type Config struct {
	API      api.SubscriptionAPI
	Store    *store.LiveStore
	Factory  TransportFactory
	Archive  Archiver // optional
	MaxDepth int      // forwarded on register calls
	Logger   logrus.FieldLogger
	Metrics  *metrics.Metrics
}

// Session manages any number of subscriptions, each with at most one active
// transport. It is constructed on connect and discarded on disconnect; there
// is no hidden process-wide current-session state.
type Session struct {
	api      api.SubscriptionAPI
	store    *store.LiveStore
	factory  TransportFactory
	archive  Archiver
	maxDepth int
	log      logrus.FieldLogger
	metrics  *metrics.Metrics

	mu    sync.Mutex
	subs  map[string]*Subscription
	order []string
	feeds map[string]feed.Transport
}

// NewSession creates a session over one server connection.
func NewSession(cfg Config) (*Session, error) {
	if cfg.API == nil {
		return nil, fmt.Errorf("catalog API is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("live value store is required")
	}
	if cfg.Factory == nil {
		return nil, fmt.Errorf("transport factory is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Session{
		api:      cfg.API,
		store:    cfg.Store,
		factory:  cfg.Factory,
		archive:  cfg.Archive,
		maxDepth: cfg.MaxDepth,
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
		subs:     make(map[string]*Subscription),
		feeds:    make(map[string]feed.Transport),
	}, nil
}

// Create makes a server-side subscription resource and tracks it locally
// with an empty monitored set.
func (s *Session) Create(ctx context.Context) (Subscription, error) {
	info, err := s.api.CreateSubscription(ctx)
	if err != nil {
		return Subscription{}, fmt.Errorf("failed to create subscription: %w", err)
	}
	createdAt := info.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	sub := &Subscription{ID: info.ID, CreatedAt: createdAt}

	s.mu.Lock()
	s.subs[sub.ID] = sub
	s.order = append(s.order, sub.ID)
	s.mu.Unlock()

	s.log.WithField("subscription", sub.ID).Info("subscription created")
	return snapshot(sub), nil
}

// Register registers elements on the server, then merges them into the
// monitored set preserving registration order and uniqueness. A server
// failure leaves local state untouched.
func (s *Session) Register(ctx context.Context, id string, elementIDs []string) error {
	if _, err := s.get(id); err != nil {
		return err
	}
	if err := s.api.RegisterItems(ctx, id, elementIDs, s.maxDepth); err != nil {
		return fmt.Errorf("failed to register items: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok {
		return ErrUnknownSubscription
	}
	known := make(map[string]struct{}, len(sub.Items))
	for _, item := range sub.Items {
		known[item] = struct{}{}
	}
	for _, elementID := range elementIDs {
		if _, dup := known[elementID]; dup {
			continue
		}
		known[elementID] = struct{}{}
		sub.Items = append(sub.Items, elementID)
	}
	return nil
}

// Unregister removes elements from the server-side subscription, the local
// monitored set, and the live value store (a value for an unmonitored
// element is stale and must not linger).
func (s *Session) Unregister(ctx context.Context, id string, elementIDs []string) error {
	if _, err := s.get(id); err != nil {
		return err
	}
	if err := s.api.UnregisterItems(ctx, id, elementIDs); err != nil {
		return fmt.Errorf("failed to unregister items: %w", err)
	}

	drop := make(map[string]struct{}, len(elementIDs))
	for _, elementID := range elementIDs {
		drop[elementID] = struct{}{}
	}

	s.mu.Lock()
	if sub, ok := s.subs[id]; ok {
		kept := sub.Items[:0]
		for _, item := range sub.Items {
			if _, gone := drop[item]; !gone {
				kept = append(kept, item)
			}
		}
		sub.Items = kept
	}
	s.mu.Unlock()

	for elementID := range drop {
		s.store.Drop(elementID)
	}
	return nil
}

// StartFeed activates a transport for the subscription, fully stopping any
// previous one first.
func (s *Session) StartFeed(ctx context.Context, id string, mode feed.Mode) error {
	if _, err := s.get(id); err != nil {
		return err
	}

	s.mu.Lock()
	previous := s.feeds[id]
	delete(s.feeds, id)
	s.mu.Unlock()
	if previous != nil {
		previous.Stop()
	}

	tr, err := s.factory(mode, id, s.batchHandler(), s.failureHandler(id))
	if err != nil {
		// The previous feed is already stopped; the subscription is idle.
		s.markIdle(id)
		return err
	}
	if err := tr.Start(ctx); err != nil {
		s.markIdle(id)
		return fmt.Errorf("failed to start %s feed: %w", mode, err)
	}

	s.mu.Lock()
	s.feeds[id] = tr
	if sub, ok := s.subs[id]; ok {
		sub.IsStreaming = true
	}
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"subscription": id,
		"mode":         string(mode),
	}).Info("feed started")
	return nil
}

func (s *Session) markIdle(id string) {
	s.mu.Lock()
	if sub, ok := s.subs[id]; ok {
		sub.IsStreaming = false
	}
	s.mu.Unlock()
}

// StopFeed deactivates the subscription's transport, if any.
func (s *Session) StopFeed(id string) {
	s.mu.Lock()
	tr := s.feeds[id]
	delete(s.feeds, id)
	if sub, ok := s.subs[id]; ok {
		sub.IsStreaming = false
	}
	s.mu.Unlock()

	if tr != nil {
		tr.Stop()
	}
}

// Delete stops any active feed, removes the server-side resource and drops
// the local subscription. A server failure keeps the local entry so the
// caller can retry.
func (s *Session) Delete(ctx context.Context, id string) error {
	if _, err := s.get(id); err != nil {
		return err
	}
	s.StopFeed(id)

	if err := s.api.DeleteSubscription(ctx, id); err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}

	s.mu.Lock()
	delete(s.subs, id)
	for i, other := range s.order {
		if other == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.log.WithField("subscription", id).Info("subscription deleted")
	return nil
}

// Close stops every feed and clears all local state, including the live
// value store. Used on disconnect; safe when nothing was ever active.
func (s *Session) Close() {
	s.mu.Lock()
	feeds := make([]feed.Transport, 0, len(s.feeds))
	for _, tr := range s.feeds {
		feeds = append(feeds, tr)
	}
	s.feeds = make(map[string]feed.Transport)
	s.subs = make(map[string]*Subscription)
	s.order = nil
	s.mu.Unlock()

	for _, tr := range feeds {
		tr.Stop()
	}
	s.store.Reset()
}

// Get returns a snapshot of one subscription.
func (s *Session) Get(id string) (Subscription, error) {
	return s.get(id)
}

// List returns snapshots of all subscriptions in creation order.
func (s *Session) List() []Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Subscription, 0, len(s.order))
	for _, id := range s.order {
		if sub, ok := s.subs[id]; ok {
			out = append(out, snapshot(sub))
		}
	}
	return out
}

func (s *Session) get(id string) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok {
		return Subscription{}, fmt.Errorf("%w: %s", ErrUnknownSubscription, id)
	}
	return snapshot(sub), nil
}

func snapshot(sub *Subscription) Subscription {
	out := *sub
	out.Items = append([]string(nil), sub.Items...)
	return out
}

func (s *Session) batchHandler() feed.Handler {
	return func(batch models.Batch) {
		s.store.AbsorbBatch(batch)
		s.metrics.AddUpdates(len(batch))
		if s.archive == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.archive.Record(ctx, batch); err != nil {
			s.log.WithError(err).Warn("failed to archive batch")
		}
	}
}

// failureHandler reacts to transport failures. It must never call back into
// the transport's Stop: it runs on the transport's own delivery goroutine.
func (s *Session) failureHandler(id string) feed.FailureHandler {
	return func(err error) {
		if errors.Is(err, feed.ErrReconnectExhausted) {
			s.mu.Lock()
			if sub, ok := s.subs[id]; ok {
				sub.IsStreaming = false
			}
			s.mu.Unlock()
			s.log.WithField("subscription", id).WithError(err).Error("live feed gave up")
			return
		}
		s.log.WithField("subscription", id).WithError(err).Warn("live feed failure")
	}
}
