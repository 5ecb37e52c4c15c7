package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samels-litmus/i3X-Explorer/internal/api"
	"github.com/samels-litmus/i3X-Explorer/internal/feed"
	"github.com/samels-litmus/i3X-Explorer/internal/session"
	"github.com/samels-litmus/i3X-Explorer/internal/store"
)

// fakeServer is a minimal in-process i3X server: subscription lifecycle,
// poll-sync and a push stream fed from a channel.
type fakeServer struct {
	mu          sync.Mutex
	subs        map[string][]string
	nextID      atomic.Int32
	streamMsgs  chan string
	streamDials atomic.Int32
	syncPayload string
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		subs:       make(map[string][]string),
		streamMsgs: make(chan string, 16),
	}
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /subscriptions", func(w http.ResponseWriter, r *http.Request) {
		id := fmt.Sprintf("sub-%d", f.nextID.Add(1))
		f.mu.Lock()
		f.subs[id] = nil
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"id": id, "createdAt": time.Now()})
	})
	mux.HandleFunc("DELETE /subscriptions/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		delete(f.subs, r.PathValue("id"))
		f.mu.Unlock()
	})
	mux.HandleFunc("POST /subscriptions/{id}/register", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ElementIDs []string `json:"elementIds"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		id := r.PathValue("id")
		f.subs[id] = append(f.subs[id], body.ElementIDs...)
		f.mu.Unlock()
	})
	mux.HandleFunc("POST /subscriptions/{id}/unregister", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "{}")
	})
	mux.HandleFunc("POST /subscriptions/{id}/sync", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		payload := f.syncPayload
		f.syncPayload = "[]"
		f.mu.Unlock()
		if payload == "" {
			payload = "[]"
		}
		io.WriteString(w, payload)
	})
	mux.HandleFunc("GET /subscriptions/{id}/stream", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			http.Error(w, "stream requires text/event-stream", http.StatusNotAcceptable)
			return
		}
		f.streamDials.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		flusher.Flush()
		for {
			select {
			case msg, ok := <-f.streamMsgs:
				if !ok {
					return // server closes the stream
				}
				io.WriteString(w, msg)
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	})
	return mux
}

func newSessionOver(t *testing.T, srv *httptest.Server, opts feed.Options) (*session.Session, *store.LiveStore) {
	t.Helper()
	client, err := api.NewClient(api.DefaultClientConfig(srv.URL, api.Credentials{
		Kind: api.CredentialBasic, Username: "operator", Password: "secret",
	}))
	require.NoError(t, err)

	liveStore := store.NewLiveStore(nil)
	s, err := session.NewSession(session.Config{
		API:      client,
		Store:    liveStore,
		Factory:  session.NewTransportFactory(client, opts, nil, nil),
		MaxDepth: 1,
	})
	require.NoError(t, err)
	return s, liveStore
}

func TestPollFeedEndToEnd(t *testing.T) {
	fake := newFakeServer()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	fake.syncPayload = `[{"e1":{"data":[{"value":42,"quality":"Good","timestamp":"2024-01-01T00:00:00Z"}]}}]`

	s, liveStore := newSessionOver(t, srv, feed.Options{PollInterval: time.Hour})
	defer s.Close()

	ctx := context.Background()
	sub, err := s.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Register(ctx, sub.ID, []string{"e1", "e2"}))
	require.NoError(t, s.StartFeed(ctx, sub.ID, feed.ModePoll))

	lv, ok := liveStore.Value("e1")
	require.True(t, ok)
	assert.Equal(t, float64(42), lv.VQT.Value)
	assert.Equal(t, "Good", lv.VQT.Quality)
	assert.Len(t, liveStore.Trend("e1"), 1)

	_, ok = liveStore.Value("e2")
	assert.False(t, ok)

	require.NoError(t, s.Delete(ctx, sub.ID))
}

func TestStreamFeedEndToEnd(t *testing.T) {
	fake := newFakeServer()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	s, liveStore := newSessionOver(t, srv, feed.Options{ReconnectBase: 10 * time.Millisecond})
	defer s.Close()

	ctx := context.Background()
	sub, err := s.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Register(ctx, sub.ID, []string{"e1"}))
	require.NoError(t, s.StartFeed(ctx, sub.ID, feed.ModeStream))

	// nested encoding over the wire, equivalent outcome to the flat form
	fake.streamMsgs <- `data: [{"e1":{"data":[{"value":{"Data":{"Value":7,"Quality":"Good","Timestamp":"T"}}}]}}]` + "\n\n"

	require.Eventually(t, func() bool {
		lv, ok := liveStore.Value("e1")
		return ok && lv.VQT.Value == float64(7)
	}, 3*time.Second, 10*time.Millisecond)

	lv, _ := liveStore.Value("e1")
	assert.Equal(t, "Good", lv.VQT.Quality)
	assert.Equal(t, "T", lv.VQT.Timestamp)
	assert.Len(t, liveStore.Trend("e1"), 1)
}

func TestStreamReconnectsAfterServerDrop(t *testing.T) {
	fake := newFakeServer()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	s, liveStore := newSessionOver(t, srv, feed.Options{
		ReconnectBase: 10 * time.Millisecond,
		MaxReconnects: 5,
	})
	defer s.Close()

	ctx := context.Background()
	sub, err := s.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Register(ctx, sub.ID, []string{"e1"}))
	require.NoError(t, s.StartFeed(ctx, sub.ID, feed.ModeStream))

	require.Eventually(t, func() bool { return fake.streamDials.Load() == 1 },
		3*time.Second, 5*time.Millisecond)

	// drop the stream once; the client must dial again after the backoff
	fake.streamMsgs <- "" // unblock and close below
	close(fake.streamMsgs)
	require.Eventually(t, func() bool { return fake.streamDials.Load() >= 2 },
		3*time.Second, 5*time.Millisecond)

	// the subscription is still considered streaming while reconnecting
	got, err := s.Get(sub.ID)
	require.NoError(t, err)
	assert.True(t, got.IsStreaming)
	assert.Equal(t, 0, liveStore.Len())
}
