//go:generate go run github.com/golang/mock/mockgen -destination=./mocks/catalog.go -package=mocks . SubscriptionAPI

// Package api implements the request/response client for the i3X catalog and
// subscription endpoints. It is stateless: one Client per connected server,
// shared by the browse UI and the subscription session.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/samels-litmus/i3X-Explorer/internal/metrics"
	"github.com/samels-litmus/i3X-Explorer/internal/models"
)

// APIError carries the numeric status and body text of a non-2xx response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Body)
}

// CredentialKind selects how the Authorization header is built.
type CredentialKind string

const (
	CredentialNone   CredentialKind = ""
	CredentialBasic  CredentialKind = "basic"
	CredentialBearer CredentialKind = "bearer"
)

// Credentials holds the connection secrets supplied by the connection dialog.
type Credentials struct {
	Kind     CredentialKind
	Username string
	Password string
	Token    string
}

func (c Credentials) apply(req *http.Request) {
	switch c.Kind {
	case CredentialBasic:
		req.SetBasicAuth(c.Username, c.Password)
	case CredentialBearer:
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}

// ClientConfig holds configuration options for the catalog client.
type ClientConfig struct {
	BaseURL     string
	Credentials Credentials
	CacheSize   int           // entries in the catalog-list LRU cache
	RateLimit   float64       // outgoing requests per second
	RateBurst   int           // burst size for the request limiter
	Timeout     time.Duration // per-request timeout for catalog calls
	Logger      logrus.FieldLogger
	Metrics     *metrics.Metrics
}

// DefaultClientConfig returns a ClientConfig with sensible defaults.
func DefaultClientConfig(baseURL string, creds Credentials) ClientConfig {
	return ClientConfig{
		BaseURL:     baseURL,
		Credentials: creds,
		CacheSize:   256,
		RateLimit:   20,
		RateBurst:   40,
		Timeout:     30 * time.Second,
	}
}

// Client is the HTTP wrapper for all catalog and subscription operations.
type Client struct {
	baseURL string
	creds   Credentials
	http    *http.Client
	limiter *rate.Limiter
	cache   *lru.Cache
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewClient creates a catalog client for one server connection.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 256
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 20
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 40
	}
	cache, err := lru.New(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create response cache: %w", err)
	}
	return &Client{
		baseURL: strippedBase(cfg.BaseURL),
		creds:   cfg.Credentials,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		cache:   cache,
		log:     cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

func strippedBase(base string) string {
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base
}

// do performs one JSON request. A nil body sends no payload; a nil out
// discards the response body. Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	c.creds.apply(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(method+" "+path, "error", time.Since(start).Seconds())
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveRequest(method+" "+path, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		c.log.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Warn("catalog request failed")
		return &APIError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(text))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// cachedGet serves near-static catalog listings from an in-memory LRU cache.
func (c *Client) cachedGet(ctx context.Context, path string, out any) error {
	if raw, ok := c.cache.Get(path); ok {
		return json.Unmarshal(raw.([]byte), out)
	}
	var payload json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return err
	}
	c.cache.Add(path, []byte(payload))
	return json.Unmarshal(payload, out)
}

// Namespaces lists the namespaces known to the server.
func (c *Client) Namespaces(ctx context.Context) ([]models.Namespace, error) {
	var out []models.Namespace
	err := c.cachedGet(ctx, "/namespaces", &out)
	return out, err
}

// ObjectTypes lists object types, optionally filtered by namespace URI.
func (c *Client) ObjectTypes(ctx context.Context, namespaceURI string) ([]models.ObjectType, error) {
	path := "/objecttypes"
	if namespaceURI != "" {
		path += "?namespaceUri=" + url.QueryEscape(namespaceURI)
	}
	var out []models.ObjectType
	err := c.cachedGet(ctx, path, &out)
	return out, err
}

// ObjectType fetches a single object type definition.
func (c *Client) ObjectType(ctx context.Context, id string) (*models.ObjectType, error) {
	var out models.ObjectType
	if err := c.do(ctx, http.MethodGet, "/objecttypes/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RelationshipTypes lists relationship types, optionally filtered by namespace URI.
func (c *Client) RelationshipTypes(ctx context.Context, namespaceURI string) ([]models.RelationshipType, error) {
	path := "/relationshiptypes"
	if namespaceURI != "" {
		path += "?namespaceUri=" + url.QueryEscape(namespaceURI)
	}
	var out []models.RelationshipType
	err := c.cachedGet(ctx, path, &out)
	return out, err
}

// Objects lists objects of one type.
func (c *Client) Objects(ctx context.Context, typeID string, includeMetadata bool) ([]models.Object, error) {
	path := fmt.Sprintf("/objects?typeId=%s&includeMetadata=%t",
		url.QueryEscape(typeID), includeMetadata)
	var out []models.Object
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Object fetches a single object.
func (c *Client) Object(ctx context.Context, id string, includeMetadata bool) (*models.Object, error) {
	path := fmt.Sprintf("/objects/%s?includeMetadata=%t", url.PathEscape(id), includeMetadata)
	var out models.Object
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RelatedObjects resolves objects related to the given elements.
func (c *Client) RelatedObjects(ctx context.Context, req models.RelatedRequest) ([]models.Object, error) {
	var out []models.Object
	err := c.do(ctx, http.MethodPost, "/objects/related", req, &out)
	return out, err
}

// LastValues fetches the latest value per element in one batched call.
// The response shares the live-feed envelope encoding, so each first entry
// is normalized through the same path as stream and poll updates.
func (c *Client) LastValues(ctx context.Context, elementIDs []string, maxDepth int) (map[string]models.VQT, error) {
	var raw map[string]models.ValueEnvelope
	req := models.ValueRequest{ElementIDs: elementIDs, MaxDepth: maxDepth}
	if err := c.do(ctx, http.MethodPost, "/objects/value", req, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]models.VQT, len(raw))
	for elementID, envelope := range raw {
		if len(envelope.Data) == 0 {
			continue
		}
		out[elementID] = models.Normalize(envelope.Data[0])
	}
	return out, nil
}

// History fetches historic values per element over a time range. Every entry
// is normalized; entry order within an element is preserved.
func (c *Client) History(ctx context.Context, req models.HistoryRequest) (map[string][]models.VQT, error) {
	var raw map[string]models.ValueEnvelope
	if err := c.do(ctx, http.MethodPost, "/objects/history", req, &raw); err != nil {
		return nil, err
	}
	out := make(map[string][]models.VQT, len(raw))
	for elementID, envelope := range raw {
		values := make([]models.VQT, 0, len(envelope.Data))
		for _, entry := range envelope.Data {
			values = append(values, models.Normalize(entry))
		}
		out[elementID] = values
	}
	return out, nil
}

// Subscriptions lists the server-side subscription resources.
func (c *Client) Subscriptions(ctx context.Context) ([]models.SubscriptionInfo, error) {
	var out []models.SubscriptionInfo
	err := c.do(ctx, http.MethodGet, "/subscriptions", nil, &out)
	return out, err
}

// CreateSubscription creates a new server-side subscription resource.
func (c *Client) CreateSubscription(ctx context.Context) (*models.SubscriptionInfo, error) {
	var out models.SubscriptionInfo
	if err := c.do(ctx, http.MethodPost, "/subscriptions", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSubscription removes a server-side subscription resource.
func (c *Client) DeleteSubscription(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/subscriptions/"+url.PathEscape(id), nil, nil)
}

// RegisterItems registers elements for update delivery on a subscription.
func (c *Client) RegisterItems(ctx context.Context, id string, elementIDs []string, maxDepth int) error {
	req := models.RegisterRequest{ElementIDs: elementIDs, MaxDepth: maxDepth}
	return c.do(ctx, http.MethodPost, "/subscriptions/"+url.PathEscape(id)+"/register", req, nil)
}

// UnregisterItems removes elements from a subscription.
func (c *Client) UnregisterItems(ctx context.Context, id string, elementIDs []string) error {
	req := models.UnregisterRequest{ElementIDs: elementIDs}
	return c.do(ctx, http.MethodPost, "/subscriptions/"+url.PathEscape(id)+"/unregister", req, nil)
}

// Sync fetches pending updates for a subscription (the poll transport path).
func (c *Client) Sync(ctx context.Context, id string) (models.Batch, error) {
	var raw []map[string]models.ValueEnvelope
	if err := c.do(ctx, http.MethodPost, "/subscriptions/"+url.PathEscape(id)+"/sync", nil, &raw); err != nil {
		return nil, err
	}
	return models.BatchFromUpdates(raw), nil
}

// OpenStream opens the push-stream endpoint for a subscription and returns
// the raw event stream body. The request is bound to ctx, so canceling ctx
// aborts a blocked read and releases the connection.
func (c *Client) OpenStream(ctx context.Context, id string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/subscriptions/"+url.PathEscape(id)+"/stream", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("X-Request-ID", uuid.NewString())
	c.creds.apply(req)

	// No client timeout here: the stream is long-lived by design.
	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("stream connect failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		resp.Body.Close()
		return nil, &APIError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(text))}
	}
	return resp.Body, nil
}

// SubscriptionAPI is the slice of the client the subscription session uses.
type SubscriptionAPI interface {
	CreateSubscription(ctx context.Context) (*models.SubscriptionInfo, error)
	DeleteSubscription(ctx context.Context, id string) error
	RegisterItems(ctx context.Context, id string, elementIDs []string, maxDepth int) error
	UnregisterItems(ctx context.Context, id string, elementIDs []string) error
	Sync(ctx context.Context, id string) (models.Batch, error)
	OpenStream(ctx context.Context, id string) (io.ReadCloser, error)
}

var _ SubscriptionAPI = (*Client)(nil)
