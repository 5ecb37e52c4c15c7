package models

import "time"

// Namespace describes one namespace exposed by the server catalog.
type Namespace struct {
	URI         string `json:"namespaceUri"`
	DisplayName string `json:"displayName"`
}

// ObjectType describes a type definition in the server catalog.
type ObjectType struct {
	ElementID    string         `json:"elementId"`
	DisplayName  string         `json:"displayName"`
	NamespaceURI string         `json:"namespaceUri"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// RelationshipType describes a relation kind (e.g. composition) between objects.
type RelationshipType struct {
	ElementID    string `json:"elementId"`
	DisplayName  string `json:"displayName"`
	NamespaceURI string `json:"namespaceUri"`
}

// Object is a browsable instance in the server catalog. ElementID is the
// opaque server-issued identity used as the key everywhere in this client.
type Object struct {
	ElementID   string         `json:"elementId"`
	DisplayName string         `json:"displayName"`
	TypeID      string         `json:"typeId"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// SubscriptionInfo is the server-side view of a subscription resource.
type SubscriptionInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// RawEntry is one update entry as the server emits it, before normalization.
// Value is arbitrary payload and may itself carry the nested Data encoding.
type RawEntry struct {
	Value     any    `json:"value"`
	Quality   string `json:"quality,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ValueEnvelope wraps the per-element entry list in last-value, history,
// poll-sync and push-stream payloads.
type ValueEnvelope struct {
	Data []RawEntry `json:"data"`
}

// VQT is the canonical value-quality-timestamp triple. Value is opaque past
// normalization; Quality and Timestamp are empty when the server omitted them.
type VQT struct {
	Value     any    `json:"value"`
	Quality   string `json:"quality,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Update pairs an element identity with its normalized triple.
type Update struct {
	ElementID string
	VQT       VQT
}

// Batch is an ordered list of updates delivered by one transport message or
// one poll-sync call.
type Batch []Update

// RelatedRequest is the body of POST /objects/related.
type RelatedRequest struct {
	ElementIDs       []string `json:"elementIds"`
	RelationshipType string   `json:"relationshiptype"`
	IncludeMetadata  bool     `json:"includeMetadata"`
}

// ValueRequest is the body of POST /objects/value.
type ValueRequest struct {
	ElementIDs []string `json:"elementIds"`
	MaxDepth   int      `json:"maxDepth"`
}

// HistoryRequest is the body of POST /objects/history.
type HistoryRequest struct {
	ElementIDs []string  `json:"elementIds"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	MaxDepth   int       `json:"maxDepth"`
}

// RegisterRequest is the body of POST /subscriptions/{id}/register.
type RegisterRequest struct {
	ElementIDs []string `json:"elementIds"`
	MaxDepth   int      `json:"maxDepth"`
}

// UnregisterRequest is the body of POST /subscriptions/{id}/unregister.
type UnregisterRequest struct {
	ElementIDs []string `json:"elementIds"`
}
