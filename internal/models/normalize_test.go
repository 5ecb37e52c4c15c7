package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		entry    RawEntry
		expected VQT
	}{
		{
			name: "flat form passes through",
			entry: RawEntry{
				Value:     float64(42),
				Quality:   "Good",
				Timestamp: "2024-01-01T00:00:00Z",
			},
			expected: VQT{
				Value:     float64(42),
				Quality:   "Good",
				Timestamp: "2024-01-01T00:00:00Z",
			},
		},
		{
			name: "nested Data form is unwrapped",
			entry: RawEntry{
				Value: map[string]any{
					"Data": map[string]any{
						"Value":     float64(7),
						"Quality":   "Good",
						"Timestamp": "T",
					},
				},
			},
			expected: VQT{
				Value:     float64(7),
				Quality:   "Good",
				Timestamp: "T",
			},
		},
		{
			name: "nested form with absent fields",
			entry: RawEntry{
				Value: map[string]any{
					"Data": map[string]any{
						"Value": "running",
					},
				},
			},
			expected: VQT{Value: "running"},
		},
		{
			name: "object value without Data stays opaque",
			entry: RawEntry{
				Value:   map[string]any{"min": float64(1), "max": float64(9)},
				Quality: "Uncertain",
			},
			expected: VQT{
				Value:   map[string]any{"min": float64(1), "max": float64(9)},
				Quality: "Uncertain",
			},
		},
		{
			name:     "empty entry yields zero triple",
			entry:    RawEntry{},
			expected: VQT{},
		},
		{
			name: "non-string nested quality is dropped",
			entry: RawEntry{
				Value: map[string]any{
					"Data": map[string]any{
						"Value":   float64(1),
						"Quality": float64(0),
					},
				},
			},
			expected: VQT{Value: float64(1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.entry))
		})
	}
}

func TestNormalizeFromWirePayload(t *testing.T) {
	// Same bytes the server would put on the wire for the nested encoding.
	raw := `{"value":{"Data":{"Value":7,"Quality":"Good","Timestamp":"T"}}}`

	var entry RawEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &entry))

	vqt := Normalize(entry)
	assert.Equal(t, float64(7), vqt.Value)
	assert.Equal(t, "Good", vqt.Quality)
	assert.Equal(t, "T", vqt.Timestamp)
}

func TestBatchFromUpdates(t *testing.T) {
	msgs := []map[string]ValueEnvelope{
		{
			"e1": {Data: []RawEntry{
				{Value: float64(42), Quality: "Good", Timestamp: "2024-01-01T00:00:00Z"},
				{Value: float64(43)}, // only the first entry is forwarded
			}},
		},
		{
			"e2": {Data: nil}, // empty envelope is skipped
		},
	}

	batch := BatchFromUpdates(msgs)
	require.Len(t, batch, 1)
	assert.Equal(t, "e1", batch[0].ElementID)
	assert.Equal(t, float64(42), batch[0].VQT.Value)
	assert.Equal(t, "Good", batch[0].VQT.Quality)
}

func TestNumericValue(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected float64
		ok       bool
	}{
		{"json number", float64(3.5), 3.5, true},
		{"integer", 12, 12, true},
		{"numeric string", "99.25", 99.25, true},
		{"non-numeric string", "running", 0, false},
		{"bool", true, 0, false},
		{"nil", nil, 0, false},
		{"object", map[string]any{"a": 1}, 0, false},
		{"infinite string", "+Inf", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := NumericValue(tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, f)
		})
	}
}
