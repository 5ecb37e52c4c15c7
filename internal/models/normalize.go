package models

import (
	"math"
	"strconv"
)

// Normalize converts one raw update entry into the canonical VQT triple.
//
// The server emits two encodings for the same information: the flat form
// (value/quality/timestamp on the entry itself) and a nested form where the
// entry's value is an object wrapping a Data object. Normalize detects the
// nested form and unwraps it; everything else passes through unchanged.
//
// It is a total function: absent fields become zero values, never an error.
func Normalize(entry RawEntry) VQT {
	if wrapped, ok := entry.Value.(map[string]any); ok {
		if data, ok := wrapped["Data"].(map[string]any); ok {
			return VQT{
				Value:     data["Value"],
				Quality:   asString(data["Quality"]),
				Timestamp: asString(data["Timestamp"]),
			}
		}
	}
	return VQT{
		Value:     entry.Value,
		Quality:   entry.Quality,
		Timestamp: entry.Timestamp,
	}
}

// BatchFromUpdates flattens a sync/stream payload (a list of element->envelope
// maps) into an ordered Batch. Only the first entry per element per map is
// normalized and forwarded; elements with an empty entry list are skipped.
func BatchFromUpdates(msgs []map[string]ValueEnvelope) Batch {
	var batch Batch
	for _, msg := range msgs {
		for elementID, envelope := range msg {
			if len(envelope.Data) == 0 {
				continue
			}
			batch = append(batch, Update{
				ElementID: elementID,
				VQT:       Normalize(envelope.Data[0]),
			})
		}
	}
	return batch
}

// NumericValue coerces a VQT value to a finite float64 where possible.
// JSON numbers, Go integer/float types and numeric strings qualify;
// booleans, objects, arrays and non-finite values do not.
func NumericValue(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
