// Package store holds the in-memory live value state rendered by the UI:
// the latest VQT per monitored element plus a bounded numeric trend buffer.
//
// The store is the single writer of its own state; transports and the
// session mutate it only through the exported operations.
package store

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/samels-litmus/i3X-Explorer/internal/models"
)

// TrendCapacity is the number of trend points retained per element.
const TrendCapacity = 60

// LiveValue is the most recent normalized update for one element.
type LiveValue struct {
	ElementID   string
	DisplayName string
	VQT         models.VQT
	LastUpdated time.Time
}

// TrendPoint is one numeric sample in an element's trend buffer.
type TrendPoint struct {
	Value float64
	Time  time.Time
}

// LiveStore maps element identity to the latest live value and trend buffer.
type LiveStore struct {
	log logrus.FieldLogger
	now func() time.Time

	mu     sync.RWMutex
	values map[string]LiveValue
	trends map[string][]TrendPoint
	names  map[string]string
}

// NewLiveStore creates an empty store.
func NewLiveStore(log logrus.FieldLogger) *LiveStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LiveStore{
		log:    log,
		now:    time.Now,
		values: make(map[string]LiveValue),
		trends: make(map[string][]TrendPoint),
		names:  make(map[string]string),
	}
}

// SetDisplayName records a human-readable name for an element, shown in place
// of the raw identity once the element receives updates.
func (s *LiveStore) SetDisplayName(elementID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[elementID] = name
	if lv, ok := s.values[elementID]; ok {
		lv.DisplayName = name
		s.values[elementID] = lv
	}
}

// Absorb overwrites the live value for one element and, when the value is
// numeric, appends a trend point, evicting the oldest past TrendCapacity.
func (s *LiveStore) Absorb(elementID string, vqt models.VQT) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.absorbLocked(elementID, vqt)
}

// AbsorbBatch applies every update of one batch in order. Entries are
// applied independently: one unusable entry never aborts the rest.
func (s *LiveStore) AbsorbBatch(batch models.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range batch {
		if u.ElementID == "" {
			s.log.Warn("dropping update without element identity")
			continue
		}
		s.absorbLocked(u.ElementID, u.VQT)
	}
}

func (s *LiveStore) absorbLocked(elementID string, vqt models.VQT) {
	name := s.names[elementID]
	if name == "" {
		name = elementID
	}
	s.values[elementID] = LiveValue{
		ElementID:   elementID,
		DisplayName: name,
		VQT:         vqt,
		LastUpdated: s.now(),
	}

	f, ok := models.NumericValue(vqt.Value)
	if !ok {
		return
	}
	trend := append(s.trends[elementID], TrendPoint{Value: f, Time: s.now()})
	if len(trend) > TrendCapacity {
		trend = trend[len(trend)-TrendCapacity:]
	}
	s.trends[elementID] = trend
}

// Drop removes the live value and trend buffer for an element. Used when the
// element is unregistered so stale values never linger.
func (s *LiveStore) Drop(elementID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, elementID)
	delete(s.trends, elementID)
	delete(s.names, elementID)
}

// Reset clears all state. Safe to call on an empty store.
func (s *LiveStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]LiveValue)
	s.trends = make(map[string][]TrendPoint)
	s.names = make(map[string]string)
}

// Value returns the live value for an element, if any.
func (s *LiveStore) Value(elementID string) (LiveValue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lv, ok := s.values[elementID]
	return lv, ok
}

// Values returns a copy of all live values.
func (s *LiveStore) Values() []LiveValue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LiveValue, 0, len(s.values))
	for _, lv := range s.values {
		out = append(out, lv)
	}
	return out
}

// Trend returns a copy of the element's trend buffer, oldest first.
func (s *LiveStore) Trend(elementID string) []TrendPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	trend := s.trends[elementID]
	out := make([]TrendPoint, len(trend))
	copy(out, trend)
	return out
}

// Len reports how many elements currently hold a live value.
func (s *LiveStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
