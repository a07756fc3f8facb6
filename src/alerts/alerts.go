// src/alerts/alerts.go
package alerts

import (
	"sync"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
)

// SeverityError is the only severity this layer raises.
const SeverityError = "error"

// Alert is a single user-visible failure notice. Identity is carried by ID
// so that dismissal and auto-expiry never remove the wrong entry after the
// list has been reordered.
type Alert struct {
	ID       uuid.UUID `json:"id"`
	Message  string    `json:"message"`
	Severity string    `json:"severity"`
}

// Sink is a deduplicated queue of alerts that auto-expire after a fixed
// delay unless dismissed earlier. While disabled it silently drops new
// alerts; enablement is driven externally by the authentication state.
type Sink struct {
	mu      sync.Mutex
	store   *cache.Cache
	order   []uuid.UUID
	enabled func() bool
}

// NewSink creates a sink whose alerts expire after ttl. The cleanup
// interval bounds how long evicted entries linger in memory; expiry as
// observed through Alerts is exact regardless.
func NewSink(ttl, cleanupInterval time.Duration) *Sink {
	return &Sink{
		store:   cache.New(ttl, cleanupInterval),
		enabled: func() bool { return true },
	}
}

// SetEnabledFunc installs the enablement predicate. The session wires its
// Authorized check here so pre-login failures stay quiet.
func (s *Sink) SetEnabledFunc(f func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f != nil {
		s.enabled = f
	}
}

// Add appends an error alert. Dropped while the sink is disabled, or when
// an identical message is already live.
func (s *Sink) Add(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled() {
		return
	}
	for _, alert := range s.live() {
		if alert.Message == message {
			return
		}
	}
	alert := Alert{ID: uuid.New(), Message: message, Severity: SeverityError}
	s.store.Set(alert.ID.String(), alert, cache.DefaultExpiration)
	s.order = append(s.order, alert.ID)
}

// Alerts returns the live alerts in insertion order.
func (s *Sink) Alerts() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live()
}

// live prunes expired ids from the order slice and returns the remaining
// alerts. Callers must hold mu.
func (s *Sink) live() []Alert {
	kept := s.order[:0]
	var out []Alert
	for _, id := range s.order {
		if v, ok := s.store.Get(id.String()); ok {
			kept = append(kept, id)
			out = append(out, v.(Alert))
		}
	}
	s.order = kept
	return out
}

// Dismiss removes the alert with the given id immediately. Dismissing an
// already-expired or unknown id is a no-op.
func (s *Sink) Dismiss(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Delete(id.String())
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// DismissAt removes the alert at the given position of the live list. The
// position is resolved to an identity before removal.
func (s *Sink) DismissAt(index int) {
	s.mu.Lock()
	alerts := s.live()
	if index < 0 || index >= len(alerts) {
		s.mu.Unlock()
		return
	}
	id := alerts[index].ID
	s.mu.Unlock()
	s.Dismiss(id)
}
