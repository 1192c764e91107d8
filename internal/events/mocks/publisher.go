// File: backend/services/auth-service/internal/events/mocks/publisher.go
package mocks

import (
	"context"
	"sync"

	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/interfaces"
)

// RecordedEvent is one event captured by the Publisher mock.
type RecordedEvent struct {
	EventType string
	Subject   string
	Payload   interface{}
}

// Publisher records published events for assertions in tests. Err, when set,
// is returned by every Publish call.
type Publisher struct {
	mu     sync.Mutex
	Events []RecordedEvent
	Err    error
}

var _ interfaces.EventPublisher = (*Publisher)(nil)

func (p *Publisher) Publish(_ context.Context, eventType string, subject string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Events = append(p.Events, RecordedEvent{EventType: eventType, Subject: subject, Payload: payload})
	return nil
}

// Recorded returns a copy of the captured events.
func (p *Publisher) Recorded() []RecordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]RecordedEvent, len(p.Events))
	copy(out, p.Events)
	return out
}
