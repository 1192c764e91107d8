// File: backend/services/auth-service/internal/events/kafka/publisher.go
package kafka

import (
	"context"

	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/interfaces"
)

// Publisher adapts Producer to the narrower interfaces.EventPublisher the
// session manager consumes. All lifecycle events go to AuthEventsTopic with
// the session ID as subject.
type Publisher struct {
	producer *Producer
	topic    string
}

var _ interfaces.EventPublisher = (*Publisher)(nil)

// NewPublisher wraps a producer. An empty topic defaults to AuthEventsTopic.
func NewPublisher(producer *Producer, topic string) *Publisher {
	if topic == "" {
		topic = AuthEventsTopic
	}
	return &Publisher{producer: producer, topic: topic}
}

// Publish sends one lifecycle event.
func (p *Publisher) Publish(ctx context.Context, eventType string, subject string, payload interface{}) error {
	var subjectPtr *string
	if subject != "" {
		subjectPtr = &subject
	}
	contentType := CloudEventDataContentType
	return p.producer.PublishCloudEvent(ctx, p.topic, EventType(eventType), subjectPtr, &contentType, payload)
}
