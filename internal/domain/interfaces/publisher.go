// File: backend/services/auth-service/internal/domain/interfaces/publisher.go
package interfaces

import "context"

// EventPublisher publishes lifecycle events to the message broker. Publishing
// is best-effort from the session manager's point of view; failures are
// logged by the implementation and never escalate into the lifecycle.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, subject string, payload interface{}) error
}
