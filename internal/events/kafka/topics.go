// File: backend/services/auth-service/internal/events/kafka/topics.go
package kafka

// AuthEventsTopic carries all session lifecycle CloudEvents published by this
// service. Consumers fan out by the event type field.
const AuthEventsTopic = "auth.events"
