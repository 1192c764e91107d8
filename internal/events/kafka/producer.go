// File: backend/services/auth-service/internal/events/kafka/producer.go
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shopify/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CloudEvent defines the structure for CloudEvents v1.0.
type CloudEvent struct {
	SpecVersion     string                 `json:"specversion"`
	Type            string                 `json:"type"`
	Source          string                 `json:"source"`
	Subject         *string                `json:"subject,omitempty"`
	ID              string                 `json:"id"`
	Time            time.Time              `json:"time"`
	DataContentType *string                `json:"datacontenttype,omitempty"`
	Data            interface{}            `json:"data,omitempty"`
	Extensions      map[string]interface{} `json:"extensions,omitempty"`
}

// EventType is a string alias for event types.
type EventType string

const (
	CloudEventSpecVersion     = "1.0"
	CloudEventDataContentType = "application/json"
)

// Producer sends CloudEvents to Kafka through a synchronous sarama producer.
type Producer struct {
	producer sarama.SyncProducer
	logger   *zap.Logger
	source   string
}

// NewProducer creates a Kafka producer. cloudEventSource identifies this
// service in the CloudEvent source field, e.g. "urn:service:auth".
func NewProducer(brokers []string, logger *zap.Logger, cloudEventSource string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 500 * time.Millisecond
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &Producer{
		producer: producer,
		logger:   logger,
		source:   cloudEventSource,
	}, nil
}

// PublishCloudEvent constructs a CloudEvent and sends it to the given topic.
// The subject doubles as the partition key when set, so events of one session
// stay ordered.
func (p *Producer) PublishCloudEvent(ctx context.Context, topic string, eventType EventType, subject *string, dataContentType *string, dataPayload interface{}) error {
	eventID, err := uuid.NewRandom()
	if err != nil {
		return fmt.Errorf("failed to generate CloudEvent ID: %w", err)
	}

	spanCtx := trace.SpanContextFromContext(ctx)
	var traceID string
	if spanCtx.IsValid() {
		traceID = spanCtx.TraceID().String()
	}

	actualDataContentType := CloudEventDataContentType
	if dataContentType != nil && *dataContentType != "" {
		actualDataContentType = *dataContentType
	}

	cloudEvent := CloudEvent{
		SpecVersion:     CloudEventSpecVersion,
		ID:              eventID.String(),
		Source:          p.source,
		Type:            string(eventType),
		DataContentType: &actualDataContentType,
		Subject:         subject,
		Time:            time.Now().UTC(),
		Data:            dataPayload,
	}
	if traceID != "" {
		cloudEvent.Extensions = map[string]interface{}{"trace_id": traceID}
	}

	eventJSON, err := json.Marshal(cloudEvent)
	if err != nil {
		p.logger.Error("Failed to marshal CloudEvent to JSON",
			zap.Error(err),
			zap.String("event_type", string(eventType)),
			zap.String("event_id", cloudEvent.ID),
		)
		return fmt.Errorf("failed to marshal CloudEvent to JSON: %w", err)
	}

	var messageKey sarama.Encoder
	if subject != nil && *subject != "" {
		messageKey = sarama.StringEncoder(*subject)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(eventJSON),
		Key:   messageKey,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.Error("Failed to send CloudEvent to Kafka",
			zap.Error(err),
			zap.String("topic", topic),
			zap.String("event_type", string(eventType)),
			zap.String("event_id", cloudEvent.ID),
		)
		return fmt.Errorf("failed to send CloudEvent to Kafka: %w", err)
	}

	p.logger.Debug("CloudEvent sent to Kafka",
		zap.String("topic", topic),
		zap.String("event_type", string(eventType)),
		zap.String("event_id", cloudEvent.ID),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Close shuts the underlying sarama producer down.
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka producer", zap.Error(err))
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	p.logger.Info("Kafka producer closed")
	return nil
}
