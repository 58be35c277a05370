package telemetry

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Publisher publishes board events. Satisfied by the rabbitmq package.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// EventEmitter emits submission events to the configured publisher.
// Emission is best-effort: failures are logged and never reach the
// submission path.
type EventEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
	logger      *zap.Logger
}

// EventEnvelope wraps every published board event.
type EventEnvelope struct {
	SchemaVersion int    `json:"schema_version"`
	EventType     string `json:"event_type"`
	OccurredAt    string `json:"occurred_at"`
	Service       string `json:"service"`
	Environment   string `json:"environment"`
	RequestID     string `json:"request_id"`
	Payload       any    `json:"payload"`
}

// MessageCreatedPayload describes one accepted submission. The content
// itself is deliberately not included; only its length travels with the
// event.
type MessageCreatedPayload struct {
	MessageID       int    `json:"message_id"`
	IPAddress       string `json:"ip_address"`
	Country         string `json:"country"`
	City            string `json:"city"`
	LocationSource  string `json:"location_source"`
	DeviceType      string `json:"device_type"`
	OperatingSystem string `json:"operating_system"`
	Browser         string `json:"browser"`
	ContentLength   int    `json:"content_length"`
}

// NewEventEmitter constructs EventEmitter.
func NewEventEmitter(publisher Publisher, routingKey, service, environment string, logger *zap.Logger) *EventEmitter {
	return &EventEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		logger:      logger,
	}
}

// EmitMessageCreated publishes a message_created event.
func (e *EventEmitter) EmitMessageCreated(ctx context.Context, requestID string, payload MessageCreatedPayload) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := EventEnvelope{
		SchemaVersion: 1,
		EventType:     "message_created",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		Payload:       payload,
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		e.logger.Warn("event publish failed",
			zap.String("event_type", envelope.EventType),
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}
