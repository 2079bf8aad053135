package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message is a Kafka message with metadata.
type Message struct {
	Key       string            // Partition key (calendar token, so a calendar's events stay ordered)
	Value     []byte            // Message payload (JSON-encoded)
	Headers   map[string]string // Message headers
	Topic     string            // Topic name
	Timestamp time.Time         // Message timestamp
}

// Header keys shared with downstream consumers (ICS feed, notifiers).
const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderCorrelationID = "correlation-id"
	HeaderSchemaVersion = "schema-version"
	HeaderSource        = "source"
	HeaderTimestamp     = "timestamp"
)

// Event types published by the calendar service.
const (
	EventAvailabilityCreated = "availability.created"
	EventAvailabilityUpdated = "availability.updated"
	EventAvailabilityDeleted = "availability.deleted"
	EventRecurrenceCreated   = "recurrence.created"
	EventRecurrenceDeleted   = "recurrence.deleted"
	EventExceptionCreated    = "recurrence.exception.created"
	EventExceptionDeleted    = "recurrence.exception.deleted"
	EventParticipantDeleted  = "participant.deleted"
	EventSettingsUpdated     = "calendar.settings.updated"
)

// MessageBuilder provides a fluent interface for building messages.
type MessageBuilder struct {
	msg Message
	err error
}

// NewMessage creates a new MessageBuilder.
func NewMessage() *MessageBuilder {
	return &MessageBuilder{
		msg: Message{
			Headers:   make(map[string]string),
			Timestamp: time.Now(),
		},
	}
}

// WithKey sets the message key (for partition routing).
func (mb *MessageBuilder) WithKey(key string) *MessageBuilder {
	mb.msg.Key = key
	return mb
}

// WithValue JSON-encodes the payload.
func (mb *MessageBuilder) WithValue(value any) *MessageBuilder {
	data, err := json.Marshal(value)
	if err != nil {
		mb.err = err
		return mb
	}
	mb.msg.Value = data
	return mb
}

// WithHeader sets a single header.
func (mb *MessageBuilder) WithHeader(key, value string) *MessageBuilder {
	mb.msg.Headers[key] = value
	return mb
}

// WithEventType stamps the event type and a fresh event id.
func (mb *MessageBuilder) WithEventType(eventType string) *MessageBuilder {
	mb.msg.Headers[HeaderEventType] = eventType
	mb.msg.Headers[HeaderEventID] = uuid.NewString()
	return mb
}

// Build finalizes the message, stamping source and timestamp headers.
func (mb *MessageBuilder) Build(source string) (Message, error) {
	if mb.err != nil {
		return Message{}, mb.err
	}
	if mb.msg.Key == "" {
		return Message{}, ErrEmptyKey
	}
	if len(mb.msg.Value) == 0 {
		return Message{}, ErrEmptyValue
	}

	mb.msg.Headers[HeaderSource] = source
	mb.msg.Headers[HeaderTimestamp] = mb.msg.Timestamp.UTC().Format(time.RFC3339)
	if _, ok := mb.msg.Headers[HeaderSchemaVersion]; !ok {
		mb.msg.Headers[HeaderSchemaVersion] = "1"
	}
	return mb.msg, nil
}
