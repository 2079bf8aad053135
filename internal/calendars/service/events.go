package service

import (
	"context"

	"atsumaru/pkg/kafka"
	"atsumaru/pkg/logger"
)

// EventPublisher is the slice of the Kafka producer the services need.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// events wraps the publisher with best-effort semantics: a publish failure is
// logged and swallowed, never surfaced to the caller. Summaries are always
// recomputed from storage, so downstream consumers only lose a notification,
// not state.
type events struct {
	publisher EventPublisher
	source    string
	log       *logger.Logger
}

func newEvents(publisher EventPublisher, source string, log *logger.Logger) *events {
	return &events{
		publisher: publisher,
		source:    source,
		log:       log,
	}
}

// publish emits one change event keyed by calendar token, so all events of a
// calendar land on the same partition in order.
func (e *events) publish(ctx context.Context, eventType, calendarToken string, payload any) {
	if e.publisher == nil {
		return
	}

	msg, err := kafka.NewMessage().
		WithKey(calendarToken).
		WithValue(payload).
		WithEventType(eventType).
		Build(e.source)
	if err != nil {
		e.log.Warn("Failed to build change event",
			"event_type", eventType,
			"calendar_token", calendarToken,
			"error", err,
		)
		return
	}

	if err := e.publisher.Publish(ctx, msg); err != nil {
		e.log.Warn("Failed to publish change event",
			"event_type", eventType,
			"calendar_token", calendarToken,
			"error", err,
		)
	}
}
