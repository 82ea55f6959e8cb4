package registry

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
	"github.com/angelmondragon/hatchery-backend/pkg/enums"
	"github.com/angelmondragon/hatchery-backend/pkg/outbox"
)

// Route says where an event type is published and which aggregate owns it.
type Route struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
}

// ResolvedEvent is an outbox row that passed validation and decoding.
type ResolvedEvent struct {
	Route    Route
	EventID  uuid.UUID
	Envelope outbox.PayloadEnvelope
	Payload  any
}

// EventRouter validates outbox rows on the publishing side and picks their
// topic. Payload decoding is shared with consumers through DecoderRegistry.
type EventRouter struct {
	routes   map[enums.OutboxEventType]Route
	decoders *DecoderRegistry
}

// NewEventRouter routes every order event to topic, which is a Pub/Sub topic
// id or a Kafka topic name depending on the configured sink.
func NewEventRouter(topic string) (*EventRouter, error) {
	if topic == "" {
		return nil, fmt.Errorf("domain topic is required")
	}
	r := &EventRouter{
		routes:   make(map[enums.OutboxEventType]Route),
		decoders: NewDecoderRegistry(),
	}
	for _, eventType := range []enums.OutboxEventType{enums.EventOrderCreated, enums.EventOrderStatusChanged} {
		r.routes[eventType] = Route{EventType: eventType, AggregateType: enums.AggregateOrder, Topic: topic}
	}
	return r, nil
}

// Topic returns the topic configured for eventType.
func (r *EventRouter) Topic(eventType enums.OutboxEventType) (string, bool) {
	route, ok := r.routes[eventType]
	return route.Topic, ok
}

// Resolve checks the row against its route and decodes the payload. Every
// error it returns is marked Permanent.
func (r *EventRouter) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	route, ok := r.routes[event.EventType]
	if !ok {
		return nil, Permanent(fmt.Errorf("no route for event type %q", event.EventType))
	}
	if route.AggregateType != event.AggregateType {
		return nil, Permanent(fmt.Errorf("%s belongs to %s aggregates, row says %s", event.EventType, route.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, Permanent(fmt.Errorf("row %s has no aggregate id", event.ID))
	}

	envelope, eventID, err := outbox.ParseEnvelope(event.Payload)
	if err != nil {
		return nil, Permanent(err)
	}
	payload, err := r.decoders.Decode(event.EventType, envelope)
	if err != nil {
		return nil, err
	}
	return &ResolvedEvent{Route: route, EventID: eventID, Envelope: envelope, Payload: payload}, nil
}
