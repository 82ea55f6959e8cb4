package registry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
	"github.com/angelmondragon/hatchery-backend/pkg/enums"
	"github.com/angelmondragon/hatchery-backend/pkg/outbox"
	"github.com/angelmondragon/hatchery-backend/pkg/outbox/payloads"
)

const testTopic = "hatchery-domain-events"

func TestEventRouterResolvesOrderCreated(t *testing.T) {
	router := newTestRouter(t)
	orderID := uuid.New()
	eventID := uuid.New()

	resolved, err := router.Resolve(models.OutboxEvent{
		ID:            eventID,
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Payload: envelopeBytes(t, eventID.String(), payloads.OrderCreatedEvent{
			OrderID:     orderID,
			OrderNumber: "ORD-LX2K9A-7QZ3",
			UserID:      uuid.New(),
			TotalAmount: "250.00",
			LineCount:   2,
		}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Route.Topic != testTopic || resolved.Route.EventType != enums.EventOrderCreated {
		t.Fatalf("unexpected route %+v", resolved.Route)
	}
	if resolved.EventID != eventID {
		t.Fatalf("expected event id %s, got %s", eventID, resolved.EventID)
	}
	payload, ok := resolved.Payload.(*payloads.OrderCreatedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if payload.OrderID != orderID || payload.TotalAmount != "250.00" || payload.LineCount != 2 {
		t.Fatalf("payload mismatch %+v", payload)
	}
}

func TestEventRouterRejectsBadRows(t *testing.T) {
	router := newTestRouter(t)
	valid := envelopeBytes(t, uuid.NewString(), payloads.OrderStatusChangedEvent{From: "pending", To: "confirmed"})

	cases := map[string]models.OutboxEvent{
		"unknown type": {
			EventType: "cart_abandoned", AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: valid,
		},
		"aggregate mismatch": {
			EventType: enums.EventOrderStatusChanged, AggregateType: "cart", AggregateID: uuid.New(), Payload: valid,
		},
		"missing aggregate id": {
			EventType: enums.EventOrderStatusChanged, AggregateType: enums.AggregateOrder, Payload: valid,
		},
		"null data": {
			EventType: enums.EventOrderStatusChanged, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(),
			Payload: json.RawMessage(`{"version":1,"eventId":"` + uuid.NewString() + `","data":null}`),
		},
		"unknown version": {
			EventType: enums.EventOrderStatusChanged, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(),
			Payload: json.RawMessage(`{"version":9,"eventId":"` + uuid.NewString() + `","data":{}}`),
		},
	}
	for name, row := range cases {
		_, err := router.Resolve(row)
		if !IsPermanent(err) {
			t.Fatalf("%s: expected non-retryable error, got %v", name, err)
		}
	}
}

func TestEventRouterTopic(t *testing.T) {
	if _, err := NewEventRouter(""); err == nil {
		t.Fatalf("expected error for empty topic")
	}
	router := newTestRouter(t)
	if topic, ok := router.Topic(enums.EventOrderStatusChanged); !ok || topic != testTopic {
		t.Fatalf("unexpected topic lookup %q %v", topic, ok)
	}
	if _, ok := router.Topic("cart_abandoned"); ok {
		t.Fatalf("unrouted event type should not resolve")
	}
}

func newTestRouter(t *testing.T) *EventRouter {
	t.Helper()
	router, err := NewEventRouter(testTopic)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

func envelopeBytes(t *testing.T, eventID string, data any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	out, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    outbox.EnvelopeVersion,
		EventID:    eventID,
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return out
}
