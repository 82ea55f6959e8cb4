package registry

import (
	"encoding/json"
	"testing"

	"github.com/angelmondragon/hatchery-backend/pkg/enums"
	"github.com/angelmondragon/hatchery-backend/pkg/outbox"
	"github.com/angelmondragon/hatchery-backend/pkg/outbox/payloads"
)

func TestDecoderRegistryDecodesOrderEvents(t *testing.T) {
	reg := NewDecoderRegistry()

	envelope := outbox.PayloadEnvelope{
		Version: 1,
		Data:    json.RawMessage(`{"order_number":"ORD-1","from":"pending","to":"confirmed"}`),
	}
	output, err := reg.Decode(enums.EventOrderStatusChanged, envelope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decoded, ok := output.(*payloads.OrderStatusChangedEvent)
	if !ok || decoded.To != "confirmed" || decoded.OrderNumber != "ORD-1" {
		t.Fatalf("unexpected output %+v", output)
	}

	created, err := reg.Decode(enums.EventOrderCreated, outbox.PayloadEnvelope{Version: 1, Data: json.RawMessage(`{"total_amount":"250.00"}`)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.(*payloads.OrderCreatedEvent).TotalAmount != "250.00" {
		t.Fatalf("unexpected output %+v", created)
	}
}

func TestDecoderRegistryRejectsUnknownVersionAndBadData(t *testing.T) {
	reg := NewDecoderRegistry()

	_, err := reg.Decode(enums.EventOrderStatusChanged, outbox.PayloadEnvelope{Version: 2, Data: json.RawMessage(`{}`)})
	if !IsPermanent(err) {
		t.Fatalf("expected non-retryable error for unknown version, got %v", err)
	}

	_, err = reg.Decode(enums.EventOrderCreated, outbox.PayloadEnvelope{Version: 1, Data: json.RawMessage(`{"line_count":"two"}`)})
	if !IsPermanent(err) {
		t.Fatalf("expected non-retryable error for malformed data, got %v", err)
	}
}

func TestDecoderRegistryRegisterOverrides(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventOrderCreated, 2, func(json.RawMessage) (any, error) { return "v2", nil })

	out, err := reg.Decode(enums.EventOrderCreated, outbox.PayloadEnvelope{Version: 2})
	if err != nil || out != "v2" {
		t.Fatalf("expected v2 decoder, got %v %v", out, err)
	}
}
