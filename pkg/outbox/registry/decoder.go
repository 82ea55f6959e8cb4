package registry

import (
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/hatchery-backend/pkg/enums"
	"github.com/angelmondragon/hatchery-backend/pkg/outbox"
	"github.com/angelmondragon/hatchery-backend/pkg/outbox/payloads"
)

// Decoder turns envelope data into a typed payload pointer.
type Decoder func(data json.RawMessage) (any, error)

type decoderKey struct {
	eventType enums.OutboxEventType
	version   int
}

// DecoderRegistry resolves (event type, envelope version) to a payload
// decoder on the consuming side.
type DecoderRegistry struct {
	decoders map[decoderKey]Decoder
}

// NewDecoderRegistry returns a registry that knows every order event at
// envelope version 1.
func NewDecoderRegistry() *DecoderRegistry {
	r := &DecoderRegistry{decoders: make(map[decoderKey]Decoder)}
	r.Register(enums.EventOrderCreated, 1, jsonDecoder[payloads.OrderCreatedEvent]())
	r.Register(enums.EventOrderStatusChanged, 1, jsonDecoder[payloads.OrderStatusChangedEvent]())
	return r
}

// Register adds or replaces the decoder for eventType at version. It is not
// safe to call once the registry is shared between goroutines.
func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decoder Decoder) {
	r.decoders[decoderKey{eventType: eventType, version: version}] = decoder
}

// Decode decodes the envelope data for eventType. Unknown versions and
// malformed data are non-retryable: redelivery cannot fix them.
func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) (any, error) {
	decoder, ok := r.decoders[decoderKey{eventType: eventType, version: envelope.Version}]
	if !ok {
		return nil, Permanent(fmt.Errorf("no decoder for %s@v%d", eventType, envelope.Version))
	}
	payload, err := decoder(envelope.Data)
	if err != nil {
		return nil, Permanent(fmt.Errorf("decode %s@v%d: %w", eventType, envelope.Version, err))
	}
	return payload, nil
}

func jsonDecoder[T any]() Decoder {
	return func(data json.RawMessage) (any, error) {
		var payload T
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	}
}
