package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
	"github.com/angelmondragon/hatchery-backend/pkg/enums"
	"github.com/angelmondragon/hatchery-backend/pkg/logger"
	"github.com/angelmondragon/hatchery-backend/pkg/outbox"
	"github.com/angelmondragon/hatchery-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/hatchery-backend/pkg/outbox/payloads"
)

type memoryStore struct {
	keys map[string]bool
}

func (m *memoryStore) Get(context.Context, string) (string, error) { return "", nil }

func (m *memoryStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "hatchery:idem:" + scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.keys, key)
	}
	return nil
}

type recordingRepo struct {
	created []*models.Notification
	err     error
}

func (r *recordingRepo) Create(_ context.Context, n *models.Notification) error {
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, n)
	return nil
}

type idleReceiver struct{}

func (idleReceiver) Receive(ctx context.Context, _ func(context.Context, *pubsub.Message)) error {
	<-ctx.Done()
	return ctx.Err()
}

func newTestConsumer(t *testing.T, repo *recordingRepo) (*Consumer, *memoryStore) {
	t.Helper()
	store := &memoryStore{keys: map[string]bool{}}
	guard, err := idempotency.NewGuard(store, time.Hour)
	require.NoError(t, err)
	consumer, err := NewConsumer(repo, idleReceiver{}, guard, logger.Nop())
	require.NoError(t, err)
	return consumer, store
}

func statusMessage(t *testing.T, eventID string, data any) *pubsub.Message {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	body, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID,
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	})
	require.NoError(t, err)
	return &pubsub.Message{
		ID:         uuid.NewString(),
		Data:       body,
		Attributes: map[string]string{"event_type": string(enums.EventOrderStatusChanged)},
	}
}

func TestConsumerNotifiesOwnerOnce(t *testing.T) {
	repo := &recordingRepo{}
	consumer, _ := newTestConsumer(t, repo)
	owner := uuid.New()
	orderID := uuid.New()
	msg := statusMessage(t, uuid.NewString(), payloads.OrderStatusChangedEvent{
		OrderID: orderID, OrderNumber: "ORD-ABC-1234", UserID: owner, From: "pending", To: "confirmed",
	})

	result := consumer.process(context.Background(), msg)
	assert.True(t, result.ack)
	result = consumer.process(context.Background(), msg)
	assert.True(t, result.ack)

	require.Len(t, repo.created, 1)
	n := repo.created[0]
	assert.Equal(t, owner, n.UserID)
	assert.Equal(t, enums.NotificationTypeOrderStatus, n.Type)
	assert.Equal(t, "Order ORD-ABC-1234 is now confirmed.", n.Message)
	require.NotNil(t, n.Link)
	assert.Equal(t, "/orders/"+orderID.String(), *n.Link)
}

func TestConsumerHandlesOrderCreated(t *testing.T) {
	repo := &recordingRepo{}
	consumer, _ := newTestConsumer(t, repo)
	msg := statusMessage(t, uuid.NewString(), payloads.OrderCreatedEvent{
		OrderID: uuid.New(), OrderNumber: "ORD-XYZ-0001", UserID: uuid.New(), TotalAmount: "250.00", LineCount: 2,
	})
	msg.Attributes["event_type"] = string(enums.EventOrderCreated)

	assert.True(t, consumer.process(context.Background(), msg).ack)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "Order received", repo.created[0].Title)
	assert.Contains(t, repo.created[0].Message, "250.00")
}

func TestConsumerSkipsUnknownAndMalformed(t *testing.T) {
	repo := &recordingRepo{}
	consumer, _ := newTestConsumer(t, repo)

	unknown := &pubsub.Message{ID: "1", Data: []byte("{}"), Attributes: map[string]string{"event_type": "product_updated"}}
	assert.True(t, consumer.process(context.Background(), unknown).ack)

	garbage := &pubsub.Message{ID: "2", Data: []byte("not json"), Attributes: map[string]string{"event_type": string(enums.EventOrderCreated)}}
	assert.True(t, consumer.process(context.Background(), garbage).ack)

	badID := statusMessage(t, "nope", payloads.OrderStatusChangedEvent{UserID: uuid.New()})
	assert.True(t, consumer.process(context.Background(), badID).ack)

	assert.Empty(t, repo.created)
}

func TestConsumerReleasesKeyOnFailure(t *testing.T) {
	repo := &recordingRepo{err: errors.New("db down")}
	consumer, store := newTestConsumer(t, repo)
	msg := statusMessage(t, uuid.NewString(), payloads.OrderStatusChangedEvent{
		OrderID: uuid.New(), UserID: uuid.New(), To: "cancelled",
	})

	result := consumer.process(context.Background(), msg)
	assert.True(t, result.nack)
	assert.Empty(t, store.keys)

	repo.err = nil
	assert.True(t, consumer.process(context.Background(), msg).ack)
	assert.Len(t, repo.created, 1)
}

func TestConsumerRunStopsWithContext(t *testing.T) {
	consumer, _ := newTestConsumer(t, &recordingRepo{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, consumer.Run(ctx), context.Canceled)
}

func TestConsumerDropsOwnerlessAndUnknownVersion(t *testing.T) {
	repo := &recordingRepo{}
	consumer, store := newTestConsumer(t, repo)

	ownerless := statusMessage(t, uuid.NewString(), payloads.OrderStatusChangedEvent{OrderID: uuid.New(), To: "confirmed"})
	assert.True(t, consumer.process(context.Background(), ownerless).ack)

	future := statusMessage(t, uuid.NewString(), payloads.OrderStatusChangedEvent{UserID: uuid.New(), To: "confirmed"})
	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(future.Data, &envelope))
	envelope.Version = 9
	future.Data, _ = json.Marshal(envelope)
	assert.True(t, consumer.process(context.Background(), future).ack)

	assert.Empty(t, repo.created)
	assert.Empty(t, store.keys)
}
