package orders

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/hatchery-backend/pkg/db/dbtest"
	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
	"github.com/angelmondragon/hatchery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/hatchery-backend/pkg/errors"
	"github.com/angelmondragon/hatchery-backend/pkg/outbox"
	"github.com/angelmondragon/hatchery-backend/pkg/outbox/payloads"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to enums.OrderStatus
		want     bool
	}{
		{enums.OrderStatusPending, enums.OrderStatusConfirmed, true},
		{enums.OrderStatusPending, enums.OrderStatusCancelled, true},
		{enums.OrderStatusConfirmed, enums.OrderStatusCompleted, true},
		{enums.OrderStatusConfirmed, enums.OrderStatusCancelled, true},
		{enums.OrderStatusPending, enums.OrderStatusCompleted, false},
		{enums.OrderStatusPending, enums.OrderStatusPending, false},
		{enums.OrderStatusCompleted, enums.OrderStatusPending, false},
		{enums.OrderStatusCompleted, enums.OrderStatusCancelled, false},
		{enums.OrderStatusCancelled, enums.OrderStatusCompleted, false},
		{enums.OrderStatusCancelled, enums.OrderStatusPending, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestDefaultPolicy(t *testing.T) {
	assert.NoError(t, DefaultPolicy(enums.RoleAdmin, enums.OrderStatusPending, enums.OrderStatusConfirmed))
	assert.NoError(t, DefaultPolicy(enums.RoleUser, enums.OrderStatusPending, enums.OrderStatusCancelled))

	err := DefaultPolicy(enums.RoleUser, enums.OrderStatusPending, enums.OrderStatusConfirmed)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	err = DefaultPolicy(enums.Role("guest"), enums.OrderStatusPending, enums.OrderStatusCancelled)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestTransitionWalksLifecycle(t *testing.T) {
	env := newOrdersEnv(t, Options{})
	ctx := context.Background()
	admin := uuid.New()
	p := env.seed(t, "Incubator", "120.00")
	order := env.place(t, uuid.New(), LineRequest{ProductID: p.ID, Quantity: 1})

	confirmed, err := env.svc.Transition(ctx, TransitionInput{
		OrderID: order.ID, ActorID: admin, ActorRole: enums.RoleAdmin, NewStatus: enums.OrderStatusConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)
	assert.Nil(t, confirmed.CompletedAt)
	assert.False(t, confirmed.UpdatedAt.Before(*confirmed.ConfirmedAt))

	completed, err := env.svc.Transition(ctx, TransitionInput{
		OrderID: order.ID, ActorID: admin, ActorRole: enums.RoleAdmin, NewStatus: enums.OrderStatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, "completed", completed.Status)
	require.NotNil(t, completed.CompletedAt)
	require.Len(t, completed.Lines, 1)

	_, err = env.svc.Transition(ctx, TransitionInput{
		OrderID: order.ID, ActorID: admin, ActorRole: enums.RoleAdmin, NewStatus: enums.OrderStatusPending,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))

	assert.Equal(t, []string{"pending->confirmed", "confirmed->completed"}, env.metrics.transitions)

	events := env.outboxRows(t, enums.EventOrderStatusChanged)
	require.Len(t, events, 2)
	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(events[1].Payload, &envelope))
	var data payloads.OrderStatusChangedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, "confirmed", data.From)
	assert.Equal(t, "completed", data.To)
	assert.Equal(t, "admin", data.ActorRole)
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, admin, envelope.Actor.UserID)
}

func TestTransitionCancelledIsTerminal(t *testing.T) {
	env := newOrdersEnv(t, Options{})
	ctx := context.Background()
	owner := uuid.New()
	p := env.seed(t, "Incubator", "120.00")
	order := env.place(t, owner, LineRequest{ProductID: p.ID, Quantity: 1})

	cancelled, err := env.svc.Transition(ctx, TransitionInput{
		OrderID: order.ID, ActorID: owner, ActorRole: enums.RoleUser, NewStatus: enums.OrderStatusCancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	_, err = env.svc.Transition(ctx, TransitionInput{
		OrderID: order.ID, ActorID: uuid.New(), ActorRole: enums.RoleAdmin, NewStatus: enums.OrderStatusCompleted,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))
}

func TestTransitionCustomerPolicy(t *testing.T) {
	env := newOrdersEnv(t, Options{})
	ctx := context.Background()
	owner := uuid.New()
	p := env.seed(t, "Incubator", "120.00")
	order := env.place(t, owner, LineRequest{ProductID: p.ID, Quantity: 1})

	_, err := env.svc.Transition(ctx, TransitionInput{
		OrderID: order.ID, ActorID: owner, ActorRole: enums.RoleUser, NewStatus: enums.OrderStatusConfirmed,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = env.svc.Transition(ctx, TransitionInput{
		OrderID: order.ID, ActorID: uuid.New(), ActorRole: enums.RoleUser, NewStatus: enums.OrderStatusCancelled,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	var stored models.Order
	require.NoError(t, env.conn.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, enums.OrderStatusPending, stored.Status)
	assert.Nil(t, stored.CancelledAt)
	assert.Empty(t, env.outboxRows(t, enums.EventOrderStatusChanged))
}

func TestTransitionCustomPolicy(t *testing.T) {
	env := newOrdersEnv(t, Options{Policy: func(enums.Role, enums.OrderStatus, enums.OrderStatus) error {
		return pkgerrors.New(pkgerrors.CodeForbidden, "frozen")
	}})
	p := env.seed(t, "Incubator", "120.00")
	order := env.place(t, uuid.New(), LineRequest{ProductID: p.ID, Quantity: 1})

	_, err := env.svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID, ActorID: uuid.New(), ActorRole: enums.RoleAdmin, NewStatus: enums.OrderStatusConfirmed,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestTransitionValidation(t *testing.T) {
	env := newOrdersEnv(t, Options{})
	ctx := context.Background()

	_, err := env.svc.Transition(ctx, TransitionInput{ActorID: uuid.New(), ActorRole: enums.RoleAdmin, NewStatus: enums.OrderStatusConfirmed})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidInput))

	_, err = env.svc.Transition(ctx, TransitionInput{OrderID: uuid.New(), ActorID: uuid.New(), ActorRole: enums.RoleAdmin, NewStatus: "inquiry_sent"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidInput))

	_, err = env.svc.Transition(ctx, TransitionInput{OrderID: uuid.New(), ActorID: uuid.New(), ActorRole: enums.RoleAdmin, NewStatus: enums.OrderStatusConfirmed})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestStats(t *testing.T) {
	env := newOrdersEnv(t, Options{})
	ctx := context.Background()
	admin := uuid.New()
	a := env.seed(t, "Incubator", "100.00")
	env.seed(t, "Tray", "5.00")
	dbtest.SeedProduct(t, env.conn, dbtest.ProductFixture{Title: "Unreleased", FinalPrice: "1.00", Status: enums.ProductStatusDraft})

	first := env.place(t, uuid.New(), LineRequest{ProductID: a.ID, Quantity: 2})
	second := env.place(t, uuid.New(), LineRequest{ProductID: a.ID, Quantity: 1})
	third := env.place(t, uuid.New(), LineRequest{ProductID: a.ID, Quantity: 3})
	env.place(t, uuid.New(), LineRequest{ProductID: a.ID, Quantity: 1})

	move := func(id uuid.UUID, to enums.OrderStatus) {
		_, err := env.svc.Transition(ctx, TransitionInput{OrderID: id, ActorID: admin, ActorRole: enums.RoleAdmin, NewStatus: to})
		require.NoError(t, err)
	}
	move(first.ID, enums.OrderStatusConfirmed)
	move(second.ID, enums.OrderStatusConfirmed)
	move(second.ID, enums.OrderStatusCompleted)
	move(third.ID, enums.OrderStatusCancelled)

	stats, err := env.svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.PublishedProducts)
	assert.EqualValues(t, 4, stats.TotalOrders)
	assert.EqualValues(t, 1, stats.PendingOrders)
	assert.Equal(t, "300.00", stats.Revenue)
}

func TestStatsEmpty(t *testing.T) {
	env := newOrdersEnv(t, Options{})
	stats, err := env.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalOrders)
	assert.Equal(t, "0.00", stats.Revenue)
}
