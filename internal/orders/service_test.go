package orders

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	product "github.com/angelmondragon/hatchery-backend/internal/products"
	"github.com/angelmondragon/hatchery-backend/pkg/db/dbtest"
	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
	"github.com/angelmondragon/hatchery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/hatchery-backend/pkg/errors"
	"github.com/angelmondragon/hatchery-backend/pkg/logger"
	"github.com/angelmondragon/hatchery-backend/pkg/outbox"
	"github.com/angelmondragon/hatchery-backend/pkg/pagination"
)

type countingMetrics struct {
	created     int
	collisions  int
	transitions []string
}

func (m *countingMetrics) IncOrdersCreated()        { m.created++ }
func (m *countingMetrics) IncOrderNumberCollision() { m.collisions++ }
func (m *countingMetrics) IncOrderTransition(from, to string) {
	m.transitions = append(m.transitions, from+"->"+to)
}

type ordersEnv struct {
	conn     *gorm.DB
	svc      Service
	products product.Service
	metrics  *countingMetrics
}

func newOrdersEnv(t *testing.T, opts Options) *ordersEnv {
	t.Helper()
	client := dbtest.Client(t)
	products, err := product.NewService(product.NewRepository(client.DB()))
	require.NoError(t, err)

	emitter := outbox.NewService(outbox.NewRepository(client.DB()), logger.Nop())
	metrics := &countingMetrics{}
	opts.Metrics = metrics
	svc, err := NewService(NewRepository(client.DB()), client, emitter, products, opts)
	require.NoError(t, err)
	return &ordersEnv{conn: client.DB(), svc: svc, products: products, metrics: metrics}
}

func (e *ordersEnv) seed(t *testing.T, title, price string) models.Product {
	t.Helper()
	return dbtest.SeedProduct(t, e.conn, dbtest.ProductFixture{Title: title, FinalPrice: price})
}

func (e *ordersEnv) place(t *testing.T, user uuid.UUID, lines ...LineRequest) *OrderView {
	t.Helper()
	view, err := e.svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:  user,
		Lines:   lines,
		Contact: Contact{Email: "farmer@example.com", Phone: "555-0100"},
	})
	require.NoError(t, err)
	return view
}

func (e *ordersEnv) outboxRows(t *testing.T, eventType enums.OutboxEventType) []models.OutboxEvent {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, e.conn.Where("event_type = ?", eventType).Order("created_at ASC").Find(&rows).Error)
	return rows
}

func TestCreateOrderSnapshotsTotals(t *testing.T) {
	env := newOrdersEnv(t, Options{})
	user := uuid.New()
	a := env.seed(t, "Incubator A", "100.00")
	b := env.seed(t, "Incubator B", "50.00")

	view := env.place(t, user,
		LineRequest{ProductID: a.ID, Quantity: 2},
		LineRequest{ProductID: b.ID, Quantity: 1},
	)

	assert.Equal(t, "250.00", view.TotalAmount)
	assert.Equal(t, "250.00", view.FinalAmount)
	assert.Equal(t, enums.OrderStatusPending.String(), view.Status)
	require.Len(t, view.Lines, 2)
	assert.Equal(t, "200.00", view.Lines[0].Subtotal)
	assert.Equal(t, "50.00", view.Lines[1].Subtotal)
	assert.Equal(t, 1, view.Lines[0].Position)
	assert.Equal(t, "Incubator A", view.Lines[0].ProductTitle)
	assert.Regexp(t, regexp.MustCompile(`^ORD-[0-9A-Z]+-[0-9A-Z]{4}$`), view.OrderNumber)
	assert.Equal(t, 1, env.metrics.created)

	events := env.outboxRows(t, enums.EventOrderCreated)
	require.Len(t, events, 1)
	assert.Equal(t, view.ID, events[0].AggregateID)

	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(events[0].Payload, &envelope))
	var data map[string]any
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, "250.00", data["total_amount"])
	assert.Equal(t, view.OrderNumber, data["order_number"])
}

func TestCreateOrderFinalAmountEqualsSumOfSubtotals(t *testing.T) {
	env := newOrdersEnv(t, Options{})
	a := env.seed(t, "Candler", "12.35")
	b := env.seed(t, "Thermometer", "7.10")

	view := env.place(t, uuid.New(),
		LineRequest{ProductID: a.ID, Quantity: 3},
		LineRequest{ProductID: b.ID, Quantity: 4},
	)

	sum := decimal.Zero
	for _, line := range view.Lines {
		unit := decimal.RequireFromString(line.UnitPrice)
		assert.Equal(t, unit.Mul(decimal.NewFromInt(int64(line.Quantity))).StringFixed(2), line.Subtotal)
		sum = sum.Add(decimal.RequireFromString(line.Subtotal))
	}
	assert.Equal(t, sum.StringFixed(2), view.FinalAmount)
	assert.Equal(t, "65.45", view.FinalAmount)
}

func TestCreateOrderLinesSurviveCatalogChanges(t *testing.T) {
	env := newOrdersEnv(t, Options{})
	ctx := context.Background()
	user := uuid.New()
	p := env.seed(t, "Hatcher", "80.00")

	view := env.place(t, user, LineRequest{ProductID: p.ID, Quantity: 1})

	newPrice := decimal.RequireFromString("95.00")
	newTitle := "Hatcher Pro"
	_, err := env.products.Update(ctx, p.ID, product.UpdateProductInput{BasePrice: &newPrice, Title: &newTitle})
	require.NoError(t, err)
	require.NoError(t, env.products.SoftDelete(ctx, p.ID))

	got, err := env.svc.GetOrder(ctx, user, view.ID, false)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "Hatcher", got.Lines[0].ProductTitle)
	assert.Equal(t, "80.00", got.Lines[0].UnitPrice)
	assert.Equal(t, "80.00", got.FinalAmount)
}

func TestCreateOrderRejectsUnavailableProduct(t *testing.T) {
	env := newOrdersEnv(t, Options{})
	ok := env.seed(t, "Egg Turner", "30.00")
	draft := dbtest.SeedProduct(t, env.conn, dbtest.ProductFixture{
		Title: "Prototype", FinalPrice: "10.00", Status: enums.ProductStatusDraft,
	})
	missing := uuid.New()

	for _, id := range []uuid.UUID{draft.ID, missing} {
		_, err := env.svc.CreateOrder(context.Background(), CreateOrderInput{
			UserID:  uuid.New(),
			Lines:   []LineRequest{{ProductID: ok.ID, Quantity: 1}, {ProductID: id, Quantity: 1}},
			Contact: Contact{Email: "farmer@example.com"},
		})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProductUnavailable))
		details, _ := pkgerrors.As(err).Details().(map[string]any)
		assert.Equal(t, id.String(), details["product_id"])
	}

	var count int64
	require.NoError(t, env.conn.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, env.outboxRows(t, enums.EventOrderCreated))
}

func TestCreateOrderValidation(t *testing.T) {
	env := newOrdersEnv(t, Options{})
	p := env.seed(t, "Fan", "9.00")
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateOrderInput
		code  pkgerrors.Code
	}{
		{"no lines", CreateOrderInput{UserID: uuid.New(), Contact: Contact{Email: "a@b.co"}}, pkgerrors.CodeInvalidInput},
		{"zero quantity", CreateOrderInput{UserID: uuid.New(), Lines: []LineRequest{{ProductID: p.ID}}, Contact: Contact{Email: "a@b.co"}}, pkgerrors.CodeInvalidQuantity},
		{"bad email", CreateOrderInput{UserID: uuid.New(), Lines: []LineRequest{{ProductID: p.ID, Quantity: 1}}, Contact: Contact{Email: "nope"}}, pkgerrors.CodeInvalidInput},
		{"nil product", CreateOrderInput{UserID: uuid.New(), Lines: []LineRequest{{Quantity: 1}}, Contact: Contact{Email: "a@b.co"}}, pkgerrors.CodeInvalidInput},
		{"nil user", CreateOrderInput{Lines: []LineRequest{{ProductID: p.ID, Quantity: 1}}, Contact: Contact{Email: "a@b.co"}}, pkgerrors.CodeInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.CreateOrder(ctx, tc.input)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)
		})
	}
}

func TestCreateOrderRetriesNumberCollision(t *testing.T) {
	numbers := []string{"ORD-TAKEN-0000", "ORD-TAKEN-0000", "ORD-FRESH-0001"}
	calls := 0
	env := newOrdersEnv(t, Options{Numbers: func(time.Time) (string, error) {
		n := numbers[calls]
		calls++
		return n, nil
	}})
	p := env.seed(t, "Tray", "5.00")

	first := env.place(t, uuid.New(), LineRequest{ProductID: p.ID, Quantity: 1})
	assert.Equal(t, "ORD-TAKEN-0000", first.OrderNumber)

	second := env.place(t, uuid.New(), LineRequest{ProductID: p.ID, Quantity: 2})
	assert.Equal(t, "ORD-FRESH-0001", second.OrderNumber)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, env.metrics.collisions)
	assert.Len(t, env.outboxRows(t, enums.EventOrderCreated), 2)
}

func TestCreateOrderGivesUpAfterAttempts(t *testing.T) {
	calls := 0
	env := newOrdersEnv(t, Options{Numbers: func(time.Time) (string, error) {
		calls++
		return "ORD-SAME-0000", nil
	}})
	p := env.seed(t, "Tray", "5.00")
	env.place(t, uuid.New(), LineRequest{ProductID: p.ID, Quantity: 1})
	calls = 0

	_, err := env.svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:  uuid.New(),
		Lines:   []LineRequest{{ProductID: p.ID, Quantity: 1}},
		Contact: Contact{Email: "farmer@example.com"},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOrderNumberCollision))
	assert.Equal(t, defaultNumberAttempts, calls)
	assert.Equal(t, defaultNumberAttempts, env.metrics.collisions)

	var count int64
	require.NoError(t, env.conn.Model(&models.Order{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

// failingItemsRepo writes the order header and then fails the line item
// insert, leaving a half-written order in the open transaction.
type failingItemsRepo struct {
	Repository
	tx             *gorm.DB
	headerInserted bool
}

func (r *failingItemsRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	header := *order
	header.Items = nil
	if err := r.tx.WithContext(ctx).Create(&header).Error; err != nil {
		return err
	}
	r.headerInserted = true
	return errors.New("insert order items: disk I/O error")
}

func TestCreateOrderLeavesNothingWhenItemsFail(t *testing.T) {
	client := dbtest.Client(t)
	products, err := product.NewService(product.NewRepository(client.DB()))
	require.NoError(t, err)
	emitter := outbox.NewService(outbox.NewRepository(client.DB()), logger.Nop())

	var last *failingItemsRepo
	repo := &trackingRepo{Repository: NewRepository(client.DB()), onTx: func(r *failingItemsRepo) { last = r }}
	svc, err := NewService(repo, client, emitter, products, Options{})
	require.NoError(t, err)
	p := dbtest.SeedProduct(t, client.DB(), dbtest.ProductFixture{Title: "Incubator", FinalPrice: "120.00"})

	_, err = svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:  uuid.New(),
		Lines:   []LineRequest{{ProductID: p.ID, Quantity: 2}},
		Contact: Contact{Email: "farmer@example.com"},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePersistence))
	require.NotNil(t, last)
	assert.True(t, last.headerInserted, "header should have been written before the failure")

	var orders, items, events int64
	require.NoError(t, client.DB().Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, client.DB().Model(&models.OrderLineItem{}).Count(&items).Error)
	require.NoError(t, client.DB().Model(&models.OutboxEvent{}).Count(&events).Error)
	assert.Zero(t, orders)
	assert.Zero(t, items)
	assert.Zero(t, events)
}

type trackingRepo struct {
	Repository
	onTx func(*failingItemsRepo)
}

func (r *trackingRepo) WithTx(tx *gorm.DB) Repository {
	scoped := &failingItemsRepo{Repository: r.Repository.WithTx(tx), tx: tx}
	r.onTx(scoped)
	return scoped
}

func TestGenerateOrderNumberFormat(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	number, err := GenerateOrderNumber(now)
	require.NoError(t, err)
	assert.Regexp(t, `^ORD-LOYW3V28-[0-9A-Z]{4}$`, number)
}

func TestGetOrderHidesOtherUsersOrders(t *testing.T) {
	env := newOrdersEnv(t, Options{})
	ctx := context.Background()
	owner := uuid.New()
	p := env.seed(t, "Tray", "5.00")
	view := env.place(t, owner, LineRequest{ProductID: p.ID, Quantity: 1})

	_, err := env.svc.GetOrder(ctx, uuid.New(), view.ID, false)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	got, err := env.svc.GetOrder(ctx, uuid.New(), view.ID, true)
	require.NoError(t, err)
	assert.Equal(t, view.OrderNumber, got.OrderNumber)

	_, err = env.svc.GetOrder(ctx, owner, uuid.New(), false)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListOrdersPaginatesNewestFirst(t *testing.T) {
	env := newOrdersEnv(t, Options{})
	ctx := context.Background()
	user := uuid.New()
	p := env.seed(t, "Tray", "5.00")
	for i := 0; i < 3; i++ {
		env.place(t, user, LineRequest{ProductID: p.ID, Quantity: i + 1})
		time.Sleep(2 * time.Millisecond)
	}
	env.place(t, uuid.New(), LineRequest{ProductID: p.ID, Quantity: 1})

	page, err := env.svc.ListOrders(ctx, user, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	require.NotEmpty(t, page.NextCursor)
	assert.Equal(t, "15.00", page.Orders[0].FinalAmount)

	rest, err := env.svc.ListOrders(ctx, user, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Orders, 1)
	assert.Empty(t, rest.NextCursor)
	assert.Equal(t, "5.00", rest.Orders[0].FinalAmount)

	_, err = env.svc.ListOrders(ctx, user, pagination.Params{Cursor: "%%%"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestAdminListOrdersFiltersByStatus(t *testing.T) {
	env := newOrdersEnv(t, Options{})
	ctx := context.Background()
	admin := uuid.New()
	p := env.seed(t, "Tray", "5.00")
	a := env.place(t, uuid.New(), LineRequest{ProductID: p.ID, Quantity: 1})
	env.place(t, uuid.New(), LineRequest{ProductID: p.ID, Quantity: 1})

	_, err := env.svc.Transition(ctx, TransitionInput{
		OrderID: a.ID, ActorID: admin, ActorRole: enums.RoleAdmin, NewStatus: enums.OrderStatusConfirmed,
	})
	require.NoError(t, err)

	confirmed := enums.OrderStatusConfirmed
	list, err := env.svc.AdminListOrders(ctx, AdminListInput{Status: &confirmed})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, a.ID, list.Orders[0].ID)

	all, err := env.svc.AdminListOrders(ctx, AdminListInput{})
	require.NoError(t, err)
	assert.Len(t, all.Orders, 2)

	bogus := enums.OrderStatus("inquiry_sent")
	_, err = env.svc.AdminListOrders(ctx, AdminListInput{Status: &bogus})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
