package reviews

import (
	"context"
	"strings"
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
)

func newReviews(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	products, err := product.NewService(product.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), products)
	require.NoError(t, err)
	return svc, conn
}

func seedOrder(t *testing.T, conn *gorm.DB, userID uuid.UUID, p models.Product, status enums.OrderStatus) {
	t.Helper()
	price := p.FinalPrice
	order := models.Order{
		OrderNumber:   "ORD-" + uuid.NewString()[:8],
		UserID:        userID,
		Status:        status,
		TotalAmount:   price,
		FinalAmount:   price,
		CustomerEmail: "buyer@example.com",
		Items: []models.OrderLineItem{{
			Position:     1,
			ProductID:    p.ID,
			ProductTitle: p.Title,
			UnitPrice:    price,
			Quantity:     1,
			Subtotal:     price,
		}},
	}
	require.NoError(t, conn.Create(&order).Error)
}

func TestCreateReviewMarksVerifiedPurchase(t *testing.T) {
	svc, conn := newReviews(t)
	ctx := context.Background()
	p := dbtest.SeedProduct(t, conn, dbtest.ProductFixture{Title: "Incubator", FinalPrice: "120.00"})
	buyer, browser, pending := uuid.New(), uuid.New(), uuid.New()
	seedOrder(t, conn, buyer, p, enums.OrderStatusCompleted)
	seedOrder(t, conn, pending, p, enums.OrderStatusConfirmed)

	text := "  Hatched 11 of 12.  "
	got, err := svc.Create(ctx, buyer, p.ID, CreateReviewInput{UserName: " Dana ", Rating: 5, Text: &text})
	require.NoError(t, err)
	assert.True(t, got.VerifiedPurchase)
	assert.Equal(t, "Dana", got.UserName)
	require.NotNil(t, got.Text)
	assert.Equal(t, "Hatched 11 of 12.", *got.Text)

	got, err = svc.Create(ctx, browser, p.ID, CreateReviewInput{UserName: "Sam", Rating: 3})
	require.NoError(t, err)
	assert.False(t, got.VerifiedPurchase)
	assert.Nil(t, got.Text)

	got, err = svc.Create(ctx, pending, p.ID, CreateReviewInput{UserName: "Lee", Rating: 4})
	require.NoError(t, err)
	assert.False(t, got.VerifiedPurchase)
}

func TestCreateReviewValidation(t *testing.T) {
	svc, conn := newReviews(t)
	ctx := context.Background()
	p := dbtest.SeedProduct(t, conn, dbtest.ProductFixture{Title: "Incubator", FinalPrice: "120.00"})
	draft := dbtest.SeedProduct(t, conn, dbtest.ProductFixture{Title: "Draft", FinalPrice: "1.00", Status: enums.ProductStatusDraft})
	user := uuid.New()
	long := strings.Repeat("x", maxTextLength+1)

	cases := map[string]CreateReviewInput{
		"rating zero":   {UserName: "Dana", Rating: 0},
		"rating six":    {UserName: "Dana", Rating: 6},
		"blank name":    {UserName: "   ", Rating: 4},
		"text too long": {UserName: "Dana", Rating: 4, Text: &long},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, user, p.ID, in)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		})
	}

	_, err := svc.Create(ctx, uuid.Nil, p.ID, CreateReviewInput{UserName: "Dana", Rating: 4})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, user, draft.ID, CreateReviewInput{UserName: "Dana", Rating: 4})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProductUnavailable))
}

func TestCreateReviewOncePerProduct(t *testing.T) {
	svc, conn := newReviews(t)
	ctx := context.Background()
	p := dbtest.SeedProduct(t, conn, dbtest.ProductFixture{Title: "Incubator", FinalPrice: "120.00"})
	other := dbtest.SeedProduct(t, conn, dbtest.ProductFixture{Title: "Candler", FinalPrice: "15.00"})
	user := uuid.New()

	_, err := svc.Create(ctx, user, p.ID, CreateReviewInput{UserName: "Dana", Rating: 4})
	require.NoError(t, err)
	_, err = svc.Create(ctx, user, p.ID, CreateReviewInput{UserName: "Dana", Rating: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.Create(ctx, user, other.ID, CreateReviewInput{UserName: "Dana", Rating: 2})
	require.NoError(t, err)
}

func TestListNewestFirstWithSummary(t *testing.T) {
	svc, conn := newReviews(t)
	ctx := context.Background()
	p := dbtest.SeedProduct(t, conn, dbtest.ProductFixture{Title: "Incubator", FinalPrice: "120.00"})
	other := dbtest.SeedProduct(t, conn, dbtest.ProductFixture{Title: "Candler", FinalPrice: "15.00"})

	for i, rating := range []int{5, 4, 4} {
		_, err := svc.Create(ctx, uuid.New(), p.ID, CreateReviewInput{UserName: []string{"A", "B", "C"}[i], Rating: rating})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}
	_, err := svc.Create(ctx, uuid.New(), other.ID, CreateReviewInput{UserName: "Z", Rating: 1})
	require.NoError(t, err)

	page, err := svc.List(ctx, p.ID, "", 2)
	require.NoError(t, err)
	require.Len(t, page.Reviews, 2)
	assert.Equal(t, "C", page.Reviews[0].UserName)
	assert.Equal(t, "B", page.Reviews[1].UserName)
	assert.EqualValues(t, 3, page.Summary.Count)
	assert.Equal(t, "4.3", page.Summary.AverageRating)
	require.NotEmpty(t, page.NextCursor)

	rest, err := svc.List(ctx, p.ID, page.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, rest.Reviews, 1)
	assert.Equal(t, "A", rest.Reviews[0].UserName)
	assert.Empty(t, rest.NextCursor)

	empty, err := svc.List(ctx, uuid.New(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, empty.Reviews)
	assert.Equal(t, SummaryDTO{AverageRating: "0.0"}, empty.Summary)

	_, err = svc.List(ctx, p.ID, "garbage", 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSummarizeRoundsHalfUp(t *testing.T) {
	assert.Equal(t, "4.5", summarize(2, 9).AverageRating)
	assert.Equal(t, "3.7", summarize(3, 11).AverageRating)
	assert.Equal(t, decimal.NewFromInt(2).StringFixed(1), summarize(4, 8).AverageRating)
}
