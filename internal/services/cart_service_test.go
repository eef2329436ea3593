package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cartpilot/cartpilot/internal/events"
	"github.com/cartpilot/cartpilot/internal/models"
	"github.com/cartpilot/cartpilot/internal/utils"
)

func newCartFixture(promos ...*models.Promotion) (CartService, *fakeCartRepo, *fakeProductRepo, *fakeOrderRepo, *fakeSink) {
	carts := newFakeCartRepo()
	products := newFakeProductRepo(
		&models.Product{ProductID: "p-watch", Name: "Watch", Price: 29.99, Stock: 10},
		&models.Product{ProductID: "p-strap", Name: "Strap", Price: 9.99, Stock: 2},
	)
	orders := &fakeOrderRepo{}
	sink := &fakeSink{}
	svc := NewCartService(carts, products, newFakePromotionRepo(promos...), orders, sink, testLog())
	return svc, carts, products, orders, sink
}

func TestCartAddOrUpdate(t *testing.T) {
	svc, _, _, _, sink := newCartFixture()
	ctx := context.Background()

	summary, err := svc.AddOrUpdate(ctx, "u1", "p-watch", 2)
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	require.Equal(t, 2, summary.Items[0].Quantity)
	require.Equal(t, 59.98, summary.Items[0].Total)
	require.Equal(t, 59.98, summary.FinalTotal)

	// merging into the same line
	summary, err = svc.AddOrUpdate(ctx, "u1", "p-watch", 1)
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	require.Equal(t, 3, summary.Items[0].Quantity)

	require.Len(t, sink.byEvent(events.EventCartUpdated), 2)
}

func TestCartAddNegativeDeltaRemovesLine(t *testing.T) {
	svc, _, _, _, _ := newCartFixture()
	ctx := context.Background()

	_, err := svc.AddOrUpdate(ctx, "u1", "p-watch", 1)
	require.NoError(t, err)

	summary, err := svc.AddOrUpdate(ctx, "u1", "p-watch", -1)
	require.NoError(t, err)
	require.Empty(t, summary.Items)
}

func TestCartAddUnknownProduct(t *testing.T) {
	svc, _, _, _, _ := newCartFixture()

	_, err := svc.AddOrUpdate(context.Background(), "u1", "p-ghost", 1)
	require.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestCartEnsureActivePromotion(t *testing.T) {
	svc, _, _, _, _ := newCartFixture(&models.Promotion{Code: "SUMMER10", Discount: 10, Active: true})
	ctx := context.Background()

	summary, err := svc.AddOrUpdate(ctx, "u1", "p-watch", 1)
	require.NoError(t, err)
	require.Equal(t, "SUMMER10", summary.PromotionCode)
	require.Equal(t, 19.99, summary.FinalTotal)
}

func TestCartDiscountNeverNegative(t *testing.T) {
	svc, _, _, _, _ := newCartFixture(&models.Promotion{Code: "MEGA50", Discount: 50, Active: true})
	ctx := context.Background()

	summary, err := svc.AddOrUpdate(ctx, "u1", "p-strap", 1)
	require.NoError(t, err)
	require.Equal(t, 0.0, summary.FinalTotal)
}

func TestCartApplyPromotionInvalid(t *testing.T) {
	expired := time.Now().Add(-time.Hour)
	svc, _, _, _, _ := newCartFixture(&models.Promotion{Code: "OLD", Discount: 5, Active: true, ExpiresAt: &expired})
	ctx := context.Background()

	_, err := svc.ApplyPromotion(ctx, "u1", "BOGUS")
	require.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = svc.ApplyPromotion(ctx, "u1", "OLD")
	require.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestCartCheckout(t *testing.T) {
	svc, _, products, orders, _ := newCartFixture()
	ctx := context.Background()

	_, err := svc.AddOrUpdate(ctx, "u1", "p-watch", 2)
	require.NoError(t, err)

	order, summary, err := svc.Checkout(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "Pending", order.Status)
	require.Equal(t, 59.98, order.TotalAmount)
	require.Empty(t, summary.Items)
	require.Equal(t, 2, products.decrements["p-watch"])
	require.Len(t, orders.orders, 1)
}

func TestCartCheckoutEmpty(t *testing.T) {
	svc, _, _, _, _ := newCartFixture()

	_, _, err := svc.Checkout(context.Background(), "u1")
	require.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}
