package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cartpilot/cartpilot/internal/events"
	"github.com/cartpilot/cartpilot/internal/models"
	mongorepo "github.com/cartpilot/cartpilot/internal/repositories/mongo"
	"github.com/cartpilot/cartpilot/internal/utils"
)

// CartService is the cart adapter: the only writer of cart state in this
// service. Concurrent edits resolve last-write-wins.
type CartService interface {
	GetOrCreate(ctx context.Context, userID string) (*models.Cart, error)
	Summary(ctx context.Context, userID string) (*models.CartSummary, error)
	// EnsureActivePromotion applies the newest active promotion when the
	// cart has none.
	EnsureActivePromotion(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	// AddOrUpdate adds delta to the product's line quantity, creating or
	// removing the line as needed.
	AddOrUpdate(ctx context.Context, userID, productID string, delta int) (*models.CartSummary, error)
	Remove(ctx context.Context, userID, productID string) (*models.CartSummary, error)
	ApplyPromotion(ctx context.Context, userID, code string) (*models.CartSummary, error)
	// Checkout creates an order from the cart, decrements stock, and
	// empties the cart.
	Checkout(ctx context.Context, userID string) (*models.Order, *models.CartSummary, error)
}

type cartService struct {
	carts      mongorepo.CartRepository
	products   mongorepo.ProductRepository
	promotions mongorepo.PromotionRepository
	orders     mongorepo.OrderRepository
	sink       events.Sink
	log        *logrus.Logger
}

func NewCartService(
	carts mongorepo.CartRepository,
	products mongorepo.ProductRepository,
	promotions mongorepo.PromotionRepository,
	orders mongorepo.OrderRepository,
	sink events.Sink,
	log *logrus.Logger,
) CartService {
	return &cartService{
		carts:      carts,
		products:   products,
		promotions: promotions,
		orders:     orders,
		sink:       sink,
		log:        log,
	}
}

func (s *cartService) GetOrCreate(ctx context.Context, userID string) (*models.Cart, error) {
	const op = "CartService.GetOrCreate"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	cart, err := s.carts.FindByUser(ctx, userID)
	if errors.Is(err, utils.ErrNotFound) {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load cart", err)
	}
	return cart, nil
}

func (s *cartService) Summary(ctx context.Context, userID string) (*models.CartSummary, error) {
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return cart.Summarize(), nil
}

func (s *cartService) EnsureActivePromotion(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	const op = "CartService.EnsureActivePromotion"

	if cart.PromotionCode != "" {
		return cart, nil
	}

	promo, err := s.promotions.FindActive(ctx)
	if errors.Is(err, utils.ErrNotFound) {
		return cart, nil
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to look up active promotion", err)
	}

	cart.PromotionCode = promo.Code
	cart.Discount = promo.Discount
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save cart", err)
	}
	return cart, nil
}

func (s *cartService) AddOrUpdate(ctx context.Context, userID, productID string, delta int) (*models.CartSummary, error) {
	const op = "CartService.AddOrUpdate"

	if userID == "" || productID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and product_id are required", nil)
	}

	product, err := s.products.GetByID(ctx, productID)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeNotFound, op, "product not found", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load product", err)
	}

	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart, err = s.EnsureActivePromotion(ctx, cart); err != nil {
		return nil, err
	}

	idx := -1
	for i, item := range cart.Items {
		if item.ProductID == productID {
			idx = i
			break
		}
	}

	switch {
	case idx >= 0:
		qty := cart.Items[idx].Quantity + delta
		if qty < 1 {
			cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		} else {
			cart.Items[idx].Quantity = qty
			cart.Items[idx].Price = product.Price
			cart.Items[idx].Total = lineTotal(product.Price, qty)
		}
	case delta > 0:
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: product.ProductID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  delta,
			Total:     lineTotal(product.Price, delta),
		})
	}

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save cart", err)
	}

	summary := cart.Summarize()
	s.emitCartUpdated(ctx, userID, summary)
	return summary, nil
}

func (s *cartService) Remove(ctx context.Context, userID, productID string) (*models.CartSummary, error) {
	const op = "CartService.Remove"

	cart, err := s.carts.FindByUser(ctx, userID)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeNotFound, op, "cart not found", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load cart", err)
	}

	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save cart", err)
	}

	summary := cart.Summarize()
	s.emitCartUpdated(ctx, userID, summary)
	return summary, nil
}

func (s *cartService) ApplyPromotion(ctx context.Context, userID, code string) (*models.CartSummary, error) {
	const op = "CartService.ApplyPromotion"

	if code == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "promo code is required", nil)
	}

	promo, err := s.promotions.FindByCode(ctx, code)
	if err != nil && !errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeInternal, op, "failed to look up promotion", err)
	}
	if promo == nil || !promo.Valid(time.Now().UTC()) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "invalid promotion code", nil)
	}

	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.PromotionCode = promo.Code
	cart.Discount = promo.Discount
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save cart", err)
	}

	summary := cart.Summarize()
	s.emitCartUpdated(ctx, userID, summary)
	return summary, nil
}

func (s *cartService) Checkout(ctx context.Context, userID string) (*models.Order, *models.CartSummary, error) {
	const op = "CartService.Checkout"

	cart, err := s.carts.FindByUser(ctx, userID)
	if errors.Is(err, utils.ErrNotFound) || (err == nil && len(cart.Items) == 0) {
		return nil, nil, utils.E(utils.CodeInvalidArgument, op, "cart is empty", nil)
	}
	if err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to load cart", err)
	}

	var total float64
	for _, item := range cart.Items {
		total += item.Total
		if err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.log.WithError(err).WithField("product_id", item.ProductID).Warn("cart: stock decrement failed")
		}
	}

	order := &models.Order{
		UserID:      userID,
		Items:       cart.Items,
		TotalAmount: total,
		Discount:    cart.Discount,
		Status:      "Pending",
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to create order", err)
	}

	cart.Items = []models.CartItem{}
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to save cart", err)
	}

	summary := cart.Summarize()
	s.emitCartUpdated(ctx, userID, summary)
	return order, summary, nil
}

func (s *cartService) emitCartUpdated(ctx context.Context, userID string, summary *models.CartSummary) {
	if _, err := s.sink.Publish(ctx, events.UserRoom(userID), events.EventCartUpdated, summary); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("cart: emit failed")
	}
}

func lineTotal(price float64, qty int) float64 {
	return math.Round(price*float64(qty)*100) / 100
}
