package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/cartpilot/cartpilot/internal/assistant"
	"github.com/cartpilot/cartpilot/internal/events"
	"github.com/cartpilot/cartpilot/internal/models"
	mongorepo "github.com/cartpilot/cartpilot/internal/repositories/mongo"
	pgrepo "github.com/cartpilot/cartpilot/internal/repositories/postgres"
	"github.com/cartpilot/cartpilot/internal/utils"
)

const maxUpsells = 5

// StreamFunc receives decorated partial and final payloads.
type StreamFunc func(models.StreamPayload)

// OrchestrationService is the top-level coordinator of one assistant
// cycle: it drives the assistant leg, executes confirmed cart actions,
// scores confidence and risk, snapshots the dashboard, writes the audit
// record, and emits the final result to both rooms.
type OrchestrationService interface {
	HandleUserInput(ctx context.Context, userID, input string, confirmAction bool, onPartial StreamFunc, fastMode bool) (*models.OrchestrationOutcome, error)
}

type orchestrationService struct {
	assistant  AssistantService
	carts      CartService
	catalog    CatalogService
	products   mongorepo.ProductRepository
	promotions mongorepo.PromotionRepository
	audits     pgrepo.AuditRepo
	sink       events.Sink
	model      string
	log        *logrus.Logger
}

func NewOrchestrationService(
	assistantSvc AssistantService,
	carts CartService,
	catalog CatalogService,
	products mongorepo.ProductRepository,
	promotions mongorepo.PromotionRepository,
	audits pgrepo.AuditRepo,
	sink events.Sink,
	model string,
	log *logrus.Logger,
) OrchestrationService {
	return &orchestrationService{
		assistant:  assistantSvc,
		carts:      carts,
		catalog:    catalog,
		products:   products,
		promotions: promotions,
		audits:     audits,
		sink:       sink,
		model:      model,
		log:        log,
	}
}

// enrichedItem pairs a cart line with its product record (nil when the
// product no longer resolves).
type enrichedItem struct {
	item    models.CartItem
	product *models.Product
}

func (s *orchestrationService) HandleUserInput(ctx context.Context, userID, input string, confirmAction bool, onPartial StreamFunc, fastMode bool) (*models.OrchestrationOutcome, error) {
	const op = "OrchestrationService.HandleUserInput"

	if userID == "" || input == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and input are required", nil)
	}

	log := s.log.WithField("user_id", userID)
	log.WithField("input_snippet", snippet(input, 60)).Info("orchestration: cycle start")

	var partialCb PartialFunc
	if onPartial != nil {
		partialCb = s.decoratePartial(ctx, userID, onPartial)
	}

	res, prompt, err := s.assistant.HandleUserInput(ctx, userID, input, partialCb, fastMode)
	if err != nil {
		return nil, err
	}

	// Executing a confirmed cart action, then scoring, always works off
	// the authoritative cart, never the model's preview.
	attempted, succeeded := s.executeCartAction(ctx, userID, input, res, confirmAction)

	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart, err = s.carts.EnsureActivePromotion(ctx, cart); err != nil {
		log.WithError(err).Warn("orchestration: promotion sync failed")
	}
	items := s.enrich(ctx, cart)

	promoApplied := cart.PromotionCode != ""
	promoValid := false
	if promoApplied {
		if promo, perr := s.promotions.FindByCode(ctx, cart.PromotionCode); perr == nil {
			promoValid = promo.Valid(time.Now().UTC())
		}
	}

	confidence := computeConfidence(res, items, promoApplied, promoValid)
	dashboard := s.buildDashboard(cart, items, res, confidence, attempted, succeeded)

	s.writeAudit(ctx, userID, res, prompt, confidence, dashboard)

	finalPayload := models.StreamPayload{
		Role:                   "ai",
		Content:                res.Output,
		Partial:                false,
		Confidence:             confidence,
		DashboardVisualization: dashboard,
		AIData:                 res,
	}
	s.publish(ctx, events.UserRoom(userID), events.EventMessage, finalPayload)
	s.publish(ctx, events.AdminRoom, events.EventFinalUpdate, adminFinal(userID, finalPayload))
	if onPartial != nil {
		onPartial(finalPayload)
	}

	log.WithFields(logrus.Fields{
		"intent":     res.Intent,
		"confidence": confidence,
		"attempted":  attempted,
		"succeeded":  succeeded,
	}).Info("orchestration: cycle complete")

	return &models.OrchestrationOutcome{
		AIResponse:             res,
		DashboardVisualization: dashboard,
		Confidence:             confidence,
		CartActionsAttempted:   attempted,
		CartActionsSucceeded:   succeeded,
	}, nil
}

// decoratePartial wraps each batched token increment in an interim
// dashboard payload for both rooms and the caller's callback.
func (s *orchestrationService) decoratePartial(ctx context.Context, userID string, onPartial StreamFunc) PartialFunc {
	return func(pu models.PartialUpdate) {
		if pu.Output == "" {
			return
		}

		interim := models.Dashboard{
			CartItems:           []models.DashboardItem{},
			CartTotals:          "N/A",
			PredictedActions:    []string{},
			RiskAssessment:      computeRisk(defaultConfidence),
			RecommendedUpsells:  []models.ProductRef{},
			QueuedNotifications: []string{},
			AnalyticsDeltas:     map[string]int{},
		}
		if pu.Cart != nil {
			interim.CartItems = previewItems(pu.Cart)
			interim.CartTotals = fmt.Sprintf("$%.2f", pu.Cart.FinalTotal)
		}

		payload := models.StreamPayload{
			Role:                   "ai",
			Content:                pu.Output,
			Partial:                true,
			Confidence:             defaultConfidence,
			DashboardVisualization: interim,
		}
		s.publish(ctx, events.UserRoom(userID), events.EventMessage, payload)
		s.publish(ctx, events.AdminRoom, events.EventPartialUpdate, adminFinal(userID, payload))
		onPartial(payload)
	}
}

// executeCartAction fills missing action parameters and, when confirmed,
// dispatches to the cart adapter. Adapter failures never abort the cycle.
func (s *orchestrationService) executeCartAction(ctx context.Context, userID, input string, res *models.AssistantResult, confirmAction bool) (attempted, succeeded int) {
	if res.Intent != models.IntentCart || res.Action == "" {
		return 0, 0
	}

	log := s.log.WithFields(logrus.Fields{"user_id": userID, "action": res.Action})

	if res.ProductID == "" && (res.Action == models.ActionAddToCart || res.Action == models.ActionRemoveFromCart || res.Action == models.ActionUpdateCart) {
		if cart, err := s.carts.GetOrCreate(ctx, userID); err == nil && len(cart.Items) > 0 {
			res.ProductID = cart.Items[0].ProductID
		} else if res.Action == models.ActionAddToCart {
			if first, err := s.catalog.FirstProduct(ctx); err == nil {
				res.ProductID = first.ProductID
			}
		}
	}

	if res.Action == models.ActionAddToCart && res.Quantity == 0 {
		if qty, ok := assistant.ExtractQuantity(input); ok {
			res.Quantity = qty
		} else {
			res.Quantity = 1
		}
	}

	if !confirmAction || !models.KnownCartAction(res.Action) {
		return 0, 0
	}

	attempted = 1
	var (
		summary *models.CartSummary
		err     error
	)
	switch res.Action {
	case models.ActionAddToCart, models.ActionUpdateCart:
		if res.ProductID == "" {
			err = errors.New("no target product")
			break
		}
		qty := res.Quantity
		if qty == 0 {
			qty = 1
		}
		summary, err = s.carts.AddOrUpdate(ctx, userID, res.ProductID, qty)
	case models.ActionRemoveFromCart:
		if res.ProductID == "" {
			err = errors.New("no target product")
			break
		}
		summary, err = s.carts.Remove(ctx, userID, res.ProductID)
	case models.ActionApplyPromo:
		if res.PromoCode == "" {
			err = errors.New("no promo code")
			break
		}
		summary, err = s.carts.ApplyPromotion(ctx, userID, res.PromoCode)
	case models.ActionCheckout:
		_, summary, err = s.carts.Checkout(ctx, userID)
	}

	if err != nil {
		log.WithError(err).Error("orchestration: cart action failed")
		s.publish(ctx, events.AdminRoom, events.EventActionError, adminPayload(userID,
			"action", res.Action, "error", err.Error()))
		return attempted, 0
	}

	if summary != nil {
		res.Cart = summary
	}
	s.publish(ctx, events.AdminRoom, events.EventActionComplete, adminPayload(userID, "action", res.Action))
	return attempted, 1
}

func (s *orchestrationService) enrich(ctx context.Context, cart *models.Cart) []enrichedItem {
	items := make([]enrichedItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		e := enrichedItem{item: item}
		if p, err := s.products.GetByID(ctx, item.ProductID); err == nil {
			e.product = p
		}
		items = append(items, e)
	}
	return items
}

func (s *orchestrationService) buildDashboard(cart *models.Cart, items []enrichedItem, res *models.AssistantResult, confidence, attempted, succeeded int) models.Dashboard {
	dash := models.Dashboard{
		CartItems:           make([]models.DashboardItem, 0, len(items)),
		CartTotals:          fmt.Sprintf("$%.2f", cart.FinalTotal()),
		PredictedActions:    []string{res.Intent},
		RiskAssessment:      computeRisk(confidence),
		RecommendedUpsells:  computeUpsells(items),
		QueuedNotifications: []string{},
		AnalyticsDeltas: map[string]int{
			"messages":               1,
			"cart_actions_attempted": attempted,
			"cart_actions_succeeded": succeeded,
		},
	}

	for _, e := range items {
		di := models.DashboardItem{
			ProductID:      e.item.ProductID,
			Name:           e.item.Name,
			Price:          e.item.Price,
			Quantity:       e.item.Quantity,
			Total:          e.item.Total,
			PromotionCode:  cart.PromotionCode,
			DiscountAmount: cart.Discount,
			StockStatus:    models.StockOutOfStock,
		}
		if e.product != nil {
			di.StockStatus = e.product.StockStatus()
		}
		dash.CartItems = append(dash.CartItems, di)
	}

	if succeeded > 0 {
		dash.QueuedNotifications = append(dash.QueuedNotifications, events.EventCartUpdated)
		if res.Action == models.ActionCheckout {
			dash.QueuedNotifications = append(dash.QueuedNotifications, "order:confirmation")
		}
	}
	return dash
}

func (s *orchestrationService) writeAudit(ctx context.Context, userID string, res *models.AssistantResult, prompt string, confidence int, dashboard models.Dashboard) {
	dashJSON, err := json.Marshal(dashboard)
	if err != nil {
		s.log.WithError(err).Error("orchestration: dashboard marshal failed")
		dashJSON = []byte("{}")
	}

	rec := &models.AuditRecord{
		ID:                   uuid.NewString(),
		UserID:               userID,
		ActionType:           "ai_suggestion",
		AIOutput:             res.Output,
		Confidence:           confidence,
		RequiresConfirmation: res.Intent == models.IntentCart,
		Dashboard:            datatypes.JSON(dashJSON),
		Source:               "OrchestrationService",
		Model:                s.model,
		Prompt:               prompt,
		CreatedAt:            time.Now().UTC(),
	}
	if err := s.audits.Insert(ctx, rec); err != nil {
		// audit is a compliance trail, not a control dependency
		s.log.WithError(err).Error("orchestration: audit insert failed")
	}
}

func (s *orchestrationService) publish(ctx context.Context, room, event string, payload any) {
	if _, err := s.sink.Publish(ctx, room, event, payload); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"room": room, "event": event}).Warn("orchestration: emit failed")
	}
}

func previewItems(cart *models.CartSummary) []models.DashboardItem {
	out := make([]models.DashboardItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		out = append(out, models.DashboardItem{
			ProductID:      item.ProductID,
			Name:           item.Name,
			Price:          item.Price,
			Quantity:       item.Quantity,
			Total:          item.Total,
			PromotionCode:  cart.PromotionCode,
			DiscountAmount: cart.Discount,
		})
	}
	return out
}

func adminFinal(userID string, payload models.StreamPayload) map[string]any {
	return map[string]any{
		"user_id":   userID,
		"payload":   payload,
		"timestamp": time.Now().UTC(),
	}
}
