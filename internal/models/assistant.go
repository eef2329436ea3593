package models

// Intent tags returned by the model.
const (
	IntentChat = "chat"
	IntentCart = "cart"
)

// Cart actions the assistant may request. Anything else is a no-op.
const (
	ActionAddToCart      = "add_to_cart"
	ActionUpdateCart     = "update_cart"
	ActionRemoveFromCart = "remove_from_cart"
	ActionApplyPromo     = "apply_promo"
	ActionCheckout       = "checkout"
	ActionBundle         = "bundle"
)

// KnownCartAction reports whether the action tag is one the pipeline can
// dispatch.
func KnownCartAction(action string) bool {
	switch action {
	case ActionAddToCart, ActionUpdateCart, ActionRemoveFromCart, ActionApplyPromo, ActionCheckout:
		return true
	}
	return false
}

// AssistantResult is the structured result parsed from the model payload.
// Every field is defaulted by the parser; consumers never see a nil cart.
type AssistantResult struct {
	Output         string       `json:"output"`
	Intent         string       `json:"intent"` // chat | cart
	Action         string       `json:"action,omitempty"`
	ProductID      string       `json:"product_id,omitempty"`
	Quantity       int          `json:"quantity,omitempty"` // 0 = unspecified
	PromoCode      string       `json:"promo_code,omitempty"`
	Confidence     int          `json:"confidence,omitempty"` // 0 = unspecified, defaults to 80
	BundleComplete bool         `json:"bundle_complete,omitempty"`
	Suggestions    []string     `json:"suggestions"`
	Products       []ProductRef `json:"products"`
	Cart           *CartSummary `json:"cart,omitempty"`
}

// PartialUpdate is one streamed increment of the assistant reply.
type PartialUpdate struct {
	Type     string       `json:"type"` // token | fast
	Output   string       `json:"output"`
	Cart     *CartSummary `json:"cart,omitempty"`
	Products []ProductRef `json:"products,omitempty"`
}

// DashboardItem is one cart line enriched for the admin dashboard.
type DashboardItem struct {
	ProductID      string  `json:"product_id"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	Quantity       int     `json:"quantity"`
	Total          float64 `json:"total"`
	PromotionCode  string  `json:"promotion_code,omitempty"`
	DiscountAmount float64 `json:"discount_amount"`
	StockStatus    string  `json:"stock_status"`
}

// Dashboard is the admin-facing snapshot built per orchestration cycle.
type Dashboard struct {
	CartItems           []DashboardItem `json:"cart_items"`
	CartTotals          string          `json:"cart_totals"` // formatted, e.g. "$42.50"
	PredictedActions    []string        `json:"predicted_actions"`
	RiskAssessment      string          `json:"risk_assessment"` // low | medium | high
	RecommendedUpsells  []ProductRef    `json:"recommended_upsells"`
	QueuedNotifications []string        `json:"queued_notifications"`
	AnalyticsDeltas     map[string]int  `json:"analytics_deltas"`
}

// StreamPayload is the room-facing message shape for both partial and
// final assistant replies.
type StreamPayload struct {
	Role                   string           `json:"role"` // always "ai"
	Content                string           `json:"content"`
	Partial                bool             `json:"partial"`
	Confidence             int              `json:"confidence"`
	DashboardVisualization Dashboard        `json:"dashboard_visualization"`
	AIData                 *AssistantResult `json:"ai_data,omitempty"`
}

// OrchestrationOutcome is returned to the HTTP caller after a full cycle.
type OrchestrationOutcome struct {
	AIResponse             *AssistantResult `json:"ai_response"`
	DashboardVisualization Dashboard        `json:"dashboard_visualization"`
	Confidence             int              `json:"confidence"`
	CartActionsAttempted   int              `json:"cart_actions_attempted"`
	CartActionsSucceeded   int              `json:"cart_actions_succeeded"`
}
