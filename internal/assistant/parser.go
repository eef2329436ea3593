// Package assistant holds the pure pieces of the shopping-assistant
// pipeline: payload parsing, prompt construction, quantity inference, and
// adaptive token batching. Nothing here does I/O.
package assistant

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cartpilot/cartpilot/internal/models"
)

// MalformedOutput is the user-facing reply when the model payload cannot
// be interpreted.
const MalformedOutput = "AI response malformed."

// flexInt tolerates models that return numbers as JSON strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(int(v))
	return nil
}

// gatewayPayload is the wire schema the model is instructed to produce.
type gatewayPayload struct {
	Output         string              `json:"output"`
	Intent         string              `json:"intent"`
	Action         string              `json:"action"`
	ProductID      string              `json:"productId"`
	Quantity       flexInt             `json:"quantity"`
	PromoCode      string              `json:"promoCode"`
	Confidence     flexInt             `json:"confidence"`
	BundleComplete bool                `json:"bundleComplete"`
	Suggestions    []string            `json:"suggestions"`
	Products       []models.ProductRef `json:"products"`
	Cart           *models.CartSummary `json:"cart"`
}

// ParsePayload interprets a raw model payload, filling every field with a
// safe default. It never fails: malformed JSON yields a chat-intent result
// carrying MalformedOutput and the caller-supplied fallback cart.
func ParsePayload(raw string, fallbackCart *models.CartSummary) *models.AssistantResult {
	var p gatewayPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return &models.AssistantResult{
			Output:      MalformedOutput,
			Intent:      models.IntentChat,
			Suggestions: []string{},
			Products:    []models.ProductRef{},
			Cart:        fallbackCart,
		}
	}

	res := &models.AssistantResult{
		Output:         p.Output,
		Intent:         p.Intent,
		Action:         p.Action,
		ProductID:      p.ProductID,
		Quantity:       int(p.Quantity),
		PromoCode:      p.PromoCode,
		Confidence:     int(p.Confidence),
		BundleComplete: p.BundleComplete,
		Suggestions:    p.Suggestions,
		Products:       p.Products,
		Cart:           p.Cart,
	}
	if res.Intent == "" {
		res.Intent = models.IntentChat
	}
	if res.Suggestions == nil {
		res.Suggestions = []string{}
	}
	if res.Products == nil {
		res.Products = []models.ProductRef{}
	}
	if res.Cart == nil {
		res.Cart = fallbackCart
	}
	return res
}
