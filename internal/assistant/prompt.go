package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cartpilot/cartpilot/internal/models"
)

// RecentTurns is how many conversation turns the orchestration prompt
// embeds. Memory itself is unbounded; only the prompt window is capped.
const RecentTurns = 10

var orchestrationKeywords = []string{"checkout", "promo", "apply", "multi-item", "bundle"}

// IsOrchestrationTask classifies input that needs the multi-step commerce
// prompt rather than the single-turn one.
func IsOrchestrationTask(input string) bool {
	lower := strings.ToLower(input)
	for _, kw := range orchestrationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// OrchestrationPrompt builds the multi-step prompt embedding recent
// conversation context.
func OrchestrationPrompt(recent []models.MemoryMessage, input string) string {
	var ctx strings.Builder
	for i, m := range recent {
		if i > 0 {
			ctx.WriteByte('\n')
		}
		ctx.WriteString(strings.ToUpper(m.Role))
		ctx.WriteString(": ")
		ctx.WriteString(m.Content)
	}

	return fmt.Sprintf(`You are an intelligent AI shopping assistant capable of autonomous orchestration.
Recent conversation:
%s

Current user request: "%s"

Instructions:
1. Analyze the user's intent and shopping context.
2. Consider cart contents, promotions, bundles, and stock availability.
3. Generate a JSON response with the following fields:
   - intent: 'chat' | 'cart'
   - action: if intent is 'cart', specify 'add_to_cart', 'update_cart', 'remove_from_cart', 'apply_promo', or 'checkout'
   - productId: if applicable
   - quantity: if applicable
   - promoCode: if applicable
   - output: human-readable response for the user
   - products: optional product suggestions
   - cart: optional updated cart preview
4. Make recommendations concise, actionable, and aligned with the user's context.
5. Always maintain JSON-valid output.`, ctx.String(), input)
}

// SimplePrompt builds the single-turn prompt from cached personality
// context and the authoritative cart.
func SimplePrompt(input string, p models.Personality, cartContext *models.CartSummary) string {
	ctxJSON, err := json.Marshal(cartContext)
	if err != nil {
		ctxJSON = []byte("{}")
	}

	return fmt.Sprintf(`You are a smart AI shopping assistant.
User input: %s
Cart Summary: %s
Catalog Summary: %s
Cart Context: %s
Return a JSON response with fields:
{ intent, output, suggestions, products (optional), cart (optional), action (optional) }`,
		input, p.CartSummary, p.CatalogSummary, ctxJSON)
}
