package assistant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cartpilot/cartpilot/internal/models"
)

func TestIsOrchestrationTask(t *testing.T) {
	require.True(t, IsOrchestrationTask("please CHECKOUT my cart"))
	require.True(t, IsOrchestrationTask("apply the summer promo"))
	require.True(t, IsOrchestrationTask("build me a bundle"))
	require.False(t, IsOrchestrationTask("what laptops do you have?"))
	require.False(t, IsOrchestrationTask(""))
}

func TestOrchestrationPromptEmbedsContext(t *testing.T) {
	recent := []models.MemoryMessage{
		{Role: models.RoleUser, Content: "show me watches"},
		{Role: models.RoleAssistant, Content: "Here are three watches."},
	}

	prompt := OrchestrationPrompt(recent, "checkout")

	require.Contains(t, prompt, "USER: show me watches")
	require.Contains(t, prompt, "ASSISTANT: Here are three watches.")
	require.Contains(t, prompt, `Current user request: "checkout"`)
	require.Contains(t, prompt, "Always maintain JSON-valid output.")
}

func TestSimplePromptEmbedsPersonalityAndCart(t *testing.T) {
	p := models.Personality{
		Name:           "Guest",
		CartSummary:    "2 items, $59.98",
		CatalogSummary: "Watch ($29.99, accessories)",
	}
	cart := &models.CartSummary{UserID: "u1", FinalTotal: 59.98}

	prompt := SimplePrompt("any deals today?", p, cart)

	require.Contains(t, prompt, "User input: any deals today?")
	require.Contains(t, prompt, "Cart Summary: 2 items, $59.98")
	require.Contains(t, prompt, "Catalog Summary: Watch ($29.99, accessories)")
	require.True(t, strings.Contains(prompt, `"final_total":59.98`))
}
