package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cartpilot/cartpilot/internal/cache"
	"github.com/cartpilot/cartpilot/internal/events"
	"github.com/cartpilot/cartpilot/internal/models"
	"github.com/cartpilot/cartpilot/internal/providers/llm"
)

func newAssistantFixture(provider llm.Provider, maxRetries int) (AssistantService, *fakeMemoryRepo, *fakeSink) {
	memories := newFakeMemoryRepo()
	products := newFakeProductRepo(
		&models.Product{ProductID: "p-watch", Name: "Watch", Price: 29.99, Stock: 10},
	)
	sink := &fakeSink{}
	catalog := NewCatalogService(products, cache.NewMemoryCache())
	memorySvc := NewMemoryService(memories, catalog)
	cartSvc := NewCartService(newFakeCartRepo(), products, newFakePromotionRepo(), &fakeOrderRepo{}, sink, testLog())

	svc := &assistantService{
		memories:  memorySvc,
		carts:     cartSvc,
		provider:  provider,
		cfg:       llm.Config{Model: "gpt-4o-mini", MaxRetries: maxRetries},
		sink:      sink,
		throttle:  events.NewThrottle(partialMinInterval),
		retryBase: time.Millisecond,
		log:       testLog(),
	}
	return svc, memories, sink
}

func TestAssistantSimpleChat(t *testing.T) {
	provider := &scriptedProvider{response: `{"intent":"chat","output":"Hello there!"}`}
	svc, memories, sink := newAssistantFixture(provider, 3)

	res, prompt, err := svc.HandleUserInput(context.Background(), "u1", "hi", nil, false)
	require.NoError(t, err)
	require.Equal(t, "Hello there!", res.Output)
	require.Equal(t, models.IntentChat, res.Intent)
	require.NotNil(t, res.Cart)
	require.Contains(t, prompt, "User input: hi")

	// both turns recorded
	mem := memories.byID["u1"]
	require.Len(t, mem.Messages, 2)
	require.Equal(t, models.RoleUser, mem.Messages[0].Role)
	require.Equal(t, models.RoleAssistant, mem.Messages[1].Role)
	require.Equal(t, "Hello there!", mem.Messages[1].Content)

	// processing and complete status on the user's room
	statuses := sink.byEvent(events.EventStatus)
	require.Len(t, statuses, 2)
	require.Equal(t, events.UserRoom("u1"), statuses[0].Room)
}

func TestAssistantOrchestrationPromptSelection(t *testing.T) {
	provider := &scriptedProvider{response: `{"intent":"cart","action":"checkout","output":"Checking out."}`}
	svc, _, _ := newAssistantFixture(provider, 3)

	_, prompt, err := svc.HandleUserInput(context.Background(), "u1", "checkout my cart", nil, false)
	require.NoError(t, err)
	require.Contains(t, prompt, "autonomous orchestration")
	require.Contains(t, prompt, `Current user request: "checkout my cart"`)
}

func TestAssistantRetrySucceedsAfterFailures(t *testing.T) {
	provider := &scriptedProvider{failures: 2, response: `{"intent":"chat","output":"Recovered."}`}
	svc, _, sink := newAssistantFixture(provider, 3)

	res, _, err := svc.HandleUserInput(context.Background(), "u1", "hi", nil, false)
	require.NoError(t, err)
	require.Equal(t, "Recovered.", res.Output)
	require.Equal(t, 3, provider.callCount())
	require.Len(t, sink.byEvent(events.EventRetry), 2)
}

func TestAssistantRetryExhaustionDegrades(t *testing.T) {
	provider := &scriptedProvider{failures: 10, response: `unused`}
	svc, memories, _ := newAssistantFixture(provider, 3)

	res, _, err := svc.HandleUserInput(context.Background(), "u1", "hi", nil, false)
	require.NoError(t, err)
	require.Equal(t, UnavailableOutput, res.Output)
	// exactly maxRetries attempts, no more
	require.Equal(t, 3, provider.callCount())

	// degraded reply still lands in memory
	mem := memories.byID["u1"]
	require.Equal(t, UnavailableOutput, mem.Messages[len(mem.Messages)-1].Content)
}

func TestAssistantStreamingReconstruction(t *testing.T) {
	payload := `{"intent":"chat","output":"Here are some great picks for you."}`
	var tokens []llm.Delta
	for i := 0; i < len(payload); i += 4 {
		end := i + 4
		if end > len(payload) {
			end = len(payload)
		}
		tokens = append(tokens, llm.Delta{Token: payload[i:end]})
	}
	provider := &scriptedProvider{tokens: tokens}
	svc, _, _ := newAssistantFixture(provider, 3)

	var streamed strings.Builder
	onPartial := func(pu models.PartialUpdate) {
		if pu.Type == "token" {
			streamed.WriteString(pu.Output)
		}
	}

	res, _, err := svc.HandleUserInput(context.Background(), "u1", "hi", onPartial, true)
	require.NoError(t, err)
	require.Equal(t, "Here are some great picks for you.", res.Output)
	// every token reaches the caller exactly once, in order
	require.Equal(t, payload, streamed.String())
}

func TestAssistantStreamingProseFallback(t *testing.T) {
	provider := &scriptedProvider{tokens: []llm.Delta{
		{Token: "Plain "}, {Token: "prose "}, {Token: "reply."},
	}}
	svc, _, _ := newAssistantFixture(provider, 3)

	res, _, err := svc.HandleUserInput(context.Background(), "u1", "hi", func(models.PartialUpdate) {}, true)
	require.NoError(t, err)
	require.Equal(t, "Plain prose reply.", res.Output)
	require.Equal(t, models.IntentChat, res.Intent)
}

func TestAssistantStreamingCarriesProductRefs(t *testing.T) {
	provider := &scriptedProvider{tokens: []llm.Delta{
		{Token: `{"intent":"chat","output":"ok"}`, Products: []models.ProductRef{{ProductID: "p-strap", Name: "Strap"}}},
	}}
	svc, _, _ := newAssistantFixture(provider, 3)

	res, _, err := svc.HandleUserInput(context.Background(), "u1", "hi", func(models.PartialUpdate) {}, true)
	require.NoError(t, err)
	require.Len(t, res.Products, 1)
	require.Equal(t, "p-strap", res.Products[0].ProductID)
}

func TestAssistantRejectsEmptyInput(t *testing.T) {
	svc, _, _ := newAssistantFixture(&scriptedProvider{}, 3)

	_, _, err := svc.HandleUserInput(context.Background(), "", "hi", nil, false)
	require.Error(t, err)
	_, _, err = svc.HandleUserInput(context.Background(), "u1", "", nil, false)
	require.Error(t, err)
}
