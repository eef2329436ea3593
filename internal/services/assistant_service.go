package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cartpilot/cartpilot/internal/assistant"
	"github.com/cartpilot/cartpilot/internal/events"
	"github.com/cartpilot/cartpilot/internal/models"
	"github.com/cartpilot/cartpilot/internal/providers/llm"
	"github.com/cartpilot/cartpilot/internal/utils"
)

// UnavailableOutput is the degraded reply after retry exhaustion.
const UnavailableOutput = "AI temporarily unavailable."

const (
	partialMinInterval = 50 * time.Millisecond
	retryBaseDelay     = 500 * time.Millisecond
)

// PartialFunc receives each batched increment of a streamed reply.
type PartialFunc func(models.PartialUpdate)

// AssistantService turns one user message into a parsed assistant result:
// context assembly, the gateway call under retry/backoff, incremental
// fan-out of streamed tokens, and defensive payload parsing. It never
// mutates the cart; that is the coordinator's job.
type AssistantService interface {
	// HandleUserInput runs the gateway leg of a cycle and returns the
	// parsed result plus the prompt used (for audit provenance).
	HandleUserInput(ctx context.Context, userID, input string, onPartial PartialFunc, fastMode bool) (*models.AssistantResult, string, error)
}

type assistantService struct {
	memories  MemoryService
	carts     CartService
	provider  llm.Provider
	cfg       llm.Config
	sink      events.Sink
	throttle  *events.Throttle
	retryBase time.Duration
	log       *logrus.Logger
}

func NewAssistantService(
	memories MemoryService,
	carts CartService,
	provider llm.Provider,
	cfg llm.Config,
	sink events.Sink,
	log *logrus.Logger,
) AssistantService {
	return &assistantService{
		memories:  memories,
		carts:     carts,
		provider:  provider,
		cfg:       cfg,
		sink:      sink,
		throttle:  events.NewThrottle(partialMinInterval),
		retryBase: retryBaseDelay,
		log:       log,
	}
}

func (s *assistantService) HandleUserInput(ctx context.Context, userID, input string, onPartial PartialFunc, fastMode bool) (*models.AssistantResult, string, error) {
	const op = "AssistantService.HandleUserInput"

	if userID == "" || input == "" {
		return nil, "", utils.E(utils.CodeInvalidArgument, op, "user_id and input are required", nil)
	}

	userRoom := events.UserRoom(userID)

	mem, err := s.memories.LoadOrCreate(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if err := s.memories.EnsurePersonality(ctx, mem); err != nil {
		return nil, "", err
	}
	mem.Append(models.RoleUser, input)
	if err := s.memories.Save(ctx, mem); err != nil {
		return nil, "", err
	}

	s.publish(ctx, userRoom, events.EventStatus, statusPayload("processing", "AI processing started...", ""))
	s.publish(ctx, events.AdminRoom, events.EventAdmin, adminPayload(userID, "stage", "start", "input_snippet", snippet(input, 60)))
	if onPartial != nil {
		onPartial(models.PartialUpdate{Type: "fast", Output: "Fetching recommendations..."})
	}

	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if _, err := s.carts.EnsureActivePromotion(ctx, cart); err != nil {
		s.log.WithError(err).Warn("assistant: promotion sync failed")
	}
	contextCart, err := s.carts.Summary(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	var prompt string
	if assistant.IsOrchestrationTask(input) {
		prompt = assistant.OrchestrationPrompt(mem.LastN(assistant.RecentTurns), input)
	} else {
		prompt = assistant.SimplePrompt(input, mem.Personality, contextCart)
	}

	final := &models.AssistantResult{
		Intent:      models.IntentChat,
		Suggestions: []string{},
		Products:    []models.ProductRef{},
		Cart:        contextCart,
	}

	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		var attemptErr error
		if onPartial != nil {
			attemptErr = s.consumeStream(ctx, userID, prompt, contextCart, final, onPartial, fastMode)
		} else {
			var content string
			content, attemptErr = s.provider.Complete(ctx, prompt)
			if attemptErr == nil {
				final = assistant.ParsePayload(content, contextCart)
			}
		}
		if attemptErr == nil {
			break
		}

		s.log.WithError(attemptErr).WithFields(logrus.Fields{
			"user_id": userID,
			"attempt": attempt + 1,
		}).Warn("assistant: gateway attempt failed")
		s.publish(ctx, events.AdminRoom, events.EventRetry, adminPayload(userID,
			"attempt", attempt+1, "message", attemptErr.Error()))

		if attempt == s.cfg.MaxRetries-1 {
			final.Output = UnavailableOutput
			break
		}
		// exponential backoff: base doubles each attempt
		canceled := false
		select {
		case <-time.After(s.retryBase << attempt):
		case <-ctx.Done():
			final.Output = UnavailableOutput
			canceled = true
		}
		if canceled {
			break
		}
	}

	// the model's own cart guess is discarded in favor of ground truth
	if fresh, err := s.carts.Summary(ctx, userID); err == nil {
		final.Cart = fresh
	}

	mem.Append(models.RoleAssistant, final.Output)
	if err := s.memories.Save(ctx, mem); err != nil {
		s.log.WithError(err).Warn("assistant: memory save failed")
	}

	s.publish(ctx, userRoom, events.EventStatus, statusPayload("complete", "AI response ready.", snippet(final.Output, 80)))
	s.publish(ctx, events.AdminRoom, events.EventAdmin, adminPayload(userID, "stage", "complete"))

	return final, prompt, nil
}

// consumeStream drains one streaming attempt: provider deltas are batched
// adaptively and fanned out as partial updates. A stream error fails the
// whole attempt, leaving retry policy to the caller.
func (s *assistantService) consumeStream(
	ctx context.Context,
	userID, prompt string,
	contextCart *models.CartSummary,
	final *models.AssistantResult,
	onPartial PartialFunc,
	fastMode bool,
) error {
	deltas, errs := s.provider.Stream(ctx, prompt)
	batcher := assistant.NewTokenBatcher(time.Now())

	var acc strings.Builder
	for delta := range deltas {
		if len(delta.Products) > 0 {
			final.Products = delta.Products
		}
		if delta.Token == "" {
			continue
		}
		acc.WriteString(delta.Token)
		if batch, ok := batcher.Feed(delta.Token, time.Now()); ok {
			s.emitPartial(ctx, userID, batch, final, onPartial, fastMode)
		}
	}
	if err := <-errs; err != nil {
		return err
	}
	if batch, ok := batcher.Flush(time.Now()); ok {
		s.emitPartial(ctx, userID, batch, final, onPartial, fastMode)
	}

	raw := acc.String()
	parsed := final
	if json.Valid([]byte(raw)) {
		parsed = assistant.ParsePayload(raw, contextCart)
		if len(parsed.Products) == 0 && len(final.Products) > 0 {
			parsed.Products = final.Products
		}
	} else {
		// providers that stream prose rather than a JSON document
		parsed.Output = raw
	}
	*final = *parsed
	return nil
}

func (s *assistantService) emitPartial(ctx context.Context, userID, batch string, final *models.AssistantResult, onPartial PartialFunc, fastMode bool) {
	update := models.PartialUpdate{
		Type:   "token",
		Output: batch,
		Cart:   final.Cart,
	}
	if len(final.Products) > 0 {
		update.Products = final.Products
	}

	if fastMode || s.throttle.Allow(userID, time.Now()) {
		s.publish(ctx, events.UserRoom(userID), events.EventStream, update)
	}
	s.publish(ctx, events.AdminRoom, events.EventStream, adminPayload(userID, "token_snippet", snippet(batch, 40)))
	if onPartial != nil {
		onPartial(update)
	}
}

func (s *assistantService) publish(ctx context.Context, room, event string, payload any) {
	if _, err := s.sink.Publish(ctx, room, event, payload); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"room": room, "event": event}).Warn("assistant: emit failed")
	}
}

func statusPayload(status, message, outputSnippet string) map[string]any {
	p := map[string]any{
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}
	if outputSnippet != "" {
		p["output_snippet"] = outputSnippet
	}
	return p
}

// adminPayload builds a diagnostic payload: user id, timestamp, then
// alternating key/value pairs.
func adminPayload(userID string, kv ...any) map[string]any {
	p := map[string]any{
		"user_id":   userID,
		"timestamp": time.Now().UTC(),
	}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			p[k] = kv[i+1]
		}
	}
	return p
}

func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
