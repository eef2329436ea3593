package llm

import (
	"context"

	"github.com/cartpilot/cartpilot/internal/models"
)

// Delta is one provider frame from a streamed completion. Most frames carry
// a token; some providers attach product suggestions to a frame.
type Delta struct {
	Token    string
	Products []models.ProductRef
}

type Provider interface {
	// Complete returns the full message content of a buffered completion.
	Complete(ctx context.Context, prompt string) (string, error)
	// Stream returns incremental deltas. The delta channel closes when the
	// provider signals end of stream; a transport failure mid-stream is
	// reported on errs.
	Stream(ctx context.Context, prompt string) (deltas <-chan Delta, errs <-chan error)
	Close() error
}
