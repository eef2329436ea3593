package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cartpilot/cartpilot/internal/models"
)

// OpenAIClient talks to an OpenAI-compatible chat-completions gateway.
type OpenAIClient struct {
	cfg        Config
	httpClient *http.Client
	log        *logrus.Logger
}

func NewOpenAIClient(cfg Config, log *logrus.Logger) *OpenAIClient {
	return &OpenAIClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

func (c *OpenAIClient) Close() error { return nil }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatChoice struct {
	Message *chatMessage `json:"message,omitempty"`
	Delta   *chatDelta   `json:"delta,omitempty"`
}

type chatDelta struct {
	Content  string              `json:"content"`
	Products []models.ProductRef `json:"products,omitempty"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

func (c *OpenAIClient) newRequest(ctx context.Context, prompt string, stream bool) (*http.Request, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.cfg.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   stream,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.CompletionsURL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	return req, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	req, err := c.newRequest(ctx, prompt, false)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway error [%d]: %s", resp.StatusCode, string(respBody))
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message == nil {
		return "", fmt.Errorf("gateway returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) Stream(ctx context.Context, prompt string) (<-chan Delta, <-chan error) {
	deltas := make(chan Delta, 32)
	errs := make(chan error, 1)

	go func() {
		defer close(deltas)
		defer close(errs)

		req, err := c.newRequest(ctx, prompt, true)
		if err != nil {
			errs <- err
			return
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			errs <- fmt.Errorf("send request: %w", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			errs <- fmt.Errorf("gateway error [%d]: %s", resp.StatusCode, string(respBody))
			return
		}

		reader := bufio.NewReader(resp.Body)
		for {
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			default:
			}

			line, err := reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					return
				}
				errs <- fmt.Errorf("read stream: %w", err)
				return
			}

			line = strings.TrimSpace(line)
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}

			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "" {
				continue
			}
			if data == "[DONE]" {
				return
			}

			var chunk chatResponse
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				// malformed frames are never fatal
				c.log.WithError(err).Warn("llm: malformed stream frame, skipping")
				continue
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta == nil {
				continue
			}

			d := chunk.Choices[0].Delta
			if d.Content == "" && len(d.Products) == 0 {
				continue
			}
			deltas <- Delta{Token: d.Content, Products: d.Products}
		}
	}()

	return deltas, errs
}
