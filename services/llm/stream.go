package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// StreamDelta represents the delta content in a streaming chunk
type StreamDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// StreamChoice represents a choice in a streaming chunk
type StreamChoice struct {
	Index        int         `json:"index"`
	Delta        StreamDelta `json:"delta"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

// StreamChunk represents one SSE chunk of a streaming completion
type StreamChunk struct {
	ID      string         `json:"id"`
	Object  string         `json:"object,omitempty"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []StreamChoice `json:"choices"`
}

// GetContent returns the delta content from the first choice
func (c *StreamChunk) GetContent() string {
	if len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].Delta.Content
}

// GetFinishReason returns the finish reason from the first choice
func (c *StreamChunk) GetFinishReason() string {
	if len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].FinishReason
}

// StreamChatCompletion streams a chat completion, invoking callback for each
// chunk as it arrives. Cancelling ctx aborts the upstream request, so a
// disconnected consumer never leaves orphaned work behind. Failures during
// stream setup are retried with backoff; once a chunk has been delivered the
// stream cannot be replayed, so later failures surface immediately.
func (c *Client) StreamChatCompletion(ctx context.Context, messages []Message, callback func(StreamChunk) error, options ...Option) error {
	req := CompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, opt := range options {
		opt(&req)
	}
	req.Stream = true

	jsonBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	delivered := false
	wrapped := func(chunk StreamChunk) error {
		delivered = true
		return callback(chunk)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := CalculateBackoff(attempt-1, c.retryConfig)
			var apiErr *APIError
			if errors.As(lastErr, &apiErr) && apiErr.RetryAfter > backoff {
				backoff = apiErr.RetryAfter
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := c.doStreamRequest(ctx, jsonBody, wrapped)
		if err == nil {
			return nil
		}
		lastErr = err

		if delivered || !isRetryableStreamError(err) || ctx.Err() != nil {
			return err
		}
	}

	return fmt.Errorf("streaming failed after %d attempts: %w", c.retryConfig.MaxRetries+1, lastErr)
}

// isRetryableStreamError reports whether a setup failure is worth another
// attempt. Connection-level errors happen before any data is delivered.
func isRetryableStreamError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return IsRetryableStatusCode(apiErr.StatusCode)
	}
	return true
}

// doStreamRequest performs a single streaming attempt
func (c *Client) doStreamRequest(ctx context.Context, jsonBody []byte, callback func(StreamChunk) error) error {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait cancelled: %w", err)
		}
	}

	url := c.baseURL + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamingClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			Message:    string(body),
			StatusCode: resp.StatusCode,
			RetryAfter: ParseRetryAfter(resp),
		}
	}

	// Read SSE stream
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		if strings.HasPrefix(line, "data: ") {
			data := strings.TrimPrefix(line, "data: ")

			if data == "[DONE]" {
				break
			}

			var chunk StreamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				// malformed chunk, keep streaming
				continue
			}

			if err := callback(chunk); err != nil {
				return fmt.Errorf("callback error: %w", err)
			}

			if chunk.GetFinishReason() == "stop" {
				break
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream reading error: %w", err)
	}

	return nil
}
