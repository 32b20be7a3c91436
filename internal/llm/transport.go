package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrMissingContent is returned when the answer has no choices[0].message.content.
var ErrMissingContent = errors.New("llm response has no message content")

// HTTPStatusError reports a non-2xx answer from the LLM API.
type HTTPStatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "llm status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("llm status: %s", e.Status)
	}
	return fmt.Sprintf("llm status: %s: %s", e.Status, strings.TrimSpace(e.Body))
}

func (c *Client) chatCompletion(ctx context.Context, payload ChatCompletionRequest) (string, error) {
	var response ChatCompletionResponse
	if err := c.postJSON(ctx, payload, &response); err != nil {
		return "", err
	}
	content, ok := response.FirstContent()
	if !ok {
		return "", ErrMissingContent
	}
	return content, nil
}

func (c *Client) postJSON(ctx context.Context, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal chat completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create chat completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chat completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(msg)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode chat completion response: %w", err)
	}
	return nil
}
