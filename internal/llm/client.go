package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Completer turns a prompt into model text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Client calls an OpenAI-compatible chat completion endpoint. BaseURL is the
// API root (".../v1"); a URL already ending in /chat/completions is used as is.
type Client struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64

	HTTPClient *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends prompt as a single user message.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.chat(ctx, []chatMessage{{Role: "user", Content: prompt}})
}

func (c *Client) chat(ctx context.Context, messages []chatMessage) (string, error) {
	if c.BaseURL == "" || c.Model == "" {
		return "", fmt.Errorf("llm: base URL and model required")
	}
	payload, err := c.send(ctx, messages)
	if err != nil {
		return "", err
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("llm: empty response")
	}
	return payload.Choices[0].Message.Content, nil
}

func (c *Client) send(ctx context.Context, messages []chatMessage) (*chatResponse, error) {
	reqBody, err := json.Marshal(chatRequest{Model: c.Model, Messages: messages, Temperature: c.Temperature})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("llm: read response: %w", err)
	}
	var payload chatResponse
	decodeErr := json.Unmarshal(body, &payload)
	if payload.Error != nil {
		return nil, fmt.Errorf("llm error: %s", payload.Error.Message)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("llm: server returned %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("llm: decode response: %w", decodeErr)
	}
	return &payload, nil
}

func (c *Client) endpoint() string {
	base := strings.TrimRight(c.BaseURL, "/")
	if strings.HasSuffix(base, "/chat/completions") {
		return base
	}
	return base + "/chat/completions"
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 60 * time.Second}
}
