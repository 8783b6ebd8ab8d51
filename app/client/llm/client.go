package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/samber/do"
	"github.com/sashabaranov/go-openai"
)

const (
	requestTimeout   = 30 * time.Second
	maxSummaryTokens = 500
	temperature      = 0.7
)

// ErrUnexpectedResponse means the endpoint answered 2xx but the payload
// matched none of the known completion shapes.
var ErrUnexpectedResponse = errors.New("unexpected completion response shape")

// CompletionRequest describes one chat-completion call to an external
// OpenAI-compatible endpoint.
type CompletionRequest struct {
	Endpoint     string
	APIKey       string
	Model        string
	SystemPrompt string
	UserPrompt   string
}

// Client issues chat-completion requests to arbitrary OpenAI-compatible
// endpoints. Requests use the standard wire format; responses are parsed
// leniently because self-hosted backends deviate from it.
type Client struct {
	httpClient *http.Client
}

func NewClient(_ *do.Injector) (*Client, error) {
	return &Client{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}, nil
}

func (c *Client) Complete(ctx context.Context, request CompletionRequest) (string, error) {
	payload := openai.ChatCompletionRequest{
		Model: request.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: request.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: request.UserPrompt,
			},
		},
		MaxTokens:   maxSummaryTokens,
		Temperature: temperature,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, request.Endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if request.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+request.APIKey)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("completion endpoint returned status %d", res.StatusCode)
	}

	var response completionResponse
	if err = json.NewDecoder(res.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	text, ok := response.extract()
	if !ok {
		return "", ErrUnexpectedResponse
	}

	return text, nil
}

// completionResponse covers the response shapes seen in the wild:
// choices[0].message.content, choices[0].text, output, response, text.
type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
	Output   string `json:"output"`
	Response string `json:"response"`
	Text     string `json:"text"`
}

func (r *completionResponse) extract() (string, bool) {
	if len(r.Choices) > 0 {
		if content := strings.TrimSpace(r.Choices[0].Message.Content); content != "" {
			return content, true
		}
		if text := strings.TrimSpace(r.Choices[0].Text); text != "" {
			return text, true
		}
	}

	for _, candidate := range []string{r.Output, r.Response, r.Text} {
		if text := strings.TrimSpace(candidate); text != "" {
			return text, true
		}
	}

	return "", false
}
