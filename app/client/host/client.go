package host

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lorekeeper/app/config"

	"github.com/samber/do"
)

const requestTimeout = 30 * time.Second

// Client talks to the chat host HTTP API: session info, chat history,
// character records, in-context generation and UI notifications.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
}

func NewClient(di *do.Injector) (*Client, error) {
	return &Client{
		cfg: do.MustInvoke[*config.Config](di),
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}, nil
}

// Session returns the current character/user names and the user persona.
func (c *Client) Session(ctx context.Context) (*SessionInfo, error) {
	var session SessionInfo
	if err := c.doJSON(ctx, http.MethodGet, "/api/session", nil, &session); err != nil {
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}

	return &session, nil
}

// History returns up to limit most recent chat messages, oldest first.
func (c *Client) History(ctx context.Context, limit int) ([]Message, error) {
	path := "/api/chat/history?limit=" + strconv.Itoa(limit)

	var response historyResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch chat history: %w", err)
	}

	return response.Messages, nil
}

func (c *Client) Character(ctx context.Context, id string) (*Character, error) {
	var character Character
	if err := c.doJSON(ctx, http.MethodGet, "/api/characters/"+url.PathEscape(id), nil, &character); err != nil {
		return nil, fmt.Errorf("failed to fetch character record: %w", err)
	}

	return &character, nil
}

func (c *Client) UpdateCharacter(ctx context.Context, character *Character) error {
	path := "/api/characters/" + url.PathEscape(character.ID)
	if err := c.doJSON(ctx, http.MethodPut, path, character, nil); err != nil {
		return fmt.Errorf("failed to save character record: %w", err)
	}

	return nil
}

// Generate asks the host to run its current model on the given prompts.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	request := generateRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
	}

	var response generateResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/generate", request, &response); err != nil {
		return "", fmt.Errorf("host generation failed: %w", err)
	}

	return strings.TrimSpace(response.Text), nil
}

// Notify shows a toast in the host UI.
func (c *Client) Notify(ctx context.Context, level, message string) error {
	request := notifyRequest{
		Level:   level,
		Message: message,
	}

	if err := c.doJSON(ctx, http.MethodPost, "/api/notifications", request, nil); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.Host.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Host.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Host.APIKey)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("host returned status %d", res.StatusCode)
	}

	if out == nil {
		return nil
	}

	if err = json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
