package vapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.vapi.ai"

// ErrUnauthorized is returned when Vapi rejects the private API key.
var ErrUnauthorized = errors.New("vapi: unauthorized")

type PhoneNumber struct {
	ID          string `json:"id"`
	Number      string `json:"number,omitempty"`
	Name        string `json:"name,omitempty"`
	Provider    string `json:"provider,omitempty"`
	Status      string `json:"status,omitempty"`
	AssistantID string `json:"assistantId,omitempty"`
}

type Assistant struct {
	ID           string          `json:"id"`
	Name         string          `json:"name,omitempty"`
	FirstMessage string          `json:"firstMessage,omitempty"`
	Model        json.RawMessage `json:"model,omitempty"`
	CreatedAt    string          `json:"createdAt,omitempty"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *Client) ListPhoneNumbers(ctx context.Context, privateAPIKey string) ([]PhoneNumber, error) {
	var out []PhoneNumber
	if err := c.get(ctx, "/phone-number", privateAPIKey, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListAssistants(ctx context.Context, privateAPIKey string) ([]Assistant, error) {
	var out []Assistant
	if err := c.get(ctx, "/assistant", privateAPIKey, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("vapi %s (status %d): %s", path, resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
