package widget

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

	"support-chat-backend/internal/apperror"
	"support-chat-backend/internal/dto"
)

// Client talks to the public server the same way the embedded widget does.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		userAgent:  "widget-probe/1.0",
	}
}

func (c *Client) ValidateOrganization(ctx context.Context, organizationID string) (dto.ValidateOrganizationResponse, error) {
	var out dto.ValidateOrganizationResponse
	err := c.do(ctx, http.MethodGet, "/organizations/"+url.PathEscape(organizationID)+"/validate", nil, &out)
	return out, err
}

func (c *Client) ValidateContactSession(ctx context.Context, contactSessionID string) (dto.ValidateContactSessionResponse, error) {
	var out dto.ValidateContactSessionResponse
	err := c.do(ctx, http.MethodPost, "/contact-sessions/validate", dto.ContactSessionRequest{ContactSessionID: contactSessionID}, &out)
	return out, err
}

func (c *Client) GetWidgetSettings(ctx context.Context, organizationID string) (*dto.WidgetSettingsResponse, error) {
	var out *dto.WidgetSettingsResponse
	if err := c.do(ctx, http.MethodGet, "/organizations/"+url.PathEscape(organizationID)+"/widget-settings", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetVoiceSecrets(ctx context.Context, organizationID string) (*VoiceSecrets, error) {
	var out *VoiceSecrets
	if err := c.do(ctx, http.MethodGet, "/organizations/"+url.PathEscape(organizationID)+"/voice-secrets", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateContactSession(ctx context.Context, req dto.CreateContactSessionRequest) (dto.ContactSessionResponse, error) {
	var out dto.ContactSessionResponse
	err := c.do(ctx, http.MethodPost, "/contact-sessions", req, &out)
	return out, err
}

func (c *Client) CreateConversation(ctx context.Context, contactSessionID, organizationID string) (dto.CreateConversationResponse, error) {
	var out dto.CreateConversationResponse
	err := c.do(ctx, http.MethodPost, "/conversations", dto.CreateConversationRequest{
		ContactSessionID: contactSessionID,
		OrganizationID:   organizationID,
	}, &out)
	return out, err
}

func (c *Client) PostMessage(ctx context.Context, threadID, contactSessionID, prompt string) (dto.PostMessageResponse, error) {
	var out dto.PostMessageResponse
	err := c.do(ctx, http.MethodPost, "/threads/"+url.PathEscape(threadID)+"/messages", dto.PostVisitorMessageRequest{
		ContactSessionID: contactSessionID,
		Prompt:           prompt,
	}, &out)
	return out, err
}

func (c *Client) ListMessages(ctx context.Context, threadID, contactSessionID string, numItems int, cursor string) (dto.PageResponse[dto.MessageResponse], error) {
	q := url.Values{}
	q.Set("contactSessionId", contactSessionID)
	if numItems > 0 {
		q.Set("numItems", strconv.Itoa(numItems))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	var out dto.PageResponse[dto.MessageResponse]
	err := c.do(ctx, http.MethodGet, "/threads/"+url.PathEscape(threadID)+"/messages?"+q.Encode(), nil, &out)
	return out, err
}

type errorBody struct {
	Code    apperror.Code `json:"code"`
	Message string        `json:"message"`
}

// do sends body as JSON and decodes a 2xx response into out. Error responses come back as *apperror.Error.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr errorBody
		if json.Unmarshal(data, &apiErr) != nil || apiErr.Code == "" {
			apiErr = errorBody{Code: apperror.CodeInternal, Message: http.StatusText(resp.StatusCode)}
		}
		return apperror.New(apiErr.Code, apiErr.Message, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
