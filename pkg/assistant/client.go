package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/compasshq/compass/pkg/config"
	"github.com/compasshq/compass/pkg/version"
)

// HTTPClient implements Service against an OpenAI-Assistants-style REST API.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient creates a client from the assistant section of the config.
func NewHTTPClient(cfg *config.AssistantConfig) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// APIError is a non-2xx response from the remote service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("assistant API returned %d: %s", e.StatusCode, e.Body)
}

// Wire types. Message content arrives as a list of typed parts; only text
// parts carry conversation content.
type wireMessage struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"created_at"`
	Content   []struct {
		Type string `json:"type"`
		Text struct {
			Value string `json:"value"`
		} `json:"text"`
	} `json:"content"`
}

func (m *wireMessage) toMessage() *Message {
	var parts []string
	for _, c := range m.Content {
		if c.Type == "text" {
			parts = append(parts, c.Text.Value)
		}
	}
	return &Message{
		ID:        m.ID,
		Role:      m.Role,
		Content:   strings.Join(parts, "\n"),
		CreatedAt: m.CreatedAt,
	}
}

type wireRun struct {
	ID          string `json:"id"`
	ThreadID    string `json:"thread_id"`
	Status      string `json:"status"`
	AssistantID string `json:"assistant_id"`
}

func (r *wireRun) toRun() *Run {
	return &Run{
		ID:             r.ID,
		ConversationID: r.ThreadID,
		Status:         r.Status,
		PersonaID:      r.AssistantID,
	}
}

// CreateConversation creates an empty remote conversation.
func (c *HTTPClient) CreateConversation(ctx context.Context) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/threads", map[string]any{}, &resp); err != nil {
		return "", fmt.Errorf("failed to create conversation: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("conversation created without an id")
	}
	return resp.ID, nil
}

// AppendMessage appends a message to the remote conversation.
func (c *HTTPClient) AppendMessage(ctx context.Context, conversationID, role, content string) (*Message, error) {
	body := map[string]string{
		"role":    role,
		"content": content,
	}
	var resp wireMessage
	path := fmt.Sprintf("/threads/%s/messages", conversationID)
	if err := c.doJSON(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	msg := resp.toMessage()
	// The service echoes typed content parts; the caller's text is
	// authoritative if the echo is empty.
	if msg.Content == "" {
		msg.Content = content
	}
	return msg, nil
}

// ListMessages returns the conversation's messages, newest first (the
// service's native order).
func (c *HTTPClient) ListMessages(ctx context.Context, conversationID string) ([]*Message, error) {
	var resp struct {
		Data []wireMessage `json:"data"`
	}
	path := fmt.Sprintf("/threads/%s/messages", conversationID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	messages := make([]*Message, 0, len(resp.Data))
	for i := range resp.Data {
		messages = append(messages, resp.Data[i].toMessage())
	}
	return messages, nil
}

// SubmitRun starts a persona run over the conversation.
func (c *HTTPClient) SubmitRun(ctx context.Context, conversationID, personaID, instructions string) (*Run, error) {
	body := map[string]string{
		"assistant_id": personaID,
	}
	if instructions != "" {
		body["instructions"] = instructions
	}
	var resp wireRun
	path := fmt.Sprintf("/threads/%s/runs", conversationID)
	if err := c.doJSON(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, fmt.Errorf("failed to submit run: %w", err)
	}
	run := resp.toRun()
	if run.ConversationID == "" {
		run.ConversationID = conversationID
	}
	return run, nil
}

// GetRun fetches the current state of a run.
func (c *HTTPClient) GetRun(ctx context.Context, conversationID, runID string) (*Run, error) {
	var resp wireRun
	path := fmt.Sprintf("/threads/%s/runs/%s", conversationID, runID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	run := resp.toRun()
	if run.ConversationID == "" {
		run.ConversationID = conversationID
	}
	return run, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, requestBody, out any) error {
	var reader io.Reader
	if requestBody != nil {
		jsonBody, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")
	req.Header.Set("User-Agent", version.Full())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	slog.Debug("Assistant API call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
