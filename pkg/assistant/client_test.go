package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compasshq/compass/pkg/config"
)

func newTestClient(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewHTTPClient(&config.AssistantConfig{
		BaseURL:        server.URL,
		APIKey:         "test-key",
		RequestTimeout: 5 * time.Second,
	})
}

func TestCreateConversation(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/threads", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "assistants=v2", r.Header.Get("OpenAI-Beta"))

		_ = json.NewEncoder(w).Encode(map[string]string{"id": "thread_abc"})
	}))

	id, err := client.CreateConversation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "thread_abc", id)
}

func TestCreateConversationMissingID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))

	_, err := client.CreateConversation(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without an id")
}

func TestAppendMessage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/threads/thread_abc/messages", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user", body["role"])
		assert.Equal(t, "hello", body["content"])

		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"role": "user",
			"created_at": 1700000000,
			"content": [{"type": "text", "text": {"value": "hello"}}]
		}`))
	}))

	msg, err := client.AppendMessage(context.Background(), "thread_abc", RoleUser, "hello")
	require.NoError(t, err)
	assert.Equal(t, "msg_1", msg.ID)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, int64(1700000000), msg.CreatedAt)
}

func TestListMessagesNewestFirst(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"data": [
			{"id": "msg_2", "role": "assistant", "created_at": 2,
			 "content": [{"type": "text", "text": {"value": "part one"}},
			             {"type": "text", "text": {"value": "part two"}}]},
			{"id": "msg_1", "role": "user", "created_at": 1,
			 "content": [{"type": "text", "text": {"value": "question"}}]}
		]}`))
	}))

	messages, err := client.ListMessages(context.Background(), "thread_abc")
	require.NoError(t, err)
	require.Len(t, messages, 2)

	// Newest first, text parts joined
	assert.Equal(t, "msg_2", messages[0].ID)
	assert.Equal(t, RoleAssistant, messages[0].Role)
	assert.Equal(t, "part one\npart two", messages[0].Content)
	assert.Equal(t, "msg_1", messages[1].ID)
}

func TestSubmitAndGetRun(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/threads/thread_abc/runs":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "asst_1", body["assistant_id"])
			assert.Equal(t, "be concise", body["instructions"])

			_, _ = w.Write([]byte(`{"id": "run_1", "thread_id": "thread_abc", "status": "queued", "assistant_id": "asst_1"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/threads/thread_abc/runs/run_1":
			_, _ = w.Write([]byte(`{"id": "run_1", "thread_id": "thread_abc", "status": "completed", "assistant_id": "asst_1"}`))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	ctx := context.Background()

	run, err := client.SubmitRun(ctx, "thread_abc", "asst_1", "be concise")
	require.NoError(t, err)
	assert.Equal(t, "run_1", run.ID)
	assert.Equal(t, RunStatusQueued, run.Status)
	assert.True(t, run.InFlight())

	run, err = client.GetRun(ctx, "thread_abc", "run_1")
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, run.Status)
	assert.False(t, run.InFlight())
}

func TestAPIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key"}}`))
	}))

	_, err := client.CreateConversation(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "invalid api key")
}

func TestRunInFlight(t *testing.T) {
	assert.True(t, (&Run{Status: RunStatusQueued}).InFlight())
	assert.True(t, (&Run{Status: RunStatusInProgress}).InFlight())
	assert.False(t, (&Run{Status: RunStatusCompleted}).InFlight())
	assert.False(t, (&Run{Status: RunStatusFailed}).InFlight())
	assert.False(t, (&Run{Status: "requires_action"}).InFlight(), "unknown statuses are terminal")
}
