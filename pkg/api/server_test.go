package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compasshq/compass/pkg/assistant"
	"github.com/compasshq/compass/pkg/config"
	"github.com/compasshq/compass/pkg/engine"
	"github.com/compasshq/compass/pkg/services"
	testdb "github.com/compasshq/compass/test/database"
)

// scriptedAssistant is an in-memory assistant.Service whose runs complete
// immediately and deliver scripted replies in order.
type scriptedAssistant struct {
	mu            sync.Mutex
	conversations map[string][]*assistant.Message
	replies       []string
	nextConv      int
	nextMsg       int
	nextRun       int
	runReplies    map[string]string
	runConvs      map[string]string
}

func newScriptedAssistant(replies ...string) *scriptedAssistant {
	return &scriptedAssistant{
		conversations: make(map[string][]*assistant.Message),
		replies:       replies,
		runReplies:    make(map[string]string),
		runConvs:      make(map[string]string),
	}
}

func (f *scriptedAssistant) CreateConversation(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextConv++
	id := fmt.Sprintf("conv_%d", f.nextConv)
	f.conversations[id] = nil
	return id, nil
}

func (f *scriptedAssistant) AppendMessage(_ context.Context, conversationID, role, content string) (*assistant.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appendLocked(conversationID, role, content), nil
}

func (f *scriptedAssistant) appendLocked(conversationID, role, content string) *assistant.Message {
	f.nextMsg++
	msg := &assistant.Message{
		ID:        fmt.Sprintf("msg_%d", f.nextMsg),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().Unix(),
	}
	f.conversations[conversationID] = append(f.conversations[conversationID], msg)
	return msg
}

func (f *scriptedAssistant) ListMessages(_ context.Context, conversationID string) ([]*assistant.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.conversations[conversationID]
	out := make([]*assistant.Message, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	return out, nil
}

func (f *scriptedAssistant) SubmitRun(_ context.Context, conversationID, personaID, _ string) (*assistant.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextRun++
	id := fmt.Sprintf("run_%d", f.nextRun)

	reply := ""
	if len(f.replies) > 0 {
		reply = f.replies[0]
		f.replies = f.replies[1:]
	}
	f.runReplies[id] = reply
	f.runConvs[id] = conversationID

	return &assistant.Run{ID: id, ConversationID: conversationID, Status: assistant.RunStatusQueued, PersonaID: personaID}, nil
}

func (f *scriptedAssistant) GetRun(_ context.Context, conversationID, runID string) (*assistant.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if reply, ok := f.runReplies[runID]; ok && reply != "" {
		f.appendLocked(f.runConvs[runID], assistant.RoleAssistant, reply)
		delete(f.runReplies, runID)
	}
	return &assistant.Run{ID: runID, ConversationID: conversationID, Status: assistant.RunStatusCompleted}, nil
}

func setupServer(t *testing.T, fake *scriptedAssistant) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testdb.NewTestClient(t)
	client := db.Client

	cfg := &config.Config{
		Stages: config.NewStageRegistry(map[string]*config.StageConfig{
			"swot": {
				PersonaID:    "asst_swot",
				Instructions: "Run the SWOT analysis.",
				ReportKind:   "swot",
				Questions:    []string{"skills_talents", "improvement_areas"},
			},
			config.DefaultStageName: {
				PersonaID: "asst_default",
			},
		}),
		Assistant: &config.AssistantConfig{
			PollInterval:    time.Millisecond,
			RunTimeout:      time.Second,
			MaxPollAttempts: 20,
		},
		Report: &config.ReportConfig{
			VerifyAttempts: 3,
			VerifyBackoff:  time.Millisecond,
		},
		Auth: &config.AuthConfig{
			JWTSecret: "api-test-secret",
			TokenTTL:  time.Hour,
		},
	}

	auth := services.NewAuthService(client, cfg.Auth)
	threads := services.NewThreadService(client, fake)
	turns := services.NewTurnService(client, fake)
	reports := services.NewReportService(client, cfg.Report)
	answers := services.NewAnswerService(client, cfg.Stages)
	eng := engine.New(cfg, threads, turns, reports, engine.NewRunExecutor(fake, cfg.Assistant))

	return NewServer(cfg, db, auth, threads, turns, reports, answers, eng).Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, router *gin.Engine, email string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Email:    email,
		FullName: "API Test",
		Password: "super-secret",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{
		Email:    email,
		Password: "super-secret",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealthEndpoint(t *testing.T) {
	router := setupServer(t, newScriptedAssistant())

	w := doJSON(t, router, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)
}

func TestAuthFlow(t *testing.T) {
	router := setupServer(t, newScriptedAssistant())

	token := registerAndLogin(t, router, "flow@example.com")
	assert.NotEmpty(t, token)

	t.Run("duplicate email", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
			Email:    "flow@example.com",
			FullName: "Dup",
			Password: "super-secret",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("bad password", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{
			Email:    "flow@example.com",
			Password: "wrong-password",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("short password rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
			Email:    "short@example.com",
			FullName: "Short",
			Password: "tiny",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing body fields", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "x@example.com"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthRequired(t *testing.T) {
	router := setupServer(t, newScriptedAssistant())

	t.Run("no token", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/chat/threads", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/chat/threads", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestWorkshopTurn(t *testing.T) {
	fake := newScriptedAssistant("Noted! [UPDATE_REPORT:true][NEW_CONTENT:Strengths: focus.][END_UPDATE] What else?")
	router := setupServer(t, fake)
	token := registerAndLogin(t, router, "workshop@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/v1/workshop/turns", token, StageTurnRequest{
		Stage:   "swot",
		Content: "My strength is focus.",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp StageTurnResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "Noted!  What else?", resp.Reply)
	assert.True(t, resp.ReportUpdated)
	require.NotNil(t, resp.Report)
	assert.Equal(t, "Strengths: focus.", resp.Report.Content)
	assert.Equal(t, "finalized", resp.Report.Status)
	require.Len(t, resp.History, 2)
	assert.Equal(t, "user", resp.History[0].Role)
	assert.Equal(t, "assistant", resp.History[1].Role)
	assert.NotContains(t, resp.History[1].Content, "UPDATE_REPORT")
}

func TestWorkshopTurnUnresolvableStage(t *testing.T) {
	router := setupServer(t, newScriptedAssistant("hello"))
	token := registerAndLogin(t, router, "nostage@example.com")

	// No persona is configured for this stage and the default persona
	// covers it, so the turn still succeeds via the fallback.
	w := doJSON(t, router, http.MethodPost, "/api/v1/workshop/turns", token, StageTurnRequest{
		Stage:   "unknown-stage",
		Content: "Hi",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestThreadEndpoints(t *testing.T) {
	router := setupServer(t, newScriptedAssistant())
	token := registerAndLogin(t, router, "threads@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/v1/chat/threads", token, CreateThreadRequest{Stage: "swot"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created ThreadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "swot", created.Stage)
	assert.Equal(t, "active", created.Status)

	t.Run("reuses active thread", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/chat/threads", token, CreateThreadRequest{Stage: "swot"})
		require.Equal(t, http.StatusOK, w.Code)

		var reused ThreadResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reused))
		assert.Equal(t, created.ID, reused.ID)
	})

	t.Run("force new archives prior", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/chat/threads", token, CreateThreadRequest{Stage: "swot", ForceNew: true})
		require.Equal(t, http.StatusCreated, w.Code)

		var fresh ThreadResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fresh))
		assert.NotEqual(t, created.ID, fresh.ID)
	})

	t.Run("list threads", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/chat/threads", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Threads []ThreadResponse `json:"threads"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Threads, 2)
	})

	t.Run("messages require ownership", func(t *testing.T) {
		other := registerAndLogin(t, router, "intruder@example.com")
		w := doJSON(t, router, http.MethodGet, "/api/v1/chat/threads/"+created.ID+"/messages", other, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("messages for own thread", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/chat/threads/"+created.ID+"/messages", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Messages []TurnResponse `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Empty(t, resp.Messages)
	})
}

func TestReportEndpoints(t *testing.T) {
	router := setupServer(t, newScriptedAssistant())
	token := registerAndLogin(t, router, "reports@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/v1/chat/threads", token, CreateThreadRequest{Stage: "swot"})
	require.Equal(t, http.StatusCreated, w.Code)
	var thread ThreadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &thread))

	base := "/api/v1/chat/threads/" + thread.ID + "/reports/swot"

	t.Run("missing report is 404", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, base, token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	content := "Strengths: discipline."
	t.Run("save creates generated report", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPatch, base, token, SaveReportRequest{Content: &content})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp ReportResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, content, resp.Content)
		assert.Equal(t, "generated", resp.Status)
	})

	t.Run("finalize", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPatch, base+"/finalize", token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp ReportResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "finalized", resp.Status)
		assert.Equal(t, content, resp.Content)
	})

	t.Run("get after save", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, base, token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp ReportResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, content, resp.Content)
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		bogus := "bogus"
		w := doJSON(t, router, http.MethodPatch, base, token, SaveReportRequest{Status: &bogus})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("foreign thread 404", func(t *testing.T) {
		other := registerAndLogin(t, router, "other-report@example.com")
		w := doJSON(t, router, http.MethodPatch, base, other, SaveReportRequest{Content: &content})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAnswerEndpoints(t *testing.T) {
	router := setupServer(t, newScriptedAssistant())
	token := registerAndLogin(t, router, "answers@example.com")

	base := "/api/v1/workshop/stages/swot/answers"

	w := doJSON(t, router, http.MethodPost, base, token, SaveAnswersRequest{
		"skills_talents": "Systems thinking",
		"not_a_question": "dropped",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Answers []AnswerResponse `json:"answers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Len(t, created.Answers, 1)
	assert.Equal(t, "skills_talents", created.Answers[0].Question)

	t.Run("update single answer", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, base+"/improvement_areas", token, UpdateAnswerRequest{Response: "Delegation"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp AnswerResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Delegation", resp.Response)
	})

	t.Run("unknown question 400", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, base+"/not_a_question", token, UpdateAnswerRequest{Response: "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list is scoped to the caller", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, base, token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Answers []AnswerResponse `json:"answers"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Answers, 2)

		other := registerAndLogin(t, router, "other-answers@example.com")
		w = doJSON(t, router, http.MethodGet, base, other, nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Empty(t, resp.Answers)
	})

	t.Run("delete", func(t *testing.T) {
		w := doJSON(t, router, http.MethodDelete, base, token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"deleted":2`)

		w = doJSON(t, router, http.MethodGet, base, token, nil)
		var resp struct {
			Answers []AnswerResponse `json:"answers"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Empty(t, resp.Answers)
	})

	t.Run("requires auth", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, base, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
