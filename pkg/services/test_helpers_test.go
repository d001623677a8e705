package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/compasshq/compass/ent"
	"github.com/compasshq/compass/pkg/assistant"
	"github.com/compasshq/compass/pkg/config"
	testdb "github.com/compasshq/compass/test/database"
)

// fakeAssistant is an in-memory assistant.Service. Conversations are plain
// message slices; runs are not used by the service layer.
type fakeAssistant struct {
	mu            sync.Mutex
	conversations map[string][]*assistant.Message
	nextConv      int
	nextMsg       int

	createErr error
	appendErr error
}

func newFakeAssistant() *fakeAssistant {
	return &fakeAssistant{
		conversations: make(map[string][]*assistant.Message),
	}
}

func (f *fakeAssistant) CreateConversation(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextConv++
	id := fmt.Sprintf("conv_%d", f.nextConv)
	f.conversations[id] = nil
	return id, nil
}

func (f *fakeAssistant) AppendMessage(_ context.Context, conversationID, role, content string) (*assistant.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	if _, ok := f.conversations[conversationID]; !ok {
		return nil, fmt.Errorf("unknown conversation %s", conversationID)
	}
	f.nextMsg++
	msg := &assistant.Message{
		ID:        fmt.Sprintf("msg_%d", f.nextMsg),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().Unix(),
	}
	f.conversations[conversationID] = append(f.conversations[conversationID], msg)
	return msg, nil
}

func (f *fakeAssistant) ListMessages(_ context.Context, conversationID string) ([]*assistant.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.conversations[conversationID]
	// Newest first, matching the remote service's native order
	out := make([]*assistant.Message, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	return out, nil
}

func (f *fakeAssistant) SubmitRun(_ context.Context, conversationID, personaID, _ string) (*assistant.Run, error) {
	return &assistant.Run{
		ID:             "run_1",
		ConversationID: conversationID,
		Status:         assistant.RunStatusQueued,
		PersonaID:      personaID,
	}, nil
}

func (f *fakeAssistant) GetRun(_ context.Context, conversationID, runID string) (*assistant.Run, error) {
	return &assistant.Run{
		ID:             runID,
		ConversationID: conversationID,
		Status:         assistant.RunStatusCompleted,
	}, nil
}

func setupTestClient(t *testing.T) *ent.Client {
	t.Helper()
	return testdb.NewTestClient(t).Client
}

func testReportConfig() *config.ReportConfig {
	return &config.ReportConfig{
		VerifyAttempts: 3,
		VerifyBackoff:  time.Millisecond,
	}
}

func createTestUser(t *testing.T, client *ent.Client, email string) *ent.User {
	t.Helper()
	u, err := client.User.Create().
		SetID("user_" + email).
		SetEmail(email).
		SetFullName("Test User").
		SetPasswordHash("x").
		Save(context.Background())
	require.NoError(t, err)
	return u
}
