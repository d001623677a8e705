package assistant

import "context"

// Service is the remote conversation service surface the rest of the system
// depends on. Implemented by HTTPClient in production and by fakes in tests.
type Service interface {
	// CreateConversation creates an empty remote conversation and returns
	// its id. That id becomes the local thread id.
	CreateConversation(ctx context.Context) (string, error)

	// AppendMessage appends a message to the remote conversation.
	AppendMessage(ctx context.Context, conversationID, role, content string) (*Message, error)

	// ListMessages returns the conversation's messages, newest first.
	ListMessages(ctx context.Context, conversationID string) ([]*Message, error)

	// SubmitRun starts a persona run over the conversation.
	SubmitRun(ctx context.Context, conversationID, personaID, instructions string) (*Run, error)

	// GetRun fetches the current state of a run.
	GetRun(ctx context.Context, conversationID, runID string) (*Run, error)
}
