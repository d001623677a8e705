// Package assistant talks to the remote conversation service that owns
// conversations, messages, and runs. Local persistence only mirrors what this
// service accepts; every write goes remote first.
package assistant

// Message roles as the remote service reports them.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Run statuses. The set is open-ended: unknown values are treated as terminal
// failures and passed through verbatim, never normalized.
const (
	RunStatusQueued     = "queued"
	RunStatusInProgress = "in_progress"
	RunStatusCompleted  = "completed"
	RunStatusFailed     = "failed"
	RunStatusExpired    = "expired"
	RunStatusCancelled  = "cancelled"
)

// Message is one message in a remote conversation.
type Message struct {
	ID        string
	Role      string
	Content   string
	CreatedAt int64
}

// Run is one execution of a persona over a conversation.
type Run struct {
	ID             string
	ConversationID string
	Status         string
	PersonaID      string
}

// InFlight reports whether the run is still queued or executing. Any other
// status, known or not, is terminal.
func (r *Run) InFlight() bool {
	return r.Status == RunStatusQueued || r.Status == RunStatusInProgress
}
