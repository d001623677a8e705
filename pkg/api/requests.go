package api

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest exchanges credentials for a token.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// StageTurnRequest runs one workshop turn.
type StageTurnRequest struct {
	Stage     string `json:"stage" binding:"required"`
	Content   string `json:"content" binding:"required"`
	NewThread bool   `json:"new_thread"`
}

// CreateThreadRequest gets or creates the active thread for a stage.
type CreateThreadRequest struct {
	Stage    string `json:"stage" binding:"required"`
	ForceNew bool   `json:"force_new"`
}

// SaveReportRequest updates a report's content and/or status. Absent
// fields are left untouched.
type SaveReportRequest struct {
	Content *string `json:"content"`
	Status  *string `json:"status"`
}

// SaveAnswersRequest is a question-key to answer-text batch for one stage.
type SaveAnswersRequest map[string]string

// UpdateAnswerRequest replaces one question's answer.
type UpdateAnswerRequest struct {
	Response string `json:"response" binding:"required"`
}
