package api

import (
	"time"

	"github.com/compasshq/compass/ent"
	"github.com/compasshq/compass/pkg/engine"
)

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse carries a freshly issued token.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ThreadResponse is the public view of a conversation thread.
type ThreadResponse struct {
	ID        string    `json:"id"`
	Stage     string    `json:"stage"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// TurnResponse is one message in a thread.
type TurnResponse struct {
	ID        string                 `json:"id"`
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// ReportResponse is the public view of a report.
type ReportResponse struct {
	ID              string    `json:"id"`
	ThreadID        string    `json:"thread_id"`
	Kind            string    `json:"kind"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	Status          string    `json:"status"`
	Insights        *string   `json:"insights,omitempty"`
	Recommendations *string   `json:"recommendations,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AnswerResponse is one stored questionnaire answer.
type AnswerResponse struct {
	Question  string    `json:"question"`
	Response  string    `json:"response"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StageTurnResponse is the result of one workshop turn.
type StageTurnResponse struct {
	ThreadID      string          `json:"thread_id"`
	Reply         string          `json:"reply"`
	ReportUpdated bool            `json:"report_updated"`
	History       []TurnResponse  `json:"history"`
	Report        *ReportResponse `json:"report,omitempty"`
}

func toUserResponse(u *ent.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		CreatedAt: u.CreatedAt,
	}
}

func toThreadResponse(t *ent.Thread) ThreadResponse {
	return ThreadResponse{
		ID:        t.ID,
		Stage:     t.Stage,
		Title:     t.Title,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
	}
}

func toTurnResponse(t *ent.Turn) TurnResponse {
	return TurnResponse{
		ID:        t.ID,
		Role:      string(t.Role),
		Content:   t.Content,
		Metadata:  t.Metadata,
		CreatedAt: t.CreatedAt,
	}
}

func toTurnResponses(turns []*ent.Turn) []TurnResponse {
	out := make([]TurnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, toTurnResponse(t))
	}
	return out
}

func toAnswerResponse(a *ent.Answer) AnswerResponse {
	return AnswerResponse{
		Question:  a.Question,
		Response:  a.Response,
		UpdatedAt: a.UpdatedAt,
	}
}

func toAnswerResponses(answers []*ent.Answer) []AnswerResponse {
	out := make([]AnswerResponse, 0, len(answers))
	for _, a := range answers {
		out = append(out, toAnswerResponse(a))
	}
	return out
}

func toReportResponse(r *ent.Report) *ReportResponse {
	if r == nil {
		return nil
	}
	return &ReportResponse{
		ID:              r.ID,
		ThreadID:        r.ThreadID,
		Kind:            r.Kind,
		Title:           r.Title,
		Content:         r.Content,
		Status:          string(r.Status),
		Insights:        r.Insights,
		Recommendations: r.Recommendations,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func toStageTurnResponse(res *engine.StageTurnResult) StageTurnResponse {
	return StageTurnResponse{
		ThreadID:      res.ThreadID,
		Reply:         res.CleanText,
		ReportUpdated: res.ReportUpdated,
		History:       toTurnResponses(res.History),
		Report:        toReportResponse(res.Report),
	}
}
