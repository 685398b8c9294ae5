package models

import "time"

type CoachingSession struct {
	ID        int       `json:"id" db:"id"`
	StudentID string    `json:"student_id" db:"student_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CoachingExchange records one user message together with the sanitized
// reply that was returned for it. Source marks where the reply text came
// from: the model's direct return, the captured side channel, or one of
// the fixed fallback messages.
type CoachingExchange struct {
	ID          int       `json:"id" db:"id"`
	SessionID   int       `json:"session_id" db:"session_id"`
	UserMessage string    `json:"user_message" db:"user_message"`
	Reply       string    `json:"reply" db:"reply"`
	Source      string    `json:"source" db:"source"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
