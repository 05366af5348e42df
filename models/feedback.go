package models

import (
	"time"

	"github.com/google/uuid"
)

// Feedback is free-form annotator feedback collected once the configured
// judgement count is reached.
type Feedback struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
