package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an annotator account. Authentication happens at the
// external identity provider; this row only anchors judgement ownership.
type User struct {
	ID        uuid.UUID `json:"id"`
	Subject   string    `json:"-"` // identity provider subject claim
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
