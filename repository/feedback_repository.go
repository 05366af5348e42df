package repository

import (
	"context"

	"fira-backend/models"

	"github.com/google/uuid"
)

// FeedbackRepository handles database operations for annotator feedback
type FeedbackRepository struct {
	db *DB
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(db *DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create creates a new feedback entry
func (r *FeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	if feedback.ID == uuid.Nil {
		feedback.ID = uuid.New()
	}

	query := `
		INSERT INTO feedback (id, user_id, text)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	err := r.db.Q(ctx).QueryRow(ctx, query, feedback.ID, feedback.UserID, feedback.Text).
		Scan(&feedback.CreatedAt)
	return err
}

// CountByUser counts the feedback entries a user has submitted
func (r *FeedbackRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.Q(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM feedback WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}
