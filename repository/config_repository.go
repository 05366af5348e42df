package repository

import (
	"context"

	"fira-backend/models"
)

// ConfigRepository handles database operations for the singleton annotation
// config row.
type ConfigRepository struct {
	db *DB
}

// NewConfigRepository creates a new config repository
func NewConfigRepository(db *DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// Get retrieves the config singleton
func (r *ConfigRepository) Get(ctx context.Context) (*models.Config, error) {
	cfg := &models.Config{}
	query := `
		SELECT annotation_target_per_user, annotation_target_per_judg_pair,
			judgement_mode, rotate_document_text, annotation_target_to_require_feedback,
			updated_at
		FROM config
		WHERE id = 1`

	err := r.db.Q(ctx).QueryRow(ctx, query).Scan(
		&cfg.AnnotationTargetPerUser,
		&cfg.AnnotationTargetPerJudgPair,
		&cfg.JudgementMode,
		&cfg.RotateDocumentText,
		&cfg.AnnotationTargetToRequireFeedback,
		&cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Update updates the config singleton
func (r *ConfigRepository) Update(ctx context.Context, cfg *models.Config) error {
	query := `
		UPDATE config SET
			annotation_target_per_user = $1,
			annotation_target_per_judg_pair = $2,
			judgement_mode = $3,
			rotate_document_text = $4,
			annotation_target_to_require_feedback = $5,
			updated_at = NOW()
		WHERE id = 1
		RETURNING updated_at`

	err := r.db.Q(ctx).QueryRow(ctx, query,
		cfg.AnnotationTargetPerUser,
		cfg.AnnotationTargetPerJudgPair,
		cfg.JudgementMode,
		cfg.RotateDocumentText,
		cfg.AnnotationTargetToRequireFeedback,
	).Scan(&cfg.UpdatedAt)

	return err
}
