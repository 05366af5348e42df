package repository

import (
	"context"
	"time"

	"fira-backend/models"

	"github.com/google/uuid"
)

// JudgementRepository handles database operations for judgements
type JudgementRepository struct {
	db *DB
}

// NewJudgementRepository creates a new judgement repository
func NewJudgementRepository(db *DB) *JudgementRepository {
	return &JudgementRepository{db: db}
}

// Create persists a new judgement. The id and creation timestamp are
// assigned by the database.
func (r *JudgementRepository) Create(ctx context.Context, judgement *models.Judgement) error {
	query := `
		INSERT INTO judgements (
			user_id, document_id, query_id, document_version_id, query_version_id,
			status, rotate, mode
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.Q(ctx).QueryRow(
		ctx, query,
		judgement.UserID,
		judgement.DocumentID,
		judgement.QueryID,
		judgement.DocumentVersionID,
		judgement.QueryVersionID,
		judgement.Status,
		judgement.Rotate,
		judgement.Mode,
	).Scan(&judgement.ID, &judgement.CreatedAt)

	return err
}

// CountOpenByUser counts the user's judgements still waiting to be judged
func (r *JudgementRepository) CountOpenByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.Q(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM judgements WHERE user_id = $1 AND status = $2`,
		userID, models.StatusToJudge).Scan(&count)
	return count, err
}

// CountByUser counts the user's judgements across all statuses
func (r *JudgementRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.Q(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM judgements WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

// CountJudgedByUser counts the user's completed judgements
func (r *JudgementRepository) CountJudgedByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.Q(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM judgements WHERE user_id = $1 AND status = $2`,
		userID, models.StatusJudged).Scan(&count)
	return count, err
}

// RotationCounts returns the global judgement counts grouped by rotate flag
func (r *JudgementRepository) RotationCounts(ctx context.Context) (models.RotationCounts, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE rotate),
			COUNT(*) FILTER (WHERE NOT rotate)
		FROM judgements`

	var counts models.RotationCounts
	err := r.db.Q(ctx).QueryRow(ctx, query).Scan(&counts.Rotated, &counts.NotRotated)
	return counts, err
}

// PreloadedPairKeys returns the keys of every pair the user already has a
// judgement for, in any status.
func (r *JudgementRepository) PreloadedPairKeys(ctx context.Context, userID uuid.UUID) ([]models.PairKey, error) {
	rows, err := r.db.Q(ctx).Query(ctx,
		`SELECT document_id, query_id FROM judgements WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []models.PairKey
	for rows.Next() {
		var key models.PairKey
		if err := rows.Scan(&key.DocumentID, &key.QueryID); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// OpenByUser returns the user's pending judgements with the document and
// query text they were created against, oldest first.
func (r *JudgementRepository) OpenByUser(ctx context.Context, userID uuid.UUID) ([]models.JudgementWithText, error) {
	query := `
		SELECT j.id, j.user_id, j.document_id, j.query_id,
			j.document_version_id, j.query_version_id,
			j.status, j.rotate, j.mode, j.created_at,
			dv.text, qv.text
		FROM judgements j
		JOIN document_versions dv ON dv.id = j.document_version_id
		JOIN query_versions qv ON qv.id = j.query_version_id
		WHERE j.user_id = $1 AND j.status = $2
		ORDER BY j.id ASC`

	rows, err := r.db.Q(ctx).Query(ctx, query, userID, models.StatusToJudge)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var open []models.JudgementWithText
	for rows.Next() {
		var jwt models.JudgementWithText
		j := &jwt.Judgement
		err := rows.Scan(
			&j.ID, &j.UserID, &j.DocumentID, &j.QueryID,
			&j.DocumentVersionID, &j.QueryVersionID,
			&j.Status, &j.Rotate, &j.Mode, &j.CreatedAt,
			&jwt.DocumentText, &jwt.QueryText,
		)
		if err != nil {
			return nil, err
		}
		open = append(open, jwt)
	}
	return open, rows.Err()
}

// GetWithText retrieves one judgement with its text snapshots
func (r *JudgementRepository) GetWithText(ctx context.Context, id int64) (*models.JudgementWithText, error) {
	query := `
		SELECT j.id, j.user_id, j.document_id, j.query_id,
			j.document_version_id, j.query_version_id,
			j.status, j.rotate, j.mode,
			j.relevance_level, j.relevance_positions, j.duration_used_ms, j.judged_at,
			j.created_at,
			dv.text, qv.text
		FROM judgements j
		JOIN document_versions dv ON dv.id = j.document_version_id
		JOIN query_versions qv ON qv.id = j.query_version_id
		WHERE j.id = $1`

	jwt := &models.JudgementWithText{}
	j := &jwt.Judgement
	err := r.db.Q(ctx).QueryRow(ctx, query, id).Scan(
		&j.ID, &j.UserID, &j.DocumentID, &j.QueryID,
		&j.DocumentVersionID, &j.QueryVersionID,
		&j.Status, &j.Rotate, &j.Mode,
		&j.RelevanceLevel, &j.RelevancePositions, &j.DurationUsedMs, &j.JudgedAt,
		&j.CreatedAt,
		&jwt.DocumentText, &jwt.QueryText,
	)
	if err != nil {
		return nil, err
	}

	return jwt, nil
}

// Submit marks a judgement as judged with the annotator's answer. The
// positions passed here must already be un-rotated.
func (r *JudgementRepository) Submit(ctx context.Context, id int64, sub models.Submission) error {
	now := time.Now()
	query := `
		UPDATE judgements SET
			status = $2,
			relevance_level = $3,
			relevance_positions = $4,
			duration_used_ms = $5,
			judged_at = $6
		WHERE id = $1`

	_, err := r.db.Q(ctx).Exec(ctx, query, id,
		models.StatusJudged, sub.RelevanceLevel, sub.RelevancePositions, sub.DurationUsedMs, now)
	return err
}

// JudgedForExport returns every completed judgement ordered for stable
// export output.
func (r *JudgementRepository) JudgedForExport(ctx context.Context) ([]models.Judgement, error) {
	query := `
		SELECT id, user_id, document_id, query_id,
			document_version_id, query_version_id,
			status, rotate, mode,
			relevance_level, relevance_positions, duration_used_ms, judged_at,
			created_at
		FROM judgements
		WHERE status = $1
		ORDER BY query_id ASC, document_id ASC, user_id ASC`

	rows, err := r.db.Q(ctx).Query(ctx, query, models.StatusJudged)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var judgements []models.Judgement
	for rows.Next() {
		var j models.Judgement
		err := rows.Scan(
			&j.ID, &j.UserID, &j.DocumentID, &j.QueryID,
			&j.DocumentVersionID, &j.QueryVersionID,
			&j.Status, &j.Rotate, &j.Mode,
			&j.RelevanceLevel, &j.RelevancePositions, &j.DurationUsedMs, &j.JudgedAt,
			&j.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		judgements = append(judgements, j)
	}
	return judgements, rows.Err()
}
