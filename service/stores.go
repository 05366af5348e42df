package service

import (
	"context"

	"fira-backend/models"

	"github.com/google/uuid"
)

// Store interfaces consumed by the services. The pgx repositories satisfy
// them; tests exercise the allocation logic against in-memory fakes.

// UserStore looks up annotator accounts
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ConfigStore reads and writes the singleton annotation config
type ConfigStore interface {
	Get(ctx context.Context) (*models.Config, error)
	Update(ctx context.Context, cfg *models.Config) error
}

// PairStore is the queryable view over judgement pairs the allocator
// selects candidates from.
type PairStore interface {
	DistinctPriorities(ctx context.Context) (models.PrioritySummary, error)
	CountByPriority(ctx context.Context, priority string) (int, error)
	CountNotYetPreloaded(ctx context.Context, userID uuid.UUID, priority *string) (int, error)
	CountAlreadyPreloaded(ctx context.Context, userID uuid.UUID, priority string) (int, error)
	CandidatesNotYetPreloaded(ctx context.Context, userID uuid.UUID, priority string, limit int) ([]models.JudgementPair, error)
	CandidatesByPriority(ctx context.Context, priority int, excluding []models.PairKey, limit, targetFactor, perPairTarget int) ([]models.JudgementPair, error)
}

// PairAdminStore replaces the pair pool in bulk. Invalidate drops any cached
// priority summary; the importer calls it after the replacing transaction
// commits.
type PairAdminStore interface {
	ReplaceAll(ctx context.Context, pairs []models.JudgementPair) error
	Invalidate()
}

// JudgementStore persists and queries judgements
type JudgementStore interface {
	Create(ctx context.Context, judgement *models.Judgement) error
	CountOpenByUser(ctx context.Context, userID uuid.UUID) (int, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
	CountJudgedByUser(ctx context.Context, userID uuid.UUID) (int, error)
	RotationCounts(ctx context.Context) (models.RotationCounts, error)
	PreloadedPairKeys(ctx context.Context, userID uuid.UUID) ([]models.PairKey, error)
	OpenByUser(ctx context.Context, userID uuid.UUID) ([]models.JudgementWithText, error)
	GetWithText(ctx context.Context, id int64) (*models.JudgementWithText, error)
	Submit(ctx context.Context, id int64, sub models.Submission) error
	JudgedForExport(ctx context.Context) ([]models.Judgement, error)
}

// VersionStore reads and appends immutable text snapshots
type VersionStore interface {
	CurrentDocumentVersion(ctx context.Context, documentID string) (*models.DocumentVersion, error)
	CurrentQueryVersion(ctx context.Context, queryID string) (*models.QueryVersion, error)
	CreateDocumentVersion(ctx context.Context, documentID, text string) (*models.DocumentVersion, error)
	CreateQueryVersion(ctx context.Context, queryID, text string) (*models.QueryVersion, error)
}

// FeedbackStore persists annotator feedback
type FeedbackStore interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// Transactor runs a function inside a serializable transaction with
// retry-on-conflict. All multi-step mutations of the shared pair/judgement
// tables go through it.
type Transactor interface {
	Serializable(ctx context.Context, fn func(ctx context.Context) error) error
}
