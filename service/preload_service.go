package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"fira-backend/models"
	"fira-backend/rotation"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// judgementsPreloadSize is the default size of an annotator's working
// buffer: preload tops the user's open judgements up to this count.
const judgementsPreloadSize = 3

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrConfigNotFound  = errors.New("annotation config not found")
	ErrVersionNotFound = errors.New("document or query version not found")
)

// PreloadService fills annotator working buffers. It owns judgement
// creation: candidates are selected tier by tier against the global
// per-pair annotation targets, with a proportional carve-out for the "all"
// priority pool, and every selection round runs inside one serializable
// transaction.
type PreloadService struct {
	users       UserStore
	config      ConfigStore
	pairs       PairStore
	judgements  JudgementStore
	versions    VersionStore
	feedback    FeedbackStore
	tx          Transactor
	preloadSize int
}

// PreloadServiceOption is a functional option for PreloadService
type PreloadServiceOption func(*PreloadService)

// PreloadWithUserStore sets the user store
func PreloadWithUserStore(store UserStore) PreloadServiceOption {
	return func(s *PreloadService) {
		s.users = store
	}
}

// PreloadWithConfigStore sets the config store
func PreloadWithConfigStore(store ConfigStore) PreloadServiceOption {
	return func(s *PreloadService) {
		s.config = store
	}
}

// PreloadWithPairStore sets the pair store
func PreloadWithPairStore(store PairStore) PreloadServiceOption {
	return func(s *PreloadService) {
		s.pairs = store
	}
}

// PreloadWithJudgementStore sets the judgement store
func PreloadWithJudgementStore(store JudgementStore) PreloadServiceOption {
	return func(s *PreloadService) {
		s.judgements = store
	}
}

// PreloadWithVersionStore sets the version store
func PreloadWithVersionStore(store VersionStore) PreloadServiceOption {
	return func(s *PreloadService) {
		s.versions = store
	}
}

// PreloadWithFeedbackStore sets the feedback store
func PreloadWithFeedbackStore(store FeedbackStore) PreloadServiceOption {
	return func(s *PreloadService) {
		s.feedback = store
	}
}

// PreloadWithTransactor sets the transactor
func PreloadWithTransactor(tx Transactor) PreloadServiceOption {
	return func(s *PreloadService) {
		s.tx = tx
	}
}

// PreloadWithBufferSize overrides the working buffer size
func PreloadWithBufferSize(size int) PreloadServiceOption {
	return func(s *PreloadService) {
		if size > 0 {
			s.preloadSize = size
		}
	}
}

// NewPreloadService creates a new preload service
func NewPreloadService(opts ...PreloadServiceOption) *PreloadService {
	s := &PreloadService{preloadSize: judgementsPreloadSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PreloadResult is the annotator-facing state after a preload call. Field
// names follow the client contract.
type PreloadResult struct {
	Judgements                          []models.OpenJudgement `json:"judgements"`
	AlreadyFinished                     int                    `json:"alreadyFinished"`
	RemainingToFinish                   int                    `json:"remainingToFinish"`
	RemainingUntilFirstFeedbackRequired int                    `json:"remainingUntilFirstFeedbackRequired"`
	CountOfFeedbacks                    int                    `json:"countOfFeedbacks"`
	CountOfNotPreloadedPairs            int                    `json:"countOfNotPreloadedPairs"`
}

// Preload tops up the user's buffer of pending judgements and returns the
// current annotation state. The whole call runs inside one serializable
// transaction, so a concurrent preload competing for the same scarce pair
// aborts and retries rather than double-allocating past the target.
func (s *PreloadService) Preload(ctx context.Context, userID uuid.UUID) (*PreloadResult, error) {
	var result *PreloadResult
	err := s.tx.Serializable(ctx, func(ctx context.Context) error {
		r, err := s.preload(ctx, userID)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PreloadService) preload(ctx context.Context, userID uuid.UUID) (*PreloadResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	cfg, err := s.config.Get(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	open, err := s.judgements.CountOpenByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if demand := s.preloadSize - open; demand >= 1 {
		notPreloaded, err := s.pairs.CountNotYetPreloaded(ctx, user.ID, nil)
		if err != nil {
			return nil, err
		}
		if notPreloaded > 0 {
			if err := s.allocate(ctx, user, demand, cfg); err != nil {
				return nil, err
			}
		}
	}

	return s.assembleResult(ctx, user, cfg)
}

// allocate creates up to demand new judgements for the user: first the
// "all"-tier carve-out (once per call), then numeric tiers in descending
// order, relaxing the per-pair cap by one target-multiple per full
// unsatisfied pass.
func (s *PreloadService) allocate(ctx context.Context, user *models.User, demand int, cfg *models.Config) error {
	summary, err := s.pairs.DistinctPriorities(ctx)
	if err != nil {
		return err
	}

	if summary.HasAllTier {
		demand, err = s.allocateAllTier(ctx, user, demand, cfg)
		if err != nil {
			return err
		}
	}
	if demand <= 0 {
		return nil
	}

	excluded, err := s.judgements.PreloadedPairKeys(ctx, user.ID)
	if err != nil {
		return err
	}

	for targetFactor := 1; ; targetFactor++ {
		progressed := false

		for _, tier := range summary.NumericTiers {
			if demand <= 0 {
				break
			}
			candidates, err := s.pairs.CandidatesByPriority(ctx, tier, excluded,
				demand, targetFactor, cfg.AnnotationTargetPerJudgPair)
			if err != nil {
				return err
			}
			for _, pair := range candidates {
				if demand <= 0 {
					break
				}
				if err := s.persistJudgement(ctx, user, pair, cfg); err != nil {
					return err
				}
				demand--
				progressed = true
				excluded = append(excluded, pair.Key())
			}
		}

		if demand <= 0 {
			return nil
		}

		remaining, err := s.pairs.CountNotYetPreloaded(ctx, user.ID, nil)
		if err != nil {
			return err
		}
		if remaining == 0 {
			// the user has exhausted the pool; there is simply no more work
			return nil
		}

		if !progressed {
			// Raising targetFactor only unlocks pairs held back by the
			// per-pair cap. If every unpreloaded pair left is in the "all"
			// tier, no factor will ever produce a numeric candidate.
			numericRemaining := 0
			for _, tier := range summary.NumericTiers {
				priority := strconv.Itoa(tier)
				n, err := s.pairs.CountNotYetPreloaded(ctx, user.ID, &priority)
				if err != nil {
					return err
				}
				numericRemaining += n
			}
			if numericRemaining == 0 {
				log.Printf("Warning: preload for user %s stopped with demand %d, only \"all\"-tier pairs remain beyond the carve-out", user.ID, demand)
				return nil
			}
		}
	}
}

// allocateAllTier gives the user a proportional slice of the "all" priority
// pool: one pair for every stepSize judgements of the personal annotation
// target. Returns the demand left over for the numeric tiers.
func (s *PreloadService) allocateAllTier(ctx context.Context, user *models.User, demand int, cfg *models.Config) (int, error) {
	poolSize, err := s.pairs.CountByPriority(ctx, models.PriorityAll)
	if err != nil {
		return demand, err
	}
	if poolSize == 0 {
		return demand, nil
	}

	stepSize := cfg.AnnotationTargetPerUser / poolSize
	if stepSize == 0 {
		// target smaller than the pool; no carve-out this round
		return demand, nil
	}

	total, err := s.judgements.CountByUser(ctx, user.ID)
	if err != nil {
		return demand, err
	}

	shouldHave := (total + demand) / stepSize
	if shouldHave > poolSize {
		shouldHave = poolSize
	}

	actuallyHas, err := s.pairs.CountAlreadyPreloaded(ctx, user.ID, models.PriorityAll)
	if err != nil {
		return demand, err
	}

	for missing := shouldHave - actuallyHas; missing > 0 && demand > 0; missing-- {
		candidates, err := s.pairs.CandidatesNotYetPreloaded(ctx, user.ID, models.PriorityAll, 1)
		if err != nil {
			return demand, err
		}
		if len(candidates) == 0 {
			// accounting says a pair should exist; degrade to allocating
			// fewer instead of failing the request
			log.Printf("Warning: user %s should have %d more \"all\"-tier pairs but no unpreloaded candidate was found", user.ID, missing)
			break
		}
		if err := s.persistJudgement(ctx, user, candidates[0], cfg); err != nil {
			return demand, err
		}
		demand--
	}

	return demand, nil
}

// persistJudgement creates one TO_JUDGE judgement for the pair, attaching
// the rotation decision and the current text versions. Rotation counts are
// refreshed before every persist so batches stay balanced.
func (s *PreloadService) persistJudgement(ctx context.Context, user *models.User, pair models.JudgementPair, cfg *models.Config) error {
	counts, err := s.judgements.RotationCounts(ctx)
	if err != nil {
		return err
	}
	rotate := rotation.Decide(cfg.RotateDocumentText, counts)

	docVersion, err := s.versions.CurrentDocumentVersion(ctx, pair.DocumentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: document %s", ErrVersionNotFound, pair.DocumentID)
		}
		return err
	}
	queryVersion, err := s.versions.CurrentQueryVersion(ctx, pair.QueryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: query %s", ErrVersionNotFound, pair.QueryID)
		}
		return err
	}

	judgement := &models.Judgement{
		UserID:            user.ID,
		DocumentID:        pair.DocumentID,
		QueryID:           pair.QueryID,
		DocumentVersionID: docVersion.ID,
		QueryVersionID:    queryVersion.ID,
		Status:            models.StatusToJudge,
		Rotate:            rotate,
		Mode:              cfg.JudgementMode,
	}
	return s.judgements.Create(ctx, judgement)
}

func (s *PreloadService) assembleResult(ctx context.Context, user *models.User, cfg *models.Config) (*PreloadResult, error) {
	open, err := s.judgements.OpenByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	judged, err := s.judgements.CountJudgedByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	feedbacks, err := s.feedback.CountByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	notPreloaded, err := s.pairs.CountNotYetPreloaded(ctx, user.ID, nil)
	if err != nil {
		return nil, err
	}

	result := &PreloadResult{
		Judgements:                          make([]models.OpenJudgement, 0, len(open)),
		AlreadyFinished:                     judged,
		RemainingToFinish:                   cfg.AnnotationTargetPerUser - judged,
		RemainingUntilFirstFeedbackRequired: cfg.AnnotationTargetToRequireFeedback - judged,
		CountOfFeedbacks:                    feedbacks,
		CountOfNotPreloadedPairs:            notPreloaded,
	}

	for _, jwt := range open {
		parts := jwt.DocumentParts()
		if jwt.Judgement.Rotate {
			parts = rotation.Parts(parts)
		}
		result.Judgements = append(result.Judgements, models.OpenJudgement{
			ID:                 jwt.Judgement.ID,
			QueryText:          jwt.QueryText,
			DocAnnotationParts: parts,
			Mode:               jwt.Judgement.Mode,
		})
	}

	return result, nil
}
