package service

import (
	"context"
	"errors"
	"fmt"

	"fira-backend/models"
	"fira-backend/rotation"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrJudgementNotFound   = errors.New("judgement not found")
	ErrNotJudgementOwner   = errors.New("judgement belongs to a different user")
	ErrPositionOutOfBounds = errors.New("relevance position out of bounds")
	ErrSubmissionConflict  = errors.New("judgement already judged with different data")
	ErrEmptyFeedback       = errors.New("feedback text must not be empty")
)

// JudgementService handles annotation submission and feedback. Submission
// owns the judged-field mutation: it maps annotated positions back through
// the rotation inverse and flips the status to JUDGED exactly once.
type JudgementService struct {
	judgements JudgementStore
	feedback   FeedbackStore
	tx         Transactor
}

// JudgementServiceOption is a functional option for JudgementService
type JudgementServiceOption func(*JudgementService)

// JudgementWithJudgementStore sets the judgement store
func JudgementWithJudgementStore(store JudgementStore) JudgementServiceOption {
	return func(s *JudgementService) {
		s.judgements = store
	}
}

// JudgementWithFeedbackStore sets the feedback store
func JudgementWithFeedbackStore(store FeedbackStore) JudgementServiceOption {
	return func(s *JudgementService) {
		s.feedback = store
	}
}

// JudgementWithTransactor sets the transactor
func JudgementWithTransactor(tx Transactor) JudgementServiceOption {
	return func(s *JudgementService) {
		s.tx = tx
	}
}

// NewJudgementService creates a new judgement service
func NewJudgementService(opts ...JudgementServiceOption) *JudgementService {
	s := &JudgementService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit records the annotator's answer for one pending judgement.
// Positions arrive relative to the displayed (possibly rotated) part order
// and are stored unrotated. Resubmitting identical data succeeds without a
// second write; resubmitting different data is a conflict.
func (s *JudgementService) Submit(ctx context.Context, userID uuid.UUID, judgementID int64, sub models.Submission) (*models.Judgement, error) {
	var result *models.Judgement
	err := s.tx.Serializable(ctx, func(ctx context.Context) error {
		jwt, err := s.judgements.GetWithText(ctx, judgementID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrJudgementNotFound
			}
			return err
		}
		if jwt.Judgement.UserID != userID {
			return ErrNotJudgementOwner
		}

		parts := jwt.DocumentParts()
		positions := make([]int, len(sub.RelevancePositions))
		for i, pos := range sub.RelevancePositions {
			if pos < 0 || pos >= len(parts) {
				return fmt.Errorf("%w: position %d, document has %d parts", ErrPositionOutOfBounds, pos, len(parts))
			}
			if jwt.Judgement.Rotate {
				pos = rotation.UnrotatePosition(pos, len(parts))
			}
			positions[i] = pos
		}

		stored := models.Submission{
			RelevanceLevel:     sub.RelevanceLevel,
			RelevancePositions: positions,
			DurationUsedMs:     sub.DurationUsedMs,
		}

		if jwt.Judgement.Status == models.StatusJudged {
			if sameSubmission(jwt.Judgement, stored) {
				result = &jwt.Judgement
				return nil
			}
			return ErrSubmissionConflict
		}

		if err := s.judgements.Submit(ctx, judgementID, stored); err != nil {
			return err
		}

		judged, err := s.judgements.GetWithText(ctx, judgementID)
		if err != nil {
			return err
		}
		result = &judged.Judgement
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func sameSubmission(j models.Judgement, sub models.Submission) bool {
	if j.RelevanceLevel == nil || *j.RelevanceLevel != sub.RelevanceLevel {
		return false
	}
	if j.DurationUsedMs == nil || *j.DurationUsedMs != sub.DurationUsedMs {
		return false
	}
	if len(j.RelevancePositions) != len(sub.RelevancePositions) {
		return false
	}
	for i, pos := range j.RelevancePositions {
		if pos != sub.RelevancePositions[i] {
			return false
		}
	}
	return true
}

// SubmitFeedback stores free-form annotator feedback
func (s *JudgementService) SubmitFeedback(ctx context.Context, userID uuid.UUID, text string) (*models.Feedback, error) {
	if text == "" {
		return nil, ErrEmptyFeedback
	}

	feedback := &models.Feedback{UserID: userID, Text: text}
	if err := s.feedback.Create(ctx, feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}
