package service

import (
	"context"
	"testing"

	"fira-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJudgementService(m *memStore) *JudgementService {
	return NewJudgementService(
		JudgementWithJudgementStore(m),
		JudgementWithFeedbackStore(memFeedbackStore{m: m}),
		JudgementWithTransactor(m),
	)
}

// openJudgement seeds one pending judgement against fresh text snapshots.
func openJudgement(t *testing.T, m *memStore, user *models.User, docText string, rotate bool) *models.Judgement {
	t.Helper()
	docID := "doc-" + uuid.NewString()
	queryID := "q-" + uuid.NewString()
	m.setDocumentText(docID, docText)
	m.setQueryText(queryID, "some query")

	judgement := &models.Judgement{
		UserID:            user.ID,
		DocumentID:        docID,
		QueryID:           queryID,
		DocumentVersionID: m.docVersions[docID].ID,
		QueryVersionID:    m.queryVersions[queryID].ID,
		Status:            models.StatusToJudge,
		Rotate:            rotate,
		Mode:              models.ModeScoring,
	}
	require.NoError(t, m.Create(context.Background(), judgement))
	return judgement
}

func TestSubmitStoresJudgement(t *testing.T) {
	m := newMemStore()
	user := m.addUser("alice")
	j := openJudgement(t, m, user, "one two three four", false)
	svc := newTestJudgementService(m)

	result, err := svc.Submit(context.Background(), user.ID, j.ID, models.Submission{
		RelevanceLevel:     models.RelevanceGoodAnswer,
		RelevancePositions: []int{1, 3},
		DurationUsedMs:     1500,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusJudged, result.Status)
	require.NotNil(t, result.RelevanceLevel)
	assert.Equal(t, models.RelevanceGoodAnswer, *result.RelevanceLevel)
	assert.Equal(t, []int{1, 3}, result.RelevancePositions)
	require.NotNil(t, result.DurationUsedMs)
	assert.Equal(t, int64(1500), *result.DurationUsedMs)
	assert.NotNil(t, result.JudgedAt)
}

func TestSubmitUnrotatesPositions(t *testing.T) {
	m := newMemStore()
	user := m.addUser("alice")
	// five parts, displayed rotated as "c d e a b"
	j := openJudgement(t, m, user, "a b c d e", true)
	svc := newTestJudgementService(m)

	result, err := svc.Submit(context.Background(), user.ID, j.ID, models.Submission{
		RelevanceLevel:     models.RelevancePerfectAnswer,
		RelevancePositions: []int{0, 3},
		DurationUsedMs:     900,
	})
	require.NoError(t, err)

	// displayed "c" (0) is stored part 2, displayed "a" (3) is stored part 0
	assert.Equal(t, []int{2, 0}, result.RelevancePositions)
}

func TestSubmitIdempotent(t *testing.T) {
	m := newMemStore()
	user := m.addUser("alice")
	j := openJudgement(t, m, user, "one two three four", false)
	svc := newTestJudgementService(m)
	ctx := context.Background()

	sub := models.Submission{
		RelevanceLevel:     models.RelevanceTopicRelevant,
		RelevancePositions: []int{2},
		DurationUsedMs:     700,
	}
	first, err := svc.Submit(ctx, user.ID, j.ID, sub)
	require.NoError(t, err)

	second, err := svc.Submit(ctx, user.ID, j.ID, sub)
	require.NoError(t, err)
	assert.Equal(t, first.RelevancePositions, second.RelevancePositions)
	assert.Equal(t, *first.JudgedAt, *second.JudgedAt, "resubmission must not rewrite the judgement")
}

func TestSubmitConflict(t *testing.T) {
	m := newMemStore()
	user := m.addUser("alice")
	j := openJudgement(t, m, user, "one two three four", false)
	svc := newTestJudgementService(m)
	ctx := context.Background()

	_, err := svc.Submit(ctx, user.ID, j.ID, models.Submission{
		RelevanceLevel: models.RelevanceGoodAnswer,
		DurationUsedMs: 700,
	})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, user.ID, j.ID, models.Submission{
		RelevanceLevel: models.RelevanceNotRelevant,
		DurationUsedMs: 700,
	})
	assert.ErrorIs(t, err, ErrSubmissionConflict)
}

func TestSubmitPositionOutOfBounds(t *testing.T) {
	m := newMemStore()
	user := m.addUser("alice")
	j := openJudgement(t, m, user, "one two three four", false)
	svc := newTestJudgementService(m)
	ctx := context.Background()

	_, err := svc.Submit(ctx, user.ID, j.ID, models.Submission{
		RelevanceLevel:     models.RelevanceGoodAnswer,
		RelevancePositions: []int{4},
	})
	assert.ErrorIs(t, err, ErrPositionOutOfBounds)

	_, err = svc.Submit(ctx, user.ID, j.ID, models.Submission{
		RelevanceLevel:     models.RelevanceGoodAnswer,
		RelevancePositions: []int{-1},
	})
	assert.ErrorIs(t, err, ErrPositionOutOfBounds)

	// the judgement must still be open after rejected submissions
	jwt, err := m.GetWithText(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusToJudge, jwt.Judgement.Status)
}

func TestSubmitWrongOwner(t *testing.T) {
	m := newMemStore()
	alice := m.addUser("alice")
	bob := m.addUser("bob")
	j := openJudgement(t, m, alice, "one two three four", false)
	svc := newTestJudgementService(m)

	_, err := svc.Submit(context.Background(), bob.ID, j.ID, models.Submission{
		RelevanceLevel: models.RelevanceGoodAnswer,
	})
	assert.ErrorIs(t, err, ErrNotJudgementOwner)
}

func TestSubmitUnknownJudgement(t *testing.T) {
	m := newMemStore()
	user := m.addUser("alice")
	svc := newTestJudgementService(m)

	_, err := svc.Submit(context.Background(), user.ID, 42, models.Submission{
		RelevanceLevel: models.RelevanceGoodAnswer,
	})
	assert.ErrorIs(t, err, ErrJudgementNotFound)
}

func TestSubmitFeedback(t *testing.T) {
	m := newMemStore()
	user := m.addUser("alice")
	svc := newTestJudgementService(m)
	ctx := context.Background()

	_, err := svc.SubmitFeedback(ctx, user.ID, "")
	assert.ErrorIs(t, err, ErrEmptyFeedback)

	feedback, err := svc.SubmitFeedback(ctx, user.ID, "the ranking mode is confusing")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, feedback.ID)
	assert.Equal(t, user.ID, feedback.UserID)

	count, err := memFeedbackStore{m: m}.CountByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
