package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"fira-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// memStore is an in-memory implementation of every store interface plus the
// Transactor, mirroring the repository semantics (deterministic candidate
// ordering included) closely enough to exercise the allocation logic.
type memStore struct {
	users      map[uuid.UUID]*models.User
	config     *models.Config
	pairs      []models.JudgementPair
	judgements []*models.Judgement
	feedback   []*models.Feedback

	docVersions   map[string]*models.DocumentVersion
	queryVersions map[string]*models.QueryVersion
	versionTexts  map[int64]string

	nextJudgementID int64
	nextVersionID   int64
	replaceCalls    [][]models.JudgementPair

	// ordering of pool replacement, commit and cache invalidation
	events []string
}

func newMemStore() *memStore {
	return &memStore{
		users:         make(map[uuid.UUID]*models.User),
		docVersions:   make(map[string]*models.DocumentVersion),
		queryVersions: make(map[string]*models.QueryVersion),
		versionTexts:  make(map[int64]string),
	}
}

// --- test helpers ---

func (m *memStore) addUser(name string) *models.User {
	user := &models.User{
		ID:      uuid.New(),
		Subject: name,
		Email:   name + "@example.com",
		Name:    name,
	}
	m.users[user.ID] = user
	return user
}

// addPair registers a pair and backing text snapshots. The document text
// has four parts unless set otherwise via setDocumentText.
func (m *memStore) addPair(docID, queryID, priority string) {
	m.pairs = append(m.pairs, models.JudgementPair{
		DocumentID: docID,
		QueryID:    queryID,
		Priority:   priority,
	})
	if _, ok := m.docVersions[docID]; !ok {
		m.setDocumentText(docID, "one two three four")
	}
	if _, ok := m.queryVersions[queryID]; !ok {
		m.setQueryText(queryID, "query for "+queryID)
	}
}

func (m *memStore) setDocumentText(docID, text string) {
	m.nextVersionID++
	version := 1
	if prev, ok := m.docVersions[docID]; ok {
		version = prev.Version + 1
	}
	v := &models.DocumentVersion{
		ID:         m.nextVersionID,
		DocumentID: docID,
		Version:    version,
		Text:       text,
		CreatedAt:  time.Now(),
	}
	m.docVersions[docID] = v
	m.versionTexts[v.ID] = text
}

func (m *memStore) setQueryText(queryID, text string) {
	m.nextVersionID++
	version := 1
	if prev, ok := m.queryVersions[queryID]; ok {
		version = prev.Version + 1
	}
	v := &models.QueryVersion{
		ID:        m.nextVersionID,
		QueryID:   queryID,
		Version:   version,
		Text:      text,
		CreatedAt: time.Now(),
	}
	m.queryVersions[queryID] = v
	m.versionTexts[v.ID] = text
}

func (m *memStore) pairJudgementCount(key models.PairKey) int {
	count := 0
	for _, j := range m.judgements {
		if j.DocumentID == key.DocumentID && j.QueryID == key.QueryID {
			count++
		}
	}
	return count
}

func (m *memStore) userHasPair(userID uuid.UUID, key models.PairKey) bool {
	for _, j := range m.judgements {
		if j.UserID == userID && j.DocumentID == key.DocumentID && j.QueryID == key.QueryID {
			return true
		}
	}
	return false
}

func (m *memStore) judgeAllOpen(userID uuid.UUID) {
	now := time.Now()
	level := models.RelevanceGoodAnswer
	duration := int64(1000)
	for _, j := range m.judgements {
		if j.UserID == userID && j.Status == models.StatusToJudge {
			j.Status = models.StatusJudged
			j.RelevanceLevel = &level
			j.RelevancePositions = []int{}
			j.DurationUsedMs = &duration
			j.JudgedAt = &now
		}
	}
}

// --- Transactor ---

func (m *memStore) Serializable(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err == nil {
		m.events = append(m.events, "commit")
	}
	return err
}

// --- UserStore ---

func (m *memStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

// --- ConfigStore ---

func (m *memStore) Get(ctx context.Context) (*models.Config, error) {
	if m.config == nil {
		return nil, pgx.ErrNoRows
	}
	cfg := *m.config
	return &cfg, nil
}

func (m *memStore) Update(ctx context.Context, cfg *models.Config) error {
	c := *cfg
	c.UpdatedAt = time.Now()
	m.config = &c
	cfg.UpdatedAt = c.UpdatedAt
	return nil
}

// --- PairStore ---

func (m *memStore) DistinctPriorities(ctx context.Context) (models.PrioritySummary, error) {
	summary := models.PrioritySummary{}
	seen := make(map[int]bool)
	for _, pair := range m.pairs {
		if pair.Priority == models.PriorityAll {
			summary.HasAllTier = true
		} else if tier, ok := pair.NumericPriority(); ok && !seen[tier] {
			seen[tier] = true
			summary.NumericTiers = append(summary.NumericTiers, tier)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(summary.NumericTiers)))
	return summary, nil
}

func (m *memStore) CountByPriority(ctx context.Context, priority string) (int, error) {
	count := 0
	for _, pair := range m.pairs {
		if pair.Priority == priority {
			count++
		}
	}
	return count, nil
}

func (m *memStore) CountNotYetPreloaded(ctx context.Context, userID uuid.UUID, priority *string) (int, error) {
	count := 0
	for _, pair := range m.pairs {
		if priority != nil && pair.Priority != *priority {
			continue
		}
		if !m.userHasPair(userID, pair.Key()) {
			count++
		}
	}
	return count, nil
}

func (m *memStore) CountAlreadyPreloaded(ctx context.Context, userID uuid.UUID, priority string) (int, error) {
	count := 0
	for _, pair := range m.pairs {
		if pair.Priority == priority && m.userHasPair(userID, pair.Key()) {
			count++
		}
	}
	return count, nil
}

func (m *memStore) CandidatesNotYetPreloaded(ctx context.Context, userID uuid.UUID, priority string, limit int) ([]models.JudgementPair, error) {
	var candidates []models.JudgementPair
	for _, pair := range m.pairs {
		if pair.Priority == priority && !m.userHasPair(userID, pair.Key()) {
			candidates = append(candidates, pair)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DocumentID != candidates[j].DocumentID {
			return candidates[i].DocumentID < candidates[j].DocumentID
		}
		return candidates[i].QueryID < candidates[j].QueryID
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (m *memStore) CandidatesByPriority(ctx context.Context, priority int, excluding []models.PairKey, limit, targetFactor, perPairTarget int) ([]models.JudgementPair, error) {
	excluded := make(map[models.PairKey]bool, len(excluding))
	for _, key := range excluding {
		excluded[key] = true
	}

	var candidates []models.JudgementPair
	for _, pair := range m.pairs {
		if pair.Priority != strconv.Itoa(priority) || excluded[pair.Key()] {
			continue
		}
		if m.pairJudgementCount(pair.Key()) < perPairTarget*targetFactor {
			candidates = append(candidates, pair)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		ci := m.pairJudgementCount(candidates[i].Key())
		cj := m.pairJudgementCount(candidates[j].Key())
		if ci != cj {
			return ci < cj
		}
		if candidates[i].DocumentID != candidates[j].DocumentID {
			return candidates[i].DocumentID < candidates[j].DocumentID
		}
		return candidates[i].QueryID < candidates[j].QueryID
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// --- PairAdminStore ---

func (m *memStore) ReplaceAll(ctx context.Context, pairs []models.JudgementPair) error {
	m.pairs = append([]models.JudgementPair(nil), pairs...)
	m.replaceCalls = append(m.replaceCalls, pairs)
	m.events = append(m.events, "replace")
	return nil
}

func (m *memStore) Invalidate() {
	m.events = append(m.events, "invalidate")
}

// --- JudgementStore ---

func (m *memStore) Create(ctx context.Context, judgement *models.Judgement) error {
	if m.userHasPair(judgement.UserID, models.PairKey{DocumentID: judgement.DocumentID, QueryID: judgement.QueryID}) {
		return fmt.Errorf("duplicate judgement for user %s pair %s/%s",
			judgement.UserID, judgement.DocumentID, judgement.QueryID)
	}
	m.nextJudgementID++
	judgement.ID = m.nextJudgementID
	judgement.CreatedAt = time.Now()
	m.judgements = append(m.judgements, judgement)
	return nil
}

func (m *memStore) CountOpenByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, j := range m.judgements {
		if j.UserID == userID && j.Status == models.StatusToJudge {
			count++
		}
	}
	return count, nil
}

func (m *memStore) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, j := range m.judgements {
		if j.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *memStore) CountJudgedByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, j := range m.judgements {
		if j.UserID == userID && j.Status == models.StatusJudged {
			count++
		}
	}
	return count, nil
}

func (m *memStore) RotationCounts(ctx context.Context) (models.RotationCounts, error) {
	counts := models.RotationCounts{}
	for _, j := range m.judgements {
		if j.Rotate {
			counts.Rotated++
		} else {
			counts.NotRotated++
		}
	}
	return counts, nil
}

func (m *memStore) PreloadedPairKeys(ctx context.Context, userID uuid.UUID) ([]models.PairKey, error) {
	var keys []models.PairKey
	for _, j := range m.judgements {
		if j.UserID == userID {
			keys = append(keys, models.PairKey{DocumentID: j.DocumentID, QueryID: j.QueryID})
		}
	}
	return keys, nil
}

func (m *memStore) OpenByUser(ctx context.Context, userID uuid.UUID) ([]models.JudgementWithText, error) {
	var open []models.JudgementWithText
	for _, j := range m.judgements {
		if j.UserID == userID && j.Status == models.StatusToJudge {
			open = append(open, models.JudgementWithText{
				Judgement:    *j,
				DocumentText: m.versionTexts[j.DocumentVersionID],
				QueryText:    m.versionTexts[j.QueryVersionID],
			})
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].Judgement.ID < open[j].Judgement.ID })
	return open, nil
}

func (m *memStore) GetWithText(ctx context.Context, id int64) (*models.JudgementWithText, error) {
	for _, j := range m.judgements {
		if j.ID == id {
			return &models.JudgementWithText{
				Judgement:    *j,
				DocumentText: m.versionTexts[j.DocumentVersionID],
				QueryText:    m.versionTexts[j.QueryVersionID],
			}, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memStore) Submit(ctx context.Context, id int64, sub models.Submission) error {
	for _, j := range m.judgements {
		if j.ID == id {
			now := time.Now()
			level := sub.RelevanceLevel
			duration := sub.DurationUsedMs
			j.Status = models.StatusJudged
			j.RelevanceLevel = &level
			j.RelevancePositions = append([]int(nil), sub.RelevancePositions...)
			j.DurationUsedMs = &duration
			j.JudgedAt = &now
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memStore) JudgedForExport(ctx context.Context) ([]models.Judgement, error) {
	var judged []models.Judgement
	for _, j := range m.judgements {
		if j.Status == models.StatusJudged {
			judged = append(judged, *j)
		}
	}
	sort.Slice(judged, func(i, j int) bool {
		if judged[i].QueryID != judged[j].QueryID {
			return judged[i].QueryID < judged[j].QueryID
		}
		if judged[i].DocumentID != judged[j].DocumentID {
			return judged[i].DocumentID < judged[j].DocumentID
		}
		return judged[i].UserID.String() < judged[j].UserID.String()
	})
	return judged, nil
}

// --- VersionStore ---

func (m *memStore) CurrentDocumentVersion(ctx context.Context, documentID string) (*models.DocumentVersion, error) {
	v, ok := m.docVersions[documentID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return v, nil
}

func (m *memStore) CurrentQueryVersion(ctx context.Context, queryID string) (*models.QueryVersion, error) {
	v, ok := m.queryVersions[queryID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return v, nil
}

func (m *memStore) CreateDocumentVersion(ctx context.Context, documentID, text string) (*models.DocumentVersion, error) {
	m.setDocumentText(documentID, text)
	return m.docVersions[documentID], nil
}

func (m *memStore) CreateQueryVersion(ctx context.Context, queryID, text string) (*models.QueryVersion, error) {
	m.setQueryText(queryID, text)
	return m.queryVersions[queryID], nil
}

// --- FeedbackStore ---

// memFeedbackStore wraps memStore because FeedbackStore and JudgementStore
// both declare Create and CountByUser with different signatures.
type memFeedbackStore struct {
	m *memStore
}

func (f memFeedbackStore) Create(ctx context.Context, feedback *models.Feedback) error {
	if feedback.ID == uuid.Nil {
		feedback.ID = uuid.New()
	}
	feedback.CreatedAt = time.Now()
	f.m.feedback = append(f.m.feedback, feedback)
	return nil
}

func (f memFeedbackStore) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, fb := range f.m.feedback {
		if fb.UserID == userID {
			count++
		}
	}
	return count, nil
}
