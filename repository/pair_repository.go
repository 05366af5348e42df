package repository

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"fira-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PairRepository handles database operations for judgement pairs. Pairs are
// only ever replaced in bulk by import, so the distinct-priorities summary is
// cached process-wide and invalidated by ReplaceAll.
type PairRepository struct {
	db *DB

	mu      sync.Mutex
	summary *models.PrioritySummary
}

// NewPairRepository creates a new pair repository
func NewPairRepository(db *DB) *PairRepository {
	return &PairRepository{db: db}
}

// DistinctPriorities returns the set of priorities present among pairs,
// split into the "all" sentinel and numeric tiers sorted highest first.
// The result is cached until Invalidate is called.
func (r *PairRepository) DistinctPriorities(ctx context.Context) (models.PrioritySummary, error) {
	r.mu.Lock()
	if r.summary != nil {
		s := *r.summary
		r.mu.Unlock()
		return s, nil
	}
	r.mu.Unlock()

	rows, err := r.db.Q(ctx).Query(ctx, `SELECT DISTINCT priority FROM judgement_pairs`)
	if err != nil {
		return models.PrioritySummary{}, err
	}
	defer rows.Close()

	summary := models.PrioritySummary{}
	for rows.Next() {
		var priority string
		if err := rows.Scan(&priority); err != nil {
			return models.PrioritySummary{}, err
		}
		pair := models.JudgementPair{Priority: priority}
		if priority == models.PriorityAll {
			summary.HasAllTier = true
		} else if tier, ok := pair.NumericPriority(); ok {
			summary.NumericTiers = append(summary.NumericTiers, tier)
		}
	}
	if err := rows.Err(); err != nil {
		return models.PrioritySummary{}, err
	}
	sort.Sort(sort.Reverse(sort.IntSlice(summary.NumericTiers)))

	r.mu.Lock()
	r.summary = &summary
	r.mu.Unlock()

	return summary, nil
}

// Invalidate drops the cached priority summary. Must be called after every
// bulk replacement of the pair set.
func (r *PairRepository) Invalidate() {
	r.mu.Lock()
	r.summary = nil
	r.mu.Unlock()
}

// CountByPriority counts the pairs in one priority tier
func (r *PairRepository) CountByPriority(ctx context.Context, priority string) (int, error) {
	var count int
	err := r.db.Q(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM judgement_pairs WHERE priority = $1`, priority).Scan(&count)
	return count, err
}

// CountNotYetPreloaded counts the pairs for which the user has no judgement
// of any status, optionally restricted to one priority tier.
func (r *PairRepository) CountNotYetPreloaded(ctx context.Context, userID uuid.UUID, priority *string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM judgement_pairs p
		WHERE NOT EXISTS (
			SELECT 1 FROM judgements j
			WHERE j.user_id = $1 AND j.document_id = p.document_id AND j.query_id = p.query_id
		)`
	args := []any{userID}

	if priority != nil {
		query += ` AND p.priority = $2`
		args = append(args, *priority)
	}

	var count int
	err := r.db.Q(ctx).QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

// CountAlreadyPreloaded counts the pairs in one tier the user already has a
// judgement for.
func (r *PairRepository) CountAlreadyPreloaded(ctx context.Context, userID uuid.UUID, priority string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM judgement_pairs p
		WHERE p.priority = $2 AND EXISTS (
			SELECT 1 FROM judgements j
			WHERE j.user_id = $1 AND j.document_id = p.document_id AND j.query_id = p.query_id
		)`

	var count int
	err := r.db.Q(ctx).QueryRow(ctx, query, userID, priority).Scan(&count)
	return count, err
}

// CandidatesNotYetPreloaded returns up to limit pairs in the given tier the
// user has no judgement for, ordered by (document_id, query_id) so repeated
// runs against the same data allocate identically.
func (r *PairRepository) CandidatesNotYetPreloaded(ctx context.Context, userID uuid.UUID, priority string, limit int) ([]models.JudgementPair, error) {
	query := `
		SELECT p.document_id, p.query_id, p.priority
		FROM judgement_pairs p
		WHERE p.priority = $2 AND NOT EXISTS (
			SELECT 1 FROM judgements j
			WHERE j.user_id = $1 AND j.document_id = p.document_id AND j.query_id = p.query_id
		)
		ORDER BY p.document_id ASC, p.query_id ASC
		LIMIT $3`

	rows, err := r.db.Q(ctx).Query(ctx, query, userID, priority, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPairs(rows)
}

// CandidatesByPriority returns up to limit pairs in the given numeric tier,
// excluding an explicit key list, that have fewer than perPairTarget *
// targetFactor judgements across all users. Least-annotated pairs come
// first, tie-broken by (document_id, query_id).
func (r *PairRepository) CandidatesByPriority(ctx context.Context, priority int, excluding []models.PairKey, limit, targetFactor, perPairTarget int) ([]models.JudgementPair, error) {
	// excluded keys travel as two parallel arrays and are compared as
	// (document_id, query_id) tuples; ids are arbitrary strings, so any
	// concatenation with a separator could alias two distinct pairs
	excludeDocs := make([]string, len(excluding))
	excludeQueries := make([]string, len(excluding))
	for i, key := range excluding {
		excludeDocs[i] = key.DocumentID
		excludeQueries[i] = key.QueryID
	}

	query := `
		SELECT p.document_id, p.query_id, p.priority
		FROM judgement_pairs p
		LEFT JOIN judgements j
			ON j.document_id = p.document_id AND j.query_id = p.query_id
		WHERE p.priority = $1
			AND NOT EXISTS (
				SELECT 1 FROM unnest($2::text[], $3::text[]) AS e(document_id, query_id)
				WHERE e.document_id = p.document_id AND e.query_id = p.query_id
			)
		GROUP BY p.document_id, p.query_id, p.priority
		HAVING COUNT(j.id) < $4
		ORDER BY COUNT(j.id) ASC, p.document_id ASC, p.query_id ASC
		LIMIT $5`

	rows, err := r.db.Q(ctx).Query(ctx, query,
		strconv.Itoa(priority), excludeDocs, excludeQueries, perPairTarget*targetFactor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPairs(rows)
}

// ReplaceAll swaps out the entire pair set. Callers must run it inside a
// serializable transaction, and must call Invalidate again once that
// transaction commits: the drop here happens before commit, so a concurrent
// DistinctPriorities can repopulate the cache from the old rows.
func (r *PairRepository) ReplaceAll(ctx context.Context, pairs []models.JudgementPair) error {
	q := r.db.Q(ctx)

	if _, err := q.Exec(ctx, `DELETE FROM judgement_pairs`); err != nil {
		return err
	}

	insert := `
		INSERT INTO judgement_pairs (document_id, query_id, priority)
		VALUES ($1, $2, $3)`
	for _, pair := range pairs {
		if _, err := q.Exec(ctx, insert, pair.DocumentID, pair.QueryID, pair.Priority); err != nil {
			return err
		}
	}

	r.Invalidate()
	return nil
}

func scanPairs(rows pgx.Rows) ([]models.JudgementPair, error) {
	var pairs []models.JudgementPair
	for rows.Next() {
		var pair models.JudgementPair
		if err := rows.Scan(&pair.DocumentID, &pair.QueryID, &pair.Priority); err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, rows.Err()
}
