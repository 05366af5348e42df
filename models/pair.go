package models

import "strconv"

// PriorityAll is the sentinel priority meaning "give a proportional slice of
// this pair to every annotator regardless of numeric tiers".
const PriorityAll = "all"

// JudgementPair is one (document, query) unit of annotation work. Pairs are
// replaced in bulk by import and never mutated afterwards.
type JudgementPair struct {
	DocumentID string `json:"document_id"`
	QueryID    string `json:"query_id"`
	Priority   string `json:"priority"`
}

// NumericPriority returns the numeric tier of the pair, or false for the
// "all" sentinel (or an unparseable priority).
func (p JudgementPair) NumericPriority() (int, bool) {
	if p.Priority == PriorityAll {
		return 0, false
	}
	n, err := strconv.Atoi(p.Priority)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Key returns the identity of the pair.
func (p JudgementPair) Key() PairKey {
	return PairKey{DocumentID: p.DocumentID, QueryID: p.QueryID}
}

// PairKey identifies a JudgementPair by its composite key.
type PairKey struct {
	DocumentID string `json:"document_id"`
	QueryID    string `json:"query_id"`
}

// PrioritySummary is the distinct set of priorities present among pairs,
// split into the "all" sentinel and numeric tiers sorted highest first.
type PrioritySummary struct {
	HasAllTier   bool
	NumericTiers []int
}
