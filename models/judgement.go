package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// JudgementStatus represents the lifecycle state of a judgement
type JudgementStatus string

const (
	StatusToJudge JudgementStatus = "TO_JUDGE"
	StatusJudged  JudgementStatus = "JUDGED"
)

// JudgementMode is the annotation mode snapshotted from config at creation time
type JudgementMode string

const (
	ModeScoring JudgementMode = "SCORING"
	ModeRanking JudgementMode = "RANKING"
)

// RelevanceLevel is the graded relevance an annotator assigns to a pair
type RelevanceLevel string

const (
	RelevanceNotRelevant   RelevanceLevel = "0_NOT_RELEVANT"
	RelevanceTopicRelevant RelevanceLevel = "1_TOPIC_RELEVANT_DOES_NOT_ANSWER"
	RelevanceGoodAnswer    RelevanceLevel = "2_GOOD_ANSWER"
	RelevancePerfectAnswer RelevanceLevel = "3_PERFECT_ANSWER"
)

// Judgement is one allocation of a JudgementPair to one annotator. The
// relevance fields stay null until the annotator submits; rotate and mode are
// fixed at creation and never change.
type Judgement struct {
	ID                int64           `json:"id"`
	UserID            uuid.UUID       `json:"user_id"`
	DocumentID        string          `json:"document_id"`
	QueryID           string          `json:"query_id"`
	DocumentVersionID int64           `json:"document_version_id"`
	QueryVersionID    int64           `json:"query_version_id"`
	Status            JudgementStatus `json:"status"`
	Rotate            bool            `json:"rotate"`
	Mode              JudgementMode   `json:"mode"`

	RelevanceLevel     *RelevanceLevel `json:"relevance_level"`
	RelevancePositions []int           `json:"relevance_positions"`
	DurationUsedMs     *int64          `json:"duration_used_ms"`
	JudgedAt           *time.Time      `json:"judged_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// OpenJudgement is the annotator-facing view of one pending judgement, with
// the document already split (and possibly rotated) into annotation parts.
type OpenJudgement struct {
	ID                 int64         `json:"id"`
	QueryText          string        `json:"queryText"`
	DocAnnotationParts []string      `json:"docAnnotationParts"`
	Mode               JudgementMode `json:"mode"`
}

// JudgementWithText joins a judgement with the text snapshots it was
// created against.
type JudgementWithText struct {
	Judgement    Judgement
	DocumentText string
	QueryText    string
}

// DocumentParts splits the document snapshot into annotation parts, in
// stored (unrotated) order.
func (j JudgementWithText) DocumentParts() []string {
	return strings.Split(j.DocumentText, " ")
}

// RotationCounts are the global counts of judgements grouped by rotate flag
type RotationCounts struct {
	Rotated    int
	NotRotated int
}

// Submission carries the annotator's answer for one judgement
type Submission struct {
	RelevanceLevel     RelevanceLevel `json:"relevanceLevel"`
	RelevancePositions []int          `json:"relevancePositions"`
	DurationUsedMs     int64          `json:"durationUsedToJudgeMs"`
}
