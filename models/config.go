package models

import "time"

// Config is the singleton annotation configuration row. The allocator only
// reads it; mutation goes through the admin endpoints.
type Config struct {
	AnnotationTargetPerUser           int           `json:"annotation_target_per_user"`
	AnnotationTargetPerJudgPair       int           `json:"annotation_target_per_judg_pair"`
	JudgementMode                     JudgementMode `json:"judgement_mode"`
	RotateDocumentText                bool          `json:"rotate_document_text"`
	AnnotationTargetToRequireFeedback int           `json:"annotation_target_to_require_feedback"`
	UpdatedAt                         time.Time     `json:"updated_at"`
}
