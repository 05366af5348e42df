package models

import (
	"strings"
	"time"
)

// DocumentVersion is an immutable point-in-time snapshot of a document's
// text. Judgements reference a specific version so later edits never
// retroactively alter already-created judgements.
type DocumentVersion struct {
	ID         int64     `json:"id"`
	DocumentID string    `json:"document_id"`
	Version    int       `json:"version"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// AnnotationParts splits the document text into the units the annotator
// marks positions against.
func (v DocumentVersion) AnnotationParts() []string {
	return strings.Split(v.Text, " ")
}

// QueryVersion is an immutable point-in-time snapshot of a query's text.
type QueryVersion struct {
	ID        int64     `json:"id"`
	QueryID   string    `json:"query_id"`
	Version   int       `json:"version"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
