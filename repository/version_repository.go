package repository

import (
	"context"

	"fira-backend/models"
)

// VersionRepository handles database operations for immutable document and
// query text snapshots. Importing new text creates the next version; old
// versions are never touched so existing judgements keep the text they were
// created against.
type VersionRepository struct {
	db *DB
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(db *DB) *VersionRepository {
	return &VersionRepository{db: db}
}

// CurrentDocumentVersion retrieves the highest version snapshot of a document
func (r *VersionRepository) CurrentDocumentVersion(ctx context.Context, documentID string) (*models.DocumentVersion, error) {
	v := &models.DocumentVersion{}
	query := `
		SELECT id, document_id, version, text, created_at
		FROM document_versions
		WHERE document_id = $1
		ORDER BY version DESC
		LIMIT 1`

	err := r.db.Q(ctx).QueryRow(ctx, query, documentID).Scan(
		&v.ID, &v.DocumentID, &v.Version, &v.Text, &v.CreatedAt)
	if err != nil {
		return nil, err
	}

	return v, nil
}

// CurrentQueryVersion retrieves the highest version snapshot of a query
func (r *VersionRepository) CurrentQueryVersion(ctx context.Context, queryID string) (*models.QueryVersion, error) {
	v := &models.QueryVersion{}
	query := `
		SELECT id, query_id, version, text, created_at
		FROM query_versions
		WHERE query_id = $1
		ORDER BY version DESC
		LIMIT 1`

	err := r.db.Q(ctx).QueryRow(ctx, query, queryID).Scan(
		&v.ID, &v.QueryID, &v.Version, &v.Text, &v.CreatedAt)
	if err != nil {
		return nil, err
	}

	return v, nil
}

// CreateDocumentVersion appends a new version for the document
func (r *VersionRepository) CreateDocumentVersion(ctx context.Context, documentID, text string) (*models.DocumentVersion, error) {
	v := &models.DocumentVersion{DocumentID: documentID, Text: text}
	query := `
		INSERT INTO document_versions (document_id, version, text)
		VALUES ($1, (
			SELECT COALESCE(MAX(version), 0) + 1 FROM document_versions WHERE document_id = $1
		), $2)
		RETURNING id, version, created_at`

	err := r.db.Q(ctx).QueryRow(ctx, query, documentID, text).
		Scan(&v.ID, &v.Version, &v.CreatedAt)
	if err != nil {
		return nil, err
	}

	return v, nil
}

// CreateQueryVersion appends a new version for the query
func (r *VersionRepository) CreateQueryVersion(ctx context.Context, queryID, text string) (*models.QueryVersion, error) {
	v := &models.QueryVersion{QueryID: queryID, Text: text}
	query := `
		INSERT INTO query_versions (query_id, version, text)
		VALUES ($1, (
			SELECT COALESCE(MAX(version), 0) + 1 FROM query_versions WHERE query_id = $1
		), $2)
		RETURNING id, version, created_at`

	err := r.db.Q(ctx).QueryRow(ctx, query, queryID, text).
		Scan(&v.ID, &v.Version, &v.CreatedAt)
	if err != nil {
		return nil, err
	}

	return v, nil
}
