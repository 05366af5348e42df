package repository

import (
	"context"

	"fira-backend/models"

	"github.com/google/uuid"
)

// UserRepository handles database operations for annotator accounts
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (subject, email, name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := r.db.Q(ctx).QueryRow(ctx, query, user.Subject, user.Email, user.Name).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return err
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, subject, email, name, created_at, updated_at
		FROM users
		WHERE id = $1`

	err := r.db.Q(ctx).QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Subject,
		&user.Email,
		&user.Name,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetBySubject retrieves a user by identity provider subject
func (r *UserRepository) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, subject, email, name, created_at, updated_at
		FROM users
		WHERE subject = $1`

	err := r.db.Q(ctx).QueryRow(ctx, query, subject).Scan(
		&user.ID,
		&user.Subject,
		&user.Email,
		&user.Name,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return user, nil
}
