package repository

import (
	"context"
	"database/sql"
	"errors"

	"drafthub/internal/identity/model"
	"drafthub/pkg/apperr"
	"drafthub/pkg/logger"
)

type ProfileRepository struct {
	DB *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

func (r *ProfileRepository) Exists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", userID).Scan(&exists)
	if err != nil {
		logger.Sugar.Errorf("Failed to check profile for user %s: %v", userID, err)
	}
	return exists, err
}

func (r *ProfileRepository) Insert(ctx context.Context, p model.Profile) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO users (id, name, email, department, position, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		p.ID, p.Name, p.Email, p.Department, p.Position)
	if err != nil {
		logger.Sugar.Errorf("Failed to create profile for user %s: %v", p.ID, err)
	}
	return err
}

func (r *ProfileRepository) Get(ctx context.Context, userID string) (*model.Profile, error) {
	var p model.Profile
	err := r.DB.QueryRowContext(ctx, "SELECT id, name, email, department, position, created_at FROM users WHERE id = $1", userID).
		Scan(&p.ID, &p.Name, &p.Email, &p.Department, &p.Position, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("profile.get", "profile "+userID)
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get profile for user %s: %v", userID, err)
		return nil, err
	}
	return &p, nil
}
