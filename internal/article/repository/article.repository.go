package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"drafthub/internal/article/model"
	"drafthub/pkg/apperr"
	"drafthub/pkg/logger"
)

const articleColumns = "id, title, content, status, author_id, created_at, updated_at"

type ArticleRepository struct {
	DB *sql.DB
}

func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{DB: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(s scanner) (*model.Article, error) {
	var a model.Article
	var status string
	if err := s.Scan(&a.ID, &a.Title, &a.Content, &status, &a.AuthorID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Status = model.Status(status)
	return &a, nil
}

func (r *ArticleRepository) Create(ctx context.Context, a *model.Article) (*model.Article, error) {
	row := r.DB.QueryRowContext(ctx, `INSERT INTO articles (id, title, content, status, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING `+articleColumns,
		a.ID, a.Title, a.Content, string(a.Status), a.AuthorID)
	created, err := scanArticle(row)
	if err != nil {
		logger.Sugar.Errorf("Failed to create article: %v", err)
		return nil, err
	}
	return created, nil
}

// ListByAuthor returns the author's articles, most recently updated first.
func (r *ArticleRepository) ListByAuthor(ctx context.Context, authorID string, filter model.StatusFilter) ([]model.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE author_id = $1`
	args := []any{authorID}
	if filter != model.FilterAll {
		query += ` AND status = $2`
		args = append(args, string(filter))
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Sugar.Errorf("Failed to list articles for user %s: %v", authorID, err)
		return nil, err
	}
	defer rows.Close()

	articles := []model.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			logger.Sugar.Errorf("Failed to scan article for user %s: %v", authorID, err)
			return nil, err
		}
		articles = append(articles, *a)
	}
	if err := rows.Err(); err != nil {
		logger.Sugar.Errorf("Failed to iterate articles for user %s: %v", authorID, err)
		return nil, err
	}
	return articles, nil
}

func (r *ArticleRepository) GetByID(ctx context.Context, id string) (*model.Article, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("article.get", "article "+id)
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get article %s: %v", id, err)
		return nil, err
	}
	return a, nil
}

// Update applies the non-nil fields to the author's article and bumps
// updated_at. A missing row, or one owned by someone else, is NotFound.
func (r *ArticleRepository) Update(ctx context.Context, id, authorID string, f model.Fields) (*model.Article, error) {
	var sets []string
	var args []any
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if f.Title != nil {
		add("title", *f.Title)
	}
	if f.Content != nil {
		add("content", *f.Content)
	}
	if f.Status != nil {
		add("status", string(*f.Status))
	}
	if len(sets) == 0 {
		return nil, apperr.Validation("article.update", "no fields to update")
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id, authorID)

	query := fmt.Sprintf(`UPDATE articles SET %s WHERE id = $%d AND author_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), articleColumns)

	a, err := scanArticle(r.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("article.update", "article "+id)
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to update article %s: %v", id, err)
		return nil, err
	}
	return a, nil
}

func (r *ArticleRepository) Delete(ctx context.Context, id, authorID string) (int64, error) {
	result, err := r.DB.ExecContext(ctx, "DELETE FROM articles WHERE id = $1 AND author_id = $2", id, authorID)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete article %s: %v", id, err)
		return 0, err
	}
	return result.RowsAffected()
}
