package service

import (
	"context"
	"errors"
	"strings"

	"drafthub/internal/article/model"
	"drafthub/internal/content"
	"drafthub/internal/session"
	"drafthub/pkg/apperr"
	"drafthub/pkg/logger"

	"github.com/google/uuid"
)

const snippetLength = 100

// Store is the persistence the service needs. *repository.ArticleRepository
// satisfies it.
type Store interface {
	Create(ctx context.Context, a *model.Article) (*model.Article, error)
	ListByAuthor(ctx context.Context, authorID string, filter model.StatusFilter) ([]model.Article, error)
	GetByID(ctx context.Context, id string) (*model.Article, error)
	Update(ctx context.Context, id, authorID string, f model.Fields) (*model.Article, error)
	Delete(ctx context.Context, id, authorID string) (int64, error)
}

// Publisher receives article changes after they are stored.
type Publisher interface {
	PublishArticle(eventType string, a *model.Article)
}

const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

type ArticleService struct {
	Repo Store
	Hub  Publisher
}

func NewArticleService(repo Store, hub Publisher) *ArticleService {
	return &ArticleService{Repo: repo, Hub: hub}
}

// CreateArticle stores a new article owned by the caller. Any owner the
// request might imply is ignored.
func (s *ArticleService) CreateArticle(ctx context.Context, caller *session.Identity, req model.CreateArticleRequest) (*model.Article, error) {
	const op = "article.create"
	if caller == nil {
		return nil, apperr.NotAuthenticated(op)
	}

	status := req.Status
	if status == "" {
		status = model.StatusDraft
	}
	if !status.Valid() {
		return nil, apperr.Validation(op, "status must be draft or published")
	}

	body := req.Content
	if req.Sections != nil {
		encoded, err := content.Encode(req.Sections, req.Theme)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, op, err)
		}
		body = encoded
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Untitled Article"
	}

	created, err := s.Repo.Create(ctx, &model.Article{
		ID:       uuid.NewString(),
		Title:    title,
		Content:  body,
		Status:   status,
		AuthorID: caller.UserID,
	})
	if err != nil {
		return nil, wrap(op, err)
	}

	s.publish(EventInsert, created)
	return created, nil
}

func (s *ArticleService) ListArticles(ctx context.Context, caller *session.Identity, filter model.StatusFilter) ([]model.Article, error) {
	const op = "article.list"
	if caller == nil {
		return nil, apperr.NotAuthenticated(op)
	}
	articles, err := s.Repo.ListByAuthor(ctx, caller.UserID, filter)
	if err != nil {
		return nil, wrap(op, err)
	}
	return articles, nil
}

// Summaries is ListArticles with a plain-text snippet added to each row.
func (s *ArticleService) Summaries(ctx context.Context, caller *session.Identity, filter model.StatusFilter) ([]model.ArticleSummary, error) {
	articles, err := s.ListArticles(ctx, caller, filter)
	if err != nil {
		return nil, err
	}
	out := make([]model.ArticleSummary, 0, len(articles))
	for _, a := range articles {
		out = append(out, model.ArticleSummary{Article: a, Snippet: content.Snippet(a.Content, snippetLength)})
	}
	return out, nil
}

// GetArticle reads any article by id, whoever owns it.
func (s *ArticleService) GetArticle(ctx context.Context, id string) (*model.Article, error) {
	const op = "article.get"
	if err := checkID(op, id); err != nil {
		return nil, err
	}
	a, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrap(op, err)
	}
	return a, nil
}

func (s *ArticleService) GetSections(ctx context.Context, id string) (*model.SectionsResponse, error) {
	a, err := s.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	sections, theme := content.Decode(a.Content)
	return &model.SectionsResponse{ArticleID: a.ID, Title: a.Title, Theme: theme, Sections: sections}, nil
}

func (s *ArticleService) UpdateArticle(ctx context.Context, caller *session.Identity, id string, req model.UpdateArticleRequest) (*model.Article, error) {
	const op = "article.update"
	if caller == nil {
		return nil, apperr.NotAuthenticated(op)
	}
	if err := checkID(op, id); err != nil {
		return nil, err
	}

	fields := model.Fields{Title: req.Title, Content: req.Content, Status: req.Status}
	if req.Status != nil && !req.Status.Valid() {
		return nil, apperr.Validation(op, "status must be draft or published")
	}
	if req.Sections != nil {
		encoded, err := content.Encode(req.Sections, req.Theme)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, op, err)
		}
		fields.Content = &encoded
	}
	if fields.Empty() {
		return nil, apperr.Validation(op, "no fields to update")
	}

	updated, err := s.Repo.Update(ctx, id, caller.UserID, fields)
	if err != nil {
		return nil, wrap(op, err)
	}

	s.publish(EventUpdate, updated)
	return updated, nil
}

// DeleteArticle removes the caller's article. Deleting twice is NotFound.
func (s *ArticleService) DeleteArticle(ctx context.Context, caller *session.Identity, id string) (bool, error) {
	const op = "article.delete"
	if caller == nil {
		return false, apperr.NotAuthenticated(op)
	}
	if err := checkID(op, id); err != nil {
		return false, err
	}

	n, err := s.Repo.Delete(ctx, id, caller.UserID)
	if err != nil {
		return false, wrap(op, err)
	}
	if n == 0 {
		return false, apperr.NotFound(op, "article "+id)
	}

	s.publish(EventDelete, &model.Article{ID: id, AuthorID: caller.UserID})
	return true, nil
}

func (s *ArticleService) publish(eventType string, a *model.Article) {
	if s.Hub == nil {
		return
	}
	s.Hub.PublishArticle(eventType, a)
	logger.Sugar.Debugf("Published %s for article %s", eventType, a.ID)
}

// checkID rejects ids that cannot name a stored article. The id column is a
// UUID, so anything else would fail in the database instead.
func checkID(op, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.NotFound(op, "article "+id)
	}
	return nil
}

// wrap tags storage failures as internal, leaving classified errors alone.
func wrap(op string, err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return err
	}
	return apperr.Wrap(apperr.KindInternal, op, err)
}
