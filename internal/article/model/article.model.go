package model

import (
	"time"

	"drafthub/internal/content"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// StatusFilter narrows List. FilterAll returns every status.
type StatusFilter string

const (
	FilterAll       StatusFilter = "all"
	FilterDraft     StatusFilter = StatusFilter(StatusDraft)
	FilterPublished StatusFilter = StatusFilter(StatusPublished)
)

// ParseFilter accepts "", "all", "draft" and "published".
func ParseFilter(s string) (StatusFilter, bool) {
	switch StatusFilter(s) {
	case "", FilterAll:
		return FilterAll, true
	case FilterDraft, FilterPublished:
		return StatusFilter(s), true
	}
	return "", false
}

type Article struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"` // encoded section list, see package content
	Status    Status    `json:"status"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Fields is a partial update. Nil fields are left unchanged.
type Fields struct {
	Title   *string
	Content *string
	Status  *Status
}

func (f Fields) Empty() bool {
	return f.Title == nil && f.Content == nil && f.Status == nil
}

// CreateArticleRequest has no author field; the owner always comes from the
// caller's session. Sections, when present, replace Content.
type CreateArticleRequest struct {
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Sections []content.Section `json:"sections,omitempty"`
	Theme    string            `json:"theme,omitempty"`
	Status   Status            `json:"status"`
}

type UpdateArticleRequest struct {
	Title    *string           `json:"title,omitempty"`
	Content  *string           `json:"content,omitempty"`
	Sections []content.Section `json:"sections,omitempty"`
	Theme    string            `json:"theme,omitempty"`
	Status   *Status           `json:"status,omitempty"`
}

// ArticleSummary is a list row: the full article plus a plain-text preview.
type ArticleSummary struct {
	Article
	Snippet string `json:"snippet"`
}

type SectionsResponse struct {
	ArticleID string            `json:"article_id"`
	Title     string            `json:"title"`
	Theme     string            `json:"theme,omitempty"`
	Sections  []content.Section `json:"sections"`
}

type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}
