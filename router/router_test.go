package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	articleHandler "drafthub/internal/article"
	"drafthub/internal/article/model"
	"drafthub/internal/article/service"
	"drafthub/internal/generation"
	"drafthub/internal/identity"
	identityModel "drafthub/internal/identity/model"
	"drafthub/pkg/apperr"
	"drafthub/socket"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/docgen"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("router-test-secret-router-test-secret")

// fakeProvider issues real HS256 tokens so requests pass the auth middleware.
type fakeProvider struct {
	mu       sync.Mutex
	accounts map[string]*identityModel.Account // by email
}

func (p *fakeProvider) token(id, email string) string {
	s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": id, "email": email, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(secret)
	return s
}

func (p *fakeProvider) SignUp(_ context.Context, email, _, name string) (*identityModel.Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.accounts[email]; ok {
		return nil, errors.New("User already registered")
	}
	id := "00000000-0000-0000-0000-00000000000" + string(rune('1'+len(p.accounts)))
	a := &identityModel.Account{ID: id, Email: email, Name: name, AccessToken: p.token(id, email)}
	p.accounts[email] = a
	return a, nil
}

func (p *fakeProvider) SignIn(_ context.Context, email, _ string) (*identityModel.Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.accounts[email]
	if !ok {
		return nil, errors.New("Invalid login credentials")
	}
	return a, nil
}

func (p *fakeProvider) SignOut(context.Context, string) error { return nil }

func (p *fakeProvider) GetUser(_ context.Context, token string) (*identityModel.Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, a := range p.accounts {
		if a.AccessToken == token {
			return a, nil
		}
	}
	return nil, errors.New("invalid JWT")
}

// staticProfiles reports every user as an existing editorial writer.
type staticProfiles struct{}

func (staticProfiles) Exists(context.Context, string) (bool, error)         { return true, nil }
func (staticProfiles) Insert(context.Context, identityModel.Profile) error { return nil }
func (staticProfiles) Get(_ context.Context, id string) (*identityModel.Profile, error) {
	dept, pos := "Editorial", "Writer"
	return &identityModel.Profile{ID: id, Department: &dept, Position: &pos}, nil
}

// memStore mirrors the repository's owner scoping and ordering.
type memStore struct {
	mu   sync.Mutex
	rows map[string]model.Article
	now  time.Time
}

func (m *memStore) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

func (m *memStore) Create(_ context.Context, a *model.Article) (*model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := *a
	row.CreatedAt = m.tick()
	row.UpdatedAt = row.CreatedAt
	m.rows[row.ID] = row
	return &row, nil
}

func (m *memStore) ListByAuthor(_ context.Context, authorID string, f model.StatusFilter) ([]model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Article{}
	for _, a := range m.rows {
		if a.AuthorID == authorID && (f == model.FilterAll || string(a.Status) == string(f)) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, apperr.NotFound("article.get", "article "+id)
	}
	return &a, nil
}

func (m *memStore) Update(_ context.Context, id, authorID string, f model.Fields) (*model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok || a.AuthorID != authorID {
		return nil, apperr.NotFound("article.update", "article "+id)
	}
	if f.Title != nil {
		a.Title = *f.Title
	}
	if f.Content != nil {
		a.Content = *f.Content
	}
	if f.Status != nil {
		a.Status = *f.Status
	}
	a.UpdatedAt = m.tick()
	m.rows[id] = a
	return &a, nil
}

func (m *memStore) Delete(_ context.Context, id, authorID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.rows[id]; !ok || a.AuthorID != authorID {
		return 0, nil
	}
	delete(m.rows, id)
	return 1, nil
}

type testApp struct {
	server *httptest.Server
	hub    *socket.Hub
	router chi.Router
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := socket.NewHub(nil)
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	store := &memStore{rows: map[string]model.Article{}, now: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	r := Setup(Deps{
		Articles:   articleHandler.NewArticleHandler(service.NewArticleService(store, hub)),
		Identity:   identity.NewHandler(identity.NewService(&fakeProvider{accounts: map[string]*identityModel.Account{}}, staticProfiles{})),
		Generation: generation.NewHandler(generation.NewClient(generation.Config{})),
		Hub:        hub,
		JWTSecret:  secret,
	})
	server := httptest.NewServer(r)
	t.Cleanup(func() {
		server.Close()
		cancel()
		<-done
	})
	return &testApp{server: server, hub: hub, router: r}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

func TestArticleLifecycle(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.do(t, http.MethodPost, "/api/auth/register", "", identityModel.RegisterRequest{
		Email: "ana@example.com", Password: "correct horse", Name: "Ana",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = app.do(t, http.MethodPost, "/api/auth/login", "", identityModel.LoginRequest{
		Email: "ana@example.com", Password: "correct horse",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	sess := decode[identityModel.SessionResponse](t, body)
	require.NotEmpty(t, sess.AccessToken)
	token := sess.AccessToken

	// a client-supplied author_id is ignored
	resp, body = app.do(t, http.MethodPost, "/api/articles", token, map[string]any{
		"title": "Field notes", "content": "first draft", "author_id": "mallory",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := decode[model.Article](t, body)
	assert.Equal(t, sess.UserID, created.AuthorID)
	assert.Equal(t, model.StatusDraft, created.Status)

	resp, body = app.do(t, http.MethodGet, "/api/articles?status=all", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]model.ArticleSummary](t, body)
	require.Len(t, list, 1)
	assert.Equal(t, "first draft", list[0].Snippet)
	assert.Equal(t, "first draft", list[0].Content)
	assert.Equal(t, sess.UserID, list[0].AuthorID)
	assert.Equal(t, created.ID, list[0].ID)

	resp, body = app.do(t, http.MethodPatch, "/api/articles/"+created.ID, token, map[string]string{"status": "published"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = app.do(t, http.MethodGet, "/api/articles/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[model.Article](t, body)
	assert.Equal(t, model.StatusPublished, got.Status)
	assert.Equal(t, "Field notes", got.Title)

	resp, body = app.do(t, http.MethodGet, "/api/articles?status=draft", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, body = app.do(t, http.MethodGet, "/api/articles/"+created.ID+"/markdown", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/markdown; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "# Field notes\n\n## Content\n\nfirst draft\n", string(body))

	resp, body = app.do(t, http.MethodDelete, "/api/articles/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"deleted":true}`, string(body))

	resp, body = app.do(t, http.MethodGet, "/api/articles/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Resource not found.", decode[map[string]string](t, body)["status"])
}

func TestOtherUsersCannotModify(t *testing.T) {
	app := newTestApp(t)

	tokens := map[string]string{}
	for _, email := range []string{"ana@example.com", "bo@example.com"} {
		_, body := app.do(t, http.MethodPost, "/api/auth/register", "", identityModel.RegisterRequest{Email: email, Password: "pw-123456"})
		tokens[email] = decode[identityModel.SessionResponse](t, body).AccessToken
	}

	_, body := app.do(t, http.MethodPost, "/api/articles", tokens["ana@example.com"], map[string]string{"title": "mine"})
	id := decode[model.Article](t, body).ID

	resp, _ := app.do(t, http.MethodPatch, "/api/articles/"+id, tokens["bo@example.com"], map[string]string{"title": "stolen"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = app.do(t, http.MethodDelete, "/api/articles/"+id, tokens["bo@example.com"], nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// reads are not owner-scoped
	resp, body = app.do(t, http.MethodGet, "/api/articles/"+id, tokens["bo@example.com"], nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "mine", decode[model.Article](t, body).Title)

	resp, body = app.do(t, http.MethodGet, "/api/articles", tokens["bo@example.com"], nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestRequestErrors(t *testing.T) {
	app := newTestApp(t)
	_, body := app.do(t, http.MethodPost, "/api/auth/register", "", identityModel.RegisterRequest{Email: "ana@example.com", Password: "pw-123456"})
	token := decode[identityModel.SessionResponse](t, body).AccessToken

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
	}{
		{"no token", http.MethodGet, "/api/articles", "", nil, http.StatusUnauthorized},
		{"bad filter", http.MethodGet, "/api/articles?status=archived", token, nil, http.StatusBadRequest},
		{"bad status", http.MethodPost, "/api/articles", token, map[string]string{"status": "archived"}, http.StatusBadRequest},
		{"empty update", http.MethodPatch, "/api/articles/9b2f6c1e-3d4a-4f5b-8c7d-0e1f2a3b4c5d", token, map[string]string{}, http.StatusBadRequest},
		{"malformed id", http.MethodGet, "/api/articles/not-a-uuid", token, nil, http.StatusNotFound},
		{"malformed id sections", http.MethodGet, "/api/articles/not-a-uuid/sections", token, nil, http.StatusNotFound},
		{"malformed id update", http.MethodPatch, "/api/articles/not-a-uuid", token, map[string]string{"title": "x"}, http.StatusNotFound},
		{"malformed id delete", http.MethodDelete, "/api/articles/not-a-uuid", token, nil, http.StatusNotFound},
		{"duplicate register", http.MethodPost, "/api/auth/register", "", identityModel.RegisterRequest{Email: "ana@example.com", Password: "pw-123456"}, http.StatusUnauthorized},
		{"bad login", http.MethodPost, "/api/auth/login", "", identityModel.LoginRequest{Email: "nobody@example.com", Password: "x"}, http.StatusUnauthorized},
		{"blank theme", http.MethodPost, "/api/generate/structure", token, generation.StructureRequest{Theme: "  "}, http.StatusBadRequest},
		{"no generation key", http.MethodPost, "/api/generate/structure", token, generation.StructureRequest{Theme: "Go"}, http.StatusInternalServerError},
		{"health", http.MethodGet, "/healthz", "", nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := app.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(body))
		})
	}
}

func TestMe(t *testing.T) {
	app := newTestApp(t)
	_, body := app.do(t, http.MethodPost, "/api/auth/register", "", identityModel.RegisterRequest{Email: "ana@example.com", Password: "pw-123456", Name: "Ana"})
	token := decode[identityModel.SessionResponse](t, body).AccessToken

	resp, body := app.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	me := decode[map[string]string](t, body)
	assert.Equal(t, "ana@example.com", me["email"])
	assert.Equal(t, "Ana", me["name"])
	assert.Equal(t, "Editorial", me["department"])
	assert.Equal(t, "Writer", me["position"])

	resp, _ = app.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestChangeFeedOverWebsocket(t *testing.T) {
	app := newTestApp(t)
	_, body := app.do(t, http.MethodPost, "/api/auth/register", "", identityModel.RegisterRequest{Email: "ana@example.com", Password: "pw-123456"})
	token := decode[identityModel.SessionResponse](t, body).AccessToken

	wsURL := "ws" + strings.TrimPrefix(app.server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() socket.Event {
		var ev socket.Event
		conn.SetReadDeadline(time.Now().Add(time.Second))
		require.NoError(t, conn.ReadJSON(&ev))
		return ev
	}
	require.Equal(t, socket.ReadyType, read().Type)

	_, body = app.do(t, http.MethodPost, "/api/articles", token, map[string]string{"title": "live"})
	created := decode[model.Article](t, body)

	ev := read()
	assert.Equal(t, socket.InsertType, ev.Type)
	assert.Equal(t, created.ID, ev.ArticleID)

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(app.server.URL, "http")+"/ws", nil)
	assert.ErrorIs(t, err, websocket.ErrBadHandshake)
}

func TestRoutesDoc(t *testing.T) {
	app := newTestApp(t)
	doc := docgen.MarkdownRoutesDoc(app.router, docgen.MarkdownOpts{ProjectPath: "drafthub"})
	assert.Contains(t, doc, "{articleID}")
	assert.Contains(t, doc, "/structure")
	assert.Contains(t, doc, "/healthz")
}
