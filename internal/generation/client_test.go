package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"drafthub/internal/content"
	"drafthub/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpstream answers every completion with body and counts calls.
func fakeUpstream(t *testing.T, status int, body any) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req ChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "deepseek-chat", req.Model)
		assert.Len(t, req.Messages, 2)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func reply(content string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
}

func newTestClient(baseURL, key string) *Client {
	cfg := DefaultConfig(key)
	cfg.BaseURL = baseURL
	return NewClient(cfg)
}

func TestGenerateStructure(t *testing.T) {
	srv, calls := fakeUpstream(t, http.StatusOK, reply(`[{"title":"Introduction","content":""},{"title":"Key Concepts"}]`))
	c := newTestClient(srv.URL, "test-key")

	sections, err := c.GenerateStructure(context.Background(), "React Fundamentals")
	require.NoError(t, err)
	assert.Equal(t, []content.Section{
		{Title: "Introduction", Body: ""},
		{Title: "Key Concepts", Body: ""},
	}, sections)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestGenerateStructureBlankThemeMakesNoCall(t *testing.T) {
	srv, calls := fakeUpstream(t, http.StatusOK, reply(`[]`))
	c := newTestClient(srv.URL, "test-key")

	for _, theme := range []string{"", "   \t\n"} {
		_, err := c.GenerateStructure(context.Background(), theme)
		assert.True(t, errors.Is(err, apperr.ErrValidation), "theme %q: %v", theme, err)
	}
	assert.EqualValues(t, 0, atomic.LoadInt32(calls))
}

func TestGenerateWithoutKeyIsConfigurationError(t *testing.T) {
	srv, calls := fakeUpstream(t, http.StatusOK, reply(`[]`))
	c := newTestClient(srv.URL, "")

	_, err := c.GenerateStructure(context.Background(), "Go")
	assert.True(t, errors.Is(err, apperr.ErrConfiguration))

	_, err = c.GenerateAdvice(context.Background(), "Intro", "Go")
	assert.True(t, errors.Is(err, apperr.ErrConfiguration))
	assert.EqualValues(t, 0, atomic.LoadInt32(calls))
}

func TestGenerateStructureRejectsBadReplies(t *testing.T) {
	tests := []struct {
		name   string
		reply  string
		reason Reason
	}{
		{"empty array", `[]`, ReasonEmpty},
		{"not json", `Here are some sections: Intro, Body`, ReasonMalformedJSON},
		{"object", `{"title":"Intro"}`, ReasonNotArray},
		{"title number", `[{"title":1,"content":""}]`, ReasonTitleNotText},
		{"element not object", `["Intro"]`, ReasonTitleNotText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeUpstream(t, http.StatusOK, reply(tt.reply))
			c := newTestClient(srv.URL, "test-key")

			_, err := c.GenerateStructure(context.Background(), "Go")
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperr.ErrGeneration))

			var rej *RejectionError
			require.True(t, errors.As(err, &rej))
			assert.Equal(t, tt.reason, rej.Reason)
		})
	}
}

func TestParseSectionsKeepsNonStringContent(t *testing.T) {
	sections, err := ParseSections(`[
		{"title":"Intro","content":{"a":1}},
		{"title":"Count","content":3},
		{"title":"Flag","content":true},
		{"title":"List","content":["x","y"]},
		{"title":"Missing"},
		{"title":"Null","content":null}
	]`)
	require.NoError(t, err)

	bodies := make([]string, len(sections))
	for i, s := range sections {
		bodies[i] = s.Body
	}
	assert.Equal(t, []string{`{"a":1}`, "3", "true", `["x","y"]`, "", ""}, bodies)
}

func TestGenerateStructureUpstreamError(t *testing.T) {
	srv, _ := fakeUpstream(t, http.StatusUnauthorized, map[string]any{
		"error": map[string]any{"message": "Authentication Fails, Your api key is invalid", "type": "authentication_error"},
	})
	c := newTestClient(srv.URL, "test-key")

	_, err := c.GenerateStructure(context.Background(), "Go")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrGeneration))
	assert.Contains(t, err.Error(), "Authentication Fails")
}

func TestGenerateStructureUpstreamErrorWithoutMessage(t *testing.T) {
	srv, _ := fakeUpstream(t, http.StatusServiceUnavailable, map[string]any{})
	c := newTestClient(srv.URL, "test-key")

	_, err := c.GenerateStructure(context.Background(), "Go")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Service Unavailable")
}

func TestGenerateStructureNoChoices(t *testing.T) {
	srv, _ := fakeUpstream(t, http.StatusOK, map[string]any{"choices": []any{}})
	c := newTestClient(srv.URL, "test-key")

	_, err := c.GenerateStructure(context.Background(), "Go")
	assert.True(t, errors.Is(err, apperr.ErrGeneration))
}

func TestGenerateAdvice(t *testing.T) {
	srv, calls := fakeUpstream(t, http.StatusOK, reply("  Start with a hook.\n"))
	c := newTestClient(srv.URL, "test-key")

	advice, err := c.GenerateAdvice(context.Background(), "Introduction", "Go")
	require.NoError(t, err)
	assert.Equal(t, "Start with a hook.", advice)

	_, err = c.GenerateAdvice(context.Background(), "", "Go")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}
