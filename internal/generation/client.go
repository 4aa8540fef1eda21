package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"drafthub/internal/content"
	"drafthub/pkg/apperr"
	"drafthub/pkg/logger"
)

const (
	structureSystemPrompt = "You are an assistant that proposes blog article structures. Answer in JSON only."
	adviceSystemPrompt    = "You are an assistant that gives writing advice."
)

// Client calls an OpenAI-compatible chat completion endpoint. Each call is a
// single request with no retry.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	def := DefaultConfig(cfg.APIKey)
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.apiKey != "" }

// GenerateStructure asks the model for about five sections for theme.
func (c *Client) GenerateStructure(ctx context.Context, theme string) ([]content.Section, error) {
	const op = "generation.structure"
	if strings.TrimSpace(theme) == "" {
		return nil, apperr.Validation(op, "theme is required")
	}
	if !c.Configured() {
		return nil, apperr.Configuration(op, "generation API key is not set")
	}

	userPrompt := fmt.Sprintf(`Propose about 5 section headings for an article on the theme %q.
Reply strictly with a JSON array in this shape and nothing else:
[
  {"title": "Section title 1", "content": ""},
  {"title": "Section title 2", "content": ""}
]`, theme)

	reply, err := c.complete(ctx, op, structureSystemPrompt, userPrompt, 2000)
	if err != nil {
		return nil, err
	}

	sections, err := ParseSections(reply)
	if err != nil {
		logger.Sugar.Errorf("Unusable structure reply for theme %q: %v (%q)", theme, err, reply)
		return nil, apperr.Wrap(apperr.KindGeneration, op, err)
	}
	return sections, nil
}

// GenerateAdvice returns free-text writing advice for one section.
func (c *Client) GenerateAdvice(ctx context.Context, sectionTitle, theme string) (string, error) {
	const op = "generation.advice"
	if strings.TrimSpace(sectionTitle) == "" || strings.TrimSpace(theme) == "" {
		return "", apperr.Validation(op, "section title and theme are required")
	}
	if !c.Configured() {
		return "", apperr.Configuration(op, "generation API key is not set")
	}

	userPrompt := fmt.Sprintf(`For an article on the theme %q, give advice on writing the section %q.
Briefly cover how to write it, what to include, and what to watch out for.`, theme, sectionTitle)

	return c.complete(ctx, op, adviceSystemPrompt, userPrompt, 1000)
}

func (c *Client) complete(ctx context.Context, op, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	startTime := time.Now()

	reqBody := ChatRequest{
		Model: c.model,
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.7,
		MaxTokens:   maxTokens,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", apperr.Wrap(apperr.KindGeneration, op, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", apperr.Wrap(apperr.KindGeneration, op, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.KindGeneration, op, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Wrap(apperr.KindGeneration, op, fmt.Errorf("read response: %w", err))
	}

	var chatResp ChatResponse
	decodeErr := json.Unmarshal(body, &chatResp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && chatResp.Error != nil && chatResp.Error.Message != "" {
			msg = chatResp.Error.Message
		}
		logger.Sugar.Errorf("Chat completion failed with status %d: %s", resp.StatusCode, string(body))
		return "", apperr.Generation(op, "upstream error: %s", msg)
	}
	if decodeErr != nil {
		return "", apperr.Wrap(apperr.KindGeneration, op, fmt.Errorf("parse response: %w", decodeErr))
	}
	if len(chatResp.Choices) == 0 {
		return "", apperr.Generation(op, "no completion returned")
	}

	reply := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	logger.Sugar.Debugf("Chat completion %s finished in %v (%d tokens)", op, time.Since(startTime), chatResp.Usage.TotalTokens)
	return reply, nil
}
