// Package gemini is a Completer backed by the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/FranksOps/leadscout/internal/llm"
)

// ErrMissingAPIKey is returned by New when no key is configured.
var ErrMissingAPIKey = errors.New("gemini: api key is not set")

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-2.0-flash"

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string

	Temperature float32
	MaxTokens   int32
}

type Client struct {
	client *genai.Client
	model  string
	gen    *genai.GenerateContentConfig
}

var _ llm.Completer = (*Client)(nil)

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	temp := cfg.Temperature
	if temp == 0 {
		temp = 0.1
	}
	gen := &genai.GenerateContentConfig{
		CandidateCount: 1,
		Temperature:    genai.Ptr(temp),
	}
	if cfg.MaxTokens > 0 {
		gen.MaxOutputTokens = cfg.MaxTokens
	}
	return &Client{client: client, model: model, gen: gen}, nil
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), c.gen)
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}
