// Package gemini implements the AI collaborator on top of the Google Gemini
// API. Generation configuration is fixed at construction: temperature,
// top-k/top-p, output token cap and content-safety thresholds are service
// constants, never tunable per request.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// ErrNotConfigured is returned by Generate when no API key was provided. The
// daemon still starts without a key; tasks fail with this cause instead.
var ErrNotConfigured = errors.New("ai service is not configured: missing API key")

const DefaultModel = "gemini-1.5-flash-latest"

type Config struct {
	APIKey          string
	Model           string
	Temperature     float32
	TopK            float32
	TopP            float32
	MaxOutputTokens int32
}

// DefaultConfig returns the fixed generation configuration.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:          apiKey,
		Model:           DefaultModel,
		Temperature:     0.7,
		TopK:            1,
		TopP:            1,
		MaxOutputTokens: 8192,
	}
}

// Client is a thin wrapper around the genai SDK that satisfies
// diag.Collaborator.
type Client struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// New creates a Gemini client. A blank API key yields a degraded client whose
// Generate always returns ErrNotConfigured; construction itself never fails
// on a missing key so the surrounding server can come up and report the
// problem per task.
func New(ctx context.Context, cfg Config) (*Client, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	generateConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(cfg.Temperature),
		TopK:            genai.Ptr(cfg.TopK),
		TopP:            genai.Ptr(cfg.TopP),
		MaxOutputTokens: cfg.MaxOutputTokens,
		SafetySettings:  safetySettings(),
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		return &Client{model: model, config: generateConfig}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{client: client, model: model, config: generateConfig}, nil
}

// Generate sends one prompt and returns the raw model text. No parsing, no
// retries; callers own both.
func (c *Client) Generate(ctx context.Context, promptText string) (string, error) {
	if c.client == nil {
		return "", ErrNotConfigured
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(promptText), c.config)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("gemini returned an empty response")
	}
	return text, nil
}

// safetySettings blocks medium-and-above content across all four harm
// categories, matching the service's fixed policy.
func safetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, category := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  category,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}
	return settings
}
