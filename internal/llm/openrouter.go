package llm

import (
	"fmt"
	"net/http"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider talks to OpenRouter through its OpenAI-compatible API.
// Model IDs are passed through as "vendor/model".
type OpenRouterProvider struct {
	*OpenAIProvider
}

func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}

	inner, err := newOpenAIProviderRaw(OpenAIConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: baseURL,
	}, &attribution{next: http.DefaultClient, title: cfg.AppName, referer: cfg.SiteURL})
	if err != nil {
		return nil, err
	}
	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}

// attribution adds OpenRouter's app headers to every request.
type attribution struct {
	next    *http.Client
	title   string
	referer string
}

func (a *attribution) Do(req *http.Request) (*http.Response, error) {
	if a.title != "" {
		req.Header.Set("X-Title", a.title)
	}
	if a.referer != "" {
		req.Header.Set("HTTP-Referer", a.referer)
	}
	return a.next.Do(req)
}
