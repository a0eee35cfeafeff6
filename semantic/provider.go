package semantic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	cferrors "contentfp/errors"
	"contentfp/resilience"
)

// EmbeddingProvider is the external collaborator contract for API-mode
// embedding: out of scope to implement fully (payload shapes vary by
// provider), but this module ships the interface plus a resilience-wrapped
// HTTP client shaped after the teacher's llmclient.Client.Embed.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type httpEmbeddingRequest struct {
	Content string `json:"content"`
}

type httpEmbeddingResponse []struct {
	Embedding [][]float32 `json:"embedding"`
}

// HTTPProvider calls a llama.cpp/OpenAI-shaped embeddings endpoint,
// generalizing the teacher's llmclient.Client.Embed to an arbitrary base
// URL and auth header, wrapped in the shared resilience primitives.
type HTTPProvider struct {
	BaseURL    string
	AuthHeader string
	Client     *http.Client
	Breaker    *resilience.CircuitBreaker
	Limiter    *resilience.RateLimiter
	Retry      resilience.RetryPolicy
}

// NewHTTPProvider constructs a provider bound to baseURL, using a new
// http.Client with the given timeout.
func NewHTTPProvider(baseURL, authHeader string, timeout time.Duration, breaker *resilience.CircuitBreaker, limiter *resilience.RateLimiter, retry resilience.RetryPolicy) *HTTPProvider {
	return &HTTPProvider{
		BaseURL:    baseURL,
		AuthHeader: authHeader,
		Client:     &http.Client{Timeout: timeout},
		Breaker:    breaker,
		Limiter:    limiter,
		Retry:      retry,
	}
}

func (p *HTTPProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if p.BaseURL == "" {
		return nil, cferrors.New("semantic", cferrors.InvalidConfig, "api mode requires api_url")
	}

	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx); err != nil {
			return nil, cferrors.Wrap("semantic", cferrors.Io, "rate limiter wait", err)
		}
	}

	var result []float32
	err := resilience.Retry(ctx, p.Breaker, p.Retry, func(ctx context.Context) error {
		v, err := p.doEmbed(ctx, text)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		return nil, cferrors.Wrap("semantic", cferrors.Inference, "embedding provider call failed", err)
	}
	return result, nil
}

func (p *HTTPProvider) doEmbed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(httpEmbeddingRequest{Content: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/embeddings", strings.TrimRight(p.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.AuthHeader != "" {
		req.Header.Set("Authorization", p.AuthHeader)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding provider status %s: %s", resp.Status, string(respBody))
	}

	var parsed httpEmbeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(parsed) == 0 || len(parsed[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding response was empty")
	}
	return parsed[0].Embedding[0], nil
}
