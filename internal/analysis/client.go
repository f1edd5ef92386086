// Package analysis talks to the generative-language API that reviews diet
// plans.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	maxAttempts    = 3
	defaultBackoff = 2 * time.Second
	requestTimeout = 60 * time.Second
)

var (
	ErrMissingAPIKey = errors.New("gemini api key is not configured")
	ErrModelNotFound = errors.New("model not found, check the model URL")
	ErrUnreachable   = errors.New("analysis service is unreachable")
	ErrTimeout       = errors.New("request timed out, the model might be overloaded")
	ErrEmptyResponse = errors.New("invalid response structure from analysis service")
)

// StatusError is a non-success HTTP response from the API
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("analysis service returned status %d", e.Code)
	}
	return fmt.Sprintf("analysis service returned status %d: %s", e.Code, e.Message)
}

// GeminiClient calls the generateContent endpoint
type GeminiClient struct {
	apiKey   string
	modelURL string
	http     *http.Client
	backoff  time.Duration
	log      *slog.Logger
}

// ClientOption configures a GeminiClient
type ClientOption func(*GeminiClient)

// WithHTTPClient replaces the default client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(g *GeminiClient) { g.http = c }
}

// WithBackoff sets the base delay; the n-th retry waits n times this
func WithBackoff(d time.Duration) ClientOption {
	return func(g *GeminiClient) { g.backoff = d }
}

func NewGeminiClient(apiKey, modelURL string, log *slog.Logger, opts ...ClientOption) *GeminiClient {
	g := &GeminiClient{
		apiKey:   apiKey,
		modelURL: modelURL,
		http:     &http.Client{Timeout: requestTimeout},
		backoff:  defaultBackoff,
		log:      log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MaxDuration bounds how long Generate can run: every attempt hitting the
// client timeout plus the backoff between attempts.
func (g *GeminiClient) MaxDuration() time.Duration {
	perAttempt := g.http.Timeout
	if perAttempt == 0 {
		perAttempt = requestTimeout
	}
	total := time.Duration(maxAttempts) * perAttempt
	for n := 1; n < maxAttempts; n++ {
		total += time.Duration(n) * g.backoff
	}
	return total
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends prompt and returns the first candidate's text. 5xx
// responses, transport failures and malformed bodies are retried with linear
// backoff; 4xx responses, timeouts and DNS failures are not.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.7,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 2048,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	var (
		text    string
		attempt int
	)
	b := retry.WithMaxRetries(maxAttempts-1, retry.NewLinear(g.backoff))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		g.log.Debug("querying analysis service", "attempt", attempt, "max_attempts", maxAttempts)
		out, err := g.call(ctx, body)
		if err != nil {
			g.log.Warn("analysis attempt failed", "attempt", attempt, "error", err)
			if retryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		text = out
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func (g *GeminiClient) call(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.modelURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	q := req.URL.Query()
	q.Set("key", g.apiKey)
	req.URL.RawQuery = q.Encode()

	resp, err := g.http.Do(req)
	if err != nil {
		var dnsErr *net.DNSError
		var netErr net.Error
		switch {
		case errors.As(err, &dnsErr):
			return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
		case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("request analysis: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrModelNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		_ = json.Unmarshal(raw, &apiErr)
		return "", &StatusError{Code: resp.StatusCode, Message: apiErr.Error.Message}
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEmptyResponse, err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 || out.Candidates[0].Content.Parts[0].Text == "" {
		return "", ErrEmptyResponse
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, ErrUnreachable), errors.Is(err, ErrTimeout), errors.Is(err, ErrModelNotFound):
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500
	}
	return true
}
