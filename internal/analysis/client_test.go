package analysis

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url, key string, opts ...ClientOption) *GeminiClient {
	opts = append([]ClientOption{WithBackoff(time.Millisecond)}, opts...)
	return NewGeminiClient(key, url, slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
}

func okBody(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":"` + text + `"}]}}]}`
}

func TestGenerate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "hello", req.Contents[0].Parts[0].Text)
		assert.Equal(t, 2048, req.GenerationConfig.MaxOutputTokens)

		_, _ = io.WriteString(w, okBody("analysis text"))
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL, "secret").Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "analysis text", out)
}

func TestGenerate_MissingKey(t *testing.T) {
	_, err := newTestClient("http://unused", "").Generate(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestGenerate_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, okBody("third time lucky"))
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL, "k").Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "third time lucky", out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerate_GivesUpAfterThreeAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"code":500,"message":"backend exploded"}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "k").Generate(context.Background(), "p")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 500, statusErr.Code)
	assert.Equal(t, "backend exploded", statusErr.Message)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerate_NoRetryOnClientErrors(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrModelNotFound},
		{http.StatusBadRequest, nil},
	}
	for _, tc := range cases {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(tc.status)
		}))

		_, err := newTestClient(srv.URL, "k").Generate(context.Background(), "p")
		require.Error(t, err)
		if tc.want != nil {
			assert.ErrorIs(t, err, tc.want)
		}
		assert.Equal(t, int32(1), calls.Load(), "status %d must not be retried", tc.status)
		srv.Close()
	}
}

func TestGenerate_EmptyCandidatesRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "k").Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "k", WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))
	_, err := c.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestGenerate_UnresolvableHost(t *testing.T) {
	c := newTestClient("http://analysis.invalid/v1/models/x:generateContent", "k")
	_, err := c.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestMaxDuration(t *testing.T) {
	g := NewGeminiClient("k", "http://unused", slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, 3*time.Minute+6*time.Second, g.MaxDuration())

	g = NewGeminiClient("k", "http://unused", slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithHTTPClient(&http.Client{Timeout: time.Second}),
		WithBackoff(10*time.Millisecond))
	assert.Equal(t, 3*time.Second+30*time.Millisecond, g.MaxDuration())
}
