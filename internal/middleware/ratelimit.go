package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/httprate"
)

// LimitByEmail allows at most requests calls per window for each email
// address found in the JSON body. Requests without one are keyed by IP.
func LimitByEmail(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return GetEmailKey(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", formatSeconds(window))
			respondWithError(w, http.StatusTooManyRequests, map[string]string{
				"message": "Too many requests. Please try again later.",
			})
		}),
	)
}

// GetIPKey extracts IP address from request for rate limiting
func GetIPKey(r *http.Request) string {
	// Try X-Forwarded-For first (for proxies)
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		// Take first IP if multiple
		ip, _, _ := strings.Cut(forwarded, ",")
		return "ip:" + strings.TrimSpace(ip)
	}

	// Fallback to RemoteAddr
	return "ip:" + r.RemoteAddr
}

// GetEmailKey keys on the "email" field of a JSON body, falling back to the
// IP key. The body is restored for the next handler.
func GetEmailKey(r *http.Request) string {
	if r.Body == nil {
		return GetIPKey(r)
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return GetIPKey(r)
	}

	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return GetIPKey(r)
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" {
		return GetIPKey(r)
	}
	return "email:" + email
}

func formatSeconds(d time.Duration) string {
	return strconv.Itoa(int(d / time.Second))
}
