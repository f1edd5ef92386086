package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nutricare/server/internal/analysis"
	"github.com/nutricare/server/internal/auth"
	"github.com/nutricare/server/internal/dietplan"
	httphandler "github.com/nutricare/server/internal/http"
	"github.com/nutricare/server/internal/http/handlers"
	"github.com/nutricare/server/internal/profile"
	"github.com/nutricare/server/internal/repo"
)

const testJWTSecret = "test-jwt-secret-at-least-32-characters-long"

// stores is the persistence a test server runs on
type stores struct {
	accounts repo.AccountRepo
	profiles repo.ProfileRepo
	plans    repo.DietPlanRepo
	pinger   handlers.Pinger
}

func memoryStores() stores {
	return stores{
		accounts: NewAccountStore(),
		profiles: NewProfileStore(),
		plans:    NewDietPlanStore(),
	}
}

// testServer holds the server and its observable collaborators
type testServer struct {
	Server *httptest.Server
	Mailer *Mailer
	Clock  *Clock
	Gemini *httptest.Server
}

func newTestServer(t *testing.T, st stores) *testServer {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	ts := &testServer{
		Mailer: &Mailer{},
		Clock:  NewClock(time.Now().UTC()),
	}

	ts.Gemini = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Balanced plan."}]}}]}`)
	}))
	t.Cleanup(ts.Gemini.Close)

	jwtService := auth.NewJWTService(testJWTSecret).WithClock(ts.Clock.Now)
	authService := auth.NewAuthService(
		st.accounts, st.profiles,
		auth.NewOtpIssuer("test-otp-salt"),
		jwtService, ts.Mailer, log,
		auth.WithClock(ts.Clock.Now),
		auth.WithBcryptCost(bcrypt.MinCost),
	)
	profileService := profile.NewService(st.profiles, log)
	gemini := analysis.NewGeminiClient("test-key", ts.Gemini.URL, log, analysis.WithBackoff(time.Millisecond))
	dietPlanService := dietplan.NewService(st.plans, profileService, gemini, log)

	router := httphandler.NewRouter(httphandler.Handlers{
		Auth:     handlers.NewAuthHandler(authService, log),
		Profile:  handlers.NewProfileHandler(profileService, log),
		DietPlan: handlers.NewDietPlanHandler(dietPlanService, log),
		Health:   handlers.NewHealthHandler(st.pinger),
	}, authService, httphandler.RouterOptions{
		AllowedOrigins: []string{"http://localhost:5173"},
		DisableIPLimit: true,
	})

	ts.Server = httptest.NewServer(router)
	t.Cleanup(ts.Server.Close)
	return ts
}

// call sends a JSON request and decodes the JSON response into a map
func (s *testServer) call(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.Server.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	}
	return resp.StatusCode, out
}

var alice = map[string]string{
	"name":     "Alice",
	"email":    "a@x.com",
	"password": "Abcd123!",
	"mobile":   "9876543210",
}

// registerAndVerify walks alice through registration and returns a token
func (s *testServer) registerAndVerify(t *testing.T) string {
	t.Helper()
	status, body := s.call(t, http.MethodPost, "/api/auth/register", "", alice)
	require.Equal(t, http.StatusCreated, status, "register: %v", body)

	status, body = s.call(t, http.MethodPost, "/api/auth/verify-otp", "", map[string]string{
		"email": alice["email"],
		"otp":   s.Mailer.LastCode(alice["email"]),
	})
	require.Equal(t, http.StatusOK, status, "verify: %v", body)
	return body["token"].(string)
}
