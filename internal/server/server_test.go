package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/swipejobs/internal/config"
	"github.com/sakif/swipejobs/internal/logger"
)

const remoteOKFeed = `[
	{"legal": "API Terms of Service"},
	{"position": "Junior Go Developer", "company": "Acme", "tags": ["go"], "url": "https://remoteok.com/1"}
]`

func testConfig(t *testing.T, feedURL string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.HTTP.Port = 8000
	cfg.HTTP.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.Database.Path = ":memory:"
	cfg.Auth.SessionTTL = 7 * 24 * time.Hour
	cfg.Auth.CodeSecret = "test-login-code-secret"
	cfg.Auth.StateSecret = "test-oauth-state-secret"
	cfg.Auth.LoginRatePerMin = 1
	cfg.Auth.LoginBurst = 3
	cfg.Auth.AccountRatePerMin = 1
	cfg.Auth.AccountBurst = 5
	cfg.Auth.CodeHashCost = 4
	cfg.Auth.MaxCodeGeneration = 50
	cfg.GitHub.TokenEncryptionKey = "test-token-key"
	cfg.Jobs.RemoteOKURL = feedURL
	cfg.Jobs.Timeout = time.Second
	cfg.Jobs.CacheTTL = time.Minute
	cfg.Jobs.Limit = 10
	cfg.Resume.Dir = t.TempDir()
	cfg.Resume.MaxBytes = 1 << 20
	cfg.Scheduler.GitHubSyncInterval = time.Hour
	cfg.Scheduler.TokenSweepInterval = time.Hour
	cfg.Scheduler.SessionSweepInterval = time.Hour
	cfg.Scheduler.CachePurgeInterval = time.Hour
	cfg.Scheduler.LimiterPruneInterval = time.Hour
	return cfg
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWith(t, func(*config.Config) {})
}

func newTestServerWith(t *testing.T, adjust func(*config.Config)) *Server {
	t.Helper()
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(remoteOKFeed))
	}))
	t.Cleanup(feed.Close)

	cfg := testConfig(t, feed.URL)
	adjust(cfg)
	s, err := New(context.Background(), cfg, logger.Noop())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func register(t *testing.T, s *Server, name string) (userID, code string) {
	t.Helper()
	form := url.Values{"name": {name}, "email": {strings.ToLower(name) + "@example.com"}}
	req := httptest.NewRequest(http.MethodPost, "/users/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := serve(s, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var out struct {
		UserID    string `json:"userId"`
		LoginCode string `json:"loginCode"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	return out.UserID, out.LoginCode
}

func loginRequest(name, code string) *http.Request {
	body := `{"name":"` + name + `","loginCode":"` + code + `"}`
	req := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:4000"
	return req
}

// =========================================================================
// END TO END
// =========================================================================

func TestServer_RegisterLoginProfile(t *testing.T) {
	s := newTestServer(t)

	userID, code := register(t, s, "Ada")

	rr := serve(s, loginRequest("Ada", code))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&login))
	require.NotEmpty(t, login.Token)

	req := httptest.NewRequest(http.MethodGet, "/users/profile/"+userID, nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rr = serve(s, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "ada@example.com")

	req = httptest.NewRequest(http.MethodGet, "/users/profile/"+userID, nil)
	rr = serve(s, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestServer_LoginIsRateLimited(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "Ada")

	for i := 0; i < 3; i++ {
		rr := serve(s, loginRequest("Ada", "0000"))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	}
	rr := serve(s, loginRequest("Ada", "0000"))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
}

func TestServer_LoginIgnoresForwardedHeadersByDefault(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "Ada")

	throttled := 0
	for i := 0; i < 10; i++ {
		req := loginRequest("Ada", "0000")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i+1))
		if serve(s, req).Code == http.StatusTooManyRequests {
			throttled++
		}
	}
	assert.Equal(t, 7, throttled, "attempts past the burst of 3 are throttled")
}

func TestServer_LoginLimitedPerAccount(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "Ada")

	for i := 0; i < 5; i++ {
		req := loginRequest("Ada", "0000")
		req.RemoteAddr = fmt.Sprintf("203.0.113.%d:4000", i+10)
		assert.Equal(t, http.StatusUnauthorized, serve(s, req).Code)
	}

	req := loginRequest("ADA ", "0000")
	req.RemoteAddr = "203.0.113.99:4000"
	rr := serve(s, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	// Another account from a fresh address is unaffected.
	register(t, s, "Grace")
	req = loginRequest("Grace", "0000")
	req.RemoteAddr = "203.0.113.100:4000"
	assert.Equal(t, http.StatusUnauthorized, serve(s, req).Code)
}

func TestServer_TrustProxyReadsForwardedFor(t *testing.T) {
	s := newTestServerWith(t, func(cfg *config.Config) { cfg.HTTP.TrustProxy = true })
	register(t, s, "Ada")

	for i := 0; i < 4; i++ {
		req := loginRequest("Ada", "0000")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		assert.Equal(t, http.StatusUnauthorized, serve(s, req).Code)
	}
}

func TestServer_Jobs(t *testing.T) {
	s := newTestServer(t)

	rr := serve(s, httptest.NewRequest(http.MethodGet, "/jobs/remoteok", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "Junior Go Developer")

	// No Gemini configured.
	rr = serve(s, httptest.NewRequest(http.MethodGet, "/jobs/gemini", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = serve(s, httptest.NewRequest(http.MethodGet, "/jobs/all", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var all struct {
		TotalCount int `json:"total_count"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&all))
	assert.Equal(t, 1, all.TotalCount)
}

func TestServer_GitHubDisabled(t *testing.T) {
	s := newTestServer(t)
	rr := serve(s, httptest.NewRequest(http.MethodGet, "/github/callback?code=x&state=y", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)
	rr := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestServer_CORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/users/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := serve(s, req)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}

// =========================================================================
// BACKGROUND TASKS
// =========================================================================

func TestServer_Tasks(t *testing.T) {
	s := newTestServer(t)

	assert.ElementsMatch(t, []string{
		TaskGitHubResync, TaskTokenSweep, TaskSessionSweep, TaskCachePurge, TaskLimiterPrune,
	}, s.Scheduler().Tasks())

	for _, name := range s.Scheduler().Tasks() {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, s.Scheduler().RunNow(context.Background(), name))
		})
	}

	assert.Error(t, s.Scheduler().RunNow(context.Background(), "no-such-task"))
}

func TestNew_BadSecret(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Auth.CodeSecret = "short"
	_, err := New(context.Background(), cfg, logger.Noop())
	assert.Error(t, err)
}
