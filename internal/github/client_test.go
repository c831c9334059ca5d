package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeGitHub serves the handful of endpoints the client uses.
type fakeGitHub struct {
	token     string
	repoCount int
	readmes   map[string]string // full name -> README.rst content
	// langStatus forces a status on a repository's languages call.
	langStatus map[string]int
	// fileStatus forces a status on one contents path, "octo/repo0/README.md".
	fileStatus map[string]int
	// rawFiles serves a contents path with the given base64 payload as is.
	rawFiles map[string]string
}

func (f *fakeGitHub) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"bad_verification_code"}`)
			return
		}
		fmt.Fprintf(w, `{"access_token":%q,"token_type":"bearer","scope":"read:user,repo"}`, f.token)
	})

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+f.token {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("GET /user", authed(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(User{ID: 42, Login: "octo", AvatarURL: "https://avatars/42"})
	}))

	mux.HandleFunc("GET /user/repos", authed(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		assert.Equal(t, "updated", r.URL.Query().Get("sort"))
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))

		var batch []map[string]any
		for i := (page - 1) * perPage; i < page*perPage && i < f.repoCount; i++ {
			batch = append(batch, map[string]any{
				"id":        i + 1,
				"name":      fmt.Sprintf("repo%d", i),
				"full_name": fmt.Sprintf("octo/repo%d", i),
				"language":  "Go",
				"topics":    []string{"demo"},
			})
		}
		if batch == nil {
			batch = []map[string]any{}
		}
		json.NewEncoder(w).Encode(batch)
	}))

	mux.HandleFunc("GET /repos/octo/{repo}/languages", authed(func(w http.ResponseWriter, r *http.Request) {
		if code, ok := f.langStatus["octo/"+r.PathValue("repo")]; ok {
			w.WriteHeader(code)
			return
		}
		fmt.Fprint(w, `{"Go":300,"Shell":100}`)
	}))

	mux.HandleFunc("GET /repos/octo/{repo}/contents/{file}", authed(func(w http.ResponseWriter, r *http.Request) {
		full := "octo/" + r.PathValue("repo")
		path := full + "/" + r.PathValue("file")
		if code, ok := f.fileStatus[path]; ok {
			w.WriteHeader(code)
			return
		}
		if raw, ok := f.rawFiles[path]; ok {
			json.NewEncoder(w).Encode(contentsResponse{Name: r.PathValue("file"), Encoding: "base64", Content: raw})
			return
		}
		content, ok := f.readmes[full]
		if !ok || r.PathValue("file") != "README.rst" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(contentsResponse{
			Name:     "README.rst",
			Encoding: "base64",
			Content:  base64.StdEncoding.EncodeToString([]byte(content)),
		})
	}))

	return mux
}

func newTestClient(t *testing.T, f *fakeGitHub) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	return NewClient(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8000/github/callback",
		APIBaseURL:   srv.URL,
		Endpoint: oauth2.Endpoint{
			AuthURL:   srv.URL + "/login/oauth/authorize",
			TokenURL:  srv.URL + "/login/oauth/access_token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		HTTPClient: srv.Client(),
	})
}

func TestAuthURL(t *testing.T) {
	c := NewClient(Config{ClientID: "abc", RedirectURL: "http://localhost/cb"})

	u, err := url.Parse(c.AuthURL("signed-state"))
	require.NoError(t, err)
	assert.Equal(t, "github.com", u.Host)
	assert.Equal(t, "abc", u.Query().Get("client_id"))
	assert.Equal(t, "signed-state", u.Query().Get("state"))
	assert.Equal(t, "read:user repo", u.Query().Get("scope"))
}

func TestExchange(t *testing.T) {
	c := newTestClient(t, &fakeGitHub{token: "gho_abc"})

	tok, err := c.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "gho_abc", tok)

	_, err = c.Exchange(context.Background(), "bad-code")
	assert.Error(t, err)
}

func TestCurrentUserAndValidate(t *testing.T) {
	c := newTestClient(t, &fakeGitHub{token: "gho_abc"})
	ctx := context.Background()

	u, err := c.CurrentUser(ctx, "gho_abc")
	require.NoError(t, err)
	assert.Equal(t, int64(42), u.ID)
	assert.Equal(t, "octo", u.Login)

	ok, err := c.ValidateToken(ctx, "gho_abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.ValidateToken(ctx, "revoked")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.CurrentUser(ctx, "revoked")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
}

func TestValidateToken_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewClient(Config{APIBaseURL: base})
	_, err := c.ValidateToken(context.Background(), "tok")
	assert.Error(t, err)
}

func TestRepositories_Paginates(t *testing.T) {
	c := newTestClient(t, &fakeGitHub{token: "gho_abc", repoCount: 130})

	repos, err := c.Repositories(context.Background(), "gho_abc")
	require.NoError(t, err)
	require.Len(t, repos, 130)
	assert.Equal(t, "octo/repo0", repos[0].FullName)
	assert.Equal(t, "octo/repo129", repos[129].FullName)
	assert.Equal(t, []string{"demo"}, []string(repos[0].Topics))
}

func TestFetchMirror(t *testing.T) {
	c := newTestClient(t, &fakeGitHub{
		token:     "gho_abc",
		repoCount: 2,
		readmes:   map[string]string{"octo/repo1": "Repo One\n========"},
	})

	repos, err := c.FetchMirror(context.Background(), "gho_abc")
	require.NoError(t, err)
	require.Len(t, repos, 2)

	assert.Nil(t, repos[0].Readme)
	require.NotNil(t, repos[1].Readme)
	assert.Equal(t, "README.rst", repos[1].Readme.Filename)
	assert.Equal(t, "Repo One\n========", repos[1].Readme.Content)

	require.Len(t, repos[0].Languages, 2)
	assert.Equal(t, "Go", repos[0].Languages[0].Name)
	assert.Equal(t, 75.0, repos[0].Languages[0].Percentage)
	assert.Equal(t, 25.0, repos[0].Languages[1].Percentage)
}

func TestFetchMirror_LanguagesFailureIsPerRepository(t *testing.T) {
	c := newTestClient(t, &fakeGitHub{
		token:      "gho_abc",
		repoCount:  2,
		langStatus: map[string]int{"octo/repo0": http.StatusUnavailableForLegalReasons},
	})

	repos, err := c.FetchMirror(context.Background(), "gho_abc")
	require.NoError(t, err)
	require.Len(t, repos, 2)

	assert.NotNil(t, repos[0].Languages)
	assert.Empty(t, repos[0].Languages)
	assert.Len(t, repos[1].Languages, 2)
}

func TestReadme_SkipsBrokenCandidates(t *testing.T) {
	c := newTestClient(t, &fakeGitHub{
		token:    "gho_abc",
		readmes:  map[string]string{"octo/repo0": "Found it"},
		rawFiles: map[string]string{"octo/repo0/README.md": "%%% not base64 %%%"},
	})

	readme, err := c.Readme(context.Background(), "gho_abc", "octo/repo0")
	require.NoError(t, err)
	require.NotNil(t, readme)
	assert.Equal(t, "README.rst", readme.Filename)
	assert.Equal(t, "Found it", readme.Content)

	c = newTestClient(t, &fakeGitHub{
		token:      "gho_abc",
		readmes:    map[string]string{"octo/repo0": "Found it"},
		fileStatus: map[string]int{"octo/repo0/README.md": http.StatusForbidden},
	})
	readme, err = c.Readme(context.Background(), "gho_abc", "octo/repo0")
	require.NoError(t, err)
	require.NotNil(t, readme)
	assert.Equal(t, "README.rst", readme.Filename)
}

func TestFetchMirror_CanceledContext(t *testing.T) {
	c := newTestClient(t, &fakeGitHub{token: "gho_abc", repoCount: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchMirror(ctx, "gho_abc")
	assert.Error(t, err)
}

func TestBreakdown(t *testing.T) {
	tests := []struct {
		name   string
		counts map[string]int64
		want   map[string]float64
	}{
		{"empty", map[string]int64{}, map[string]float64{}},
		{"single", map[string]int64{"Go": 10}, map[string]float64{"Go": 100}},
		{"thirds", map[string]int64{"Go": 1, "C": 1, "Rust": 1}, map[string]float64{"Go": 33.33, "C": 33.33, "Rust": 33.33}},
		{"zero bytes", map[string]int64{"Go": 0}, map[string]float64{"Go": 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Breakdown(tt.counts)
			assert.Len(t, got, len(tt.want))
			for _, l := range got {
				assert.Equal(t, tt.want[l.Name], l.Percentage, l.Name)
			}
		})
	}
}
