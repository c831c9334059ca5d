// Package github adapts the GitHub OAuth flow and REST API to the
// repository mirror.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
//  1. The server redirects the user to GitHub's authorization endpoint with
//     the client id, the requested scopes and a signed state.
//  2. The user approves the request on GitHub.
//  3. GitHub redirects back to the callback with a short-lived code.
//  4. The server exchanges the code for an access token (server-to-server,
//     using the client secret; the token never reaches the browser).
//  5. The token is encrypted and stored; later calls use it to read the
//     user's repositories.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	githubendpoint "golang.org/x/oauth2/github"
)

const defaultAPIBase = "https://api.github.com"

// Scopes requested from the user: the public profile plus repository read
// access, so private repositories can be mirrored too.
var Scopes = []string{"read:user", "repo"}

// User is the portion of GET /user the link needs.
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// StatusError is returned when GitHub answers with an unexpected status.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("github: %s returned status %d", e.Op, e.Code)
}

// Config describes the OAuth app and where the API lives.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// APIBaseURL defaults to https://api.github.com.
	APIBaseURL string
	// Endpoint defaults to GitHub's OAuth endpoints.
	Endpoint oauth2.Endpoint
	// HTTPClient is used for the token exchange and every API call.
	HTTPClient *http.Client
	// Logger receives per-repository fetch failures. Defaults to discard.
	Logger *slog.Logger
}

// Client wraps golang.org/x/oauth2 and the REST endpoints the sync uses.
type Client struct {
	oauth   *oauth2.Config
	apiBase string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a Client. Unset Config fields fall back to the public
// GitHub endpoints and an http.Client with a 30 second timeout.
func NewClient(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = githubendpoint.Endpoint
	}
	apiBase := strings.TrimRight(cfg.APIBaseURL, "/")
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       Scopes,
			Endpoint:     endpoint,
		},
		apiBase: apiBase,
		http:    hc,
		logger:  logger,
	}
}

// AuthURL returns the URL to send the user to. state is echoed back to the
// callback unchanged.
func (c *Client) AuthURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for an access token. Any non-success
// response, or a response without a token, fails the whole exchange.
func (c *Client) Exchange(ctx context.Context, code string) (string, error) {
	tok, err := c.oauth.Exchange(c.withHTTPClient(ctx), code)
	if err != nil {
		return "", fmt.Errorf("github: exchanging OAuth code: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("github: token response has no access token")
	}
	return tok.AccessToken, nil
}

// CurrentUser calls GET /user with token.
func (c *Client) CurrentUser(ctx context.Context, token string) (*User, error) {
	var u User
	if err := c.getJSON(ctx, token, "/user", nil, "GET /user", &u); err != nil {
		return nil, err
	}
	if u.ID == 0 {
		return nil, errors.New("github: /user returned an invalid user (ID = 0)")
	}
	return &u, nil
}

// ValidateToken probes GET /user. Any HTTP response other than 200 means the
// token is invalid; a transport failure is returned as an error so that a
// network blip is not mistaken for a revoked token.
func (c *Client) ValidateToken(ctx context.Context, token string) (bool, error) {
	resp, err := c.do(ctx, token, "/user", nil)
	if err != nil {
		return false, fmt.Errorf("github: validating token: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK, nil
}

// withHTTPClient makes oauth2 use the configured client for its own requests.
func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.http)
}

// do issues an authenticated GET against the API. oauth2.Config.Client adds
// "Authorization: Bearer <token>" to every request.
func (c *Client) do(ctx context.Context, token, path string, query url.Values) (*http.Response, error) {
	u := c.apiBase + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	client := c.oauth.Client(c.withHTTPClient(ctx), &oauth2.Token{AccessToken: token})
	return client.Do(req)
}

func (c *Client) getJSON(ctx context.Context, token, path string, query url.Values, op string, out any) error {
	resp, err := c.do(ctx, token, path, query)
	if err != nil {
		return fmt.Errorf("github: %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{Op: op, Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("github: decoding %s response: %w", op, err)
	}
	return nil
}
