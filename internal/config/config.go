// Package config loads server configuration from the process environment.
//
// Values are read once at startup. A .env file in the working directory is
// loaded first if present; real environment variables win over it.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config contains server configuration parameters.
type Config struct {
	LogLevel  int       `env:"LOG_LEVEL" envDefault:"0"`
	HTTP      HTTP      `envPrefix:"HTTP_"`
	Database  Database  `envPrefix:"DATABASE_"`
	Auth      Auth      `envPrefix:"AUTH_"`
	GitHub    GitHub    `envPrefix:"GITHUB_"`
	Gemini    Gemini    `envPrefix:"GEMINI_"`
	Jobs      Jobs      `envPrefix:"JOBS_"`
	Resume    Resume    `envPrefix:"RESUME_"`
	MinIO     MinIO     `envPrefix:"MINIO_"`
	Redis     Redis     `envPrefix:"REDIS_"`
	Scheduler Scheduler `envPrefix:"SCHEDULER_"`
}

// HTTP contains listener and browser-facing parameters.
type HTTP struct {
	Port           int      `env:"PORT" envDefault:"8000"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000,http://localhost:3001"`
	SecureCookies  bool     `env:"SECURE_COOKIES" envDefault:"false"`
	// TrustProxy takes the client address from X-Forwarded-For, X-Real-IP
	// or True-Client-IP. Enable only behind a proxy that overwrites them.
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`
}

// Database contains the SQLite file location.
type Database struct {
	Path string `env:"PATH" envDefault:"data/swipejobs.db"`
}

// Auth contains login and session parameters.
type Auth struct {
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	// CodeSecret keys the lookup digest of login codes.
	CodeSecret string `env:"CODE_SECRET" envDefault:"dev-login-code-secret"`
	// StateSecret signs OAuth state tokens.
	StateSecret       string  `env:"STATE_SECRET" envDefault:"dev-oauth-state-secret"`
	LoginRatePerMin   float64 `env:"LOGIN_RATE_PER_MINUTE" envDefault:"10"`
	LoginBurst        int     `env:"LOGIN_BURST" envDefault:"5"`
	CodeHashCost      int     `env:"CODE_HASH_COST" envDefault:"12"`
	MaxCodeGeneration int     `env:"MAX_CODE_ATTEMPTS" envDefault:"50"`
	// Per-account limit, applied whatever address the attempts come from.
	AccountRatePerMin float64 `env:"ACCOUNT_LOGIN_RATE_PER_MINUTE" envDefault:"5"`
	AccountBurst      int     `env:"ACCOUNT_LOGIN_BURST" envDefault:"10"`
}

// GitHub contains OAuth app credentials and sync pacing.
// An empty ClientID disables every GitHub endpoint.
type GitHub struct {
	ClientID           string        `env:"CLIENT_ID"`
	ClientSecret       string        `env:"CLIENT_SECRET"`
	RedirectURI        string        `env:"REDIRECT_URI" envDefault:"http://localhost:8000/github/callback"`
	TokenEncryptionKey string        `env:"TOKEN_ENCRYPTION_KEY" envDefault:"dev-github-token-key"`
	APIBaseURL         string        `env:"API_BASE_URL" envDefault:"https://api.github.com"`
	SyncUserDelay      time.Duration `env:"SYNC_USER_DELAY" envDefault:"1s"`
	SweepUserDelay     time.Duration `env:"SWEEP_USER_DELAY" envDefault:"500ms"`
}

// Enabled reports whether OAuth credentials were provided.
func (g GitHub) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// Gemini contains Vertex AI parameters. An empty ProjectID disables AI
// resume parsing and AI job suggestions.
type Gemini struct {
	ProjectID       string        `env:"PROJECT_ID"`
	Location        string        `env:"LOCATION" envDefault:"us-central1"`
	Model           string        `env:"MODEL" envDefault:"gemini-1.5-flash"`
	APIKey          string        `env:"API_KEY"`
	CredentialsFile string        `env:"CREDENTIALS_FILE"`
	Timeout         time.Duration `env:"TIMEOUT" envDefault:"60s"`
}

// Enabled reports whether a Gemini project was configured.
func (g Gemini) Enabled() bool {
	return g.ProjectID != ""
}

// Jobs contains external job-listing parameters.
type Jobs struct {
	RemoteOKURL string        `env:"REMOTEOK_URL" envDefault:"https://remoteok.com/api"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"30s"`
	CacheTTL    time.Duration `env:"CACHE_TTL" envDefault:"15m"`
	Limit       int           `env:"LIMIT" envDefault:"10"`
}

// Resume contains upload parameters for the local store.
type Resume struct {
	Dir      string `env:"DIR" envDefault:"uploaded_resumes"`
	MaxBytes int64  `env:"MAX_BYTES" envDefault:"5242880"`
}

// MinIO switches resume storage to an object store when Endpoint is set.
type MinIO struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET_NAME" envDefault:"resumes"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// Redis switches the job listing cache to Redis when URL is set.
type Redis struct {
	URL string `env:"URL"`
}

// Scheduler contains background task intervals.
type Scheduler struct {
	GitHubSyncInterval   time.Duration `env:"GITHUB_SYNC_INTERVAL" envDefault:"1h"`
	TokenSweepInterval   time.Duration `env:"TOKEN_SWEEP_INTERVAL" envDefault:"24h"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1h"`
	CachePurgeInterval   time.Duration `env:"CACHE_PURGE_INTERVAL" envDefault:"30m"`
	LimiterPruneInterval time.Duration `env:"LIMITER_PRUNE_INTERVAL" envDefault:"10m"`
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	// A missing .env file is the normal case in production.
	_ = godotenv.Load()

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: HTTP_PORT %d out of range", c.HTTP.Port)
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("config: AUTH_SESSION_TTL must be positive")
	}
	if c.Resume.MaxBytes <= 0 {
		return fmt.Errorf("config: RESUME_MAX_BYTES must be positive")
	}
	if c.Jobs.Limit <= 0 {
		return fmt.Errorf("config: JOBS_LIMIT must be positive")
	}
	// SECURE_COOKIES marks a real deployment; refuse to run it on keys
	// that are published in this file.
	if insecure := c.InsecureDefaults(); c.HTTP.SecureCookies && len(insecure) > 0 {
		return fmt.Errorf("config: %s still set to development defaults", strings.Join(insecure, ", "))
	}
	return nil
}

// Development values of the secrets. Must match the envDefault tags above.
const (
	devCodeSecret  = "dev-login-code-secret"
	devStateSecret = "dev-oauth-state-secret"
	devTokenKey    = "dev-github-token-key"
)

// InsecureDefaults lists the secret variables still holding their
// development defaults. main logs a warning for each one.
func (c *Config) InsecureDefaults() []string {
	var out []string
	if c.Auth.CodeSecret == devCodeSecret {
		out = append(out, "AUTH_CODE_SECRET")
	}
	if c.Auth.StateSecret == devStateSecret {
		out = append(out, "AUTH_STATE_SECRET")
	}
	if c.GitHub.TokenEncryptionKey == devTokenKey {
		out = append(out, "GITHUB_TOKEN_ENCRYPTION_KEY")
	}
	return out
}
