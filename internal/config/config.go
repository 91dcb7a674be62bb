package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/IvanLi-CN/codex-vibe-monitor/internal/version"
)

var (
	// ErrMissing marks a required option that was not provided.
	ErrMissing = errors.New("missing required configuration")
	// ErrInvalid marks an option that was provided but does not parse.
	ErrInvalid = errors.New("invalid configuration")
)

const (
	defaultQuotaEndpoint = "/frontend-api/vibe-code/quota"
	defaultDatabasePath  = "codex_vibe_monitor.db"
)

type Config struct {
	BaseURL        string        `env:"XY_BASE_URL"`
	QuotaEndpoint  string        `env:"XY_VIBE_QUOTA_ENDPOINT,default=/frontend-api/vibe-code/quota"`
	CookieName     string        `env:"XY_SESSION_COOKIE_NAME"`
	CookieValue    string        `env:"XY_SESSION_COOKIE_VALUE"`
	DatabasePath   string        `env:"XY_DATABASE_PATH,default=codex_vibe_monitor.db"`
	RequestTimeout time.Duration `env:"XY_REQUEST_TIMEOUT,default=15s"`
	UserAgent      string        `env:"XY_USER_AGENT"`
	LogLevel       string        `env:"XY_LOG_LEVEL,default=info"`
}

// Load seeds the process environment from dotfiles in the working directory,
// reads the XY_* variables and validates the result. Precedence is
// process env > .env.local > .env.
func Load(ctx context.Context) (*Config, error) {
	loadDotfiles()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = version.UserAgent()
	}
	// A variable set to the empty string counts as unset.
	if cfg.QuotaEndpoint == "" {
		cfg.QuotaEndpoint = defaultQuotaEndpoint
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = defaultDatabasePath
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotfiles loads .env.local then .env. godotenv never overrides a
// variable that is already set, so the first source wins.
func loadDotfiles() {
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err == nil {
			_ = godotenv.Load(name)
		}
	}
}

func (c *Config) validate() error {
	for _, opt := range []struct {
		key   string
		value string
	}{
		{"XY_BASE_URL", c.BaseURL},
		{"XY_SESSION_COOKIE_NAME", c.CookieName},
		{"XY_SESSION_COOKIE_VALUE", c.CookieValue},
	} {
		if opt.value == "" {
			return fmt.Errorf("%w: %s is not set", ErrMissing, opt.key)
		}
	}

	if _, err := parseAbsoluteURL(c.BaseURL); err != nil {
		return fmt.Errorf("%w: XY_BASE_URL %q: %v", ErrInvalid, c.BaseURL, err)
	}
	if _, err := c.QuotaURL(); err != nil {
		return err
	}
	return nil
}

// QuotaURL resolves the effective quota request URL. An endpoint beginning
// with "http" is taken as absolute; anything else is joined onto the base
// URL with exactly one leading slash stripped, so a base path is preserved.
func (c *Config) QuotaURL() (*url.URL, error) {
	if strings.HasPrefix(c.QuotaEndpoint, "http") {
		u, err := parseAbsoluteURL(c.QuotaEndpoint)
		if err != nil {
			return nil, fmt.Errorf("%w: XY_VIBE_QUOTA_ENDPOINT %q: %v", ErrInvalid, c.QuotaEndpoint, err)
		}
		return u, nil
	}

	base, err := parseAbsoluteURL(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: XY_BASE_URL %q: %v", ErrInvalid, c.BaseURL, err)
	}
	return base.JoinPath(strings.TrimPrefix(c.QuotaEndpoint, "/")), nil
}

func parseAbsoluteURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("not an absolute URL")
	}
	return u, nil
}
