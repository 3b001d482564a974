package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config holds all service configuration
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Twitter   TwitterConfig   `toml:"twitter"`
	Scoring   ScoringConfig   `toml:"scoring"`
	Store     StoreConfig     `toml:"store"`
	Scheduler SchedulerConfig `toml:"scheduler"`
}

type ServerConfig struct {
	Addr       string `toml:"addr"`
	Production bool   `toml:"production"`
}

// TwitterConfig carries the service account's credentials. The primary set
// (username/password, optional email and TOTP secret) drives the browser
// login; the secondary set is only used when all four values are present.
type TwitterConfig struct {
	Username        string `toml:"username"`
	Password        string `toml:"password"`
	Email           string `toml:"email"`
	TwoFactorSecret string `toml:"two_factor_secret"`

	APIKey            string `toml:"api_key"`
	APISecret         string `toml:"api_secret"`
	AccessToken       string `toml:"access_token"`
	AccessTokenSecret string `toml:"access_token_secret"`

	CookieDir string `toml:"cookie_dir"`
	Headless  bool   `toml:"headless"`
}

// HasSecondary reports whether the alternate credential set is configured.
func (t TwitterConfig) HasSecondary() bool {
	return t.APIKey != "" && t.APISecret != "" && t.AccessToken != "" && t.AccessTokenSecret != ""
}

type ScoringConfig struct {
	APIKey          string `toml:"api_key"`
	Model           string `toml:"model"`
	MaxSteps        int    `toml:"max_steps"`
	StepTimeoutSecs int    `toml:"step_timeout_secs"`
	PromptDir       string `toml:"prompt_dir"`
}

type StoreConfig struct {
	Path          string `toml:"path"`
	RetentionDays int    `toml:"retention_days"`
}

type SchedulerConfig struct {
	Timezone         string `toml:"timezone"`
	LivenessSchedule string `toml:"liveness_schedule"`
	PruneSchedule    string `toml:"prune_schedule"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Twitter: TwitterConfig{
			CookieDir: "cookies",
			Headless:  true,
		},
		Scoring: ScoringConfig{
			Model:           "claude-sonnet-4-20250514",
			MaxSteps:        10,
			StepTimeoutSecs: 60,
		},
		Store: StoreConfig{
			Path:          "data/scorer.db",
			RetentionDays: 30,
		},
		Scheduler: SchedulerConfig{
			Timezone:         "UTC",
			LivenessSchedule: "*/30 * * * *",
			PruneSchedule:    "0 3 * * *",
		},
	}
}

// Load reads config from the given path and applies environment overrides.
// A missing file is not an error: defaults plus environment are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if cfg.Twitter.Username == "" || cfg.Twitter.Password == "" {
		return nil, fmt.Errorf("TWITTER_USERNAME and TWITTER_PASSWORD must be set")
	}
	if cfg.Scoring.APIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY must be set")
	}

	return cfg, nil
}

// applyEnv lets environment variables override file values. Secrets are
// expected to arrive this way in deployment.
func (c *Config) applyEnv() {
	setString(&c.Server.Addr, "SCORER_ADDR")
	if v := os.Getenv("SCORER_ENV"); v != "" {
		c.Server.Production = v == "production"
	}

	setString(&c.Twitter.Username, "TWITTER_USERNAME")
	setString(&c.Twitter.Password, "TWITTER_PASSWORD")
	setString(&c.Twitter.Email, "TWITTER_EMAIL")
	setString(&c.Twitter.TwoFactorSecret, "TWITTER_2FA_SECRET")
	setString(&c.Twitter.APIKey, "TWITTER_API_KEY")
	setString(&c.Twitter.APISecret, "TWITTER_API_SECRET_KEY")
	setString(&c.Twitter.AccessToken, "TWITTER_ACCESS_TOKEN")
	setString(&c.Twitter.AccessTokenSecret, "TWITTER_ACCESS_TOKEN_SECRET")
	setString(&c.Twitter.CookieDir, "SCORER_COOKIE_DIR")

	setString(&c.Scoring.APIKey, "ANTHROPIC_API_KEY")
	setString(&c.Scoring.Model, "SCORER_MODEL")
	setInt(&c.Scoring.MaxSteps, "SCORER_MAX_STEPS")
	setInt(&c.Scoring.StepTimeoutSecs, "SCORER_STEP_TIMEOUT_SECS")
	setString(&c.Scoring.PromptDir, "SCORER_PROMPT_DIR")

	setString(&c.Store.Path, "SCORER_DB_PATH")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
