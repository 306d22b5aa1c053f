// Package config loads and validates crawler configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/JakeFAU/board-crawler/internal/board"
)

// Crawl modes.
const (
	ModeBasic = "BASIC"
	ModeWide  = "WIDE"
)

// ErrMissingAPIURL is returned when no bootstrap endpoint is configured.
var ErrMissingAPIURL = errors.New("api_url is required")

// Config captures all run configuration knobs loaded via Viper.
type Config struct {
	APIURL string `mapstructure:"api_url"`
	Mode   string `mapstructure:"mode"`
	// Pages is decoded by hand: it may arrive as a list or a "1,2,3" string.
	Pages             []int   `mapstructure:"-"`
	MaxPostAgeMinutes float64 `mapstructure:"max_post_age_minutes"`
	ReferenceInstant  string  `mapstructure:"reference_instant"`

	Search   SearchConfig   `mapstructure:"search"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Gist     GistConfig     `mapstructure:"gist"`
	Discord  DiscordConfig  `mapstructure:"discord"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// SearchConfig overrides the inclusion words from the bootstrap payload.
type SearchConfig struct {
	Words          []string `mapstructure:"-"`
	BasicWordLimit int      `mapstructure:"basic_word_limit"`
}

// HTTPConfig configures the fetcher.
type HTTPConfig struct {
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Quiet       bool   `mapstructure:"quiet"`
	Level       string `mapstructure:"level"`
}

// SnapshotConfig sets where the result snapshot is written.
type SnapshotConfig struct {
	Dir              string `mapstructure:"dir"`
	GCSBucket        string `mapstructure:"gcs_bucket"`
	Prefix           string `mapstructure:"prefix"`
	Filename         string `mapstructure:"filename"`
	DropEmptyThreads bool   `mapstructure:"drop_empty_threads"`
	PubSubProject    string `mapstructure:"pubsub_project"`
	PubSubTopic      string `mapstructure:"pubsub_topic"`
}

// GistConfig holds the paste service credentials.
type GistConfig struct {
	Token       string `mapstructure:"token"`
	Description string `mapstructure:"description"`
	Public      bool   `mapstructure:"public"`
	BaseURL     string `mapstructure:"base_url"`
}

// DiscordConfig describes the completion webhook.
type DiscordConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Username   string `mapstructure:"username"`
	AvatarURL  string `mapstructure:"avatar_url"`
}

// MetricsConfig controls the Prometheus textfile dump.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// Load builds a Config from .env files, disk and environment.
func Load(path string) (Config, error) {
	if err := loadEnvFiles(); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("BOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return Config{}, err
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	pages, err := ParsePages(v.Get("pages"))
	if err != nil {
		return Config{}, err
	}
	cfg.Pages = pages
	cfg.Search.Words = board.ToWordList(v.Get("search.words"))
	cfg.Mode = strings.ToUpper(strings.TrimSpace(cfg.Mode))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// loadEnvFiles loads ENV_FILE when set, otherwise .env. Missing files are
// ignored and variables already present in the environment win.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// bindLegacyEnv keeps the unprefixed variable names working.
func bindLegacyEnv(v *viper.Viper) error {
	legacy := map[string]string{
		"api_url":              "API_URL",
		"pages":                "PAGES",
		"mode":                 "MODE",
		"max_post_age_minutes": "MAX_POST_AGE_MINUTES",
		"reference_instant":    "NOW",
		"gist.token":           "GITHUB_TOKEN",
		"discord.webhook_url":  "DISCORD_WEBHOOK_URL",
	}
	for key, env := range legacy {
		prefixed := "BOARD_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", ModeBasic)
	v.SetDefault("pages", "1,2,3")
	v.SetDefault("max_post_age_minutes", 0)
	v.SetDefault("reference_instant", "")
	v.SetDefault("search.words", "")
	v.SetDefault("search.basic_word_limit", 2)
	v.SetDefault("http.user_agent", "board-crawler/1.0")
	v.SetDefault("http.timeout", "0s")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.quiet", false)
	v.SetDefault("logging.level", "")
	v.SetDefault("snapshot.dir", "")
	v.SetDefault("snapshot.gcs_bucket", "")
	v.SetDefault("snapshot.prefix", "")
	v.SetDefault("snapshot.filename", "board_results.json")
	v.SetDefault("snapshot.drop_empty_threads", true)
	v.SetDefault("snapshot.pubsub_project", "")
	v.SetDefault("snapshot.pubsub_topic", "")
	v.SetDefault("gist.token", "")
	v.SetDefault("gist.description", "board-test results")
	v.SetDefault("gist.public", false)
	v.SetDefault("gist.base_url", "https://api.github.com")
	v.SetDefault("discord.webhook_url", "")
	v.SetDefault("discord.username", "")
	v.SetDefault("discord.avatar_url", "")
	v.SetDefault("metrics.textfile", "")
}

// ParsePages accepts a list of numbers or a comma separated string. Entries
// that are not positive integers are dropped.
func ParsePages(raw any) ([]int, error) {
	var items []any
	switch x := raw.(type) {
	case nil:
		return []int{}, nil
	case string:
		for _, part := range strings.Split(x, ",") {
			items = append(items, strings.TrimSpace(part))
		}
	case []int:
		for _, n := range x {
			items = append(items, n)
		}
	case []string:
		for _, s := range x {
			items = append(items, strings.TrimSpace(s))
		}
	case []any:
		items = x
	default:
		n, err := cast.ToIntE(x)
		if err != nil {
			return nil, fmt.Errorf("pages: unsupported value %v: %w", raw, err)
		}
		items = []any{n}
	}

	pages := make([]int, 0, len(items))
	for _, item := range items {
		n, err := cast.ToIntE(item)
		if err != nil || n <= 0 {
			continue
		}
		pages = append(pages, n)
	}
	return pages, nil
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return ErrMissingAPIURL
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_url must be an absolute http(s) URL, got %q", c.APIURL)
	}
	if c.Mode != ModeBasic && c.Mode != ModeWide {
		return fmt.Errorf("mode must be %s or %s, got %q", ModeBasic, ModeWide, c.Mode)
	}
	if len(c.Pages) == 0 {
		return fmt.Errorf("pages must contain at least one positive page number")
	}
	if c.Search.BasicWordLimit <= 0 {
		return fmt.Errorf("search.basic_word_limit must be > 0")
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must be >= 0")
	}
	if strings.TrimSpace(c.Snapshot.Filename) == "" {
		return fmt.Errorf("snapshot.filename must be set")
	}
	if c.Snapshot.PubSubTopic != "" && strings.TrimSpace(c.Snapshot.PubSubProject) == "" {
		return fmt.Errorf("snapshot.pubsub_project is required when snapshot.pubsub_topic is set")
	}
	return nil
}

// MaxPostAge converts the minute threshold into a duration. Zero or less
// disables the age window.
func (c Config) MaxPostAge() time.Duration {
	if c.MaxPostAgeMinutes <= 0 {
		return 0
	}
	return time.Duration(c.MaxPostAgeMinutes * float64(time.Minute))
}

// SearchWords picks the inclusion words for the run. Configured words win
// over the bootstrap list; BASIC mode keeps only the first few.
func (c Config) SearchWords(fromBootstrap []string) []string {
	words := fromBootstrap
	if len(c.Search.Words) > 0 {
		words = c.Search.Words
	}
	if c.Mode == ModeBasic && len(words) > c.Search.BasicWordLimit {
		words = words[:c.Search.BasicWordLimit]
	}
	out := make([]string, len(words))
	copy(out, words)
	return out
}
