package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/akarpovich/newsbrief/pkg/domain"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=60s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Feeds FeedsConfig `yaml:"feeds" json:"feeds" jsonschema:"description=Feed source configuration"`

	Cache struct {
		TTL time.Duration `yaml:"ttl" json:"ttl" jsonschema:"default=15m,description=Freshness window for cached query results"`
	} `yaml:"cache" json:"cache" jsonschema:"description=Freshness cache configuration"`

	LLM LLMConfig `yaml:"llm" json:"llm" jsonschema:"description=LLM configuration for briefing generation"`

	Extraction ExtractionConfig `yaml:"extraction" json:"extraction" jsonschema:"description=Deep-read content extraction configuration"`

	Archive ArchiveConfig `yaml:"archive" json:"archive" jsonschema:"description=Article archive configuration"`

	Warm WarmConfig `yaml:"warm" json:"warm" jsonschema:"description=Cache warming configuration"`
}

// FeedsConfig holds feed source settings
type FeedsConfig struct {
	SearchTemplate string              `yaml:"search_template" json:"search_template" jsonschema:"description=Search feed endpoint with %s placeholder for the encoded query"`
	Timeout        time.Duration       `yaml:"timeout" json:"timeout" jsonschema:"default=15s,description=Per-feed fetch timeout"`
	UserAgent      string              `yaml:"user_agent" json:"user_agent" jsonschema:"default=Newsbrief/1.0,description=User agent for feed requests"`
	Buckets        map[string][]string `yaml:"buckets" json:"buckets" jsonschema:"description=Topic bucket to feed URL list overrides"`
}

// LLMConfig holds settings for the external model call
type LLMConfig struct {
	Endpoint    string        `yaml:"endpoint" json:"endpoint" jsonschema:"description=OpenAI-compatible API endpoint (default endpoint when empty)"`
	APIKey      string        `yaml:"api_key" json:"api_key" jsonschema:"required,description=API key (environment variables are expanded)"`
	Model       string        `yaml:"model" json:"model" jsonschema:"default=gpt-4o-mini,description=Model name"`
	Temperature float64       `yaml:"temperature" json:"temperature" jsonschema:"default=0.3,description=Temperature for response generation"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens" jsonschema:"default=1500,description=Maximum tokens in response"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=45s,description=Request timeout"`
}

// ExtractionConfig holds deep-read extraction settings. When enabled the
// briefing context uses full extracted article text instead of feed summaries.
type ExtractionConfig struct {
	Enabled       bool          `yaml:"enabled" json:"enabled" jsonschema:"default=false,description=Enable deep-read extraction for briefing context"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=20s,description=Extraction timeout per article"`
	MinTextLength int           `yaml:"min_text_length" json:"min_text_length" jsonschema:"default=100,description=Minimum extracted text length to consider valid"`
}

// ArchiveConfig holds article archive settings
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" jsonschema:"default=false,description=Persist fetched articles for history lookups"`
	DSN     string `yaml:"dsn" json:"dsn" jsonschema:"default=file:newsbrief.db?cache=shared&mode=rwc,description=SQLite connection string"`
}

// WarmConfig holds cache warming settings
type WarmConfig struct {
	Interval      time.Duration `yaml:"interval" json:"interval" jsonschema:"default=0s,description=Warm cycle interval (0 disables warming)"`
	Topics        []string      `yaml:"topics" json:"topics" jsonschema:"description=Queries to keep warm"`
	MaxConcurrent int           `yaml:"max_concurrent" json:"max_concurrent" jsonschema:"default=2,description=Maximum concurrent warm fetches"`
}

// default free feed sources per topic bucket, overridable in YAML
var defaultBuckets = map[string][]string{
	"technology": {
		"https://feeds.feedburner.com/TechCrunch",
		"https://www.wired.com/feed/rss",
		"https://rss.nytimes.com/services/xml/rss/nyt/Technology.xml",
	},
	"business": {
		"https://feeds.bbci.co.uk/news/business/rss.xml",
		"https://rss.nytimes.com/services/xml/rss/nyt/Business.xml",
	},
	"sports": {"https://feeds.bbci.co.uk/sport/rss.xml"},
	"health": {
		"https://feeds.bbci.co.uk/news/health/rss.xml",
		"https://rss.nytimes.com/services/xml/rss/nyt/Health.xml",
	},
	"science": {
		"https://feeds.bbci.co.uk/news/science_and_environment/rss.xml",
		"https://rss.nytimes.com/services/xml/rss/nyt/Science.xml",
	},
	"world": {
		"https://feeds.bbci.co.uk/news/world/rss.xml",
		"https://rss.reuters.com/reuters/worldNews",
	},
	"cricket": {"https://www.espncricinfo.com/rss/content/story/feeds/0.xml"},
	"politics": {
		"https://feeds.bbci.co.uk/news/politics/rss.xml",
		"https://rss.nytimes.com/services/xml/rss/nyt/Politics.xml",
	},
	"finance":       {"https://feeds.bbci.co.uk/news/business/rss.xml"},
	"entertainment": {"https://feeds.bbci.co.uk/news/entertainment_and_arts/rss.xml"},
	"default": {
		"https://feeds.bbci.co.uk/news/rss.xml",
		"https://rss.nytimes.com/services/xml/rss/nyt/HomePage.xml",
	},
}

// defaultSearchTemplate is the free query-search feed, no key required
const defaultSearchTemplate = "https://news.google.com/rss/search?q=%s&hl=en-IN&gl=IN&ceid=IN:en"

// Load reads configuration from a YAML file. A missing file is not an error:
// the service runs on defaults as long as the LLM key is provided via
// environment. Environment variables in the file are expanded before parsing.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg.setDefaults()

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema, supplementary only
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

// setDefaults fills zero values with working defaults
func (c *Config) setDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 60 * time.Second
	}

	if c.Feeds.SearchTemplate == "" {
		c.Feeds.SearchTemplate = defaultSearchTemplate
	}
	if c.Feeds.Timeout == 0 {
		c.Feeds.Timeout = 15 * time.Second
	}
	if c.Feeds.UserAgent == "" {
		c.Feeds.UserAgent = "Newsbrief/1.0"
	}
	if c.Feeds.Buckets == nil {
		c.Feeds.Buckets = map[string][]string{}
	}
	for bucket, urls := range defaultBuckets {
		if _, ok := c.Feeds.Buckets[bucket]; !ok {
			c.Feeds.Buckets[bucket] = urls
		}
	}

	if c.Cache.TTL == 0 {
		c.Cache.TTL = 15 * time.Minute
	}

	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.3
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1500
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 45 * time.Second
	}

	if c.Extraction.Timeout == 0 {
		c.Extraction.Timeout = 20 * time.Second
	}
	if c.Extraction.MinTextLength == 0 {
		c.Extraction.MinTextLength = 100
	}

	if c.Archive.DSN == "" {
		c.Archive.DSN = "file:newsbrief.db?cache=shared&mode=rwc"
	}

	if c.Warm.MaxConcurrent == 0 {
		c.Warm.MaxConcurrent = 2
	}
}

// validate checks configuration for correctness. The missing LLM key is the
// one condition that aborts startup instead of degrading: without it every
// briefing would fail after a full retrieval round.
func validate(cfg *Config) error {
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is not set; put it in the config file or export OPENAI_API_KEY")
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}
	if cfg.Feeds.Timeout < time.Second {
		return fmt.Errorf("feeds timeout must be at least 1 second")
	}
	if len(cfg.Feeds.Buckets["default"]) == 0 {
		return fmt.Errorf("feeds.buckets.default must have at least one URL")
	}
	if cfg.Extraction.Enabled && cfg.Extraction.Timeout < time.Second {
		return fmt.Errorf("extraction timeout must be at least 1 second")
	}
	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// GetLLMConfig returns LLM configuration
func (c *Config) GetLLMConfig() LLMConfig {
	return c.LLM
}

// Sources returns the bucket table keyed by domain topics
func (c *Config) Sources() map[domain.Topic][]string {
	sources := make(map[domain.Topic][]string, len(c.Feeds.Buckets))
	for bucket, urls := range c.Feeds.Buckets {
		sources[domain.Topic(bucket)] = urls
	}
	return sources
}
