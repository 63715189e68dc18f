package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "LEADSCOUT_CONFIG"

	openAIKeyEnv        = "OPENAI_API_KEY"
	openAIModelEnv      = "OPENAI_MODEL"
	embeddingKeyEnv     = "EMBEDDING_API_KEY"
	documentStoreDSNEnv = "DOCUMENT_STORE_DSN"
	mongoHostEnv        = "MONGO_HOST"
	databaseDSNEnv      = "DATABASE_DSN"
	qdrantAPIKeyEnv     = "QDRANT_API_KEY"
	slackWebhookEnv     = "SLACK_WEBHOOK_URL"
	telegramTokenEnv    = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv   = "TELEGRAM_CHAT_ID"
)

// Driver and channel names accepted in configuration.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"

	EmbeddingOpenAI = "openai"
	EmbeddingHTTP   = "http"

	ChannelWebhook  = "webhook"
	ChannelTelegram = "telegram"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig       `yaml:"logging"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
	Targets       []TargetConfig      `yaml:"targets"`
	Sources       []SourceConfig      `yaml:"sources"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	ChatGPT       ChatGPTConfig       `yaml:"chatgpt"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	DocumentStore DocumentStoreConfig `yaml:"documentStore"`
	VectorIndex   VectorIndexConfig   `yaml:"vectorIndex"`
	Notifications NotificationConfig  `yaml:"notifications"`
	Metrics       MetricsConfig       `yaml:"metrics"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SchedulerConfig defines when unattended scans run.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// TargetConfig is a consuming company and the companies whose news it follows.
type TargetConfig struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Companies   []string `yaml:"companies"`
}

// SourceConfig describes a single article source with its scanner strategy.
type SourceConfig struct {
	Name    string            `yaml:"name"`
	Scanner string            `yaml:"scanner"`
	URL     string            `yaml:"url"`
	Options map[string]string `yaml:"options"`
}

// PipelineConfig carries gate thresholds and pacing.
type PipelineConfig struct {
	IngestRelevanceThreshold int           `yaml:"ingestRelevanceThreshold"`
	CommitRelevanceThreshold int           `yaml:"commitRelevanceThreshold"`
	SimilarityThreshold      float32       `yaml:"similarityThreshold"`
	RejectNoneValue          bool          `yaml:"rejectNoneValue"`
	ItemDelay                time.Duration `yaml:"itemDelay"`
	MaxConcurrentCompanies   int           `yaml:"maxConcurrentCompanies"`
	MaxEntriesPerCompany     int           `yaml:"maxEntriesPerCompany"`
	DefaultLookback          string        `yaml:"defaultLookback"`
	SummaryMaxChars          int           `yaml:"summaryMaxChars"`
	FetchRetries             int           `yaml:"fetchRetries"`
	FetchRetryDelay          time.Duration `yaml:"fetchRetryDelay"`
}

// ChatGPTConfig defines how to contact the chat completions API.
type ChatGPTConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"`
}

// EmbeddingConfig selects the embedding backend.
type EmbeddingConfig struct {
	Provider  string        `yaml:"provider"`
	Endpoint  string        `yaml:"endpoint"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"apiKey"`
	Dimension int           `yaml:"dimension"`
	CacheSize int           `yaml:"cacheSize"`
	Timeout   time.Duration `yaml:"timeout"`
}

// DocumentStoreConfig selects and addresses the lead document store.
type DocumentStoreConfig struct {
	Driver     string `yaml:"driver"`
	DSN        string `yaml:"dsn"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// VectorIndexConfig addresses the Qdrant collection.
type VectorIndexConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"apiKey"`
	UseTLS     bool   `yaml:"useTls"`
	Collection string `yaml:"collection"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Channel  string         `yaml:"channel"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// WebhookConfig is a Slack-compatible incoming webhook.
type WebhookConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// MetricsConfig enables the Prometheus endpoint when Listen is set.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// Load reads .env and YAML configuration (if present), applies environment overrides and validates the result.
// path takes precedence over LEADSCOUT_CONFIG.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: cannot read .env: %v", err)
	}

	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	var errs []error

	p := c.Pipeline
	if p.IngestRelevanceThreshold < 0 || p.IngestRelevanceThreshold > 100 {
		errs = append(errs, fmt.Errorf("pipeline.ingestRelevanceThreshold %d outside 0..100", p.IngestRelevanceThreshold))
	}
	if p.CommitRelevanceThreshold < 0 || p.CommitRelevanceThreshold > 100 {
		errs = append(errs, fmt.Errorf("pipeline.commitRelevanceThreshold %d outside 0..100", p.CommitRelevanceThreshold))
	}
	if p.SimilarityThreshold <= 0 || p.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("pipeline.similarityThreshold %v outside (0,1]", p.SimilarityThreshold))
	}
	if p.MaxConcurrentCompanies < 1 {
		errs = append(errs, errors.New("pipeline.maxConcurrentCompanies must be positive"))
	}
	if p.FetchRetries < 0 {
		errs = append(errs, errors.New("pipeline.fetchRetries must not be negative"))
	}
	if c.Embedding.Dimension <= 0 {
		errs = append(errs, errors.New("embedding.dimension must be positive"))
	}

	switch c.Embedding.Provider {
	case EmbeddingOpenAI, EmbeddingHTTP:
	default:
		errs = append(errs, fmt.Errorf("embedding.provider %q is not supported", c.Embedding.Provider))
	}
	switch c.DocumentStore.Driver {
	case DriverMongo, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("documentStore.driver %q is not supported", c.DocumentStore.Driver))
	}
	switch c.Notifications.Channel {
	case ChannelWebhook, ChannelTelegram:
	default:
		errs = append(errs, fmt.Errorf("notifications.channel %q is not supported", c.Notifications.Channel))
	}

	if len(c.Targets) == 0 {
		errs = append(errs, errors.New("at least one target is required"))
	}
	for _, t := range c.Targets {
		if strings.TrimSpace(t.Key) == "" || len(t.Companies) == 0 {
			errs = append(errs, fmt.Errorf("target %q needs a key and companies", t.Name))
		}
	}

	return errors.Join(errs...)
}

// Target returns the target with key, matching case-insensitively.
func (c Config) Target(key string) (TargetConfig, bool) {
	for _, t := range c.Targets {
		if strings.EqualFold(t.Key, key) {
			return t, true
		}
	}
	return TargetConfig{}, false
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = v
		}
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.ChatGPT.Model = v
	}
	if v := os.Getenv(embeddingKeyEnv); v != "" {
		c.Embedding.APIKey = v
	}

	for _, key := range []string{mongoHostEnv, databaseDSNEnv, documentStoreDSNEnv} {
		if v := os.Getenv(key); v != "" {
			c.DocumentStore.DSN = v
		}
	}

	if v := os.Getenv(qdrantAPIKeyEnv); v != "" {
		c.VectorIndex.APIKey = v
	}
	if v := os.Getenv(slackWebhookEnv); v != "" {
		c.Notifications.Webhook.URL = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Scheduler: SchedulerConfig{CronExpression: "0 * * * *", Timezone: defaultTimezone, location: tz},
		Targets:   defaultTargets(),
		Sources: []SourceConfig{
			{Name: "Google News", Scanner: "googlenews", URL: "https://news.google.com/rss/search"},
		},
		Pipeline: PipelineConfig{
			IngestRelevanceThreshold: 50,
			CommitRelevanceThreshold: 70,
			SimilarityThreshold:      0.85,
			RejectNoneValue:          true,
			ItemDelay:                5 * time.Second,
			MaxConcurrentCompanies:   3,
			MaxEntriesPerCompany:     10,
			DefaultLookback:          "7d",
			SummaryMaxChars:          12000,
			FetchRetries:             3,
			FetchRetryDelay:          5 * time.Second,
		},
		ChatGPT: ChatGPTConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini-2024-07-18",
			Timeout:  30 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider:  EmbeddingOpenAI,
			Endpoint:  "https://api.openai.com/v1",
			Model:     "text-embedding-3-small",
			Dimension: 1536,
			CacheSize: 512,
			Timeout:   30 * time.Second,
		},
		DocumentStore: DocumentStoreConfig{
			Driver:     DriverMongo,
			DSN:        "mongodb://localhost:27017",
			Database:   "lead_gen",
			Collection: "leads",
		},
		VectorIndex: VectorIndexConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "leads",
		},
		Notifications: NotificationConfig{
			Channel: ChannelWebhook,
			Webhook: WebhookConfig{Timeout: 5 * time.Second},
		},
	}
}

func defaultTargets() []TargetConfig {
	return []TargetConfig{
		{
			Key:         "couchbase",
			Name:        "Couchbase",
			Description: "Enterprise database and analytics solutions provider",
			Companies: []string{
				"Coca Cola", "Delta Airlines", "The Home Depot", "IHG", "Black Knight",
				"Veem", "PWC", "Accesso", "Rollins", "NCR Voyix", "NCR Ateleos",
				"PGA Tour", "Hard Rock", "Equifax", "Chick-fil-A",
			},
		},
		{
			Key:         "subkit",
			Name:        "Subkit",
			Description: "E-commerce and subscription management platform",
			Companies: []string{
				"TRUFF", "310 Nutrition", "MUTHA", "HiBAR", "Viome", "BIOHM",
				"Fulton Fish Market", "EBOOST", "Obvi", "Kuli Kuli", "Tiege Hanley",
				"MUD/WTR", "GoPure", "Wilde Chips",
			},
		},
		{
			Key:         "legion",
			Name:        "Legion Technologies",
			Description: "Intelligent Automation Powered by Legion Workforce Management",
			Companies:   []string{"Apple", "Microsoft", "Meta"},
		},
	}
}
