package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dsiops/secret-gitlab-trigger/models"
	"github.com/dsiops/secret-gitlab-trigger/utils"
	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	GitLab        GitLabConfig
	Policy        PolicyConfig
	GCP           GCPConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// GitLabConfig holds the pipeline trigger configuration. ProjectID and
// TriggerToken have no defaults; when either is missing the service skips
// triggering instead of failing, so deploys without them stay healthy.
type GitLabConfig struct {
	BaseURL      string
	ProjectID    string `validate:"required"`
	Ref          string
	TriggerToken string `validate:"required"`
	Timeout      time.Duration
}

// PolicyConfig holds the label policy gating pipeline triggers
type PolicyConfig struct {
	RequiredLabels models.Labels
	Raw            string // original REQUIRED_LABELS value, kept for diagnostics
}

// GCPConfig holds GCP settings. ProjectID is passed through to pipeline
// variables only; it is never used to build secret store requests.
type GCPConfig struct {
	ProjectID          string
	PubSubProjectID    string
	PubSubSubscription string
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or console
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		GitLab: GitLabConfig{
			BaseURL:      strings.TrimRight(getEnv("GITLAB_URL", "https://gitlab.com"), "/"),
			ProjectID:    getEnv("GITLAB_PROJECT_ID", ""),
			Ref:          getEnv("GITLAB_REF", "main"),
			TriggerToken: getEnv("GITLAB_TRIGGER_TOKEN", ""),
			Timeout:      getEnvAsDuration("GITLAB_TIMEOUT", 30*time.Second),
		},
		Policy: loadPolicyConfig(),
		GCP: GCPConfig{
			ProjectID:          getEnv("GCP_PROJECT_ID", ""),
			PubSubProjectID:    getEnv("PUBSUB_PROJECT_ID", ""),
			PubSubSubscription: getEnv("PUBSUB_SUBSCRIPTION", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks structural sanity. Trigger completeness is deliberately not
// checked here: a deploy without GITLAB_PROJECT_ID or GITLAB_TRIGGER_TOKEN
// must start and skip events, not crash-loop.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.GitLab.BaseURL == "" {
		return fmt.Errorf("gitlab base URL is required")
	}
	if c.GitLab.Timeout <= 0 {
		return fmt.Errorf("gitlab timeout must be positive")
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}
	if c.GCP.PubSubSubscription != "" && c.GCP.PubSubProjectID == "" {
		return fmt.Errorf("PUBSUB_PROJECT_ID is required when PUBSUB_SUBSCRIPTION is set")
	}
	return nil
}

// TriggerReady reports whether the configuration carries everything needed to
// call the GitLab trigger API. A non-nil error means events are skipped.
func (c GitLabConfig) TriggerReady() error {
	return utils.ValidateStruct(c)
}

// ParseError returns the parse failure behind an empty-policy fallback, or
// nil when Raw was valid. RequiredLabels is already safe to use either way.
func (p PolicyConfig) ParseError() error {
	_, err := models.ParseLabelPolicy(p.Raw)
	return err
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// loadPolicyConfig parses REQUIRED_LABELS, falling back to the empty policy
// on invalid input. The raw value is retained so the fallback can be logged
// once a logger exists.
func loadPolicyConfig() PolicyConfig {
	raw := getEnv("REQUIRED_LABELS", "{}")
	labels, _ := models.ParseLabelPolicy(raw)
	return PolicyConfig{
		RequiredLabels: labels,
		Raw:            raw,
	}
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
