// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings for the audit archive.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// SchedulerConfig provides settings for the asynq task queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetTaskQueueName() string
}

// PipelineConfig provides the deployment's pipeline shape.
type PipelineConfig interface {
	GetStageNames() []string
	GetInitialStage() string
}

// =============================================================================
// Pipeline shape file
// =============================================================================

// RosterEntry is one member of the sales team as listed in the pipeline file.
// It stands in for a record in the external workforce directory.
type RosterEntry struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// PipelineFile is the on-disk YAML shape of the pipeline configuration.
type PipelineFile struct {
	Pipeline struct {
		Stages  []string `yaml:"stages"`
		Initial string   `yaml:"initial"`
	} `yaml:"pipeline"`
	Roster []RosterEntry `yaml:"roster"`
}

// defaultStages is used when no pipeline shape is configured at all.
var defaultStages = []string{"New", "Contacted", "Meeting_Done", "Proposal_Sent", "Won", "Lost"}

// Config holds all application configuration.
type Config struct {
	Env      string
	HTTPAddr string

	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	JWTAccessSecret string

	// DatabaseURL is optional; the durable audit archive is disabled when empty.
	DatabaseURL string

	RedisURL         string
	RedisTLSInsecure bool
	TaskQueueName    string

	RateLimitRPS   float64
	RateLimitBurst int

	StageNames   []string
	InitialStage string
	Roster       []RosterEntry
}

// Load reads configuration from .env (if present) and the environment.
// The pipeline shape comes from the YAML file named by PIPELINE_CONFIG_PATH,
// falling back to the PIPELINE_STAGES / PIPELINE_INITIAL_STAGE variables,
// falling back to the built-in default shape.
func Load() (*Config, error) {
	// Best effort; absence of a .env file is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		Env:              getEnv("APP_ENV", "development"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:     getBool("CORS_ALLOW_ALL", false),
		CORSOrigins:      splitList(getEnv("CORS_ORIGINS", "")),
		CORSAllowCreds:   getBool("CORS_ALLOW_CREDENTIALS", false),
		JWTAccessSecret:  getEnv("JWT_ACCESS_SECRET", ""),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: getBool("REDIS_TLS_INSECURE", false),
		TaskQueueName:    getEnv("TASK_QUEUE_NAME", "default"),
		RateLimitRPS:     getFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:   getInt("RATE_LIMIT_BURST", 20),
	}

	if path := getEnv("PIPELINE_CONFIG_PATH", ""); path != "" {
		file, err := loadPipelineFile(path)
		if err != nil {
			return nil, fmt.Errorf("load pipeline config %s: %w", path, err)
		}
		cfg.StageNames = file.Pipeline.Stages
		cfg.InitialStage = file.Pipeline.Initial
		cfg.Roster = file.Roster
	} else if raw := getEnv("PIPELINE_STAGES", ""); raw != "" {
		cfg.StageNames = splitList(raw)
		cfg.InitialStage = getEnv("PIPELINE_INITIAL_STAGE", "")
	} else {
		cfg.StageNames = append([]string(nil), defaultStages...)
	}

	if cfg.InitialStage == "" && len(cfg.StageNames) > 0 {
		cfg.InitialStage = cfg.StageNames[0]
	}

	return cfg, nil
}

func loadPipelineFile(path string) (*PipelineFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file PipelineFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Pipeline.Stages) == 0 {
		return nil, fmt.Errorf("pipeline file declares no stages")
	}
	return &file, nil
}

// Interface implementations.

func (c *Config) GetDatabaseURL() string      { return c.DatabaseURL }
func (c *Config) GetJWTAccessSecret() string  { return c.JWTAccessSecret }
func (c *Config) GetHTTPAddr() string         { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool       { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string    { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool     { return c.CORSAllowCreds }
func (c *Config) GetRateLimitRPS() float64    { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int      { return c.RateLimitBurst }
func (c *Config) GetRedisURL() string         { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool   { return c.RedisTLSInsecure }
func (c *Config) GetTaskQueueName() string    { return c.TaskQueueName }
func (c *Config) GetStageNames() []string     { return c.StageNames }
func (c *Config) GetInitialStage() string     { return c.InitialStage }

// Helpers.

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
