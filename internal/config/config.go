// Package config reads process configuration from the environment once at
// startup. The resulting Config is passed by value into constructors and is
// never mutated afterwards.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port       string
	Env        string
	AppVersion string
	LogLevel   string
	LogFormat  string

	QuizConfigDir     string
	DefaultConfigFile string
	DefaultLocale     string

	Gemini  GeminiConfig
	Breaker BreakerConfig
	Redis   RedisConfig
	Qdrant  QdrantConfig
}

type GeminiConfig struct {
	APIKey          string
	Backend         string // "gemini" or "vertex"
	Project         string
	Location        string
	Model           string
	Timeout         time.Duration
	Temperature     float32
	TopK            float32
	TopP            float32
	MaxOutputTokens int32
}

// Configured reports whether a credential for the selected backend is present.
func (g GeminiConfig) Configured() bool {
	if g.Backend == "vertex" {
		return g.Project != "" && g.Location != ""
	}
	return g.APIKey != ""
}

type BreakerConfig struct {
	Failures uint32
	Cooldown time.Duration
}

type RedisConfig struct {
	Addr        string
	TokenLimit  int
	UsageWindow time.Duration
}

type QdrantConfig struct {
	Host       string
	Port       int
	Collection string
	Threshold  float32
}

// Load reads envFile if present, then the process environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		// missing env files are expected outside local development
		_ = godotenv.Load(envFile)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("APP_VERSION", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("QUIZ_CONFIG_DIR", "public/config")
	v.SetDefault("DEFAULT_CONFIG_FILE", "example.json")
	v.SetDefault("DEFAULT_LOCALE", "en")

	v.SetDefault("GEMINI_BACKEND", "gemini")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("GEMINI_TIMEOUT", "20s")
	v.SetDefault("GEMINI_TEMPERATURE", 0.7)
	v.SetDefault("GEMINI_TOP_K", 40)
	v.SetDefault("GEMINI_TOP_P", 0.95)
	v.SetDefault("GEMINI_MAX_OUTPUT_TOKENS", 2048)

	v.SetDefault("BREAKER_FAILURES", 5)
	v.SetDefault("BREAKER_COOLDOWN", "30s")

	v.SetDefault("USER_TOKEN_LIMIT", 0)
	v.SetDefault("USAGE_WINDOW", "24h")

	v.SetDefault("QDRANT_PORT", 6334)
	v.SetDefault("QDRANT_COLLECTION", "quiz_recommendations")
	v.SetDefault("CACHE_THRESHOLD", 0.99)
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:              v.GetString("PORT"),
		Env:               v.GetString("ENV"),
		AppVersion:        v.GetString("APP_VERSION"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogFormat:         v.GetString("LOG_FORMAT"),
		QuizConfigDir:     v.GetString("QUIZ_CONFIG_DIR"),
		DefaultConfigFile: v.GetString("DEFAULT_CONFIG_FILE"),
		DefaultLocale:     v.GetString("DEFAULT_LOCALE"),
		Gemini: GeminiConfig{
			APIKey:          v.GetString("GEMINI_API_KEY"),
			Backend:         v.GetString("GEMINI_BACKEND"),
			Project:         v.GetString("GOOGLE_CLOUD_PROJECT"),
			Location:        v.GetString("GOOGLE_CLOUD_LOCATION"),
			Model:           v.GetString("GEMINI_MODEL"),
			Timeout:         v.GetDuration("GEMINI_TIMEOUT"),
			Temperature:     float32(v.GetFloat64("GEMINI_TEMPERATURE")),
			TopK:            float32(v.GetFloat64("GEMINI_TOP_K")),
			TopP:            float32(v.GetFloat64("GEMINI_TOP_P")),
			MaxOutputTokens: v.GetInt32("GEMINI_MAX_OUTPUT_TOKENS"),
		},
		Breaker: BreakerConfig{
			Failures: v.GetUint32("BREAKER_FAILURES"),
			Cooldown: v.GetDuration("BREAKER_COOLDOWN"),
		},
		Redis: RedisConfig{
			Addr:        v.GetString("REDIS_ADDR"),
			TokenLimit:  v.GetInt("USER_TOKEN_LIMIT"),
			UsageWindow: v.GetDuration("USAGE_WINDOW"),
		},
		Qdrant: QdrantConfig{
			Host:       v.GetString("QDRANT_HOST"),
			Port:       v.GetInt("QDRANT_PORT"),
			Collection: v.GetString("QDRANT_COLLECTION"),
			Threshold:  float32(v.GetFloat64("CACHE_THRESHOLD")),
		},
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.Gemini.Backend != "gemini" && c.Gemini.Backend != "vertex" {
		errs = append(errs, fmt.Errorf("GEMINI_BACKEND must be gemini or vertex, got %q", c.Gemini.Backend))
	}
	if c.Gemini.Timeout <= 0 {
		errs = append(errs, errors.New("GEMINI_TIMEOUT must be positive"))
	}
	if c.Qdrant.Threshold <= 0 || c.Qdrant.Threshold > 1 {
		errs = append(errs, fmt.Errorf("CACHE_THRESHOLD must be in (0, 1], got %v", c.Qdrant.Threshold))
	}
	return errors.Join(errs...)
}
