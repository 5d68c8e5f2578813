package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ScoringConfig selects the models of each fallback chain and the invocation parameters.
type ScoringConfig struct {
	WritingPrimaryModel   string
	WritingFallbackModel  string
	SpeakingPrimaryModel  string
	SpeakingFallbackModel string
	SecondaryProvider     string
	SecondaryModel        string
	MaxTokens             int
	Temperature           float64
	ModelTimeout          time.Duration
	BandWindow            int
	CacheTTL              time.Duration
}

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseURL      string
	RedisURL         string
	NATSURL          string
	EventSubjectBase string
	JWTSecret        string
	AWSRegion        string
	Scoring          ScoringConfig
	MaxInputChars    int
	MaxOutputChars   int
	RubricFile       string
	OpenAIAPIKey     string
	AnthropicAPIKey  string
	GeminiAPIKey     string
	RateLimitMax     int
	RateLimitWindow  time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("IELTS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "IELTS GenAI Prep API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("events.subject_base", "ielts")
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("scoring.writing.primary_model", "amazon.nova-micro-v1:0")
	v.SetDefault("scoring.writing.fallback_model", "amazon.nova-lite-v1:0")
	v.SetDefault("scoring.speaking.primary_model", "amazon.nova-pro-v1:0")
	v.SetDefault("scoring.speaking.fallback_model", "amazon.nova-lite-v1:0")
	v.SetDefault("scoring.secondary_provider", "none")
	v.SetDefault("scoring.max_tokens", 1024)
	v.SetDefault("scoring.temperature", 0.1)
	v.SetDefault("scoring.model_timeout", "20s")
	v.SetDefault("scoring.band_window", 3)
	v.SetDefault("scoring.cache_ttl", "24h")
	v.SetDefault("safety.max_input_chars", 20000)
	v.SetDefault("safety.max_output_chars", 8000)
	v.SetDefault("rate_limit.max", 10)
	v.SetDefault("rate_limit.window", "1m")

	modelTimeout, err := parseDuration(v, "scoring.model_timeout")
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := parseDuration(v, "scoring.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	rateWindow, err := parseDuration(v, "rate_limit.window")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		EventSubjectBase: v.GetString("events.subject_base"),
		JWTSecret:        v.GetString("jwt.secret"),
		AWSRegion:        v.GetString("aws.region"),
		Scoring: ScoringConfig{
			WritingPrimaryModel:   v.GetString("scoring.writing.primary_model"),
			WritingFallbackModel:  v.GetString("scoring.writing.fallback_model"),
			SpeakingPrimaryModel:  v.GetString("scoring.speaking.primary_model"),
			SpeakingFallbackModel: v.GetString("scoring.speaking.fallback_model"),
			SecondaryProvider:     strings.ToLower(v.GetString("scoring.secondary_provider")),
			SecondaryModel:        v.GetString("scoring.secondary_model"),
			MaxTokens:             v.GetInt("scoring.max_tokens"),
			Temperature:           v.GetFloat64("scoring.temperature"),
			ModelTimeout:          modelTimeout,
			BandWindow:            v.GetInt("scoring.band_window"),
			CacheTTL:              cacheTTL,
		},
		MaxInputChars:   v.GetInt("safety.max_input_chars"),
		MaxOutputChars:  v.GetInt("safety.max_output_chars"),
		RubricFile:      v.GetString("rubric.file"),
		OpenAIAPIKey:    v.GetString("openai_api_key"),
		AnthropicAPIKey: v.GetString("anthropic_api_key"),
		GeminiAPIKey:    v.GetString("gemini_api_key"),
		RateLimitMax:    v.GetInt("rate_limit.max"),
		RateLimitWindow: rateWindow,
	}

	if cfg.Scoring.Temperature < 0 || cfg.Scoring.Temperature > 1 {
		return Config{}, fmt.Errorf("scoring temperature must be within [0, 1], got %v", cfg.Scoring.Temperature)
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
