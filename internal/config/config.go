// Package config loads process configuration from defaults and INVNORM_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/cache"
	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/extractor"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "INVNORM_"

// Extraction backends.
const (
	BackendKeyword = "keyword"
	BackendLLM     = "llm"
)

// Config is the full process configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Log        LogConfig        `koanf:"log"`
	Extraction ExtractionConfig `koanf:"extraction"`
	LLM        LLMConfig        `koanf:"llm"`
	Cache      CacheConfig      `koanf:"cache"`
	Rules      RulesConfig      `koanf:"rules"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	MaxBodySize     int           `koanf:"max_body_size" validate:"gt=0"`
	Warmup          bool          `koanf:"warmup"`
}

// LogConfig configures logging.
type LogConfig struct {
	JSON bool `koanf:"json"`
}

// ExtractionConfig configures the extraction service.
type ExtractionConfig struct {
	Backend             string  `koanf:"backend" validate:"oneof=keyword llm"`
	ConfidenceThreshold float64 `koanf:"confidence_threshold" validate:"gte=0,lte=1"`
	Workers             int     `koanf:"workers" validate:"gte=1"`
	RedactNames         bool    `koanf:"redact_names"`
	PromptFile          string  `koanf:"prompt_file"`
	PromptVersion       string  `koanf:"prompt_version"`
}

// LLMConfig configures the language model backend.
type LLMConfig struct {
	APIKey           string        `koanf:"api_key"`
	Model            string        `koanf:"model" validate:"required"`
	Endpoint         string        `koanf:"endpoint" validate:"required,url"`
	AnthropicVersion string        `koanf:"anthropic_version" validate:"required"`
	MaxTokens        int           `koanf:"max_tokens" validate:"gt=0"`
	Temperature      float64       `koanf:"temperature" validate:"gte=0,lte=1"`
	Timeout          time.Duration `koanf:"timeout" validate:"gt=0"`
	MaxRetries       uint64        `koanf:"max_retries"`
	RetryDelay       time.Duration `koanf:"retry_delay" validate:"gt=0"`
	CostPer1KTokens  float64       `koanf:"cost_per_1k_tokens" validate:"gte=0"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	Backend       string        `koanf:"backend" validate:"oneof=none memory redis"`
	TTL           time.Duration `koanf:"ttl" validate:"gt=0"`
	Size          int           `koanf:"size" validate:"gte=0"`
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db" validate:"gte=0"`
	KeyPrefix     string        `koanf:"key_prefix"`
}

// RulesConfig points at an optional YAML file extending the default rules.
type RulesConfig struct {
	File string `koanf:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
	llm := extractor.DefaultLLMConfig()
	c := cache.DefaultConfig()

	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodySize:     4 * 1024 * 1024,
			Warmup:          true,
		},
		Extraction: ExtractionConfig{
			Backend:             BackendKeyword,
			ConfidenceThreshold: 0.5,
			Workers:             4,
			RedactNames:         true,
			PromptVersion:       extractor.DefaultPromptVersion,
		},
		LLM: LLMConfig{
			Model:            llm.Model,
			Endpoint:         llm.Endpoint,
			AnthropicVersion: llm.AnthropicVersion,
			MaxTokens:        llm.MaxTokens,
			Temperature:      llm.Temperature,
			Timeout:          llm.Timeout,
			MaxRetries:       llm.MaxRetries,
			RetryDelay:       llm.RetryDelay,
			CostPer1KTokens:  llm.CostPer1KTokens,
		},
		Cache: CacheConfig{
			Backend:   c.Backend,
			TTL:       c.TTL,
			Size:      c.Size,
			KeyPrefix: "invnorm:",
		},
	}
}

// Load reads the defaults and overlays INVNORM_* environment variables.
// INVNORM_LLM_API_KEY sets llm.api_key, INVNORM_CACHE_REDIS_ADDR sets
// cache.redis_addr, and so on.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return transformEnvKey(key), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// transformEnvKey maps INVNORM_SECTION_SOME_KEY to section.some_key.
func transformEnvKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	return section + "." + rest
}

var validate = validator.New()

// Validate checks struct tags and the rules that span sections.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Extraction.Backend == BackendLLM && c.LLM.APIKey == "" {
		return errors.New("llm.api_key is required when extraction.backend is llm")
	}
	if c.Cache.Backend == cache.BackendRedis && c.Cache.RedisAddr == "" {
		return errors.New("cache.redis_addr is required when cache.backend is redis")
	}
	if c.Cache.Backend == cache.BackendMemory && c.Cache.Size == 0 {
		return errors.New("cache.size must be greater than 0 for the memory cache")
	}
	return nil
}

// ToExtractor converts the llm section for extractor.NewLLM.
func (c LLMConfig) ToExtractor() extractor.LLMConfig {
	return extractor.LLMConfig{
		APIKey:           c.APIKey,
		Model:            c.Model,
		Endpoint:         c.Endpoint,
		AnthropicVersion: c.AnthropicVersion,
		MaxTokens:        c.MaxTokens,
		Temperature:      c.Temperature,
		Timeout:          c.Timeout,
		MaxRetries:       c.MaxRetries,
		RetryDelay:       c.RetryDelay,
		CostPer1KTokens:  c.CostPer1KTokens,
	}
}

// ToCache converts the cache section for cache.New.
func (c CacheConfig) ToCache() cache.Config {
	return cache.Config{
		Backend:       c.Backend,
		TTL:           c.TTL,
		Size:          c.Size,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		KeyPrefix:     c.KeyPrefix,
	}
}
