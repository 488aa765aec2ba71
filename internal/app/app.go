// Package app assembles the normalization pipeline and the extraction
// service from a loaded configuration.
package app

import (
	"errors"
	"fmt"

	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/cache"
	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/extractor"
	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/normalizer"
	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/redactor"
	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/stream"
	"github.com/baditaflorin/go_invariant_normalizer/internal/config"
	"github.com/baditaflorin/go_invariant_normalizer/internal/core/postprocess"
	"github.com/baditaflorin/go_invariant_normalizer/internal/ports"
	"github.com/baditaflorin/go_invariant_normalizer/internal/service"
	"github.com/baditaflorin/go_invariant_normalizer/internal/warmup"
	"github.com/baditaflorin/go_invariant_normalizer/pkg/rules"
)

// App holds the wired components of one process.
type App struct {
	Config    *config.Config
	Logger    ports.Logger
	Rules     *rules.RuleSet
	Factory   *normalizer.NormalizerFactory
	Processor *postprocess.Processor
	Extractor ports.Extractor
	Cache     cache.Cache
	Service   *service.Service
}

// Option adjusts an App before the service is created.
type Option func(*App)

// WithExtractor replaces the extractor selected by the configuration.
func WithExtractor(e ports.Extractor) Option {
	return func(a *App) {
		a.Extractor = e
	}
}

// Build wires every component named by cfg.
func Build(cfg *config.Config, logger ports.Logger, version string, opts ...Option) (*App, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("config and logger are required")
	}

	rs := rules.Default()
	if cfg.Rules.File != "" {
		var err error
		rs, err = rules.LoadFile(cfg.Rules.File)
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded rule file", "path", cfg.Rules.File, "tokens", len(rs.Tokens()))
	}

	f := normalizer.NewNormalizerFactory(rs)
	proc, err := postprocess.NewProcessor(
		logger,
		f.CreateNormalizer(normalizer.NameNormalizerType),
		f.CreateUnitStandardizer(),
		f.CreateNormalizer(normalizer.ExpressionNormalizerType),
	)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Rules:     rs,
		Factory:   f,
		Processor: proc,
	}
	for _, opt := range opts {
		opt(a)
	}

	promptVersion := cfg.Extraction.PromptVersion
	if a.Extractor == nil {
		switch cfg.Extraction.Backend {
		case config.BackendLLM:
			prompt, err := extractor.LoadPrompt(cfg.Extraction.PromptFile, cfg.Extraction.PromptVersion, logger)
			if err != nil {
				return nil, err
			}
			llm, err := extractor.NewLLM(cfg.LLM.ToExtractor(), prompt, logger)
			if err != nil {
				return nil, err
			}
			promptVersion = llm.PromptVersion()
			a.Extractor = llm
		default:
			a.Extractor = extractor.NewKeyword(logger)
		}
	}

	a.Cache, err = cache.New(cfg.Cache.ToCache(), logger)
	if err != nil {
		return nil, err
	}

	a.Service, err = service.New(service.Config{
		ConfidenceThreshold: cfg.Extraction.ConfidenceThreshold,
		Workers:             cfg.Extraction.Workers,
		PromptVersion:       promptVersion,
		Version:             version,
	}, service.Dependencies{
		Extractor: a.Extractor,
		Processor: proc,
		Redactor:  redactor.NewPII(cfg.Extraction.RedactNames),
		Cache:     a.Cache,
		Rules:     rs,
		Logger:    logger,
	})
	if err != nil {
		_ = a.Cache.Close()
		return nil, fmt.Errorf("create service: %w", err)
	}

	logger.Info("Pipeline initialized",
		"backend", cfg.Extraction.Backend,
		"cache", cfg.Cache.Backend,
		"prompt_version", promptVersion,
	)
	return a, nil
}

// Stream returns an NDJSON stream processor over the app's rule set.
func (a *App) Stream() *stream.Processor {
	return stream.NewProcessor(a.Logger, a.Processor, stream.Config{Workers: a.Config.Extraction.Workers})
}

// Warmup returns a warm-up manager with every normalizer registered.
func (a *App) Warmup(cfg warmup.WarmupConfig) *warmup.Manager {
	wm := warmup.NewManager(a.Logger, cfg)
	wm.RegisterNameNormalizer(a.Factory.CreateNormalizer(normalizer.NameNormalizerType))
	wm.RegisterUnitStandardizer(a.Factory.CreateUnitStandardizer())
	wm.RegisterExpressionNormalizer(a.Factory.CreateNormalizer(normalizer.ExpressionNormalizerType))
	wm.RegisterProcessor(a.Processor)
	return wm
}

// Close releases the cache.
func (a *App) Close() error {
	if a.Cache == nil {
		return nil
	}
	return a.Cache.Close()
}
