// Package warmup exercises normalizers before a server starts taking traffic
// so compiled rule tables, pools and caches are hot on the first request.
package warmup

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/baditaflorin/go_invariant_normalizer/internal/core/domain"
	"github.com/baditaflorin/go_invariant_normalizer/internal/ports"
)

// WarmupConfig defines configuration for warming up the system
type WarmupConfig struct {
	// Number of concurrent warmup routines to run
	Concurrency int
	// Number of iterations per routine
	Iterations int
	// Warmup duration (0 means no time limit)
	Duration time.Duration
	// Whether to perform GC after warmup
	ForceGC bool
}

// DefaultWarmupConfig returns the default warmup configuration
func DefaultWarmupConfig() WarmupConfig {
	return WarmupConfig{
		Concurrency: runtime.NumCPU(),
		Iterations:  200,
		Duration:    5 * time.Second,
		ForceGC:     true,
	}
}

// Stats reports how much work a warmup run performed.
type Stats struct {
	Names       int64
	Units       int64
	Expressions int64
	Invariants  int64
	Duration    time.Duration
}

// Manager handles system warmup operations
type Manager struct {
	logger      ports.Logger
	names       []ports.Normalizer
	units       []ports.UnitStandardizer
	expressions []ports.Normalizer
	processors  []ports.InvariantProcessor
	config      WarmupConfig
}

// NewManager creates a new warmup manager
func NewManager(logger ports.Logger, config WarmupConfig) *Manager {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	return &Manager{
		logger: logger,
		config: config,
	}
}

// RegisterNameNormalizer adds a variable name normalizer to be warmed up.
func (wm *Manager) RegisterNameNormalizer(n ports.Normalizer) {
	wm.names = append(wm.names, n)
}

// RegisterUnitStandardizer adds a unit standardizer to be warmed up.
func (wm *Manager) RegisterUnitStandardizer(u ports.UnitStandardizer) {
	wm.units = append(wm.units, u)
}

// RegisterExpressionNormalizer adds an expression normalizer to be warmed up.
func (wm *Manager) RegisterExpressionNormalizer(n ports.Normalizer) {
	wm.expressions = append(wm.expressions, n)
}

// RegisterProcessor adds an invariant processor to be warmed up.
func (wm *Manager) RegisterProcessor(p ports.InvariantProcessor) {
	wm.processors = append(wm.processors, p)
}

// WarmUp runs the warmup process for all registered components
func (wm *Manager) WarmUp(ctx context.Context) Stats {
	startTime := time.Now()
	wm.logger.Info("Starting system warmup",
		"components", len(wm.names)+len(wm.units)+len(wm.expressions)+len(wm.processors),
		"concurrency", wm.config.Concurrency,
		"iterations", wm.config.Iterations,
	)

	warmupCtx := ctx
	if wm.config.Duration > 0 {
		var cancel context.CancelFunc
		warmupCtx, cancel = context.WithTimeout(ctx, wm.config.Duration)
		defer cancel()
	}

	var (
		mu    sync.Mutex
		stats Stats
		wg    sync.WaitGroup
	)
	for i := 0; i < wm.config.Concurrency; i++ {
		wg.Add(1)
		go func(routineID int) {
			defer wg.Done()
			local := wm.run(warmupCtx, routineID)

			mu.Lock()
			stats.Names += local.Names
			stats.Units += local.Units
			stats.Expressions += local.Expressions
			stats.Invariants += local.Invariants
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if wm.config.ForceGC {
		wm.logger.Debug("Forcing garbage collection after warmup")
		runtime.GC()
	}

	stats.Duration = time.Since(startTime)
	wm.logger.Info("System warmup completed",
		"duration", stats.Duration,
		"invariants", stats.Invariants,
	)
	return stats
}

func (wm *Manager) run(ctx context.Context, routineID int) Stats {
	var s Stats
	for j := 0; j < wm.config.Iterations; j++ {
		if ctx.Err() != nil {
			return s
		}

		sample := samples[(routineID+j)%len(samples)]
		for _, n := range wm.names {
			_ = n.Normalize(sample.name)
			s.Names++
		}
		for _, u := range wm.units {
			_ = u.Standardize(sample.unit)
			s.Units++
		}
		for _, n := range wm.expressions {
			_ = n.Normalize(sample.expression)
			s.Expressions++
		}
		for _, p := range wm.processors {
			inv := sample.invariant(j)
			p.Process(&inv)
			s.Invariants++
		}
	}
	return s
}

type sample struct {
	name       string
	unit       string
	expression string
}

var samples = []sample{
	{"User ID", "count", "User ID > 0"},
	{"user identifier", "COUNT", "user identifier ≠ 0"},
	{"Password Length", "chars", "Password Length ≥ 8"},
	{"Response Time", "ms", "Response Time ≤ 500 ∧ Response Time > 0"},
	{"Error Rate", "percentage", "Error Rate < 0.01"},
	{"CPU Usage", "%", "∀ host ∈ Fleet: CPU Usage < 0.9"},
	{"memoryUsage", "MB", "¬(memoryUsage > 512)"},
}

func (s sample) invariant(i int) domain.Invariant {
	return domain.Invariant{
		Description:      fmt.Sprintf("warmup invariant %d", i),
		FormalExpression: s.expression,
		Variables:        []domain.Variable{{Name: s.name, Type: domain.TypeInteger, Unit: s.unit}},
		Units:            domain.NewUnits(s.name, s.unit),
		ConfidenceScore:  1,
		Priority:         domain.PriorityLow,
	}
}
