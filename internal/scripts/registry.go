package scripts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"NewsAggregator/internal/ports"
)

// Env carries the dependencies handed to every script.
type Env struct {
	Repo       ports.MaintenanceRepository
	Generator  ports.MetadataGenerator
	Limiter    ports.RateLimiter
	Out        io.Writer
	Logger     *slog.Logger
	BatchSize  int
	BatchDelay time.Duration
	Now        func() time.Time
}

// Script is one operator task.
type Script struct {
	Name        string
	Description string
	Run         func(ctx context.Context, env Env) error
}

// Registry keeps a mapping from script names to their implementations.
type Registry struct {
	scripts map[string]Script
}

// NewRegistry builds a registry from a fixed list.
func NewRegistry(scripts ...Script) *Registry {
	r := &Registry{scripts: make(map[string]Script, len(scripts))}
	for _, s := range scripts {
		r.scripts[s.Name] = s
	}
	return r
}

// Default returns every built-in script.
func Default() *Registry {
	return NewRegistry(DatabaseStats(), FillMissingArticlesData())
}

// List returns scripts sorted by name.
func (r *Registry) List() []Script {
	out := make([]Script, 0, len(r.scripts))
	for _, s := range r.scripts {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve returns a script by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Script, error) {
	if s, ok := r.scripts[name]; ok {
		return s, nil
	}
	return Script{}, fmt.Errorf("script %s is not registered", name)
}

// Run resolves and executes name.
func (r *Registry) Run(ctx context.Context, name string, env Env) error {
	script, err := r.Resolve(name)
	if err != nil {
		return err
	}
	env = env.withDefaults()

	start := env.Now()
	env.Logger.Info("script started", "script", name)
	if err := script.Run(ctx, env); err != nil {
		env.Logger.Error("script failed", "script", name, "error", err)
		return fmt.Errorf("script %s: %w", name, err)
	}
	env.Logger.Info("script finished", "script", name, "duration", env.Now().Sub(start))
	return nil
}

func (e Env) withDefaults() Env {
	if e.Out == nil {
		e.Out = io.Discard
	}
	if e.Logger == nil {
		e.Logger = slog.Default()
	}
	if e.BatchSize <= 0 {
		e.BatchSize = 100
	}
	if e.Now == nil {
		e.Now = time.Now
	}
	return e
}
