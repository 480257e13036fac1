package harness

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sergeypospelov/toolcall-agent/tca/config"
	"github.com/sergeypospelov/toolcall-agent/tca/harness/adapters"
	ports "github.com/sergeypospelov/toolcall-agent/tca/harness/ports"
	"github.com/sergeypospelov/toolcall-agent/tca/harness/tools"
)

// Factory creates and wires a session's agent from configuration.
type Factory struct {
	cfg    *config.Config
	store  ports.SessionStore // nil = archive disabled
	logger zerolog.Logger
}

// NewFactory creates a factory. store may be nil when archiving is off.
func NewFactory(cfg *config.Config, store ports.SessionStore, logger zerolog.Logger) *Factory {
	return &Factory{cfg: cfg, store: store, logger: logger}
}

// BuildAgent assembles the gateway, the tool registry, and the surrounding
// infrastructure into a ready session agent. Fails when the API key is
// missing or a tool registers twice.
func (f *Factory) BuildAgent() (*Agent, error) {
	gw := f.cfg.Gateway
	if gw.APIKey == "" {
		return nil, fmt.Errorf("no API key configured: set OPENAI_API_KEY or gateway.api_key")
	}

	gateway := adapters.NewOpenAIGateway(gw.APIKey, gw.BaseURL, gw.Model, NewOutputParser())

	registry, err := f.buildRegistry()
	if err != nil {
		return nil, err
	}

	store := f.store
	if store == nil {
		store = &noOpStore{}
	}

	agent := NewAgent(
		gateway,
		registry,
		store,
		f.buildCache(),
		f.buildRateLimiter(),
		f.buildTracer(),
		f.buildPolicy(),
		f.cfg.Loop.SystemPrompt,
	)
	return agent, nil
}

// buildRegistry registers the session's tool set. The registry is frozen by
// NewAgent; the set is fixed for the session's lifetime.
func (f *Factory) buildRegistry() (*Registry, error) {
	registry := NewRegistry()

	toolSet := []ports.Tool{
		tools.NewWeatherTool(),
		tools.NewBashTool(f.cfg.Tools.Bash.WorkDir, f.cfg.Tools.Bash.MaxOutputBytes),
		tools.NewClockTool(f.cfg.Tools.Clock.ZoneinfoDir),
	}
	for _, tool := range toolSet {
		if err := registry.Register(tool); err != nil {
			return nil, fmt.Errorf("register tool: %w", err)
		}
	}
	return registry, nil
}

func (f *Factory) buildCache() ports.Cache {
	if !f.cfg.Harness.CacheEnabled {
		return &noOpCache{}
	}
	return adapters.NewLRUCache(f.cfg.Harness.CacheCapacity)
}

func (f *Factory) buildRateLimiter() ports.RateLimiter {
	if !f.cfg.Harness.RateLimitEnabled {
		return &noOpRateLimiter{}
	}
	return adapters.NewTokenBucket(f.cfg.Harness.RateLimitCapacity, f.cfg.Harness.RateLimitRefillRate)
}

func (f *Factory) buildTracer() ports.Tracer {
	if !f.cfg.Harness.EnableTracing {
		return &noOpTracer{}
	}
	return adapters.NewZerologTracer(f.logger)
}

// buildPolicy maps config onto loop policy, clamping values into safe ranges.
func (f *Factory) buildPolicy() *Policy {
	policy := &Policy{
		MaxRounds:       ClampRounds(f.cfg.Loop.MaxRounds),
		GatewayTimeout:  f.cfg.Gateway.Timeout,
		ToolTimeout:     f.cfg.Loop.ToolTimeout,
		ToolConcurrency: f.cfg.Loop.ToolConcurrency,
		CacheTTLSeconds: f.cfg.Harness.CacheTTLSeconds,
	}
	if policy.MaxRounds != f.cfg.Loop.MaxRounds {
		f.logger.Warn().Int("max_rounds", f.cfg.Loop.MaxRounds).Int("clamped", policy.MaxRounds).
			Msg("loop.max_rounds clamped")
	}

	if policy.GatewayTimeout < 0 {
		policy.GatewayTimeout = 0
	}
	if policy.ToolTimeout < 0 {
		policy.ToolTimeout = 0
	}
	if policy.ToolConcurrency < 1 {
		policy.ToolConcurrency = 1
	}
	return policy
}

// ClampRounds bounds a round-cap value into [1, 50]. Shared with the config
// reload path so a live edit obeys the same limits.
func ClampRounds(n int) int {
	if n < 1 {
		return 1
	}
	if n > 50 {
		return 50
	}
	return n
}

// noOpCache never hits; it backs the cache-disabled configuration.
type noOpCache struct{}

func (*noOpCache) Get(ctx context.Context, key string) ([]byte, bool) { return nil, false }
func (*noOpCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	return nil
}
func (*noOpCache) Delete(ctx context.Context, key string) error { return nil }

// noOpRateLimiter always admits.
type noOpRateLimiter struct{}

func (*noOpRateLimiter) Acquire(ctx context.Context, key string) (func(), error) {
	return func() {}, nil
}

// noOpTracer discards spans and events.
type noOpTracer struct{}

func (*noOpTracer) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error)) {
	return ctx, func(error) {}
}
func (*noOpTracer) Event(ctx context.Context, name string, attrs map[string]any) {}

// noOpStore discards turns; it backs the archive-disabled configuration.
type noOpStore struct{}

func (*noOpStore) SaveTurn(ctx context.Context, sessionID string, turn ports.Turn) error {
	return nil
}

func (*noOpStore) ListSession(ctx context.Context, sessionID string) ([]ports.Turn, error) {
	return nil, nil
}

// Ensure all no-op types implement their interfaces.
var (
	_ ports.Cache        = (*noOpCache)(nil)
	_ ports.RateLimiter  = (*noOpRateLimiter)(nil)
	_ ports.Tracer       = (*noOpTracer)(nil)
	_ ports.SessionStore = (*noOpStore)(nil)
)
