package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	ports "github.com/sergeypospelov/toolcall-agent/tca/harness/ports"
)

// Policy controls loop behavior for one session.
type Policy struct {
	MaxRounds       int           // tool-dispatch rounds allowed per user turn
	GatewayTimeout  time.Duration // per-query budget
	ToolTimeout     time.Duration // per-invocation budget
	ToolConcurrency int           // parallel invocations within one round
	CacheTTLSeconds int           // completion cache entry lifetime
}

// DefaultPolicy returns the defaults used when no configuration is loaded.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxRounds:       5,
		GatewayTimeout:  60 * time.Second,
		ToolTimeout:     30 * time.Second,
		ToolConcurrency: 4,
		CacheTTLSeconds: 3600,
	}
}

// TurnResult is the outcome of one user turn.
type TurnResult struct {
	Answer      string // final assistant text; empty when the round cap ended the turn
	Rounds      int    // dispatch rounds consumed
	CapExceeded bool   // the round cap ended the turn before a final answer
	Usage       *ports.Usage
}

// TurnListener observes loop progress so the caller can render the exchange
// as it unfolds. Calls happen inline on the loop goroutine.
type TurnListener interface {
	ToolRequested(inv ports.ToolInvocation)
	ToolResolved(res ports.ToolResult)
	Notice(text string)
}

type noopListener struct{}

func (noopListener) ToolRequested(ports.ToolInvocation) {}
func (noopListener) ToolResolved(ports.ToolResult)      {}
func (noopListener) Notice(string)                      {}

// Agent drives the tool-calling loop for one interactive session. Each turn
// moves prompt -> query -> dispatch -> done: the user prompt is appended, the
// gateway is queried with the full transcript, requested tools are dispatched
// and their results appended, and the cycle repeats until a final answer.
// The Agent owns the transcript; every message enters it through append.
type Agent struct {
	sessionID  string
	gateway    ports.Gateway
	registry   *Registry
	executor   *Executor
	transcript *Transcript
	policy     *Policy
	store      ports.SessionStore
	cache      ports.Cache
	limiter    ports.RateLimiter
	tracer     ports.Tracer
	specs      []ports.ToolSpec
	maxRounds  atomic.Int32 // adjustable at runtime via config reload
}

// NewAgent wires a session. The registry is frozen here; the tool set is
// fixed for the session's lifetime.
func NewAgent(
	gateway ports.Gateway,
	registry *Registry,
	store ports.SessionStore,
	cache ports.Cache,
	limiter ports.RateLimiter,
	tracer ports.Tracer,
	policy *Policy,
	system string,
) *Agent {
	if policy == nil {
		policy = DefaultPolicy()
	}
	registry.Freeze()
	system = NewPromptBuilder().Build(system)

	a := &Agent{
		sessionID:  uuid.NewString(),
		gateway:    gateway,
		registry:   registry,
		executor:   NewExecutor(registry, policy.ToolTimeout),
		transcript: NewTranscript(system),
		policy:     policy,
		store:      store,
		cache:      cache,
		limiter:    limiter,
		tracer:     tracer,
		specs:      registry.Specs(),
	}
	a.maxRounds.Store(int32(policy.MaxRounds))

	if system != "" {
		a.archive(context.Background(), ports.Turn{
			Role:      string(ports.RoleSystem),
			Content:   system,
			CreatedAt: time.Now(),
		})
	}
	return a
}

// SessionID identifies this session in the archive.
func (a *Agent) SessionID() string { return a.sessionID }

// History returns a copy of the transcript accumulated so far.
func (a *Agent) History() []ports.Message { return a.transcript.Snapshot() }

// SetMaxRounds adjusts the per-turn round cap for subsequent turns. Safe to
// call from the config watcher goroutine while a turn is running.
func (a *Agent) SetMaxRounds(n int) {
	if n < 1 {
		n = 1
	}
	a.maxRounds.Store(int32(n))
}

// Turn processes one user prompt to completion. A returned error is always a
// *ports.GatewayError; the transcript then holds nothing from the failed
// query, so the user may simply retry. All tool-side failures are absorbed
// into the transcript instead of being returned.
func (a *Agent) Turn(ctx context.Context, prompt string, listener TurnListener) (*TurnResult, error) {
	if listener == nil {
		listener = noopListener{}
	}

	ctx, finish := a.tracer.StartSpan(ctx, "turn", map[string]any{
		"session_id": a.sessionID,
		"transcript": a.transcript.Len(),
	})

	a.append(ctx, ports.Message{Role: ports.RoleUser, Content: prompt})

	result, err := a.runLoop(ctx, listener)
	finish(err)
	return result, err
}

// runLoop executes the query/dispatch cycle until a final answer, the round
// cap, or a gateway failure.
func (a *Agent) runLoop(ctx context.Context, listener TurnListener) (*TurnResult, error) {
	maxRounds := int(a.maxRounds.Load())
	rounds := 0
	var usage *ports.Usage

	for {
		if err := ctx.Err(); err != nil {
			return nil, &ports.GatewayError{Err: err}
		}

		outcome, err := a.query(ctx)
		if err != nil {
			return nil, err
		}

		switch out := outcome.(type) {
		case ports.FinalAnswer:
			if out.Usage != nil {
				usage = out.Usage
			}
			a.append(ctx, ports.Message{Role: ports.RoleAssistant, Content: out.Text})
			return &TurnResult{Answer: out.Text, Rounds: rounds, Usage: usage}, nil

		case ports.ToolRequests:
			if out.Usage != nil {
				usage = out.Usage
			}
			if len(out.Invocations) == 0 {
				// Degenerate batch; close the turn with whatever text came along.
				a.append(ctx, ports.Message{Role: ports.RoleAssistant, Content: out.Content})
				return &TurnResult{Answer: out.Content, Rounds: rounds, Usage: usage}, nil
			}
			if rounds >= maxRounds {
				// The capped exchange is not committed: the transcript keeps
				// every request paired with its result for the next query.
				listener.Notice(fmt.Sprintf("Tool round limit (%d) reached; stopping this turn.", maxRounds))
				return &TurnResult{Rounds: rounds, CapExceeded: true, Usage: usage}, nil
			}
			rounds++

			a.append(ctx, ports.Message{
				Role:      ports.RoleAssistant,
				Content:   out.Content,
				ToolCalls: out.Invocations,
			})
			for _, inv := range out.Invocations {
				listener.ToolRequested(inv)
			}

			dctx, dfinish := a.tracer.StartSpan(ctx, "dispatch_round", map[string]any{
				"round":       rounds,
				"invocations": len(out.Invocations),
			})
			results := a.executor.ExecuteAll(dctx, out.Invocations, a.policy.ToolConcurrency)
			dfinish(nil)

			// One tool message per requested invocation, in request order.
			for _, res := range results {
				listener.ToolResolved(res)
				a.append(ctx, toolMessage(res))
			}

		default:
			return nil, &ports.GatewayError{Err: fmt.Errorf("unsupported model outcome %T", outcome)}
		}
	}
}

// query sends the full transcript through the gateway, consulting the
// completion cache and rate limiter on the way.
func (a *Agent) query(ctx context.Context) (ports.ModelOutcome, error) {
	release, err := a.limiter.Acquire(ctx, "gateway")
	if err != nil {
		return nil, &ports.GatewayError{Err: err}
	}
	defer release()

	snapshot := a.transcript.Snapshot()
	key := a.cacheKey(snapshot)
	if cached, ok := a.cache.Get(ctx, key); ok {
		if outcome, err := decodeOutcome(cached); err == nil {
			a.tracer.Event(ctx, "cache_hit", map[string]any{"key": key})
			return outcome, nil
		}
	}

	qctx := ctx
	if a.policy.GatewayTimeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, a.policy.GatewayTimeout)
		defer cancel()
	}

	qctx, finish := a.tracer.StartSpan(qctx, "gateway_query", map[string]any{
		"messages": len(snapshot),
	})
	outcome, err := a.gateway.Query(qctx, snapshot, a.specs)
	finish(err)
	if err != nil {
		var gerr *ports.GatewayError
		if errors.As(err, &gerr) {
			return nil, err
		}
		return nil, &ports.GatewayError{Err: err}
	}

	if encoded, err := encodeOutcome(outcome); err == nil {
		_ = a.cache.Set(ctx, key, encoded, a.policy.CacheTTLSeconds)
	}
	return outcome, nil
}

// append is the single controlled path through which the transcript grows.
// Each message is mirrored into the session archive best-effort; archive
// failures are traced, never surfaced.
func (a *Agent) append(ctx context.Context, msg ports.Message) {
	a.transcript.Append(msg)
	a.archive(ctx, ports.Turn{
		Role:       string(msg.Role),
		Content:    archiveContent(msg),
		ToolCallID: msg.ToolCallID,
		CreatedAt:  time.Now(),
	})
}

func (a *Agent) archive(ctx context.Context, turn ports.Turn) {
	if err := a.store.SaveTurn(ctx, a.sessionID, turn); err != nil {
		a.tracer.Event(ctx, "store_error", map[string]any{"error": err.Error()})
	}
}

// toolMessage converts a terminal ToolResult into its transcript form. The
// model sees failures as text and may retry or answer despite them.
func toolMessage(res ports.ToolResult) ports.Message {
	content := res.Payload
	if !res.Success {
		content = "Error: " + res.Error
	}
	return ports.Message{
		Role:       ports.RoleTool,
		Content:    content,
		ToolCallID: res.InvocationID,
	}
}

// archiveContent renders assistant request batches visibly in the archive.
func archiveContent(msg ports.Message) string {
	if len(msg.ToolCalls) == 0 {
		return msg.Content
	}
	parts := make([]string, 0, len(msg.ToolCalls)+1)
	if msg.Content != "" {
		parts = append(parts, msg.Content)
	}
	for _, call := range msg.ToolCalls {
		parts = append(parts, fmt.Sprintf("[tool request %s: %s(%s)]", call.ID, call.Name, string(call.Args)))
	}
	return strings.Join(parts, "\n")
}

// cacheKey derives a deterministic key from the full transcript and the tool
// declarations; only an identical replay hits the same entry.
func (a *Agent) cacheKey(snapshot []ports.Message) string {
	// djb2 keeps keys short and stable
	h := uint32(5381)
	write := func(s string) {
		for _, r := range s {
			h = ((h << 5) + h) + uint32(r)
		}
	}
	for _, msg := range snapshot {
		write(string(msg.Role))
		write(msg.Content)
		write(msg.ToolCallID)
		for _, call := range msg.ToolCalls {
			write(call.ID)
			write(call.Name)
			write(string(call.Args))
		}
	}
	for _, spec := range a.specs {
		write(spec.Name)
	}
	return fmt.Sprintf("turn:%x:%d", h, len(snapshot))
}

// cachedOutcome is the serialized form of a ModelOutcome for the cache.
type cachedOutcome struct {
	Final    *ports.FinalAnswer  `json:"final,omitempty"`
	Requests *ports.ToolRequests `json:"requests,omitempty"`
}

func encodeOutcome(outcome ports.ModelOutcome) ([]byte, error) {
	var c cachedOutcome
	switch out := outcome.(type) {
	case ports.FinalAnswer:
		c.Final = &out
	case ports.ToolRequests:
		c.Requests = &out
	default:
		return nil, fmt.Errorf("unsupported outcome %T", outcome)
	}
	return json.Marshal(c)
}

func decodeOutcome(data []byte) (ports.ModelOutcome, error) {
	var c cachedOutcome
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	switch {
	case c.Final != nil:
		return *c.Final, nil
	case c.Requests != nil:
		return *c.Requests, nil
	}
	return nil, fmt.Errorf("empty cached outcome")
}
