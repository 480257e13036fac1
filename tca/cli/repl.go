// Package cli implements the interactive surface: a read loop that feeds
// prompts to the agent and renders the exchange with the original tool-trace
// coloring (prompt blue, assistant cyan, requests green, results magenta,
// errors red).
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fatih/color"

	"github.com/sergeypospelov/toolcall-agent/tca/harness"
	ports "github.com/sergeypospelov/toolcall-agent/tca/harness/ports"
)

const promptLine = "Enter a prompt for the AI (or 'quit' to exit):"

// TurnRunner processes one user prompt to completion. *harness.Agent is the
// production implementation.
type TurnRunner interface {
	Turn(ctx context.Context, prompt string, listener harness.TurnListener) (*harness.TurnResult, error)
}

// REPL drives the interactive session.
type REPL struct {
	runner TurnRunner
	in     io.Reader
	out    io.Writer

	mu         sync.Mutex
	cancelTurn context.CancelFunc

	prompt    *color.Color
	assistant *color.Color
	request   *color.Color
	result    *color.Color
	errText   *color.Color
}

// New creates a REPL reading prompts from in and writing to out.
func New(runner TurnRunner, in io.Reader, out io.Writer) *REPL {
	return &REPL{
		runner:    runner,
		in:        in,
		out:       out,
		prompt:    color.New(color.FgBlue),
		assistant: color.New(color.FgCyan),
		request:   color.New(color.FgGreen),
		result:    color.New(color.FgMagenta),
		errText:   color.New(color.FgRed),
	}
}

// Run loops until the user types quit (exact, case-sensitive), input ends, or
// ctx is canceled. SIGINT during a turn cancels that turn only; the session
// keeps going.
func (r *REPL) Run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		for range sigCh {
			if !r.cancelCurrentTurn() {
				// Idle at the prompt: nothing in flight to cancel.
				fmt.Fprintln(r.out)
			}
		}
	}()

	scanner := bufio.NewScanner(r.in)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		r.prompt.Fprintln(r.out, promptLine)
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := scanner.Text()
		if line == "quit" {
			return nil
		}
		if line == "" {
			continue
		}

		r.RunTurn(ctx, line)
	}
}

// RunTurn processes a single prompt, rendering the exchange. Also the
// one-shot (-p) entry point.
func (r *REPL) RunTurn(ctx context.Context, prompt string) {
	turnCtx, cancel := context.WithCancel(ctx)
	r.setCancel(cancel)
	defer func() {
		r.setCancel(nil)
		cancel()
	}()

	result, err := r.runner.Turn(turnCtx, prompt, r)
	if err != nil {
		r.errText.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	if result.Answer != "" {
		r.assistant.Fprintf(r.out, "Assistant: %s\n", result.Answer)
	}
}

// ToolRequested implements harness.TurnListener.
func (r *REPL) ToolRequested(inv ports.ToolInvocation) {
	r.request.Fprintf(r.out, "Tool Request: %s(%s)\n", inv.Name, string(inv.Args))
}

// ToolResolved implements harness.TurnListener.
func (r *REPL) ToolResolved(res ports.ToolResult) {
	if res.Success {
		r.result.Fprintf(r.out, "Tool Result: %s\n", res.Payload)
		return
	}
	r.errText.Fprintf(r.out, "Tool Error: %s\n", res.Error)
}

// Notice implements harness.TurnListener.
func (r *REPL) Notice(text string) {
	r.errText.Fprintln(r.out, text)
}

func (r *REPL) setCancel(cancel context.CancelFunc) {
	r.mu.Lock()
	r.cancelTurn = cancel
	r.mu.Unlock()
}

// cancelCurrentTurn reports whether a turn was in flight to cancel.
func (r *REPL) cancelCurrentTurn() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelTurn == nil {
		return false
	}
	r.cancelTurn()
	return true
}

// Ensure REPL implements the TurnListener interface.
var _ harness.TurnListener = (*REPL)(nil)
