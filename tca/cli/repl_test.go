package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeypospelov/toolcall-agent/tca/harness"
)

// stubRunner records the prompts it was asked to process.
type stubRunner struct {
	prompts []string
	result  *harness.TurnResult
	err     error
}

func (r *stubRunner) Turn(ctx context.Context, prompt string, listener harness.TurnListener) (*harness.TurnResult, error) {
	r.prompts = append(r.prompts, prompt)
	if r.err != nil {
		return nil, r.err
	}
	if r.result != nil {
		return r.result, nil
	}
	return &harness.TurnResult{Answer: "ok"}, nil
}

func TestRun_QuitExitsWithoutInvokingAgent(t *testing.T) {
	runner := &stubRunner{}
	var out bytes.Buffer
	repl := New(runner, strings.NewReader("quit\n"), &out)

	err := repl.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runner.prompts, "quit must not reach the agent loop")
	assert.Contains(t, out.String(), "Enter a prompt for the AI (or 'quit' to exit):")
}

func TestRun_QuitIsCaseSensitive(t *testing.T) {
	runner := &stubRunner{}
	var out bytes.Buffer
	repl := New(runner, strings.NewReader("Quit\nquit\n"), &out)

	err := repl.Run(context.Background())
	require.NoError(t, err)
	// "Quit" goes to the model like any other prompt.
	assert.Equal(t, []string{"Quit"}, runner.prompts)
}

func TestRun_ForwardsPromptsAndPrintsAnswer(t *testing.T) {
	runner := &stubRunner{result: &harness.TurnResult{Answer: "22.4 degrees"}}
	var out bytes.Buffer
	repl := New(runner, strings.NewReader("weather?\nquit\n"), &out)

	err := repl.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"weather?"}, runner.prompts)
	assert.Contains(t, out.String(), "Assistant: 22.4 degrees")
}

func TestRun_BlankLinesAreSkipped(t *testing.T) {
	runner := &stubRunner{}
	var out bytes.Buffer
	repl := New(runner, strings.NewReader("\n\nquit\n"), &out)

	require.NoError(t, repl.Run(context.Background()))
	assert.Empty(t, runner.prompts)
}

func TestRun_EndOfInputEndsSession(t *testing.T) {
	runner := &stubRunner{}
	var out bytes.Buffer
	repl := New(runner, strings.NewReader(""), &out)

	assert.NoError(t, repl.Run(context.Background()))
}

func TestRun_GatewayErrorIsReportedAndSessionContinues(t *testing.T) {
	runner := &stubRunner{err: errors.New("model gateway: unreachable")}
	var out bytes.Buffer
	repl := New(runner, strings.NewReader("hello\nquit\n"), &out)

	err := repl.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Error: model gateway: unreachable")
	// The prompt line appears again after the failure.
	assert.Equal(t, 2, strings.Count(out.String(), "Enter a prompt for the AI"))
}

func TestRunTurn_RendersToolTrace(t *testing.T) {
	runner := &stubRunner{result: &harness.TurnResult{Answer: "done"}}
	var out bytes.Buffer
	repl := New(runner, strings.NewReader(""), &out)

	repl.RunTurn(context.Background(), "do something")
	assert.Contains(t, out.String(), "Assistant: done")
}
