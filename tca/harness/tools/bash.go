package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	ports "github.com/sergeypospelov/toolcall-agent/tca/harness/ports"
)

// BashSchema declares the run_bash parameters.
const BashSchema = `{
  "type": "object",
  "properties": {
    "command": {
      "type": "string",
      "description": "The bash command line to execute"
    }
  },
  "required": ["command"]
}`

const defaultMaxOutputBytes = 16 * 1024

// BashTool runs arbitrary shell commands on the host. Deliberately
// unsandboxed: the trust boundary is the user's own machine, and narrowing it
// would change what the agent can do on the user's behalf.
type BashTool struct {
	workDir        string
	maxOutputBytes int
}

// NewBashTool creates the tool. workDir is the command working directory
// (empty = inherit); maxOutputBytes caps the captured output (<=0 = default).
func NewBashTool(workDir string, maxOutputBytes int) *BashTool {
	if maxOutputBytes <= 0 {
		maxOutputBytes = defaultMaxOutputBytes
	}
	return &BashTool{workDir: workDir, maxOutputBytes: maxOutputBytes}
}

func (t *BashTool) Name() string { return "run_bash" }

func (t *BashTool) Description() string {
	return "Execute a bash command on the local machine and return its output and exit status."
}

func (t *BashTool) Schema() []byte { return []byte(BashSchema) }

// Invoke runs the command under bash -c. A non-zero exit is a successful
// result carrying the status and stderr (the model decides what it means);
// only spawn failures and timeouts become tool errors.
func (t *BashTool) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		Command string `json:"command"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Command) == "" {
		return nil, fmt.Errorf("command is required")
	}

	cmd := exec.CommandContext(ctx, "bash", "-c", params.Command)
	cmd.Dir = t.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("command interrupted: %w", ctxErr)
	}

	var exitErr *exec.ExitError
	if runErr != nil {
		ok := false
		if exitErr, ok = runErr.(*exec.ExitError); !ok {
			return nil, fmt.Errorf("run command: %w", runErr)
		}
	}

	out := t.truncate(stdout.String())
	if out == "" {
		out = "(no output)"
	}

	if exitErr != nil {
		result := fmt.Sprintf("%s\nexit status %d", out, exitErr.ExitCode())
		if errText := t.truncate(strings.TrimSpace(stderr.String())); errText != "" {
			result += "\nstderr: " + errText
		}
		return result, nil
	}
	return out, nil
}

func (t *BashTool) truncate(s string) string {
	if len(s) <= t.maxOutputBytes {
		return s
	}
	return s[:t.maxOutputBytes] + "\n... (output truncated)"
}

// Ensure BashTool implements the Tool interface.
var _ ports.Tool = (*BashTool)(nil)
