// Command tca is an interactive command-line agent: it forwards prompts to
// an OpenAI-compatible model service, executes the tool calls the model
// requests (weather lookup, shell execution, timezone clock), and feeds the
// results back until the model produces a final answer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/subosito/gotenv"

	"github.com/sergeypospelov/toolcall-agent/tca/cli"
	"github.com/sergeypospelov/toolcall-agent/tca/config"
	"github.com/sergeypospelov/toolcall-agent/tca/harness"
	ports "github.com/sergeypospelov/toolcall-agent/tca/harness/ports"
	"github.com/sergeypospelov/toolcall-agent/tca/session"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to config file")
	oneShot := flag.String("p", "", "run a single prompt and exit")
	replayID := flag.String("replay", "", "print an archived session transcript and exit")
	flag.Parse()

	// Populate the environment before viper reads it.
	_ = gotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tca: %v\n", err)
		return 1
	}

	logger := newLogger(cfg.Log.Level)

	if *replayID != "" {
		return replay(cfg, logger, *replayID)
	}

	var store ports.SessionStore
	if cfg.Archive.Enabled {
		archive, err := session.Open(cfg.Archive.Path)
		if err != nil {
			// The archive is telemetry; losing it should not block a session.
			logger.Warn().Err(err).Str("path", cfg.Archive.Path).Msg("session archive unavailable")
		} else {
			defer archive.Close()
			store = archive
		}
	}

	agent, err := harness.NewFactory(cfg, store, logger).BuildAgent()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tca: %v\n", err)
		return 1
	}
	logger.Info().Str("session_id", agent.SessionID()).Msg("session started")

	// Live reload: log level and round cap may change mid-session.
	config.Watch(func(next *config.Config) {
		if level, err := zerolog.ParseLevel(strings.ToLower(next.Log.Level)); err == nil {
			zerolog.SetGlobalLevel(level)
		}
		agent.SetMaxRounds(harness.ClampRounds(next.Loop.MaxRounds))
		logger.Info().Int("max_rounds", next.Loop.MaxRounds).Msg("configuration reloaded")
	})

	repl := cli.New(agent, os.Stdin, os.Stdout)
	if *oneShot != "" {
		repl.RunTurn(context.Background(), *oneShot)
		return 0
	}

	if err := repl.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "tca: %v\n", err)
		return 1
	}
	return 0
}

// replay prints an archived session's transcript.
func replay(cfg *config.Config, logger zerolog.Logger, sessionID string) int {
	if !cfg.Archive.Enabled {
		fmt.Fprintln(os.Stderr, "tca: session archive is disabled")
		return 1
	}

	archive, err := session.Open(cfg.Archive.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tca: open archive: %v\n", err)
		return 1
	}
	defer archive.Close()

	turns, err := archive.ListSession(context.Background(), sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tca: %v\n", err)
		return 1
	}
	if len(turns) == 0 {
		fmt.Fprintf(os.Stderr, "tca: no archived session %q\n", sessionID)
		return 1
	}

	for _, turn := range turns {
		fmt.Printf("[%s] %s: %s\n", turn.CreatedAt.Format("15:04:05"), turn.Role, turn.Content)
	}
	return 0
}

// newLogger builds the root logger: console writer on stderr, level from
// config (bad values fall back to warn).
func newLogger(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(parsed)

	writer := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(writer).With().Timestamp().Logger()
}
