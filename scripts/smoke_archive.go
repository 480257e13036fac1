//go:build integration
// +build integration

package scripts

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	ports "github.com/sergeypospelov/toolcall-agent/tca/harness/ports"
	"github.com/sergeypospelov/toolcall-agent/tca/session"
)

func must(err error, msg string) {
	if err != nil {
		log.Fatalf("%s: %v", msg, err)
	}
}

// RunSmokeArchive exercises the session archive end to end against a real
// embedded database: open, migrate, write a session, read it back.
func RunSmokeArchive() {
	fmt.Println("Smoke test: session archive (embedded libsql)")

	dir, err := os.MkdirTemp("", "tca-smoke-*")
	must(err, "tempdir")
	defer os.RemoveAll(dir)

	store, err := session.Open(filepath.Join(dir, "sessions.db"))
	must(err, "open archive")
	defer store.Close()
	fmt.Println("OK: open + migrations")

	ctx := context.Background()
	turns := []ports.Turn{
		{Role: "user", Content: "What's the temperature in New York?"},
		{Role: "tool", Content: "22.4", ToolCallID: "1"},
		{Role: "assistant", Content: "The current temperature in New York is 22.4°C."},
	}
	for _, turn := range turns {
		must(store.SaveTurn(ctx, "smoke-session", turn), "save turn")
	}
	fmt.Println("OK: save turns")

	got, err := store.ListSession(ctx, "smoke-session")
	must(err, "list session")
	if len(got) != len(turns) {
		log.Fatalf("expected %d turns, got %d", len(turns), len(got))
	}
	for i, turn := range turns {
		if got[i].Role != turn.Role || got[i].Content != turn.Content {
			log.Fatalf("turn %d mismatch: %+v", i, got[i])
		}
	}
	fmt.Println("OK: list session (insertion order)")

	ids, err := store.Sessions(ctx)
	must(err, "list sessions")
	if len(ids) != 1 || ids[0] != "smoke-session" {
		log.Fatalf("unexpected session ids: %v", ids)
	}
	fmt.Println("OK: session index")

	fmt.Println("All archive smoke checks passed")
}
