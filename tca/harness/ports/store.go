package harnessports

import (
	"context"
	"time"
)

// Turn is one archived transcript entry.
type Turn struct {
	Role       string    // "user" | "assistant" | "tool" | "system"
	Content    string    // text, or the tool result payload
	ToolCallID string    // set on tool turns
	CreatedAt  time.Time
}

// SessionStore archives transcript turns for post-session inspection.
// Write-only while a session runs: archived turns are never replayed into the
// model's context, so the archive creates no cross-session model memory.
type SessionStore interface {
	SaveTurn(ctx context.Context, sessionID string, turn Turn) error
	ListSession(ctx context.Context, sessionID string) ([]Turn, error)
}
