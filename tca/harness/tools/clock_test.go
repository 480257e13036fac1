package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_FormatsInRequestedZone(t *testing.T) {
	tool := NewClockTool("")
	tool.now = func() time.Time {
		return time.Date(2026, 8, 25, 12, 30, 45, 0, time.UTC)
	}

	out, err := tool.Invoke(context.Background(), json.RawMessage(`{"timezone":"UTC"}`))
	require.NoError(t, err)
	assert.Equal(t, "2026-08-25 12:30:45 UTC", out)
}

func TestClock_ConvertsAcrossZones(t *testing.T) {
	tool := NewClockTool("")
	tool.now = func() time.Time {
		return time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)
	}

	out, err := tool.Invoke(context.Background(), json.RawMessage(`{"timezone":"America/New_York"}`))
	require.NoError(t, err)
	// EST is UTC-5 in January.
	assert.Equal(t, "2026-01-15 13:00:00 EST", out)
}

func TestClock_UnknownZone(t *testing.T) {
	tool := NewClockTool("")

	_, err := tool.Invoke(context.Background(), json.RawMessage(`{"timezone":"Nowhere/Special"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown timezone "Nowhere/Special"`)
}

func TestClock_MissingTimezone(t *testing.T) {
	tool := NewClockTool("")

	_, err := tool.Invoke(context.Background(), json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timezone is required")
}

func TestClock_SuggestsNearMissZones(t *testing.T) {
	// Synthetic zoneinfo dir so the test does not depend on the host's.
	dir := t.TempDir()
	for _, name := range []string{"Europe/Paris", "Europe/Prague", "America/New_York"} {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("TZif"), 0o644))
	}

	tool := NewClockTool(dir)

	_, err := tool.Invoke(context.Background(), json.RawMessage(`{"timezone":"Europe/Pari"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean")
	assert.Contains(t, err.Error(), "Europe/Paris")
}

func TestBuildZoneIndex_MissingDirIsNil(t *testing.T) {
	assert.Nil(t, buildZoneIndex(filepath.Join(t.TempDir(), "absent")))
}
