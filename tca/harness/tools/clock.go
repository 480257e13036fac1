package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/armon/go-radix"

	ports "github.com/sergeypospelov/toolcall-agent/tca/harness/ports"
)

// ClockSchema declares the get_time parameters.
const ClockSchema = `{
  "type": "object",
  "properties": {
    "timezone": {
      "type": "string",
      "description": "IANA timezone name, e.g. 'America/New_York' or 'Europe/Paris'"
    }
  },
  "required": ["timezone"]
}`

const clockFormat = "2006-01-02 15:04:05 MST"

const maxZoneSuggestions = 3

// ClockTool reports the current time in a named IANA zone. Unknown zones get
// an error suggesting close names from a radix index of the system zoneinfo
// database; the index is best-effort and the tool works without it.
type ClockTool struct {
	zones *radix.Tree // lowercased zone name / city -> canonical name
	now   func() time.Time
}

// NewClockTool creates the tool, indexing dir (empty = the usual system
// zoneinfo locations) for suggestions.
func NewClockTool(dir string) *ClockTool {
	return &ClockTool{
		zones: buildZoneIndex(dir),
		now:   time.Now,
	}
}

func (t *ClockTool) Name() string { return "get_time" }

func (t *ClockTool) Description() string {
	return "Get the current date and time in a given IANA timezone."
}

func (t *ClockTool) Schema() []byte { return []byte(ClockSchema) }

// Invoke formats the current time in the requested zone.
func (t *ClockTool) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		Timezone string `json:"timezone"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	if params.Timezone == "" {
		return nil, fmt.Errorf("timezone is required")
	}

	loc, err := time.LoadLocation(params.Timezone)
	if err != nil {
		if hints := t.suggest(params.Timezone); len(hints) > 0 {
			return nil, fmt.Errorf("unknown timezone %q; did you mean %s?", params.Timezone, strings.Join(hints, ", "))
		}
		return nil, fmt.Errorf("unknown timezone %q", params.Timezone)
	}

	return t.now().In(loc).Format(clockFormat), nil
}

// suggest returns canonical zone names close to the input: prefix matches on
// the full name first, then on the bare city part.
func (t *ClockTool) suggest(input string) []string {
	if t.zones == nil {
		return nil
	}

	needle := strings.ToLower(strings.TrimSpace(input))
	seen := make(map[string]bool)
	var hints []string

	collect := func(prefix string) {
		t.zones.WalkPrefix(prefix, func(_ string, v any) bool {
			name := v.(string)
			if !seen[name] {
				seen[name] = true
				hints = append(hints, name)
			}
			return len(hints) >= maxZoneSuggestions
		})
	}

	collect(needle)
	if len(hints) < maxZoneSuggestions {
		if idx := strings.LastIndexAny(needle, "/ "); idx >= 0 && idx+1 < len(needle) {
			collect(needle[idx+1:])
		}
	}
	return hints
}

// buildZoneIndex walks a zoneinfo directory into a radix tree keyed by
// lowercased zone name and city segment. Returns nil when nothing is found.
func buildZoneIndex(dir string) *radix.Tree {
	dirs := []string{dir}
	if dir == "" {
		dirs = []string{"/usr/share/zoneinfo", "/usr/lib/zoneinfo", "/etc/zoneinfo"}
	}

	tree := radix.New()
	for _, root := range dirs {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			continue
		}
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			name, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return nil
			}
			name = filepath.ToSlash(name)
			// Skip non-zone files (posixrules, leap-seconds.list, tabs):
			// real zone names start with an uppercase letter.
			base := name[strings.LastIndex(name, "/")+1:]
			if base == "" || strings.Contains(base, ".") || base[0] < 'A' || base[0] > 'Z' {
				return nil
			}
			tree.Insert(strings.ToLower(name), name)
			tree.Insert(strings.ToLower(base), name)
			return nil
		})
		if tree.Len() > 0 {
			break
		}
	}

	if tree.Len() == 0 {
		return nil
	}
	return tree
}

// Ensure ClockTool implements the Tool interface.
var _ ports.Tool = (*ClockTool)(nil)
