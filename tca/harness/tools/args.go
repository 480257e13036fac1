package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// decodeArgs decodes model-supplied arguments into a typed struct. Weak
// typing absorbs the usual model quirks (numbers as strings and vice versa);
// schema validation has already run by the time a tool sees the args.
func decodeArgs(args json.RawMessage, out any) error {
	raw := map[string]any{}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &raw); err != nil {
			return fmt.Errorf("parse arguments: %w", err)
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("build argument decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return nil
}
