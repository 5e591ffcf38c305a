package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shillcollin/reportgate/core"
	"github.com/shillcollin/reportgate/sanitize"
)

const (
	fallbackSections = 6
	fallbackFields   = 6
	fallbackValueMax = 2000
)

// RenderPayload lays out identity and payload as the user content of a
// report request. Output is deterministic for a given input.
func RenderPayload(p core.Payload, id core.Identity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", id.DisplayName())
	if dob := strings.TrimSpace(id.DOB); dob != "" {
		fmt.Fprintf(&b, "Date of birth: %s\n", dob)
	}
	if g := strings.TrimSpace(id.Gender); g != "" {
		fmt.Fprintf(&b, "Gender: %s\n", g)
	}
	b.WriteString("\nANALYSIS:\n")
	for _, s := range p.Sections {
		fmt.Fprintf(&b, "\n[%s]:\n", strings.ToUpper(s.Name))
		if s.IsNested() {
			for _, f := range s.Fields {
				fmt.Fprintf(&b, "  - %s: %s\n", f.Key, formatValue(f.Value))
			}
			continue
		}
		fmt.Fprintf(&b, "  %s\n", formatValue(s.Value))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FallbackSummary assembles a plain-text digest of the payload for use when
// no model output is available. It is never empty.
func FallbackSummary(p core.Payload, id core.Identity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analysis summary for %s (the language model is temporarily unavailable):\n", id.DisplayName())
	for i, s := range p.Sections {
		if i == fallbackSections {
			break
		}
		fmt.Fprintf(&b, "\n%s:\n", strings.ToUpper(s.Name))
		if !s.IsNested() {
			b.WriteString(sanitize.Truncate(formatValue(s.Value), fallbackValueMax))
			b.WriteByte('\n')
			continue
		}
		for j, f := range s.Fields {
			if j == fallbackFields {
				break
			}
			fmt.Fprintf(&b, "%s: %s\n", f.Key, sanitize.Truncate(formatValue(f.Value), fallbackValueMax))
		}
	}
	return sanitize.Clean(b.String())
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", val)
	}
}
