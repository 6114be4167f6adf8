// Package llmjson extracts JSON payloads from language-model output.
// Models wrap JSON in Markdown code fences or surround it with prose,
// so all of that string surgery lives here instead of at call sites.
// Extraction yields a tagged Result: either a validated JSON span or
// the untouched raw text for logging.
package llmjson

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Result is the outcome of extracting JSON from model output.
type Result struct {
	// OK reports whether a valid JSON span was found.
	OK bool

	// JSON is the extracted span. Empty unless OK.
	JSON string

	// Raw is the original model output, preserved for logging.
	Raw string
}

// Extract locates the outermost JSON value in raw model output.
// Markdown code fences are stripped first, then the widest {...} or
// [...] span is taken and validated.
func Extract(raw string) Result {
	s := stripFences(strings.TrimSpace(raw))

	for _, span := range [...]string{spanBetween(s, '{', '}'), spanBetween(s, '[', ']')} {
		if span != "" && json.Valid([]byte(span)) {
			return Result{OK: true, JSON: span, Raw: raw}
		}
	}
	return Result{Raw: raw}
}

// Decode unmarshals the extracted JSON into v. It fails when no valid
// span was found.
func (r Result) Decode(v any) error {
	if !r.OK {
		return fmt.Errorf("no JSON found in model output")
	}
	if err := json.Unmarshal([]byte(r.JSON), v); err != nil {
		return fmt.Errorf("decoding model output: %w", err)
	}
	return nil
}

// stripFences removes a surrounding Markdown code fence, including an
// optional language tag on the opening line.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = s[3:]
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// Drop the language tag line ("json", "JSON", or empty).
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// spanBetween returns the widest substring from the first open
// delimiter to the last close delimiter, or "" when no such span
// exists.
func spanBetween(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
