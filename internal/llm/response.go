package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MalformedOutputError reports that no JSON object could be recovered from
// a model response. Raw keeps the original text for diagnostics.
type MalformedOutputError struct {
	Raw string
	Err error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed model output: %v", e.Err)
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// DecodeObject recovers a single JSON object from free-form model output and
// unmarshals it into v. Models wrap JSON in markdown fences or surround it
// with prose despite strict-JSON prompting; DecodeObject strips that noise in
// order: a ```json fence, any other fence, then the span from the first '{'
// to the last '}'. It does not attempt multi-object recovery or repair of
// broken JSON (unquoted keys, trailing commas); those fail.
func DecodeObject(raw string, v any) error {
	cleaned := ExtractObject(raw)

	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return &MalformedOutputError{Raw: raw, Err: err}
	}
	return nil
}

// ExtractObject returns the best JSON-object candidate found in raw.
// The result is not guaranteed to parse; DecodeObject reports failures.
func ExtractObject(raw string) string {
	text := strings.TrimSpace(raw)

	if inner, ok := fencedBlock(text, "```json"); ok {
		text = inner
	} else if inner, ok := fencedBlock(text, "```"); ok {
		text = inner
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		text = text[start : end+1]
	} else if start > 0 {
		// No closing brace: at least drop the leading prose.
		text = text[start:]
	}

	return strings.TrimSpace(text)
}

// fencedBlock returns the interior of the first fenced code block opened by
// marker, when both the opening and a closing fence are present.
func fencedBlock(text, marker string) (string, bool) {
	start := strings.Index(text, marker)
	if start == -1 {
		return "", false
	}
	rest := text[start+len(marker):]
	end := strings.Index(rest, "```")
	if end == -1 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}
