package ops

import (
	"encoding/json"
	"strings"
)

// Parse extracts an operation batch from the assistant's raw reply. The reply
// should be a JSON array of operations but is accepted with the defects the
// assistant is known to produce: wrapped in Markdown code fences, doubly
// JSON-encoded, or with an operation's metadata object emitted as a sibling
// array element instead of nested inside the operation. Input that cannot be
// recovered degrades to an empty batch, never an error.
func Parse(raw string) []Operation {
	text := strings.TrimSpace(raw)
	if text == "" {
		return []Operation{}
	}

	// A doubly encoded reply is a JSON string holding the real array.
	if strings.HasPrefix(text, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(text), &inner); err == nil {
			text = strings.TrimSpace(inner)
		}
	}

	text = stripFences(text)

	elements, ok := splitTopLevel(text)
	if !ok {
		return []Operation{}
	}

	batch := make([]Operation, 0, len(elements))
	for _, element := range elements {
		// A bare "metadata": {...} pair leaks into the array in some
		// replies; reduce it to the object itself.
		element = strings.TrimSpace(element)
		if trimmed, found := strings.CutPrefix(element, `"metadata"`); found {
			element = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(trimmed), ":"))
		}

		var op Operation
		if err := json.Unmarshal([]byte(element), &op); err == nil && op.Op.valid() {
			batch = append(batch, op)
			continue
		}

		// Not an operation: if it looks like a stray metadata object, splice
		// it into the operation that just closed.
		var meta Metadata
		if err := json.Unmarshal([]byte(element), &meta); err == nil && isMetadataObject(element) {
			if n := len(batch); n > 0 && batch[n-1].Metadata == nil {
				m := meta
				batch[n-1].Metadata = &m
			}
			continue
		}
		// Anything else is dropped; the rest of the batch still applies.
	}
	return batch
}

// stripFences removes a surrounding Markdown code fence, with or without a
// language tag.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	body := text[3:]
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	}
	if i := strings.LastIndex(body, "```"); i >= 0 {
		body = body[:i]
	}
	return strings.TrimSpace(body)
}

// splitTopLevel splits the text of a JSON array into its top-level elements.
// It scans the character stream tracking brace depth and string-escape state
// so braces and commas inside string literals never produce false splits.
func splitTopLevel(text string) ([]string, bool) {
	text = strings.TrimSpace(text)
	if len(text) < 2 || text[0] != '[' || text[len(text)-1] != ']' {
		return nil, false
	}
	body := text[1 : len(text)-1]

	var (
		elements []string
		depth    int
		inString bool
		escaped  bool
		start    int
	)

	flush := func(end int) {
		element := strings.TrimSpace(body[start:end])
		if element != "" {
			elements = append(elements, element)
		}
	}

	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// Everything inside a string literal is opaque.
		case c == '{' || c == '[':
			depth++
		case c == '}' || c == ']':
			depth--
			if depth < 0 {
				return nil, false
			}
		case c == ',' && depth == 0:
			flush(i)
			start = i + 1
		}
	}
	if inString || depth != 0 {
		return nil, false
	}
	flush(len(body))
	return elements, true
}

// isMetadataObject reports whether a JSON object carries only the x/y keys of
// the legacy metadata sidecar. Metadata splicing must not swallow objects
// that merely happen to contain coordinates.
func isMetadataObject(element string) bool {
	var obj map[string]any
	if err := json.Unmarshal([]byte(element), &obj); err != nil {
		return false
	}
	if len(obj) == 0 || len(obj) > 2 {
		return false
	}
	for key := range obj {
		if key != "x" && key != "y" {
			return false
		}
	}
	return true
}
