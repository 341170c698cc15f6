package oracle

import (
	"encoding/json"
	"errors"
	"strings"
)

const fence = "```"

// StripFence removes a Markdown code fence wrapped around a reply. A leading
// fence line (with or without a language tag) and a trailing fence are
// dropped; anything else is returned trimmed.
func StripFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, fence) {
		if _, rest, ok := strings.Cut(text, "\n"); ok {
			text = rest
		} else {
			text = text[len(fence):]
		}
	}
	if strings.HasSuffix(text, fence) {
		text = text[:strings.LastIndex(text, fence)]
	}
	return strings.TrimSpace(text)
}

// Parse strips any fence from text and decodes it as a JSON object.
func Parse(text string) (map[string]any, error) {
	stripped := StripFence(text)
	if stripped == "" {
		return nil, &ParseError{Raw: text, Err: errors.New("empty reply")}
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(stripped), &doc); err != nil {
		return nil, &ParseError{Raw: text, Err: err}
	}
	if doc == nil {
		return nil, &ParseError{Raw: text, Err: errors.New("reply is not an object")}
	}
	return doc, nil
}
