package agent

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// FlattenParts flattens a multi-part backend payload into one string by
// concatenation in order. A part may be a plain string (including string-kinded
// types such as genai.Text) or a tagged object carrying a "text" field.
// Parts of any other shape carry no text and are skipped.
func FlattenParts[T any](parts []T) string {
	var b strings.Builder
	for _, p := range parts {
		switch v := any(p).(type) {
		case string:
			b.WriteString(v)
		case map[string]any:
			if t, ok := v["text"].(string); ok {
				b.WriteString(t)
			}
		default:
			rv := reflect.ValueOf(p)
			if rv.Kind() == reflect.String {
				b.WriteString(rv.String())
			}
		}
	}
	return b.String()
}

// DecodeJSONBlock extracts structured data embedded in a backend reply and
// decodes it into v. The reply may wrap the JSON in a fenced block (```json or
// bare ```), surround it with prose, or be raw JSON. Mildly malformed JSON is
// repaired before giving up. Returns false when no structured data could be
// recovered; this is never an error.
func DecodeJSONBlock(text string, v any) bool {
	content := text
	if idx := strings.Index(content, "```json"); idx >= 0 {
		content = content[idx+len("```json"):]
		if end := strings.Index(content, "```"); end >= 0 {
			content = content[:end]
		}
	} else if idx := strings.Index(content, "```"); idx >= 0 {
		content = content[idx+len("```"):]
		if end := strings.Index(content, "```"); end >= 0 {
			content = content[:end]
		}
	}
	content = strings.TrimSpace(content)

	if !strings.HasPrefix(content, "{") {
		start := strings.Index(content, "{")
		end := strings.LastIndex(content, "}")
		if start >= 0 && end > start {
			content = content[start : end+1]
		}
	}
	if content == "" {
		return false
	}

	if err := json.Unmarshal([]byte(content), v); err == nil {
		return true
	}

	repaired, err := jsonrepair.JSONRepair(content)
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(repaired), v) == nil
}
