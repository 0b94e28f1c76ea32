// Package llmjson pulls structured payloads out of free-form model output.
//
// Models wrap JSON in prose, markdown fences, or both. FindObject scans for
// balanced objects instead of trimming fences, so a payload survives any
// amount of surrounding text as long as it is itself well formed.
package llmjson

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Object is a decoded JSON object with its values left raw.
type Object map[string]json.RawMessage

// FindObject returns the first balanced JSON object in text that decodes and
// contains every required key. Objects are tried in order of their opening
// brace, so an outer object wins over the objects nested in it.
func FindObject(text string, required ...string) (Object, bool) {
	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end := matchBrace(text, start); end > start {
			var obj Object
			if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err == nil && obj.hasAll(required) {
				return obj, true
			}
		}

		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, false
}

// String returns the value of key as text. String values are unquoted; any
// other JSON value is returned in compact form. Null and missing keys report
// false.
func (o Object) String(key string) (string, bool) {
	raw, ok := o[key]
	if !ok {
		return "", false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw), true
	}
	return buf.String(), true
}

func (o Object) hasAll(keys []string) bool {
	for _, k := range keys {
		if _, ok := o[k]; !ok {
			return false
		}
	}
	return true
}

// matchBrace returns the index of the brace closing the object opened at
// start, or -1. Braces inside JSON strings are ignored.
func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
