package security

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

const redactedValue = "[REDACTED]"

var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"proxy-authorization": true,
}

// Substrings of JSON keys and query parameters whose values are redacted.
// The billing API authenticates with apitoken, apikey and usertoken fields in
// the request body, all matched by "token" or "key".
var sensitiveFields = []string{
	"token",
	"key",
	"password",
	"secret",
	"authorization",
	"credential",
}

func isSensitive(name string) bool {
	lower := strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

// SanitizeHeaders flattens headers into a map with sensitive values redacted.
func SanitizeHeaders(headers http.Header) map[string]string {
	sanitized := make(map[string]string, len(headers))
	for key, values := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			sanitized[key] = redactedValue
			continue
		}
		sanitized[key] = strings.Join(values, ", ")
	}
	return sanitized
}

// SanitizeBody returns body as JSON safe to log or store. JSON bodies get
// sensitive fields redacted at any depth; anything else is wrapped as text.
// Bodies above maxSize are replaced by a truncated preview without parsing.
func SanitizeBody(body []byte, maxSize int) json.RawMessage {
	if len(body) == 0 {
		return nil
	}

	if !utf8.Valid(body) {
		return wrap(map[string]any{"_binary": true, "_size": len(body)})
	}

	if maxSize > 0 && len(body) > maxSize {
		return wrap(map[string]any{
			"_truncated": true,
			"_size":      len(body),
			"_preview":   redactPreview(string(body[:maxSize])),
		})
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return wrap(map[string]any{"_raw": string(body), "_format": "text"})
	}

	return wrap(sanitizeValue(data))
}

// redactPreview blanks a truncated body entirely when it may hold credentials.
func redactPreview(preview string) string {
	if isSensitive(preview) {
		return redactedValue
	}
	return preview
}

func wrap(v any) json.RawMessage {
	result, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{"_error":"unserializable body"}`)
	}
	return result
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		sanitized := make(map[string]any, len(val))
		for key, value := range val {
			if isSensitive(key) {
				sanitized[key] = redactedValue
				continue
			}
			sanitized[key] = sanitizeValue(value)
		}
		return sanitized
	case []any:
		sanitized := make([]any, len(val))
		for i, value := range val {
			sanitized[i] = sanitizeValue(value)
		}
		return sanitized
	default:
		return val
	}
}

// SanitizeURL redacts sensitive query parameter values.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}

	query := u.Query()
	changed := false
	for name := range query {
		if isSensitive(name) {
			query.Set(name, redactedValue)
			changed = true
		}
	}
	if !changed {
		return raw
	}

	u.RawQuery = query.Encode()
	return u.String()
}
