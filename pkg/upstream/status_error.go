package upstream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	Upstream   string
	StatusCode int
	// Message is the server-provided message when the body carried one.
	Message string
	Body    string
}

func newStatusError(name string, status int, body []byte) *StatusError {
	return &StatusError{
		Upstream:   name,
		StatusCode: status,
		Message:    extractMessage(body),
		Body:       strings.TrimSpace(string(body)),
	}
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Upstream, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Upstream, e.StatusCode)
}

func (e *StatusError) UpstreamName() string { return e.Upstream }

func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// NotFound reports a 404 from the upstream.
func (e *StatusError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

var messageFields = []string{"message", "mensagem", "error", "erro", "title"}

// extractMessage pulls a human message from a JSON error body or falls back to
// short plain-text bodies.
func extractMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(trimmed), &fields); err == nil {
		for _, key := range messageFields {
			if text, ok := fields[key].(string); ok && strings.TrimSpace(text) != "" {
				return strings.TrimSpace(text)
			}
		}
		return ""
	}
	var text string
	if err := json.Unmarshal([]byte(trimmed), &text); err == nil {
		return strings.TrimSpace(text)
	}
	if strings.HasPrefix(trimmed, "<") || strings.HasPrefix(trimmed, "[") {
		return ""
	}
	return trimmed
}
