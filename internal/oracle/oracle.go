// Package oracle wraps the generative service every pipeline stage calls.
// The service is treated as unreliable: it may return malformed output, time
// out, or rate-limit, and callers are expected to validate everything that
// comes back.
package oracle

import (
	"fmt"
	"regexp"
	"strings"

	"context"
)

// Request is a single completion call.
type Request struct {
	System    string // Optional system prompt.
	Prompt    string // User prompt.
	MaxTokens int    // Response budget; 0 uses the client default.
}

// Completer is the minimal surface the pipeline depends on. The concrete
// Client satisfies it; tests inject fakes.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// RetryableError indicates a transient failure (rate limit, server error)
// that is worth retrying.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable oracle error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// StripCodeFence removes surrounding markdown code-fence markers from model
// output. Models frequently wrap JSON in ```json fences despite being asked
// not to.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
