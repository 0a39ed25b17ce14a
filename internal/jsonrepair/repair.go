// Package jsonrepair salvages JSON that was truncated mid-emission, usually
// because a generative call hit its output token limit. The result is
// advisory: callers must re-validate it and fall back to their original data
// when the repair still does not parse.
package jsonrepair

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrUnrepairable means no candidate repair produced valid JSON.
var ErrUnrepairable = errors.New("jsonrepair: input could not be repaired")

// Repair attempts to turn a truncated or fence-wrapped JSON string into
// valid JSON. Candidates are tried in order of fidelity: the input as-is,
// the input with unterminated strings and open brackets closed, and finally
// the input truncated back to the last complete top-level element.
func Repair(input string) (string, error) {
	s := stripFences(input)
	if s == "" {
		return "", ErrUnrepairable
	}
	if json.Valid([]byte(s)) {
		return s, nil
	}

	st := scan(s)

	if closed, ok := closeOpen(s, st); ok {
		return closed, nil
	}
	if truncated, ok := truncateToComplete(s, st); ok {
		return truncated, nil
	}
	return "", ErrUnrepairable
}

// scanState captures where a character-by-character walk of the input ended.
type scanState struct {
	stack        []byte // open '{' / '[' in nesting order
	inString     bool   // truncation happened inside a string literal
	lastComplete int    // offset just past the last value that closed at depth 1, or -1
}

// scan walks the input honoring string and escape state, tracking the open
// bracket stack and the last point at which a top-level array element was
// complete.
func scan(s string) scanState {
	st := scanState{lastComplete: -1}
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if st.inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				st.inString = false
			}
			continue
		}
		switch c {
		case '"':
			st.inString = true
		case '{', '[':
			st.stack = append(st.stack, c)
		case '}', ']':
			if len(st.stack) > 0 {
				st.stack = st.stack[:len(st.stack)-1]
			}
			if len(st.stack) == 1 {
				st.lastComplete = i + 1
			}
		}
	}
	return st
}

// closeOpen closes an unterminated string and appends the closers the open
// bracket stack still needs.
func closeOpen(s string, st scanState) (string, bool) {
	var sb strings.Builder
	sb.WriteString(s)
	if st.inString {
		sb.WriteByte('"')
	}
	for i := len(st.stack) - 1; i >= 0; i-- {
		switch st.stack[i] {
		case '{':
			sb.WriteByte('}')
		case '[':
			sb.WriteByte(']')
		}
	}
	out := sb.String()
	if json.Valid([]byte(out)) {
		return out, true
	}
	return "", false
}

// truncateToComplete drops everything after the last complete top-level
// element and closes the outermost container. Lossy, but the surviving
// elements are intact.
func truncateToComplete(s string, st scanState) (string, bool) {
	if st.lastComplete < 0 || len(st.stack) == 0 {
		return "", false
	}
	head := strings.TrimRight(s[:st.lastComplete], ", \n\t\r")
	var closer byte
	switch st.stack[0] {
	case '[':
		closer = ']'
	case '{':
		closer = '}'
	default:
		return "", false
	}
	out := head + string(closer)
	if json.Valid([]byte(out)) {
		return out, true
	}
	return "", false
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	return s
}
