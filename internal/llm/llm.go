// Package llm wraps the text-completion model used for resume parsing and
// job suggestions.
package llm

import (
	"context"
	"strings"
)

// Model turns a prompt into a single text completion.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// StripCodeFence removes a surrounding Markdown code fence, with or without
// a language tag, that models like to wrap JSON answers in.
//
//	```json\n[...]\n```  ->  [...]
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// Drop the info string ("json", "JSON", ...) on the opening line.
		if tag := strings.TrimSpace(s[:nl]); !strings.ContainsAny(tag, "[{") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
