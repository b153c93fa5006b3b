// Package llm talks to the local language model backend that scores sales
// pitches. Model output is free text; callers pull the structured part out
// with ExtractFirstJSON.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Client defines the interface for language model backends.
type Client interface {
	// Generate produces one completion for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// ExtractFirstJSON returns the first balanced JSON object found in the text.
// Models wrap their answer in prose or markdown fences more often than not;
// this pulls out the part that parses. String contents and escapes are
// respected so braces inside feedback text do not break the scan.
func ExtractFirstJSON(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object in model output")
	}

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
				return text[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unterminated JSON object in model output")
}
