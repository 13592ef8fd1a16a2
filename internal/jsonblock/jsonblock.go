// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package jsonblock recovers a single embedded JSON object from free-form
// model output. Parsing is an ordered fallback chain: direct parse, fenced
// code block, then a balanced-brace scan. Each strategy's failure mode is
// distinguishable so callers can tell a model contract violation from a
// correctly declined answer.
package jsonblock

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNoObject indicates the text contains no opening brace.
	ErrNoObject = errors.New("no JSON object found in text")

	// ErrUnterminated indicates the text ended before the object closed.
	ErrUnterminated = errors.New("unterminated JSON object")

	// ErrUnbalanced indicates a closing brace appeared at nesting depth zero.
	ErrUnbalanced = errors.New("unbalanced JSON object: extra closing brace")
)

// ParseError wraps a parse failure with a truncated sample of the offending
// text for diagnostics.
type ParseError struct {
	Sample string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse model response as JSON: %v (text: %q)", e.Err, e.Sample)
}

func (e *ParseError) Unwrap() error { return e.Err }

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*\n?(.*?)\n?```")

// Find scans text for the first balanced JSON object and returns the
// substring from the first opening brace to its matching closing brace
// inclusive. Braces inside strings are ignored; an unescaped quote toggles
// the in-string state and a backslash suppresses the toggle on the quote
// that follows it.
func Find(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return "", ErrNoObject
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]

		if escaped {
			escaped = false
			continue
		}

		switch ch {
		case '\\':
			escaped = true
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				if depth == 0 {
					return "", ErrUnbalanced
				}
				depth--
				if depth == 0 {
					return text[start : i+1], nil
				}
			}
		}
	}

	return "", ErrUnterminated
}

// Unmarshal extracts the single JSON object embedded in text and decodes it
// into v. It tries a direct parse of the whole text first, then the interior
// of a fenced code block, then the balanced-brace scan.
func Unmarshal(text string, v any) error {
	trimmed := strings.TrimSpace(text)

	if err := json.Unmarshal([]byte(trimmed), v); err == nil {
		return nil
	}

	if m := fencedJSON.FindStringSubmatch(trimmed); m != nil {
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), v); err == nil {
			return nil
		}
	}

	block, err := Find(trimmed)
	if err != nil {
		return &ParseError{Sample: sample(trimmed), Err: err}
	}
	if err := json.Unmarshal([]byte(block), v); err != nil {
		return &ParseError{Sample: sample(block), Err: err}
	}
	return nil
}

func sample(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
