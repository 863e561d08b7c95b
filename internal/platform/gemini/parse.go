package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/medtitle/plangen-api/internal/generation"
)

// parsePlanResponse extracts a planSchema from raw model output by trying
// an ordered chain of recovery strategies:
//
//  1. direct parse of the whole text (after stripping markdown fences),
//  2. boundary extraction between the first '{' and the last '}', for
//     models that wrap the document in prose,
//  3. anchor-based reconstruction around the "modules" field, for output
//     with stray braces before or after an otherwise complete object.
//
// When every strategy fails the caller gets ErrInvalidResponse and should
// fall back to deterministic synthesis.
func parsePlanResponse(raw string) (*planSchema, error) {
	text := stripMarkdownCodeBlocks(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response text", generation.ErrInvalidResponse)
	}

	// Strategy 1: the whole text is the document.
	if plan, err := unmarshalPlan(text); err == nil {
		return plan, nil
	}

	// Strategy 2: first '{' to last '}'.
	if span, ok := boundarySpan(text); ok {
		if plan, err := unmarshalPlan(span); err == nil {
			return plan, nil
		}
	}

	// Strategy 3: reconstruct the object enclosing the "modules" field.
	if span, ok := anchorSpan(text, `"modules"`); ok {
		if plan, err := unmarshalPlan(span); err == nil {
			return plan, nil
		}
	}

	return nil, fmt.Errorf("%w: no recovery strategy produced a plan", generation.ErrInvalidResponse)
}

// unmarshalPlan parses text into a planSchema and rejects documents that
// are syntactically valid JSON but clearly not a plan.
func unmarshalPlan(text string) (*planSchema, error) {
	var plan planSchema
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		return nil, err
	}
	if len(plan.Modules) == 0 {
		return nil, fmt.Errorf("document has no modules")
	}
	return &plan, nil
}

// stripMarkdownCodeBlocks removes ```json fences the model often wraps
// its output in.
func stripMarkdownCodeBlocks(s string) string {
	s = strings.TrimSpace(s)
	if cut, found := strings.CutPrefix(s, "```json"); found {
		s = cut
	} else if cut, found := strings.CutPrefix(s, "```"); found {
		s = cut
	}
	if cut, found := strings.CutSuffix(strings.TrimSpace(s), "```"); found {
		s = cut
	}
	return strings.TrimSpace(s)
}

// boundarySpan returns the substring between the first '{' and the last
// '}' inclusive, handling models that surround the document with prose.
func boundarySpan(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || start >= end {
		return "", false
	}
	return s[start : end+1], true
}

// anchorSpan locates the named field, walks backward to its enclosing
// opening brace, then forward with brace-depth counting to the matching
// closing brace, and returns that span. This recovers an object that is
// complete in itself but has extra braces before or after it.
func anchorSpan(s, anchor string) (string, bool) {
	idx := strings.Index(s, anchor)
	if idx == -1 {
		return "", false
	}

	// Walk backward to the opening brace that encloses the anchor field.
	start := -1
	for i := idx; i >= 0; i-- {
		if s[i] == '{' {
			start = i
			break
		}
	}
	if start == -1 {
		return "", false
	}

	// Walk forward counting brace depth, skipping braces inside strings.
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}

	return "", false
}
