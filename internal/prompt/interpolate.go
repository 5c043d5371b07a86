// Package prompt renders agent prompt templates.
//
// Templates carry two placeholder syntaxes: single-brace {name} spans are
// substituted here, double-brace {{name}} spans belong to the downstream
// voice provider and must pass through byte-for-byte.
package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// placeholderPattern deliberately matches only lowercase names so that
	// unrelated brace usage ({ID1}, {2}, JSON snippets) is left untouched.
	placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

	protectedPattern = regexp.MustCompile(`\{\{[^{}]*\}\}`)

	spaceRunPattern = regexp.MustCompile(` {2,}`)
)

// Variables is an insertion-ordered name-to-value mapping. Substitution is
// applied in insertion order, so iteration order is part of the contract.
type Variables struct {
	keys   []string
	values map[string]string
}

func NewVariables() *Variables {
	return &Variables{values: map[string]string{}}
}

func (v *Variables) Set(name, value string) *Variables {
	if _, ok := v.values[name]; !ok {
		v.keys = append(v.keys, name)
	}
	v.values[name] = value
	return v
}

func (v *Variables) Get(name string) (string, bool) {
	val, ok := v.values[name]
	return val, ok
}

func (v *Variables) Len() int { return len(v.keys) }

// Interpolate substitutes {name} placeholders in template with values from
// vars, in two passes:
//
//  1. Every {{...}} span is swapped for a positional marker so the
//     substitution pass cannot touch it.
//  2. Each non-empty variable value replaces every literal {name}
//     occurrence, in insertion order.
//  3. Leftover {name} placeholders matching [a-z_]+ are removed.
//  4. Protected spans are restored verbatim, in original order.
//  5. Runs of two or more spaces collapse to one; leading and trailing
//     whitespace is kept as-is.
//
// Empty template input returns an empty string. The function is pure and
// total over strings.
func Interpolate(template string, vars *Variables) string {
	if template == "" {
		return ""
	}

	// The marker delimiter is a NUL byte, which cannot appear in template
	// text sourced from the UI.
	var protected []string
	out := protectedPattern.ReplaceAllStringFunc(template, func(span string) string {
		protected = append(protected, span)
		return fmt.Sprintf("\x00%d\x00", len(protected)-1)
	})

	if vars != nil {
		for _, name := range vars.keys {
			value := vars.values[name]
			if value == "" {
				continue
			}
			out = strings.ReplaceAll(out, "{"+name+"}", value)
		}
	}

	out = placeholderPattern.ReplaceAllString(out, "")

	for i, span := range protected {
		out = strings.Replace(out, fmt.Sprintf("\x00%d\x00", i), span, 1)
	}

	return spaceRunPattern.ReplaceAllString(out, " ")
}

// ExtractVariables returns the distinct substitutable placeholder names in
// template. Double-brace spans and placeholders with characters outside
// [a-z_]+ are excluded. Set semantics only; no ordering contract.
func ExtractVariables(template string) map[string]struct{} {
	out := map[string]struct{}{}
	if template == "" {
		return out
	}

	stripped := protectedPattern.ReplaceAllString(template, "")
	for _, m := range placeholderPattern.FindAllStringSubmatch(stripped, -1) {
		out[m[1]] = struct{}{}
	}
	return out
}
