// Package expr resolves the expression attributes a workflow definition may
// carry. The parser applies it only to the retry-max and retry-interval
// action attributes; predicate expressions on decision nodes are evaluated
// by the execution engine, not here.
package expr

import (
	"fmt"
	"strings"
)

// Resolver resolves an expression against job properties.
type Resolver interface {
	Resolve(expression string, props map[string]string) (string, error)
}

// PropertyResolver substitutes ${name} references with the value of the
// named job property. Literal text passes through unchanged; a reference to
// an undefined property is an error.
type PropertyResolver struct{}

// Resolve implements Resolver.
func (PropertyResolver) Resolve(expression string, props map[string]string) (string, error) {
	var b strings.Builder
	rest := expression
	for {
		start := strings.Index(rest, "${")
		if start == -1 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.Index(rest[start:], "}")
		if end == -1 {
			return "", fmt.Errorf("unterminated reference in %q", expression)
		}
		name := rest[start+2 : start+end]
		if name == "" {
			return "", fmt.Errorf("empty reference in %q", expression)
		}
		value, ok := props[name]
		if !ok {
			return "", fmt.Errorf("undefined property %q in %q", name, expression)
		}
		b.WriteString(rest[:start])
		b.WriteString(value)
		rest = rest[start+end+1:]
	}
}
