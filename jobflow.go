// Package jobflow provides a top-level convenience entry point for
// compiling workflow definitions with minimal boilerplate.
//
// Usage:
//
//	import "github.com/jobflow-io/jobflow"
//
//	g, err := jobflow.Validate(definition, props, registry)
//
// This is a thin wrapper around [parser.New] and
// [parser.Parser.ValidateAndParse]; both produce identical results. Use this
// package when you prefer the shorter import path.
package jobflow

import (
	"github.com/jobflow-io/jobflow/workflow"
	"github.com/jobflow-io/jobflow/workflow/parser"
)

// Option configures the parser used by [Validate].
type Option = parser.Option

// Validate compiles a workflow definition into a validated graph.
func Validate(definition string, props workflow.Properties, registry parser.ActionRegistry, opts ...Option) (*workflow.Graph, error) {
	return parser.New(registry, opts...).ValidateAndParse(definition, props)
}

// WithLogger sets a custom zap logger.
var WithLogger = parser.WithLogger

// WithSiteDefaults sets the process-wide endpoint defaults.
var WithSiteDefaults = parser.WithSiteDefaults

// WithForkJoinValidation sets the process-wide fork/join validation flag.
var WithForkJoinValidation = parser.WithForkJoinValidation
