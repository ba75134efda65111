package workflow

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a definition fault so callers can report it to the
// workflow author without parsing error text.
type ErrorCode string

const (
	// ErrCodeSchema reports a rejection by the schema validator.
	ErrCodeSchema ErrorCode = "schema_violation"
	// ErrCodeParse reports malformed definition markup or payloads.
	ErrCodeParse ErrorCode = "definition_parse_failure"
	// ErrCodeUnknownElement reports an unrecognized element or attribute value.
	ErrCodeUnknownElement ErrorCode = "unknown_element"
	// ErrCodeInvalidName reports a node name violating the naming rules.
	ErrCodeInvalidName ErrorCode = "invalid_node_name"
	// ErrCodeDanglingTransition reports a transition to an undefined node.
	ErrCodeDanglingTransition ErrorCode = "dangling_transition"
	// ErrCodeCycle reports a cycle reachable from the start node.
	ErrCodeCycle ErrorCode = "cycle_detected"
	// ErrCodeUnsupportedAction reports an action type the registry rejects.
	ErrCodeUnsupportedAction ErrorCode = "unsupported_action_type"
	// ErrCodeMissingDefault reports a required endpoint default that could
	// not be resolved from any tier.
	ErrCodeMissingDefault ErrorCode = "missing_required_default"
	// ErrCodeForkJoinCount reports unequal fork and join node counts.
	ErrCodeForkJoinCount ErrorCode = "unbalanced_fork_join"
	// ErrCodeForkDuplicateTarget reports a fork routing two paths to the
	// same non-join, non-kill node.
	ErrCodeForkDuplicateTarget ErrorCode = "fork_duplicate_target"
	// ErrCodeJoinWithoutFork reports a join with no open fork scope.
	ErrCodeJoinWithoutFork ErrorCode = "join_without_fork"
	// ErrCodeJoinForkMismatch reports a join that does not close the
	// innermost open fork.
	ErrCodeJoinForkMismatch ErrorCode = "join_fork_mismatch"
	// ErrCodeNodeRevisit reports a node that would execute more than once
	// at run time.
	ErrCodeNodeRevisit ErrorCode = "illegal_node_revisit"
	// ErrCodeEndInFork reports an end node reached inside an open fork scope.
	ErrCodeEndInFork ErrorCode = "unjoined_fork_end"
	// ErrCodeParameters reports declared parameters left without a value.
	ErrCodeParameters ErrorCode = "parameter_verification_failure"
)

// Error is the single fault kind raised by the parse-and-validate pipeline.
// Code is machine-readable; Message names the offending nodes, transitions
// or fields.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Errorf builds an Error with a formatted detail message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds an Error around an underlying cause.
func WrapError(code ErrorCode, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the ErrorCode carried by err, or "" when err does not wrap
// a workflow Error.
func CodeOf(err error) ErrorCode {
	var we *Error
	if errors.As(err, &we) {
		return we.Code
	}
	return ""
}
