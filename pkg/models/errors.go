package models

import "fmt"

// ErrorKind classifies the pipeline stage an error originated from
type ErrorKind int

const (
	ConfigError ErrorKind = iota
	ConnectError
	IntrospectionError
	ParseError
	InvariantViolation
	ExecutionError
)

func (k ErrorKind) String() string {
	switch k {
	case ConfigError:
		return "config"
	case ConnectError:
		return "connect"
	case IntrospectionError:
		return "introspection"
	case ParseError:
		return "parse"
	case InvariantViolation:
		return "invariant"
	case ExecutionError:
		return "execution"
	}
	return "unknown"
}

// SyncError is the typed error surfaced by the pipeline. Offset is the
// byte offset into the input for parse errors (-1 when not
// meaningful); Statement carries the failing DDL for execution errors.
type SyncError struct {
	Kind      ErrorKind
	Message   string
	Offset    int
	Statement string
	Err       error
}

func (e *SyncError) Error() string {
	msg := fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	if e.Offset >= 0 {
		msg = fmt.Sprintf("%s (at byte %d)", msg, e.Offset)
	}
	if e.Statement != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Statement)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewError creates a SyncError without positional context
func NewError(kind ErrorKind, format string, args ...interface{}) *SyncError {
	return &SyncError{Kind: kind, Message: fmt.Sprintf(format, args...), Offset: -1}
}

// NewParseError creates a parse error anchored at a byte offset
func NewParseError(offset int, format string, args ...interface{}) *SyncError {
	return &SyncError{Kind: ParseError, Message: fmt.Sprintf(format, args...), Offset: offset}
}

// WrapError creates a SyncError wrapping an underlying error
func WrapError(kind ErrorKind, err error, format string, args ...interface{}) *SyncError {
	return &SyncError{Kind: kind, Message: fmt.Sprintf(format, args...), Offset: -1, Err: err}
}
