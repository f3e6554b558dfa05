package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Problems and traces
// ---------------------------------------------------------------------------

// Hint says where, relative to the span, the reporter should point.
type Hint string

const (
	HintBefore Hint = "before"
	HintHere   Hint = "here"
	HintAfter  Hint = "after"
)

// Problem is one diagnostic record handed to the problem reporter.
type Problem struct {
	Code    string
	Span    *Span
	Message string
	Hint    Hint
}

// Error implements error.
func (p Problem) Error() string {
	if p.Span == nil {
		return fmt.Sprintf("%s: %s", p.Code, p.Message)
	}
	return fmt.Sprintf("%s: %s: %s", p.Span, p.Code, p.Message)
}

// TraceFrame is one call-frame entry of a Trace.
type TraceFrame struct {
	Name string
	Span *Span
}

// Trace is the call history attached to a runtime failure. Frames are
// stored innermost first.
type Trace struct {
	Frames []TraceFrame
}

// MostRecentLast returns the frames in display order.
func (t Trace) MostRecentLast() []TraceFrame {
	out := make([]TraceFrame, len(t.Frames))
	for i, f := range t.Frames {
		out[len(t.Frames)-1-i] = f
	}
	return out
}

// String renders the trace most-recent-last, one frame per line.
func (t Trace) String() string {
	var sb strings.Builder
	for _, f := range t.MostRecentLast() {
		sb.WriteString("  in ")
		sb.WriteString(f.Name)
		if f.Span != nil {
			sb.WriteString(" at ")
			sb.WriteString(f.Span.String())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ---------------------------------------------------------------------------
// Failures
// ---------------------------------------------------------------------------

// Failure classifies a runtime failure independently of where it happened.
type Failure uint8

const (
	FailInternal Failure = iota
	FailUnbound
	FailArity
	FailTypeMismatch
	FailNotCallable
	FailNotFound
	FailOutOfRange
	FailInvalidTarget
	FailOutsideLoop
	FailNotBoolean
	FailInvalidOperand
	FailHostCall
	FailConversion
	FailCallDepth
)

// RuntimeError is a failure raised while executing a program. Natives
// create unlocated errors with Raise; the interpreter locates them at the
// failing instruction and attaches the problems and trace.
type RuntimeError struct {
	Failure Failure
	Message string

	located  bool
	problems []Problem
	trace    Trace
}

// Raise creates a runtime error for natives to return.
func Raise(f Failure, format string, args ...any) *RuntimeError {
	return &RuntimeError{Failure: f, Message: fmt.Sprintf(format, args...)}
}

// Error implements error.
func (e *RuntimeError) Error() string {
	if len(e.problems) > 0 {
		return e.problems[0].Error()
	}
	return e.Message
}

// Problems returns the diagnostics attached when the error was located.
func (e *RuntimeError) Problems() []Problem {
	return e.problems
}

// Trace returns the call history captured when the error was located.
func (e *RuntimeError) Trace() Trace {
	return e.trace
}

// ---------------------------------------------------------------------------
// Diagnostic codes
// ---------------------------------------------------------------------------

type diagnostic struct {
	code string
	hint Hint
}

// defaultCodes gives each failure its code when no context-specific one applies.
var defaultCodes = map[Failure]diagnostic{
	FailInternal:       {"RE0000", HintHere},
	FailUnbound:        {"RE0001", HintHere},
	FailArity:          {"RE0002", HintHere},
	FailTypeMismatch:   {"RE0003", HintHere},
	FailNotCallable:    {"RE0004", HintHere},
	FailNotFound:       {"RE0005", HintHere},
	FailOutOfRange:     {"RE0006", HintHere},
	FailInvalidTarget:  {"RE0007", HintBefore},
	FailOutsideLoop:    {"RE0008", HintHere},
	FailNotBoolean:     {"RE0009", HintHere},
	FailInvalidOperand: {"RE0010", HintAfter},
	FailHostCall:       {"RE0011", HintHere},
	FailConversion:     {"RE0012", HintHere},
	FailCallDepth:      {"RE0013", HintHere},
}

// contextCodes refines a failure by the kind of the innermost syntax node
// covering the failing instruction.
var contextCodes = map[Failure]map[string]diagnostic{
	FailNotBoolean: {
		"If":     {"RE0020", HintAfter},
		"While":  {"RE0021", HintAfter},
		"For":    {"RE0021", HintAfter},
		"Each":   {"RE0021", HintAfter},
		"Match":  {"RE0022", HintAfter},
		"Binary": {"RE0023", HintBefore},
		"Unary":  {"RE0024", HintAfter},
	},
	FailTypeMismatch: {
		"Binary": {"RE0030", HintHere},
		"Call":   {"RE0031", HintHere},
		"Func":   {"RE0032", HintHere},
		"Impl":   {"RE0032", HintHere},
		"Loop":   {"RE0034", HintAfter},
	},
	FailArity: {
		"Binary": {"RE0033", HintHere},
	},
	FailOutsideLoop: {
		"Break":    {"RE0040", HintHere},
		"Continue": {"RE0041", HintHere},
	},
}

// codeFor picks the diagnostic for f raised inside a node of kind.
func codeFor(f Failure, kind string) diagnostic {
	if byKind, ok := contextCodes[f]; ok {
		if d, ok := byKind[kind]; ok {
			return d
		}
	}
	if d, ok := defaultCodes[f]; ok {
		return d
	}
	return defaultCodes[FailInternal]
}

// contextMessages prefixes messages for failures whose meaning depends on
// the enclosing construct.
var contextMessages = map[string]string{
	"If":     "if condition",
	"While":  "loop condition",
	"For":    "loop condition",
	"Each":   "iterator step",
	"Match":  "match comparison",
	"Binary": "logical operand",
	"Unary":  "operand of not",
}
