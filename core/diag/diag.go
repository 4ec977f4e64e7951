// Package diag is the diagnostic facility of spec.md §4.8: a queue of
// {kind, channel, position, message, errno} records, instead of a
// process-wide diagnostic singleton. The linker in core/parser keeps one
// Queue per link call and returns its Err(); ortschema.Config holds no
// queue, and the differ and migration validator do not push into one
// (migrate reports its errors in its Result).
package diag

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/ortlang/ortc/core/ortschema"
)

// Kind classifies the severity of a Diagnostic.
type Kind int

const (
	Warn Kind = iota
	Error
	Fatal
)

func (k Kind) String() string {
	switch k {
	case Warn:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Diagnostic is one queued record. Pos is the zero value when the
// diagnostic has no associated source position (spec.md §4.8: "if any").
type Diagnostic struct {
	Kind    Kind
	Channel string
	Pos     ortschema.Pos
	Message string
	Errno   string // system-error-string, set only when Kind == Fatal
}

// String renders the diagnostic as `[file:line:col: ] channel kind:
// message[: errno-text]`, the user-visible format of spec.md §7.
func (d Diagnostic) String() string {
	var b strings.Builder
	if d.Pos.Filename != "" {
		fmt.Fprintf(&b, "%s:%d:%d: ", d.Pos.Filename, d.Pos.Line, d.Pos.Column)
	}
	fmt.Fprintf(&b, "%s %s: %s", d.Channel, d.Kind, d.Message)
	if d.Kind == Fatal && d.Errno != "" {
		fmt.Fprintf(&b, ": %s", d.Errno)
	}
	return b.String()
}

// Queue is an ordered diagnostic queue; its owner is whoever declares it.
type Queue struct {
	entries []Diagnostic
}

// Push appends d to the queue.
func (q *Queue) Push(d Diagnostic) {
	q.entries = append(q.entries, d)
}

// Warnf queues a warning-kind diagnostic on the named channel.
func (q *Queue) Warnf(channel string, pos ortschema.Pos, format string, args ...any) {
	q.Push(Diagnostic{Kind: Warn, Channel: channel, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Errorf queues an error-kind diagnostic on the named channel.
func (q *Queue) Errorf(channel string, pos ortschema.Pos, format string, args ...any) {
	q.Push(Diagnostic{Kind: Error, Channel: channel, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Fatalf queues a fatal-kind diagnostic; errno is appended as
// `": " + system-error-string` per spec.md §4.8.
func (q *Queue) Fatalf(channel string, errno string, format string, args ...any) {
	q.Push(Diagnostic{Kind: Fatal, Channel: channel, Message: fmt.Sprintf(format, args...), Errno: errno})
}

// HasErrors reports whether the queue holds any Error or Fatal entry.
func (q *Queue) HasErrors() bool {
	for _, d := range q.entries {
		if d.Kind == Error || d.Kind == Fatal {
			return true
		}
	}
	return false
}

// Entries returns the queued diagnostics in push order.
func (q *Queue) Entries() []Diagnostic {
	return q.entries
}

// Drain returns every queued diagnostic and empties the queue, per spec.md
// §4.8 ("on shutdown the queue is drained to a stream").
func (q *Queue) Drain() []Diagnostic {
	out := q.entries
	q.entries = nil
	return out
}

// Err combines every Error/Fatal-kind entry in the queue into a single error
// via go.uber.org/multierr, for callers of a library API that want one
// `error` rather than a queue to inspect. Returns nil if there are no
// error/fatal entries.
func (q *Queue) Err() error {
	var errs []error
	for _, d := range q.entries {
		if d.Kind == Error || d.Kind == Fatal {
			errs = append(errs, fmt.Errorf("%s", d.String()))
		}
	}
	return multierr.Combine(errs...)
}
