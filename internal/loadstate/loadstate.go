// Package loadstate is the tagged result of an asynchronous document load and the
// status values the editors move through.
package loadstate

import (
	"context"
	"errors"

	"github.com/jonathan/fittrack/internal/session"
)

// Status is where an editor is in its lifecycle:
// Idle → Loading → (Ready | Unauthenticated | Failed), Ready ⇄ Editing,
// Ready → Saving → Ready.
type Status int

const (
	Idle Status = iota
	Loading
	Ready
	Failed
	Unauthenticated
	Editing
	Saving
)

var statusNames = map[Status]string{
	Idle:            "idle",
	Loading:         "loading",
	Ready:           "ready",
	Failed:          "failed",
	Unauthenticated: "unauthenticated",
	Editing:         "editing",
	Saving:          "saving",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Result is Loading, Ready(Value) or Failed(Err).
type Result[T any] struct {
	Status Status
	Value  T
	Err    error
}

// Pending is the Loading result.
func Pending[T any]() Result[T] {
	return Result[T]{Status: Loading}
}

// Done wraps a successful load.
func Done[T any](v T) Result[T] {
	return Result[T]{Status: Ready, Value: v}
}

// Fail wraps a failed load. Session failures are tagged Unauthenticated.
func Fail[T any](err error) Result[T] {
	status := Failed
	if errors.Is(err, session.ErrUnauthenticated) {
		status = Unauthenticated
	}
	return Result[T]{Status: status, Err: err}
}

// From builds a Ready or Failed result from a (value, error) pair.
func From[T any](v T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Done(v)
}

// Ok reports whether r holds a value.
func (r Result[T]) Ok() bool {
	return r.Status == Ready
}

// Async runs fn on its own goroutine and delivers exactly one result. The channel is
// buffered so an abandoned load never blocks; callers that navigate away just stop
// reading.
func Async[T any](ctx context.Context, fn func(context.Context) (T, error)) <-chan Result[T] {
	out := make(chan Result[T], 1)
	go func() {
		defer close(out)
		v, err := fn(ctx)
		out <- From(v, err)
	}()
	return out
}
