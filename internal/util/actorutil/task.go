package actorutil

import (
	"errors"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/primetalk/goio/io"
)

// BackgroundTask runs a blocking function off the actor goroutine and
// delivers its result as a message. Built on goio so timeout and panic
// handling compose with the task itself.
type BackgroundTask[T any] struct {
	ctx     actor.Context
	fn      func() (*T, error)
	timeout *time.Duration
	recover func(error) T
}

func NewBackgroundTask[T any](ctx actor.Context, fn func() (*T, error)) *BackgroundTask[T] {
	return &BackgroundTask[T]{
		ctx: ctx,
		fn:  fn,
	}
}

func (t *BackgroundTask[T]) WithTimeout(timeout time.Duration) *BackgroundTask[T] {
	t.timeout = &timeout
	return t
}

// Recover maps a task error (including timeout) to a fallback value, so
// the receiving actor always gets a message of type T.
func (t *BackgroundTask[T]) Recover(fn func(error) T) *BackgroundTask[T] {
	t.recover = fn
	return t
}

// PipeTo forks the task and sends its result to pid. A poll cycle can
// take tens of seconds, so the owning actor's mailbox must stay free
// for health checks while the task runs.
func (t *BackgroundTask[T]) PipeTo(pid *actor.PID) {
	root := t.ctx.ActorSystem().Root
	go t.run(func(value T) {
		root.Send(pid, value)
	})
}

func (t *BackgroundTask[T]) run(deliver func(T)) {
	task := io.Map(io.Eval(t.fn), func(a *T) T {
		if a == nil {
			panic(errors.New("background task returned nil result"))
		}
		return *a
	})
	if t.timeout != nil {
		task = io.WithTimeout[T](*t.timeout)(task)
	}
	result := io.RunSync(task)
	value := result.Value
	if result.Error != nil {
		if t.recover == nil {
			return
		}
		value = t.recover(result.Error)
	}
	deliver(value)
}

// MapBackgroundTask derives a task producing T2 from one producing T.
// The mapping runs in the background alongside the original function.
func MapBackgroundTask[T, T2 any](bgt *BackgroundTask[T], mapFn func(*T) *T2) *BackgroundTask[T2] {
	return &BackgroundTask[T2]{
		ctx: bgt.ctx,
		fn: func() (*T2, error) {
			r, err := bgt.fn()
			if err != nil {
				return nil, err
			}
			return mapFn(r), nil
		},
	}
}
