// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package future

// Result encapsulates a value along with an error. It is intended for
// situations where a single type is needed to represent the outcome of an
// operation that can either succeed with a value of type T or fail with an
// error, for instance as the element type of channels or containers.
type Result[T any] struct {
	Value T
	Error error
}

func Ok[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

func Err[T any](err error) Result[T] {
	return Result[T]{Error: err}
}

// Get returns the value and error contained in the Result.
func (r Result[T]) Get() (T, error) {
	return r.Value, r.Error
}

// Promise is the producer side of a one-shot asynchronous result. It is
// handed to a background worker which eventually calls Fulfill exactly
// once. The zero value is nil and can be used as an absence marker.
type Promise[T any] chan<- Result[T]

// Future is the consumer side of a one-shot asynchronous result. Await or
// Get may be called at most once and block until the promise is fulfilled.
type Future[T any] <-chan Result[T]

// Create produces a linked Promise/Future pair.
func Create[T any]() (Promise[T], Future[T]) {
	ch := make(chan Result[T], 1)
	return ch, ch
}

// Fulfill delivers the result to the linked Future. Must be called exactly
// once per promise.
func (p Promise[T]) Fulfill(result Result[T]) {
	p <- result
}

// Get blocks until the result is available and returns it.
func (f Future[T]) Get() Result[T] {
	return <-f
}

// Await blocks until the result is available and unpacks it.
func (f Future[T]) Await() (T, error) {
	return f.Get().Get()
}
