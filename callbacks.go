// Copyright 2023 Ahmad Sameh(asmsh)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package async

// Rejection is the error side of a Then call: it receives the error of a
// rejected promise, and doubles as the call site's unhandled-rejection
// policy. Two ready policies are provided, IgnoreErr and EscalateErr; any
// other func(error) is a custom handler.
type Rejection func(err error)

// IgnoreErr is the drop policy: the rejection is discarded.
// Use it at call sites that assert they don't care about the outcome,
// like best-effort logging or telemetry.
var IgnoreErr Rejection = func(err error) {}

// EscalateErr is the escalation policy: the rejection panics, on the
// settling goroutine, with an *UnhandledRejectionError wrapping the error.
// Use it at call sites where losing the error would hide a correctness bug.
var EscalateErr Rejection = func(err error) {
	panic(&UnhandledRejectionError{err: err})
}

// Then returns a Promise for the value that onFulfilled will derive from
// p's value, once p fulfills. If onFulfilled returns a non-nil error, or if
// p rejects, the returned Promise rejects (p's own error passes through
// unhandled; see the propagation note in the package comment).
//
// It's a function, not a method, so the derived value may be of a different
// type than the input's.
func Then[T, U any](p *Promise[T], onFulfilled func(val T) (U, error)) *Promise[U] {
	if onFulfilled == nil {
		panic(nilCallbackPanicMsg)
	}

	next := New[U]()
	p.subscribe(func(s State, val T, err error) {
		if s != Fulfilled {
			next.Reject(err)
			return
		}
		newVal, newErr := onFulfilled(val)
		if newErr != nil {
			next.Reject(newErr)
		} else {
			next.Resolve(newVal)
		}
	})
	return next
}

// ThenPromise is the flattening variant of Then: onFulfilled starts another
// asynchronous stage and returns its Promise, and the returned Promise
// adopts that inner Promise's eventual settlement. This is the building
// block for multi-stage pipelines ("connect, then send, then read").
//
// onFulfilled must return a non-nil Promise.
func ThenPromise[T, U any](p *Promise[T], onFulfilled func(val T) *Promise[U]) *Promise[U] {
	if onFulfilled == nil {
		panic(nilCallbackPanicMsg)
	}

	next := New[U]()
	p.subscribe(func(s State, val T, err error) {
		if s != Fulfilled {
			next.Reject(err)
			return
		}
		inner := onFulfilled(val)
		if inner == nil {
			panic(nilPromisePanicMsg)
		}
		inner.subscribe(func(s State, val U, err error) {
			if s == Fulfilled {
				next.Resolve(val)
			} else {
				next.Reject(err)
			}
		})
	})
	return next
}

// Catch returns a Promise that fulfills with p's value if p fulfills, and
// otherwise with whatever onRejected recovers from p's error. If onRejected
// returns a non-nil error (possibly the one it was passed), the returned
// Promise rejects with it, keeping the error propagating down the chain.
func Catch[T any](p *Promise[T], onRejected func(err error) (T, error)) *Promise[T] {
	if onRejected == nil {
		panic(nilCallbackPanicMsg)
	}

	next := New[T]()
	p.subscribe(func(s State, val T, err error) {
		if s == Fulfilled {
			next.Resolve(val)
			return
		}
		newVal, newErr := onRejected(err)
		if newErr != nil {
			next.Reject(newErr)
		} else {
			next.Resolve(newVal)
		}
	})
	return next
}
