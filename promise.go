// Copyright 2020 Ahmad Sameh(asmsh)
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

import "sync"

const (
	settledPanicMsg      = "async: the promise is already settled"
	nilRejectionPanicMsg = "async: the provided Rejection is nil"
	nilCallbackPanicMsg  = "async: the provided callback is nil"
	nilPromisePanicMsg   = "async: the provided promise is nil"
)

// State describes which of its three states a Promise is in.
type State int

const (
	Pending State = iota
	Fulfilled
	Rejected
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	default:
		return "<unknown>"
	}
}

// continuation is one queued settlement callback.
// exactly one invocation happens per registration, with the final state.
type continuation[T any] func(s State, val T, err error)

// Promise is a single-assignment result container.
//
// The zero value is not usable; create values through New, Wrap, or WrapErr.
//
// A Promise is settled at most once, through Resolve or Reject, on whatever
// goroutine produces the final value. All methods are safe for concurrent
// use by multiple goroutines.
type Promise[T any] struct {
	mu sync.Mutex

	// closed when this promise is settled.
	// it has one closer (the settling goroutine), but can have any number
	// of readers (Barrier waiters, combinators, follow promises).
	done chan struct{}

	state State
	val   T
	err   error

	// callbacks queued while still Pending.
	// emptied (and run, in order) by the settling goroutine.
	cbs []continuation[T]
}

// New returns a new Promise in the Pending state.
func New[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// Wrap returns a Promise that's already fulfilled with val.
func Wrap[T any](val T) *Promise[T] {
	p := New[T]()
	p.Resolve(val)
	return p
}

// WrapErr returns a Promise that's already rejected with err.
func WrapErr[T any](err error) *Promise[T] {
	p := New[T]()
	p.Reject(err)
	return p
}

// Resolve settles the promise to Fulfilled with the provided value, and runs
// all queued callbacks, in registration order, on the calling goroutine.
//
// It panics if the promise is already settled, as settling twice is always
// a bug in the settling code, and hiding it makes such bugs unfindable.
func (p *Promise[T]) Resolve(val T) {
	p.settle(Fulfilled, val, nil)
}

// Reject settles the promise to Rejected with the provided error, and runs
// all queued callbacks, in registration order, on the calling goroutine.
//
// It panics if the promise is already settled.
func (p *Promise[T]) Reject(err error) {
	var zero T
	p.settle(Rejected, zero, err)
}

func (p *Promise[T]) settle(s State, val T, err error) {
	p.mu.Lock()
	if p.state != Pending {
		p.mu.Unlock()
		panic(settledPanicMsg)
	}
	p.state = s
	p.val = val
	p.err = err
	cbs := p.cbs
	p.cbs = nil
	close(p.done)
	p.mu.Unlock()

	for _, cb := range cbs {
		cb(s, val, err)
	}
}

// subscribe registers cb to run with the final settlement.
// if the promise is already settled, cb runs now, on the calling goroutine.
func (p *Promise[T]) subscribe(cb continuation[T]) {
	p.mu.Lock()
	if p.state == Pending {
		p.cbs = append(p.cbs, cb)
		p.mu.Unlock()
		return
	}
	s, val, err := p.state, p.val, p.err
	p.mu.Unlock()
	cb(s, val, err)
}

// subscribeAny implements the Completable interface, erasing the value type
// for the heterogeneous combinators.
func (p *Promise[T]) subscribeAny(cb func(s State, val any, err error)) {
	p.subscribe(func(s State, val T, err error) {
		cb(s, val, err)
	})
}

// State returns the promise's state at the time of the call.
func (p *Promise[T]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Done returns a channel that's closed once the promise is settled.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// Wait blocks the calling goroutine until the promise is settled.
func (p *Promise[T]) Wait() {
	<-p.done
}

// Res waits the promise to be settled, then returns its value and error.
// Exactly one of the two carries the settlement: err is nil on a fulfilled
// promise, and the value is the zero value on a rejected one.
func (p *Promise[T]) Res() (T, error) {
	<-p.done
	return p.val, p.err
}

// Then registers an observation pair on the promise: onFulfilled runs with
// the value if it fulfills, otherwise rejected is applied to the error.
// Exactly one of the two runs, once, per the callback rules in the package
// comment. onFulfilled may be nil; rejected must not be, as it names this
// call site's policy for the error (see Rejection).
//
// It returns a derived Promise that settles the same way as the receiver,
// after the callbacks have run, so further observations can be chained
// behind this one.
func (p *Promise[T]) Then(onFulfilled func(val T), rejected Rejection) *Promise[T] {
	if rejected == nil {
		panic(nilRejectionPanicMsg)
	}

	next := New[T]()
	p.subscribe(func(s State, val T, err error) {
		if s == Fulfilled {
			if onFulfilled != nil {
				onFulfilled(val)
			}
			next.Resolve(val)
			return
		}
		rejected(err)
		next.Reject(err)
	})
	return next
}

// Finally registers cb to run once the promise settles, fulfilled or
// rejected. It returns a derived Promise that settles the same way as the
// receiver, after cb has run.
func (p *Promise[T]) Finally(cb func()) *Promise[T] {
	if cb == nil {
		panic(nilCallbackPanicMsg)
	}

	next := New[T]()
	p.subscribe(func(s State, val T, err error) {
		cb()
		if s == Fulfilled {
			next.Resolve(val)
		} else {
			next.Reject(err)
		}
	})
	return next
}
