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

import "time"

// Barrier adapts one Promise into a blocking wait for callers that live
// outside the asynchronous execution graph (typically a test, a main
// goroutine, or any synchronous API wrapping an asynchronous one).
//
// A Barrier binds exactly one Promise, at creation, and is effectively
// one-shot: once a wait has returned, later waits just report the same
// settlement (or keep timing out, if the promise never settles).
//
// Waiting is implemented over the promise's Done channel, so there's no
// check-then-block window: a settlement racing with the start of a wait is
// still observed.
type Barrier[T any] struct {
	p *Promise[T]
}

// NewBarrier returns a Barrier bound to the provided promise.
func NewBarrier[T any](p *Promise[T]) *Barrier[T] {
	if p == nil {
		panic(nilPromisePanicMsg)
	}
	return &Barrier[T]{p: p}
}

// Wait blocks the calling goroutine, indefinitely, until the bound promise
// settles, then returns its value or its error.
func (b *Barrier[T]) Wait() (T, error) {
	return b.p.Res()
}

// WaitFor blocks the calling goroutine until the bound promise settles, or
// until d elapses, whichever comes first. On timeout it returns ErrTimedOut.
//
// A timeout only abandons the wait. The promise is not cancelled, keeps
// whatever work backs it running, and may still settle later, observable
// through its own methods or a separately attached callback. The abandoned
// settlement is simply never delivered to this waiter.
func (b *Barrier[T]) WaitFor(d time.Duration) (T, error) {
	select {
	case <-b.p.Done():
		return b.p.Res()
	default:
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-b.p.Done():
		return b.p.Res()
	case <-timer.C:
		var zero T
		return zero, ErrTimedOut
	}
}
