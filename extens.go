package async

import "sync"

// Completable is the type-erased view of a Promise, implemented by every
// *Promise[T]. It's what the heterogeneous combinators operate on, since a
// single Go slice can't hold promises of different result types otherwise.
//
// It's a private interface: only *Promise[T] values can implement it.
type Completable interface {
	// Wait blocks the calling goroutine until the promise is settled.
	Wait()

	// Done returns a channel that's closed once the promise is settled.
	Done() <-chan struct{}

	subscribeAny(cb func(s State, val any, err error))
}

// allState is the aggregation state shared by one WhenAll(or WhenAllSettled)
// call. Input promises settle on arbitrary goroutines, so every update goes
// through the mutex.
type allState struct {
	mu        sync.Mutex
	remaining int
	done      bool // the aggregate's outcome is already decided
}

// settleOne folds one input settlement into the aggregate.
// store runs under the lock, on a fulfillment that still counts, and is
// where the caller records the input's value at its index.
// It reports (resolve, reject): at most one of the two is true, and each is
// reported at most once across all calls.
func (a *allState) settleOne(s State, store func()) (resolve, reject bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done {
		// a rejection already decided the outcome. later settlements,
		// fulfillments and rejections alike, no longer affect it.
		return false, false
	}
	if s == Rejected {
		a.done = true
		return false, true
	}
	store()
	a.remaining--
	if a.remaining == 0 {
		a.done = true
		return true, false
	}
	return false, false
}

// WhenAll returns a Promise that fulfills once every Promise passed has
// fulfilled, with a slice of their values: vals[i] is the value of p[i],
// regardless of the order the inputs actually settled in.
//
// If any input rejects, the returned Promise rejects with the first
// rejection observed, by settlement time, not by position. The remaining
// inputs still settle on their own, but no longer affect the aggregate.
//
// With no inputs, the returned Promise is already fulfilled, with an empty
// slice.
func WhenAll[T any](p ...*Promise[T]) *Promise[[]T] {
	next := New[[]T]()
	if len(p) == 0 {
		next.Resolve([]T{})
		return next
	}

	vals := make([]T, len(p))
	agg := &allState{remaining: len(p)}
	for idx, prom := range p {
		if prom == nil {
			panic(nilPromisePanicMsg)
		}
		idx := idx
		prom.subscribe(func(s State, val T, err error) {
			resolve, reject := agg.settleOne(s, func() { vals[idx] = val })
			if resolve {
				next.Resolve(vals)
			} else if reject {
				next.Reject(err)
			}
		})
	}
	return next
}

// WhenAllSettled is WhenAll over promises of different result types: it
// accepts any mix of *Promise[T] values (through the Completable interface)
// and aggregates their values as a []any, index-aligned with the inputs.
// Rejection and empty-input behavior match WhenAll.
func WhenAllSettled(p ...Completable) *Promise[[]any] {
	next := New[[]any]()
	if len(p) == 0 {
		next.Resolve([]any{})
		return next
	}

	vals := make([]any, len(p))
	agg := &allState{remaining: len(p)}
	for idx, prom := range p {
		if prom == nil {
			panic(nilPromisePanicMsg)
		}
		idx := idx
		prom.subscribeAny(func(s State, val any, err error) {
			resolve, reject := agg.settleOne(s, func() { vals[idx] = val })
			if resolve {
				next.Resolve(vals)
			} else if reject {
				next.Reject(err)
			}
		})
	}
	return next
}

// WhenAny returns a Promise that adopts the settlement of whichever input
// settles first, fulfilled or rejected. The rest keep settling on their own
// but are ignored.
//
// It panics if no promises are passed, as the returned Promise could never
// settle.
func WhenAny[T any](p ...*Promise[T]) *Promise[T] {
	if len(p) == 0 {
		panic(nilPromisePanicMsg)
	}

	next := New[T]()
	var once sync.Once
	for _, prom := range p {
		if prom == nil {
			panic(nilPromisePanicMsg)
		}
		prom.subscribe(func(s State, val T, err error) {
			once.Do(func() {
				if s == Fulfilled {
					next.Resolve(val)
				} else {
					next.Reject(err)
				}
			})
		})
	}
	return next
}
