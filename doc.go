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

// Package async provides a single-assignment Promise implementation with
// chainable continuations, aggregation combinators, and a blocking Barrier
// adapter for synchronous callers.
//
// A Promise is settled from the outside, through its Resolve and Reject
// methods, which makes it suitable for bridging callback-style sources
// (network completions, worker pools, IO loops) into a composable value.
//
// A Promise has three states, and it can be in only one of them, at any time:
// Pending: the work that corresponds to this Promise has not finished.
// Fulfilled: the work finished and produced a value.
// Rejected: the work finished and produced an error.
//
// General Notes:-
//
// * The Pending state is left exactly once, either to Fulfilled or to
// Rejected, and never re-entered. Settling an already settled Promise is
// a programming error and panics.
//
// * Once a Promise is settled, its value(or error) will not change, and
// callbacks must treat it as read-only.
//
// * Callbacks registered while the Promise is still Pending are queued,
// and run in registration order, on the goroutine that settles the Promise.
// Callbacks registered after settlement run immediately, on the goroutine
// that registers them.
//
// * Callbacks must not assume any affinity between the goroutine they were
// registered on and the goroutine they run on.
//
// Rejection Policy:-
//
// * Every Then call site names its own policy for errors it doesn't
// otherwise handle, by passing a Rejection value: IgnoreErr drops the
// error(fire-and-forget work), EscalateErr panics with an
// *UnhandledRejectionError(correctness-critical work), and any custom
// Rejection func observes the error in whatever way the call site needs.
//
// * The transforming chain functions(Then, ThenPromise, Catch) forward an
// unhandled branch to the returned Promise unchanged, so an error keeps
// propagating down a chain until some link supplies a handler for it.
package async
