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

import (
	"errors"
	"testing"
	"time"
)

// testStrError is an error implementation that's used only for testing.
// it's a string to allow comparing its values.
type testStrError string

func (t testStrError) Error() string {
	return string(t)
}

func newStrError() error {
	return testStrError("str_test_error")
}

func TestPromiseSettlement(t *testing.T) {
	t.Run("resolve", func(t *testing.T) {
		p := New[int]()
		if s := p.State(); s != Pending {
			t.Fatalf("state before settlement = %v, want %v", s, Pending)
		}

		p.Resolve(42)

		if s := p.State(); s != Fulfilled {
			t.Fatalf("state after Resolve = %v, want %v", s, Fulfilled)
		}
		val, err := p.Res()
		if err != nil {
			t.Fatalf("got unexpected error: %v", err)
		}
		if val != 42 {
			t.Fatalf("val = %d, want 42", val)
		}
	})

	t.Run("reject", func(t *testing.T) {
		wantErr := newStrError()
		p := New[int]()
		p.Reject(wantErr)

		if s := p.State(); s != Rejected {
			t.Fatalf("state after Reject = %v, want %v", s, Rejected)
		}
		val, err := p.Res()
		if !errors.Is(err, wantErr) {
			t.Fatalf("err = %v, want %v", err, wantErr)
		}
		if val != 0 {
			t.Fatalf("val = %d, want the zero value", val)
		}
	})

	t.Run("resolve after resolve panics", func(t *testing.T) {
		defer func() {
			if v := recover(); v != settledPanicMsg {
				t.Fatalf("got unexpected panic value: %v", v)
			}
		}()

		p := New[string]()
		p.Resolve("first")
		p.Resolve("second")
	})

	t.Run("reject after resolve panics", func(t *testing.T) {
		defer func() {
			if v := recover(); v != settledPanicMsg {
				t.Fatalf("got unexpected panic value: %v", v)
			}
		}()

		p := New[string]()
		p.Resolve("first")
		p.Reject(newStrError())
	})

	t.Run("wrap constructors", func(t *testing.T) {
		if s := Wrap("v").State(); s != Fulfilled {
			t.Fatalf("Wrap state = %v, want %v", s, Fulfilled)
		}
		if s := WrapErr[string](newStrError()).State(); s != Rejected {
			t.Fatalf("WrapErr state = %v, want %v", s, Rejected)
		}
	})
}

func TestPromiseCallbacks(t *testing.T) {
	t.Run("registration order", func(t *testing.T) {
		p := New[int]()
		var order []int
		for i := 0; i < 5; i++ {
			i := i
			p.Then(func(int) { order = append(order, i) }, IgnoreErr)
		}

		p.Resolve(7)

		if len(order) != 5 {
			t.Fatalf("ran %d callbacks, want 5", len(order))
		}
		for i, got := range order {
			if got != i {
				t.Fatalf("order[%d] = %d, callbacks ran out of registration order", i, got)
			}
		}
	})

	t.Run("registered after settlement runs immediately", func(t *testing.T) {
		p := Wrap(3)
		ran := false
		p.Then(func(val int) {
			if val != 3 {
				t.Fatalf("val = %d, want 3", val)
			}
			ran = true
		}, IgnoreErr)
		if !ran {
			t.Fatal("callback didn't run on the registering goroutine")
		}
	})

	t.Run("exactly one branch runs", func(t *testing.T) {
		p := New[int]()
		var fulfilled, rejected int
		p.Then(func(int) { fulfilled++ }, func(error) { rejected++ })

		p.Reject(newStrError())

		if fulfilled != 0 || rejected != 1 {
			t.Fatalf("fulfilled ran %d times, rejected ran %d times", fulfilled, rejected)
		}
	})

	t.Run("derived promise mirrors settlement", func(t *testing.T) {
		p := New[int]()
		next := p.Then(func(int) {}, IgnoreErr)
		p.Resolve(11)

		val, err := next.Res()
		if err != nil || val != 11 {
			t.Fatalf("derived res = (%d, %v), want (11, nil)", val, err)
		}
	})

	t.Run("settlement runs callbacks on settling goroutine", func(t *testing.T) {
		p := New[int]()
		done := make(chan struct{})
		p.Then(func(int) { close(done) }, IgnoreErr)

		go p.Resolve(1)

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("callback never ran")
		}
	})

	t.Run("finally runs on both outcomes", func(t *testing.T) {
		var n int
		Wrap(1).Finally(func() { n++ }).Wait()
		WrapErr[int](newStrError()).Finally(func() { n++ }).Then(nil, IgnoreErr)
		if n != 2 {
			t.Fatalf("finally ran %d times, want 2", n)
		}
	})
}

func TestRejectionPolicy(t *testing.T) {
	t.Run("ignore drops the error", func(t *testing.T) {
		defer func() {
			if v := recover(); v != nil {
				t.Fatalf("got unexpected panic: %v", v)
			}
		}()

		WrapErr[int](newStrError()).Then(nil, IgnoreErr)
	})

	t.Run("escalate panics with the wrapped error", func(t *testing.T) {
		wantErr := newStrError()
		defer func() {
			v := recover()
			ure, ok := v.(*UnhandledRejectionError)
			if !ok {
				t.Fatalf("got unexpected panic value: %v", v)
			}
			if !errors.Is(ure, wantErr) {
				t.Fatalf("escalated %v, want it to wrap %v", ure, wantErr)
			}
		}()

		WrapErr[int](wantErr).Then(nil, EscalateErr)
	})

	t.Run("nil rejection panics", func(t *testing.T) {
		defer func() {
			if v := recover(); v != nilRejectionPanicMsg {
				t.Fatalf("got unexpected panic value: %v", v)
			}
		}()

		New[int]().Then(func(int) {}, nil)
	})
}

func TestChaining(t *testing.T) {
	t.Run("then transforms the value", func(t *testing.T) {
		p := New[int]()
		next := Then(p, func(val int) (string, error) {
			return "val:7", nil
		})
		p.Resolve(7)

		val, err := next.Res()
		if err != nil || val != "val:7" {
			t.Fatalf("res = (%q, %v), want (\"val:7\", nil)", val, err)
		}
	})

	t.Run("then error rejects the derived promise", func(t *testing.T) {
		wantErr := newStrError()
		next := Then(Wrap(1), func(int) (int, error) {
			return 0, wantErr
		})
		if _, err := next.Res(); !errors.Is(err, wantErr) {
			t.Fatalf("err = %v, want %v", err, wantErr)
		}
	})

	t.Run("rejection propagates through then", func(t *testing.T) {
		wantErr := newStrError()
		next := Then(WrapErr[int](wantErr), func(val int) (int, error) {
			t.Fatal("onFulfilled ran on a rejected promise")
			return val, nil
		})
		if _, err := next.Res(); !errors.Is(err, wantErr) {
			t.Fatalf("err = %v, want %v", err, wantErr)
		}
	})

	t.Run("catch recovers a rejection", func(t *testing.T) {
		next := Catch(WrapErr[int](newStrError()), func(err error) (int, error) {
			return -1, nil
		})
		val, err := next.Res()
		if err != nil || val != -1 {
			t.Fatalf("res = (%d, %v), want (-1, nil)", val, err)
		}
	})

	t.Run("catch passes a fulfillment through", func(t *testing.T) {
		next := Catch(Wrap(5), func(err error) (int, error) {
			t.Fatal("onRejected ran on a fulfilled promise")
			return 0, err
		})
		if val, _ := next.Res(); val != 5 {
			t.Fatalf("val = %d, want 5", val)
		}
	})

	t.Run("thenPromise flattens a two-stage pipeline", func(t *testing.T) {
		stage1 := New[int]()
		stage2 := New[string]()

		flat := ThenPromise(stage1, func(val int) *Promise[string] {
			go func() { stage2.Resolve("stage2") }()
			return stage2
		})

		stage1.Resolve(1)

		val, err := flat.Res()
		if err != nil || val != "stage2" {
			t.Fatalf("res = (%q, %v), want (\"stage2\", nil)", val, err)
		}
	})

	t.Run("thenPromise forwards the inner rejection", func(t *testing.T) {
		wantErr := newStrError()
		flat := ThenPromise(Wrap(1), func(int) *Promise[string] {
			return WrapErr[string](wantErr)
		})
		if _, err := flat.Res(); !errors.Is(err, wantErr) {
			t.Fatalf("err = %v, want %v", err, wantErr)
		}
	})
}
