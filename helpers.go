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

// MustRes waits the provided promise to settle, and returns its value, only
// if it fulfilled, otherwise, it panics with the rejection error.
//
// By name convention, it should be used only on promises that are known to
// never reject, or where a rejection is unrecoverable anyway.
func MustRes[T any](p *Promise[T]) T {
	val, err := p.Res()
	if err != nil {
		panic(err)
	}
	return val
}

// WaitAll waits all the provided promises to settle then returns true, or
// returns false if no promises are provided.
//
// Unlike WhenAll, it doesn't aggregate anything, and doesn't care how the
// promises settled: it's only a join point for the calling goroutine.
func WaitAll(proms ...Completable) (waited bool) {
	if len(proms) == 0 {
		return false
	}

	for _, p := range proms {
		p.Wait()
	}
	return true
}
