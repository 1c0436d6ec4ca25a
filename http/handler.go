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

package http

import nethttp "net/http"

// Request is the endpoint-side view of one accepted request. It's ephemeral:
// it lives for exactly one Handler invocation and must not be retained past
// the response.
type Request struct {
	// ID is assigned at accept time and carried through the endpoint's
	// logs, to correlate them per request.
	ID string

	Method   string
	Resource string
	Header   nethttp.Header

	RemoteAddr string
}

// A Handler is invoked by an Endpoint once per accepted request, on one of
// the endpoint's worker goroutines.
//
// The handler may send the response before returning, or capture w and send
// it later, from a callback running on whatever goroutine completes the
// asynchronous work (see ServeFile for the typical shape of that).
//
// One handler value is shared by all of an Endpoint's workers, so any state
// it touches across invocations must be its own to synchronize; per-request
// state should stay local to the OnRequest call.
type Handler interface {
	OnRequest(r *Request, w ResponseWriter)
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(r *Request, w ResponseWriter)

func (f HandlerFunc) OnRequest(r *Request, w ResponseWriter) {
	f(r, w)
}
