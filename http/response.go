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

import (
	"errors"
	"io"
	"net"
	nethttp "net/http"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// The status codes the runtime itself produces. Handlers are free to send
// any other valid HTTP status code.
const (
	StatusOK                  = 200
	StatusNotFound            = 404
	StatusInternalServerError = 500
)

// ErrResponseSent is returned by Send when a response has already been sent
// for the request.
var ErrResponseSent = errors.New("http: response already sent")

// ResponseWriter sends the response for one request. It owns the underlying
// connection: the first Send, successful or not, reclaims it.
//
// A ResponseWriter may be captured by the handler and used after OnRequest
// returned, from any goroutine.
type ResponseWriter interface {
	// Send writes a response with the given status code and body, then
	// closes the connection.
	//
	// A write failure is not reported: by the time a slow or asynchronous
	// handler sends, the peer may have given up and gone, and a departed
	// peer is not the handler's concern. The connection is reclaimed either
	// way. The only error is ErrResponseSent, on a second Send.
	Send(code int, body string) error
}

// responseWriter is the ResponseWriter handed to handlers by an Endpoint.
type responseWriter struct {
	mu   sync.Mutex
	sent bool

	conn net.Conn
	log  hclog.Logger
}

func (w *responseWriter) Send(code int, body string) error {
	w.mu.Lock()
	if w.sent {
		w.mu.Unlock()
		return ErrResponseSent
	}
	w.sent = true
	w.mu.Unlock()

	defer w.conn.Close()

	resp := &nethttp.Response{
		StatusCode:    code,
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        make(nethttp.Header),
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
		Close:         true,
	}
	if err := resp.Write(w.conn); err != nil {
		// broken pipe or reset: the client stopped listening before the
		// response was ready. swallowed at this boundary, per the contract
		// on Send.
		w.log.Debug("response write failed, peer likely gone", "error", err)
	}
	return nil
}
