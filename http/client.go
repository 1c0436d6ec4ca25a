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
	"context"
	"io"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/asmsh/async"
)

// Response is the client-side view of a completed request.
type Response struct {
	Code int
	Body string
}

// ClientOptions configures a Client. The zero value is usable: no default
// timeout (per-request timeouts still apply), no retries, no logging.
type ClientOptions struct {
	// Timeout bounds every request issued by the client, unless a request
	// sets its own through RequestBuilder.Timeout.
	Timeout time.Duration

	// MaxRetries is how many times a failed request is retried before its
	// promise rejects.
	MaxRetries int

	Logger hclog.Logger
}

// Client issues requests and returns promises of their responses. It's safe
// for concurrent use, including concurrent Send calls on builders created
// from it.
type Client struct {
	rc      *retryablehttp.Client
	timeout time.Duration
	log     hclog.Logger
}

// NewClient returns a Client ready to issue requests.
func NewClient(opts ...*ClientOptions) *Client {
	c := &Client{log: hclog.NewNullLogger()}

	var maxRetries int
	if len(opts) != 0 && opts[0] != nil {
		c.timeout = opts[0].Timeout
		maxRetries = opts[0].MaxRetries
		if l := opts[0].Logger; l != nil {
			c.log = l
		}
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = cleanhttp.DefaultPooledClient()
	rc.RetryMax = maxRetries
	rc.Logger = c.log
	// once the retries are spent, the caller gets the final response as-is,
	// error statuses included. only transport failures reject the promise.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c.rc = rc
	return c
}

// Get returns a builder for a GET request against url. A bare host:port is
// accepted and treated as plain http.
func (c *Client) Get(url string) *RequestBuilder {
	return &RequestBuilder{
		c:       c,
		method:  nethttp.MethodGet,
		url:     normalizeURL(url),
		timeout: c.timeout,
	}
}

// Shutdown releases the client's pooled connections. In-flight requests are
// not interrupted; their promises still settle.
func (c *Client) Shutdown() {
	c.rc.HTTPClient.CloseIdleConnections()
}

func normalizeURL(url string) string {
	if strings.Contains(url, "://") {
		return url
	}
	return "http://" + url
}

// RequestBuilder accumulates one request's parameters. Send may be called
// any number of times: each call issues a fresh request.
type RequestBuilder struct {
	c       *Client
	method  string
	url     string
	timeout time.Duration
	header  nethttp.Header
}

// Timeout bounds this request: past d, the returned promise rejects with
// the transport's deadline error, whatever the server does later. A client
// that gave up never sees a stale success.
func (rb *RequestBuilder) Timeout(d time.Duration) *RequestBuilder {
	rb.timeout = d
	return rb
}

// Header adds a header to the request.
func (rb *RequestBuilder) Header(key, value string) *RequestBuilder {
	if rb.header == nil {
		rb.header = make(nethttp.Header)
	}
	rb.header.Add(key, value)
	return rb
}

// Send issues the request on its own goroutine and returns a Promise of the
// response. The promise fulfills with the complete response, whatever its
// status code, and rejects on transport failures: connection refused or
// reset, and the request timeout.
func (rb *RequestBuilder) Send() *async.Promise[*Response] {
	p := async.New[*Response]()
	go rb.send(p)
	return p
}

func (rb *RequestBuilder) send(p *async.Promise[*Response]) {
	ctx := context.Background()
	if rb.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rb.timeout)
		defer cancel()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, rb.method, rb.url, nil)
	if err != nil {
		p.Reject(err)
		return
	}
	for key, vals := range rb.header {
		for _, val := range vals {
			req.Header.Add(key, val)
		}
	}

	resp, err := rb.c.rc.Do(req)
	if err != nil {
		rb.c.log.Debug("request failed", "url", rb.url, "error", err)
		p.Reject(err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.Reject(err)
		return
	}
	p.Resolve(&Response{Code: resp.StatusCode, Body: string(body)})
}
