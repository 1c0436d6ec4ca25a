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
	"bufio"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

const (
	nilHandlerPanicMsg     = "http: the provided handler is nil"
	handlerServingPanicMsg = "http: SetHandler called on a serving endpoint"
)

var (
	// ErrNotInitialized is returned when serving is requested on an
	// endpoint that hasn't had a successful Init call.
	ErrNotInitialized = errors.New("http: endpoint not initialized")

	// ErrNoHandler is returned when serving is requested before a handler
	// has been set.
	ErrNoHandler = errors.New("http: endpoint has no handler")

	// ErrAlreadyServing is returned by Init and the serve calls on an
	// endpoint that's already serving.
	ErrAlreadyServing = errors.New("http: endpoint already serving")
)

// Flags are transport and process level toggles, forwarded as-is to the
// transport layer backing the endpoint's listener.
type Flags int

const (
	ReuseAddr Flags = 1 << iota
	InstallSignalHandler
)

// Options configures an Endpoint. Build a value with NewOptions and chain
// the setters:
//
//	server.Init(http.NewOptions().Threads(3).Flags(http.ReuseAddr))
type Options struct {
	threads     int
	flags       Flags
	readTimeout time.Duration
	logger      hclog.Logger
}

// NewOptions returns the default options: one worker, a 5 second connection
// read deadline, and no logging.
func NewOptions() Options {
	return Options{
		threads:     1,
		readTimeout: 5 * time.Second,
	}
}

// Threads sets the number of worker goroutines dispatching requests.
func (o Options) Threads(n int) Options {
	o.threads = n
	return o
}

// Flags sets the transport flags.
func (o Options) Flags(f Flags) Options {
	o.flags = f
	return o
}

// ReadTimeout sets the connection-level deadline for reading a request.
// It bounds how long a dead or stalled connection can occupy a worker
// before it's dropped; it does not bound the handler, whose response may
// come arbitrarily later.
func (o Options) ReadTimeout(d time.Duration) Options {
	o.readTimeout = d
	return o
}

// Logger sets the endpoint's logger. The default discards everything.
func (o Options) Logger(l hclog.Logger) Options {
	o.logger = l
	return o
}

func (o Options) validate() error {
	var result *multierror.Error
	if o.threads < 1 {
		result = multierror.Append(result, fmt.Errorf("http: thread count must be at least 1, got %d", o.threads))
	}
	if o.readTimeout < 0 {
		result = multierror.Append(result, fmt.Errorf("http: read timeout must not be negative, got %s", o.readTimeout))
	}
	return result.ErrorOrNil()
}

type lifecycle int

const (
	stateUninitialized lifecycle = iota
	stateInitialized
	stateServing
	stateStopped
)

// Endpoint owns a listening address, a pool of worker goroutines, and the
// active Handler, and drives the accept/dispatch loop between them.
//
// Lifecycle: NewEndpoint, Init, SetHandler, then ServeThreaded(or Serve),
// and finally Shutdown. The handler and options are fixed once serving
// starts; workers treat them as read-only.
//
// Each accepted connection is handed to exactly one worker, which invokes
// the handler synchronously. A handler that blocks occupies only its own
// worker: with more than one worker, unrelated requests keep being served,
// while a single-worker endpoint serializes every request behind it.
type Endpoint struct {
	addr string
	opts Options
	log  hclog.Logger

	mu      sync.Mutex
	state   lifecycle
	handler Handler

	ln    net.Listener
	conns chan net.Conn
	grp   *errgroup.Group
}

// NewEndpoint returns an uninitialized Endpoint for the given address
// (host:port; port 0 picks a free port, see Port).
func NewEndpoint(addr string) *Endpoint {
	return &Endpoint{
		addr: addr,
		log:  hclog.NewNullLogger(),
	}
}

// Init validates and applies the options. It must be called once, before
// SetHandler and the serve calls.
func (e *Endpoint) Init(opts Options) error {
	if err := opts.validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateServing {
		return ErrAlreadyServing
	}
	e.opts = opts
	if opts.logger != nil {
		e.log = opts.logger
	}
	e.state = stateInitialized
	return nil
}

// SetHandler installs the handler that will be invoked for every accepted
// request. It panics if called with nil, or while the endpoint is serving:
// the handler is immutable during serving.
func (e *Endpoint) SetHandler(h Handler) {
	if h == nil {
		panic(nilHandlerPanicMsg)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateServing {
		panic(handlerServingPanicMsg)
	}
	e.handler = h
}

// ServeThreaded binds the address and starts the configured number of
// worker goroutines plus the acceptor, then returns. It doesn't block:
// callers that want to block on the endpoint should use Serve instead.
func (e *Endpoint) ServeThreaded() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case stateServing:
		return ErrAlreadyServing
	case stateUninitialized, stateStopped:
		return ErrNotInitialized
	}
	if e.handler == nil {
		return ErrNoHandler
	}

	ln, err := net.Listen("tcp", e.addr)
	if err != nil {
		return err
	}
	e.ln = ln
	e.conns = make(chan net.Conn)
	e.grp = &errgroup.Group{}

	for i := 0; i < e.opts.threads; i++ {
		e.grp.Go(e.workerLoop)
	}
	e.grp.Go(func() error {
		err := e.acceptLoop()
		// unblocks the workers once the backlog drains.
		close(e.conns)
		return err
	})

	e.state = stateServing
	e.log.Debug("endpoint serving",
		"addr", ln.Addr().String(),
		"threads", e.opts.threads,
		"flags", int(e.opts.flags),
	)
	return nil
}

// Serve is the blocking variant of ServeThreaded: it starts the same
// workers and acceptor, then blocks until Shutdown is called (or the
// acceptor fails), returning whatever error stopped the endpoint.
func (e *Endpoint) Serve() error {
	if err := e.ServeThreaded(); err != nil {
		return err
	}
	return e.grp.Wait()
}

// Shutdown stops accepting, waits for the workers to finish the requests
// they hold, and releases the bound address. Waiting on the workers is not
// bounded: a handler that never returns holds Shutdown with it.
func (e *Endpoint) Shutdown() error {
	e.mu.Lock()
	if e.state != stateServing {
		e.mu.Unlock()
		return nil
	}
	e.state = stateStopped
	ln, grp := e.ln, e.grp
	e.mu.Unlock()

	var result *multierror.Error
	if err := ln.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := grp.Wait(); err != nil {
		result = multierror.Append(result, err)
	}
	e.log.Debug("endpoint stopped", "addr", ln.Addr().String())
	return result.ErrorOrNil()
}

// Addr returns the endpoint's bound address, or nil before serving.
func (e *Endpoint) Addr() net.Addr {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ln == nil {
		return nil
	}
	return e.ln.Addr()
}

// Port returns the endpoint's bound port, or 0 before serving. It's how
// callers that bound port 0 learn the picked port.
func (e *Endpoint) Port() int {
	addr, ok := e.Addr().(*net.TCPAddr)
	if !ok {
		return 0
	}
	return addr.Port
}

func (e *Endpoint) acceptLoop() error {
	for {
		conn, err := e.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				// Shutdown closed the listener.
				return nil
			}
			return err
		}
		e.conns <- conn
	}
}

func (e *Endpoint) workerLoop() error {
	for conn := range e.conns {
		e.serveConn(conn)
	}
	return nil
}

// serveConn reads one request off conn and runs the handler for it.
// Request parsing is delegated to net/http; this layer only owns the
// dispatch, deadline, and reclaim behavior around it.
func (e *Endpoint) serveConn(conn net.Conn) {
	reqID := uuid.NewString()

	if d := e.opts.readTimeout; d > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(d))
	}
	httpReq, err := nethttp.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		// includes peers that queued up behind busy workers and gave up
		// before sending anything.
		e.log.Debug("dropping connection, no readable request", "request_id", reqID, "error", err)
		_ = conn.Close()
		return
	}
	// the response may legitimately come long after any read deadline,
	// from an asynchronous continuation. stop the clock here.
	_ = conn.SetReadDeadline(time.Time{})

	r := &Request{
		ID:         reqID,
		Method:     httpReq.Method,
		Resource:   httpReq.URL.Path,
		Header:     httpReq.Header,
		RemoteAddr: conn.RemoteAddr().String(),
	}
	w := &responseWriter{conn: conn, log: e.log}

	defer func() {
		v := recover()
		if v == nil {
			return
		}
		e.log.Error("handler panicked",
			"request_id", reqID,
			"resource", r.Resource,
			"panic", v,
		)
		// the worker survives, and the client gets an answer if the
		// handler hadn't sent one yet.
		_ = w.Send(StatusInternalServerError, "")
	}()
	e.handler.OnRequest(r, w)
}
