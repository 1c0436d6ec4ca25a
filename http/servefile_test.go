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
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/asmsh/async"
)

// captureWriter is a ResponseWriter that records the one response sent
// through it, for exercising ServeFile without a socket.
type captureWriter struct {
	mu   sync.Mutex
	sent bool
	code int
	body string
}

func (w *captureWriter) Send(code int, body string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sent {
		return ErrResponseSent
	}
	w.sent = true
	w.code = code
	w.body = body
	return nil
}

func (w *captureWriter) response() (int, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.code, w.body
}

func newTestFs(t *testing.T, name, content string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, name, []byte(content), 0o644); err != nil {
		t.Fatalf("writing the test file failed: %v", err)
	}
	return fsys
}

func TestServeFile(t *testing.T) {
	t.Run("resolves with the byte count", func(t *testing.T) {
		const content = "some file content\nwith a second line\n"
		fsys := newTestFs(t, "data.txt", content)
		w := &captureWriter{}

		n, err := ServeFile(fsys, w, "data.txt").Res()
		if err != nil {
			t.Fatalf("got unexpected error: %v", err)
		}
		if n != int64(len(content)) {
			t.Fatalf("byte count = %d, want %d", n, len(content))
		}
		code, body := w.response()
		if code != StatusOK || body != content {
			t.Fatalf("response = (%d, %q), want (%d, %q)", code, body, StatusOK, content)
		}
	})

	t.Run("missing file sends 404 and rejects", func(t *testing.T) {
		w := &captureWriter{}

		_, err := ServeFile(afero.NewMemMapFs(), w, "no-such-file").Res()
		if !errors.Is(err, ErrFileNotFound) {
			t.Fatalf("err = %v, want %v", err, ErrFileNotFound)
		}
		if code, _ := w.response(); code != StatusNotFound {
			t.Fatalf("code = %d, want %d", code, StatusNotFound)
		}
	})

	t.Run("composes with a drop-policy continuation", func(t *testing.T) {
		fsys := newTestFs(t, "data.txt", "x")
		w := &captureWriter{}

		logged := make(chan int64, 1)
		ServeFile(fsys, w, "data.txt").Then(func(n int64) {
			logged <- n
		}, async.IgnoreErr)

		select {
		case n := <-logged:
			if n != 1 {
				t.Fatalf("logged byte count = %d, want 1", n)
			}
		case <-time.After(time.Second):
			t.Fatal("the logging continuation never ran")
		}
	})
}

// fileHandler is the asynchronous file-serving handler shape from the
// ServeFile doc comment, as used over a real endpoint below.
type fileHandler struct {
	fsys afero.Fs
	name string
}

func (h *fileHandler) OnRequest(_ *Request, w ResponseWriter) {
	ServeFile(h.fsys, w, h.name).Then(nil, async.IgnoreErr)
}

func TestServeFileOverEndpoint(t *testing.T) {
	const content = "static file bytes \x00\x01 served verbatim"
	addr := startEndpoint(t,
		&fileHandler{fsys: newTestFs(t, "index.html", content), name: "index.html"},
		NewOptions().Flags(ReuseAddr),
	)

	client := NewClient()
	defer client.Shutdown()

	resp, err := client.Get(addr).Timeout(2 * time.Second).Send().Res()
	if err != nil {
		t.Fatalf("got unexpected error: %v", err)
	}
	if resp.Code != StatusOK {
		t.Fatalf("code = %d, want %d", resp.Code, StatusOK)
	}
	if resp.Body != content {
		t.Fatalf("body = %q, want the exact file bytes %q", resp.Body, content)
	}
}
