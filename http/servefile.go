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
	"fmt"
	"io/fs"

	"github.com/spf13/afero"

	"github.com/asmsh/async"
)

// ErrFileNotFound rejects a ServeFile promise whose file doesn't exist.
// The client got a 404 for it already; whether the rejection also matters
// is the attachment site's call (IgnoreErr when the 404 says it all).
var ErrFileNotFound = errors.New("http: file not found")

// ServeFile serves the named file from fsys as the response, on its own
// goroutine, and returns a Promise of the number of bytes sent. The promise
// fulfills once the contents have been fully handed to the connection, and
// rejects if the file is missing (ErrFileNotFound, after sending a 404) or
// unreadable (after sending a 500).
//
// The typical handler attaches a logging continuation and drops the error,
// since the response already reflects it:
//
//	func (h *fileHandler) OnRequest(r *http.Request, w http.ResponseWriter) {
//		http.ServeFile(h.fs, w, h.name).Then(func(n int64) {
//			h.log.Info("sent file", "name", h.name, "bytes", n)
//		}, async.IgnoreErr)
//	}
//
// Use afero.NewOsFs() to serve from the host filesystem.
func ServeFile(fsys afero.Fs, w ResponseWriter, name string) *async.Promise[int64] {
	p := async.New[int64]()
	go serveFile(fsys, w, name, p)
	return p
}

func serveFile(fsys afero.Fs, w ResponseWriter, name string, p *async.Promise[int64]) {
	data, err := afero.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			_ = w.Send(StatusNotFound, "")
			p.Reject(fmt.Errorf("%w: %s", ErrFileNotFound, name))
			return
		}
		_ = w.Send(StatusInternalServerError, "")
		p.Reject(fmt.Errorf("http: reading %s: %w", name, err))
		return
	}

	if err := w.Send(StatusOK, string(data)); err != nil {
		// the handler already answered this request through another path.
		p.Reject(err)
		return
	}
	p.Resolve(int64(len(data)))
}
