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

// Package http is the client/server surface over the async package's
// promises: a threaded server Endpoint dispatching requests to a Handler,
// a Client whose requests settle promises, and an asynchronous file-serving
// adapter.
//
// Wire parsing and generation are delegated to net/http; this package owns
// the dispatch model around them: worker pool sizing, per-connection
// deadlines, and deterministic reclaim of connections whose peers gave up
// before the handler answered.
package http
