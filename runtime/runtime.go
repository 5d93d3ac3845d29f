/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package runtime owns the process-wide state that would otherwise live
// behind module-level globals: the backend capability probe result and
// a context cancelled on Shutdown, both set up once per process. The
// probe result is reported through BackendKind only: exec.Session.Run
// calls backend.Select again for every session that has no backend set.
package runtime

import (
	"context"
	"sync"

	"github.com/nabbar/natcore/backend"
)

// Runtime is the process-scoped handle returned by Init. Callers pass
// its Context to the relay and broker loops so a single Shutdown call
// unwinds them; exec sessions take no context and are not stopped by
// Shutdown.
type Runtime struct {
	ctx    context.Context
	cancel context.CancelFunc

	once        sync.Once
	probedKind  backend.Kind
}

var (
	globalOnce sync.Once
	global     *Runtime
)

// Init probes the available async backend once and returns a Runtime
// bound to a cancellable context derived from parent. Calling Init more
// than once within a process returns the same instance; the probe never
// re-runs.
func Init(parent context.Context) *Runtime {
	globalOnce.Do(func() {
		ctx, cancel := context.WithCancel(parent)
		global = &Runtime{ctx: ctx, cancel: cancel}
		global.probe()
	})
	return global
}

func (r *Runtime) probe() {
	r.once.Do(func() {
		r.probedKind = backend.Select().Kind()
	})
}

// BackendKind reports which async backend this process selected.
func (r *Runtime) BackendKind() backend.Kind {
	r.probe()
	return r.probedKind
}

// Context is cancelled when Shutdown runs.
func (r *Runtime) Context() context.Context {
	return r.ctx
}

// Shutdown cancels the runtime's context, signalling every loop holding
// it to wind down. Safe to call more than once.
func (r *Runtime) Shutdown() {
	r.cancel()
}
