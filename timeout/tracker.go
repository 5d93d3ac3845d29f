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

// Package timeout implements the TimeoutTracker: three independent
// deadlines (execution, idle, connection) and the next-wake computation
// every backend's blocking wait is bounded by.
package timeout

import (
	"time"

	liberr "github.com/nabbar/natcore/errors"
)

// Expiry classifies which deadline, if any, has elapsed.
type Expiry uint8

const (
	None Expiry = iota
	Execution
	Idle
	Connection
)

// Tracker holds start time, last-activity time, and the three configured
// budgets. A zero budget means that deadline is disabled.
type Tracker struct {
	start        time.Time
	lastActivity time.Time
	execution    time.Duration
	idle         time.Duration
	connection   time.Duration
	now          func() time.Time
}

// New creates a Tracker with the given budgets. A zero duration disables
// that deadline. Durations are accepted as Duration so callers can share
// the days-aware config encoding used for CLI-facing timeouts.
func New(execution, idle, connection Duration) *Tracker {
	t := &Tracker{
		execution:  execution.Time(),
		idle:       idle.Time(),
		connection: connection.Time(),
		now:        time.Now,
	}
	t.start = t.now()
	t.lastActivity = t.start
	return t
}

// MarkActivity resets the idle deadline; called on every byte moved.
func (t *Tracker) MarkActivity() {
	t.lastActivity = t.now()
}

// Check returns the first expired deadline in order execution -> idle ->
// connection, or None.
func (t *Tracker) Check() Expiry {
	n := t.now()

	if t.execution > 0 && n.Sub(t.start) >= t.execution {
		return Execution
	}
	if t.idle > 0 && n.Sub(t.lastActivity) >= t.idle {
		return Idle
	}
	if t.connection > 0 && n.Sub(t.start) >= t.connection {
		return Connection
	}
	return None
}

// Err maps an Expiry to the matching typed error.
func (e Expiry) Err() error {
	switch e {
	case Execution:
		return liberr.CodeTimeoutExecution.Error()
	case Idle:
		return liberr.CodeTimeoutIdle.Error()
	case Connection:
		return liberr.CodeTimeoutConnection.Error()
	default:
		return nil
	}
}

// NextPollTimeoutMs returns the minimum milliseconds remaining to the
// nearest active deadline, or -1 for "infinite" when none are configured.
func (t *Tracker) NextPollTimeoutMs() int {
	n := t.now()
	best := -1

	consider := func(deadline time.Duration, since time.Time) {
		if deadline <= 0 {
			return
		}
		remaining := deadline - n.Sub(since)
		if remaining < 0 {
			remaining = 0
		}
		ms := int(remaining / time.Millisecond)
		if best == -1 || ms < best {
			best = ms
		}
	}

	consider(t.execution, t.start)
	consider(t.idle, t.lastActivity)
	consider(t.connection, t.start)

	return best
}
