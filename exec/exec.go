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

// Package exec runs a spawned child process connected to a peer
// connection through the five-way relay: socket-read feeds child stdin,
// child stdout and stderr feed socket-write. The session itself never
// spawns the child; it conducts I/O and kills the child on timeout.
package exec

import (
	"os"
	"os/exec"

	"github.com/nabbar/natcore/backend"
	liberr "github.com/nabbar/natcore/errors"
	"github.com/nabbar/natcore/flow"
	"github.com/nabbar/natcore/ring"
	"github.com/nabbar/natcore/timeout"
)

// Config controls ring sizing and flow-control thresholds for one exec
// session. The three timeout budgets are supplied separately via
// WithTimeout, since they're expressed as timeout.Duration at the
// CLI/config layer rather than here.
type Config struct {
	RingCapacity      int
	MaxTotalBuffer    int64
	FlowPausePercent  float64
	FlowResumePercent float64
}

// Session owns the child process and the backend-driven I/O loop between
// its pipes and a peer connection.
type Session struct {
	cmd *exec.Cmd
	ep  *backend.Endpoints
	eng backend.Session
}

// New checks that cfg.MaxTotalBuffer covers the three ring capacities,
// bundles the peer, the child's pipes, three rings and the flow gate into
// the session's Endpoints, and returns a Session ready to Run. The backend
// is chosen in Run unless WithBackend set one. Every pipe must be non-nil:
// a nil pipe is not treated as an already-closed side, and the poll and
// io_uring backends return an error for it when Run starts.
func New(cmd *exec.Cmd, peer backend.Conn, cfg Config, stdin, stdout, stderr *os.File) (*Session, error) {
	capacities := int64(cfg.RingCapacity) * 3
	if cfg.MaxTotalBuffer < capacities {
		return nil, liberr.CodeInvalidConfiguration.Errorf(
			"max_total_buffer_bytes %d is below the sum of ring capacities %d", cfg.MaxTotalBuffer, capacities)
	}

	ep := &backend.Endpoints{
		Socket:      peer,
		ChildStdin:  stdin,
		ChildStdout: stdout,
		ChildStderr: stderr,
		StdinRing:   ring.New(cfg.RingCapacity),
		StdoutRing:  ring.New(cfg.RingCapacity),
		StderrRing:  ring.New(cfg.RingCapacity),
		Flow:        flow.New(cfg.FlowPausePercent, cfg.FlowResumePercent, cfg.MaxTotalBuffer),
	}

	return &Session{cmd: cmd, ep: ep}, nil
}

// WithTimeout attaches a tracker built from the three configured
// durations; kept as a separate step since timeout.Duration values are
// supplied by the CLI/config layer rather than this package.
func (s *Session) WithTimeout(t *timeout.Tracker) *Session {
	s.ep.Timeout = t
	return s
}

// WithBackend overrides the auto-selected engine, used by tests that want
// to force the poll path regardless of platform.
func (s *Session) WithBackend(eng backend.Session) *Session {
	s.eng = eng
	return s
}

// Run starts the child if not already started and drives I/O until every
// stream is closed or a timeout fires, killing the child best-effort on
// timeout.
func (s *Session) Run() error {
	if s.eng == nil {
		s.eng = backend.Select()
	}
	if s.ep.Timeout == nil {
		return liberr.CodeInvalidConfiguration.Error()
	}

	if s.cmd.Process == nil {
		if err := s.cmd.Start(); err != nil {
			return liberr.CodeClientSocketError.Error(err)
		}
	}

	runErr := s.eng.Run(s.ep)

	if runErr != nil && liberr.KindOf(runErr) == liberr.KindTimeout {
		_ = s.cmd.Process.Kill()
	}

	closePipe(s.ep.ChildStdin)
	closePipe(s.ep.ChildStdout)
	closePipe(s.ep.ChildStderr)

	return runErr
}

func closePipe(f *os.File) {
	if f != nil {
		_ = f.Close()
	}
}
