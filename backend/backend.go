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

// Package backend implements the exec session's three interchangeable
// async I/O engines (poll, io_uring, IOCP) behind one session-run
// contract: given a socket, a child process's three pipes, a byte ring
// per direction, a flow-control gate, and a timeout tracker, drive I/O
// until every stream is closed or a deadline fires.
package backend

import (
	"os"
	"syscall"

	"github.com/nabbar/natcore/flow"
	"github.com/nabbar/natcore/ring"
	"github.com/nabbar/natcore/timeout"
)

// Endpoints bundles the five streams and three rings an exec session
// moves bytes between. Stdout/Stderr read into their own rings; Stdin
// is fed from a ring written to by the socket-read side.
type Endpoints struct {
	Socket      Conn
	ChildStdin  *os.File
	ChildStdout *os.File
	ChildStderr *os.File

	StdinRing  *ring.Buffer
	StdoutRing *ring.Buffer
	StderrRing *ring.Buffer

	// Flow is read through ShouldPause only; no backend calls Observe.
	Flow    *flow.State
	Timeout *timeout.Tracker
}

// Conn is the narrow socket surface a backend needs. A backend extracts
// the raw file descriptor once via SyscallConn and issues its own
// non-blocking reads/writes/polls directly on it rather than going
// through net.Conn's Read/Write, since the whole point of this package is
// to own the async I/O loop itself instead of deferring to the runtime's
// netpoller.
type Conn interface {
	syscall.Conn
	Close() error
}

// Kind identifies which engine a Session was built with.
type Kind uint8

const (
	KindPoll Kind = iota
	KindIOUring
	KindIOCP
)

func (k Kind) String() string {
	switch k {
	case KindIOUring:
		return "io_uring"
	case KindIOCP:
		return "iocp"
	default:
		return "poll"
	}
}

// Session drives one exec session's I/O to completion.
type Session interface {
	Kind() Kind
	Run(ep *Endpoints) error
}

// SessionState tracks which of the five duplex directions are still open.
// It is shared, mutable state consulted by every backend's event-mask
// computation and termination check.
type SessionState struct {
	SocketReadClosed  bool
	SocketWriteClosed bool
	StdinClosed       bool
	StdoutClosed      bool
	StderrClosed      bool
}

// Done reports whether every direction has reached its terminal state and
// all rings are drained. The loop keeps running while any of these hold:
// (a) stdout/stderr has buffered data and the socket write side is open,
// (b) child stdout or stderr is still open, (c) stdin has buffered data
// and child stdin is open, (d) the socket read side and child stdin are
// both still open. Done is the negation of all four, so childOutputsClosed
// below is its own required conjunct independent of SocketWriteClosed: a
// socket write failure (closing SocketWriteClosed) must never mask
// unread, still-open child stdout/stderr.
func (s *SessionState) Done(stdinRing, stdoutRing, stderrRing *ring.Buffer) bool {
	childOutputsClosed := s.StdoutClosed && s.StderrClosed
	outputsDrained := stdoutRing.AvailableRead() == 0 && stderrRing.AvailableRead() == 0
	writeSideDone := s.SocketWriteClosed || outputsDrained
	stdinDrained := s.StdinClosed || stdinRing.AvailableRead() == 0
	readSideDone := s.SocketReadClosed || s.StdinClosed

	return writeSideDone && childOutputsClosed && stdinDrained && readSideDone
}
