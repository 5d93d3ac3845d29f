//go:build linux || darwin || freebsd || netbsd || openbsd

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

package backend

import (
	"golang.org/x/sys/unix"

	liberr "github.com/nabbar/natcore/errors"
	"github.com/nabbar/natcore/ring"
	"github.com/nabbar/natcore/timeout"
)

const (
	slotSocket = iota
	slotStdin
	slotStdout
	slotStderr
)

type pollSession struct {
	state SessionState
}

func newPollSession() Session { return &pollSession{} }

func (s *pollSession) Kind() Kind { return KindPoll }

// Run implements the 4-entry pollfd loop: socket, child-stdin,
// child-stdout, child-stderr, recomputing each entry's event mask from
// session state before every wait and dispatching revents in that fixed
// order afterward.
func (s *pollSession) Run(ep *Endpoints) error {
	sockFd, err := connFd(ep.Socket)
	if err != nil {
		return err
	}
	stdinFd, err := fileFd(ep.ChildStdin)
	if err != nil {
		return err
	}
	stdoutFd, err := fileFd(ep.ChildStdout)
	if err != nil {
		return err
	}
	stderrFd, err := fileFd(ep.ChildStderr)
	if err != nil {
		return err
	}

	for !s.state.Done(ep.StdinRing, ep.StdoutRing, ep.StderrRing) {
		fds := []unix.PollFd{
			{Fd: int32(sockFd)},
			{Fd: int32(stdinFd)},
			{Fd: int32(stdoutFd)},
			{Fd: int32(stderrFd)},
		}

		canSend := !s.state.SocketWriteClosed && (ep.StdoutRing.AvailableRead() > 0 || ep.StderrRing.AvailableRead() > 0)
		canRecv := !s.state.SocketReadClosed && !s.state.StdinClosed && ep.StdinRing.AvailableWrite() > 0 && !ep.Flow.ShouldPause()

		if canRecv {
			fds[slotSocket].Events |= unix.POLLIN
		}
		if canSend {
			fds[slotSocket].Events |= unix.POLLOUT
		}
		if ep.StdinRing.AvailableRead() > 0 && !s.state.StdinClosed {
			fds[slotStdin].Events |= unix.POLLOUT
		}
		if !s.state.StdoutClosed && ep.StdoutRing.AvailableWrite() > 0 && !ep.Flow.ShouldPause() {
			fds[slotStdout].Events |= unix.POLLIN
		}
		if !s.state.StderrClosed && ep.StderrRing.AvailableWrite() > 0 && !ep.Flow.ShouldPause() {
			fds[slotStderr].Events |= unix.POLLIN
		}

		timeoutMs := ep.Timeout.NextPollTimeoutMs()
		n, perr := unix.Poll(fds, timeoutMs)
		if perr == unix.EINTR {
			continue
		}
		if perr != nil {
			return liberr.CodeClientSocketError.Error(perr)
		}
		if n == 0 {
			if exp := ep.Timeout.Check(); exp != timeout.None {
				return exp.Err()
			}
			continue
		}

		s.dispatch(fds, ep, sockFd, stdinFd, stdoutFd, stderrFd)

		if exp := ep.Timeout.Check(); exp != timeout.None {
			return exp.Err()
		}
	}
	return nil
}

func (s *pollSession) dispatch(fds []unix.PollFd, ep *Endpoints, sockFd, stdinFd, stdoutFd, stderrFd int) {
	if fds[slotSocket].Revents&unix.POLLNVAL != 0 {
		s.state.SocketReadClosed = true
		s.state.SocketWriteClosed = true
	} else {
		if fds[slotSocket].Revents&(unix.POLLERR|unix.POLLHUP) != 0 {
			s.state.SocketReadClosed = true
		} else if fds[slotSocket].Revents&unix.POLLIN != 0 {
			s.readSocket(ep, sockFd)
		}
		if fds[slotSocket].Revents&unix.POLLOUT != 0 {
			s.writeSocket(ep, sockFd)
		}
	}

	if fds[slotStdin].Revents&unix.POLLNVAL != 0 {
		s.state.StdinClosed = true
	} else if fds[slotStdin].Revents&(unix.POLLERR|unix.POLLHUP) != 0 {
		s.state.StdinClosed = true
	} else if fds[slotStdin].Revents&unix.POLLOUT != 0 {
		s.writeStdin(ep, stdinFd)
	}

	if fds[slotStdout].Revents&unix.POLLNVAL != 0 {
		s.state.StdoutClosed = true
	} else if fds[slotStdout].Revents&(unix.POLLERR|unix.POLLHUP) != 0 {
		s.state.StdoutClosed = true
	} else if fds[slotStdout].Revents&unix.POLLIN != 0 {
		s.readChild(ep.StdoutRing, stdoutFd, &s.state.StdoutClosed, ep)
	}

	if fds[slotStderr].Revents&unix.POLLNVAL != 0 {
		s.state.StderrClosed = true
	} else if fds[slotStderr].Revents&(unix.POLLERR|unix.POLLHUP) != 0 {
		s.state.StderrClosed = true
	} else if fds[slotStderr].Revents&unix.POLLIN != 0 {
		s.readChild(ep.StderrRing, stderrFd, &s.state.StderrClosed, ep)
	}
}

func (s *pollSession) readSocket(ep *Endpoints, fd int) {
	buf := ep.StdinRing.WritableSlice()
	if len(buf) == 0 {
		return
	}
	n, err := rawRead(fd, buf)
	if n > 0 {
		ep.StdinRing.CommitWrite(n)
		ep.Timeout.MarkActivity()
	}
	if err != nil && !isWouldBlock(err) {
		s.state.SocketReadClosed = true
	}
}

func (s *pollSession) writeSocket(ep *Endpoints, fd int) {
	src := ep.StdoutRing
	if src.AvailableRead() == 0 {
		src = ep.StderrRing
	}
	data := src.ReadableSlice()
	if len(data) == 0 {
		return
	}
	n, err := rawWrite(fd, data)
	if n > 0 {
		src.Consume(n)
		ep.Timeout.MarkActivity()
	}
	if err != nil && !isWouldBlock(err) {
		s.state.SocketWriteClosed = true
	}
}

func (s *pollSession) writeStdin(ep *Endpoints, fd int) {
	data := ep.StdinRing.ReadableSlice()
	if len(data) == 0 {
		return
	}
	n, err := rawWrite(fd, data)
	if n > 0 {
		ep.StdinRing.Consume(n)
		ep.Timeout.MarkActivity()
	}
	if err != nil && !isWouldBlock(err) {
		s.state.StdinClosed = true
	}
}

func (s *pollSession) readChild(r *ring.Buffer, fd int, closed *bool, ep *Endpoints) {
	buf := r.WritableSlice()
	if len(buf) == 0 {
		return
	}
	n, err := rawRead(fd, buf)
	if n > 0 {
		r.CommitWrite(n)
		ep.Timeout.MarkActivity()
	}
	if err != nil && !isWouldBlock(err) {
		*closed = true
	}
}
