//go:build windows

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

// The IOCP backend associates the socket and the three child pipe handles
// with one completion port, keeps one outstanding overlapped WSARecv or
// ReadFile per readable direction and one outstanding WSASend/WriteFile
// per writable direction, and drains GetQueuedCompletionStatus in a loop,
// tagging each outstanding operation's overlapped structure with a
// per-slot marker so a completion can be routed back without a side
// table, the way true proactor-style I/O is normally wired on Windows.
package backend

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"

	liberr "github.com/nabbar/natcore/errors"
	"github.com/nabbar/natcore/ring"
	"github.com/nabbar/natcore/timeout"
)

type iocpOp struct {
	overlapped windows.Overlapped
	slot       uint8
	buf        []byte
	wsabuf     windows.WSABuf
}

type ioCompletionKey uintptr

const (
	keySocket ioCompletionKey = iota + 1
	keyStdin
	keyStdout
	keyStderr
)

type iocpSession struct {
	state SessionState
	port  windows.Handle
}

func newIOCPSession() Session {
	return &iocpSession{}
}

func (s *iocpSession) Kind() Kind { return KindIOCP }

func (s *iocpSession) Run(ep *Endpoints) error {
	port, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, 0)
	if err != nil {
		return liberr.CodeClientSocketError.Error(err)
	}
	defer windows.CloseHandle(port)
	s.port = port

	sockFd, err := connFd(ep.Socket)
	if err != nil {
		return err
	}
	if _, err = windows.CreateIoCompletionPort(windows.Handle(sockFd), port, uintptr(keySocket), 0); err != nil {
		return liberr.CodeClientSocketError.Error(err)
	}
	if _, err = windows.CreateIoCompletionPort(windows.Handle(ep.ChildStdin.Fd()), port, uintptr(keyStdin), 0); err != nil {
		return liberr.CodeClientSocketError.Error(err)
	}
	if _, err = windows.CreateIoCompletionPort(windows.Handle(ep.ChildStdout.Fd()), port, uintptr(keyStdout), 0); err != nil {
		return liberr.CodeClientSocketError.Error(err)
	}
	if _, err = windows.CreateIoCompletionPort(windows.Handle(ep.ChildStderr.Fd()), port, uintptr(keyStderr), 0); err != nil {
		return liberr.CodeClientSocketError.Error(err)
	}

	pending := map[*iocpOp]bool{}

	for !s.state.Done(ep.StdinRing, ep.StdoutRing, ep.StderrRing) {
		if !s.state.SocketReadClosed && !s.state.StdinClosed && ep.StdinRing.AvailableWrite() > 0 && !ep.Flow.ShouldPause() {
			if op := s.postRecv(sockFd, slotSocket, ep.StdinRing); op != nil {
				pending[op] = true
			}
		}
		if !s.state.SocketWriteClosed && (ep.StdoutRing.AvailableRead() > 0 || ep.StderrRing.AvailableRead() > 0) {
			src := ep.StdoutRing
			if src.AvailableRead() == 0 {
				src = ep.StderrRing
			}
			if op := s.postSend(sockFd, slotSocket, src); op != nil {
				pending[op] = true
			}
		}
		if !s.state.StdinClosed && ep.StdinRing.AvailableRead() > 0 {
			if op := s.postWriteFile(ep.ChildStdin, slotStdin, ep.StdinRing); op != nil {
				pending[op] = true
			}
		}
		if !s.state.StdoutClosed && ep.StdoutRing.AvailableWrite() > 0 && !ep.Flow.ShouldPause() {
			if op := s.postReadFile(ep.ChildStdout, slotStdout, ep.StdoutRing); op != nil {
				pending[op] = true
			}
		}
		if !s.state.StderrClosed && ep.StderrRing.AvailableWrite() > 0 && !ep.Flow.ShouldPause() {
			if op := s.postReadFile(ep.ChildStderr, slotStderr, ep.StderrRing); op != nil {
				pending[op] = true
			}
		}

		var bytes uint32
		var key uintptr
		var ov *windows.Overlapped
		timeoutMs := uint32(ep.Timeout.NextPollTimeoutMs())
		err := windows.GetQueuedCompletionStatus(port, &bytes, &key, &ov, timeoutMs)
		if err == windows.WAIT_TIMEOUT {
			if exp := ep.Timeout.Check(); exp != timeout.None {
				return exp.Err()
			}
			continue
		}
		if ov == nil {
			if exp := ep.Timeout.Check(); exp != timeout.None {
				return exp.Err()
			}
			continue
		}

		op := (*iocpOp)(unsafe.Pointer(ov))
		delete(pending, op)
		s.complete(ep, op, bytes, err)

		if exp := ep.Timeout.Check(); exp != timeout.None {
			return exp.Err()
		}
	}
	return nil
}

func (s *iocpSession) complete(ep *Endpoints, op *iocpOp, n uint32, err error) {
	isWrite := op.slot == slotStdin || (op.slot == slotSocket && len(op.buf) == 0)
	failed := err != nil && err != windows.ERROR_IO_PENDING

	switch op.slot {
	case slotSocket:
		if failed || n == 0 {
			s.state.SocketReadClosed = true
			s.state.SocketWriteClosed = true
			return
		}
		if isWrite {
			src := ep.StdoutRing
			if src.AvailableRead() < int(n) {
				src = ep.StderrRing
			}
			src.Consume(int(n))
		} else {
			ep.StdinRing.CommitWrite(int(n))
		}
		ep.Timeout.MarkActivity()
	case slotStdin:
		if failed {
			s.state.StdinClosed = true
			return
		}
		ep.StdinRing.Consume(int(n))
		ep.Timeout.MarkActivity()
	case slotStdout:
		if failed || n == 0 {
			s.state.StdoutClosed = true
			return
		}
		ep.StdoutRing.CommitWrite(int(n))
		ep.Timeout.MarkActivity()
	case slotStderr:
		if failed || n == 0 {
			s.state.StderrClosed = true
			return
		}
		ep.StderrRing.CommitWrite(int(n))
		ep.Timeout.MarkActivity()
	}
}

func (s *iocpSession) postRecv(fd int, slot uint8, r *ring.Buffer) *iocpOp {
	buf := r.WritableSlice()
	if len(buf) == 0 {
		return nil
	}
	op := &iocpOp{slot: slot, buf: buf}
	op.wsabuf = windows.WSABuf{Len: uint32(len(buf)), Buf: &buf[0]}
	var flags, n uint32
	err := windows.WSARecv(windows.Handle(fd), &op.wsabuf, 1, &n, &flags, &op.overlapped, nil)
	if err != nil && err != windows.ERROR_IO_PENDING {
		s.state.SocketReadClosed = true
		return nil
	}
	return op
}

func (s *iocpSession) postSend(fd int, slot uint8, r *ring.Buffer) *iocpOp {
	data := r.ReadableSlice()
	if len(data) == 0 {
		return nil
	}
	op := &iocpOp{slot: slot}
	op.wsabuf = windows.WSABuf{Len: uint32(len(data)), Buf: &data[0]}
	var n uint32
	err := windows.WSASend(windows.Handle(fd), &op.wsabuf, 1, &n, 0, &op.overlapped, nil)
	if err != nil && err != windows.ERROR_IO_PENDING {
		s.state.SocketWriteClosed = true
		return nil
	}
	return op
}

func (s *iocpSession) postReadFile(f *os.File, slot uint8, r *ring.Buffer) *iocpOp {
	buf := r.WritableSlice()
	if len(buf) == 0 {
		return nil
	}
	op := &iocpOp{slot: slot, buf: buf}
	var n uint32
	err := windows.ReadFile(windows.Handle(f.Fd()), buf, &n, &op.overlapped)
	if err != nil && err != windows.ERROR_IO_PENDING {
		return nil
	}
	return op
}

func (s *iocpSession) postWriteFile(f *os.File, slot uint8, r *ring.Buffer) *iocpOp {
	data := r.ReadableSlice()
	if len(data) == 0 {
		return nil
	}
	op := &iocpOp{slot: slot}
	var n uint32
	err := windows.WriteFile(windows.Handle(f.Fd()), data, &n, &op.overlapped)
	if err != nil && err != windows.ERROR_IO_PENDING {
		return nil
	}
	return op
}
